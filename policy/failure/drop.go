package failure

import "context"

// DropPolicy acks (drops) messages that can never succeed: malformed or
// unsupported versions, schema violations and panics. Store and middleware
// failures keep the current decision, which leaves them unacked so the
// transport redelivers them.
type DropPolicy struct{}

// Decide implements DropPolicy behavior.
func (DropPolicy) Decide(_ context.Context, kind Kind, inner error, current Result) Result {
	switch kind {
	case FailNone:
		return current
	case FailMalformedVersion, FailUnsupportedVersion, FailSchemaViolation, FailPanic:
		current.Ack = true
	case FailStore, FailMiddleware:
	default:
		return current
	}
	if inner != nil && current.Error == nil {
		current.Error = inner
	}
	return current
}
