package failure

import "context"

// RedrivePolicy never acks a failed message, leaving retries and dead-lettering
// to the broker's redrive configuration.
type RedrivePolicy struct{}

// Decide implements the Policy interface for broker redrive delegation.
func (RedrivePolicy) Decide(_ context.Context, kind Kind, inner error, current Result) Result {
	if kind == FailNone {
		return current
	}
	current.Ack = false
	if inner != nil && current.Error == nil {
		current.Error = inner
	}
	return current
}
