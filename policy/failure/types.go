package failure

import "context"

// Kind enumerates where in the pipeline a failure occurred.
type Kind int

const (
	// FailNone indicates no failure occurred.
	FailNone Kind = iota
	// FailMalformedVersion indicates the version field was missing, not a string, or not MAJOR.MINOR.PATCH.
	FailMalformedVersion
	// FailUnsupportedVersion indicates no adapter is registered for the declared major version.
	FailUnsupportedVersion
	// FailSchemaViolation indicates the payload did not match its adapter's shape.
	FailSchemaViolation
	// FailStore indicates the normalized item could not be appended to the store.
	FailStore
	// FailPanic indicates a panic was recovered while processing.
	FailPanic
	// FailMiddleware indicates a middleware returned an error.
	FailMiddleware
)

var kindNames = [...]string{
	FailNone:               "none",
	FailMalformedVersion:   "malformed_version",
	FailUnsupportedVersion: "unsupported_version",
	FailSchemaViolation:    "schema_violation",
	FailStore:              "store",
	FailPanic:              "panic",
	FailMiddleware:         "middleware",
}

func (k Kind) String() string {
	if k >= 0 && int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// Result represents the ack decision and error to attach.
type Result struct {
	// Ack is true when the transport should not redeliver the message.
	Ack   bool
	Error error
}

// Policy decides the final Result given a failure classification and current decision.
type Policy interface {
	Decide(ctx context.Context, kind Kind, inner error, current Result) Result
}

// PolicyFunc adapts a function to Policy.
type PolicyFunc func(ctx context.Context, kind Kind, inner error, current Result) Result

func (f PolicyFunc) Decide(ctx context.Context, kind Kind, inner error, current Result) Result {
	return f(ctx, kind, inner, current)
}
