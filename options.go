package versionrouter

import (
	"go.uber.org/zap"

	failure "github.com/hatsunemiku3939/versionrouter/policy/failure"
)

// ProcessorOption configures a Processor at construction time.
type ProcessorOption func(*Processor)

// WithFailurePolicy sets a custom failure policy for the Processor.
func WithFailurePolicy(p failure.Policy) ProcessorOption {
	return func(pr *Processor) {
		if p != nil {
			pr.failurePolicy = p
		}
	}
}

// WithLogger sets the logger used to report every processed message.
func WithLogger(l *zap.Logger) ProcessorOption {
	return func(pr *Processor) {
		if l != nil {
			pr.logger = l
		}
	}
}

// WithMiddleware registers middlewares, same as Use.
func WithMiddleware(mw ...Middleware) ProcessorOption {
	return func(pr *Processor) { pr.Use(mw...) }
}
