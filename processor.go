package versionrouter

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	failure "github.com/hatsunemiku3939/versionrouter/policy/failure"
	"github.com/hatsunemiku3939/versionrouter/version"
)

const unknownVersion = "unknown"

// Processor turns raw product messages into order items: it reads the declared
// version, resolves the adapter for it, parses the payload and appends the
// result to the store. It is safe for concurrent use.
type Processor struct {
	registry *Registry
	store    Store
	logger   *zap.Logger

	middlewares   []Middleware
	failurePolicy failure.Policy
}

var _ MessageProcessor = (*Processor)(nil)

// NewProcessor creates a Processor that accumulates into store.
func NewProcessor(registry *Registry, store Store, opts ...ProcessorOption) *Processor {
	p := &Processor{
		registry:      registry,
		store:         store,
		logger:        zap.NewNop(),
		failurePolicy: failure.DropPolicy{},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Use appends middlewares. The first registered runs outermost.
// Call before the processor starts receiving messages.
func (p *Processor) Use(mw ...Middleware) {
	p.middlewares = append(p.middlewares, mw...)
}

// Store returns the store the processor accumulates into.
func (p *Processor) Store() Store {
	return p.store
}

// Process handles a single message. It never panics; every failure is
// reported through the returned Result, whose Ack field tells the transport
// whether the message is done.
func (p *Processor) Process(ctx context.Context, msg Message) (res Result) {
	state := &RouteState{Message: msg}

	defer func() {
		if rec := recover(); rec != nil {
			res = p.base(state)
			res = p.decide(ctx, failure.FailPanic, fmt.Errorf("%w: %v", ErrPanic, rec), res)
		}
		p.logResult(res)
	}()

	h := p.chain(p.core)
	rr, err := h(ctx, state)
	if err != nil {
		rr = p.fill(rr, state)
		rr = p.decide(ctx, failure.FailMiddleware, fmt.Errorf("%w: %v", ErrMiddleware, err), rr)
	}
	return rr
}

// chain builds the middleware-wrapped handler.
func (p *Processor) chain(core HandlerFunc) HandlerFunc {
	h := core
	for i := len(p.middlewares) - 1; i >= 0; i-- {
		h = p.middlewares[i](h)
	}
	return h
}

// core runs extract -> resolve -> parse -> append.
func (p *Processor) core(ctx context.Context, state *RouteState) (Result, error) {
	res := p.base(state)

	payload, err := version.Extract(state.Message.Body)
	if err != nil {
		return p.decide(ctx, failure.FailMalformedVersion, err, res), nil
	}
	state.Payload = &payload
	res.Version = payload.Version.String()

	adapter, err := p.registry.Resolve(ctx, payload.Version)
	if err != nil {
		return p.decide(ctx, failure.FailUnsupportedVersion, err, res), nil
	}
	state.Adapter = adapter

	item, err := adapter.Parse(payload)
	if err != nil {
		return p.decide(ctx, failure.FailSchemaViolation, err, res), nil
	}
	state.Item = &item

	if err := p.store.Append(ctx, item); err != nil {
		return p.decide(ctx, failure.FailStore, fmt.Errorf("%w: %v", ErrStore, err), res), nil
	}

	res.Item = &item
	res.Ack = true
	return res, nil
}

// base returns a Result prefilled from whatever the state knows so far.
func (p *Processor) base(state *RouteState) Result {
	res := Result{
		MessageID: state.Message.ID,
		Queue:     state.Message.Queue,
		Version:   unknownVersion,
	}
	if state.Payload != nil {
		res.Version = state.Payload.Version.String()
	}
	return res
}

// fill completes identifying fields a middleware may have left empty.
func (p *Processor) fill(res Result, state *RouteState) Result {
	base := p.base(state)
	if res.MessageID == "" {
		res.MessageID = base.MessageID
	}
	if res.Queue == "" {
		res.Queue = base.Queue
	}
	if res.Version == "" {
		res.Version = base.Version
	}
	return res
}

func (p *Processor) decide(ctx context.Context, kind failure.Kind, inner error, current Result) Result {
	decided := p.failurePolicy.Decide(ctx, kind, inner, failure.Result{Ack: current.Ack, Error: current.Error})
	current.Kind = kind
	current.Ack = decided.Ack
	current.Error = decided.Error
	return current
}

func (p *Processor) logResult(res Result) {
	fields := []zap.Field{
		zap.String("message_id", res.MessageID),
		zap.String("queue", res.Queue),
		zap.String("version", res.Version),
	}

	switch {
	case res.Error == nil && res.Item != nil:
		fields = append(fields, zap.String("order_item", res.Item.String()))
		p.logger.Info("order item accumulated", fields...)
	case res.Error == nil:
		p.logger.Info("message acknowledged without accumulation", fields...)
	case res.Ack:
		fields = append(fields, zap.Stringer("kind", res.Kind), zap.Error(res.Error))
		p.logger.Warn("message dropped", fields...)
	default:
		fields = append(fields, zap.Stringer("kind", res.Kind), zap.Error(res.Error))
		p.logger.Error("message processing failed, leaving for redelivery", fields...)
	}
}
