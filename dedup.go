package versionrouter

import (
	"context"
	"time"

	"github.com/jellydator/ttlcache/v3"
	"go.uber.org/zap"
)

// Deduplicator remembers the IDs of messages that were accumulated and acks
// later redeliveries of the same ID without processing them again. Messages
// without an ID are always processed.
type Deduplicator struct {
	seen   *ttlcache.Cache[string, struct{}]
	logger *zap.Logger
}

// NewDeduplicator keeps accumulated message IDs for ttl. Call Close to stop the
// background expiry loop.
func NewDeduplicator(ttl time.Duration, logger *zap.Logger) *Deduplicator {
	if logger == nil {
		logger = zap.NewNop()
	}
	seen := ttlcache.New[string, struct{}](
		ttlcache.WithTTL[string, struct{}](ttl),
	)
	go seen.Start()
	return &Deduplicator{seen: seen, logger: logger}
}

// Middleware returns the deduplicating middleware.
func (d *Deduplicator) Middleware() Middleware {
	return func(next HandlerFunc) HandlerFunc {
		return func(ctx context.Context, state *RouteState) (Result, error) {
			id := state.Message.ID
			if id == "" {
				return next(ctx, state)
			}
			if d.seen.Has(id) {
				d.logger.Info("duplicate delivery acknowledged", zap.String("message_id", id))
				return Result{
					MessageID: id,
					Queue:     state.Message.Queue,
					Version:   unknownVersion,
					Ack:       true,
				}, nil
			}

			res, err := next(ctx, state)
			if err == nil && res.Item != nil {
				d.seen.Set(id, struct{}{}, ttlcache.DefaultTTL)
			}
			return res, err
		}
	}
}

// Len returns the number of remembered IDs.
func (d *Deduplicator) Len() int {
	return d.seen.Len()
}

// Close stops the expiry loop.
func (d *Deduplicator) Close() {
	d.seen.Stop()
}
