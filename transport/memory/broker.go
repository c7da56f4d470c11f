// Package memory is an in-process message broker with named queues. It backs
// local runs and end-to-end tests of the processing pipeline.
package memory

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hatsunemiku3939/versionrouter"
)

// ErrClosed is returned by operations on a closed Broker.
var ErrClosed = errors.New("memory broker is closed")

// Config controls broker behavior.
type Config struct {
	// BufferSize is the per-queue capacity (default: 1024).
	BufferSize int
	// Concurrency is the number of worker goroutines per subscription (default: 1).
	Concurrency int
	// MaxRedeliveries bounds how often an unacked message is requeued before it
	// is dropped (DefaultConfig: 3, zero disables redelivery).
	MaxRedeliveries int
	// RedeliveryDelay is the delay before requeueing an unacked message (default: 0 = immediate).
	RedeliveryDelay time.Duration
}

// DefaultConfig returns the defaults documented on Config.
func DefaultConfig() Config {
	return Config{BufferSize: 1024, Concurrency: 1, MaxRedeliveries: 3}
}

// Stats is a snapshot of broker counters.
type Stats struct {
	Sent        uint64
	Delivered   uint64
	Acked       uint64
	Redelivered uint64
	Dropped     uint64
}

// Broker implements versionrouter.Sender and drives subscribed processors.
type Broker struct {
	cfg    Config
	logger *zap.Logger

	mu     sync.Mutex
	queues map[string]*queue
	closed atomic.Bool

	sent        atomic.Uint64
	delivered   atomic.Uint64
	acked       atomic.Uint64
	redelivered atomic.Uint64
	dropped     atomic.Uint64
}

var _ versionrouter.Sender = (*Broker)(nil)

type queue struct {
	name string
	ch   chan *delivery
}

type delivery struct {
	id       string
	body     []byte
	attempts int
}

// NewBroker creates a broker. Non-positive BufferSize and Concurrency take their defaults.
func NewBroker(cfg Config, logger *zap.Logger) *Broker {
	def := DefaultConfig()
	if cfg.BufferSize < 1 {
		cfg.BufferSize = def.BufferSize
	}
	if cfg.Concurrency < 1 {
		cfg.Concurrency = def.Concurrency
	}
	if cfg.MaxRedeliveries < 0 {
		cfg.MaxRedeliveries = def.MaxRedeliveries
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Broker{
		cfg:    cfg,
		logger: logger,
		queues: make(map[string]*queue),
	}
}

// SendTextMessage enqueues body on the named queue. Messages sent before any
// subscription are buffered. It blocks while the queue is full.
func (b *Broker) SendTextMessage(ctx context.Context, queueName, body string) error {
	if b.closed.Load() {
		return ErrClosed
	}
	q := b.ensureQueue(queueName)
	d := &delivery{id: uuid.NewString(), body: []byte(body)}

	select {
	case q.ch <- d:
		b.sent.Add(1)
		b.logger.Debug("message sent", zap.String("queue", queueName), zap.String("message_id", d.id))
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Subscribe starts Concurrency workers delivering messages from the named
// queue to proc until ctx is canceled or the subscription is closed.
func (b *Broker) Subscribe(ctx context.Context, queueName string, proc versionrouter.MessageProcessor) (*Subscription, error) {
	if b.closed.Load() {
		return nil, ErrClosed
	}
	if proc == nil {
		return nil, errors.New("memory broker: nil processor")
	}

	q := b.ensureQueue(queueName)
	innerCtx, cancel := context.WithCancel(ctx)
	sub := &Subscription{cancel: cancel}

	for i := 0; i < b.cfg.Concurrency; i++ {
		sub.wg.Add(1)
		go func() {
			defer sub.wg.Done()
			b.worker(innerCtx, q, proc)
		}()
	}

	b.logger.Info("subscribed to queue", zap.String("queue", queueName), zap.Int("workers", b.cfg.Concurrency))
	return sub, nil
}

func (b *Broker) worker(ctx context.Context, q *queue, proc versionrouter.MessageProcessor) {
	for {
		select {
		case <-ctx.Done():
			return
		case d := <-q.ch:
			b.delivered.Add(1)
			d.attempts++
			res := proc.Process(ctx, versionrouter.Message{ID: d.id, Queue: q.name, Body: d.body})
			if res.Ack {
				b.acked.Add(1)
				continue
			}
			b.nack(ctx, q, d)
		}
	}
}

// nack requeues d unless it ran out of redeliveries.
func (b *Broker) nack(ctx context.Context, q *queue, d *delivery) {
	if d.attempts > b.cfg.MaxRedeliveries {
		b.dropped.Add(1)
		b.logger.Warn("message dropped after max redeliveries",
			zap.String("queue", q.name),
			zap.String("message_id", d.id),
			zap.Int("attempts", d.attempts),
		)
		return
	}

	b.redelivered.Add(1)
	go func() {
		if delay := b.cfg.RedeliveryDelay; delay > 0 {
			timer := time.NewTimer(delay)
			defer timer.Stop()
			select {
			case <-timer.C:
			case <-ctx.Done():
				return
			}
		}
		select {
		case q.ch <- d:
		case <-ctx.Done():
		}
	}()
}

// Close rejects further sends and subscriptions. Running subscriptions keep
// going until they are closed or their context ends.
func (b *Broker) Close() error {
	b.closed.Store(true)
	return nil
}

// Stats returns current broker counters.
func (b *Broker) Stats() Stats {
	return Stats{
		Sent:        b.sent.Load(),
		Delivered:   b.delivered.Load(),
		Acked:       b.acked.Load(),
		Redelivered: b.redelivered.Load(),
		Dropped:     b.dropped.Load(),
	}
}

// Pending returns the number of messages waiting on the named queue.
func (b *Broker) Pending(queueName string) int {
	b.mu.Lock()
	q, ok := b.queues[queueName]
	b.mu.Unlock()
	if !ok {
		return 0
	}
	return len(q.ch)
}

func (b *Broker) ensureQueue(name string) *queue {
	b.mu.Lock()
	defer b.mu.Unlock()
	if q, ok := b.queues[name]; ok {
		return q
	}
	q := &queue{name: name, ch: make(chan *delivery, b.cfg.BufferSize)}
	b.queues[name] = q
	return q
}

// Subscription is an active queue subscription.
type Subscription struct {
	cancel context.CancelFunc
	wg     sync.WaitGroup
	once   sync.Once
}

// Close stops the workers and waits for in-flight messages to finish.
func (s *Subscription) Close() error {
	s.once.Do(func() {
		s.cancel()
		s.wg.Wait()
	})
	return nil
}
