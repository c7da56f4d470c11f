package kafka

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hatsunemiku3939/versionrouter"
	"github.com/hatsunemiku3939/versionrouter/adapters/product"
)

const topic = "processor-queue-1"

// fakeReader serves queued messages and records commits.
type fakeReader struct {
	msgs     chan kafka.Message
	fetchErr chan error

	mu        sync.Mutex
	committed []kafka.Message
	closed    bool
}

func newFakeReader(msgs ...kafka.Message) *fakeReader {
	r := &fakeReader{msgs: make(chan kafka.Message, len(msgs)+1), fetchErr: make(chan error, 1)}
	for _, m := range msgs {
		r.msgs <- m
	}
	return r
}

func (r *fakeReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	select {
	case err := <-r.fetchErr:
		return kafka.Message{}, err
	case m := <-r.msgs:
		return m, nil
	case <-ctx.Done():
		return kafka.Message{}, ctx.Err()
	}
}

func (r *fakeReader) CommitMessages(_ context.Context, msgs ...kafka.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.committed = append(r.committed, msgs...)
	return nil
}

func (r *fakeReader) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	return nil
}

func (r *fakeReader) committedOffsets() []int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]int64, 0, len(r.committed))
	for _, m := range r.committed {
		out = append(out, m.Offset)
	}
	return out
}

type fakeWriter struct {
	written []kafka.Message
	err     error
	closed  bool
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.written = append(w.written, msgs...)
	return nil
}

func (w *fakeWriter) Close() error {
	w.closed = true
	return nil
}

func kafkaMessage(offset int64, body string) kafka.Message {
	return kafka.Message{Topic: topic, Partition: 0, Offset: offset, Value: []byte(body)}
}

func runConsumer(t *testing.T, reader *fakeReader, proc versionrouter.MessageProcessor) (cancel func()) {
	t.Helper()
	ctx, cancelCtx := context.WithCancel(context.Background())
	done := make(chan error, 1)
	c := NewConsumer(reader, topic, proc, nil)
	go func() { done <- c.Start(ctx) }()
	return func() {
		cancelCtx()
		select {
		case err := <-done:
			require.NoError(t, err)
		case <-time.After(2 * time.Second):
			t.Fatal("consumer did not stop")
		}
	}
}

func TestConsumer_CommitsOnlyAckedMessages(t *testing.T) {
	registry, err := product.NewRegistry()
	require.NoError(t, err)
	store := versionrouter.NewMemoryStore()
	proc := versionrouter.NewProcessor(registry, store)

	reader := newFakeReader(
		kafkaMessage(0, `{"version": "2.3.4", "media": "Book", "name": "The Player of Games", "author": "Iain M Banks"}`),
		kafkaMessage(1, `{"version": "7.0.0"}`),
	)
	stop := runConsumer(t, reader, proc)

	require.Eventually(t, func() bool { return len(reader.committedOffsets()) == 2 }, 2*time.Second, 5*time.Millisecond)
	stop()

	assert.Equal(t, []int64{0, 1}, reader.committedOffsets(), "dropped messages are committed too")
	assert.True(t, reader.closed)

	items, err := store.Items(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "V2.3.4 media=Book, name=The Player of Games, author=Iain M Banks", items[0].String())
}

func TestConsumer_SkipsCommitWhenNotAcked(t *testing.T) {
	var mu sync.Mutex
	var seen []versionrouter.Message
	proc := processorFunc(func(_ context.Context, msg versionrouter.Message) versionrouter.Result {
		mu.Lock()
		seen = append(seen, msg)
		mu.Unlock()
		return versionrouter.Result{MessageID: msg.ID, Ack: false, Error: versionrouter.ErrStore}
	})

	reader := newFakeReader(kafkaMessage(42, `{}`))
	stop := runConsumer(t, reader, proc)

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(seen) == 1
	}, 2*time.Second, 5*time.Millisecond)
	stop()

	assert.Empty(t, reader.committedOffsets())
	assert.Equal(t, topic+"/0/42", seen[0].ID)
	assert.Equal(t, topic, seen[0].Queue)
}

func TestConsumer_RecoversFromFetchErrors(t *testing.T) {
	reader := newFakeReader()
	reader.fetchErr <- errors.New("broker unavailable")
	reader.msgs <- kafkaMessage(3, `{}`)

	stop := runConsumer(t, reader, processorFunc(func(_ context.Context, msg versionrouter.Message) versionrouter.Result {
		return versionrouter.Result{MessageID: msg.ID, Ack: true}
	}))

	require.Eventually(t, func() bool { return len(reader.committedOffsets()) == 1 }, 3*time.Second, 10*time.Millisecond)
	stop()
}

func TestSender_SendTextMessage(t *testing.T) {
	w := &fakeWriter{}
	s := NewSender(w, nil)

	require.NoError(t, s.SendTextMessage(context.Background(), topic, `{"version": "2.0.0"}`))
	require.Len(t, w.written, 1)
	assert.Equal(t, topic, w.written[0].Topic)
	assert.Equal(t, `{"version": "2.0.0"}`, string(w.written[0].Value))

	require.NoError(t, s.Close())
	assert.True(t, w.closed)

	failing := NewSender(&fakeWriter{err: kafka.LeaderNotAvailable}, nil)
	err := failing.SendTextMessage(context.Background(), topic, "x")
	assert.ErrorIs(t, err, kafka.LeaderNotAvailable)
}

func TestMessageID(t *testing.T) {
	assert.Equal(t, "orders/3/17", MessageID(kafka.Message{Topic: "orders", Partition: 3, Offset: 17}))
}

type processorFunc func(ctx context.Context, msg versionrouter.Message) versionrouter.Result

func (f processorFunc) Process(ctx context.Context, msg versionrouter.Message) versionrouter.Result {
	return f(ctx, msg)
}
