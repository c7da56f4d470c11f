package versionrouter_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hatsunemiku3939/versionrouter"
	"github.com/hatsunemiku3939/versionrouter/adapters/product"
	"github.com/hatsunemiku3939/versionrouter/transport/memory"
)

const queueName = "processor-queue-1"

const productV2JSON = `
{
      "version": "2.3.4",
      "media": "Book",
      "name": "The Player of Games",
      "author": "Iain M Banks",
      "genre": "Science Fiction",
      "personas":
      [
          {
              "name": "Jernau Morat Gurgeh",
              "role": "Board Game Player",
              "allegiance": "UNALIGNED",
              "note": "Chiark Orbital Citizen"
          },
          {
              "name": "Mawhrin-Skel",
              "role": "Drone",
              "allegiance": "CULTURE",
              "note": "Special Circumstance"
          }
      ]
}
`

// startPipeline wires the standard adapters, a memory store and an embedded
// broker subscribed to queueName.
func startPipeline(t *testing.T) (*memory.Broker, versionrouter.Store) {
	t.Helper()

	registry, err := product.NewRegistry()
	require.NoError(t, err)

	store := versionrouter.NewMemoryStore()
	proc := versionrouter.NewProcessor(registry, store)

	broker := memory.NewBroker(memory.DefaultConfig(), nil)
	sub, err := broker.Subscribe(context.Background(), queueName, proc)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = sub.Close()
		_ = broker.Close()
	})
	return broker, store
}

func waitForAcked(t *testing.T, broker *memory.Broker, n uint64) {
	t.Helper()
	require.Eventually(t, func() bool { return broker.Stats().Acked >= n }, 2*time.Second, 5*time.Millisecond)
}

func itemStrings(t *testing.T, store versionrouter.Store) []string {
	t.Helper()
	items, err := store.Items(context.Background())
	require.NoError(t, err)
	out := make([]string, 0, len(items))
	for _, it := range items {
		out = append(out, it.String())
	}
	return out
}

func TestProcessProductV2MessageToOrderItem(t *testing.T) {
	ctx := context.Background()
	broker, store := startPipeline(t)

	require.NoError(t, store.Clear(ctx))
	n, err := store.Len(ctx)
	require.NoError(t, err)
	require.Zero(t, n)

	require.NoError(t, broker.SendTextMessage(ctx, queueName, productV2JSON))
	waitForAcked(t, broker, 1)

	n, err = store.Len(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, []string{"V2.3.4 media=Book, name=The Player of Games, author=Iain M Banks"}, itemStrings(t, store))
}

func TestPipelineDropsUnprocessableMessages(t *testing.T) {
	ctx := context.Background()
	broker, store := startPipeline(t)

	bodies := []string{
		`{"version": "9.0.0", "media": "Book", "name": "n", "author": "a"}`,
		`{"media": "Book", "name": "n", "author": "a"}`,
		`{"version": "2.0.0", "media": "Book"}`,
		`not json at all`,
	}
	for _, b := range bodies {
		require.NoError(t, broker.SendTextMessage(ctx, queueName, b))
	}
	waitForAcked(t, broker, uint64(len(bodies)))

	assert.Empty(t, itemStrings(t, store))
	assert.Zero(t, broker.Stats().Redelivered)
}

func TestPipelineKeepsArrivalOrderAcrossVersions(t *testing.T) {
	ctx := context.Background()
	broker, store := startPipeline(t)

	require.NoError(t, broker.SendTextMessage(ctx, queueName, productV2JSON))
	require.NoError(t, broker.SendTextMessage(ctx, queueName,
		`{"version": "1.2.0", "type": "Music", "title": "Blue Train", "creator": "John Coltrane"}`))
	waitForAcked(t, broker, 2)

	assert.Equal(t, []string{
		"V2.3.4 media=Book, name=The Player of Games, author=Iain M Banks",
		"V1.2.0 media=Music, name=Blue Train, author=John Coltrane",
	}, itemStrings(t, store))
}
