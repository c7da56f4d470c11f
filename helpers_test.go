package versionrouter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hatsunemiku3939/versionrouter/version"
)

const testQueue = "processor-queue-1"

// stubAdapter accepts {"media","name","author"} for a single major version.
type stubAdapter struct {
	major int
	calls atomic.Int32
	parse func(p version.Payload) (OrderItem, error)
}

func (a *stubAdapter) Major() int { return a.major }

func (a *stubAdapter) Parse(p version.Payload) (OrderItem, error) {
	a.calls.Add(1)
	if a.parse != nil {
		return a.parse(p)
	}
	var body struct {
		Media  string `json:"media"`
		Name   string `json:"name"`
		Author string `json:"author"`
	}
	if err := json.Unmarshal(p.Raw, &body); err != nil {
		return OrderItem{}, fmt.Errorf("%w: %v", ErrSchemaViolation, err)
	}
	if body.Name == "" {
		return OrderItem{}, fmt.Errorf("%w: name is required", ErrSchemaViolation)
	}
	return OrderItem{Version: p.Version, Media: Media(body.Media), Name: body.Name, Author: body.Author}, nil
}

// failingStore rejects every append.
type failingStore struct {
	MemoryStore
}

func (s *failingStore) Append(context.Context, OrderItem) error {
	return errors.New("disk full")
}

func newTestRegistry(t *testing.T, majors ...int) *Registry {
	t.Helper()
	adapters := make([]SchemaAdapter, 0, len(majors))
	for _, m := range majors {
		adapters = append(adapters, &stubAdapter{major: m})
	}
	r, err := NewRegistry(adapters)
	require.NoError(t, err)
	return r
}

func createTestMessage(id, ver, name string) Message {
	body := fmt.Sprintf(`{"version": %q, "media": "Book", "name": %q, "author": "Iain M Banks"}`, ver, name)
	return Message{ID: id, Queue: testQueue, Body: []byte(body)}
}

func storedStrings(t *testing.T, s Store) []string {
	t.Helper()
	items, err := s.Items(context.Background())
	require.NoError(t, err)
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.String()
	}
	return out
}
