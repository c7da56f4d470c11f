// Package redis keeps accumulated order items in a Redis list so several
// processor instances can share one store.
package redis

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/hatsunemiku3939/versionrouter"
)

// DefaultKey is the list key used when none is configured.
const DefaultKey = "versionrouter:order_items"

// Store is a versionrouter.Store backed by a Redis list. Items are JSON
// encoded and appended with RPUSH, so list order is arrival order.
type Store struct {
	client redis.UniversalClient
	key    string
}

var _ versionrouter.Store = (*Store)(nil)

// Options configures the Redis connection.
type Options struct {
	Addr     string
	Password string
	DB       int
	Key      string
}

// New connects to Redis and verifies the connection with PING.
func New(ctx context.Context, opts Options) (*Store, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping %s: %w", opts.Addr, err)
	}
	return NewWithClient(client, opts.Key), nil
}

// NewWithClient wraps an existing client. An empty key selects DefaultKey.
func NewWithClient(client redis.UniversalClient, key string) *Store {
	if key == "" {
		key = DefaultKey
	}
	return &Store{client: client, key: key}
}

// Key returns the list key.
func (s *Store) Key() string {
	return s.key
}

func (s *Store) Append(ctx context.Context, item versionrouter.OrderItem) error {
	data, err := json.Marshal(item)
	if err != nil {
		return fmt.Errorf("failed to serialize order item: %w", err)
	}
	return s.client.RPush(ctx, s.key, data).Err()
}

func (s *Store) Items(ctx context.Context) ([]versionrouter.OrderItem, error) {
	raw, err := s.client.LRange(ctx, s.key, 0, -1).Result()
	if err != nil {
		return nil, err
	}
	items := make([]versionrouter.OrderItem, 0, len(raw))
	for i, r := range raw {
		var item versionrouter.OrderItem
		if err := json.Unmarshal([]byte(r), &item); err != nil {
			return nil, fmt.Errorf("failed to deserialize order item %d: %w", i, err)
		}
		items = append(items, item)
	}
	return items, nil
}

func (s *Store) Len(ctx context.Context) (int, error) {
	n, err := s.client.LLen(ctx, s.key).Result()
	if err != nil {
		return 0, err
	}
	return int(n), nil
}

func (s *Store) Clear(ctx context.Context) error {
	return s.client.Del(ctx, s.key).Err()
}

// Close closes the underlying client.
func (s *Store) Close() error {
	return s.client.Close()
}
