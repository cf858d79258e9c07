// Package redisstore provides a Redis-backed implementation of the
// storage.Store interface, shared between any number of board servers.
package redisstore

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/humzaiqbal/trash-tracker/internal/storage"
)

const (
	defaultPrefix      = "board:"
	subscriberCapacity = 16
)

// Ensure RedisStore implements storage.Store
var _ storage.Store = (*RedisStore)(nil)

// envelope is what gets published on a key's change channel.
type envelope struct {
	Revision string          `json:"revision"`
	Value    json.RawMessage `json:"value"`
}

// RedisStore keeps each document as a plain string value and announces
// every write on a per-key pub/sub channel.
type RedisStore struct {
	client *redis.Client
	prefix string
}

// NewRedisStore creates a new Redis-backed document store
func NewRedisStore(redisURL string) (*RedisStore, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	return NewRedisStoreWithClient(client), nil
}

// NewRedisStoreWithClient creates a store from an existing Redis client
func NewRedisStoreWithClient(client *redis.Client) *RedisStore {
	return &RedisStore{
		client: client,
		prefix: defaultPrefix,
	}
}

func (s *RedisStore) key(key string) string {
	return s.prefix + key
}

func (s *RedisStore) channel(key string) string {
	return s.prefix + "changes:" + key
}

// Get retrieves the document stored at key
func (s *RedisStore) Get(ctx context.Context, key string) (json.RawMessage, error) {
	data, err := s.client.Get(ctx, s.key(key)).Bytes()
	if err == redis.Nil {
		return nil, fmt.Errorf("%w: %s", storage.ErrNotFound, key)
	}
	if err != nil {
		return nil, fmt.Errorf("get document: %w", err)
	}
	return json.RawMessage(data), nil
}

// Set replaces the document at key and publishes it to subscribers
func (s *RedisStore) Set(ctx context.Context, key string, value json.RawMessage) error {
	if !json.Valid(value) {
		return fmt.Errorf("refusing to store invalid JSON at %s", key)
	}
	message, err := json.Marshal(envelope{Revision: uuid.New().String(), Value: value})
	if err != nil {
		return fmt.Errorf("marshal change: %w", err)
	}

	if err := s.client.Set(ctx, s.key(key), []byte(value), 0).Err(); err != nil {
		return fmt.Errorf("set document: %w", err)
	}
	if err := s.client.Publish(ctx, s.channel(key), message).Err(); err != nil {
		return fmt.Errorf("publish change: %w", err)
	}
	return nil
}

// Subscribe delivers every later write to key until ctx is done
func (s *RedisStore) Subscribe(ctx context.Context, key string) (<-chan storage.Change, error) {
	pubsub := s.client.Subscribe(ctx, s.channel(key))
	// Wait for the subscription to be confirmed so no write is missed.
	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		return nil, fmt.Errorf("subscribe to %s: %w", key, err)
	}

	out := make(chan storage.Change, subscriberCapacity)
	go func() {
		defer close(out)
		defer pubsub.Close()

		messages := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-messages:
				if !ok {
					return
				}
				var env envelope
				if err := json.Unmarshal([]byte(msg.Payload), &env); err != nil {
					slog.Warn("Ignoring malformed change message", "key", key, "error", err)
					continue
				}
				select {
				case out <- storage.Change{Key: key, Value: env.Value, Revision: env.Revision}:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}

// Ping checks if Redis is reachable
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close closes the Redis connection
func (s *RedisStore) Close() error {
	return s.client.Close()
}
