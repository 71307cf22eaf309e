// Package redis provides a storage.KV backed by Redis, for terminals that
// share state across machines.
package redis

import (
	"context"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/redis/go-redis/v9"

	"github.com/xenking/foodhub-client/internal/storage"
)

var (
	_ storage.KV     = (*Store)(nil)
	_ storage.Pinger = (*Store)(nil)
)

// Store keeps values as plain Redis strings under a key prefix.
type Store struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// Options configures a Store.
type Options struct {
	// Prefix namespaces keys as "<prefix>:<key>". Defaults to "foodhub".
	Prefix string
	// TTL expires idle entries. Zero keeps them forever.
	TTL time.Duration
}

// New wraps an existing client.
func New(client *redis.Client, opts Options) *Store {
	if opts.Prefix == "" {
		opts.Prefix = "foodhub"
	}
	return &Store{client: client, prefix: opts.Prefix, ttl: opts.TTL}
}

// Dial parses a redis:// URL and returns a Store with its own client.
func Dial(url string, opts Options) (*Store, error) {
	o, err := redis.ParseURL(url)
	if err != nil {
		return nil, errors.Wrap(err, "parse redis url")
	}
	return New(redis.NewClient(o), opts), nil
}

func (s *Store) key(k string) string {
	var b strings.Builder
	b.Grow(len(s.prefix) + 1 + len(k))
	b.WriteString(s.prefix)
	b.WriteByte(':')
	b.WriteString(k)
	return b.String()
}

// Get returns the value for key or storage.ErrNotFound.
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	v, err := s.client.Get(ctx, s.key(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, storage.ErrNotFound
		}
		return nil, errors.Wrapf(err, "redis get %q", key)
	}
	return v, nil
}

// Set overwrites the value for key.
func (s *Store) Set(ctx context.Context, key string, value []byte) error {
	if err := s.client.Set(ctx, s.key(key), value, s.ttl).Err(); err != nil {
		return errors.Wrapf(err, "redis set %q", key)
	}
	return nil
}

// Ping checks connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close releases the client.
func (s *Store) Close() error {
	return s.client.Close()
}
