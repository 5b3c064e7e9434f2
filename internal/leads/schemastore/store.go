// Package schemastore keeps raw lead schema documents in Redis so worker replicas share
// one copy per provider code.
package schemastore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const DefaultPrefix = "lead-schema:"

type Store struct {
	client redis.Cmdable
	ttl    time.Duration
	prefix string
}

// New returns a store writing keys under prefix. A ttl of zero keeps entries until they
// are deleted.
func New(client redis.Cmdable, ttl time.Duration, prefix string) *Store {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &Store{client: client, ttl: ttl, prefix: prefix}
}

func (s *Store) key(providerCode string) string {
	return s.prefix + providerCode
}

func (s *Store) Get(ctx context.Context, providerCode string) (string, bool, error) {
	raw, err := s.client.Get(ctx, s.key(providerCode)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get schema %s: %w", providerCode, err)
	}
	return raw, true, nil
}

func (s *Store) Set(ctx context.Context, providerCode, raw string) error {
	if err := s.client.Set(ctx, s.key(providerCode), raw, s.ttl).Err(); err != nil {
		return fmt.Errorf("set schema %s: %w", providerCode, err)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, providerCode string) error {
	if err := s.client.Del(ctx, s.key(providerCode)).Err(); err != nil {
		return fmt.Errorf("delete schema %s: %w", providerCode, err)
	}
	return nil
}
