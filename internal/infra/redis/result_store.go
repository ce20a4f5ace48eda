package redis

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"

	"quizdeck/internal/domain"
)

// ResultStore keeps serialized session results under their result keys
// ("quizResult-{id}", "mockTestResult-{id}"). Keys never expire.
type ResultStore struct {
	client *redis.Client
	prefix string
}

// NewResultStore namespaces keys with prefix, e.g. "quizdeck:".
func NewResultStore(client *redis.Client, prefix string) *ResultStore {
	return &ResultStore{client: client, prefix: prefix}
}

func (s *ResultStore) Set(ctx context.Context, key string, value []byte) error {
	return s.client.Set(ctx, s.prefix+key, value, 0).Err()
}

func (s *ResultStore) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := s.client.Get(ctx, s.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, domain.ErrResultNotFound
	}
	return data, err
}

func (s *ResultStore) Remove(ctx context.Context, key string) error {
	return s.client.Del(ctx, s.prefix+key).Err()
}
