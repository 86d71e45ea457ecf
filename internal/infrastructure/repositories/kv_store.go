package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/armin-soft/Fit-Master-sub001/domain"
	"github.com/redis/go-redis/v9"
)

// KVStoreImpl implements domain.KeyValueStore for one client using Redis
type KVStoreImpl struct {
	client *redis.Client
	prefix string
}

// NewKVStore creates the key-value storage of clientID
func NewKVStore(client *redis.Client, clientID string) domain.KeyValueStore {
	return &KVStoreImpl{
		client: client,
		prefix: fmt.Sprintf("kv:%s:", clientID),
	}
}

// Get implements domain.KeyValueStore
func (s *KVStoreImpl) Get(ctx context.Context, key string) (string, bool, error) {
	value, err := s.client.Get(ctx, s.prefix+key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", false, nil
		}
		return "", false, err
	}
	return value, true, nil
}

// Set implements domain.KeyValueStore
func (s *KVStoreImpl) Set(ctx context.Context, key, value string) error {
	return s.client.Set(ctx, s.prefix+key, value, 0).Err()
}

// Delete implements domain.KeyValueStore
func (s *KVStoreImpl) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	prefixed := make([]string, len(keys))
	for i, key := range keys {
		prefixed[i] = s.prefix + key
	}
	return s.client.Del(ctx, prefixed...).Err()
}
