package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/armin-soft/Fit-Master-sub001/domain"
	"github.com/redis/go-redis/v9"
)

// AuthRecordRepositoryImpl implements domain.AuthRecordRepository using Redis
type AuthRecordRepositoryImpl struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewAuthRecordRepository creates a new auth record repository. Records
// expire ttl after their last save; a zero ttl keeps them forever.
func NewAuthRecordRepository(client *redis.Client, ttl time.Duration) domain.AuthRecordRepository {
	return &AuthRecordRepositoryImpl{
		client: client,
		prefix: "auth:",
		ttl:    ttl,
	}
}

func (r *AuthRecordRepositoryImpl) key(role domain.Role, clientID string) string {
	return fmt.Sprintf("%s%s:%s", r.prefix, role, clientID)
}

// Find implements domain.AuthRecordRepository
func (r *AuthRecordRepositoryImpl) Find(ctx context.Context, role domain.Role, clientID string) (*domain.AuthRecord, error) {
	data, err := r.client.Get(ctx, r.key(role, clientID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, domain.ErrRecordNotFound
		}
		return nil, err
	}

	var record domain.AuthRecord
	if err := json.Unmarshal([]byte(data), &record); err != nil {
		return nil, fmt.Errorf("failed to unmarshal auth record: %w", err)
	}
	// the key is authoritative
	record.Role = role
	record.ClientID = clientID
	return &record, nil
}

// Save implements domain.AuthRecordRepository
func (r *AuthRecordRepositoryImpl) Save(ctx context.Context, record *domain.AuthRecord) error {
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal auth record: %w", err)
	}
	return r.client.Set(ctx, r.key(record.Role, record.ClientID), data, r.ttl).Err()
}

// Delete implements domain.AuthRecordRepository
func (r *AuthRecordRepositoryImpl) Delete(ctx context.Context, role domain.Role, clientID string) error {
	return r.client.Del(ctx, r.key(role, clientID)).Err()
}
