// Package redisstore persists subscriber requests as a single JSON value in Redis.
package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/couchcryptid/heatwatch-service/internal/domain"
	"github.com/go-redis/redis/v8"
)

// Store implements domain.DurableStore. SET replaces the value atomically,
// so a failed save leaves the previous snapshot readable.
type Store struct {
	client *redis.Client
	key    string
}

// New returns a store that keeps the request collection under key.
func New(client *redis.Client, key string) *Store {
	return &Store{client: client, key: key}
}

// Load returns the saved requests, or an empty slice if the key does not exist.
func (s *Store) Load(ctx context.Context) ([]domain.SubscriberRequest, error) {
	data, err := s.client.Get(ctx, s.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return []domain.SubscriberRequest{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis get %s: %w", s.key, err)
	}

	var requests []domain.SubscriberRequest
	if err := json.Unmarshal(data, &requests); err != nil {
		return nil, fmt.Errorf("decode %s: %w", s.key, err)
	}
	if requests == nil {
		requests = []domain.SubscriberRequest{}
	}
	return requests, nil
}

func (s *Store) Save(ctx context.Context, requests []domain.SubscriberRequest) error {
	if requests == nil {
		requests = []domain.SubscriberRequest{}
	}
	data, err := json.Marshal(requests)
	if err != nil {
		return fmt.Errorf("encode requests: %w", err)
	}
	if err := s.client.Set(ctx, s.key, data, 0).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", s.key, err)
	}
	return nil
}

// CheckReadiness pings Redis.
func (s *Store) CheckReadiness(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping: %w", err)
	}
	return nil
}
