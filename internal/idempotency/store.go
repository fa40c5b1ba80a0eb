// Package idempotency stores the first response produced for a client-supplied
// idempotency key, so a retried request is answered with the original outcome
// instead of being applied twice.
package idempotency

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const DefaultTTL = 24 * time.Hour

// Response is the stored outcome of the first request with a given key.
type Response struct {
	Status int             `json:"status"`
	Body   json.RawMessage `json:"body"`
}

type Store struct {
	redis redis.UniversalClient
	ttl   time.Duration
}

func NewStore(client redis.UniversalClient, ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	return &Store{redis: client, ttl: ttl}
}

// Get returns the stored response for key, or nil when the key is unseen.
func (s *Store) Get(ctx context.Context, scope, key string) (*Response, error) {
	data, err := s.redis.Get(ctx, s.key(scope, key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}

	var resp Response
	err = json.Unmarshal(data, &resp)
	if err != nil {
		return nil, fmt.Errorf("corrupt idempotency record for key %s: %w", key, err)
	}

	return &resp, nil
}

// Set records the response for key. First writer wins; a concurrent retry
// that lost the race keeps the original record.
func (s *Store) Set(ctx context.Context, scope, key string, resp Response) error {
	data, err := json.Marshal(resp)
	if err != nil {
		return err
	}

	return s.redis.SetNX(ctx, s.key(scope, key), data, s.ttl).Err()
}

func (s *Store) key(scope, key string) string {
	return fmt.Sprintf("idem:%s:%s", scope, key)
}
