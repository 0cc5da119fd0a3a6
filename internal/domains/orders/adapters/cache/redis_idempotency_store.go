package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/Apurer/ghadwa-checkout/internal/domains/orders/ports"
)

// DefaultTTL is how long a checkout key can be replayed.
const DefaultTTL = 24 * time.Hour

const keyPrefix = "idemp:checkout:"

var _ ports.IdempotencyStore = (*RedisIdempotencyStore)(nil)

// RedisIdempotencyStore keeps checkout idempotency records in Redis with a TTL.
type RedisIdempotencyStore struct {
	rdb *redis.Client
	ttl time.Duration
	now func() time.Time
}

func NewRedisIdempotencyStore(rdb *redis.Client, ttl time.Duration) *RedisIdempotencyStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisIdempotencyStore{rdb: rdb, ttl: ttl, now: time.Now}
}

func (s *RedisIdempotencyStore) Get(ctx context.Context, key string) (*ports.IdempotencyRecord, error) {
	raw, err := s.rdb.Get(ctx, keyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var record ports.IdempotencyRecord
	if err := json.Unmarshal(raw, &record); err != nil {
		return nil, err
	}
	return &record, nil
}

// Claim stores the record with SETNX. A losing writer gets the stored record.
func (s *RedisIdempotencyStore) Claim(ctx context.Context, record ports.IdempotencyRecord) (*ports.IdempotencyRecord, bool, error) {
	if record.CreatedAt.IsZero() {
		record.CreatedAt = s.now().UTC()
	}
	payload, err := json.Marshal(record)
	if err != nil {
		return nil, false, err
	}
	stored, err := s.rdb.SetNX(ctx, keyPrefix+record.Key, payload, s.ttl).Result()
	if err != nil {
		return nil, false, err
	}
	if stored {
		return &record, true, nil
	}
	existing, err := s.Get(ctx, record.Key)
	if err != nil {
		return nil, false, err
	}
	if existing == nil {
		return nil, false, errors.New("idempotency record expired during claim")
	}
	return existing, false, nil
}

// Complete rewrites the claimed record with its order, keeping the remaining TTL.
func (s *RedisIdempotencyStore) Complete(ctx context.Context, key string, orderID uuid.UUID) error {
	record, err := s.Get(ctx, key)
	if err != nil {
		return err
	}
	if record == nil {
		return fmt.Errorf("%w: idempotency key %q", ports.ErrNotFound, key)
	}
	record.OrderID = orderID
	payload, err := json.Marshal(record)
	if err != nil {
		return err
	}
	return s.rdb.SetXX(ctx, keyPrefix+key, payload, redis.KeepTTL).Err()
}

// Release deletes a pending claim.
func (s *RedisIdempotencyStore) Release(ctx context.Context, key string) error {
	record, err := s.Get(ctx, key)
	if err != nil || record == nil || !record.Pending() {
		return err
	}
	return s.rdb.Del(ctx, keyPrefix+key).Err()
}
