package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Domenick1991/airticketing/config"
	"github.com/Domenick1991/airticketing/internal/domain"
	"github.com/redis/go-redis/v9"
)

// defaultPendingTTL bounds how long a crashed request keeps its key locked.
const defaultPendingTTL = 30 * time.Second

// IdempotencyRecord is the stored outcome of a request made with an
// Idempotency-Key header. Fingerprint identifies the request that claimed the
// key; a record with zero Status is still in flight.
type IdempotencyRecord struct {
	Status      int             `json:"status"`
	Body        json.RawMessage `json:"body,omitempty"`
	Fingerprint string          `json:"fingerprint"`
}

func (r IdempotencyRecord) Pending() bool {
	return r.Status == 0
}

type RedisCache struct {
	client         *redis.Client
	flightsTTL     time.Duration
	idempotencyTTL time.Duration
	pendingTTL     time.Duration
}

type Option func(*RedisCache)

// WithPendingTTL sets how long an unfinished request holds its key. It should
// outlive the slowest booking request.
func WithPendingTTL(ttl time.Duration) Option {
	return func(c *RedisCache) {
		if ttl > 0 {
			c.pendingTTL = ttl
		}
	}
}

func NewRedisCache(cfg config.RedisConfig, flightsTTL, idempotencyTTL time.Duration, opts ...Option) *RedisCache {
	return NewRedisCacheWithClient(
		redis.NewClient(&redis.Options{Addr: cfg.Addr, Password: cfg.Password, DB: cfg.DB}),
		flightsTTL, idempotencyTTL, opts...,
	)
}

func NewRedisCacheWithClient(client *redis.Client, flightsTTL, idempotencyTTL time.Duration, opts ...Option) *RedisCache {
	c := &RedisCache{client: client, flightsTTL: flightsTTL, idempotencyTTL: idempotencyTTL, pendingTTL: defaultPendingTTL}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *RedisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}

// GetFlights returns nil, nil on a miss.
func (c *RedisCache) GetFlights(ctx context.Context) ([]domain.Flight, error) {
	data, err := c.client.Get(ctx, flightsKey()).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}

	var flights []domain.Flight
	if err := json.Unmarshal(data, &flights); err != nil {
		return nil, err
	}
	return flights, nil
}

func (c *RedisCache) SetFlights(ctx context.Context, flights []domain.Flight) error {
	payload, err := json.Marshal(flights)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, flightsKey(), payload, c.flightsTTL).Err()
}

func (c *RedisCache) InvalidateFlights(ctx context.Context) error {
	return c.client.Del(ctx, flightsKey()).Err()
}

// BeginIdempotent claims key for the request identified by fingerprint. When
// the key was already used it returns the stored record, which is pending
// while the first request is still running.
func (c *RedisCache) BeginIdempotent(ctx context.Context, key, fingerprint string) (*IdempotencyRecord, bool, error) {
	pending, err := json.Marshal(IdempotencyRecord{Fingerprint: fingerprint})
	if err != nil {
		return nil, false, err
	}
	ok, err := c.client.SetNX(ctx, idempotencyKey(key), pending, c.pendingTTL).Result()
	if err != nil {
		return nil, false, err
	}
	if ok {
		return nil, true, nil
	}

	data, err := c.client.Get(ctx, idempotencyKey(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			// expired between the two calls; treat as in flight
			return nil, false, nil
		}
		return nil, false, err
	}
	var record IdempotencyRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, false, fmt.Errorf("decode idempotency record: %w", err)
	}
	return &record, false, nil
}

func (c *RedisCache) CompleteIdempotent(ctx context.Context, key string, record IdempotencyRecord) error {
	payload, err := json.Marshal(record)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, idempotencyKey(key), payload, c.idempotencyTTL).Err()
}

// AbortIdempotent frees key so the request can be retried.
func (c *RedisCache) AbortIdempotent(ctx context.Context, key string) error {
	return c.client.Del(ctx, idempotencyKey(key)).Err()
}

func flightsKey() string {
	return "cache:flights"
}

func idempotencyKey(key string) string {
	return fmt.Sprintf("idempotency:booking:%s", key)
}
