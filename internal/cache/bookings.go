package cache

import (
	"context"
	"encoding/json"
	"time"

	"cleanmarket/internal/domain"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Loader fetches a booking list from the source of truth on cache miss.
type Loader func(ctx context.Context) ([]domain.BookingRequest, error)

// BookingsCache is a read-through cache over the per-viewer booking lists.
// The store stays the source of truth: a redis outage degrades every read
// to the loader and never fails the request.
type BookingsCache struct {
	client *redis.Client
	ttl    time.Duration
	log    zerolog.Logger
}

// NewClient returns nil when no address is configured; a nil client
// disables caching without disabling reads.
func NewClient(addr, password string, db int) *redis.Client {
	if addr == "" {
		return nil
	}
	return redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
}

func New(client *redis.Client, ttl time.Duration, log zerolog.Logger) *BookingsCache {
	if ttl <= 0 {
		ttl = 60 * time.Second
	}
	return &BookingsCache{client: client, ttl: ttl, log: log}
}

func businessKey(businessID string) string { return "bookings:business:" + businessID }
func customerKey(customerID string) string { return "bookings:customer:" + customerID }

func (c *BookingsCache) GetByBusiness(ctx context.Context, businessID string, load Loader) ([]domain.BookingRequest, error) {
	return c.readThrough(ctx, businessKey(businessID), load)
}

func (c *BookingsCache) GetByCustomer(ctx context.Context, customerID string, load Loader) ([]domain.BookingRequest, error) {
	return c.readThrough(ctx, customerKey(customerID), load)
}

func (c *BookingsCache) readThrough(ctx context.Context, key string, load Loader) ([]domain.BookingRequest, error) {
	if c.client != nil {
		val, err := c.client.Get(ctx, key).Result()
		if err == nil {
			var cached []domain.BookingRequest
			if jsonErr := json.Unmarshal([]byte(val), &cached); jsonErr == nil {
				return cached, nil
			}
			// Corrupt entry: fall through to the loader and rewrite.
		} else if err != redis.Nil {
			c.log.Warn().Err(err).Str("key", key).Msg("cache read failed, falling back to store")
		}
	}

	list, err := load(ctx)
	if err != nil {
		return nil, err
	}

	if c.client != nil {
		if data, err := json.Marshal(list); err == nil {
			if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
				c.log.Warn().Err(err).Str("key", key).Msg("cache write failed")
			}
		}
	}
	return list, nil
}

// Invalidate drops both parties' cached views after a mutation.
func (c *BookingsCache) Invalidate(ctx context.Context, businessID, customerID string) {
	if c.client == nil {
		return
	}
	keys := []string{}
	if businessID != "" {
		keys = append(keys, businessKey(businessID))
	}
	if customerID != "" {
		keys = append(keys, customerKey(customerID))
	}
	if len(keys) == 0 {
		return
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		c.log.Warn().Err(err).Strs("keys", keys).Msg("cache invalidation failed")
	}
}
