package rediscache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/mamadbah2/farmtrack/internal/domain/models"
	"github.com/mamadbah2/farmtrack/internal/repository"
)

const keyPrefix = "farmtrack:origin:"

// OriginCache decorates a store with a read-through cache of origins.
// Nominal quantities do not change under the ledger, so they are safe to
// cache; trips are always read from the store.
type OriginCache struct {
	repository.TripStore
	rdb    *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

var _ repository.TripStore = (*OriginCache)(nil)

type cachedOrigin struct {
	Label     string          `json:"label"`
	NominalKg decimal.Decimal `json:"nominal_kg"`
}

// New wraps next with a Redis-backed origin cache.
func New(next repository.TripStore, rdb *redis.Client, ttl time.Duration, logger *zap.Logger) *OriginCache {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OriginCache{TripStore: next, rdb: rdb, ttl: ttl, logger: logger}
}

// Connect parses a redis URL and verifies the server answers.
func Connect(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return rdb, nil
}

// GetOrigin serves the origin from Redis when present, otherwise from the store.
func (c *OriginCache) GetOrigin(ctx context.Context, ref models.OriginRef) (models.Origin, error) {
	key := cacheKey(ref)

	raw, err := c.rdb.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var cached cachedOrigin
		if err := json.Unmarshal(raw, &cached); err == nil {
			return models.Origin{Ref: ref, Label: cached.Label, NominalKg: cached.NominalKg}, nil
		}
		c.logger.Warn("discarding corrupt cached origin", zap.String("key", key))
	case errors.Is(err, redis.Nil):
	default:
		c.logger.Warn("origin cache read failed", zap.String("key", key), zap.Error(err))
	}

	origin, err := c.TripStore.GetOrigin(ctx, ref)
	if err != nil {
		return models.Origin{}, err
	}

	c.store(ctx, origin)
	return origin, nil
}

// ListOrigins refreshes the cache with every listed origin.
func (c *OriginCache) ListOrigins(ctx context.Context, originType models.OriginType) ([]models.Origin, error) {
	origins, err := c.TripStore.ListOrigins(ctx, originType)
	if err != nil {
		return nil, err
	}
	for _, o := range origins {
		c.store(ctx, o)
	}
	return origins, nil
}

func (c *OriginCache) store(ctx context.Context, origin models.Origin) {
	payload, err := json.Marshal(cachedOrigin{Label: origin.Label, NominalKg: origin.NominalKg})
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, cacheKey(origin.Ref), payload, c.ttl).Err(); err != nil {
		c.logger.Warn("origin cache write failed", zap.Stringer("origin", origin.Ref), zap.Error(err))
	}
}

func cacheKey(ref models.OriginRef) string {
	return fmt.Sprintf("%s%s:%d", keyPrefix, ref.Type, ref.ID)
}
