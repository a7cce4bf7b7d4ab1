package profile

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"crew/internal/team/models"
	id "crew/pkg/domain"
)

// Cached decorates a Store with a Redis read-through cache for FindByUserID,
// the hot path of the authorization middleware. Writes go to the inner store
// first, then invalidate the cache.
//
// The version check still lives in the inner store, so a stale cached read
// can at worst surface as a retryable conflict on the next write; cache
// failures degrade to inner-store reads and are logged, never returned.
type Cached struct {
	inner  Store
	rdb    *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

func NewCached(inner Store, rdb *redis.Client, ttl time.Duration, logger *slog.Logger) *Cached {
	return &Cached{inner: inner, rdb: rdb, ttl: ttl, logger: logger}
}

func cacheKey(userID id.UserID) string {
	return "crew:profile:" + userID.String()
}

func (c *Cached) Create(ctx context.Context, p *models.StaffProfile) error {
	if err := c.inner.Create(ctx, p); err != nil {
		return err
	}
	c.invalidate(ctx, p.UserID)
	return nil
}

func (c *Cached) FindByUserID(ctx context.Context, userID id.UserID) (*models.StaffProfile, error) {
	raw, err := c.rdb.Get(ctx, cacheKey(userID)).Bytes()
	if err == nil {
		var p models.StaffProfile
		if unmarshalErr := json.Unmarshal(raw, &p); unmarshalErr == nil {
			return &p, nil
		}
		// Corrupt entry: fall through to the store and rewrite.
	} else if !errors.Is(err, redis.Nil) {
		c.logger.WarnContext(ctx, "profile cache read failed",
			"user_id", userID,
			"error", err,
		)
	}

	p, err := c.inner.FindByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if raw, marshalErr := json.Marshal(p); marshalErr == nil {
		if setErr := c.rdb.Set(ctx, cacheKey(userID), raw, c.ttl).Err(); setErr != nil {
			c.logger.WarnContext(ctx, "profile cache write failed",
				"user_id", userID,
				"error", setErr,
			)
		}
	}
	return p, nil
}

func (c *Cached) Update(ctx context.Context, p *models.StaffProfile) error {
	if err := c.inner.Update(ctx, p); err != nil {
		return err
	}
	c.invalidate(ctx, p.UserID)
	return nil
}

func (c *Cached) ListStaff(ctx context.Context) ([]*models.StaffProfile, error) {
	return c.inner.ListStaff(ctx)
}

func (c *Cached) invalidate(ctx context.Context, userID id.UserID) {
	if err := c.rdb.Del(ctx, cacheKey(userID)).Err(); err != nil {
		c.logger.WarnContext(ctx, "profile cache invalidation failed",
			"user_id", userID,
			"error", err,
		)
	}
}
