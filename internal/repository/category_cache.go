package repository

import (
	"context"
	"errors"
	"time"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"taskboard/internal/model"
)

// CategoryCache wraps a CategoryStore with a Redis read-through cache for
// the per-owner category list. Every write evicts the owner's entry.
type CategoryCache struct {
	CategoryStore
	redis *redis.Client
	ttl   time.Duration
}

func NewCategoryCache(base CategoryStore, client *redis.Client, ttl time.Duration) *CategoryCache {
	if base == nil {
		panic("repository.NewCategoryCache: base store is nil")
	}
	if ttl < 0 {
		ttl = 0
	}
	return &CategoryCache{CategoryStore: base, redis: client, ttl: ttl}
}

func (c *CategoryCache) ListByUser(ctx context.Context, userID uuid.UUID) ([]model.Category, error) {
	if categories, ok := c.load(ctx, userID); ok {
		return categories, nil
	}

	categories, err := c.CategoryStore.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	c.store(ctx, userID, categories)
	return categories, nil
}

func (c *CategoryCache) Create(ctx context.Context, category *model.Category) error {
	if err := c.CategoryStore.Create(ctx, category); err != nil {
		return err
	}
	c.evict(ctx, category.UserID)
	return nil
}

func (c *CategoryCache) Update(ctx context.Context, category *model.Category) error {
	if err := c.CategoryStore.Update(ctx, category); err != nil {
		return err
	}
	c.evict(ctx, category.UserID)
	return nil
}

func (c *CategoryCache) Delete(ctx context.Context, userID, id uuid.UUID) error {
	if err := c.CategoryStore.Delete(ctx, userID, id); err != nil {
		return err
	}
	c.evict(ctx, userID)
	return nil
}

func (c *CategoryCache) load(ctx context.Context, userID uuid.UUID) ([]model.Category, bool) {
	if c.redis == nil {
		return nil, false
	}
	data, err := c.redis.Get(ctx, categoriesCacheKey(userID)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			log.WithError(err).Warn("category cache read failed")
			_ = c.redis.Del(ctx, categoriesCacheKey(userID)).Err()
		}
		return nil, false
	}
	var categories []model.Category
	if err := sonic.Unmarshal(data, &categories); err != nil {
		_ = c.redis.Del(ctx, categoriesCacheKey(userID)).Err()
		return nil, false
	}
	return categories, true
}

func (c *CategoryCache) store(ctx context.Context, userID uuid.UUID, categories []model.Category) {
	if c.redis == nil {
		return
	}
	data, err := sonic.Marshal(categories)
	if err != nil {
		return
	}
	if err := c.redis.Set(ctx, categoriesCacheKey(userID), data, c.ttl).Err(); err != nil {
		log.WithError(err).Warn("category cache write failed")
	}
}

func (c *CategoryCache) evict(ctx context.Context, userID uuid.UUID) {
	if c.redis == nil {
		return
	}
	if err := c.redis.Del(ctx, categoriesCacheKey(userID)).Err(); err != nil {
		log.WithError(err).Warn("category cache evict failed")
	}
}

func categoriesCacheKey(userID uuid.UUID) string {
	return "categories:" + userID.String()
}
