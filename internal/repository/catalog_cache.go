package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"labreserve/internal/domain"
)

// cachedCatalog keeps lab rows, weekday hours and closed days in Redis.
// Workstations are always read through because their active flag is checked
// at validation time.
type cachedCatalog struct {
	CatalogRepository
	rdb *redis.Client
	ttl time.Duration
	log *zap.Logger
}

// NewCachedCatalog wraps next with a Redis read-through cache. A nil client
// returns next unchanged.
func NewCachedCatalog(next CatalogRepository, rdb *redis.Client, ttl time.Duration, log *zap.Logger) CatalogRepository {
	if rdb == nil {
		return next
	}
	return &cachedCatalog{CatalogRepository: next, rdb: rdb, ttl: ttl, log: log}
}

func (c *cachedCatalog) GetLab(ctx context.Context, id int64) (*domain.Lab, error) {
	key := fmt.Sprintf("catalog:lab:%d", id)
	var lab *domain.Lab
	if c.get(ctx, key, &lab) && lab != nil {
		return lab, nil
	}
	lab, err := c.CatalogRepository.GetLab(ctx, id)
	if err != nil {
		return nil, err
	}
	c.set(ctx, key, lab)
	return lab, nil
}

func (c *cachedCatalog) GetOperatingHours(ctx context.Context, labID int64, dayOfWeek int) (*domain.LabOperatingHours, error) {
	key := fmt.Sprintf("catalog:lab:%d:hours:%d", labID, dayOfWeek)
	var h *domain.LabOperatingHours
	if c.get(ctx, key, &h) {
		return h, nil
	}
	h, err := c.CatalogRepository.GetOperatingHours(ctx, labID, dayOfWeek)
	if err != nil {
		return nil, err
	}
	c.set(ctx, key, h)
	return h, nil
}

func (c *cachedCatalog) ListClosedDays(ctx context.Context, labID int64) ([]domain.LabClosedDay, error) {
	key := fmt.Sprintf("catalog:lab:%d:closed", labID)
	var days []domain.LabClosedDay
	if c.get(ctx, key, &days) {
		return days, nil
	}
	days, err := c.CatalogRepository.ListClosedDays(ctx, labID)
	if err != nil {
		return nil, err
	}
	c.set(ctx, key, days)
	return days, nil
}

func (c *cachedCatalog) SaveLab(ctx context.Context, lab *domain.Lab) error {
	if err := c.CatalogRepository.SaveLab(ctx, lab); err != nil {
		return err
	}
	c.invalidate(ctx, fmt.Sprintf("catalog:lab:%d", lab.ID))
	return nil
}

func (c *cachedCatalog) SaveOperatingHours(ctx context.Context, h *domain.LabOperatingHours) error {
	if err := c.CatalogRepository.SaveOperatingHours(ctx, h); err != nil {
		return err
	}
	c.invalidate(ctx, fmt.Sprintf("catalog:lab:%d:hours:%d", h.LabID, h.DayOfWeek))
	return nil
}

func (c *cachedCatalog) SaveClosedDay(ctx context.Context, d *domain.LabClosedDay) error {
	if err := c.CatalogRepository.SaveClosedDay(ctx, d); err != nil {
		return err
	}
	c.invalidate(ctx, fmt.Sprintf("catalog:lab:%d:closed", d.LabID))
	return nil
}

// get reports a cache hit. Redis failures count as misses.
func (c *cachedCatalog) get(ctx context.Context, key string, dst any) bool {
	raw, err := c.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.log.Warn("catalog cache read failed", zap.String("key", key), zap.Error(err))
		}
		return false
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		c.log.Warn("catalog cache entry corrupt", zap.String("key", key), zap.Error(err))
		return false
	}
	return true
}

func (c *cachedCatalog) set(ctx context.Context, key string, v any) {
	raw, err := json.Marshal(v)
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, key, raw, c.ttl).Err(); err != nil {
		c.log.Warn("catalog cache write failed", zap.String("key", key), zap.Error(err))
	}
}

func (c *cachedCatalog) invalidate(ctx context.Context, key string) {
	if err := c.rdb.Del(ctx, key).Err(); err != nil {
		c.log.Warn("catalog cache invalidate failed", zap.String("key", key), zap.Error(err))
	}
}
