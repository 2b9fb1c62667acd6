package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/fishryanie/GC-sub000/internal/model"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// ItemLoader loads the items of a price list from the source of truth.
type ItemLoader func(ctx context.Context, priceListID uuid.UUID) ([]model.PriceListItem, error)

// PriceCache keeps price list items in Redis. Keys embed the list's UpdatedAt so an edited
// list is read under a fresh key and stale entries simply expire.
type PriceCache struct {
	client *redis.Client
	ttl    time.Duration
	loader ItemLoader
	group  singleflight.Group
	log    *zap.Logger
}

// NewPriceCache builds the cache. A nil client disables caching and every call hits loader.
func NewPriceCache(client *redis.Client, ttl time.Duration, loader ItemLoader, log *zap.Logger) *PriceCache {
	if log == nil {
		log = zap.NewNop()
	}
	return &PriceCache{client: client, ttl: ttl, loader: loader, log: log}
}

// Key composes the cache key for a list version.
func Key(list model.PriceList) string {
	return fmt.Sprintf("pricelist:%s:%d", list.ID, list.UpdatedAt.UnixNano())
}

// Items returns the list's items, reading through Redis.
func (c *PriceCache) Items(ctx context.Context, list model.PriceList) ([]model.PriceListItem, error) {
	if c.loader == nil {
		return nil, errors.New("cache: loader required")
	}
	key := Key(list)

	if c.client != nil {
		raw, err := c.client.Get(ctx, key).Bytes()
		switch {
		case err == nil:
			var items []model.PriceListItem
			if jsonErr := json.Unmarshal(raw, &items); jsonErr == nil {
				return items, nil
			}
			c.log.Warn("discarding undecodable price cache entry", zap.String("key", key))
		case !errors.Is(err, redis.Nil):
			// Redis trouble must not block ordering
			c.log.Warn("price cache read failed", zap.String("key", key), zap.Error(err))
		}
	}

	// the load is shared by every waiter, so one caller's cancellation must not abort it
	loadCtx := context.WithoutCancel(ctx)
	res := c.group.DoChan(key, func() (interface{}, error) {
		items, err := c.loader(loadCtx, list.ID)
		if err != nil {
			return nil, err
		}
		c.store(loadCtx, key, items)
		return items, nil
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case r := <-res:
		if r.Err != nil {
			return nil, r.Err
		}
		return r.Val.([]model.PriceListItem), nil
	}
}

// Invalidate drops the cached items of a list version.
func (c *PriceCache) Invalidate(ctx context.Context, list model.PriceList) error {
	if c.client == nil {
		return nil
	}
	return c.client.Del(ctx, Key(list)).Err()
}

func (c *PriceCache) store(ctx context.Context, key string, items []model.PriceListItem) {
	if c.client == nil {
		return
	}
	raw, err := json.Marshal(items)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, key, raw, c.ttl).Err(); err != nil {
		c.log.Warn("price cache write failed", zap.String("key", key), zap.Error(err))
	}
}

// NewRedisClient creates a client and pings it.
func NewRedisClient(ctx context.Context, addr string) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("cache: ping: %w", err)
	}
	return client, nil
}
