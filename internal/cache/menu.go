// Package cache puts Redis in front of menu reads.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"littlelemon/internal/models"
	"littlelemon/internal/sl"
	"littlelemon/internal/store"
)

const (
	// menu:item:{id} -> MenuItem JSON
	KeyMenuItem = "menu:item:%d"
	// menu:list -> []MenuItem JSON
	KeyMenuList = "menu:list"
)

var TTLMenu = 5 * time.Minute

// NewClient connects to Redis and checks the connection.
func NewClient(ctx context.Context, addr string) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:        addr,
		DialTimeout: 2 * time.Second,
		ReadTimeout: 2 * time.Second,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("cache.NewClient: %w", err)
	}
	return rdb, nil
}

// MenuCache is a read-through, invalidate-on-write store.MenuRepository.
// Redis failures fall back to the wrapped repository.
type MenuCache struct {
	next store.MenuRepository
	rdb  *redis.Client
	log  *slog.Logger
}

func NewMenuCache(next store.MenuRepository, rdb *redis.Client, log *slog.Logger) *MenuCache {
	return &MenuCache{next: next, rdb: rdb, log: log}
}

func (m *MenuCache) List(ctx context.Context) ([]models.MenuItem, error) {
	var items []models.MenuItem
	if m.load(ctx, KeyMenuList, &items) {
		return items, nil
	}

	items, err := m.next.List(ctx)
	if err != nil {
		return nil, err
	}
	m.store(ctx, KeyMenuList, items)
	return items, nil
}

func (m *MenuCache) Get(ctx context.Context, id uint) (*models.MenuItem, error) {
	key := fmt.Sprintf(KeyMenuItem, id)

	var item models.MenuItem
	if m.load(ctx, key, &item) {
		return &item, nil
	}

	got, err := m.next.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	m.store(ctx, key, got)
	return got, nil
}

func (m *MenuCache) Create(ctx context.Context, item *models.MenuItem) error {
	if err := m.next.Create(ctx, item); err != nil {
		return err
	}
	m.invalidate(ctx)
	return nil
}

func (m *MenuCache) Update(ctx context.Context, item *models.MenuItem) error {
	if err := m.next.Update(ctx, item); err != nil {
		return err
	}
	m.invalidate(ctx, fmt.Sprintf(KeyMenuItem, item.ID))
	return nil
}

func (m *MenuCache) Delete(ctx context.Context, id uint) error {
	if err := m.next.Delete(ctx, id); err != nil {
		return err
	}
	m.invalidate(ctx, fmt.Sprintf(KeyMenuItem, id))
	return nil
}

func (m *MenuCache) load(ctx context.Context, key string, out interface{}) bool {
	b, err := m.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			m.log.Debug("cache get", slog.String("key", key), sl.Err(err))
		}
		return false
	}
	if err := json.Unmarshal(b, out); err != nil {
		m.log.Debug("cache decode", slog.String("key", key), sl.Err(err))
		return false
	}
	return true
}

func (m *MenuCache) store(ctx context.Context, key string, v interface{}) {
	b, err := json.Marshal(v)
	if err != nil {
		m.log.Debug("cache encode", slog.String("key", key), sl.Err(err))
		return
	}
	if err := m.rdb.Set(ctx, key, b, TTLMenu).Err(); err != nil {
		m.log.Debug("cache set", slog.String("key", key), sl.Err(err))
	}
}

func (m *MenuCache) invalidate(ctx context.Context, keys ...string) {
	keys = append(keys, KeyMenuList)
	if err := m.rdb.Del(ctx, keys...).Err(); err != nil {
		m.log.Debug("cache invalidate", slog.Any("keys", keys), sl.Err(err))
	}
}

var _ store.MenuRepository = (*MenuCache)(nil)
