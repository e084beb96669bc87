package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"studioaljo/internal/domain"
)

const (
	galleryKeyPrefix    = "studio:gallery:"
	generationKeyPrefix = "studio:gallery-gen:"
)

var errStaleGeneration = errors.New("gallery cache generation changed")

type cachedItem struct {
	ID        string      `json:"id"`
	UserID    string      `json:"user_id"`
	Tool      domain.Tool `json:"tool"`
	ImageURL  string      `json:"image_url"`
	Meta      domain.Meta `json:"meta"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

// RedisGalleryCache keeps one hash per user, keyed by the requested limit,
// plus a counter key holding the user's generation.
type RedisGalleryCache struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisGalleryCache(rdb *redis.Client, ttl time.Duration) *RedisGalleryCache {
	return &RedisGalleryCache{rdb: rdb, ttl: ttl}
}

func (c *RedisGalleryCache) Generation(ctx context.Context, userID string) (int64, error) {
	gen, err := c.rdb.Get(ctx, generationKey(userID)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read gallery cache generation: %w", err)
	}
	return gen, nil
}

func (c *RedisGalleryCache) GetList(ctx context.Context, userID string, limit int) ([]domain.GalleryItem, bool, error) {
	val, err := c.rdb.HGet(ctx, galleryKey(userID), strconv.Itoa(limit)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("read gallery cache: %w", err)
	}

	var cached []cachedItem
	if err := json.Unmarshal([]byte(val), &cached); err != nil {
		return nil, false, fmt.Errorf("decode gallery cache: %w", err)
	}
	items := make([]domain.GalleryItem, len(cached))
	for i, ci := range cached {
		items[i] = domain.GalleryItem{
			ID:        ci.ID,
			UserID:    ci.UserID,
			Tool:      ci.Tool,
			ImageURL:  ci.ImageURL,
			Meta:      ci.Meta,
			CreatedAt: ci.CreatedAt,
			UpdatedAt: ci.UpdatedAt,
		}
	}
	return items, true, nil
}

// SetList stores items only while the user's generation still equals gen.
// A listing computed before a concurrent Invalidate is silently dropped.
func (c *RedisGalleryCache) SetList(ctx context.Context, userID string, limit int, gen int64, items []domain.GalleryItem) error {
	cached := make([]cachedItem, len(items))
	for i, item := range items {
		cached[i] = cachedItem{
			ID:        item.ID,
			UserID:    item.UserID,
			Tool:      item.Tool,
			ImageURL:  item.ImageURL,
			Meta:      item.Meta,
			CreatedAt: item.CreatedAt,
			UpdatedAt: item.UpdatedAt,
		}
	}
	b, err := json.Marshal(cached)
	if err != nil {
		return fmt.Errorf("encode gallery cache: %w", err)
	}

	key, genKey := galleryKey(userID), generationKey(userID)
	err = c.rdb.Watch(ctx, func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, genKey).Int64()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		if current != gen {
			return errStaleGeneration
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HSet(ctx, key, strconv.Itoa(limit), b)
			pipe.Expire(ctx, key, c.ttl)
			return nil
		})
		return err
	}, genKey)
	switch {
	case err == nil, errors.Is(err, errStaleGeneration), errors.Is(err, redis.TxFailedErr):
		return nil
	default:
		return fmt.Errorf("write gallery cache: %w", err)
	}
}

func (c *RedisGalleryCache) Invalidate(ctx context.Context, userID string) error {
	pipe := c.rdb.TxPipeline()
	pipe.Incr(ctx, generationKey(userID))
	pipe.Del(ctx, galleryKey(userID))
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("invalidate gallery cache: %w", err)
	}
	return nil
}

func galleryKey(userID string) string {
	return galleryKeyPrefix + userID
}

func generationKey(userID string) string {
	return generationKeyPrefix + userID
}

var _ GalleryCache = (*RedisGalleryCache)(nil)
