package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/tallyhq/tally/internal/tally/domain"
)

const (
	categoriesKeyPrefix = "categories:"

	// DefaultCategoriesTTL bounds staleness if an invalidation is lost.
	DefaultCategoriesTTL = 10 * time.Minute
)

// Redis caches category lists as JSON strings with a TTL.
type Redis struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedis connects to redisURL and verifies the connection.
func NewRedis(ctx context.Context, redisURL string, ttl time.Duration) (*Redis, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	opt.PoolSize = 10
	opt.MinIdleConns = 2
	opt.PoolTimeout = 4 * time.Second
	opt.ConnMaxIdleTime = 5 * time.Minute

	client := redis.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to ping Redis: %w", err)
	}

	if ttl <= 0 {
		ttl = DefaultCategoriesTTL
	}
	return &Redis{client: client, ttl: ttl}, nil
}

type cachedCategory struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	IsDefault bool   `json:"is_default"`
	CreatedBy string `json:"created_by,omitempty"`
}

func (c *Redis) GetCategories(ctx context.Context, userID string) ([]domain.Category, error) {
	raw, err := c.client.Get(ctx, categoriesKeyPrefix+userID).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("redis get failed: %w", err)
	}

	var cached []cachedCategory
	if err := json.Unmarshal(raw, &cached); err != nil {
		// A corrupt entry is treated as a miss and overwritten by the caller.
		return nil, ErrCacheMiss
	}

	out := make([]domain.Category, 0, len(cached))
	for _, cc := range cached {
		out = append(out, domain.Category{
			ID:        cc.ID,
			Name:      cc.Name,
			IsDefault: cc.IsDefault,
			CreatedBy: cc.CreatedBy,
		})
	}
	return out, nil
}

func (c *Redis) SetCategories(ctx context.Context, userID string, cats []domain.Category) error {
	cached := make([]cachedCategory, 0, len(cats))
	for _, cat := range cats {
		cached = append(cached, cachedCategory{
			ID:        cat.ID,
			Name:      cat.Name,
			IsDefault: cat.IsDefault,
			CreatedBy: cat.CreatedBy,
		})
	}

	raw, err := json.Marshal(cached)
	if err != nil {
		return err
	}

	if err := c.client.Set(ctx, categoriesKeyPrefix+userID, raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache categories: %w", err)
	}
	return nil
}

func (c *Redis) InvalidateCategories(ctx context.Context, userID string) error {
	if err := c.client.Del(ctx, categoriesKeyPrefix+userID).Err(); err != nil {
		return fmt.Errorf("failed to invalidate categories: %w", err)
	}
	return nil
}

func (c *Redis) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *Redis) Close() error {
	return c.client.Close()
}
