// Package cache holds the per-user category cache sitting in front of the
// store. The Redis implementation is used when REDIS_URL is set; otherwise
// Nop turns every read into a miss.
package cache

import (
	"context"
	"errors"

	"github.com/tallyhq/tally/internal/tally/domain"
)

var ErrCacheMiss = errors.New("cache miss")

// Categories caches the category list visible to a user.
type Categories interface {
	// GetCategories returns ErrCacheMiss when nothing is cached for userID.
	GetCategories(ctx context.Context, userID string) ([]domain.Category, error)
	SetCategories(ctx context.Context, userID string, cats []domain.Category) error
	InvalidateCategories(ctx context.Context, userID string) error

	Ping(ctx context.Context) error
	Close() error
}

// Nop is a Categories that never stores anything.
type Nop struct{}

func (Nop) GetCategories(context.Context, string) ([]domain.Category, error) {
	return nil, ErrCacheMiss
}
func (Nop) SetCategories(context.Context, string, []domain.Category) error { return nil }
func (Nop) InvalidateCategories(context.Context, string) error            { return nil }
func (Nop) Ping(context.Context) error                                    { return nil }
func (Nop) Close() error                                                  { return nil }
