package outbound

import (
	"context"
	"errors"
	"time"

	"github.com/crashdesk/ondemand/internal/model"
)

var ErrCacheMiss = errors.New("cache miss")

// OnDemandStatsPort defines daily on-demand counters (Redis).
type OnDemandStatsPort interface {
	// Increment adds n to the counter for today.
	Increment(ctx context.Context, counter model.StatsCounter, n int64) (int64, error)

	// GetDaily returns the counters for the UTC day containing t.
	GetDaily(ctx context.Context, t time.Time) (*model.OnDemandStats, error)

	// Reset removes the counters for the UTC day containing t.
	Reset(ctx context.Context, t time.Time) error
}

// RateLimiterPort defines rate limiting operations.
type RateLimiterPort interface {
	// Allow checks if a request is allowed within rate limits.
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)

	// AllowN checks if N requests are allowed.
	AllowN(ctx context.Context, key string, n int, limit int, window time.Duration) (bool, error)

	// GetRemaining returns remaining requests in window.
	GetRemaining(ctx context.Context, key string, limit int, window time.Duration) (int, error)
}
