package redis

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/crashdesk/ondemand/internal/model"
	"github.com/crashdesk/ondemand/internal/port/outbound"
	"github.com/redis/go-redis/v9"
)

const (
	onDemandStatsKeyPrefix = "ondemand:stats:"

	// Daily hashes outlive their day so yesterday's numbers stay readable.
	onDemandStatsTTL = 48 * time.Hour
)

// onDemandStats implements outbound.OnDemandStatsPort.
type onDemandStats struct {
	client redis.Cmdable
	now    func() time.Time
}

// NewOnDemandStats creates a new on-demand stats adapter.
func NewOnDemandStats(client *redis.Client) outbound.OnDemandStatsPort {
	return &onDemandStats{client: client, now: time.Now}
}

func day(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

func (s *onDemandStats) key(t time.Time) string {
	return onDemandStatsKeyPrefix + day(t)
}

func (s *onDemandStats) Increment(ctx context.Context, counter model.StatsCounter, n int64) (int64, error) {
	key := s.key(s.now())

	pipe := s.client.TxPipeline()
	incr := pipe.HIncrBy(ctx, key, string(counter), n)
	pipe.Expire(ctx, key, onDemandStatsTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, fmt.Errorf("increment %s: %w", counter, err)
	}
	return incr.Val(), nil
}

func (s *onDemandStats) GetDaily(ctx context.Context, t time.Time) (*model.OnDemandStats, error) {
	values, err := s.client.HGetAll(ctx, s.key(t)).Result()
	if err != nil {
		return nil, err
	}

	stats := &model.OnDemandStats{Date: day(t)}
	if len(values) == 0 {
		return stats, outbound.ErrCacheMiss
	}

	fields := map[model.StatsCounter]*int64{
		model.StatsCounterRecorded: &stats.Recorded,
		model.StatsCounterDropped:  &stats.Dropped,
		model.StatsCounterUploaded: &stats.Uploaded,
		model.StatsCounterDeleted:  &stats.Deleted,
	}
	for counter, dst := range fields {
		raw, ok := values[string(counter)]
		if !ok {
			continue
		}
		v, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", counter, err)
		}
		*dst = v
	}
	return stats, nil
}

func (s *onDemandStats) Reset(ctx context.Context, t time.Time) error {
	return s.client.Del(ctx, s.key(t)).Err()
}

// Compile-time check
var _ outbound.OnDemandStatsPort = (*onDemandStats)(nil)
