package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"

	"github.com/vibe-gaming/countries/internal/domain"
)

const (
	statsPrefix        = "countries:stats"
	statsGenerationKey = statsPrefix + ":generation"
	defaultStatsTTL    = 5 * time.Minute
)

// StatsCache stores region statistics pages. Entries live under a generation
// number; bumping it makes every older entry unreachable until its TTL expires.
type StatsCache struct {
	client redis.UniversalClient
	ttl    time.Duration
}

func NewStatsCache(client redis.UniversalClient, ttl time.Duration) *StatsCache {
	if ttl <= 0 {
		ttl = defaultStatsTTL
	}
	return &StatsCache{
		client: client,
		ttl:    ttl,
	}
}

// Get reads a page stored under a key returned by Key.
func (c *StatsCache) Get(ctx context.Context, key string) (*domain.RegionStatsPage, bool, error) {
	raw, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("redis get stats: %w", err)
	}

	var page domain.RegionStatsPage
	if err := json.Unmarshal(raw, &page); err != nil {
		return nil, false, fmt.Errorf("decode cached stats: %w", err)
	}
	return &page, true, nil
}

func (c *StatsCache) Set(ctx context.Context, key string, page *domain.RegionStatsPage) error {
	raw, err := json.Marshal(page)
	if err != nil {
		return fmt.Errorf("encode stats: %w", err)
	}
	if err := c.client.Set(ctx, key, raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set stats: %w", err)
	}
	return nil
}

// Invalidate drops every cached stats page.
func (c *StatsCache) Invalidate(ctx context.Context) error {
	if err := c.client.Incr(ctx, statsGenerationKey).Err(); err != nil {
		return fmt.Errorf("redis bump stats generation: %w", err)
	}
	return nil
}

// Key places key under the current generation.
func (c *StatsCache) Key(ctx context.Context, key string) (string, error) {
	gen, err := c.client.Get(ctx, statsGenerationKey).Int64()
	if err != nil && !errors.Is(err, redis.Nil) {
		return "", fmt.Errorf("redis get stats generation: %w", err)
	}
	return fmt.Sprintf("%s:v%d:%s", statsPrefix, gen, key), nil
}
