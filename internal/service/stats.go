package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/vibe-gaming/countries/internal/domain"
	"github.com/vibe-gaming/countries/internal/repository"
	"github.com/vibe-gaming/countries/pkg/logger"
)

const (
	DefaultPerPage = 10
	MaxPerPage     = 100
)

type StatsQuery struct {
	Name    string
	Page    int
	PerPage int
}

// CacheKey identifies the normalized query. The name filter is
// case-insensitive so it is folded before hashing.
func (q StatsQuery) CacheKey() string {
	raw := fmt.Sprintf("name=%s&page=%d&per_page=%d", strings.ToLower(strings.TrimSpace(q.Name)), q.Page, q.PerPage)
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

// StatsCache stores pages under keys resolved by Key. A resolved key is used
// for both Get and Set of one request, so a page computed across an
// invalidation lands under the old generation.
type StatsCache interface {
	Key(ctx context.Context, key string) (string, error)
	Get(ctx context.Context, key string) (*domain.RegionStatsPage, bool, error)
	Set(ctx context.Context, key string, page *domain.RegionStatsPage) error
}

type statsService struct {
	statsRepository repository.Stats
	cache           StatsCache
	defaultPerPage  int
	maxPerPage      int
}

func newStatsService(statsRepository repository.Stats, cache StatsCache, defaultPerPage, maxPerPage int) *statsService {
	if defaultPerPage <= 0 {
		defaultPerPage = DefaultPerPage
	}
	if maxPerPage <= 0 {
		maxPerPage = MaxPerPage
	}
	return &statsService{
		statsRepository: statsRepository,
		cache:           cache,
		defaultPerPage:  min(defaultPerPage, maxPerPage),
		maxPerPage:      maxPerPage,
	}
}

func (s *statsService) normalize(q StatsQuery) StatsQuery {
	q.Name = strings.TrimSpace(q.Name)
	if q.Page < 1 {
		q.Page = 1
	}
	if q.PerPage < 1 {
		q.PerPage = s.defaultPerPage
	}
	if q.PerPage > s.maxPerPage {
		q.PerPage = s.maxPerPage
	}
	return q
}

// RegionStats returns one page of region statistics and whether it came from the cache.
// Cache failures are logged and the page is computed from the database.
func (s *statsService) RegionStats(ctx context.Context, q StatsQuery) (*domain.RegionStatsPage, bool, error) {
	q = s.normalize(q)

	key := ""
	if s.cache != nil {
		resolved, err := s.cache.Key(ctx, q.CacheKey())
		if err != nil {
			logger.Error("stats cache key failed", zap.Error(err))
		} else {
			key = resolved
		}
	}

	if key != "" {
		page, ok, err := s.cache.Get(ctx, key)
		if err != nil {
			logger.Error("stats cache get failed", zap.Error(err), zap.String("key", key))
		} else if ok {
			return page, true, nil
		}
	}

	page, err := s.compute(ctx, q)
	if err != nil {
		return nil, false, err
	}

	if key != "" {
		if err := s.cache.Set(ctx, key, page); err != nil {
			logger.Error("stats cache set failed", zap.Error(err), zap.String("key", key))
		}
	}

	return page, false, nil
}

func (s *statsService) compute(ctx context.Context, q StatsQuery) (*domain.RegionStatsPage, error) {
	total, err := s.statsRepository.CountRegions(ctx, q.Name)
	if err != nil {
		return nil, err
	}

	meta := domain.NewPageMeta(total, q.Page, q.PerPage)
	regions := []domain.RegionStats{}

	// compare pages, not offsets: (page-1)*per_page overflows for huge pages
	if total > 0 && q.Page <= meta.TotalPages {
		offset := (q.Page - 1) * q.PerPage
		regions, err = s.statsRepository.RegionStats(ctx, q.Name, q.PerPage, offset)
		if err != nil {
			return nil, err
		}
		if regions == nil {
			regions = []domain.RegionStats{}
		}
	}

	return &domain.RegionStatsPage{Regions: regions, Meta: meta}, nil
}
