package service

import (
	"context"

	"github.com/vibe-gaming/countries/internal/config"
	"github.com/vibe-gaming/countries/internal/domain"
	"github.com/vibe-gaming/countries/internal/repository"
)

type Services struct {
	Importer Importer
	Stats    Stats
}

// Cache is the stats cache as seen by both services.
type Cache interface {
	StatsCache
	CacheInvalidator
}

type Deps struct {
	Config *config.Config
	Repos  *repository.Repositories
	Source CountrySource
	Cache  Cache
}

func NewServices(deps Deps) *Services {
	var (
		statsCache  StatsCache
		invalidator CacheInvalidator
	)
	if deps.Cache != nil {
		statsCache = deps.Cache
		invalidator = deps.Cache
	}

	return &Services{
		Importer: newImportService(
			deps.Source,
			deps.Repos,
			invalidator,
			deps.Config.Import.SaveResponsePath,
			deps.Config.Import.BatchSize,
		),
		Stats: newStatsService(
			deps.Repos.Stats,
			statsCache,
			deps.Config.Stats.DefaultPerPage,
			deps.Config.Stats.MaxPerPage,
		),
	}
}

type Importer interface {
	Import(ctx context.Context, opts ImportOptions) (*ImportResult, error)
}

type Stats interface {
	RegionStats(ctx context.Context, q StatsQuery) (*domain.RegionStatsPage, bool, error)
}
