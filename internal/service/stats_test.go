package service

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vibe-gaming/countries/internal/cache"
	"github.com/vibe-gaming/countries/internal/domain"
)

func importedStore(t *testing.T, payload string) *memStore {
	t.Helper()
	f := newImportFixture(t, payload)
	_, err := f.svc.Import(context.Background(), ImportOptions{})
	require.NoError(t, err)
	return f.store
}

func TestRegionStatsNameFilter(t *testing.T) {
	store := importedStore(t, threeCountries)
	svc := newStatsService(store.repos().Stats, nil, 10, 100)

	page, hit, err := svc.RegionStats(context.Background(), StatsQuery{Name: "euro"})
	require.NoError(t, err)
	assert.False(t, hit)
	require.Len(t, page.Regions, 1)
	assert.Equal(t, domain.RegionStats{Name: "Europe", NumberCountries: 2, TotalPopulation: 30}, page.Regions[0])
	assert.Equal(t, int64(1), page.Meta.TotalRegions)
	assert.Equal(t, 1, page.Meta.TotalPages)
}

func TestRegionStatsOrderedByName(t *testing.T) {
	store := importedStore(t, threeCountries)
	svc := newStatsService(store.repos().Stats, nil, 10, 100)

	page, _, err := svc.RegionStats(context.Background(), StatsQuery{})
	require.NoError(t, err)
	require.Len(t, page.Regions, 2)
	assert.Equal(t, "Asia", page.Regions[0].Name)
	assert.Equal(t, "Europe", page.Regions[1].Name)
}

func TestRegionStatsEmptyRegionSumsToZero(t *testing.T) {
	store := newMemStore()
	require.NoError(t, store.repos().Regions.Create(context.Background(), &domain.Region{Name: "Antarctic"}))
	svc := newStatsService(store.repos().Stats, nil, 10, 100)

	page, _, err := svc.RegionStats(context.Background(), StatsQuery{})
	require.NoError(t, err)
	require.Len(t, page.Regions, 1)
	assert.Equal(t, int64(0), page.Regions[0].NumberCountries)
	assert.Equal(t, int64(0), page.Regions[0].TotalPopulation)
}

func TestRegionStatsPageBeyondRange(t *testing.T) {
	store := importedStore(t, threeCountries)
	svc := newStatsService(store.repos().Stats, nil, 10, 100)

	page, _, err := svc.RegionStats(context.Background(), StatsQuery{Page: 5, PerPage: 1})
	require.NoError(t, err)
	assert.NotNil(t, page.Regions)
	assert.Empty(t, page.Regions)
	assert.Equal(t, 2, page.Meta.TotalPages)
	assert.Equal(t, 5, page.Meta.Page)
	assert.False(t, page.Meta.HasNext)
}

func TestRegionStatsHugePageSkipsQuery(t *testing.T) {
	store := importedStore(t, threeCountries)
	repo := &recordingStats{Stats: store.repos().Stats}
	svc := newStatsService(repo, nil, 10, 100)

	page, _, err := svc.RegionStats(context.Background(), StatsQuery{Page: math.MaxInt, PerPage: 2})
	require.NoError(t, err)
	assert.Empty(t, repo.offsets)
	assert.NotNil(t, page.Regions)
	assert.Empty(t, page.Regions)
	assert.Equal(t, 1, page.Meta.TotalPages)
	assert.Equal(t, math.MaxInt, page.Meta.Page)
	assert.False(t, page.Meta.HasNext)
	assert.True(t, page.Meta.HasPrevious)
}

func TestRegionStatsLastPageOffset(t *testing.T) {
	store := importedStore(t, threeCountries)
	repo := &recordingStats{Stats: store.repos().Stats}
	svc := newStatsService(repo, nil, 10, 100)

	page, _, err := svc.RegionStats(context.Background(), StatsQuery{Page: 2, PerPage: 1})
	require.NoError(t, err)
	assert.Equal(t, []int{1}, repo.offsets)
	require.Len(t, page.Regions, 1)

	_, _, err = svc.RegionStats(context.Background(), StatsQuery{Page: 3, PerPage: 1})
	require.NoError(t, err)
	assert.Equal(t, []int{1}, repo.offsets)
}

func TestRegionStatsPagination(t *testing.T) {
	store := importedStore(t, threeCountries)
	svc := newStatsService(store.repos().Stats, nil, 10, 100)

	page, _, err := svc.RegionStats(context.Background(), StatsQuery{Page: 2, PerPage: 1})
	require.NoError(t, err)
	require.Len(t, page.Regions, 1)
	assert.Equal(t, "Europe", page.Regions[0].Name)
	assert.True(t, page.Meta.HasPrevious)
	assert.False(t, page.Meta.HasNext)
}

func TestRegionStatsDefaultsAndClamps(t *testing.T) {
	svc := newStatsService(nil, nil, 0, 0)

	q := svc.normalize(StatsQuery{Name: "  Asia ", Page: -3, PerPage: 0})
	assert.Equal(t, StatsQuery{Name: "Asia", Page: 1, PerPage: DefaultPerPage}, q)

	q = svc.normalize(StatsQuery{Page: 2, PerPage: 1000})
	assert.Equal(t, MaxPerPage, q.PerPage)
}

func TestRegionStatsCacheHit(t *testing.T) {
	store := importedStore(t, threeCountries)
	cache := newMemCache()
	svc := newStatsService(store.repos().Stats, cache, 10, 100)

	first, hit, err := svc.RegionStats(context.Background(), StatsQuery{Name: "euro"})
	require.NoError(t, err)
	assert.False(t, hit)

	second, hit, err := svc.RegionStats(context.Background(), StatsQuery{Name: " EURO "})
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, cache.sets)
}

func TestRegionStatsCacheErrorFallsBack(t *testing.T) {
	store := importedStore(t, threeCountries)
	cache := newMemCache()
	cache.getErr = errors.New("redis down")
	svc := newStatsService(store.repos().Stats, cache, 10, 100)

	page, hit, err := svc.RegionStats(context.Background(), StatsQuery{})
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Len(t, page.Regions, 2)
}

func TestRegionStatsCacheKeyErrorFallsBack(t *testing.T) {
	store := importedStore(t, threeCountries)
	cache := newMemCache()
	cache.keyErr = errors.New("redis down")
	svc := newStatsService(store.repos().Stats, cache, 10, 100)

	page, hit, err := svc.RegionStats(context.Background(), StatsQuery{})
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Len(t, page.Regions, 2)
	assert.Zero(t, cache.gets)
	assert.Zero(t, cache.sets)
}

func TestRegionStatsInvalidatedDuringCompute(t *testing.T) {
	f := newImportFixture(t, threeCountries)
	ctx := context.Background()
	_, err := f.svc.Import(ctx, ImportOptions{})
	require.NoError(t, err)

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	statsCache := cache.NewStatsCache(client, time.Minute)

	repo := &recordingStats{Stats: f.store.repos().Stats}
	svc := newStatsService(repo, statsCache, 10, 100)

	// an import commits while the first miss is still being computed
	repo.afterQuery = func() {
		f.source.rows = decodeRows(t, `[
			{"name":"France","region":"Europe","alpha2Code":"fr","alpha3Code":"fra","population":999},
			{"name":"Germany","region":"Europe","alpha2Code":"de","alpha3Code":"deu","population":20},
			{"name":"Japan","region":"Asia","alpha2Code":"jp","alpha3Code":"jpn","population":30}
		]`)
		importer := newImportService(f.source, f.store, statsCache, "", 0)
		_, err := importer.Import(ctx, ImportOptions{})
		require.NoError(t, err)
	}

	stale, hit, err := svc.RegionStats(ctx, StatsQuery{Name: "euro"})
	require.NoError(t, err)
	assert.False(t, hit)
	require.Len(t, stale.Regions, 1)
	assert.Equal(t, int64(30), stale.Regions[0].TotalPopulation)

	fresh, hit, err := svc.RegionStats(ctx, StatsQuery{Name: "euro"})
	require.NoError(t, err)
	assert.False(t, hit)
	require.Len(t, fresh.Regions, 1)
	assert.Equal(t, int64(1019), fresh.Regions[0].TotalPopulation)

	cached, hit, err := svc.RegionStats(ctx, StatsQuery{Name: "euro"})
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, fresh, cached)
}

func TestStatsQueryCacheKey(t *testing.T) {
	a := StatsQuery{Name: "Europe", Page: 1, PerPage: 10}
	b := StatsQuery{Name: " europe", Page: 1, PerPage: 10}
	c := StatsQuery{Name: "europe", Page: 2, PerPage: 10}

	assert.Equal(t, a.CacheKey(), b.CacheKey())
	assert.NotEqual(t, a.CacheKey(), c.CacheKey())
	assert.Len(t, a.CacheKey(), 64)
}
