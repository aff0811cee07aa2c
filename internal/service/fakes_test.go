package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/vibe-gaming/countries/internal/countryapi"
	"github.com/vibe-gaming/countries/internal/domain"
	"github.com/vibe-gaming/countries/internal/repository"
)

// memStore is an in-memory stand-in for the MySQL repositories with
// snapshot based transactions.
type memStore struct {
	mu sync.Mutex

	regions   map[int64]domain.Region
	countries map[int64]domain.Country
	nextID    int64

	createBatches []int
	updateBatches []int
	commits       int
	rollbacks     int
}

func newMemStore() *memStore {
	return &memStore{
		regions:   map[int64]domain.Region{},
		countries: map[int64]domain.Country{},
	}
}

func (s *memStore) repos() *repository.Repositories {
	return &repository.Repositories{
		Regions:   memRegions{s},
		Countries: memCountries{s},
		Stats:     memStats{s},
	}
}

func (s *memStore) WithinTx(ctx context.Context, fn repository.TxFunc) error {
	s.mu.Lock()
	regions := make(map[int64]domain.Region, len(s.regions))
	for k, v := range s.regions {
		regions[k] = v
	}
	countries := make(map[int64]domain.Country, len(s.countries))
	for k, v := range s.countries {
		countries[k] = v
	}
	nextID := s.nextID
	s.mu.Unlock()

	if err := fn(ctx, s.repos()); err != nil {
		s.mu.Lock()
		s.regions, s.countries, s.nextID = regions, countries, nextID
		s.rollbacks++
		s.mu.Unlock()
		return err
	}

	s.mu.Lock()
	s.commits++
	s.mu.Unlock()
	return nil
}

func (s *memStore) regionName(id int64) string {
	return s.regions[id].Name
}

func (s *memStore) counts() (int, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.regions), len(s.countries)
}

func (s *memStore) countryByName(name string) (domain.Country, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.countries {
		if c.Name == name {
			c.RegionName = s.regionName(c.RegionID)
			return c, true
		}
	}
	return domain.Country{}, false
}

type memRegions struct{ s *memStore }

func (r memRegions) GetAll(ctx context.Context) ([]domain.Region, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]domain.Region, 0, len(r.s.regions))
	for _, region := range r.s.regions {
		out = append(out, region)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r memRegions) Create(ctx context.Context, region *domain.Region) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.regions {
		if existing.Name == region.Name {
			return domain.ErrDuplicateEntry
		}
	}
	r.s.nextID++
	region.ID = r.s.nextID
	r.s.regions[region.ID] = *region
	return nil
}

func (r memRegions) DeleteAll(ctx context.Context) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	n := int64(len(r.s.regions))
	r.s.regions = map[int64]domain.Region{}
	r.s.countries = map[int64]domain.Country{}
	return n, nil
}

func (r memRegions) Count(ctx context.Context) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return int64(len(r.s.regions)), nil
}

type memCountries struct{ s *memStore }

func (r memCountries) GetAll(ctx context.Context) ([]domain.Country, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]domain.Country, 0, len(r.s.countries))
	for _, c := range r.s.countries {
		c.RegionName = r.s.regionName(c.RegionID)
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r memCountries) BulkCreate(ctx context.Context, countries []domain.Country, batchSize int) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.createBatches = append(r.s.createBatches, len(countries))
	for _, c := range countries {
		c.Normalize()
		for _, existing := range r.s.countries {
			if existing.Name == c.Name || existing.Alpha2Code == c.Alpha2Code || existing.Alpha3Code == c.Alpha3Code {
				return 0, domain.ErrDuplicateEntry
			}
		}
		if _, ok := r.s.regions[c.RegionID]; !ok {
			return 0, errors.New("foreign key violation")
		}
		r.s.nextID++
		c.ID = r.s.nextID
		c.RegionName = ""
		r.s.countries[c.ID] = c
	}
	return len(countries), nil
}

func (r memCountries) BulkUpdate(ctx context.Context, countries []domain.Country, batchSize int) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.updateBatches = append(r.s.updateBatches, len(countries))
	for _, c := range countries {
		if _, ok := r.s.countries[c.ID]; !ok {
			return 0, domain.ErrNotFound
		}
		c.Normalize()
		c.RegionName = ""
		r.s.countries[c.ID] = c
	}
	return len(countries), nil
}

func (r memCountries) DeleteAll(ctx context.Context) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	n := int64(len(r.s.countries))
	r.s.countries = map[int64]domain.Country{}
	return n, nil
}

func (r memCountries) Count(ctx context.Context) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return int64(len(r.s.countries)), nil
}

type memStats struct{ s *memStore }

func (r memStats) filtered(nameFilter string) []domain.Region {
	var out []domain.Region
	needle := strings.ToLower(strings.TrimSpace(nameFilter))
	for _, region := range r.s.regions {
		if strings.Contains(strings.ToLower(region.Name), needle) {
			out = append(out, region)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name == out[j].Name {
			return out[i].ID < out[j].ID
		}
		return out[i].Name < out[j].Name
	})
	return out
}

func (r memStats) CountRegions(ctx context.Context, nameFilter string) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return int64(len(r.filtered(nameFilter))), nil
}

func (r memStats) RegionStats(ctx context.Context, nameFilter string, limit, offset int) ([]domain.RegionStats, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	regions := r.filtered(nameFilter)
	out := []domain.RegionStats{}
	for i := offset; i < len(regions) && i < offset+limit; i++ {
		stats := domain.RegionStats{Name: regions[i].Name}
		for _, c := range r.s.countries {
			if c.RegionID == regions[i].ID {
				stats.NumberCountries++
				stats.TotalPopulation += c.Population
			}
		}
		out = append(out, stats)
	}
	return out, nil
}

type fakeSource struct {
	rows  []countryapi.RawCountry
	err   error
	paths []string
}

func (f *fakeSource) Fetch(ctx context.Context, savePath string) ([]countryapi.RawCountry, error) {
	f.paths = append(f.paths, savePath)
	if f.err != nil {
		return nil, f.err
	}
	return f.rows, nil
}

// memCache implements both StatsCache and CacheInvalidator. Invalidate bumps
// a generation like the redis cache does, old entries stay in the map.
type memCache struct {
	entries      map[string]domain.RegionStatsPage
	generation   int
	gets         int
	sets         int
	invalidated  int
	keyErr       error
	getErr       error
	invalidateEr error
}

func newMemCache() *memCache {
	return &memCache{entries: map[string]domain.RegionStatsPage{}}
}

func (c *memCache) Key(ctx context.Context, key string) (string, error) {
	if c.keyErr != nil {
		return "", c.keyErr
	}
	return fmt.Sprintf("v%d:%s", c.generation, key), nil
}

func (c *memCache) Get(ctx context.Context, key string) (*domain.RegionStatsPage, bool, error) {
	c.gets++
	if c.getErr != nil {
		return nil, false, c.getErr
	}
	page, ok := c.entries[key]
	if !ok {
		return nil, false, nil
	}
	return &page, true, nil
}

func (c *memCache) Set(ctx context.Context, key string, page *domain.RegionStatsPage) error {
	c.sets++
	c.entries[key] = *page
	return nil
}

func (c *memCache) Invalidate(ctx context.Context) error {
	c.invalidated++
	c.generation++
	return c.invalidateEr
}

// recordingStats wraps a Stats repository, records page queries and runs
// afterQuery once after the first one.
type recordingStats struct {
	repository.Stats
	offsets    []int
	afterQuery func()
}

func (r *recordingStats) RegionStats(ctx context.Context, nameFilter string, limit, offset int) ([]domain.RegionStats, error) {
	r.offsets = append(r.offsets, offset)
	out, err := r.Stats.RegionStats(ctx, nameFilter, limit, offset)
	if r.afterQuery != nil {
		fn := r.afterQuery
		r.afterQuery = nil
		fn()
	}
	return out, err
}

type countingProgress struct {
	n, total int
	err      error
}

func (p *countingProgress) start(total int) ProgressReporter {
	p.total = total
	return p
}

func (p *countingProgress) Add(num int) error {
	p.n += num
	return p.err
}
