package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/vibe-gaming/countries/internal/domain"
	"github.com/vibe-gaming/countries/internal/repository"
	"github.com/vibe-gaming/countries/pkg/logger"
)

const maxBufferPrealloc = 1024

type change int

const (
	changeCreated change = iota
	changeUpdated
	changeUnchanged
	changeDuplicate
)

// bulkWriter diffs incoming countries against the rows preloaded at start and
// buffers creates and updates until a batch is full.
type bulkWriter struct {
	repos     *repository.Repositories
	batchSize int

	regions   map[string]*domain.Region
	countries map[string]domain.Country
	seen      map[string]struct{}

	toCreate []domain.Country
	toUpdate []domain.Country

	created int
	updated int
}

func newBulkWriter(ctx context.Context, repos *repository.Repositories, batchSize int) (*bulkWriter, error) {
	regions, err := repos.Regions.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("preload regions: %w", err)
	}
	countries, err := repos.Countries.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("preload countries: %w", err)
	}

	bufSize := min(batchSize, maxBufferPrealloc)
	w := &bulkWriter{
		repos:     repos,
		batchSize: batchSize,
		regions:   make(map[string]*domain.Region, len(regions)),
		countries: make(map[string]domain.Country, len(countries)),
		seen:      make(map[string]struct{}),
		toCreate:  make([]domain.Country, 0, bufSize),
		toUpdate:  make([]domain.Country, 0, bufSize),
	}
	for i := range regions {
		w.regions[regions[i].Name] = &regions[i]
	}
	for _, c := range countries {
		w.countries[c.Name] = c
	}

	logger.Debug("preloaded existing rows", zap.Int("regions", len(regions)), zap.Int("countries", len(countries)))
	return w, nil
}

// Stage classifies country and queues it for writing when needed.
func (w *bulkWriter) Stage(ctx context.Context, country domain.Country) (change, error) {
	if _, ok := w.seen[country.Name]; ok {
		return changeDuplicate, nil
	}
	w.seen[country.Name] = struct{}{}

	region, err := w.region(ctx, country.RegionName)
	if err != nil {
		return 0, err
	}
	country.RegionID = region.ID

	existing, ok := w.countries[country.Name]
	if !ok {
		w.toCreate = append(w.toCreate, country)
		if len(w.toCreate) >= w.batchSize {
			return changeCreated, w.flushCreates(ctx)
		}
		return changeCreated, nil
	}

	if !existing.Differs(&country) {
		return changeUnchanged, nil
	}

	country.ID = existing.ID
	w.toUpdate = append(w.toUpdate, country)
	if len(w.toUpdate) >= w.batchSize {
		return changeUpdated, w.flushUpdates(ctx)
	}
	return changeUpdated, nil
}

// Flush writes whatever is still buffered.
func (w *bulkWriter) Flush(ctx context.Context) error {
	if err := w.flushCreates(ctx); err != nil {
		return err
	}
	return w.flushUpdates(ctx)
}

func (w *bulkWriter) region(ctx context.Context, name string) (*domain.Region, error) {
	if region, ok := w.regions[name]; ok {
		return region, nil
	}

	region := &domain.Region{Name: name}
	if err := w.repos.Regions.Create(ctx, region); err != nil {
		return nil, fmt.Errorf("create region %q: %w", name, err)
	}
	w.regions[name] = region
	logger.Debug("region created", zap.String("region", name), zap.Int64("id", region.ID))

	return region, nil
}

func (w *bulkWriter) flushCreates(ctx context.Context) error {
	if len(w.toCreate) == 0 {
		return nil
	}
	n, err := w.repos.Countries.BulkCreate(ctx, w.toCreate, w.batchSize)
	if err != nil {
		return fmt.Errorf("bulk create countries: %w", err)
	}
	logger.Debug("bulk created countries", zap.Int("count", n))
	w.created += n
	w.toCreate = w.toCreate[:0]
	return nil
}

func (w *bulkWriter) flushUpdates(ctx context.Context) error {
	if len(w.toUpdate) == 0 {
		return nil
	}
	n, err := w.repos.Countries.BulkUpdate(ctx, w.toUpdate, w.batchSize)
	if err != nil {
		return fmt.Errorf("bulk update countries: %w", err)
	}
	logger.Debug("bulk updated countries", zap.Int("count", n))
	w.updated += n
	w.toUpdate = w.toUpdate[:0]
	return nil
}
