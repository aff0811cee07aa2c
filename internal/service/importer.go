package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/vibe-gaming/countries/internal/countryapi"
	"github.com/vibe-gaming/countries/internal/repository"
	"github.com/vibe-gaming/countries/pkg/logger"
)

const DefaultBatchSize = 1000

type ImportOptions struct {
	DryRun       bool
	Reset        bool
	BatchSize    int
	SaveResponse bool
	// Progress, when set, is called once the row count is known and the
	// returned reporter is advanced once per processed row.
	Progress func(total int) ProgressReporter
}

type ProgressReporter interface {
	Add(num int) error
}

type ImportResult struct {
	RunID    uuid.UUID
	Fetched  int
	Created  int
	Updated  int
	Skipped  int
	Invalid  int
	Reset    bool
	DryRun   bool
	Duration time.Duration
}

type CountrySource interface {
	Fetch(ctx context.Context, savePath string) ([]countryapi.RawCountry, error)
}

type CacheInvalidator interface {
	Invalidate(ctx context.Context) error
}

type importService struct {
	source           CountrySource
	transactor       repository.Transactor
	cache            CacheInvalidator
	saveResponsePath string
	defaultBatchSize int
}

func newImportService(source CountrySource, transactor repository.Transactor, cache CacheInvalidator, saveResponsePath string, defaultBatchSize int) *importService {
	if defaultBatchSize <= 0 {
		defaultBatchSize = DefaultBatchSize
	}
	return &importService{
		source:           source,
		transactor:       transactor,
		cache:            cache,
		saveResponsePath: saveResponsePath,
		defaultBatchSize: defaultBatchSize,
	}
}

// Import fetches the listing and writes it in one transaction. A dry run
// executes the same statements and rolls them back.
func (s *importService) Import(ctx context.Context, opts ImportOptions) (*ImportResult, error) {
	batchSize := opts.BatchSize
	if batchSize == 0 {
		batchSize = s.defaultBatchSize
	}
	if batchSize < 0 {
		return nil, ErrInvalidBatchSize
	}

	started := time.Now()
	result := &ImportResult{RunID: uuid.New(), Reset: opts.Reset, DryRun: opts.DryRun}
	log := logger.Logger().With(zap.String("run_id", result.RunID.String()))

	log.Info("starting import",
		zap.Int("batch_size", batchSize),
		zap.Bool("dry_run", opts.DryRun),
		zap.Bool("reset", opts.Reset),
	)

	savePath := ""
	if opts.SaveResponse {
		savePath = s.saveResponsePath
	}
	rows, err := s.source.Fetch(ctx, savePath)
	if err != nil {
		return nil, errors.Wrap(err, "fetch country listing")
	}
	result.Fetched = len(rows)

	var progress ProgressReporter
	if opts.Progress != nil {
		progress = opts.Progress(len(rows))
	}

	err = s.transactor.WithinTx(ctx, func(ctx context.Context, repos *repository.Repositories) error {
		if opts.Reset {
			log.Warn("resetting database")
			if _, err := repos.Countries.DeleteAll(ctx); err != nil {
				return err
			}
			if _, err := repos.Regions.DeleteAll(ctx); err != nil {
				return err
			}
		}

		writer, err := newBulkWriter(ctx, repos, batchSize)
		if err != nil {
			return err
		}

		for idx, raw := range rows {
			if progress != nil {
				if err := progress.Add(1); err != nil {
					log.Debug("progress update failed", zap.Error(err))
				}
			}

			country, err := NormalizeRow(idx, raw)
			if err != nil {
				log.Warn("skipping invalid row", zap.Error(err))
				result.Invalid++
				continue
			}

			kind, err := writer.Stage(ctx, country)
			if err != nil {
				return err
			}
			switch kind {
			case changeCreated:
				result.Created++
				log.Debug("create", zap.String("country", country.Name))
			case changeUpdated:
				result.Updated++
				log.Debug("update", zap.String("country", country.Name))
			case changeUnchanged:
				result.Skipped++
				log.Debug("unchanged", zap.String("country", country.Name))
			case changeDuplicate:
				result.Skipped++
				log.Warn("duplicate country in payload, keeping the first one", zap.String("country", country.Name))
			}
		}

		if err := writer.Flush(ctx); err != nil {
			return err
		}

		if opts.DryRun {
			return errDryRunRollback
		}
		return nil
	})
	if err != nil && !errors.Is(err, errDryRunRollback) {
		log.Error("import failed, transaction rolled back", zap.Error(err))
		return nil, errors.Wrap(err, "import transaction failed")
	}

	if !opts.DryRun && s.cache != nil {
		if err := s.cache.Invalidate(ctx); err != nil {
			log.Error("stats cache invalidation failed", zap.Error(err))
		}
	}

	result.Duration = time.Since(started)
	log.Info("import completed",
		zap.Int("fetched", result.Fetched),
		zap.Int("created", result.Created),
		zap.Int("updated", result.Updated),
		zap.Int("skipped", result.Skipped),
		zap.Int("invalid", result.Invalid),
		zap.Bool("dry_run", result.DryRun),
		zap.Duration("duration", result.Duration),
	)

	return result, nil
}
