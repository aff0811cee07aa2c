package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/vibe-gaming/countries/internal/cache"
	"github.com/vibe-gaming/countries/internal/config"
	"github.com/vibe-gaming/countries/internal/countryapi"
	"github.com/vibe-gaming/countries/internal/db"
	"github.com/vibe-gaming/countries/internal/repository"
	"github.com/vibe-gaming/countries/internal/service"
	"github.com/vibe-gaming/countries/pkg/logger"
)

type importFlags struct {
	dryRun       bool
	reset        bool
	batchSize    int
	noProgress   bool
	saveResponse bool
}

// runner builds the importer once flags are parsed. Tests swap it out.
type runner func(ctx context.Context, cfg *config.Config) (service.Importer, func(), error)

func newRootCmd() *cobra.Command {
	return newImportCmd(config.MustLoad, connect)
}

func newImportCmd(loadConfig func() *config.Config, build runner) *cobra.Command {
	var flags importFlags

	cmd := &cobra.Command{
		Use:   "update-country-listing",
		Short: "Import countries and regions from the remote listing",
		Long: `Fetches the country listing, validates every row and writes regions and
countries in a single transaction.

Examples:
  # Regular import
  ./importer

  # See what would change without committing
  ./importer --dry-run

  # Wipe both tables first and keep the raw payload
  ./importer --reset --save-response`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if flags.batchSize <= 0 {
				return fmt.Errorf("--batch-size must be a positive integer, got %d", flags.batchSize)
			}

			cfg := loadConfig()
			if !cmd.Flags().Changed("batch-size") && cfg.Import.BatchSize > 0 {
				flags.batchSize = cfg.Import.BatchSize
			}
			logger.SetupLogger(cfg.Env, cfg.LogLevel)
			defer logger.Sync()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			importer, closeFn, err := build(ctx, cfg)
			if err != nil {
				return err
			}
			defer closeFn()

			return runImport(ctx, importer, flags, cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}

	cmd.Flags().BoolVar(&flags.dryRun, "dry-run", false, "Run the whole import and roll it back")
	cmd.Flags().BoolVar(&flags.reset, "reset", false, "Delete all countries and regions before importing")
	cmd.Flags().IntVar(&flags.batchSize, "batch-size", service.DefaultBatchSize, "Rows per bulk statement")
	cmd.Flags().BoolVar(&flags.noProgress, "no-progress", false, "Hide the progress bar")
	cmd.Flags().BoolVar(&flags.saveResponse, "save-response", false, "Write the raw api response to disk")

	return cmd
}

func runImport(ctx context.Context, importer service.Importer, flags importFlags, out io.Writer, progressOut io.Writer) error {
	opts := service.ImportOptions{
		DryRun:       flags.dryRun,
		Reset:        flags.reset,
		BatchSize:    flags.batchSize,
		SaveResponse: flags.saveResponse,
	}

	var bar *progressbar.ProgressBar
	if !flags.noProgress {
		opts.Progress = func(total int) service.ProgressReporter {
			bar = progressbar.NewOptions(total,
				progressbar.OptionSetWriter(progressOut),
				progressbar.OptionSetDescription("importing countries"),
				progressbar.OptionShowCount(),
				progressbar.OptionSetPredictTime(false),
			)
			return bar
		}
	}

	res, err := importer.Import(ctx, opts)
	if bar != nil {
		_ = bar.Finish()
		fmt.Fprintln(progressOut)
	}
	if err != nil {
		if errors.Is(err, countryapi.ErrNetwork) {
			return errors.Wrap(err, "could not download the country listing")
		}
		if errors.Is(err, countryapi.ErrMalformedResponse) {
			return errors.Wrap(err, "the country listing is not a valid JSON array")
		}
		return errors.Wrap(err, "import failed, no changes were committed")
	}

	printSummary(out, res)
	return nil
}

func printSummary(out io.Writer, res *service.ImportResult) {
	if res.DryRun {
		fmt.Fprintln(out, "Dry run, nothing was committed.")
	}
	if res.Reset {
		fmt.Fprintln(out, "Existing countries and regions were deleted.")
	}
	fmt.Fprintf(out, "Fetched: %d\n", res.Fetched)
	fmt.Fprintf(out, "Created: %d\n", res.Created)
	fmt.Fprintf(out, "Updated: %d\n", res.Updated)
	fmt.Fprintf(out, "Skipped: %d\n", res.Skipped)
	fmt.Fprintf(out, "Invalid: %d\n", res.Invalid)
	fmt.Fprintf(out, "Took %s (run %s)\n", res.Duration.Round(time.Millisecond), res.RunID)
}

// connect wires mysql, redis and the listing client into an importer.
func connect(ctx context.Context, cfg *config.Config) (service.Importer, func(), error) {
	dbMySQL, err := db.New(cfg.Database)
	if err != nil {
		return nil, nil, errors.Wrap(err, "mysql connect problem")
	}
	closers := []func() error{dbMySQL.Close}

	if cfg.Database.EnsureSchema {
		if err := db.EnsureSchema(ctx, dbMySQL); err != nil {
			_ = dbMySQL.Close()
			return nil, nil, err
		}
	}

	var statsCache service.Cache
	redisClient, err := cache.NewRedis(cfg.Cache)
	if err != nil {
		logger.Warn("redis is unavailable, stats cache will not be invalidated", zap.Error(err))
	}
	if redisClient != nil {
		statsCache = cache.NewStatsCache(redisClient, cfg.Stats.CacheTTL)
		closers = append(closers, redisClient.Close)
	}

	services := service.NewServices(service.Deps{
		Config: cfg,
		Repos:  repository.NewRepositories(dbMySQL),
		Source: countryapi.NewClient(cfg.Import),
		Cache:  statsCache,
	})

	closeFn := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			if err := closers[i](); err != nil {
				logger.Error("error when closing", zap.Error(err))
			}
		}
	}

	return services.Importer, closeFn, nil
}
