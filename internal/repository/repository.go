package repository

import (
	"context"
	"fmt"

	"github.com/vibe-gaming/countries/internal/domain"

	"github.com/jmoiron/sqlx"
)

type Repositories struct {
	Regions   Regions
	Countries Countries
	Stats     Stats

	db *sqlx.DB
}

func NewRepositories(db *sqlx.DB) *Repositories {
	return &Repositories{
		Regions:   newRegionRepository(db),
		Countries: newCountryRepository(db),
		Stats:     newStatsRepository(db),
		db:        db,
	}
}

func newTxRepositories(tx *sqlx.Tx) *Repositories {
	return &Repositories{
		Regions:   newRegionRepository(tx),
		Countries: newCountryRepository(tx),
		Stats:     newStatsRepository(tx),
	}
}

// TxFunc receives repositories bound to a single transaction.
type TxFunc func(ctx context.Context, repos *Repositories) error

type Transactor interface {
	WithinTx(ctx context.Context, fn TxFunc) error
}

// WithinTx commits when fn returns nil and rolls back otherwise.
func (r *Repositories) WithinTx(ctx context.Context, fn TxFunc) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction failed: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(ctx, newTxRepositories(tx)); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("rollback failed: %v: %w", rbErr, err)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction failed: %w", err)
	}
	return nil
}

type Regions interface {
	GetAll(ctx context.Context) ([]domain.Region, error)
	Create(ctx context.Context, region *domain.Region) error
	DeleteAll(ctx context.Context) (int64, error)
	Count(ctx context.Context) (int64, error)
}

type Countries interface {
	GetAll(ctx context.Context) ([]domain.Country, error)
	BulkCreate(ctx context.Context, countries []domain.Country, batchSize int) (int, error)
	BulkUpdate(ctx context.Context, countries []domain.Country, batchSize int) (int, error)
	DeleteAll(ctx context.Context) (int64, error)
	Count(ctx context.Context) (int64, error)
}

type Stats interface {
	CountRegions(ctx context.Context, nameFilter string) (int64, error)
	RegionStats(ctx context.Context, nameFilter string, limit, offset int) ([]domain.RegionStats, error)
}
