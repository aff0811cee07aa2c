package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/vibe-gaming/countries/internal/db"
	"github.com/vibe-gaming/countries/internal/domain"
)

type regionRepository struct {
	db sqlx.ExtContext
}

func newRegionRepository(db sqlx.ExtContext) *regionRepository {
	return &regionRepository{
		db: db,
	}
}

func (r *regionRepository) GetAll(ctx context.Context) ([]domain.Region, error) {
	const query = `
	SELECT id, name FROM region ORDER BY name ASC, id ASC;
	`
	var regions []domain.Region
	if err := sqlx.SelectContext(ctx, r.db, &regions, query); err != nil {
		return nil, fmt.Errorf("select from region failed: %w", err)
	}
	return regions, nil
}

func (r *regionRepository) Create(ctx context.Context, region *domain.Region) error {
	const query = `
	INSERT INTO region (name) VALUES (?);
	`
	result, err := r.db.ExecContext(ctx, query, region.Name)
	if err != nil {
		if db.IsDuplicateEntry(err) {
			return domain.ErrDuplicateEntry
		}
		return fmt.Errorf("db insert region: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("last insert id failed: %w", err)
	}
	region.ID = id

	return nil
}

func (r *regionRepository) DeleteAll(ctx context.Context) (int64, error) {
	const query = `
	DELETE FROM region;
	`
	result, err := r.db.ExecContext(ctx, query)
	if err != nil {
		return 0, fmt.Errorf("delete from region failed: %w", err)
	}
	return result.RowsAffected()
}

func (r *regionRepository) Count(ctx context.Context) (int64, error) {
	const query = `
	SELECT COUNT(*) FROM region;
	`
	var count int64
	if err := sqlx.GetContext(ctx, r.db, &count, query); err != nil {
		return 0, fmt.Errorf("count region failed: %w", err)
	}
	return count, nil
}
