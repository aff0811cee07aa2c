package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/vibe-gaming/countries/internal/db"
	"github.com/vibe-gaming/countries/internal/domain"
)

const countryInsertColumns = 8

type countryRepository struct {
	db sqlx.ExtContext
}

func newCountryRepository(db sqlx.ExtContext) *countryRepository {
	return &countryRepository{
		db: db,
	}
}

func (r *countryRepository) GetAll(ctx context.Context) ([]domain.Country, error) {
	const query = `
	SELECT c.id, c.name, c.alpha2_code, c.alpha3_code, c.population, COALESCE(c.capital, '') AS capital,
		c.top_level_domain, c.region_id, r.name AS region_name
	FROM country c
	INNER JOIN region r ON r.id = c.region_id
	ORDER BY c.name ASC;
	`
	var countries []domain.Country
	if err := sqlx.SelectContext(ctx, r.db, &countries, query); err != nil {
		return nil, fmt.Errorf("select from country failed: %w", err)
	}
	return countries, nil
}

// BulkCreate inserts countries with one multi-row statement per batch.
func (r *countryRepository) BulkCreate(ctx context.Context, countries []domain.Country, batchSize int) (int, error) {
	const query = `
	INSERT INTO country (id, name, alpha2_code, alpha3_code, population, capital, top_level_domain, region_id)
	VALUES %s;
	`
	return r.execBatches(ctx, query, countries, batchSize, "db insert country")
}

// BulkUpdate rewrites existing countries keyed by primary key.
func (r *countryRepository) BulkUpdate(ctx context.Context, countries []domain.Country, batchSize int) (int, error) {
	const query = `
	INSERT INTO country (id, name, alpha2_code, alpha3_code, population, capital, top_level_domain, region_id)
	VALUES %s
	ON DUPLICATE KEY UPDATE
		alpha2_code = VALUES(alpha2_code),
		alpha3_code = VALUES(alpha3_code),
		population = VALUES(population),
		capital = VALUES(capital),
		top_level_domain = VALUES(top_level_domain),
		region_id = VALUES(region_id);
	`
	for i := range countries {
		if countries[i].ID == 0 {
			return 0, fmt.Errorf("bulk update country %q: missing id", countries[i].Name)
		}
	}
	return r.execBatches(ctx, query, countries, batchSize, "db upsert country")
}

func (r *countryRepository) execBatches(ctx context.Context, query string, countries []domain.Country, batchSize int, op string) (int, error) {
	if batchSize <= 0 {
		batchSize = len(countries)
	}

	written := 0
	for start := 0; start < len(countries); start += batchSize {
		end := min(start+batchSize, len(countries))
		batch := countries[start:end]

		placeholders := make([]string, len(batch))
		args := make([]interface{}, 0, len(batch)*countryInsertColumns)
		for i := range batch {
			c := batch[i]
			c.Normalize()
			placeholders[i] = "(?, ?, ?, ?, ?, ?, ?, ?)"
			args = append(args, nullableID(c.ID), c.Name, c.Alpha2Code, c.Alpha3Code, c.Population, c.Capital, c.TopLevelDomain, c.RegionID)
		}

		stmt := fmt.Sprintf(query, strings.Join(placeholders, ", "))
		if _, err := r.db.ExecContext(ctx, stmt, args...); err != nil {
			if db.IsDuplicateEntry(err) {
				return written, fmt.Errorf("%s: %w", op, domain.ErrDuplicateEntry)
			}
			return written, fmt.Errorf("%s: %w", op, err)
		}
		written += len(batch)
	}

	return written, nil
}

func (r *countryRepository) DeleteAll(ctx context.Context) (int64, error) {
	const query = `
	DELETE FROM country;
	`
	result, err := r.db.ExecContext(ctx, query)
	if err != nil {
		return 0, fmt.Errorf("delete from country failed: %w", err)
	}
	return result.RowsAffected()
}

func (r *countryRepository) Count(ctx context.Context) (int64, error) {
	const query = `
	SELECT COUNT(*) FROM country;
	`
	var count int64
	if err := sqlx.GetContext(ctx, r.db, &count, query); err != nil {
		return 0, fmt.Errorf("count country failed: %w", err)
	}
	return count, nil
}

// nullableID lets AUTO_INCREMENT assign ids to new rows.
func nullableID(id int64) interface{} {
	if id == 0 {
		return nil
	}
	return id
}
