package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/vibe-gaming/countries/internal/domain"
)

type statsRepository struct {
	db sqlx.ExtContext
}

func newStatsRepository(db sqlx.ExtContext) *statsRepository {
	return &statsRepository{
		db: db,
	}
}

func (r *statsRepository) CountRegions(ctx context.Context, nameFilter string) (int64, error) {
	query := `
	SELECT COUNT(*) FROM region r`
	var args []interface{}

	if nameFilter != "" {
		query += `
	WHERE LOWER(r.name) LIKE ?`
		args = append(args, likeContains(nameFilter))
	}

	var count int64
	if err := sqlx.GetContext(ctx, r.db, &count, query, args...); err != nil {
		return 0, fmt.Errorf("count regions failed: %w", err)
	}
	return count, nil
}

// RegionStats aggregates countries per region. Regions without countries
// report zero population thanks to the LEFT JOIN and COALESCE.
func (r *statsRepository) RegionStats(ctx context.Context, nameFilter string, limit, offset int) ([]domain.RegionStats, error) {
	query := `
	SELECT r.name AS name,
		COUNT(c.id) AS number_countries,
		COALESCE(SUM(c.population), 0) AS total_population
	FROM region r
	LEFT JOIN country c ON c.region_id = r.id`
	var args []interface{}

	if nameFilter != "" {
		query += `
	WHERE LOWER(r.name) LIKE ?`
		args = append(args, likeContains(nameFilter))
	}

	query += `
	GROUP BY r.id, r.name
	ORDER BY r.name ASC, r.id ASC
	LIMIT ? OFFSET ?`
	args = append(args, limit, offset)

	stats := make([]domain.RegionStats, 0, limit)
	if err := sqlx.SelectContext(ctx, r.db, &stats, query, args...); err != nil {
		return nil, fmt.Errorf("select region stats failed: %w", err)
	}
	return stats, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func likeContains(s string) string {
	return "%" + likeEscaper.Replace(strings.ToLower(strings.TrimSpace(s))) + "%"
}
