package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/meridianhq/meridian/internal/models"
	"github.com/meridianhq/meridian/internal/persistence"
)

type thesesRepo struct {
	db      *sqlx.DB
	timeout time.Duration
}

// NewThesesRepo creates the Postgres-backed theses reader.
func NewThesesRepo(db *sqlx.DB, timeout time.Duration) persistence.ThesesRepo {
	return &thesesRepo{db: db, timeout: timeout}
}

func (r *thesesRepo) ListActive(ctx context.Context, limit int) ([]models.Thesis, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	query := `
		SELECT id, title, status, asset_symbol, price_change_percent, updated_at, created_at
		FROM theses
		WHERE status IS NULL OR status NOT IN ('closed', 'dismissed', 'archived')
		ORDER BY updated_at DESC NULLS LAST
		LIMIT $1`
	rows, err := r.db.QueryxContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("list active theses: %w", err)
	}
	defer rows.Close()

	var theses []models.Thesis
	for rows.Next() {
		var t models.Thesis
		err := rows.Scan(&t.ID, &t.Title, &t.Status, &t.AssetSymbol,
			&t.PriceChangePercent, &t.UpdatedAt, &t.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("scan thesis: %w", err)
		}
		theses = append(theses, t)
	}
	return theses, rows.Err()
}
