package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/meridianhq/meridian/internal/models"
	"github.com/meridianhq/meridian/internal/persistence"
)

type metalsRepo struct {
	db      *sqlx.DB
	timeout time.Duration
}

// NewMetalsRepo creates the Postgres-backed metals knowledge repository.
func NewMetalsRepo(db *sqlx.DB, timeout time.Duration) persistence.MetalsRepo {
	return &metalsRepo{db: db, timeout: timeout}
}

func (r *metalsRepo) Upsert(ctx context.Context, entry models.MetalsKnowledge) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	contentJSON, err := json.Marshal(entry.Content)
	if err != nil {
		return fmt.Errorf("marshal metals content: %w", err)
	}

	query := `
		INSERT INTO metals_knowledge (metal, category, content, updated_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (metal, category) DO UPDATE SET
			content = EXCLUDED.content,
			updated_at = now()`
	if _, err := r.db.ExecContext(ctx, query, entry.Metal, entry.Category, contentJSON); err != nil {
		return fmt.Errorf("upsert metals knowledge: %w", err)
	}
	return nil
}

func (r *metalsRepo) All(ctx context.Context) ([]models.MetalsKnowledge, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	query := `
		SELECT id, metal, category, content, updated_at
		FROM metals_knowledge
		ORDER BY metal, category`
	rows, err := r.db.QueryxContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list metals knowledge: %w", err)
	}
	defer rows.Close()

	var entries []models.MetalsKnowledge
	for rows.Next() {
		var (
			e           models.MetalsKnowledge
			contentJSON []byte
		)
		if err := rows.Scan(&e.ID, &e.Metal, &e.Category, &contentJSON, &e.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan metals knowledge: %w", err)
		}
		if len(contentJSON) > 0 {
			if err := json.Unmarshal(contentJSON, &e.Content); err != nil {
				return nil, fmt.Errorf("decode metals content: %w", err)
			}
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
