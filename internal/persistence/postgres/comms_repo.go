package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/meridianhq/meridian/internal/models"
	"github.com/meridianhq/meridian/internal/persistence"
)

type commsRepo struct {
	db      *sqlx.DB
	timeout time.Duration
}

// NewCommsRepo creates the Postgres-backed central-bank comms repository.
func NewCommsRepo(db *sqlx.DB, timeout time.Duration) persistence.CommsRepo {
	return &commsRepo{db: db, timeout: timeout}
}

func (r *commsRepo) Exists(ctx context.Context, bank, commType string, publishedAt time.Time) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	var exists bool
	query := `
		SELECT EXISTS (
			SELECT 1 FROM central_bank_comms
			WHERE bank = $1 AND comm_type = $2 AND published_at = $3
		)`
	if err := r.db.QueryRowxContext(ctx, query, bank, commType, publishedAt).Scan(&exists); err != nil {
		return false, fmt.Errorf("check comm exists: %w", err)
	}
	return exists, nil
}

func (r *commsRepo) LatestBefore(ctx context.Context, bank, commType string, before time.Time) (*models.CentralBankComm, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	var comm models.CentralBankComm
	query := `
		SELECT id, bank, comm_type, published_at, full_text, change_vs_previous
		FROM central_bank_comms
		WHERE bank = $1 AND comm_type = $2 AND published_at < $3
		ORDER BY published_at DESC
		LIMIT 1`
	err := r.db.QueryRowxContext(ctx, query, bank, commType, before).Scan(
		&comm.ID, &comm.Bank, &comm.CommType, &comm.PublishedAt,
		&comm.FullText, &comm.ChangeVsPrevious)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("latest comm before: %w", err)
	}
	return &comm, nil
}

func (r *commsRepo) Insert(ctx context.Context, comm models.CentralBankComm) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	query := `
		INSERT INTO central_bank_comms (bank, comm_type, published_at, full_text, change_vs_previous)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (bank, comm_type, published_at) DO NOTHING`
	_, err := r.db.ExecContext(ctx, query,
		comm.Bank, comm.CommType, comm.PublishedAt, comm.FullText, comm.ChangeVsPrevious)
	if err != nil {
		return fmt.Errorf("insert comm: %w", err)
	}
	return nil
}
