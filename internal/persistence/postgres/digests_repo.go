package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/meridianhq/meridian/internal/models"
	"github.com/meridianhq/meridian/internal/persistence"
)

type digestsRepo struct {
	db      *sqlx.DB
	timeout time.Duration
}

// NewDigestsRepo creates the Postgres-backed daily digests repository.
func NewDigestsRepo(db *sqlx.DB, timeout time.Duration) persistence.DigestsRepo {
	return &digestsRepo{db: db, timeout: timeout}
}

func (r *digestsRepo) GetByDate(ctx context.Context, date time.Time) (*models.DailyDigest, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	query := `
		SELECT id, digest_date, created_at, priority_events, metals_snapshot,
		       economic_calendar, active_theses, full_digest
		FROM daily_digests
		WHERE digest_date = $1`

	var (
		d            models.DailyDigest
		eventsJSON   []byte
		metalsJSON   []byte
		calendarJSON []byte
		thesesJSON   []byte
	)
	err := r.db.QueryRowxContext(ctx, query, date).Scan(
		&d.ID, &d.DigestDate, &d.CreatedAt, &eventsJSON, &metalsJSON,
		&calendarJSON, &thesesJSON, &d.FullDigest)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get digest by date: %w", err)
	}
	for _, part := range []struct {
		raw  []byte
		dest *[]map[string]any
	}{
		{eventsJSON, &d.PriorityEvents},
		{metalsJSON, &d.MetalsSnapshot},
		{calendarJSON, &d.EconomicCalendar},
		{thesesJSON, &d.ActiveTheses},
	} {
		if len(part.raw) == 0 {
			continue
		}
		if err := json.Unmarshal(part.raw, part.dest); err != nil {
			return nil, fmt.Errorf("decode digest section: %w", err)
		}
	}
	return &d, nil
}

func (r *digestsRepo) Upsert(ctx context.Context, digest models.DailyDigest) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	eventsJSON, err := json.Marshal(digest.PriorityEvents)
	if err != nil {
		return fmt.Errorf("marshal priority events: %w", err)
	}
	metalsJSON, err := json.Marshal(digest.MetalsSnapshot)
	if err != nil {
		return fmt.Errorf("marshal metals snapshot: %w", err)
	}
	calendarJSON, err := json.Marshal(digest.EconomicCalendar)
	if err != nil {
		return fmt.Errorf("marshal economic calendar: %w", err)
	}
	thesesJSON, err := json.Marshal(digest.ActiveTheses)
	if err != nil {
		return fmt.Errorf("marshal active theses: %w", err)
	}

	query := `
		INSERT INTO daily_digests (digest_date, priority_events, metals_snapshot, economic_calendar, active_theses, full_digest)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (digest_date) DO UPDATE SET
			priority_events = EXCLUDED.priority_events,
			metals_snapshot = EXCLUDED.metals_snapshot,
			economic_calendar = EXCLUDED.economic_calendar,
			active_theses = EXCLUDED.active_theses,
			full_digest = EXCLUDED.full_digest`
	_, err = r.db.ExecContext(ctx, query,
		digest.DigestDate, eventsJSON, metalsJSON, calendarJSON, thesesJSON, digest.FullDigest)
	if err != nil {
		return fmt.Errorf("upsert digest: %w", err)
	}
	return nil
}
