package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/meridianhq/meridian/internal/models"
	"github.com/meridianhq/meridian/internal/persistence"
)

const eventColumns = `
	id, created_at, source, headline, full_text, url, published_at,
	event_type, regions, entities, significance_score, score_components,
	priority_flag, raw_facts, metal_impacts, historical_precedent,
	counter_case, crypto_transmission, status, thesis_id`

type eventsRepo struct {
	db      *sqlx.DB
	timeout time.Duration
}

// NewEventsRepo creates the Postgres-backed events repository.
func NewEventsRepo(db *sqlx.DB, timeout time.Duration) persistence.EventsRepo {
	return &eventsRepo{db: db, timeout: timeout}
}

func (r *eventsRepo) InsertIgnore(ctx context.Context, event models.MacroEvent) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	status := event.Status
	if status == "" {
		status = "new"
	}

	query := `
		INSERT INTO macro_events (source, headline, full_text, url, published_at, event_type, regions, entities, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (source, headline, published_at) DO NOTHING`

	res, err := r.db.ExecContext(ctx, query,
		event.Source, event.Headline, event.FullText, event.URL, event.PublishedAt,
		event.EventType, pq.Array(event.Regions), pq.Array(event.Entities), status)
	if err != nil {
		return false, fmt.Errorf("insert macro event: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("insert macro event rowcount: %w", err)
	}
	return n > 0, nil
}

func (r *eventsRepo) ListUnscored(ctx context.Context, limit int) ([]models.MacroEvent, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	query := `
		SELECT ` + eventColumns + `
		FROM macro_events
		WHERE significance_score IS NULL
		ORDER BY published_at ASC NULLS LAST, created_at ASC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT $1`
		args = append(args, limit)
	}

	rows, err := r.db.QueryxContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list unscored events: %w", err)
	}
	defer rows.Close()
	return scanEvents(rows)
}

func (r *eventsRepo) UpdateScore(ctx context.Context, id uuid.UUID, total int, components map[string]int, priority bool) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	componentsJSON, err := json.Marshal(components)
	if err != nil {
		return fmt.Errorf("marshal score components: %w", err)
	}

	query := `
		UPDATE macro_events
		SET significance_score = $2, score_components = $3, priority_flag = $4
		WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, total, componentsJSON, priority); err != nil {
		return fmt.Errorf("update event score: %w", err)
	}
	return nil
}

func (r *eventsRepo) ListPriorityUnanalyzed(ctx context.Context, limit int) ([]models.MacroEvent, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	query := `
		SELECT ` + eventColumns + `
		FROM macro_events
		WHERE priority_flag = true
		  AND raw_facts IS NULL
		  AND metal_impacts IS NULL
		  AND historical_precedent IS NULL
		  AND counter_case IS NULL
		  AND crypto_transmission IS NULL
		ORDER BY published_at DESC NULLS LAST, created_at DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT $1`
		args = append(args, limit)
	}

	rows, err := r.db.QueryxContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list priority unanalyzed events: %w", err)
	}
	defer rows.Close()
	return scanEvents(rows)
}

func (r *eventsRepo) ListPriority(ctx context.Context, limit int) ([]models.MacroEvent, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	query := `
		SELECT ` + eventColumns + `
		FROM macro_events
		WHERE priority_flag = true
		ORDER BY published_at DESC NULLS LAST, created_at DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT $1`
		args = append(args, limit)
	}

	rows, err := r.db.QueryxContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list priority events: %w", err)
	}
	defer rows.Close()
	return scanEvents(rows)
}

func (r *eventsRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.MacroEvent, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	query := `SELECT ` + eventColumns + ` FROM macro_events WHERE id = $1`
	row := r.db.QueryRowxContext(ctx, query, id)
	event, err := scanEvent(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get event by id: %w", err)
	}
	return event, nil
}

func (r *eventsRepo) UpdateAnalysis(ctx context.Context, id uuid.UUID, analysis models.MacroEvent, overwrite bool) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	metalJSON, err := json.Marshal(analysis.MetalImpacts)
	if err != nil {
		return false, fmt.Errorf("marshal metal impacts: %w", err)
	}
	transmissionJSON, err := json.Marshal(analysis.CryptoTransmission)
	if err != nil {
		return false, fmt.Errorf("marshal crypto transmission: %w", err)
	}

	query := `
		UPDATE macro_events
		SET raw_facts = $2,
		    metal_impacts = $3,
		    historical_precedent = $4,
		    counter_case = $5,
		    crypto_transmission = $6
		WHERE id = $1`
	if !overwrite {
		query += `
		  AND raw_facts IS NULL
		  AND metal_impacts IS NULL
		  AND historical_precedent IS NULL
		  AND counter_case IS NULL
		  AND crypto_transmission IS NULL`
	}

	res, err := r.db.ExecContext(ctx, query, id,
		pq.Array(analysis.RawFacts), metalJSON,
		analysis.HistoricalPrecedent, analysis.CounterCase, transmissionJSON)
	if err != nil {
		return false, fmt.Errorf("update event analysis: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("update event analysis rowcount: %w", err)
	}
	return n > 0, nil
}

func (r *eventsRepo) ListPriorityInWindow(ctx context.Context, tr persistence.TimeRange, limit int) ([]models.MacroEvent, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	query := `
		SELECT ` + eventColumns + `
		FROM macro_events
		WHERE priority_flag = true
		  AND ((published_at >= $1 AND published_at < $2)
		    OR (published_at IS NULL AND created_at >= $1 AND created_at < $2))
		ORDER BY significance_score DESC NULLS LAST,
		         published_at DESC NULLS LAST,
		         created_at DESC,
		         id DESC
		LIMIT $3`

	rows, err := r.db.QueryxContext(ctx, query, tr.From, tr.To, limit)
	if err != nil {
		return nil, fmt.Errorf("list priority events in window: %w", err)
	}
	defer rows.Close()
	return scanEvents(rows)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEvent(row rowScanner) (*models.MacroEvent, error) {
	var (
		e                models.MacroEvent
		regions          pq.StringArray
		entities         pq.StringArray
		rawFacts         pq.StringArray
		componentsJSON   []byte
		metalJSON        []byte
		transmissionJSON []byte
	)
	err := row.Scan(
		&e.ID, &e.CreatedAt, &e.Source, &e.Headline, &e.FullText, &e.URL, &e.PublishedAt,
		&e.EventType, &regions, &entities, &e.SignificanceScore, &componentsJSON,
		&e.PriorityFlag, &rawFacts, &metalJSON, &e.HistoricalPrecedent,
		&e.CounterCase, &transmissionJSON, &e.Status, &e.ThesisID)
	if err != nil {
		return nil, err
	}
	e.Regions = regions
	e.Entities = entities
	e.RawFacts = rawFacts
	if len(componentsJSON) > 0 {
		if err := json.Unmarshal(componentsJSON, &e.ScoreComponents); err != nil {
			return nil, fmt.Errorf("decode score components: %w", err)
		}
	}
	if len(metalJSON) > 0 {
		if err := json.Unmarshal(metalJSON, &e.MetalImpacts); err != nil {
			return nil, fmt.Errorf("decode metal impacts: %w", err)
		}
	}
	if len(transmissionJSON) > 0 {
		if err := json.Unmarshal(transmissionJSON, &e.CryptoTransmission); err != nil {
			return nil, fmt.Errorf("decode crypto transmission: %w", err)
		}
	}
	return &e, nil
}

func scanEvents(rows *sqlx.Rows) ([]models.MacroEvent, error) {
	var events []models.MacroEvent
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, *e)
	}
	return events, rows.Err()
}
