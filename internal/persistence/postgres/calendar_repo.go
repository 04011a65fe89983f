package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/meridianhq/meridian/internal/models"
	"github.com/meridianhq/meridian/internal/persistence"
)

type calendarRepo struct {
	db      *sqlx.DB
	timeout time.Duration
}

// NewCalendarRepo creates the Postgres-backed economic calendar repository.
func NewCalendarRepo(db *sqlx.DB, timeout time.Duration) persistence.CalendarRepo {
	return &calendarRepo{db: db, timeout: timeout}
}

func (r *calendarRepo) Upsert(ctx context.Context, event models.EconomicEvent) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	query := `
		INSERT INTO economic_events (
			event_name, event_date, region, impact_level,
			expected_value, actual_value, previous_value,
			surprise_direction, surprise_magnitude
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (event_name, event_date, region) DO UPDATE SET
			impact_level = EXCLUDED.impact_level,
			expected_value = COALESCE(EXCLUDED.expected_value, economic_events.expected_value),
			actual_value = COALESCE(EXCLUDED.actual_value, economic_events.actual_value),
			previous_value = COALESCE(EXCLUDED.previous_value, economic_events.previous_value),
			surprise_direction = COALESCE(EXCLUDED.surprise_direction, economic_events.surprise_direction),
			surprise_magnitude = COALESCE(EXCLUDED.surprise_magnitude, economic_events.surprise_magnitude)`
	_, err := r.db.ExecContext(ctx, query,
		event.EventName, event.EventDate, event.Region, event.ImpactLevel,
		event.ExpectedValue, event.ActualValue, event.PreviousValue,
		event.SurpriseDirection, event.SurpriseMagnitude)
	if err != nil {
		return fmt.Errorf("upsert economic event: %w", err)
	}
	return nil
}

func (r *calendarRepo) HighImpactInWindow(ctx context.Context, tr persistence.TimeRange) ([]models.EconomicEvent, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	query := `
		SELECT id, event_name, event_date, region, impact_level,
		       expected_value, actual_value, previous_value,
		       surprise_direction, surprise_magnitude
		FROM economic_events
		WHERE impact_level = 'high' AND event_date >= $1 AND event_date < $2
		ORDER BY event_date ASC, event_name ASC`
	rows, err := r.db.QueryxContext(ctx, query, tr.From, tr.To)
	if err != nil {
		return nil, fmt.Errorf("list high impact events: %w", err)
	}
	defer rows.Close()

	var events []models.EconomicEvent
	for rows.Next() {
		var e models.EconomicEvent
		err := rows.Scan(&e.ID, &e.EventName, &e.EventDate, &e.Region, &e.ImpactLevel,
			&e.ExpectedValue, &e.ActualValue, &e.PreviousValue,
			&e.SurpriseDirection, &e.SurpriseMagnitude)
		if err != nil {
			return nil, fmt.Errorf("scan economic event: %w", err)
		}
		events = append(events, e)
	}
	return events, rows.Err()
}
