package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pgvector/pgvector-go"

	"github.com/meridianhq/meridian/internal/models"
	"github.com/meridianhq/meridian/internal/persistence"
)

const caseColumns = `
	id, event_name, date_range, event_type, significance_score,
	structural_drivers, metal_impacts, traditional_market_reaction,
	crypto_reaction, crypto_transmission, time_delays, lessons,
	counter_examples, quantitative_impacts, time_horizon_behavior,
	transmission_channels`

type casesRepo struct {
	db      *sqlx.DB
	timeout time.Duration
}

// NewCasesRepo creates the Postgres-backed historical cases repository.
func NewCasesRepo(db *sqlx.DB, timeout time.Duration) persistence.CasesRepo {
	return &casesRepo{db: db, timeout: timeout}
}

func (r *casesRepo) Upsert(ctx context.Context, c models.HistoricalCase) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	metalJSON, err := json.Marshal(c.MetalImpacts)
	if err != nil {
		return fmt.Errorf("marshal metal impacts: %w", err)
	}
	transmissionJSON, err := json.Marshal(c.CryptoTransmission)
	if err != nil {
		return fmt.Errorf("marshal crypto transmission: %w", err)
	}
	var quantJSON, horizonJSON any
	if c.QuantitativeImpacts != nil {
		b, err := json.Marshal(c.QuantitativeImpacts)
		if err != nil {
			return fmt.Errorf("marshal quantitative impacts: %w", err)
		}
		quantJSON = b
	}
	if c.TimeHorizonBehavior != nil {
		b, err := json.Marshal(c.TimeHorizonBehavior)
		if err != nil {
			return fmt.Errorf("marshal time horizon behavior: %w", err)
		}
		horizonJSON = b
	}
	var embedding any
	if len(c.Embedding) > 0 {
		embedding = pgvector.NewVector(c.Embedding)
	}

	query := `
		INSERT INTO historical_cases (
			event_name, date_range, event_type, significance_score,
			structural_drivers, metal_impacts, traditional_market_reaction,
			crypto_reaction, crypto_transmission, time_delays, lessons,
			counter_examples, embedding, quantitative_impacts,
			time_horizon_behavior, transmission_channels
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		ON CONFLICT (event_name, date_range) DO UPDATE SET
			event_type = EXCLUDED.event_type,
			significance_score = EXCLUDED.significance_score,
			structural_drivers = EXCLUDED.structural_drivers,
			metal_impacts = EXCLUDED.metal_impacts,
			traditional_market_reaction = EXCLUDED.traditional_market_reaction,
			crypto_reaction = EXCLUDED.crypto_reaction,
			crypto_transmission = EXCLUDED.crypto_transmission,
			time_delays = EXCLUDED.time_delays,
			lessons = EXCLUDED.lessons,
			counter_examples = EXCLUDED.counter_examples,
			embedding = COALESCE(EXCLUDED.embedding, historical_cases.embedding),
			quantitative_impacts = COALESCE(EXCLUDED.quantitative_impacts, historical_cases.quantitative_impacts),
			time_horizon_behavior = COALESCE(EXCLUDED.time_horizon_behavior, historical_cases.time_horizon_behavior),
			transmission_channels = COALESCE(EXCLUDED.transmission_channels, historical_cases.transmission_channels)`

	_, err = r.db.ExecContext(ctx, query,
		c.EventName, c.DateRange, c.EventType, c.SignificanceScore,
		pq.Array(c.StructuralDrivers), metalJSON, pq.Array(c.TraditionalMarketReaction),
		pq.Array(c.CryptoReaction), transmissionJSON, pq.Array(c.TimeDelays),
		pq.Array(c.Lessons), pq.Array(c.CounterExamples), embedding,
		quantJSON, horizonJSON, pq.Array(c.TransmissionChannels))
	if err != nil {
		return fmt.Errorf("upsert historical case: %w", err)
	}
	return nil
}

func (r *casesRepo) All(ctx context.Context) ([]models.HistoricalCase, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	query := `SELECT ` + caseColumns + ` FROM historical_cases ORDER BY event_name, date_range`
	rows, err := r.db.QueryxContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list historical cases: %w", err)
	}
	defer rows.Close()
	return scanCases(rows)
}

func (r *casesRepo) SimilarByEmbedding(ctx context.Context, embedding []float32, limit int) ([]models.HistoricalMatch, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	query := `
		SELECT event_name, date_range, event_type, significance_score,
		       embedding <-> $1::vector AS distance
		FROM historical_cases
		WHERE embedding IS NOT NULL
		ORDER BY embedding <-> $1::vector
		LIMIT $2`

	rows, err := r.db.QueryxContext(ctx, query, pgvector.NewVector(embedding), limit)
	if err != nil {
		return nil, fmt.Errorf("similarity search: %w", err)
	}
	defer rows.Close()

	var matches []models.HistoricalMatch
	for rows.Next() {
		var (
			m        models.HistoricalMatch
			distance float64
		)
		if err := rows.Scan(&m.EventName, &m.DateRange, &m.EventType, &m.SignificanceScore, &distance); err != nil {
			return nil, fmt.Errorf("scan similarity row: %w", err)
		}
		m.MatchMethod = "embedding"
		m.Distance = &distance
		matches = append(matches, m)
	}
	return matches, rows.Err()
}

func (r *casesRepo) TopByEventType(ctx context.Context, eventType string, limit int) ([]models.HistoricalCase, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	query := `
		SELECT ` + caseColumns + `
		FROM historical_cases`
	args := []any{}
	if eventType != "" {
		query += ` WHERE event_type = $1`
		args = append(args, eventType)
	}
	query += fmt.Sprintf(`
		ORDER BY significance_score DESC NULLS LAST, event_name
		LIMIT $%d`, len(args)+1)
	args = append(args, limit)

	rows, err := r.db.QueryxContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list top historical cases: %w", err)
	}
	defer rows.Close()
	return scanCases(rows)
}

func (r *casesRepo) UpdateEmbedding(ctx context.Context, eventName, dateRange string, embedding []float32) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	query := `UPDATE historical_cases SET embedding = $3 WHERE event_name = $1 AND date_range = $2`
	res, err := r.db.ExecContext(ctx, query, eventName, dateRange, pgvector.NewVector(embedding))
	if err != nil {
		return false, fmt.Errorf("update case embedding: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("update case embedding rowcount: %w", err)
	}
	return n > 0, nil
}

func scanCases(rows *sqlx.Rows) ([]models.HistoricalCase, error) {
	var cases []models.HistoricalCase
	for rows.Next() {
		var (
			c           models.HistoricalCase
			drivers     pq.StringArray
			traditional pq.StringArray
			crypto      pq.StringArray
			delays      pq.StringArray
			lessons     pq.StringArray
			counters    pq.StringArray
			channels    pq.StringArray
			metalJSON   []byte
			transJSON   []byte
			quantJSON   []byte
			horizonJSON []byte
		)
		err := rows.Scan(
			&c.ID, &c.EventName, &c.DateRange, &c.EventType, &c.SignificanceScore,
			&drivers, &metalJSON, &traditional, &crypto, &transJSON,
			&delays, &lessons, &counters, &quantJSON, &horizonJSON, &channels)
		if err != nil {
			return nil, fmt.Errorf("scan historical case: %w", err)
		}
		c.StructuralDrivers = drivers
		c.TraditionalMarketReaction = traditional
		c.CryptoReaction = crypto
		c.TimeDelays = delays
		c.Lessons = lessons
		c.CounterExamples = counters
		c.TransmissionChannels = channels
		if len(metalJSON) > 0 {
			if err := json.Unmarshal(metalJSON, &c.MetalImpacts); err != nil {
				return nil, fmt.Errorf("decode metal impacts: %w", err)
			}
		}
		if len(transJSON) > 0 {
			if err := json.Unmarshal(transJSON, &c.CryptoTransmission); err != nil {
				return nil, fmt.Errorf("decode crypto transmission: %w", err)
			}
		}
		if len(quantJSON) > 0 {
			if err := json.Unmarshal(quantJSON, &c.QuantitativeImpacts); err != nil {
				return nil, fmt.Errorf("decode quantitative impacts: %w", err)
			}
		}
		if len(horizonJSON) > 0 {
			if err := json.Unmarshal(horizonJSON, &c.TimeHorizonBehavior); err != nil {
				return nil, fmt.Errorf("decode time horizon behavior: %w", err)
			}
		}
		cases = append(cases, c)
	}
	return cases, rows.Err()
}
