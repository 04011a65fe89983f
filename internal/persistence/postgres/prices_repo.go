package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/meridianhq/meridian/internal/models"
	"github.com/meridianhq/meridian/internal/persistence"
)

type pricesRepo struct {
	db      *sqlx.DB
	timeout time.Duration
}

// NewPricesRepo creates the Postgres-backed daily prices repository.
func NewPricesRepo(db *sqlx.DB, timeout time.Duration) persistence.PricesRepo {
	return &pricesRepo{db: db, timeout: timeout}
}

func (r *pricesRepo) UpsertBar(ctx context.Context, bar models.PriceBar) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	source := bar.Source
	if source == "" {
		source = "yahoo"
	}

	query := `
		INSERT INTO daily_prices (symbol, price_date, open, high, low, close, adj_close, volume, source)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (symbol, price_date) DO UPDATE SET
			open = EXCLUDED.open,
			high = EXCLUDED.high,
			low = EXCLUDED.low,
			close = EXCLUDED.close,
			adj_close = EXCLUDED.adj_close,
			volume = EXCLUDED.volume,
			source = EXCLUDED.source`
	_, err := r.db.ExecContext(ctx, query,
		bar.Symbol, bar.PriceDate, bar.Open, bar.High, bar.Low,
		bar.Close, bar.AdjClose, bar.Volume, source)
	if err != nil {
		return fmt.Errorf("upsert price bar: %w", err)
	}
	return nil
}

func (r *pricesRepo) UpsertRatio(ctx context.Context, ratio models.PriceRatio) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	query := `
		INSERT INTO price_ratios (ratio_name, price_date, value, base_symbol, quote_symbol)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (ratio_name, price_date) DO UPDATE SET
			value = EXCLUDED.value,
			base_symbol = EXCLUDED.base_symbol,
			quote_symbol = EXCLUDED.quote_symbol`
	_, err := r.db.ExecContext(ctx, query,
		ratio.RatioName, ratio.PriceDate, ratio.Value, ratio.BaseSymbol, ratio.QuoteSymbol)
	if err != nil {
		return fmt.Errorf("upsert price ratio: %w", err)
	}
	return nil
}

func (r *pricesRepo) LatestCloses(ctx context.Context, symbol string, asOf time.Time, n int) ([]models.PriceBar, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	query := `
		SELECT symbol, price_date, open, high, low, close, adj_close, volume, source
		FROM daily_prices
		WHERE symbol = $1 AND price_date <= $2 AND close IS NOT NULL
		ORDER BY price_date DESC
		LIMIT $3`
	rows, err := r.db.QueryxContext(ctx, query, symbol, asOf, n)
	if err != nil {
		return nil, fmt.Errorf("latest closes: %w", err)
	}
	defer rows.Close()

	var bars []models.PriceBar
	for rows.Next() {
		var b models.PriceBar
		err := rows.Scan(&b.Symbol, &b.PriceDate, &b.Open, &b.High, &b.Low,
			&b.Close, &b.AdjClose, &b.Volume, &b.Source)
		if err != nil {
			return nil, fmt.Errorf("scan price bar: %w", err)
		}
		bars = append(bars, b)
	}
	return bars, rows.Err()
}

func (r *pricesRepo) LatestRatios(ctx context.Context, ratioName string, asOf time.Time, n int) ([]models.PriceRatio, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	query := `
		SELECT ratio_name, price_date, value, base_symbol, quote_symbol
		FROM price_ratios
		WHERE ratio_name = $1 AND price_date <= $2
		ORDER BY price_date DESC
		LIMIT $3`
	rows, err := r.db.QueryxContext(ctx, query, ratioName, asOf, n)
	if err != nil {
		return nil, fmt.Errorf("latest ratios: %w", err)
	}
	defer rows.Close()

	var ratios []models.PriceRatio
	for rows.Next() {
		var pr models.PriceRatio
		err := rows.Scan(&pr.RatioName, &pr.PriceDate, &pr.Value, &pr.BaseSymbol, &pr.QuoteSymbol)
		if err != nil {
			return nil, fmt.Errorf("scan price ratio: %w", err)
		}
		ratios = append(ratios, pr)
	}
	return ratios, rows.Err()
}

func (r *pricesRepo) ClosesBySymbol(ctx context.Context, symbol string, tr persistence.TimeRange) (map[string]float64, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	query := `
		SELECT price_date, close
		FROM daily_prices
		WHERE symbol = $1 AND price_date >= $2 AND price_date <= $3 AND close IS NOT NULL
		ORDER BY price_date`
	rows, err := r.db.QueryxContext(ctx, query, symbol, tr.From, tr.To)
	if err != nil {
		return nil, fmt.Errorf("closes by symbol: %w", err)
	}
	defer rows.Close()

	closes := make(map[string]float64)
	for rows.Next() {
		var (
			date  time.Time
			close float64
		)
		if err := rows.Scan(&date, &close); err != nil {
			return nil, fmt.Errorf("scan close: %w", err)
		}
		closes[date.Format("2006-01-02")] = close
	}
	return closes, rows.Err()
}
