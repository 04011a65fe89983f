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

type contextRepo struct {
	db      *sqlx.DB
	timeout time.Duration
}

// NewContextRepo creates the Postgres-backed market context repository.
func NewContextRepo(db *sqlx.DB, timeout time.Duration) persistence.ContextRepo {
	return &contextRepo{db: db, timeout: timeout}
}

func (r *contextRepo) Upsert(ctx context.Context, mc models.MarketContext) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	pricesJSON, err := json.Marshal(mc.RawPrices)
	if err != nil {
		return fmt.Errorf("marshal raw prices: %w", err)
	}
	fredJSON, err := json.Marshal(mc.RawFred)
	if err != nil {
		return fmt.Errorf("marshal raw fred: %w", err)
	}

	query := `
		INSERT INTO market_context (
			context_date, volatility_regime, dollar_regime, curve_regime, credit_regime,
			vix_level, dxy_level, us10y_level, us2y_level, gold_level, oil_level,
			spx_level, btc_level, spread_2s10s, hy_spread,
			gold_silver_ratio, copper_gold_ratio, vix_term_structure, spy_rsp_ratio,
			suggested_size_multiplier, raw_prices, raw_fred
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15,
		          $16, $17, $18, $19, $20, $21, $22)
		ON CONFLICT (context_date) DO UPDATE SET
			volatility_regime = EXCLUDED.volatility_regime,
			dollar_regime = EXCLUDED.dollar_regime,
			curve_regime = EXCLUDED.curve_regime,
			credit_regime = EXCLUDED.credit_regime,
			vix_level = EXCLUDED.vix_level,
			dxy_level = EXCLUDED.dxy_level,
			us10y_level = EXCLUDED.us10y_level,
			us2y_level = EXCLUDED.us2y_level,
			gold_level = EXCLUDED.gold_level,
			oil_level = EXCLUDED.oil_level,
			spx_level = EXCLUDED.spx_level,
			btc_level = EXCLUDED.btc_level,
			spread_2s10s = EXCLUDED.spread_2s10s,
			hy_spread = EXCLUDED.hy_spread,
			gold_silver_ratio = EXCLUDED.gold_silver_ratio,
			copper_gold_ratio = EXCLUDED.copper_gold_ratio,
			vix_term_structure = EXCLUDED.vix_term_structure,
			spy_rsp_ratio = EXCLUDED.spy_rsp_ratio,
			suggested_size_multiplier = EXCLUDED.suggested_size_multiplier,
			raw_prices = EXCLUDED.raw_prices,
			raw_fred = EXCLUDED.raw_fred`
	_, err = r.db.ExecContext(ctx, query,
		mc.ContextDate, mc.VolatilityRegime, mc.DollarRegime, mc.CurveRegime, mc.CreditRegime,
		mc.VIXLevel, mc.DXYLevel, mc.US10YLevel, mc.US2YLevel, mc.GoldLevel, mc.OilLevel,
		mc.SPXLevel, mc.BTCLevel, mc.Spread2s10s, mc.HYSpread,
		mc.GoldSilverRatio, mc.CopperGoldRatio, mc.VIXTermStructure, mc.SPYRSPRatio,
		mc.SuggestedSizeMultiplier, pricesJSON, fredJSON)
	if err != nil {
		return fmt.Errorf("upsert market context: %w", err)
	}
	return nil
}

func (r *contextRepo) Latest(ctx context.Context) (*models.MarketContext, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	query := `
		SELECT context_date, volatility_regime, dollar_regime, curve_regime, credit_regime,
		       vix_level, dxy_level, us10y_level, us2y_level, gold_level, oil_level,
		       spx_level, btc_level, spread_2s10s, hy_spread,
		       gold_silver_ratio, copper_gold_ratio, vix_term_structure, spy_rsp_ratio,
		       suggested_size_multiplier, raw_prices, raw_fred
		FROM market_context
		ORDER BY context_date DESC
		LIMIT 1`

	var (
		mc         models.MarketContext
		pricesJSON []byte
		fredJSON   []byte
	)
	err := r.db.QueryRowxContext(ctx, query).Scan(
		&mc.ContextDate, &mc.VolatilityRegime, &mc.DollarRegime, &mc.CurveRegime, &mc.CreditRegime,
		&mc.VIXLevel, &mc.DXYLevel, &mc.US10YLevel, &mc.US2YLevel, &mc.GoldLevel, &mc.OilLevel,
		&mc.SPXLevel, &mc.BTCLevel, &mc.Spread2s10s, &mc.HYSpread,
		&mc.GoldSilverRatio, &mc.CopperGoldRatio, &mc.VIXTermStructure, &mc.SPYRSPRatio,
		&mc.SuggestedSizeMultiplier, &pricesJSON, &fredJSON)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("latest market context: %w", err)
	}
	if len(pricesJSON) > 0 {
		if err := json.Unmarshal(pricesJSON, &mc.RawPrices); err != nil {
			return nil, fmt.Errorf("decode raw prices: %w", err)
		}
	}
	if len(fredJSON) > 0 {
		if err := json.Unmarshal(fredJSON, &mc.RawFred); err != nil {
			return nil, fmt.Errorf("decode raw fred: %w", err)
		}
	}
	return &mc, nil
}
