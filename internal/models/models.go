// Package models holds the shared domain records persisted by the
// pipeline. Field tags follow the column names in the migrations.
package models

import (
	"time"

	"github.com/google/uuid"
)

// MacroEvent is an ingested news/bulletin item. (source, headline,
// published_at) is the natural key.
type MacroEvent struct {
	ID          uuid.UUID  `json:"id" db:"id"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
	Source      string     `json:"source" db:"source"`
	Headline    string     `json:"headline" db:"headline"`
	FullText    *string    `json:"full_text,omitempty" db:"full_text"`
	URL         *string    `json:"url,omitempty" db:"url"`
	PublishedAt *time.Time `json:"published_at,omitempty" db:"published_at"`
	EventType   *string    `json:"event_type,omitempty" db:"event_type"`
	Regions     []string   `json:"regions,omitempty" db:"regions"`
	Entities    []string   `json:"entities,omitempty" db:"entities"`

	SignificanceScore *int           `json:"significance_score,omitempty" db:"significance_score"`
	ScoreComponents   map[string]int `json:"score_components,omitempty" db:"score_components"`
	PriorityFlag      bool           `json:"priority_flag" db:"priority_flag"`
	Status            string         `json:"status" db:"status"`

	RawFacts            []string       `json:"raw_facts,omitempty" db:"raw_facts"`
	MetalImpacts        map[string]any `json:"metal_impacts,omitempty" db:"metal_impacts"`
	HistoricalPrecedent *string        `json:"historical_precedent,omitempty" db:"historical_precedent"`
	CounterCase         *string        `json:"counter_case,omitempty" db:"counter_case"`
	CryptoTransmission  map[string]any `json:"crypto_transmission,omitempty" db:"crypto_transmission"`
	ThesisID            *uuid.UUID     `json:"thesis_id,omitempty" db:"thesis_id"`
}

// Analyzed reports whether any structured interpretation has been attached.
func (e *MacroEvent) Analyzed() bool {
	return len(e.RawFacts) > 0 || len(e.MetalImpacts) > 0 ||
		e.HistoricalPrecedent != nil || e.CounterCase != nil || len(e.CryptoTransmission) > 0
}

// HistoricalCase is a curated reference event used for precedent matching.
// (event_name, date_range) is the natural key.
type HistoricalCase struct {
	ID                uuid.UUID `json:"id" db:"id"`
	EventName         string    `json:"event_name" db:"event_name"`
	DateRange         string    `json:"date_range" db:"date_range"`
	EventType         *string   `json:"event_type,omitempty" db:"event_type"`
	SignificanceScore *int      `json:"significance_score,omitempty" db:"significance_score"`

	StructuralDrivers         []string       `json:"structural_drivers,omitempty" db:"structural_drivers"`
	MetalImpacts              map[string]any `json:"metal_impacts,omitempty" db:"metal_impacts"`
	TraditionalMarketReaction []string       `json:"traditional_market_reaction,omitempty" db:"traditional_market_reaction"`
	CryptoReaction            []string       `json:"crypto_reaction,omitempty" db:"crypto_reaction"`
	CryptoTransmission        map[string]any `json:"crypto_transmission,omitempty" db:"crypto_transmission"`
	TimeDelays                []string       `json:"time_delays,omitempty" db:"time_delays"`
	Lessons                   []string       `json:"lessons,omitempty" db:"lessons"`
	CounterExamples           []string       `json:"counter_examples,omitempty" db:"counter_examples"`

	QuantitativeImpacts  map[string]any             `json:"quantitative_impacts,omitempty" db:"quantitative_impacts"`
	TimeHorizonBehavior  map[string]HorizonBehavior `json:"time_horizon_behavior,omitempty" db:"time_horizon_behavior"`
	TransmissionChannels []string                   `json:"transmission_channels,omitempty" db:"transmission_channels"`
	Embedding            []float32                  `json:"embedding,omitempty" db:"embedding"`
}

// HorizonBehavior describes how one horizon played out in a historical case.
type HorizonBehavior struct {
	PrimaryDriver    string   `json:"primary_driver,omitempty"`
	Volatility       string   `json:"volatility,omitempty"`
	OilDirection     string   `json:"oil_direction,omitempty"`
	OilMagnitudePct  *float64 `json:"oil_magnitude_pct,omitempty"`
	GoldDirection    string   `json:"gold_direction,omitempty"`
	GoldMagnitudePct *float64 `json:"gold_magnitude_pct,omitempty"`
}

// HistoricalMatch is a ranked matcher result.
type HistoricalMatch struct {
	EventName         string   `json:"event_name"`
	DateRange         string   `json:"date_range"`
	EventType         *string  `json:"event_type,omitempty"`
	SignificanceScore *int     `json:"significance_score,omitempty"`
	MatchMethod       string   `json:"match_method"`
	Distance          *float64 `json:"distance,omitempty"`
	MatchScore        *int     `json:"match_score,omitempty"`
}

// PriceBar is one daily OHLCV row. (symbol, price_date) is the natural key.
// FRED-sourced bars carry only close/adj_close.
type PriceBar struct {
	Symbol    string    `json:"symbol" db:"symbol"`
	PriceDate time.Time `json:"price_date" db:"price_date"`
	Open      *float64  `json:"open,omitempty" db:"open"`
	High      *float64  `json:"high,omitempty" db:"high"`
	Low       *float64  `json:"low,omitempty" db:"low"`
	Close     *float64  `json:"close,omitempty" db:"close"`
	AdjClose  *float64  `json:"adj_close,omitempty" db:"adj_close"`
	Volume    *int64    `json:"volume,omitempty" db:"volume"`
	Source    string    `json:"source" db:"source"`
}

// PriceRatio is a derived series value. (ratio_name, price_date) is the
// natural key.
type PriceRatio struct {
	RatioName   string    `json:"ratio_name" db:"ratio_name"`
	PriceDate   time.Time `json:"price_date" db:"price_date"`
	Value       float64   `json:"value" db:"value"`
	BaseSymbol  string    `json:"base_symbol" db:"base_symbol"`
	QuoteSymbol string    `json:"quote_symbol" db:"quote_symbol"`
}

// EconomicEvent is a calendar entry. (event_name, event_date, region) is
// the natural key.
type EconomicEvent struct {
	ID                uuid.UUID `json:"id" db:"id"`
	EventName         string    `json:"event_name" db:"event_name"`
	EventDate         time.Time `json:"event_date" db:"event_date"`
	Region            *string   `json:"region,omitempty" db:"region"`
	ImpactLevel       *string   `json:"impact_level,omitempty" db:"impact_level"`
	ExpectedValue     *string   `json:"expected_value,omitempty" db:"expected_value"`
	ActualValue       *string   `json:"actual_value,omitempty" db:"actual_value"`
	PreviousValue     *string   `json:"previous_value,omitempty" db:"previous_value"`
	SurpriseDirection *string   `json:"surprise_direction,omitempty" db:"surprise_direction"`
	SurpriseMagnitude *float64  `json:"surprise_magnitude,omitempty" db:"surprise_magnitude"`
}

// CentralBankComm is a dated statement. ChangeVsPrevious is a unified diff
// against the prior comm of the same (bank, comm_type): empty string when
// identical, nil when first.
type CentralBankComm struct {
	ID               uuid.UUID  `json:"id" db:"id"`
	Bank             string     `json:"bank" db:"bank"`
	CommType         string     `json:"comm_type" db:"comm_type"`
	PublishedAt      *time.Time `json:"published_at,omitempty" db:"published_at"`
	FullText         *string    `json:"full_text,omitempty" db:"full_text"`
	ChangeVsPrevious *string    `json:"change_vs_previous,omitempty" db:"change_vs_previous"`
}

// MarketContext is one classified-regime row per date.
type MarketContext struct {
	ContextDate time.Time `json:"context_date" db:"context_date"`

	VolatilityRegime string `json:"volatility_regime" db:"volatility_regime"`
	DollarRegime     string `json:"dollar_regime" db:"dollar_regime"`
	CurveRegime      string `json:"curve_regime" db:"curve_regime"`
	CreditRegime     string `json:"credit_regime" db:"credit_regime"`

	VIXLevel    *float64 `json:"vix_level,omitempty" db:"vix_level"`
	DXYLevel    *float64 `json:"dxy_level,omitempty" db:"dxy_level"`
	US10YLevel  *float64 `json:"us10y_level,omitempty" db:"us10y_level"`
	US2YLevel   *float64 `json:"us2y_level,omitempty" db:"us2y_level"`
	GoldLevel   *float64 `json:"gold_level,omitempty" db:"gold_level"`
	OilLevel    *float64 `json:"oil_level,omitempty" db:"oil_level"`
	SPXLevel    *float64 `json:"spx_level,omitempty" db:"spx_level"`
	BTCLevel    *float64 `json:"btc_level,omitempty" db:"btc_level"`
	Spread2s10s *float64 `json:"spread_2s10s,omitempty" db:"spread_2s10s"`
	HYSpread    *float64 `json:"hy_spread,omitempty" db:"hy_spread"`

	GoldSilverRatio  *float64 `json:"gold_silver_ratio,omitempty" db:"gold_silver_ratio"`
	CopperGoldRatio  *float64 `json:"copper_gold_ratio,omitempty" db:"copper_gold_ratio"`
	VIXTermStructure *float64 `json:"vix_term_structure,omitempty" db:"vix_term_structure"`
	SPYRSPRatio      *float64 `json:"spy_rsp_ratio,omitempty" db:"spy_rsp_ratio"`

	SuggestedSizeMultiplier float64 `json:"suggested_size_multiplier" db:"suggested_size_multiplier"`

	RawPrices map[string]any `json:"raw_prices,omitempty" db:"raw_prices"`
	RawFred   map[string]any `json:"raw_fred,omitempty" db:"raw_fred"`
}

// DailyDigest is the cached per-date briefing. Unique by digest_date.
type DailyDigest struct {
	ID               uuid.UUID        `json:"id" db:"id"`
	DigestDate       time.Time        `json:"digest_date" db:"digest_date"`
	CreatedAt        time.Time        `json:"created_at" db:"created_at"`
	PriorityEvents   []map[string]any `json:"priority_events" db:"priority_events"`
	MetalsSnapshot   []map[string]any `json:"metals_snapshot" db:"metals_snapshot"`
	EconomicCalendar []map[string]any `json:"economic_calendar" db:"economic_calendar"`
	ActiveTheses     []map[string]any `json:"active_theses" db:"active_theses"`
	FullDigest       string           `json:"full_digest" db:"full_digest"`
}

// Thesis is the user workspace object; the core reads a slim view of it
// for digest composition.
type Thesis struct {
	ID                 uuid.UUID  `json:"id" db:"id"`
	Title              string     `json:"title" db:"title"`
	Status             *string    `json:"status,omitempty" db:"status"`
	AssetSymbol        *string    `json:"asset_symbol,omitempty" db:"asset_symbol"`
	PriceChangePercent *float64   `json:"price_change_percent,omitempty" db:"price_change_percent"`
	UpdatedAt          *time.Time `json:"updated_at,omitempty" db:"updated_at"`
	CreatedAt          time.Time  `json:"created_at" db:"created_at"`
}

// MetalsKnowledge is one (metal, category) knowledge-base entry.
type MetalsKnowledge struct {
	ID        uuid.UUID `json:"id" db:"id"`
	Metal     string    `json:"metal" db:"metal"`
	Category  string    `json:"category" db:"category"`
	Content   any       `json:"content" db:"content"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// MarketSnapshot is the in-memory batch of latest market reads that feeds
// the regime classifier. Errors collects per-symbol failures without
// aborting the batch.
type MarketSnapshot struct {
	SnapshotDate     time.Time          `json:"snapshot_date"`
	YahooPrices      map[string]float64 `json:"yahoo_prices"`
	FredValues       map[string]float64 `json:"fred_values"`
	CalculatedRatios map[string]float64 `json:"calculated_ratios"`
	RawYahooBars     map[string]any     `json:"raw_yahoo_bars,omitempty"`
	Errors           []string           `json:"errors,omitempty"`
}
