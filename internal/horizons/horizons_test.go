package horizons

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meridianhq/meridian/internal/conviction"
	"github.com/meridianhq/meridian/internal/models"
)

func pct(v float64) *float64 { return &v }

func TestInstrumentCataloguesCoverEveryChannel(t *testing.T) {
	require.Len(t, shortTermInstruments, 24)
	for channelType, short := range shortTermInstruments {
		assert.NotEmpty(t, short, channelType)
		assert.NotEmpty(t, mediumTermInstruments[channelType], channelType)
		assert.NotEmpty(t, longTermInstruments[channelType], channelType)
	}
}

func TestInstrumentsForDedupesAcrossChannels(t *testing.T) {
	// CL=F, BZ=F, USO, XLE appear in both oil channels.
	got := InstrumentsFor(ShortTerm, []string{"oil_supply_disruption", "oil_demand_shock"}, 8)
	assert.Equal(t, []string{"CL=F", "BZ=F", "USO", "XLE"}, got)
}

func TestInstrumentsForStopsAtCap(t *testing.T) {
	got := InstrumentsFor(MediumTerm, []string{"oil_supply_disruption", "metals_supply"}, 8)
	assert.Len(t, got, 8)
	assert.Equal(t, "XLE", got[0])
	assert.Equal(t, "COPX", got[7])
}

func TestInstrumentsForFallsBackToDefaults(t *testing.T) {
	got := InstrumentsFor(ShortTerm, nil, 8)
	assert.Equal(t, []string{"SPY", "QQQ", "TLT", "GLD", "^VIX"}, got)

	got = InstrumentsFor(LongTerm, []string{"not_a_channel"}, 3)
	assert.Equal(t, []string{"SPY", "QQQ", "VTI"}, got)
}

func TestDirectionDefaultsWithoutBehavior(t *testing.T) {
	assert.Equal(t, Short, directionFor(ShortTerm, nil, []string{"risk_off_flight"}))
	assert.Equal(t, Short, directionFor(ShortTerm, nil, []string{"oil_supply_disruption", "fed_hawkish"}))
	assert.Equal(t, Long, directionFor(ShortTerm, nil, []string{"oil_supply_disruption"}))
}

func TestDirectionFromBehavior(t *testing.T) {
	behavior := map[string]models.HorizonBehavior{
		"short_term_1_5d":   {OilDirection: "up", GoldDirection: "down"},
		"medium_term_2_8w":  {GoldDirection: "up"},
		"long_term_6m_plus": {},
	}

	// Commodity channel consults oil first.
	assert.Equal(t, Long, directionFor(ShortTerm, behavior, []string{"oil_supply_disruption"}))
	// Non-commodity channel uses gold.
	assert.Equal(t, Short, directionFor(ShortTerm, behavior, []string{"risk_off_flight"}))
	assert.Equal(t, Long, directionFor(MediumTerm, behavior, []string{"risk_off_flight"}))
	// No directional signal at all.
	assert.Equal(t, Neutral, directionFor(LongTerm, behavior, []string{"risk_off_flight"}))
}

func TestMagnitudePrefersBehavior(t *testing.T) {
	behavior := map[string]models.HorizonBehavior{
		"short_term_1_5d": {OilMagnitudePct: pct(12), GoldMagnitudePct: pct(-3)},
	}
	got := magnitudeFor(ShortTerm, behavior, map[string]float64{"peak_price_impact_pct": 40})
	assert.Equal(t, "Oil +12%, Gold -3%", got)
}

func TestMagnitudeFallsBackToQuantThenDefault(t *testing.T) {
	got := magnitudeFor(MediumTerm, nil, map[string]float64{"peak_price_impact_pct": 40})
	assert.Equal(t, "Primary asset +40%", got)

	got = magnitudeFor(MediumTerm, nil, map[string]float64{"price_impact_pct": 25})
	assert.Equal(t, "Primary asset +25%", got)

	assert.Equal(t, "5-15% in primary instruments", magnitudeFor(ShortTerm, nil, nil))
	assert.Equal(t, "15-40% in primary instruments", magnitudeFor(MediumTerm, nil, nil))
	assert.Equal(t, "Variable; thesis-dependent", magnitudeFor(LongTerm, nil, nil))
}

func TestBuildRationale(t *testing.T) {
	behavior := map[string]models.HorizonBehavior{
		"short_term_1_5d": {PrimaryDriver: "supply fear premium", Volatility: "extreme"},
	}
	got := buildRationale(ShortTerm, []string{"oil_supply_disruption", "risk_off_flight", "vix_spike"}, behavior)
	assert.Equal(t,
		"Immediate event reaction expected. Primary driver: supply fear premium. "+
			"Expected volatility: extreme. Channels: Oil Supply Disruption, Risk Off Flight.",
		got)
}

func TestBuildRationaleSkipsNormalVolatility(t *testing.T) {
	behavior := map[string]models.HorizonBehavior{
		"medium_term_2_8w": {Volatility: "normal"},
	}
	got := buildRationale(MediumTerm, nil, behavior)
	assert.Equal(t, "Event impact typically compounds over this period.", got)
}

func TestAnalyzeFullPipeline(t *testing.T) {
	a := Analyze(Input{
		EventHeadline: "Strait of Hormuz transit halted after strikes",
		ChannelTypes:  []string{"oil_supply_disruption", "risk_off_flight"},
		HistoricalCases: []models.HistoricalCase{
			{EventName: "no behavior case"},
			{
				EventName: "2019 Abqaiq attack",
				TimeHorizonBehavior: map[string]models.HorizonBehavior{
					"short_term_1_5d":   {OilDirection: "up", OilMagnitudePct: pct(15)},
					"medium_term_2_8w":  {OilDirection: "down", OilMagnitudePct: pct(-5)},
					"long_term_6m_plus": {GoldDirection: "up"},
				},
			},
		},
		QuantitativeImpacts: map[string]float64{"production_drop_pct": 50},
		ConvictionLevel:     conviction.LevelHigh,
	})

	require.NotNil(t, a.ShortTerm)
	require.NotNil(t, a.MediumTerm)
	require.NotNil(t, a.LongTerm)
	assert.Empty(t, a.Warnings)

	assert.Equal(t, Long, a.ShortTerm.Direction)
	assert.Equal(t, "Oil +15%", a.ShortTerm.ExpectedMagnitude)
	assert.Equal(t, "Enter immediately on confirmation", a.ShortTerm.EntryApproach)
	assert.Equal(t, "Tight stop-loss at -3-5%", a.ShortTerm.RiskManagement)
	assert.Equal(t, conviction.LevelHigh, a.ShortTerm.Conviction)
	assert.Contains(t, a.ShortTerm.Instruments, "CL=F")

	assert.Equal(t, Short, a.MediumTerm.Direction)
	assert.Equal(t, "Oil -5%", a.MediumTerm.ExpectedMagnitude)
	assert.Equal(t, "Scale in over 3-5 sessions", a.MediumTerm.EntryApproach)

	assert.Equal(t, Long, a.LongTerm.Direction)
	assert.Equal(t, "Variable; thesis-dependent", a.LongTerm.ExpectedMagnitude)
	assert.Equal(t, "Wide stops at -15-20% or thesis invalidation", a.LongTerm.RiskManagement)
}

func TestAnalyzeWarnings(t *testing.T) {
	a := Analyze(Input{
		EventHeadline:   "quiet tape",
		ConvictionLevel: conviction.LevelLow,
	})
	assert.Contains(t, a.Warnings, "No historical case data available")
	assert.Contains(t, a.Warnings, "No quantitative impact data available")
	assert.Contains(t, a.Warnings, "Low conviction (low); reduce position sizes")
}

func TestAnalyzeDefaultsConvictionToMedium(t *testing.T) {
	a := Analyze(Input{EventHeadline: "headline"})
	require.NotNil(t, a.ShortTerm)
	assert.Equal(t, conviction.LevelMedium, a.ShortTerm.Conviction)
}

func TestToMapShape(t *testing.T) {
	a := Analyze(Input{
		EventHeadline: "headline",
		ChannelTypes:  []string{"fed_dovish"},
	})
	m := a.ShortTerm.ToMap()
	assert.Equal(t, "short_term", m["horizon"])
	assert.Equal(t, "Short-Term (1-5 days)", m["horizon_label"])
	assert.Equal(t, []string{"TLT", "GLD", "QQQ", "IEF"}, m["instruments"])
}

func TestFormatForPrompt(t *testing.T) {
	a := Analyze(Input{
		EventHeadline: "headline",
		ChannelTypes:  []string{"vix_spike"},
	})
	text := FormatForPrompt(a)
	assert.Contains(t, text, "=== TIME HORIZON ANALYSIS ===")
	assert.Contains(t, text, "SHORT-TERM (1-5 DAYS):")
	assert.Contains(t, text, "Direction: SHORT")
	assert.Contains(t, text, "Instruments: ^VIX, VIXY, UVXY, SPY")
}
