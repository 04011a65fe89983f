package regime

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meridianhq/meridian/internal/models"
)

func f(v float64) *float64 { return &v }

func TestClassifyVolatilityBoundaries(t *testing.T) {
	cases := []struct {
		vix  float64
		want string
	}{
		{45, VolCrisis}, {40, VolCrisis},
		{39.99, VolFear}, {30, VolFear},
		{29.99, VolElevated}, {20, VolElevated},
		{19.99, VolNormal}, {15, VolNormal},
		{14.99, VolCalm}, {9, VolCalm},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, ClassifyVolatility(f(tc.vix)), "VIX %.2f", tc.vix)
	}
	assert.Equal(t, Unknown, ClassifyVolatility(nil))
}

func TestClassifyDollar(t *testing.T) {
	assert.Equal(t, DollarStrong, ClassifyDollar(f(105)))
	assert.Equal(t, DollarNeutral, ClassifyDollar(f(104.99)))
	assert.Equal(t, DollarNeutral, ClassifyDollar(f(95.01)))
	assert.Equal(t, DollarWeak, ClassifyDollar(f(95)))
	assert.Equal(t, Unknown, ClassifyDollar(nil))
}

func TestClassifyCurveBoundaries(t *testing.T) {
	assert.Equal(t, CurveSteep, ClassifyCurve(f(1.0)))
	assert.Equal(t, CurveNormal, ClassifyCurve(f(0.25)))
	assert.Equal(t, CurveFlat, ClassifyCurve(f(0.0)))
	assert.Equal(t, CurveInverted, ClassifyCurve(f(-0.01)))
	assert.Equal(t, Unknown, ClassifyCurve(nil))
}

func TestClassifyCreditBoundaries(t *testing.T) {
	assert.Equal(t, CreditCrisis, ClassifyCredit(f(800)))
	assert.Equal(t, CreditStressed, ClassifyCredit(f(500)))
	assert.Equal(t, CreditWide, ClassifyCredit(f(400)))
	assert.Equal(t, CreditNormal, ClassifyCredit(f(300)))
	assert.Equal(t, CreditTight, ClassifyCredit(f(299.99)))
	assert.Equal(t, Unknown, ClassifyCredit(nil))
}

func TestSizeMultiplierTakesMinimum(t *testing.T) {
	assert.Equal(t, 0.50, SizeMultiplier(VolFear, CreditWide))
	assert.Equal(t, 0.25, SizeMultiplier(VolCrisis, CreditTight))
	assert.Equal(t, 0.25, SizeMultiplier(VolCalm, CreditCrisis))
	assert.Equal(t, 1.0, SizeMultiplier(VolNormal, CreditNormal))
	assert.Equal(t, 1.0, SizeMultiplier(Unknown, Unknown))
}

func TestComputeRatios(t *testing.T) {
	ratios := ComputeRatios(map[string]float64{
		"GC=F": 2000, "SI=F": 25, "HG=F": 4,
		"^VIX": 20, "VX=F": 22,
		"SPY": 500, "RSP": 160,
	})
	assert.InDelta(t, 80, ratios["gold_silver"], 1e-9)
	assert.InDelta(t, 0.002, ratios["copper_gold"], 1e-9)
	assert.InDelta(t, 20.0/22.0, ratios["vix_term_structure"], 1e-9)
	assert.InDelta(t, 3.125, ratios["spy_rsp"], 1e-9)
	// ^VIX3M and HYG/LQD components absent: ratios skipped.
	assert.NotContains(t, ratios, "vix_vix3m")
	assert.NotContains(t, ratios, "hyg_lqd")
}

func TestComputeRatiosSkipsZeroDenominator(t *testing.T) {
	ratios := ComputeRatios(map[string]float64{"GC=F": 2000, "SI=F": 0})
	assert.NotContains(t, ratios, "gold_silver")
}

func TestBuildContext(t *testing.T) {
	snapshot := models.MarketSnapshot{
		SnapshotDate: time.Date(2026, 3, 4, 15, 30, 0, 0, time.UTC),
		YahooPrices: map[string]float64{
			"^VIX": 22.5, "DX=F": 102.0, "^TNX": 4.30, "GC=F": 2150.0,
			"CL=F": 78.4, "^GSPC": 5300.0, "BTC-USD": 67000.0, "SI=F": 25.0,
		},
		FredValues: map[string]float64{
			"DGS2": 4.60, "T10Y2Y": 0.5, "BAMLH0A0HYM2": 350,
		},
		CalculatedRatios: map[string]float64{"gold_silver": 86.0},
	}

	mc := BuildContext(snapshot)

	assert.Equal(t, time.Date(2026, 3, 4, 0, 0, 0, 0, time.UTC), mc.ContextDate)
	assert.Equal(t, VolElevated, mc.VolatilityRegime)
	assert.Equal(t, DollarNeutral, mc.DollarRegime)
	assert.Equal(t, CurveNormal, mc.CurveRegime)
	assert.Equal(t, CreditNormal, mc.CreditRegime)
	assert.Equal(t, 0.75, mc.SuggestedSizeMultiplier)

	require.NotNil(t, mc.VIXLevel)
	assert.Equal(t, 22.5, *mc.VIXLevel)
	require.NotNil(t, mc.Spread2s10s)
	assert.Equal(t, 0.5, *mc.Spread2s10s)
	require.NotNil(t, mc.GoldSilverRatio)
	assert.Equal(t, 86.0, *mc.GoldSilverRatio)
	assert.Nil(t, mc.CopperGoldRatio)

	assert.Equal(t, 22.5, mc.RawPrices["^VIX"])
	assert.Equal(t, 350.0, mc.RawFred["BAMLH0A0HYM2"])
}

func TestBuildContextEmptySnapshot(t *testing.T) {
	mc := BuildContext(models.MarketSnapshot{})

	assert.Equal(t, Unknown, mc.VolatilityRegime)
	assert.Equal(t, Unknown, mc.DollarRegime)
	assert.Equal(t, Unknown, mc.CurveRegime)
	assert.Equal(t, Unknown, mc.CreditRegime)
	assert.Equal(t, 1.0, mc.SuggestedSizeMultiplier)
	assert.Nil(t, mc.VIXLevel)
	assert.Nil(t, mc.RawPrices)
	assert.False(t, mc.ContextDate.IsZero())
}

func TestWatchlistCoversRatioComponents(t *testing.T) {
	symbols := make(map[string]bool, len(WatchlistSymbols))
	for _, s := range WatchlistSymbols {
		symbols[s] = true
	}
	for _, def := range RatioDefs {
		assert.True(t, symbols[def.Numerator], def.Name)
		assert.True(t, symbols[def.Denominator], def.Name)
	}
}
