package regime

import (
	"time"

	"github.com/meridianhq/meridian/internal/models"
)

// Yahoo symbols the market-context snapshot reads.
const (
	SymbolVIX    = "^VIX"
	SymbolDXY    = "DX=F"
	SymbolUS10Y  = "^TNX"
	SymbolGold   = "GC=F"
	SymbolSilver = "SI=F"
	SymbolCopper = "HG=F"
	SymbolOil    = "CL=F"
	SymbolSPX    = "^GSPC"
	SymbolBTC    = "BTC-USD"
)

// FRED series the snapshot reads.
const (
	SeriesUS2Y        = "DGS2"
	SeriesSpread2s10s = "T10Y2Y"
	SeriesHYSpread    = "BAMLH0A0HYM2"
)

// WatchlistSymbols is every Yahoo symbol the snapshot fetches: the level
// symbols plus all ratio components.
var WatchlistSymbols = []string{
	SymbolVIX, SymbolDXY, SymbolUS10Y, SymbolGold, SymbolSilver,
	SymbolCopper, SymbolOil, SymbolSPX, SymbolBTC,
	"VX=F", "^VIX3M", "SPY", "RSP", "HYG", "LQD",
}

// FredSeries is every FRED series the snapshot fetches.
var FredSeries = []string{SeriesUS2Y, SeriesSpread2s10s, SeriesHYSpread}

// RatioDef is one cross-market ratio computed from the snapshot.
type RatioDef struct {
	Name        string
	Numerator   string
	Denominator string
}

// RatioDefs in computation order.
var RatioDefs = []RatioDef{
	{"gold_silver", SymbolGold, SymbolSilver},
	{"copper_gold", SymbolCopper, SymbolGold},
	{"vix_term_structure", SymbolVIX, "VX=F"},
	{"vix_vix3m", SymbolVIX, "^VIX3M"},
	{"spy_rsp", "SPY", "RSP"},
	{"hyg_lqd", "HYG", "LQD"},
}

// ComputeRatios derives every ratio whose components are present. A
// missing or zero denominator skips the ratio rather than erroring.
func ComputeRatios(prices map[string]float64) map[string]float64 {
	ratios := make(map[string]float64)
	for _, def := range RatioDefs {
		num, okNum := prices[def.Numerator]
		den, okDen := prices[def.Denominator]
		if !okNum || !okDen || den == 0 {
			continue
		}
		ratios[def.Name] = num / den
	}
	return ratios
}

// BuildContext classifies a market snapshot into the persisted daily
// context row. Missing series classify as unknown and never fail the
// build.
func BuildContext(snapshot models.MarketSnapshot) models.MarketContext {
	contextDate := snapshot.SnapshotDate
	if contextDate.IsZero() {
		contextDate = time.Now().UTC()
	}
	contextDate = contextDate.UTC().Truncate(24 * time.Hour)

	vix := priceAt(snapshot.YahooPrices, SymbolVIX)
	dxy := priceAt(snapshot.YahooPrices, SymbolDXY)
	spread := priceAt(snapshot.FredValues, SeriesSpread2s10s)
	hySpread := priceAt(snapshot.FredValues, SeriesHYSpread)

	volRegime := ClassifyVolatility(vix)
	creditRegime := ClassifyCredit(hySpread)

	mc := models.MarketContext{
		ContextDate:             contextDate,
		VolatilityRegime:        volRegime,
		DollarRegime:            ClassifyDollar(dxy),
		CurveRegime:             ClassifyCurve(spread),
		CreditRegime:            creditRegime,
		VIXLevel:                vix,
		DXYLevel:                dxy,
		US10YLevel:              priceAt(snapshot.YahooPrices, SymbolUS10Y),
		US2YLevel:               priceAt(snapshot.FredValues, SeriesUS2Y),
		GoldLevel:               priceAt(snapshot.YahooPrices, SymbolGold),
		OilLevel:                priceAt(snapshot.YahooPrices, SymbolOil),
		SPXLevel:                priceAt(snapshot.YahooPrices, SymbolSPX),
		BTCLevel:                priceAt(snapshot.YahooPrices, SymbolBTC),
		Spread2s10s:             spread,
		HYSpread:                hySpread,
		GoldSilverRatio:         priceAt(snapshot.CalculatedRatios, "gold_silver"),
		CopperGoldRatio:         priceAt(snapshot.CalculatedRatios, "copper_gold"),
		VIXTermStructure:        priceAt(snapshot.CalculatedRatios, "vix_term_structure"),
		SPYRSPRatio:             priceAt(snapshot.CalculatedRatios, "spy_rsp"),
		SuggestedSizeMultiplier: SizeMultiplier(volRegime, creditRegime),
	}

	if len(snapshot.YahooPrices) > 0 {
		mc.RawPrices = toAnyMap(snapshot.YahooPrices)
	}
	if len(snapshot.FredValues) > 0 {
		mc.RawFred = toAnyMap(snapshot.FredValues)
	}
	return mc
}

func priceAt(values map[string]float64, key string) *float64 {
	v, ok := values[key]
	if !ok {
		return nil
	}
	return &v
}

func toAnyMap(values map[string]float64) map[string]any {
	out := make(map[string]any, len(values))
	for k, v := range values {
		out[k] = v
	}
	return out
}
