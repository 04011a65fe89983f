// Package horizons turns a matched event into horizon-aware trade
// recommendations: short (1-5 days), medium (2-8 weeks), and long
// (6+ months). Each horizon carries its own instrument universe, entry
// approach, and risk framing.
package horizons

import (
	"fmt"
	"strings"

	"github.com/meridianhq/meridian/internal/conviction"
	"github.com/meridianhq/meridian/internal/models"
)

// Horizon identifies a recommendation timeframe.
type Horizon string

const (
	ShortTerm  Horizon = "short_term"
	MediumTerm Horizon = "medium_term"
	LongTerm   Horizon = "long_term"
)

// Direction of the recommended trade.
type Direction string

const (
	Long    Direction = "long"
	Short   Direction = "short"
	Neutral Direction = "neutral"
)

// MaxInstruments caps the universe attached to one recommendation.
const MaxInstruments = 8

// Labels shown in rendered output.
var labels = map[Horizon]string{
	ShortTerm:  "Short-Term (1-5 days)",
	MediumTerm: "Medium-Term (2-8 weeks)",
	LongTerm:   "Long-Term (6+ months)",
}

// Label returns the display label for a horizon.
func (h Horizon) Label() string { return labels[h] }

// behaviorKey maps a horizon to its key in historical behavior records.
var behaviorKeys = map[Horizon]string{
	ShortTerm:  "short_term_1_5d",
	MediumTerm: "medium_term_2_8w",
	LongTerm:   "long_term_6m_plus",
}

var allHorizons = []Horizon{ShortTerm, MediumTerm, LongTerm}

// shortTermInstruments favours futures and high-volume ETFs.
var shortTermInstruments = map[string][]string{
	"oil_supply_disruption": {"CL=F", "BZ=F", "USO", "XLE"},
	"oil_demand_shock":      {"CL=F", "BZ=F", "USO", "XLE"},
	"natural_gas_supply":    {"NG=F", "UNG", "BOIL"},
	"metals_supply":         {"GC=F", "SI=F", "HG=F", "GLD", "SLV"},
	"agricultural_supply":   {"ZW=F", "ZC=F", "ZS=F", "DBA"},
	"dollar_strength":       {"DX=F", "UUP", "EURUSD=X", "GLD"},
	"dollar_weakness":       {"DX=F", "UDN", "GLD", "EEM"},
	"em_currency_stress":    {"EEM", "EMB", "UUP"},
	"carry_trade_unwind":    {"USDJPY=X", "FXY", "^VIX", "VIXY"},
	"yuan_devaluation":      {"CNH=X", "FXI", "EEM"},
	"fed_hawkish":           {"TLT", "IEF", "SHY", "^TNX"},
	"fed_dovish":            {"TLT", "GLD", "QQQ", "IEF"},
	"yield_curve_inversion": {"TLT", "SHY", "XLF", "KRE"},
	"credit_tightening":     {"HYG", "JNK", "LQD", "^VIX"},
	"liquidity_crisis":      {"^VIX", "VIXY", "TLT", "GLD", "BIL"},
	"risk_off_flight":       {"TLT", "GLD", "^VIX", "VIXY", "FXY"},
	"risk_on_rally":         {"SPY", "QQQ", "IWM", "HYG"},
	"vix_spike":             {"^VIX", "VIXY", "UVXY", "SPY"},
	"trade_sanctions":       {"SPY", "EEM", "SMH", "XLE"},
	"capital_controls":      {"EEM", "BTC-USD", "GLD"},
	"export_restrictions":   {"SMH", "INTC", "AMD", "NVDA"},
	"inflation_spike":       {"TIP", "GLD", "XLE", "DJP"},
	"deflation_risk":        {"TLT", "EDV", "XLU"},
	"wage_pressure":         {"XLY", "XRT", "XLP"},
}

// mediumTermInstruments favours sector ETFs and single names.
var mediumTermInstruments = map[string][]string{
	"oil_supply_disruption": {"XLE", "OXY", "CVX", "XOM", "DVN", "PXD", "SLB"},
	"oil_demand_shock":      {"XLE", "VDE", "PSX", "VLO", "MPC", "DAL", "UAL"},
	"natural_gas_supply":    {"LNG", "GLNG", "EQT", "RRC", "AR", "SWN"},
	"metals_supply":         {"COPX", "CPER", "FCX", "SCCO", "TECK", "NEM", "GOLD"},
	"agricultural_supply":   {"DBA", "ADM", "BG", "CTVA", "MOS", "NTR", "CF"},
	"dollar_strength":       {"UUP", "EEM", "VWO", "GLD", "SLV", "FXE"},
	"dollar_weakness":       {"UDN", "GLD", "SLV", "EEM", "VWO", "COPX"},
	"em_currency_stress":    {"EEM", "VWO", "EMB", "EMLC", "EWZ", "EWW"},
	"carry_trade_unwind":    {"EWJ", "FXY", "SPY", "QQQ", "HYG"},
	"yuan_devaluation":      {"FXI", "KWEB", "MCHI", "ASHR", "CQQQ"},
	"fed_hawkish":           {"TLT", "XLF", "KRE", "ARKK"},
	"fed_dovish":            {"TLT", "ARKK", "XLK", "SMH", "QQQ"},
	"yield_curve_inversion": {"XLF", "KRE", "XLU", "XLP"},
	"credit_tightening":     {"HYG", "JNK", "XLF", "KRE", "IWM"},
	"liquidity_crisis":      {"TLT", "GLD", "XLU", "XLP", "BIL"},
	"risk_off_flight":       {"TLT", "GLD", "XLU", "XLP", "NEM", "GOLD"},
	"risk_on_rally":         {"SPY", "QQQ", "IWM", "ARKK", "SMH", "HYG"},
	"vix_spike":             {"SPY", "QQQ", "IWM", "HYG", "XLF"},
	"trade_sanctions":       {"LMT", "RTX", "NOC", "GD", "SMH"},
	"capital_controls":      {"BTC-USD", "ETH-USD", "GLD", "NEM"},
	"export_restrictions":   {"SMH", "INTC", "AMD", "NVDA", "ASML", "MU"},
	"inflation_spike":       {"TIP", "XLE", "XLB", "PDBC", "NEM", "GOLD"},
	"deflation_risk":        {"TLT", "EDV", "XLU", "VNQ"},
	"wage_pressure":         {"XLI", "XLF", "XLP", "PG", "KO"},
}

// longTermInstruments favours equity accumulation in producers/miners.
var longTermInstruments = map[string][]string{
	"oil_supply_disruption": {"XOM", "CVX", "OXY", "DVN", "PXD", "EOG", "COP"},
	"oil_demand_shock":      {"XOM", "CVX", "PSX", "VLO", "MPC"},
	"natural_gas_supply":    {"LNG", "EQT", "RRC", "AR", "SWN", "TELL"},
	"metals_supply":         {"FCX", "SCCO", "TECK", "AA", "NEM", "GOLD", "WPM", "FNV"},
	"agricultural_supply":   {"ADM", "BG", "CTVA", "MOS", "NTR", "CF", "DE"},
	"dollar_strength":       {"EEM", "VWO", "GLD"},
	"dollar_weakness":       {"NEM", "GOLD", "WPM", "FNV", "FCX", "EEM"},
	"em_currency_stress":    {"VWO", "EEM"},
	"carry_trade_unwind":    {"EWJ", "VWO"},
	"yuan_devaluation":      {"KWEB", "BABA", "JD", "PDD"},
	"fed_hawkish":           {"XLF", "JPM", "BAC", "WFC", "GS"},
	"fed_dovish":            {"MSFT", "GOOGL", "AMZN", "NVDA", "META"},
	"yield_curve_inversion": {"XLU", "NEE", "DUK", "SO", "D"},
	"credit_tightening":     {"XLU", "XLP", "JNJ", "PG", "KO"},
	"liquidity_crisis":      {"NEM", "GOLD", "WPM", "FNV", "RGLD"},
	"risk_off_flight":       {"NEM", "GOLD", "WPM", "FNV", "XLU", "XLP"},
	"risk_on_rally":         {"SPY", "QQQ", "MSFT", "GOOGL", "AMZN", "NVDA"},
	"vix_spike":             {"MSFT", "GOOGL", "JNJ", "PG"},
	"trade_sanctions":       {"LMT", "RTX", "NOC", "GD", "BA"},
	"capital_controls":      {"NEM", "GOLD", "WPM"},
	"export_restrictions":   {"INTC", "AMD", "NVDA", "ASML", "AMAT", "LRCX"},
	"inflation_spike":       {"NEM", "GOLD", "WPM", "FCX", "XOM", "CVX"},
	"deflation_risk":        {"NEE", "DUK", "SO", "XLU"},
	"wage_pressure":         {"MSFT", "GOOGL", "META"},
}

var instrumentMaps = map[Horizon]map[string][]string{
	ShortTerm:  shortTermInstruments,
	MediumTerm: mediumTermInstruments,
	LongTerm:   longTermInstruments,
}

var defaultInstruments = map[Horizon][]string{
	ShortTerm:  {"SPY", "QQQ", "TLT", "GLD", "^VIX"},
	MediumTerm: {"SPY", "QQQ", "TLT", "GLD", "XLE", "XLF"},
	LongTerm:   {"SPY", "QQQ", "VTI", "MSFT", "GOOGL", "NEM"},
}

var entryApproaches = map[Horizon]string{
	ShortTerm:  "Enter immediately on confirmation",
	MediumTerm: "Scale in over 3-5 sessions",
	LongTerm:   "Accumulate on weakness over weeks",
}

var riskManagement = map[Horizon]string{
	ShortTerm:  "Tight stop-loss at -3-5%",
	MediumTerm: "Stop-loss at -8-12% or key support break",
	LongTerm:   "Wide stops at -15-20% or thesis invalidation",
}

var defaultMagnitudes = map[Horizon]string{
	ShortTerm:  "5-15% in primary instruments",
	MediumTerm: "15-40% in primary instruments",
	LongTerm:   "Variable; thesis-dependent",
}

// bearishChannels default SHORT when no historical behavior is on file.
var bearishChannels = map[string]bool{
	"risk_off_flight":   true,
	"credit_tightening": true,
	"liquidity_crisis":  true,
	"vix_spike":         true,
	"dollar_strength":   true,
	"fed_hawkish":       true,
}

// commodityChannels steer direction by oil behavior first.
var commodityChannels = map[string]bool{
	"oil_supply_disruption": true,
	"oil_demand_shock":      true,
	"natural_gas_supply":    true,
}

// Recommendation is one horizon's trade framing.
type Recommendation struct {
	Horizon           Horizon          `json:"horizon"`
	Instruments       []string         `json:"instruments"`
	Direction         Direction        `json:"direction"`
	Rationale         string           `json:"rationale"`
	Conviction        conviction.Level `json:"conviction"`
	EntryApproach     string           `json:"entry_approach"`
	RiskManagement    string           `json:"risk_management"`
	ExpectedMagnitude string           `json:"expected_magnitude"`
}

// ToMap serialises a recommendation for JSON persistence.
func (r Recommendation) ToMap() map[string]any {
	return map[string]any{
		"horizon":            string(r.Horizon),
		"horizon_label":      r.Horizon.Label(),
		"instruments":        r.Instruments,
		"direction":          string(r.Direction),
		"rationale":          r.Rationale,
		"conviction":         string(r.Conviction),
		"entry_approach":     r.EntryApproach,
		"risk_management":    r.RiskManagement,
		"expected_magnitude": r.ExpectedMagnitude,
	}
}

// Analysis covers all three horizons for one event.
type Analysis struct {
	ShortTerm    *Recommendation
	MediumTerm   *Recommendation
	LongTerm     *Recommendation
	EventSummary string
	Warnings     []string
}

// All returns the populated recommendations in horizon order.
func (a Analysis) All() []Recommendation {
	var out []Recommendation
	for _, r := range []*Recommendation{a.ShortTerm, a.MediumTerm, a.LongTerm} {
		if r != nil {
			out = append(out, *r)
		}
	}
	return out
}

// Input bundles the evidence for a horizon analysis.
type Input struct {
	EventHeadline       string
	ChannelTypes        []string
	HistoricalCases     []models.HistoricalCase
	QuantitativeImpacts map[string]float64
	ConvictionLevel     conviction.Level
}

// Analyze builds recommendations for every horizon. The first historical
// case carrying time-horizon behavior drives direction and magnitude.
func Analyze(in Input) Analysis {
	analysis := Analysis{EventSummary: in.EventHeadline}

	var behavior map[string]models.HorizonBehavior
	for _, c := range in.HistoricalCases {
		if len(c.TimeHorizonBehavior) > 0 {
			behavior = c.TimeHorizonBehavior
			break
		}
	}

	level := in.ConvictionLevel
	if level == "" {
		level = conviction.LevelMedium
	}

	for _, horizon := range allHorizons {
		instruments := InstrumentsFor(horizon, in.ChannelTypes, MaxInstruments)
		if len(instruments) == 0 {
			continue
		}
		rec := Recommendation{
			Horizon:           horizon,
			Instruments:       instruments,
			Direction:         directionFor(horizon, behavior, in.ChannelTypes),
			Rationale:         buildRationale(horizon, in.ChannelTypes, behavior),
			Conviction:        level,
			EntryApproach:     entryApproaches[horizon],
			RiskManagement:    riskManagement[horizon],
			ExpectedMagnitude: magnitudeFor(horizon, behavior, in.QuantitativeImpacts),
		}
		switch horizon {
		case ShortTerm:
			analysis.ShortTerm = &rec
		case MediumTerm:
			analysis.MediumTerm = &rec
		default:
			analysis.LongTerm = &rec
		}
	}

	if len(in.HistoricalCases) == 0 {
		analysis.Warnings = append(analysis.Warnings, "No historical case data available")
	}
	if len(in.QuantitativeImpacts) == 0 {
		analysis.Warnings = append(analysis.Warnings, "No quantitative impact data available")
	}
	if level == conviction.LevelLow || level == conviction.LevelInsufficient {
		analysis.Warnings = append(analysis.Warnings,
			fmt.Sprintf("Low conviction (%s); reduce position sizes", level))
	}
	return analysis
}

// InstrumentsFor selects the instrument universe for a horizon from its
// matched channels, falling back to the horizon defaults.
func InstrumentsFor(horizon Horizon, channelTypes []string, max int) []string {
	if max <= 0 {
		max = MaxInstruments
	}
	mapping := instrumentMaps[horizon]

	var instruments []string
	seen := make(map[string]bool)
	for _, ct := range channelTypes {
		for _, instrument := range mapping[ct] {
			if seen[instrument] {
				continue
			}
			seen[instrument] = true
			instruments = append(instruments, instrument)
			if len(instruments) >= max {
				return instruments
			}
		}
	}
	if len(instruments) == 0 {
		defaults := defaultInstruments[horizon]
		if len(defaults) > max {
			defaults = defaults[:max]
		}
		return append([]string(nil), defaults...)
	}
	return instruments
}

func directionFor(horizon Horizon, behavior map[string]models.HorizonBehavior, channelTypes []string) Direction {
	if len(behavior) == 0 {
		for _, ct := range channelTypes {
			if bearishChannels[ct] {
				return Short
			}
		}
		return Long
	}

	b := behavior[behaviorKeys[horizon]]
	oilDirection := strings.ToLower(b.OilDirection)
	goldDirection := strings.ToLower(b.GoldDirection)

	for _, ct := range channelTypes {
		if commodityChannels[ct] {
			switch oilDirection {
			case "up":
				return Long
			case "down":
				return Short
			}
			break
		}
	}
	switch goldDirection {
	case "up":
		return Long
	case "down":
		return Short
	}
	return Neutral
}

func magnitudeFor(horizon Horizon, behavior map[string]models.HorizonBehavior, impacts map[string]float64) string {
	if len(behavior) > 0 {
		b := behavior[behaviorKeys[horizon]]
		var parts []string
		if b.OilMagnitudePct != nil && *b.OilMagnitudePct != 0 {
			parts = append(parts, fmt.Sprintf("Oil %+.0f%%", *b.OilMagnitudePct))
		}
		if b.GoldMagnitudePct != nil && *b.GoldMagnitudePct != 0 {
			parts = append(parts, fmt.Sprintf("Gold %+.0f%%", *b.GoldMagnitudePct))
		}
		if len(parts) > 0 {
			return strings.Join(parts, ", ")
		}
	}

	if len(impacts) > 0 {
		priceImpact, ok := impacts["peak_price_impact_pct"]
		if !ok {
			priceImpact = impacts["price_impact_pct"]
		}
		if priceImpact != 0 {
			return fmt.Sprintf("Primary asset %+.0f%%", priceImpact)
		}
	}
	return defaultMagnitudes[horizon]
}

func buildRationale(horizon Horizon, channelTypes []string, behavior map[string]models.HorizonBehavior) string {
	var parts []string
	switch horizon {
	case ShortTerm:
		parts = append(parts, "Immediate event reaction expected.")
	case MediumTerm:
		parts = append(parts, "Event impact typically compounds over this period.")
	default:
		parts = append(parts, "Structural positioning for longer-term thesis.")
	}

	if len(behavior) > 0 {
		b := behavior[behaviorKeys[horizon]]
		if b.PrimaryDriver != "" {
			parts = append(parts, fmt.Sprintf("Primary driver: %s.", b.PrimaryDriver))
		}
		if b.Volatility != "" && b.Volatility != "normal" {
			parts = append(parts, fmt.Sprintf("Expected volatility: %s.", b.Volatility))
		}
	}

	if len(channelTypes) > 0 {
		listed := channelTypes
		if len(listed) > 2 {
			listed = listed[:2]
		}
		names := make([]string, len(listed))
		for i, ct := range listed {
			names[i] = titleCase(strings.ReplaceAll(ct, "_", " "))
		}
		parts = append(parts, fmt.Sprintf("Channels: %s.", strings.Join(names, ", ")))
	}
	return strings.Join(parts, " ")
}

// FormatForPrompt renders the analysis as plain text for prompt
// injection.
func FormatForPrompt(a Analysis) string {
	var b strings.Builder
	b.WriteString("=== TIME HORIZON ANALYSIS ===\n")
	for _, rec := range a.All() {
		fmt.Fprintf(&b, "\n%s:\n", strings.ToUpper(rec.Horizon.Label()))
		fmt.Fprintf(&b, "  Direction: %s\n", strings.ToUpper(string(rec.Direction)))
		fmt.Fprintf(&b, "  Instruments: %s\n", strings.Join(rec.Instruments, ", "))
		fmt.Fprintf(&b, "  Expected magnitude: %s\n", rec.ExpectedMagnitude)
		fmt.Fprintf(&b, "  Entry: %s\n", rec.EntryApproach)
		fmt.Fprintf(&b, "  Risk: %s\n", rec.RiskManagement)
		fmt.Fprintf(&b, "  Rationale: %s\n", rec.Rationale)
	}
	if len(a.Warnings) > 0 {
		b.WriteString("\nWARNINGS:\n")
		for _, w := range a.Warnings {
			fmt.Fprintf(&b, "  ! %s\n", w)
		}
	}
	b.WriteString("\n=============================")
	return b.String()
}

func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
