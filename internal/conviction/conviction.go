// Package conviction grades trading theses on five weighted components:
// historical precedent (0-25), quantitative magnitude (0-25), channel
// clarity (0-20), timing/catalyst (0-15), and a counter-case discount
// (0 to -15). The clamped 0-100 total maps to a conviction level.
package conviction

import (
	"fmt"
	"math"
	"strings"
)

// Level classifies a total score.
type Level string

const (
	LevelHigh         Level = "high"
	LevelMedium       Level = "medium"
	LevelLow          Level = "low"
	LevelInsufficient Level = "insufficient"
)

// Level thresholds on the clamped total.
const (
	HighThreshold   = 70
	MediumThreshold = 50
	LowThreshold    = 30
)

// Component max scores.
const (
	maxHistorical  = 25
	maxQuant       = 25
	maxChannels    = 20
	maxTiming      = 15
	maxCounterCase = 15
)

// CaseSummary is the slice of a matched historical case conviction needs.
type CaseSummary struct {
	EventName         string
	SignificanceScore *int
}

// Component is one scored dimension. Weight -1 marks a discount.
type Component struct {
	Name      string  `json:"name"`
	RawScore  float64 `json:"-"`
	MaxScore  float64 `json:"max"`
	Weight    float64 `json:"-"`
	Rationale string  `json:"rationale"`
}

// WeightedScore is the component's signed contribution to the total.
func (c Component) WeightedScore() float64 {
	return math.Min(c.RawScore*c.Weight, c.MaxScore)
}

// Percentage is the share of the component's ceiling achieved.
func (c Component) Percentage() float64 {
	if c.MaxScore == 0 {
		return 0
	}
	return c.RawScore / c.MaxScore * 100
}

// Result is a graded thesis.
type Result struct {
	TotalScore float64
	Level      Level
	Components []Component
	Warnings   []string
}

// ToMap serialises the result for JSON persistence.
func (r Result) ToMap() map[string]any {
	components := make([]map[string]any, len(r.Components))
	for i, c := range r.Components {
		components[i] = map[string]any{
			"name":       c.Name,
			"score":      math.Round(c.WeightedScore()*10) / 10,
			"max":        c.MaxScore,
			"percentage": math.Round(c.Percentage()),
			"rationale":  c.Rationale,
		}
	}
	return map[string]any{
		"total_score": math.Round(r.TotalScore*10) / 10,
		"level":       string(r.Level),
		"components":  components,
		"warnings":    r.Warnings,
	}
}

// Input bundles the evidence behind a thesis.
type Input struct {
	HistoricalCases     []CaseSummary
	QuantitativeImpacts map[string]float64
	MatchedChannels     []string
	CatalystClarity     string // high, medium, low, none
	CounterCaseStrength string // strong, moderate, weak, none
}

// Calculate grades a thesis.
func Calculate(in Input) Result {
	var warnings []string

	historical := scoreHistorical(in.HistoricalCases)
	if historical.RawScore < 10 {
		warnings = append(warnings, "Limited historical precedent data")
	}
	quant := scoreQuantitative(in.QuantitativeImpacts)
	if quant.RawScore < 10 {
		warnings = append(warnings, "Limited quantitative impact data")
	}

	components := []Component{
		historical,
		quant,
		scoreChannels(in.MatchedChannels),
		scoreTiming(in.CatalystClarity),
		scoreCounterCase(in.CounterCaseStrength),
	}

	total := 0.0
	for _, c := range components {
		total += c.WeightedScore()
	}
	total = math.Max(0, math.Min(100, total))

	return Result{
		TotalScore: total,
		Level:      classify(total),
		Components: components,
		Warnings:   warnings,
	}
}

func scoreHistorical(cases []CaseSummary) Component {
	if len(cases) == 0 {
		return Component{
			Name: "Historical Precedent", MaxScore: maxHistorical, Weight: 1,
			Rationale: "No historical cases matched",
		}
	}

	var base float64
	switch len(cases) {
	case 1:
		base = 10
	case 2:
		base = 15
	default:
		base = 20
	}

	var sum, count float64
	for _, c := range cases {
		if c.SignificanceScore != nil && *c.SignificanceScore != 0 {
			sum += float64(*c.SignificanceScore)
			count++
		}
	}
	var avg float64
	if count > 0 {
		avg = sum / count
	}
	if avg > 80 {
		base += 5
	}

	return Component{
		Name:      "Historical Precedent",
		RawScore:  math.Min(base, maxHistorical),
		MaxScore:  maxHistorical,
		Weight:    1,
		Rationale: fmt.Sprintf("%d case(s) matched, avg significance %.0f", len(cases), avg),
	}
}

func scoreQuantitative(impacts map[string]float64) Component {
	if len(impacts) == 0 {
		return Component{
			Name: "Quantitative Magnitude", MaxScore: maxQuant, Weight: 1,
			Rationale: "No quantitative impact data available",
		}
	}

	var score float64
	var parts []string

	prodDrop := impacts["production_drop_pct"]
	switch {
	case prodDrop >= 90:
		score += 10
		parts = append(parts, fmt.Sprintf("production drop %g%% (severe)", prodDrop))
	case prodDrop >= 50:
		score += 7
		parts = append(parts, fmt.Sprintf("production drop %g%% (major)", prodDrop))
	case prodDrop >= 20:
		score += 4
		parts = append(parts, fmt.Sprintf("production drop %g%% (moderate)", prodDrop))
	case prodDrop > 0:
		score += 2
		parts = append(parts, fmt.Sprintf("production drop %g%% (minor)", prodDrop))
	}

	priceImpact, ok := impacts["price_impact_pct"]
	if !ok {
		priceImpact = impacts["peak_price_impact_pct"]
	}
	switch {
	case priceImpact >= 100:
		score += 10
		parts = append(parts, fmt.Sprintf("price impact %g%% (extreme)", priceImpact))
	case priceImpact >= 50:
		score += 7
		parts = append(parts, fmt.Sprintf("price impact %g%% (major)", priceImpact))
	case priceImpact >= 20:
		score += 4
		parts = append(parts, fmt.Sprintf("price impact %g%% (notable)", priceImpact))
	case priceImpact > 0:
		score += 2
		parts = append(parts, fmt.Sprintf("price impact %g%% (minor)", priceImpact))
	}

	globalImpact := impacts["global_supply_impact_pct"]
	switch {
	case globalImpact >= 5:
		score += 5
		parts = append(parts, fmt.Sprintf("global supply %g%% (significant)", globalImpact))
	case globalImpact >= 2:
		score += 3
		parts = append(parts, fmt.Sprintf("global supply %g%%", globalImpact))
	case globalImpact > 0:
		score++
	}

	rationale := "Minimal quantitative impact"
	if len(parts) > 0 {
		rationale = strings.Join(parts, "; ")
	}
	return Component{
		Name:      "Quantitative Magnitude",
		RawScore:  math.Min(score, maxQuant),
		MaxScore:  maxQuant,
		Weight:    1,
		Rationale: rationale,
	}
}

func scoreChannels(channels []string) Component {
	if len(channels) == 0 {
		return Component{
			Name: "Channel Clarity", MaxScore: maxChannels, Weight: 1,
			Rationale: "No transmission channels identified",
		}
	}

	var raw float64
	switch len(channels) {
	case 1:
		raw = 10
	case 2:
		raw = 15
	default:
		raw = 20
	}

	listed := channels
	if len(listed) > 3 {
		listed = listed[:3]
	}
	return Component{
		Name:      "Channel Clarity",
		RawScore:  math.Min(raw, maxChannels),
		MaxScore:  maxChannels,
		Weight:    1,
		Rationale: fmt.Sprintf("%d channel(s): %s", len(channels), strings.Join(listed, ", ")),
	}
}

func scoreTiming(clarity string) Component {
	var raw float64
	var rationale string
	switch strings.ToLower(clarity) {
	case "high":
		raw, rationale = 15, "Clear catalyst with specific timing"
	case "medium":
		raw, rationale = 10, "General timeframe identified"
	case "low":
		raw, rationale = 5, "Vague or uncertain timing"
	default:
		raw, rationale = 0, "No clear catalyst or timing"
	}
	return Component{
		Name: "Timing/Catalyst", RawScore: raw, MaxScore: maxTiming, Weight: 1,
		Rationale: rationale,
	}
}

func scoreCounterCase(strength string) Component {
	var raw float64
	var rationale string
	switch strings.ToLower(strength) {
	case "strong":
		raw, rationale = 15, "Strong counter-arguments present"
	case "moderate":
		raw, rationale = 10, "Some valid concerns identified"
	case "weak":
		raw, rationale = 5, "Minor concerns only"
	default:
		raw, rationale = 0, "No significant counter-case"
	}
	return Component{
		Name: "Counter-Case Discount", RawScore: raw, MaxScore: maxCounterCase, Weight: -1,
		Rationale: rationale,
	}
}

func classify(total float64) Level {
	switch {
	case total >= HighThreshold:
		return LevelHigh
	case total >= MediumThreshold:
		return LevelMedium
	case total >= LowThreshold:
		return LevelLow
	default:
		return LevelInsufficient
	}
}

// FormatForPrompt renders the assessment as plain text for prompt
// injection.
func FormatForPrompt(r Result) string {
	var b strings.Builder
	b.WriteString("=== CONVICTION ASSESSMENT ===\n\n")
	fmt.Fprintf(&b, "OVERALL: %s (%.0f/100)\n\n", strings.ToUpper(string(r.Level)), r.TotalScore)
	b.WriteString("COMPONENT BREAKDOWN:\n")
	for _, c := range r.Components {
		if c.Weight < 0 {
			fmt.Fprintf(&b, "  %s: -%.0f pts\n", c.Name, math.Abs(c.WeightedScore()))
		} else {
			fmt.Fprintf(&b, "  %s: %.0f/%.0f pts\n", c.Name, c.WeightedScore(), c.MaxScore)
		}
		if c.Rationale != "" {
			fmt.Fprintf(&b, "    -> %s\n", c.Rationale)
		}
	}
	if len(r.Warnings) > 0 {
		b.WriteString("\nWARNINGS:\n")
		for _, w := range r.Warnings {
			fmt.Fprintf(&b, "  ! %s\n", w)
		}
	}
	b.WriteString("\n===========================")
	return b.String()
}
