// Package score computes significance for ingested macro events. The
// scorer is a deterministic keyword model: four weighted components
// (structural, transmission, historical, attention) blended into a 0-100
// total that gates the priority pipeline.
package score

import (
	"math"
	"strings"
)

// Tier thresholds on the blended total.
const (
	PriorityThreshold   = 65
	MonitoringThreshold = 50
)

// Component weights, in percent.
const (
	weightStructural   = 35
	weightTransmission = 30
	weightHistorical   = 20
	weightAttention    = 15
)

var structuralBase = map[string]int{
	"financial_crisis": 90,
	"monetary_policy":  75,
	"geopolitical":     70,
	"economic_data":    55,
	"supply_shock":     80,
}

var transmissionBase = map[string]int{
	"financial_crisis": 80,
	"monetary_policy":  80,
	"geopolitical":     65,
	"economic_data":    55,
	"supply_shock":     75,
}

var historicalBase = map[string]int{
	"financial_crisis": 80,
	"monetary_policy":  65,
	"geopolitical":     60,
	"economic_data":    50,
	"supply_shock":     70,
}

var sourceAttention = map[string]int{
	"reuters":     60,
	"ap":          55,
	"google_news": 45,
}

const (
	defaultStructuralBase   = 40
	defaultTransmissionBase = 35
	defaultHistoricalBase   = 30
	defaultSourceAttention  = 50
)

// eventTypeAliases folds ingestion-side labels onto the canonical types.
var eventTypeAliases = map[string]string{
	"monetary":       "monetary_policy",
	"central_bank":   "monetary_policy",
	"rate_decision":  "monetary_policy",
	"geopolitics":    "geopolitical",
	"sanctions":      "geopolitical",
	"war":            "geopolitical",
	"crisis":         "financial_crisis",
	"banking_crisis": "financial_crisis",
	"data":           "economic_data",
	"macro_data":     "economic_data",
	"supply":         "supply_shock",
	"energy":         "supply_shock",
}

var majorRegions = map[string]bool{
	"US": true, "EU": true, "CHINA": true, "UK": true, "JAPAN": true, "GLOBAL": true,
}

var regionAliases = map[string]string{
	"UNITED STATES": "US",
	"USA":           "US",
	"U.S.":          "US",
	"EUROPE":        "EU",
	"EUROZONE":      "EU",
	"WORLD":         "GLOBAL",
}

var majorEntities = map[string]bool{
	"federal reserve":        true,
	"fed":                    true,
	"european central bank":  true,
	"ecb":                    true,
	"people's bank of china": true,
	"pboc":                   true,
	"bank of japan":          true,
	"boj":                    true,
	"bank of england":        true,
	"boe":                    true,
	"imf":                    true,
	"opec":                   true,
	"treasury":               true,
}

var (
	monetaryTerms     = []string{"rate", "rates", "central bank", "fed", "ecb", "boj", "pboc", "hike"}
	crisisTerms       = []string{"crisis", "default", "bank", "collapse", "liquidity", "bailout"}
	geopoliticalTerms = []string{"war", "sanction", "invasion", "conflict", "missile"}
	supplyTerms       = []string{"supply", "production", "strike", "shutdown", "export ban", "mine"}
	econDataTerms     = []string{"cpi", "inflation", "gdp", "jobs", "payrolls", "unemployment", "pmi"}
	metalTerms        = []string{"gold", "silver", "copper", "metals", "bullion"}
	macroTerms        = []string{"rate", "rates", "inflation", "cpi", "yield", "usd", "dollar"}
	historicalTerms   = []string{"crisis", "default", "war", "recession", "sanction", "bank"}
	attentionTerms    = []string{"breaking", "urgent", "emergency", "surprise", "unexpected", "shock"}
)

// Input is the event view the scorer needs.
type Input struct {
	Headline  string
	FullText  string
	Source    string
	EventType string
	Regions   []string
	Entities  []string
}

// Result carries the blended total plus its components.
type Result struct {
	Total        int
	Structural   int
	Transmission int
	Historical   int
	Attention    int
	Priority     bool
	Monitoring   bool
}

// Components returns the per-dimension scores keyed for persistence.
func (r Result) Components() map[string]int {
	return map[string]int{
		"structural":   r.Structural,
		"transmission": r.Transmission,
		"historical":   r.Historical,
		"attention":    r.Attention,
	}
}

// Tier names the band the total falls in.
func (r Result) Tier() string {
	switch {
	case r.Total >= PriorityThreshold:
		return "priority"
	case r.Total >= MonitoringThreshold:
		return "monitoring"
	default:
		return "logged"
	}
}

// CanonicalEventType folds aliases onto the five canonical event types.
// Unknown labels pass through lowercased.
func CanonicalEventType(eventType string) string {
	t := strings.ToLower(strings.TrimSpace(eventType))
	if canonical, ok := eventTypeAliases[t]; ok {
		return canonical
	}
	return t
}

// InferEventType guesses a canonical type from headline text when the
// ingestor attached none. Precedence: crisis, monetary, geopolitical,
// supply, economic data.
func InferEventType(text string) string {
	lower := strings.ToLower(text)
	switch {
	case containsAny(lower, crisisTerms):
		return "financial_crisis"
	case containsAny(lower, monetaryTerms):
		return "monetary_policy"
	case containsAny(lower, geopoliticalTerms):
		return "geopolitical"
	case containsAny(lower, supplyTerms):
		return "supply_shock"
	case containsAny(lower, econDataTerms):
		return "economic_data"
	default:
		return ""
	}
}

// Score evaluates one event.
func Score(in Input) Result {
	eventType := CanonicalEventType(in.EventType)
	text := strings.ToLower(strings.TrimSpace(in.Headline + " " + in.FullText))
	if eventType == "" {
		eventType = InferEventType(text)
	}

	majorRegionCount := countMajorRegions(in.Regions)
	majorEntityCount := countMajorEntities(in.Entities)

	r := Result{
		Structural:   structuralScore(eventType, majorRegionCount, majorEntityCount),
		Transmission: transmissionScore(eventType, text, majorEntityCount),
		Historical:   historicalScore(eventType, text, majorRegionCount),
		Attention:    attentionScore(in.Source, text, len(in.Regions), len(in.Entities)),
	}

	raw := r.Structural*weightStructural + r.Transmission*weightTransmission +
		r.Historical*weightHistorical + r.Attention*weightAttention
	r.Total = clamp((raw + 50) / 100)
	r.Priority = r.Total >= PriorityThreshold
	r.Monitoring = r.Total >= MonitoringThreshold
	return r
}

func structuralScore(eventType string, majorRegions, majorEntities int) int {
	base := defaultStructuralBase
	if v, ok := structuralBase[eventType]; ok {
		base = v
	}
	score := base
	score += min(25, 8*majorRegions)
	score += min(15, 5*majorEntities)
	return clamp(score)
}

func transmissionScore(eventType, text string, majorEntities int) int {
	base := defaultTransmissionBase
	if v, ok := transmissionBase[eventType]; ok {
		base = v
	}
	score := base
	if containsAny(text, metalTerms) {
		score += 20
	}
	if containsAny(text, macroTerms) {
		score += 10
	}
	if containsAny(text, supplyTerms) {
		score += 10
	}
	if majorEntities > 0 {
		score += 5
	}
	return clamp(score)
}

func historicalScore(eventType, text string, majorRegions int) int {
	base := defaultHistoricalBase
	if v, ok := historicalBase[eventType]; ok {
		base = v
	}
	score := base
	if containsAny(text, historicalTerms) {
		score += 10
	}
	score += min(10, 5*majorRegions)
	return clamp(score)
}

func attentionScore(source, text string, regionCount, entityCount int) int {
	base := defaultSourceAttention
	if v, ok := sourceAttention[strings.ToLower(strings.TrimSpace(source))]; ok {
		base = v
	}
	score := base
	if containsAny(text, attentionTerms) {
		score += 15
	}
	if regionCount >= 2 {
		score += 5
	}
	if entityCount >= 2 {
		score += 5
	}
	return clamp(score)
}

func countMajorRegions(regions []string) int {
	count := 0
	for _, region := range regions {
		r := strings.ToUpper(strings.TrimSpace(region))
		if canonical, ok := regionAliases[r]; ok {
			r = canonical
		}
		if majorRegions[r] {
			count++
		}
	}
	return count
}

func countMajorEntities(entities []string) int {
	count := 0
	for _, entity := range entities {
		if majorEntities[strings.ToLower(strings.TrimSpace(entity))] {
			count++
		}
	}
	return count
}

func containsAny(text string, terms []string) bool {
	for _, term := range terms {
		if strings.Contains(text, term) {
			return true
		}
	}
	return false
}

func clamp(v int) int {
	return int(math.Min(100, math.Max(0, float64(v))))
}
