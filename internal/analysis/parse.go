package analysis

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

var tokenPattern = regexp.MustCompile(`[a-z0-9]+`)

// Metal impact defaults when the collaborator omits a field.
const (
	unknownValue     = "unknown"
	insufficientData = "insufficient data"
)

var metals = []string{"gold", "silver", "copper"}

// strengthAliases folds collaborator vocabulary onto the canonical set.
var strengthAliases = map[string]string{
	"strong":   "strong",
	"moderate": "moderate",
	"weak":     "weak",
	"none":     "none",
	"high":     "strong",
	"medium":   "moderate",
	"low":      "weak",
	"unknown":  "none",
}

// assetAliases maps free-text crypto mentions to canonical symbols.
// Slice order fixes the output order of path extraction.
var assetAliases = []struct {
	term   string
	symbol string
}{
	{"stablecoins", "stablecoins"},
	{"stablecoin", "stablecoins"},
	{"bitcoin", "BTC"},
	{"ethereum", "ETH"},
	{"solana", "SOL"},
	{"tether", "USDT"},
	{"usdt", "USDT"},
	{"usdc", "USDC"},
	{"btc", "BTC"},
	{"eth", "ETH"},
	{"sol", "SOL"},
}

// Result is the validated, normalised collaborator output.
type Result struct {
	RawFacts            []string
	MetalImpacts        map[string]any
	HistoricalPrecedent string
	CounterCase         string
	CryptoTransmission  map[string]any
}

type rawResponse struct {
	RawFacts            []any          `json:"raw_facts"`
	MetalImpacts        map[string]any `json:"metal_impacts"`
	HistoricalPrecedent string         `json:"historical_precedent"`
	CounterCase         string         `json:"counter_case"`
	CryptoTransmission  map[string]any `json:"crypto_transmission"`
}

// ParseResponse decodes and normalises a collaborator completion. Code
// fences and a leading "json" language tag are tolerated.
func ParseResponse(raw string) (*Result, error) {
	cleaned := StripFences(raw)
	if cleaned == "" {
		return nil, fmt.Errorf("parse analysis: empty response")
	}

	var resp rawResponse
	if err := json.Unmarshal([]byte(cleaned), &resp); err != nil {
		return nil, fmt.Errorf("parse analysis: %w", err)
	}

	facts, err := NormalizeRawFacts(resp.RawFacts)
	if err != nil {
		return nil, err
	}

	result := &Result{
		RawFacts:            facts,
		MetalImpacts:        NormalizeMetalImpacts(resp.MetalImpacts),
		HistoricalPrecedent: strings.TrimSpace(resp.HistoricalPrecedent),
		CounterCase:         strings.TrimSpace(resp.CounterCase),
	}
	if resp.CryptoTransmission != nil {
		result.CryptoTransmission = NormalizeCryptoTransmission(resp.CryptoTransmission)
	}
	return result, nil
}

// StripFences removes a surrounding markdown code fence and an optional
// "json" language tag.
func StripFences(raw string) string {
	text := strings.TrimSpace(raw)
	if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```")
		text = strings.TrimPrefix(strings.TrimSpace(text), "json")
		text = strings.TrimSuffix(strings.TrimSpace(text), "```")
	}
	return strings.TrimSpace(text)
}

// NormalizeRawFacts requires a non-empty list of non-empty strings, each
// whitespace-collapsed.
func NormalizeRawFacts(values []any) ([]string, error) {
	var facts []string
	for _, v := range values {
		s, ok := v.(string)
		if !ok {
			continue
		}
		collapsed := strings.Join(strings.Fields(s), " ")
		if collapsed != "" {
			facts = append(facts, collapsed)
		}
	}
	if len(facts) == 0 {
		return nil, fmt.Errorf("parse analysis: raw_facts missing or empty")
	}
	return facts, nil
}

// NormalizeMetalImpacts forces exactly {gold, silver, copper}, defaulting
// missing fields.
func NormalizeMetalImpacts(impacts map[string]any) map[string]any {
	out := make(map[string]any, len(metals))
	for _, metal := range metals {
		entry, _ := impacts[metal].(map[string]any)
		out[metal] = map[string]any{
			"direction": stringField(entry, "direction", unknownValue),
			"magnitude": stringField(entry, "magnitude", unknownValue),
			"driver":    stringField(entry, "driver", insufficientData),
		}
	}
	return out
}

// NormalizeCryptoTransmission canonicalises strength and asset symbols.
// When transmission exists but no assets were supplied, assets are
// extracted from the path text.
func NormalizeCryptoTransmission(ct map[string]any) map[string]any {
	exists, _ := ct["exists"].(bool)
	path := strings.TrimSpace(stringField(ct, "path", ""))

	strength := strings.ToLower(stringField(ct, "strength", "none"))
	canonical, ok := strengthAliases[strength]
	if !ok {
		canonical = "none"
	}

	var assets []string
	if listed, ok := ct["relevant_assets"].([]any); ok {
		for _, v := range listed {
			if s, ok := v.(string); ok {
				if symbol := canonicalAsset(s); symbol != "" {
					assets = append(assets, symbol)
				}
			}
		}
	}
	assets = dedupe(assets)
	if exists && len(assets) == 0 {
		assets = extractAssets(path)
	}

	out := map[string]any{
		"exists":   exists,
		"path":     path,
		"strength": canonical,
	}
	if len(assets) > 0 {
		out["relevant_assets"] = assets
	}
	return out
}

// canonicalAsset maps one free-text asset mention to its symbol; already
// canonical symbols pass through.
func canonicalAsset(s string) string {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return ""
	}
	lowered := strings.ToLower(trimmed)
	for _, alias := range assetAliases {
		if lowered == alias.term {
			return alias.symbol
		}
	}
	return strings.ToUpper(trimmed)
}

// extractAssets scans free text for known asset mentions. Matching is on
// whole tokens so "tether" never fires on a word containing "eth".
func extractAssets(text string) []string {
	tokens := make(map[string]bool)
	for _, token := range tokenPattern.FindAllString(strings.ToLower(text), -1) {
		tokens[token] = true
	}
	var assets []string
	for _, alias := range assetAliases {
		if tokens[alias.term] {
			assets = append(assets, alias.symbol)
		}
	}
	return dedupe(assets)
}

func dedupe(values []string) []string {
	seen := make(map[string]bool, len(values))
	var out []string
	for _, v := range values {
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	return out
}

func stringField(m map[string]any, key, fallback string) string {
	if m == nil {
		return fallback
	}
	if s, ok := m[key].(string); ok && s != "" {
		return s
	}
	return fallback
}
