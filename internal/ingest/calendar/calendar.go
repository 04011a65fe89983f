// Package calendar syncs the economic-event calendar from the weekly
// ForexFactory JSON feed and the FRED release schedule, normalising
// impact levels and computing actual-vs-expected surprises.
package calendar

import (
	"math"
	"strconv"
	"strings"
)

// Canonical impact levels.
const (
	ImpactHigh   = "high"
	ImpactMedium = "medium"
	ImpactLow    = "low"
)

// impactAliases folds source vocabulary onto the canonical set.
var impactAliases = map[string]string{
	"high":   ImpactHigh,
	"hi":     ImpactHigh,
	"medium": ImpactMedium,
	"med":    ImpactMedium,
	"low":    ImpactLow,
	"lo":     ImpactLow,
}

// missingValueTokens are source placeholders for an absent figure.
var missingValueTokens = map[string]bool{
	"":    true,
	"-":   true,
	"n/a": true,
	"na":  true,
}

// NormalizeImpact maps a source impact string to the canonical level,
// defaulting to low.
func NormalizeImpact(raw string) string {
	if canonical, ok := impactAliases[strings.ToLower(strings.TrimSpace(raw))]; ok {
		return canonical
	}
	return ImpactLow
}

// CleanValue trims a figure and drops the missing-value placeholders.
// Returns nil when absent.
func CleanValue(raw string) *string {
	trimmed := strings.TrimSpace(raw)
	if missingValueTokens[strings.ToLower(trimmed)] {
		return nil
	}
	return &trimmed
}

// ParseNumeric parses calendar figures like "3.2%", "250K", "1.5M",
// "-0.3", "1,234". Returns false when the value carries no number.
func ParseNumeric(raw string) (float64, bool) {
	cleaned := strings.TrimSpace(raw)
	if missingValueTokens[strings.ToLower(cleaned)] {
		return 0, false
	}
	cleaned = strings.ReplaceAll(cleaned, ",", "")
	cleaned = strings.TrimSuffix(cleaned, "%")

	multiplier := 1.0
	switch {
	case strings.HasSuffix(cleaned, "K"), strings.HasSuffix(cleaned, "k"):
		multiplier = 1e3
		cleaned = cleaned[:len(cleaned)-1]
	case strings.HasSuffix(cleaned, "M"), strings.HasSuffix(cleaned, "m"):
		multiplier = 1e6
		cleaned = cleaned[:len(cleaned)-1]
	case strings.HasSuffix(cleaned, "B"), strings.HasSuffix(cleaned, "b"):
		multiplier = 1e9
		cleaned = cleaned[:len(cleaned)-1]
	}

	value, err := strconv.ParseFloat(strings.TrimSpace(cleaned), 64)
	if err != nil {
		return 0, false
	}
	return value * multiplier, true
}

// Surprise compares actual against expected. Direction is positive,
// negative, or flat; magnitude is the absolute gap in the source units.
func Surprise(actual, expected string) (direction *string, magnitude *float64) {
	a, okA := ParseNumeric(actual)
	e, okE := ParseNumeric(expected)
	if !okA || !okE {
		return nil, nil
	}

	var dir string
	switch {
	case a > e:
		dir = "positive"
	case a < e:
		dir = "negative"
	default:
		dir = "flat"
	}
	gap := math.Abs(a - e)
	return &dir, &gap
}
