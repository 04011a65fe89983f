package score

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScoreFedRateCuts(t *testing.T) {
	r := Score(Input{
		Source:    "reuters",
		Headline:  "Fed signals rate cuts",
		EventType: "monetary_policy",
		Regions:   []string{"US"},
		Entities:  []string{"Federal Reserve"},
	})

	assert.Equal(t, 88, r.Structural)
	assert.Equal(t, 95, r.Transmission)
	assert.Equal(t, 70, r.Historical)
	assert.Equal(t, 60, r.Attention)
	assert.Equal(t, 82, r.Total)
	assert.Equal(t, "priority", r.Tier())
	assert.True(t, r.Priority)
}

func TestScoreInfersMonetaryType(t *testing.T) {
	r := Score(Input{
		Source:   "ap",
		Headline: "Fed raises rates again",
	})

	assert.Equal(t, 75, r.Structural)
	assert.Equal(t, 90, r.Transmission)
	assert.Equal(t, 65, r.Historical)
	assert.Equal(t, 55, r.Attention)
	assert.Equal(t, 75, r.Total)
	assert.Equal(t, "priority", r.Tier())
}

func TestScoreTotalBounded(t *testing.T) {
	inputs := []Input{
		{},
		{Source: "unknown-blog", Headline: "quiet day in markets"},
		{
			Source:    "reuters",
			Headline:  "BREAKING: emergency bank collapse triggers global liquidity crisis, gold surges on war fears",
			EventType: "financial_crisis",
			Regions:   []string{"US", "EU", "CHINA", "UK", "JAPAN", "GLOBAL"},
			Entities:  []string{"Federal Reserve", "ECB", "IMF", "OPEC", "Treasury"},
		},
	}
	for _, in := range inputs {
		r := Score(in)
		assert.GreaterOrEqual(t, r.Total, 0)
		assert.LessOrEqual(t, r.Total, 100)
		for _, component := range r.Components() {
			assert.GreaterOrEqual(t, component, 0)
			assert.LessOrEqual(t, component, 100)
		}
		assert.Equal(t, r.Total >= PriorityThreshold, r.Priority)
	}
}

func TestCanonicalEventTypeAliases(t *testing.T) {
	cases := map[string]string{
		"monetary":       "monetary_policy",
		"Central_Bank":   "monetary_policy",
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
		"pandemic":       "pandemic",
		"":               "",
	}
	for alias, want := range cases {
		assert.Equal(t, want, CanonicalEventType(alias), "alias %q", alias)
	}
}

func TestInferEventTypePrecedence(t *testing.T) {
	// Crisis terms outrank monetary ones when both appear.
	assert.Equal(t, "financial_crisis", InferEventType("bank stress as fed weighs rate path"))
	assert.Equal(t, "monetary_policy", InferEventType("ecb holds rates steady"))
	assert.Equal(t, "geopolitical", InferEventType("new sanctions after missile test"))
	assert.Equal(t, "supply_shock", InferEventType("copper mine strike halts production"))
	assert.Equal(t, "economic_data", InferEventType("cpi comes in hot"))
	assert.Equal(t, "", InferEventType("dog bites man"))
}

func TestMajorRegionAliases(t *testing.T) {
	r := Score(Input{
		Source:    "reuters",
		Headline:  "policy shift",
		EventType: "monetary_policy",
		Regions:   []string{"United States", "Eurozone", "World"},
	})
	// 75 base + min(25, 8*3) = 99
	assert.Equal(t, 99, r.Structural)
}

func TestRegionBonusCapped(t *testing.T) {
	r := Score(Input{
		Source:    "reuters",
		Headline:  "policy shift",
		EventType: "economic_data",
		Regions:   []string{"US", "EU", "CHINA", "UK", "JAPAN", "GLOBAL"},
	})
	// 55 base + capped 25
	assert.Equal(t, 80, r.Structural)
}

func TestAttentionBonuses(t *testing.T) {
	r := Score(Input{
		Source:   "google_news",
		Headline: "Surprise announcement shocks markets",
		Regions:  []string{"US", "EU"},
		Entities: []string{"Fed", "ECB"},
	})
	// 45 base + 15 attention terms + 5 multi-region + 5 multi-entity
	assert.Equal(t, 70, r.Attention)
}

func TestUnknownSourceDefaultAttention(t *testing.T) {
	r := Score(Input{Source: "some-newsletter", Headline: "calm markets"})
	assert.Equal(t, 50, r.Attention)
}
