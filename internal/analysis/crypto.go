package analysis

import "strings"

// Term lists for the heuristic transmission inference used when the
// collaborator returns no crypto_transmission block.
var (
	liquidityTerms = []string{"liquidity", "rates", "rate", "yield", "dollar", "tightening", "easing"}
	sanctionTerms  = []string{"sanction", "capital control", "controls", "restriction"}
	riskTerms      = []string{"risk-off", "risk on", "risk-on", "risk aversion", "risk appetite"}
)

// InferCryptoTransmission derives a conservative transmission guess from
// the event text alone.
func InferCryptoTransmission(headline, fullText string, eventType *string) map[string]any {
	text := strings.ToLower(headline)
	if fullText != "" {
		text += " " + strings.ToLower(fullText)
	}
	var et string
	if eventType != nil {
		et = *eventType
	}

	if containsAny(text, liquidityTerms) && (et == "monetary_policy" || et == "financial_crisis") {
		return transmission("weak", []string{"BTC", "ETH"},
			"Liquidity and risk conditions can spill into crypto risk appetite.")
	}
	if containsAny(text, sanctionTerms) && et == "geopolitical" {
		return transmission("weak", []string{"stablecoins"},
			"Capital controls can raise stablecoin demand in affected regions.")
	}
	if containsAny(text, riskTerms) {
		return transmission("weak", []string{"BTC", "ETH"},
			"Risk sentiment shifts can influence crypto positioning.")
	}
	if mentioned := extractAssets(text); len(mentioned) > 0 {
		return transmission("moderate", mentioned,
			"Event references crypto assets directly.")
	}

	return map[string]any{"exists": false, "path": "", "strength": "none"}
}

func transmission(strength string, assets []string, path string) map[string]any {
	return map[string]any{
		"exists":          true,
		"path":            path,
		"strength":        strength,
		"relevant_assets": assets,
	}
}

func containsAny(text string, terms []string) bool {
	for _, term := range terms {
		if strings.Contains(text, term) {
			return true
		}
	}
	return false
}
