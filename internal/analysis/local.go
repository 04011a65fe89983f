package analysis

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// Local is the offline Provider: it answers the analysis prompt from
// keyword heuristics alone, with no network call. Useful for smoke runs
// and environments without a collaborator API key.
type Local struct{}

type promptEvent struct {
	Headline  string `json:"headline"`
	FullText  string `json:"full_text"`
	EventType string `json:"event_type"`
}

// Complete produces a contract-shaped JSON completion from the prompt's
// event block.
func (Local) Complete(_ context.Context, prompt string) (string, error) {
	event, err := eventFromPrompt(prompt)
	if err != nil {
		return "", err
	}
	text := strings.ToLower(event.Headline + " " + event.FullText)

	var eventType *string
	if event.EventType != "" {
		eventType = &event.EventType
	}

	resp := map[string]any{
		"raw_facts":            []string{event.Headline},
		"metal_impacts":        localMetalImpacts(event.EventType, text),
		"historical_precedent": "",
		"counter_case":         "",
		"crypto_transmission":  InferCryptoTransmission(event.Headline, event.FullText, eventType),
	}
	raw, err := json.Marshal(resp)
	if err != nil {
		return "", fmt.Errorf("local provider: encode response: %w", err)
	}
	return string(raw), nil
}

// eventFromPrompt decodes the EVENT_JSON block the prompt builder emits.
func eventFromPrompt(prompt string) (promptEvent, error) {
	start := strings.Index(prompt, "EVENT_JSON:\n")
	if start < 0 {
		return promptEvent{}, fmt.Errorf("local provider: prompt has no event block")
	}
	block := prompt[start+len("EVENT_JSON:\n"):]
	if end := strings.Index(block, "\n\nMETALS_KB_JSON:"); end >= 0 {
		block = block[:end]
	}
	var event promptEvent
	if err := json.Unmarshal([]byte(block), &event); err != nil {
		return promptEvent{}, fmt.Errorf("local provider: decode event block: %w", err)
	}
	if event.Headline == "" {
		return promptEvent{}, fmt.Errorf("local provider: event block has no headline")
	}
	return event, nil
}

var (
	hawkishTerms   = []string{"hike", "raises rates", "tightening", "hawkish"}
	dovishTerms    = []string{"cut", "cuts rates", "easing", "dovish", "stimulus"}
	safeHavenTerms = []string{"war", "invasion", "sanction", "crisis", "default", "conflict"}
	copperUpTerms  = []string{"mine", "strike", "shutdown", "export ban", "supply"}
	growthTerms    = []string{"recession", "slowdown", "contraction", "weak growth"}
)

// localMetalImpacts applies coarse direction rules; anything the rules
// don't reach stays unknown for the normaliser to default.
func localMetalImpacts(eventType, text string) map[string]any {
	impacts := map[string]any{}
	set := func(metal, direction, driver string) {
		impacts[metal] = map[string]any{
			"direction": direction,
			"magnitude": unknownValue,
			"driver":    driver,
		}
	}

	switch {
	case containsAny(text, safeHavenTerms) || eventType == "geopolitical" || eventType == "financial_crisis":
		set("gold", "up", "safe-haven demand")
		set("silver", "up", "follows gold in risk episodes")
	case containsAny(text, hawkishTerms):
		set("gold", "down", "higher real rates pressure non-yielding assets")
		set("silver", "down", "follows gold under tightening")
	case containsAny(text, dovishTerms):
		set("gold", "up", "easier policy lowers real rates")
		set("silver", "up", "follows gold on easing")
	}

	switch {
	case containsAny(text, copperUpTerms):
		set("copper", "up", "supply disruption")
	case containsAny(text, growthTerms):
		set("copper", "down", "weaker industrial demand")
	}
	return impacts
}
