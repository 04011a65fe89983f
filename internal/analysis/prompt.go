package analysis

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/meridianhq/meridian/internal/channels"
	"github.com/meridianhq/meridian/internal/models"
)

// responseContract tells the collaborator the exact JSON shape expected
// back. Keys outside the contract are discarded on parse.
const responseContract = `Respond with a single JSON object:
{
  "raw_facts": ["..."],
  "metal_impacts": {
    "gold":   {"direction": "...", "magnitude": "...", "driver": "..."},
    "silver": {"direction": "...", "magnitude": "...", "driver": "..."},
    "copper": {"direction": "...", "magnitude": "...", "driver": "..."}
  },
  "historical_precedent": "...",
  "counter_case": "...",
  "crypto_transmission": {"exists": false, "path": "", "strength": "none", "relevant_assets": []}
}`

// BuildPrompt assembles the collaborator prompt from JSON views of the
// event, the metals knowledge base, and matched historical cases, plus
// the optional channel-discovery summary.
func BuildPrompt(event models.MacroEvent, kb []models.MetalsKnowledge, cases []models.HistoricalCase, discovery *channels.DiscoveryResult) (string, error) {
	eventJSON, err := marshalBlock(eventView(event))
	if err != nil {
		return "", fmt.Errorf("encode event: %w", err)
	}
	kbJSON, err := marshalBlock(kbView(kb))
	if err != nil {
		return "", fmt.Errorf("encode metals knowledge: %w", err)
	}
	casesJSON, err := marshalBlock(casesView(cases))
	if err != nil {
		return "", fmt.Errorf("encode historical cases: %w", err)
	}

	var b strings.Builder
	b.WriteString("Analyze the macro event below for precious and industrial metals impact.\n\n")
	b.WriteString("EVENT_JSON:\n")
	b.WriteString(eventJSON)
	b.WriteString("\n\nMETALS_KB_JSON:\n")
	b.WriteString(kbJSON)
	b.WriteString("\n\nHISTORICAL_CASES_JSON:\n")
	b.WriteString(casesJSON)
	if discovery != nil && len(discovery.Channels) > 0 {
		b.WriteString("\n\nTRANSMISSION_CHANNELS:\n")
		b.WriteString(channels.FormatForPrompt(*discovery))
	}
	b.WriteString("\n\n")
	b.WriteString(responseContract)
	return b.String(), nil
}

// marshalBlock renders a value as two-space-indented JSON with sorted keys.
func marshalBlock(v any) (string, error) {
	encoded, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", err
	}
	return string(encoded), nil
}

func eventView(e models.MacroEvent) map[string]any {
	view := map[string]any{
		"headline": e.Headline,
		"source":   e.Source,
	}
	if e.FullText != nil && *e.FullText != "" {
		view["full_text"] = *e.FullText
	}
	if e.EventType != nil {
		view["event_type"] = *e.EventType
	}
	if e.PublishedAt != nil {
		view["published_at"] = e.PublishedAt.UTC().Format("2006-01-02T15:04:05Z")
	}
	if len(e.Regions) > 0 {
		view["regions"] = e.Regions
	}
	if len(e.Entities) > 0 {
		view["entities"] = e.Entities
	}
	if e.SignificanceScore != nil {
		view["significance_score"] = *e.SignificanceScore
	}
	return view
}

// kbView nests knowledge entries as metal -> category -> content.
func kbView(kb []models.MetalsKnowledge) map[string]any {
	view := make(map[string]any, 3)
	for _, entry := range kb {
		metal, ok := view[entry.Metal].(map[string]any)
		if !ok {
			metal = make(map[string]any)
			view[entry.Metal] = metal
		}
		metal[entry.Category] = entry.Content
	}
	return view
}

func casesView(cases []models.HistoricalCase) []map[string]any {
	views := make([]map[string]any, 0, len(cases))
	for _, c := range cases {
		view := map[string]any{
			"event_name": c.EventName,
			"date_range": c.DateRange,
		}
		if c.EventType != nil {
			view["event_type"] = *c.EventType
		}
		if c.SignificanceScore != nil {
			view["significance_score"] = *c.SignificanceScore
		}
		if len(c.MetalImpacts) > 0 {
			view["metal_impacts"] = c.MetalImpacts
		}
		if len(c.Lessons) > 0 {
			view["lessons"] = c.Lessons
		}
		if len(c.CounterExamples) > 0 {
			view["counter_examples"] = c.CounterExamples
		}
		views = append(views, view)
	}
	return views
}
