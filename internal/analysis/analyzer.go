package analysis

import (
	"context"
	"fmt"
	"io"

	"github.com/rs/zerolog/log"

	"github.com/meridianhq/meridian/internal/channels"
	"github.com/meridianhq/meridian/internal/models"
	"github.com/meridianhq/meridian/internal/persistence"
)

// casesPerPrompt is how many same-type historical cases the prompt carries.
const casesPerPrompt = 5

// Analyzer runs the collaborator over priority events and persists the
// normalised interpretation.
type Analyzer struct {
	events   persistence.EventsRepo
	metals   persistence.MetalsRepo
	cases    persistence.CasesRepo
	provider Provider

	// DryRun builds prompts but never calls the provider or writes.
	DryRun bool
	// PromptWriter, when set, receives every built prompt.
	PromptWriter io.Writer
}

// NewAnalyzer wires the analysis pass.
func NewAnalyzer(events persistence.EventsRepo, metals persistence.MetalsRepo, cases persistence.CasesRepo, provider Provider) *Analyzer {
	return &Analyzer{events: events, metals: metals, cases: cases, provider: provider}
}

// BatchResult counts one batch run.
type BatchResult struct {
	Candidates int `json:"candidates"`
	Analyzed   int `json:"analyzed"`
	Skipped    int `json:"skipped"`
	Failed     int `json:"failed"`
}

// AnalyzeEvent runs one event through the collaborator and writes the
// result. Returns false when the guard skipped the write (already
// analysed and overwrite not set).
func (a *Analyzer) AnalyzeEvent(ctx context.Context, event models.MacroEvent, overwrite bool) (bool, error) {
	kb, err := a.metals.All(ctx)
	if err != nil {
		return false, fmt.Errorf("load metals knowledge: %w", err)
	}

	var eventType string
	if event.EventType != nil {
		eventType = *event.EventType
	}
	histCases, err := a.cases.TopByEventType(ctx, eventType, casesPerPrompt)
	if err != nil {
		return false, fmt.Errorf("load historical cases: %w", err)
	}

	var fullText string
	if event.FullText != nil {
		fullText = *event.FullText
	}
	discovery := channels.Discover(event.Headline, eventType, fullText, channels.DiscoverOptions{})

	prompt, err := BuildPrompt(event, kb, histCases, &discovery)
	if err != nil {
		return false, err
	}
	if a.PromptWriter != nil {
		fmt.Fprintf(a.PromptWriter, "%s\n\n", prompt)
	}
	if a.DryRun {
		return false, nil
	}
	completion, err := a.provider.Complete(ctx, prompt)
	if err != nil {
		return false, err
	}
	result, err := ParseResponse(completion)
	if err != nil {
		return false, err
	}
	if result.CryptoTransmission == nil {
		result.CryptoTransmission = InferCryptoTransmission(event.Headline, fullText, event.EventType)
	}

	update := models.MacroEvent{
		RawFacts:           result.RawFacts,
		MetalImpacts:       result.MetalImpacts,
		CryptoTransmission: result.CryptoTransmission,
	}
	if result.HistoricalPrecedent != "" {
		update.HistoricalPrecedent = &result.HistoricalPrecedent
	}
	if result.CounterCase != "" {
		update.CounterCase = &result.CounterCase
	}
	return a.events.UpdateAnalysis(ctx, event.ID, update, overwrite)
}

// RunBatch analyses every priority event with no analysis columns set.
// Per-event failures are logged and counted, never fatal to the batch.
func (a *Analyzer) RunBatch(ctx context.Context, limit int, overwrite bool) (BatchResult, error) {
	events, err := a.events.ListPriorityUnanalyzed(ctx, limit)
	if err != nil {
		return BatchResult{}, fmt.Errorf("list unanalyzed events: %w", err)
	}

	result := BatchResult{Candidates: len(events)}
	for _, event := range events {
		written, err := a.AnalyzeEvent(ctx, event, overwrite)
		switch {
		case err != nil:
			result.Failed++
			log.Error().Err(err).Str("event_id", event.ID.String()).
				Str("headline", event.Headline).Msg("event analysis failed")
		case !written:
			result.Skipped++
		default:
			result.Analyzed++
			log.Info().Str("event_id", event.ID.String()).
				Str("headline", event.Headline).Msg("event analyzed")
		}
	}
	log.Info().Int("candidates", result.Candidates).Int("analyzed", result.Analyzed).
		Int("skipped", result.Skipped).Int("failed", result.Failed).Msg("analysis batch complete")
	return result, nil
}
