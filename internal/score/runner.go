package score

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/meridianhq/meridian/internal/models"
	"github.com/meridianhq/meridian/internal/persistence"
)

// DefaultBatchLimit bounds one scoring pass.
const DefaultBatchLimit = 200

// Pass scores unscored events in batches.
type Pass struct {
	events persistence.EventsRepo
}

// NewPass wires the scoring pass.
func NewPass(events persistence.EventsRepo) *Pass {
	return &Pass{events: events}
}

// PassResult counts one scoring run by tier.
type PassResult struct {
	Scored     int `json:"scored"`
	Priority   int `json:"priority"`
	Monitoring int `json:"monitoring"`
	Logged     int `json:"logged"`
}

// InputFor builds the scorer view of a stored event.
func InputFor(event models.MacroEvent) Input {
	in := Input{
		Headline: event.Headline,
		Source:   event.Source,
		Regions:  event.Regions,
		Entities: event.Entities,
	}
	if event.FullText != nil {
		in.FullText = *event.FullText
	}
	if event.EventType != nil {
		in.EventType = *event.EventType
	}
	return in
}

// Run scores up to limit unscored events, oldest first. With dryRun set
// nothing is written.
func (p *Pass) Run(ctx context.Context, limit int, dryRun bool) (PassResult, error) {
	if limit <= 0 {
		limit = DefaultBatchLimit
	}
	events, err := p.events.ListUnscored(ctx, limit)
	if err != nil {
		return PassResult{}, fmt.Errorf("list unscored events: %w", err)
	}

	var result PassResult
	for _, event := range events {
		r := Score(InputFor(event))
		switch r.Tier() {
		case "priority":
			result.Priority++
		case "monitoring":
			result.Monitoring++
		default:
			result.Logged++
		}
		log.Debug().
			Str("headline", event.Headline).
			Int("total", r.Total).
			Str("tier", r.Tier()).
			Msg("event scored")
		if dryRun {
			result.Scored++
			continue
		}
		if err := p.events.UpdateScore(ctx, event.ID, r.Total, r.Components(), r.Priority); err != nil {
			return result, fmt.Errorf("update score for %s: %w", event.ID, err)
		}
		result.Scored++
	}
	log.Info().Int("scored", result.Scored).Int("priority", result.Priority).
		Int("monitoring", result.Monitoring).Int("logged", result.Logged).
		Bool("dry_run", dryRun).Msg("scoring pass finished")
	return result, nil
}
