// Package rss polls the news feed watch set and stores fresh headlines
// as macro events. Inter-feed pacing and an idle backoff keep the poller
// polite toward the aggregator.
package rss

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
	"github.com/rs/zerolog/log"

	"github.com/meridianhq/meridian/internal/fetch"
	"github.com/meridianhq/meridian/internal/metrics"
	"github.com/meridianhq/meridian/internal/models"
	"github.com/meridianhq/meridian/internal/persistence"
)

const (
	// Pause between feeds: base plus up to jitterRange of uniform jitter.
	interFeedDelay = 1 * time.Second
	jitterRange    = 2 * time.Second
	maxFeedDelay   = 30 * time.Second

	// Idle poll-cycle backoff, applied only when every feed returned zero
	// new items.
	idleBackoffBase = 5 * time.Second
	idleBackoffCap  = 300 * time.Second
)

// Poller fetches the feed set and inserts new events.
type Poller struct {
	client *fetch.Client
	events persistence.EventsRepo
	parser *gofeed.Parser
	feeds  []Feed

	// Test hooks.
	sleep   func(time.Duration)
	randDur func(time.Duration) time.Duration
}

// NewPoller builds a poller over the given feeds (DefaultFeeds when nil).
func NewPoller(client *fetch.Client, events persistence.EventsRepo, feeds []Feed) *Poller {
	if len(feeds) == 0 {
		feeds = DefaultFeeds
	}
	return &Poller{
		client:  client,
		events:  events,
		parser:  gofeed.NewParser(),
		feeds:   feeds,
		sleep:   time.Sleep,
		randDur: func(max time.Duration) time.Duration { return time.Duration(rand.Int63n(int64(max))) },
	}
}

// PollOnce walks every feed sequentially and returns the count of newly
// inserted events. Per-feed failures are logged, not fatal; an error
// comes back only when every feed fails.
func (p *Poller) PollOnce(ctx context.Context) (int, error) {
	inserted := 0
	failed := 0
	var lastErr error
	delay := interFeedDelay

	for i, feed := range p.feeds {
		if i > 0 {
			p.sleep(delay + p.randDur(jitterRange))
		}
		count, err := p.pollFeed(ctx, feed)
		if err != nil {
			failed++
			lastErr = err
			var rl *fetch.RateLimitError
			if errors.As(err, &rl) {
				delay = min(delay*2, maxFeedDelay)
				log.Warn().Str("feed", feed.Name).Dur("delay", delay).Msg("feed rate limited, slowing down")
			} else {
				log.Error().Err(err).Str("feed", feed.Name).Msg("feed poll failed")
			}
			continue
		}
		inserted += count
	}
	if failed == len(p.feeds) && lastErr != nil {
		return 0, fmt.Errorf("all feeds failed: %w", lastErr)
	}
	return inserted, nil
}

func (p *Poller) pollFeed(ctx context.Context, feed Feed) (int, error) {
	body, err := p.client.Get(ctx, feed.URL, nil)
	if err != nil {
		return 0, err
	}
	parsed, err := p.parser.ParseString(string(body))
	if err != nil {
		return 0, err
	}

	inserted := 0
	for _, item := range parsed.Items {
		event, ok := eventFromItem(feed.Name, item)
		if !ok {
			continue
		}
		written, err := p.events.InsertIgnore(ctx, event)
		if err != nil {
			log.Error().Err(err).Str("feed", feed.Name).Str("headline", event.Headline).Msg("insert event failed")
			continue
		}
		if written {
			inserted++
			metrics.RowsUpserted.WithLabelValues("macro_events").Inc()
		}
	}
	log.Info().Str("feed", feed.Name).Int("items", len(parsed.Items)).Int("new", inserted).Msg("feed polled")
	return inserted, nil
}

// eventFromItem builds a MacroEvent, rejecting items without the natural
// key fields (title, link, publication time).
func eventFromItem(source string, item *gofeed.Item) (models.MacroEvent, bool) {
	headline := strings.Join(strings.Fields(item.Title), " ")
	if headline == "" || item.Link == "" || item.PublishedParsed == nil {
		return models.MacroEvent{}, false
	}
	published := item.PublishedParsed.UTC()
	event := models.MacroEvent{
		Source:      source,
		Headline:    headline,
		URL:         &item.Link,
		PublishedAt: &published,
	}
	if desc := strings.TrimSpace(item.Description); desc != "" {
		event.FullText = &desc
	}
	return event, true
}

// Run polls on the given interval until ctx is cancelled. When a full
// cycle yields nothing new, or fails outright, the wait grows
// exponentially (plus 20% jitter) up to a cap, resetting on the first
// productive cycle.
func (p *Poller) Run(ctx context.Context, interval time.Duration) error {
	backoff := time.Duration(0)
	for {
		inserted, err := p.PollOnce(ctx)
		if err != nil {
			log.Error().Err(err).Msg("poll cycle failed")
		}
		if inserted > 0 {
			backoff = 0
		} else if backoff == 0 {
			backoff = idleBackoffBase
		} else {
			backoff = min(backoff*2, idleBackoffCap)
		}

		wait := interval
		if backoff > 0 {
			wait += backoff + p.randDur(backoff/5)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
	}
}
