// Package historical finds precedent cases for a macro event. The
// primary path is vector similarity over stored embeddings; when no
// embedding is available (or the vector search returns nothing) a
// keyword-overlap ranking over the full case library takes over.
package historical

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/meridianhq/meridian/internal/models"
	"github.com/meridianhq/meridian/internal/persistence"
	"github.com/meridianhq/meridian/internal/score"
)

// DefaultLimit is the match count when callers pass none.
const DefaultLimit = 5

// eventTypeBoost rewards cases of the same canonical event type.
const eventTypeBoost = 5

var tokenRe = regexp.MustCompile(`[a-z0-9]+`)

var stopwords = map[string]bool{
	"a": true, "an": true, "and": true, "are": true, "as": true, "at": true,
	"be": true, "by": true, "for": true, "from": true, "in": true, "is": true,
	"it": true, "of": true, "on": true, "or": true, "that": true, "the": true,
	"to": true, "with": true,
}

// Matcher ranks historical cases against an incoming event.
type Matcher struct {
	cases persistence.CasesRepo
}

// NewMatcher builds a matcher over the case library.
func NewMatcher(cases persistence.CasesRepo) *Matcher {
	return &Matcher{cases: cases}
}

// Query describes the event being matched. Embedding is optional.
type Query struct {
	EventText string
	EventType string
	Embedding []float32
	Limit     int
}

// Find returns the closest historical precedents. Embedding similarity
// wins when it produces anything; otherwise the keyword fallback runs.
func (m *Matcher) Find(ctx context.Context, q Query) ([]models.HistoricalMatch, error) {
	limit := q.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}

	if len(q.Embedding) > 0 {
		matches, err := m.cases.SimilarByEmbedding(ctx, q.Embedding, limit)
		if err != nil {
			return nil, fmt.Errorf("embedding similarity: %w", err)
		}
		if len(matches) > 0 {
			return matches, nil
		}
		log.Debug().Msg("no embedded cases available, using keyword fallback")
	}

	cases, err := m.cases.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("load case library: %w", err)
	}
	return Rank(cases, q.EventText, q.EventType, limit), nil
}

// Rank orders cases by keyword overlap with the event text, boosted for
// matching event types. Ties break on significance, then name, then date
// range.
func Rank(cases []models.HistoricalCase, eventText, eventType string, limit int) []models.HistoricalMatch {
	if len(cases) == 0 {
		return nil
	}
	if limit <= 0 {
		limit = DefaultLimit
	}

	keywords := ExtractKeywords(eventText)
	canonicalType := score.CanonicalEventType(eventType)

	type scored struct {
		matchScore int
		c          models.HistoricalCase
	}
	ranked := make([]scored, 0, len(cases))
	for _, c := range cases {
		ranked = append(ranked, scored{scoreCase(c, keywords, canonicalType), c})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if a.matchScore != b.matchScore {
			return a.matchScore > b.matchScore
		}
		aSig, bSig := 0, 0
		if a.c.SignificanceScore != nil {
			aSig = *a.c.SignificanceScore
		}
		if b.c.SignificanceScore != nil {
			bSig = *b.c.SignificanceScore
		}
		if aSig != bSig {
			return aSig > bSig
		}
		aName, bName := strings.ToLower(a.c.EventName), strings.ToLower(b.c.EventName)
		if aName != bName {
			return aName < bName
		}
		return a.c.DateRange < b.c.DateRange
	})

	if len(ranked) > limit {
		ranked = ranked[:limit]
	}
	matches := make([]models.HistoricalMatch, len(ranked))
	for i, r := range ranked {
		matchScore := r.matchScore
		matches[i] = models.HistoricalMatch{
			EventName:         r.c.EventName,
			DateRange:         r.c.DateRange,
			EventType:         r.c.EventType,
			SignificanceScore: r.c.SignificanceScore,
			MatchMethod:       "fallback",
			MatchScore:        &matchScore,
		}
	}
	return matches
}

// ExtractKeywords tokenizes text to lowercase alphanumeric tokens of at
// least three characters, minus stopwords.
func ExtractKeywords(text string) map[string]bool {
	keywords := make(map[string]bool)
	if text == "" {
		return keywords
	}
	for _, token := range tokenRe.FindAllString(strings.ToLower(text), -1) {
		if len(token) >= 3 && !stopwords[token] {
			keywords[token] = true
		}
	}
	return keywords
}

func scoreCase(c models.HistoricalCase, keywords map[string]bool, canonicalType string) int {
	matchScore := keywordHits(caseText(c), keywords)
	if canonicalType != "" && c.EventType != nil &&
		score.CanonicalEventType(*c.EventType) == canonicalType {
		matchScore += eventTypeBoost
	}
	return matchScore
}

func caseText(c models.HistoricalCase) string {
	parts := []string{c.EventName}
	if c.EventType != nil {
		parts = append(parts, *c.EventType)
	}
	for _, group := range [][]string{
		c.StructuralDrivers, c.Lessons, c.CounterExamples, c.TraditionalMarketReaction,
	} {
		for _, v := range group {
			if v != "" {
				parts = append(parts, v)
			}
		}
	}
	return strings.ToLower(strings.Join(parts, " "))
}

func keywordHits(text string, keywords map[string]bool) int {
	hits := 0
	for keyword := range keywords {
		if strings.Contains(text, keyword) {
			hits++
		}
	}
	return hits
}
