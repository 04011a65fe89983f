package seed

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/meridianhq/meridian/internal/persistence"
)

// EmbeddingDim is the fixed width of case embeddings, matching the
// vector column.
const EmbeddingDim = 1536

// EmbeddingUpdate targets one stored case by its natural key.
type EmbeddingUpdate struct {
	EventName string    `json:"event_name"`
	DateRange string    `json:"date_range"`
	Embedding []float32 `json:"embedding"`
}

// CheckEmbedding validates the vector width.
func CheckEmbedding(embedding []float32) error {
	if len(embedding) != EmbeddingDim {
		return fmt.Errorf("embedding must have %d dimensions, got %d", EmbeddingDim, len(embedding))
	}
	return nil
}

// LoadEmbeddings parses and validates an embeddings file: a non-empty
// list of {event_name, date_range, embedding}.
func LoadEmbeddings(path string) ([]EmbeddingUpdate, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	var updates []EmbeddingUpdate
	if err := json.Unmarshal(raw, &updates); err != nil {
		return nil, fmt.Errorf("%s: embeddings file must be a list: %w", path, err)
	}
	if len(updates) == 0 {
		return nil, fmt.Errorf("%s: embeddings file must be a non-empty list", path)
	}
	for i, update := range updates {
		if strings.TrimSpace(update.EventName) == "" {
			return nil, fmt.Errorf("%s: entry %d missing event_name", path, i)
		}
		if strings.TrimSpace(update.DateRange) == "" {
			return nil, fmt.Errorf("%s: entry %d missing date_range", path, i)
		}
		if err := CheckEmbedding(update.Embedding); err != nil {
			return nil, fmt.Errorf("%s: entry %d: %w", path, i, err)
		}
	}
	return updates, nil
}

// Embeddings applies an embeddings file to the stored cases. Returns the
// number of cases actually updated; entries that match no stored case
// are logged and skipped.
func Embeddings(ctx context.Context, repo persistence.CasesRepo, path string) (int, error) {
	updates, err := LoadEmbeddings(path)
	if err != nil {
		return 0, err
	}
	updated := 0
	for _, update := range updates {
		matched, err := repo.UpdateEmbedding(ctx, update.EventName, update.DateRange, update.Embedding)
		if err != nil {
			return updated, fmt.Errorf("update embedding %q: %w", update.EventName, err)
		}
		if !matched {
			log.Warn().Str("event_name", update.EventName).Str("date_range", update.DateRange).
				Msg("embedding target not found")
			continue
		}
		updated++
	}
	log.Info().Int("updated", updated).Int("entries", len(updates)).Msg("case embeddings applied")
	return updated, nil
}
