package seed

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/meridianhq/meridian/internal/models"
	"github.com/meridianhq/meridian/internal/persistence"
)

var allowedMetals = map[string]bool{"gold": true, "silver": true, "copper": true}

// allowedCategories must all be present in every metals file.
var allowedCategories = []string{"supply_chain", "use_cases", "patterns", "correlations", "actors"}

type metalsFile struct {
	Metal      string         `json:"metal"`
	Categories map[string]any `json:"categories"`
}

// LoadMetalFiles parses and validates every *.json metals file in dir.
// Each file yields one entry per category.
func LoadMetalFiles(dir string) ([]models.MetalsKnowledge, error) {
	paths, err := jsonFiles(dir)
	if err != nil {
		return nil, err
	}
	var entries []models.MetalsKnowledge
	for _, path := range paths {
		fileEntries, err := loadMetalsFile(path)
		if err != nil {
			return nil, err
		}
		entries = append(entries, fileEntries...)
	}
	return entries, nil
}

// Metals seeds every metals file in dir, upserting on (metal, category).
// Returns the number of entries written.
func Metals(ctx context.Context, repo persistence.MetalsRepo, dir string) (int, error) {
	entries, err := LoadMetalFiles(dir)
	if err != nil {
		return 0, err
	}
	for _, entry := range entries {
		if err := repo.Upsert(ctx, entry); err != nil {
			return 0, fmt.Errorf("upsert %s/%s: %w", entry.Metal, entry.Category, err)
		}
	}
	log.Info().Int("entries", len(entries)).Str("dir", dir).Msg("metals knowledge seeded")
	return len(entries), nil
}

func loadMetalsFile(path string) ([]models.MetalsKnowledge, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	var payload metalsFile
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, fmt.Errorf("%s: payload must be a JSON object: %w", path, err)
	}

	if !allowedMetals[payload.Metal] {
		return nil, fmt.Errorf("%s: metal must be one of copper, gold, silver", path)
	}
	if len(payload.Categories) == 0 {
		return nil, fmt.Errorf("%s: categories must be a non-empty object", path)
	}

	known := make(map[string]bool, len(allowedCategories))
	for _, category := range allowedCategories {
		known[category] = true
	}
	var unknown, missing []string
	for category := range payload.Categories {
		if !known[category] {
			unknown = append(unknown, category)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return nil, fmt.Errorf("%s: unknown categories: %s", path, strings.Join(unknown, ", "))
	}
	for _, category := range allowedCategories {
		if _, ok := payload.Categories[category]; !ok {
			missing = append(missing, category)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return nil, fmt.Errorf("%s: missing categories: %s", path, strings.Join(missing, ", "))
	}

	entries := make([]models.MetalsKnowledge, 0, len(allowedCategories))
	for _, category := range allowedCategories {
		content := payload.Categories[category]
		switch content.(type) {
		case map[string]any, []any:
		default:
			return nil, fmt.Errorf("%s: category %q must be an object or list", path, category)
		}
		entries = append(entries, models.MetalsKnowledge{
			Metal:    payload.Metal,
			Category: category,
			Content:  content,
		})
	}
	return entries, nil
}
