// Package seed loads the curated knowledge files (historical cases, the
// metals knowledge base, and precomputed case embeddings) and upserts
// them through the persistence layer. Validation is strict: a malformed
// file fails the whole seed run rather than writing partial rows.
package seed

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/meridianhq/meridian/internal/models"
	"github.com/meridianhq/meridian/internal/persistence"
)

// caseRequiredFields must all be present in every case file.
var caseRequiredFields = []string{
	"event_name",
	"date_range",
	"event_type",
	"significance_score",
	"structural_drivers",
	"metal_impacts",
	"traditional_market_reaction",
	"crypto_reaction",
	"crypto_transmission",
	"time_delays",
	"lessons",
	"counter_examples",
}

// metalKeys must each appear in a case's metal_impacts.
var metalKeys = []string{"gold", "silver", "copper"}

// LoadCaseFiles parses and validates every *.json case file in dir,
// sorted by name.
func LoadCaseFiles(dir string) ([]models.HistoricalCase, error) {
	paths, err := jsonFiles(dir)
	if err != nil {
		return nil, err
	}
	cases := make([]models.HistoricalCase, 0, len(paths))
	for _, path := range paths {
		c, err := loadCaseFile(path)
		if err != nil {
			return nil, err
		}
		cases = append(cases, *c)
	}
	return cases, nil
}

// Cases seeds every case file in dir, upserting on (event_name,
// date_range). Returns the number of cases written.
func Cases(ctx context.Context, repo persistence.CasesRepo, dir string) (int, error) {
	cases, err := LoadCaseFiles(dir)
	if err != nil {
		return 0, err
	}
	for _, c := range cases {
		if err := repo.Upsert(ctx, c); err != nil {
			return 0, fmt.Errorf("upsert case %q: %w", c.EventName, err)
		}
	}
	log.Info().Int("cases", len(cases)).Str("dir", dir).Msg("historical cases seeded")
	return len(cases), nil
}

func loadCaseFile(path string) (*models.HistoricalCase, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	var payload map[string]any
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, fmt.Errorf("%s: payload must be a JSON object: %w", path, err)
	}
	if err := validateCasePayload(payload, path); err != nil {
		return nil, err
	}

	var c models.HistoricalCase
	if err := json.Unmarshal(raw, &c); err != nil {
		return nil, fmt.Errorf("%s: decode case: %w", path, err)
	}
	if c.Embedding != nil {
		if err := CheckEmbedding(c.Embedding); err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
	}
	return &c, nil
}

func validateCasePayload(payload map[string]any, path string) error {
	var missing []string
	for _, field := range caseRequiredFields {
		if _, ok := payload[field]; !ok {
			missing = append(missing, field)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return fmt.Errorf("%s: missing required fields: %s", path, strings.Join(missing, ", "))
	}

	for _, field := range []string{"event_name", "date_range", "event_type"} {
		if err := requireString(payload, field, path); err != nil {
			return err
		}
	}
	if err := requireInt(payload, "significance_score", path); err != nil {
		return err
	}
	for _, field := range []string{"structural_drivers", "traditional_market_reaction", "time_delays", "lessons"} {
		if err := requireStringList(payload, field, path, false); err != nil {
			return err
		}
	}
	// These two are legitimately empty for metals-only episodes.
	for _, field := range []string{"crypto_reaction", "counter_examples"} {
		if err := requireStringList(payload, field, path, true); err != nil {
			return err
		}
	}

	impacts, err := requireObject(payload, "metal_impacts", path)
	if err != nil {
		return err
	}
	if err := validateMetalImpacts(impacts, path); err != nil {
		return err
	}

	transmission, err := requireObject(payload, "crypto_transmission", path)
	if err != nil {
		return err
	}
	return validateCryptoTransmission(transmission, path)
}

func validateMetalImpacts(impacts map[string]any, path string) error {
	for _, metal := range metalKeys {
		entry, ok := impacts[metal].(map[string]any)
		if !ok {
			return fmt.Errorf("%s: metal_impacts.%s must be an object", path, metal)
		}
		for _, key := range []string{"direction", "magnitude", "driver"} {
			value, _ := entry[key].(string)
			if strings.TrimSpace(value) == "" {
				return fmt.Errorf("%s: metal_impacts.%s.%s must be a non-empty string", path, metal, key)
			}
		}
	}
	return nil
}

func validateCryptoTransmission(transmission map[string]any, path string) error {
	if _, ok := transmission["exists"].(bool); !ok {
		return fmt.Errorf("%s: crypto_transmission.exists must be boolean", path)
	}
	for _, key := range []string{"path", "strength"} {
		if _, ok := transmission[key].(string); !ok {
			return fmt.Errorf("%s: crypto_transmission.%s must be a string", path, key)
		}
	}
	return nil
}

func jsonFiles(dir string) ([]string, error) {
	if _, err := os.Stat(dir); err != nil {
		return nil, fmt.Errorf("seed directory %s: %w", dir, err)
	}
	paths, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil {
		return nil, err
	}
	sort.Strings(paths)
	return paths, nil
}

func requireString(payload map[string]any, field, path string) error {
	value, _ := payload[field].(string)
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("%s: field %q must be a non-empty string", path, field)
	}
	return nil
}

func requireInt(payload map[string]any, field, path string) error {
	value, ok := payload[field].(float64)
	if !ok || value != float64(int(value)) {
		return fmt.Errorf("%s: field %q must be an integer", path, field)
	}
	return nil
}

func requireStringList(payload map[string]any, field, path string, allowEmpty bool) error {
	list, ok := payload[field].([]any)
	if !ok {
		return fmt.Errorf("%s: field %q must be a list of strings", path, field)
	}
	for _, item := range list {
		if _, ok := item.(string); !ok {
			return fmt.Errorf("%s: field %q must be a list of strings", path, field)
		}
	}
	if len(list) == 0 && !allowEmpty {
		return fmt.Errorf("%s: field %q must be a non-empty list", path, field)
	}
	return nil
}

func requireObject(payload map[string]any, field, path string) (map[string]any, error) {
	obj, ok := payload[field].(map[string]any)
	if !ok || len(obj) == 0 {
		return nil, fmt.Errorf("%s: field %q must be a non-empty object", path, field)
	}
	return obj, nil
}
