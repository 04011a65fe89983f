package historical

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meridianhq/meridian/internal/models"
)

type stubCasesRepo struct {
	cases      []models.HistoricalCase
	similar    []models.HistoricalMatch
	similarErr error
	allCalled  bool
}

func (s *stubCasesRepo) Upsert(context.Context, models.HistoricalCase) error { return nil }

func (s *stubCasesRepo) All(context.Context) ([]models.HistoricalCase, error) {
	s.allCalled = true
	return s.cases, nil
}

func (s *stubCasesRepo) SimilarByEmbedding(context.Context, []float32, int) ([]models.HistoricalMatch, error) {
	return s.similar, s.similarErr
}

func (s *stubCasesRepo) TopByEventType(context.Context, string, int) ([]models.HistoricalCase, error) {
	return nil, nil
}

func (s *stubCasesRepo) UpdateEmbedding(context.Context, string, string, []float32) (bool, error) {
	return false, nil
}

func strPtr(s string) *string { return &s }
func intPtr(i int) *int       { return &i }

func libraryFixture() []models.HistoricalCase {
	return []models.HistoricalCase{
		{
			EventName:         "2022 Russia invasion of Ukraine",
			DateRange:         "2022-02 to 2022-06",
			EventType:         strPtr("geopolitical"),
			SignificanceScore: intPtr(92),
			StructuralDrivers: []string{"oil and gas supply shock", "sanctions regime"},
			Lessons:           []string{"commodity spikes fade once supply reroutes"},
		},
		{
			EventName:         "2013 taper tantrum",
			DateRange:         "2013-05 to 2013-09",
			EventType:         strPtr("monetary_policy"),
			SignificanceScore: intPtr(75),
			Lessons:           []string{"rate shock hits EM hardest"},
		},
		{
			EventName:         "2008 global financial crisis",
			DateRange:         "2008-09 to 2009-03",
			EventType:         strPtr("financial_crisis"),
			SignificanceScore: intPtr(98),
			StructuralDrivers: []string{"bank solvency", "credit freeze"},
		},
	}
}

func TestFindPrefersEmbeddingPath(t *testing.T) {
	distance := 0.2
	repo := &stubCasesRepo{
		similar: []models.HistoricalMatch{
			{EventName: "2008 global financial crisis", MatchMethod: "embedding", Distance: &distance},
		},
	}
	m := NewMatcher(repo)

	matches, err := m.Find(context.Background(), Query{
		EventText: "bank failure",
		Embedding: make([]float32, 1536),
	})
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "embedding", matches[0].MatchMethod)
	assert.False(t, repo.allCalled)
}

func TestFindFallsBackWhenNoEmbeddedCases(t *testing.T) {
	repo := &stubCasesRepo{cases: libraryFixture()}
	m := NewMatcher(repo)

	matches, err := m.Find(context.Background(), Query{
		EventText: "oil sanctions after invasion",
		EventType: "geopolitical",
		Embedding: make([]float32, 1536),
	})
	require.NoError(t, err)
	require.NotEmpty(t, matches)
	assert.True(t, repo.allCalled)
	assert.Equal(t, "fallback", matches[0].MatchMethod)
	assert.Equal(t, "2022 Russia invasion of Ukraine", matches[0].EventName)
}

func TestFindSurfacesSimilarityError(t *testing.T) {
	repo := &stubCasesRepo{similarErr: errors.New("connection refused")}
	m := NewMatcher(repo)

	_, err := m.Find(context.Background(), Query{Embedding: make([]float32, 1536)})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "embedding similarity")
}

func TestRankKeywordOverlapAndBoost(t *testing.T) {
	matches := Rank(libraryFixture(), "oil sanctions hit supply", "geopolitical", 3)
	require.Len(t, matches, 3)

	// "oil", "sanctions", "supply" all hit the invasion case text, plus
	// the event-type boost.
	assert.Equal(t, "2022 Russia invasion of Ukraine", matches[0].EventName)
	assert.Equal(t, 8, *matches[0].MatchScore)
	assert.Equal(t, "fallback", matches[0].MatchMethod)
}

func TestRankTiesBreakOnSignificanceThenName(t *testing.T) {
	matches := Rank(libraryFixture(), "", "", 3)
	require.Len(t, matches, 3)
	// Zero keyword overlap everywhere: significance decides.
	assert.Equal(t, "2008 global financial crisis", matches[0].EventName)
	assert.Equal(t, "2022 Russia invasion of Ukraine", matches[1].EventName)
	assert.Equal(t, "2013 taper tantrum", matches[2].EventName)
}

func TestRankRespectsLimit(t *testing.T) {
	matches := Rank(libraryFixture(), "", "", 1)
	assert.Len(t, matches, 1)
}

func TestRankEmptyLibrary(t *testing.T) {
	assert.Nil(t, Rank(nil, "anything", "geopolitical", 5))
}

func TestExtractKeywords(t *testing.T) {
	keywords := ExtractKeywords("The Fed hikes rates by 75bps at an emergency meeting")
	assert.True(t, keywords["fed"])
	assert.True(t, keywords["hikes"])
	assert.True(t, keywords["75bps"])
	assert.True(t, keywords["emergency"])
	// Stopwords and short tokens dropped.
	assert.False(t, keywords["the"])
	assert.False(t, keywords["by"])
	assert.False(t, keywords["at"])
	assert.False(t, keywords["an"])
}
