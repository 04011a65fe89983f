package score

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meridianhq/meridian/internal/models"
	"github.com/meridianhq/meridian/internal/persistence"
)

type scoreUpdate struct {
	id         uuid.UUID
	total      int
	components map[string]int
	priority   bool
}

type stubEventsRepo struct {
	unscored  []models.MacroEvent
	listErr   error
	updateErr error

	gotLimit int
	updates  []scoreUpdate
}

func (s *stubEventsRepo) InsertIgnore(context.Context, models.MacroEvent) (bool, error) {
	return false, nil
}

func (s *stubEventsRepo) ListUnscored(_ context.Context, limit int) ([]models.MacroEvent, error) {
	s.gotLimit = limit
	return s.unscored, s.listErr
}

func (s *stubEventsRepo) UpdateScore(_ context.Context, id uuid.UUID, total int, components map[string]int, priority bool) error {
	if s.updateErr != nil {
		return s.updateErr
	}
	s.updates = append(s.updates, scoreUpdate{id: id, total: total, components: components, priority: priority})
	return nil
}

func (s *stubEventsRepo) ListPriorityUnanalyzed(context.Context, int) ([]models.MacroEvent, error) {
	return nil, nil
}

func (s *stubEventsRepo) ListPriority(context.Context, int) ([]models.MacroEvent, error) {
	return nil, nil
}

func (s *stubEventsRepo) GetByID(context.Context, uuid.UUID) (*models.MacroEvent, error) {
	return nil, nil
}

func (s *stubEventsRepo) UpdateAnalysis(context.Context, uuid.UUID, models.MacroEvent, bool) (bool, error) {
	return false, nil
}

func (s *stubEventsRepo) ListPriorityInWindow(context.Context, persistence.TimeRange, int) ([]models.MacroEvent, error) {
	return nil, nil
}

func unscoredFixture() []models.MacroEvent {
	hikeType := "monetary_policy"
	return []models.MacroEvent{
		{
			ID:        uuid.New(),
			Source:    "reuters",
			Headline:  "Fed announces emergency rate hike",
			EventType: &hikeType,
			Regions:   []string{"US"},
			Entities:  []string{"Federal Reserve"},
		},
		{
			ID:       uuid.New(),
			Source:   "google_news",
			Headline: "Quarterly housing report shows steady demand",
		},
	}
}

func TestPassScoresAndPersists(t *testing.T) {
	events := unscoredFixture()
	repo := &stubEventsRepo{unscored: events}

	result, err := NewPass(repo).Run(context.Background(), 50, false)
	require.NoError(t, err)
	assert.Equal(t, 50, repo.gotLimit)
	assert.Equal(t, PassResult{Scored: 2, Priority: 1, Logged: 1}, result)

	require.Len(t, repo.updates, 2)
	first := repo.updates[0]
	assert.Equal(t, events[0].ID, first.id)
	assert.Equal(t, 85, first.total)
	assert.True(t, first.priority)
	assert.Equal(t, map[string]int{
		"structural":   88,
		"transmission": 95,
		"historical":   70,
		"attention":    75,
	}, first.components)

	second := repo.updates[1]
	assert.Equal(t, 37, second.total)
	assert.False(t, second.priority)
}

func TestPassDryRunWritesNothing(t *testing.T) {
	repo := &stubEventsRepo{unscored: unscoredFixture()}

	result, err := NewPass(repo).Run(context.Background(), 0, true)
	require.NoError(t, err)
	assert.Equal(t, DefaultBatchLimit, repo.gotLimit)
	assert.Equal(t, PassResult{Scored: 2, Priority: 1, Logged: 1}, result)
	assert.Empty(t, repo.updates)
}

func TestPassPropagatesRepoErrors(t *testing.T) {
	listErr := errors.New("connection refused")
	_, err := NewPass(&stubEventsRepo{listErr: listErr}).Run(context.Background(), 10, false)
	require.Error(t, err)
	assert.ErrorIs(t, err, listErr)

	repo := &stubEventsRepo{unscored: unscoredFixture(), updateErr: errors.New("write failed")}
	result, err := NewPass(repo).Run(context.Background(), 10, false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "update score")
	assert.Equal(t, 0, result.Scored)
}

func TestInputForDereferencesOptionalColumns(t *testing.T) {
	fullText := "Gold rallied on the announcement."
	eventType := "supply_shock"
	in := InputFor(models.MacroEvent{
		Headline:  "Mine strike halts copper output",
		Source:    "ap",
		FullText:  &fullText,
		EventType: &eventType,
		Regions:   []string{"Chile"},
	})
	assert.Equal(t, fullText, in.FullText)
	assert.Equal(t, eventType, in.EventType)

	bare := InputFor(models.MacroEvent{Headline: "Headline only"})
	assert.Empty(t, bare.FullText)
	assert.Empty(t, bare.EventType)
}
