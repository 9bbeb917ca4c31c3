package repo_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"architect/internal/db"
	"architect/internal/domain"
	"architect/internal/events"
	"architect/internal/migrate"
	"architect/internal/repo"
)

func newTestRepo(t *testing.T) repo.Repo {
	t.Helper()
	conn, err := db.Open(db.Config{Workspace: t.TempDir()})
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	_, err = migrate.Migrate(context.Background(), conn)
	require.NoError(t, err)
	r := repo.New(conn)
	r.Now = func() time.Time { return time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC) }
	return r
}

func TestLoadEmptyWorkspace(t *testing.T) {
	r := newTestRepo(t)
	snap, err := r.Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, snap.Goals)
	assert.Empty(t, snap.Ideas)
	assert.Empty(t, snap.Events)
	assert.NotNil(t, snap.Goals)
}

func TestSaveOverwritesSlots(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	goalID := "g1"

	goals := []domain.Goal{{ID: goalID, Title: "Grow", Description: "grow reach"}}
	ideas := []domain.Idea{{
		ID: "i1", Title: "X", Content: "Y", Status: domain.StatusGated, GoalID: &goalID,
		CDFScore: &domain.CDFScore{Alignment: 0.9, TotalScore: 0.75, Decision: domain.DecisionStart},
		Variants: []domain.Variant{},
	}}
	evt1 := events.Build(now, domain.EventIdeaCreated, domain.EntityIdea, "i1", ideas[0])
	require.NoError(t, r.Save(ctx, goals, ideas, evt1))

	ideas[0].Status = domain.StatusArchived
	evt2 := events.Build(now.Add(time.Second), domain.EventIdeaUpdated, domain.EntityIdea, "i1", map[string]any{"id": "i1", "status": domain.StatusArchived})
	require.NoError(t, r.Save(ctx, goals, ideas, evt2))

	snap, err := r.Load(ctx)
	require.NoError(t, err)
	require.Len(t, snap.Goals, 1)
	require.Len(t, snap.Ideas, 1)
	assert.Equal(t, domain.StatusArchived, snap.Ideas[0].Status)
	assert.Equal(t, 0.75, snap.Ideas[0].CDFScore.TotalScore)
	assert.True(t, snap.Ideas[0].HasVariants())
	require.NotNil(t, snap.Ideas[0].GoalID)
	assert.Equal(t, goalID, *snap.Ideas[0].GoalID)

	require.Len(t, snap.Events, 2)
	assert.Equal(t, evt2.ID, snap.Events[0].ID)
	assert.Equal(t, evt1.ID, snap.Events[1].ID)
	assert.Equal(t, "i1", snap.Events[0].EntityID)

	raw, ok := snap.Events[0].Payload.(json.RawMessage)
	require.True(t, ok)
	assert.JSONEq(t, `{"id":"i1","status":"ARCHIVED"}`, string(raw))
}

func TestSaveRollsBackOnJournalFailure(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()
	evt := events.Build(time.Now(), domain.EventGoalCreated, domain.EntityGoal, "g1", nil)
	require.NoError(t, r.Save(ctx, []domain.Goal{{ID: "g1"}}, nil, evt))

	// same event id violates the journal's unique constraint
	err := r.Save(ctx, []domain.Goal{{ID: "g1"}, {ID: "g2"}}, nil, evt)
	require.Error(t, err)

	snap, err := r.Load(ctx)
	require.NoError(t, err)
	assert.Len(t, snap.Goals, 1)
	assert.Len(t, snap.Events, 1)
}

func TestLatestEventsFilters(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()
	now := time.Now()
	for _, evt := range []domain.AnalyticsEvent{
		events.Build(now, domain.EventGoalCreated, domain.EntityGoal, "g1", nil),
		events.Build(now, domain.EventIdeaCreated, domain.EntityIdea, "i1", nil),
		events.Build(now, domain.EventIdeaUpdated, domain.EntityIdea, "i1", nil),
		events.Build(now, domain.EventIdeaCreated, domain.EntityIdea, "i2", nil),
	} {
		require.NoError(t, r.Save(ctx, nil, nil, evt))
	}

	got, err := r.LatestEvents(ctx, repo.EventFilter{EntityID: "i1"})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, domain.EventIdeaUpdated, got[0].Type)

	got, err = r.LatestEvents(ctx, repo.EventFilter{Type: domain.EventIdeaCreated, Limit: 1})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "i2", got[0].EntityID)

	got, err = r.LatestEvents(ctx, repo.EventFilter{EntityKind: domain.EntityGoal})
	require.NoError(t, err)
	assert.Len(t, got, 1)
}
