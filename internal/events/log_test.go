package events_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"architect/internal/domain"
	"architect/internal/events"
)

func fixedClock() func() time.Time {
	base := time.Date(2026, 1, 2, 3, 4, 5, 6_000_000, time.UTC)
	n := 0
	return func() time.Time {
		n++
		return base.Add(time.Duration(n) * time.Millisecond)
	}
}

func TestBuildStampsEvent(t *testing.T) {
	now := time.Date(2026, 1, 2, 3, 4, 5, 6_000_000, time.UTC)
	evt := events.Build(now, domain.EventIdeaCreated, domain.EntityIdea, "idea-1", map[string]string{"title": "x"})
	assert.NotEmpty(t, evt.ID)
	assert.Equal(t, "EVT_1767323045006", evt.EventID)
	assert.Equal(t, "2026-01-02T03:04:05.006Z", evt.Timestamp)
	assert.Equal(t, domain.EventIdeaCreated, evt.Type)
	assert.Equal(t, "idea-1", evt.EntityID)
}

func TestLogNewestFirst(t *testing.T) {
	l := &events.Log{Now: fixedClock()}
	first := l.Append(domain.EventGoalCreated, nil)
	second := l.Append(domain.EventIdeaCreated, nil)

	got := l.List(events.Filter{})
	require.Len(t, got, 2)
	assert.Equal(t, second.ID, got[0].ID)
	assert.Equal(t, first.ID, got[1].ID)
	assert.NotEqual(t, first.ID, second.ID)
}

func TestLogFilterAndLimit(t *testing.T) {
	l := &events.Log{Now: fixedClock()}
	now := time.Now()
	l.Push(events.Build(now, domain.EventIdeaCreated, domain.EntityIdea, "a", nil))
	l.Push(events.Build(now, domain.EventIdeaUpdated, domain.EntityIdea, "a", nil))
	l.Push(events.Build(now, domain.EventIdeaCreated, domain.EntityIdea, "b", nil))
	l.Push(events.Build(now, domain.EventGoalCreated, domain.EntityGoal, "g", nil))

	assert.Len(t, l.List(events.Filter{Type: domain.EventIdeaCreated}), 2)
	assert.Len(t, l.List(events.Filter{EntityID: "a"}), 2)
	assert.Len(t, l.List(events.Filter{EntityKind: domain.EntityGoal}), 1)
	assert.Len(t, l.List(events.Filter{Limit: 3}), 3)
	assert.Empty(t, l.List(events.Filter{EntityID: "missing"}))
	assert.Equal(t, 4, l.Len())
	assert.Equal(t, map[string]int{
		domain.EventIdeaCreated: 2,
		domain.EventIdeaUpdated: 1,
		domain.EventGoalCreated: 1,
	}, l.CountByType())
}

func TestLogRestoreCopies(t *testing.T) {
	src := []domain.AnalyticsEvent{{ID: "2"}, {ID: "1"}}
	l := &events.Log{}
	l.Restore(src)
	src[0].ID = "changed"
	got := l.List(events.Filter{})
	require.Len(t, got, 2)
	assert.Equal(t, "2", got[0].ID)
}
