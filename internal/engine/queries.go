package engine

import (
	"fmt"
	"slices"
	"time"

	"architect/internal/domain"
	"architect/internal/events"
	"architect/internal/scoring"
)

// PipelineStatuses are the statuses shown in the production pipeline.
var PipelineStatuses = []domain.IdeaStatus{domain.StatusApproved, domain.StatusProduction, domain.StatusScheduled}

type IdeaFilter struct {
	Statuses []domain.IdeaStatus
	GoalID   string
}

// Ideas returns matching ideas, newest first.
func (e *Engine) Ideas(f IdeaFilter) []domain.Idea {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := []domain.Idea{}
	for _, idea := range e.ideas {
		if len(f.Statuses) > 0 && !slices.Contains(f.Statuses, idea.Status) {
			continue
		}
		if f.GoalID != "" && (idea.GoalID == nil || *idea.GoalID != f.GoalID) {
			continue
		}
		out = append(out, idea.Clone())
	}
	return out
}

func (e *Engine) Idea(id string) (domain.Idea, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	i := e.ideaIndex(id)
	if i < 0 {
		return domain.Idea{}, fmt.Errorf("idea %s: %w", id, ErrNotFound)
	}
	return e.ideas[i].Clone(), nil
}

// Events returns the history, newest first.
func (e *Engine) Events(f events.Filter) []domain.AnalyticsEvent {
	return e.log.List(f)
}

// EventCount is the length of the history.
func (e *Engine) EventCount() int {
	return e.log.Len()
}

type DayCount struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

type Stats struct {
	Goals         int                       `json:"goals"`
	Ideas         int                       `json:"ideas"`
	Events        int                       `json:"events"`
	EventsByType  map[string]int            `json:"eventsByType"`
	IdeasByStatus map[domain.IdeaStatus]int `json:"ideasByStatus"`
	// EventsPerDay covers the last seven days, oldest first.
	EventsPerDay  []DayCount                `json:"eventsPerDay"`
	Decisions     map[domain.Decision]int   `json:"decisions"`
	AverageScore  float64                   `json:"averageScore"`
}

// Stats aggregates the session for the analytics summary.
func (e *Engine) Stats() Stats {
	e.mu.Lock()
	goals, ideas := len(e.goals), append([]domain.Idea(nil), e.ideas...)
	e.mu.Unlock()

	st := Stats{
		Goals:         goals,
		Ideas:         len(ideas),
		EventsByType:  e.log.CountByType(),
		IdeasByStatus: map[domain.IdeaStatus]int{},
		Decisions:     map[domain.Decision]int{},
	}
	var scored int
	var total float64
	for _, idea := range ideas {
		st.IdeasByStatus[idea.Status]++
		if idea.CDFScore != nil {
			st.Decisions[idea.CDFScore.Decision]++
			total += idea.CDFScore.TotalScore
			scored++
		}
	}
	if scored > 0 {
		st.AverageScore = total / float64(scored)
	}

	all := e.log.List(events.Filter{})
	st.Events = len(all)
	today := e.now().UTC().Truncate(24 * time.Hour)
	index := map[string]int{}
	for d := 6; d >= 0; d-- {
		day := today.AddDate(0, 0, -d).Format(time.DateOnly)
		index[day] = len(st.EventsPerDay)
		st.EventsPerDay = append(st.EventsPerDay, DayCount{Date: day})
	}
	for _, evt := range all {
		ts, err := time.Parse(time.RFC3339, evt.Timestamp)
		if err != nil {
			continue
		}
		if n, ok := index[ts.UTC().Format(time.DateOnly)]; ok {
			st.EventsPerDay[n].Count++
		}
	}
	return st
}

// Score runs the decision gate with the session's weights and threshold.
func (e *Engine) Score(s scoring.SubScores, rationale string) domain.CDFScore {
	return scoring.Score(s, e.weights, e.threshold, rationale)
}

// Weights returns the session's scoring weights and threshold.
func (e *Engine) Weights() (scoring.Weights, float64) {
	return e.weights, e.threshold
}
