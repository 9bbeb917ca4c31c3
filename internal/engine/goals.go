package engine

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/text/unicode/norm"

	"architect/internal/domain"
	"architect/internal/events"
)

// GoalInput are the fields of a new goal.
type GoalInput struct {
	Title        string
	Description  string
	TargetMetric string
	// Deadline is optional, formatted YYYY-MM-DD.
	Deadline string
}

func clean(s string) string {
	return strings.TrimSpace(norm.NFC.String(s))
}

func (e *Engine) CreateGoal(ctx context.Context, in GoalInput) (domain.Goal, error) {
	g := domain.Goal{
		Title:        clean(in.Title),
		Description:  clean(in.Description),
		TargetMetric: clean(in.TargetMetric),
		Deadline:     strings.TrimSpace(in.Deadline),
	}
	if g.Title == "" {
		return domain.Goal{}, fmt.Errorf("%w: title is required", ErrValidation)
	}
	if g.Deadline != "" {
		if _, err := time.Parse(time.DateOnly, g.Deadline); err != nil {
			return domain.Goal{}, fmt.Errorf("%w: deadline must be YYYY-MM-DD", ErrValidation)
		}
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return domain.Goal{}, ErrSessionClosed
	}
	now := e.now()
	g.ID = uuid.NewString()
	g.CreatedAt = now.UTC().Format(time.RFC3339)

	goals := append([]domain.Goal{g}, e.goals...)
	evt := events.Build(now, domain.EventGoalCreated, domain.EntityGoal, g.ID, g)
	if err := e.commit(ctx, goals, e.ideas, evt); err != nil {
		return domain.Goal{}, err
	}
	e.logger.InfoContext(ctx, "goal created", "goal_id", g.ID, "title", g.Title)
	return g, nil
}

// Goals returns every goal, newest first.
func (e *Engine) Goals() []domain.Goal {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]domain.Goal{}, e.goals...)
}

func (e *Engine) Goal(id string) (domain.Goal, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	i := e.goalIndex(id)
	if i < 0 {
		return domain.Goal{}, fmt.Errorf("goal %s: %w", id, ErrNotFound)
	}
	return e.goals[i], nil
}
