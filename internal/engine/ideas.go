package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"architect/internal/domain"
	"architect/internal/events"
	"architect/internal/generator"
	"architect/internal/lifecycle"
	"architect/internal/scoring"
)

// IdeaInput is a draft submitted to the decision gate.
type IdeaInput struct {
	Title   string
	Content string
	GoalID  string
}

// SubmitIdea scores a draft against its goal and records it as GATED.
// Nothing is written if validation or the generator fails.
func (e *Engine) SubmitIdea(ctx context.Context, in IdeaInput) (domain.Idea, error) {
	title, content, goalID := clean(in.Title), clean(in.Content), clean(in.GoalID)
	switch {
	case title == "":
		return domain.Idea{}, fmt.Errorf("%w: title is required", ErrValidation)
	case content == "":
		return domain.Idea{}, fmt.Errorf("%w: content is required", ErrValidation)
	case goalID == "":
		return domain.Idea{}, fmt.Errorf("%w: goalId is required", ErrValidation)
	}

	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return domain.Idea{}, ErrSessionClosed
	}
	gi := e.goalIndex(goalID)
	if gi < 0 {
		e.mu.Unlock()
		return domain.Idea{}, fmt.Errorf("%w: goalId: goal %s: %w", ErrValidation, goalID, ErrNotFound)
	}
	goal := e.goals[gi]
	release, err := e.acquire(goalID+"\x00"+title+"\x00"+content, generator.OpEvaluate)
	e.mu.Unlock()
	if err != nil {
		return domain.Idea{}, err
	}
	defer release()

	var reported domain.CDFScore
	err = e.callGenerator(ctx, generator.OpEvaluate, "", func(ctx context.Context) error {
		var err error
		reported, err = e.gen.Evaluate(ctx, content, goal.Description)
		return err
	})
	if err != nil {
		return domain.Idea{}, err
	}

	score, err := scoring.Check(reported, e.weights, e.threshold)
	var mismatch scoring.Mismatch
	if errors.As(err, &mismatch) {
		e.metrics.GateMismatches.Inc()
		e.logger.WarnContext(ctx, "generator decision disagrees with local score",
			"goal_id", goalID, "reported", mismatch.Reported.Decision, "computed", mismatch.Computed.Decision,
			"reported_total", mismatch.Reported.TotalScore, "computed_total", mismatch.Computed.TotalScore)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		e.logger.InfoContext(ctx, "discarding evaluation for closed session", "goal_id", goalID)
		return domain.Idea{}, ErrSessionClosed
	}
	now := e.now()
	gid := goalID
	idea := domain.Idea{
		ID:        uuid.NewString(),
		Title:     title,
		Content:   content,
		Status:    domain.StatusGated,
		GoalID:    &gid,
		CDFScore:  &score,
		CreatedAt: now.UTC().Format(time.RFC3339),
	}
	ideas := append([]domain.Idea{idea}, e.ideas...)
	evt := events.Build(now, domain.EventIdeaCreated, domain.EntityIdea, idea.ID, idea.Clone())
	if err := e.commit(ctx, e.goals, ideas, evt); err != nil {
		return domain.Idea{}, err
	}
	e.metrics.GateDecisions.WithLabelValues(string(score.Decision)).Inc()
	e.metrics.GateScore.Observe(score.TotalScore)
	e.metrics.Transitions.WithLabelValues(string(domain.StatusGated)).Inc()
	e.logger.InfoContext(ctx, "idea gated", "idea_id", idea.ID, "total", score.TotalScore, "decision", score.Decision)
	return idea.Clone(), nil
}

// TransitionIdea applies a user action. Produce is only reachable through
// GenerateBrief.
func (e *Engine) TransitionIdea(ctx context.Context, id string, action lifecycle.Action) (domain.Idea, error) {
	if action == lifecycle.ActionProduce {
		return domain.Idea{}, fmt.Errorf("%w: produce happens when a brief is generated", lifecycle.ErrInvalidTransition)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return domain.Idea{}, ErrSessionClosed
	}
	i := e.ideaIndex(id)
	if i < 0 {
		return domain.Idea{}, fmt.Errorf("idea %s: %w", id, ErrNotFound)
	}
	current := e.ideas[i]
	update, err := lifecycle.Plan(current, action)
	if err != nil {
		return domain.Idea{}, err
	}
	next := lifecycle.Merge(current, update)
	evt := events.Build(e.now(), domain.EventIdeaUpdated, domain.EntityIdea, id, updatePayload(id, update))
	if err := e.commit(ctx, e.goals, replaceIdea(e.ideas, i, next), evt); err != nil {
		return domain.Idea{}, err
	}
	e.metrics.Transitions.WithLabelValues(string(next.Status)).Inc()
	e.logger.InfoContext(ctx, "idea transitioned", "idea_id", id, "action", action, "from", current.Status, "to", next.Status)
	return next.Clone(), nil
}

// updatePayload is the IDEA_UPDATED payload: the id plus the updated fields.
func updatePayload(id string, u domain.IdeaUpdate) map[string]any {
	p := map[string]any{"id": id}
	if u.Status != nil {
		p["status"] = *u.Status
	}
	if u.CDFScore != nil {
		p["cdfScore"] = *u.CDFScore
	}
	if u.Variants != nil {
		p["variants"] = u.Variants
	}
	if u.Brief != nil {
		p["brief"] = *u.Brief
	}
	return p
}
