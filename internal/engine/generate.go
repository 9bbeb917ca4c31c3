package engine

import (
	"context"
	"fmt"

	"architect/internal/domain"
	"architect/internal/events"
	"architect/internal/generator"
	"architect/internal/lifecycle"
)

// GenerateVariants runs the ideation step for an approved idea. The status
// does not change.
func (e *Engine) GenerateVariants(ctx context.Context, id string) (domain.Idea, error) {
	idea, release, err := e.begin(id, generator.OpVariants, lifecycle.EnsureCanGenerateVariants)
	if err != nil {
		return domain.Idea{}, err
	}
	defer release()

	var variants []domain.Variant
	err = e.callGenerator(ctx, generator.OpVariants, id, func(ctx context.Context) error {
		var err error
		variants, err = e.gen.GenerateVariants(ctx, idea.Content)
		return err
	})
	if err != nil {
		return domain.Idea{}, err
	}
	if variants == nil {
		variants = []domain.Variant{}
	}
	return e.finish(ctx, id, generator.OpVariants, func(current domain.Idea) (domain.IdeaUpdate, error) {
		if err := lifecycle.EnsureCanGenerateVariants(current); err != nil {
			return domain.IdeaUpdate{}, err
		}
		return domain.IdeaUpdate{Variants: variants}, nil
	})
}

// GenerateBrief produces a brief for an approved idea and moves it to
// PRODUCTION.
func (e *Engine) GenerateBrief(ctx context.Context, id string) (domain.Idea, error) {
	canProduce := func(i domain.Idea) error {
		_, err := lifecycle.Plan(i, lifecycle.ActionProduce)
		return err
	}
	idea, release, err := e.begin(id, generator.OpBrief, canProduce)
	if err != nil {
		return domain.Idea{}, err
	}
	defer release()

	var brief domain.ProductionBrief
	err = e.callGenerator(ctx, generator.OpBrief, id, func(ctx context.Context) error {
		var err error
		brief, err = e.gen.GenerateBrief(ctx, idea.Content)
		return err
	})
	if err != nil {
		return domain.Idea{}, err
	}
	return e.finish(ctx, id, generator.OpBrief, func(current domain.Idea) (domain.IdeaUpdate, error) {
		update, err := lifecycle.Plan(current, lifecycle.ActionProduce)
		if err != nil {
			return domain.IdeaUpdate{}, err
		}
		update.Brief = &brief
		return update, nil
	})
}

// begin checks the idea under the lock and marks op in flight.
func (e *Engine) begin(id string, op generator.Op, check func(domain.Idea) error) (domain.Idea, func(), error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return domain.Idea{}, nil, ErrSessionClosed
	}
	i := e.ideaIndex(id)
	if i < 0 {
		return domain.Idea{}, nil, fmt.Errorf("idea %s: %w", id, ErrNotFound)
	}
	idea := e.ideas[i]
	if err := check(idea); err != nil {
		return domain.Idea{}, nil, err
	}
	release, err := e.acquire(id, op)
	if err != nil {
		return domain.Idea{}, nil, err
	}
	return idea, release, nil
}

// finish re-reads the idea after the generator returned, since it may have
// moved meanwhile, and commits the update plan produces.
func (e *Engine) finish(ctx context.Context, id string, op generator.Op, plan func(domain.Idea) (domain.IdeaUpdate, error)) (domain.Idea, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		e.logger.InfoContext(ctx, "discarding generator response for closed session", "op", op, "idea_id", id)
		return domain.Idea{}, ErrSessionClosed
	}
	i := e.ideaIndex(id)
	if i < 0 {
		return domain.Idea{}, fmt.Errorf("idea %s: %w", id, ErrNotFound)
	}
	current := e.ideas[i]
	update, err := plan(current)
	if err != nil {
		e.logger.WarnContext(ctx, "idea changed while generating", "op", op, "idea_id", id, "status", current.Status, "error", err)
		return domain.Idea{}, err
	}
	next := lifecycle.Merge(current, update)
	evt := events.Build(e.now(), domain.EventIdeaUpdated, domain.EntityIdea, id, updatePayload(id, update))
	if err := e.commit(ctx, e.goals, replaceIdea(e.ideas, i, next), evt); err != nil {
		return domain.Idea{}, err
	}
	if next.Status != current.Status {
		e.metrics.Transitions.WithLabelValues(string(next.Status)).Inc()
	}
	e.logger.InfoContext(ctx, "idea content generated", "op", op, "idea_id", id, "status", next.Status)
	return next.Clone(), nil
}
