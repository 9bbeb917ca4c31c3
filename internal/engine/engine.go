// Package engine is the workspace session: it owns goals, ideas and the event
// log, and runs the three commands of the decision gate pipeline.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"architect/internal/config"
	"architect/internal/domain"
	"architect/internal/events"
	"architect/internal/generator"
	"architect/internal/metrics"
	"architect/internal/repo"
	"architect/internal/scoring"
)

var (
	ErrValidation    = errors.New("validation failed")
	ErrNotFound      = errors.New("not found")
	ErrInFlight      = errors.New("operation already in flight")
	ErrSessionClosed = errors.New("session closed")
	ErrStorage       = errors.New("storage failure")
)

// Store persists the session. Save must write both collections and the event
// atomically.
type Store interface {
	Load(ctx context.Context) (repo.Snapshot, error)
	Save(ctx context.Context, goals []domain.Goal, ideas []domain.Idea, evt domain.AnalyticsEvent) error
}

type Options struct {
	Store     Store
	Generator generator.Generator
	Config    *config.Config
	Metrics   *metrics.Metrics
	Logger    *slog.Logger
	Now       func() time.Time
}

type flightKey struct {
	id string
	op generator.Op
}

// Engine is safe for concurrent use. State changes happen under mu; generator
// calls run without it.
type Engine struct {
	mu       sync.Mutex
	goals    []domain.Goal
	ideas    []domain.Idea
	log      *events.Log
	inFlight map[flightKey]struct{}
	closed   bool

	store     Store
	gen       generator.Generator
	weights   scoring.Weights
	threshold float64
	metrics   *metrics.Metrics
	logger    *slog.Logger
	now       func() time.Time
}

func New(opts Options) *Engine {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.Default()
	}
	e := &Engine{
		goals:     []domain.Goal{},
		ideas:     []domain.Idea{},
		inFlight:  map[flightKey]struct{}{},
		store:     opts.Store,
		gen:       opts.Generator,
		weights:   cfg.Scoring.Weights,
		threshold: cfg.Scoring.Threshold,
		metrics:   opts.Metrics,
		logger:    opts.Logger,
		now:       opts.Now,
	}
	if e.metrics == nil {
		e.metrics = metrics.New()
	}
	if e.logger == nil {
		e.logger = slog.Default()
	}
	e.logger = e.logger.With("component", "engine")
	if e.now == nil {
		e.now = time.Now
	}
	e.log = &events.Log{Now: e.now}
	return e
}

// Load replaces the session state with the stored snapshot.
func (e *Engine) Load(ctx context.Context) error {
	snap, err := e.store.Load(ctx)
	if err != nil {
		return fmt.Errorf("%w: load snapshot: %w", ErrStorage, err)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.goals = snap.Goals
	e.ideas = snap.Ideas
	e.log.Restore(snap.Events)
	e.logger.Debug("session loaded", "goals", len(e.goals), "ideas", len(e.ideas), "events", len(snap.Events))
	return nil
}

// Close ends the session. Generator responses that arrive afterwards are
// discarded.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.closed = true
	return nil
}

func (e *Engine) Metrics() *metrics.Metrics {
	return e.metrics
}

// commit persists the next state together with evt, then swaps it in. The
// caller holds mu. On failure memory is left untouched.
func (e *Engine) commit(ctx context.Context, goals []domain.Goal, ideas []domain.Idea, evt domain.AnalyticsEvent) error {
	if err := e.store.Save(ctx, goals, ideas, evt); err != nil {
		e.metrics.StorageFailures.Inc()
		e.logger.ErrorContext(ctx, "save snapshot failed", "event", evt.Type, "entity_id", evt.EntityID, "error", err)
		return fmt.Errorf("%w: %w", ErrStorage, err)
	}
	e.goals = goals
	e.ideas = ideas
	e.log.Push(evt)
	e.metrics.Events.Inc()
	return nil
}

// acquire marks (id, op) as in flight. The returned func releases it.
func (e *Engine) acquire(id string, op generator.Op) (func(), error) {
	key := flightKey{id: id, op: op}
	if _, busy := e.inFlight[key]; busy {
		return nil, fmt.Errorf("%w: %s for %s", ErrInFlight, op, id)
	}
	e.inFlight[key] = struct{}{}
	return func() {
		e.mu.Lock()
		delete(e.inFlight, key)
		e.mu.Unlock()
	}, nil
}

// InFlight reports whether op is pending for id.
func (e *Engine) InFlight(id string, op generator.Op) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	_, ok := e.inFlight[flightKey{id: id, op: op}]
	return ok
}

func (e *Engine) ideaIndex(id string) int {
	for i := range e.ideas {
		if e.ideas[i].ID == id {
			return i
		}
	}
	return -1
}

func (e *Engine) goalIndex(id string) int {
	for i := range e.goals {
		if e.goals[i].ID == id {
			return i
		}
	}
	return -1
}

// replaceIdea returns a copy of ideas with the entry at i swapped for idea.
func replaceIdea(ideas []domain.Idea, i int, idea domain.Idea) []domain.Idea {
	next := append([]domain.Idea(nil), ideas...)
	next[i] = idea
	return next
}

// callGenerator times and counts a generator call and normalises its error.
func (e *Engine) callGenerator(ctx context.Context, op generator.Op, id string, fn func(context.Context) error) error {
	start := time.Now()
	err := fn(ctx)
	e.metrics.GeneratorTime.WithLabelValues(string(op)).Observe(time.Since(start).Seconds())
	if err != nil {
		e.metrics.GeneratorCalls.WithLabelValues(string(op), "error").Inc()
		if !errors.Is(err, generator.ErrGeneratorFailure) {
			err = fmt.Errorf("%w: %s: %w", generator.ErrGeneratorFailure, op, err)
		}
		e.logger.WarnContext(ctx, "generator call failed", "op", op, "idea_id", id, "error", err)
		return err
	}
	e.metrics.GeneratorCalls.WithLabelValues(string(op), "ok").Inc()
	return nil
}
