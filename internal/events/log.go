// Package events records the history of goal and idea mutations. The log is
// observability only; nothing reads it to make decisions.
package events

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"architect/internal/domain"
)

// TimeFormat is used for event timestamps.
const TimeFormat = "2006-01-02T15:04:05.000Z07:00"

// Build creates an event stamped at now. It does not record it anywhere.
func Build(now time.Time, evtType, entityKind, entityID string, payload any) domain.AnalyticsEvent {
	return domain.AnalyticsEvent{
		ID:         uuid.NewString(),
		EventID:    fmt.Sprintf("EVT_%d", now.UnixMilli()),
		Timestamp:  now.UTC().Format(TimeFormat),
		Type:       evtType,
		EntityKind: entityKind,
		EntityID:   entityID,
		Payload:    payload,
	}
}

// Filter narrows List results. Zero values match everything.
type Filter struct {
	Type       string
	EntityKind string
	EntityID   string
	Limit      int
}

func (f Filter) match(e domain.AnalyticsEvent) bool {
	if f.Type != "" && e.Type != f.Type {
		return false
	}
	if f.EntityKind != "" && e.EntityKind != f.EntityKind {
		return false
	}
	if f.EntityID != "" && e.EntityID != f.EntityID {
		return false
	}
	return true
}

// Log is an unbounded, append-only, newest-first history.
type Log struct {
	mu     sync.RWMutex
	events []domain.AnalyticsEvent
	Now    func() time.Time
}

func (l *Log) now() time.Time {
	if l.Now != nil {
		return l.Now()
	}
	return time.Now()
}

// Append builds an event from type and payload and records it.
func (l *Log) Append(evtType string, payload any) domain.AnalyticsEvent {
	evt := Build(l.now(), evtType, "", "", payload)
	l.Push(evt)
	return evt
}

// Push records an already built event at the head of the history.
func (l *Log) Push(evt domain.AnalyticsEvent) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, domain.AnalyticsEvent{})
	copy(l.events[1:], l.events)
	l.events[0] = evt
}

// Restore replaces the history with events, which must be newest-first.
func (l *Log) Restore(events []domain.AnalyticsEvent) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append([]domain.AnalyticsEvent(nil), events...)
}

func (l *Log) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.events)
}

// List returns matching events, newest first.
func (l *Log) List(f Filter) []domain.AnalyticsEvent {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := []domain.AnalyticsEvent{}
	for _, e := range l.events {
		if !f.match(e) {
			continue
		}
		out = append(out, e)
		if f.Limit > 0 && len(out) == f.Limit {
			break
		}
	}
	return out
}

// CountByType aggregates the history by event type.
func (l *Log) CountByType() map[string]int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	counts := map[string]int{}
	for _, e := range l.events {
		counts[e.Type]++
	}
	return counts
}
