package repo

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"architect/internal/domain"
	"architect/internal/events"
)

// Snapshot slot keys. Each slot holds the whole collection as a JSON array.
const (
	SlotGoals = "arch_goals"
	SlotIdeas = "arch_ideas"
)

var ErrNotFound = errors.New("not found")

type Repo struct {
	DB     *sql.DB
	Events events.Writer
	Now    func() time.Time
}

func New(db *sql.DB) Repo {
	return Repo{DB: db, Events: events.Writer{DB: db}, Now: time.Now}
}

// Snapshot is the persisted session state.
type Snapshot struct {
	Goals  []domain.Goal
	Ideas  []domain.Idea
	Events []domain.AnalyticsEvent
}

func (r Repo) now() string {
	if r.Now == nil {
		return time.Now().UTC().Format(time.RFC3339)
	}
	return r.Now().UTC().Format(time.RFC3339)
}

// Load reads both slots and the event journal. Missing slots load as empty
// collections.
func (r Repo) Load(ctx context.Context) (Snapshot, error) {
	snap := Snapshot{Goals: []domain.Goal{}, Ideas: []domain.Idea{}}
	if err := r.readSlot(ctx, SlotGoals, &snap.Goals); err != nil && !errors.Is(err, ErrNotFound) {
		return Snapshot{}, err
	}
	if err := r.readSlot(ctx, SlotIdeas, &snap.Ideas); err != nil && !errors.Is(err, ErrNotFound) {
		return Snapshot{}, err
	}
	if snap.Goals == nil {
		snap.Goals = []domain.Goal{}
	}
	if snap.Ideas == nil {
		snap.Ideas = []domain.Idea{}
	}
	evts, err := r.LatestEvents(ctx, EventFilter{})
	if err != nil {
		return Snapshot{}, err
	}
	snap.Events = evts
	return snap, nil
}

func (r Repo) readSlot(ctx context.Context, key string, dst any) error {
	var payload string
	err := r.DB.QueryRowContext(ctx, `SELECT payload_json FROM snapshots WHERE key=?`, key).Scan(&payload)
	if err == sql.ErrNoRows {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("read slot %s: %w", key, err)
	}
	if err := json.Unmarshal([]byte(payload), dst); err != nil {
		return fmt.Errorf("decode slot %s: %w", key, err)
	}
	return nil
}

// Save overwrites both slots and journals evt in one transaction.
func (r Repo) Save(ctx context.Context, goals []domain.Goal, ideas []domain.Idea, evt domain.AnalyticsEvent) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	if err := r.writeSlot(ctx, tx, SlotGoals, goals); err != nil {
		return err
	}
	if err := r.writeSlot(ctx, tx, SlotIdeas, ideas); err != nil {
		return err
	}
	if err := r.Events.Append(ctx, tx, evt); err != nil {
		return fmt.Errorf("journal event: %w", err)
	}
	return tx.Commit()
}

func (r Repo) writeSlot(ctx context.Context, tx *sql.Tx, key string, v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode slot %s: %w", key, err)
	}
	_, err = tx.ExecContext(ctx, `INSERT INTO snapshots(key,payload_json,updated_at) VALUES (?,?,?)
ON CONFLICT(key) DO UPDATE SET payload_json=excluded.payload_json, updated_at=excluded.updated_at`, key, string(payload), r.now())
	if err != nil {
		return fmt.Errorf("write slot %s: %w", key, err)
	}
	return nil
}

type EventFilter struct {
	Type       string
	EntityKind string
	EntityID   string
	Limit      int
}

// LatestEvents returns journaled events newest first.
func (r Repo) LatestEvents(ctx context.Context, f EventFilter) ([]domain.AnalyticsEvent, error) {
	clauses := []string{"1=1"}
	var args []any
	if f.Type != "" {
		clauses = append(clauses, "type=?")
		args = append(args, f.Type)
	}
	if f.EntityKind != "" {
		clauses = append(clauses, "entity_kind=?")
		args = append(args, f.EntityKind)
	}
	if f.EntityID != "" {
		clauses = append(clauses, "entity_id=?")
		args = append(args, f.EntityID)
	}
	limit := f.Limit
	if limit <= 0 {
		limit = -1
	}
	where := "WHERE " + strings.Join(clauses, " AND ")
	query := fmt.Sprintf(`SELECT id,event_id,ts,type,COALESCE(entity_kind,''),COALESCE(entity_id,''),payload_json FROM events %s ORDER BY seq DESC LIMIT ?`, where)
	args = append(args, limit)
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	res := []domain.AnalyticsEvent{}
	for rows.Next() {
		var e domain.AnalyticsEvent
		var payload sql.NullString
		if err := rows.Scan(&e.ID, &e.EventID, &e.Timestamp, &e.Type, &e.EntityKind, &e.EntityID, &payload); err != nil {
			return nil, err
		}
		if payload.Valid {
			e.Payload = json.RawMessage(payload.String)
		}
		res = append(res, e)
	}
	return res, rows.Err()
}
