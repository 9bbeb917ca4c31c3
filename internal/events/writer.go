package events

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"architect/internal/domain"
)

// Writer journals events to the events table inside the caller's transaction.
type Writer struct {
	DB *sql.DB
}

func (w Writer) Append(ctx context.Context, tx *sql.Tx, evt domain.AnalyticsEvent) error {
	payload := evt.Payload
	if payload == nil {
		payload = map[string]any{}
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal event payload: %w", err)
	}
	_, err = tx.ExecContext(ctx, `INSERT INTO events(id,event_id,ts,type,entity_kind,entity_id,payload_json) VALUES (?,?,?,?,?,?,?)`,
		evt.ID, evt.EventID, evt.Timestamp, evt.Type, nullable(evt.EntityKind), nullable(evt.EntityID), string(data))
	return err
}

func nullable(v string) any {
	if v == "" {
		return nil
	}
	return v
}
