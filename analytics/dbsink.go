package analytics

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/formdesk/intake/model"
)

// DBSink persists events to the analytics tables. This is the deployment
// flush the in-memory queue anticipates; the server side uses it directly.
type DBSink struct {
	db *sql.DB
}

func NewDBSink(db *sql.DB) *DBSink {
	return &DBSink{db: db}
}

func (s *DBSink) Flush(ctx context.Context, events []model.AnalyticsEvent) error {
	for _, e := range events {
		if err := s.insert(ctx, e); err != nil {
			return err
		}
	}
	return nil
}

func (s *DBSink) insert(ctx context.Context, e model.AnalyticsEvent) error {
	var eventData []byte
	if e.EventData != nil {
		var err error
		eventData, err = json.Marshal(e.EventData)
		if err != nil {
			return err
		}
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO analytics_event
			(id, form_id, org_id, event_type, event_data, session_id, duration_ms, user_agent, ip_address, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		uuid.NewString(),
		e.FormID,
		e.OrgID,
		string(e.EventType),
		string(eventData),
		e.SessionID,
		e.DurationMs,
		e.UserAgent,
		e.IPAddress,
		time.Now().UTC(),
	)
	if err != nil {
		return err
	}

	if e.FieldName == "" {
		return nil
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO field_analytics
			(id, form_id, field_name, field_type, event_type, session_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		uuid.NewString(),
		e.FormID,
		e.FieldName,
		string(e.FieldType),
		string(e.EventType),
		e.SessionID,
		time.Now().UTC(),
	)
	return err
}
