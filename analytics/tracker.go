// Package analytics is fire-and-forget interaction instrumentation. Events
// are queued in memory and drained to a sink on every enqueue; delivery is
// never guaranteed and sink failures never reach the caller.
package analytics

import (
	"context"
	"sync"

	"github.com/formdesk/intake/log"
	"github.com/formdesk/intake/model"
)

// Sink receives drained event batches.
type Sink interface {
	Flush(ctx context.Context, events []model.AnalyticsEvent) error
}

// LogSink logs events and drops them.
type LogSink struct{}

func (LogSink) Flush(_ context.Context, events []model.AnalyticsEvent) error {
	for _, e := range events {
		log.Debugf("analytics: %s form=%s session=%s field=%s", e.EventType, e.FormID, e.SessionID, e.FieldName)
	}
	return nil
}

// Tracker queues events and drains them immediately.
type Tracker struct {
	mu    sync.Mutex
	queue []model.AnalyticsEvent
	sink  Sink

	// ambient session metadata filled into convenience events
	sessionID string
	userAgent string
}

func NewTracker(sink Sink) *Tracker {
	if sink == nil {
		sink = LogSink{}
	}
	return &Tracker{sink: sink}
}

// SetSession installs the ambient session metadata used by the convenience
// constructors.
func (t *Tracker) SetSession(sessionID, userAgent string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.sessionID = sessionID
	t.userAgent = userAgent
}

// TrackEvent appends the event and drains the queue. Sink errors are logged
// and the batch is dropped.
func (t *Tracker) TrackEvent(ctx context.Context, event model.AnalyticsEvent) {
	t.mu.Lock()
	t.queue = append(t.queue, event)
	batch := t.queue
	t.queue = nil
	t.mu.Unlock()

	if err := t.sink.Flush(ctx, batch); err != nil {
		log.Warnf("analytics.flush: %s", err)
	}
}

func (t *Tracker) ambient() (string, string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.sessionID, t.userAgent
}

func (t *Tracker) TrackFormView(ctx context.Context, formID, orgID string) {
	sessionID, userAgent := t.ambient()
	t.TrackEvent(ctx, model.AnalyticsEvent{
		FormID:    formID,
		OrgID:     orgID,
		EventType: model.EventView,
		SessionID: sessionID,
		UserAgent: userAgent,
	})
}

func (t *Tracker) TrackFormSubmit(ctx context.Context, formID, orgID string, durationMs int64) {
	sessionID, userAgent := t.ambient()
	t.TrackEvent(ctx, model.AnalyticsEvent{
		FormID:     formID,
		OrgID:      orgID,
		EventType:  model.EventSubmit,
		SessionID:  sessionID,
		UserAgent:  userAgent,
		DurationMs: durationMs,
	})
}

func (t *Tracker) TrackFieldInteraction(ctx context.Context, formID, orgID string, eventType model.EventType, field model.FormField) {
	sessionID, userAgent := t.ambient()
	t.TrackEvent(ctx, model.AnalyticsEvent{
		FormID:    formID,
		OrgID:     orgID,
		EventType: eventType,
		SessionID: sessionID,
		UserAgent: userAgent,
		FieldName: field.Name,
		FieldType: field.Type,
	})
}
