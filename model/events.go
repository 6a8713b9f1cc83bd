package model

// EventType enumerates the tracked interaction kinds.
type EventType string

const (
	EventView        EventType = "view"
	EventSubmit      EventType = "submit"
	EventAbandon     EventType = "abandon"
	EventError       EventType = "error"
	EventFieldFocus  EventType = "field_focus"
	EventFieldBlur   EventType = "field_blur"
	EventFieldChange EventType = "field_change"
)

// AnalyticsEvent is a write-once interaction record. The rendering core only
// ever appends these; nothing reads them back.
type AnalyticsEvent struct {
	FormID     string         `json:"formId"`
	OrgID      string         `json:"orgId"`
	EventType  EventType      `json:"eventType"`
	EventData  map[string]any `json:"eventData,omitempty"`
	SessionID  string         `json:"sessionId,omitempty"`
	DurationMs int64          `json:"durationMs,omitempty"`
	FieldName  string         `json:"fieldName,omitempty"`
	FieldType  FieldType      `json:"fieldType,omitempty"`
	UserAgent  string         `json:"userAgent,omitempty"`
	IPAddress  string         `json:"ipAddress,omitempty"`
}
