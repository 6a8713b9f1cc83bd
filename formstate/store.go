// Package formstate holds the per-session mutable state of one form-filling
// attempt: active configuration, field values, validation errors, submission
// flags and the session identifier.
package formstate

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/formdesk/intake/kv"
	"github.com/formdesk/intake/model"
	"github.com/formdesk/intake/validate"
)

// Store is an explicit state instance owned by the page-level controller.
// The original renderer mutated it from a single UI thread; the mutex keeps
// that single-writer contract safe against stray goroutines (the background
// saver included).
type Store struct {
	mu      sync.Mutex
	storage kv.Storage

	config     *model.FormConfig
	data       map[string]any
	fieldErrs  map[string]string
	submitting bool
	submitted  bool
	sessionID  string
	lastSaved  time.Time
}

// New returns an empty store. storage backs auto-save and may be nil, which
// disables persistence regardless of form settings.
func New(storage kv.Storage) *Store {
	return &Store{
		storage:   storage,
		data:      map[string]any{},
		fieldErrs: map[string]string{},
	}
}

func autosaveKey(configID string) string {
	return fmt.Sprintf("form_%s_data", configID)
}

func (s *Store) autosaveEnabled() bool {
	return s.storage != nil &&
		s.config != nil &&
		s.config.Settings != nil &&
		s.config.Settings.AutoSave
}

// Initialize installs a configuration, clearing values and errors and issuing
// a fresh session ID. With auto-save enabled, a previously persisted snapshot
// for this config is restored; absent or corrupt snapshots are ignored.
func (s *Store) Initialize(config *model.FormConfig) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.config = config
	s.data = map[string]any{}
	s.fieldErrs = map[string]string{}
	s.submitting = false
	s.submitted = false
	s.sessionID = uuid.NewString()
	s.lastSaved = time.Time{}

	if !s.autosaveEnabled() {
		return
	}
	raw, ok := s.storage.Get(autosaveKey(config.ID))
	if !ok {
		return
	}
	var saved map[string]any
	if err := json.Unmarshal(raw, &saved); err != nil {
		return
	}
	s.data = saved
}

// UpdateField merges a value into the data map and clears any stale error for
// the field. Every keystroke-level event funnels through here. With auto-save
// enabled the whole data map is persisted.
func (s *Store) UpdateField(name string, value any) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.data[name] = value
	delete(s.fieldErrs, name)
	s.persistLocked()
}

// persistLocked writes the auto-save snapshot. Storage faults are swallowed:
// auto-save degrades to nothing, it never breaks the form.
func (s *Store) persistLocked() {
	if !s.autosaveEnabled() {
		return
	}
	raw, err := json.Marshal(s.data)
	if err != nil {
		return
	}
	if err := s.storage.Set(autosaveKey(s.config.ID), raw); err != nil {
		return
	}
	s.lastSaved = time.Now()
}

// Flush re-persists the current snapshot. The background saver calls this on
// an interval as a safety net on top of per-update persistence.
func (s *Store) Flush() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.persistLocked()
}

func (s *Store) SetFieldError(name, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fieldErrs[name] = message
}

func (s *Store) ClearFieldError(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.fieldErrs, name)
}

func (s *Store) ClearErrors() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fieldErrs = map[string]string{}
}

func (s *Store) SetSubmitting(submitting bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.submitting = submitting
}

// BeginSubmit atomically flips submitting on. It returns false when a submit
// is already in flight, rejecting the duplicate.
func (s *Store) BeginSubmit() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.submitting {
		return false
	}
	s.submitting = true
	return true
}

// SetSubmitted marks success and erases the persisted auto-save entry.
func (s *Store) SetSubmitted() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.submitted = true
	s.submitting = false
	s.removeSnapshotLocked()
}

func (s *Store) removeSnapshotLocked() {
	if s.storage == nil || s.config == nil {
		return
	}
	s.storage.Delete(autosaveKey(s.config.ID))
}

// Reset clears values and errors, issues a fresh session ID, and erases the
// persisted auto-save entry. Without an active config it is a no-op.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.config == nil {
		return
	}
	s.data = map[string]any{}
	s.fieldErrs = map[string]string{}
	s.submitting = false
	s.submitted = false
	s.sessionID = uuid.NewString()
	s.lastSaved = time.Time{}
	s.removeSnapshotLocked()
}

// ValidateAll runs field validation over every configured field against the
// current values, replacing the entire error map. It is the gate before
// submission.
func (s *Store) ValidateAll() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.config == nil {
		return false
	}
	errs := map[string]string{}
	for _, f := range s.config.Fields {
		if res := validate.Field(f, s.data[f.Name]); !res.OK {
			errs[f.Name] = res.Message
		}
	}
	s.fieldErrs = errs
	return len(errs) == 0
}

// IsValid reports whether the error map is empty.
func (s *Store) IsValid() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.fieldErrs) == 0
}

// Progress returns the percentage of required fields holding a non-empty
// value, or 0 when the form has no required fields.
func (s *Store) Progress() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.config == nil {
		return 0
	}
	var required, filled int
	for _, f := range s.config.Fields {
		if !f.Required {
			continue
		}
		required++
		if validate.Coerce(s.data[f.Name]) != "" {
			filled++
		}
	}
	if required == 0 {
		return 0
	}
	return float64(filled) / float64(required) * 100
}

func (s *Store) Config() *model.FormConfig {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.config
}

func (s *Store) SessionID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sessionID
}

func (s *Store) Submitting() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.submitting
}

func (s *Store) Submitted() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.submitted
}

func (s *Store) LastSaved() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSaved
}

func (s *Store) FieldValue(name string) any {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data[name]
}

func (s *Store) FieldError(name string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	msg, ok := s.fieldErrs[name]
	return msg, ok
}

// Data returns a copy of the current field values.
func (s *Store) Data() map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]any, len(s.data))
	for k, v := range s.data {
		out[k] = v
	}
	return out
}

// Errors returns a copy of the current error map.
func (s *Store) Errors() map[string]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]string, len(s.fieldErrs))
	for k, v := range s.fieldErrs {
		out[k] = v
	}
	return out
}
