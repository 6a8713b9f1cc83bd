// Package form composes a configured form for rendering and drives the
// submit/reset flow against the state store and the submission client.
package form

import (
	"context"
	"time"

	"github.com/formdesk/intake/analytics"
	"github.com/formdesk/intake/formstate"
	"github.com/formdesk/intake/log"
	"github.com/formdesk/intake/model"
	"github.com/formdesk/intake/validate"
)

const (
	minColumns = 1
	maxColumns = 4
)

// Submitter is the network half of a submission. *client.Client satisfies it.
type Submitter interface {
	Submit(ctx context.Context, sub model.FormSubmission) (*model.SubmitReceipt, error)
}

// OrderFields arranges fields per the declared order: listed names first, in
// listed order, then unlisted fields appended preserving their original
// relative order.
func OrderFields(fields []model.FormField, fieldOrder []string) []model.FormField {
	if len(fieldOrder) == 0 {
		return fields
	}

	position := make(map[string]int, len(fieldOrder))
	for i, name := range fieldOrder {
		position[name] = i
	}

	ordered := make([]model.FormField, 0, len(fields))
	rest := make([]model.FormField, 0, len(fields))
	for _, f := range fields {
		if _, listed := position[f.Name]; listed {
			ordered = append(ordered, f)
		} else {
			rest = append(rest, f)
		}
	}
	// listed fields sort by declared position; insertion sort keeps it stable
	for i := 1; i < len(ordered); i++ {
		for j := i; j > 0 && position[ordered[j].Name] < position[ordered[j-1].Name]; j-- {
			ordered[j], ordered[j-1] = ordered[j-1], ordered[j]
		}
	}
	return append(ordered, rest...)
}

// SplitColumns assigns fields round-robin by index modulo the clamped column
// count. Deterministic, content-blind balancing.
func SplitColumns(fields []model.FormField, columns int) [][]model.FormField {
	if columns < minColumns {
		columns = minColumns
	}
	if columns > maxColumns {
		columns = maxColumns
	}
	out := make([][]model.FormField, columns)
	for i, f := range fields {
		out[i%columns] = append(out[i%columns], f)
	}
	return out
}

// Composer aggregates one form's rendering layout and submission flow.
type Composer struct {
	store     *formstate.Store
	submitter Submitter
	tracker   *analytics.Tracker
	startedAt time.Time
}

func NewComposer(store *formstate.Store, submitter Submitter, tracker *analytics.Tracker) *Composer {
	if tracker == nil {
		tracker = analytics.NewTracker(nil)
	}
	return &Composer{
		store:     store,
		submitter: submitter,
		tracker:   tracker,
		startedAt: time.Now(),
	}
}

// Columns returns the fields laid out per the active config's layout.
func (c *Composer) Columns() [][]model.FormField {
	cfg := c.store.Config()
	if cfg == nil {
		return nil
	}
	fields := cfg.Fields
	columns := 1
	if cfg.Layout != nil {
		fields = OrderFields(fields, cfg.Layout.FieldOrder)
		if cfg.Layout.Columns > 0 {
			columns = cfg.Layout.Columns
		}
	}
	return SplitColumns(fields, columns)
}

// FieldFocused reports a focus interaction.
func (c *Composer) FieldFocused(ctx context.Context, name string) {
	cfg := c.store.Config()
	if cfg == nil {
		return
	}
	if f, ok := cfg.FieldByName(name); ok {
		c.tracker.TrackFieldInteraction(ctx, cfg.ID, cfg.OrgID, model.EventFieldFocus, f)
	}
}

// FieldChanged mirrors a new value into the store. Validation waits for blur
// so errors do not flicker on every keystroke.
func (c *Composer) FieldChanged(ctx context.Context, name string, value any) {
	cfg := c.store.Config()
	if cfg == nil {
		return
	}
	c.store.UpdateField(name, value)
	if f, ok := cfg.FieldByName(name); ok {
		c.tracker.TrackFieldInteraction(ctx, cfg.ID, cfg.OrgID, model.EventFieldChange, f)
	}
}

// FieldBlurred validates the field's current value and records the outcome.
func (c *Composer) FieldBlurred(ctx context.Context, name string) {
	cfg := c.store.Config()
	if cfg == nil {
		return
	}
	f, ok := cfg.FieldByName(name)
	if !ok {
		return
	}
	if res := validate.Field(f, c.store.FieldValue(name)); !res.OK {
		c.store.SetFieldError(name, res.Message)
	} else {
		c.store.ClearFieldError(name)
	}
	c.tracker.TrackFieldInteraction(ctx, cfg.ID, cfg.OrgID, model.EventFieldBlur, f)
}

// Submit runs full-form validation and, when it passes, sends the submission.
// A failed validation surfaces the error map without any network call. A
// submit while one is in flight is rejected. On success the store is marked
// submitted and auto-save state is erased; on any failure the form stays
// editable and the error is returned for rendering.
func (c *Composer) Submit(ctx context.Context) (*model.SubmitReceipt, error) {
	cfg := c.store.Config()
	if cfg == nil {
		return nil, ErrNoConfig
	}
	if !c.store.BeginSubmit() {
		return nil, ErrSubmitInFlight
	}

	if !c.store.ValidateAll() {
		c.store.SetSubmitting(false)
		return nil, &InvalidError{Errors: c.store.Errors()}
	}

	sub := model.FormSubmission{
		FormID:    cfg.ID,
		OrgCode:   cfg.OrgCode,
		Data:      c.store.Data(),
		SessionID: c.store.SessionID(),
	}

	receipt, err := c.submitter.Submit(ctx, sub)
	if err != nil {
		c.store.SetSubmitting(false)
		log.Debugf("form.submit: %s", err)
		return nil, err
	}

	c.store.SetSubmitted()
	c.tracker.TrackFormSubmit(ctx, cfg.ID, cfg.OrgID, time.Since(c.startedAt).Milliseconds())
	return receipt, nil
}

// Reset clears field values, errors and persisted auto-save state.
func (c *Composer) Reset() {
	c.store.Reset()
}
