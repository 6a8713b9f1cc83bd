package form

import "errors"

// ErrNoConfig means the store has no active configuration to submit.
var ErrNoConfig = errors.New("no active form configuration")

// ErrSubmitInFlight means a submit was requested while one is pending.
var ErrSubmitInFlight = errors.New("submission already in progress")

// InvalidError carries the field error map of a failed full-form validation.
// No network call was made.
type InvalidError struct {
	Errors map[string]string
}

func (e *InvalidError) Error() string {
	return "form validation failed"
}
