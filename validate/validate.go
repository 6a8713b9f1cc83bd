// Package validate implements field-level validation for dynamic forms.
// Validation is pure: no state, no I/O, safe for concurrent use.
package validate

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/formdesk/intake/model"
)

// Result is the outcome of validating one field value.
type Result struct {
	OK      bool
	Message string
}

func pass() Result           { return Result{OK: true} }
func fail(msg string) Result { return Result{Message: msg} }

func failf(f string, a ...any) Result {
	return Result{Message: fmt.Sprintf(f, a...)}
}

var (
	reEmail = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	rePhone = regexp.MustCompile(`^[\d\s\-+()]+$`)
)

// Coerce renders a dynamically typed field value as a string. Checkbox false
// coerces to empty, so a required checkbox fails until checked.
func Coerce(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case bool:
		if v {
			return "true"
		}
		return ""
	default:
		return fmt.Sprint(v)
	}
}

// Field checks value against the field descriptor. Rules apply in order and
// the first failure wins: required, then emptiness, then type-specific.
func Field(field model.FormField, value any) Result {
	s := strings.TrimSpace(Coerce(value))

	if field.Required && s == "" {
		return failf("%s is required", field.Label)
	}
	if s == "" {
		return pass()
	}

	switch field.Type {
	case model.FieldEmail:
		if !reEmail.MatchString(s) {
			return fail("Please enter a valid email address")
		}
	case model.FieldPhone:
		if !rePhone.MatchString(s) {
			return fail("Please enter a valid phone number")
		}
	case model.FieldText, model.FieldTextarea:
		if v := field.Validation; v != nil {
			// bounds are in characters, not bytes
			length := utf8.RuneCountInString(s)
			if v.Min > 0 && length < v.Min {
				return failf("%s must be at least %d characters", field.Label, v.Min)
			}
			if v.Max > 0 && length > v.Max {
				return failf("%s must be no more than %d characters", field.Label, v.Max)
			}
			if v.Pattern != "" {
				re, err := regexp.Compile(v.Pattern)
				if err != nil || !re.MatchString(s) {
					return failf("%s has an invalid format", field.Label)
				}
			}
		}
	}
	return pass()
}
