package model

import (
	"fmt"
	"regexp"
	"time"
)

// FieldType enumerates the supported input kinds. Renderer dispatch and
// validation both key off this value.
type FieldType string

const (
	FieldText     FieldType = "text"
	FieldEmail    FieldType = "email"
	FieldPhone    FieldType = "phone"
	FieldTextarea FieldType = "textarea"
	FieldSelect   FieldType = "select"
	FieldCheckbox FieldType = "checkbox"
)

func (t FieldType) Valid() bool {
	switch t {
	case FieldText, FieldEmail, FieldPhone, FieldTextarea, FieldSelect, FieldCheckbox:
		return true
	}
	return false
}

// Multiline reports whether the field renders as a multi-line input.
// Multi-line fields submit on Ctrl+Enter instead of Enter.
func (t FieldType) Multiline() bool {
	return t == FieldTextarea
}

type Spacing string

const (
	SpacingCompact Spacing = "compact"
	SpacingNormal  Spacing = "normal"
	SpacingRelaxed Spacing = "relaxed"
)

type FieldValidation struct {
	Min     int    `json:"min,omitempty"`
	Max     int    `json:"max,omitempty"`
	Pattern string `json:"pattern,omitempty"`
}

type FormField struct {
	ID          string           `json:"id,omitempty"`
	Name        string           `json:"name"`
	Label       string           `json:"label"`
	Type        FieldType        `json:"type"`
	Required    bool             `json:"required"`
	Placeholder string           `json:"placeholder,omitempty"`
	Options     []string         `json:"options,omitempty"`
	Validation  *FieldValidation `json:"validation,omitempty"`
}

type FormColors struct {
	Primary    string `json:"primary"`
	Secondary  string `json:"secondary"`
	Background string `json:"background"`
	Text       string `json:"text"`
}

type FormLayout struct {
	Columns    int      `json:"columns"`
	FieldOrder []string `json:"fieldOrder,omitempty"`
	Spacing    Spacing  `json:"spacing,omitempty"`
}

type FormSettings struct {
	ShowProgress        bool   `json:"showProgress"`
	AutoSave            bool   `json:"autoSave"`
	ConfirmationMessage string `json:"confirmationMessage,omitempty"`
	RedirectURL         string `json:"redirectUrl,omitempty"`
}

// FormConfig is one organization's form definition. It is written by the
// admin API and read-only everywhere else.
type FormConfig struct {
	ID       string        `json:"id,omitempty"`
	Version  int           `json:"version,omitempty"`
	OrgID    string        `json:"orgId"`
	OrgCode  string        `json:"orgCode"`
	LogoURL  string        `json:"logoUrl,omitempty"`
	Colors   FormColors    `json:"colors"`
	Fields   []FormField   `json:"fields"`
	Layout   *FormLayout   `json:"layout,omitempty"`
	Settings *FormSettings `json:"settings,omitempty"`
}

// FormTemplate is a reusable field/layout bundle offered to the admin UI.
type FormTemplate struct {
	ID        string      `json:"id,omitempty"`
	Name      string      `json:"name"`
	Category  string      `json:"category"` // global | industry | custom
	Fields    []FormField `json:"fields"`
	Layout    *FormLayout `json:"layout,omitempty"`
	CreatedAt time.Time   `json:"createdAt,omitempty"`
}

var reOrgCode = regexp.MustCompile(`^[A-Z0-9]{6}$`)

// ValidOrgCode reports whether code is a well-formed 6-character org code.
func ValidOrgCode(code string) bool {
	return reOrgCode.MatchString(code)
}

// Validate checks a config at ingestion time. Field names key the submission
// data map, so they must be unique within the form.
func (c *FormConfig) Validate() error {
	if !ValidOrgCode(c.OrgCode) {
		return fmt.Errorf("orgCode %q: must be exactly 6 uppercase letters or digits", c.OrgCode)
	}
	if c.OrgID == "" {
		return fmt.Errorf("orgId is required")
	}
	if len(c.Fields) == 0 {
		return fmt.Errorf("form has no fields")
	}
	seen := make(map[string]bool, len(c.Fields))
	for _, f := range c.Fields {
		if f.Name == "" {
			return fmt.Errorf("field %q: name is required", f.Label)
		}
		if seen[f.Name] {
			return fmt.Errorf("field name %q: duplicate", f.Name)
		}
		seen[f.Name] = true
		if !f.Type.Valid() {
			return fmt.Errorf("field %q: unknown type %q", f.Name, f.Type)
		}
		if f.Type == FieldSelect && len(f.Options) == 0 {
			return fmt.Errorf("field %q: select requires options", f.Name)
		}
		if f.Validation != nil && f.Validation.Pattern != "" {
			if _, err := regexp.Compile(f.Validation.Pattern); err != nil {
				return fmt.Errorf("field %q: bad pattern: %w", f.Name, err)
			}
		}
	}
	if c.Layout != nil && (c.Layout.Columns < 1 || c.Layout.Columns > 4) {
		return fmt.Errorf("layout.columns %d: must be between 1 and 4", c.Layout.Columns)
	}
	return nil
}

// FieldByName returns the field descriptor with the given data key.
func (c *FormConfig) FieldByName(name string) (FormField, bool) {
	for _, f := range c.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return FormField{}, false
}
