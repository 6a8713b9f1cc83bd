package model

import "time"

// FormSubmission is the wire payload sent to POST /api/submit. Data maps
// field name to value; values are either strings or checkbox booleans.
type FormSubmission struct {
	FormID    string         `json:"formId"`
	OrgCode   string         `json:"orgCode"`
	Data      map[string]any `json:"data"`
	SessionID string         `json:"sessionId,omitempty"`
	UserAgent string         `json:"userAgent,omitempty"`
	Referrer  string         `json:"referrer,omitempty"`
}

// SubmitReceipt is the data half of a successful submission response.
type SubmitReceipt struct {
	SubmissionID string    `json:"submissionId"`
	OrgID        string    `json:"orgId"`
	FormID       string    `json:"formId"`
	SubmittedAt  time.Time `json:"submittedAt"`
}
