// Package client posts form submissions to the intake endpoint and maps the
// structured response onto typed errors the composer can act on.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/formdesk/intake/httpx"
	"github.com/formdesk/intake/model"
)

// ErrFormNotFound means the org code resolved to no stored configuration.
var ErrFormNotFound = errors.New("Invalid organization code or form not found")

// RejectedError is a structured 400: the server refused the payload but the
// form stays editable and the user may correct and resubmit.
type RejectedError struct {
	Message string
	Details []httpx.FieldError
}

func (e *RejectedError) Error() string { return e.Message }

// ServerError covers 5xx responses and transport faults. The UI treats it
// exactly like a rejection: generic message, form stays editable.
type ServerError struct {
	Status  int
	Message string
	cause   error
}

func (e *ServerError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.cause != nil {
		return e.cause.Error()
	}
	return fmt.Sprintf("server error (%d)", e.Status)
}

func (e *ServerError) Unwrap() error { return e.cause }

// DefaultTimeout bounds the submission call so a hung request cannot leave
// the form stuck in the submitting state.
const DefaultTimeout = 30 * time.Second

type Client struct {
	baseURL   string
	http      *http.Client
	userAgent string
	referrer  string
}

// New builds a client for the given base URL ("https://host"). A zero
// timeout falls back to DefaultTimeout.
func New(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
	}
}

// SetAmbient sets the user agent and referrer stamped onto submissions that
// do not carry their own.
func (c *Client) SetAmbient(userAgent, referrer string) {
	c.userAgent = userAgent
	c.referrer = referrer
}

// Submit posts the payload to /api/submit and returns the receipt on
// structured success.
func (c *Client) Submit(ctx context.Context, sub model.FormSubmission) (*model.SubmitReceipt, error) {
	if sub.UserAgent == "" {
		sub.UserAgent = c.userAgent
	}
	if sub.Referrer == "" {
		sub.Referrer = c.referrer
	}

	body, err := json.Marshal(sub)
	if err != nil {
		return nil, &ServerError{Message: "could not encode submission", cause: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/submit", bytes.NewReader(body))
	if err != nil {
		return nil, &ServerError{cause: err}
	}
	req.Header.Set("Content-Type", "application/json")
	if sub.UserAgent != "" {
		req.Header.Set("User-Agent", sub.UserAgent)
	}
	if sub.Referrer != "" {
		req.Header.Set("Referer", sub.Referrer)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &ServerError{cause: err}
	}
	defer resp.Body.Close()

	var envelope struct {
		Success bool                `json:"success"`
		Data    model.SubmitReceipt `json:"data"`
		Error   string              `json:"error"`
		Details []httpx.FieldError  `json:"details"`
	}
	decodeErr := json.NewDecoder(resp.Body).Decode(&envelope)

	switch {
	case resp.StatusCode == http.StatusOK:
		if decodeErr != nil || !envelope.Success {
			return nil, &ServerError{Status: resp.StatusCode, Message: "malformed server response", cause: decodeErr}
		}
		return &envelope.Data, nil

	case resp.StatusCode == http.StatusNotFound:
		return nil, ErrFormNotFound

	case resp.StatusCode == http.StatusBadRequest:
		msg := envelope.Error
		if msg == "" {
			msg = "Submission was rejected"
		}
		return nil, &RejectedError{Message: msg, Details: envelope.Details}

	default:
		return nil, &ServerError{Status: resp.StatusCode, Message: envelope.Error}
	}
}
