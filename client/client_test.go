package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/formdesk/intake/httpx"
	"github.com/formdesk/intake/model"
)

func submission() model.FormSubmission {
	return model.FormSubmission{
		FormID:    "f1",
		OrgCode:   "ABC123",
		Data:      map[string]any{"name": "Jane"},
		SessionID: "sess-1",
	}
}

func TestSubmitSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/submit" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		var sub model.FormSubmission
		if err := json.NewDecoder(r.Body).Decode(&sub); err != nil {
			t.Errorf("decode: %s", err)
		}
		if sub.OrgCode != "ABC123" || sub.UserAgent != "test-agent" {
			t.Errorf("payload: %+v", sub)
		}
		json.NewEncoder(w).Encode(httpx.Envelope{
			Success: true,
			Data: model.SubmitReceipt{
				SubmissionID: "sub-1",
				OrgID:        "org-1",
				FormID:       "f1",
				SubmittedAt:  time.Now().UTC(),
			},
		})
	}))
	defer srv.Close()

	c := New(srv.URL, 0)
	c.SetAmbient("test-agent", "https://example.com/form")

	receipt, err := c.Submit(context.Background(), submission())
	if err != nil {
		t.Fatal(err)
	}
	if receipt.SubmissionID != "sub-1" || receipt.OrgID != "org-1" || receipt.FormID != "f1" {
		t.Fatalf("receipt: %+v", receipt)
	}
}

func TestSubmitNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(httpx.Envelope{Error: "Invalid organization code or form not found"})
	}))
	defer srv.Close()

	_, err := New(srv.URL, 0).Submit(context.Background(), submission())
	if !errors.Is(err, ErrFormNotFound) {
		t.Fatalf("got %v, want ErrFormNotFound", err)
	}
}

func TestSubmitRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(httpx.Envelope{
			Error:   "Form ID mismatch",
			Details: []httpx.FieldError{{Field: "formId", Message: "does not match configuration"}},
		})
	}))
	defer srv.Close()

	_, err := New(srv.URL, 0).Submit(context.Background(), submission())
	var rejected *RejectedError
	if !errors.As(err, &rejected) {
		t.Fatalf("got %T: %v", err, err)
	}
	if rejected.Message != "Form ID mismatch" || len(rejected.Details) != 1 {
		t.Fatalf("rejection: %+v", rejected)
	}
}

func TestSubmitServerFault(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := New(srv.URL, 0).Submit(context.Background(), submission())
	var serverErr *ServerError
	if !errors.As(err, &serverErr) {
		t.Fatalf("got %T: %v", err, err)
	}
	if serverErr.Status != http.StatusInternalServerError {
		t.Fatalf("status: %d", serverErr.Status)
	}
}

func TestSubmitTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer srv.Close()
	defer close(release)

	c := New(srv.URL, 50*time.Millisecond)
	_, err := c.Submit(context.Background(), submission())
	var serverErr *ServerError
	if !errors.As(err, &serverErr) {
		t.Fatalf("got %T: %v", err, err)
	}
}
