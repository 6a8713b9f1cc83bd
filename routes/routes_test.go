package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/formdesk/intake/analytics"
	"github.com/formdesk/intake/app"
	"github.com/formdesk/intake/config"
	"github.com/formdesk/intake/database"
	"github.com/formdesk/intake/httpx"
	"github.com/formdesk/intake/model"
)

type testEnv struct {
	handler http.Handler
	app     app.App
}

type captureSink struct {
	records []model.SubmitReceipt
}

func (s *captureSink) Record(_ context.Context, receipt model.SubmitReceipt, _ model.FormSubmission) error {
	s.records = append(s.records, receipt)
	return nil
}

func setup(t *testing.T) (*testEnv, *captureSink) {
	t.Helper()

	cfg := config.Config{
		DBUrl:         filepath.Join(t.TempDir(), "intake.sqlite"),
		PublicDir:     t.TempDir(),
		SubmitTimeout: 5 * time.Second,
	}
	db, err := database.Open(cfg)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })

	sink := &captureSink{}
	a := app.App{
		DB:        db,
		Config:    cfg,
		Analytics: analytics.NewTracker(analytics.NewDBSink(db)),
		Sink:      sink,
	}
	return &testEnv{handler: Wire(a), app: a}, sink
}

func (e *testEnv) doJSON(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	e.handler.ServeHTTP(w, req)
	return w
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) httpx.Envelope {
	t.Helper()
	var env httpx.Envelope
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode envelope: %s (%s)", err, w.Body.String())
	}
	return env
}

func seedConfig() model.FormConfig {
	return model.FormConfig{
		OrgID:   "org-1",
		OrgCode: "ABC123",
		Colors:  model.FormColors{Primary: "#336699", Background: "#ffffff", Text: "#111111"},
		Fields: []model.FormField{
			{Name: "name", Label: "Name", Type: model.FieldText, Required: true},
			{Name: "email", Label: "Email", Type: model.FieldEmail, Required: true},
			{Name: "urgency", Label: "Urgency", Type: model.FieldSelect, Options: []string{"low", "high"}},
		},
		Layout:   &model.FormLayout{Columns: 2, FieldOrder: []string{"email", "name"}},
		Settings: &model.FormSettings{AutoSave: true, ShowProgress: true},
	}
}

// seedForm creates a config through the admin API and returns its id.
func seedForm(t *testing.T, e *testEnv) string {
	t.Helper()
	w := e.doJSON(t, "POST", "/api/admin/forms", seedConfig())
	if w.Code != http.StatusCreated {
		t.Fatalf("create form: %d %s", w.Code, w.Body.String())
	}
	env := decodeEnvelope(t, w)
	id, _ := env.Data.(map[string]any)["id"].(string)
	if id == "" {
		t.Fatalf("no id in %s", w.Body.String())
	}
	return id
}

func TestGetFormByCode(t *testing.T) {
	e, _ := setup(t)
	seedForm(t, e)

	w := e.doJSON(t, "GET", "/api/forms/abc123", nil) // codes are case-insensitive on the wire
	if w.Code != http.StatusOK {
		t.Fatalf("got %d: %s", w.Code, w.Body.String())
	}
	env := decodeEnvelope(t, w)
	raw, _ := json.Marshal(env.Data)
	var cfg model.FormConfig
	if err := json.Unmarshal(raw, &cfg); err != nil {
		t.Fatal(err)
	}
	if cfg.OrgCode != "ABC123" || len(cfg.Fields) != 3 {
		t.Fatalf("config: %+v", cfg)
	}
	if cfg.Fields[0].Name != "name" {
		t.Fatalf("field order not preserved: %+v", cfg.Fields)
	}
	if cfg.Layout == nil || cfg.Layout.Columns != 2 {
		t.Fatalf("layout: %+v", cfg.Layout)
	}
}

func TestGetFormMalformedCode(t *testing.T) {
	e, _ := setup(t)

	for _, code := range []string{"ABC12", "ABC1234", "ABC-12"} {
		w := e.doJSON(t, "GET", "/api/forms/"+code, nil)
		if w.Code != http.StatusBadRequest {
			t.Errorf("code %q: got %d", code, w.Code)
		}
	}
}

func TestGetFormUnknownCode(t *testing.T) {
	e, _ := setup(t)

	w := e.doJSON(t, "GET", "/api/forms/ZZZZZZ", nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("got %d", w.Code)
	}
	env := decodeEnvelope(t, w)
	if env.Error != "Invalid organization code or form not found" {
		t.Fatalf("error: %q", env.Error)
	}
}

func TestSubmitHappyPath(t *testing.T) {
	e, sink := setup(t)
	formID := seedForm(t, e)

	w := e.doJSON(t, "POST", "/api/submit", model.FormSubmission{
		FormID:    formID,
		OrgCode:   "ABC123",
		Data:      map[string]any{"name": "Jane", "email": "jane@example.com"},
		SessionID: "sess-1",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("got %d: %s", w.Code, w.Body.String())
	}

	env := decodeEnvelope(t, w)
	if !env.Success {
		t.Fatalf("envelope: %+v", env)
	}
	data := env.Data.(map[string]any)
	if data["submissionId"] == "" || data["submissionId"] == nil {
		t.Fatal("no submissionId")
	}
	if data["orgId"] != "org-1" || data["formId"] != formID {
		t.Fatalf("receipt echoes wrong config: %v", data)
	}

	if len(sink.records) != 1 {
		t.Fatalf("sink received %d records", len(sink.records))
	}

	// session row recorded
	var n int
	err := e.app.QueryRow(`SELECT COUNT(*) FROM form_session WHERE id = 'sess-1'`).Scan(&n)
	if err != nil || n != 1 {
		t.Fatalf("session rows: %d (%v)", n, err)
	}

	// submit analytics event recorded
	err = e.app.QueryRow(`SELECT COUNT(*) FROM analytics_event WHERE form_id = ? AND event_type = 'submit'`, formID).Scan(&n)
	if err != nil || n != 1 {
		t.Fatalf("submit events: %d (%v)", n, err)
	}
}

func TestSubmitUnknownOrgCode(t *testing.T) {
	e, sink := setup(t)

	w := e.doJSON(t, "POST", "/api/submit", model.FormSubmission{
		FormID:  "f1",
		OrgCode: "ZZZZZZ",
		Data:    map[string]any{"name": "Jane"},
	})
	if w.Code != http.StatusNotFound {
		t.Fatalf("got %d: %s", w.Code, w.Body.String())
	}
	env := decodeEnvelope(t, w)
	if env.Error != "Invalid organization code or form not found" {
		t.Fatalf("error: %q", env.Error)
	}
	if len(sink.records) != 0 {
		t.Fatal("sink received a rejected submission")
	}
}

func TestSubmitFormIdMismatch(t *testing.T) {
	e, _ := setup(t)
	seedForm(t, e)

	w := e.doJSON(t, "POST", "/api/submit", model.FormSubmission{
		FormID:  "some-other-form",
		OrgCode: "ABC123",
		Data:    map[string]any{"name": "Jane"},
	})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("got %d: %s", w.Code, w.Body.String())
	}
	if env := decodeEnvelope(t, w); env.Error != "Form ID mismatch" {
		t.Fatalf("error: %q", env.Error)
	}
}

func TestSubmitEmptyDataRecord(t *testing.T) {
	e, sink := setup(t)
	formID := seedForm(t, e)

	// untouched all-optional form: data is present but empty
	w := e.doJSON(t, "POST", "/api/submit", model.FormSubmission{
		FormID:  formID,
		OrgCode: "ABC123",
		Data:    map[string]any{},
	})
	if w.Code != http.StatusOK {
		t.Fatalf("empty data record rejected: %d %s", w.Code, w.Body.String())
	}
	if len(sink.records) != 1 {
		t.Fatalf("sink received %d records", len(sink.records))
	}

	// absent data is still a structural failure
	w = e.doJSON(t, "POST", "/api/submit", map[string]any{
		"formId":  formID,
		"orgCode": "ABC123",
	})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("absent data accepted: %d", w.Code)
	}
}

func TestSubmitStructuralValidation(t *testing.T) {
	e, _ := setup(t)

	w := e.doJSON(t, "POST", "/api/submit", map[string]any{"orgCode": "nope"})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("got %d: %s", w.Code, w.Body.String())
	}
	env := decodeEnvelope(t, w)
	if len(env.Details) != 3 {
		t.Fatalf("details: %+v", env.Details)
	}
}

func TestSubmitRejectsGet(t *testing.T) {
	e, _ := setup(t)

	w := e.doJSON(t, "GET", "/api/submit", nil)
	if w.Code != http.StatusMethodNotAllowed {
		t.Fatalf("got %d", w.Code)
	}
}

func TestUpdateFormOptimisticLock(t *testing.T) {
	e, _ := setup(t)
	formID := seedForm(t, e)

	cfg := seedConfig()
	cfg.Version = 1
	cfg.LogoURL = "https://cdn.example.com/logo.png"
	w := e.doJSON(t, "PUT", "/api/admin/forms/"+formID, cfg)
	if w.Code != http.StatusNoContent {
		t.Fatalf("first update: %d %s", w.Code, w.Body.String())
	}

	// stale version must conflict
	w = e.doJSON(t, "PUT", "/api/admin/forms/"+formID, cfg)
	if w.Code != http.StatusConflict {
		t.Fatalf("stale update: %d", w.Code)
	}
}

func TestUpdateFormUnknownId(t *testing.T) {
	e, _ := setup(t)
	seedForm(t, e)

	cfg := seedConfig()
	cfg.Version = 1
	w := e.doJSON(t, "PUT", "/api/admin/forms/no-such-form", cfg)
	if w.Code != http.StatusNotFound {
		t.Fatalf("unknown id: got %d %s", w.Code, w.Body.String())
	}
}

func TestCreateFormRejectsBadConfig(t *testing.T) {
	e, _ := setup(t)

	bad := seedConfig()
	bad.Fields = append(bad.Fields, model.FormField{Name: "name", Label: "Duplicate", Type: model.FieldText})
	w := e.doJSON(t, "POST", "/api/admin/forms", bad)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("duplicate names accepted: %d", w.Code)
	}

	bad = seedConfig()
	bad.OrgCode = "TOOLONG7"
	w = e.doJSON(t, "POST", "/api/admin/forms", bad)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("bad org code accepted: %d", w.Code)
	}
}

func TestCreateFormDuplicateOrgCode(t *testing.T) {
	e, _ := setup(t)
	seedForm(t, e)

	w := e.doJSON(t, "POST", "/api/admin/forms", seedConfig())
	if w.Code != http.StatusConflict {
		t.Fatalf("duplicate org code: %d", w.Code)
	}
}

func TestDeleteForm(t *testing.T) {
	e, _ := setup(t)
	formID := seedForm(t, e)

	w := e.doJSON(t, "DELETE", "/api/admin/forms/"+formID, nil)
	if w.Code != http.StatusNoContent {
		t.Fatalf("delete: %d", w.Code)
	}
	w = e.doJSON(t, "DELETE", "/api/admin/forms/"+formID, nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("second delete: %d", w.Code)
	}
	w = e.doJSON(t, "GET", "/api/forms/ABC123", nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("config survived delete: %d", w.Code)
	}
}

func TestFormAnalyticsCounts(t *testing.T) {
	e, _ := setup(t)
	formID := seedForm(t, e)

	// two views and one submission
	e.doJSON(t, "GET", "/api/forms/ABC123", nil)
	e.doJSON(t, "GET", "/api/forms/ABC123", nil)
	e.doJSON(t, "POST", "/api/submit", model.FormSubmission{
		FormID:  formID,
		OrgCode: "ABC123",
		Data:    map[string]any{"name": "Jane"},
	})

	w := e.doJSON(t, "GET", "/api/admin/forms/"+formID+"/analytics", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("analytics: %d %s", w.Code, w.Body.String())
	}
	env := decodeEnvelope(t, w)
	raw, _ := json.Marshal(env.Data)
	var report struct {
		Events []struct {
			EventType string `json:"eventType"`
			Count     int    `json:"count"`
		} `json:"events"`
	}
	if err := json.Unmarshal(raw, &report); err != nil {
		t.Fatal(err)
	}
	counts := map[string]int{}
	for _, c := range report.Events {
		counts[c.EventType] = c.Count
	}
	if counts["view"] != 2 || counts["submit"] != 1 {
		t.Fatalf("counts: %v", counts)
	}
}

func TestTemplates(t *testing.T) {
	e, _ := setup(t)

	w := e.doJSON(t, "POST", "/api/admin/templates", model.FormTemplate{
		Name:     "Basic work order",
		Category: "global",
		Fields:   seedConfig().Fields,
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("create template: %d %s", w.Code, w.Body.String())
	}

	w = e.doJSON(t, "GET", "/api/admin/templates", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("list templates: %d", w.Code)
	}
	env := decodeEnvelope(t, w)
	raw, _ := json.Marshal(env.Data)
	var listing struct {
		Templates []model.FormTemplate `json:"templates"`
	}
	if err := json.Unmarshal(raw, &listing); err != nil {
		t.Fatal(err)
	}
	if len(listing.Templates) != 1 || listing.Templates[0].Name != "Basic work order" {
		t.Fatalf("templates: %+v", listing.Templates)
	}
}
