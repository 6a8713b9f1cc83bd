package routes

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/google/uuid"

	"github.com/formdesk/intake/app"
	"github.com/formdesk/intake/httpx"
	"github.com/formdesk/intake/log"
	"github.com/formdesk/intake/model"
)

const msgFormNotFound = "Invalid organization code or form not found"

func clientIP(r *http.Request) string {
	return strings.Split(r.RemoteAddr, ":")[0]
}

// PublicGetFormByCode serves the form configuration selected by the org code
// path segment and records a view event.
func PublicGetFormByCode(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		code := strings.ToUpper(chi.URLParam(r, "code"))
		if !model.ValidOrgCode(code) {
			httpx.LogStatusMsg(w, r, http.StatusBadRequest, log.DebugLevel, "request.get_url_param.code",
				"Organization code must be exactly 6 characters")
			return
		}

		cfg, err := formByCode(r.Context(), app.DB, code)
		if errors.Is(err, sql.ErrNoRows) {
			httpx.LogNotFound(w, r, "get_form", code, msgFormNotFound)
			return
		}
		if err != nil {
			httpx.LogInternalError(w, r, "db.get_form", err)
			return
		}

		app.Analytics.TrackEvent(r.Context(), model.AnalyticsEvent{
			FormID:    cfg.ID,
			OrgID:     cfg.OrgID,
			EventType: model.EventView,
			UserAgent: r.UserAgent(),
			IPAddress: clientIP(r),
		})

		httpx.JSON(w, r, cfg)
	}
}

// PublicRejectGet answers any non-POST on the submit endpoint.
func PublicRejectGet(w http.ResponseWriter, r *http.Request) {
	httpx.JSONError(w, r, http.StatusMethodNotAllowed, "Method not allowed")
}

// PublicSubmitForm validates the payload shape, matches it against the stored
// configuration, records session and analytics rows, hands the submission to
// the sink, and answers with a generated receipt.
func PublicSubmitForm(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), app.SubmitTimeout)
		defer cancel()

		sub := model.FormSubmission{}
		err := render.DecodeJSON(r.Body, &sub)
		if err != nil {
			httpx.LogStatusMsg(w, r, http.StatusBadRequest, log.DebugLevel, "request.parse_body",
				"Invalid request body")
			return
		}

		var details []httpx.FieldError
		if sub.FormID == "" {
			details = append(details, httpx.FieldError{Field: "formId", Message: "is required"})
		}
		if !model.ValidOrgCode(sub.OrgCode) {
			details = append(details, httpx.FieldError{Field: "orgCode", Message: "must be exactly 6 characters"})
		}
		// data must be a record, but its shape is otherwise unchecked: a
		// form of all-optional fields legitimately submits an empty map
		if sub.Data == nil {
			details = append(details, httpx.FieldError{Field: "data", Message: "is required"})
		}
		if len(details) > 0 {
			httpx.LogStatusDetails(w, r, http.StatusBadRequest, log.DebugLevel, "request.validate",
				"Invalid submission payload", details)
			return
		}

		var formID, orgID string
		err = app.QueryRowContext(ctx, `
			SELECT id, org_id FROM form_config
			WHERE org_code = ?`,
			sub.OrgCode,
		).Scan(&formID, &orgID)
		if errors.Is(err, sql.ErrNoRows) {
			httpx.LogNotFound(w, r, "submit.get_form", sub.OrgCode, msgFormNotFound)
			return
		}
		if err != nil {
			httpx.LogInternalError(w, r, "db.submit.get_form", err)
			return
		}

		if sub.FormID != formID {
			httpx.LogStatusMsg(w, r, http.StatusBadRequest, log.DebugLevel, "submit.form_id",
				"Form ID mismatch")
			return
		}

		if sub.UserAgent == "" {
			sub.UserAgent = r.UserAgent()
		}
		if sub.Referrer == "" {
			sub.Referrer = r.Referer()
		}

		if sub.SessionID != "" {
			_, err = app.ExecContext(ctx, `
				INSERT INTO form_session (id, form_id, org_id, user_agent, referrer, submitted_at, created_at)
				VALUES (?, ?, ?, ?, ?, ?, ?)
				ON CONFLICT (id) DO UPDATE SET submitted_at = excluded.submitted_at`,
				sub.SessionID,
				formID,
				orgID,
				sub.UserAgent,
				sub.Referrer,
				time.Now().UTC(),
				time.Now().UTC(),
			)
			if err != nil {
				httpx.LogInternalError(w, r, "db.submit.session", err)
				return
			}
		}

		app.Analytics.TrackEvent(ctx, model.AnalyticsEvent{
			FormID:    formID,
			OrgID:     orgID,
			EventType: model.EventSubmit,
			SessionID: sub.SessionID,
			UserAgent: sub.UserAgent,
			IPAddress: clientIP(r),
		})

		receipt := model.SubmitReceipt{
			SubmissionID: uuid.NewString(),
			OrgID:        orgID,
			FormID:       formID,
			SubmittedAt:  time.Now().UTC(),
		}

		err = app.Sink.Record(ctx, receipt, sub)
		if err != nil {
			httpx.LogInternalError(w, r, "submit.sink", err)
			return
		}

		httpx.JSON(w, r, receipt)
	}
}
