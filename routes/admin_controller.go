package routes

import (
	"database/sql"
	"encoding/json"
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

func CreateForm(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cfg := model.FormConfig{}
		err := render.DecodeJSON(r.Body, &cfg)
		if err != nil {
			httpx.LogStatusMsg(w, r, http.StatusBadRequest, log.DebugLevel, "request.parse_body",
				"Invalid request body")
			return
		}

		cfg.OrgCode = strings.ToUpper(cfg.OrgCode)
		if err := cfg.Validate(); err != nil {
			httpx.LogStatusMsg(w, r, http.StatusBadRequest, log.DebugLevel, "request.validate", err.Error())
			return
		}

		colors, layout, settings, err := marshalLayoutSettings(&cfg)
		if err != nil {
			httpx.LogInternalError(w, r, "db.insert_form.marshal", err)
			return
		}

		tx, err := app.BeginTx(r.Context(), nil)
		if err != nil {
			httpx.LogInternalError(w, r, "db.begin_tx", err)
			return
		}
		defer tx.Rollback()

		configID := uuid.NewString()
		now := time.Now().UTC()
		_, err = tx.ExecContext(r.Context(), `
			INSERT INTO form_config (id, version, org_id, org_code, logo_url, colors, layout, settings, created_at, updated_at)
			VALUES (?, 1, ?, ?, ?, ?, ?, ?, ?, ?)`,
			configID,
			cfg.OrgID,
			cfg.OrgCode,
			cfg.LogoURL,
			colors,
			layout,
			settings,
			now,
			now,
		)
		if err != nil {
			// org_code carries a UNIQUE constraint
			httpx.LogStatusMsg(w, r, http.StatusConflict, log.DebugLevel, "db.insert_form", err.Error())
			return
		}

		err = insertFields(r.Context(), tx, configID, cfg.Fields)
		if err != nil {
			httpx.LogInternalError(w, r, "db.insert_form.fields", err)
			return
		}

		err = tx.Commit()
		if err != nil {
			httpx.LogInternalError(w, r, "db.insert_form.commit", err)
			return
		}

		render.Status(r, http.StatusCreated)
		httpx.JSON(w, r, map[string]any{"id": configID})
	}
}

func ListForms(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rows, err := app.QueryContext(r.Context(), `
			SELECT id, version, org_id, org_code, logo_url
			FROM form_config`)
		if err != nil {
			httpx.LogInternalError(w, r, "db.get_forms", err)
			return
		}
		defer rows.Close()

		forms := []model.FormConfig{}
		for rows.Next() {
			cfg := model.FormConfig{}
			err = rows.Scan(&cfg.ID, &cfg.Version, &cfg.OrgID, &cfg.OrgCode, &cfg.LogoURL)
			if err != nil {
				httpx.LogInternalError(w, r, "db.get_forms.scan", err)
				return
			}
			forms = append(forms, cfg)
		}

		httpx.JSON(w, r, map[string]any{"forms": forms})
	}
}

func GetFormById(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		formId := chi.URLParam(r, "id")

		cfg, err := formByID(r.Context(), app.DB, formId)
		if errors.Is(err, sql.ErrNoRows) {
			httpx.LogNotFound(w, r, "get_form", formId, "Form not found")
			return
		}
		if err != nil {
			httpx.LogInternalError(w, r, "db.get_form", err)
			return
		}

		httpx.JSON(w, r, cfg)
	}
}

func UpdateForm(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		formId := chi.URLParam(r, "id")

		cfg := model.FormConfig{}
		err := render.DecodeJSON(r.Body, &cfg)
		if err != nil {
			httpx.LogStatusMsg(w, r, http.StatusBadRequest, log.DebugLevel, "request.parse_body",
				"Invalid request body")
			return
		}

		cfg.OrgCode = strings.ToUpper(cfg.OrgCode)
		if err := cfg.Validate(); err != nil {
			httpx.LogStatusMsg(w, r, http.StatusBadRequest, log.DebugLevel, "request.validate", err.Error())
			return
		}

		colors, layout, settings, err := marshalLayoutSettings(&cfg)
		if err != nil {
			httpx.LogInternalError(w, r, "db.update_form.marshal", err)
			return
		}

		tx, err := app.BeginTx(r.Context(), nil)
		if err != nil {
			httpx.LogInternalError(w, r, "db.begin_tx", err)
			return
		}
		defer tx.Rollback()

		var exists int
		err = tx.QueryRowContext(r.Context(), `
			SELECT 1 FROM form_config
			WHERE id = ?`,
			formId,
		).Scan(&exists)
		if errors.Is(err, sql.ErrNoRows) {
			httpx.LogNotFound(w, r, "update_form", formId, "Form not found")
			return
		}
		if err != nil {
			httpx.LogInternalError(w, r, "db.update_form.get", err)
			return
		}

		// recreate the whole field set
		_, err = tx.ExecContext(r.Context(), `
			DELETE FROM form_field
			WHERE config_id = ?`,
			formId,
		)
		if err != nil {
			httpx.LogInternalError(w, r, "db.update_form.delete_fields", err)
			return
		}

		err = insertFields(r.Context(), tx, formId, cfg.Fields)
		if err != nil {
			httpx.LogInternalError(w, r, "db.update_form.fields", err)
			return
		}

		res, err := tx.ExecContext(r.Context(), `
			UPDATE form_config
			SET
				org_id = ?,
				org_code = ?,
				logo_url = ?,
				colors = ?,
				layout = ?,
				settings = ?,
				updated_at = ?,
				version = version+1
			WHERE	id = ?
				AND version = ?`,
			cfg.OrgID,
			cfg.OrgCode,
			cfg.LogoURL,
			colors,
			layout,
			settings,
			time.Now().UTC(),
			formId,
			cfg.Version,
		)
		if err != nil {
			httpx.LogInternalError(w, r, "db.update_form", err)
			return
		}
		// optimistic lock
		n, err := res.RowsAffected()
		if err != nil {
			httpx.LogInternalError(w, r, "db.update_form.verify", err)
			return
		}
		if n < 1 {
			httpx.LogStatusMsg(w, r, http.StatusConflict, log.DebugLevel, "db.update_form.verify.conflict",
				"Form was modified concurrently")
			return
		}

		err = tx.Commit()
		if err != nil {
			httpx.LogInternalError(w, r, "db.update_form.commit", err)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

func DeleteForm(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		formId := chi.URLParam(r, "id")

		res, err := app.ExecContext(r.Context(), `
			DELETE FROM form_config WHERE id = ?`,
			formId,
		)
		if err != nil {
			httpx.LogInternalError(w, r, "db.delete_form", err)
			return
		}
		n, err := res.RowsAffected()
		if err != nil {
			httpx.LogInternalError(w, r, "db.delete_form.verify", err)
			return
		}
		if n < 1 {
			httpx.LogNotFound(w, r, "delete_form", formId, "Form not found")
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

type eventCount struct {
	EventType string `json:"eventType"`
	Count     int    `json:"count"`
}

type fieldCount struct {
	FieldName string `json:"fieldName"`
	EventType string `json:"eventType"`
	Count     int    `json:"count"`
}

// FormAnalytics aggregates event and field-interaction counts for one form.
func FormAnalytics(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		formId := chi.URLParam(r, "id")

		rows, err := app.QueryContext(r.Context(), `
			SELECT event_type, COUNT(*)
			FROM analytics_event
			WHERE form_id = ?
			GROUP BY event_type`,
			formId,
		)
		if err != nil {
			httpx.LogInternalError(w, r, "db.get_analytics", err)
			return
		}
		defer rows.Close()

		events := []eventCount{}
		for rows.Next() {
			c := eventCount{}
			if err = rows.Scan(&c.EventType, &c.Count); err != nil {
				httpx.LogInternalError(w, r, "db.get_analytics.scan", err)
				return
			}
			events = append(events, c)
		}

		fieldRows, err := app.QueryContext(r.Context(), `
			SELECT field_name, event_type, COUNT(*)
			FROM field_analytics
			WHERE form_id = ?
			GROUP BY field_name, event_type`,
			formId,
		)
		if err != nil {
			httpx.LogInternalError(w, r, "db.get_field_analytics", err)
			return
		}
		defer fieldRows.Close()

		fields := []fieldCount{}
		for fieldRows.Next() {
			c := fieldCount{}
			if err = fieldRows.Scan(&c.FieldName, &c.EventType, &c.Count); err != nil {
				httpx.LogInternalError(w, r, "db.get_field_analytics.scan", err)
				return
			}
			fields = append(fields, c)
		}

		httpx.JSON(w, r, map[string]any{
			"events": events,
			"fields": fields,
		})
	}
}

func ListTemplates(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rows, err := app.QueryContext(r.Context(), `
			SELECT id, name, category, fields, layout, created_at
			FROM form_template
			ORDER BY name`)
		if err != nil {
			httpx.LogInternalError(w, r, "db.get_templates", err)
			return
		}
		defer rows.Close()

		templates := []model.FormTemplate{}
		for rows.Next() {
			t := model.FormTemplate{}
			var fields string
			var layout sql.NullString
			err = rows.Scan(&t.ID, &t.Name, &t.Category, &fields, &layout, &t.CreatedAt)
			if err != nil {
				httpx.LogInternalError(w, r, "db.get_templates.scan", err)
				return
			}
			if err = json.Unmarshal([]byte(fields), &t.Fields); err != nil {
				httpx.LogInternalError(w, r, "db.get_templates.parse_fields", err)
				return
			}
			if layout.Valid && layout.String != "" {
				t.Layout = &model.FormLayout{}
				if err = json.Unmarshal([]byte(layout.String), t.Layout); err != nil {
					httpx.LogInternalError(w, r, "db.get_templates.parse_layout", err)
					return
				}
			}
			templates = append(templates, t)
		}

		httpx.JSON(w, r, map[string]any{"templates": templates})
	}
}

func CreateTemplate(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		t := model.FormTemplate{}
		err := render.DecodeJSON(r.Body, &t)
		if err != nil {
			httpx.LogStatusMsg(w, r, http.StatusBadRequest, log.DebugLevel, "request.parse_body",
				"Invalid request body")
			return
		}
		if t.Name == "" || len(t.Fields) == 0 {
			httpx.LogStatusMsg(w, r, http.StatusBadRequest, log.DebugLevel, "request.validate",
				"Template requires a name and at least one field")
			return
		}
		switch t.Category {
		case "global", "industry", "custom":
		case "":
			t.Category = "custom"
		default:
			httpx.LogStatusMsg(w, r, http.StatusBadRequest, log.DebugLevel, "request.validate",
				"Template category must be global, industry or custom")
			return
		}

		fields, err := json.Marshal(t.Fields)
		if err != nil {
			httpx.LogInternalError(w, r, "db.insert_template.marshal", err)
			return
		}
		var layout any
		if t.Layout != nil {
			raw, err := json.Marshal(t.Layout)
			if err != nil {
				httpx.LogInternalError(w, r, "db.insert_template.marshal", err)
				return
			}
			layout = string(raw)
		}

		templateID := uuid.NewString()
		_, err = app.ExecContext(r.Context(), `
			INSERT INTO form_template (id, name, category, fields, layout, created_at)
			VALUES (?, ?, ?, ?, ?, ?)`,
			templateID,
			t.Name,
			t.Category,
			string(fields),
			layout,
			time.Now().UTC(),
		)
		if err != nil {
			httpx.LogInternalError(w, r, "db.insert_template", err)
			return
		}

		render.Status(r, http.StatusCreated)
		httpx.JSON(w, r, map[string]any{"id": templateID})
	}
}
