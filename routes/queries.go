package routes

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/formdesk/intake/model"
)

type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// formByCode loads a full config by its public org code.
func formByCode(ctx context.Context, q querier, code string) (*model.FormConfig, error) {
	return loadForm(ctx, q, "org_code", code)
}

// formByID loads a full config by primary key.
func formByID(ctx context.Context, q querier, id string) (*model.FormConfig, error) {
	return loadForm(ctx, q, "id", id)
}

func loadForm(ctx context.Context, q querier, column, key string) (*model.FormConfig, error) {
	cfg := model.FormConfig{}
	var colors string
	var layout, settings sql.NullString
	err := q.QueryRowContext(ctx, fmt.Sprintf(`
		SELECT id, version, org_id, org_code, logo_url, colors, layout, settings
		FROM form_config
		WHERE %s = ?`, column),
		key,
	).Scan(&cfg.ID, &cfg.Version, &cfg.OrgID, &cfg.OrgCode, &cfg.LogoURL, &colors, &layout, &settings)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(colors), &cfg.Colors); err != nil {
		return nil, fmt.Errorf("config %s: colors: %w", cfg.ID, err)
	}
	if layout.Valid && layout.String != "" {
		cfg.Layout = &model.FormLayout{}
		if err := json.Unmarshal([]byte(layout.String), cfg.Layout); err != nil {
			return nil, fmt.Errorf("config %s: layout: %w", cfg.ID, err)
		}
	}
	if settings.Valid && settings.String != "" {
		cfg.Settings = &model.FormSettings{}
		if err := json.Unmarshal([]byte(settings.String), cfg.Settings); err != nil {
			return nil, fmt.Errorf("config %s: settings: %w", cfg.ID, err)
		}
	}

	rows, err := q.QueryContext(ctx, `
		SELECT id, name, label, type, required, placeholder, options, validation
		FROM form_field
		WHERE config_id = ?
		ORDER BY position`,
		cfg.ID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		f := model.FormField{}
		var options, validation sql.NullString
		err = rows.Scan(&f.ID, &f.Name, &f.Label, &f.Type, &f.Required, &f.Placeholder, &options, &validation)
		if err != nil {
			return nil, err
		}
		if options.Valid && options.String != "" {
			if err := json.Unmarshal([]byte(options.String), &f.Options); err != nil {
				return nil, fmt.Errorf("field %s: options: %w", f.Name, err)
			}
		}
		if validation.Valid && validation.String != "" {
			f.Validation = &model.FieldValidation{}
			if err := json.Unmarshal([]byte(validation.String), f.Validation); err != nil {
				return nil, fmt.Errorf("field %s: validation: %w", f.Name, err)
			}
		}
		cfg.Fields = append(cfg.Fields, f)
	}
	return &cfg, rows.Err()
}

func insertFields(ctx context.Context, tx *sql.Tx, configID string, fields []model.FormField) error {
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO form_field (id, config_id, position, name, label, type, required, placeholder, options, validation)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, f := range fields {
		var options, validation []byte
		if f.Options != nil {
			options, err = json.Marshal(f.Options)
			if err != nil {
				return err
			}
		}
		if f.Validation != nil {
			validation, err = json.Marshal(f.Validation)
			if err != nil {
				return err
			}
		}
		id := f.ID
		if id == "" {
			id = uuid.NewString()
		}
		_, err = stmt.ExecContext(ctx, id, configID, i, f.Name, f.Label, string(f.Type), f.Required, f.Placeholder, string(options), string(validation))
		if err != nil {
			return err
		}
	}
	return nil
}

func marshalLayoutSettings(cfg *model.FormConfig) (colors string, layout, settings any, err error) {
	colorsJson, err := json.Marshal(cfg.Colors)
	if err != nil {
		return
	}
	colors = string(colorsJson)

	if cfg.Layout != nil {
		var raw []byte
		raw, err = json.Marshal(cfg.Layout)
		if err != nil {
			return
		}
		layout = string(raw)
	}
	if cfg.Settings != nil {
		var raw []byte
		raw, err = json.Marshal(cfg.Settings)
		if err != nil {
			return
		}
		settings = string(raw)
	}
	return
}
