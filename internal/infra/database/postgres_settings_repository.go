package database

import (
	"context"
	"database/sql"
	"fmt"

	"questionnaire_reminder/internal/domain/settings"
)

// PostgresSettingsRepository stores the job settings in the LMS plugin config table.
type PostgresSettingsRepository struct {
	db     *sql.DB
	tables Tables
}

func NewPostgresSettingsRepository(db *sql.DB, tables Tables) *PostgresSettingsRepository {
	return &PostgresSettingsRepository{db: db, tables: tables}
}

func (r *PostgresSettingsRepository) Get(ctx context.Context, name string) (string, error) {
	query := r.tables.expand(`SELECT value FROM {config_plugins} WHERE plugin = $1 AND name = $2`)
	var value sql.NullString
	err := r.db.QueryRowContext(ctx, query, settings.Plugin, name).Scan(&value)
	if err != nil {
		if err == sql.ErrNoRows {
			return "", ErrSettingNotFound
		}
		return "", fmt.Errorf("error getting setting %s: %w", name, err)
	}
	return value.String, nil
}

func (r *PostgresSettingsRepository) Set(ctx context.Context, name, value string) error {
	query := r.tables.expand(`INSERT INTO {config_plugins} (plugin, name, value)
               VALUES ($1, $2, $3)
               ON CONFLICT (plugin, name) DO UPDATE SET value = EXCLUDED.value`)
	if _, err := r.db.ExecContext(ctx, query, settings.Plugin, name, value); err != nil {
		return fmt.Errorf("error setting %s: %w", name, err)
	}
	return nil
}

func (r *PostgresSettingsRepository) Unset(ctx context.Context, name string) error {
	query := r.tables.expand(`DELETE FROM {config_plugins} WHERE plugin = $1 AND name = $2`)
	if _, err := r.db.ExecContext(ctx, query, settings.Plugin, name); err != nil {
		return fmt.Errorf("error unsetting %s: %w", name, err)
	}
	return nil
}
