package database

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/lysyi3m/rss-buckets/app/library"
)

// SettingsRepository stores the key/value application settings
type SettingsRepository struct {
	db *DB
}

func NewSettingsRepository(db *DB) *SettingsRepository {
	return &SettingsRepository{db: db}
}

// GetSettings returns the auto-refresh configuration and the time of the
// last full refresh, with defaults for anything not stored yet.
func (r *SettingsRepository) GetSettings(ctx context.Context) (library.AutoRefreshConfig, time.Time, error) {
	autoRefresh := library.DefaultAutoRefresh()
	var lastRefresh time.Time

	var rows []settingRow
	if err := r.db.SelectContext(ctx, &rows, `SELECT key, value FROM settings`); err != nil {
		return autoRefresh, lastRefresh, fmt.Errorf("failed to query settings: %w", err)
	}

	for _, row := range rows {
		switch row.Key {
		case settingAutoRefresh:
			if err := json.Unmarshal([]byte(row.Value), &autoRefresh); err != nil {
				return autoRefresh, lastRefresh, fmt.Errorf("failed to decode auto-refresh setting: %w", err)
			}
		case settingLastRefresh:
			t, err := parseTime(row.Value)
			if err != nil {
				return autoRefresh, lastRefresh, err
			}
			lastRefresh = t
		}
	}

	return autoRefresh, lastRefresh, nil
}

func (r *SettingsRepository) replaceSettings(ctx context.Context, tx *sqlx.Tx, autoRefresh library.AutoRefreshConfig, lastRefresh time.Time) error {
	data, err := json.Marshal(autoRefresh)
	if err != nil {
		return fmt.Errorf("failed to encode auto-refresh setting: %w", err)
	}

	rows := []settingRow{
		{Key: settingAutoRefresh, Value: string(data)},
		{Key: settingLastRefresh, Value: formatTime(lastRefresh)},
	}
	for _, row := range rows {
		if _, err := tx.NamedExecContext(ctx, `INSERT INTO settings (key, value) VALUES (:key, :value)`, row); err != nil {
			return fmt.Errorf("failed to insert setting %s: %w", row.Key, err)
		}
	}
	return nil
}
