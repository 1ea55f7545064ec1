package db

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/banshee-data/presence.report/internal/serialmux"
)

// serialOptionsKey is the settings key holding the persisted serial port
// configuration as JSON.
const serialOptionsKey = "serial_port_options"

// SetSetting upserts one settings key.
func (db *DB) SetSetting(key, value string) error {
	_, err := db.Exec(
		`INSERT INTO settings (key, value, updated_at_ms) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at_ms = excluded.updated_at_ms`,
		key, value, time.Now().UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("failed to set setting %q: %w", key, err)
	}
	return nil
}

// GetSetting returns the value for key. ok is false when the key is unset.
func (db *DB) GetSetting(key string) (value string, ok bool, err error) {
	err = db.QueryRow(`SELECT value FROM settings WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to get setting %q: %w", key, err)
	}
	return value, true, nil
}

// AllSettings returns every settings key and value.
func (db *DB) AllSettings() (map[string]string, error) {
	rows, err := db.Query(`SELECT key, value FROM settings ORDER BY key`)
	if err != nil {
		return nil, fmt.Errorf("failed to query settings: %w", err)
	}
	defer rows.Close()

	settings := make(map[string]string)
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, fmt.Errorf("failed to scan setting: %w", err)
		}
		settings[k] = v
	}
	return settings, rows.Err()
}

// SavePortOptions persists the serial port configuration so the daemon
// reopens the port with the same parameters after a restart.
func (db *DB) SavePortOptions(opts serialmux.PortOptions) error {
	normalized, err := opts.Normalize()
	if err != nil {
		return err
	}
	raw, err := json.Marshal(normalized)
	if err != nil {
		return fmt.Errorf("failed to encode port options: %w", err)
	}
	return db.SetSetting(serialOptionsKey, string(raw))
}

// LoadPortOptions returns the persisted serial port configuration, or the
// defaults when none has been saved.
func (db *DB) LoadPortOptions() (serialmux.PortOptions, error) {
	raw, ok, err := db.GetSetting(serialOptionsKey)
	if err != nil {
		return serialmux.PortOptions{}, err
	}
	if !ok {
		return serialmux.PortOptions{}.Normalize()
	}

	var opts serialmux.PortOptions
	if err := json.Unmarshal([]byte(raw), &opts); err != nil {
		return serialmux.PortOptions{}, fmt.Errorf("failed to decode port options: %w", err)
	}
	return opts.Normalize()
}
