package store

import (
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"
)

// Setting keys
const (
	KeyDiameterCm = "calibration.diameter_cm"
	KeyLiveFPS    = "live.fps"
)

// Setting is one stored key/value pair.
type Setting struct {
	Key       string
	Value     string
	UpdatedAt time.Time
}

// SettingsRepository reads and writes settings.
type SettingsRepository struct {
	db *sql.DB
}

// Settings returns the settings repository for this store.
func (s *Store) Settings() *SettingsRepository {
	return &SettingsRepository{db: s.db}
}

// Get returns the setting for key or ErrNotFound.
func (r *SettingsRepository) Get(key string) (*Setting, error) {
	var st Setting
	err := r.db.QueryRow(
		`SELECT key, value, updated_at FROM settings WHERE key = ?`, key,
	).Scan(&st.Key, &st.Value, &st.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &st, nil
}

// Put inserts or replaces the setting for key.
func (r *SettingsRepository) Put(key, value string) error {
	_, err := r.db.Exec(
		`INSERT INTO settings (key, value, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value, time.Now().UTC(),
	)
	return err
}

// Delete removes the setting for key. Missing keys return ErrNotFound.
func (r *SettingsRepository) Delete(key string) error {
	result, err := r.db.Exec(`DELETE FROM settings WHERE key = ?`, key)
	if err != nil {
		return err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// List returns all settings ordered by key.
func (r *SettingsRepository) List() ([]*Setting, error) {
	rows, err := r.db.Query(`SELECT key, value, updated_at FROM settings ORDER BY key`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Setting
	for rows.Next() {
		var st Setting
		if err := rows.Scan(&st.Key, &st.Value, &st.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, &st)
	}
	return out, rows.Err()
}

// Float returns the setting for key parsed as a float, or def when unset.
func (r *SettingsRepository) Float(key string, def float64) (float64, error) {
	st, err := r.Get(key)
	if errors.Is(err, ErrNotFound) {
		return def, nil
	}
	if err != nil {
		return def, err
	}
	v, err := strconv.ParseFloat(st.Value, 64)
	if err != nil {
		return def, fmt.Errorf("setting %s: %w", key, err)
	}
	return v, nil
}

// PutFloat stores a float setting.
func (r *SettingsRepository) PutFloat(key string, v float64) error {
	return r.Put(key, strconv.FormatFloat(v, 'g', -1, 64))
}

// Int returns the setting for key parsed as an int, or def when unset.
func (r *SettingsRepository) Int(key string, def int) (int, error) {
	st, err := r.Get(key)
	if errors.Is(err, ErrNotFound) {
		return def, nil
	}
	if err != nil {
		return def, err
	}
	v, err := strconv.Atoi(st.Value)
	if err != nil {
		return def, fmt.Errorf("setting %s: %w", key, err)
	}
	return v, nil
}

// PutInt stores an int setting.
func (r *SettingsRepository) PutInt(key string, v int) error {
	return r.Put(key, strconv.Itoa(v))
}
