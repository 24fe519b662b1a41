package store

import (
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/ayusman/handtype/internal/gesture"
)

// Setting keys.
const (
	KeyRequiredConsecutive = "required_consecutive"
	KeyCooldownMs          = "cooldown_ms"
)

// SettingsRepository reads and writes key/value settings.
type SettingsRepository struct {
	db *sql.DB
}

// Settings returns the settings repository for this store.
func (s *Store) Settings() *SettingsRepository {
	return &SettingsRepository{db: s.db}
}

// Get returns the value stored under key or ErrNotFound.
func (r *SettingsRepository) Get(key string) (string, error) {
	var value string
	err := r.db.QueryRow(`SELECT value FROM settings WHERE key = ?`, key).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrNotFound
		}
		return "", err
	}
	return value, nil
}

// Set inserts or replaces the value under key.
func (r *SettingsRepository) Set(key, value string) error {
	return setSetting(r.db, key, value)
}

// Delete removes key. Deleting a missing key is not an error.
func (r *SettingsRepository) Delete(key string) error {
	_, err := r.db.Exec(`DELETE FROM settings WHERE key = ?`, key)
	return err
}

// All returns every stored setting.
func (r *SettingsRepository) All() (map[string]string, error) {
	rows, err := r.db.Query(`SELECT key, value FROM settings ORDER BY key`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	settings := make(map[string]string)
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, err
		}
		settings[key] = value
	}
	return settings, rows.Err()
}

// LoadTunables overlays the stored debouncer tunables on base. Missing keys
// keep the base value; unparsable values are an error.
func (r *SettingsRepository) LoadTunables(base gesture.Config) (gesture.Config, error) {
	cfg := base

	if v, err := r.Get(KeyRequiredConsecutive); err == nil {
		n, err := strconv.Atoi(v)
		if err != nil {
			return base, fmt.Errorf("setting %s: %w", KeyRequiredConsecutive, err)
		}
		cfg.RequiredConsecutive = n
	} else if !errors.Is(err, ErrNotFound) {
		return base, err
	}

	if v, err := r.Get(KeyCooldownMs); err == nil {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return base, fmt.Errorf("setting %s: %w", KeyCooldownMs, err)
		}
		cfg.Cooldown = time.Duration(n) * time.Millisecond
	} else if !errors.Is(err, ErrNotFound) {
		return base, err
	}

	if err := cfg.Validate(); err != nil {
		return base, err
	}
	return cfg, nil
}

// SaveTunables validates cfg and stores both tunables atomically.
func (r *SettingsRepository) SaveTunables(cfg gesture.Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := setSetting(tx, KeyRequiredConsecutive, strconv.Itoa(cfg.RequiredConsecutive)); err != nil {
		return err
	}
	if err := setSetting(tx, KeyCooldownMs, strconv.FormatInt(cfg.Cooldown.Milliseconds(), 10)); err != nil {
		return err
	}

	return tx.Commit()
}

type execer interface {
	Exec(query string, args ...any) (sql.Result, error)
}

func setSetting(db execer, key, value string) error {
	_, err := db.Exec(
		`INSERT INTO settings (key, value, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value, time.Now(),
	)
	return err
}
