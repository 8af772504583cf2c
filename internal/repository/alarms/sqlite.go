package alarms

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // database/sql driver

	domain "github.com/Coolhgg/relife-scheduler/internal/domain/alarm"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens or creates a SQLite database at the given path.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	s := &SQLiteStore{db: db}

	if err := s.migrate(); err != nil {
		_ = db.Close()

		return nil, fmt.Errorf("migrate: %w", err)
	}

	return s, nil
}

// Close releases the underlying database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS alarms (
		id               TEXT PRIMARY KEY,
		time             TEXT NOT NULL,
		days             TEXT NOT NULL DEFAULT '[]',
		pattern          TEXT,
		label            TEXT NOT NULL DEFAULT '',
		sound            TEXT NOT NULL DEFAULT '',
		voice_mood       TEXT NOT NULL DEFAULT '',
		difficulty       TEXT NOT NULL DEFAULT '',
		snooze_enabled   INTEGER NOT NULL DEFAULT 0,
		snooze_interval  INTEGER NOT NULL DEFAULT 0,
		max_snoozes      INTEGER NOT NULL DEFAULT 0,
		weather_enabled  INTEGER NOT NULL DEFAULT 0,
		location_enabled INTEGER NOT NULL DEFAULT 0,
		enabled          INTEGER NOT NULL DEFAULT 1,
		optimizations    TEXT,
		created_at       TEXT NOT NULL,
		updated_at       TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_alarms_enabled ON alarms(enabled);
	`

	_, err := s.db.Exec(schema)

	return err
}

// alarmColumns is the column list shared by every SELECT.
const alarmColumns = `id, time, days, pattern, label, sound, voice_mood, difficulty,
	snooze_enabled, snooze_interval, max_snoozes, weather_enabled, location_enabled,
	enabled, optimizations, created_at, updated_at`

// List returns all stored alarms in insertion order.
func (s *SQLiteStore) List(ctx context.Context) ([]*domain.Alarm, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+alarmColumns+` FROM alarms ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("list alarms: %w", err)
	}
	defer rows.Close()

	var result []*domain.Alarm

	for rows.Next() {
		a, err := scanAlarm(rows)
		if err != nil {
			return nil, err
		}

		result = append(result, a)
	}

	return result, rows.Err()
}

// Get returns the alarm with the given id.
func (s *SQLiteStore) Get(ctx context.Context, id string) (*domain.Alarm, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+alarmColumns+` FROM alarms WHERE id = ?`, id)

	a, err := scanAlarm(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
		}

		return nil, err
	}

	return a, nil
}

// Create stores a new alarm, minting an id when none is set.
func (s *SQLiteStore) Create(ctx context.Context, a *domain.Alarm) (*domain.Alarm, error) {
	if err := a.Validate(); err != nil {
		return nil, err
	}

	stored := a.Clone()
	if stored.ID == "" {
		stored.ID = uuid.NewString()
	}

	now := time.Now()
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = now
	}

	stored.UpdatedAt = now

	days, pattern, optimizations, err := encodeJSONFields(stored)
	if err != nil {
		return nil, err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO alarms (`+alarmColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		stored.ID, stored.Time, days, pattern, stored.Label, stored.Sound,
		stored.VoiceMood, stored.Difficulty,
		boolInt(stored.SnoozeEnabled), stored.SnoozeIntervalMinutes, stored.MaxSnoozes,
		boolInt(stored.WeatherEnabled), boolInt(stored.LocationEnabled), boolInt(stored.Enabled),
		optimizations, stored.CreatedAt.Format(time.RFC3339Nano), stored.UpdatedAt.Format(time.RFC3339Nano))
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("%w: %s", ErrAlreadyExists, stored.ID)
		}

		return nil, fmt.Errorf("insert alarm: %w", err)
	}

	return stored.Clone(), nil
}

// Update applies a partial update to an existing alarm.
func (s *SQLiteStore) Update(ctx context.Context, id string, patch *domain.Patch) (*domain.Alarm, error) {
	existing, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	existing.Apply(patch)

	if err := existing.Validate(); err != nil {
		return nil, err
	}

	days, pattern, optimizations, err := encodeJSONFields(existing)
	if err != nil {
		return nil, err
	}

	_, err = s.db.ExecContext(ctx, `
		UPDATE alarms SET time = ?, days = ?, pattern = ?, label = ?, sound = ?,
			voice_mood = ?, difficulty = ?, snooze_enabled = ?, snooze_interval = ?,
			max_snoozes = ?, weather_enabled = ?, location_enabled = ?, enabled = ?,
			optimizations = ?, updated_at = ?
		WHERE id = ?`,
		existing.Time, days, pattern, existing.Label, existing.Sound,
		existing.VoiceMood, existing.Difficulty,
		boolInt(existing.SnoozeEnabled), existing.SnoozeIntervalMinutes, existing.MaxSnoozes,
		boolInt(existing.WeatherEnabled), boolInt(existing.LocationEnabled), boolInt(existing.Enabled),
		optimizations, existing.UpdatedAt.Format(time.RFC3339Nano), id)
	if err != nil {
		return nil, fmt.Errorf("update alarm: %w", err)
	}

	return existing, nil
}

// Delete removes the alarm with the given id.
func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM alarms WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete alarm: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete alarm: %w", err)
	}

	if affected == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	return nil
}

// scanner covers both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

// scanAlarm decodes one alarm row.
func scanAlarm(row scanner) (*domain.Alarm, error) {
	var (
		a             domain.Alarm
		days          string
		pattern       sql.NullString
		optimizations sql.NullString
		snoozeEnabled int
		weather       int
		location      int
		enabled       int
		createdAt     string
		updatedAt     string
	)

	err := row.Scan(&a.ID, &a.Time, &days, &pattern, &a.Label, &a.Sound,
		&a.VoiceMood, &a.Difficulty,
		&snoozeEnabled, &a.SnoozeIntervalMinutes, &a.MaxSnoozes,
		&weather, &location, &enabled, &optimizations, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}

		return nil, fmt.Errorf("scan alarm: %w", err)
	}

	if err = json.Unmarshal([]byte(days), &a.Days); err != nil {
		return nil, fmt.Errorf("decode days: %w", err)
	}

	if pattern.Valid && pattern.String != "" {
		a.Pattern = new(domain.RecurrencePattern)
		if err = json.Unmarshal([]byte(pattern.String), a.Pattern); err != nil {
			return nil, fmt.Errorf("decode pattern: %w", err)
		}
	}

	if optimizations.Valid && optimizations.String != "" {
		if err = json.Unmarshal([]byte(optimizations.String), &a.Optimizations); err != nil {
			return nil, fmt.Errorf("decode optimizations: %w", err)
		}
	}

	a.SnoozeEnabled = snoozeEnabled != 0
	a.WeatherEnabled = weather != 0
	a.LocationEnabled = location != 0
	a.Enabled = enabled != 0

	if a.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
		return nil, fmt.Errorf("decode created_at: %w", err)
	}

	if a.UpdatedAt, err = time.Parse(time.RFC3339Nano, updatedAt); err != nil {
		return nil, fmt.Errorf("decode updated_at: %w", err)
	}

	return &a, nil
}

// encodeJSONFields renders the slice and struct fields stored as JSON text.
func encodeJSONFields(a *domain.Alarm) (days string, pattern, optimizations sql.NullString, err error) {
	raw, err := json.Marshal(a.Days)
	if err != nil {
		return "", pattern, optimizations, fmt.Errorf("encode days: %w", err)
	}

	days = string(raw)

	if a.Pattern != nil {
		raw, err = json.Marshal(a.Pattern)
		if err != nil {
			return "", pattern, optimizations, fmt.Errorf("encode pattern: %w", err)
		}

		pattern = sql.NullString{String: string(raw), Valid: true}
	}

	if len(a.Optimizations) > 0 {
		raw, err = json.Marshal(a.Optimizations)
		if err != nil {
			return "", pattern, optimizations, fmt.Errorf("encode optimizations: %w", err)
		}

		optimizations = sql.NullString{String: string(raw), Valid: true}
	}

	return days, pattern, optimizations, nil
}

// boolInt maps a bool onto SQLite's integer representation.
func boolInt(b bool) int {
	if b {
		return 1
	}

	return 0
}

// isUniqueViolation detects a primary key conflict without depending on
// driver-specific error types.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
