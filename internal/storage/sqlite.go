package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/bonkai/bonkai/internal/models"
)

// SQLiteStorage implements Storage using SQLite.
type SQLiteStorage struct {
	db *sql.DB
}

// NewSQLiteStorage opens or creates a SQLite database at dbPath and initializes the schema.
// Parent directories are created if they do not exist.
func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}

	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &SQLiteStorage{db: db}, nil
}

func initSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS events (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		description TEXT,
		date TEXT,
		location TEXT,
		url TEXT,
		tags TEXT,
		relevance_score INTEGER NOT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_events_created_at ON events(created_at);

	CREATE TABLE IF NOT EXISTS audio_tracks (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		description TEXT,
		audio_url TEXT,
		duration_seconds INTEGER,
		tags TEXT,
		relevance_score INTEGER NOT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_tracks_created_at ON audio_tracks(created_at);

	CREATE TABLE IF NOT EXISTS alerts (
		id TEXT PRIMARY KEY,
		condition TEXT NOT NULL,
		threshold REAL NOT NULL,
		note TEXT,
		is_active INTEGER NOT NULL DEFAULT 1,
		triggered INTEGER NOT NULL DEFAULT 0,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);
	`
	_, err := db.Exec(schema)
	return err
}

func marshalTags(tags []string) (string, error) {
	if tags == nil {
		tags = []string{}
	}
	b, err := json.Marshal(tags)
	if err != nil {
		return "", fmt.Errorf("failed to marshal tags: %w", err)
	}
	return string(b), nil
}

func unmarshalTags(s string) ([]string, error) {
	if s == "" {
		return nil, nil
	}
	var tags []string
	if err := json.Unmarshal([]byte(s), &tags); err != nil {
		return nil, fmt.Errorf("failed to unmarshal tags: %w", err)
	}
	return tags, nil
}

// CreateEvent inserts an event.
func (s *SQLiteStorage) CreateEvent(ctx context.Context, event *models.Event) error {
	tagsJSON, err := marshalTags(event.Tags)
	if err != nil {
		return err
	}

	now := time.Now()
	event.CreatedAt = now
	event.UpdatedAt = now

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO events (id, title, description, date, location, url, tags, relevance_score, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		event.ID, event.Title, event.Description, event.Date, event.Location, event.URL,
		tagsJSON, event.RelevanceScore, event.CreatedAt, event.UpdatedAt,
	)
	return err
}

// GetEvent returns an event by ID.
func (s *SQLiteStorage) GetEvent(ctx context.Context, id string) (*models.Event, error) {
	var event models.Event
	var tagsJSON string

	err := s.db.QueryRowContext(ctx,
		`SELECT id, title, description, date, location, url, tags, relevance_score, created_at, updated_at
		 FROM events WHERE id = ?`, id,
	).Scan(&event.ID, &event.Title, &event.Description, &event.Date, &event.Location, &event.URL,
		&tagsJSON, &event.RelevanceScore, &event.CreatedAt, &event.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("event not found: %s", id)
	}
	if err != nil {
		return nil, err
	}

	if event.Tags, err = unmarshalTags(tagsJSON); err != nil {
		return nil, err
	}
	return &event, nil
}

// ListEvents returns events ordered by creation time descending.
func (s *SQLiteStorage) ListEvents(ctx context.Context, offset, limit int) ([]*models.Event, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, title, description, date, location, url, tags, relevance_score, created_at, updated_at
		 FROM events ORDER BY created_at DESC LIMIT ? OFFSET ?`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []*models.Event
	for rows.Next() {
		var event models.Event
		var tagsJSON string
		if err := rows.Scan(&event.ID, &event.Title, &event.Description, &event.Date,
			&event.Location, &event.URL, &tagsJSON, &event.RelevanceScore,
			&event.CreatedAt, &event.UpdatedAt); err != nil {
			return nil, err
		}
		if event.Tags, err = unmarshalTags(tagsJSON); err != nil {
			return nil, err
		}
		events = append(events, &event)
	}
	return events, rows.Err()
}

// DeleteEvent removes an event by ID.
func (s *SQLiteStorage) DeleteEvent(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM events WHERE id = ?`, id)
	return err
}

// CreateTrack inserts an audio track.
func (s *SQLiteStorage) CreateTrack(ctx context.Context, track *models.AudioTrack) error {
	tagsJSON, err := marshalTags(track.Tags)
	if err != nil {
		return err
	}

	now := time.Now()
	track.CreatedAt = now
	track.UpdatedAt = now

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO audio_tracks (id, title, description, audio_url, duration_seconds, tags, relevance_score, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		track.ID, track.Title, track.Description, track.AudioURL, track.DurationSeconds,
		tagsJSON, track.RelevanceScore, track.CreatedAt, track.UpdatedAt,
	)
	return err
}

// GetTrack returns an audio track by ID.
func (s *SQLiteStorage) GetTrack(ctx context.Context, id string) (*models.AudioTrack, error) {
	var track models.AudioTrack
	var tagsJSON string

	err := s.db.QueryRowContext(ctx,
		`SELECT id, title, description, audio_url, duration_seconds, tags, relevance_score, created_at, updated_at
		 FROM audio_tracks WHERE id = ?`, id,
	).Scan(&track.ID, &track.Title, &track.Description, &track.AudioURL, &track.DurationSeconds,
		&tagsJSON, &track.RelevanceScore, &track.CreatedAt, &track.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("track not found: %s", id)
	}
	if err != nil {
		return nil, err
	}

	if track.Tags, err = unmarshalTags(tagsJSON); err != nil {
		return nil, err
	}
	return &track, nil
}

// ListTracks returns audio tracks ordered by creation time descending.
func (s *SQLiteStorage) ListTracks(ctx context.Context, offset, limit int) ([]*models.AudioTrack, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, title, description, audio_url, duration_seconds, tags, relevance_score, created_at, updated_at
		 FROM audio_tracks ORDER BY created_at DESC LIMIT ? OFFSET ?`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tracks []*models.AudioTrack
	for rows.Next() {
		var track models.AudioTrack
		var tagsJSON string
		if err := rows.Scan(&track.ID, &track.Title, &track.Description, &track.AudioURL,
			&track.DurationSeconds, &tagsJSON, &track.RelevanceScore,
			&track.CreatedAt, &track.UpdatedAt); err != nil {
			return nil, err
		}
		if track.Tags, err = unmarshalTags(tagsJSON); err != nil {
			return nil, err
		}
		tracks = append(tracks, &track)
	}
	return tracks, rows.Err()
}

// DeleteTrack removes an audio track by ID.
func (s *SQLiteStorage) DeleteTrack(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM audio_tracks WHERE id = ?`, id)
	return err
}

// CreateAlert inserts an alert.
func (s *SQLiteStorage) CreateAlert(ctx context.Context, alert *models.Alert) error {
	now := time.Now()
	alert.CreatedAt = now
	alert.UpdatedAt = now

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO alerts (id, condition, threshold, note, is_active, triggered, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		alert.ID, alert.Condition, alert.Threshold, alert.Note,
		alert.IsActive, alert.Triggered, alert.CreatedAt, alert.UpdatedAt,
	)
	return err
}

// GetAlert returns an alert by ID.
func (s *SQLiteStorage) GetAlert(ctx context.Context, id string) (*models.Alert, error) {
	var alert models.Alert
	err := s.db.QueryRowContext(ctx,
		`SELECT id, condition, threshold, note, is_active, triggered, created_at, updated_at
		 FROM alerts WHERE id = ?`, id,
	).Scan(&alert.ID, &alert.Condition, &alert.Threshold, &alert.Note,
		&alert.IsActive, &alert.Triggered, &alert.CreatedAt, &alert.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("alert not found: %s", id)
	}
	if err != nil {
		return nil, err
	}
	return &alert, nil
}

// ListAlerts returns all alerts ordered by creation time descending.
func (s *SQLiteStorage) ListAlerts(ctx context.Context) ([]*models.Alert, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, condition, threshold, note, is_active, triggered, created_at, updated_at
		 FROM alerts ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var alerts []*models.Alert
	for rows.Next() {
		var alert models.Alert
		if err := rows.Scan(&alert.ID, &alert.Condition, &alert.Threshold, &alert.Note,
			&alert.IsActive, &alert.Triggered, &alert.CreatedAt, &alert.UpdatedAt); err != nil {
			return nil, err
		}
		alerts = append(alerts, &alert)
	}
	return alerts, rows.Err()
}

// UpdateAlert updates an existing alert.
func (s *SQLiteStorage) UpdateAlert(ctx context.Context, alert *models.Alert) error {
	alert.UpdatedAt = time.Now()

	result, err := s.db.ExecContext(ctx,
		`UPDATE alerts SET condition = ?, threshold = ?, note = ?, is_active = ?, triggered = ?, updated_at = ?
		 WHERE id = ?`,
		alert.Condition, alert.Threshold, alert.Note, alert.IsActive, alert.Triggered,
		alert.UpdatedAt, alert.ID,
	)
	if err != nil {
		return err
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return fmt.Errorf("alert not found: %s", alert.ID)
	}
	return nil
}

// DeleteAlert removes an alert by ID.
func (s *SQLiteStorage) DeleteAlert(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM alerts WHERE id = ?`, id)
	return err
}

// CountEvents returns the total number of events.
func (s *SQLiteStorage) CountEvents(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM events`).Scan(&n)
	return n, err
}

// CountTracks returns the total number of audio tracks.
func (s *SQLiteStorage) CountTracks(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM audio_tracks`).Scan(&n)
	return n, err
}

// CountAlerts returns the total number of alerts.
func (s *SQLiteStorage) CountAlerts(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM alerts`).Scan(&n)
	return n, err
}

// Close closes the database.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}
