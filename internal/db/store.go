package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"
	_ "modernc.org/sqlite"
)

const schema = `
	CREATE TABLE IF NOT EXISTS sessions (
		id TEXT PRIMARY KEY,
		text TEXT NOT NULL,
		audio BLOB,
		audioMime TEXT NOT NULL DEFAULT '',
		durationSeconds REAL NOT NULL DEFAULT 0,
		createdAt REAL NOT NULL
	);

	CREATE INDEX IF NOT EXISTS sessions_createdAt ON sessions(createdAt);

	CREATE TABLE IF NOT EXISTS preferences (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);
`

// Store provides access to the sadoo SQLite database.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// DefaultDBPath returns the default database path.
func DefaultDBPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		home, _ := os.UserHomeDir()
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, "sadoo", "sadoo.sqlite")
}

// Open opens (creating if needed) the database at path with WAL and applies
// the schema. The path ":memory:" opens a private in-memory database.
func Open(path string) (*Store, error) {
	dsn := ":memory:"
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create database dir: %w", err)
		}
		dsn = fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", path)
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if path == ":memory:" {
		// every pooled connection would otherwise see its own empty database
		db.SetMaxOpenConns(1)
	}

	// Verify connection
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	return &Store{db: db, now: time.Now}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Save stores a new session and returns it with its id and creation time.
// Saved sessions are never updated afterwards.
func (s *Store) Save(ctx context.Context, in NewSession) (Session, error) {
	id, err := gonanoid.New()
	if err != nil {
		return Session{}, fmt.Errorf("generate id: %w", err)
	}
	sess := Session{
		ID:              id,
		Text:            in.Text,
		AudioMIME:       in.AudioMIME,
		HasAudio:        len(in.Audio) > 0,
		DurationSeconds: in.Duration.Seconds(),
		CreatedAt:       s.now(),
	}
	var audio any
	if sess.HasAudio {
		audio = in.Audio
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO sessions (id, text, audio, audioMime, durationSeconds, createdAt)
		VALUES (?, ?, ?, ?, ?, ?)
	`, sess.ID, sess.Text, audio, sess.AudioMIME, sess.DurationSeconds, unixFromTime(sess.CreatedAt))
	if err != nil {
		return Session{}, fmt.Errorf("insert session: %w", err)
	}
	return sess, nil
}

// List returns all sessions, newest first, without audio bytes.
func (s *Store) List(ctx context.Context) ([]Session, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, text, audio IS NOT NULL, audioMime, durationSeconds, createdAt
		FROM sessions
		ORDER BY createdAt DESC, rowid DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	defer rows.Close()

	var sessions []Session
	for rows.Next() {
		var sess Session
		var createdAt float64
		if err := rows.Scan(&sess.ID, &sess.Text, &sess.HasAudio, &sess.AudioMIME,
			&sess.DurationSeconds, &createdAt); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		sess.CreatedAt = timeFromUnix(createdAt)
		sessions = append(sessions, sess)
	}
	return sessions, rows.Err()
}

// Get returns one session including its audio bytes.
func (s *Store) Get(ctx context.Context, id string) (*Session, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, text, audio, audioMime, durationSeconds, createdAt
		FROM sessions
		WHERE id = ?
	`, id)

	var sess Session
	var createdAt float64
	if err := row.Scan(&sess.ID, &sess.Text, &sess.Audio, &sess.AudioMIME,
		&sess.DurationSeconds, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("get %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("scan session: %w", err)
	}
	sess.HasAudio = len(sess.Audio) > 0
	sess.CreatedAt = timeFromUnix(createdAt)
	return &sess, nil
}

// Audio returns the stored audio bytes and MIME type of a session.
func (s *Store) Audio(ctx context.Context, id string) ([]byte, string, error) {
	sess, err := s.Get(ctx, id)
	if err != nil {
		return nil, "", err
	}
	return sess.Audio, sess.AudioMIME, nil
}

// Delete removes a session.
func (s *Store) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("delete %s: %w", id, ErrNotFound)
	}
	return nil
}

// Preference returns a stored preference value.
func (s *Store) Preference(ctx context.Context, key string) (string, bool, error) {
	var v string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM preferences WHERE key = ?`, key).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("read preference %s: %w", key, err)
	}
	return v, true, nil
}

// SetPreference stores a preference value.
func (s *Store) SetPreference(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO preferences (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value)
	if err != nil {
		return fmt.Errorf("write preference %s: %w", key, err)
	}
	return nil
}

func timeFromUnix(ts float64) time.Time {
	sec := int64(ts)
	nsec := int64((ts - float64(sec)) * 1e9)
	return time.Unix(sec, nsec)
}

func unixFromTime(t time.Time) float64 {
	return float64(t.UnixNano()) / 1e9
}
