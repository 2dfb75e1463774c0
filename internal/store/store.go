package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"github.com/mpapenbr/go-dashsim/pkg/util"
	"github.com/mpapenbr/go-dashsim/version"
)

const schemaVersionKey = "schema_version"

var (
	ErrIncompatibleSchema = errors.New("incompatible store schema")
	ErrSessionNotFound    = errors.New("session not found")
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS meta (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS sessions (
		key TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		source TEXT NOT NULL,
		created_at INTEGER NOT NULL,
		max_rpm INTEGER NOT NULL,
		max_speed INTEGER NOT NULL,
		tick_ms INTEGER NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS samples (
		session_key TEXT NOT NULL,
		seq INTEGER NOT NULL,
		time_ms INTEGER NOT NULL,
		rpm REAL,
		speed REAL,
		throttle REAL,
		temperature REAL,
		load REAL,
		boost REAL,
		gear TEXT,
		stalled INTEGER,
		PRIMARY KEY (session_key, seq)
	)`,
}

// Store keeps recorded sessions in a sqlite database
type Store struct {
	db *sql.DB
}

// Open opens (and if needed creates) the store at path. A store written
// with an incompatible schema version is rejected.
func Open(ctx context.Context, path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create store dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	// sqlite allows a single writer
	db.SetMaxOpenConns(1)

	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("create table: %w", err)
		}
	}
	s := &Store{db: db}
	if err := s.checkSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) checkSchema(ctx context.Context) error {
	v, err := s.SchemaVersion(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		_, err = s.db.ExecContext(ctx,
			`INSERT INTO meta (key, value) VALUES (?, ?)`,
			schemaVersionKey, version.SchemaVersion)
		return err
	}
	if err != nil {
		return err
	}
	if !util.CheckSchemaVersion(v, version.SchemaVersion) {
		return fmt.Errorf("%w: store has %s, supported is %s",
			ErrIncompatibleSchema, v, version.SchemaVersion)
	}
	return nil
}

// SchemaVersion returns the schema version recorded in the store
func (s *Store) SchemaVersion(ctx context.Context) (string, error) {
	var v string
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM meta WHERE key = ?`, schemaVersionKey).Scan(&v)
	return v, err
}

// InspectSchema reads the schema version of the store at path without
// checking it. The file must exist.
func InspectSchema(ctx context.Context, path string) (string, error) {
	if _, err := os.Stat(path); err != nil {
		return "", err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return "", fmt.Errorf("open store: %w", err)
	}
	defer db.Close()
	var v string
	err = db.QueryRowContext(ctx,
		`SELECT value FROM meta WHERE key = ?`, schemaVersionKey).Scan(&v)
	if err != nil {
		return "", fmt.Errorf("read schema version: %w", err)
	}
	return v, nil
}
