package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/mpapenbr/go-dashsim/internal/telemetry"
)

const (
	SourceSimulation = "simulation"
	SourceImport     = "import"
)

// Info describes a stored session
type Info struct {
	Key          string
	Name         string
	Source       string
	CreatedAt    time.Time
	MaxRPM       int
	MaxSpeed     int
	TickInterval time.Duration
	Samples      int // filled when listing sessions
}

func (s *Store) CreateSession(ctx context.Context, info Info) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO sessions (key, name, source, created_at, max_rpm, max_speed, tick_ms)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		info.Key, info.Name, info.Source, info.CreatedAt.UnixMilli(),
		info.MaxRPM, info.MaxSpeed, info.TickInterval.Milliseconds())
	if err != nil {
		return fmt.Errorf("create session: %w", err)
	}
	return nil
}

// AppendSamples adds samples to the end of a session in a single transaction
func (s *Store) AppendSamples(ctx context.Context, key string, samples []telemetry.Sample) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	//nolint:errcheck // no-op after commit
	defer tx.Rollback()

	var exists int
	if err := tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM sessions WHERE key = ?`, key).Scan(&exists); err != nil {
		return err
	}
	if exists == 0 {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, key)
	}
	var seq int64
	if err := tx.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(seq), 0) FROM samples WHERE session_key = ?`, key).Scan(&seq); err != nil {
		return err
	}
	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO samples (session_key, seq, time_ms, rpm, speed, throttle, temperature, load, boost, gear, stalled)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()
	for _, sample := range samples {
		seq++
		if _, err := stmt.ExecContext(ctx,
			key, seq, sample.Time.Milliseconds(),
			sample.RPM, sample.Speed, sample.Throttle, sample.Temperature,
			sample.Load, sample.Boost, sample.Gear, sample.Stalled); err != nil {
			return fmt.Errorf("insert sample %d: %w", seq, err)
		}
	}
	return tx.Commit()
}

// Sessions lists all sessions, newest first
func (s *Store) Sessions(ctx context.Context) ([]Info, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT s.key, s.name, s.source, s.created_at, s.max_rpm, s.max_speed, s.tick_ms,
			(SELECT COUNT(*) FROM samples WHERE session_key = s.key)
		FROM sessions s ORDER BY s.created_at DESC, s.key`)
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	defer rows.Close()

	ret := []Info{}
	for rows.Next() {
		var info Info
		var createdAt, tickMs int64
		if err := rows.Scan(&info.Key, &info.Name, &info.Source, &createdAt,
			&info.MaxRPM, &info.MaxSpeed, &tickMs, &info.Samples); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		info.CreatedAt = time.UnixMilli(createdAt)
		info.TickInterval = time.Duration(tickMs) * time.Millisecond
		ret = append(ret, info)
	}
	return ret, rows.Err()
}

func (s *Store) Session(ctx context.Context, key string) (Info, error) {
	var info Info
	var createdAt, tickMs int64
	err := s.db.QueryRowContext(ctx,
		`SELECT key, name, source, created_at, max_rpm, max_speed, tick_ms,
			(SELECT COUNT(*) FROM samples WHERE session_key = ?)
		FROM sessions WHERE key = ?`, key, key).Scan(
		&info.Key, &info.Name, &info.Source, &createdAt,
		&info.MaxRPM, &info.MaxSpeed, &tickMs, &info.Samples)
	if errors.Is(err, sql.ErrNoRows) {
		return Info{}, fmt.Errorf("%w: %s", ErrSessionNotFound, key)
	}
	if err != nil {
		return Info{}, err
	}
	info.CreatedAt = time.UnixMilli(createdAt)
	info.TickInterval = time.Duration(tickMs) * time.Millisecond
	return info, nil
}

// Samples returns the samples of a session in recording order
func (s *Store) Samples(ctx context.Context, key string) ([]telemetry.Sample, error) {
	if _, err := s.Session(ctx, key); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT time_ms, rpm, speed, throttle, temperature, load, boost, gear, stalled
		FROM samples WHERE session_key = ? ORDER BY seq`, key)
	if err != nil {
		return nil, fmt.Errorf("query samples: %w", err)
	}
	defer rows.Close()

	ret := []telemetry.Sample{}
	for rows.Next() {
		var sample telemetry.Sample
		var ms int64
		if err := rows.Scan(&ms, &sample.RPM, &sample.Speed, &sample.Throttle,
			&sample.Temperature, &sample.Load, &sample.Boost, &sample.Gear,
			&sample.Stalled); err != nil {
			return nil, fmt.Errorf("scan sample: %w", err)
		}
		sample.Time = time.Duration(ms) * time.Millisecond
		ret = append(ret, sample)
	}
	return ret, rows.Err()
}

// DeleteSession removes a session and its samples
func (s *Store) DeleteSession(ctx context.Context, key string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	//nolint:errcheck // no-op after commit
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `DELETE FROM sessions WHERE key = ?`, key)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, key)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM samples WHERE session_key = ?`, key); err != nil {
		return err
	}
	return tx.Commit()
}
