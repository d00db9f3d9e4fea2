// Package store provides SQLite persistence for hostwatch snapshots.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/darshan-rambhia/hostwatch/internal/model"
	_ "modernc.org/sqlite"
)

// Store wraps a SQLite database of metric snapshots.
type Store struct {
	db *sql.DB
}

// New opens or creates a SQLite database at the given path and runs migrations.
func New(dbPath string) (*Store, error) {
	dsn := dbPath + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database %s: %w", dbPath, err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Save persists a snapshot and returns its row id.
func (s *Store) Save(ctx context.Context, snap model.MetricSnapshot) (int64, error) {
	if err := snap.Validate(); err != nil {
		return 0, fmt.Errorf("saving snapshot: %w", err)
	}
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO snapshots
		(captured_at, cpu_usage_pct, cpu_temperature_c, memory_total_bytes, memory_used_bytes,
		 disk_total_bytes, disk_used_bytes, network_bytes_in, network_bytes_out)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		snap.CapturedAt.UnixNano(), snap.CPUUsagePct, snap.CPUTemperatureC,
		snap.MemoryTotalBytes, snap.MemoryUsedBytes,
		snap.DiskTotalBytes, snap.DiskUsedBytes,
		snap.NetworkBytesIn, snap.NetworkBytesOut,
	)
	if err != nil {
		return 0, fmt.Errorf("inserting snapshot: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("reading snapshot id: %w", err)
	}
	return id, nil
}

const selectColumns = `
	SELECT id, captured_at, cpu_usage_pct, cpu_temperature_c, memory_total_bytes, memory_used_bytes,
	       disk_total_bytes, disk_used_bytes, network_bytes_in, network_bytes_out
	FROM snapshots`

// Latest returns the most recent snapshot, or nil if none has been saved.
func (s *Store) Latest(ctx context.Context) (*model.MetricSnapshot, error) {
	row := s.db.QueryRowContext(ctx, selectColumns+` ORDER BY captured_at DESC, id DESC LIMIT 1`)
	snap, err := scan(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying latest snapshot: %w", err)
	}
	return &snap, nil
}

// History returns up to limit snapshots, newest first, skipping offset rows.
func (s *Store) History(ctx context.Context, limit, offset int) ([]model.MetricSnapshot, error) {
	if limit <= 0 {
		return nil, nil
	}
	if offset < 0 {
		offset = 0
	}
	rows, err := s.db.QueryContext(ctx, selectColumns+`
		ORDER BY captured_at DESC, id DESC
		LIMIT ? OFFSET ?`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("querying snapshot history: %w", err)
	}
	return collect(rows)
}

// Window returns every snapshot captured at or after since, oldest first.
func (s *Store) Window(ctx context.Context, since time.Time) ([]model.MetricSnapshot, error) {
	rows, err := s.db.QueryContext(ctx, selectColumns+`
		WHERE captured_at >= ?
		ORDER BY captured_at ASC, id ASC`, since.UnixNano())
	if err != nil {
		return nil, fmt.Errorf("querying snapshot window: %w", err)
	}
	return collect(rows)
}

// Count returns the number of stored snapshots.
func (s *Store) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM snapshots`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting snapshots: %w", err)
	}
	return n, nil
}

// Prune deletes snapshots captured before the cutoff and returns how many
// rows were removed.
func (s *Store) Prune(ctx context.Context, before time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM snapshots WHERE captured_at < ?`, before.UnixNano())
	if err != nil {
		return 0, fmt.Errorf("pruning snapshots: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scan(r scanner) (model.MetricSnapshot, error) {
	var snap model.MetricSnapshot
	var ts int64
	err := r.Scan(
		&snap.ID, &ts, &snap.CPUUsagePct, &snap.CPUTemperatureC,
		&snap.MemoryTotalBytes, &snap.MemoryUsedBytes,
		&snap.DiskTotalBytes, &snap.DiskUsedBytes,
		&snap.NetworkBytesIn, &snap.NetworkBytesOut,
	)
	if err != nil {
		return model.MetricSnapshot{}, err
	}
	snap.CapturedAt = time.Unix(0, ts).UTC()
	return snap, nil
}

// collect scans all rows, dropping any that fail validation.
func collect(rows *sql.Rows) ([]model.MetricSnapshot, error) {
	defer rows.Close()

	var out []model.MetricSnapshot
	for rows.Next() {
		snap, err := scan(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning snapshot: %w", err)
		}
		if err := snap.Validate(); err != nil {
			slog.Warn("skipping invalid stored snapshot", "id", snap.ID, "error", err)
			continue
		}
		out = append(out, snap)
	}
	return out, rows.Err()
}
