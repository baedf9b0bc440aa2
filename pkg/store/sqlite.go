// Package store persists committed probes. SQLite keeps the latest commit of
// every group and the zstd exporter appends commits to a JSONL archive.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/df07/go-probegrid/pkg/core"
	"github.com/df07/go-probegrid/pkg/group"
)

// ErrNotFound is returned when a group has never been committed
var ErrNotFound = errors.New("group not found")

// GroupRecord summarizes a stored group
type GroupRecord struct {
	Name        string         `json:"name"`
	Transform   core.Transform `json:"transform"`
	ProbeCount  int            `json:"probeCount"`
	CommittedAt time.Time      `json:"committedAt"`
}

// SQLite stores the latest commit of each group. It is safe for concurrent use.
type SQLite struct {
	db *sql.DB
}

// OpenSQLite opens or creates the database at path
func OpenSQLite(path string) (*SQLite, error) {
	if path == "" {
		return nil, fmt.Errorf("empty db path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initPragmas(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &SQLite{db: db}, nil
}

func initPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA foreign_keys=ON;",
		"PRAGMA busy_timeout=5000;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return err
		}
	}
	return nil
}

func initSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS probe_groups (
			name TEXT PRIMARY KEY,
			transform_json TEXT NOT NULL,
			probe_count INTEGER NOT NULL,
			committed_at TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS probes (
			group_name TEXT NOT NULL REFERENCES probe_groups(name) ON DELETE CASCADE,
			seq INTEGER NOT NULL,
			lx REAL NOT NULL,
			ly REAL NOT NULL,
			lz REAL NOT NULL,
			wx REAL NOT NULL,
			wy REAL NOT NULL,
			wz REAL NOT NULL,
			PRIMARY KEY (group_name, seq)
		);`,
	}
	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// Close closes the database
func (s *SQLite) Close() error {
	return s.db.Close()
}

// CommitProbes replaces the stored probes of commit.Group. Implements group.Sink.
func (s *SQLite) CommitProbes(ctx context.Context, commit group.Commit) error {
	if len(commit.Local) != len(commit.World) {
		return fmt.Errorf("commit %q: %d local probes but %d world probes", commit.Group, len(commit.Local), len(commit.World))
	}
	transform, err := json.Marshal(commit.Transform)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM probes WHERE group_name = ?`, commit.Group); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO probe_groups (name, transform_json, probe_count, committed_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET transform_json = excluded.transform_json,
			probe_count = excluded.probe_count, committed_at = excluded.committed_at`,
		commit.Group, string(transform), len(commit.Local), time.Now().UTC().Format(time.RFC3339Nano),
	); err != nil {
		return err
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO probes (group_name, seq, lx, ly, lz, wx, wy, wz) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()
	for i, local := range commit.Local {
		world := commit.World[i]
		if _, err := stmt.ExecContext(ctx, commit.Group, i, local.X, local.Y, local.Z, world.X, world.Y, world.Z); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// Groups lists the stored groups by name
func (s *SQLite) Groups(ctx context.Context) ([]GroupRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT name, transform_json, probe_count, committed_at FROM probe_groups ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []GroupRecord
	for rows.Next() {
		record, err := scanGroup(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, rows.Err()
}

// Load returns the latest commit of the named group
func (s *SQLite) Load(ctx context.Context, name string) (group.Commit, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT name, transform_json, probe_count, committed_at FROM probe_groups WHERE name = ?`, name)
	record, err := scanGroup(row)
	if errors.Is(err, sql.ErrNoRows) {
		return group.Commit{}, fmt.Errorf("%q: %w", name, ErrNotFound)
	}
	if err != nil {
		return group.Commit{}, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT lx, ly, lz, wx, wy, wz FROM probes WHERE group_name = ? ORDER BY seq`, name)
	if err != nil {
		return group.Commit{}, err
	}
	defer rows.Close()

	commit := group.Commit{
		Group:     record.Name,
		Transform: record.Transform,
		Local:     make([]core.Vec3, 0, record.ProbeCount),
		World:     make([]core.Vec3, 0, record.ProbeCount),
	}
	for rows.Next() {
		var local, world core.Vec3
		if err := rows.Scan(&local.X, &local.Y, &local.Z, &world.X, &world.Y, &world.Z); err != nil {
			return group.Commit{}, err
		}
		commit.Local = append(commit.Local, local)
		commit.World = append(commit.World, world)
	}
	return commit, rows.Err()
}

// CountAll returns the number of stored probes across every group
func (s *SQLite) CountAll(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM probes`).Scan(&n)
	return n, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanGroup(row scanner) (GroupRecord, error) {
	var record GroupRecord
	var transform, committedAt string
	if err := row.Scan(&record.Name, &transform, &record.ProbeCount, &committedAt); err != nil {
		return GroupRecord{}, err
	}
	if err := json.Unmarshal([]byte(transform), &record.Transform); err != nil {
		return GroupRecord{}, fmt.Errorf("group %q: transform: %w", record.Name, err)
	}
	t, err := time.Parse(time.RFC3339Nano, committedAt)
	if err != nil {
		return GroupRecord{}, fmt.Errorf("group %q: committed_at: %w", record.Name, err)
	}
	record.CommittedAt = t
	return record, nil
}
