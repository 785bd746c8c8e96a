package state

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // SQLite driver (pure Go)

	"github.com/leapstack-labs/sqlgraph/pkg/lineage"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db   *sql.DB
	path string
}

var _ Store = (*SQLiteStore)(nil)

// Open opens (creating if needed) the database at path and migrates it.
// Use ":memory:" for an in-memory database.
func Open(path string) (*SQLiteStore, error) {
	s := &SQLiteStore{}
	if err := s.Open(path); err != nil {
		return nil, err
	}
	if err := s.Migrate(context.Background()); err != nil {
		_ = s.Close()
		return nil, err
	}
	return s, nil
}

// Open opens a connection to the SQLite database.
func (s *SQLiteStore) Open(path string) error {
	dsn := ":memory:?_pragma=foreign_keys(1)"
	if path != ":memory:" {
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o750); err != nil {
				return fmt.Errorf("failed to create state directory: %w", err)
			}
		}
		dsn = fmt.Sprintf("file:%s?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", path)
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return fmt.Errorf("failed to open sqlite database: %w", err)
	}
	if path == ":memory:" {
		// every connection would otherwise get its own empty database
		db.SetMaxOpenConns(1)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to ping sqlite database: %w", err)
	}

	s.db = db
	s.path = path
	return nil
}

// Path returns the database path.
func (s *SQLiteStore) Path() string {
	return s.path
}

// Close closes the SQLite database connection.
func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Save stores a snapshot.
func (s *SQLiteStore) Save(ctx context.Context, snap *Snapshot) error {
	if s.db == nil {
		return fmt.Errorf("database not opened")
	}
	if snap.Graph == nil {
		return fmt.Errorf("snapshot %q has no graph", snap.Name)
	}

	graphJSON, err := json.Marshal(snap.Graph)
	if err != nil {
		return fmt.Errorf("encode graph: %w", err)
	}

	if snap.ID == "" {
		snap.ID = uuid.New().String()
	}
	if snap.CreatedAt.IsZero() {
		snap.CreatedAt = time.Now().UTC()
	}
	snap.Nodes = len(snap.Graph.Nodes)
	snap.Edges = len(snap.Graph.Edges)

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO snapshots (id, name, sql_hash, sql, graph_json, nodes, edges, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		snap.ID, snap.Name, snap.SQLHash, snap.SQL, string(graphJSON),
		snap.Nodes, snap.Edges, snap.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("failed to save snapshot: %w", err)
	}
	return nil
}

// Get retrieves a snapshot by ID.
func (s *SQLiteStore) Get(ctx context.Context, id string) (*Snapshot, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}
	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, sql_hash, sql, graph_json, nodes, edges, created_at
		 FROM snapshots WHERE id = ?`, id)
	return scanSnapshot(row)
}

// FindByHash retrieves the newest snapshot with the given SQL hash.
func (s *SQLiteStore) FindByHash(ctx context.Context, hash string) (*Snapshot, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}
	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, sql_hash, sql, graph_json, nodes, edges, created_at
		 FROM snapshots WHERE sql_hash = ?
		 ORDER BY created_at DESC, rowid DESC LIMIT 1`, hash)
	return scanSnapshot(row)
}

// List returns snapshot summaries, newest first.
func (s *SQLiteStore) List(ctx context.Context, limit int) ([]*Snapshot, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}
	if limit <= 0 {
		limit = -1
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, sql_hash, nodes, edges, created_at
		 FROM snapshots ORDER BY created_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list snapshots: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var snaps []*Snapshot
	for rows.Next() {
		snap := &Snapshot{}
		var created string
		if err := rows.Scan(&snap.ID, &snap.Name, &snap.SQLHash, &snap.Nodes, &snap.Edges, &created); err != nil {
			return nil, fmt.Errorf("failed to scan snapshot: %w", err)
		}
		if snap.CreatedAt, err = time.Parse(time.RFC3339Nano, created); err != nil {
			return nil, fmt.Errorf("invalid created_at %q: %w", created, err)
		}
		snaps = append(snaps, snap)
	}
	return snaps, rows.Err()
}

// Delete removes a snapshot by ID.
func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	if s.db == nil {
		return fmt.Errorf("database not opened")
	}
	res, err := s.db.ExecContext(ctx, `DELETE FROM snapshots WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete snapshot: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete snapshot: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("delete %s: %w", id, ErrNotFound)
	}
	return nil
}

func scanSnapshot(row *sql.Row) (*Snapshot, error) {
	snap := &Snapshot{}
	var graphJSON, created string
	err := row.Scan(&snap.ID, &snap.Name, &snap.SQLHash, &snap.SQL, &graphJSON, &snap.Nodes, &snap.Edges, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan snapshot: %w", err)
	}

	snap.Graph = lineage.NewGraph()
	if err := json.Unmarshal([]byte(graphJSON), snap.Graph); err != nil {
		return nil, fmt.Errorf("decode graph of %s: %w", snap.ID, err)
	}
	if snap.CreatedAt, err = time.Parse(time.RFC3339Nano, created); err != nil {
		return nil, fmt.Errorf("invalid created_at %q: %w", created, err)
	}
	return snap, nil
}
