// Package state persists analysed lineage graphs in SQLite so earlier runs
// can be listed, inspected and compared.
package state

import (
	"context"
	"errors"
	"time"

	"github.com/leapstack-labs/sqlgraph/pkg/lineage"
)

// ErrNotFound is returned when a snapshot does not exist.
var ErrNotFound = errors.New("snapshot not found")

// Snapshot is one stored analysis.
type Snapshot struct {
	ID        string         `json:"id"`
	Name      string         `json:"name"`
	SQLHash   string         `json:"sql_hash"`
	SQL       string         `json:"sql"`
	Graph     *lineage.Graph `json:"graph,omitempty"`
	Nodes     int            `json:"nodes"`
	Edges     int            `json:"edges"`
	CreatedAt time.Time      `json:"created_at"`
}

// Store is the snapshot history.
type Store interface {
	// Save stores snap, assigning its ID and creation time when unset.
	Save(ctx context.Context, snap *Snapshot) error
	// Get returns a snapshot with its graph.
	Get(ctx context.Context, id string) (*Snapshot, error)
	// List returns the newest snapshots first, without graphs. limit <= 0
	// returns all.
	List(ctx context.Context, limit int) ([]*Snapshot, error)
	// FindByHash returns the newest snapshot of the SQL text with the given
	// hash.
	FindByHash(ctx context.Context, hash string) (*Snapshot, error)
	// Delete removes a snapshot.
	Delete(ctx context.Context, id string) error
	Close() error
}
