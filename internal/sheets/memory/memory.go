package memory

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"finledger/internal/core"
	"finledger/internal/sheets"
)

var _ sheets.SnapshotExporter = (*Store)(nil)

// Store keeps exported rows in memory. Used by tests and as a dry-run
// exporter.
type Store struct {
	mu        sync.Mutex
	rows      [][]any
	snapshots int
}

func New() *Store {
	return &Store{}
}

// Export appends the snapshot rows and returns a synthetic row reference.
func (s *Store) Export(_ context.Context, snap core.BalanceSnapshot) (string, error) {
	if snap.UserID == 0 {
		return "", errors.New("snapshot without user")
	}
	rows := sheets.SnapshotRows(snap)
	s.mu.Lock()
	defer s.mu.Unlock()
	first := len(s.rows) + 1
	s.rows = append(s.rows, rows...)
	s.snapshots++
	return fmt.Sprintf("mem:%d-%d", first, len(s.rows)), nil
}

// Rows returns a copy of every exported row.
func (s *Store) Rows() [][]any {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([][]any, len(s.rows))
	copy(out, s.rows)
	return out
}

// Snapshots returns how many snapshots were exported.
func (s *Store) Snapshots() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshots
}
