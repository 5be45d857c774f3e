// Package store persists gesture stores as whole snapshots.
package store

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/ayusman/mudra/internal/feature"
	"github.com/ayusman/mudra/internal/gesture"
)

// FormatVersion tags every snapshot written by this package.
const FormatVersion = 1

// ErrPersistenceUnavailable is returned when an existing snapshot cannot be
// read or parsed, or when a snapshot cannot be written.
var ErrPersistenceUnavailable = errors.New("gesture snapshot unavailable")

// Snapshotter loads and saves a complete gesture store.
type Snapshotter interface {
	// Load reads the snapshot. A missing snapshot yields an empty store.
	Load() (*gesture.Store, error)

	// Save replaces any previous snapshot with the full content of s.
	Save(s *gesture.Store) error

	// Path returns the snapshot location.
	Path() string
}

// Open returns the snapshot backend for path, chosen by its extension:
// .db, .sqlite and .sqlite3 use SQLite, anything else a JSON file.
func Open(path string) (Snapshotter, error) {
	if path == "" {
		return nil, fmt.Errorf("%w: empty snapshot path", ErrPersistenceUnavailable)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".db", ".sqlite", ".sqlite3":
		return NewSQLite(path), nil
	default:
		return NewFile(path), nil
	}
}

// unavailable wraps err as ErrPersistenceUnavailable with some context.
func unavailable(op, path string, err error) error {
	return fmt.Errorf("%w: %s %s: %v", ErrPersistenceUnavailable, op, path, err)
}

// build assembles a store from parallel vectors and labels, checking that
// the snapshot is consistent.
func build(path string, vectors []feature.Vector, labels []string) (*gesture.Store, error) {
	if len(vectors) != len(labels) {
		return nil, unavailable("read", path,
			fmt.Errorf("%d vectors but %d labels", len(vectors), len(labels)))
	}

	s := gesture.NewStore()
	for i := range vectors {
		if err := s.Append(vectors[i], labels[i]); err != nil {
			if errors.Is(err, gesture.ErrDimensionMismatch) {
				return nil, fmt.Errorf("snapshot %s example %d: %w", path, i, err)
			}
			return nil, unavailable("read", path, fmt.Errorf("example %d: %w", i, err))
		}
	}
	return s, nil
}
