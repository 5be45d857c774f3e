package store

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/ayusman/mudra/internal/feature"
	"github.com/ayusman/mudra/internal/gesture"
)

// Meta describes the most recently saved SQLite snapshot.
type Meta struct {
	Version    int
	Dim        int
	SnapshotID string
	SavedAt    time.Time
}

// SQLite stores snapshots in a SQLite database file.
type SQLite struct {
	path string
}

// NewSQLite creates a SQLite snapshot backend at path.
func NewSQLite(path string) *SQLite {
	return &SQLite{path: path}
}

// Path returns the database file path.
func (s *SQLite) Path() string {
	return s.path
}

// open opens the database and enables foreign keys, mirroring every other
// connection made by this package.
func (s *SQLite) open() (*sql.DB, error) {
	db, err := sql.Open("sqlite", s.path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	return db, nil
}

// Load reads every example in insertion order. A missing database file
// yields an empty store and is not created.
func (s *SQLite) Load() (*gesture.Store, error) {
	if _, err := os.Stat(s.path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return gesture.NewStore(), nil
		}
		return nil, unavailable("read", s.path, err)
	}

	db, err := s.open()
	if err != nil {
		return nil, unavailable("read", s.path, err)
	}
	defer db.Close()

	meta, err := readMeta(db)
	if err != nil {
		return nil, unavailable("read", s.path, err)
	}
	if meta.Version > FormatVersion {
		return nil, unavailable("read", s.path,
			fmt.Errorf("snapshot version %d is newer than supported version %d", meta.Version, FormatVersion))
	}

	rows, err := db.Query(`SELECT label, vector FROM examples ORDER BY seq`)
	if err != nil {
		return nil, unavailable("read", s.path, err)
	}
	defer rows.Close()

	var (
		vectors []feature.Vector
		labels  []string
	)
	for rows.Next() {
		var (
			label string
			blob  []byte
		)
		if err := rows.Scan(&label, &blob); err != nil {
			return nil, unavailable("read", s.path, err)
		}
		v, err := decodeVector(blob)
		if err != nil {
			return nil, unavailable("read", s.path, err)
		}
		vectors = append(vectors, v)
		labels = append(labels, label)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("read", s.path, err)
	}

	return build(s.path, vectors, labels)
}

// Save replaces the stored examples with the content of st inside a single
// transaction.
func (s *SQLite) Save(st *gesture.Store) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return unavailable("write", s.path, err)
	}

	db, err := s.open()
	if err != nil {
		return unavailable("write", s.path, err)
	}
	defer db.Close()

	if err := runMigrations(db); err != nil {
		return unavailable("write", s.path, fmt.Errorf("failed to run migrations: %w", err))
	}

	if err := writeSnapshot(db, st); err != nil {
		return unavailable("write", s.path, err)
	}
	return nil
}

// Meta returns the metadata of the stored snapshot.
func (s *SQLite) Meta() (Meta, error) {
	db, err := s.open()
	if err != nil {
		return Meta{}, err
	}
	defer db.Close()
	return readMeta(db)
}

func writeSnapshot(db *sql.DB, st *gesture.Store) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM examples`); err != nil {
		return err
	}

	stmt, err := tx.Prepare(`INSERT INTO examples (seq, label, vector) VALUES (?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, ex := range st.Examples() {
		if _, err := stmt.Exec(i, ex.Label, encodeVector(ex.Vector)); err != nil {
			return err
		}
	}

	meta := map[string]string{
		"version":     strconv.Itoa(FormatVersion),
		"dim":         strconv.Itoa(st.Dim()),
		"snapshot_id": uuid.NewString(),
		"saved_at":    time.Now().UTC().Format(time.RFC3339Nano),
	}
	for key, value := range meta {
		_, err := tx.Exec(
			`INSERT INTO snapshot_meta (key, value) VALUES (?, ?)
			 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
			key, value,
		)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

func readMeta(db *sql.DB) (Meta, error) {
	rows, err := db.Query(`SELECT key, value FROM snapshot_meta`)
	if err != nil {
		return Meta{}, err
	}
	defer rows.Close()

	var meta Meta
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return Meta{}, err
		}
		switch key {
		case "version":
			meta.Version, err = strconv.Atoi(value)
		case "dim":
			meta.Dim, err = strconv.Atoi(value)
		case "snapshot_id":
			meta.SnapshotID = value
		case "saved_at":
			meta.SavedAt, err = time.Parse(time.RFC3339Nano, value)
		}
		if err != nil {
			return Meta{}, fmt.Errorf("snapshot_meta %s: %w", key, err)
		}
	}

	return meta, rows.Err()
}
