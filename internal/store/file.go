package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ayusman/mudra/internal/feature"
	"github.com/ayusman/mudra/internal/gesture"
)

// snapshot is the on-disk JSON layout.
type snapshot struct {
	Version int              `json:"version"`
	Vectors []feature.Vector `json:"vectors"`
	Labels  []string         `json:"labels"`
}

// File stores snapshots as a single JSON document.
type File struct {
	path string
}

// NewFile creates a JSON snapshot backend at path.
func NewFile(path string) *File {
	return &File{path: path}
}

// Path returns the snapshot file path.
func (f *File) Path() string {
	return f.path
}

// Load reads the snapshot file. A missing file yields an empty store.
func (f *File) Load() (*gesture.Store, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return gesture.NewStore(), nil
		}
		return nil, unavailable("read", f.path, err)
	}

	var snap snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, unavailable("parse", f.path, err)
	}
	if snap.Version > FormatVersion {
		return nil, unavailable("parse", f.path,
			fmt.Errorf("snapshot version %d is newer than supported version %d", snap.Version, FormatVersion))
	}

	return build(f.path, snap.Vectors, snap.Labels)
}

// Save writes the full store to a temporary file next to the snapshot and
// renames it into place, so readers never observe a partial snapshot.
func (f *File) Save(s *gesture.Store) error {
	snap := snapshot{
		Version: FormatVersion,
		Vectors: s.Vectors(),
		Labels:  s.Labels(),
	}
	if snap.Labels == nil {
		snap.Labels = []string{}
	}

	data, err := json.Marshal(snap)
	if err != nil {
		return unavailable("encode", f.path, err)
	}

	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return unavailable("write", f.path, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(f.path)+".*.tmp")
	if err != nil {
		return unavailable("write", f.path, err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return unavailable("write", f.path, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return unavailable("write", f.path, err)
	}
	if err := tmp.Close(); err != nil {
		return unavailable("write", f.path, err)
	}

	if err := os.Rename(tmpPath, f.path); err != nil {
		return unavailable("write", f.path, err)
	}
	return nil
}
