// Package gesture provides the gesture store and nearest-neighbor matching.
package gesture

import (
	"fmt"
	"slices"
	"sync"

	"github.com/ayusman/mudra/internal/feature"
)

// Example is one captured pose and the label it was trained under.
type Example struct {
	Vector feature.Vector
	Label  string
}

// LabelCount reports how many examples share a label.
type LabelCount struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

// Store is an append-only, insertion-ordered collection of labeled examples.
// Vectors and labels are kept as parallel slices of equal length. The first
// appended vector fixes the dimension for every later one.
//
// A Store is safe for one writer and many readers.
type Store struct {
	mu      sync.RWMutex
	dim     int
	vectors []feature.Vector
	labels  []string
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{}
}

// Append adds one example. The vector is copied.
func (s *Store) Append(vector feature.Vector, label string) error {
	if label == "" {
		return ErrEmptyLabel
	}
	if len(vector) == 0 {
		return fmt.Errorf("%w: empty vector", ErrDimensionMismatch)
	}
	if !finite(vector) {
		return ErrNonFinite
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.vectors) > 0 && len(vector) != s.dim {
		return fmt.Errorf("%w: got %d, store holds %d", ErrDimensionMismatch, len(vector), s.dim)
	}

	s.dim = len(vector)
	s.vectors = append(s.vectors, slices.Clone(vector))
	s.labels = append(s.labels, label)
	return nil
}

// Len returns the number of stored examples.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.vectors)
}

// Dim returns the vector length fixed by the store, or 0 while it is empty.
func (s *Store) Dim() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.vectors) == 0 {
		return 0
	}
	return s.dim
}

// Example returns the i-th example in insertion order.
func (s *Store) Example(i int) (Example, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i < 0 || i >= len(s.vectors) {
		return Example{}, false
	}
	return Example{Vector: slices.Clone(s.vectors[i]), Label: s.labels[i]}, true
}

// Examples returns a copy of every example in insertion order.
func (s *Store) Examples() []Example {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Example, len(s.vectors))
	for i := range s.vectors {
		out[i] = Example{Vector: slices.Clone(s.vectors[i]), Label: s.labels[i]}
	}
	return out
}

// Vectors returns a copy of the stored vectors.
func (s *Store) Vectors() []feature.Vector {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]feature.Vector, len(s.vectors))
	for i, v := range s.vectors {
		out[i] = slices.Clone(v)
	}
	return out
}

// Labels returns a copy of the stored labels.
func (s *Store) Labels() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.labels)
}

// Summary counts examples per label, in the order labels were first seen.
func (s *Store) Summary() []LabelCount {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var counts []LabelCount
	index := make(map[string]int)
	for _, label := range s.labels {
		i, ok := index[label]
		if !ok {
			i = len(counts)
			index[label] = i
			counts = append(counts, LabelCount{Label: label})
		}
		counts[i].Count++
	}
	return counts
}
