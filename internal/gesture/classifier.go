package gesture

import (
	"fmt"
	"math"

	"github.com/ayusman/mudra/internal/feature"
)

// Match is the result of classifying a query.
type Match struct {
	Label    string  // Label of the nearest example
	Index    int     // Insertion index of the nearest example
	Distance float64 // Euclidean distance to it
}

// Classifier labels a query with its nearest stored example.
//
// The search is brute force, O(n·L) per query. Examples are scanned in
// insertion order and only a strictly smaller distance replaces the current
// best, so equidistant examples resolve to the one inserted first.
type Classifier struct{}

// NewClassifier creates a new Classifier.
func NewClassifier() *Classifier {
	return &Classifier{}
}

// Classify returns the label of the example closest to query.
func (c *Classifier) Classify(query feature.Vector, s *Store) (Match, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.vectors) == 0 {
		return Match{}, ErrNoExamples
	}
	if len(query) != s.dim {
		return Match{}, fmt.Errorf("%w: query has %d values, store holds %d", ErrDimensionMismatch, len(query), s.dim)
	}
	if !finite(query) {
		return Match{}, ErrNonFinite
	}

	best := -1
	bestDist := math.Inf(1)
	for i, v := range s.vectors {
		d := squaredDistance(query, v)
		if d < bestDist {
			best = i
			bestDist = d
		}
	}

	// Every distance overflowed.
	if best < 0 {
		return Match{}, ErrNonFinite
	}

	return Match{
		Label:    s.labels[best],
		Index:    best,
		Distance: math.Sqrt(bestDist),
	}, nil
}

// Distances returns the Euclidean distance from query to every example, in insertion order.
func (c *Classifier) Distances(query feature.Vector, s *Store) ([]float64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.vectors) == 0 {
		return nil, ErrNoExamples
	}
	if len(query) != s.dim {
		return nil, fmt.Errorf("%w: query has %d values, store holds %d", ErrDimensionMismatch, len(query), s.dim)
	}
	if !finite(query) {
		return nil, ErrNonFinite
	}

	out := make([]float64, len(s.vectors))
	for i, v := range s.vectors {
		out[i] = math.Sqrt(squaredDistance(query, v))
	}
	return out, nil
}

func squaredDistance(a, b feature.Vector) float64 {
	var sum float64
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return sum
}

func finite(v feature.Vector) bool {
	for _, x := range v {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return false
		}
	}
	return true
}
