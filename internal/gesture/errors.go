package gesture

import "errors"

var (
	// ErrNoExamples is returned when classification is attempted against an empty store.
	ErrNoExamples = errors.New("no gestures trained")

	// ErrDimensionMismatch is returned when a feature vector's length disagrees
	// with the length fixed by the store.
	ErrDimensionMismatch = errors.New("feature vector dimension mismatch")

	// ErrNonFinite is returned when a feature vector holds NaN or infinite values.
	ErrNonFinite = errors.New("feature vector is not finite")

	// ErrEmptyLabel is returned when an example is given an empty label.
	ErrEmptyLabel = errors.New("gesture label must not be empty")
)
