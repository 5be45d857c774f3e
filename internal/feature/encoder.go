// Package feature converts hand poses into the flat numeric vectors used for
// gesture comparison.
package feature

import (
	"errors"
	"fmt"

	"github.com/ayusman/mudra/internal/detector"
)

// ErrLandmarkCount is returned when a pose does not have the expected number of landmarks.
var ErrLandmarkCount = errors.New("unexpected landmark count")

// Vector is a feature vector: x then y of every landmark, in landmark order.
type Vector []float64

// Encoder flattens poses with a fixed landmark count.
type Encoder struct {
	landmarks int
}

// NewEncoder creates an Encoder for poses with the given number of landmarks.
func NewEncoder(landmarks int) *Encoder {
	return &Encoder{landmarks: landmarks}
}

// Landmarks returns the number of landmarks a pose must have.
func (e *Encoder) Landmarks() int {
	return e.landmarks
}

// Dim returns the length of the vectors produced by Encode.
func (e *Encoder) Dim() int {
	return 2 * e.landmarks
}

// Encode returns (x0, y0, x1, y1, ...) for the given points. Coordinates are
// taken as-is; Z is dropped.
func (e *Encoder) Encode(points []detector.Point3D) (Vector, error) {
	if len(points) != e.landmarks {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrLandmarkCount, len(points), e.landmarks)
	}

	v := make(Vector, 0, e.Dim())
	for _, p := range points {
		v = append(v, p.X, p.Y)
	}
	return v, nil
}

// EncodeHand encodes a detected hand.
func (e *Encoder) EncodeHand(hand *detector.HandLandmarks) (Vector, error) {
	if hand == nil {
		return nil, errors.New("nil hand")
	}
	return e.Encode(hand.Points[:])
}
