package store

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/ayusman/mudra/internal/feature"
)

// encodeVector packs a vector as little-endian IEEE 754 float64 values. The
// length is implied by the blob size.
func encodeVector(v feature.Vector) []byte {
	b := make([]byte, len(v)*8)
	for i, x := range v {
		binary.LittleEndian.PutUint64(b[i*8:], math.Float64bits(x))
	}
	return b
}

// decodeVector reverses encodeVector.
func decodeVector(b []byte) (feature.Vector, error) {
	if len(b)%8 != 0 {
		return nil, fmt.Errorf("invalid vector blob length %d (not a multiple of 8)", len(b))
	}
	v := make(feature.Vector, len(b)/8)
	for i := range v {
		v[i] = math.Float64frombits(binary.LittleEndian.Uint64(b[i*8:]))
	}
	return v, nil
}
