// Package sparse defines the sparse vector value type shared by the
// vectorizers and the Qdrant repository.
package sparse

import (
	"math"
	"sort"
)

// IndexSpace is the size of the hash index space. Term hashes are reduced
// into [0, IndexSpace); the space is large enough that collisions are rare
// and accepted rather than resolved.
const IndexSpace = 1 << 31

// Vector is a sparse numeric vector represented by its non-zero entries as
// parallel indices/values arrays, indices sorted ascending. Immutable after
// construction: rebuild from source text instead of mutating.
type Vector struct {
	Indices []uint32
	Values  []float32
}

// FromWeights builds a Vector from an index→weight mapping. Entries whose
// weight is not a finite positive number are dropped so NaN/Inf never
// propagate into a norm or the index. Indices come out sorted for
// deterministic output.
func FromWeights(weights map[uint32]float64) Vector {
	if len(weights) == 0 {
		return Vector{}
	}

	indices := make([]uint32, 0, len(weights))
	for idx, w := range weights {
		if !isFinitePositive(w) {
			continue
		}
		indices = append(indices, idx)
	}
	if len(indices) == 0 {
		return Vector{}
	}
	sort.Slice(indices, func(i, j int) bool { return indices[i] < indices[j] })

	values := make([]float32, len(indices))
	for i, idx := range indices {
		values[i] = float32(weights[idx])
	}

	return Vector{Indices: indices, Values: values}
}

// Sentinel returns a single-entry placeholder vector. Callers that must hand
// a non-empty sparse vector to the index (Qdrant rejects zero-length sparse
// vectors) substitute this for an empty vector at the call site.
func Sentinel() Vector {
	return Vector{Indices: []uint32{0}, Values: []float32{1.0}}
}

// IsEmpty reports whether the vector has no entries.
func (v Vector) IsEmpty() bool { return len(v.Indices) == 0 }

// Len returns the number of non-zero entries.
func (v Vector) Len() int { return len(v.Indices) }

// Norm returns the Euclidean norm of the values.
func (v Vector) Norm() float64 {
	var sum float64
	for _, val := range v.Values {
		sum += float64(val) * float64(val)
	}
	return math.Sqrt(sum)
}

func isFinitePositive(w float64) bool {
	return w > 0 && !math.IsInf(w, 0) && !math.IsNaN(w)
}
