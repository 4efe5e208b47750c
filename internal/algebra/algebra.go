// Package algebra implements the three operations that give the binary
// hyperdimensional representation its holographic properties: bind
// (XOR), bundle (thresholded majority), and similarity (1 - normalized
// Hamming distance), plus the topK decode helper used by query and proof.
package algebra

import (
	"errors"
	"sort"

	"hdcmind/internal/bitvector"
)

// ErrEmptyBundle is returned by Bundle when given zero vectors.
var ErrEmptyBundle = errors.New("algebra: bundle requires at least one vector")

// Bind XORs a and b. Bind is self-inverse, associative, and commutative,
// so Unbind is the same operation.
func Bind(a, b bitvector.BitVector) (bitvector.BitVector, error) {
	return a.Xor(b)
}

// Unbind reverses a prior Bind by the same operand. Because XOR is its own
// inverse, Unbind is literally Bind.
func Unbind(a, b bitvector.BitVector) (bitvector.BitVector, error) {
	return Bind(a, b)
}

// Bundle combines vs by thresholded majority vote: a result bit is 1 if a
// strict majority of inputs have it set, 0 if a strict majority have it
// clear, and copied from tieBreaker (or left 0, if tieBreaker is nil)
// when the vote is exactly tied. A single input is cloned.
func Bundle(vs []bitvector.BitVector, tieBreaker *bitvector.BitVector) (bitvector.BitVector, error) {
	if len(vs) == 0 {
		return bitvector.BitVector{}, ErrEmptyBundle
	}
	if len(vs) == 1 {
		return vs[0].Clone(), nil
	}

	d := vs[0].D()
	for _, v := range vs[1:] {
		if v.D() != d {
			return bitvector.BitVector{}, &bitvector.GeometryMismatchError{A: d, B: v.D()}
		}
	}

	out, err := bitvector.New(d)
	if err != nil {
		return bitvector.BitVector{}, err
	}

	m := len(vs)

	for bit := 0; bit < d; bit++ {
		count := 0
		for _, v := range vs {
			if v.Bit(bit) {
				count++
			}
		}
		switch {
		case count*2 > m:
			out = out.SetBit(bit, true)
		case count*2 < m:
			out = out.SetBit(bit, false)
		default:
			// Exact tie (only possible for even m): copy from the
			// tie-breaker if one was supplied, else leave the zero bit.
			if tieBreaker != nil {
				out = out.SetBit(bit, tieBreaker.Bit(bit))
			}
		}
	}
	return out, nil
}

// Similarity returns 1 - popcount(a XOR b) / D, the normalized Hamming
// similarity in [0, 1].
func Similarity(a, b bitvector.BitVector) (float64, error) {
	x, err := a.Xor(b)
	if err != nil {
		return 0, err
	}
	return 1.0 - float64(x.Popcount())/float64(x.D()), nil
}

// ScoredName pairs a vocabulary name with its similarity to a query
// vector, used by TopK.
type ScoredName struct {
	Name       string
	Similarity float64
}

// TopK linearly scans candidates and returns the k entries most similar to
// query, sorted by descending similarity (ties broken by name for
// determinism).
func TopK(query bitvector.BitVector, candidates map[string]bitvector.BitVector, k int) ([]ScoredName, error) {
	scored := make([]ScoredName, 0, len(candidates))
	for name, v := range candidates {
		sim, err := Similarity(query, v)
		if err != nil {
			return nil, err
		}
		scored = append(scored, ScoredName{Name: name, Similarity: sim})
	}

	sort.Slice(scored, func(i, j int) bool {
		if scored[i].Similarity != scored[j].Similarity {
			return scored[i].Similarity > scored[j].Similarity
		}
		return scored[i].Name < scored[j].Name
	})

	if k < len(scored) {
		scored = scored[:k]
	}
	return scored, nil
}
