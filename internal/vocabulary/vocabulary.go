// Package vocabulary implements the interning table name -> BitVector
// with lazy creation via Stamp. Named atoms (identifiers, operators,
// literals) intern permanently; synthetic names (__HOLE_*__,
// __EMPTY_LIST__ and friends) are pure recomputable stamps, so they go
// through a bounded LRU memo instead of the permanent table and a
// long-running session cannot grow without bound on hole churn alone.
package vocabulary

import (
	"strings"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"

	"hdcmind/internal/bitvector"
	"hdcmind/internal/stamp"
)

// synthStampCache bounds the memo for synthetic ("__"-prefixed) stamps.
// Eviction is safe: a synthetic stamp is a pure function of its name and
// is recomputed on the next miss.
const synthStampCache = 4096

// entry preserves insertion order alongside the vector.
type entry struct {
	name   string
	vector bitvector.BitVector
}

// Vocabulary is the session-owned interning table. Not safe for
// concurrent use across sessions (each Session owns one exclusively, per
// the single-threaded cooperative model), but guards its own map so that
// stray concurrent reads from tooling (e.g. a CLI status goroutine) do not
// race with learn.
type Vocabulary struct {
	mu      sync.Mutex
	d       int
	entries map[string]int // name -> index into order
	order   []entry
	synth   *lru.Cache[string, bitvector.BitVector]
}

// New creates an empty vocabulary for geometry d.
func New(d int) *Vocabulary {
	// lru.New only fails on a non-positive size; synthStampCache is a
	// positive constant.
	synth, _ := lru.New[string, bitvector.BitVector](synthStampCache)
	return &Vocabulary{
		d:       d,
		entries: make(map[string]int),
		synth:   synth,
	}
}

// isSynthetic reports whether name is one of the engine-generated
// "__...__" names (holes, empty-list marker) rather than a user atom.
func isSynthetic(name string) bool {
	return strings.HasPrefix(name, "__")
}

// GetOrCreate returns the stamp for name, creating and caching it on
// first reference. Named atoms intern permanently; synthetic names are
// memoised in the bounded LRU and recomputed after eviction.
func (v *Vocabulary) GetOrCreate(name string) (bitvector.BitVector, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if isSynthetic(name) {
		if vec, ok := v.synth.Get(name); ok {
			return vec, nil
		}
		vec, err := stamp.Stamp(name, v.d)
		if err != nil {
			return bitvector.BitVector{}, err
		}
		v.synth.Add(name, vec)
		return vec, nil
	}

	if idx, ok := v.entries[name]; ok {
		return v.order[idx].vector, nil
	}

	vec, err := stamp.Stamp(name, v.d)
	if err != nil {
		return bitvector.BitVector{}, err
	}
	v.entries[name] = len(v.order)
	v.order = append(v.order, entry{name: name, vector: vec})
	return vec, nil
}

// Get returns the stamp for name if already created, or the zero value
// and false if absent. Unlike GetOrCreate, it never creates (for a
// synthetic name, "absent" means evicted or never referenced).
func (v *Vocabulary) Get(name string) (bitvector.BitVector, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if isSynthetic(name) {
		return v.synth.Peek(name)
	}

	idx, ok := v.entries[name]
	if !ok {
		return bitvector.BitVector{}, false
	}
	return v.order[idx].vector, true
}

// Entries iterates the named atoms as (name, vector) pairs in insertion
// order. Synthetic stamps are transient and not listed.
func (v *Vocabulary) Entries() []struct {
	Name   string
	Vector bitvector.BitVector
} {
	v.mu.Lock()
	defer v.mu.Unlock()

	out := make([]struct {
		Name   string
		Vector bitvector.BitVector
	}, len(v.order))
	for i, e := range v.order {
		out[i].Name = e.name
		out[i].Vector = e.vector
	}
	return out
}

// Snapshot returns the full name->vector map, primarily for TopK scans
// and diagnostic export. Currently cached synthetic stamps are included
// so decode can still recognise a hole's stamp.
func (v *Vocabulary) Snapshot() map[string]bitvector.BitVector {
	v.mu.Lock()
	defer v.mu.Unlock()

	out := make(map[string]bitvector.BitVector, len(v.order)+v.synth.Len())
	for _, e := range v.order {
		out[e.name] = e.vector
	}
	for _, name := range v.synth.Keys() {
		if vec, ok := v.synth.Peek(name); ok {
			out[name] = vec
		}
	}
	return out
}

// Len returns the number of interned names, counting currently cached
// synthetic stamps.
func (v *Vocabulary) Len() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return len(v.order) + v.synth.Len()
}

// Synthetic name helpers, shared by the encoder and prover so both sides
// agree on exactly how holes and list markers are spelled.

// HoleName returns the synthetic vocabulary name for hole ?h.
func HoleName(h string) string { return "__HOLE_" + h + "__" }

// EmptyListName is the synthetic name stamped for an empty list literal.
const EmptyListName = "__EMPTY_LIST__"
