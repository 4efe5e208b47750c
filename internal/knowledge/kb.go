package knowledge

import (
	"hdcmind/internal/algebra"
	"hdcmind/internal/bitvector"
)

// KB is the ordered fact list plus a rolling aggregate bundle and the
// rules list. Session owns exactly one KB for its lifetime; no fact is
// ever retracted.
type KB struct {
	d         int
	Facts     []Fact
	Rules     []Rule
	aggregate bitvector.BitVector
	hasAgg    bool
}

// New creates an empty knowledge base for geometry d.
func New(d int) *KB {
	return &KB{d: d}
}

// Append adds fact to the fact list and folds it into the rolling
// aggregate bundle. The caller is responsible for running the
// Contradiction Monitor first; Append itself never refuses a fact
// (the engine is paraconsistent by design).
func (kb *KB) Append(f Fact) error {
	kb.Facts = append(kb.Facts, f)
	if !kb.hasAgg {
		kb.aggregate = f.Vector.Clone()
		kb.hasAgg = true
		return nil
	}
	bundled, err := algebra.Bundle([]bitvector.BitVector{kb.aggregate, f.Vector}, &kb.aggregate)
	if err != nil {
		return err
	}
	kb.aggregate = bundled
	return nil
}

// AppendRule registers r, assigning it the next registration index.
func (kb *KB) AppendRule(r Rule) Rule {
	r.Index = len(kb.Rules)
	kb.Rules = append(kb.Rules, r)
	return r
}

// Aggregate returns the current rolling bundle and whether the KB has
// ever had a fact appended (an empty KB has no meaningful aggregate).
func (kb *KB) Aggregate() (bitvector.BitVector, bool) {
	return kb.aggregate, kb.hasAgg
}

// Len returns the number of persisted facts.
func (kb *KB) Len() int { return len(kb.Facts) }

// FactByName finds the most recently persisted fact with the given
// persistence name, or false if none matches.
func (kb *KB) FactByName(name string) (Fact, bool) {
	for i := len(kb.Facts) - 1; i >= 0; i-- {
		if kb.Facts[i].Name == name {
			return kb.Facts[i], true
		}
	}
	return Fact{}, false
}

// MatchExact returns all facts whose metadata operator and args equal
// the given ones exactly, in fact-list order. Used by the prover's
// metadata-exact lookups so transitive chains never drift via
// similarity.
func (kb *KB) MatchExact(operator string, args []string) []Fact {
	var out []Fact
	for _, f := range kb.Facts {
		if f.Metadata.Operator != operator || len(f.Metadata.Args) != len(args) {
			continue
		}
		match := true
		for i := range args {
			if f.Metadata.Args[i] != args[i] {
				match = false
				break
			}
		}
		if match {
			out = append(out, f)
		}
	}
	return out
}

// MatchOperator returns all facts with the given operator, regardless of
// arity or argument values.
func (kb *KB) MatchOperator(operator string) []Fact {
	var out []Fact
	for _, f := range kb.Facts {
		if f.Metadata.Operator == operator {
			out = append(out, f)
		}
	}
	return out
}
