// Package query implements the query engine: partial-vector
// construction over the known arguments of a statement, a per-fact scan
// of the knowledge base, and top-K decode of the holes.
package query

import (
	"sort"

	"hdcmind/internal/algebra"
	"hdcmind/internal/ast"
	"hdcmind/internal/bitvector"
	"hdcmind/internal/encoder"
	"hdcmind/internal/knowledge"
)

// MaxHoles is the largest number of holes a single query may contain.
const MaxHoles = 5

// SimilarityThreshold is the acceptance bar for both the no-hole scan and
// the per-hole decode.
const SimilarityThreshold = 0.5

// AmbiguityGap is the row1-vs-row2 confidence gap under which a query's
// top answer is flagged ambiguous.
const AmbiguityGap = 0.1

// Alternative is a candidate value for a hole other than the primary
// answer, with its similarity.
type Alternative struct {
	Value      string
	Similarity float64
}

// Binding is the answer for one hole: the winning value (nil if none met
// the threshold), its similarity, and distinct alternative values drawn
// from lower-ranked rows.
type Binding struct {
	Answer     *string
	Similarity float64
	Alternatives []Alternative
}

// Row is one accepted knowledge-base fact, with the hole values it
// yielded and its mean hole similarity (used to rank rows).
type Row struct {
	Fact         knowledge.Fact
	Similarity   float64
	HoleValues   map[string]Alternative
}

// Result is the query engine's output.
type Result struct {
	Success     bool
	Reason      string
	Bindings    map[string]Binding
	Confidence  float64
	Ambiguous   bool
	AllResults  []Row
}

// Engine runs queries against a KB using a shared Encoder (so it shares
// the session's Vocabulary and PositionCache). The threshold fields
// default to the package constants; callers may tune them before use.
type Engine struct {
	Enc *encoder.Encoder

	MaxHoles            int
	SimilarityThreshold float64
	AmbiguityGap        float64
}

// New builds a query Engine over enc with the default thresholds.
func New(enc *encoder.Encoder) *Engine {
	return &Engine{
		Enc:                 enc,
		MaxHoles:            MaxHoles,
		SimilarityThreshold: SimilarityThreshold,
		AmbiguityGap:        AmbiguityGap,
	}
}

// holeArg pairs a statement argument position (1-based) with its Hole
// term.
type holeArg struct {
	position int
	hole     ast.Hole
}

// Query runs stmt (which may contain zero or more top-level ast.Hole
// arguments) against kb.
func (eng *Engine) Query(stmt ast.Statement, scope *encoder.Scope, kb *knowledge.KB) (Result, error) {
	if kb.Len() == 0 {
		return Result{Success: false, Reason: "Empty knowledge base"}, nil
	}

	var holes []holeArg

	opVec, err := eng.Enc.Vocab.GetOrCreate(stmt.Operator)
	if err != nil {
		return Result{}, err
	}

	partial := opVec
	for i, arg := range stmt.Arguments {
		posIdx := i + 1
		pos, err := eng.Enc.Positions.Position(posIdx, eng.Enc.D)
		if err != nil {
			return Result{}, err
		}
		if h, ok := arg.(ast.Hole); ok {
			holes = append(holes, holeArg{position: posIdx, hole: h})
			continue
		}
		argVec, _, err := eng.Enc.EncodeTerm(arg, scope)
		if err != nil {
			return Result{}, err
		}
		bound, err := algebra.Bind(pos, argVec)
		if err != nil {
			return Result{}, err
		}
		partial, err = algebra.Bind(partial, bound)
		if err != nil {
			return Result{}, err
		}
	}

	if len(holes) > eng.MaxHoles {
		return Result{Success: false, Reason: "too many holes"}, nil
	}

	if len(holes) == 0 {
		return eng.queryNoHoles(partial, kb), nil
	}

	return eng.queryWithHoles(partial, holes, kb)
}

// queryNoHoles handles the fully-ground case: scan the KB, return
// everything above threshold sorted descending by similarity.
func (eng *Engine) queryNoHoles(full bitvector.BitVector, kb *knowledge.KB) Result {
	type scored struct {
		fact knowledge.Fact
		sim  float64
	}
	var rows []scored
	for _, f := range kb.Facts {
		sim, err := algebra.Similarity(full, f.Vector)
		if err != nil {
			continue
		}
		if sim > eng.SimilarityThreshold {
			rows = append(rows, scored{fact: f, sim: sim})
		}
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].sim > rows[j].sim })

	allResults := make([]Row, len(rows))
	for i, r := range rows {
		allResults[i] = Row{Fact: r.fact, Similarity: r.sim}
	}

	confidence := 0.0
	if len(rows) > 0 {
		confidence = rows[0].sim
	}
	ambiguous := len(rows) >= 2 && (rows[0].sim-rows[1].sim) < eng.AmbiguityGap

	return Result{
		Success:    len(rows) > 0,
		Bindings:   map[string]Binding{},
		Confidence: confidence,
		Ambiguous:  ambiguous,
		AllResults: allResults,
	}
}

// queryWithHoles decodes each hole from every fact's residue
// (fact (+) partial (+) Ph), accepts a fact only when all holes bound
// above threshold, and ranks accepted facts by mean hole similarity.
func (eng *Engine) queryWithHoles(partial bitvector.BitVector, holes []holeArg, kb *knowledge.KB) (Result, error) {
	vocabSnapshot := eng.Enc.Vocab.Snapshot()

	type rowCandidate struct {
		fact       knowledge.Fact
		meanSim    float64
		holeValues map[string]Alternative
	}
	var accepted []rowCandidate

	for _, f := range kb.Facts {
		candidate, err := algebra.Bind(f.Vector, partial)
		if err != nil {
			return Result{}, err
		}

		values := make(map[string]Alternative, len(holes))
		total := 0.0
		allBound := true

		for _, h := range holes {
			pos, err := eng.Enc.Positions.Position(h.position, eng.Enc.D)
			if err != nil {
				return Result{}, err
			}
			raw, err := algebra.Bind(candidate, pos)
			if err != nil {
				return Result{}, err
			}
			top, err := algebra.TopK(raw, vocabSnapshot, 3)
			if err != nil {
				return Result{}, err
			}
			if len(top) == 0 || top[0].Similarity <= eng.SimilarityThreshold {
				allBound = false
				break
			}
			values[h.hole.Name] = Alternative{Value: top[0].Name, Similarity: top[0].Similarity}
			total += top[0].Similarity
		}

		if !allBound {
			continue
		}
		accepted = append(accepted, rowCandidate{
			fact:       f,
			meanSim:    total / float64(len(holes)),
			holeValues: values,
		})
	}

	sort.Slice(accepted, func(i, j int) bool { return accepted[i].meanSim > accepted[j].meanSim })

	allResults := make([]Row, len(accepted))
	for i, r := range accepted {
		allResults[i] = Row{Fact: r.fact, Similarity: r.meanSim, HoleValues: r.holeValues}
	}

	if len(accepted) == 0 {
		unbound := make(map[string]Binding, len(holes))
		for _, h := range holes {
			unbound[h.hole.Name] = Binding{}
		}
		return Result{Success: false, Reason: "no binding met the similarity threshold", Bindings: unbound}, nil
	}

	bindings := make(map[string]Binding, len(holes))
	for _, h := range holes {
		primary := accepted[0].holeValues[h.hole.Name]
		answer := primary.Value
		b := Binding{Answer: &answer, Similarity: primary.Similarity}

		seen := map[string]bool{answer: true}
		for _, row := range accepted[1:] {
			alt, ok := row.holeValues[h.hole.Name]
			if !ok || seen[alt.Value] {
				continue
			}
			seen[alt.Value] = true
			b.Alternatives = append(b.Alternatives, Alternative{Value: alt.Value, Similarity: alt.Similarity})
		}
		bindings[h.hole.Name] = b
	}

	confidence := accepted[0].meanSim
	ambiguous := len(accepted) >= 2 && (accepted[0].meanSim-accepted[1].meanSim) < eng.AmbiguityGap

	return Result{
		Success:    true,
		Bindings:   bindings,
		Confidence: confidence,
		Ambiguous:  ambiguous,
		AllResults: allResults,
	}, nil
}
