package prove

import (
	"time"

	"hdcmind/internal/algebra"
	"hdcmind/internal/ast"
	"hdcmind/internal/bitvector"
	"hdcmind/internal/encoder"
	"hdcmind/internal/knowledge"
	"hdcmind/internal/parser"
)

// Engine runs proofs against a KB using a shared Encoder (so it shares
// the session's Vocabulary and PositionCache).
type Engine struct {
	Enc    *encoder.Encoder
	Bounds Bounds
}

// New builds a ProofEngine over enc with the default bounds.
func New(enc *encoder.Encoder) *Engine {
	return &Engine{Enc: enc, Bounds: DefaultBounds()}
}

// WithBounds returns a copy of pe using b instead of the default bounds
// -- the Session's prove(text, {timeout}) option.
func (pe *Engine) WithBounds(b Bounds) *Engine {
	return &Engine{Enc: pe.Enc, Bounds: b}
}

// run carries the state shared mutably across every recursive call of a
// single Prove invocation: the KB and scope being proved against, and
// the step/deadline tracker.
type run struct {
	enc      *encoder.Encoder
	kb       *knowledge.KB
	scope    *encoder.Scope
	c        *ctx
	maxDepth *int
}

// noteDepth records depth as the deepest recursion point reached so far
// in this Prove call, for the Session's reasoning-stats counters.
func (r *run) noteDepth(depth int) {
	if depth > *r.maxDepth {
		*r.maxDepth = depth
	}
}

// Prove attempts to show that goal (a fully-ground statement) follows
// from kb.
func (pe *Engine) Prove(goal ast.Statement, scope *encoder.Scope, kb *knowledge.KB) (Result, error) {
	if kb.Len() == 0 {
		return Result{Valid: false, Reason: "Empty knowledge base"}, nil
	}
	vec, meta, err := pe.Enc.EncodeStatement(goal, scope)
	if err != nil {
		return Result{}, err
	}
	maxDepth := 0
	r := &run{enc: pe.Enc, kb: kb, scope: scope, c: newCtx(pe.Bounds, time.Now()), maxDepth: &maxDepth}
	res := r.proveGoal(vec, meta, 0, Visited{})
	res.StepsEvaluated = *r.c.steps
	res.DepthReached = maxDepth
	return res, nil
}

// proveGoal is the main loop: strong direct match, transitive chain,
// rule match, weak direct match, disjointness refutation, in that
// order.
func (r *run) proveGoal(vec bitvector.BitVector, meta knowledge.Metadata, depth int, visited Visited) Result {
	r.noteDepth(depth)
	if reason := r.c.check(depth, time.Now()); reason != "" {
		return Result{Valid: false, Reason: reason}
	}

	key := vectorKey(vec)
	if visited.Has(key) {
		return Result{Valid: false, Reason: ReasonCycleDetected}
	}
	childVisited := visited.Clone(key)

	bestFact, bestSim, found := r.strongestMatch(vec)

	if found && bestSim > StrongMatchThreshold {
		return Result{
			Valid: true, Method: "direct", Confidence: bestSim,
			Steps: []Step{{Operation: "direct_match", Fact: factText(bestFact.Metadata), Confidence: bestSim}},
		}
	}

	if TransitiveOperators[meta.Operator] && len(meta.Args) == 2 {
		if res, ok := r.proveTransitive(meta.Operator, meta.Args[0], meta.Args[1], depth+1, childVisited); ok {
			return res
		}
	}
	if reason := r.c.peek(); reason != "" {
		return Result{Valid: false, Reason: reason}
	}

	if res, ok := r.proveRules(vec, meta, depth, childVisited); ok {
		return res
	}
	if reason := r.c.peek(); reason != "" {
		return Result{Valid: false, Reason: reason}
	}

	if found && bestSim > WeakMatchLow && bestSim <= WeakMatchHigh {
		return Result{
			Valid: true, Method: "weak_match", Confidence: bestSim,
			Steps: []Step{{Operation: "weak_match", Fact: factText(bestFact.Metadata), Confidence: bestSim}},
		}
	}

	if meta.Operator == "locatedIn" && len(meta.Args) == 2 {
		if res, ok := r.proveDisjoint(meta.Args[0], meta.Args[1]); ok {
			return res
		}
	}

	return Result{Valid: false, Reason: ReasonNoProofFound}
}

// proveRules tries every registered rule against the goal: a
// non-quantified rule matches by similarity of its conclusion to the
// goal, a quantified rule matches by first-order unification.
func (r *run) proveRules(vec bitvector.BitVector, meta knowledge.Metadata, depth int, visited Visited) (Result, bool) {
	for _, rule := range r.kb.Rules {
		if reason := r.c.check(depth, time.Now()); reason != "" {
			return Result{Valid: false, Reason: reason}, true
		}

		if !rule.HasVariables {
			sim, err := algebra.Similarity(vec, rule.ConclusionVector)
			if err != nil || sim <= StrongMatchThreshold {
				continue
			}
			cands := r.partCandidates(conditionPartForRule(rule), nil, depth+1, visited)
			if len(cands) == 0 {
				continue
			}
			cond := cands[0]
			confidence := sim
			if cond.confidence < confidence {
				confidence = cond.confidence
			}
			confidence *= RuleConfidenceFactor
			steps := append(append([]Step{}, cond.steps...), Step{
				Operation: "rule_applied", Rule: rule.Name, Confidence: confidence,
			})
			return Result{Valid: true, Method: "backward_chain", Confidence: confidence, Steps: steps}, true
		}

		bindings, ok := unifyConclusion(meta.Operator, meta.Args, rule.ConclusionAST)
		if !ok {
			continue
		}
		cands := r.partCandidates(conditionPartForRule(rule), bindings, depth+1, visited)
		if len(cands) == 0 {
			continue
		}
		cond := cands[0]
		confidence := cond.confidence * RuleConfidenceFactor
		steps := append(append([]Step{}, cond.steps...), Step{
			Operation: "rule_applied", Rule: rule.Name, Bindings: cond.bindings, Confidence: confidence,
		})
		return Result{
			Valid: true, Method: "backward_chain_unified", Confidence: confidence,
			Steps: steps, Bindings: cond.bindings,
		}, true
	}
	return Result{}, false
}

// strongestMatch linearly scans the KB for the fact most similar to vec.
func (r *run) strongestMatch(vec bitvector.BitVector) (knowledge.Fact, float64, bool) {
	var best knowledge.Fact
	bestSim := -1.0
	found := false
	for _, f := range r.kb.Facts {
		sim, err := algebra.Similarity(vec, f.Vector)
		if err != nil {
			continue
		}
		if !found || sim > bestSim {
			best, bestSim, found = f, sim, true
		}
	}
	return best, bestSim, found
}

// factText renders metadata as the surface-style "operator arg1 arg2"
// text a step's Fact field carries for the narrative pretty-printer.
func factText(m knowledge.Metadata) string {
	text := m.Operator
	for _, a := range m.Args {
		text += " " + a
	}
	return text
}

// isReservedWord reports whether name is one of the logical connective /
// quantifier / directive operators, which never count as transitive
// chain intermediates.
func isReservedWord(name string) bool {
	return parser.ReservedOperators[name]
}
