package prove

import (
	"time"

	"hdcmind/internal/algebra"
	"hdcmind/internal/knowledge"
)

// candidate is one way of satisfying a condition part: the bindings it
// requires or extends, the confidence it contributes, and the steps it
// adds to the proof's narrative.
type candidate struct {
	bindings   map[string]string
	confidence float64
	steps      []Step
}

// conditionPartForRule wraps an atomic rule (ConditionParts == nil) in a
// synthetic Leaf so partCandidates has a single entry point regardless
// of whether the condition is atomic or compound.
func conditionPartForRule(rule knowledge.Rule) knowledge.ConditionPart {
	if rule.ConditionParts != nil {
		return *rule.ConditionParts
	}
	return knowledge.ConditionPart{
		Kind: knowledge.ConditionLeaf,
		Leaf: &knowledge.LeafCondition{
			Vector:   rule.ConditionVector,
			Metadata: rule.ConditionMetadata,
			AST:      rule.ConditionAST,
		},
	}
}

// partCandidates enumerates every way part can be satisfied given
// bindings already fixed, one case per condition shape (Leaf, And, Or,
// Not).
func (r *run) partCandidates(part knowledge.ConditionPart, bindings map[string]string, depth int, visited Visited) []candidate {
	if reason := r.c.check(depth, time.Now()); reason != "" {
		return nil
	}
	switch part.Kind {
	case knowledge.ConditionLeaf:
		return r.leafCandidates(*part.Leaf, bindings, depth, visited)
	case knowledge.ConditionAnd:
		return r.andCandidates(part.Parts, 0, bindings, depth, visited)
	case knowledge.ConditionOr:
		var out []candidate
		for _, p := range part.Parts {
			out = append(out, r.partCandidates(p, bindings, depth, visited)...)
		}
		return out
	case knowledge.ConditionNot:
		return r.notCandidates(part.Inner, bindings, depth, visited)
	default:
		return nil
	}
}

// andCandidates enumerates satisfying bindings for parts[index:], given
// bindings already fixed by parts[:index]. Backtracking falls out of
// the recursion itself: if the tail call for a given head candidate
// yields nothing, the loop moves on to the next head candidate, which is
// exactly "retry earlier parts with the next candidate match".
func (r *run) andCandidates(parts []knowledge.ConditionPart, index int, bindings map[string]string, depth int, visited Visited) []candidate {
	if index == len(parts) {
		return []candidate{{bindings: copyBindings(bindings), confidence: 1.0}}
	}
	var out []candidate
	for _, head := range r.partCandidates(parts[index], bindings, depth, visited) {
		merged := mergeBindings(bindings, head.bindings)
		if merged == nil {
			continue
		}
		for _, tail := range r.andCandidates(parts, index+1, merged, depth, visited) {
			confidence := head.confidence
			if tail.confidence < confidence {
				confidence = tail.confidence
			}
			steps := append(append([]Step{}, head.steps...), tail.steps...)
			out = append(out, candidate{bindings: tail.bindings, confidence: confidence, steps: steps})
		}
	}
	return out
}

// notCandidates succeeds (with a single candidate, penalised confidence)
// iff inner has zero candidates at the current bindings -- negation as
// failure.
func (r *run) notCandidates(inner *knowledge.ConditionPart, bindings map[string]string, depth int, visited Visited) []candidate {
	if len(r.partCandidates(*inner, bindings, depth, visited)) > 0 {
		return nil
	}
	return []candidate{{
		bindings:   copyBindings(bindings),
		confidence: NegationPenalty,
		steps:      []Step{{Operation: "negation_as_failure", Confidence: NegationPenalty}},
	}}
}

// leafCandidates handles the two leaf cases: a fully
// ground leaf is checked directly against the KB (falling back to
// treating it as a subgoal for other rules to prove), while a leaf with
// remaining variables is pattern-matched against KB metadata, falling
// back to transitive variable resolution.
func (r *run) leafCandidates(leaf knowledge.LeafCondition, bindings map[string]string, depth int, visited Visited) []candidate {
	args := substituteArgs(leaf.Metadata.Args, bindings)
	remaining := unboundVariables(args, bindings)

	if len(remaining) == 0 {
		stmt := substituteStatement(leaf.AST, bindings)
		vec, meta, err := r.enc.EncodeStatement(stmt, r.scope)
		if err != nil {
			return nil
		}
		for _, f := range r.kb.Facts {
			sim, err := algebra.Similarity(vec, f.Vector)
			if err != nil {
				continue
			}
			if sim > StrongMatchThreshold {
				return []candidate{{
					bindings:   copyBindings(bindings),
					confidence: sim,
					steps:      []Step{{Operation: "direct_match", Fact: factText(f.Metadata), Confidence: sim}},
				}}
			}
		}
		sub := r.proveGoal(vec, meta, depth+1, visited.Clone(vectorKey(vec)))
		if sub.Valid {
			return []candidate{{bindings: copyBindings(bindings), confidence: sub.Confidence, steps: sub.Steps}}
		}
		return nil
	}

	if pattern := r.matchPattern(leaf.Metadata.Operator, args, bindings); len(pattern) > 0 {
		return pattern
	}

	if TransitiveOperators[leaf.Metadata.Operator] {
		return r.transitiveVariableCandidates(leaf.Metadata.Operator, args, bindings)
	}
	return nil
}

// matchPattern pattern-matches operator/args (which may still contain
// "?name" entries) against KB metadata: a variable slot either agrees
// with an existing binding or introduces a new one; a constant slot must
// match exactly.
func (r *run) matchPattern(operator string, args []string, bindings map[string]string) []candidate {
	var out []candidate
	for _, f := range r.kb.Facts {
		if f.Metadata.Operator != operator || len(f.Metadata.Args) != len(args) {
			continue
		}
		local := copyBindings(bindings)
		ok := true
		for i, a := range args {
			if len(a) > 0 && a[0] == '?' {
				name := a[1:]
				if existing, bound := local[name]; bound {
					if existing != f.Metadata.Args[i] {
						ok = false
						break
					}
					continue
				}
				local[name] = f.Metadata.Args[i]
				continue
			}
			if a != f.Metadata.Args[i] {
				ok = false
				break
			}
		}
		if !ok {
			continue
		}
		out = append(out, candidate{
			bindings:   local,
			confidence: 1.0,
			steps:      []Step{{Operation: "pattern_match", Fact: factText(f.Metadata), Confidence: 1.0}},
		})
	}
	return out
}
