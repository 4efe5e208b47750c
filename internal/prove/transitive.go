package prove

import "time"

// directTargets returns every y (excluding subject itself and reserved
// words) such that a KB fact has metadata {operator: op, args: [subject,
// y]}.
func (r *run) directTargets(op, subject string) []string {
	var out []string
	for _, f := range r.kb.Facts {
		if f.Metadata.Operator != op || len(f.Metadata.Args) != 2 {
			continue
		}
		if f.Metadata.Args[0] != subject {
			continue
		}
		y := f.Metadata.Args[1]
		if y == subject || isReservedWord(y) {
			continue
		}
		out = append(out, y)
	}
	return out
}

// directSources is directTargets' mirror image: every x such that a KB
// fact has metadata {operator: op, args: [x, object]}.
func (r *run) directSources(op, object string) []string {
	var out []string
	for _, f := range r.kb.Facts {
		if f.Metadata.Operator != op || len(f.Metadata.Args) != 2 {
			continue
		}
		if f.Metadata.Args[1] != object {
			continue
		}
		x := f.Metadata.Args[0]
		if x == object || isReservedWord(x) {
			continue
		}
		out = append(out, x)
	}
	return out
}

// proveTransitive collects every y directly reachable from subject via
// op, succeeds immediately if object is among them, and otherwise
// recurses into each y as a new subject.
func (r *run) proveTransitive(op, subject, object string, depth int, visited Visited) (Result, bool) {
	r.noteDepth(depth)
	key := transitiveKey(op, subject, object)
	if visited.Has(key) {
		return Result{}, false
	}
	if reason := r.c.check(depth, time.Now()); reason != "" {
		return Result{Valid: false, Reason: reason}, true
	}
	childVisited := visited.Clone(key)

	intermediates := r.directTargets(op, subject)

	for _, y := range intermediates {
		if y == object {
			step := Step{Operation: "transitive_found", Fact: op + " " + subject + " " + object, Confidence: TransitiveStepFactor}
			return Result{Valid: true, Method: "transitive_chain", Confidence: TransitiveStepFactor, Steps: []Step{step}}, true
		}
	}

	for _, y := range intermediates {
		sub, ok := r.proveTransitive(op, y, object, depth+1, childVisited)
		if !ok || !sub.Valid {
			continue
		}
		firstStep := Step{Operation: "transitive_found", Fact: op + " " + subject + " " + y, Confidence: TransitiveStepFactor}
		steps := append([]Step{firstStep}, sub.Steps...)
		confidence := sub.Confidence * TransitiveStepFactor
		return Result{Valid: true, Method: "transitive_chain", Confidence: confidence, Steps: steps}, true
	}

	return Result{}, false
}

// transitiveClosureFrom breadth-first walks op starting at start,
// returning every node reachable (excluding start), used to resolve a
// condition leaf whose object slot is an unbound variable.
func (r *run) transitiveClosureFrom(op, start string) []string {
	seen := map[string]bool{start: true}
	queue := []string{start}
	var out []string
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, y := range r.directTargets(op, cur) {
			if seen[y] {
				continue
			}
			seen[y] = true
			out = append(out, y)
			queue = append(queue, y)
		}
	}
	return out
}

// transitiveClosureTo is transitiveClosureFrom's mirror, walking
// directSources backward from target.
func (r *run) transitiveClosureTo(op, target string) []string {
	seen := map[string]bool{target: true}
	queue := []string{target}
	var out []string
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, x := range r.directSources(op, cur) {
			if seen[x] {
				continue
			}
			seen[x] = true
			out = append(out, x)
			queue = append(queue, x)
		}
	}
	return out
}

// transitiveVariableCandidates resolves a condition leaf over a
// transitive operator when one argument slot is bound and the other is
// an unbound variable, binding the variable to each node reachable by
// closure.
func (r *run) transitiveVariableCandidates(op string, args []string, bindings map[string]string) []candidate {
	if len(args) != 2 {
		return nil
	}
	subjVal, subjVar, _ := isBoundSlot(args[0], bindings)
	objVal, objVar, _ := isBoundSlot(args[1], bindings)

	switch {
	case subjVar == "" && objVar != "":
		var out []candidate
		for _, target := range r.transitiveClosureFrom(op, subjVal) {
			b := copyBindings(bindings)
			b[objVar] = target
			out = append(out, candidate{
				bindings:   b,
				confidence: TransitiveStepFactor,
				steps:      []Step{{Operation: "transitive_found", Fact: op + " " + subjVal + " " + target, Confidence: TransitiveStepFactor}},
			})
		}
		return out

	case objVar == "" && subjVar != "":
		var out []candidate
		for _, source := range r.transitiveClosureTo(op, objVal) {
			b := copyBindings(bindings)
			b[subjVar] = source
			out = append(out, candidate{
				bindings:   b,
				confidence: TransitiveStepFactor,
				steps:      []Step{{Operation: "transitive_found", Fact: op + " " + source + " " + objVal, Confidence: TransitiveStepFactor}},
			})
		}
		return out

	default:
		return nil
	}
}
