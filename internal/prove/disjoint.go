package prove

// proveDisjoint builds the chain of containers upward from subject and
// looks for a container that shares a mutuallyDisjoint type with
// object. Success here is a proof that the goal is *false*.
func (r *run) proveDisjoint(subject, object string) (Result, bool) {
	chain := r.containerChain(subject)

	for _, c := range chain {
		if c == subject {
			continue
		}
		t, ok := r.commonDisjointType(c, object)
		if !ok {
			continue
		}

		var steps []Step
		for i := 0; i+1 < len(chain); i++ {
			steps = append(steps, Step{Operation: "transitive_found", Fact: "locatedIn " + chain[i] + " " + chain[i+1]})
			if chain[i+1] == c {
				break
			}
		}
		steps = append(steps, Step{Operation: "disjoint_check", Fact: c + " " + object + " " + t})

		result := false
		return Result{Valid: true, Method: "disjoint_proof", ResultValue: &result, Steps: steps}, true
	}
	return Result{}, false
}

// containerChain walks locatedIn facts upward from subject, stopping on
// the first cycle or dead end.
func (r *run) containerChain(subject string) []string {
	chain := []string{subject}
	seen := map[string]bool{subject: true}
	current := subject
	for {
		targets := r.directTargets("locatedIn", current)
		next := ""
		for _, t := range targets {
			if !seen[t] {
				next = t
				break
			}
		}
		if next == "" {
			break
		}
		chain = append(chain, next)
		seen[next] = true
		current = next
	}
	return chain
}

// commonDisjointType reports a type T such that "mutuallyDisjoint T" is
// asserted and both a and b are declared "isA _ T".
func (r *run) commonDisjointType(a, b string) (string, bool) {
	for _, f := range r.kb.Facts {
		if f.Metadata.Operator != "mutuallyDisjoint" || len(f.Metadata.Args) != 1 {
			continue
		}
		t := f.Metadata.Args[0]
		if len(r.kb.MatchExact("isA", []string{a, t})) > 0 && len(r.kb.MatchExact("isA", []string{b, t})) > 0 {
			return t, true
		}
	}
	return "", false
}
