package knowledge

import (
	"fmt"

	"hdcmind/internal/bitvector"
)

// exclusivePairs is the fixed table of mutually-exclusive value pairs
// per operator. Deriving exclusion pairs from a declared theory instead
// is deliberately not attempted.
var exclusivePairs = map[string][][2]string{
	"hasState": {
		{"Open", "Closed"},
		{"Alive", "Dead"},
		{"On", "Off"},
		{"Full", "Empty"},
	},
	"hasProperty": {
		{"Hot", "Cold"},
		{"Wet", "Dry"},
	},
}

func exclusiveWith(operator, value string) []string {
	var opposites []string
	for _, pair := range exclusivePairs[operator] {
		if pair[0] == value {
			opposites = append(opposites, pair[1])
		} else if pair[1] == value {
			opposites = append(opposites, pair[0])
		}
	}
	return opposites
}

// CheckContradictions consults newFact against kb's existing facts and
// returns zero or more warnings. It never blocks insertion: callers
// always append the fact regardless of what this returns.
//
// notTarget, when non-nil, is the vector that a "Not" fact's single
// argument resolved to (the encoder computes this since only it still
// has the unresolved term in hand).
func CheckContradictions(kb *KB, newFact Fact, notTarget *bitvector.BitVector) []string {
	var warnings []string

	if newFact.Metadata.Operator == "Not" && len(newFact.Metadata.Args) == 1 && notTarget != nil {
		for _, existing := range kb.Facts {
			if existing.Vector.Equal(*notTarget) {
				warnings = append(warnings, "Warning: direct contradiction detected")
				break
			}
		}
	}

	if newFact.Metadata.Operator == "before" || newFact.Metadata.Operator == "after" {
		opposite := "after"
		if newFact.Metadata.Operator == "after" {
			opposite = "before"
		}
		for _, existing := range kb.MatchExact(opposite, newFact.Metadata.Args) {
			_ = existing
			warnings = append(warnings, "Warning: temporal contradiction")
			break
		}
	}

	if len(newFact.Metadata.Args) >= 2 {
		subject := newFact.Metadata.Args[0]
		value := newFact.Metadata.Args[len(newFact.Metadata.Args)-1]
		opposites := exclusiveWith(newFact.Metadata.Operator, value)
		if len(opposites) > 0 {
			for _, existing := range kb.MatchOperator(newFact.Metadata.Operator) {
				if len(existing.Metadata.Args) < 2 || existing.Metadata.Args[0] != subject {
					continue
				}
				existingValue := existing.Metadata.Args[len(existing.Metadata.Args)-1]
				for _, opp := range opposites {
					if existingValue == opp {
						warnings = append(warnings, fmt.Sprintf(
							"Warning: contradiction - %s is both %s and %s", subject, value, existingValue))
					}
				}
			}
		}
	}

	return warnings
}
