// Package prove implements the proof engine: depth-bounded,
// cycle-detecting backward chaining combining direct KB match,
// transitive closure, rule unification with backtracking, and
// disjointness refutation.
package prove

import (
	"time"
)

// Bounds controls the global limits a single Prove call respects. The
// zero value is not usable; use DefaultBounds.
type Bounds struct {
	MaxDepth    int
	MaxSteps    int
	Timeout     time.Duration
}

// DefaultBounds returns the standard proof limits.
func DefaultBounds() Bounds {
	return Bounds{MaxDepth: 10, MaxSteps: 10000, Timeout: 2 * time.Second}
}

// Confidence thresholds and multipliers used throughout the prover.
const (
	StrongMatchThreshold = 0.7
	WeakMatchLow         = 0.55
	WeakMatchHigh        = 0.7
	RuleConfidenceFactor = 0.95
	TransitiveStepFactor = 0.98
	NegationPenalty      = 0.9
)

// TransitiveOperators is the fixed allow-list over which the prover
// performs closure. Adding a new transitive operator is a one-line
// change here.
var TransitiveOperators = map[string]bool{
	"isA": true, "locatedIn": true, "partOf": true,
	"subclassOf": true, "containedIn": true,
}

// Step is one entry in a proof's narrative log.
type Step struct {
	Operation  string
	Fact       string
	Rule       string
	Bindings   map[string]string
	Confidence float64
}

// Result is the terminal state of a Prove call.
type Result struct {
	Valid      bool
	Method     string
	Confidence float64
	Steps      []Step
	Reason     string
	// ResultValue is non-nil for a successful proof whose conclusion is
	// itself a truth value distinct from "provable" -- currently only set
	// to false by disjointness refutation (a proof that the goal is
	// false).
	ResultValue *bool
	// Bindings surfaces the variable assignments a quantified rule match
	// produced, for method "backward_chain_unified".
	Bindings map[string]string

	// StepsEvaluated and DepthReached feed Session's reasoning-stats
	// counters: the total recursive
	// entries counted against MAX_REASONING_STEPS, and the deepest depth
	// argument any proveGoal/proveTransitive call reached.
	StepsEvaluated int
	DepthReached   int
}

// Reasons used when Valid is false. These are not Go error types (the
// engine never returns an error out of Prove for ordinary proof
// failure) but fixed strings so callers/tests can match on them.
const (
	ReasonTimedOut             = "TimedOut"
	ReasonStepLimitExceeded    = "StepLimitExceeded"
	ReasonDepthLimitExceeded   = "DepthLimitExceeded"
	ReasonCycleDetected        = "CycleDetected"
	ReasonNoProofFound         = "no proof found"
)
