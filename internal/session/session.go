// Package session is the single-threaded façade over the engine: it
// owns the Vocabulary, Scope, KB, rules, and statistics, and exposes
// learn / query / prove / decode / summarize / elaborate on top of the
// engines in internal/query and internal/prove.
package session

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"hdcmind/internal/ast"
	"hdcmind/internal/bitvector"
	"hdcmind/internal/config"
	"hdcmind/internal/encoder"
	"hdcmind/internal/knowledge"
	"hdcmind/internal/loader"
	"hdcmind/internal/parser"
	"hdcmind/internal/position"
	"hdcmind/internal/prove"
	"hdcmind/internal/query"
	"hdcmind/internal/store"
	"hdcmind/internal/vocabulary"
)

// Session coordinates one reasoning session. All methods must be called
// from a single goroutine; separate Sessions are independent.
type Session struct {
	ID  string
	D   int
	cfg config.Config
	log *zap.Logger

	Vocab     *vocabulary.Vocabulary
	Positions *position.Cache
	Enc       *encoder.Encoder
	KB        *knowledge.KB
	Scope     *encoder.Scope

	theories *loader.Loader
	queries  *query.Engine
	prover   *prove.Engine

	// operators records every name used in operator position, for
	// Decode's operator table.
	operators map[string]bool

	stats    Stats
	warnings []string
}

// New builds a Session from cfg. An invalid geometry surfaces on the
// first stamp; the bounds and base directory come straight from cfg.
func New(cfg config.Config, log *zap.Logger) (*Session, error) {
	if log == nil {
		log = zap.NewNop()
	}
	vocab := vocabulary.New(cfg.Dimension)
	positions, err := position.NewCache(0)
	if err != nil {
		return nil, err
	}

	// Reserve the connective/quantifier atoms up front so they exist in
	// every session regardless of what gets learned.
	for name := range parser.ReservedOperators {
		if _, err := vocab.GetOrCreate(name); err != nil {
			return nil, err
		}
	}

	enc := encoder.New(vocab, positions, cfg.Dimension)
	queries := query.New(enc)
	if cfg.Query.MaxHoles > 0 {
		queries.MaxHoles = cfg.Query.MaxHoles
	}
	if cfg.Query.SimilarityThreshold > 0 {
		queries.SimilarityThreshold = cfg.Query.SimilarityThreshold
	}
	if cfg.Query.AmbiguityGap > 0 {
		queries.AmbiguityGap = cfg.Query.AmbiguityGap
	}
	s := &Session{
		ID:        uuid.NewString(),
		D:         cfg.Dimension,
		cfg:       cfg,
		log:       log,
		Vocab:     vocab,
		Positions: positions,
		Enc:       enc,
		KB:        knowledge.New(cfg.Dimension),
		Scope:     encoder.NewScope(),
		theories:  loader.New(cfg.BaseDir),
		queries:   queries,
		prover:    prove.New(enc).WithBounds(cfg.Proof.Bounds()),
		operators: make(map[string]bool),
		stats:     Stats{MethodHistogram: make(map[string]int)},
	}
	return s, nil
}

// LearnResult reports one learn batch: how many facts persisted, plus
// any errors and contradiction warnings raised along the way.
type LearnResult struct {
	Success  bool
	Facts    int
	Errors   []string
	Warnings []string
}

// Learn parses text and processes its statements in order. A parse
// error halts the batch, leaving the statements before it persisted; an
// encoding error (undefined reference) skips that statement and
// continues.
func (s *Session) Learn(text string) LearnResult {
	res := LearnResult{}
	stmts, err := parser.ParseText(text)
	if err != nil {
		res.Errors = append(res.Errors, err.Error())
	}

	lines := strings.Split(text, "\n")
	s.learnStatements(stmts, lines, &res)

	res.Success = len(res.Errors) == 0
	s.warnings = append(s.warnings, res.Warnings...)
	s.log.Debug("learn",
		zap.Int("statements", len(stmts)),
		zap.Int("facts", res.Facts),
		zap.Int("errors", len(res.Errors)),
		zap.Int("warnings", len(res.Warnings)))
	return res
}

// learnStatements runs the learn pipeline over already-parsed
// statements. Load recursion re-enters here with the loaded theory's
// own statements and source lines.
func (s *Session) learnStatements(stmts []ast.Statement, lines []string, res *LearnResult) {
	for _, stmt := range stmts {
		switch stmt.Operator {
		case "Load":
			s.learnLoad(stmt, res)
			continue
		case "Unload":
			if path, ok := directivePath(stmt); ok {
				s.theories.Unload(path)
			} else {
				res.Errors = append(res.Errors, fmt.Sprintf("line %d: Unload requires a single string path", stmt.Line))
			}
			continue
		}

		vec, meta, err := s.Enc.EncodeStatement(stmt, s.Scope)
		if err != nil {
			res.Errors = append(res.Errors, fmt.Sprintf("line %d: %s", stmt.Line, err.Error()))
			continue
		}
		s.operators[stmt.Operator] = true

		if stmt.HasBinding() {
			s.Scope.Bind(stmt.BindingName, vec, stmt)
		}

		if stmt.Persist {
			fact := knowledge.Fact{Vector: vec, Metadata: meta, Name: stmt.PersistenceName}

			notTarget, err := s.notTargetFor(stmt)
			if err != nil {
				res.Errors = append(res.Errors, fmt.Sprintf("line %d: %s", stmt.Line, err.Error()))
				continue
			}
			res.Warnings = append(res.Warnings, knowledge.CheckContradictions(s.KB, fact, notTarget)...)

			if err := s.KB.Append(fact); err != nil {
				res.Errors = append(res.Errors, fmt.Sprintf("line %d: %s", stmt.Line, err.Error()))
				continue
			}
			res.Facts++
		}

		// A persisted Implies registers only after its fact appended;
		// a binding-only Implies (@r with no :id) still registers, since
		// rules live on the rules list, not the fact list.
		if isRuleStatement(stmt) {
			s.registerRule(stmt, lines, res)
		}
	}
}

// learnLoad resolves a Load directive: skipped if the path is already
// loaded, otherwise read, parsed, and fed back through the learn
// pipeline so rules inside the theory register as usual.
func (s *Session) learnLoad(stmt ast.Statement, res *LearnResult) {
	path, ok := directivePath(stmt)
	if !ok {
		res.Errors = append(res.Errors, fmt.Sprintf("line %d: Load requires a single string path", stmt.Line))
		return
	}
	if !s.theories.ShouldLoad(path) {
		return
	}
	text, err := s.theories.Read(path)
	if err != nil {
		res.Errors = append(res.Errors, err.Error())
		return
	}
	loaded, err := parser.ParseText(text)
	if err != nil {
		res.Errors = append(res.Errors, fmt.Sprintf("%s: %s", path, err.Error()))
	}
	s.learnStatements(loaded, strings.Split(text, "\n"), res)
}

// notTargetFor resolves the vector a "Not" fact's single argument
// refers to, for the Contradiction Monitor's direct-contradiction
// check. Non-Not statements contribute nothing.
func (s *Session) notTargetFor(stmt ast.Statement) (*bitvector.BitVector, error) {
	if stmt.Operator != "Not" {
		return nil, nil
	}
	return s.Enc.FirstArgVector(stmt, s.Scope)
}

// directivePath extracts the single string-literal argument of a
// Load/Unload directive.
func directivePath(stmt ast.Statement) (string, bool) {
	if len(stmt.Arguments) != 1 {
		return "", false
	}
	lit, ok := stmt.Arguments[0].(ast.Literal)
	if !ok {
		return "", false
	}
	return lit.Value, true
}

// isRuleStatement reports whether a statement, persisted or not,
// registers a rule: operator Implies with two reference arguments.
func isRuleStatement(stmt ast.Statement) bool {
	if stmt.Operator != "Implies" || len(stmt.Arguments) != 2 {
		return false
	}
	_, c := stmt.Arguments[0].(ast.Reference)
	_, q := stmt.Arguments[1].(ast.Reference)
	return c && q
}

func (s *Session) registerRule(stmt ast.Statement, lines []string, res *LearnResult) {
	name := stmt.PersistenceName
	if name == "" {
		name = stmt.BindingName
	}
	if name == "" {
		name = "rule-" + uuid.NewString()[:8]
	}
	sourceText := ""
	if stmt.Line >= 1 && stmt.Line <= len(lines) {
		sourceText = strings.TrimSpace(lines[stmt.Line-1])
	}
	rule, err := s.Enc.BuildRule(stmt, name, sourceText, s.Scope)
	if err != nil {
		res.Errors = append(res.Errors, fmt.Sprintf("line %d: %s", stmt.Line, err.Error()))
		return
	}
	rule = s.KB.AppendRule(rule)
	s.log.Debug("rule registered",
		zap.String("name", rule.Name),
		zap.Int("index", rule.Index),
		zap.Bool("hasVariables", rule.HasVariables))
}

// Query parses text and runs its final statement through the
// QueryEngine. Earlier statements (if any) are encoded only so their
// bindings land in scope, never persisted.
func (s *Session) Query(text string) (query.Result, error) {
	stmt, err := s.parseGoal(text)
	if err != nil {
		return query.Result{Success: false, Reason: err.Error()}, nil
	}

	s.stats.Queries++
	s.stats.KBScans++
	s.stats.SimilarityChecks += s.KB.Len()

	res, err := s.queries.Query(stmt, s.Scope, s.KB)
	if err != nil {
		return query.Result{}, err
	}
	s.log.Debug("query",
		zap.String("operator", stmt.Operator),
		zap.Bool("success", res.Success),
		zap.Float64("confidence", res.Confidence))
	return res, nil
}

// ProveOptions carries the caller-tunable knobs of a single proof.
type ProveOptions struct {
	Timeout time.Duration
}

// Prove parses text and attempts to prove its final statement.
func (s *Session) Prove(text string, opts *ProveOptions) (prove.Result, error) {
	stmt, err := s.parseGoal(text)
	if err != nil {
		return prove.Result{Valid: false, Reason: err.Error()}, nil
	}

	prover := s.prover
	if opts != nil && opts.Timeout > 0 {
		b := prover.Bounds
		b.Timeout = opts.Timeout
		prover = prover.WithBounds(b)
	}

	res, err := prover.Prove(stmt, s.Scope, s.KB)
	if err != nil {
		return prove.Result{}, err
	}

	s.stats.Proofs++
	s.stats.KBScans++
	s.stats.SimilarityChecks += s.KB.Len()
	s.stats.RuleAttempts += len(s.KB.Rules)
	for _, step := range res.Steps {
		if step.Operation == "transitive_found" {
			s.stats.TransitiveSteps++
		}
	}
	if res.DepthReached > s.stats.DeepestProof {
		s.stats.DeepestProof = res.DepthReached
	}
	if res.Valid {
		s.stats.MethodHistogram[res.Method]++
		s.stats.validProofs++
		s.stats.totalProofSteps += len(res.Steps)
	}

	s.log.Debug("prove",
		zap.String("operator", stmt.Operator),
		zap.Bool("valid", res.Valid),
		zap.String("method", res.Method),
		zap.Int("steps", res.StepsEvaluated))
	return res, nil
}

// parseGoal parses text and returns its final statement; earlier
// statements only contribute scope bindings.
func (s *Session) parseGoal(text string) (ast.Statement, error) {
	stmts, err := parser.ParseText(text)
	if err != nil {
		return ast.Statement{}, err
	}
	if len(stmts) == 0 {
		return ast.Statement{}, fmt.Errorf("no statement in input")
	}
	for _, stmt := range stmts[:len(stmts)-1] {
		vec, _, err := s.Enc.EncodeStatement(stmt, s.Scope)
		if err != nil {
			return ast.Statement{}, err
		}
		if stmt.HasBinding() {
			s.Scope.Bind(stmt.BindingName, vec, stmt)
		}
	}
	return stmts[len(stmts)-1], nil
}

// GetReasoningStats snapshots the counters; reset zeroes them after the
// snapshot is taken.
func (s *Session) GetReasoningStats(reset bool) StatsSnapshot {
	snap := StatsSnapshot{
		Queries:          s.stats.Queries,
		Proofs:           s.stats.Proofs,
		KBScans:          s.stats.KBScans,
		SimilarityChecks: s.stats.SimilarityChecks,
		RuleAttempts:     s.stats.RuleAttempts,
		TransitiveSteps:  s.stats.TransitiveSteps,
		DeepestProof:     s.stats.DeepestProof,
		MethodHistogram:  copyHistogram(s.stats.MethodHistogram),
	}
	if s.stats.validProofs > 0 {
		snap.AvgProofLength = float64(s.stats.totalProofSteps) / float64(s.stats.validProofs)
	}
	if reset {
		s.stats = Stats{MethodHistogram: make(map[string]int)}
	}
	return snap
}

// Warnings returns every contradiction warning accumulated over the
// session's lifetime, in the order raised.
func (s *Session) Warnings() []string {
	out := make([]string, len(s.warnings))
	copy(out, s.warnings)
	return out
}

// ClearScope forgets the local @alias bindings; facts and rules are
// untouched.
func (s *Session) ClearScope() {
	s.Scope = encoder.NewScope()
}

// Dump writes a diagnostic snapshot of the session -- vocabulary,
// facts, rules, and the current reasoning stats -- to a SQLite file at
// path. Nothing in learn/query/prove ever reads it back.
func (s *Session) Dump(ctx context.Context, path string) error {
	db, err := store.Open(path)
	if err != nil {
		return err
	}
	defer db.Close()

	snap := s.GetReasoningStats(false)
	stats := store.Stats{
		Queries:          snap.Queries,
		Proofs:           snap.Proofs,
		KBScans:          snap.KBScans,
		SimilarityChecks: snap.SimilarityChecks,
		RuleAttempts:     snap.RuleAttempts,
		TransitiveSteps:  snap.TransitiveSteps,
		DeepestProof:     snap.DeepestProof,
		AvgProofLength:   snap.AvgProofLength,
		MethodHistogram:  snap.MethodHistogram,
	}
	if err := db.Dump(ctx, s.Vocab, s.KB, stats); err != nil {
		return err
	}
	s.log.Info("session dumped", zap.String("path", path), zap.Int("facts", s.KB.Len()))
	return nil
}

// Close releases the session. State is in-memory only, so this just
// flushes the logger.
func (s *Session) Close() error {
	return s.log.Sync()
}
