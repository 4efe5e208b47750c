// Package store is a one-way diagnostic exporter: Dump writes a
// snapshot of a session's vocabulary, facts, and rules into a SQLite
// file for offline inspection.
//
// Nothing in learn, query, or prove ever reads this database back --
// Dump is call-and-forget, strictly outside the reasoning hot path.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"hdcmind/assets"
	"hdcmind/internal/knowledge"
	"hdcmind/internal/vocabulary"
)

// DB wraps a SQLite connection holding one session's diagnostic dump.
type DB struct {
	*sql.DB
	path string
}

// Open creates or reopens the dump database at path, applying the
// embedded schema.
func Open(path string) (*DB, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("store: create dir: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("store: open: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	for _, pragma := range []string{
		"PRAGMA busy_timeout = 5000",
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("store: pragma %q: %w", pragma, err)
		}
	}

	schema, err := assets.SchemaFS.ReadFile("schema/session.sql")
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("store: read schema: %w", err)
	}
	if _, err := db.Exec(string(schema)); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: exec schema: %w", err)
	}

	return &DB{DB: db, path: path}, nil
}

// Path returns the dump file's path.
func (d *DB) Path() string { return d.path }

// Stats is the reasoning-counters snapshot recorded alongside a dump.
// It mirrors the Session's counters without importing the session
// package (session owns the store, not the other way around).
type Stats struct {
	Queries          int
	Proofs           int
	KBScans          int
	SimilarityChecks int
	RuleAttempts     int
	TransitiveSteps  int
	DeepestProof     int
	AvgProofLength   float64
	MethodHistogram  map[string]int
}

// Dump truncates and rewrites every table from vocab and kb's current
// state inside one transaction, so a reader always sees a
// self-consistent snapshot rather than a partial one. The stats
// counters land in the snapshots row alongside the table sizes.
func (d *DB) Dump(ctx context.Context, vocab *vocabulary.Vocabulary, kb *knowledge.KB, stats Stats) error {
	tx, err := d.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("store: begin: %w", err)
	}
	defer tx.Rollback()

	for _, stmt := range []string{"DELETE FROM atoms", "DELETE FROM facts", "DELETE FROM rules"} {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("store: %s: %w", stmt, err)
		}
	}

	for _, e := range vocab.Entries() {
		if _, err := tx.ExecContext(ctx, "INSERT INTO atoms (name) VALUES (?)", e.Name); err != nil {
			return fmt.Errorf("store: insert atom %s: %w", e.Name, err)
		}
	}

	for i, f := range kb.Facts {
		args := strings.Join(f.Metadata.Args, ",")
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO facts (position, operator, args, name) VALUES (?, ?, ?, ?)",
			i, f.Metadata.Operator, args, f.Name,
		); err != nil {
			return fmt.Errorf("store: insert fact %d: %w", i, err)
		}
	}

	for _, r := range kb.Rules {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO rules (idx, name, source_text, has_variables) VALUES (?, ?, ?, ?)",
			r.Index, r.Name, r.SourceText, r.HasVariables,
		); err != nil {
			return fmt.Errorf("store: insert rule %s: %w", r.Name, err)
		}
	}

	if stats.MethodHistogram == nil {
		stats.MethodHistogram = map[string]int{}
	}
	histogram, err := json.Marshal(stats.MethodHistogram)
	if err != nil {
		return fmt.Errorf("store: marshal histogram: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO snapshots (
			taken_at, fact_count, rule_count, atom_count,
			queries, proofs, kb_scans, similarity_checks,
			rule_attempts, transitive_steps, deepest_proof,
			avg_proof_length, method_histogram
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		time.Now().UTC().Format(time.RFC3339), len(kb.Facts), len(kb.Rules), vocab.Len(),
		stats.Queries, stats.Proofs, stats.KBScans, stats.SimilarityChecks,
		stats.RuleAttempts, stats.TransitiveSteps, stats.DeepestProof,
		stats.AvgProofLength, string(histogram),
	); err != nil {
		return fmt.Errorf("store: insert snapshot: %w", err)
	}

	return tx.Commit()
}
