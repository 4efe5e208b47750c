// Package config loads session configuration -- geometry, proof
// bounds, and similarity thresholds -- from YAML.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"hdcmind/internal/prove"
	"hdcmind/internal/query"
)

// Proof mirrors prove.Bounds in YAML-friendly (millisecond) form.
type Proof struct {
	MaxDepth  int `yaml:"maxDepth"`
	MaxSteps  int `yaml:"maxSteps"`
	TimeoutMS int `yaml:"timeoutMs"`
}

// Bounds converts to the prove package's native Bounds type.
func (p Proof) Bounds() prove.Bounds {
	return prove.Bounds{
		MaxDepth: p.MaxDepth,
		MaxSteps: p.MaxSteps,
		Timeout:  time.Duration(p.TimeoutMS) * time.Millisecond,
	}
}

// Query mirrors the QueryEngine's tunable thresholds.
type Query struct {
	MaxHoles             int     `yaml:"maxHoles"`
	SimilarityThreshold  float64 `yaml:"similarityThreshold"`
	AmbiguityGap         float64 `yaml:"ambiguityGap"`
}

// Config is a session's complete tunable surface.
type Config struct {
	Dimension int    `yaml:"dimension"`
	BaseDir   string `yaml:"baseDir"`
	Proof     Proof  `yaml:"proof"`
	Query     Query  `yaml:"query"`
}

// Default returns the standard configuration: D=2048, the
// ProofEngine's DefaultBounds, and the QueryEngine's package-level
// thresholds.
func Default() Config {
	b := prove.DefaultBounds()
	return Config{
		Dimension: 2048,
		BaseDir:   ".",
		Proof: Proof{
			MaxDepth:  b.MaxDepth,
			MaxSteps:  b.MaxSteps,
			TimeoutMS: int(b.Timeout / time.Millisecond),
		},
		Query: Query{
			MaxHoles:            query.MaxHoles,
			SimilarityThreshold: query.SimilarityThreshold,
			AmbiguityGap:        query.AmbiguityGap,
		},
	}
}

// Load reads and parses a YAML config file, filling in Default() for
// any field the file omits.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return cfg, nil
}
