package memory

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds engine configuration. Zero values fall back to the defaults;
// none of the durations or caps are hardcoded into the algorithms.
type Config struct {
	// Dimensions is the fixed embedding dimension D for this deployment.
	// Every write with a different vector length is rejected.
	// Default: 384 (all-MiniLM-L6-v2).
	Dimensions int `yaml:"dimensions"`

	// InterventionTTL is how long interventions stay visible.
	// Default: 30 days.
	InterventionTTL time.Duration `yaml:"intervention_ttl"`

	// ReflectionTTL is how long reflections stay visible.
	// Default: 90 days.
	ReflectionTTL time.Duration `yaml:"reflection_ttl"`

	// SweepInterval is how often the background sweep reclaims expired
	// records. Sweep timing never affects query results; lazy filtering on
	// the read path already guarantees correctness.
	// Default: 5 minutes.
	SweepInterval time.Duration `yaml:"sweep_interval"`

	// SimilarityThreshold is the minimum cosine similarity for a past
	// success to enter a bundle. Below-threshold results are dropped
	// entirely rather than included with low confidence.
	// Default: 0.7
	// Note: tiny local models (all-MiniLM-L6-v2) score similar text around
	// 0.35; production embedders land in the 0.7-0.85 range. Tune per
	// deployment.
	SimilarityThreshold float64 `yaml:"similarity_threshold"`

	// MaxReflections caps reflections per bundle. Default: 3.
	MaxReflections int `yaml:"max_reflections"`

	// MaxSimilar caps similar successes per bundle. Default: 3.
	MaxSimilar int `yaml:"max_similar"`

	// TranscriptTurns is how many trailing turns feed reflection synthesis.
	// Default: 20.
	TranscriptTurns int `yaml:"transcript_turns"`

	// MinTranscriptTurns is the minimum session length that produces a
	// reflection. Shorter sessions are skipped deliberately so low-signal
	// insights never pollute memory. Default: 2.
	MinTranscriptTurns int `yaml:"min_transcript_turns"`

	// SummaryMaxChars caps the stored session summary. Truncation is
	// rune-safe. Default: 500.
	SummaryMaxChars int `yaml:"summary_max_chars"`

	// ContextTimeout bounds synchronous context loading at session start; on
	// expiry the bundle degrades to empty instead of delaying the session.
	// Default: 2 seconds.
	ContextTimeout time.Duration `yaml:"context_timeout"`

	// RecordTimeout bounds each detached intervention write. Default: 10s.
	RecordTimeout time.Duration `yaml:"record_timeout"`

	// RecordGrace is how long CloseSession waits for in-flight intervention
	// writes before synthesizing from whatever is stored. Default: 5s.
	RecordGrace time.Duration `yaml:"record_grace"`
}

// DefaultConfig returns the defaults described on each field.
func DefaultConfig() *Config {
	return &Config{
		Dimensions:          384,
		InterventionTTL:     30 * 24 * time.Hour,
		ReflectionTTL:       90 * 24 * time.Hour,
		SweepInterval:       5 * time.Minute,
		SimilarityThreshold: 0.7,
		MaxReflections:      3,
		MaxSimilar:          3,
		TranscriptTurns:     20,
		MinTranscriptTurns:  2,
		SummaryMaxChars:     500,
		ContextTimeout:      2 * time.Second,
		RecordTimeout:       10 * time.Second,
		RecordGrace:         5 * time.Second,
	}
}

// LoadConfig reads a YAML config file, applying defaults for any field left
// unset.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects configurations that would break engine invariants.
func (c *Config) Validate() error {
	if c.Dimensions <= 0 {
		return fmt.Errorf("config: dimensions must be positive, got %d", c.Dimensions)
	}
	if c.InterventionTTL <= 0 || c.ReflectionTTL <= 0 {
		return fmt.Errorf("config: TTLs must be positive")
	}
	if c.SimilarityThreshold < -1 || c.SimilarityThreshold > 1 {
		return fmt.Errorf("config: similarity_threshold must be in [-1, 1], got %v", c.SimilarityThreshold)
	}
	if c.SummaryMaxChars <= 0 {
		return fmt.Errorf("config: summary_max_chars must be positive, got %d", c.SummaryMaxChars)
	}
	return nil
}

// applyDefaults fills zero-valued fields from DefaultConfig.
func (c *Config) applyDefaults() {
	def := DefaultConfig()
	if c.Dimensions == 0 {
		c.Dimensions = def.Dimensions
	}
	if c.InterventionTTL == 0 {
		c.InterventionTTL = def.InterventionTTL
	}
	if c.ReflectionTTL == 0 {
		c.ReflectionTTL = def.ReflectionTTL
	}
	if c.SweepInterval == 0 {
		c.SweepInterval = def.SweepInterval
	}
	if c.SimilarityThreshold == 0 {
		c.SimilarityThreshold = def.SimilarityThreshold
	}
	if c.MaxReflections == 0 {
		c.MaxReflections = def.MaxReflections
	}
	if c.MaxSimilar == 0 {
		c.MaxSimilar = def.MaxSimilar
	}
	if c.TranscriptTurns == 0 {
		c.TranscriptTurns = def.TranscriptTurns
	}
	if c.MinTranscriptTurns == 0 {
		c.MinTranscriptTurns = def.MinTranscriptTurns
	}
	if c.SummaryMaxChars == 0 {
		c.SummaryMaxChars = def.SummaryMaxChars
	}
	if c.ContextTimeout == 0 {
		c.ContextTimeout = def.ContextTimeout
	}
	if c.RecordTimeout == 0 {
		c.RecordTimeout = def.RecordTimeout
	}
	if c.RecordGrace == 0 {
		c.RecordGrace = def.RecordGrace
	}
}
