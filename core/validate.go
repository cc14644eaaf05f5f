package core

import (
	"fmt"
	"math"
	"strings"
)

// Caps applied at the write boundary. These bound what a single record can
// hold; they are not tunable per deployment because stores key on them for
// predictable document sizes.
const (
	MaxInterventionTextLen = 1000
	MaxContextTextLen      = 2000
	MaxUserIDLen           = 100
)

// ValidationError describes a malformed input rejected synchronously at a
// write boundary. Nothing is partially written when one is returned.
type ValidationError struct {
	// Field names the offending field, e.g. "embedding" or "user_id".
	Field string

	// Reason is a human-readable description of the problem.
	Reason string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("core: validation failed on %s: %s", e.Field, e.Reason)
}

// ValidateUserID rejects empty, oversized, or store-key-hostile user IDs.
func ValidateUserID(userID string) error {
	if strings.TrimSpace(userID) == "" {
		return &ValidationError{Field: "user_id", Reason: "must not be empty"}
	}
	if len(userID) > MaxUserIDLen {
		return &ValidationError{Field: "user_id", Reason: fmt.Sprintf("too long: %d chars (max %d)", len(userID), MaxUserIDLen)}
	}
	// These characters break key patterns in prefix-scanned backends.
	if strings.ContainsAny(userID, "*?[]: \n\r\t") {
		return &ValidationError{Field: "user_id", Reason: "contains reserved key characters"}
	}
	return nil
}

// ValidateEmbedding rejects vectors whose length differs from the deployment
// dimension, and vectors containing NaN or Inf values. Mismatched vectors are
// never padded or truncated.
func ValidateEmbedding(embedding []float32, dimensions int) error {
	if len(embedding) == 0 {
		return &ValidationError{Field: "embedding", Reason: "must not be empty"}
	}
	if len(embedding) != dimensions {
		return &ValidationError{
			Field:  "embedding",
			Reason: fmt.Sprintf("dimension mismatch: got %d, want %d", len(embedding), dimensions),
		}
	}
	for i, v := range embedding {
		f := float64(v)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return &ValidationError{
				Field:  "embedding",
				Reason: fmt.Sprintf("value at index %d is NaN or Inf", i),
			}
		}
	}
	return nil
}

// ValidateIntervention checks a full intervention record against the write
// invariants: valid user ID, known outcome, fixed embedding dimension, and
// text caps.
func ValidateIntervention(iv *Intervention, dimensions int) error {
	if err := ValidateUserID(iv.UserID); err != nil {
		return err
	}
	if strings.TrimSpace(iv.InterventionText) == "" {
		return &ValidationError{Field: "intervention_text", Reason: "must not be empty"}
	}
	if len(iv.InterventionText) > MaxInterventionTextLen {
		return &ValidationError{
			Field:  "intervention_text",
			Reason: fmt.Sprintf("too long: %d chars (max %d)", len(iv.InterventionText), MaxInterventionTextLen),
		}
	}
	if len(iv.ContextText) > MaxContextTextLen {
		return &ValidationError{
			Field:  "context_text",
			Reason: fmt.Sprintf("too long: %d chars (max %d)", len(iv.ContextText), MaxContextTextLen),
		}
	}
	if !iv.Outcome.IsValid() {
		return &ValidationError{Field: "outcome", Reason: fmt.Sprintf("unknown outcome %q", iv.Outcome)}
	}
	if iv.TTL <= 0 {
		return &ValidationError{Field: "ttl", Reason: "must be positive"}
	}
	return ValidateEmbedding(iv.Embedding, dimensions)
}

// ValidateReflection checks a reflection record against the write invariants.
func ValidateReflection(r *Reflection) error {
	if err := ValidateUserID(r.UserID); err != nil {
		return err
	}
	if strings.TrimSpace(r.InsightText) == "" {
		return &ValidationError{Field: "insight_text", Reason: "must not be empty"}
	}
	if r.TTL <= 0 {
		return &ValidationError{Field: "ttl", Reason: "must be positive"}
	}
	return nil
}
