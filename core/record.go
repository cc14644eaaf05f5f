package core

import (
	"time"
)

// Intervention is a recorded behavioral action and its outcome, with a
// semantic embedding for later retrieval. Interventions are immutable once
// written: there are no updates, only TTL-based invisibility and eventual
// physical removal by the retention sweep.
type Intervention struct {
	// ID uniquely identifies the record. Assigned by the caller (usually a
	// UUID generated by the manager) so detached writes can return an ID
	// before the store round-trip completes.
	ID string `json:"id"`

	// UserID namespaces the record. No operation ever reads or ranks across
	// users.
	UserID string `json:"user_id"`

	// InterventionText is what the agent said or did.
	InterventionText string `json:"intervention_text"`

	// ContextText is the user's situation or request at the time.
	ContextText string `json:"context_text"`

	// TaskLabel names the task being worked on, if any.
	TaskLabel string `json:"task_label,omitempty"`

	// Outcome records how the intervention resolved.
	Outcome Outcome `json:"outcome"`

	// Embedding is the semantic vector for the intervention. Its length must
	// equal the deployment's fixed dimension; mismatches are rejected at the
	// write boundary, never padded or truncated.
	Embedding []float32 `json:"embedding"`

	// CreatedAt is the write timestamp.
	CreatedAt time.Time `json:"created_at"`

	// TTL is the duration after which the record becomes invisible to all
	// reads, whether or not it has been physically removed yet.
	TTL time.Duration `json:"ttl"`
}

// Expired reports whether the record is logically invisible at the given time.
func (iv *Intervention) Expired(now time.Time) bool {
	return !now.Before(iv.CreatedAt.Add(iv.TTL))
}

// Reflection is a distilled insight synthesized at session end. Immutable
// once written, decayed on a longer horizon than interventions.
type Reflection struct {
	ID             string        `json:"id"`
	UserID         string        `json:"user_id"`
	InsightText    string        `json:"insight_text"`
	SessionSummary string        `json:"session_summary"`
	CreatedAt      time.Time     `json:"created_at"`
	TTL            time.Duration `json:"ttl"`
}

// Expired reports whether the reflection is logically invisible at the given
// time.
func (r *Reflection) Expired(now time.Time) bool {
	return !now.Before(r.CreatedAt.Add(r.TTL))
}

// SimilarSuccess is one ranked entry in a personalization bundle: a past
// successful intervention together with its similarity to the current query.
type SimilarSuccess struct {
	InterventionText string  `json:"intervention_text"`
	ContextText      string  `json:"context_text"`
	Similarity       float64 `json:"similarity"`
}

// PersonalizationBundle is the derived, never-persisted summary of relevant
// history handed to the session layer at session start (and opportunistically
// mid-session). It is a plain structured object: the caller decides how to
// fold it into a prompt.
type PersonalizationBundle struct {
	// RecentReflections holds up to three insight texts, most recent first.
	RecentReflections []string `json:"recent_reflections"`

	// InterventionCount is the number of non-expired interventions stored for
	// the user.
	InterventionCount int `json:"intervention_count"`

	// SimilarSuccesses holds up to three past successes ranked by similarity
	// descending. Empty unless the bundle was assembled against a current
	// message.
	SimilarSuccesses []SimilarSuccess `json:"similar_successes,omitempty"`
}

// Empty reports whether the bundle carries no history at all.
func (b *PersonalizationBundle) Empty() bool {
	return len(b.RecentReflections) == 0 && b.InterventionCount == 0 && len(b.SimilarSuccesses) == 0
}
