package core

import (
	"fmt"
	"strings"
)

// Format renders the bundle as a prompt-ready context block. The memory
// engine itself never calls this: bundles cross the API boundary as plain
// structs, and callers that want different framing can ignore this helper.
func (b *PersonalizationBundle) Format() string {
	if b.Empty() {
		return "New user - no history yet."
	}

	var parts []string

	if len(b.RecentReflections) > 0 {
		lines := make([]string, 0, len(b.RecentReflections))
		for _, insight := range b.RecentReflections {
			lines = append(lines, "- "+insight)
		}
		parts = append(parts, "## Key insights from past sessions:\n"+strings.Join(lines, "\n"))
	}

	if len(b.SimilarSuccesses) > 0 {
		lines := make([]string, 0, len(b.SimilarSuccesses))
		for _, s := range b.SimilarSuccesses {
			lines = append(lines, fmt.Sprintf("- %q worked when: %s (similarity %.2f)",
				s.InterventionText, s.ContextText, s.Similarity))
		}
		parts = append(parts, "## What works for this user:\n"+strings.Join(lines, "\n"))
	}

	if b.InterventionCount > 0 {
		parts = append(parts, fmt.Sprintf("## Memory status:\n- %d past interventions stored", b.InterventionCount))
	}

	return strings.Join(parts, "\n\n")
}
