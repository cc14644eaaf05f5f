package core

import (
	"fmt"
	"strings"
	"time"
)

// Turn is a single conversation turn in a session transcript.
type Turn struct {
	// Role is "user" or "assistant".
	Role string `json:"role"`

	// Content is the spoken or typed text of the turn.
	Content string `json:"content"`

	// Timestamp is when the turn occurred. Optional; zero means unknown.
	Timestamp time.Time `json:"timestamp,omitempty"`
}

// Transcript is an ordered sequence of conversation turns for one session.
type Transcript []Turn

// Last returns the trailing n turns, or the whole transcript if it is shorter.
func (t Transcript) Last(n int) Transcript {
	if n <= 0 || len(t) <= n {
		return t
	}
	return t[len(t)-n:]
}

// Render formats the transcript as ROLE: content lines for inclusion in a
// generation prompt.
func (t Transcript) Render() string {
	lines := make([]string, 0, len(t))
	for _, turn := range t {
		role := turn.Role
		if role == "" {
			role = "unknown"
		}
		lines = append(lines, fmt.Sprintf("%s: %s", strings.ToUpper(role), turn.Content))
	}
	return strings.Join(lines, "\n")
}
