package memory

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/neurobloom/recall-go-sdk/core"
)

// Synthesizer distills one reflection per session close. It makes exactly one
// generation call per session; a generation failure skips the reflection
// rather than retrying into a half-closed session.
type Synthesizer struct {
	store     Store
	generator TextGenerator
	cfg       *Config
}

// NewSynthesizer creates a synthesizer over the given store and generator.
func NewSynthesizer(store Store, generator TextGenerator, cfg *Config) *Synthesizer {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	return &Synthesizer{store: store, generator: generator, cfg: cfg}
}

// Synthesize generates and stores a reflection for the session transcript.
// Returns the stored reflection, or (nil, nil) when the session was too short
// to produce a useful insight.
func (s *Synthesizer) Synthesize(ctx context.Context, userID string, transcript core.Transcript) (*core.Reflection, error) {
	if err := core.ValidateUserID(userID); err != nil {
		return nil, err
	}
	if len(transcript) < s.cfg.MinTranscriptTurns {
		log.Printf("[REFLECT] skipping %s: session too short (%d turns)", userID, len(transcript))
		return nil, nil
	}

	prior, err := s.store.RecentReflections(ctx, userID, s.cfg.MaxReflections)
	if err != nil {
		// Prior insights only steer the prompt away from repetition; synthesis
		// proceeds without them.
		log.Printf("[REFLECT] prior reflections unavailable for %s: %v", userID, err)
		prior = nil
	}

	prompt := s.buildPrompt(transcript.Last(s.cfg.TranscriptTurns), prior)

	insight, err := s.generator.Generate(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGeneration, err)
	}
	insight = strings.TrimSpace(insight)
	if insight == "" {
		log.Printf("[REFLECT] empty insight for %s, skipping", userID)
		return nil, nil
	}

	r := &core.Reflection{
		ID:             uuid.NewString(),
		UserID:         userID,
		InsightText:    insight,
		SessionSummary: truncateRunes(transcript.Render(), s.cfg.SummaryMaxChars),
		CreatedAt:      time.Now(),
		TTL:            s.cfg.ReflectionTTL,
	}
	if _, err := s.store.PutReflection(ctx, r); err != nil {
		return nil, err
	}

	log.Printf("[REFLECT] stored insight for %s: %s", userID, truncateRunes(insight, 80))
	return r, nil
}

func (s *Synthesizer) buildPrompt(transcript core.Transcript, prior []core.Reflection) string {
	var b strings.Builder
	b.WriteString("You are reviewing a coaching session to extract ONE actionable insight ")
	b.WriteString("about what helps this specific user stay focused and make progress.\n\n")

	if len(prior) > 0 {
		b.WriteString("Insights already known (do not repeat these):\n")
		for _, r := range prior {
			b.WriteString("- ")
			b.WriteString(r.InsightText)
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	b.WriteString("Session transcript:\n")
	b.WriteString(transcript.Render())
	b.WriteString("\n\nRespond with a single concise insight (one or two sentences). ")
	b.WriteString("Focus on what worked or failed for this user, not a session summary.")
	return b.String()
}

// truncateRunes caps s at max runes, never splitting a multi-byte character.
func truncateRunes(s string, max int) string {
	if max <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
