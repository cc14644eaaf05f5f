package core_test

import (
	"errors"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/neurobloom/recall-go-sdk/core"
)

func validIntervention() *core.Intervention {
	return &core.Intervention{
		ID:               "iv-1",
		UserID:           "user-1",
		InterventionText: "suggested a 25 minute focus block",
		ContextText:      "user was procrastinating on a report",
		Outcome:          core.OutcomeTaskCompleted,
		Embedding:        []float32{0.1, 0.2, 0.3},
		CreatedAt:        time.Now(),
		TTL:              time.Hour,
	}
}

func TestValidateUserID(t *testing.T) {
	if err := core.ValidateUserID("user-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	bad := []string{
		"",
		"   ",
		strings.Repeat("a", core.MaxUserIDLen+1),
		"user 1",
		"user:1",
		"user*",
		"user\n1",
	}
	for _, id := range bad {
		if err := core.ValidateUserID(id); err == nil {
			t.Errorf("expected error for user ID %q", id)
		}
	}
}

func TestValidateEmbedding(t *testing.T) {
	if err := core.ValidateEmbedding([]float32{1, 2, 3}, 3); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	cases := []struct {
		name string
		vec  []float32
		dims int
	}{
		{"empty", nil, 3},
		{"short", []float32{1, 2}, 3},
		{"long", []float32{1, 2, 3, 4}, 3},
		{"nan", []float32{1, float32(math.NaN()), 3}, 3},
		{"inf", []float32{1, float32(math.Inf(1)), 3}, 3},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := core.ValidateEmbedding(tc.vec, tc.dims)
			if err == nil {
				t.Fatal("expected validation error")
			}
			var verr *core.ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected *ValidationError, got %T", err)
			}
			if verr.Field != "embedding" {
				t.Errorf("expected field embedding, got %s", verr.Field)
			}
		})
	}
}

func TestValidateIntervention(t *testing.T) {
	if err := core.ValidateIntervention(validIntervention(), 3); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	mutations := []struct {
		name   string
		mutate func(*core.Intervention)
	}{
		{"empty user", func(iv *core.Intervention) { iv.UserID = "" }},
		{"empty text", func(iv *core.Intervention) { iv.InterventionText = "  " }},
		{"text too long", func(iv *core.Intervention) {
			iv.InterventionText = strings.Repeat("x", core.MaxInterventionTextLen+1)
		}},
		{"context too long", func(iv *core.Intervention) {
			iv.ContextText = strings.Repeat("x", core.MaxContextTextLen+1)
		}},
		{"bad outcome", func(iv *core.Intervention) { iv.Outcome = "finished" }},
		{"zero ttl", func(iv *core.Intervention) { iv.TTL = 0 }},
		{"wrong dimension", func(iv *core.Intervention) { iv.Embedding = []float32{1, 2} }},
	}
	for _, tc := range mutations {
		t.Run(tc.name, func(t *testing.T) {
			iv := validIntervention()
			tc.mutate(iv)
			if err := core.ValidateIntervention(iv, 3); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}

func TestValidateReflection(t *testing.T) {
	r := &core.Reflection{
		ID:          "rf-1",
		UserID:      "user-1",
		InsightText: "short focus blocks work for this user",
		CreatedAt:   time.Now(),
		TTL:         time.Hour,
	}
	if err := core.ValidateReflection(r); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	r.InsightText = ""
	if err := core.ValidateReflection(r); err == nil {
		t.Fatal("expected error for empty insight")
	}
}
