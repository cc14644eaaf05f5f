package mock_test

import (
	"context"
	"math"
	"testing"

	"github.com/neurobloom/recall-go-sdk/memory"
	"github.com/neurobloom/recall-go-sdk/memory/embedder/mock"
)

func TestDeterministic(t *testing.T) {
	ctx := context.Background()
	e := mock.New(384)

	a, err := e.Embed(ctx, "same text")
	if err != nil {
		t.Fatal(err)
	}
	b, err := e.Embed(ctx, "same text")
	if err != nil {
		t.Fatal(err)
	}

	if sim := memory.CosineSimilarity(a, b); sim < 0.9999 {
		t.Errorf("identical texts should embed identically, similarity = %v", sim)
	}

	c, err := e.Embed(ctx, "different text")
	if err != nil {
		t.Fatal(err)
	}
	if sim := memory.CosineSimilarity(a, c); sim > 0.9 {
		t.Errorf("unrelated texts scored %v, expected well below 1.0", sim)
	}
}

func TestUnitVector(t *testing.T) {
	e := mock.New(64)
	vec, err := e.Embed(context.Background(), "normalize me")
	if err != nil {
		t.Fatal(err)
	}
	if len(vec) != 64 {
		t.Fatalf("got %d dims, want 64", len(vec))
	}

	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	if math.Abs(math.Sqrt(norm)-1.0) > 1e-5 {
		t.Errorf("norm = %v, want 1.0", math.Sqrt(norm))
	}
}

func TestInjectedError(t *testing.T) {
	e := mock.New(8)
	e.Err = context.DeadlineExceeded

	if _, err := e.Embed(context.Background(), "x"); err == nil {
		t.Fatal("expected injected error")
	}
}
