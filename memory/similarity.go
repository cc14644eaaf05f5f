package memory

import "math"

// CosineSimilarity returns dot(a,b) / (|a|*|b|) as a float64.
//
// Callers are not required to pre-normalize: normalization happens here, at
// query time, not at write time. Historical vectors therefore remain
// comparable even if the embedding model's output scale changes across
// versions (the scores shift, but nothing stored is silently rewritten).
//
// Returns 0 when either vector is zero-length, all-zero, or the lengths
// differ; dimension mismatches are rejected at the write boundary, so a
// mismatch here means the query vector came from a different model.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		av := float64(a[i])
		bv := float64(b[i])
		dot += av * bv
		normA += av * av
		normB += bv * bv
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
