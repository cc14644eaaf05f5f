//go:build onnx

// Package onnx embeds text locally with ONNX Runtime and a BERT WordPiece
// tokenizer. Built for all-MiniLM-L6-v2 (384 dimensions) but works with any
// BERT-style sentence encoder exporting last_hidden_state.
//
// Guarded by the onnx build tag because it needs the onnxruntime shared
// library installed on the host.
package onnx

import (
	"context"
	"fmt"
	"math"
	"os"

	ort "github.com/yalue/onnxruntime_go"
)

const maxSeqLen = 128

// Config configures the ONNX embedder.
type Config struct {
	// ModelPath is the path to the ONNX model file.
	ModelPath string

	// TokenizerPath is the path to the tokenizer.json file.
	TokenizerPath string

	// LibraryPath is the path to libonnxruntime.so. Falls back to the
	// ONNXRUNTIME_LIB environment variable when empty.
	LibraryPath string

	// Dimensions is the embedding vector size. Default 384.
	Dimensions int
}

// Embedder generates embeddings with ONNX Runtime.
type Embedder struct {
	session    *ort.DynamicAdvancedSession
	tokenizer  *bertTokenizer
	dimensions int
}

// New initializes the runtime, loads the tokenizer, and opens a session.
func New(cfg Config) (*Embedder, error) {
	if cfg.ModelPath == "" {
		return nil, fmt.Errorf("onnx: ModelPath is required")
	}
	if cfg.Dimensions == 0 {
		cfg.Dimensions = 384
	}
	if cfg.LibraryPath == "" {
		cfg.LibraryPath = os.Getenv("ONNXRUNTIME_LIB")
	}
	if cfg.LibraryPath != "" {
		ort.SetSharedLibraryPath(cfg.LibraryPath)
	}
	if err := ort.InitializeEnvironment(); err != nil {
		return nil, fmt.Errorf("onnx: failed to initialize runtime: %w", err)
	}

	tokenizer, err := loadTokenizer(cfg.TokenizerPath)
	if err != nil {
		return nil, fmt.Errorf("onnx: failed to load tokenizer: %w", err)
	}

	session, err := ort.NewDynamicAdvancedSession(cfg.ModelPath,
		[]string{"input_ids", "attention_mask", "token_type_ids"},
		[]string{"last_hidden_state"},
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("onnx: failed to create session: %w", err)
	}

	return &Embedder{
		session:    session,
		tokenizer:  tokenizer,
		dimensions: cfg.Dimensions,
	}, nil
}

// Embed tokenizes the text, runs inference, mean-pools over attended tokens,
// and returns the normalized vector.
func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	tokens := e.tokenizer.tokenize(text)

	inputIDs := make([]int64, maxSeqLen)
	attentionMask := make([]int64, maxSeqLen)
	tokenTypeIDs := make([]int64, maxSeqLen)

	inputIDs[0] = int64(e.tokenizer.clsToken)
	attentionMask[0] = 1

	tokenLen := len(tokens)
	if tokenLen > maxSeqLen-2 {
		tokenLen = maxSeqLen - 2
	}
	for i := 0; i < tokenLen; i++ {
		inputIDs[i+1] = tokens[i]
		attentionMask[i+1] = 1
	}
	inputIDs[tokenLen+1] = int64(e.tokenizer.sepToken)
	attentionMask[tokenLen+1] = 1

	shape := ort.NewShape(1, int64(maxSeqLen))
	inputIDsTensor, err := ort.NewTensor(shape, inputIDs)
	if err != nil {
		return nil, fmt.Errorf("onnx: failed to create input_ids tensor: %w", err)
	}
	defer inputIDsTensor.Destroy()

	attentionMaskTensor, err := ort.NewTensor(shape, attentionMask)
	if err != nil {
		return nil, fmt.Errorf("onnx: failed to create attention_mask tensor: %w", err)
	}
	defer attentionMaskTensor.Destroy()

	tokenTypeIDsTensor, err := ort.NewTensor(shape, tokenTypeIDs)
	if err != nil {
		return nil, fmt.Errorf("onnx: failed to create token_type_ids tensor: %w", err)
	}
	defer tokenTypeIDsTensor.Destroy()

	outputs := []ort.Value{nil}
	if err := e.session.Run([]ort.Value{inputIDsTensor, attentionMaskTensor, tokenTypeIDsTensor}, outputs); err != nil {
		return nil, fmt.Errorf("onnx: inference failed: %w", err)
	}
	defer func() {
		for _, out := range outputs {
			if out != nil {
				out.Destroy()
			}
		}
	}()

	if len(outputs) == 0 || outputs[0] == nil {
		return nil, fmt.Errorf("onnx: no output tensors returned")
	}
	tensor, ok := outputs[0].(*ort.Tensor[float32])
	if !ok {
		return nil, fmt.Errorf("onnx: unexpected output tensor type")
	}

	embedding, err := e.pool(tensor, attentionMask)
	if err != nil {
		return nil, err
	}
	return normalize(embedding), nil
}

// pool reduces the model output to a single vector: already-pooled [1, D]
// outputs are copied, [1, seq, D] outputs are mean-pooled over attended
// tokens.
func (e *Embedder) pool(tensor *ort.Tensor[float32], attentionMask []int64) ([]float32, error) {
	data := tensor.GetData()
	shape := tensor.GetShape()

	switch len(shape) {
	case 2:
		if len(data) < e.dimensions {
			return nil, fmt.Errorf("onnx: output dimension mismatch: got %d, want %d", len(data), e.dimensions)
		}
		embedding := make([]float32, e.dimensions)
		copy(embedding, data[:e.dimensions])
		return embedding, nil

	case 3:
		seqLen := int(shape[1])
		hiddenSize := int(shape[2])
		if shape[0] != 1 {
			return nil, fmt.Errorf("onnx: expected batch size 1, got %d", shape[0])
		}
		if hiddenSize != e.dimensions {
			return nil, fmt.Errorf("onnx: hidden size mismatch: got %d, want %d", hiddenSize, e.dimensions)
		}

		embedding := make([]float32, e.dimensions)
		attended := float32(0)
		for i := 0; i < seqLen; i++ {
			if attentionMask[i] == 0 {
				continue
			}
			attended++
			offset := i * hiddenSize
			for j := 0; j < hiddenSize; j++ {
				embedding[j] += data[offset+j]
			}
		}
		if attended == 0 {
			return nil, fmt.Errorf("onnx: no attended tokens")
		}
		for j := range embedding {
			embedding[j] /= attended
		}
		return embedding, nil

	default:
		return nil, fmt.Errorf("onnx: unexpected output shape: %v", shape)
	}
}

// Dimensions returns the embedding vector size.
func (e *Embedder) Dimensions() int {
	return e.dimensions
}

// Close releases ONNX resources.
func (e *Embedder) Close() error {
	if e.session != nil {
		return e.session.Destroy()
	}
	return nil
}

func normalize(vec []float32) []float32 {
	var norm float32
	for _, v := range vec {
		norm += v * v
	}
	if norm == 0 {
		return vec
	}
	norm = float32(math.Sqrt(float64(norm)))
	for i := range vec {
		vec[i] /= norm
	}
	return vec
}
