//go:build onnx

package onnx

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// bertTokenizer is a minimal BERT WordPiece tokenizer backed by a HuggingFace
// tokenizer.json vocabulary. Lowercasing and punctuation stripping match the
// uncased MiniLM family.
type bertTokenizer struct {
	vocab    map[string]int
	clsToken int
	sepToken int
	unkToken int
}

func loadTokenizer(path string) (*bertTokenizer, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var file struct {
		Model struct {
			Vocab map[string]int `json:"vocab"`
		} `json:"model"`
	}
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, err
	}
	if len(file.Model.Vocab) == 0 {
		return nil, fmt.Errorf("empty vocabulary in %s", path)
	}

	return &bertTokenizer{
		vocab:    file.Model.Vocab,
		clsToken: 101, // [CLS]
		sepToken: 102, // [SEP]
		unkToken: 100, // [UNK]
	}, nil
}

// tokenize converts text to token IDs, falling back to WordPiece subwords for
// out-of-vocabulary words.
func (t *bertTokenizer) tokenize(text string) []int64 {
	words := strings.Fields(strings.ToLower(text))

	var tokens []int64
	for _, word := range words {
		word = strings.Trim(word, ".,!?;:\"'")
		if word == "" {
			continue
		}
		if id, ok := t.vocab[word]; ok {
			tokens = append(tokens, int64(id))
			continue
		}
		for _, sub := range t.wordPiece(word) {
			if id, ok := t.vocab[sub]; ok {
				tokens = append(tokens, int64(id))
			} else {
				tokens = append(tokens, int64(t.unkToken))
			}
		}
	}
	return tokens
}

// wordPiece splits a word into the longest matching vocabulary prefixes,
// marking continuations with the ## prefix.
func (t *bertTokenizer) wordPiece(word string) []string {
	var subwords []string
	start := 0
	for start < len(word) {
		end := len(word)
		found := false
		for end > start {
			sub := word[start:end]
			if start > 0 {
				sub = "##" + sub
			}
			if _, ok := t.vocab[sub]; ok {
				subwords = append(subwords, sub)
				start = end
				found = true
				break
			}
			end--
		}
		if !found {
			subwords = append(subwords, "[UNK]")
			start++
		}
	}
	return subwords
}
