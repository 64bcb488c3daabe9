// Package term is the language-agnostic fallback sparse vectorizer: unicode
// word tokenization with BM25-style term-frequency saturation, hashed into
// the shared sparse index space. It serves whatever text the language router
// does not send down the Korean path, including mixed-script content.
package term

import (
	"strings"
	"unicode"

	"github.com/iamjaehaklee/qdrant-api-backend/internal/domain/sparse"
)

const (
	// bm25K1 controls term-frequency saturation: tf*(k1+1)/(tf+k1).
	bm25K1 = 1.2
	// maxTerms caps the number of entries per vector.
	maxTerms = 256
)

// Vectorizer is stateless and safe for concurrent use.
type Vectorizer struct{}

// New creates a fallback vectorizer.
func New() *Vectorizer { return &Vectorizer{} }

// BuildSparseVector turns text into a sparse vector. Non-empty text with at
// least one word yields a non-empty mapping of positive weights; empty or
// whitespace-only text yields an empty vector.
func (v *Vectorizer) BuildSparseVector(text string) sparse.Vector {
	tokens := Tokenize(text)
	if len(tokens) == 0 {
		return sparse.Vector{}
	}

	termFreq := make(map[uint32]float64, len(tokens))
	for _, tok := range tokens {
		termFreq[sparse.TermIndex(tok)]++
	}

	weights := make(map[uint32]float64, len(termFreq))
	for idx, tf := range termFreq {
		weights[idx] = (tf * (bm25K1 + 1.0)) / (tf + bm25K1)
	}

	vec := sparse.FromWeights(weights)
	if vec.Len() > maxTerms {
		vec.Indices = vec.Indices[:maxTerms]
		vec.Values = vec.Values[:maxTerms]
	}
	return vec
}

// Tokenize splits text into lowercased runs of letters and digits. Works on
// any script mixture; punctuation and symbols act as separators.
func Tokenize(text string) []string {
	if text == "" {
		return nil
	}

	tokens := make([]string, 0, 16)
	var b strings.Builder
	for _, r := range text {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(unicode.ToLower(r))
			continue
		}
		if b.Len() > 0 {
			tokens = append(tokens, b.String())
			b.Reset()
		}
	}
	if b.Len() > 0 {
		tokens = append(tokens, b.String())
	}
	return tokens
}
