// Package korean builds sparse vectors for Korean text using morphological
// analysis: tokens are segmented with the mecab-ko dictionary, filtered by
// part-of-speech, weighted with sublinear term frequency, and hashed into
// the shared sparse index space.
package korean

import (
	"math"
	"strings"

	ko "github.com/ikawaha/kagome-dict-ko"
	"github.com/ikawaha/kagome/v2/tokenizer"
	"go.uber.org/zap"

	"github.com/iamjaehaklee/qdrant-api-backend/internal/domain/sparse"
)

// retainedTagPrefixes is the part-of-speech allow-list: nouns (NN*), verbs
// (VV), adjectives (VA), determiners (MM), adverbs (MAG), roots (XR).
// Particles, endings, and punctuation are discarded.
var retainedTagPrefixes = [...]string{"NN", "VV", "VA", "MM", "MAG", "XR"}

// foreignTagPrefix marks loanwords (SL); they are retained lowercased so
// English terms match regardless of case.
const foreignTagPrefix = "SL"

// Vectorizer is the Korean-path sparse vectorizer. Safe for concurrent use:
// the analyzer is read-only after construction and every call is stateless.
type Vectorizer struct {
	analyzer *tokenizer.Tokenizer
	logger   *zap.Logger
}

// New creates a Korean vectorizer. If the morphological analyzer cannot be
// constructed, the vectorizer degrades to whitespace tokenization instead of
// failing: vectorization must stay total.
func New(logger *zap.Logger) *Vectorizer {
	t, err := tokenizer.New(ko.Dict(), tokenizer.OmitBosEos())
	if err != nil {
		logger.Warn("Korean analyzer unavailable, using whitespace tokenization", zap.Error(err))
		return &Vectorizer{logger: logger}
	}
	return &Vectorizer{analyzer: t, logger: logger}
}

// Tokenize segments text into retained morpheme surface forms. Empty or
// whitespace-only text yields no tokens. Never returns an error for any
// input string.
func (v *Vectorizer) Tokenize(text string) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	if v.analyzer == nil {
		return strings.Fields(text)
	}

	morphemes := v.analyzer.Tokenize(text)
	tokens := make([]string, 0, len(morphemes))
	for _, m := range morphemes {
		if m.Class == tokenizer.DUMMY {
			continue
		}
		tag := posTag(m)
		switch {
		case hasRetainedTag(tag):
			tokens = append(tokens, m.Surface)
		case strings.HasPrefix(tag, foreignTagPrefix):
			tokens = append(tokens, strings.ToLower(m.Surface))
		}
	}
	return tokens
}

// BuildSparseVector turns text into an L2-normalized sparse vector.
// Weighting: tf -> 1+ln(tf) (sublinear scaling), divided by sqrt of the
// retained token count, then the whole weight set is normalized to unit
// Euclidean norm. Deterministic: identical text always produces an identical
// vector.
func (v *Vectorizer) BuildSparseVector(text string) sparse.Vector {
	tokens := v.Tokenize(text)
	if len(tokens) == 0 {
		return sparse.Vector{}
	}

	termFreq := make(map[string]int, len(tokens))
	for _, tok := range tokens {
		termFreq[tok]++
	}
	docLength := float64(len(tokens))

	weights := make(map[uint32]float64, len(termFreq))
	var sumSquares float64
	for term, freq := range termFreq {
		w := (1.0 + math.Log(float64(freq))) / math.Sqrt(docLength)
		weights[sparse.TermIndex(term)] = w
		sumSquares += w * w
	}

	norm := math.Sqrt(sumSquares)
	if norm > 0 {
		for idx, w := range weights {
			weights[idx] = w / norm
		}
	}

	return sparse.FromWeights(weights)
}

func posTag(m tokenizer.Token) string {
	if pos := m.POS(); len(pos) > 0 {
		return pos[0]
	}
	return ""
}

func hasRetainedTag(tag string) bool {
	for _, prefix := range retainedTagPrefixes {
		if strings.HasPrefix(tag, prefix) {
			return true
		}
	}
	return false
}
