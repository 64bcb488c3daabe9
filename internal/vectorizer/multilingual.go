// Package vectorizer routes text between the Korean morphological sparse
// path and the language-agnostic fallback path, and orchestrates batch
// vectorization across both.
package vectorizer

import (
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/iamjaehaklee/qdrant-api-backend/internal/domain/sparse"
	"github.com/iamjaehaklee/qdrant-api-backend/internal/metrics"
)

// SparseVectorizer turns one text into a sparse vector. Implementations must
// be total (no errors, no panics for any string) and deterministic.
type SparseVectorizer interface {
	BuildSparseVector(text string) sparse.Vector
}

// Path labels for metrics and logs.
const (
	PathKorean   = "korean"
	PathFallback = "fallback"
)

// Multilingual dispatches per text between the two sparse paths. Callers are
// oblivious to which path ran. Vectorization is pure CPU-bound work, so
// batches run on a bounded worker pool instead of request goroutines.
type Multilingual struct {
	korean   SparseVectorizer
	fallback SparseVectorizer
	pool     *ants.Pool
	logger   *zap.Logger
}

// NewMultilingual creates the dual-path vectorizer with a bounded worker
// pool. workers <= 0 sizes the pool at min(32, 2x CPU cores).
func NewMultilingual(korean, fallback SparseVectorizer, workers int, logger *zap.Logger) (*Multilingual, error) {
	if workers <= 0 {
		workers = defaultWorkers()
	}
	pool, err := ants.NewPool(workers)
	if err != nil {
		return nil, fmt.Errorf("create vectorizer pool: %w", err)
	}

	logger.Info("Sparse vectorizer ready", zap.Int("workers", workers))

	return &Multilingual{
		korean:   korean,
		fallback: fallback,
		pool:     pool,
		logger:   logger,
	}, nil
}

// Close releases the worker pool.
func (m *Multilingual) Close() {
	m.pool.Release()
}

// BuildSparseVector vectorizes a single text on the chosen path.
func (m *Multilingual) BuildSparseVector(text string) sparse.Vector {
	if IsKorean(text) {
		return m.build(m.korean, PathKorean, text)
	}
	return m.build(m.fallback, PathFallback, text)
}

// BatchBuild vectorizes texts preserving input order: result[i] always
// corresponds to texts[i]. Texts are partitioned by the language router and
// the two groups run concurrently; a group with no texts never dispatches
// its vectorizer.
func (m *Multilingual) BatchBuild(texts []string) ([]sparse.Vector, error) {
	if len(texts) == 0 {
		return []sparse.Vector{}, nil
	}

	var koreanIdx, fallbackIdx []int
	for i, text := range texts {
		if IsKorean(text) {
			koreanIdx = append(koreanIdx, i)
		} else {
			fallbackIdx = append(fallbackIdx, i)
		}
	}

	results := make([]sparse.Vector, len(texts))

	var g errgroup.Group
	if len(koreanIdx) > 0 {
		g.Go(func() error {
			return m.runGroup(koreanIdx, texts, m.korean, PathKorean, results)
		})
	}
	if len(fallbackIdx) > 0 {
		g.Go(func() error {
			return m.runGroup(fallbackIdx, texts, m.fallback, PathFallback, results)
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return results, nil
}

// runGroup fans the group's texts out over the worker pool and waits for all
// of them. Each slot of results is written by exactly one task.
func (m *Multilingual) runGroup(
	indices []int, texts []string,
	v SparseVectorizer, path string,
	results []sparse.Vector,
) error {
	var wg sync.WaitGroup
	for _, i := range indices {
		wg.Add(1)
		err := m.pool.Submit(func() {
			defer wg.Done()
			results[i] = m.build(v, path, texts[i])
		})
		if err != nil {
			wg.Done()
			wg.Wait()
			return fmt.Errorf("submit %s vectorization: %w", path, err)
		}
	}
	wg.Wait()
	return nil
}

func (m *Multilingual) build(v SparseVectorizer, path, text string) sparse.Vector {
	start := time.Now()
	vec := v.BuildSparseVector(text)
	metrics.SparseTextsTotal.WithLabelValues(path).Inc()
	metrics.SparseBuildDuration.WithLabelValues(path).Observe(time.Since(start).Seconds())
	return vec
}

func defaultWorkers() int {
	workers := 2 * runtime.NumCPU()
	if workers > 32 {
		workers = 32
	}
	if workers < 1 {
		workers = 1
	}
	return workers
}
