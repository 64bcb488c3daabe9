package search

import (
	"fmt"
)

// Limits for search requests.
const (
	DefaultLimit       = 10
	MaxLimit           = 100
	DefaultScrollLimit = 100
	MaxScrollLimit     = 1000

	// DefaultRRFK is the Reciprocal Rank Fusion constant (Cormack et al. 2009).
	DefaultRRFK = 60
	// MaxRRFK bounds the fusion constant accepted from clients.
	MaxRRFK = 100
)

// Filter narrows a search to matching payload metadata. Zero values mean
// "no constraint on this field".
type Filter struct {
	ProjectID *int64
	FileID    *int64
	Language  string
	Pages     []int
}

// IsEmpty reports whether no filter condition is set.
func (f Filter) IsEmpty() bool {
	return f.ProjectID == nil && f.FileID == nil && f.Language == "" && len(f.Pages) == 0
}

// DenseRequest is a semantic similarity search over the dense vector.
type DenseRequest struct {
	QueryText      string
	Limit          int
	ScoreThreshold *float64
	Filter         Filter
}

// SparseRequest is a keyword-style search over the sparse vector.
type SparseRequest struct {
	QueryText      string
	Limit          int
	ScoreThreshold *float64
	Filter         Filter
}

// MatchTextRequest is a full-text MatchText search without morphological
// analysis.
type MatchTextRequest struct {
	QueryText string
	Limit     int
	Filter    Filter
}

// HybridRequest is a dense + sparse search fused with RRF.
type HybridRequest struct {
	QueryText      string
	Limit          int
	ScoreThreshold *float64
	RRFK           int
	Filter         Filter
}

// RecommendStrategy selects how positive/negative examples are combined.
type RecommendStrategy string

const (
	// StrategyAverageVector averages example vectors into one query vector.
	StrategyAverageVector RecommendStrategy = "average_vector"
	// StrategyBestScore scores candidates against each example separately.
	StrategyBestScore RecommendStrategy = "best_score"
)

// RecommendRequest searches by positive and negative example points.
type RecommendRequest struct {
	PositiveIDs    []string
	NegativeIDs    []string
	Limit          int
	ScoreThreshold *float64
	Strategy       RecommendStrategy
	Filter         Filter
}

// ContextPair is a positive/negative example pair for discovery search.
type ContextPair struct {
	PositiveID string
	NegativeID string
}

// DiscoverRequest explores the vector space around a target text constrained
// by context pairs.
type DiscoverRequest struct {
	TargetText   string
	ContextPairs []ContextPair
	Limit        int
	Filter       Filter
}

// ScrollRequest pages through points matching a filter.
type ScrollRequest struct {
	Limit  int
	Offset string
	Filter Filter
}

// clampLimit applies the default and upper bound for a result limit.
func clampLimit(limit, def, max int) (int, error) {
	if limit == 0 {
		return def, nil
	}
	if limit < 1 || limit > max {
		return 0, fmt.Errorf("limit must be between 1 and %d, got %d", max, limit)
	}
	return limit, nil
}

// Normalize applies defaults and validates bounds.
func (r *DenseRequest) Normalize() error {
	if r.QueryText == "" {
		return fmt.Errorf("query_text is required")
	}
	var err error
	r.Limit, err = clampLimit(r.Limit, DefaultLimit, MaxLimit)
	return err
}

// Normalize applies defaults and validates bounds.
func (r *SparseRequest) Normalize() error {
	if r.QueryText == "" {
		return fmt.Errorf("query_text is required")
	}
	var err error
	r.Limit, err = clampLimit(r.Limit, DefaultLimit, MaxLimit)
	return err
}

// Normalize applies defaults and validates bounds.
func (r *MatchTextRequest) Normalize() error {
	if r.QueryText == "" {
		return fmt.Errorf("query_text is required")
	}
	var err error
	r.Limit, err = clampLimit(r.Limit, DefaultLimit, MaxLimit)
	return err
}

// Normalize applies defaults and validates bounds.
func (r *HybridRequest) Normalize() error {
	if r.QueryText == "" {
		return fmt.Errorf("query_text is required")
	}
	var err error
	if r.Limit, err = clampLimit(r.Limit, DefaultLimit, MaxLimit); err != nil {
		return err
	}
	if r.RRFK == 0 {
		r.RRFK = DefaultRRFK
	}
	if r.RRFK < 1 || r.RRFK > MaxRRFK {
		return fmt.Errorf("rrf_k must be between 1 and %d, got %d", MaxRRFK, r.RRFK)
	}
	return nil
}

// Normalize applies defaults and validates bounds.
func (r *RecommendRequest) Normalize() error {
	if len(r.PositiveIDs) == 0 {
		return fmt.Errorf("positive_ids is required")
	}
	var err error
	if r.Limit, err = clampLimit(r.Limit, DefaultLimit, MaxLimit); err != nil {
		return err
	}
	switch r.Strategy {
	case "":
		r.Strategy = StrategyAverageVector
	case StrategyAverageVector, StrategyBestScore:
	default:
		return fmt.Errorf("unknown strategy %q", r.Strategy)
	}
	return nil
}

// Normalize applies defaults and validates bounds.
func (r *DiscoverRequest) Normalize() error {
	if r.TargetText == "" {
		return fmt.Errorf("target_text is required")
	}
	if len(r.ContextPairs) == 0 {
		return fmt.Errorf("context_pairs is required")
	}
	var err error
	r.Limit, err = clampLimit(r.Limit, DefaultLimit, MaxLimit)
	return err
}

// Normalize applies defaults and validates bounds.
func (r *ScrollRequest) Normalize() error {
	var err error
	r.Limit, err = clampLimit(r.Limit, DefaultScrollLimit, MaxScrollLimit)
	return err
}
