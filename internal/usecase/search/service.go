// Package search implements the retrieval modes over the vector index:
// dense, sparse, full-text match, hybrid RRF, recommendation, discovery,
// and scroll pagination.
package search

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/iamjaehaklee/qdrant-api-backend/internal/domain"
	domsearch "github.com/iamjaehaklee/qdrant-api-backend/internal/domain/search"
)

// Service handles searches against one collection.
type Service struct {
	repo       Repository
	embed      Embedder
	sparse     SparseEmbedder
	collection string
}

// New creates a search service bound to a collection.
func New(repo Repository, embed Embedder, sparse SparseEmbedder, collection string) *Service {
	return &Service{repo: repo, embed: embed, sparse: sparse, collection: collection}
}

// Dense embeds the query text and runs similarity search over the dense
// vector space.
func (s *Service) Dense(ctx context.Context, req domsearch.DenseRequest) ([]domsearch.Result, error) {
	if err := req.Normalize(); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrInvalidRequest, err)
	}

	emb, err := s.embed.Embed(ctx, req.QueryText)
	if err != nil {
		return nil, fmt.Errorf("vectorize query: %w", err)
	}

	results, err := s.repo.QueryDense(
		ctx, s.collection, emb.Embedding, req.Filter, req.Limit, req.ScoreThreshold,
	)
	if err != nil {
		return nil, fmt.Errorf("dense search: %w", err)
	}
	return results, nil
}

// Sparse vectorizes the query on the router-selected sparse path and runs
// keyword-style similarity search. An empty query vector (no retainable
// terms) yields an empty result list rather than a zero-length vector query,
// which the index rejects.
func (s *Service) Sparse(ctx context.Context, req domsearch.SparseRequest) ([]domsearch.Result, error) {
	if err := req.Normalize(); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrInvalidRequest, err)
	}

	vec := s.sparse.BuildSparseVector(req.QueryText)
	if vec.IsEmpty() {
		return []domsearch.Result{}, nil
	}

	results, err := s.repo.QuerySparse(
		ctx, s.collection, vec, req.Filter, req.Limit, req.ScoreThreshold,
	)
	if err != nil {
		return nil, fmt.Errorf("sparse search: %w", err)
	}
	return results, nil
}

// MatchText runs a full-text match without morphological analysis.
func (s *Service) MatchText(ctx context.Context, req domsearch.MatchTextRequest) ([]domsearch.Result, error) {
	if err := req.Normalize(); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrInvalidRequest, err)
	}

	results, err := s.repo.ScrollMatchText(ctx, s.collection, req.QueryText, req.Filter, req.Limit)
	if err != nil {
		return nil, fmt.Errorf("matchtext search: %w", err)
	}
	return results, nil
}

// Hybrid runs dense and sparse retrieval concurrently and fuses the two
// rankings with RRF. Both retrievals are over-fetched at twice the requested
// limit so a result missing from one list can still surface after fusion;
// the fused ranking is truncated to the limit at the end. If either
// retrieval fails the whole query fails — no single-list fallback.
func (s *Service) Hybrid(ctx context.Context, req domsearch.HybridRequest) ([]domsearch.Result, error) {
	if err := req.Normalize(); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrInvalidRequest, err)
	}

	fetchLimit := req.Limit * 2

	var denseResults, sparseResults []domsearch.Result

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		emb, err := s.embed.Embed(gctx, req.QueryText)
		if err != nil {
			return fmt.Errorf("vectorize query: %w", err)
		}
		denseResults, err = s.repo.QueryDense(
			gctx, s.collection, emb.Embedding, req.Filter, fetchLimit, req.ScoreThreshold,
		)
		if err != nil {
			return fmt.Errorf("dense search: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		vec := s.sparse.BuildSparseVector(req.QueryText)
		if vec.IsEmpty() {
			sparseResults = nil
			return nil
		}
		var err error
		sparseResults, err = s.repo.QuerySparse(
			gctx, s.collection, vec, req.Filter, fetchLimit, req.ScoreThreshold,
		)
		if err != nil {
			return fmt.Errorf("sparse search: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	fused := fuseRRF([][]domsearch.Result{denseResults, sparseResults}, req.RRFK)
	if len(fused) > req.Limit {
		fused = fused[:req.Limit]
	}
	return fused, nil
}

// Recommend searches by positive and negative example points over the dense
// vector space.
func (s *Service) Recommend(ctx context.Context, req domsearch.RecommendRequest) ([]domsearch.Result, error) {
	if err := req.Normalize(); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrInvalidRequest, err)
	}

	results, err := s.repo.Recommend(
		ctx, s.collection, req.PositiveIDs, req.NegativeIDs, req.Strategy,
		req.Filter, req.Limit, req.ScoreThreshold,
	)
	if err != nil {
		return nil, fmt.Errorf("recommend search: %w", err)
	}
	return results, nil
}

// Discover embeds the target text and explores the vector space constrained
// by the context pairs.
func (s *Service) Discover(ctx context.Context, req domsearch.DiscoverRequest) ([]domsearch.Result, error) {
	if err := req.Normalize(); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrInvalidRequest, err)
	}

	emb, err := s.embed.Embed(ctx, req.TargetText)
	if err != nil {
		return nil, fmt.Errorf("vectorize target: %w", err)
	}

	results, err := s.repo.Discover(
		ctx, s.collection, emb.Embedding, req.ContextPairs, req.Filter, req.Limit,
	)
	if err != nil {
		return nil, fmt.Errorf("discover search: %w", err)
	}
	return results, nil
}

// Scroll pages through points matching the filter.
func (s *Service) Scroll(ctx context.Context, req domsearch.ScrollRequest) (domsearch.Page, error) {
	if err := req.Normalize(); err != nil {
		return domsearch.Page{}, fmt.Errorf("%w: %w", domain.ErrInvalidRequest, err)
	}

	page, err := s.repo.Scroll(ctx, s.collection, req.Filter, req.Limit, req.Offset)
	if err != nil {
		return domsearch.Page{}, fmt.Errorf("scroll search: %w", err)
	}
	return page, nil
}
