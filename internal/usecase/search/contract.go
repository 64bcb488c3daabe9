package search

import (
	"context"

	"github.com/iamjaehaklee/qdrant-api-backend/internal/domain"
	domsearch "github.com/iamjaehaklee/qdrant-api-backend/internal/domain/search"
	"github.com/iamjaehaklee/qdrant-api-backend/internal/domain/sparse"
)

// Repository defines the vector index contract for search operations.
type Repository interface {
	QueryDense(
		ctx context.Context, collection string,
		vector []float32, filter domsearch.Filter,
		limit int, scoreThreshold *float64,
	) ([]domsearch.Result, error)

	QuerySparse(
		ctx context.Context, collection string,
		vector sparse.Vector, filter domsearch.Filter,
		limit int, scoreThreshold *float64,
	) ([]domsearch.Result, error)

	ScrollMatchText(
		ctx context.Context, collection string,
		queryText string, filter domsearch.Filter, limit int,
	) ([]domsearch.Result, error)

	Recommend(
		ctx context.Context, collection string,
		positive, negative []string, strategy domsearch.RecommendStrategy,
		filter domsearch.Filter, limit int, scoreThreshold *float64,
	) ([]domsearch.Result, error)

	Discover(
		ctx context.Context, collection string,
		target []float32, pairs []domsearch.ContextPair,
		filter domsearch.Filter, limit int,
	) ([]domsearch.Result, error)

	Scroll(
		ctx context.Context, collection string,
		filter domsearch.Filter, limit int, offset string,
	) (domsearch.Page, error)
}

// Embedder vectorizes query text into a dense embedding.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}

// SparseEmbedder vectorizes query text into a sparse vector.
type SparseEmbedder interface {
	BuildSparseVector(text string) sparse.Vector
}
