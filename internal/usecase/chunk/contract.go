package chunk

import (
	"context"

	domchunk "github.com/iamjaehaklee/qdrant-api-backend/internal/domain/chunk"
	"github.com/iamjaehaklee/qdrant-api-backend/internal/domain/sparse"
)

// Repository defines the vector index contract for chunk persistence.
type Repository interface {
	// Upsert writes a point with both named vectors and its payload,
	// replacing any existing point with the same id.
	Upsert(
		ctx context.Context, collection string, id string,
		dense []float32, sp sparse.Vector, payload domchunk.Payload,
	) error

	// BatchUpsert writes multiple points in one call.
	BatchUpsert(ctx context.Context, collection string, points []domchunk.Point) error

	// Get retrieves a point by id with its payload.
	Get(ctx context.Context, collection string, id string) (domchunk.Stored, error)

	// Delete removes points by id.
	Delete(ctx context.Context, collection string, ids []string) error

	// SetPayload overwrites the payload of an existing point without
	// touching its vectors.
	SetPayload(ctx context.Context, collection string, id string, payload domchunk.Payload) error
}

// SparseBuilder vectorizes chunk text into sparse vectors, one at a time or
// in language-partitioned batches.
type SparseBuilder interface {
	BuildSparseVector(text string) sparse.Vector
	BatchBuild(texts []string) ([]sparse.Vector, error)
}
