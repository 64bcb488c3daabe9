package domain

import "errors"

var (
	// ErrPointNotFound signals a missing point in the collection.
	ErrPointNotFound = errors.New("point not found")
	// ErrCollectionNotFound signals a missing Qdrant collection.
	ErrCollectionNotFound = errors.New("collection not found")
	// ErrInvalidRequest signals a request that fails validation.
	ErrInvalidRequest = errors.New("invalid request")
	// ErrEmbeddingProviderError signals an embedding provider failure.
	ErrEmbeddingProviderError = errors.New("embedding provider error")
	// ErrIndexUnavailable signals that the vector index cannot be reached.
	ErrIndexUnavailable = errors.New("vector index unavailable")
)
