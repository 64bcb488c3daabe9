package health

import "context"

// IndexPinger checks vector index availability and collection presence.
type IndexPinger interface {
	Ping(ctx context.Context) error
	CollectionExists(ctx context.Context, name string) (bool, error)
}

// EmbeddingChecker checks embedding provider availability.
type EmbeddingChecker interface {
	HealthCheck(ctx context.Context) error
}
