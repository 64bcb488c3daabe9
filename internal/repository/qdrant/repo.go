// Package qdrant implements the vector index repositories over the Qdrant
// gRPC client: named dense + sparse vector queries, full-text match,
// recommendation, discovery, scroll pagination, and point persistence.
package qdrant

import (
	"context"
	"fmt"

	"github.com/qdrant/go-client/qdrant"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/iamjaehaklee/qdrant-api-backend/internal/domain"
	domchunk "github.com/iamjaehaklee/qdrant-api-backend/internal/domain/chunk"
	domsearch "github.com/iamjaehaklee/qdrant-api-backend/internal/domain/search"
	"github.com/iamjaehaklee/qdrant-api-backend/internal/domain/sparse"
)

// Config holds connection settings for the index.
type Config struct {
	Host   string
	Port   int
	APIKey string
	UseTLS bool
}

// NewClient connects to the index over gRPC.
func NewClient(cfg Config) (*qdrant.Client, error) {
	client, err := qdrant.NewClient(&qdrant.Config{
		Host:   cfg.Host,
		Port:   cfg.Port,
		APIKey: cfg.APIKey,
		UseTLS: cfg.UseTLS,
	})
	if err != nil {
		return nil, fmt.Errorf("connect qdrant %s:%d: %w", cfg.Host, cfg.Port, err)
	}
	return client, nil
}

// Repo implements usecase/search.Repository, usecase/chunk.Repository and
// usecase/health.IndexPinger.
type Repo struct {
	client     *qdrant.Client
	denseName  string
	sparseName string
}

// New creates a repository over an established client. denseName and
// sparseName are the named vectors configured on the collections.
func New(client *qdrant.Client, denseName, sparseName string) *Repo {
	return &Repo{client: client, denseName: denseName, sparseName: sparseName}
}

// wrapErr maps gRPC transport failures onto domain sentinels.
func wrapErr(op string, err error) error {
	switch status.Code(err) {
	case codes.Unavailable, codes.DeadlineExceeded:
		return fmt.Errorf("%s: %w: %w", op, domain.ErrIndexUnavailable, err)
	case codes.NotFound:
		return fmt.Errorf("%s: %w: %w", op, domain.ErrCollectionNotFound, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}

func thresholdPtr(t *float64) *float32 {
	if t == nil {
		return nil
	}
	return qdrant.PtrOf(float32(*t))
}

// QueryDense runs similarity search over the named dense vector.
func (r *Repo) QueryDense(
	ctx context.Context, collection string,
	vector []float32, filter domsearch.Filter,
	limit int, scoreThreshold *float64,
) ([]domsearch.Result, error) {
	points, err := r.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: collection,
		Query:          qdrant.NewQuery(vector...),
		Using:          qdrant.PtrOf(r.denseName),
		Filter:         buildFilter(filter),
		Limit:          qdrant.PtrOf(uint64(limit)),
		ScoreThreshold: thresholdPtr(scoreThreshold),
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, wrapErr("query dense", err)
	}
	return scoredToResults(points)
}

// QuerySparse runs similarity search over the named sparse vector.
func (r *Repo) QuerySparse(
	ctx context.Context, collection string,
	vector sparse.Vector, filter domsearch.Filter,
	limit int, scoreThreshold *float64,
) ([]domsearch.Result, error) {
	points, err := r.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: collection,
		Query:          qdrant.NewQuerySparse(vector.Indices, vector.Values),
		Using:          qdrant.PtrOf(r.sparseName),
		Filter:         buildFilter(filter),
		Limit:          qdrant.PtrOf(uint64(limit)),
		ScoreThreshold: thresholdPtr(scoreThreshold),
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, wrapErr("query sparse", err)
	}
	return scoredToResults(points)
}

// ScrollMatchText scrolls points whose paragraph texts contain the query via
// the full-text index. No vectorization and no scores.
func (r *Repo) ScrollMatchText(
	ctx context.Context, collection string,
	queryText string, filter domsearch.Filter, limit int,
) ([]domsearch.Result, error) {
	resp, err := r.client.GetPointsClient().Scroll(ctx, &qdrant.ScrollPoints{
		CollectionName: collection,
		Filter:         matchTextFilter(filter, queryText),
		Limit:          qdrant.PtrOf(uint32(limit)),
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, wrapErr("scroll matchtext", err)
	}
	return retrievedToResults(resp.GetResult())
}

// Recommend searches by stored example points over the dense vector.
func (r *Repo) Recommend(
	ctx context.Context, collection string,
	positive, negative []string, strategy domsearch.RecommendStrategy,
	filter domsearch.Filter, limit int, scoreThreshold *float64,
) ([]domsearch.Result, error) {
	qdrantStrategy := qdrant.RecommendStrategy_AverageVector
	if strategy == domsearch.StrategyBestScore {
		qdrantStrategy = qdrant.RecommendStrategy_BestScore
	}

	points, err := r.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: collection,
		Query: qdrant.NewQueryRecommend(&qdrant.RecommendInput{
			Positive: idsToVectorInputs(positive),
			Negative: idsToVectorInputs(negative),
			Strategy: &qdrantStrategy,
		}),
		Using:          qdrant.PtrOf(r.denseName),
		Filter:         buildFilter(filter),
		Limit:          qdrant.PtrOf(uint64(limit)),
		ScoreThreshold: thresholdPtr(scoreThreshold),
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, wrapErr("recommend", err)
	}
	return scoredToResults(points)
}

// Discover explores the dense vector space around the target embedding,
// steered by positive/negative context pairs.
func (r *Repo) Discover(
	ctx context.Context, collection string,
	target []float32, pairs []domsearch.ContextPair,
	filter domsearch.Filter, limit int,
) ([]domsearch.Result, error) {
	contextPairs := make([]*qdrant.ContextInputPair, len(pairs))
	for i, p := range pairs {
		contextPairs[i] = &qdrant.ContextInputPair{
			Positive: qdrant.NewVectorInputID(qdrant.NewID(p.PositiveID)),
			Negative: qdrant.NewVectorInputID(qdrant.NewID(p.NegativeID)),
		}
	}

	points, err := r.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: collection,
		Query: qdrant.NewQueryDiscover(&qdrant.DiscoverInput{
			Target:  qdrant.NewVectorInput(target...),
			Context: &qdrant.ContextInput{Pairs: contextPairs},
		}),
		Using:       qdrant.PtrOf(r.denseName),
		Filter:      buildFilter(filter),
		Limit:       qdrant.PtrOf(uint64(limit)),
		WithPayload: qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, wrapErr("discover", err)
	}
	return scoredToResults(points)
}

// Scroll pages through points matching the filter. The raw points client is
// used because the high-level Scroll drops the next-page offset.
func (r *Repo) Scroll(
	ctx context.Context, collection string,
	filter domsearch.Filter, limit int, offset string,
) (domsearch.Page, error) {
	req := &qdrant.ScrollPoints{
		CollectionName: collection,
		Filter:         buildFilter(filter),
		Limit:          qdrant.PtrOf(uint32(limit)),
		WithPayload:    qdrant.NewWithPayload(true),
	}
	if offset != "" {
		req.Offset = qdrant.NewID(offset)
	}

	resp, err := r.client.GetPointsClient().Scroll(ctx, req)
	if err != nil {
		return domsearch.Page{}, wrapErr("scroll", err)
	}

	results, err := retrievedToResults(resp.GetResult())
	if err != nil {
		return domsearch.Page{}, err
	}
	return domsearch.Page{
		Results:    results,
		NextOffset: resp.GetNextPageOffset().GetUuid(),
	}, nil
}

// Upsert writes one point with both named vectors and its payload.
func (r *Repo) Upsert(
	ctx context.Context, collection string, id string,
	dense []float32, sp sparse.Vector, payload domchunk.Payload,
) error {
	return r.BatchUpsert(ctx, collection, []domchunk.Point{
		{ID: id, Dense: dense, Sparse: sp, Payload: payload},
	})
}

// BatchUpsert writes multiple points in one call, waiting for the write to
// be applied.
func (r *Repo) BatchUpsert(ctx context.Context, collection string, points []domchunk.Point) error {
	structs := make([]*qdrant.PointStruct, len(points))
	for i, p := range points {
		values, err := payloadToValues(p.Payload)
		if err != nil {
			return err
		}
		structs[i] = &qdrant.PointStruct{
			Id: qdrant.NewID(p.ID),
			Vectors: qdrant.NewVectorsMap(map[string]*qdrant.Vector{
				r.denseName:  qdrant.NewVector(p.Dense...),
				r.sparseName: qdrant.NewVectorSparse(p.Sparse.Indices, p.Sparse.Values),
			}),
			Payload: values,
		}
	}

	_, err := r.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: collection,
		Points:         structs,
		Wait:           qdrant.PtrOf(true),
	})
	if err != nil {
		return wrapErr("upsert", err)
	}
	return nil
}

// Get retrieves one point by id with its payload.
func (r *Repo) Get(ctx context.Context, collection string, id string) (domchunk.Stored, error) {
	points, err := r.client.Get(ctx, &qdrant.GetPoints{
		CollectionName: collection,
		Ids:            []*qdrant.PointId{qdrant.NewID(id)},
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return domchunk.Stored{}, wrapErr("get point", err)
	}
	if len(points) == 0 {
		return domchunk.Stored{}, fmt.Errorf("get point %s: %w", id, domain.ErrPointNotFound)
	}

	payload, err := valuesToPayload(points[0].GetPayload())
	if err != nil {
		return domchunk.Stored{}, err
	}
	return domchunk.Stored{PointID: id, Payload: payload}, nil
}

// Delete removes points by id, waiting for the write to be applied.
func (r *Repo) Delete(ctx context.Context, collection string, ids []string) error {
	pointIDs := make([]*qdrant.PointId, len(ids))
	for i, id := range ids {
		pointIDs[i] = qdrant.NewID(id)
	}

	_, err := r.client.Delete(ctx, &qdrant.DeletePoints{
		CollectionName: collection,
		Points:         qdrant.NewPointsSelector(pointIDs...),
		Wait:           qdrant.PtrOf(true),
	})
	if err != nil {
		return wrapErr("delete points", err)
	}
	return nil
}

// SetPayload overwrites the payload of an existing point, leaving its
// vectors untouched.
func (r *Repo) SetPayload(ctx context.Context, collection string, id string, payload domchunk.Payload) error {
	values, err := payloadToValues(payload)
	if err != nil {
		return err
	}

	_, err = r.client.OverwritePayload(ctx, &qdrant.SetPayloadPoints{
		CollectionName: collection,
		Payload:        values,
		PointsSelector: qdrant.NewPointsSelector(qdrant.NewID(id)),
		Wait:           qdrant.PtrOf(true),
	})
	if err != nil {
		return wrapErr("set payload", err)
	}
	return nil
}

// Ping verifies index connectivity.
func (r *Repo) Ping(ctx context.Context) error {
	if _, err := r.client.HealthCheck(ctx); err != nil {
		return wrapErr("health check", err)
	}
	return nil
}

// CollectionExists reports whether the collection is present.
func (r *Repo) CollectionExists(ctx context.Context, name string) (bool, error) {
	exists, err := r.client.CollectionExists(ctx, name)
	if err != nil {
		return false, wrapErr("collection exists", err)
	}
	return exists, nil
}

func idsToVectorInputs(ids []string) []*qdrant.VectorInput {
	if len(ids) == 0 {
		return nil
	}
	inputs := make([]*qdrant.VectorInput, len(ids))
	for i, id := range ids {
		inputs[i] = qdrant.NewVectorInputID(qdrant.NewID(id))
	}
	return inputs
}
