// Package chunk implements chunk lifecycle operations: create, batch create,
// read, partial update with conditional re-vectorization, and delete.
package chunk

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/iamjaehaklee/qdrant-api-backend/internal/domain"
	domchunk "github.com/iamjaehaklee/qdrant-api-backend/internal/domain/chunk"
	"github.com/iamjaehaklee/qdrant-api-backend/internal/domain/sparse"
)

// Service handles chunk persistence for one collection.
type Service struct {
	repo       Repository
	embed      domain.Embedder
	batchEmbed domain.BatchEmbedder
	sparse     SparseBuilder
	collection string
	logger     *zap.Logger
}

// New creates a chunk service bound to a collection. batchEmbed may be nil,
// in which case batch creation embeds texts one by one.
func New(
	repo Repository,
	embed domain.Embedder,
	batchEmbed domain.BatchEmbedder,
	sp SparseBuilder,
	collection string,
	logger *zap.Logger,
) *Service {
	return &Service{
		repo:       repo,
		embed:      embed,
		batchEmbed: batchEmbed,
		sparse:     sp,
		collection: collection,
		logger:     logger,
	}
}

// resolveID validates the client-supplied chunk id, or mints a fresh UUID
// when it is absent or malformed. The index only accepts UUID point ids.
func resolveID(chunkID string) string {
	if chunkID != "" {
		if _, err := uuid.Parse(chunkID); err == nil {
			return chunkID
		}
	}
	return uuid.New().String()
}

// joinTexts concatenates paragraph texts into the single chunk text that
// both vectorization paths consume.
func joinTexts(texts []string) string {
	return strings.Join(texts, "\n")
}

// sparseOrSentinel substitutes the sentinel vector when vectorization
// retained no terms. The index rejects zero-length sparse vectors, and a
// stored sentinel never matches real query terms.
func sparseOrSentinel(v sparse.Vector) sparse.Vector {
	if v.IsEmpty() {
		return sparse.Sentinel()
	}
	return v
}

// Create vectorizes and stores a single chunk, returning the stored payload.
func (s *Service) Create(ctx context.Context, req domchunk.Create) (domchunk.Stored, error) {
	if len(req.ParagraphTexts) == 0 {
		return domchunk.Stored{}, fmt.Errorf("%w: paragraph_texts is required", domain.ErrInvalidRequest)
	}

	id := resolveID(req.ChunkID)
	text := joinTexts(req.ParagraphTexts)

	emb, err := s.embed.Embed(ctx, text)
	if err != nil {
		return domchunk.Stored{}, fmt.Errorf("vectorize chunk: %w", err)
	}
	sp := sparseOrSentinel(s.sparse.BuildSparseVector(text))

	payload := domchunk.NewPayload(id, req)
	if err := s.repo.Upsert(ctx, s.collection, id, emb.Embedding, sp, payload); err != nil {
		return domchunk.Stored{}, fmt.Errorf("store chunk: %w", err)
	}

	s.logger.Info("chunk created",
		zap.String("collection", s.collection),
		zap.String("chunk_id", id),
		zap.Int("paragraphs", len(req.ParagraphTexts)))

	return domchunk.Stored{PointID: id, Payload: payload}, nil
}

// BatchCreate vectorizes and stores multiple chunks in one upsert. Dense
// embeddings are fetched in a single provider call and sparse vectors are
// built concurrently on the language-partitioned batch path.
func (s *Service) BatchCreate(ctx context.Context, reqs []domchunk.Create) ([]domchunk.Stored, error) {
	if len(reqs) == 0 {
		return nil, fmt.Errorf("%w: chunks is required", domain.ErrInvalidRequest)
	}

	texts := make([]string, len(reqs))
	for i, req := range reqs {
		if len(req.ParagraphTexts) == 0 {
			return nil, fmt.Errorf("%w: chunks[%d].paragraph_texts is required", domain.ErrInvalidRequest, i)
		}
		texts[i] = joinTexts(req.ParagraphTexts)
	}

	dense, err := s.embedBatch(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("vectorize batch: %w", err)
	}
	sparseVecs, err := s.sparse.BatchBuild(texts)
	if err != nil {
		return nil, fmt.Errorf("vectorize batch sparse: %w", err)
	}

	points := make([]domchunk.Point, len(reqs))
	stored := make([]domchunk.Stored, len(reqs))
	for i, req := range reqs {
		id := resolveID(req.ChunkID)
		payload := domchunk.NewPayload(id, req)
		points[i] = domchunk.Point{
			ID:      id,
			Dense:   dense[i],
			Sparse:  sparseOrSentinel(sparseVecs[i]),
			Payload: payload,
		}
		stored[i] = domchunk.Stored{PointID: id, Payload: payload}
	}

	if err := s.repo.BatchUpsert(ctx, s.collection, points); err != nil {
		return nil, fmt.Errorf("store batch: %w", err)
	}

	s.logger.Info("chunk batch created",
		zap.String("collection", s.collection),
		zap.Int("count", len(points)))

	return stored, nil
}

func (s *Service) embedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if s.batchEmbed != nil {
		res, err := s.batchEmbed.BatchEmbed(ctx, texts)
		if err != nil {
			return nil, err
		}
		return res.Embeddings, nil
	}
	res, err := domain.BatchFallback(ctx, s.embed, texts)
	if err != nil {
		return nil, err
	}
	return res.Embeddings, nil
}

// Get retrieves one chunk by id.
func (s *Service) Get(ctx context.Context, id string) (domchunk.Stored, error) {
	if _, err := uuid.Parse(id); err != nil {
		return domchunk.Stored{}, fmt.Errorf("%w: invalid chunk id %q", domain.ErrInvalidRequest, id)
	}
	return s.repo.Get(ctx, s.collection, id)
}

// Update applies a partial payload update. When ParagraphTexts is set the
// chunk text changed, so both vectors are regenerated and the point is
// rewritten; otherwise only the payload is replaced and the stored vectors
// stay as they are.
func (s *Service) Update(ctx context.Context, id string, upd domchunk.Update) (domchunk.Stored, error) {
	if _, err := uuid.Parse(id); err != nil {
		return domchunk.Stored{}, fmt.Errorf("%w: invalid chunk id %q", domain.ErrInvalidRequest, id)
	}

	existing, err := s.repo.Get(ctx, s.collection, id)
	if err != nil {
		return domchunk.Stored{}, err
	}

	payload := existing.Payload
	if upd.FileID != nil {
		payload.FileID = *upd.FileID
	}
	if upd.ProjectID != nil {
		payload.ProjectID = *upd.ProjectID
	}
	if upd.StorageFileName != nil {
		payload.StorageFileName = *upd.StorageFileName
	}
	if upd.OriginalFileName != nil {
		payload.OriginalFileName = *upd.OriginalFileName
	}
	if upd.ChunkContent != nil {
		payload.ChunkContent = *upd.ChunkContent
	}

	if upd.ParagraphTexts == nil {
		if err := s.repo.SetPayload(ctx, s.collection, id, payload); err != nil {
			return domchunk.Stored{}, fmt.Errorf("update payload: %w", err)
		}
		return domchunk.Stored{PointID: id, Payload: payload}, nil
	}

	payload.ParagraphTexts = upd.ParagraphTexts
	text := joinTexts(upd.ParagraphTexts)

	emb, err := s.embed.Embed(ctx, text)
	if err != nil {
		return domchunk.Stored{}, fmt.Errorf("vectorize chunk: %w", err)
	}
	sp := sparseOrSentinel(s.sparse.BuildSparseVector(text))

	if err := s.repo.Upsert(ctx, s.collection, id, emb.Embedding, sp, payload); err != nil {
		return domchunk.Stored{}, fmt.Errorf("update chunk: %w", err)
	}

	s.logger.Info("chunk re-vectorized",
		zap.String("collection", s.collection),
		zap.String("chunk_id", id))

	return domchunk.Stored{PointID: id, Payload: payload}, nil
}

// Delete removes one chunk by id.
func (s *Service) Delete(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return fmt.Errorf("%w: invalid chunk id %q", domain.ErrInvalidRequest, id)
	}
	if err := s.repo.Delete(ctx, s.collection, []string{id}); err != nil {
		return fmt.Errorf("delete chunk: %w", err)
	}
	return nil
}

// BatchDelete removes multiple chunks by id.
func (s *Service) BatchDelete(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return fmt.Errorf("%w: chunk_ids is required", domain.ErrInvalidRequest)
	}
	for _, id := range ids {
		if _, err := uuid.Parse(id); err != nil {
			return fmt.Errorf("%w: invalid chunk id %q", domain.ErrInvalidRequest, id)
		}
	}
	if err := s.repo.Delete(ctx, s.collection, ids); err != nil {
		return fmt.Errorf("delete chunks: %w", err)
	}
	return nil
}
