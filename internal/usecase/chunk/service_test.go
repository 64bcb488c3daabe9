package chunk

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/iamjaehaklee/qdrant-api-backend/internal/domain"
	domchunk "github.com/iamjaehaklee/qdrant-api-backend/internal/domain/chunk"
	"github.com/iamjaehaklee/qdrant-api-backend/internal/domain/sparse"
)

// --- Mocks ---

type mockRepo struct {
	stored      domchunk.Stored
	getErr      error
	upsertErr   error
	deleteErr   error
	setErr      error
	batchErr    error
	lastID      string
	lastSparse  sparse.Vector
	lastPayload domchunk.Payload
	lastIDs     []string
	lastPoints  []domchunk.Point
	upserts     int
	setPayloads int
}

func (m *mockRepo) Upsert(
	_ context.Context, _ string, id string,
	_ []float32, sp sparse.Vector, payload domchunk.Payload,
) error {
	m.upserts++
	m.lastID = id
	m.lastSparse = sp
	m.lastPayload = payload
	return m.upsertErr
}

func (m *mockRepo) BatchUpsert(_ context.Context, _ string, points []domchunk.Point) error {
	m.lastPoints = points
	return m.batchErr
}

func (m *mockRepo) Get(_ context.Context, _ string, id string) (domchunk.Stored, error) {
	if m.getErr != nil {
		return domchunk.Stored{}, m.getErr
	}
	st := m.stored
	st.PointID = id
	return st, nil
}

func (m *mockRepo) Delete(_ context.Context, _ string, ids []string) error {
	m.lastIDs = ids
	return m.deleteErr
}

func (m *mockRepo) SetPayload(_ context.Context, _ string, id string, payload domchunk.Payload) error {
	m.setPayloads++
	m.lastID = id
	m.lastPayload = payload
	return m.setErr
}

type mockEmbedder struct {
	vec   []float32
	err   error
	calls int
}

func (m *mockEmbedder) Embed(_ context.Context, _ string) (domain.EmbeddingResult, error) {
	m.calls++
	return domain.EmbeddingResult{Embedding: m.vec}, m.err
}

type mockSparseBuilder struct {
	vec       sparse.Vector
	lastTexts []string
}

func (m *mockSparseBuilder) BuildSparseVector(_ string) sparse.Vector { return m.vec }

func (m *mockSparseBuilder) BatchBuild(texts []string) ([]sparse.Vector, error) {
	m.lastTexts = texts
	out := make([]sparse.Vector, len(texts))
	for i := range out {
		out[i] = m.vec
	}
	return out, nil
}

func newService(repo *mockRepo, emb *mockEmbedder, sb *mockSparseBuilder) *Service {
	return New(repo, emb, nil, sb, "ocr_chunks", zap.NewNop())
}

func validCreate() domchunk.Create {
	return domchunk.Create{
		FileID:         42,
		ProjectID:      7,
		Language:       "ko",
		Pages:          []int{1, 2},
		ParagraphTexts: []string{"제1조 목적", "이 계약은"},
	}
}

func nonEmptySparse() sparse.Vector {
	return sparse.FromWeights(map[uint32]float64{5: 0.4})
}

// --- Tests ---

func TestCreate_GeneratesUUIDWhenInvalid(t *testing.T) {
	for _, given := range []string{"", "not-a-uuid"} {
		repo := &mockRepo{}
		svc := newService(repo, &mockEmbedder{vec: []float32{0.1}}, &mockSparseBuilder{vec: nonEmptySparse()})

		req := validCreate()
		req.ChunkID = given
		stored, err := svc.Create(context.Background(), req)
		if err != nil {
			t.Fatalf("Create(%q): %v", given, err)
		}
		if _, err := uuid.Parse(stored.PointID); err != nil {
			t.Errorf("Create(%q) produced non-UUID id %q", given, stored.PointID)
		}
		if stored.Payload.ChunkID != stored.PointID {
			t.Errorf("payload chunk_id %q != point id %q", stored.Payload.ChunkID, stored.PointID)
		}
	}
}

func TestCreate_KeepsValidUUID(t *testing.T) {
	repo := &mockRepo{}
	svc := newService(repo, &mockEmbedder{vec: []float32{0.1}}, &mockSparseBuilder{vec: nonEmptySparse()})

	req := validCreate()
	req.ChunkID = "0f9f87a4-62b5-4f2e-9c11-3a8f1d2b4c6d"
	stored, err := svc.Create(context.Background(), req)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if stored.PointID != req.ChunkID {
		t.Errorf("id = %q, want supplied %q", stored.PointID, req.ChunkID)
	}
}

func TestCreate_SentinelForEmptySparseVector(t *testing.T) {
	repo := &mockRepo{}
	svc := newService(repo, &mockEmbedder{vec: []float32{0.1}}, &mockSparseBuilder{})

	if _, err := svc.Create(context.Background(), validCreate()); err != nil {
		t.Fatalf("Create: %v", err)
	}

	want := sparse.Sentinel()
	got := repo.lastSparse
	if got.Len() != 1 || got.Indices[0] != want.Indices[0] || got.Values[0] != want.Values[0] {
		t.Errorf("stored sparse vector = %+v, want sentinel %+v", got, want)
	}
}

func TestCreate_RequiresParagraphTexts(t *testing.T) {
	svc := newService(&mockRepo{}, &mockEmbedder{}, &mockSparseBuilder{})

	_, err := svc.Create(context.Background(), domchunk.Create{})
	if !errors.Is(err, domain.ErrInvalidRequest) {
		t.Errorf("expected ErrInvalidRequest, got %v", err)
	}
}

func TestCreate_EmbedderError(t *testing.T) {
	svc := newService(&mockRepo{}, &mockEmbedder{err: errors.New("quota")}, &mockSparseBuilder{})

	if _, err := svc.Create(context.Background(), validCreate()); err == nil {
		t.Error("expected error from embedder")
	}
}

func TestBatchCreate(t *testing.T) {
	repo := &mockRepo{}
	sb := &mockSparseBuilder{vec: nonEmptySparse()}
	svc := newService(repo, &mockEmbedder{vec: []float32{0.1}}, sb)

	stored, err := svc.BatchCreate(context.Background(), []domchunk.Create{validCreate(), validCreate()})
	if err != nil {
		t.Fatalf("BatchCreate: %v", err)
	}
	if len(stored) != 2 || len(repo.lastPoints) != 2 {
		t.Fatalf("expected 2 points, got %d stored / %d upserted", len(stored), len(repo.lastPoints))
	}
	if sb.lastTexts[0] != "제1조 목적\n이 계약은" {
		t.Errorf("joined text = %q", sb.lastTexts[0])
	}
	if stored[0].PointID == stored[1].PointID {
		t.Error("batch items received the same generated id")
	}
}

func TestBatchCreate_FallbackEmbedsPerText(t *testing.T) {
	emb := &mockEmbedder{vec: []float32{0.1}}
	svc := newService(&mockRepo{}, emb, &mockSparseBuilder{vec: nonEmptySparse()})

	if _, err := svc.BatchCreate(context.Background(), []domchunk.Create{validCreate(), validCreate(), validCreate()}); err != nil {
		t.Fatalf("BatchCreate: %v", err)
	}
	if emb.calls != 3 {
		t.Errorf("embedder calls = %d, want 3 without a batch provider", emb.calls)
	}
}

func TestUpdate_PayloadOnlySkipsVectorization(t *testing.T) {
	id := uuid.New().String()
	repo := &mockRepo{stored: domchunk.Stored{Payload: domchunk.Payload{
		ChunkID:        id,
		FileID:         42,
		ParagraphTexts: []string{"original"},
	}}}
	emb := &mockEmbedder{vec: []float32{0.1}}
	svc := newService(repo, emb, &mockSparseBuilder{})

	newFile := int64(99)
	stored, err := svc.Update(context.Background(), id, domchunk.Update{FileID: &newFile})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if emb.calls != 0 {
		t.Error("payload-only update must not re-vectorize")
	}
	if repo.upserts != 0 || repo.setPayloads != 1 {
		t.Errorf("upserts=%d setPayloads=%d, want payload-only write", repo.upserts, repo.setPayloads)
	}
	if stored.Payload.FileID != 99 {
		t.Errorf("FileID = %d, want 99", stored.Payload.FileID)
	}
	if len(stored.Payload.ParagraphTexts) != 1 || stored.Payload.ParagraphTexts[0] != "original" {
		t.Errorf("paragraph texts changed unexpectedly: %v", stored.Payload.ParagraphTexts)
	}
}

func TestUpdate_NewTextsRegenerateVectors(t *testing.T) {
	id := uuid.New().String()
	repo := &mockRepo{stored: domchunk.Stored{Payload: domchunk.Payload{ChunkID: id}}}
	emb := &mockEmbedder{vec: []float32{0.1}}
	svc := newService(repo, emb, &mockSparseBuilder{vec: nonEmptySparse()})

	stored, err := svc.Update(context.Background(), id, domchunk.Update{
		ParagraphTexts: []string{"개정된 조항"},
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if emb.calls != 1 {
		t.Errorf("embedder calls = %d, want 1", emb.calls)
	}
	if repo.upserts != 1 || repo.setPayloads != 0 {
		t.Errorf("upserts=%d setPayloads=%d, want full point rewrite", repo.upserts, repo.setPayloads)
	}
	if stored.Payload.ParagraphTexts[0] != "개정된 조항" {
		t.Errorf("paragraph texts not applied: %v", stored.Payload.ParagraphTexts)
	}
}

func TestUpdate_NotFound(t *testing.T) {
	repo := &mockRepo{getErr: domain.ErrPointNotFound}
	svc := newService(repo, &mockEmbedder{}, &mockSparseBuilder{})

	_, err := svc.Update(context.Background(), uuid.New().String(), domchunk.Update{})
	if !errors.Is(err, domain.ErrPointNotFound) {
		t.Errorf("expected ErrPointNotFound, got %v", err)
	}
}

func TestUpdate_InvalidID(t *testing.T) {
	svc := newService(&mockRepo{}, &mockEmbedder{}, &mockSparseBuilder{})

	_, err := svc.Update(context.Background(), "nope", domchunk.Update{})
	if !errors.Is(err, domain.ErrInvalidRequest) {
		t.Errorf("expected ErrInvalidRequest, got %v", err)
	}
}

func TestDelete(t *testing.T) {
	repo := &mockRepo{}
	svc := newService(repo, &mockEmbedder{}, &mockSparseBuilder{})

	id := uuid.New().String()
	if err := svc.Delete(context.Background(), id); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if len(repo.lastIDs) != 1 || repo.lastIDs[0] != id {
		t.Errorf("deleted ids = %v", repo.lastIDs)
	}
}

func TestBatchDelete_RejectsInvalidID(t *testing.T) {
	svc := newService(&mockRepo{}, &mockEmbedder{}, &mockSparseBuilder{})

	err := svc.BatchDelete(context.Background(), []string{uuid.New().String(), "bad"})
	if !errors.Is(err, domain.ErrInvalidRequest) {
		t.Errorf("expected ErrInvalidRequest, got %v", err)
	}
}
