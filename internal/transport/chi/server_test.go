package chi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/iamjaehaklee/qdrant-api-backend/internal/domain"
	domchunk "github.com/iamjaehaklee/qdrant-api-backend/internal/domain/chunk"
	domsearch "github.com/iamjaehaklee/qdrant-api-backend/internal/domain/search"
	"github.com/iamjaehaklee/qdrant-api-backend/internal/domain/sparse"
	chunkuc "github.com/iamjaehaklee/qdrant-api-backend/internal/usecase/chunk"
	healthuc "github.com/iamjaehaklee/qdrant-api-backend/internal/usecase/health"
	searchuc "github.com/iamjaehaklee/qdrant-api-backend/internal/usecase/search"
)

// --- Mocks ---

type mockIndex struct {
	results []domsearch.Result
	stored  map[string]domchunk.Payload
	pingErr error
}

func newMockIndex() *mockIndex {
	return &mockIndex{stored: make(map[string]domchunk.Payload)}
}

func (m *mockIndex) QueryDense(
	_ context.Context, _ string, _ []float32, _ domsearch.Filter, _ int, _ *float64,
) ([]domsearch.Result, error) {
	return m.results, nil
}

func (m *mockIndex) QuerySparse(
	_ context.Context, _ string, _ sparse.Vector, _ domsearch.Filter, _ int, _ *float64,
) ([]domsearch.Result, error) {
	return m.results, nil
}

func (m *mockIndex) ScrollMatchText(
	_ context.Context, _ string, _ string, _ domsearch.Filter, _ int,
) ([]domsearch.Result, error) {
	return m.results, nil
}

func (m *mockIndex) Recommend(
	_ context.Context, _ string, _, _ []string, _ domsearch.RecommendStrategy,
	_ domsearch.Filter, _ int, _ *float64,
) ([]domsearch.Result, error) {
	return m.results, nil
}

func (m *mockIndex) Discover(
	_ context.Context, _ string, _ []float32, _ []domsearch.ContextPair,
	_ domsearch.Filter, _ int,
) ([]domsearch.Result, error) {
	return m.results, nil
}

func (m *mockIndex) Scroll(
	_ context.Context, _ string, _ domsearch.Filter, _ int, _ string,
) (domsearch.Page, error) {
	return domsearch.Page{Results: m.results, NextOffset: "next-id"}, nil
}

func (m *mockIndex) Upsert(
	_ context.Context, _ string, id string, _ []float32, _ sparse.Vector, payload domchunk.Payload,
) error {
	m.stored[id] = payload
	return nil
}

func (m *mockIndex) BatchUpsert(_ context.Context, _ string, points []domchunk.Point) error {
	for _, p := range points {
		m.stored[p.ID] = p.Payload
	}
	return nil
}

func (m *mockIndex) Get(_ context.Context, _ string, id string) (domchunk.Stored, error) {
	payload, ok := m.stored[id]
	if !ok {
		return domchunk.Stored{}, domain.ErrPointNotFound
	}
	return domchunk.Stored{PointID: id, Payload: payload}, nil
}

func (m *mockIndex) Delete(_ context.Context, _ string, ids []string) error {
	for _, id := range ids {
		delete(m.stored, id)
	}
	return nil
}

func (m *mockIndex) SetPayload(_ context.Context, _ string, id string, payload domchunk.Payload) error {
	m.stored[id] = payload
	return nil
}

func (m *mockIndex) Ping(_ context.Context) error { return m.pingErr }

func (m *mockIndex) CollectionExists(_ context.Context, _ string) (bool, error) { return true, nil }

type stubEmbedder struct{}

func (stubEmbedder) Embed(_ context.Context, _ string) (domain.EmbeddingResult, error) {
	return domain.EmbeddingResult{Embedding: []float32{0.1, 0.2}}, nil
}

type stubSparse struct{}

func (stubSparse) BuildSparseVector(_ string) sparse.Vector {
	return sparse.FromWeights(map[uint32]float64{1: 0.5})
}

func (stubSparse) BatchBuild(texts []string) ([]sparse.Vector, error) {
	out := make([]sparse.Vector, len(texts))
	for i := range out {
		out[i] = sparse.FromWeights(map[uint32]float64{1: 0.5})
	}
	return out, nil
}

func newTestServer(idx *mockIndex) *Server {
	logger := zap.NewNop()
	api := CollectionAPI{
		Search: searchuc.New(idx, stubEmbedder{}, stubSparse{}, "ocr_chunks"),
		Chunks: chunkuc.New(idx, stubEmbedder{}, nil, stubSparse{}, "ocr_chunks", logger),
	}
	health := healthuc.New(idx, nil, []string{"ocr_chunks"})
	return NewServer(api, api, health, logger)
}

func doJSON(t *testing.T, handler http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	return rr
}

// --- Tests ---

func TestHybridSearchEndpoint(t *testing.T) {
	idx := newMockIndex()
	idx.results = []domsearch.Result{
		{PointID: "a", Score: 0.9, Payload: domchunk.Payload{ChunkID: "a"}},
	}
	router := newTestServer(idx).Routes()

	rr := doJSON(t, router, "POST", "/api/v1/chunks/search/hybrid",
		HybridSearchRequest{QueryText: "계약 해지"})

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rr.Code, rr.Body.String())
	}

	var resp SearchResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Count != 1 || resp.Results[0].PointID != "a" {
		t.Errorf("unexpected response: %+v", resp)
	}
}

func TestSearchEndpoint_EmptyQuery_400(t *testing.T) {
	router := newTestServer(newMockIndex()).Routes()

	rr := doJSON(t, router, "POST", "/api/v1/chunks/search/dense",
		DenseSearchRequest{})

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rr.Code)
	}
	var errResp ErrorResponse
	if err := json.NewDecoder(rr.Body).Decode(&errResp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if errResp.Code != codeValidationFailed {
		t.Errorf("code = %s, want %s", errResp.Code, codeValidationFailed)
	}
}

func TestSearchEndpoint_InvalidJSON_400(t *testing.T) {
	router := newTestServer(newMockIndex()).Routes()

	req := httptest.NewRequest("POST", "/api/v1/chunks/search/dense",
		bytes.NewBufferString("{not json"))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rr.Code)
	}
}

func TestScrollEndpoint_ReturnsNextOffset(t *testing.T) {
	idx := newMockIndex()
	idx.results = []domsearch.Result{{PointID: "a"}}
	router := newTestServer(idx).Routes()

	rr := doJSON(t, router, "POST", "/api/v1/chunks/search/scroll", ScrollSearchRequest{})

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	var resp ScrollResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.NextOffset != "next-id" {
		t.Errorf("next_offset = %q", resp.NextOffset)
	}
}

func TestChunkLifecycle(t *testing.T) {
	idx := newMockIndex()
	router := newTestServer(idx).Routes()

	// Create
	rr := doJSON(t, router, "POST", "/api/v1/chunks/", CreateChunkRequest{
		FileID:         42,
		ProjectID:      7,
		Language:       "ko",
		ParagraphTexts: []string{"제1조 목적"},
	})
	if rr.Code != http.StatusCreated {
		t.Fatalf("create status = %d, body = %s", rr.Code, rr.Body.String())
	}
	var created ChunkResponse
	if err := json.NewDecoder(rr.Body).Decode(&created); err != nil {
		t.Fatalf("decode create: %v", err)
	}
	if _, err := uuid.Parse(created.PointID); err != nil {
		t.Fatalf("point id %q is not a UUID", created.PointID)
	}

	// Get
	rr = doJSON(t, router, "GET", "/api/v1/chunks/"+created.PointID, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("get status = %d", rr.Code)
	}

	// Update metadata only
	newFile := int64(99)
	rr = doJSON(t, router, "PATCH", "/api/v1/chunks/"+created.PointID,
		UpdateChunkRequest{FileID: &newFile})
	if rr.Code != http.StatusOK {
		t.Fatalf("update status = %d, body = %s", rr.Code, rr.Body.String())
	}
	var updated ChunkResponse
	if err := json.NewDecoder(rr.Body).Decode(&updated); err != nil {
		t.Fatalf("decode update: %v", err)
	}
	if updated.Payload.FileID != 99 {
		t.Errorf("file_id = %d, want 99", updated.Payload.FileID)
	}

	// Delete
	rr = doJSON(t, router, "DELETE", "/api/v1/chunks/"+created.PointID, nil)
	if rr.Code != http.StatusNoContent {
		t.Fatalf("delete status = %d", rr.Code)
	}

	// Get after delete
	rr = doJSON(t, router, "GET", "/api/v1/chunks/"+created.PointID, nil)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("get after delete status = %d, want 404", rr.Code)
	}
	var errResp ErrorResponse
	if err := json.NewDecoder(rr.Body).Decode(&errResp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if errResp.Code != codePointNotFound {
		t.Errorf("code = %s, want %s", errResp.Code, codePointNotFound)
	}
}

func TestBatchCreate_EmptyList_400(t *testing.T) {
	router := newTestServer(newMockIndex()).Routes()

	rr := doJSON(t, router, "POST", "/api/v1/chunks/batch", BatchCreateChunksRequest{})
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rr.Code)
	}
}

func TestBatchCreate(t *testing.T) {
	idx := newMockIndex()
	router := newTestServer(idx).Routes()

	rr := doJSON(t, router, "POST", "/api/v1/chunks/batch", BatchCreateChunksRequest{
		Chunks: []CreateChunkRequest{
			{FileID: 1, ParagraphTexts: []string{"가"}},
			{FileID: 2, ParagraphTexts: []string{"나"}},
		},
	})
	if rr.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", rr.Code, rr.Body.String())
	}
	var resp BatchCreateChunksResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Count != 2 || len(idx.stored) != 2 {
		t.Errorf("count = %d, stored = %d", resp.Count, len(idx.stored))
	}
}

func TestSummariesRoutesMounted(t *testing.T) {
	idx := newMockIndex()
	idx.results = []domsearch.Result{{PointID: "s1"}}
	router := newTestServer(idx).Routes()

	rr := doJSON(t, router, "POST", "/api/v1/summaries/search/dense",
		DenseSearchRequest{QueryText: "요약"})
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
}

func TestHealthEndpoint(t *testing.T) {
	router := newTestServer(newMockIndex()).Routes()

	rr := doJSON(t, router, "GET", "/health", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	var resp HealthResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Status != string(healthuc.Healthy) {
		t.Errorf("status = %q", resp.Status)
	}
}
