// Package chi is the HTTP API layer: chunk CRUD and search endpoints for
// the chunk and summary collections, plus health and metrics.
package chi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/iamjaehaklee/qdrant-api-backend/internal/domain"
	domsearch "github.com/iamjaehaklee/qdrant-api-backend/internal/domain/search"
	chunkuc "github.com/iamjaehaklee/qdrant-api-backend/internal/usecase/chunk"
	healthuc "github.com/iamjaehaklee/qdrant-api-backend/internal/usecase/health"
	searchuc "github.com/iamjaehaklee/qdrant-api-backend/internal/usecase/search"
)

const maxBatchSize = 100

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// CollectionAPI bundles the services for one collection.
type CollectionAPI struct {
	Search *searchuc.Service
	Chunks *chunkuc.Service
}

// Server is the HTTP API server over the chunk and summary collections.
type Server struct {
	chunks        CollectionAPI
	summaries     CollectionAPI
	health        *healthuc.Service
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(chunks, summaries CollectionAPI, health *healthuc.Service, logger *zap.Logger) *Server {
	s := &Server{
		chunks:    chunks,
		summaries: summaries,
		health:    health,
		logger:    logger,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrInvalidRequest, http.StatusBadRequest, codeValidationFailed),
		sentinelHandler(domain.ErrPointNotFound, http.StatusNotFound, codePointNotFound),
		sentinelHandler(domain.ErrCollectionNotFound, http.StatusNotFound, codeCollectionNotFound),
		sentinelHandler(domain.ErrEmbeddingProviderError, http.StatusBadGateway, codeEmbeddingProviderError),
		sentinelHandler(domain.ErrIndexUnavailable, http.StatusServiceUnavailable, codeIndexUnavailable),
	}
	return s
}

// Routes mounts all API routes on a fresh router.
func (s *Server) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/health", s.handleHealth)
	r.Get("/metrics", s.handleMetrics)

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/chunks", s.collectionRoutes(s.chunks))
		r.Route("/summaries", s.collectionRoutes(s.summaries))
	})

	return r
}

func (s *Server) collectionRoutes(api CollectionAPI) func(chi.Router) {
	return func(r chi.Router) {
		r.Post("/", s.handleCreateChunk(api))
		r.Post("/batch", s.handleBatchCreateChunks(api))
		r.Delete("/batch", s.handleBatchDeleteChunks(api))
		r.Get("/{id}", s.handleGetChunk(api))
		r.Patch("/{id}", s.handleUpdateChunk(api))
		r.Delete("/{id}", s.handleDeleteChunk(api))

		r.Route("/search", func(r chi.Router) {
			r.Post("/dense", s.handleSearchDense(api))
			r.Post("/sparse", s.handleSearchSparse(api))
			r.Post("/matchtext", s.handleSearchMatchText(api))
			r.Post("/hybrid", s.handleSearchHybrid(api))
			r.Post("/recommend", s.handleSearchRecommend(api))
			r.Post("/discover", s.handleSearchDiscover(api))
			r.Post("/scroll", s.handleScroll(api))
		})
	}
}

// --- Chunk handlers ---

func (s *Server) handleCreateChunk(api CollectionAPI) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CreateChunkRequest
		if !decodeBody(w, r, &req) {
			return
		}

		stored, err := api.Chunks.Create(r.Context(), req.toDomain())
		if err != nil {
			s.handleDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, storedToDTO(stored))
	}
}

func (s *Server) handleBatchCreateChunks(api CollectionAPI) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req BatchCreateChunksRequest
		if !decodeBody(w, r, &req) {
			return
		}
		if len(req.Chunks) == 0 || len(req.Chunks) > maxBatchSize {
			writeError(w, http.StatusBadRequest, codeValidationFailed,
				"chunks count must be between 1 and 100")
			return
		}

		stored, err := api.Chunks.BatchCreate(r.Context(), toCreates(req.Chunks))
		if err != nil {
			s.handleDomainError(w, err)
			return
		}

		resp := BatchCreateChunksResponse{Count: len(stored)}
		resp.Chunks = make([]ChunkResponse, len(stored))
		for i, st := range stored {
			resp.Chunks[i] = storedToDTO(st)
		}
		writeJSON(w, http.StatusCreated, resp)
	}
}

func (s *Server) handleGetChunk(api CollectionAPI) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		stored, err := api.Chunks.Get(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			s.handleDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, storedToDTO(stored))
	}
}

func (s *Server) handleUpdateChunk(api CollectionAPI) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req UpdateChunkRequest
		if !decodeBody(w, r, &req) {
			return
		}

		stored, err := api.Chunks.Update(r.Context(), chi.URLParam(r, "id"), req.toDomain())
		if err != nil {
			s.handleDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, storedToDTO(stored))
	}
}

func (s *Server) handleDeleteChunk(api CollectionAPI) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := api.Chunks.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
			s.handleDomainError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func (s *Server) handleBatchDeleteChunks(api CollectionAPI) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req BatchDeleteChunksRequest
		if !decodeBody(w, r, &req) {
			return
		}
		if len(req.ChunkIDs) == 0 || len(req.ChunkIDs) > maxBatchSize {
			writeError(w, http.StatusBadRequest, codeValidationFailed,
				"chunk_ids count must be between 1 and 100")
			return
		}

		if err := api.Chunks.BatchDelete(r.Context(), req.ChunkIDs); err != nil {
			s.handleDomainError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// --- Search handlers ---

func (s *Server) handleSearchDense(api CollectionAPI) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req DenseSearchRequest
		if !decodeBody(w, r, &req) {
			return
		}

		results, err := api.Search.Dense(r.Context(), domsearch.DenseRequest{
			QueryText:      req.QueryText,
			Limit:          req.Limit,
			ScoreThreshold: req.ScoreThreshold,
			Filter:         req.Filter.toDomain(),
		})
		if err != nil {
			s.handleDomainError(w, err)
			return
		}
		writeResults(w, results)
	}
}

func (s *Server) handleSearchSparse(api CollectionAPI) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req DenseSearchRequest
		if !decodeBody(w, r, &req) {
			return
		}

		results, err := api.Search.Sparse(r.Context(), domsearch.SparseRequest{
			QueryText:      req.QueryText,
			Limit:          req.Limit,
			ScoreThreshold: req.ScoreThreshold,
			Filter:         req.Filter.toDomain(),
		})
		if err != nil {
			s.handleDomainError(w, err)
			return
		}
		writeResults(w, results)
	}
}

func (s *Server) handleSearchMatchText(api CollectionAPI) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req MatchTextSearchRequest
		if !decodeBody(w, r, &req) {
			return
		}

		results, err := api.Search.MatchText(r.Context(), domsearch.MatchTextRequest{
			QueryText: req.QueryText,
			Limit:     req.Limit,
			Filter:    req.Filter.toDomain(),
		})
		if err != nil {
			s.handleDomainError(w, err)
			return
		}
		writeResults(w, results)
	}
}

func (s *Server) handleSearchHybrid(api CollectionAPI) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req HybridSearchRequest
		if !decodeBody(w, r, &req) {
			return
		}

		results, err := api.Search.Hybrid(r.Context(), domsearch.HybridRequest{
			QueryText:      req.QueryText,
			Limit:          req.Limit,
			ScoreThreshold: req.ScoreThreshold,
			RRFK:           req.RRFK,
			Filter:         req.Filter.toDomain(),
		})
		if err != nil {
			s.handleDomainError(w, err)
			return
		}
		writeResults(w, results)
	}
}

func (s *Server) handleSearchRecommend(api CollectionAPI) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req RecommendSearchRequest
		if !decodeBody(w, r, &req) {
			return
		}

		results, err := api.Search.Recommend(r.Context(), domsearch.RecommendRequest{
			PositiveIDs:    req.PositiveIDs,
			NegativeIDs:    req.NegativeIDs,
			Limit:          req.Limit,
			ScoreThreshold: req.ScoreThreshold,
			Strategy:       domsearch.RecommendStrategy(req.Strategy),
			Filter:         req.Filter.toDomain(),
		})
		if err != nil {
			s.handleDomainError(w, err)
			return
		}
		writeResults(w, results)
	}
}

func (s *Server) handleSearchDiscover(api CollectionAPI) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req DiscoverSearchRequest
		if !decodeBody(w, r, &req) {
			return
		}

		pairs := make([]domsearch.ContextPair, len(req.ContextPairs))
		for i, p := range req.ContextPairs {
			pairs[i] = domsearch.ContextPair{PositiveID: p.PositiveID, NegativeID: p.NegativeID}
		}

		results, err := api.Search.Discover(r.Context(), domsearch.DiscoverRequest{
			TargetText:   req.TargetText,
			ContextPairs: pairs,
			Limit:        req.Limit,
			Filter:       req.Filter.toDomain(),
		})
		if err != nil {
			s.handleDomainError(w, err)
			return
		}
		writeResults(w, results)
	}
}

func (s *Server) handleScroll(api CollectionAPI) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req ScrollSearchRequest
		if !decodeBody(w, r, &req) {
			return
		}

		page, err := api.Search.Scroll(r.Context(), domsearch.ScrollRequest{
			Limit:  req.Limit,
			Offset: req.Offset,
			Filter: req.Filter.toDomain(),
		})
		if err != nil {
			s.handleDomainError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, ScrollResponse{
			Results:    resultsToDTO(page.Results),
			Count:      len(page.Results),
			NextOffset: page.NextOffset,
		})
	}
}

// --- Infrastructure handlers ---

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, HealthResponse{
		Status: string(report.Status),
		Checks: checks,
	})
}

func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

// --- Helpers ---

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return false
	}
	return true
}

func writeResults(w http.ResponseWriter, results []domsearch.Result) {
	writeJSON(w, http.StatusOK, SearchResponse{
		Results: resultsToDTO(results),
		Count:   len(results),
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, ErrorResponse{
		Code:    code,
		Message: message,
	})
}

// safeDomainMessage returns a sentinel error message for the client without exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrInvalidRequest,
		domain.ErrPointNotFound,
		domain.ErrCollectionNotFound,
		domain.ErrEmbeddingProviderError,
		domain.ErrIndexUnavailable,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code string) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	s.logger.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
}
