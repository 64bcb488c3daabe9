package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/iamjaehaklee/qdrant-api-backend/internal/config"
	"github.com/iamjaehaklee/qdrant-api-backend/internal/db"
	dbRedis "github.com/iamjaehaklee/qdrant-api-backend/internal/db/redis"
	"github.com/iamjaehaklee/qdrant-api-backend/internal/domain"
	logpkg "github.com/iamjaehaklee/qdrant-api-backend/internal/logger"
	"github.com/iamjaehaklee/qdrant-api-backend/internal/metrics"
	"github.com/iamjaehaklee/qdrant-api-backend/internal/repository/embcache"
	qdrantrepo "github.com/iamjaehaklee/qdrant-api-backend/internal/repository/qdrant"
	chiTransport "github.com/iamjaehaklee/qdrant-api-backend/internal/transport/chi"
	geminiEmb "github.com/iamjaehaklee/qdrant-api-backend/internal/transport/gemini"
	chunkuc "github.com/iamjaehaklee/qdrant-api-backend/internal/usecase/chunk"
	healthuc "github.com/iamjaehaklee/qdrant-api-backend/internal/usecase/health"
	searchuc "github.com/iamjaehaklee/qdrant-api-backend/internal/usecase/search"
	"github.com/iamjaehaklee/qdrant-api-backend/internal/vectorizer"
	koreanVec "github.com/iamjaehaklee/qdrant-api-backend/internal/vectorizer/korean"
	termVec "github.com/iamjaehaklee/qdrant-api-backend/internal/vectorizer/term"
	"github.com/iamjaehaklee/qdrant-api-backend/internal/version"
)

func main() {
	// Load configuration based on ENV
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting qdrant API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("qdrant_host", cfg.Qdrant.Host),
		zap.Int("qdrant_port", cfg.Qdrant.Port),
	)

	// Register metrics explicitly (no init())
	metrics.RegisterEmbeddingMetrics()
	metrics.RegisterVectorizerMetrics()

	// Qdrant client and repository
	client, err := qdrantrepo.NewClient(qdrantrepo.Config{
		Host:   cfg.Qdrant.Host,
		Port:   cfg.Qdrant.Port,
		APIKey: cfg.Qdrant.APIKey,
		UseTLS: cfg.Qdrant.UseTLS,
	})
	if err != nil {
		logger.Fatal("Failed to create qdrant client", zap.Error(err))
	}
	defer func() { _ = client.Close() }()

	repo := qdrantrepo.New(client, cfg.Qdrant.DenseVectorName, cfg.Qdrant.SparseVectorName)

	ctx := context.Background()
	if err := repo.Ping(ctx); err != nil {
		logger.Fatal("Qdrant not reachable", zap.Error(err))
	}
	logger.Info("Connected to qdrant")

	// Optional embedding cache store
	var cacheStore db.Store
	if len(cfg.Cache.Addrs) > 0 {
		store, err := dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.Cache.Addrs,
			Username: cfg.Cache.Username,
			Password: cfg.Cache.Password,
			DB:       cfg.Cache.DB,
		})
		if err != nil {
			logger.Fatal("Failed to create cache store", zap.Error(err))
		}
		defer store.Close()

		readiness := time.Duration(cfg.Cache.ReadinessTimeout) * time.Second
		if err := store.WaitForReady(ctx, readiness); err != nil {
			logger.Fatal("Cache store not ready", zap.Error(err))
		}
		cacheStore = store
		logger.Info("Connected to embedding cache", zap.Strings("addrs", cfg.Cache.Addrs))
	}

	// Dense embedder: Gemini -> Cached
	base := geminiEmb.NewEmbedder(&geminiEmb.Config{
		APIKey:     cfg.Embedding.APIKey,
		BaseURL:    cfg.Embedding.BaseURL,
		Model:      cfg.Embedding.Model,
		Dimensions: cfg.Embedding.Dimensions,
		Logger:     logger,
	})

	var embedder domain.Embedder = base
	var batchEmbedder domain.BatchEmbedder = base
	if cacheStore != nil {
		cached := embcache.New(
			base, cacheStore,
			time.Duration(cfg.Cache.TTLSec)*time.Second,
			metrics.EmbeddingCacheTotal, logger,
		)
		embedder = cached
		batchEmbedder = cached
	}
	logger.Info("Embedder created",
		zap.String("model", cfg.Embedding.Model),
		zap.Int("dimensions", cfg.Embedding.Dimensions),
		zap.Bool("cached", cacheStore != nil),
	)

	// Sparse vectorizer: Korean morphological analysis with a BM25-style fallback
	sparseVec, err := vectorizer.NewMultilingual(
		koreanVec.New(logger), termVec.New(), cfg.Sparse.Workers, logger,
	)
	if err != nil {
		logger.Fatal("Failed to create sparse vectorizer", zap.Error(err))
	}
	defer sparseVec.Close()

	// Per-collection services
	chunksAPI := chiTransport.CollectionAPI{
		Search: searchuc.New(repo, embedder, sparseVec, cfg.Qdrant.ChunkCollection),
		Chunks: chunkuc.New(repo, embedder, batchEmbedder, sparseVec, cfg.Qdrant.ChunkCollection, logger),
	}
	summariesAPI := chiTransport.CollectionAPI{
		Search: searchuc.New(repo, embedder, sparseVec, cfg.Qdrant.SummaryCollection),
		Chunks: chunkuc.New(repo, embedder, batchEmbedder, sparseVec, cfg.Qdrant.SummaryCollection, logger),
	}

	healthSvc := healthuc.New(
		repo,
		newEmbeddingHealthChecker(embedder),
		[]string{cfg.Qdrant.ChunkCollection, cfg.Qdrant.SummaryCollection},
	)

	server := chiTransport.NewServer(chunksAPI, summariesAPI, healthSvc, logger)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(chiTransport.BearerAuthMiddleware(cfg.Auth.APIKeys))
	r.Use(metrics.Middleware())
	r.Mount("/", server.Routes())

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}

// embeddingHealthChecker wraps domain.Embedder to implement health.EmbeddingChecker.
type embeddingHealthChecker struct {
	embedder domain.Embedder
}

func newEmbeddingHealthChecker(embedder domain.Embedder) *embeddingHealthChecker {
	return &embeddingHealthChecker{embedder: embedder}
}

func (h *embeddingHealthChecker) HealthCheck(ctx context.Context) error {
	if hc, ok := h.embedder.(domain.HealthChecker); ok {
		if err := hc.HealthCheck(ctx); err != nil {
			return fmt.Errorf("embedding health check: %w", err)
		}
	}
	return nil
}

// jsonRecoverer is a recovery middleware that returns JSON instead of a plain text stacktrace.
func jsonRecoverer(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rvr := recover(); rvr != nil {
					logger.Error("panic recovered",
						zap.Any("panic", rvr),
						zap.Stack("stacktrace"),
					)
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					_ = json.NewEncoder(w).Encode(map[string]string{
						"code":    "internal_error",
						"message": "internal error",
					})
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// wideEventMiddleware emits a canonical log line per request and propagates X-Request-ID.
func wideEventMiddleware(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			// chi.middleware.RequestID already placed request_id in context
			requestID := chiMiddleware.GetReqID(r.Context())

			if requestID != "" {
				w.Header().Set("X-Request-ID", requestID)
			}

			// Per-request logger with request_id
			reqLogger := logger.With(zap.String("request_id", requestID))
			ctx := logpkg.ContextWithLogger(r.Context(), reqLogger)

			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			// Canonical log line — one line per request
			reqLogger.Info("http_request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("latency", time.Since(start)),
				zap.String("ip", r.RemoteAddr),
				zap.Int64("content_length", r.ContentLength),
				zap.String("user_agent", r.UserAgent()),
				zap.Int("response_bytes", ww.BytesWritten()),
			)
		})
	}
}
