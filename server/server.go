// Package server hosts the Musiclip query service.
package server

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"

	"musiclip/cache"
	"musiclip/config"
	"musiclip/core/embed"
	"musiclip/core/vectordb"
	"musiclip/logger"
)

// NewHandlerFromConfig wires the query handler's collaborators from
// configuration. The returned cleanup closes whatever connected.
func NewHandlerFromConfig(ctx context.Context, cfg *config.Config) (*QueryHandler, func(), error) {
	index, err := vectordb.NewClient(ctx, vectordb.Config{
		URI:        cfg.MilvusURI,
		Collection: cfg.MilvusCollection,
		Dim:        cfg.EmbeddingDim,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("connecting to Milvus: %w", err)
	}
	cleanup := func() {
		index.Close()
	}

	embedder := embed.NewClient(cfg.EmbeddingServerURL)

	var embedCache *cache.EmbeddingCache
	if cfg.RedisAddr != "" {
		embedCache, err = cache.NewEmbeddingCache(cfg)
		if err != nil {
			logger.Warn("Redis unavailable, serving without embedding cache", logger.ErrorField(err))
		} else {
			prev := cleanup
			cleanup = func() {
				embedCache.Close()
				prev()
			}
		}
	}

	// A typed nil inside the interface would dodge the handler's nil
	// checks, so only assign when the cache really connected.
	var cacheIface EmbedCache
	if embedCache != nil {
		cacheIface = embedCache
	}

	return NewQueryHandler(index, embedder, cacheIface, cfg.AudioBaseURL), cleanup, nil
}

// Start wires the query service dependencies and serves until SIGINT/SIGTERM.
func Start(cfg *config.Config) {
	handler, cleanup, err := NewHandlerFromConfig(context.Background(), cfg)
	if err != nil {
		logger.Fatal("Failed to wire query service", logger.ErrorField(err))
	}
	defer cleanup()

	router := NewRouter(handler)

	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 90 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logger.Info("Query service listening", logger.String("port", cfg.ServerPort))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server failed", logger.ErrorField(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down query service")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Forced shutdown", logger.ErrorField(err))
	}
}

// NewRouter builds the mux router with CORS middleware and all routes.
func NewRouter(handler *QueryHandler) *mux.Router {
	router := mux.NewRouter()

	router.Use(corsMiddleware)

	router.HandleFunc("/health", handler.HealthHandler).Methods(http.MethodGet)
	router.HandleFunc("/query/text", handler.TextQueryHandler).Methods(http.MethodPost)
	router.HandleFunc("/query/similar", handler.SimilarQueryHandler).Methods(http.MethodPost)
	router.HandleFunc("/collection/info", handler.CollectionInfoHandler).Methods(http.MethodGet)

	return router
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		w.Header().Set("Access-Control-Max-Age", "86400")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
