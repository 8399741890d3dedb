package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"musiclip/core/errs"
	"musiclip/core/vectordb"
	"musiclip/logger"
	"musiclip/model"
)

const defaultTopK = 10

// VectorIndex is the read-only slice of the vector index the query
// service needs.
type VectorIndex interface {
	Search(ctx context.Context, vector []float32, k int) ([]vectordb.Match, error)
	GetVector(ctx context.Context, id string) ([]float32, error)
	Count(ctx context.Context) (int64, error)
	Collection() string
	Dim() int
}

// TextEmbedder turns query text into an embedding vector.
type TextEmbedder interface {
	EmbedText(ctx context.Context, text string) ([]float32, error)
}

// EmbedCache is the optional text-embedding cache.
type EmbedCache interface {
	GetText(ctx context.Context, text string) ([]float32, bool)
	PutText(ctx context.Context, text string, embedding []float32) error
}

// QueryHandler serves the similarity query endpoints. Stateless beyond
// read-only handles; safe for concurrent requests.
type QueryHandler struct {
	index        VectorIndex
	embedder     TextEmbedder
	cache        EmbedCache // nil disables caching
	audioBaseURL string
}

// NewQueryHandler wires a query handler. cache may be nil.
func NewQueryHandler(index VectorIndex, embedder TextEmbedder, cache EmbedCache, audioBaseURL string) *QueryHandler {
	return &QueryHandler{
		index:        index,
		embedder:     embedder,
		cache:        cache,
		audioBaseURL: audioBaseURL,
	}
}

// TextQueryRequest is the body of POST /query/text.
type TextQueryRequest struct {
	Query string `json:"query"`
	TopK  int    `json:"top_k"`
}

// SongIDQueryRequest is the body of POST /query/similar.
type SongIDQueryRequest struct {
	SongID string `json:"song_id"`
	TopK   int    `json:"top_k"`
}

// QueryResult is one shaped match.
type QueryResult struct {
	ID               string              `json:"id"`
	Distance         float64             `json:"distance"`
	CosineSimilarity float64             `json:"cosine_similarity"`
	Metadata         model.TrackMetadata `json:"metadata"`
	AudioURL         string              `json:"audio_url"`
}

// QueryResponse is the common response envelope for both query modes.
type QueryResponse struct {
	Results   []QueryResult `json:"results"`
	QueryType string        `json:"query_type"`
}

// HealthHandler reports service and collection status.
func (h *QueryHandler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	count, err := h.index.Count(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("vector index unavailable: %v", err))
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":             "healthy",
		"vectordb_connected": true,
		"collection_size":    count,
	})
}

// TextQueryHandler serves POST /query/text.
func (h *QueryHandler) TextQueryHandler(w http.ResponseWriter, r *http.Request) {
	var req TextQueryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Query == "" {
		writeError(w, http.StatusBadRequest, "query is required")
		return
	}
	topK := req.TopK
	if topK <= 0 {
		topK = defaultTopK
	}

	results, err := h.searchByText(r.Context(), req.Query, topK)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, QueryResponse{
		Results:   results,
		QueryType: "text",
	})
}

// SimilarQueryHandler serves POST /query/similar. The queried song is
// always removed from its own results.
func (h *QueryHandler) SimilarQueryHandler(w http.ResponseWriter, r *http.Request) {
	var req SongIDQueryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.SongID == "" {
		writeError(w, http.StatusBadRequest, "song_id is required")
		return
	}
	topK := req.TopK
	if topK <= 0 {
		topK = defaultTopK
	}

	results, err := h.similarByID(r.Context(), req.SongID, topK)
	if err != nil {
		var notFound *errs.NotFoundError
		if errors.As(err, &notFound) {
			writeError(w, http.StatusNotFound, fmt.Sprintf("Song ID %q not found in database", req.SongID))
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, QueryResponse{
		Results:   results,
		QueryType: "similarity",
	})
}

// CollectionInfoHandler serves GET /collection/info.
func (h *QueryHandler) CollectionInfoHandler(w http.ResponseWriter, r *http.Request) {
	count, err := h.index.Count(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"name":      h.index.Collection(),
		"count":     count,
		"dimension": h.index.Dim(),
	})
}

// textEmbedding resolves a text query to a vector, via the cache when
// one is configured.
func (h *QueryHandler) textEmbedding(ctx context.Context, query string) ([]float32, error) {
	if h.cache != nil {
		if embedding, ok := h.cache.GetText(ctx, query); ok {
			return embedding, nil
		}
	}

	embedding, err := h.embedder.EmbedText(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to get embedding from server: %w", err)
	}

	if h.cache != nil {
		if err := h.cache.PutText(ctx, query, embedding); err != nil {
			logger.Warn("Failed to cache text embedding", logger.ErrorField(err))
		}
	}
	return embedding, nil
}

// shapeResults converts raw matches into the response shape. Similarity
// is exactly 1 - distance; the collection is cosine-metric by
// construction so this is a true cosine similarity.
func (h *QueryHandler) shapeResults(matches []vectordb.Match) []QueryResult {
	results := make([]QueryResult, 0, len(matches))
	for _, m := range matches {
		results = append(results, QueryResult{
			ID:               m.ID,
			Distance:         m.Distance,
			CosineSimilarity: 1 - m.Distance,
			Metadata:         m.Meta,
			AudioURL:         fmt.Sprintf("%s/%s.wav", h.audioBaseURL, m.ID),
		})
	}
	return results
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.Error("Failed to encode response", logger.ErrorField(err))
	}
}

func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}
