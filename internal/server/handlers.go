package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/hyperjump/chatsearch/internal/models"
	"github.com/hyperjump/chatsearch/internal/storage"
	"go.uber.org/zap"
)

// Error categories reported in error bodies.
const (
	categoryNotFound       = "not_found"
	categoryInvalidRequest = "invalid_request"
	categoryInternal       = "internal"
)

// maxIndexBody bounds POST /index bodies; exported archives can be large.
const maxIndexBody = 512 << 20

type errorResponse struct {
	Error    string `json:"error"`
	Category string `json:"category"`
}

type rootResponse struct {
	Service              string `json:"service"`
	Status               string `json:"status"`
	Version              string `json:"version"`
	IndexedConversations int    `json:"indexed_conversations"`
}

type healthResponse struct {
	Status            string `json:"status"`
	EmbeddingsIndexed bool   `json:"embeddings_indexed"`
	ConversationCount int    `json:"conversation_count"`
	StorageBackend    string `json:"storage_backend"`
	DiskUsageBytes    *int64 `json:"disk_usage_bytes,omitempty"`
}

type indexResponse struct {
	Status string `json:"status"`
	*models.IndexResult
}

type statusMessage struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, rootResponse{
		Service:              ServiceName,
		Status:               "running",
		Version:              s.version,
		IndexedConversations: s.store.Count(r.Context()),
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	resp := healthResponse{
		Status:            "healthy",
		EmbeddingsIndexed: s.store.Exists(ctx),
		ConversationCount: s.store.Count(ctx),
		StorageBackend:    s.config.Storage.Backend,
	}
	if n, err := storage.DiskUsage(s.store); err == nil {
		resp.DiskUsageBytes = &n
	} else {
		s.logger.Warn("health: disk usage failed", zap.Error(err))
	}
	s.respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxIndexBody))
	if err != nil {
		s.respondError(w, err, categoryInvalidRequest)
		return
	}
	archive, err := models.ParseArchive(body)
	if err != nil {
		s.respondError(w, err, "")
		return
	}
	s.logger.Debug("index request", zap.Int("conversations", len(archive.Conversations)))
	result, err := s.indexer.Index(r.Context(), archive)
	if err != nil {
		s.logger.Error("indexing failed", zap.Error(err))
		s.respondError(w, err, "")
		return
	}
	s.respondJSON(w, http.StatusOK, indexResponse{Status: "success", IndexResult: result})
}

func (s *Server) handleClear(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Clear(r.Context()); err != nil {
		s.logger.Error("clear failed", zap.Error(err))
		s.respondError(w, err, "")
		return
	}
	s.logger.Info("index cleared")
	s.respondJSON(w, http.StatusOK, statusMessage{Status: "success", Message: "Index cleared"})
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req models.SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, errors.New("invalid request body"), categoryInvalidRequest)
		return
	}
	query, err := req.Resolve(s.config.Search.DefaultTopK, s.config.Search.MinScoreOrDefault())
	if err != nil {
		s.respondError(w, err, "")
		return
	}
	s.logger.Debug("search request", zap.String("query", query.Query), zap.Int("top_k", query.TopK))
	results, err := s.engine.Search(r.Context(), query)
	if err != nil {
		if !errors.Is(err, storage.ErrStoreNotFound) {
			s.logger.Error("search failed", zap.Error(err))
		}
		s.respondError(w, err, "")
		return
	}
	if results == nil {
		results = []*models.SearchResult{}
	}
	s.respondJSON(w, http.StatusOK, results)
}

func (s *Server) handleGetConversation(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	conv, err := s.engine.Conversation(r.Context(), id)
	if err != nil {
		s.respondError(w, err, "")
		return
	}
	s.respondJSON(w, http.StatusOK, conv)
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// respondError writes err with the status of its category. An empty category is derived from err.
func (s *Server) respondError(w http.ResponseWriter, err error, category string) {
	if category == "" {
		category = classify(err)
	}
	s.respondJSON(w, statusFor(category), errorResponse{Error: err.Error(), Category: category})
}

func classify(err error) string {
	var malformed *models.MalformedArchiveError
	var invalid *models.InvalidQueryError
	switch {
	case errors.Is(err, storage.ErrStoreNotFound), errors.Is(err, storage.ErrConversationNotFound):
		return categoryNotFound
	case errors.As(err, &malformed), errors.As(err, &invalid):
		return categoryInvalidRequest
	default:
		return categoryInternal
	}
}

func statusFor(category string) int {
	switch category {
	case categoryNotFound:
		return http.StatusNotFound
	case categoryInvalidRequest:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
