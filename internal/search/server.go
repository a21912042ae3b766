// Package search serves top-k similarity search over one store
// instance. Each store (daily, followup) runs its own Server on its
// own port; the two never share state.
package search

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/jhpark-dev/stockrag/internal/config"
	"github.com/jhpark-dev/stockrag/internal/embeddings"
	"github.com/jhpark-dev/stockrag/internal/index"
	"github.com/jhpark-dev/stockrag/internal/vectorstore"
)

const defaultTopK = 5

// Config holds server configuration for one store instance.
type Config struct {
	StoreName config.StoreName
	Port      int
	AllowAll  bool // allow all CORS origins (dev mode)
}

// Server answers health and search requests for one store.
type Server struct {
	cfg        Config
	store      *vectorstore.Store
	idx        *index.Index
	embedder   *embeddings.FailSoft
	router     chi.Router
	httpServer *http.Server
}

// New creates a Server. idx may be nil when the store is empty; the
// server then answers searches with empty result sets.
func New(cfg Config, store *vectorstore.Store, idx *index.Index, embedder *embeddings.FailSoft) *Server {
	s := &Server{
		cfg:      cfg,
		store:    store,
		idx:      idx,
		embedder: embedder,
	}
	s.router = s.buildRouter()
	return s
}

func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	corsOpts := cors.Options{
		AllowedOrigins:   []string{"http://localhost:*", "http://127.0.0.1:*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}
	if s.cfg.AllowAll {
		corsOpts.AllowedOrigins = []string{"*"}
	}
	r.Use(cors.Handler(corsOpts))

	r.Get("/health", s.handleHealth)
	r.Get("/info", s.handleInfo)
	r.Post("/search", s.handleSearch)

	return r
}

// Router returns the chi router, mainly for tests.
func (s *Server) Router() chi.Router { return s.router }

type healthResponse struct {
	Status           string `json:"status"`
	Store            string `json:"store"`
	VectorsLoaded    int    `json:"vectors_loaded"`
	MetadataLoaded   int    `json:"metadata_loaded"`
	IndexBuilt       bool   `json:"index_built"`
	IndexSize        int    `json:"index_size"`
	DegradedExcluded int    `json:"degraded_excluded"`
	Timestamp        string `json:"timestamp"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{
		Status:         "ok",
		Store:          string(s.cfg.StoreName),
		VectorsLoaded:  s.store.Len(),
		MetadataLoaded: s.store.Len(),
		Timestamp:      time.Now().Format(time.RFC3339),
	}
	if s.idx != nil {
		resp.IndexBuilt = true
		resp.IndexSize = s.idx.Size()
		resp.DegradedExcluded = s.idx.SkippedDegraded()
	}
	writeJSON(w, http.StatusOK, resp)
}

type infoResponse struct {
	Store     string `json:"store"`
	Dimension int    `json:"dimension"`
	Records   int    `json:"records"`
	IndexSize int    `json:"index_size"`
	Embedder  string `json:"embedder"`
}

func (s *Server) handleInfo(w http.ResponseWriter, r *http.Request) {
	resp := infoResponse{
		Store:     string(s.cfg.StoreName),
		Dimension: s.store.Dimension(),
		Records:   s.store.Len(),
		Embedder:  s.embedder.Name(),
	}
	if s.idx != nil {
		resp.IndexSize = s.idx.Size()
	}
	writeJSON(w, http.StatusOK, resp)
}

type searchRequest struct {
	Query string `json:"query"`
	TopK  int    `json:"top_k"`
}

type searchResult struct {
	Rank        int     `json:"rank"`
	Similarity  float32 `json:"similarity"`
	Type        string  `json:"type"`
	Filename    string  `json:"filename"`
	Title       string  `json:"title,omitempty"`
	TextContent string  `json:"text_content"`
	TextLength  int     `json:"text_length"`
	CreatedAt   string  `json:"created_at"`
}

type searchResponse struct {
	Query      string         `json:"query"`
	Results    []searchResult `json:"results"`
	TotalFound int            `json:"total_found"`
}

// handleSearch embeds the query and returns the top-k nearest records.
// An empty index, a blank query, or a degraded query embedding all
// produce an empty result set with status 200: search availability
// degrades, it does not error.
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return
	}
	if req.TopK <= 0 {
		req.TopK = defaultTopK
	}

	resp := searchResponse{Query: req.Query, Results: []searchResult{}}
	if req.Query == "" || s.idx == nil || s.idx.Size() == 0 {
		writeJSON(w, http.StatusOK, resp)
		return
	}

	vec, degraded := s.embedder.EmbedOne(r.Context(), req.Query)
	if degraded {
		log.Printf("search: query embedding degraded, returning empty results")
		writeJSON(w, http.StatusOK, resp)
		return
	}

	matches, err := s.idx.Query(r.Context(), vec, req.TopK)
	if err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("search failed: %v", err))
		return
	}

	for _, m := range matches {
		resp.Results = append(resp.Results, searchResult{
			Rank:        m.Rank,
			Similarity:  m.Similarity,
			Type:        m.Meta.Type,
			Filename:    m.Meta.Filename,
			Title:       m.Meta.Title,
			TextContent: m.Meta.TextContent,
			TextLength:  m.Meta.TextLength,
			CreatedAt:   m.Meta.CreatedAt,
		})
	}
	resp.TotalFound = len(resp.Results)
	writeJSON(w, http.StatusOK, resp)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("writing response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// Start begins listening on the configured port.
func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.cfg.Port)
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      120 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	log.Printf("%s search service listening on %s", s.cfg.StoreName, addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer != nil {
		return s.httpServer.Shutdown(ctx)
	}
	return nil
}
