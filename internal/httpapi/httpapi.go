// Package httpapi exposes the vector database service over HTTP,
// following the teacher pack's chi + cors + middleware server shape
// (grounded on the secondary example's internal/server/server.go — the
// teacher itself is an embeddable library with no HTTP surface).
package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/liliang-cn/vectordb/internal/embedclient"
	"github.com/liliang-cn/vectordb/internal/vectorservice"
)

// maxEmbedBatch bounds how many texts a single /embed request may send
// to the provider in one call.
const maxEmbedBatch = 64

// Server wires HTTP handlers to the vector service and embedding
// client.
type Server struct {
	router   http.Handler
	service  *vectorservice.Service
	embedder embedclient.Embedder
}

// New builds a Server ready to ServeHTTP.
func New(service *vectorservice.Service, embedder embedclient.Embedder) *Server {
	mux := chi.NewRouter()
	mux.Use(middleware.RequestID)
	mux.Use(middleware.RealIP)
	mux.Use(middleware.Logger)
	mux.Use(middleware.Recoverer)
	mux.Use(middleware.Timeout(60 * time.Second))
	mux.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	s := &Server{router: mux, service: service, embedder: embedder}

	mux.Get("/healthz", s.handleHealth)

	mux.Route("/v1", func(r chi.Router) {
		r.Post("/libraries", s.handleCreateLibrary)
		r.Get("/libraries", s.handleListLibraries)
		r.Get("/libraries/{libraryID}", s.handleGetLibrary)
		r.Patch("/libraries/{libraryID}", s.handleUpdateLibrary)
		r.Delete("/libraries/{libraryID}", s.handleDeleteLibrary)

		r.Post("/libraries/{libraryID}/documents", s.handleCreateDocument)
		r.Get("/libraries/{libraryID}/documents", s.handleListDocuments)
		r.Get("/libraries/{libraryID}/documents/{documentID}", s.handleGetDocument)
		r.Patch("/libraries/{libraryID}/documents/{documentID}", s.handleUpdateDocument)
		r.Delete("/libraries/{libraryID}/documents/{documentID}", s.handleDeleteDocument)

		r.Post("/libraries/{libraryID}/chunks", s.handleCreateChunk)
		r.Post("/libraries/{libraryID}/chunks/batch", s.handleCreateChunks)
		r.Patch("/libraries/{libraryID}/chunks/{chunkID}", s.handleUpdateChunk)
		r.Delete("/libraries/{libraryID}/chunks/{chunkID}", s.handleDeleteChunk)
		r.Post("/libraries/{libraryID}/chunks/batch/delete", s.handleDeleteChunks)

		r.Post("/libraries/{libraryID}/index/rebuild", s.handleRebuildIndex)
		r.Post("/libraries/{libraryID}/index/train", s.handleTrainIndex)

		r.Post("/libraries/{libraryID}/search", s.handleSearch)
		r.Get("/libraries/{libraryID}/stats", s.handleStats)

		r.Post("/embed", s.handleEmbed)
	})

	return s
}

// ServeHTTP satisfies http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
