package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/liliang-cn/vectordb/internal/model"
	"github.com/liliang-cn/vectordb/internal/vectorservice"
)

type createChunkRequest struct {
	DocumentID string            `json:"document_id"`
	Text       string            `json:"text"`
	Embedding  []float32         `json:"embedding"`
	Metadata   map[string]string `json:"metadata,omitempty"`
}

func (s *Server) handleCreateChunk(w http.ResponseWriter, r *http.Request) {
	var req createChunkRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	chunk, err := s.service.CreateChunk(r.Context(), chi.URLParam(r, "libraryID"), req.DocumentID, req.Text, req.Embedding, req.Metadata)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, chunk)
}

type createChunksRequest struct {
	Chunks []createChunkRequest `json:"chunks"`
}

func (s *Server) handleCreateChunks(w http.ResponseWriter, r *http.Request) {
	var req createChunksRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if len(req.Chunks) == 0 {
		writeError(w, http.StatusBadRequest, errEmptyBatch)
		return
	}

	inputs := make([]vectorservice.ChunkInput, len(req.Chunks))
	for i, c := range req.Chunks {
		inputs[i] = vectorservice.ChunkInput{
			DocumentID: c.DocumentID,
			Text:       c.Text,
			Embedding:  c.Embedding,
			Metadata:   c.Metadata,
		}
	}

	chunks, err := s.service.CreateChunks(r.Context(), chi.URLParam(r, "libraryID"), inputs)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"chunks": chunks})
}

func (s *Server) handleUpdateChunk(w http.ResponseWriter, r *http.Request) {
	var patch model.ChunkPatch
	if err := decodeJSON(r, &patch); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	chunk, err := s.service.UpdateChunk(r.Context(), chi.URLParam(r, "libraryID"), chi.URLParam(r, "chunkID"), patch)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, chunk)
}

func (s *Server) handleDeleteChunk(w http.ResponseWriter, r *http.Request) {
	libraryID := chi.URLParam(r, "libraryID")
	chunkID := chi.URLParam(r, "chunkID")
	if err := s.service.DeleteChunk(r.Context(), libraryID, chunkID); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}

type deleteChunksRequest struct {
	ChunkIDs []string `json:"chunk_ids"`
}

func (s *Server) handleDeleteChunks(w http.ResponseWriter, r *http.Request) {
	var req deleteChunksRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	deleted, err := s.service.DeleteChunks(r.Context(), chi.URLParam(r, "libraryID"), req.ChunkIDs)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"deleted": deleted})
}
