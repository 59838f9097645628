package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/liliang-cn/vectordb/internal/model"
)

type createLibraryRequest struct {
	Name      string            `json:"name"`
	Dims      int               `json:"dims"`
	IndexType string            `json:"index_type"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

func (s *Server) handleCreateLibrary(w http.ResponseWriter, r *http.Request) {
	var req createLibraryRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	lib, err := s.service.CreateLibrary(r.Context(), req.Name, req.Dims, req.IndexType, req.Metadata)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, lib)
}

func (s *Server) handleGetLibrary(w http.ResponseWriter, r *http.Request) {
	lib, err := s.service.GetLibrary(r.Context(), chi.URLParam(r, "libraryID"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, lib)
}

func (s *Server) handleListLibraries(w http.ResponseWriter, r *http.Request) {
	libs, err := s.service.ListLibraries(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"libraries": libs})
}

func (s *Server) handleUpdateLibrary(w http.ResponseWriter, r *http.Request) {
	var patch model.LibraryPatch
	if err := decodeJSON(r, &patch); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	lib, err := s.service.UpdateLibrary(r.Context(), chi.URLParam(r, "libraryID"), patch)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, lib)
}

func (s *Server) handleDeleteLibrary(w http.ResponseWriter, r *http.Request) {
	if err := s.service.DeleteLibrary(r.Context(), chi.URLParam(r, "libraryID")); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}
