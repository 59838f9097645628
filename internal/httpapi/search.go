package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

type searchRequest struct {
	Query           []float32         `json:"query"`
	K               int               `json:"k"`
	IncludeChunk    bool              `json:"include_chunk"`
	MetadataFilters map[string]string `json:"metadata_filters,omitempty"`
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	results, err := s.service.Search(r.Context(), chi.URLParam(r, "libraryID"), req.Query, req.K, req.IncludeChunk, req.MetadataFilters)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"results": results})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.service.GetLibraryStats(r.Context(), chi.URLParam(r, "libraryID"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}
