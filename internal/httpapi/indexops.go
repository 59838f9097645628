package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

func (s *Server) handleRebuildIndex(w http.ResponseWriter, r *http.Request) {
	if err := s.service.RebuildIndex(r.Context(), chi.URLParam(r, "libraryID")); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "accepted"})
}

type trainIndexRequest struct {
	Sample [][]float32 `json:"sample,omitempty"`
}

func (s *Server) handleTrainIndex(w http.ResponseWriter, r *http.Request) {
	var req trainIndexRequest
	if r.ContentLength != 0 {
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
	}

	if err := s.service.TrainIndex(r.Context(), chi.URLParam(r, "libraryID"), req.Sample); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "accepted"})
}
