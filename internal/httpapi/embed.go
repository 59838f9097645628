package httpapi

import (
	"errors"
	"fmt"
	"net/http"
)

var errEmptyBatch = errors.New("batch must contain at least one item")

type embedRequest struct {
	Texts []string `json:"texts"`
}

func (s *Server) handleEmbed(w http.ResponseWriter, r *http.Request) {
	var req embedRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if len(req.Texts) == 0 {
		writeError(w, http.StatusBadRequest, errEmptyBatch)
		return
	}
	if len(req.Texts) > maxEmbedBatch {
		writeError(w, http.StatusBadRequest, fmt.Errorf("batch of %d texts exceeds the %d-text limit", len(req.Texts), maxEmbedBatch))
		return
	}

	vectors, err := s.embedder.Embed(r.Context(), req.Texts)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"embeddings": vectors})
}
