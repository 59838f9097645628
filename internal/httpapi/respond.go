package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/liliang-cn/vectordb/internal/apperr"
	"github.com/liliang-cn/vectordb/internal/embedclient"
)

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		fmt.Printf("httpapi: failed to write JSON response: %v\n", err)
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]any{"error": err.Error()})
}

// writeServiceError maps a vectorservice error to the status code
// spec.md §6 assigns to each failure kind, falling back to 500 for
// anything not a typed apperr.ServiceError.
func writeServiceError(w http.ResponseWriter, err error) {
	var pe *embedclient.ProviderError
	if errors.As(err, &pe) {
		writeError(w, http.StatusBadGateway, err)
		return
	}

	kind, ok := apperr.KindOf(err)
	if !ok {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	switch kind {
	case apperr.KindNotFound, apperr.KindParentMissing, apperr.KindNoIndex:
		writeError(w, http.StatusNotFound, err)
	case apperr.KindDimensionMismatch:
		writeError(w, http.StatusUnprocessableEntity, err)
	case apperr.KindUnsupportedIndex, apperr.KindNothingToTrain:
		writeError(w, http.StatusBadRequest, err)
	case apperr.KindInvalidUpdate:
		writeError(w, http.StatusConflict, err)
	case apperr.KindNotTrained:
		writeError(w, http.StatusConflict, err)
	default:
		writeError(w, http.StatusInternalServerError, err)
	}
}

func decodeJSON(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return fmt.Errorf("decode request body: %w", err)
	}
	return nil
}
