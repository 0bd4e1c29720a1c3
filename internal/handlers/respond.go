package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"go.uber.org/zap"

	"github.com/linksgo/linksgo/internal/models"
)

// MaxBodyBytes caps JSON request bodies.
const MaxBodyBytes = 1 << 20

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	writeJSON(w, code, map[string]string{"error": msg})
}

// decodeJSON reads a single JSON object into v. With strict set, unknown
// fields are rejected.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any, strict bool) error {
	r.Body = http.MaxBytesReader(w, r.Body, MaxBodyBytes)
	dec := json.NewDecoder(r.Body)
	if strict {
		dec.DisallowUnknownFields()
	}
	if err := dec.Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return fmt.Errorf("request body too large")
		}
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("request body is empty")
		}
		return fmt.Errorf("invalid JSON")
	}
	return nil
}

// writeModelError maps a store error to its status. Anything outside the
// domain taxonomy is logged and reported as an internal error.
func writeModelError(w http.ResponseWriter, log *zap.Logger, op string, err error) {
	var v *models.ValidationError
	switch {
	case errors.As(err, &v):
		jsonError(w, v.Message, http.StatusBadRequest)
	case errors.Is(err, models.ErrLinkLimit):
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": models.LinkLimitMessage,
			"code":  "LINK_LIMIT_EXCEEDED",
		})
	case errors.Is(err, models.ErrNotFound):
		jsonError(w, "not found", http.StatusNotFound)
	default:
		log.Error(op, zap.Error(err))
		jsonError(w, "internal error", http.StatusInternalServerError)
	}
}
