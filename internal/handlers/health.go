package handlers

import (
	"net/http"
	"time"
)

// Health reports liveness. It does not touch the store.
func Health(started time.Time) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		now := time.Now()
		writeJSON(w, http.StatusOK, map[string]any{
			"status":         "ok",
			"message":        "OK",
			"uptime_seconds": int64(now.Sub(started).Seconds()),
			"timestamp":      now.UTC().Format(time.RFC3339),
		})
	}
}
