package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/linksgo/linksgo/internal/auth"
	"github.com/linksgo/linksgo/internal/cache"
	"github.com/linksgo/linksgo/internal/db"
	"github.com/linksgo/linksgo/internal/models"
)

type AppearanceHandler struct {
	DB    *db.DB
	Cache *cache.ProfileCache
	Log   *zap.Logger
}

// Get returns the caller's settings, creating the default row on first read.
func (h *AppearanceHandler) Get(w http.ResponseWriter, r *http.Request) {
	owner := auth.ProfileFrom(r.Context())
	a, err := models.EnsureAppearance(r.Context(), h.DB, owner.ID)
	if err != nil {
		writeModelError(w, h.Log, "get appearance", err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

// Save merges the posted fields over the caller's settings.
func (h *AppearanceHandler) Save(w http.ResponseWriter, r *http.Request) {
	owner := auth.ProfileFrom(r.Context())
	var u models.AppearanceUpdate
	if err := decodeJSON(w, r, &u, true); err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	a, err := models.UpsertAppearance(r.Context(), h.DB, owner.ID, u)
	if err != nil {
		writeModelError(w, h.Log, "save appearance", err)
		return
	}
	h.Cache.Invalidate(owner.Username)
	writeJSON(w, http.StatusOK, a)
}
