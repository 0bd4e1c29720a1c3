package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/linksgo/linksgo/internal/auth"
	"github.com/linksgo/linksgo/internal/cache"
	"github.com/linksgo/linksgo/internal/db"
	"github.com/linksgo/linksgo/internal/models"
)

type ProfileHandler struct {
	DB       *db.DB
	Cache    *cache.ProfileCache
	Sessions *auth.Sessions
	Log      *zap.Logger
}

func (h *ProfileHandler) Get(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, auth.ProfileFrom(r.Context()))
}

func (h *ProfileHandler) Update(w http.ResponseWriter, r *http.Request) {
	owner := auth.ProfileFrom(r.Context())
	var u models.ProfileUpdate
	if err := decodeJSON(w, r, &u, true); err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	p, err := models.UpdateProfile(r.Context(), h.DB, owner.ID, u)
	if err != nil {
		writeModelError(w, h.Log, "update profile", err)
		return
	}
	h.Cache.Invalidate(owner.Username)
	if p.Username != owner.Username {
		h.Cache.Invalidate(p.Username)
	}
	writeJSON(w, http.StatusOK, p)
}

// Delete removes the caller's account with everything it owns and ends the
// session.
func (h *ProfileHandler) Delete(w http.ResponseWriter, r *http.Request) {
	owner := auth.ProfileFrom(r.Context())
	if err := models.DeleteProfile(r.Context(), h.DB, owner.ID); err != nil {
		writeModelError(w, h.Log, "delete profile", err)
		return
	}
	h.Cache.Invalidate(owner.Username)
	h.Sessions.Clear(w)
	h.Log.Info("profile deleted", zap.String("profile_id", owner.ID))
	w.WriteHeader(http.StatusNoContent)
}
