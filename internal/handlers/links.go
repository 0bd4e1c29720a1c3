package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/linksgo/linksgo/internal/analytics"
	"github.com/linksgo/linksgo/internal/auth"
	"github.com/linksgo/linksgo/internal/cache"
	"github.com/linksgo/linksgo/internal/db"
	"github.com/linksgo/linksgo/internal/models"
)

type LinkHandler struct {
	DB        *db.DB
	Cache     *cache.ProfileCache
	Collector *analytics.Collector
	Log       *zap.Logger
}

type linksResponse struct {
	Links []models.Link `json:"links"`
	Total int           `json:"total"`
	Limit int           `json:"limit"`
}

type patchLinkRequest struct {
	ID int64 `json:"id"`
	models.LinkUpdate
}

type reorderRequest struct {
	IDs []int64 `json:"ids"`
}

type clickRequest struct {
	LinkID int64 `json:"link_id"`
}

type clickResponse struct {
	Active      bool   `json:"active"`
	Deactivated bool   `json:"deactivated"`
	URL         string `json:"url,omitempty"`
}

func (h *LinkHandler) List(w http.ResponseWriter, r *http.Request) {
	owner := auth.ProfileFrom(r.Context())
	links, err := models.ListLinks(r.Context(), h.DB, owner.ID)
	if err != nil {
		writeModelError(w, h.Log, "list links", err)
		return
	}
	writeJSON(w, http.StatusOK, linksResponse{Links: links, Total: len(links), Limit: models.MaxLinksPerProfile})
}

func (h *LinkHandler) Create(w http.ResponseWriter, r *http.Request) {
	owner := auth.ProfileFrom(r.Context())
	var in models.LinkInput
	if err := decodeJSON(w, r, &in, true); err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	link, err := models.CreateLink(r.Context(), h.DB, owner.ID, in)
	if err != nil {
		writeModelError(w, h.Log, "create link", err)
		return
	}
	h.Cache.Invalidate(owner.Username)
	writeJSON(w, http.StatusOK, link)
}

func (h *LinkHandler) Update(w http.ResponseWriter, r *http.Request) {
	owner := auth.ProfileFrom(r.Context())
	var req patchLinkRequest
	if err := decodeJSON(w, r, &req, true); err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if req.ID <= 0 {
		jsonError(w, "id is required", http.StatusBadRequest)
		return
	}

	link, err := models.UpdateLink(r.Context(), h.DB, owner.ID, req.ID, req.LinkUpdate)
	if err != nil {
		writeModelError(w, h.Log, "update link", err)
		return
	}
	h.Cache.Invalidate(owner.Username)
	writeJSON(w, http.StatusOK, link)
}

func (h *LinkHandler) Delete(w http.ResponseWriter, r *http.Request) {
	owner := auth.ProfileFrom(r.Context())
	id, err := strconv.ParseInt(r.URL.Query().Get("id"), 10, 64)
	if err != nil || id <= 0 {
		jsonError(w, "invalid id", http.StatusBadRequest)
		return
	}

	if err := models.DeleteLink(r.Context(), h.DB, owner.ID, id); err != nil {
		writeModelError(w, h.Log, "delete link", err)
		return
	}
	h.Cache.Invalidate(owner.Username)
	w.WriteHeader(http.StatusNoContent)
}

func (h *LinkHandler) Reorder(w http.ResponseWriter, r *http.Request) {
	owner := auth.ProfileFrom(r.Context())
	var req reorderRequest
	if err := decodeJSON(w, r, &req, true); err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	links, err := models.ReorderLinks(r.Context(), h.DB, owner.ID, req.IDs)
	if err != nil {
		writeModelError(w, h.Log, "reorder links", err)
		return
	}
	h.Cache.Invalidate(owner.Username)
	writeJSON(w, http.StatusOK, linksResponse{Links: links, Total: len(links), Limit: models.MaxLinksPerProfile})
}

// Click credits a visitor's click. It needs no session; a one-time link is
// deactivated here, on the server, by the first click to land.
func (h *LinkHandler) Click(w http.ResponseWriter, r *http.Request) {
	var req clickRequest
	if err := decodeJSON(w, r, &req, false); err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if req.LinkID <= 0 {
		jsonError(w, "link_id is required", http.StatusBadRequest)
		return
	}

	res, err := models.RecordClick(r.Context(), h.DB, req.LinkID, time.Now())
	switch {
	case errors.Is(err, models.ErrLinkInactive):
		writeJSON(w, http.StatusOK, clickResponse{Active: false})
		return
	case err != nil:
		writeModelError(w, h.Log, "record click", err)
		return
	}

	e := analytics.FromRequest(r, analytics.LinkClick)
	e.ProfileID = res.Link.ProfileID
	e.LinkID = res.Link.ID
	h.Collector.Push(e)

	if res.Deactivated {
		invalidateOwner(r, h.DB, h.Cache, h.Log, res.Link.ProfileID)
	}
	writeJSON(w, http.StatusOK, clickResponse{
		Active:      res.Link.IsActive,
		Deactivated: res.Deactivated,
		URL:         res.Link.URL,
	})
}

// invalidateOwner drops the cached page of the profile with id profileID.
func invalidateOwner(r *http.Request, d *db.DB, c *cache.ProfileCache, log *zap.Logger, profileID string) {
	p, err := models.GetProfileByID(r.Context(), d, profileID)
	if err != nil {
		log.Warn("invalidate profile cache", zap.String("profile_id", profileID), zap.Error(err))
		return
	}
	c.Invalidate(p.Username)
}
