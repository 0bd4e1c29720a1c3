package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/linksgo/linksgo/internal/analytics"
	"github.com/linksgo/linksgo/internal/cache"
	"github.com/linksgo/linksgo/internal/db"
	"github.com/linksgo/linksgo/internal/models"
)

// RedirectHandler serves /go/{id}: it credits the click and sends the
// visitor on to the link's target.
type RedirectHandler struct {
	DB        *db.DB
	Cache     *cache.ProfileCache
	Collector *analytics.Collector
	Log       *zap.Logger
}

func (h *RedirectHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		http.NotFound(w, r)
		return
	}

	res, err := models.RecordClick(r.Context(), h.DB, id, time.Now())
	switch {
	case errors.Is(err, models.ErrNotFound):
		http.NotFound(w, r)
		return
	case errors.Is(err, models.ErrLinkInactive):
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusGone)
		w.Write([]byte("This link is no longer active."))
		return
	case err != nil:
		h.Log.Error("record click", zap.Int64("link_id", id), zap.Error(err))
		// the visitor still gets where they were going when we know the target
		link, lerr := models.GetLinkByID(r.Context(), h.DB, id)
		if lerr != nil || !link.Visible(time.Now()) {
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		http.Redirect(w, r, link.URL, http.StatusFound)
		return
	}

	e := analytics.FromRequest(r, analytics.LinkClick)
	e.ProfileID = res.Link.ProfileID
	e.LinkID = res.Link.ID
	h.Collector.Push(e)

	if res.Deactivated {
		invalidateOwner(r, h.DB, h.Cache, h.Log, res.Link.ProfileID)
	}
	w.Header().Set("Cache-Control", "no-store")
	http.Redirect(w, r, res.Link.URL, http.StatusFound)
}
