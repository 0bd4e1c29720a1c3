package web

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/linksgo/linksgo/internal/auth"
	"github.com/linksgo/linksgo/internal/models"
)

const dashboardPath = "/dashboard"

func (h *Handler) LinkCreate(w http.ResponseWriter, r *http.Request) {
	owner := auth.ProfileFrom(r.Context())
	r.ParseForm()

	in := models.LinkInput{
		Title:       r.FormValue("title"),
		URL:         r.FormValue("url"),
		Description: r.FormValue("description"),
		IsOneTime:   r.FormValue("is_one_time") == "on",
	}
	link, err := models.CreateLink(r.Context(), h.db, owner.ID, in)
	if err != nil {
		h.flashError(w, r, "create link", err)
		return
	}

	h.cache.Invalidate(owner.Username)
	h.success(w, "Link added: "+link.Title)
	http.Redirect(w, r, dashboardPath, http.StatusFound)
}

func (h *Handler) LinkDelete(w http.ResponseWriter, r *http.Request) {
	owner := auth.ProfileFrom(r.Context())
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	if err := models.DeleteLink(r.Context(), h.db, owner.ID, id); err != nil {
		h.flashError(w, r, "delete link", err)
		return
	}

	h.cache.Invalidate(owner.Username)
	h.success(w, "Link deleted")
	http.Redirect(w, r, dashboardPath, http.StatusFound)
}

// LinkToggle flips a link between shown and hidden.
func (h *Handler) LinkToggle(w http.ResponseWriter, r *http.Request) {
	owner := auth.ProfileFrom(r.Context())
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	link, err := models.GetLink(r.Context(), h.db, owner.ID, id)
	if err != nil {
		h.flashError(w, r, "toggle link", err)
		return
	}
	active := !link.IsActive
	if _, err := models.UpdateLink(r.Context(), h.db, owner.ID, id, models.LinkUpdate{IsActive: &active}); err != nil {
		h.flashError(w, r, "toggle link", err)
		return
	}

	h.cache.Invalidate(owner.Username)
	if active {
		h.success(w, "Link is now visible")
	} else {
		h.success(w, "Link hidden")
	}
	http.Redirect(w, r, dashboardPath, http.StatusFound)
}

// flashError reports err on the dashboard. Store failures are logged and
// shown generically.
func (h *Handler) flashError(w http.ResponseWriter, r *http.Request, op string, err error) {
	f := Flash{Kind: FlashError}
	var v *models.ValidationError
	switch {
	case errors.As(err, &v):
		f.Message, f.Field = v.Message, v.Field
	case errors.Is(err, models.ErrLinkLimit):
		f.Message = models.LinkLimitMessage
	case errors.Is(err, models.ErrNotFound):
		f.Message = "That link no longer exists."
	default:
		h.log.Error(op, zap.Error(err))
		f.Message = "Something went wrong. Please try again."
	}
	h.setFlash(w, f)
	http.Redirect(w, r, dashboardPath, http.StatusFound)
}
