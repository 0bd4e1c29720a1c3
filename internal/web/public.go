package web

import (
	"errors"
	"html/template"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/linksgo/linksgo/internal/analytics"
	"github.com/linksgo/linksgo/internal/models"
	"github.com/linksgo/linksgo/internal/theme"
)

const (
	visitorCookieAge = 365 * 24 * 60 * 60
	colorSchemeHint  = "Sec-CH-Prefers-Color-Scheme"
)

type ProfilePageData struct {
	Profile    *models.Profile
	Links      []models.Link
	Theme      theme.Resolved
	CSS        template.CSS
	Initial    string
	AvatarBG   template.CSS
	ProfileURL string
	// Scheme is the data-scheme the server painted a smart theme with.
	Scheme string
}

type NotFoundData struct {
	Username string
}

// PublicProfile renders /{username} and records one page view per render.
func (h *Handler) PublicProfile(w http.ResponseWriter, r *http.Request) {
	username := strings.ToLower(chi.URLParam(r, "username"))
	page, err := h.cache.Get(r.Context(), username)
	if errors.Is(err, models.ErrNotFound) {
		h.templates.Render(w, http.StatusNotFound, "templates/notfound.html", NotFoundData{Username: username})
		return
	}
	if err != nil {
		h.log.Error("load public profile", zap.String("username", username), zap.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	now := time.Now()
	device := analytics.DeviceType(r.UserAgent())
	resolved := theme.Resolve(theme.Input{
		Stored:           page.Appearance.Theme,
		Now:              now,
		Scheme:           colorScheme(r),
		Device:           theme.Device(device),
		Palette:          page.Appearance.Palette(),
		BackgroundImage:  page.Appearance.BackgroundImage,
		MobileBackground: page.Appearance.MobileBackgroundURL,
	})

	e := analytics.FromRequest(r, analytics.PageView)
	e.ProfileID = page.Profile.ID
	e.Visit.VisitorID = h.visitorID(w, r)
	h.collector.Push(e)

	data := ProfilePageData{
		Profile:    &page.Profile,
		Links:      page.VisibleLinks(now),
		Theme:      resolved,
		CSS:        template.CSS(resolved.CSS()),
		Initial:    theme.Initial(page.Profile.DisplayName, page.Profile.Username),
		AvatarBG:   template.CSS(theme.AvatarBackground(page.Profile.Username, "")),
		ProfileURL: h.baseURL + "/" + page.Profile.Username,
	}
	if resolved.Live == theme.LiveSmart {
		data.Scheme = resolved.Name
	}

	w.Header().Set("Accept-CH", colorSchemeHint)
	w.Header().Add("Vary", colorSchemeHint)
	w.Header().Set("Cache-Control", "no-store")
	h.templates.Render(w, http.StatusOK, "templates/profile.html", data)
}

// colorScheme reads the visitor's OS scheme from the client hint, when the
// browser sends one.
func colorScheme(r *http.Request) theme.Scheme {
	switch strings.Trim(strings.ToLower(r.Header.Get(colorSchemeHint)), `" `) {
	case "dark":
		return theme.Dark
	case "light":
		return theme.Light
	}
	return ""
}

// visitorID returns the device-persisted visitor id, issuing one on the
// first visit.
func (h *Handler) visitorID(w http.ResponseWriter, r *http.Request) string {
	if c, err := r.Cookie(analytics.VisitorCookie); err == nil {
		if _, err := uuid.Parse(c.Value); err == nil {
			return c.Value
		}
	}
	id := uuid.NewString()
	http.SetCookie(w, &http.Cookie{
		Name:     analytics.VisitorCookie,
		Value:    id,
		Path:     "/",
		MaxAge:   visitorCookieAge,
		HttpOnly: true,
		Secure:   h.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return id
}
