package web

import (
	"io/fs"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/linksgo/linksgo/internal/analytics"
	"github.com/linksgo/linksgo/internal/auth"
	"github.com/linksgo/linksgo/internal/cache"
	"github.com/linksgo/linksgo/internal/db"
)

// Options are the collaborators the HTML pages need.
type Options struct {
	DB        *db.DB
	BaseURL   string
	Cache     *cache.ProfileCache
	Collector *analytics.Collector
	Gate      *auth.Gate
	OAuth     *auth.OAuth
	Log       *zap.Logger
	// Secure marks cookies set by the pages as Secure.
	Secure bool
}

// Handler serves the public profile pages, the sign-in page and the
// owner dashboard.
type Handler struct {
	db        *db.DB
	baseURL   string
	cache     *cache.ProfileCache
	collector *analytics.Collector
	gate      *auth.Gate
	oauth     *auth.OAuth
	log       *zap.Logger
	secure    bool
	templates *TemplateRegistry
}

func New(opts Options) (*Handler, error) {
	tmpl, err := NewTemplateRegistry()
	if err != nil {
		return nil, err
	}

	return &Handler{
		db:        opts.DB,
		baseURL:   opts.BaseURL,
		cache:     opts.Cache,
		collector: opts.Collector,
		gate:      opts.Gate,
		oauth:     opts.OAuth,
		log:       opts.Log,
		secure:    opts.Secure,
		templates: tmpl,
	}, nil
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	staticSub, _ := fs.Sub(staticFS, "static")
	r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(staticSub))))

	r.Get("/", h.Home)

	r.Route("/auth", func(r chi.Router) {
		r.Get("/signin", h.SignInPage)
		r.Get("/login", h.oauth.Login)
		r.Get("/callback", h.oauth.Callback)
		r.Post("/logout", h.oauth.Logout)
	})

	r.Route("/dashboard", func(r chi.Router) {
		r.Use(h.gate.Require)

		r.Get("/", h.Dashboard)
		r.Post("/links", h.LinkCreate)
		r.Post("/links/{id}/delete", h.LinkDelete)
		r.Post("/links/{id}/toggle", h.LinkToggle)
		r.Post("/appearance", h.AppearanceSave)
		r.Post("/profile", h.ProfileSave)
	})

	r.Get("/{username}/qr.png", h.ProfileQRCode)
	r.Get("/{username}", h.PublicProfile)
}

type PageData struct {
	Flash *Flash
}

// FieldError returns the flashed validation message for a form field.
func (p PageData) FieldError(field string) string {
	if p.Flash == nil || p.Flash.Kind != FlashError || p.Flash.Field != field {
		return ""
	}
	return p.Flash.Message
}

type SignInData struct {
	PageData
	Error string
}

// Home sends signed-in owners to the dashboard and everyone else to sign-in.
func (h *Handler) Home(w http.ResponseWriter, r *http.Request) {
	if _, err := h.gate.Current(r); err == nil {
		http.Redirect(w, r, "/dashboard", http.StatusFound)
		return
	}
	http.Redirect(w, r, "/auth/signin", http.StatusFound)
}

func (h *Handler) SignInPage(w http.ResponseWriter, r *http.Request) {
	if _, err := h.gate.Current(r); err == nil {
		http.Redirect(w, r, "/dashboard", http.StatusFound)
		return
	}
	data := SignInData{PageData: h.pageData(w, r)}
	if reason := r.URL.Query().Get("error"); auth.IsSignInReason(reason) {
		data.Error = reason
	} else if reason != "" {
		data.Error = "Sign-in failed. Please try again."
	}
	h.templates.Render(w, http.StatusOK, "templates/signin.html", data)
}

func (h *Handler) pageData(w http.ResponseWriter, r *http.Request) PageData {
	return PageData{Flash: h.takeFlash(w, r)}
}
