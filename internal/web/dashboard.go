package web

import (
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/linksgo/linksgo/internal/auth"
	"github.com/linksgo/linksgo/internal/models"
	"github.com/linksgo/linksgo/internal/theme"
)

type DashboardData struct {
	PageData
	Profile      *models.Profile
	ProfileURL   string
	Links        []LinkRow
	LinkLimit    int
	CanAddLink   bool
	Summary      *models.Summary
	Appearance   *models.Appearance
	ThemeBase    string
	ThemeBeta    bool
	Themes       []string
	ButtonStyles []string
}

func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	owner := auth.ProfileFrom(r.Context())
	ctx := r.Context()
	now := time.Now()
	tf := models.Timeframe7d

	links, err := h.linkRows(ctx, owner.ID, tf.Since(now), now)
	if err != nil {
		h.serverError(w, "load dashboard links", err)
		return
	}
	summary, err := models.Summarize(ctx, h.db, owner.ID, tf, now)
	if err != nil {
		h.serverError(w, "load dashboard summary", err)
		return
	}
	appearance, err := models.GetAppearance(ctx, h.db, owner.ID)
	if err != nil {
		h.serverError(w, "load dashboard appearance", err)
		return
	}

	h.templates.Render(w, http.StatusOK, "templates/dashboard.html", DashboardData{
		PageData:     h.pageData(w, r),
		Profile:      owner,
		ProfileURL:   h.baseURL + "/" + owner.Username,
		Links:        links,
		LinkLimit:    models.MaxLinksPerProfile,
		CanAddLink:   len(links) < models.MaxLinksPerProfile,
		Summary:      summary,
		Appearance:   appearance,
		ThemeBase:    strings.TrimSuffix(appearance.Theme, theme.MobileUnstableSuffix),
		ThemeBeta:    strings.HasSuffix(appearance.Theme, theme.MobileUnstableSuffix),
		Themes:       theme.Identifiers(),
		ButtonStyles: theme.ButtonStyles(),
	})
}

func (h *Handler) serverError(w http.ResponseWriter, op string, err error) {
	h.log.Error(op, zap.Error(err))
	http.Error(w, "internal error", http.StatusInternalServerError)
}
