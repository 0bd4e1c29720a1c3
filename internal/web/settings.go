package web

import (
	"net/http"
	"strings"

	"github.com/linksgo/linksgo/internal/auth"
	"github.com/linksgo/linksgo/internal/models"
	"github.com/linksgo/linksgo/internal/theme"
)

// formField returns a pointer to the posted value, or nil when the form did
// not carry the field.
func formField(r *http.Request, name string) *string {
	if _, ok := r.PostForm[name]; !ok {
		return nil
	}
	v := r.PostForm.Get(name)
	return &v
}

func (h *Handler) AppearanceSave(w http.ResponseWriter, r *http.Request) {
	owner := auth.ProfileFrom(r.Context())
	r.ParseForm()

	u := models.AppearanceUpdate{
		Theme:               formField(r, "theme"),
		PrimaryColor:        formField(r, "primary_color"),
		BackgroundColor:     formField(r, "background_color"),
		TextColor:           formField(r, "text_color"),
		FontFamily:          formField(r, "font_family"),
		ButtonStyle:         formField(r, "button_style"),
		BackgroundImage:     formField(r, "background_image"),
		MobileBackgroundURL: formField(r, "mobile_background_url"),
	}
	if u.Theme != nil && r.PostForm.Get("mobile_beta") == "on" {
		beta := strings.TrimSuffix(*u.Theme, theme.MobileUnstableSuffix) + theme.MobileUnstableSuffix
		u.Theme = &beta
	}

	if _, err := models.UpsertAppearance(r.Context(), h.db, owner.ID, u); err != nil {
		h.flashError(w, r, "save appearance", err)
		return
	}

	h.cache.Invalidate(owner.Username)
	h.success(w, "Appearance saved")
	http.Redirect(w, r, dashboardPath, http.StatusFound)
}

func (h *Handler) ProfileSave(w http.ResponseWriter, r *http.Request) {
	owner := auth.ProfileFrom(r.Context())
	r.ParseForm()

	u := models.ProfileUpdate{
		Username:    formField(r, "username"),
		DisplayName: formField(r, "display_name"),
		Bio:         formField(r, "bio"),
		AvatarURL:   formField(r, "avatar_url"),
	}
	p, err := models.UpdateProfile(r.Context(), h.db, owner.ID, u)
	if err != nil {
		h.flashError(w, r, "save profile", err)
		return
	}

	h.cache.Invalidate(owner.Username)
	h.cache.Invalidate(p.Username)
	h.success(w, "Profile saved")
	http.Redirect(w, r, dashboardPath, http.StatusFound)
}
