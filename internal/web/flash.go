package web

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
)

const (
	flashCookie = "linksgo_flash"
	flashPath   = "/dashboard"
)

type FlashKind string

const (
	FlashSuccess FlashKind = "success"
	FlashError   FlashKind = "error"
)

// Flash is a one-shot notice carried across a dashboard POST-redirect-GET.
// Field names the form input a validation error belongs to, if any.
type Flash struct {
	Kind    FlashKind `json:"k"`
	Message string    `json:"m"`
	Field   string    `json:"f,omitempty"`
}

func (f *Flash) valid() bool {
	return (f.Kind == FlashSuccess || f.Kind == FlashError) && f.Message != ""
}

func (h *Handler) setFlash(w http.ResponseWriter, f Flash) {
	raw, _ := json.Marshal(f)
	http.SetCookie(w, &http.Cookie{
		Name:     flashCookie,
		Value:    base64.RawURLEncoding.EncodeToString(raw),
		Path:     flashPath,
		MaxAge:   60,
		HttpOnly: true,
		Secure:   h.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *Handler) success(w http.ResponseWriter, msg string) {
	h.setFlash(w, Flash{Kind: FlashSuccess, Message: msg})
}

// takeFlash returns the pending flash, if any, and expires the cookie.
func (h *Handler) takeFlash(w http.ResponseWriter, r *http.Request) *Flash {
	cookie, err := r.Cookie(flashCookie)
	if err != nil {
		return nil
	}
	http.SetCookie(w, &http.Cookie{
		Name:     flashCookie,
		Path:     flashPath,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secure,
		SameSite: http.SameSiteLaxMode,
	})

	raw, err := base64.RawURLEncoding.DecodeString(cookie.Value)
	if err != nil {
		return nil
	}
	var f Flash
	if err := json.Unmarshal(raw, &f); err != nil || !f.valid() {
		return nil
	}
	return &f
}
