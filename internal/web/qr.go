package web

import (
	"bytes"
	"errors"
	"io"
	"net/http"
	"regexp"
	"strings"

	"github.com/go-chi/chi/v5"
	qrcode "github.com/yeqown/go-qrcode/v2"
	"github.com/yeqown/go-qrcode/writer/standard"
	"go.uber.org/zap"

	"github.com/linksgo/linksgo/internal/models"
)

var hexColorRe = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }

// ProfileQRCode renders a PNG QR code pointing at the public profile.
// Query: shape=circle, fg=#rrggbb, dl=1 for a download.
func (h *Handler) ProfileQRCode(w http.ResponseWriter, r *http.Request) {
	username := strings.ToLower(chi.URLParam(r, "username"))
	page, err := h.cache.Get(r.Context(), username)
	if errors.Is(err, models.ErrNotFound) {
		http.NotFound(w, r)
		return
	}
	if err != nil {
		h.log.Error("load profile for qr", zap.String("username", username), zap.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	q := r.URL.Query()
	opts := []standard.ImageOption{
		standard.WithBuiltinImageEncoder(standard.PNG_FORMAT),
		standard.WithQRWidth(10),
		standard.WithBorderWidth(20),
		standard.WithBgTransparent(),
	}
	if q.Get("shape") == "circle" {
		opts = append(opts, standard.WithCircleShape())
	}
	if fg := q.Get("fg"); hexColorRe.MatchString(fg) {
		opts = append(opts, standard.WithFgColorRGBHex(fg))
	}

	qrc, err := qrcode.New(h.baseURL + "/" + page.Profile.Username)
	if err != nil {
		h.log.Error("encode qr", zap.Error(err))
		http.Error(w, "failed to generate qr code", http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	if err := qrc.Save(standard.NewWithWriter(nopCloser{&buf}, opts...)); err != nil {
		h.log.Error("render qr", zap.Error(err))
		http.Error(w, "failed to render qr code", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "public, max-age=3600")
	if q.Get("dl") == "1" {
		w.Header().Set("Content-Disposition", `attachment; filename="`+page.Profile.Username+`-qr.png"`)
	}
	w.Write(buf.Bytes())
}
