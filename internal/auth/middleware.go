package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/linksgo/linksgo/internal/db"
	"github.com/linksgo/linksgo/internal/models"
)

type ctxKey struct{}

// WithProfile returns a context carrying the signed-in profile.
func WithProfile(ctx context.Context, p *models.Profile) context.Context {
	return context.WithValue(ctx, ctxKey{}, p)
}

// ProfileFrom returns the signed-in profile, or nil outside Require.
func ProfileFrom(ctx context.Context) *models.Profile {
	p, _ := ctx.Value(ctxKey{}).(*models.Profile)
	return p
}

// Gate resolves the session cookie to a profile.
type Gate struct {
	Sessions *Sessions
	DB       *db.DB
	Log      *zap.Logger
}

// Current returns the profile behind the request's session.
func (g *Gate) Current(r *http.Request) (*models.Profile, error) {
	id, err := g.Sessions.ProfileID(r)
	if err != nil {
		return nil, err
	}
	p, err := models.GetProfileByID(r.Context(), g.DB, id)
	if errors.Is(err, models.ErrNotFound) {
		// account deleted while the cookie lived on
		return nil, ErrNoSession
	}
	return p, err
}

// Require rejects requests without a valid session: API calls get a 401
// JSON body, pages are redirected to the sign-in page.
func (g *Gate) Require(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p, err := g.Current(r)
		if err != nil {
			if !errors.Is(err, ErrNoSession) {
				g.Log.Error("load session profile", zap.Error(err))
			}
			g.Sessions.Clear(w)
			if isAPIRequest(r) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				json.NewEncoder(w).Encode(map[string]string{"error": "unauthorized"})
				return
			}
			http.Redirect(w, r, "/auth/signin", http.StatusFound)
			return
		}
		next.ServeHTTP(w, r.WithContext(WithProfile(r.Context(), p)))
	})
}

func isAPIRequest(r *http.Request) bool {
	return strings.HasPrefix(r.URL.Path, "/api/")
}
