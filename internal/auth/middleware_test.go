package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/linksgo/linksgo/internal/db"
	"github.com/linksgo/linksgo/internal/models"
)

func testDB(t *testing.T) *db.DB {
	t.Helper()
	database, err := db.Open(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { database.Close() })
	return database
}

func testProfile(t *testing.T, d *db.DB) *models.Profile {
	t.Helper()
	p, err := models.ProvisionProfile(context.Background(), d, models.Identity{
		Provider: "google",
		Subject:  "sub-1",
		Email:    "owner@example.com",
	})
	if err != nil {
		t.Fatal(err)
	}
	return p
}

func sessionCookie(t *testing.T, s *Sessions, profileID string) *http.Cookie {
	t.Helper()
	token, err := s.Token(profileID, time.Now())
	if err != nil {
		t.Fatal(err)
	}
	return &http.Cookie{Name: SessionCookie, Value: token}
}

func TestRequire(t *testing.T) {
	d := testDB(t)
	p := testProfile(t, d)
	sessions := NewSessions(testSecret, time.Hour, false)
	gate := &Gate{Sessions: sessions, DB: d, Log: zap.NewNop()}

	var seen *models.Profile
	h := gate.Require(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = ProfileFrom(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	tests := []struct {
		name       string
		path       string
		cookie     *http.Cookie
		wantStatus int
		wantLoc    string
	}{
		{"api with session", "/api/links", sessionCookie(t, sessions, p.ID), http.StatusNoContent, ""},
		{"page with session", "/dashboard", sessionCookie(t, sessions, p.ID), http.StatusNoContent, ""},
		{"api without session", "/api/links", nil, http.StatusUnauthorized, ""},
		{"page without session", "/dashboard", nil, http.StatusFound, "/auth/signin"},
		{"deleted profile", "/api/profile", sessionCookie(t, sessions, "gone"), http.StatusUnauthorized, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seen = nil
			req := httptest.NewRequest("GET", tt.path, nil)
			if tt.cookie != nil {
				req.AddCookie(tt.cookie)
			}
			w := httptest.NewRecorder()
			h.ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", w.Code, tt.wantStatus)
			}
			if tt.wantLoc != "" && w.Header().Get("Location") != tt.wantLoc {
				t.Errorf("Location = %q, want %q", w.Header().Get("Location"), tt.wantLoc)
			}
			if tt.wantStatus == http.StatusNoContent {
				if seen == nil || seen.ID != p.ID {
					t.Errorf("profile in context = %v, want %s", seen, p.ID)
				}
				return
			}
			if seen != nil {
				t.Error("next handler ran without a session")
			}
			if tt.wantStatus == http.StatusUnauthorized {
				var body map[string]string
				if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
					t.Fatal(err)
				}
				if body["error"] != "unauthorized" {
					t.Errorf("error = %q, want unauthorized", body["error"])
				}
			}
		})
	}
}

func TestProfileFromEmptyContext(t *testing.T) {
	if p := ProfileFrom(context.Background()); p != nil {
		t.Errorf("ProfileFrom = %v, want nil", p)
	}
}
