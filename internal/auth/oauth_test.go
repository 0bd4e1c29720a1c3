package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"
	"golang.org/x/oauth2"

	"github.com/linksgo/linksgo/internal/db"
	"github.com/linksgo/linksgo/internal/models"
)

type fakeGoogle struct {
	*httptest.Server
	user      GoogleUser
	tokenFail bool
}

func newFakeGoogle(t *testing.T, user GoogleUser) *fakeGoogle {
	t.Helper()
	f := &fakeGoogle{user: user}
	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		if f.tokenFail || r.FormValue("code") != "good-code" {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusBadRequest)
			json.NewEncoder(w).Encode(map[string]string{"error": "invalid_grant"})
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"access_token": "access-123",
			"token_type":   "Bearer",
			"expires_in":   3600,
		})
	})
	mux.HandleFunc("/userinfo", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer access-123" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		json.NewEncoder(w).Encode(f.user)
	})
	f.Server = httptest.NewServer(mux)
	t.Cleanup(f.Close)
	return f
}

func newTestOAuth(t *testing.T, d *db.DB, f *fakeGoogle) *OAuth {
	t.Helper()
	return NewOAuth(OAuthOptions{
		ClientID:     "client",
		ClientSecret: "secret",
		RedirectURL:  "http://localhost:8080/auth/callback",
		Endpoint: oauth2.Endpoint{
			AuthURL:   f.URL + "/auth",
			TokenURL:  f.URL + "/token",
			AuthStyle: oauth2.AuthStyleInParams,
		},
		UserInfoURL: f.URL + "/userinfo",
	}, NewSessions(testSecret, time.Hour, false), d, zap.NewNop())
}

func callbackRequest(state, cookieState, code string) *http.Request {
	q := url.Values{"state": {state}, "code": {code}}
	req := httptest.NewRequest("GET", "/auth/callback?"+q.Encode(), nil)
	if cookieState != "" {
		req.AddCookie(&http.Cookie{Name: stateCookie, Value: cookieState})
	}
	return req
}

func signInError(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	if w.Code != http.StatusFound {
		t.Fatalf("status = %d, want 302", w.Code)
	}
	loc, err := url.Parse(w.Header().Get("Location"))
	if err != nil {
		t.Fatal(err)
	}
	if loc.Path != "/auth/signin" {
		t.Fatalf("Location = %q, want /auth/signin", loc)
	}
	return loc.Query().Get("error")
}

func TestLoginRedirects(t *testing.T) {
	f := newFakeGoogle(t, GoogleUser{})
	o := newTestOAuth(t, testDB(t), f)

	w := httptest.NewRecorder()
	o.Login(w, httptest.NewRequest("GET", "/auth/google", nil))

	if w.Code != http.StatusFound {
		t.Fatalf("status = %d, want 302", w.Code)
	}
	loc, _ := url.Parse(w.Header().Get("Location"))
	if !strings.HasPrefix(loc.String(), f.URL+"/auth") {
		t.Errorf("Location = %q, want provider auth URL", loc)
	}

	var state *http.Cookie
	for _, c := range w.Result().Cookies() {
		if c.Name == stateCookie {
			state = c
		}
	}
	if state == nil || state.Value == "" {
		t.Fatal("state cookie not set")
	}
	if got := loc.Query().Get("state"); got != state.Value {
		t.Errorf("state param = %q, want cookie value %q", got, state.Value)
	}
	if loc.Query().Get("client_id") != "client" {
		t.Errorf("client_id = %q, want client", loc.Query().Get("client_id"))
	}
}

func TestLoginNotConfigured(t *testing.T) {
	o := NewOAuth(OAuthOptions{}, NewSessions(testSecret, time.Hour, false), testDB(t), zap.NewNop())
	w := httptest.NewRecorder()
	o.Login(w, httptest.NewRequest("GET", "/auth/google", nil))
	if got := signInError(t, w); got != ReasonNotConfigured {
		t.Errorf("error = %q, want %q", got, ReasonNotConfigured)
	}
}

func TestCallbackProvisionsAndSignsIn(t *testing.T) {
	d := testDB(t)
	f := newFakeGoogle(t, GoogleUser{ID: "g-42", Email: "Jane.Doe@example.com", Name: "Jane Doe", Picture: "https://example.com/j.png"})
	o := newTestOAuth(t, d, f)

	w := httptest.NewRecorder()
	o.Callback(w, callbackRequest("s1", "s1", "good-code"))

	if w.Code != http.StatusFound {
		t.Fatalf("status = %d, want 302", w.Code)
	}
	if loc := w.Header().Get("Location"); loc != "/dashboard" {
		t.Fatalf("Location = %q, want /dashboard", loc)
	}

	var session *http.Cookie
	for _, c := range w.Result().Cookies() {
		if c.Name == SessionCookie {
			session = c
		}
	}
	if session == nil {
		t.Fatal("session cookie not set")
	}
	req := httptest.NewRequest("GET", "/dashboard", nil)
	req.AddCookie(session)
	id, err := o.Sessions.ProfileID(req)
	if err != nil {
		t.Fatal(err)
	}

	p, err := models.GetProfileByID(context.Background(), d, id)
	if err != nil {
		t.Fatal(err)
	}
	if p.Username != "janedoe" {
		t.Errorf("username = %q, want janedoe", p.Username)
	}
	if p.DisplayName != "Jane Doe" {
		t.Errorf("display name = %q, want Jane Doe", p.DisplayName)
	}

	// second sign-in lands on the same profile
	w = httptest.NewRecorder()
	o.Callback(w, callbackRequest("s2", "s2", "good-code"))
	for _, c := range w.Result().Cookies() {
		if c.Name == SessionCookie {
			req := httptest.NewRequest("GET", "/", nil)
			req.AddCookie(c)
			again, _ := o.Sessions.ProfileID(req)
			if again != id {
				t.Errorf("second sign-in profile = %q, want %q", again, id)
			}
		}
	}
}

func TestCallbackFailures(t *testing.T) {
	tests := []struct {
		name   string
		user   GoogleUser
		req    func() *http.Request
		broken bool
		want   string
	}{
		{
			name: "provider error",
			req: func() *http.Request {
				return httptest.NewRequest("GET", "/auth/callback?error=access_denied", nil)
			},
			want: ReasonCancelled,
		},
		{
			name: "missing state cookie",
			req:  func() *http.Request { return callbackRequest("s1", "", "good-code") },
			want: ReasonStateMismatch,
		},
		{
			name: "state mismatch",
			req:  func() *http.Request { return callbackRequest("s1", "s2", "good-code") },
			want: ReasonStateMismatch,
		},
		{
			name: "bad code",
			req:  func() *http.Request { return callbackRequest("s1", "s1", "bad-code") },
			want: ReasonExchange,
		},
		{
			name:   "token endpoint down",
			req:    func() *http.Request { return callbackRequest("s1", "s1", "good-code") },
			broken: true,
			want:   ReasonExchange,
		},
		{
			name: "no email",
			user: GoogleUser{ID: "g-1"},
			req:  func() *http.Request { return callbackRequest("s1", "s1", "good-code") },
			want: ReasonNoEmail,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFakeGoogle(t, tt.user)
			f.tokenFail = tt.broken
			o := newTestOAuth(t, testDB(t), f)

			w := httptest.NewRecorder()
			o.Callback(w, tt.req())
			if got := signInError(t, w); got != tt.want {
				t.Errorf("error = %q, want %q", got, tt.want)
			}
			for _, c := range w.Result().Cookies() {
				if c.Name == SessionCookie {
					t.Error("session cookie set on failed sign-in")
				}
			}
		})
	}
}

func TestLogout(t *testing.T) {
	o := NewOAuth(OAuthOptions{}, NewSessions(testSecret, time.Hour, false), testDB(t), zap.NewNop())
	w := httptest.NewRecorder()
	o.Logout(w, httptest.NewRequest("POST", "/auth/logout", nil))

	if w.Code != http.StatusFound || w.Header().Get("Location") != "/auth/signin" {
		t.Errorf("status = %d Location = %q, want 302 /auth/signin", w.Code, w.Header().Get("Location"))
	}
	if !strings.Contains(w.Header().Get("Set-Cookie"), "Max-Age=0") {
		t.Error("session cookie not cleared")
	}
}
