package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/linksgo/linksgo/internal/db"
	"github.com/linksgo/linksgo/internal/models"
)

const (
	stateCookie     = "oauthstate"
	googleUserInfo  = "https://www.googleapis.com/oauth2/v2/userinfo"
	signInPath      = "/auth/signin"
	afterSignInPath = "/dashboard"
)

// Reasons shown on the sign-in page; upstream errors are only logged.
const (
	ReasonNotConfigured = "Google sign-in is not configured on this server."
	ReasonCancelled     = "Sign-in was cancelled."
	ReasonStateMismatch = "Your sign-in attempt expired. Please try again."
	ReasonExchange      = "We could not complete sign-in with Google. Please try again."
	ReasonNoEmail       = "Your Google account did not share an email address."
	ReasonProvision     = "We could not set up your profile. Please try again."
)

var signInReasons = map[string]bool{
	ReasonNotConfigured: true,
	ReasonCancelled:     true,
	ReasonStateMismatch: true,
	ReasonExchange:      true,
	ReasonNoEmail:       true,
	ReasonProvision:     true,
}

// IsSignInReason reports whether s is one of the reasons this package
// redirects with, so pages never echo arbitrary query text.
func IsSignInReason(s string) bool {
	return signInReasons[s]
}

type GoogleUser struct {
	ID            string `json:"id"`
	Email         string `json:"email"`
	VerifiedEmail bool   `json:"verified_email"`
	Name          string `json:"name"`
	Picture       string `json:"picture"`
}

type OAuthOptions struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
	Secure       bool

	// Endpoint and UserInfoURL default to Google's.
	Endpoint    oauth2.Endpoint
	UserInfoURL string
}

// OAuth runs the Google authorization code flow and provisions a profile
// on first sign-in.
type OAuth struct {
	config      *oauth2.Config
	userInfoURL string
	secure      bool

	Sessions *Sessions
	DB       *db.DB
	Log      *zap.Logger
}

func NewOAuth(opts OAuthOptions, sessions *Sessions, d *db.DB, log *zap.Logger) *OAuth {
	endpoint := opts.Endpoint
	if endpoint.AuthURL == "" {
		endpoint = google.Endpoint
	}
	userInfo := opts.UserInfoURL
	if userInfo == "" {
		userInfo = googleUserInfo
	}
	return &OAuth{
		config: &oauth2.Config{
			ClientID:     opts.ClientID,
			ClientSecret: opts.ClientSecret,
			RedirectURL:  opts.RedirectURL,
			Scopes: []string{
				"https://www.googleapis.com/auth/userinfo.email",
				"https://www.googleapis.com/auth/userinfo.profile",
			},
			Endpoint: endpoint,
		},
		userInfoURL: userInfo,
		secure:      opts.Secure,
		Sessions:    sessions,
		DB:          d,
		Log:         log,
	}
}

func (o *OAuth) enabled() bool {
	return o.config.ClientID != "" && o.config.ClientSecret != ""
}

// Login redirects to the provider's consent screen.
func (o *OAuth) Login(w http.ResponseWriter, r *http.Request) {
	if !o.enabled() {
		failSignIn(w, r, ReasonNotConfigured)
		return
	}
	state, err := o.setStateCookie(w)
	if err != nil {
		o.Log.Error("generate oauth state", zap.Error(err))
		failSignIn(w, r, ReasonExchange)
		return
	}
	http.Redirect(w, r, o.config.AuthCodeURL(state, oauth2.AccessTypeOnline), http.StatusFound)
}

// Callback completes the flow, provisions the profile and starts a session.
func (o *OAuth) Callback(w http.ResponseWriter, r *http.Request) {
	if !o.enabled() {
		failSignIn(w, r, ReasonNotConfigured)
		return
	}
	if e := r.FormValue("error"); e != "" {
		o.Log.Info("oauth provider returned error", zap.String("error", e))
		failSignIn(w, r, ReasonCancelled)
		return
	}

	cookie, err := r.Cookie(stateCookie)
	o.clearStateCookie(w)
	if err != nil || cookie.Value == "" || r.FormValue("state") != cookie.Value {
		o.Log.Warn("oauth state mismatch")
		failSignIn(w, r, ReasonStateMismatch)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 15*time.Second)
	defer cancel()

	token, err := o.config.Exchange(ctx, r.FormValue("code"))
	if err != nil {
		o.Log.Error("oauth code exchange", zap.Error(err))
		failSignIn(w, r, ReasonExchange)
		return
	}

	user, err := o.fetchUser(ctx, token)
	if err != nil {
		o.Log.Error("oauth user info", zap.Error(err))
		failSignIn(w, r, ReasonExchange)
		return
	}
	if user.ID == "" || user.Email == "" {
		failSignIn(w, r, ReasonNoEmail)
		return
	}

	p, err := models.ProvisionProfile(ctx, o.DB, models.Identity{
		Provider:  "google",
		Subject:   user.ID,
		Email:     user.Email,
		Name:      user.Name,
		AvatarURL: user.Picture,
	})
	if err != nil {
		o.Log.Error("provision profile", zap.Error(err), zap.String("subject", user.ID))
		failSignIn(w, r, ReasonProvision)
		return
	}

	if err := o.Sessions.Issue(w, p.ID); err != nil {
		o.Log.Error("issue session", zap.Error(err))
		failSignIn(w, r, ReasonProvision)
		return
	}
	o.Log.Info("signed in", zap.String("profile_id", p.ID), zap.String("username", p.Username))
	http.Redirect(w, r, afterSignInPath, http.StatusFound)
}

// Logout ends the session.
func (o *OAuth) Logout(w http.ResponseWriter, r *http.Request) {
	o.Sessions.Clear(w)
	http.Redirect(w, r, signInPath, http.StatusFound)
}

func (o *OAuth) fetchUser(ctx context.Context, token *oauth2.Token) (*GoogleUser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, o.userInfoURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := o.config.Client(ctx, token).Do(req)
	if err != nil {
		return nil, fmt.Errorf("get user info: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("get user info: status %d", resp.StatusCode)
	}
	var u GoogleUser
	if err := json.NewDecoder(resp.Body).Decode(&u); err != nil {
		return nil, fmt.Errorf("decode user info: %w", err)
	}
	u.Email = strings.TrimSpace(u.Email)
	return &u, nil
}

func (o *OAuth) setStateCookie(w http.ResponseWriter) (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	state := base64.RawURLEncoding.EncodeToString(b)
	http.SetCookie(w, &http.Cookie{
		Name:     stateCookie,
		Value:    state,
		Path:     "/auth",
		Expires:  time.Now().Add(10 * time.Minute),
		HttpOnly: true,
		Secure:   o.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return state, nil
}

func (o *OAuth) clearStateCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     stateCookie,
		Value:    "",
		Path:     "/auth",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   o.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func failSignIn(w http.ResponseWriter, r *http.Request, reason string) {
	http.Redirect(w, r, signInPath+"?"+url.Values{"error": {reason}}.Encode(), http.StatusFound)
}
