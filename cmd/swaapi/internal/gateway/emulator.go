package gateway

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/gorilla/securecookie"

	"github.com/Ryunosuke-Tanaka-sti/swa-api-deploy-bicep/cmd/swaapi/internal/auth"
	"github.com/Ryunosuke-Tanaka-sti/swa-api-deploy-bicep/cmd/swaapi/internal/config"
)

const (
	// SessionCookieName matches the cookie the hosted platform uses.
	SessionCookieName = "StaticWebAppsAuthCookie"

	sessionMaxAge = 8 * time.Hour

	// Built-in roles every signed-in platform user carries.
	RoleAnonymous     = "anonymous"
	RoleAuthenticated = "authenticated"
)

// userIDNamespace scopes derived emulator user IDs.
var userIDNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://azure.github.io/static-web-apps-cli/"))

// Emulator stands in for the platform's /.auth endpoints during local development.
type Emulator struct {
	identity config.EmulatorConfig
	codec    *securecookie.SecureCookie
	logger   *slog.Logger
}

// NewEmulator builds an emulator signing in the identity from cfg.Emulator.
// When cfg.CookieHashKey is empty a random key is generated, so sessions do
// not survive a restart.
func NewEmulator(cfg config.GatewayConfig, logger *slog.Logger) (*Emulator, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Emulator.UserDetails == "" {
		return nil, fmt.Errorf("emulator requires user_details")
	}

	hashKey := []byte(cfg.CookieHashKey)
	if len(hashKey) == 0 {
		hashKey = securecookie.GenerateRandomKey(32)
		if hashKey == nil {
			return nil, fmt.Errorf("generate emulator cookie hash key")
		}
		logger.Warn("gateway.cookie_hash_key not set, emulator sessions are valid for this process only")
	}

	var blockKey []byte
	if cfg.CookieBlockKey != "" {
		blockKey = []byte(cfg.CookieBlockKey)
	}

	codec := securecookie.New(hashKey, blockKey)
	codec.SetSerializer(securecookie.JSONEncoder{})
	codec.MaxAge(int(sessionMaxAge.Seconds()))

	return &Emulator{identity: cfg.Emulator, codec: codec, logger: logger}, nil
}

// Routes mounts the emulated /.auth endpoints on r.
func (e *Emulator) Routes(r chi.Router) {
	r.Get("/.auth/login/{provider}", e.handleLogin)
	r.Get("/.auth/logout", e.handleLogout)
	r.Get("/.auth/me", e.handleMe)
}

// Principal returns the principal for the session cookie on r, if valid.
func (e *Emulator) Principal(r *http.Request) (*auth.ClientPrincipal, bool) {
	cookie, err := r.Cookie(SessionCookieName)
	if err != nil {
		return nil, false
	}

	var cp auth.ClientPrincipal
	if err := e.codec.Decode(SessionCookieName, cookie.Value, &cp); err != nil {
		e.logger.DebugContext(r.Context(), "ignoring invalid emulator session cookie", "error", err)
		return nil, false
	}
	if cp.UserID == "" {
		return nil, false
	}
	if cp.UserRoles == nil {
		cp.UserRoles = []string{}
	}
	return &cp, true
}

// HeaderValue returns the encoded principal header for the session on r.
func (e *Emulator) HeaderValue(r *http.Request) (string, bool) {
	cp, ok := e.Principal(r)
	if !ok {
		return "", false
	}
	value, err := auth.Encode(*cp)
	if err != nil {
		e.logger.ErrorContext(r.Context(), "encode emulator principal", "error", err)
		return "", false
	}
	return value, true
}

// SignIn builds the principal the emulator issues for provider.
func (e *Emulator) SignIn(provider string) auth.ClientPrincipal {
	userID := e.identity.UserID
	if userID == "" {
		userID = DeriveUserID(provider, e.identity.UserDetails)
	}

	roles := []string{RoleAnonymous, RoleAuthenticated}
	for _, role := range e.identity.Roles {
		if !contains(roles, role) {
			roles = append(roles, role)
		}
	}

	return auth.ClientPrincipal{
		IdentityProvider: provider,
		UserID:           userID,
		UserDetails:      e.identity.UserDetails,
		UserRoles:        roles,
	}
}

// DeriveUserID returns a stable 32-character hex ID for provider and details.
func DeriveUserID(provider, details string) string {
	id := uuid.NewSHA1(userIDNamespace, []byte(provider+":"+details))
	return strings.ReplaceAll(id.String(), "-", "")
}

func (e *Emulator) handleLogin(w http.ResponseWriter, r *http.Request) {
	provider := chi.URLParam(r, "provider")
	if provider == "" {
		provider = e.identity.IdentityProvider
	}

	cp := e.SignIn(provider)
	encoded, err := e.codec.Encode(SessionCookieName, cp)
	if err != nil {
		e.logger.ErrorContext(r.Context(), "encode emulator session", "error", err)
		http.Error(w, "failed to create session", http.StatusInternalServerError)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    encoded,
		Path:     "/",
		MaxAge:   int(sessionMaxAge.Seconds()),
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})

	e.logger.InfoContext(r.Context(), "emulator login",
		"provider", cp.IdentityProvider,
		"user_id", cp.UserID,
	)
	http.Redirect(w, r, safeRedirect(r.URL.Query().Get("post_login_redirect_uri")), http.StatusFound)
}

func (e *Emulator) handleLogout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, safeRedirect(r.URL.Query().Get("post_logout_redirect_uri")), http.StatusFound)
}

// meResponse mirrors the platform's /.auth/me body.
type meResponse struct {
	ClientPrincipal *auth.ClientPrincipal `json:"clientPrincipal"`
}

func (e *Emulator) handleMe(w http.ResponseWriter, r *http.Request) {
	cp, _ := e.Principal(r)

	body, err := json.Marshal(meResponse{ClientPrincipal: cp})
	if err != nil {
		http.Error(w, "failed to encode principal", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

// safeRedirect accepts only same-origin absolute paths and falls back to "/".
func safeRedirect(target string) string {
	if target == "" || !strings.HasPrefix(target, "/") || strings.HasPrefix(target, "//") || strings.HasPrefix(target, "/\\") {
		return "/"
	}
	u, err := url.Parse(target)
	if err != nil || u.IsAbs() || u.Host != "" {
		return "/"
	}
	return target
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
