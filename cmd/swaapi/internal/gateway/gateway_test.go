package gateway

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"regexp"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ryunosuke-Tanaka-sti/swa-api-deploy-bicep/cmd/swaapi/internal/auth"
	"github.com/Ryunosuke-Tanaka-sti/swa-api-deploy-bicep/cmd/swaapi/internal/config"
)

var quietLogger = slog.New(slog.DiscardHandler)

func newTestEmulator(t *testing.T, identity config.EmulatorConfig) *Emulator {
	t.Helper()
	emu, err := NewEmulator(config.GatewayConfig{
		Mode:          config.GatewayModeEmulator,
		CookieHashKey: "0123456789abcdef0123456789abcdef",
		Emulator:      identity,
	}, quietLogger)
	require.NoError(t, err)
	return emu
}

// echoHeader reports the principal header the downstream handler observed.
var echoHeader = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	_, _ = io.WriteString(w, r.Header.Get(auth.HeaderName))
})

func TestParseMode(t *testing.T) {
	tests := []struct {
		in      string
		want    Mode
		wantErr bool
	}{
		{in: "platform", want: ModePlatform},
		{in: "emulator", want: ModeEmulator},
		{in: "none", want: ModeNone},
		{in: "", want: ModeNone},
		{in: "PLATFORM", wantErr: true},
		{in: "open", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseMode(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
	assert.Equal(t, "none", Mode("").String())
}

func TestBoundary_HeaderHandling(t *testing.T) {
	emu := newTestEmulator(t, config.EmulatorConfig{UserDetails: "octocat"})

	tests := []struct {
		name string
		mode Mode
		want string
	}{
		{name: "platform passes header through", mode: ModePlatform, want: "client-value"},
		{name: "none strips header", mode: ModeNone, want: ""},
		{name: "zero value strips header", mode: "", want: ""},
		{name: "emulator strips client header without session", mode: ModeEmulator, want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/user-info", nil)
			req.Header.Set(auth.HeaderName, "client-value")
			rec := httptest.NewRecorder()

			Boundary(tt.mode, emu)(echoHeader).ServeHTTP(rec, req)

			assert.Equal(t, tt.want, rec.Body.String())
			// The caller's request is left untouched.
			assert.Equal(t, "client-value", req.Header.Get(auth.HeaderName))
		})
	}
}

func TestEmulator_LoginSessionLogout(t *testing.T) {
	emu := newTestEmulator(t, config.EmulatorConfig{
		IdentityProvider: "github",
		UserDetails:      "octocat",
		Roles:            []string{"admin", "authenticated"},
	})

	r := chi.NewRouter()
	r.Use(Boundary(ModeEmulator, emu))
	emu.Routes(r)
	r.Get("/echo", echoHeader)

	// Login sets the session cookie and redirects.
	login := httptest.NewRequest(http.MethodGet, "/.auth/login/aad?post_login_redirect_uri=/dashboard", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, login)

	require.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/dashboard", rec.Header().Get("Location"))
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	session := cookies[0]
	assert.Equal(t, SessionCookieName, session.Name)
	assert.True(t, session.HttpOnly)

	// A forged header is replaced by the session's principal.
	req := httptest.NewRequest(http.MethodGet, "/echo", nil)
	req.Header.Set(auth.HeaderName, "forged")
	req.AddCookie(session)
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	cp, err := auth.Decode(rec.Body.String())
	require.NoError(t, err)
	assert.Equal(t, "aad", cp.IdentityProvider)
	assert.Equal(t, "octocat", cp.UserDetails)
	assert.Equal(t, DeriveUserID("aad", "octocat"), cp.UserID)
	assert.Equal(t, []string{RoleAnonymous, RoleAuthenticated, "admin"}, cp.UserRoles)

	// /.auth/me reports the session.
	req = httptest.NewRequest(http.MethodGet, "/.auth/me", nil)
	req.AddCookie(session)
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var me struct {
		ClientPrincipal *auth.ClientPrincipal `json:"clientPrincipal"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &me))
	require.NotNil(t, me.ClientPrincipal)
	assert.Equal(t, cp.UserID, me.ClientPrincipal.UserID)

	// Logout expires the cookie.
	req = httptest.NewRequest(http.MethodGet, "/.auth/logout?post_logout_redirect_uri=https://evil.example", nil)
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))
	cookies = rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, -1, cookies[0].MaxAge)
}

func TestEmulator_MeWithoutSession(t *testing.T) {
	emu := newTestEmulator(t, config.EmulatorConfig{UserDetails: "octocat"})
	r := chi.NewRouter()
	emu.Routes(r)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/.auth/me", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"clientPrincipal":null}`, rec.Body.String())
}

func TestEmulator_RejectsTamperedCookie(t *testing.T) {
	emu := newTestEmulator(t, config.EmulatorConfig{UserDetails: "octocat"})
	other, err := NewEmulator(config.GatewayConfig{
		CookieHashKey: "another-key-another-key-another!!",
		Emulator:      config.EmulatorConfig{UserDetails: "mallory"},
	}, quietLogger)
	require.NoError(t, err)

	encoded, err := other.codec.Encode(SessionCookieName, other.SignIn("github"))
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: encoded})

	_, ok := emu.Principal(req)
	assert.False(t, ok)

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: "garbage"})
	_, ok = emu.HeaderValue(req)
	assert.False(t, ok)
}

func TestEmulator_ConfiguredUserID(t *testing.T) {
	emu := newTestEmulator(t, config.EmulatorConfig{UserID: "fixed-id", UserDetails: "octocat"})
	cp := emu.SignIn("github")
	assert.Equal(t, "fixed-id", cp.UserID)
	assert.Equal(t, []string{RoleAnonymous, RoleAuthenticated}, cp.UserRoles)
}

func TestNewEmulator_RequiresUserDetails(t *testing.T) {
	_, err := NewEmulator(config.GatewayConfig{}, quietLogger)
	assert.Error(t, err)
}

func TestNewEmulator_RandomHashKey(t *testing.T) {
	emu, err := NewEmulator(config.GatewayConfig{Emulator: config.EmulatorConfig{UserDetails: "octocat"}}, quietLogger)
	require.NoError(t, err)
	encoded, err := emu.codec.Encode(SessionCookieName, emu.SignIn("github"))
	require.NoError(t, err)
	assert.NotEmpty(t, encoded)
}

func TestDeriveUserID(t *testing.T) {
	id := DeriveUserID("github", "octocat")
	assert.Regexp(t, regexp.MustCompile(`^[0-9a-f]{32}$`), id)
	assert.Equal(t, id, DeriveUserID("github", "octocat"))
	assert.NotEqual(t, id, DeriveUserID("aad", "octocat"))
	assert.NotEqual(t, id, DeriveUserID("github", "hubot"))
}

func TestSafeRedirect(t *testing.T) {
	tests := map[string]string{
		"":                     "/",
		"/":                    "/",
		"/app?tab=1":           "/app?tab=1",
		"https://evil.example": "/",
		"//evil.example":       "/",
		"/\\evil.example":      "/",
		"relative/path":        "/",
		"javascript:alert(1)":  "/",
	}
	for in, want := range tests {
		assert.Equal(t, want, safeRedirect(in), "input %q", in)
	}
}
