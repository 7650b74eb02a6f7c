package iam

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"log/slog"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ryunosuke-Tanaka-sti/swa-api-deploy-bicep/cmd/swaapi/internal/auth"
)

// mockAuthenticator allows tests to script authenticator results.
type mockAuthenticator struct {
	method       string
	authenticate func(ctx context.Context, req AuthRequest) (*Principal, error)
	calls        int
}

func (m *mockAuthenticator) Method() string { return m.method }

func (m *mockAuthenticator) Authenticate(ctx context.Context, req AuthRequest) (*Principal, error) {
	m.calls++
	return m.authenticate(ctx, req)
}

func encodedPrincipal(t *testing.T, cp auth.ClientPrincipal) string {
	t.Helper()
	v, err := auth.Encode(cp)
	require.NoError(t, err)
	return v
}

func requestWithHeader(value string) AuthRequest {
	h := http.Header{}
	if value != "" {
		h.Set(auth.HeaderName, value)
	}
	return AuthRequest{Headers: h}
}

func TestClientPrincipalAuthenticator(t *testing.T) {
	a := NewClientPrincipalAuthenticator()
	assert.Equal(t, MethodClientPrincipal, a.Method())

	t.Run("absent header", func(t *testing.T) {
		p, err := a.Authenticate(context.Background(), requestWithHeader(""))
		assert.NoError(t, err)
		assert.Nil(t, p)
	})

	t.Run("valid header", func(t *testing.T) {
		value := encodedPrincipal(t, auth.ClientPrincipal{
			IdentityProvider: "github",
			UserID:           "abc",
			UserDetails:      "octocat",
			UserRoles:        []string{"anonymous", "authenticated"},
		})

		p, err := a.Authenticate(context.Background(), requestWithHeader(value))
		require.NoError(t, err)
		require.NotNil(t, p)
		assert.Equal(t, "github", p.IdentityProvider)
		assert.Equal(t, "abc", p.UserID)
		assert.Equal(t, "octocat", p.UserDetails)
		assert.Equal(t, []string{"anonymous", "authenticated"}, p.Roles)
	})

	t.Run("header name is case-insensitive", func(t *testing.T) {
		value := encodedPrincipal(t, auth.ClientPrincipal{IdentityProvider: "aad", UserID: "u1", UserDetails: "x"})
		h := http.Header{}
		h.Set("X-MS-CLIENT-PRINCIPAL", value)

		p, err := a.Authenticate(context.Background(), AuthRequest{Headers: h})
		require.NoError(t, err)
		require.NotNil(t, p)
		assert.Equal(t, "u1", p.UserID)
		assert.Equal(t, []string{}, p.Roles)
	})

	t.Run("malformed header", func(t *testing.T) {
		p, err := a.Authenticate(context.Background(), requestWithHeader("%%%not-base64%%%"))
		assert.Nil(t, p)
		require.Error(t, err)
		assert.ErrorIs(t, err, auth.ErrMalformedPrincipal)
	})
}

func TestService_AuthenticateRequest(t *testing.T) {
	valid := encodedPrincipal(t, auth.ClientPrincipal{
		IdentityProvider: "github",
		UserID:           "abc",
		UserDetails:      "octocat",
		UserRoles:        []string{"authenticated"},
	})

	tests := []struct {
		name       string
		header     string
		wantUserID string
	}{
		{name: "present", header: valid, wantUserID: "abc"},
		{name: "absent", header: ""},
		{name: "not base64", header: "***"},
		{name: "not json", header: base64.StdEncoding.EncodeToString([]byte("not valid json"))},
		{name: "missing userId", header: base64.StdEncoding.EncodeToString([]byte(`{"identityProvider":"github","userDetails":"x"}`))},
		{name: "json null", header: base64.StdEncoding.EncodeToString([]byte(`null`))},
	}

	svc := NewService(ServiceConfig{}, NewClientPrincipalAuthenticator())

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := svc.AuthenticateRequest(context.Background(), requestWithHeader(tt.header))
			require.NoError(t, err)
			if tt.wantUserID == "" {
				assert.Nil(t, p)
				return
			}
			require.NotNil(t, p)
			assert.Equal(t, tt.wantUserID, p.UserID)
		})
	}
}

func TestService_MalformedIsLoggedWithoutValue(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	svc := NewService(ServiceConfig{Logger: logger}, NewClientPrincipalAuthenticator())

	secret := base64.StdEncoding.EncodeToString([]byte(`{"userId":42,"secret":"hunter2"}`))
	p, err := svc.AuthenticateRequest(context.Background(), requestWithHeader(secret))
	require.NoError(t, err)
	assert.Nil(t, p)

	out := buf.String()
	assert.Contains(t, out, `"stage":"schema"`)
	assert.NotContains(t, out, secret)
	assert.NotContains(t, out, "hunter2")
}

func TestService_AuthenticatorOrder(t *testing.T) {
	first := &mockAuthenticator{method: "first", authenticate: func(context.Context, AuthRequest) (*Principal, error) {
		return nil, nil
	}}
	second := &mockAuthenticator{method: "second", authenticate: func(context.Context, AuthRequest) (*Principal, error) {
		return &Principal{UserID: "from-second", Roles: []string{}}, nil
	}}
	third := &mockAuthenticator{method: "third", authenticate: func(context.Context, AuthRequest) (*Principal, error) {
		t.Fatal("third authenticator should not run")
		return nil, nil
	}}

	svc := NewService(ServiceConfig{}, first, second, third)
	p, err := svc.AuthenticateRequest(context.Background(), AuthRequest{Headers: http.Header{}})
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, "from-second", p.UserID)
	assert.Equal(t, 1, first.calls)
	assert.Equal(t, 1, second.calls)
	assert.Equal(t, 0, third.calls)
}

func TestService_UnexpectedErrorPropagates(t *testing.T) {
	boom := errors.New("boom")
	failing := &mockAuthenticator{method: "failing", authenticate: func(context.Context, AuthRequest) (*Principal, error) {
		return nil, boom
	}}

	svc := NewService(ServiceConfig{}, failing)
	p, err := svc.AuthenticateRequest(context.Background(), AuthRequest{Headers: http.Header{}})
	assert.Nil(t, p)
	assert.ErrorIs(t, err, boom)
}

func TestService_NoAuthenticators(t *testing.T) {
	svc := NewService(ServiceConfig{})
	p, err := svc.AuthenticateRequest(context.Background(), AuthRequest{Headers: http.Header{}})
	assert.NoError(t, err)
	assert.Nil(t, p)
}

func TestPrincipalContext(t *testing.T) {
	_, ok := PrincipalFromContext(context.Background())
	assert.False(t, ok)

	ctx := WithPrincipal(context.Background(), nil)
	p, ok := PrincipalFromContext(ctx)
	assert.False(t, ok)
	assert.Nil(t, p)

	want := &Principal{UserID: "abc", Roles: []string{"authenticated"}}
	p, ok = PrincipalFromContext(WithPrincipal(context.Background(), want))
	assert.True(t, ok)
	assert.Same(t, want, p)
	assert.True(t, p.HasRole("authenticated"))
	assert.False(t, p.HasRole("admin"))
}

func TestPrincipal_HasRoleNil(t *testing.T) {
	var p *Principal
	assert.False(t, p.HasRole("anonymous"))
}
