package iam

import (
	"context"
	"errors"
	"fmt"

	"github.com/Ryunosuke-Tanaka-sti/swa-api-deploy-bicep/cmd/swaapi/internal/auth"
)

// MethodClientPrincipal identifies the platform header authenticator in telemetry.
const MethodClientPrincipal = "client_principal"

// ClientPrincipalAuthenticator resolves identity from the x-ms-client-principal header.
//
// The header is trusted as-is. Stripping client-supplied copies is the job
// of the gateway boundary in front of this authenticator.
type ClientPrincipalAuthenticator struct {
	headerName string
}

// NewClientPrincipalAuthenticator creates an authenticator reading auth.HeaderName.
func NewClientPrincipalAuthenticator() *ClientPrincipalAuthenticator {
	return &ClientPrincipalAuthenticator{headerName: auth.HeaderName}
}

// Method implements Authenticator.
func (a *ClientPrincipalAuthenticator) Method() string { return MethodClientPrincipal }

// Authenticate implements Authenticator.
//
// Returns (nil, nil) when the header is absent or empty, and an error
// matching auth.ErrMalformedPrincipal when it cannot be decoded.
func (a *ClientPrincipalAuthenticator) Authenticate(_ context.Context, req AuthRequest) (*Principal, error) {
	value := req.Headers.Get(a.headerName)

	cp, err := auth.Decode(value)
	if errors.Is(err, auth.ErrHeaderAbsent) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("decode %s header: %w", a.headerName, err)
	}

	roles := make([]string, len(cp.UserRoles))
	copy(roles, cp.UserRoles)

	return &Principal{
		IdentityProvider: cp.IdentityProvider,
		UserID:           cp.UserID,
		UserDetails:      cp.UserDetails,
		Roles:            roles,
	}, nil
}
