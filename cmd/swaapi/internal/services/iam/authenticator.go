package iam

import (
	"context"
	"net/http"
)

// Authenticator extracts an identity from request data.
//
// Implementations:
//   - ClientPrincipalAuthenticator: decodes the x-ms-client-principal header
//
// Return values:
//   - (principal, nil): identity resolved
//   - (nil, nil): credentials not present (try next authenticator)
//   - (nil, error): credentials present but unusable
type Authenticator interface {
	// Authenticate returns the principal carried by req, if any.
	Authenticate(ctx context.Context, req AuthRequest) (*Principal, error)

	// Method names the authenticator for telemetry, e.g. "client_principal".
	Method() string
}

// AuthRequest wraps HTTP request data for authenticator implementations.
type AuthRequest struct {
	// Headers contains HTTP headers as seen after the gateway boundary.
	Headers http.Header
}

// NewAuthRequest captures the parts of r that authenticators read.
func NewAuthRequest(r *http.Request) AuthRequest {
	return AuthRequest{Headers: r.Header}
}
