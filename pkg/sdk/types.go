package sdk

import (
	"errors"
	"fmt"
)

// ClientPrincipal is the identity document carried in the x-ms-client-principal header.
type ClientPrincipal struct {
	IdentityProvider string   `json:"identityProvider"`
	UserID           string   `json:"userId"`
	UserDetails      string   `json:"userDetails"`
	UserRoles        []string `json:"userRoles"`
}

// UserInfo is the response of GET /api/user-info. Pointer fields are nil
// for anonymous callers.
type UserInfo struct {
	IsAuthenticated bool     `json:"isAuthenticated"`
	UserID          *string  `json:"userId"`
	Name            *string  `json:"name"`
	Email           *string  `json:"email"`
	Provider        *string  `json:"provider"`
	Roles           []string `json:"roles"`
}

// ProtectedData is the response of GET /api/protected-data.
type ProtectedData struct {
	UserID     string `json:"userId"`
	Message    string `json:"message"`
	Timestamp  string `json:"timestamp"`
	UserNumber int    `json:"userNumber"`
}

// MeResponse is the response of GET /.auth/me.
type MeResponse struct {
	ClientPrincipal *ClientPrincipal `json:"clientPrincipal"`
}

// ErrUnauthorized is returned when the server requires an authenticated caller.
var ErrUnauthorized = errors.New("unauthorized")

// APIError carries the {error, message} body of a failed API call.
type APIError struct {
	StatusCode int    `json:"-"`
	Code       string `json:"error"`
	Message    string `json:"message"`
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api error %d: %s", e.StatusCode, e.Code)
	}
	return fmt.Sprintf("api error %d: %s: %s", e.StatusCode, e.Code, e.Message)
}
