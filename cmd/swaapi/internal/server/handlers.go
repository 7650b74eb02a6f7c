package server

import (
	"log/slog"
	"net/http"

	"go.opentelemetry.io/otel/attribute"

	"github.com/Ryunosuke-Tanaka-sti/swa-api-deploy-bicep/cmd/swaapi/internal/services/iam"
	"github.com/Ryunosuke-Tanaka-sti/swa-api-deploy-bicep/cmd/swaapi/internal/services/userdata"
	"github.com/Ryunosuke-Tanaka-sti/swa-api-deploy-bicep/cmd/swaapi/internal/telemetry"
)

// UserInfoResponse is the body of GET /api/user-info. Identity fields are
// null for anonymous callers and Roles is always an array.
type UserInfoResponse struct {
	IsAuthenticated bool     `json:"isAuthenticated"`
	UserID          *string  `json:"userId"`
	Name            *string  `json:"name"`
	Email           *string  `json:"email"`
	Provider        *string  `json:"provider"`
	Roles           []string `json:"roles"`
}

// NewUserInfoResponse builds the identity view for p, or the anonymous view when p is nil.
// Name and Email both carry UserDetails; the platform does not separate them.
func NewUserInfoResponse(p *iam.Principal) UserInfoResponse {
	if p == nil {
		return UserInfoResponse{Roles: []string{}}
	}

	roles := p.Roles
	if roles == nil {
		roles = []string{}
	}
	userID, details, provider := p.UserID, p.UserDetails, p.IdentityProvider
	return UserInfoResponse{
		IsAuthenticated: true,
		UserID:          &userID,
		Name:            &details,
		Email:           &details,
		Provider:        &provider,
		Roles:           roles,
	}
}

// HandleUserInfo reports the caller's identity. It never gates access.
func HandleUserInfo(logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		principal, _ := iam.PrincipalFromContext(r.Context())
		writeJSON(w, r, logger, http.StatusOK, NewUserInfoResponse(principal))
	}
}

// HandleProtectedData returns the generated record for authenticated callers
// and 401 for everyone else.
func HandleProtectedData(gen *userdata.Generator, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		principal, ok := iam.PrincipalFromContext(r.Context())
		if !ok {
			writeJSON(w, r, logger, http.StatusUnauthorized, ErrorResponse{
				Error:   unauthorizedTitle,
				Message: unauthorizedMessage,
			})
			return
		}

		_, span := telemetry.StartSpan(r.Context(), telemetry.TracerServer, "userdata.Generate",
			attribute.String(telemetry.AttrUserID, principal.UserID),
		)
		record := gen.Generate(principal.UserID)
		span.SetAttributes(attribute.Int(telemetry.AttrUserNumber, record.UserNumber))
		span.End()

		writeJSON(w, r, logger, http.StatusOK, record)
	}
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status      string `json:"status"`
	GatewayMode string `json:"gateway_mode"`
}

func newHealthHandler(mode string, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, r, logger, http.StatusOK, HealthResponse{Status: "ok", GatewayMode: mode})
	}
}
