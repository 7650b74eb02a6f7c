package middleware

import (
	"net/http"

	"github.com/Ryunosuke-Tanaka-sti/swa-api-deploy-bicep/cmd/swaapi/internal/services/iam"
)

// ErrorHandler writes the response for an internal failure.
type ErrorHandler func(w http.ResponseWriter, r *http.Request, err error)

// PrincipalMiddleware resolves the caller once per request and stores the
// result on the context.
//
// Flow:
//  1. Build AuthRequest from the (boundary-filtered) request headers
//  2. Call iamService.AuthenticateRequest()
//  3. Store the Principal, or nil for anonymous callers, via iam.WithPrincipal
//  4. Continue to next handler
//
// Anonymous requests are never rejected here. Endpoints that need an
// identity check iam.PrincipalFromContext themselves. An error from the
// service is an internal failure and is handed to onError.
func PrincipalMiddleware(iamService iam.Service, onError ErrorHandler) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			principal, err := iamService.AuthenticateRequest(ctx, iam.NewAuthRequest(r))
			if err != nil {
				onError(w, r, err)
				return
			}

			ctx = iam.WithPrincipal(ctx, principal)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
