package iam

import "context"

type principalContextKey struct{}

// WithPrincipal stores the resolved principal on the context for downstream handlers.
// A nil principal is stored as-is and marks the request as anonymous.
func WithPrincipal(ctx context.Context, principal *Principal) context.Context {
	return context.WithValue(ctx, principalContextKey{}, principal)
}

// PrincipalFromContext retrieves the principal stored by WithPrincipal.
// ok is false when the request is anonymous or resolution never ran.
func PrincipalFromContext(ctx context.Context) (principal *Principal, ok bool) {
	principal, _ = ctx.Value(principalContextKey{}).(*Principal)
	return principal, principal != nil
}
