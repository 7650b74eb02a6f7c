// Package iam resolves the caller identity asserted by the hosting platform.
//
// The Static Web Apps gateway authenticates users itself and forwards the
// result to the backend in the x-ms-client-principal header. This package
// turns that header into a Principal and never performs authentication of
// its own.
//
// Architecture:
//
//   - Authenticator interface: pluggable identity sources
//   - ClientPrincipalAuthenticator: decodes the platform header
//   - Principal struct: immutable resolution result
//   - Service interface: runs authenticators in order
//
// Request Flow:
//
//	Request → PrincipalMiddleware → Service.AuthenticateRequest() → Principal or anonymous
//	       ↓
//	   Handler → PrincipalFromContext()
//
// A missing or malformed header resolves to the anonymous caller. Only
// unexpected internal failures surface as errors.
package iam
