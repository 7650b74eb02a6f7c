package iam

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/Ryunosuke-Tanaka-sti/swa-api-deploy-bicep/cmd/swaapi/internal/auth"
	"github.com/Ryunosuke-Tanaka-sti/swa-api-deploy-bicep/cmd/swaapi/internal/telemetry"
)

// Service resolves the caller of a request.
type Service interface {
	// AuthenticateRequest tries all registered authenticators in order.
	//
	// Returns:
	//   - (principal, nil): identity resolved
	//   - (nil, nil): anonymous caller (no header, or a malformed one)
	//   - (nil, error): unexpected internal failure
	AuthenticateRequest(ctx context.Context, req AuthRequest) (*Principal, error)
}

// ServiceConfig holds the optional collaborators of the IAM service.
type ServiceConfig struct {
	Logger  *slog.Logger
	Metrics *telemetry.AuthMetrics
}

type iamService struct {
	authenticators []Authenticator
	logger         *slog.Logger
	metrics        *telemetry.AuthMetrics
}

// NewService creates the IAM service. Authenticators are tried in the order given.
func NewService(cfg ServiceConfig, authenticators ...Authenticator) Service {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &iamService{
		authenticators: authenticators,
		logger:         logger,
		metrics:        cfg.Metrics,
	}
}

// AuthenticateRequest implements Service.
func (s *iamService) AuthenticateRequest(ctx context.Context, req AuthRequest) (*Principal, error) {
	ctx, span := telemetry.StartSpan(ctx, telemetry.TracerIAM, "iam.AuthenticateRequest",
		attribute.Int("authenticator_count", len(s.authenticators)),
	)
	defer span.End()

	for i, authenticator := range s.authenticators {
		start := time.Now()
		principal, err := authenticator.Authenticate(ctx, req)
		elapsed := float64(time.Since(start).Microseconds()) / 1000

		switch {
		case errors.Is(err, auth.ErrMalformedPrincipal):
			// Never log the header value.
			s.logger.DebugContext(ctx, "client principal rejected, treating caller as anonymous",
				"method", authenticator.Method(),
				"stage", decodeStage(err),
			)
			s.metrics.RecordResolution(ctx, authenticator.Method(), telemetry.AuthOutcomeMalformed, elapsed)
			span.SetAttributes(attribute.String(telemetry.AttrAuthOutcome, telemetry.AuthOutcomeMalformed))
			telemetry.AddEvent(span, "authentication.malformed",
				attribute.Int("authenticator_index", i),
			)
			return nil, nil

		case err != nil:
			s.metrics.RecordResolution(ctx, authenticator.Method(), telemetry.AuthOutcomeError, elapsed)
			telemetry.RecordError(span, err)
			return nil, err

		case principal != nil:
			s.metrics.RecordResolution(ctx, authenticator.Method(), telemetry.AuthOutcomePresent, elapsed)
			span.SetAttributes(
				attribute.String(telemetry.AttrAuthOutcome, telemetry.AuthOutcomePresent),
				attribute.String(telemetry.AttrUserID, principal.UserID),
				attribute.String(telemetry.AttrIdentityProvider, principal.IdentityProvider),
			)
			telemetry.AddEvent(span, "authentication.succeeded",
				attribute.Int("authenticator_index", i),
			)
			return principal, nil
		}

		s.metrics.RecordResolution(ctx, authenticator.Method(), telemetry.AuthOutcomeAbsent, elapsed)
	}

	span.SetAttributes(attribute.String(telemetry.AttrAuthOutcome, telemetry.AuthOutcomeAbsent))
	telemetry.AddEvent(span, "authentication.no_credentials")
	return nil, nil
}

func decodeStage(err error) string {
	var de *auth.DecodeError
	if errors.As(err, &de) {
		return de.Stage
	}
	return "unknown"
}
