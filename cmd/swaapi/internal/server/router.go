package server

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/Ryunosuke-Tanaka-sti/swa-api-deploy-bicep/cmd/swaapi/internal/gateway"
	"github.com/Ryunosuke-Tanaka-sti/swa-api-deploy-bicep/cmd/swaapi/internal/middleware"
	"github.com/Ryunosuke-Tanaka-sti/swa-api-deploy-bicep/cmd/swaapi/internal/services/iam"
	"github.com/Ryunosuke-Tanaka-sti/swa-api-deploy-bicep/cmd/swaapi/internal/services/userdata"
	"github.com/Ryunosuke-Tanaka-sti/swa-api-deploy-bicep/cmd/swaapi/internal/telemetry"
)

// RouterOptions controls the construction of the API router.
// The zero value is valid; defaults are applied where fields are not set.
type RouterOptions struct {
	IAMService    iam.Service
	Generator     *userdata.Generator
	GatewayMode   gateway.Mode
	Emulator      *gateway.Emulator
	Logger        *slog.Logger
	Metrics       *telemetry.ServerMetrics
	CORSOptions   *cors.Options
	Middleware    []func(http.Handler) http.Handler
	HealthHandler http.HandlerFunc
}

// DefaultCORSOptions returns the development CORS policy for the front-end
// dev server and the local platform CLI.
func DefaultCORSOptions() cors.Options {
	return cors.Options{
		AllowedOrigins: []string{
			"http://localhost:3000",
			"http://localhost:4280",
		},
		AllowedMethods:   []string{http.MethodGet, http.MethodOptions},
		AllowedHeaders:   []string{"Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{middleware.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           300,
	}
}

// NewRouter assembles a chi.Router with shared middleware, the gateway
// boundary and the API handlers mounted.
func NewRouter(opts RouterOptions) chi.Router {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	svc := opts.IAMService
	if svc == nil {
		svc = iam.NewService(iam.ServiceConfig{Logger: logger}, iam.NewClientPrincipalAuthenticator())
	}
	gen := opts.Generator
	if gen == nil {
		gen = userdata.NewGenerator(nil)
	}
	onError := internalError(logger)

	r := chi.NewRouter()

	// Baseline middleware shared across entrypoints.
	r.Use(chimw.RequestID)
	r.Use(middleware.EchoRequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.RequestLogger(logger))
	r.Use(middleware.RequestMetrics(opts.Metrics))
	r.Use(chimw.Recoverer)

	corsCfg := DefaultCORSOptions()
	if opts.CORSOptions != nil {
		corsCfg = *opts.CORSOptions
	}
	r.Use(cors.Handler(corsCfg))

	// Everything below sees only headers the boundary lets through.
	r.Use(gateway.Boundary(opts.GatewayMode, opts.Emulator))

	for _, mw := range opts.Middleware {
		if mw != nil {
			r.Use(mw)
		}
	}

	if opts.GatewayMode == gateway.ModeEmulator && opts.Emulator != nil {
		opts.Emulator.Routes(r)
	}

	healthHandler := opts.HealthHandler
	if healthHandler == nil {
		healthHandler = newHealthHandler(opts.GatewayMode.String(), logger)
	}
	r.Get("/health", healthHandler)

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.Recoverer(logger, onError))
		r.Use(middleware.PrincipalMiddleware(svc, onError))

		r.Get("/user-info", HandleUserInfo(logger))
		r.Get("/protected-data", HandleProtectedData(gen, logger))
	})

	return r
}

// NewH2CHandler wraps the router with an h2c server to provide HTTP/2 over cleartext.
func NewH2CHandler(opts RouterOptions) http.Handler {
	return h2c.NewHandler(NewRouter(opts), &http2.Server{})
}
