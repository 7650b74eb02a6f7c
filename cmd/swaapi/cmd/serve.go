package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/Ryunosuke-Tanaka-sti/swa-api-deploy-bicep/cmd/swaapi/internal/gateway"
	"github.com/Ryunosuke-Tanaka-sti/swa-api-deploy-bicep/cmd/swaapi/internal/server"
	"github.com/Ryunosuke-Tanaka-sti/swa-api-deploy-bicep/cmd/swaapi/internal/services/iam"
	"github.com/Ryunosuke-Tanaka-sti/swa-api-deploy-bicep/cmd/swaapi/internal/services/userdata"
	"github.com/Ryunosuke-Tanaka-sti/swa-api-deploy-bicep/cmd/swaapi/internal/telemetry"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the API server",
	Long:  `Starts the HTTP server exposing /api/user-info, /api/protected-data and /health.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := newLogger(os.Stderr, cfg)
		slog.SetDefault(logger)

		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}

		shutdownTelemetry, err := telemetry.Init(ctx, cfg.Observability, logger)
		if err != nil {
			return fmt.Errorf("failed to initialize telemetry: %w", err)
		}
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := shutdownTelemetry(ctx); err != nil {
				logger.Error("telemetry shutdown failed", "error", err)
			}
		}()

		serverMetrics, err := telemetry.NewServerMetrics(nil)
		if err != nil {
			return fmt.Errorf("failed to create server metrics: %w", err)
		}
		authMetrics, err := telemetry.NewAuthMetrics(nil)
		if err != nil {
			return fmt.Errorf("failed to create auth metrics: %w", err)
		}

		mode, err := gateway.ParseMode(cfg.Gateway.Mode)
		if err != nil {
			return err
		}

		var emulator *gateway.Emulator
		switch mode {
		case gateway.ModeEmulator:
			emulator, err = gateway.NewEmulator(cfg.Gateway, logger)
			if err != nil {
				return fmt.Errorf("failed to create gateway emulator: %w", err)
			}
			logger.Warn("gateway emulator enabled, do not expose this server publicly",
				"login_url", "/.auth/login/"+cfg.Gateway.Emulator.IdentityProvider)
		case gateway.ModeNone:
			logger.Info("gateway mode none, all callers are anonymous")
		case gateway.ModePlatform:
			logger.Info("trusting x-ms-client-principal from the platform gateway")
		}

		iamService := iam.NewService(
			iam.ServiceConfig{Logger: logger, Metrics: authMetrics},
			iam.NewClientPrincipalAuthenticator(),
		)

		corsOpts := server.DefaultCORSOptions()
		if len(cfg.CORS.AllowedOrigins) > 0 {
			corsOpts.AllowedOrigins = cfg.CORS.AllowedOrigins
		}

		handler := server.NewH2CHandler(server.RouterOptions{
			IAMService:  iamService,
			Generator:   userdata.NewGenerator(nil),
			GatewayMode: mode,
			Emulator:    emulator,
			Logger:      logger,
			Metrics:     serverMetrics,
			CORSOptions: &corsOpts,
		})

		srv := &http.Server{
			Addr:              cfg.ServerAddr,
			Handler:           handler,
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       15 * time.Second,
			WriteTimeout:      15 * time.Second,
			IdleTimeout:       60 * time.Second,
			ErrorLog:          slog.NewLogLogger(logger.Handler(), slog.LevelWarn),
		}

		// Start server in goroutine
		serverErrors := make(chan error, 1)
		go func() {
			logger.Info("starting server", "addr", cfg.ServerAddr, "gateway_mode", mode.String())
			serverErrors <- srv.ListenAndServe()
		}()

		shutdown := make(chan os.Signal, 1)
		signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)
		defer signal.Stop(shutdown)

		select {
		case err := <-serverErrors:
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return fmt.Errorf("server error: %w", err)

		case sig := <-shutdown:
			logger.Info("shutting down gracefully", "signal", sig.String(), "timeout", cfg.ShutdownTimeout)

			ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
			defer cancel()

			if err := srv.Shutdown(ctx); err != nil {
				_ = srv.Close()
				return fmt.Errorf("graceful shutdown failed: %w", err)
			}

			logger.Info("server stopped")
			return nil
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
