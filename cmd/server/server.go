package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"jan-server/services/chat-ui/internal/config"
	"jan-server/services/chat-ui/internal/domain/gateway"
	"jan-server/services/chat-ui/internal/domain/token"
	"jan-server/services/chat-ui/internal/infrastructure/iam"
	"jan-server/services/chat-ui/internal/infrastructure/logger"
	"jan-server/services/chat-ui/internal/infrastructure/observability"
	"jan-server/services/chat-ui/internal/infrastructure/upstream"
	"jan-server/services/chat-ui/internal/interfaces/httpserver"
)

// Application is the chat gateway process.
type Application struct {
	httpServer *httpserver.HttpServer
	log        zerolog.Logger
}

func NewApplication(httpServer *httpserver.HttpServer, log zerolog.Logger) *Application {
	return &Application{
		httpServer: httpServer,
		log:        log,
	}
}

func (a *Application) Start(ctx context.Context) error {
	return a.httpServer.Run(ctx)
}

func main() {
	loadEnvFiles()

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	log := logger.New(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTelemetry, err := observability.Setup(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("initialize observability")
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := shutdownTelemetry(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("shutdown telemetry")
		}
	}()

	iamClient := iam.NewClient(cfg.TokenURL(), cfg.APIKey, cfg.TokenTimeout, log)
	tokenCache := token.NewCache(iamClient)
	upstreamClient := upstream.NewClient(cfg, log)
	gatewayService := gateway.NewService(tokenCache, upstreamClient, log)

	log.Info().
		Str("deployment", cfg.BaseDeploymentURL).
		Str("token_url", cfg.TokenURL()).
		Bool("staging", cfg.IsStaging()).
		Msg("gateway configured")

	httpServer := httpserver.New(cfg, log, gatewayService)
	app := NewApplication(httpServer, log)

	if err := app.Start(ctx); err != nil {
		log.Fatal().Err(err).Msg("application stopped with error")
	}

	log.Info().Msg("application exited cleanly")
}

func loadEnvFiles() {
	paths := []string{".env", "../.env"}
	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Overload(path); err != nil {
				fmt.Fprintf(os.Stderr, "warning: failed to load %s: %v\n", path, err)
			}
		}
	}
}
