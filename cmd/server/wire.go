//go:build wireinject

package main

import (
	"github.com/google/wire"
	"github.com/rs/zerolog"

	"jan-server/services/chat-ui/internal/config"
	"jan-server/services/chat-ui/internal/domain/gateway"
	"jan-server/services/chat-ui/internal/domain/token"
	"jan-server/services/chat-ui/internal/infrastructure/iam"
	"jan-server/services/chat-ui/internal/infrastructure/logger"
	"jan-server/services/chat-ui/internal/infrastructure/upstream"
	"jan-server/services/chat-ui/internal/interfaces/httpserver"
)

var gatewaySet = wire.NewSet(
	newIAMClient,
	wire.Bind(new(token.Fetcher), new(*iam.Client)),
	newTokenCache,
	wire.Bind(new(gateway.TokenSource), new(*token.Cache)),
	upstream.NewClient,
	wire.Bind(new(gateway.Upstream), new(*upstream.Client)),
	gateway.NewService,
)

// BuildApplication assembles the chat gateway with Wire.
func BuildApplication() (*Application, error) {
	wire.Build(
		config.Load,
		logger.New,
		gatewaySet,
		httpserver.New,
		NewApplication,
	)
	return nil, nil
}

func newIAMClient(cfg *config.Config, log zerolog.Logger) *iam.Client {
	return iam.NewClient(cfg.TokenURL(), cfg.APIKey, cfg.TokenTimeout, log)
}

func newTokenCache(fetcher token.Fetcher) *token.Cache {
	return token.NewCache(fetcher)
}
