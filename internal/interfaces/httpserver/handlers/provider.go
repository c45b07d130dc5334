package handlers

import (
	"github.com/rs/zerolog"

	"jan-server/services/chat-ui/internal/domain/gateway"
	"jan-server/services/chat-ui/internal/infrastructure/telemetry"
)

// Provider wires all HTTP handlers for dependency injection.
type Provider struct {
	Deployment *DeploymentHandler
	Settings   *SettingsHandler
	Generate   *GenerateHandler
	Theme      *ThemeHandler
}

// NewProvider constructs the handler provider with domain services.
func NewProvider(service gateway.Service, sanitizer *telemetry.Sanitizer, log zerolog.Logger) *Provider {
	return &Provider{
		Deployment: NewDeploymentHandler(service, log),
		Settings:   NewSettingsHandler(service, log),
		Generate:   NewGenerateHandler(service, sanitizer, log),
		Theme:      NewThemeHandler(log),
	}
}
