package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"jan-server/services/chat-ui/internal/domain/gateway"
	"jan-server/services/chat-ui/internal/interfaces/httpserver/responses"
)

// SettingsHandler serves the identity behind the service token.
type SettingsHandler struct {
	service gateway.Service
	log     zerolog.Logger
}

// NewSettingsHandler constructs the handler.
func NewSettingsHandler(service gateway.Service, log zerolog.Logger) *SettingsHandler {
	return &SettingsHandler{
		service: service,
		log:     log.With().Str("handler", "settings").Logger(),
	}
}

// Get handles GET /api/settings
func (h *SettingsHandler) Get(c *gin.Context) {
	p, err := h.service.Profile(c.Request.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("get settings failed")
		responses.HandleUpstreamError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}
