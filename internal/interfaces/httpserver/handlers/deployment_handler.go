package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"jan-server/services/chat-ui/internal/domain/gateway"
	"jan-server/services/chat-ui/internal/interfaces/httpserver/responses"
)

// DeploymentHandler serves the deployment metadata.
type DeploymentHandler struct {
	service gateway.Service
	log     zerolog.Logger
}

// NewDeploymentHandler constructs the handler.
func NewDeploymentHandler(service gateway.Service, log zerolog.Logger) *DeploymentHandler {
	return &DeploymentHandler{
		service: service,
		log:     log.With().Str("handler", "deployment").Logger(),
	}
}

// Get handles GET /api/deployment
func (h *DeploymentHandler) Get(c *gin.Context) {
	d, err := h.service.Deployment(c.Request.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("get deployment failed")
		responses.HandleUpstreamError(c, err)
		return
	}
	c.JSON(http.StatusOK, d)
}
