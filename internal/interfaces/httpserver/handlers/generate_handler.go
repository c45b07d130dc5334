package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"jan-server/services/chat-ui/internal/domain/gateway"
	"jan-server/services/chat-ui/internal/infrastructure/metrics"
	"jan-server/services/chat-ui/internal/infrastructure/telemetry"
	"jan-server/services/chat-ui/internal/interfaces/httpserver/requests"
	"jan-server/services/chat-ui/internal/interfaces/httpserver/responses"
	"jan-server/services/chat-ui/internal/utils/platformerrors"
)

const relayBufferSize = 32 * 1024

// GenerateHandler relays generation requests to the deployment.
type GenerateHandler struct {
	service   gateway.Service
	sanitizer *telemetry.Sanitizer
	log       zerolog.Logger
}

// NewGenerateHandler constructs the handler.
func NewGenerateHandler(service gateway.Service, sanitizer *telemetry.Sanitizer, log zerolog.Logger) *GenerateHandler {
	return &GenerateHandler{
		service:   service,
		sanitizer: sanitizer,
		log:       log.With().Str("handler", "generate").Logger(),
	}
}

// Generate handles POST /api/generate
// Streams the upstream event stream back unchanged; ?stream=false returns the
// non-streaming JSON result instead.
func (h *GenerateHandler) Generate(c *gin.Context) {
	var req requests.GenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		responses.HandleNewError(c, platformerrors.ErrorTypeValidation, "invalid request body: "+err.Error(), "")
		return
	}

	h.log.Debug().
		Int("messages", len(req.Messages)).
		Str("prompt", h.sanitizer.LastUserPrompt(req.Messages)).
		Msg("generate requested")

	if c.Query("stream") == "false" {
		h.generateOnce(c, req)
		return
	}

	body, err := h.service.OpenStream(c.Request.Context(), req.ToDomain())
	if err != nil {
		h.log.Error().Str("error", h.sanitizer.Body(err.Error())).Msg("open generation stream failed")
		responses.HandleUpstreamError(c, err)
		return
	}
	defer body.Close()

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)

	n, err := relay(c.Writer, body)
	metrics.AddStreamBytes(int(n))
	if err != nil && !errors.Is(err, c.Request.Context().Err()) {
		h.log.Warn().Err(err).Int64("bytes", n).Msg("generation stream interrupted")
	}
}

func (h *GenerateHandler) generateOnce(c *gin.Context, req requests.GenerateRequest) {
	out, err := h.service.Generate(c.Request.Context(), req.ToDomain())
	if err != nil {
		h.log.Error().Str("error", h.sanitizer.Body(err.Error())).Msg("generate failed")
		responses.HandleUpstreamError(c, err)
		return
	}
	c.Data(http.StatusOK, "application/json", out)
}

// relay copies src to w, flushing after every read so events reach the
// client as they arrive.
func relay(w gin.ResponseWriter, src io.Reader) (int64, error) {
	buf := make([]byte, relayBufferSize)
	var total int64
	for {
		n, readErr := src.Read(buf)
		if n > 0 {
			written, err := w.Write(buf[:n])
			total += int64(written)
			if err != nil {
				return total, err
			}
			w.Flush()
		}
		if readErr == io.EOF {
			return total, nil
		}
		if readErr != nil {
			return total, readErr
		}
	}
}
