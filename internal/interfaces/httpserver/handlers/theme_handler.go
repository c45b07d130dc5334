package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"jan-server/services/chat-ui/internal/domain/theme"
	"jan-server/services/chat-ui/internal/interfaces/httpserver/requests"
	"jan-server/services/chat-ui/internal/interfaces/httpserver/responses"
	"jan-server/services/chat-ui/internal/utils/platformerrors"
)

// ThemeResponse carries the stored theme preference.
type ThemeResponse struct {
	Theme string `json:"theme"`
}

// ThemeHandler reads and stores the theme preference cookie.
type ThemeHandler struct {
	log zerolog.Logger
}

// NewThemeHandler constructs the handler.
func NewThemeHandler(log zerolog.Logger) *ThemeHandler {
	return &ThemeHandler{log: log.With().Str("handler", "theme").Logger()}
}

// Get handles GET /api/theme
func (h *ThemeHandler) Get(c *gin.Context) {
	value, _ := c.Cookie(theme.CookieName)
	c.JSON(http.StatusOK, ThemeResponse{Theme: theme.FromCookie(value).String()})
}

// Set handles POST /api/theme
func (h *ThemeHandler) Set(c *gin.Context) {
	var req requests.ThemeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		responses.HandleNewError(c, platformerrors.ErrorTypeValidation, "invalid theme", "")
		return
	}
	t, err := theme.Parse(req.Theme)
	if err != nil {
		responses.HandleNewError(c, platformerrors.ErrorTypeValidation, "invalid theme", "")
		return
	}

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(theme.CookieName, t.String(), theme.CookieMaxAge, theme.CookiePath, "", false, false)
	h.log.Debug().Str("theme", t.String()).Msg("theme updated")
	c.JSON(http.StatusOK, responses.SuccessResponse{Success: true})
}
