package api

import (
	"github.com/gin-gonic/gin"

	"jan-server/services/chat-ui/internal/interfaces/httpserver/handlers"
)

// Routes encapsulates the browser facing route registration.
type Routes struct {
	handlers *handlers.Provider
}

// NewRoutes builds the /api route registrar.
func NewRoutes(handlerProvider *handlers.Provider) *Routes {
	return &Routes{
		handlers: handlerProvider,
	}
}

// Register attaches all routes under the /api prefix.
func (r *Routes) Register(engine *gin.Engine) {
	group := engine.Group("/api")
	group.GET("/deployment", r.handlers.Deployment.Get)
	group.GET("/settings", r.handlers.Settings.Get)
	group.POST("/generate", r.handlers.Generate.Generate)
	group.GET("/theme", r.handlers.Theme.Get)
	group.POST("/theme", r.handlers.Theme.Set)
}
