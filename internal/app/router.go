package app

import (
	"github.com/gin-gonic/gin"

	apphttp "github.com/adopaw/adopaw-backend/internal/http"
	"github.com/adopaw/adopaw-backend/internal/pkg/logger"
)

func wireRouter(log *logger.Logger, handlers Handlers, middleware Middleware) *gin.Engine {
	return apphttp.NewRouter(apphttp.RouterConfig{
		Log:            log,
		AuthMiddleware: middleware.Auth,
		RateLimit:      middleware.RateLimit,
		HealthHandler:  handlers.Health,
		ProfileHandler: handlers.Profile,
		PetHandler:     handlers.Pet,
		CommentHandler: handlers.Comment,
		ChatHandler:    handlers.Chat,
		PawloHandler:   handlers.Pawlo,
		WSHandler:      handlers.WS,
	})
}
