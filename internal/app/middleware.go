package app

import (
	"github.com/gin-gonic/gin"

	httpMW "github.com/adopaw/adopaw-backend/internal/http/middleware"
	"github.com/adopaw/adopaw-backend/internal/pkg/logger"
)

type Middleware struct {
	Auth      *httpMW.AuthMiddleware
	RateLimit gin.HandlerFunc
}

func wireMiddleware(log *logger.Logger, s Services, c Clients) Middleware {
	log.Info("Wiring middleware...")
	return Middleware{
		Auth:      httpMW.NewAuthMiddleware(log, s.Auth),
		RateLimit: httpMW.RateLimit(log, c.PawloLimiter),
	}
}
