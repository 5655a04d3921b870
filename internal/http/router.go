package http

import (
	"github.com/gin-gonic/gin"

	httpH "github.com/adopaw/adopaw-backend/internal/http/handlers"
	httpMW "github.com/adopaw/adopaw-backend/internal/http/middleware"
	"github.com/adopaw/adopaw-backend/internal/pkg/logger"
)

type RouterConfig struct {
	Log            *logger.Logger
	AuthMiddleware *httpMW.AuthMiddleware
	RateLimit      gin.HandlerFunc

	HealthHandler  *httpH.HealthHandler
	ProfileHandler *httpH.ProfileHandler
	PetHandler     *httpH.PetHandler
	CommentHandler *httpH.CommentHandler
	ChatHandler    *httpH.ChatHandler
	PawloHandler   *httpH.PawloHandler
	WSHandler      *httpH.WSHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(httpMW.RequestLogger(cfg.Log))
	r.Use(httpMW.CORS())

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
	}

	protected := r.Group("/")
	{
		if cfg.AuthMiddleware != nil {
			protected.Use(cfg.AuthMiddleware.RequireAuth())
		}

		// Profiles
		if cfg.ProfileHandler != nil {
			profile := protected.Group("/profile")
			profile.POST("", cfg.ProfileHandler.Create)
			profile.GET("/:supaId", cfg.ProfileHandler.GetBySupaID)
			profile.PUT("/:supaId", cfg.ProfileHandler.Update)
			profile.DELETE("/:supaId", cfg.ProfileHandler.Delete)
		}

		// Pets
		if cfg.PetHandler != nil {
			pet := protected.Group("/pet")
			pet.GET("", cfg.PetHandler.List)
			pet.GET("/by", cfg.PetHandler.ListPaginated)
			pet.GET("/nearby", cfg.PetHandler.Nearby)
			pet.GET("/owner/:profileId", cfg.PetHandler.ListByOwner)
			pet.GET("/:id", cfg.PetHandler.GetByID)
			pet.POST("", cfg.PetHandler.Create)
			pet.PUT("/:id", cfg.PetHandler.Update)
			pet.DELETE("/:id", cfg.PetHandler.Delete)
		}

		// Comments
		if cfg.CommentHandler != nil {
			comment := protected.Group("/comment")
			comment.POST("", cfg.CommentHandler.Create)
			comment.GET("/:petId", cfg.CommentHandler.ListByPet)
			comment.POST("/reply/:commentId", cfg.CommentHandler.AddReply)
			comment.PUT("/:commentId", cfg.CommentHandler.Edit)
			comment.PUT("/:commentId/reply/:replyId", cfg.CommentHandler.EditReply)
			comment.DELETE("/:commentId", cfg.CommentHandler.Delete)
			comment.DELETE("/:commentId/reply/:replyId", cfg.CommentHandler.DeleteReply)
		}

		// Chat directory, history, read state, assistant, socket
		chatAPI := protected.Group("/chat-api")
		if cfg.ChatHandler != nil {
			chatAPI.POST("/ensure-chat", cfg.ChatHandler.EnsureChat)
			chatAPI.GET("/my-chats", cfg.ChatHandler.MyChats)
			chatAPI.GET("/chats/:id/messages", cfg.ChatHandler.GetMessages)
			chatAPI.POST("/chats/:id/messages", cfg.ChatHandler.PostMessage)
			chatAPI.POST("/chats/:id/read", cfg.ChatHandler.MarkRead)
		}
		if cfg.PawloHandler != nil {
			if cfg.RateLimit != nil {
				chatAPI.POST("/pawlo/reply", cfg.RateLimit, cfg.PawloHandler.Reply)
			} else {
				chatAPI.POST("/pawlo/reply", cfg.PawloHandler.Reply)
			}
		}
		if cfg.WSHandler != nil {
			chatAPI.GET("/socket", cfg.WSHandler.Serve)
		}
	}

	return r
}
