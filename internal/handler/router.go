package handler

import (
	"flexchat/internal/middleware"
	"flexchat/internal/redis"
	"flexchat/internal/services"
	"flexchat/internal/websocket"
	"flexchat/pkg/logger"
	"flexchat/pkg/metrics"

	"github.com/gin-gonic/gin"
)

type Router struct {
	Conversations *ConversationHandler
	Messages      *MessageHandler
	Presence      *PresenceHandler
	Uploads       *UploadHandler
	GDPR          *GDPRHandler
	WebSocket     *websocket.Handler

	Auth    *services.AuthService
	Limiter *redis.RateLimiter
	Metrics *metrics.Metrics
	Log     *logger.Logger
}

// Setup builds the gin engine with the full middleware chain and all
// chat routes mounted under /v1.
func (r *Router) Setup(mode string) *gin.Engine {
	if mode == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(middleware.RequestIDMiddleware())
	engine.Use(middleware.LoggingMiddleware(r.Log))
	engine.Use(middleware.MetricsMiddleware(r.Metrics))
	engine.Use(middleware.ErrorHandler(r.Log))

	engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})
	engine.GET("/metrics", middleware.MetricsHandler(r.Metrics))
	engine.GET("/v1/ws", r.WebSocket.Serve)

	v1 := engine.Group("/v1")
	v1.Use(middleware.AuthMiddleware(r.Auth))
	v1.Use(middleware.RateLimitMiddleware(r.Limiter))
	{
		v1.POST("/conversations", r.Conversations.Create)
		v1.GET("/conversations", r.Conversations.List)
		v1.PUT("/conversations/:id/archive", r.Conversations.Archive)
		v1.PUT("/conversations/:id/mute", r.Conversations.Mute)

		v1.GET("/conversations/:id/messages", r.Messages.List)
		v1.POST("/conversations/:id/messages", middleware.MessageRateLimitMiddleware(r.Limiter), r.Messages.Send)
		v1.POST("/conversations/:id/read", r.Messages.MarkRead)
		v1.GET("/conversations/:id/search", r.Messages.Search)
		v1.PUT("/messages/:id", r.Messages.Edit)
		v1.DELETE("/messages/:id", r.Messages.Delete)
		v1.POST("/messages/:id/reactions", r.Messages.React)
		v1.DELETE("/messages/:id/reactions/:reaction", r.Messages.Unreact)
		v1.POST("/sync", r.Messages.Sync)

		v1.PUT("/conversations/:id/typing", r.Presence.SetTyping)
		v1.GET("/conversations/:id/typing", r.Presence.TypingUsers)
		v1.POST("/presence/heartbeat", r.Presence.Heartbeat)
		v1.GET("/users/:id/presence", r.Presence.GetPresence)

		v1.POST("/conversations/:id/attachments", r.Uploads.Upload)
		v1.GET("/attachments/url", r.Uploads.DownloadURL)

		v1.GET("/gdpr/export", r.GDPR.Export)
		v1.DELETE("/gdpr/data", r.GDPR.Erase)
		v1.GET("/gdpr/retention", r.GDPR.Retention)
	}

	return engine
}
