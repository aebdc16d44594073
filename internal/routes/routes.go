package routes

import (
	"net/http"

	"support_back_end/internal/config"
	"support_back_end/internal/database"
	"support_back_end/internal/handlers"
	"support_back_end/internal/middleware"
	"support_back_end/internal/provider"
	"support_back_end/internal/services"
	"support_back_end/internal/store"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// RegisterRoutes construit les stores, services et handlers puis câble
// toutes les routes — tout est injecté, aucun singleton ambiant
func RegisterRoutes(r *gin.Engine, cfg config.Config, clients *database.Clients) {
	requests := store.NewRequestStore(clients.DB)
	attachments := store.NewAttachmentStore(clients.DB)
	messages := store.NewMessageStore(clients.DB)
	admins := store.NewAdminStore(clients.DB)
	tokens := store.NewTokenStore(clients.DB)

	storage := services.NewStorage(clients.Minio, cfg)
	mailer := services.NewMailer(cfg)
	shop := provider.NewClient(cfg)

	rh := handlers.NewRequestHandler(requests, attachments, storage, mailer)
	ph := handlers.NewProviderHandler(requests, shop)
	ch := handlers.NewChatHandler(requests, messages, mailer, cfg.JWTSecret)
	ah := handlers.NewAuthHandler(admins, tokens, cfg)
	uh := handlers.NewAttachmentHandler(requests, attachments, storage, cfg.MinioBucket)

	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{cfg.FrontendOrigin},
		AllowMethods:     []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: true,
	}))

	apiLimit := middleware.APIRateLimit(clients.Redis, cfg.RateLimitAPI)
	authRequired := middleware.AuthRequired(cfg.JWTSecret)

	r.GET("/healthz", func(c *gin.Context) {
		if err := clients.DB.Ping(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "down"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Authentification admin
	auth := r.Group("/auth")
	{
		auth.POST("/login", middleware.LoginRateLimit(clients.Redis, cfg.RateLimitLogin), ah.Login)
		auth.POST("/refresh", apiLimit, ah.Refresh)
		auth.POST("/logout", apiLimit, ah.Logout)
	}

	// Demandes d'assistance
	hr := r.Group("/help-requests", apiLimit)
	{
		// Surface publique (côté boutique)
		hr.POST("", middleware.CreateRequestRateLimit(clients.Redis, cfg.RateLimitCreate), rh.Create)
		hr.GET("/check", rh.Check)
		hr.GET("/status", rh.Status)
		hr.POST("/:id/attachments/upload-url", uh.UploadURL)

		// Surface admin
		hr.GET("", authRequired, rh.List)
		hr.GET("/:id", authRequired, rh.Get)
		hr.PATCH("/:id", authRequired, rh.Patch)
		hr.POST("/:id/provider/lookup", authRequired, ph.Lookup)
		hr.POST("/:id/provider/cancel", authRequired, ph.Cancel)
		hr.POST("/:id/provider/order", authRequired, ph.OrderDetails)
		hr.POST("/:id/provider/refund", authRequired, ph.Refund)
	}

	// Chat : accès par email correspondant ou credential admin
	chat := r.Group("/chat", apiLimit)
	{
		chat.GET("/:id/messages", ch.ListMessages)
		chat.POST("/:id/messages", ch.PostMessage)
		chat.GET("/:id/stream", ch.Stream)
		chat.GET("/:id/ws", ch.StreamWS)
		chat.GET("/:id/unread-count", authRequired, ch.UnreadCount)
	}
}
