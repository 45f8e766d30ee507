package http

import (
	"fmt"
	"net/http"

	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"

	"github.com/gdugdh24/spark-backend/internal/delivery/http/handler"
	"github.com/gdugdh24/spark-backend/internal/delivery/http/middleware"
	"github.com/gdugdh24/spark-backend/internal/delivery/ws"
)

type Router struct {
	authHandler       *handler.AuthHandler
	profileHandler    *handler.ProfileHandler
	feedHandler       *handler.FeedHandler
	matchHandler      *handler.MatchHandler
	chatHandler       *handler.ChatHandler
	videoHandler      *handler.VideoHandler
	membershipHandler *handler.MembershipHandler
	wsHandler         *ws.Handler
	authMiddleware    *middleware.AuthMiddleware
	authLimiter       *middleware.IPRateLimiter
	trustedProxies    []string
	serviceName       string
	logger            *zap.Logger
}

func NewRouter(
	authHandler *handler.AuthHandler,
	profileHandler *handler.ProfileHandler,
	feedHandler *handler.FeedHandler,
	matchHandler *handler.MatchHandler,
	chatHandler *handler.ChatHandler,
	videoHandler *handler.VideoHandler,
	membershipHandler *handler.MembershipHandler,
	wsHandler *ws.Handler,
	authMiddleware *middleware.AuthMiddleware,
	authLimiter *middleware.IPRateLimiter,
	trustedProxies []string,
	serviceName string,
	logger *zap.Logger,
) *Router {
	return &Router{
		authHandler:       authHandler,
		profileHandler:    profileHandler,
		feedHandler:       feedHandler,
		matchHandler:      matchHandler,
		chatHandler:       chatHandler,
		videoHandler:      videoHandler,
		membershipHandler: membershipHandler,
		wsHandler:         wsHandler,
		authMiddleware:    authMiddleware,
		authLimiter:       authLimiter,
		trustedProxies:    trustedProxies,
		serviceName:       serviceName,
		logger:            logger,
	}
}

func (r *Router) Setup() (*gin.Engine, error) {
	router := gin.New()
	// ClientIP feeds the auth limiter; only listed proxies may forward addresses
	if err := router.SetTrustedProxies(r.trustedProxies); err != nil {
		return nil, fmt.Errorf("invalid trusted proxies: %w", err)
	}
	router.Use(
		sentrygin.New(sentrygin.Options{Repanic: true}),
		middleware.Recovery(r.logger),
		otelgin.Middleware(r.serviceName),
		middleware.Logger(r.logger),
	)

	// Health check (supports both GET and HEAD)
	healthHandler := func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "ok",
		})
	}
	router.GET("/health", healthHandler)
	router.HEAD("/health", healthHandler)

	// Realtime, no gzip on upgraded connections
	router.GET("/ws/matches/:id", r.authMiddleware.RequireAuth(), r.wsHandler.ServeMatch)

	// API v1
	v1 := router.Group("/api/v1")
	v1.Use(gzip.Gzip(gzip.DefaultCompression))
	{
		// Auth routes (public)
		auth := v1.Group("/auth")
		{
			auth.POST("/signup", r.authLimiter.Middleware(), r.authHandler.SignUp)
			auth.POST("/signin", r.authLimiter.Middleware(), r.authHandler.SignIn)
			auth.POST("/logout", r.authMiddleware.RequireAuth(), r.authHandler.Logout)
			auth.GET("/me", r.authMiddleware.RequireAuth(), r.authHandler.Me)
		}

		v1.GET("/membership/tiers", r.membershipHandler.Tiers)

		// Protected routes
		protected := v1.Group("")
		protected.Use(r.authMiddleware.RequireAuth())
		{
			profile := protected.Group("/profile")
			{
				profile.GET("/me", r.profileHandler.GetMyProfile)
				profile.PUT("/me", r.profileHandler.UpdateMyProfile)
				profile.PUT("/location", r.profileHandler.UpdateLocation)
				profile.POST("/picture", r.profileHandler.UploadPicture)
				profile.POST("/generate-bio", r.profileHandler.GenerateBio)
				profile.GET("/:user_id", r.profileHandler.GetProfileByUserID)
			}

			protected.GET("/feed", r.feedHandler.GetFeed)

			blocks := protected.Group("/blocks")
			{
				blocks.GET("", r.feedHandler.ListBlocked)
				blocks.POST("/:user_id", r.feedHandler.BlockUser)
				blocks.DELETE("/:user_id", r.feedHandler.UnblockUser)
			}

			protected.POST("/swipes", r.matchHandler.CreateSwipe)

			matches := protected.Group("/matches")
			{
				matches.POST("", r.matchHandler.CreateMatch)
				matches.GET("", r.matchHandler.ListMatches)
				matches.GET("/:id", r.matchHandler.GetMatch)
				matches.PATCH("/:id", r.matchHandler.UpdateMatchStatus)
				matches.DELETE("/:id", r.matchHandler.DeleteMatch)
			}

			chats := protected.Group("/chats")
			{
				chats.GET("", r.chatHandler.ListRooms)
				chats.GET("/:id/messages", r.chatHandler.ListMessages)
				chats.POST("/:id/messages", r.chatHandler.SendMessage)
				chats.POST("/:id/messages/:message_id/read", r.chatHandler.MarkAsRead)
				chats.POST("/:id/read", r.chatHandler.MarkManyAsRead)
				chats.POST("/:id/typing", r.chatHandler.SetTyping)
				chats.POST("/:id/attachments", r.chatHandler.PresignAttachment)
			}

			protected.GET("/presence/:user_id", r.chatHandler.GetPresence)

			videos := protected.Group("/videos")
			{
				videos.POST("", r.videoHandler.Upload)
				videos.GET("", r.videoHandler.List)
				videos.GET("/:id", r.videoHandler.Get)
				videos.POST("/:id/like", r.videoHandler.Like)
				videos.POST("/:id/view", r.videoHandler.View)
			}

			membership := protected.Group("/membership")
			{
				membership.PUT("", r.membershipHandler.ChangeTier)
				membership.GET("/usage", r.membershipHandler.Usage)
			}
		}
	}

	return router, nil
}
