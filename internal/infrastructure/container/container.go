package container

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/gdugdh24/spark-backend/internal/config"
	"github.com/gdugdh24/spark-backend/internal/delivery/http"
	"github.com/gdugdh24/spark-backend/internal/delivery/http/handler"
	"github.com/gdugdh24/spark-backend/internal/delivery/http/middleware"
	"github.com/gdugdh24/spark-backend/internal/delivery/ws"
	"github.com/gdugdh24/spark-backend/internal/infrastructure/awsclient"
	"github.com/gdugdh24/spark-backend/internal/infrastructure/database"
	"github.com/gdugdh24/spark-backend/internal/infrastructure/gemini"
	"github.com/gdugdh24/spark-backend/internal/infrastructure/imageproc"
	"github.com/gdugdh24/spark-backend/internal/infrastructure/server"
	"github.com/gdugdh24/spark-backend/internal/infrastructure/storage"
	"github.com/gdugdh24/spark-backend/internal/repository/dynamo"
	"github.com/gdugdh24/spark-backend/internal/repository/postgres"
	"github.com/gdugdh24/spark-backend/internal/repository/redisrepo"
	"github.com/gdugdh24/spark-backend/internal/usecase/auth"
	"github.com/gdugdh24/spark-backend/internal/usecase/chat"
	"github.com/gdugdh24/spark-backend/internal/usecase/feed"
	"github.com/gdugdh24/spark-backend/internal/usecase/match"
	"github.com/gdugdh24/spark-backend/internal/usecase/membership"
	"github.com/gdugdh24/spark-backend/internal/usecase/profile"
	"github.com/gdugdh24/spark-backend/internal/usecase/swipe"
	"github.com/gdugdh24/spark-backend/internal/usecase/video"
)

const (
	pictureMaxSide = 800
	pictureQuality = 70
)

// Container holds all application dependencies
type Container struct {
	Config *config.Config
	Logger *zap.Logger
	DB     *sqlx.DB
	Redis  *redis.Client
	Server *server.Server
	Gemini *gemini.GeminiClient

	Auth  *auth.AuthUseCase
	swipe *swipe.SwipeUseCase
}

// NewContainer creates a new dependency injection container
func NewContainer(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Container, error) {
	db, err := database.NewPostgresDB(ctx, &cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	redisClient, err := database.NewRedisClient(ctx, &cfg.Redis)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize redis: %w", err)
	}

	aws, err := awsclient.New(ctx, &cfg.AWS)
	if err != nil {
		_ = redisClient.Close()
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize aws clients: %w", err)
	}

	// AI features are optional
	var (
		bios        profile.BioGenerator
		icebreakers swipe.IcebreakerGenerator
	)
	geminiClient, err := gemini.NewGeminiClient(cfg.GeminiAPIKey)
	if err != nil {
		logger.Warn("gemini disabled", zap.Error(err))
	} else {
		bios = geminiClient
		icebreakers = geminiClient
	}

	// Repositories
	userRepo := postgres.NewUserRepository(db)
	sessionRepo := postgres.NewSessionRepository(db)
	swipeRepo := postgres.NewSwipeRepository(db)
	matchRepo := postgres.NewMatchRepository(db)
	messageRepo := postgres.NewMessageRepository(db)
	blockRepo := postgres.NewBlockRepository(db)
	presenceRepo := redisrepo.NewPresenceRepository(redisClient)
	quotaRepo := redisrepo.NewQuotaRepository(redisClient)
	eventBus := redisrepo.NewEventBus(redisClient, logger)
	videoRepo := dynamo.NewVideoRepository(aws.Dynamo, cfg.AWS.VideosTable)
	blobs := storage.NewS3Storage(aws.S3, cfg.AWS.S3Bucket, cfg.AWS.Region, cfg.AWS.PublicBaseURL)

	// Use cases
	authUseCase := auth.NewAuthUseCase(
		userRepo,
		sessionRepo,
		cfg.JWT.AccessSecret,
		time.Duration(cfg.JWT.AccessExpiryMin)*time.Minute,
		logger,
	)
	profileUseCase := profile.NewProfileUseCase(
		userRepo,
		blobs,
		imageproc.NewProcessor(pictureMaxSide, pictureQuality),
		bios,
		logger,
	)
	feedUseCase := feed.NewFeedUseCase(userRepo, blockRepo)
	matchUseCase := match.NewMatchUseCase(matchRepo, userRepo, eventBus, logger)
	swipeUseCase := swipe.NewSwipeUseCase(
		swipeRepo,
		matchRepo,
		userRepo,
		quotaRepo,
		eventBus,
		icebreakers,
		logger,
	)
	chatUseCase := chat.NewChatUseCase(
		matchRepo,
		messageRepo,
		userRepo,
		presenceRepo,
		eventBus,
		blobs,
		logger,
	)
	videoUseCase := video.NewVideoUseCase(videoRepo, userRepo, blobs, logger)
	membershipUseCase := membership.NewMembershipUseCase(userRepo, videoRepo, quotaRepo, logger)

	// Delivery
	router := http.NewRouter(
		handler.NewAuthHandler(authUseCase),
		handler.NewProfileHandler(profileUseCase),
		handler.NewFeedHandler(feedUseCase),
		handler.NewMatchHandler(matchUseCase, swipeUseCase),
		handler.NewChatHandler(chatUseCase),
		handler.NewVideoHandler(videoUseCase),
		handler.NewMembershipHandler(membershipUseCase),
		ws.NewHandler(chatUseCase, cfg.CORS.AllowedOrigins, logger),
		middleware.NewAuthMiddleware(authUseCase),
		middleware.NewIPRateLimiter(cfg.RateLimit.AuthRPS, cfg.RateLimit.AuthBurst),
		cfg.Server.TrustedProxies,
		cfg.Tracing.ServiceName,
		logger,
	)

	engine, err := router.Setup()
	if err != nil {
		_ = redisClient.Close()
		_ = db.Close()
		if geminiClient != nil {
			_ = geminiClient.Close()
		}
		return nil, err
	}

	srv := server.NewServer(&cfg.Server, engine, cfg.CORS.AllowedOrigins, logger)

	return &Container{
		Config: cfg,
		Logger: logger,
		DB:     db,
		Redis:  redisClient,
		Server: srv,
		Gemini: geminiClient,
		Auth:   authUseCase,
		swipe:  swipeUseCase,
	}, nil
}

// Close waits for background match work and closes all connections
func (c *Container) Close() error {
	if c.swipe != nil {
		c.swipe.Wait()
	}

	if c.Gemini != nil {
		if err := c.Gemini.Close(); err != nil {
			c.Logger.Warn("error closing gemini client", zap.Error(err))
		}
	}

	if c.Redis != nil {
		if err := c.Redis.Close(); err != nil {
			c.Logger.Warn("error closing redis", zap.Error(err))
		}
	}

	if c.DB != nil {
		if err := c.DB.Close(); err != nil {
			return fmt.Errorf("failed to close database: %w", err)
		}
	}

	return nil
}
