package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/voxhire/interview-service/internal/cache"
	"github.com/voxhire/interview-service/internal/client"
	"github.com/voxhire/interview-service/internal/config"
	"github.com/voxhire/interview-service/internal/domain"
	"github.com/voxhire/interview-service/internal/handler"
	"github.com/voxhire/interview-service/internal/notifier"
	"github.com/voxhire/interview-service/internal/repository"
	"github.com/voxhire/interview-service/internal/service"
	"github.com/voxhire/interview-service/pkg/database"
	"github.com/voxhire/interview-service/pkg/jwt"
	pkglog "github.com/voxhire/interview-service/pkg/log"
	"github.com/voxhire/interview-service/pkg/middleware"
	"github.com/voxhire/interview-service/pkg/pubsub"
	"github.com/voxhire/interview-service/pkg/storage"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		l := pkglog.L()
		l.Fatal().Err(err).Msg("failed to load config")
	}

	// Initialize structured logger
	pkglog.Init(pkglog.Config{
		Level:       cfg.Log.Level,
		Pretty:      cfg.Log.Level == "debug",
		ServiceName: "interview-service",
	})
	logger := pkglog.L()

	if cfg.JWT.Secret == "" {
		logger.Fatal().Msg("jwt.secret must be configured")
	}

	// Connect to database using GORM
	dbConfig := &database.Config{
		Driver:          cfg.Database.Driver,
		Host:            cfg.Database.Host,
		Port:            cfg.Database.Port,
		User:            cfg.Database.User,
		Password:        cfg.Database.Password,
		DBName:          cfg.Database.DBName,
		SSLMode:         cfg.Database.SSLMode,
		FilePath:        cfg.Database.FilePath,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	}

	db, err := database.New(dbConfig)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}

	// Auto-migrate
	if err := database.AutoMigrate(db,
		&domain.UserModel{},
		&domain.RoomModel{},
		&domain.MessageModel{},
		&domain.BotResponseModel{},
	); err != nil {
		logger.Fatal().Err(err).Msg("failed to auto-migrate")
	}
	logger.Info().Msg("database migration completed")

	// Initialize repositories
	userRepo := repository.NewGormUserRepository(db)
	roomRepo := repository.NewGormRoomRepository(db)

	var messageRepo repository.MessageRepository
	switch cfg.Messages.Backend {
	case "cassandra":
		messageRepo, err = repository.NewCassandraMessageRepository(cfg.Messages.Cassandra)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect to cassandra")
		}
		logger.Info().Msg("cassandra message store connected")
	default:
		messageRepo = repository.NewGormMessageRepository(db)
	}
	defer messageRepo.Close()

	// Initialize Redis cache
	roomCache, err := cache.NewRedisRoomCache(cfg.Redis, "room")
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to redis")
	}
	defer roomCache.Close()
	logger.Info().Msg("redis cache connected")

	// Initialize pub/sub
	bus, err := pubsub.NewPubSub(cfg.PubSub)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize pubsub")
	}
	defer bus.Close()
	logger.Info().Str("driver", cfg.PubSub.Driver).Msg("pubsub connected")

	// Mirror room events into the log
	eventNotifier := notifier.New(bus, notifier.LogHandler(logger))
	notifierCtx, stopNotifier := context.WithCancel(context.Background())
	defer stopNotifier()
	go func() {
		if err := eventNotifier.Run(notifierCtx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Warn().Err(err).Msg("room event notifier stopped")
		}
	}()

	// Initialize transient storage for audio uploads
	storageCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	store, err := storage.New(storageCtx, cfg.Storage)
	cancel()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize storage")
	}

	// Initialize upstream client
	openaiClient := client.NewOpenAIClient(cfg.OpenAI)

	// Initialize JWT manager and services
	jwtManager := jwt.NewManager(cfg.JWT.Secret, cfg.JWT.AccessDuration, cfg.JWT.RefreshDuration, cfg.JWT.Issuer)
	identity := service.NewIdentityVerifier(jwtManager, userRepo)
	userService := service.NewUserService(userRepo, jwtManager)
	roomService := service.NewRoomService(roomRepo, roomCache, cfg.Redis.RoomTTL, bus)
	membershipService := service.NewMembershipService(identity, roomRepo, roomCache, bus)
	relayService := service.NewRelayService(identity, userRepo, roomRepo, messageRepo, openaiClient, openaiClient, store, bus)

	// Initialize auth middleware
	authMiddleware := middleware.NewAuthMiddleware(jwtManager)

	// Initialize HTTP handler
	httpHandler := handler.NewHandler(userService, roomService, membershipService, relayService, authMiddleware)

	// Setup Gin router
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(pkglog.GinMiddleware(logger))

	// Register routes
	httpHandler.RegisterRoutes(r)

	// Start server
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	logger.Info().Str("addr", addr).Str("db_driver", cfg.Database.Driver).Str("messages_backend", cfg.Messages.Backend).Msg("interview-service starting")
	if err := r.Run(addr); err != nil {
		logger.Fatal().Err(err).Msg("failed to start server")
	}
}
