// Package main runs the campus events HTTP server with graceful shutdown.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/campus-events/backend/config"
	"github.com/campus-events/backend/internal/auth"
	"github.com/campus-events/backend/internal/branches"
	"github.com/campus-events/backend/internal/events"
	"github.com/campus-events/backend/internal/middleware"
	"github.com/campus-events/backend/internal/registrations"
	"github.com/campus-events/backend/internal/venues"
	"github.com/campus-events/backend/internal/worker"
	"github.com/campus-events/backend/pkg/cache"
	"github.com/campus-events/backend/pkg/database"
	"github.com/campus-events/backend/pkg/redis"
	"github.com/campus-events/backend/pkg/response"
	"github.com/campus-events/backend/pkg/storage"
)

func main() {
	logger := newLogger()
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}

	ctx := context.Background()
	pool, err := database.NewPostgresPool(ctx, cfg.Database.DSN(), logger)
	if err != nil {
		logger.Fatal("database", zap.Error(err))
	}
	defer pool.Close()

	if err := database.Migrate(ctx, pool); err != nil {
		logger.Fatal("migrate", zap.Error(err))
	}

	var statsCache *cache.StatsCache
	rdb, err := redis.NewClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, logger)
	if err != nil {
		logger.Warn("redis unavailable, stats cache disabled", zap.Error(err))
		statsCache = cache.NewStatsCache(nil, logger)
	} else {
		defer rdb.Close()
		statsCache = cache.NewStatsCache(rdb.Client, logger)
	}

	var s3Client *storage.S3
	if cfg.AWS.Region != "" {
		s3Client, err = storage.NewS3(ctx, storage.S3Config{
			Region:               cfg.AWS.Region,
			AccessKeyID:          cfg.AWS.AccessKeyID,
			SecretAccessKey:      cfg.AWS.SecretAccessKey,
			PostersBucket:        cfg.AWS.PostersBucket,
			PresignExpireMinutes: cfg.AWS.PresignExpireMinutes,
		}, logger)
		if err != nil {
			logger.Warn("s3 disabled", zap.Error(err))
		}
	}

	jwtService := auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.ExpireHours)

	// Auth
	authRepo := auth.NewRepository(pool)
	authHandler := auth.NewHandler(authRepo, jwtService, logger)

	// Branches and venues
	branchRepo := branches.NewRepository(pool)
	branchHandler := branches.NewHandler(branchRepo)
	venueRepo := venues.NewRepository(pool)
	venueHandler := venues.NewHandler(venueRepo)

	// Events
	eventRepo := events.NewRepository(pool)
	eventHandler := events.NewHandler(eventRepo, logger)
	posterHandler := events.NewPosterHandler(eventRepo, s3Client, logger)

	// Registrations (capacity/waitlist engine)
	regEngine := registrations.NewEngine(pool, logger)
	regRepo := registrations.NewRepository(pool)
	regHandler := registrations.NewHandler(regEngine, regRepo, statsCache, logger)

	jwtValidate := func(token string) (int64, string, string, error) {
		claims, err := jwtService.Validate(token)
		if err != nil {
			return 0, "", "", err
		}
		return claims.UserID, claims.Email, claims.Role, nil
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORS(cfg.Server.CORSAllowedOrigins))
	router.Use(middleware.Logger(logger))

	// Health
	router.GET("/health", func(c *gin.Context) { response.OK(c, gin.H{"status": "ok"}) })

	// Auth (public)
	authGroup := router.Group("/auth")
	{
		authGroup.POST("/signup", authHandler.Signup)
		authGroup.POST("/login", authHandler.Login)
	}

	// Public lookups. Event browsing needs no login; unpublished events stay
	// hidden because no admin role is present in the context.
	router.GET("/branches", branchHandler.List)
	router.GET("/events", eventHandler.List)
	router.GET("/events/:id", eventHandler.GetByID)

	// Protected API (JWT required)
	api := router.Group("")
	api.Use(middleware.JWT(jwtValidate))
	{
		// Profile
		api.GET("/profile", authHandler.Me)
		api.PUT("/profile", authHandler.UpdateProfile)
		api.PUT("/profile/password", authHandler.ChangePassword)

		// Users (admin)
		api.GET("/users", middleware.RequireRole("admin"), authHandler.List)
		api.DELETE("/users/:id", middleware.RequireRole("admin"), authHandler.Deactivate)

		// Branches (admin mutations)
		api.GET("/branches/:id", branchHandler.GetByID)
		api.POST("/branches", middleware.RequireRole("admin"), branchHandler.Create)

		// Venues
		api.GET("/venues", venueHandler.List)
		api.GET("/venues/:id", venueHandler.GetByID)
		api.POST("/venues", middleware.RequireRole("admin"), venueHandler.Create)
		api.PUT("/venues/:id", middleware.RequireRole("admin"), venueHandler.Update)

		// Events (admin mutations)
		api.POST("/events", middleware.RequireRole("admin"), eventHandler.Create)
		api.PATCH("/events/:id", middleware.RequireRole("admin"), eventHandler.Update)
		api.POST("/events/:id/publish", middleware.RequireRole("admin"), eventHandler.Publish)
		api.PUT("/events/:id/status", middleware.RequireRole("admin"), eventHandler.SetStatus)
		api.DELETE("/events/:id", middleware.RequireRole("admin"), eventHandler.Delete)
		api.POST("/events/:id/poster", middleware.RequireRole("admin"), posterHandler.Upload)
		api.GET("/events/:id/poster", posterHandler.URL)

		// Registrations
		api.POST("/events/:id/registrations", regHandler.Register)
		api.DELETE("/events/:id/registrations/:regId", regHandler.Cancel)
		api.GET("/my/registrations", regHandler.ListMine)
		api.PUT("/registrations/:id", middleware.RequireRole("admin"), regHandler.UpdateStatus)
		api.GET("/events/:id/registrations", middleware.RequireRole("admin"), regHandler.ListByEvent)
		api.GET("/events/:id/registrations/stats", middleware.RequireRole("admin"), regHandler.Stats)
	}

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	// In-process sweeper; cmd/worker runs the same loop standalone.
	workerCtx, workerCancel := context.WithCancel(context.Background())
	defer workerCancel()
	sweeper := worker.NewSweeper(eventRepo,
		time.Duration(cfg.Worker.SweepIntervalSec)*time.Second, logger)
	go sweeper.Run(workerCtx)

	go func() {
		logger.Info("server listening", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	workerCancel()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", zap.Error(err))
	}
	logger.Info("server stopped")
}

func newLogger() *zap.Logger {
	config := zap.NewProductionConfig()
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logger, _ := config.Build()
	return logger
}
