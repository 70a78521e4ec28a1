// Package main runs the game backend HTTP server with WebSocket event
// streaming and graceful shutdown.
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

	"github.com/tycoon-games/backend/config"
	"github.com/tycoon-games/backend/internal/auth"
	"github.com/tycoon-games/backend/internal/escrow"
	"github.com/tycoon-games/backend/internal/events"
	"github.com/tycoon-games/backend/internal/games"
	"github.com/tycoon-games/backend/internal/middleware"
	"github.com/tycoon-games/backend/internal/models"
	"github.com/tycoon-games/backend/internal/realtime"
	"github.com/tycoon-games/backend/pkg/database"
	"github.com/tycoon-games/backend/pkg/queue"
	"github.com/tycoon-games/backend/pkg/redis"
	"github.com/tycoon-games/backend/pkg/response"
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

	rdb, err := redis.NewClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, logger)
	if err != nil {
		logger.Fatal("redis", zap.Error(err))
	}
	defer rdb.Close()

	jwtManager := auth.NewJWTManager(cfg.JWT.Secret, cfg.JWT.ExpireHours)
	redisPubSub := realtime.NewRedisPubSub(rdb.Client, logger)
	jobQueue := queue.NewQueue(rdb.Client, logger)

	// Auth
	authRepo := auth.NewRepository(pool)
	authHandler := auth.NewHandler(authRepo, jwtManager, jobQueue, logger)

	// Games
	gameStore := games.NewRepository(pool)
	gameService := games.NewService(gameStore, redisPubSub, logger)
	gameHandler := games.NewHandler(gameService)

	// Event trail
	eventRepo := events.NewRepository(pool)
	eventHandler := events.NewHandler(eventRepo)

	// Dev convenience: fund the holding account so payouts work before any
	// deposits have flowed in.
	if cfg.Escrow.HouseSeedCents > 0 {
		ledger := escrow.NewLedger(pool)
		if err := ledger.Deposit(ctx, escrow.HoldingAccount, cfg.Escrow.HouseSeedCents); err != nil {
			logger.Warn("escrow seed failed", zap.Error(err))
		}
	}

	jwtValidate := func(token string) error {
		_, err := jwtManager.Validate(token)
		return err
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
		authGroup.POST("/register", authHandler.Register)
		authGroup.POST("/login", authHandler.Login)
	}

	// Read-only views (no identity proof required)
	router.GET("/state/owner", gameHandler.Owner)
	router.GET("/state/reward-system", gameHandler.RewardSystem)
	router.GET("/players/:id/registered", authHandler.IsRegistered)
	router.GET("/games/:id", gameHandler.GetByID)
	router.GET("/games/:id/settings", gameHandler.GetSettings)
	router.GET("/games/:id/events", eventHandler.ListByGame)

	// Protected API (JWT required)
	api := router.Group("")
	api.Use(middleware.JWTAuth(jwtManager))
	{
		// One-time contract setup
		api.POST("/admin/initialize", middleware.RequireRole(string(models.RoleAdmin)), gameHandler.Initialize)

		// Game lifecycle
		api.POST("/games", gameHandler.Create)
		api.POST("/games/:id/join", gameHandler.Join)
		api.POST("/games/:id/leave", gameHandler.Leave)
		api.POST("/games/:id/start", gameHandler.Start)
		api.POST("/games/:id/complete", gameHandler.Complete)
	}

	// WebSocket (token in query; no Authorization header required)
	router.GET("/ws", realtime.ServeWs(redisPubSub, logger, jwtValidate))

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	go func() {
		logger.Info("server listening", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

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
