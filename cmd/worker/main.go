// Package main runs the background job worker (reward voucher grants).
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/tycoon-games/backend/config"
	"github.com/tycoon-games/backend/internal/rewards"
	"github.com/tycoon-games/backend/internal/state"
	"github.com/tycoon-games/backend/internal/worker"
	"github.com/tycoon-games/backend/pkg/database"
	"github.com/tycoon-games/backend/pkg/queue"
	"github.com/tycoon-games/backend/pkg/redis"
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

	rdb, err := redis.NewClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, logger)
	if err != nil {
		logger.Fatal("redis", zap.Error(err))
	}
	defer rdb.Close()

	stateRepo := state.NewRepository(pool)
	issuer := rewards.NewHTTPIssuer(stateRepo, time.Duration(cfg.Rewards.RequestTimeoutSec)*time.Second)
	jobQueue := queue.NewQueue(rdb.Client, logger)
	processor := worker.NewVoucherProcessor(issuer, jobQueue, logger)

	workerCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go processor.Run(workerCtx)
	logger.Info("worker started")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	cancel()
	time.Sleep(2 * time.Second)
	logger.Info("worker stopped")
}

func newLogger() *zap.Logger {
	config := zap.NewProductionConfig()
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logger, _ := config.Build()
	return logger
}
