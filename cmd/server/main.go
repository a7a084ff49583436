package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"anoa.com/studyhub/internal/bootstrap"
	"anoa.com/studyhub/internal/config"
	"anoa.com/studyhub/internal/server"
	"anoa.com/studyhub/pkg/database"
	"anoa.com/studyhub/pkg/logger"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	gormLogger "gorm.io/gorm/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	zl, err := logger.Init(logger.Config{Level: cfg.LogLevel, Dev: cfg.LogDev})
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer func() { _ = zl.Sync() }()

	logLevel := gormLogger.Warn
	if cfg.LogDev {
		logLevel = gormLogger.Info
	}
	db, err := database.Open(database.Options{
		Driver:     cfg.DBDriver,
		Host:       cfg.DBHost,
		Port:       cfg.DBPort,
		User:       cfg.DBUser,
		Password:   cfg.DBPass,
		Name:       cfg.DBName,
		SQLitePath: cfg.SQLitePath,
		LogLevel:   logLevel,
		NowFunc:    cfg.Clock(),
	})
	if err != nil {
		zap.L().Fatal("failed to connect database", zap.Error(err))
	}

	if err := bootstrap.Migrate(db); err != nil {
		zap.L().Fatal("migration failed", zap.Error(err))
	}
	if err := bootstrap.SeedAdminUser(db, cfg.AdminEmail, cfg.AdminPassword); err != nil {
		zap.L().Fatal("failed to seed admin user", zap.Error(err))
	}

	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			zap.L().Fatal("invalid REDIS_URL", zap.Error(err))
		}
		redisClient = redis.NewClient(opts)

		pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := redisClient.Ping(pingCtx).Err(); err != nil {
			zap.L().Warn("redis unreachable, rate limiting and live notifications degraded", zap.Error(err))
		}
		cancel()
	} else {
		zap.L().Info("REDIS_URL not set, rate limiting and live notifications disabled")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv, err := server.NewServer(ctx, cfg, db, redisClient)
	if err != nil {
		zap.L().Fatal("failed to build server", zap.Error(err))
	}

	go func() {
		zap.L().Info("server listening", zap.String("port", cfg.Port), zap.String("env", cfg.AppEnv))
		if err := srv.Run(":" + cfg.Port); err != nil {
			zap.L().Fatal("server exited with error", zap.Error(err))
		}
	}()

	<-ctx.Done()
	zap.L().Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zap.L().Error("shutdown failed", zap.Error(err))
	}
	if redisClient != nil {
		_ = redisClient.Close()
	}
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
