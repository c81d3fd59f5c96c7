package main

import (
	"log"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"noria.fr/campusnet/internal/config"
	"noria.fr/campusnet/internal/entity"
	"noria.fr/campusnet/internal/server"
	"noria.fr/campusnet/pkg/database"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := buildLogger(cfg.AppEnv)
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer logger.Sync()
	zap.ReplaceGlobals(logger)

	db := database.Connect()
	if err := migrate(db); err != nil {
		logger.Fatal("migration failed", zap.Error(err))
	}

	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			logger.Fatal("invalid REDIS_URL", zap.Error(err))
		}
		redisClient = redis.NewClient(opts)
	} else {
		logger.Warn("REDIS_URL not set, rate limiting and live messaging disabled")
	}

	srv := server.NewServer(db, redisClient)

	logger.Info("starting server", zap.String("port", cfg.Port), zap.String("env", cfg.AppEnv))
	if err := srv.Run(":" + cfg.Port); err != nil {
		logger.Fatal("server exited with error", zap.Error(err))
	}
}

func buildLogger(appEnv string) (*zap.Logger, error) {
	if appEnv == "production" {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}

func migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&entity.User{},
		&entity.Community{},
		&entity.Post{},
		&entity.Comment{},
		&entity.Follow{},
		&entity.Vote{},
		&entity.Message{},
		&entity.TypingIndicator{},
	)
}
