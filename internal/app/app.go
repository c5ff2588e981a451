package app

import (
	"go-bizops/internal/shared/config"
	"go-bizops/internal/shared/connection"
	"go-bizops/internal/shared/db"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// BuildApp connects the infrastructure, runs pending migrations and wires
// every module's routes onto the router.
func BuildApp(router *gin.Engine, cfg *config.Config) error {
	gormDB, err := connection.ConnectGORMWithRetry(
		cfg.DBHost,
		cfg.DBUser,
		cfg.DBPassword,
		cfg.DBName,
		cfg.DBPort,
		cfg.DBSSLMode,
		5,
	)
	if err != nil {
		return err
	}
	zap.L().Info("database connection established")

	sqlDB, err := gormDB.DB()
	if err != nil {
		return err
	}

	if err := db.Migrate(sqlDB); err != nil {
		return err
	}
	zap.L().Info("database migrations applied")

	redisClient, err := connection.ConnectRedisWithRetry(cfg.RedisAddr, 5)
	if err != nil {
		return err
	}
	zap.L().Info("redis connection established")

	return registerModules(router, sqlDB, gormDB, redisClient, cfg)
}
