// Package main 是应用程序入口
//
// @title Subcold Help Center API
// @version 1.0
// @description 帮助中心：知识库、工单与退货受理、后台管理
// @BasePath /
// @securityDefinitions.apikey Bearer
// @in header
// @name Authorization
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/gorm"

	_ "github.com/dumeirei/helpcenter-backend/docs"
	"github.com/dumeirei/helpcenter-backend/internal/common/cache"
	"github.com/dumeirei/helpcenter-backend/internal/common/config"
	"github.com/dumeirei/helpcenter-backend/internal/common/database"
	"github.com/dumeirei/helpcenter-backend/internal/common/logger"
)

const version = "1.0.0"

var configPath string

func main() {
	root := &cobra.Command{
		Use:           "helpcenter",
		Short:         "Subcold help center backend",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file (default ./configs/config.yaml)")

	root.AddCommand(
		newServeCmd(),
		newMigrateCmd(),
		newSeedCmd(),
		newCreateAdminCmd(),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// infra 命令共享的基础设施
type infra struct {
	cfg   *config.Config
	log   *zap.Logger
	db    *gorm.DB
	redis *redis.Client
}

// bootstrap 加载配置、初始化日志与数据库；withRedis 为 true 时按配置连接 Redis
func bootstrap(withRedis bool) (*infra, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	log, err := logger.Init(&cfg.Logger)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	db, err := database.Open(&cfg.Database, log)
	if err != nil {
		return nil, err
	}
	log.Info("Database connected", zap.String("driver", cfg.Database.Driver))

	in := &infra{cfg: cfg, log: log, db: db}
	if withRedis && cfg.Redis.Enabled {
		client, err := cache.Init(&cfg.Redis)
		if err != nil {
			// Redis 仅用于缓存与限流，不可用时降级运行
			log.Warn("Redis unavailable, running without cache and rate limiting", zap.Error(err))
		} else {
			in.redis = client
			log.Info("Redis connected", zap.String("addr", cfg.Redis.Addr()))
		}
	}
	return in, nil
}

// close 释放连接
func (in *infra) close() {
	if in.redis != nil {
		_ = in.redis.Close()
	}
	_ = database.Close(in.db)
	_ = logger.Sync()
}

// prepare 迁移表结构并写入初始数据；full 为 false 时已有数据的库只加载设置
func (in *infra) prepare(ctx context.Context, a *app, full bool) error {
	if err := database.Migrate(in.db); err != nil {
		return err
	}
	if full {
		return a.seeder.Seed(ctx)
	}
	return a.seeder.Bootstrap(ctx)
}
