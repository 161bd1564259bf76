// Package database 打开 GORM 连接并迁移表结构
package database

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/dumeirei/helpcenter-backend/internal/common/config"
	"github.com/dumeirei/helpcenter-backend/internal/models"
)

const pingTimeout = 5 * time.Second

// Open 按驱动建立连接并校验可用
//
// postgres 使用 DSN；sqlite 使用 Path，用于开发与单机部署
func Open(cfg *config.DatabaseConfig, log *zap.Logger) (*gorm.DB, error) {
	dialector, err := dialectorFor(cfg)
	if err != nil {
		return nil, err
	}

	gdb, err := gorm.Open(dialector, &gorm.Config{
		Logger:                                   newGormLogger(log, cfg),
		DisableForeignKeyConstraintWhenMigrating: true,
		PrepareStmt:                              cfg.Driver != "sqlite",
	})
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", driverName(cfg), err)
	}

	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, fmt.Errorf("get sql.DB: %w", err)
	}
	if cfg.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetime) * time.Minute)
	}

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return gdb, nil
}

func dialectorFor(cfg *config.DatabaseConfig) (gorm.Dialector, error) {
	switch driverName(cfg) {
	case "postgres":
		return postgres.Open(cfg.DSN()), nil
	case "sqlite":
		return sqlite.Open(cfg.Path), nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}

func driverName(cfg *config.DatabaseConfig) string {
	if cfg.Driver == "" {
		return "postgres"
	}
	return cfg.Driver
}

// Close 关闭底层连接池，nil 安全
func Close(gdb *gorm.DB) error {
	if gdb == nil {
		return nil
	}
	sqlDB, err := gdb.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Migrate 自动迁移全部表结构
func Migrate(gdb *gorm.DB) error {
	if err := gdb.AutoMigrate(models.AllModels()...); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}

// newGormLogger SQL 日志写入名为 gorm 的 zap logger
func newGormLogger(log *zap.Logger, cfg *config.DatabaseConfig) logger.Interface {
	if log == nil {
		log = zap.NewNop()
	}
	level := logger.Warn
	if cfg.LogMode {
		level = logger.Info
	}
	return logger.New(
		zap.NewStdLog(log.Named("gorm")),
		logger.Config{
			SlowThreshold:             time.Duration(cfg.SlowThreshold) * time.Millisecond,
			LogLevel:                  level,
			IgnoreRecordNotFoundError: true,
		},
	)
}
