//go:build integration

package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcPostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	tcRedis "github.com/testcontainers/testcontainers-go/modules/redis"
	"github.com/testcontainers/testcontainers-go/wait"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	postgresImage = "postgres:15-alpine"
	redisImage    = "redis:7-alpine"
)

// PostgresURL 启动一次性 Postgres 容器，返回连接串
func PostgresURL(t *testing.T) string {
	t.Helper()
	ctx := context.Background()

	ctr, err := tcPostgres.Run(ctx, postgresImage,
		tcPostgres.WithDatabase("helpcenter_test"),
		tcPostgres.WithUsername("helpcenter"),
		tcPostgres.WithPassword("helpcenter"),
		testcontainers.WithWaitStrategy(
			// 初始化时会重启一次，第二条就绪日志后才可连接
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(time.Minute),
		),
	)
	testcontainers.CleanupContainer(t, ctr)
	require.NoError(t, err, "start postgres")

	url, err := ctr.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)
	return url
}

// NewPostgresDB 容器中的 Postgres 上的 GORM 连接
func NewPostgresDB(t *testing.T) *gorm.DB {
	t.Helper()

	gdb, err := gorm.Open(postgres.Open(PostgresURL(t)), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err, "open postgres")

	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })
	return gdb
}

// NewRedisClient 容器中的 Redis 客户端，返回前已 PING 通
func NewRedisClient(t *testing.T) *redis.Client {
	t.Helper()
	ctx := context.Background()

	ctr, err := tcRedis.Run(ctx, redisImage)
	testcontainers.CleanupContainer(t, ctr)
	require.NoError(t, err, "start redis")

	url, err := ctr.ConnectionString(ctx)
	require.NoError(t, err)
	opts, err := redis.ParseURL(url)
	require.NoError(t, err)

	client := redis.NewClient(opts)
	t.Cleanup(func() { _ = client.Close() })

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	require.NoError(t, client.Ping(pingCtx).Err(), "ping redis")
	return client
}
