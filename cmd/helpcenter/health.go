package main

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// HealthResponse 健康检查响应
type HealthResponse struct {
	Status    string            `json:"status"`
	Version   string            `json:"version,omitempty"`
	Timestamp int64             `json:"timestamp"`
	Checks    map[string]string `json:"checks,omitempty"`
}

// probe 就绪检查项，check 为 nil 表示该依赖未启用
type probe struct {
	name  string
	check func(ctx context.Context) error
}

func dbProbe(db *gorm.DB) probe {
	return probe{name: "database", check: func(ctx context.Context) error {
		sqlDB, err := db.DB()
		if err != nil {
			return err
		}
		return sqlDB.PingContext(ctx)
	}}
}

func redisProbe(client *redis.Client) probe {
	p := probe{name: "redis"}
	if client != nil {
		p.check = func(ctx context.Context) error { return client.Ping(ctx).Err() }
	}
	return p
}

func healthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{Status: "ok", Version: version, Timestamp: time.Now().Unix()})
}

func pingHandler(c *gin.Context) {
	c.String(http.StatusOK, "pong")
}

// readyHandler 依次检查数据库与 Redis，任一失败返回 503
func readyHandler(probes ...probe) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
		defer cancel()

		resp := HealthResponse{Status: "ready", Checks: make(map[string]string, len(probes))}
		code := http.StatusOK
		for _, p := range probes {
			switch {
			case p.check == nil:
				resp.Checks[p.name] = "disabled"
			case p.check(ctx) != nil:
				resp.Checks[p.name] = "unavailable"
				resp.Status, code = "not ready", http.StatusServiceUnavailable
			default:
				resp.Checks[p.name] = "ok"
			}
		}
		resp.Timestamp = time.Now().Unix()
		c.JSON(code, resp)
	}
}
