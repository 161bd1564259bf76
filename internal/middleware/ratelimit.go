package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/dumeirei/helpcenter-backend/internal/common/response"
)

// RateLimitConfig 固定窗口限流配置
type RateLimitConfig struct {
	Client  *redis.Client
	Prefix  string
	Limit   int
	Window  time.Duration
	Message string
	// Key 计数维度，默认按客户端 IP 与路由
	Key func(*gin.Context) string
}

// RateLimit 固定窗口限流
//
// 计数与首次过期在同一事务内设置；Client 为空或 Redis 出错时放行
func RateLimit(cfg *RateLimitConfig) gin.HandlerFunc {
	keyOf := cfg.Key
	if keyOf == nil {
		keyOf = func(c *gin.Context) string { return c.ClientIP() + ":" + c.FullPath() }
	}
	limit := strconv.Itoa(cfg.Limit)

	return func(c *gin.Context) {
		if cfg.Client == nil || cfg.Limit <= 0 {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		key := cfg.Prefix + keyOf(c)

		var incr *redis.IntCmd
		var ttl *redis.DurationCmd
		_, err := cfg.Client.TxPipelined(ctx, func(p redis.Pipeliner) error {
			incr = p.Incr(ctx, key)
			p.ExpireNX(ctx, key, cfg.Window)
			ttl = p.TTL(ctx, key)
			return nil
		})
		if err != nil {
			c.Next()
			return
		}

		count := int(incr.Val())
		c.Header("X-RateLimit-Limit", limit)
		if count > cfg.Limit {
			c.Header("X-RateLimit-Remaining", "0")
			c.Header("Retry-After", strconv.Itoa(retryAfter(ttl.Val(), cfg.Window)))
			response.TooManyRequests(c, cfg.Message)
			c.Abort()
			return
		}
		c.Header("X-RateLimit-Remaining", strconv.Itoa(cfg.Limit-count))
		c.Next()
	}
}

func retryAfter(ttl, window time.Duration) int {
	if ttl <= 0 {
		ttl = window
	}
	secs := int(ttl.Round(time.Second) / time.Second)
	if secs < 1 {
		secs = 1
	}
	return secs
}

// SubmissionRateLimit 公开表单提交，按 IP 与路由计数
func SubmissionRateLimit(client *redis.Client, limit int, window time.Duration) gin.HandlerFunc {
	return RateLimit(&RateLimitConfig{
		Client:  client,
		Prefix:  "ratelimit:submit:",
		Limit:   limit,
		Window:  window,
		Message: "Too many submissions, please try again later",
	})
}

// LoginRateLimit 后台登录，仅按 IP 计数
func LoginRateLimit(client *redis.Client, limit int, window time.Duration) gin.HandlerFunc {
	return RateLimit(&RateLimitConfig{
		Client:  client,
		Prefix:  "ratelimit:login:",
		Limit:   limit,
		Window:  window,
		Message: "Too many login attempts, please try again later",
		Key:     func(c *gin.Context) string { return c.ClientIP() },
	})
}
