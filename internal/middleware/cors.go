package middleware

import (
	"slices"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/dumeirei/helpcenter-backend/internal/common/config"
)

// alwaysExposed 前端需要读取的响应头
var alwaysExposed = []string{HeaderRequestID, "X-RateLimit-Limit", "X-RateLimit-Remaining", "Retry-After"}

// CORS 跨域中间件
//
// 源列表为空或为 "*" 时放行所有源；此时若允许凭证则回显请求源
func CORS(cfg *config.CORSConfig) gin.HandlerFunc {
	cc := cors.Config{
		AllowMethods:     cfg.AllowedMethods,
		AllowHeaders:     cfg.AllowedHeaders,
		ExposeHeaders:    mergeHeaders(cfg.ExposedHeaders, alwaysExposed),
		AllowCredentials: cfg.AllowCredentials,
		MaxAge:           time.Duration(cfg.MaxAge) * time.Second,
	}

	wildcard := len(cfg.AllowedOrigins) == 0 || slices.Contains(cfg.AllowedOrigins, "*")
	switch {
	case wildcard && cfg.AllowCredentials:
		cc.AllowOriginFunc = func(string) bool { return true }
	case wildcard:
		cc.AllowAllOrigins = true
	default:
		cc.AllowOrigins = cfg.AllowedOrigins
	}
	return cors.New(cc)
}

func mergeHeaders(base, extra []string) []string {
	out := slices.Clone(base)
	for _, h := range extra {
		if !slices.Contains(out, h) {
			out = append(out, h)
		}
	}
	return out
}
