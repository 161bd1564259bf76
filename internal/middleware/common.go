// Package middleware 提供 HTTP 中间件
package middleware

import (
	"fmt"
	"io"
	"net/http"
	"runtime/debug"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/dumeirei/helpcenter-backend/internal/common/response"
)

// HeaderRequestID 请求 ID 头
const HeaderRequestID = "X-Request-ID"

// ContextKeyRequestID 请求 ID 在 gin.Context 中的键
const ContextKeyRequestID = "request_id"

const maxRequestIDLen = 64

// RequestID 沿用上游传入的请求 ID，缺失或过长时生成 UUID
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(HeaderRequestID)
		if id == "" || len(id) > maxRequestIDLen {
			id = uuid.NewString()
		}
		c.Set(ContextKeyRequestID, id)
		c.Header(HeaderRequestID, id)
		c.Next()
	}
}

// GetRequestID 获取请求 ID
func GetRequestID(c *gin.Context) string {
	return c.GetString(ContextKeyRequestID)
}

// Recovery 捕获 panic，记录堆栈并返回 500 信封
func Recovery(logger *zap.Logger) gin.HandlerFunc {
	return gin.CustomRecoveryWithWriter(io.Discard, func(c *gin.Context, recovered any) {
		logger.Error("panic recovered",
			zap.String("request_id", GetRequestID(c)),
			zap.String("route", c.Request.Method+" "+c.FullPath()),
			zap.String("ip", c.ClientIP()),
			zap.Any("panic", recovered),
			zap.ByteString("stack", debug.Stack()),
		)
		response.InternalError(c, "")
		c.Abort()
	})
}

// SecureHeaders 安全响应头，后台接口额外禁止缓存
func SecureHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		h := c.Writer.Header()
		h.Set("X-Frame-Options", "DENY")
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		if strings.HasPrefix(c.Request.URL.Path, "/api/admin") {
			h.Set("Cache-Control", "no-store")
		}
		c.Next()
	}
}

// RequestSizeLimiter 限制请求体大小
//
// 工单照片以 data URL 形式随请求体提交，上限需覆盖多张图片
func RequestSizeLimiter(maxSize int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.ContentLength > maxSize {
			response.BadRequest(c, fmt.Sprintf("Request body too large, max %d bytes", maxSize))
			c.Abort()
			return
		}
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxSize)
		c.Next()
	}
}
