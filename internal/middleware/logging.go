package middleware

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/dumeirei/helpcenter-backend/internal/common/logger"
)

// defaultSkipPrefixes 不记录访问日志的探活与文档路径
var defaultSkipPrefixes = []string{"/health", "/ping", "/ready", "/metrics", "/swagger"}

// AccessLog 访问日志，5xx 记 Error，4xx 记 Warn
//
// 请求体含客户联系方式与照片，不写入日志
func AccessLog(log *zap.Logger, skipPrefixes ...string) gin.HandlerFunc {
	if len(skipPrefixes) == 0 {
		skipPrefixes = defaultSkipPrefixes
	}
	log = log.Named("access")

	return func(c *gin.Context) {
		for _, prefix := range skipPrefixes {
			if strings.HasPrefix(c.Request.URL.Path, prefix) {
				c.Next()
				return
			}
		}

		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		fields := []zap.Field{
			logger.RequestID(GetRequestID(c)),
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.String("route", c.FullPath()),
			zap.Int("status", status),
			logger.Elapsed(time.Since(start)),
			zap.String("ip", c.ClientIP()),
			zap.String("user_agent", c.Request.UserAgent()),
		}
		if adminID := GetAdminID(c); adminID != "" {
			fields = append(fields, logger.AdminID(adminID))
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.String("errors", c.Errors.String()))
		}

		if ce := log.Check(accessLevel(status), "request"); ce != nil {
			ce.Write(fields...)
		}
	}
}

func accessLevel(status int) zapcore.Level {
	switch {
	case status >= 500:
		return zapcore.ErrorLevel
	case status >= 400:
		return zapcore.WarnLevel
	default:
		return zapcore.InfoLevel
	}
}
