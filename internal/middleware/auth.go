// Package middleware 提供 HTTP 中间件
package middleware

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/dumeirei/helpcenter-backend/internal/common/jwt"
	"github.com/dumeirei/helpcenter-backend/internal/common/response"
)

// 上下文键
const (
	ContextKeyAdminID    = "admin_id"
	ContextKeyAdminName  = "admin_name"
	ContextKeyAdminEmail = "admin_email"
	ContextKeyClaims     = "claims"
)

// AdminAuth 管理员认证中间件
//
// 未携带或携带无效令牌的请求在进入任何 Handler 之前即被拒绝
func AdminAuth(jwtManager *jwt.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractToken(c)
		if token == "" {
			response.Unauthorized(c, "Unauthorized")
			c.Abort()
			return
		}

		claims, err := jwtManager.ParseAccessToken(token)
		if err != nil {
			if errors.Is(err, jwt.ErrTokenExpired) {
				response.Unauthorized(c, "Session expired, please sign in again")
			} else {
				response.Unauthorized(c, "Invalid token")
			}
			c.Abort()
			return
		}

		c.Set(ContextKeyAdminID, claims.UserID)
		c.Set(ContextKeyAdminName, claims.Name)
		c.Set(ContextKeyAdminEmail, claims.Email)
		c.Set(ContextKeyClaims, claims)

		c.Next()
	}
}

// extractToken 从请求中提取令牌
func extractToken(c *gin.Context) string {
	// 优先从 Authorization 头获取
	authHeader := c.GetHeader("Authorization")
	if authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) == 2 && strings.ToLower(parts[0]) == "bearer" {
			return parts[1]
		}
	}

	// 其次从 Cookie 获取
	token, _ := c.Cookie("token")
	return token
}

// GetAdminID 从上下文获取管理员 ID
func GetAdminID(c *gin.Context) string {
	return c.GetString(ContextKeyAdminID)
}

// GetAdminName 从上下文获取管理员名称
func GetAdminName(c *gin.Context) string {
	return c.GetString(ContextKeyAdminName)
}

// GetAdminEmail 从上下文获取管理员邮箱
func GetAdminEmail(c *gin.Context) string {
	return c.GetString(ContextKeyAdminEmail)
}

// GetClaims 从上下文获取完整的 Claims
func GetClaims(c *gin.Context) *jwt.Claims {
	claims, exists := c.Get(ContextKeyClaims)
	if !exists {
		return nil
	}
	return claims.(*jwt.Claims)
}
