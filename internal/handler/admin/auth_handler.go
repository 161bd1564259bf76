// Package admin 提供后台管理 HTTP Handler
package admin

import (
	"github.com/gin-gonic/gin"

	"github.com/dumeirei/helpcenter-backend/internal/common/handler"
	"github.com/dumeirei/helpcenter-backend/internal/common/response"
	adminService "github.com/dumeirei/helpcenter-backend/internal/service/admin"
)

// AuthHandler 管理员认证处理器
type AuthHandler struct {
	auth *adminService.AuthService
}

// NewAuthHandler 创建管理员认证处理器
func NewAuthHandler(auth *adminService.AuthService) *AuthHandler {
	return &AuthHandler{auth: auth}
}

// Login 管理员登录
// @Summary 管理员登录
// @Tags 后台认证
// @Accept json
// @Produce json
// @Param request body adminService.LoginRequest true "邮箱与密码"
// @Success 200 {object} response.Response{data=adminService.LoginResponse}
// @Failure 401 {object} response.Response
// @Router /api/admin/auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req adminService.LoginRequest
	if !handler.BindJSON(c, &req) {
		return
	}
	req.IP = c.ClientIP()

	result, err := h.auth.Login(c.Request.Context(), &req)
	handler.MustSucceed(c, err, result)
}

// RefreshTokenRequest 刷新令牌请求
type RefreshTokenRequest struct {
	RefreshToken string `json:"refreshToken" binding:"required"`
}

// RefreshToken 刷新令牌
// @Summary 刷新令牌
// @Tags 后台认证
// @Accept json
// @Produce json
// @Param request body RefreshTokenRequest true "刷新令牌"
// @Success 200 {object} response.Response{data=jwt.TokenPair}
// @Failure 401 {object} response.Response
// @Router /api/admin/auth/refresh [post]
func (h *AuthHandler) RefreshToken(c *gin.Context) {
	var req RefreshTokenRequest
	if !handler.BindJSON(c, &req) {
		return
	}
	pair, err := h.auth.Refresh(c.Request.Context(), req.RefreshToken)
	handler.MustSucceed(c, err, pair)
}

// Me 当前管理员
// @Summary 当前管理员信息
// @Tags 后台认证
// @Produce json
// @Security Bearer
// @Success 200 {object} response.Response{data=adminService.UserInfo}
// @Router /api/admin/auth/me [get]
func (h *AuthHandler) Me(c *gin.Context) {
	adminID, ok := handler.RequireAdminID(c)
	if !ok {
		return
	}
	info, err := h.auth.Me(c.Request.Context(), adminID)
	handler.MustSucceed(c, err, info)
}

// ChangePassword 修改密码
// @Summary 修改当前管理员密码
// @Tags 后台认证
// @Accept json
// @Produce json
// @Security Bearer
// @Param request body adminService.ChangePasswordRequest true "当前密码与新密码"
// @Success 200 {object} response.Response
// @Router /api/admin/auth/password [put]
func (h *AuthHandler) ChangePassword(c *gin.Context) {
	adminID, ok := handler.RequireAdminID(c)
	if !ok {
		return
	}
	var req adminService.ChangePasswordRequest
	if !handler.BindJSON(c, &req) {
		return
	}
	if handler.HandleError(c, h.auth.ChangePassword(c.Request.Context(), adminID, &req)) {
		return
	}
	response.SuccessWithMessage(c, "Password updated", nil)
}

// RegisterPublicRoutes 注册无需认证的路由
func (h *AuthHandler) RegisterPublicRoutes(r *gin.RouterGroup) {
	r.POST("/auth/login", h.Login)
	r.POST("/auth/refresh", h.RefreshToken)
}

// RegisterRoutes 注册需认证的路由
func (h *AuthHandler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/auth/me", h.Me)
	r.PUT("/auth/password", h.ChangePassword)
}
