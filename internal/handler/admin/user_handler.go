package admin

import (
	"github.com/gin-gonic/gin"

	"github.com/dumeirei/helpcenter-backend/internal/common/handler"
	"github.com/dumeirei/helpcenter-backend/internal/common/response"
	adminService "github.com/dumeirei/helpcenter-backend/internal/service/admin"
)

// UserHandler 后台账号管理
type UserHandler struct {
	users *adminService.UserService
}

// NewUserHandler 创建账号管理处理器
func NewUserHandler(users *adminService.UserService) *UserHandler {
	return &UserHandler{users: users}
}

// List 账号列表
// @Summary 后台账号列表
// @Tags 后台账号
// @Produce json
// @Security Bearer
// @Success 200 {object} response.Response{data=[]adminService.UserInfo}
// @Router /api/admin/users [get]
func (h *UserHandler) List(c *gin.Context) {
	list, err := h.users.List(c.Request.Context())
	handler.MustSucceed(c, err, list)
}

// Get 账号详情
// @Summary 后台账号详情
// @Tags 后台账号
// @Produce json
// @Security Bearer
// @Param id path string true "账号ID"
// @Success 200 {object} response.Response{data=adminService.UserInfo}
// @Router /api/admin/users/{id} [get]
func (h *UserHandler) Get(c *gin.Context) {
	id, ok := handler.ParseID(c, "user")
	if !ok {
		return
	}
	info, err := h.users.Get(c.Request.Context(), id)
	handler.MustSucceed(c, err, info)
}

// Create 创建账号
// @Summary 创建后台账号
// @Tags 后台账号
// @Accept json
// @Produce json
// @Security Bearer
// @Param request body adminService.CreateUserRequest true "账号"
// @Success 201 {object} response.Response{data=adminService.UserInfo}
// @Router /api/admin/users [post]
func (h *UserHandler) Create(c *gin.Context) {
	var req adminService.CreateUserRequest
	if !handler.BindJSON(c, &req) {
		return
	}
	info, err := h.users.Create(c.Request.Context(), &req)
	if handler.HandleError(c, err) {
		return
	}
	response.Created(c, info)
}

// Update 更新账号
// @Summary 更新后台账号
// @Tags 后台账号
// @Accept json
// @Produce json
// @Security Bearer
// @Param id path string true "账号ID"
// @Param request body adminService.UpdateUserRequest true "账号"
// @Success 200 {object} response.Response{data=adminService.UserInfo}
// @Router /api/admin/users/{id} [put]
func (h *UserHandler) Update(c *gin.Context) {
	id, ok := handler.ParseID(c, "user")
	if !ok {
		return
	}
	var req adminService.UpdateUserRequest
	if !handler.BindJSON(c, &req) {
		return
	}
	info, err := h.users.Update(c.Request.Context(), id, &req)
	handler.MustSucceed(c, err, info)
}

// Delete 删除账号，不能删除自己或最后一个账号
// @Summary 删除后台账号
// @Tags 后台账号
// @Produce json
// @Security Bearer
// @Param id path string true "账号ID"
// @Success 200 {object} response.Response
// @Router /api/admin/users/{id} [delete]
func (h *UserHandler) Delete(c *gin.Context) {
	actorID, ok := handler.RequireAdminID(c)
	if !ok {
		return
	}
	id, ok := handler.ParseID(c, "user")
	if !ok {
		return
	}
	handler.MustSucceedWithMessage(c, h.users.Delete(c.Request.Context(), actorID, id), "User deleted", nil)
}

// RegisterRoutes 注册路由
func (h *UserHandler) RegisterRoutes(r *gin.RouterGroup) {
	g := r.Group("/users")
	{
		g.GET("", h.List)
		g.POST("", h.Create)
		g.GET("/:id", h.Get)
		g.PUT("/:id", h.Update)
		g.DELETE("/:id", h.Delete)
	}
}
