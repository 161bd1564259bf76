// Package support 提供公开的工单、退货申请与站点配置接口
package support

import (
	"github.com/gin-gonic/gin"

	"github.com/dumeirei/helpcenter-backend/internal/common/handler"
	"github.com/dumeirei/helpcenter-backend/internal/common/response"
	adminService "github.com/dumeirei/helpcenter-backend/internal/service/admin"
	"github.com/dumeirei/helpcenter-backend/internal/service/returnform"
	"github.com/dumeirei/helpcenter-backend/internal/service/returns"
	"github.com/dumeirei/helpcenter-backend/internal/service/ticket"
)

// Handler 公开受理处理器
type Handler struct {
	tickets  *ticket.Service
	returns  *returns.Service
	forms    *returnform.Service
	settings *adminService.SettingsService
}

// NewHandler 创建公开受理处理器
func NewHandler(
	tickets *ticket.Service,
	returnsSvc *returns.Service,
	forms *returnform.Service,
	settings *adminService.SettingsService,
) *Handler {
	return &Handler{
		tickets:  tickets,
		returns:  returnsSvc,
		forms:    forms,
		settings: settings,
	}
}

// CreateTicket 提交工单
// @Summary 提交工单（咨询、退货、支持、投诉）
// @Tags 公开受理
// @Accept json
// @Produce json
// @Param request body ticket.CreateRequest true "工单内容"
// @Success 200 {object} response.Response{data=ticket.CreateResult}
// @Failure 400 {object} response.Response
// @Router /api/v1/tickets [post]
func (h *Handler) CreateTicket(c *gin.Context) {
	var req ticket.CreateRequest
	if !handler.BindJSON(c, &req) {
		return
	}

	result, err := h.tickets.Create(c.Request.Context(), &req)
	if handler.HandleError(c, err) {
		return
	}
	response.SuccessWithMessage(c, result.Message, result)
}

// SubmitReturn 提交独立退货申请
// @Summary 提交退货申请
// @Tags 公开受理
// @Accept json
// @Produce json
// @Param request body returns.SubmitRequest true "退货申请"
// @Success 200 {object} response.Response{data=returns.SubmitResult}
// @Failure 400 {object} response.Response
// @Router /api/v1/return-requests [post]
func (h *Handler) SubmitReturn(c *gin.Context) {
	var req returns.SubmitRequest
	if !handler.BindJSON(c, &req) {
		return
	}

	result, err := h.returns.Submit(c.Request.Context(), &req)
	if handler.HandleError(c, err) {
		return
	}
	response.SuccessWithMessage(c, result.Message, result)
}

// GetReturnForm 获取退货表单配置（含各原因的能力与必填项）
// @Summary 获取退货表单配置
// @Tags 公开受理
// @Produce json
// @Success 200 {object} response.Response{data=returnform.PublicForm}
// @Router /api/v1/return-form [get]
func (h *Handler) GetReturnForm(c *gin.Context) {
	snap, err := h.forms.Current(c.Request.Context())
	if handler.HandleError(c, err) {
		return
	}
	response.Success(c, snap.Public())
}

// GetSettings 获取站点设置
// @Summary 获取站点设置
// @Tags 公开受理
// @Produce json
// @Success 200 {object} response.Response{data=models.SiteSettings}
// @Router /api/v1/settings [get]
func (h *Handler) GetSettings(c *gin.Context) {
	settings, err := h.settings.Current(c.Request.Context())
	handler.MustSucceed(c, err, settings)
}

// RegisterRoutes 注册只读路由
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/settings", h.GetSettings)
	r.GET("/return-form", h.GetReturnForm)
}

// RegisterSubmitRoutes 注册提交路由，调用方负责挂载限流
func (h *Handler) RegisterSubmitRoutes(r *gin.RouterGroup) {
	r.POST("/tickets", h.CreateTicket)
	r.POST("/return-requests", h.SubmitReturn)
}
