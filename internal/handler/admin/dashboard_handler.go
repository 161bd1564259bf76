package admin

import (
	"github.com/gin-gonic/gin"

	"github.com/dumeirei/helpcenter-backend/internal/common/handler"
	adminService "github.com/dumeirei/helpcenter-backend/internal/service/admin"
)

// DashboardHandler 仪表盘与操作日志
type DashboardHandler struct {
	dashboard *adminService.DashboardService
}

// NewDashboardHandler 创建仪表盘处理器
func NewDashboardHandler(dashboard *adminService.DashboardService) *DashboardHandler {
	return &DashboardHandler{dashboard: dashboard}
}

// Get 仪表盘统计
// @Summary 仪表盘
// @Tags 后台仪表盘
// @Produce json
// @Security Bearer
// @Success 200 {object} response.Response{data=adminService.Dashboard}
// @Router /api/admin/dashboard [get]
func (h *DashboardHandler) Get(c *gin.Context) {
	dash, err := h.dashboard.Get(c.Request.Context())
	handler.MustSucceed(c, err, dash)
}

// OperationLogs 操作日志
// @Summary 操作日志
// @Tags 后台仪表盘
// @Produce json
// @Security Bearer
// @Param adminId query string false "管理员ID"
// @Param module query string false "模块"
// @Param action query string false "操作"
// @Param targetId query string false "目标ID"
// @Param start query string false "开始日期 (2006-01-02)"
// @Param end query string false "结束日期 (2006-01-02)"
// @Param page query int false "页码"
// @Param page_size query int false "每页数量"
// @Success 200 {object} response.Response{data=response.PageData}
// @Router /api/admin/operation-logs [get]
func (h *DashboardHandler) OperationLogs(c *gin.Context) {
	var filters adminService.OperationLogFilters
	if !handler.BindQuery(c, &filters) {
		return
	}
	p := handler.BindPagination(c)
	list, total, err := h.dashboard.OperationLogs(c.Request.Context(), p.Offset(), p.Limit(), &filters)
	handler.MustSucceedPage(c, err, list, total, p)
}

// RegisterRoutes 注册路由
func (h *DashboardHandler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/dashboard", h.Get)
	r.GET("/operation-logs", h.OperationLogs)
}
