package admin

import (
	"github.com/gin-gonic/gin"

	"github.com/dumeirei/helpcenter-backend/internal/common/handler"
	"github.com/dumeirei/helpcenter-backend/internal/service/returns"
)

// ReturnsHandler 退货申请管理
type ReturnsHandler struct {
	returns *returns.Service
}

// NewReturnsHandler 创建退货申请管理处理器
func NewReturnsHandler(svc *returns.Service) *ReturnsHandler {
	return &ReturnsHandler{returns: svc}
}

// List 退货申请列表
// @Summary 退货申请列表
// @Tags 后台退货
// @Produce json
// @Security Bearer
// @Param status query string false "状态"
// @Param reason query string false "退货原因"
// @Param q query string false "关键词"
// @Param page query int false "页码"
// @Param page_size query int false "每页数量"
// @Success 200 {object} response.Response{data=response.PageData}
// @Router /api/admin/returns [get]
func (h *ReturnsHandler) List(c *gin.Context) {
	var filters returns.ListFilters
	if !handler.BindQuery(c, &filters) {
		return
	}
	p := handler.BindPagination(c)
	list, total, err := h.returns.List(c.Request.Context(), p.Offset(), p.Limit(), &filters)
	handler.MustSucceedPage(c, err, list, total, p)
}

// Get 退货申请详情
// @Summary 退货申请详情
// @Tags 后台退货
// @Produce json
// @Security Bearer
// @Param id path string true "申请ID"
// @Success 200 {object} response.Response{data=models.ReturnRequest}
// @Router /api/admin/returns/{id} [get]
func (h *ReturnsHandler) Get(c *gin.Context) {
	id, ok := handler.ParseID(c, "return request")
	if !ok {
		return
	}
	req, err := h.returns.Get(c.Request.Context(), id)
	handler.MustSucceed(c, err, req)
}

// Update 更新状态与备注
// @Summary 更新退货申请
// @Tags 后台退货
// @Accept json
// @Produce json
// @Security Bearer
// @Param id path string true "申请ID"
// @Param request body returns.UpdateRequest true "更新字段"
// @Success 200 {object} response.Response{data=models.ReturnRequest}
// @Router /api/admin/returns/{id} [patch]
func (h *ReturnsHandler) Update(c *gin.Context) {
	id, ok := handler.ParseID(c, "return request")
	if !ok {
		return
	}
	var req returns.UpdateRequest
	if !handler.BindJSON(c, &req) {
		return
	}
	updated, err := h.returns.Update(c.Request.Context(), id, &req)
	handler.MustSucceed(c, err, updated)
}

// Delete 删除退货申请
// @Summary 删除退货申请
// @Tags 后台退货
// @Produce json
// @Security Bearer
// @Param id path string true "申请ID"
// @Success 200 {object} response.Response
// @Router /api/admin/returns/{id} [delete]
func (h *ReturnsHandler) Delete(c *gin.Context) {
	id, ok := handler.ParseID(c, "return request")
	if !ok {
		return
	}
	handler.MustSucceedWithMessage(c, h.returns.Delete(c.Request.Context(), id), "Return request deleted", nil)
}

// RegisterRoutes 注册路由
func (h *ReturnsHandler) RegisterRoutes(r *gin.RouterGroup) {
	g := r.Group("/returns")
	{
		g.GET("", h.List)
		g.GET("/:id", h.Get)
		g.PATCH("/:id", h.Update)
		g.DELETE("/:id", h.Delete)
	}
}
