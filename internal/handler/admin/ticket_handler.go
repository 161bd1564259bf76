package admin

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/dumeirei/helpcenter-backend/internal/common/handler"
	"github.com/dumeirei/helpcenter-backend/internal/common/response"
	"github.com/dumeirei/helpcenter-backend/internal/middleware"
	"github.com/dumeirei/helpcenter-backend/internal/service/ticket"
	"github.com/dumeirei/helpcenter-backend/internal/service/upload"
)

// TicketHandler 工单管理处理器
type TicketHandler struct {
	tickets *ticket.Service
	photos  *upload.PhotoStore
}

// NewTicketHandler 创建工单管理处理器
func NewTicketHandler(tickets *ticket.Service, photos *upload.PhotoStore) *TicketHandler {
	return &TicketHandler{tickets: tickets, photos: photos}
}

// TicketListResponse 工单列表（附带统计）
type TicketListResponse struct {
	response.PageData
	Counts interface{} `json:"counts"`
}

// List 工单列表
// @Summary 工单列表
// @Tags 后台工单
// @Produce json
// @Security Bearer
// @Param type query string false "工单类型"
// @Param status query string false "状态"
// @Param q query string false "关键词（工单号、姓名、邮箱、主题）"
// @Param page query int false "页码"
// @Param page_size query int false "每页数量"
// @Success 200 {object} response.Response{data=TicketListResponse}
// @Router /api/admin/tickets [get]
func (h *TicketHandler) List(c *gin.Context) {
	var filters ticket.ListFilters
	if !handler.BindQuery(c, &filters) {
		return
	}
	p := handler.BindPagination(c)

	ctx := c.Request.Context()
	list, total, err := h.tickets.List(ctx, p.Offset(), p.Limit(), &filters)
	if handler.HandleError(c, err) {
		return
	}
	counts, err := h.tickets.Counts(ctx)
	if handler.HandleError(c, err) {
		return
	}
	response.Success(c, TicketListResponse{
		PageData: response.PageData{List: list, Total: total, Page: p.Page, PageSize: p.PageSize},
		Counts:   counts,
	})
}

// Get 工单详情（含回复）
// @Summary 工单详情
// @Tags 后台工单
// @Produce json
// @Security Bearer
// @Param id path string true "工单ID或工单号"
// @Success 200 {object} response.Response{data=models.Ticket}
// @Failure 404 {object} response.Response
// @Router /api/admin/tickets/{id} [get]
func (h *TicketHandler) Get(c *gin.Context) {
	ref, ok := handler.ParseID(c, "ticket")
	if !ok {
		return
	}
	t, err := h.tickets.Get(c.Request.Context(), ref)
	handler.MustSucceed(c, err, t)
}

// Update 更新状态、优先级、备注、指派人
// @Summary 更新工单
// @Tags 后台工单
// @Accept json
// @Produce json
// @Security Bearer
// @Param id path string true "工单ID或工单号"
// @Param request body ticket.UpdateRequest true "更新字段"
// @Success 200 {object} response.Response{data=models.Ticket}
// @Router /api/admin/tickets/{id} [patch]
func (h *TicketHandler) Update(c *gin.Context) {
	ref, ok := handler.ParseID(c, "ticket")
	if !ok {
		return
	}
	var req ticket.UpdateRequest
	if !handler.BindJSON(c, &req) {
		return
	}
	t, err := h.tickets.Update(c.Request.Context(), ref, &req)
	handler.MustSucceed(c, err, t)
}

// Delete 删除工单
// @Summary 删除工单及其回复
// @Tags 后台工单
// @Produce json
// @Security Bearer
// @Param id path string true "工单ID或工单号"
// @Success 200 {object} response.Response
// @Router /api/admin/tickets/{id} [delete]
func (h *TicketHandler) Delete(c *gin.Context) {
	ref, ok := handler.ParseID(c, "ticket")
	if !ok {
		return
	}
	handler.MustSucceedWithMessage(c, h.tickets.Delete(c.Request.Context(), ref), "Ticket deleted", nil)
}

// ListReplies 回复列表
// @Summary 工单回复列表
// @Tags 后台工单
// @Produce json
// @Security Bearer
// @Param id path string true "工单ID或工单号"
// @Success 200 {object} response.Response{data=[]models.TicketReply}
// @Router /api/admin/tickets/{id}/replies [get]
func (h *TicketHandler) ListReplies(c *gin.Context) {
	ref, ok := handler.ParseID(c, "ticket")
	if !ok {
		return
	}
	replies, err := h.tickets.ListReplies(c.Request.Context(), ref)
	handler.MustSucceed(c, err, replies)
}

// Reply 回复客户或添加内部备注
// @Summary 回复工单
// @Description type=reply 时发送邮件并更新状态；type=note 仅记录为内部备注，不发送邮件、不改变状态
// @Tags 后台工单
// @Accept json
// @Produce json
// @Security Bearer
// @Param id path string true "工单ID或工单号"
// @Param request body ticket.ReplyRequest true "回复内容"
// @Success 201 {object} response.Response{data=ticket.ReplyResult}
// @Router /api/admin/tickets/{id}/replies [post]
func (h *TicketHandler) Reply(c *gin.Context) {
	adminID, ok := handler.RequireAdminID(c)
	if !ok {
		return
	}
	ref, ok := handler.ParseID(c, "ticket")
	if !ok {
		return
	}
	var req ticket.ReplyRequest
	if !handler.BindJSON(c, &req) {
		return
	}

	author := ticket.Author{
		ID:    adminID,
		Name:  middleware.GetAdminName(c),
		Email: middleware.GetAdminEmail(c),
	}
	result, err := h.tickets.AppendReply(c.Request.Context(), ref, &req, author)
	if handler.HandleError(c, err) {
		return
	}
	response.Created(c, result)
}

// Label 工单二维码标签
// @Summary 下载工单号二维码标签（PNG）
// @Tags 后台工单
// @Produce png
// @Security Bearer
// @Param id path string true "工单ID或工单号"
// @Success 200 {file} binary
// @Router /api/admin/tickets/{id}/label [get]
func (h *TicketHandler) Label(c *gin.Context) {
	ref, ok := handler.ParseID(c, "ticket")
	if !ok {
		return
	}
	png, number, err := h.tickets.Label(c.Request.Context(), ref)
	if handler.HandleError(c, err) {
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf(`inline; filename="%s.png"`, number))
	c.Data(http.StatusOK, "image/png", png)
}

// Upload 上传回复附件
// @Summary 上传回复附件（图片）
// @Tags 后台工单
// @Accept multipart/form-data
// @Produce json
// @Security Bearer
// @Param file formData file true "图片"
// @Success 201 {object} response.Response{data=upload.UploadResult}
// @Router /api/admin/uploads [post]
func (h *TicketHandler) Upload(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		response.BadRequest(c, "No file provided")
		return
	}
	result, err := h.photos.UploadAttachment(c.Request.Context(), file)
	if handler.HandleError(c, err) {
		return
	}
	response.Created(c, result)
}

// RegisterRoutes 注册路由
func (h *TicketHandler) RegisterRoutes(r *gin.RouterGroup) {
	tickets := r.Group("/tickets")
	{
		tickets.GET("", h.List)
		tickets.GET("/:id", h.Get)
		tickets.PATCH("/:id", h.Update)
		tickets.DELETE("/:id", h.Delete)
		tickets.GET("/:id/replies", h.ListReplies)
		tickets.POST("/:id/replies", h.Reply)
		tickets.GET("/:id/label", h.Label)
	}
	r.POST("/uploads", h.Upload)
}
