package admin

import (
	"github.com/gin-gonic/gin"

	"github.com/dumeirei/helpcenter-backend/internal/common/handler"
	"github.com/dumeirei/helpcenter-backend/internal/common/response"
	contentService "github.com/dumeirei/helpcenter-backend/internal/service/content"
)

// ContentHandler 分类、文章与译文管理
type ContentHandler struct {
	catalog *contentService.Service
}

// NewContentHandler 创建内容管理处理器
func NewContentHandler(catalog *contentService.Service) *ContentHandler {
	return &ContentHandler{catalog: catalog}
}

// ==================== 分类 ====================

// ListCategories 分类列表（含停用与文章数）
// @Summary 分类列表
// @Tags 后台内容
// @Produce json
// @Security Bearer
// @Success 200 {object} response.Response{data=[]repository.CategoryWithCount}
// @Router /api/admin/categories [get]
func (h *ContentHandler) ListCategories(c *gin.Context) {
	list, err := h.catalog.ListCategories(c.Request.Context())
	handler.MustSucceed(c, err, list)
}

// CreateCategory 创建分类
// @Summary 创建分类
// @Tags 后台内容
// @Accept json
// @Produce json
// @Security Bearer
// @Param request body contentService.CategoryRequest true "分类"
// @Success 201 {object} response.Response{data=models.Category}
// @Router /api/admin/categories [post]
func (h *ContentHandler) CreateCategory(c *gin.Context) {
	var req contentService.CategoryRequest
	if !handler.BindJSON(c, &req) {
		return
	}
	category, err := h.catalog.CreateCategory(c.Request.Context(), &req)
	if handler.HandleError(c, err) {
		return
	}
	response.Created(c, category)
}

// GetCategory 分类详情
// @Summary 分类详情
// @Tags 后台内容
// @Produce json
// @Security Bearer
// @Param id path string true "分类ID"
// @Success 200 {object} response.Response{data=models.Category}
// @Router /api/admin/categories/{id} [get]
func (h *ContentHandler) GetCategory(c *gin.Context) {
	id, ok := handler.ParseID(c, "category")
	if !ok {
		return
	}
	category, err := h.catalog.GetCategory(c.Request.Context(), id)
	handler.MustSucceed(c, err, category)
}

// UpdateCategory 更新分类
// @Summary 更新分类
// @Tags 后台内容
// @Accept json
// @Produce json
// @Security Bearer
// @Param id path string true "分类ID"
// @Param request body contentService.CategoryUpdateRequest true "分类"
// @Success 200 {object} response.Response{data=models.Category}
// @Router /api/admin/categories/{id} [put]
func (h *ContentHandler) UpdateCategory(c *gin.Context) {
	id, ok := handler.ParseID(c, "category")
	if !ok {
		return
	}
	var req contentService.CategoryUpdateRequest
	if !handler.BindJSON(c, &req) {
		return
	}
	category, err := h.catalog.UpdateCategory(c.Request.Context(), id, &req)
	handler.MustSucceed(c, err, category)
}

// DeleteCategory 删除分类及其文章
// @Summary 删除分类（级联删除文章与译文）
// @Tags 后台内容
// @Produce json
// @Security Bearer
// @Param id path string true "分类ID"
// @Success 200 {object} response.Response
// @Router /api/admin/categories/{id} [delete]
func (h *ContentHandler) DeleteCategory(c *gin.Context) {
	id, ok := handler.ParseID(c, "category")
	if !ok {
		return
	}
	removed, err := h.catalog.DeleteCategory(c.Request.Context(), id)
	handler.MustSucceed(c, err, gin.H{"articlesRemoved": removed})
}

// ==================== 文章 ====================

// ListArticles 文章列表
// @Summary 文章列表
// @Tags 后台内容
// @Produce json
// @Security Bearer
// @Param categoryId query string false "分类ID"
// @Param published query bool false "是否发布"
// @Param q query string false "关键词"
// @Param page query int false "页码"
// @Param page_size query int false "每页数量"
// @Success 200 {object} response.Response{data=response.PageData}
// @Router /api/admin/articles [get]
func (h *ContentHandler) ListArticles(c *gin.Context) {
	var filters contentService.ArticleFilters
	if !handler.BindQuery(c, &filters) {
		return
	}
	p := handler.BindPagination(c)
	list, total, err := h.catalog.ListArticles(c.Request.Context(), p.Offset(), p.Limit(), &filters)
	handler.MustSucceedPage(c, err, list, total, p)
}

// CreateArticle 创建文章
// @Summary 创建文章（HTML 或 Markdown）
// @Tags 后台内容
// @Accept json
// @Produce json
// @Security Bearer
// @Param request body contentService.ArticleRequest true "文章"
// @Success 201 {object} response.Response{data=models.Article}
// @Router /api/admin/articles [post]
func (h *ContentHandler) CreateArticle(c *gin.Context) {
	var req contentService.ArticleRequest
	if !handler.BindJSON(c, &req) {
		return
	}
	article, err := h.catalog.CreateArticle(c.Request.Context(), &req)
	if handler.HandleError(c, err) {
		return
	}
	response.Created(c, article)
}

// GetArticle 文章详情
// @Summary 文章详情
// @Tags 后台内容
// @Produce json
// @Security Bearer
// @Param id path string true "文章ID"
// @Success 200 {object} response.Response{data=models.Article}
// @Router /api/admin/articles/{id} [get]
func (h *ContentHandler) GetArticle(c *gin.Context) {
	id, ok := handler.ParseID(c, "article")
	if !ok {
		return
	}
	article, err := h.catalog.GetArticle(c.Request.Context(), id)
	handler.MustSucceed(c, err, article)
}

// UpdateArticle 更新文章
// @Summary 更新文章
// @Tags 后台内容
// @Accept json
// @Produce json
// @Security Bearer
// @Param id path string true "文章ID"
// @Param request body contentService.ArticleUpdateRequest true "文章"
// @Success 200 {object} response.Response{data=models.Article}
// @Router /api/admin/articles/{id} [put]
func (h *ContentHandler) UpdateArticle(c *gin.Context) {
	id, ok := handler.ParseID(c, "article")
	if !ok {
		return
	}
	var req contentService.ArticleUpdateRequest
	if !handler.BindJSON(c, &req) {
		return
	}
	article, err := h.catalog.UpdateArticle(c.Request.Context(), id, &req)
	handler.MustSucceed(c, err, article)
}

// DeleteArticle 删除文章
// @Summary 删除文章
// @Tags 后台内容
// @Produce json
// @Security Bearer
// @Param id path string true "文章ID"
// @Success 200 {object} response.Response
// @Router /api/admin/articles/{id} [delete]
func (h *ContentHandler) DeleteArticle(c *gin.Context) {
	id, ok := handler.ParseID(c, "article")
	if !ok {
		return
	}
	handler.MustSucceedWithMessage(c, h.catalog.DeleteArticle(c.Request.Context(), id), "Article deleted", nil)
}

// ==================== 译文 ====================

// TranslationQuery 译文定位参数
type TranslationQuery struct {
	Type   string `form:"type" json:"type" binding:"required,oneof=article category"`
	ID     string `form:"id" json:"id" binding:"required"`
	Locale string `form:"locale" json:"locale"`
}

// UpsertTranslationRequest 保存译文请求
type UpsertTranslationRequest struct {
	TranslationQuery
	contentService.TranslationRequest
}

// ListTranslations 列出译文；带 locale 时返回单条
// @Summary 译文列表
// @Tags 后台内容
// @Produce json
// @Security Bearer
// @Param type query string true "article 或 category"
// @Param id query string true "文章或分类ID"
// @Param locale query string false "语言代码"
// @Success 200 {object} response.Response
// @Router /api/admin/translations [get]
func (h *ContentHandler) ListTranslations(c *gin.Context) {
	var q TranslationQuery
	if !handler.BindQuery(c, &q) {
		return
	}
	if q.Locale != "" {
		tr, err := h.catalog.GetTranslation(c.Request.Context(), q.Type, q.ID, q.Locale)
		handler.MustSucceed(c, err, tr)
		return
	}
	list, err := h.catalog.ListTranslations(c.Request.Context(), q.Type, q.ID)
	handler.MustSucceed(c, err, list)
}

// UpsertTranslation 新增或覆盖译文
// @Summary 保存译文
// @Tags 后台内容
// @Accept json
// @Produce json
// @Security Bearer
// @Param request body UpsertTranslationRequest true "译文"
// @Success 200 {object} response.Response
// @Router /api/admin/translations [post]
func (h *ContentHandler) UpsertTranslation(c *gin.Context) {
	var req UpsertTranslationRequest
	if !handler.BindJSON(c, &req) {
		return
	}
	tr, err := h.catalog.UpsertTranslation(c.Request.Context(), req.Type, req.ID, req.Locale, &req.TranslationRequest)
	handler.MustSucceed(c, err, tr)
}

// DeleteTranslation 删除译文
// @Summary 删除译文
// @Tags 后台内容
// @Produce json
// @Security Bearer
// @Param type query string true "article 或 category"
// @Param id query string true "文章或分类ID"
// @Param locale query string true "语言代码"
// @Success 200 {object} response.Response
// @Router /api/admin/translations [delete]
func (h *ContentHandler) DeleteTranslation(c *gin.Context) {
	var q TranslationQuery
	if !handler.BindQuery(c, &q) {
		return
	}
	err := h.catalog.DeleteTranslation(c.Request.Context(), q.Type, q.ID, q.Locale)
	handler.MustSucceedWithMessage(c, err, "Translation deleted", nil)
}

// RegisterRoutes 注册路由
func (h *ContentHandler) RegisterRoutes(r *gin.RouterGroup) {
	categories := r.Group("/categories")
	{
		categories.GET("", h.ListCategories)
		categories.POST("", h.CreateCategory)
		categories.GET("/:id", h.GetCategory)
		categories.PUT("/:id", h.UpdateCategory)
		categories.DELETE("/:id", h.DeleteCategory)
	}

	articles := r.Group("/articles")
	{
		articles.GET("", h.ListArticles)
		articles.POST("", h.CreateArticle)
		articles.GET("/:id", h.GetArticle)
		articles.PUT("/:id", h.UpdateArticle)
		articles.DELETE("/:id", h.DeleteArticle)
	}

	r.GET("/translations", h.ListTranslations)
	r.POST("/translations", h.UpsertTranslation)
	r.DELETE("/translations", h.DeleteTranslation)
}
