// Package content 提供公开的知识库接口
package content

import (
	"github.com/gin-gonic/gin"

	"github.com/dumeirei/helpcenter-backend/internal/common/handler"
	contentService "github.com/dumeirei/helpcenter-backend/internal/service/content"
)

// Handler 知识库处理器
type Handler struct {
	catalog *contentService.Service
}

// NewHandler 创建知识库处理器
func NewHandler(catalog *contentService.Service) *Handler {
	return &Handler{catalog: catalog}
}

// locale 读取 ?locale=，缺省时使用 Accept-Language
func locale(c *gin.Context) string {
	if l := c.Query("locale"); l != "" {
		return l
	}
	return c.GetHeader("Accept-Language")
}

// ListCategories 启用分类列表
// @Summary 分类列表
// @Tags 知识库
// @Produce json
// @Param locale query string false "语言代码"
// @Success 200 {object} response.Response{data=[]contentService.CategoryView}
// @Router /api/v1/categories [get]
func (h *Handler) ListCategories(c *gin.Context) {
	list, err := h.catalog.PublicCategories(c.Request.Context(), locale(c))
	handler.MustSucceed(c, err, list)
}

// GetCategory 分类页
// @Summary 分类及其文章
// @Tags 知识库
// @Produce json
// @Param slug path string true "分类 slug"
// @Param locale query string false "语言代码"
// @Success 200 {object} response.Response{data=contentService.CategoryPage}
// @Failure 404 {object} response.Response
// @Router /api/v1/categories/{slug} [get]
func (h *Handler) GetCategory(c *gin.Context) {
	slug, ok := handler.ParseParam(c, "slug", "category")
	if !ok {
		return
	}
	page, err := h.catalog.CategoryPage(c.Request.Context(), slug, locale(c))
	handler.MustSucceed(c, err, page)
}

// PopularArticles 热门文章
// @Summary 热门文章
// @Tags 知识库
// @Produce json
// @Param locale query string false "语言代码"
// @Success 200 {object} response.Response{data=[]contentService.ArticleView}
// @Router /api/v1/articles/popular [get]
func (h *Handler) PopularArticles(c *gin.Context) {
	list, err := h.catalog.PopularArticles(c.Request.Context(), locale(c))
	handler.MustSucceed(c, err, list)
}

// GetArticle 文章详情（浏览量加一）
// @Summary 文章详情
// @Tags 知识库
// @Produce json
// @Param slug path string true "文章 slug"
// @Param locale query string false "语言代码"
// @Success 200 {object} response.Response{data=contentService.ArticlePage}
// @Failure 404 {object} response.Response
// @Router /api/v1/articles/{slug} [get]
func (h *Handler) GetArticle(c *gin.Context) {
	slug, ok := handler.ParseParam(c, "slug", "article")
	if !ok {
		return
	}
	page, err := h.catalog.ArticlePage(c.Request.Context(), slug, locale(c))
	handler.MustSucceed(c, err, page)
}

// Search 搜索文章
// @Summary 搜索已发布文章
// @Tags 知识库
// @Produce json
// @Param q query string false "关键词"
// @Param locale query string false "语言代码"
// @Success 200 {object} response.Response{data=[]contentService.ArticleView}
// @Router /api/v1/search [get]
func (h *Handler) Search(c *gin.Context) {
	results, err := h.catalog.Search(c.Request.Context(), c.Query("q"), locale(c))
	handler.MustSucceed(c, err, results)
}

// Locales 支持的语言
// @Summary 支持的语言列表
// @Tags 知识库
// @Produce json
// @Success 200 {object} response.Response{data=[]string}
// @Router /api/v1/locales [get]
func (h *Handler) Locales(c *gin.Context) {
	handler.MustSucceed(c, nil, h.catalog.Locales().Supported())
}

// RegisterRoutes 注册路由
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/locales", h.Locales)
	r.GET("/categories", h.ListCategories)
	r.GET("/categories/:slug", h.GetCategory)
	r.GET("/articles/popular", h.PopularArticles)
	r.GET("/articles/:slug", h.GetArticle)
	r.GET("/search", h.Search)
}
