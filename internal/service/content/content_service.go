// Package content 知识库：分类、文章、多语言译文与公开检索
package content

import (
	"context"
	stderrors "errors"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/dumeirei/helpcenter-backend/internal/common/cache"
	"github.com/dumeirei/helpcenter-backend/internal/common/errors"
	"github.com/dumeirei/helpcenter-backend/internal/common/metrics"
	"github.com/dumeirei/helpcenter-backend/internal/common/tracing"
	"github.com/dumeirei/helpcenter-backend/internal/common/utils"
	"github.com/dumeirei/helpcenter-backend/internal/models"
	"github.com/dumeirei/helpcenter-backend/internal/repository"
)

// catalogNamespace 知识库缓存版本命名空间，每次写操作递增
const catalogNamespace = "catalog"

// Options 知识库服务参数
type Options struct {
	SearchLimit  int
	PopularLimit int
	RelatedLimit int
	CacheTTL     time.Duration
}

func (o *Options) normalize() {
	if o.SearchLimit <= 0 {
		o.SearchLimit = 20
	}
	if o.PopularLimit <= 0 {
		o.PopularLimit = 6
	}
	if o.RelatedLimit <= 0 {
		o.RelatedLimit = 5
	}
	if o.CacheTTL <= 0 {
		o.CacheTTL = 5 * time.Minute
	}
}

// Service 知识库服务
type Service struct {
	categories   *repository.CategoryRepository
	articles     *repository.ArticleRepository
	translations *repository.TranslationRepository
	cache        *cache.Store
	locales      *Locales
	metrics      *metrics.Metrics
	opts         Options
	logger       *zap.Logger
}

// NewService 创建知识库服务，store 可为未启用的缓存
func NewService(
	categories *repository.CategoryRepository,
	articles *repository.ArticleRepository,
	translations *repository.TranslationRepository,
	store *cache.Store,
	locales *Locales,
	m *metrics.Metrics,
	opts Options,
	log *zap.Logger,
) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	if locales == nil {
		locales = NewLocales("en", nil)
	}
	opts.normalize()
	return &Service{
		categories:   categories,
		articles:     articles,
		translations: translations,
		cache:        store,
		locales:      locales,
		metrics:      m,
		opts:         opts,
		logger:       log.Named("content"),
	}
}

// Locales 返回语言解析器
func (s *Service) Locales() *Locales {
	return s.locales
}

// ============================================================================
// 公开读取
// ============================================================================

func (s *Service) cacheKey(ctx context.Context, parts ...string) string {
	version := strconv.FormatInt(s.cache.Version(ctx, catalogNamespace), 10)
	return cache.BuildKey(cache.KeyPrefixCatalog, append([]string{"v" + version}, parts...)...)
}

// cached 读取缓存，未命中时调用 load 并回填
func cached[T any](ctx context.Context, s *Service, key string, load func() (T, error)) (T, error) {
	var out T
	if err := s.cache.Get(ctx, key, &out); err == nil {
		s.metrics.RecordCacheHit(catalogNamespace)
		return out, nil
	} else if !stderrors.Is(err, cache.ErrMiss) {
		s.logger.Warn("catalog cache read failed", zap.String("key", key), zap.Error(err))
	}
	if s.cache.Enabled() {
		s.metrics.RecordCacheMiss(catalogNamespace)
	}

	out, err := load()
	if err != nil {
		return out, err
	}
	if err := s.cache.Set(ctx, key, out, s.opts.CacheTTL); err != nil {
		s.logger.Warn("catalog cache write failed", zap.String("key", key), zap.Error(err))
	}
	return out, nil
}

// invalidate 递增版本号使所有公开缓存失效
func (s *Service) invalidate(ctx context.Context) {
	if err := s.cache.BumpVersion(ctx, catalogNamespace); err != nil {
		s.logger.Warn("catalog cache invalidation failed", zap.Error(err))
	}
}

func (s *Service) articleTranslations(ctx context.Context, list []*models.Article, locale string) (map[string]*models.ArticleTranslation, error) {
	if s.locales.IsBase(locale) || len(list) == 0 {
		return nil, nil
	}
	return s.translations.ArticleTranslationsFor(ctx, articleIDs(list), locale)
}

func (s *Service) resolveArticles(ctx context.Context, list []*models.Article, locale string) ([]ArticleView, error) {
	trs, err := s.articleTranslations(ctx, list, locale)
	if err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	views := make([]ArticleView, 0, len(list))
	for _, a := range list {
		views = append(views, resolveArticle(a, trs[a.ID], locale, !s.locales.IsBase(locale)))
	}
	return views, nil
}

// PublicCategories 启用分类（按 order 升序）及已发布文章数
func (s *Service) PublicCategories(ctx context.Context, rawLocale string) ([]CategoryView, error) {
	locale := s.locales.Resolve(rawLocale)
	ctx, span := tracing.Start(ctx, "content.PublicCategories", tracing.WithLocale(locale))
	defer span.End()

	return cached(ctx, s, s.cacheKey(ctx, "categories", locale), func() ([]CategoryView, error) {
		list, err := s.categories.ListWithCounts(ctx, true)
		if err != nil {
			return nil, errors.ErrDatabaseError.WithError(err)
		}
		trs, err := s.translations.CategoryTranslationsFor(ctx, categoryIDs(list), locale)
		if err != nil {
			return nil, errors.ErrDatabaseError.WithError(err)
		}
		views := make([]CategoryView, 0, len(list))
		for _, c := range list {
			views = append(views, resolveCategory(&c.Category, c.ArticleCount, trs[c.ID]))
		}
		return views, nil
	})
}

// CategoryPage 分类页：启用分类及其已发布文章（热门优先，其次浏览量）
func (s *Service) CategoryPage(ctx context.Context, slug, rawLocale string) (*CategoryPage, error) {
	locale := s.locales.Resolve(rawLocale)
	ctx, span := tracing.Start(ctx, "content.CategoryPage", tracing.WithLocale(locale))
	defer span.End()

	return cached(ctx, s, s.cacheKey(ctx, "category", locale, slug), func() (*CategoryPage, error) {
		category, err := s.categories.GetBySlug(ctx, slug)
		if err != nil {
			if stderrors.Is(err, gorm.ErrRecordNotFound) {
				return nil, errors.ErrCategoryNotFound
			}
			return nil, errors.ErrDatabaseError.WithError(err)
		}
		if !category.IsActive {
			return nil, errors.ErrCategoryNotFound
		}

		articles, err := s.articles.ListPublishedByCategory(ctx, category.ID)
		if err != nil {
			return nil, errors.ErrDatabaseError.WithError(err)
		}
		views, err := s.resolveArticles(ctx, articles, locale)
		if err != nil {
			return nil, err
		}
		tr, err := s.translations.GetCategoryTranslation(ctx, category.ID, locale)
		if err != nil && !stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.ErrDatabaseError.WithError(err)
		}
		return &CategoryPage{
			Category: resolveCategory(category, int64(len(articles)), tr),
			Articles: withoutContent(views),
		}, nil
	})
}

// PopularArticles 热门文章（按浏览量降序）
func (s *Service) PopularArticles(ctx context.Context, rawLocale string) ([]ArticleView, error) {
	locale := s.locales.Resolve(rawLocale)
	return cached(ctx, s, s.cacheKey(ctx, "popular", locale), func() ([]ArticleView, error) {
		list, err := s.articles.ListPopular(ctx, s.opts.PopularLimit)
		if err != nil {
			return nil, errors.ErrDatabaseError.WithError(err)
		}
		views, err := s.resolveArticles(ctx, list, locale)
		if err != nil {
			return nil, err
		}
		return withoutContent(views), nil
	})
}

// ArticlePage 已发布文章详情，浏览量原子加一
func (s *Service) ArticlePage(ctx context.Context, slug, rawLocale string) (*ArticlePage, error) {
	locale := s.locales.Resolve(rawLocale)
	ctx, span := tracing.Start(ctx, "content.ArticlePage", tracing.WithLocale(locale))
	defer span.End()

	article, err := s.articles.GetPublishedBySlug(ctx, slug)
	if err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.ErrArticleNotFound
		}
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	if err := s.articles.IncrementViewCount(ctx, article.ID); err != nil {
		s.logger.Warn("increment view count failed", zap.String("article_id", article.ID), zap.Error(err))
	} else {
		article.ViewCount++
		s.metrics.RecordArticleView()
	}

	var tr *models.ArticleTranslation
	if !s.locales.IsBase(locale) {
		tr, err = s.translations.GetArticleTranslation(ctx, article.ID, locale)
		if err != nil && !stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.ErrDatabaseError.WithError(err)
		}
	}

	related, err := s.articles.ListRelated(ctx, article.CategoryID, article.ID, s.opts.RelatedLimit)
	if err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	relatedViews, err := s.resolveArticles(ctx, related, locale)
	if err != nil {
		return nil, err
	}

	return &ArticlePage{
		Article: resolveArticle(article, tr, locale, !s.locales.IsBase(locale)),
		Related: withoutContent(relatedViews),
	}, nil
}

// Search 在标题、正文、摘要及当前语言译文中搜索已发布文章，空查询返回空列表
func (s *Service) Search(ctx context.Context, query, rawLocale string) ([]ArticleView, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []ArticleView{}, nil
	}
	locale := s.locales.Resolve(rawLocale)
	ctx, span := tracing.Start(ctx, "content.Search", tracing.WithLocale(locale))
	defer span.End()

	list, err := s.articles.Search(ctx, query, locale, s.opts.SearchLimit)
	if err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	views, err := s.resolveArticles(ctx, list, locale)
	if err != nil {
		return nil, err
	}
	return withoutContent(views), nil
}

// ============================================================================
// 后台：分类
// ============================================================================

// CategoryRequest 创建分类
type CategoryRequest struct {
	Name        string `json:"name" binding:"required"`
	Slug        string `json:"slug" binding:"required,slug"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
	Order       int    `json:"order"`
	IsActive    *bool  `json:"isActive"`
}

// CategoryUpdateRequest 更新分类，仅应用非空字段
type CategoryUpdateRequest struct {
	Name        *string `json:"name"`
	Slug        *string `json:"slug" binding:"omitempty,slug"`
	Description *string `json:"description"`
	Icon        *string `json:"icon"`
	Order       *int    `json:"order"`
	IsActive    *bool   `json:"isActive"`
}

func (s *Service) checkCategorySlug(ctx context.Context, slug, excludeID string) error {
	if !utils.ValidateSlug(slug) {
		return errors.ErrValidation.WithMessage("Slug must be lowercase letters, numbers and hyphens")
	}
	taken, err := s.categories.SlugTaken(ctx, slug, excludeID)
	if err != nil {
		return errors.ErrDatabaseError.WithError(err)
	}
	if taken {
		return errors.ErrSlugTaken
	}
	return nil
}

// CreateCategory 创建分类
func (s *Service) CreateCategory(ctx context.Context, req *CategoryRequest) (*models.Category, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, errors.ErrValidation.WithMessage("Name is required")
	}
	slug := strings.TrimSpace(req.Slug)
	if err := s.checkCategorySlug(ctx, slug, ""); err != nil {
		return nil, err
	}

	category := &models.Category{
		Name:        name,
		Slug:        slug,
		Description: utils.NilIfEmpty(req.Description),
		Icon:        utils.NilIfEmpty(req.Icon),
		Order:       req.Order,
		IsActive:    req.IsActive == nil || *req.IsActive,
	}
	if err := s.categories.Create(ctx, category); err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	s.invalidate(ctx)
	return category, nil
}

// GetCategory 获取分类
func (s *Service) GetCategory(ctx context.Context, id string) (*models.Category, error) {
	category, err := s.categories.GetByID(ctx, id)
	if err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.ErrCategoryNotFound
		}
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	return category, nil
}

// ListCategories 后台分类列表（含停用分类，统计全部文章）
func (s *Service) ListCategories(ctx context.Context) ([]*repository.CategoryWithCount, error) {
	list, err := s.categories.ListWithCounts(ctx, false)
	if err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	return list, nil
}

// UpdateCategory 更新分类
func (s *Service) UpdateCategory(ctx context.Context, id string, req *CategoryUpdateRequest) (*models.Category, error) {
	category, err := s.GetCategory(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, errors.ErrValidation.WithMessage("Name is required")
		}
		category.Name = name
	}
	if req.Slug != nil {
		slug := strings.TrimSpace(*req.Slug)
		if err := s.checkCategorySlug(ctx, slug, id); err != nil {
			return nil, err
		}
		category.Slug = slug
	}
	if req.Description != nil {
		category.Description = utils.NilIfEmpty(*req.Description)
	}
	if req.Icon != nil {
		category.Icon = utils.NilIfEmpty(*req.Icon)
	}
	if req.Order != nil {
		category.Order = *req.Order
	}
	if req.IsActive != nil {
		category.IsActive = *req.IsActive
	}

	if err := s.categories.Update(ctx, category); err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	s.invalidate(ctx)
	return category, nil
}

// DeleteCategory 删除分类及其文章、译文，返回删除的文章数
func (s *Service) DeleteCategory(ctx context.Context, id string) (int64, error) {
	removed, err := s.categories.Delete(ctx, id)
	if err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return 0, errors.ErrCategoryNotFound
		}
		return 0, errors.ErrDatabaseError.WithError(err)
	}
	s.invalidate(ctx)
	s.logger.Info("category deleted", zap.String("category_id", id), zap.Int64("articles_removed", removed))
	return removed, nil
}

// ============================================================================
// 后台：文章
// ============================================================================

// ArticleRequest 创建文章
type ArticleRequest struct {
	CategoryID  string `json:"categoryId" binding:"required"`
	Title       string `json:"title" binding:"required"`
	Slug        string `json:"slug" binding:"required,slug"`
	Content     string `json:"content"`
	Format      string `json:"format" binding:"omitempty,oneof=html markdown md"`
	Excerpt     string `json:"excerpt"`
	IsPopular   bool   `json:"isPopular"`
	IsPublished bool   `json:"isPublished"`
	Locale      string `json:"locale"`
}

// ArticleUpdateRequest 更新文章，仅应用非空字段
type ArticleUpdateRequest struct {
	CategoryID  *string `json:"categoryId"`
	Title       *string `json:"title"`
	Slug        *string `json:"slug" binding:"omitempty,slug"`
	Content     *string `json:"content"`
	Format      string  `json:"format" binding:"omitempty,oneof=html markdown md"`
	Excerpt     *string `json:"excerpt"`
	IsPopular   *bool   `json:"isPopular"`
	IsPublished *bool   `json:"isPublished"`
}

func (s *Service) checkArticleSlug(ctx context.Context, slug, excludeID string) error {
	if !utils.ValidateSlug(slug) {
		return errors.ErrValidation.WithMessage("Slug must be lowercase letters, numbers and hyphens")
	}
	taken, err := s.articles.SlugTaken(ctx, slug, excludeID)
	if err != nil {
		return errors.ErrDatabaseError.WithError(err)
	}
	if taken {
		return errors.ErrSlugTaken
	}
	return nil
}

func (s *Service) checkCategoryExists(ctx context.Context, id string) error {
	if _, err := s.categories.GetByID(ctx, id); err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return errors.ErrValidation.WithMessage("Category does not exist")
		}
		return errors.ErrDatabaseError.WithError(err)
	}
	return nil
}

func render(content, format string) (string, error) {
	out, err := RenderContent(content, format)
	if err != nil {
		return "", errors.ErrValidation.WithMessage(err.Error())
	}
	return out, nil
}

// CreateArticle 创建文章
func (s *Service) CreateArticle(ctx context.Context, req *ArticleRequest) (*models.Article, error) {
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, errors.ErrValidation.WithMessage("Title is required")
	}
	if err := s.checkCategoryExists(ctx, req.CategoryID); err != nil {
		return nil, err
	}
	slug := strings.TrimSpace(req.Slug)
	if err := s.checkArticleSlug(ctx, slug, ""); err != nil {
		return nil, err
	}
	body, err := render(req.Content, req.Format)
	if err != nil {
		return nil, err
	}
	locale := s.locales.Base()
	if req.Locale != "" {
		if !s.locales.IsSupported(req.Locale) {
			return nil, errors.ErrUnsupportedLocale
		}
		locale = req.Locale
	}

	article := &models.Article{
		CategoryID:  req.CategoryID,
		Title:       title,
		Slug:        slug,
		Content:     body,
		Excerpt:     utils.NilIfEmpty(req.Excerpt),
		IsPopular:   req.IsPopular,
		IsPublished: req.IsPublished,
		Locale:      locale,
	}
	if err := s.articles.Create(ctx, article); err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	s.invalidate(ctx)
	return s.GetArticle(ctx, article.ID)
}

// GetArticle 获取文章（含分类，不限发布状态）
func (s *Service) GetArticle(ctx context.Context, id string) (*models.Article, error) {
	article, err := s.articles.GetByID(ctx, id)
	if err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.ErrArticleNotFound
		}
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	return article, nil
}

// ArticleFilters 后台文章筛选
type ArticleFilters struct {
	CategoryID  string `form:"categoryId"`
	IsPublished *bool  `form:"published"`
	Keyword     string `form:"q"`
}

// ListArticles 后台文章列表（最近更新优先）
func (s *Service) ListArticles(ctx context.Context, offset, limit int, filters *ArticleFilters) ([]*models.Article, int64, error) {
	var f *repository.ArticleListFilters
	if filters != nil {
		f = &repository.ArticleListFilters{
			CategoryID:  filters.CategoryID,
			IsPublished: filters.IsPublished,
			Keyword:     strings.TrimSpace(filters.Keyword),
		}
	}
	list, total, err := s.articles.List(ctx, offset, limit, f)
	if err != nil {
		return nil, 0, errors.ErrDatabaseError.WithError(err)
	}
	return list, total, nil
}

// UpdateArticle 更新文章
func (s *Service) UpdateArticle(ctx context.Context, id string, req *ArticleUpdateRequest) (*models.Article, error) {
	article, err := s.GetArticle(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.CategoryID != nil && *req.CategoryID != article.CategoryID {
		if err := s.checkCategoryExists(ctx, *req.CategoryID); err != nil {
			return nil, err
		}
		article.CategoryID = *req.CategoryID
	}
	if req.Title != nil {
		title := strings.TrimSpace(*req.Title)
		if title == "" {
			return nil, errors.ErrValidation.WithMessage("Title is required")
		}
		article.Title = title
	}
	if req.Slug != nil {
		slug := strings.TrimSpace(*req.Slug)
		if err := s.checkArticleSlug(ctx, slug, id); err != nil {
			return nil, err
		}
		article.Slug = slug
	}
	if req.Content != nil {
		body, err := render(*req.Content, req.Format)
		if err != nil {
			return nil, err
		}
		article.Content = body
	}
	if req.Excerpt != nil {
		article.Excerpt = utils.NilIfEmpty(*req.Excerpt)
	}
	if req.IsPopular != nil {
		article.IsPopular = *req.IsPopular
	}
	if req.IsPublished != nil {
		article.IsPublished = *req.IsPublished
	}

	if err := s.articles.Update(ctx, article); err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	s.invalidate(ctx)
	return s.GetArticle(ctx, id)
}

// DeleteArticle 删除文章及其译文
func (s *Service) DeleteArticle(ctx context.Context, id string) error {
	if _, err := s.GetArticle(ctx, id); err != nil {
		return err
	}
	if err := s.articles.Delete(ctx, id); err != nil {
		return errors.ErrDatabaseError.WithError(err)
	}
	s.invalidate(ctx)
	return nil
}

// ============================================================================
// 统计
// ============================================================================

// Stats 知识库统计
type Stats struct {
	PublishedArticles int64             `json:"publishedArticles"`
	ActiveCategories  int64             `json:"activeCategories"`
	TotalViews        int64             `json:"totalViews"`
	RecentArticles    []*models.Article `json:"recentArticles"`
	PopularArticles   []*models.Article `json:"popularArticles"`
}

// Stats 汇总仪表盘所需的知识库数据
func (s *Service) Stats(ctx context.Context) (*Stats, error) {
	var (
		out Stats
		err error
	)
	if out.PublishedArticles, err = s.articles.CountPublished(ctx); err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	if out.ActiveCategories, err = s.categories.CountActive(ctx); err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	if out.TotalViews, err = s.articles.SumViews(ctx); err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	if out.RecentArticles, err = s.articles.ListRecent(ctx, 5); err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	if out.PopularArticles, err = s.articles.ListMostViewed(ctx, 5); err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	return &out, nil
}
