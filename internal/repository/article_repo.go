package repository

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/dumeirei/helpcenter-backend/internal/models"
)

// ArticleRepository 文章仓储
type ArticleRepository struct {
	db *gorm.DB
}

// NewArticleRepository 创建文章仓储
func NewArticleRepository(db *gorm.DB) *ArticleRepository {
	return &ArticleRepository{db: db}
}

// popularOrder 热门优先，其次浏览量
const popularOrder = "is_popular DESC, view_count DESC"

// Create 创建文章
func (r *ArticleRepository) Create(ctx context.Context, article *models.Article) error {
	return r.db.WithContext(ctx).Create(article).Error
}

// GetByID 根据 ID 获取文章（含分类）
func (r *ArticleRepository) GetByID(ctx context.Context, id string) (*models.Article, error) {
	var article models.Article
	if err := r.db.WithContext(ctx).Preload("Category").First(&article, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &article, nil
}

// GetPublishedBySlug 根据 slug 获取已发布文章（含分类）
func (r *ArticleRepository) GetPublishedBySlug(ctx context.Context, slug string) (*models.Article, error) {
	var article models.Article
	err := r.db.WithContext(ctx).Preload("Category").
		Where("slug = ? AND is_published = ?", slug, true).
		First(&article).Error
	if err != nil {
		return nil, err
	}
	return &article, nil
}

// SlugTaken slug 是否已被其他文章占用，excludeID 为当前记录
func (r *ArticleRepository) SlugTaken(ctx context.Context, slug, excludeID string) (bool, error) {
	var count int64
	query := r.db.WithContext(ctx).Model(&models.Article{}).Where("slug = ?", slug)
	if excludeID != "" {
		query = query.Where("id <> ?", excludeID)
	}
	err := query.Count(&count).Error
	return count > 0, err
}

// Update 更新文章
func (r *ArticleRepository) Update(ctx context.Context, article *models.Article) error {
	return r.db.WithContext(ctx).Omit("Category", "Translations").Save(article).Error
}

// Delete 删除文章及其译文
func (r *ArticleRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("article_id = ?", id).Delete(&models.ArticleTranslation{}).Error; err != nil {
			return err
		}
		result := tx.Where("id = ?", id).Delete(&models.Article{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

// ArticleListFilters 文章列表筛选条件
type ArticleListFilters struct {
	CategoryID  string
	IsPublished *bool
	Keyword     string
}

// List 获取文章列表（后台，按更新时间倒序）
func (r *ArticleRepository) List(ctx context.Context, offset, limit int, filters *ArticleListFilters) ([]*models.Article, int64, error) {
	var articles []*models.Article
	var total int64

	query := r.db.WithContext(ctx).Model(&models.Article{})

	if filters != nil {
		if filters.CategoryID != "" {
			query = query.Where("category_id = ?", filters.CategoryID)
		}
		if filters.IsPublished != nil {
			query = query.Where("is_published = ?", *filters.IsPublished)
		}
		if filters.Keyword != "" {
			keyword := "%" + strings.ToLower(filters.Keyword) + "%"
			query = query.Where("LOWER(title) LIKE ? OR LOWER(slug) LIKE ?", keyword, keyword)
		}
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := query.Preload("Category").Order("updated_at DESC").Offset(offset).Limit(limit).Find(&articles).Error; err != nil {
		return nil, 0, err
	}

	return articles, total, nil
}

// ListPublishedByCategory 获取分类下已发布文章
func (r *ArticleRepository) ListPublishedByCategory(ctx context.Context, categoryID string) ([]*models.Article, error) {
	var articles []*models.Article
	err := r.db.WithContext(ctx).
		Where("category_id = ? AND is_published = ?", categoryID, true).
		Order(popularOrder).
		Find(&articles).Error
	return articles, err
}

// ListPopular 获取热门文章
func (r *ArticleRepository) ListPopular(ctx context.Context, limit int) ([]*models.Article, error) {
	var articles []*models.Article
	err := r.db.WithContext(ctx).Preload("Category").
		Where("is_published = ? AND is_popular = ?", true, true).
		Order("view_count DESC").
		Limit(limit).
		Find(&articles).Error
	return articles, err
}

// ListMostViewed 获取浏览量最高的文章
func (r *ArticleRepository) ListMostViewed(ctx context.Context, limit int) ([]*models.Article, error) {
	var articles []*models.Article
	err := r.db.WithContext(ctx).Preload("Category").
		Order("view_count DESC").
		Limit(limit).
		Find(&articles).Error
	return articles, err
}

// ListRecent 获取最近更新的文章
func (r *ArticleRepository) ListRecent(ctx context.Context, limit int) ([]*models.Article, error) {
	var articles []*models.Article
	err := r.db.WithContext(ctx).Preload("Category").
		Order("updated_at DESC").
		Limit(limit).
		Find(&articles).Error
	return articles, err
}

// ListRelated 获取同分类的其他已发布文章
func (r *ArticleRepository) ListRelated(ctx context.Context, categoryID, excludeID string, limit int) ([]*models.Article, error) {
	var articles []*models.Article
	err := r.db.WithContext(ctx).
		Where("category_id = ? AND id <> ? AND is_published = ?", categoryID, excludeID, true).
		Order(popularOrder).
		Limit(limit).
		Find(&articles).Error
	return articles, err
}

// Search 在基础语言字段或指定语言译文中做不区分大小写的子串搜索
func (r *ArticleRepository) Search(ctx context.Context, query, locale string, limit int) ([]*models.Article, error) {
	pattern := "%" + strings.ToLower(query) + "%"

	translated := r.db.Model(&models.ArticleTranslation{}).
		Select("article_id").
		Where("locale = ?", locale).
		Where("LOWER(title) LIKE ? OR LOWER(content) LIKE ? OR LOWER(COALESCE(excerpt, '')) LIKE ?", pattern, pattern, pattern)

	var articles []*models.Article
	err := r.db.WithContext(ctx).Preload("Category").
		Where("is_published = ?", true).
		Where(
			r.db.Where("LOWER(title) LIKE ? OR LOWER(content) LIKE ? OR LOWER(COALESCE(excerpt, '')) LIKE ?", pattern, pattern, pattern).
				Or("id IN (?)", translated),
		).
		Order(popularOrder).
		Limit(limit).
		Find(&articles).Error
	return articles, err
}

// IncrementViewCount 增加浏览量
func (r *ArticleRepository) IncrementViewCount(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Model(&models.Article{}).
		Where("id = ?", id).
		UpdateColumn("view_count", gorm.Expr("view_count + 1")).Error
}

// CountPublished 统计已发布文章数
func (r *ArticleRepository) CountPublished(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Article{}).Where("is_published = ?", true).Count(&count).Error
	return count, err
}

// CountByCategory 统计分类下文章数
func (r *ArticleRepository) CountByCategory(ctx context.Context, categoryID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Article{}).Where("category_id = ?", categoryID).Count(&count).Error
	return count, err
}

// SumViews 统计总浏览量
func (r *ArticleRepository) SumViews(ctx context.Context) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).Model(&models.Article{}).
		Select("COALESCE(SUM(view_count), 0)").
		Scan(&total).Error
	return total, err
}
