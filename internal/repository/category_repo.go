package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/dumeirei/helpcenter-backend/internal/models"
)

// CategoryRepository 分类仓储
type CategoryRepository struct {
	db *gorm.DB
}

// NewCategoryRepository 创建分类仓储
func NewCategoryRepository(db *gorm.DB) *CategoryRepository {
	return &CategoryRepository{db: db}
}

// CategoryWithCount 分类及其文章数
type CategoryWithCount struct {
	models.Category
	ArticleCount int64 `json:"articleCount"`
}

// Create 创建分类
func (r *CategoryRepository) Create(ctx context.Context, category *models.Category) error {
	return r.db.WithContext(ctx).Create(category).Error
}

// GetByID 根据 ID 获取分类
func (r *CategoryRepository) GetByID(ctx context.Context, id string) (*models.Category, error) {
	var category models.Category
	if err := r.db.WithContext(ctx).First(&category, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &category, nil
}

// GetBySlug 根据 slug 获取分类
func (r *CategoryRepository) GetBySlug(ctx context.Context, slug string) (*models.Category, error) {
	var category models.Category
	if err := r.db.WithContext(ctx).First(&category, "slug = ?", slug).Error; err != nil {
		return nil, err
	}
	return &category, nil
}

// SlugTaken slug 是否已被其他分类占用，excludeID 为当前记录
func (r *CategoryRepository) SlugTaken(ctx context.Context, slug, excludeID string) (bool, error) {
	var count int64
	query := r.db.WithContext(ctx).Model(&models.Category{}).Where("slug = ?", slug)
	if excludeID != "" {
		query = query.Where("id <> ?", excludeID)
	}
	err := query.Count(&count).Error
	return count > 0, err
}

// Update 更新分类
func (r *CategoryRepository) Update(ctx context.Context, category *models.Category) error {
	return r.db.WithContext(ctx).Save(category).Error
}

// ListWithCounts 获取分类列表及文章数，按 order 升序
//
// activeOnly 为 true 时只返回启用分类，且只统计已发布文章
func (r *CategoryRepository) ListWithCounts(ctx context.Context, activeOnly bool) ([]*CategoryWithCount, error) {
	articleCount := r.db.Model(&models.Article{}).
		Select("COUNT(*)").
		Where("articles.category_id = categories.id")
	if activeOnly {
		articleCount = articleCount.Where("articles.is_published = ?", true)
	}

	query := r.db.WithContext(ctx).Model(&models.Category{}).
		Select("categories.*, (?) AS article_count", articleCount)
	if activeOnly {
		query = query.Where("categories.is_active = ?", true)
	}

	var list []*CategoryWithCount
	err := query.Order("categories.sort_order ASC, categories.name ASC").Find(&list).Error
	return list, err
}

// CountActive 统计启用分类数
func (r *CategoryRepository) CountActive(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Category{}).Where("is_active = ?", true).Count(&count).Error
	return count, err
}

// Delete 删除分类及其全部文章和译文，返回删除的文章数
func (r *CategoryRepository) Delete(ctx context.Context, id string) (int64, error) {
	var removed int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		articleIDs := tx.Model(&models.Article{}).Select("id").Where("category_id = ?", id)
		if err := tx.Where("article_id IN (?)", articleIDs).Delete(&models.ArticleTranslation{}).Error; err != nil {
			return err
		}

		result := tx.Where("category_id = ?", id).Delete(&models.Article{})
		if result.Error != nil {
			return result.Error
		}
		removed = result.RowsAffected

		if err := tx.Where("category_id = ?", id).Delete(&models.CategoryTranslation{}).Error; err != nil {
			return err
		}

		result = tx.Where("id = ?", id).Delete(&models.Category{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
	return removed, err
}
