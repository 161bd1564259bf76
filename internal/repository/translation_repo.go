package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/dumeirei/helpcenter-backend/internal/models"
)

// TranslationRepository 译文仓储
type TranslationRepository struct {
	db *gorm.DB
}

// NewTranslationRepository 创建译文仓储
func NewTranslationRepository(db *gorm.DB) *TranslationRepository {
	return &TranslationRepository{db: db}
}

// ==================== 文章译文 ====================

// ListArticleTranslations 获取文章全部译文，按 locale 排序
func (r *TranslationRepository) ListArticleTranslations(ctx context.Context, articleID string) ([]*models.ArticleTranslation, error) {
	var list []*models.ArticleTranslation
	err := r.db.WithContext(ctx).Where("article_id = ?", articleID).Order("locale ASC").Find(&list).Error
	return list, err
}

// GetArticleTranslation 获取文章指定语言译文
func (r *TranslationRepository) GetArticleTranslation(ctx context.Context, articleID, locale string) (*models.ArticleTranslation, error) {
	var t models.ArticleTranslation
	if err := r.db.WithContext(ctx).Where("article_id = ? AND locale = ?", articleID, locale).First(&t).Error; err != nil {
		return nil, err
	}
	return &t, nil
}

// ArticleTranslationsFor 批量获取一组文章在指定语言下的译文，按文章 ID 索引
func (r *TranslationRepository) ArticleTranslationsFor(ctx context.Context, articleIDs []string, locale string) (map[string]*models.ArticleTranslation, error) {
	result := make(map[string]*models.ArticleTranslation, len(articleIDs))
	if len(articleIDs) == 0 {
		return result, nil
	}
	var list []*models.ArticleTranslation
	if err := r.db.WithContext(ctx).Where("article_id IN ? AND locale = ?", articleIDs, locale).Find(&list).Error; err != nil {
		return nil, err
	}
	for _, t := range list {
		result[t.ArticleID] = t
	}
	return result, nil
}

// UpsertArticleTranslation 按 (article_id, locale) 新增或覆盖译文
func (r *TranslationRepository) UpsertArticleTranslation(ctx context.Context, t *models.ArticleTranslation) (*models.ArticleTranslation, error) {
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "article_id"}, {Name: "locale"}},
		DoUpdates: clause.AssignmentColumns([]string{"title", "content", "excerpt", "updated_at"}),
	}).Create(t).Error
	if err != nil {
		return nil, err
	}
	return r.GetArticleTranslation(ctx, t.ArticleID, t.Locale)
}

// DeleteArticleTranslation 删除文章指定语言译文，返回是否删除了记录
func (r *TranslationRepository) DeleteArticleTranslation(ctx context.Context, articleID, locale string) (bool, error) {
	result := r.db.WithContext(ctx).Where("article_id = ? AND locale = ?", articleID, locale).Delete(&models.ArticleTranslation{})
	return result.RowsAffected > 0, result.Error
}

// ==================== 分类译文 ====================

// ListCategoryTranslations 获取分类全部译文，按 locale 排序
func (r *TranslationRepository) ListCategoryTranslations(ctx context.Context, categoryID string) ([]*models.CategoryTranslation, error) {
	var list []*models.CategoryTranslation
	err := r.db.WithContext(ctx).Where("category_id = ?", categoryID).Order("locale ASC").Find(&list).Error
	return list, err
}

// GetCategoryTranslation 获取分类指定语言译文
func (r *TranslationRepository) GetCategoryTranslation(ctx context.Context, categoryID, locale string) (*models.CategoryTranslation, error) {
	var t models.CategoryTranslation
	if err := r.db.WithContext(ctx).Where("category_id = ? AND locale = ?", categoryID, locale).First(&t).Error; err != nil {
		return nil, err
	}
	return &t, nil
}

// CategoryTranslationsFor 批量获取一组分类在指定语言下的译文，按分类 ID 索引
func (r *TranslationRepository) CategoryTranslationsFor(ctx context.Context, categoryIDs []string, locale string) (map[string]*models.CategoryTranslation, error) {
	result := make(map[string]*models.CategoryTranslation, len(categoryIDs))
	if len(categoryIDs) == 0 {
		return result, nil
	}
	var list []*models.CategoryTranslation
	if err := r.db.WithContext(ctx).Where("category_id IN ? AND locale = ?", categoryIDs, locale).Find(&list).Error; err != nil {
		return nil, err
	}
	for _, t := range list {
		result[t.CategoryID] = t
	}
	return result, nil
}

// UpsertCategoryTranslation 按 (category_id, locale) 新增或覆盖译文
func (r *TranslationRepository) UpsertCategoryTranslation(ctx context.Context, t *models.CategoryTranslation) (*models.CategoryTranslation, error) {
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "category_id"}, {Name: "locale"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "description", "updated_at"}),
	}).Create(t).Error
	if err != nil {
		return nil, err
	}
	return r.GetCategoryTranslation(ctx, t.CategoryID, t.Locale)
}

// DeleteCategoryTranslation 删除分类指定语言译文，返回是否删除了记录
func (r *TranslationRepository) DeleteCategoryTranslation(ctx context.Context, categoryID, locale string) (bool, error) {
	result := r.db.WithContext(ctx).Where("category_id = ? AND locale = ?", categoryID, locale).Delete(&models.CategoryTranslation{})
	return result.RowsAffected > 0, result.Error
}
