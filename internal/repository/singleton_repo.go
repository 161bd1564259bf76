package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/dumeirei/helpcenter-backend/internal/models"
)

// SettingsRepository 单例配置仓储（站点设置与退货表单配置）
type SettingsRepository struct {
	db *gorm.DB
}

// NewSettingsRepository 创建单例配置仓储
func NewSettingsRepository(db *gorm.DB) *SettingsRepository {
	return &SettingsRepository{db: db}
}

// GetSiteSettings 获取站点设置
func (r *SettingsRepository) GetSiteSettings(ctx context.Context) (*models.SiteSettings, error) {
	var s models.SiteSettings
	if err := r.db.WithContext(ctx).First(&s, "id = ?", models.SiteSettingsID).Error; err != nil {
		return nil, err
	}
	return &s, nil
}

// CreateSiteSettingsIfAbsent 不存在时创建站点设置，已存在则保持原值
func (r *SettingsRepository) CreateSiteSettingsIfAbsent(ctx context.Context, s *models.SiteSettings) error {
	s.ID = models.SiteSettingsID
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(s).Error
}

// SaveSiteSettings 整体写入站点设置
func (r *SettingsRepository) SaveSiteSettings(ctx context.Context, s *models.SiteSettings) error {
	s.ID = models.SiteSettingsID
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{UpdateAll: true}).Create(s).Error
}

// GetReturnFormConfig 获取退货表单配置
func (r *SettingsRepository) GetReturnFormConfig(ctx context.Context) (*models.ReturnFormConfig, error) {
	var c models.ReturnFormConfig
	if err := r.db.WithContext(ctx).First(&c, "id = ?", models.ReturnFormConfigID).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

// CreateReturnFormConfigIfAbsent 不存在时创建退货表单配置
func (r *SettingsRepository) CreateReturnFormConfigIfAbsent(ctx context.Context, c *models.ReturnFormConfig) error {
	c.ID = models.ReturnFormConfigID
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(c).Error
}

// SaveReturnFormConfig 整体写入退货表单配置
func (r *SettingsRepository) SaveReturnFormConfig(ctx context.Context, c *models.ReturnFormConfig) error {
	c.ID = models.ReturnFormConfigID
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{UpdateAll: true}).Create(c).Error
}
