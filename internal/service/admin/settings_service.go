package admin

import (
	"context"
	stderrors "errors"
	"sync/atomic"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/dumeirei/helpcenter-backend/internal/common/errors"
	"github.com/dumeirei/helpcenter-backend/internal/common/utils"
	"github.com/dumeirei/helpcenter-backend/internal/models"
	"github.com/dumeirei/helpcenter-backend/internal/repository"
)

// DefaultLogoURL 默认站点 Logo
const DefaultLogoURL = "https://subcold.com/cdn/shop/files/subcold-logo-white_39563153-4a05-4674-b976-f96a36b48c2c.png?v=1760517416&width=156"

// DefaultSiteSettings 站点设置默认值
func DefaultSiteSettings() *models.SiteSettings {
	return &models.SiteSettings{
		ID:           models.SiteSettingsID,
		SiteName:     "Subcold Support",
		HeroTitle:    "HOW CAN WE HELP?",
		HeroSubtitle: "Find answers to your questions about Subcold products and services",
		FooterText:   utils.StringPtr("© 2026 Subcold Ltd. All rights reserved."),
		LogoURL:      utils.StringPtr(DefaultLogoURL),
	}
}

// SettingsService 站点设置服务
//
// 启动时加载快照，公开读取直接返回快照，更新后整体替换
type SettingsService struct {
	repo     *repository.SettingsRepository
	snapshot atomic.Pointer[models.SiteSettings]
	logger   *zap.Logger
}

// NewSettingsService 创建站点设置服务
func NewSettingsService(repo *repository.SettingsRepository, log *zap.Logger) *SettingsService {
	if log == nil {
		log = zap.NewNop()
	}
	return &SettingsService{repo: repo, logger: log.Named("settings")}
}

// Load 读取站点设置，不存在时以默认值创建
func (s *SettingsService) Load(ctx context.Context) (*models.SiteSettings, error) {
	current, err := s.repo.GetSiteSettings(ctx)
	if stderrors.Is(err, gorm.ErrRecordNotFound) {
		if err := s.repo.CreateSiteSettingsIfAbsent(ctx, DefaultSiteSettings()); err != nil {
			return nil, errors.ErrDatabaseError.WithError(err)
		}
		current, err = s.repo.GetSiteSettings(ctx)
	}
	if err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	s.snapshot.Store(current)
	return current, nil
}

// Current 当前站点设置快照，尚未加载时从数据库读取
func (s *SettingsService) Current(ctx context.Context) (*models.SiteSettings, error) {
	if snap := s.snapshot.Load(); snap != nil {
		return snap, nil
	}
	return s.Load(ctx)
}

// SettingsUpdateRequest 更新站点设置，仅应用非空字段
type SettingsUpdateRequest struct {
	SiteName         *string `json:"siteName"`
	HeroTitle        *string `json:"heroTitle"`
	HeroSubtitle     *string `json:"heroSubtitle"`
	ContactFormEmbed *string `json:"contactFormEmbed"`
	FooterText       *string `json:"footerText"`
	PrimaryColor     *string `json:"primaryColor" binding:"omitempty,hexcolor"`
	LogoURL          *string `json:"logoUrl" binding:"omitempty,url"`
}

// Update 合并更新并刷新快照
func (s *SettingsService) Update(ctx context.Context, req *SettingsUpdateRequest) (*models.SiteSettings, error) {
	current, err := s.Current(ctx)
	if err != nil {
		return nil, err
	}
	next := *current

	if req.SiteName != nil {
		if *req.SiteName == "" {
			return nil, errors.ErrValidation.WithMessage("Site name is required")
		}
		next.SiteName = *req.SiteName
	}
	if req.HeroTitle != nil {
		if *req.HeroTitle == "" {
			return nil, errors.ErrValidation.WithMessage("Hero title is required")
		}
		next.HeroTitle = *req.HeroTitle
	}
	if req.HeroSubtitle != nil {
		next.HeroSubtitle = *req.HeroSubtitle
	}
	if req.ContactFormEmbed != nil {
		next.ContactFormEmbed = utils.NilIfEmpty(*req.ContactFormEmbed)
	}
	if req.FooterText != nil {
		next.FooterText = utils.NilIfEmpty(*req.FooterText)
	}
	if req.PrimaryColor != nil {
		next.PrimaryColor = utils.NilIfEmpty(*req.PrimaryColor)
	}
	if req.LogoURL != nil {
		next.LogoURL = utils.NilIfEmpty(*req.LogoURL)
	}

	if err := s.repo.SaveSiteSettings(ctx, &next); err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	saved, err := s.repo.GetSiteSettings(ctx)
	if err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	s.snapshot.Store(saved)
	s.logger.Info("site settings updated")
	return saved, nil
}
