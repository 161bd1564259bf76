package admin

import (
	"context"
	stderrors "errors"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/dumeirei/helpcenter-backend/internal/common/crypto"
	"github.com/dumeirei/helpcenter-backend/internal/common/errors"
	"github.com/dumeirei/helpcenter-backend/internal/common/utils"
	"github.com/dumeirei/helpcenter-backend/internal/models"
	"github.com/dumeirei/helpcenter-backend/internal/repository"
	"github.com/dumeirei/helpcenter-backend/internal/service/returnform"
)

// 默认管理员
const (
	DefaultAdminEmail    = "admin@subcold.com"
	DefaultAdminName     = "Admin"
	DefaultAdminPassword = "admin123"
)

// DefaultCategories 初始分类
var DefaultCategories = []models.Category{
	{Name: "Orders & Delivery", Slug: "orders-delivery", Description: utils.StringPtr("Track orders, delivery times, and shipping information"), Icon: utils.StringPtr("Package"), Order: 1},
	{Name: "Returns & Refunds", Slug: "returns-refunds", Description: utils.StringPtr("How to return items and get refunds"), Icon: utils.StringPtr("RotateCcw"), Order: 2},
	{Name: "Payments & Promotions", Slug: "payments-promotions", Description: utils.StringPtr("Payment methods, discounts, and promotional offers"), Icon: utils.StringPtr("CreditCard"), Order: 3},
	{Name: "Technical", Slug: "technical", Description: utils.StringPtr("Product setup, troubleshooting, and technical support"), Icon: utils.StringPtr("Settings"), Order: 4},
	{Name: "Product", Slug: "product", Description: utils.StringPtr("Product information, specifications, and sizing"), Icon: utils.StringPtr("Box"), Order: 5},
	{Name: "General Information", Slug: "general-information", Description: utils.StringPtr("Company information and general enquiries"), Icon: utils.StringPtr("Info"), Order: 6},
}

// Seeder 初始数据写入，可重复执行
type Seeder struct {
	users      *repository.UserRepository
	categories *repository.CategoryRepository
	settings   *SettingsService
	forms      *returnform.Service
	bcryptCost int
	logger     *zap.Logger
}

// NewSeeder 创建初始数据写入器
func NewSeeder(
	users *repository.UserRepository,
	categories *repository.CategoryRepository,
	settings *SettingsService,
	forms *returnform.Service,
	bcryptCost int,
	log *zap.Logger,
) *Seeder {
	if log == nil {
		log = zap.NewNop()
	}
	return &Seeder{
		users:      users,
		categories: categories,
		settings:   settings,
		forms:      forms,
		bcryptCost: bcryptCost,
		logger:     log.Named("seed"),
	}
}

// Seed 写入默认管理员、站点设置、退货表单配置与分类
//
// 已存在的管理员与设置保持不变，分类按 slug 覆盖
func (s *Seeder) Seed(ctx context.Context) error {
	if _, err := s.EnsureAdmin(ctx, DefaultAdminName, DefaultAdminEmail, DefaultAdminPassword); err != nil {
		return err
	}
	if _, err := s.settings.Load(ctx); err != nil {
		return err
	}
	if _, err := s.forms.Load(ctx); err != nil {
		return err
	}
	for i := range DefaultCategories {
		if err := s.upsertCategory(ctx, DefaultCategories[i]); err != nil {
			return err
		}
	}
	s.logger.Info("seed completed", zap.Int("categories", len(DefaultCategories)))
	return nil
}

// Bootstrap 服务启动时调用：空库执行完整 Seed，否则仅加载设置快照
func (s *Seeder) Bootstrap(ctx context.Context) error {
	count, err := s.users.Count(ctx)
	if err != nil {
		return errors.ErrDatabaseError.WithError(err)
	}
	if count == 0 {
		return s.Seed(ctx)
	}
	if _, err := s.settings.Load(ctx); err != nil {
		return err
	}
	_, err = s.forms.Load(ctx)
	return err
}

// EnsureAdmin 邮箱不存在时创建管理员，返回是否新建
func (s *Seeder) EnsureAdmin(ctx context.Context, name, email, password string) (bool, error) {
	email = normalizeEmail(email)
	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return false, nil
	} else if !stderrors.Is(err, gorm.ErrRecordNotFound) {
		return false, errors.ErrDatabaseError.WithError(err)
	}

	hash, err := crypto.HashPassword(password, s.bcryptCost)
	if err != nil {
		return false, errors.ErrInternalError.WithError(err)
	}
	if err := s.users.Create(ctx, &models.User{Name: name, Email: email, PasswordHash: hash}); err != nil {
		return false, errors.ErrDatabaseError.WithError(err)
	}
	s.logger.Info("admin user created", zap.String("email", crypto.MaskEmail(email)))
	return true, nil
}

func (s *Seeder) upsertCategory(ctx context.Context, c models.Category) error {
	existing, err := s.categories.GetBySlug(ctx, c.Slug)
	if stderrors.Is(err, gorm.ErrRecordNotFound) {
		c.IsActive = true
		if err := s.categories.Create(ctx, &c); err != nil {
			return errors.ErrDatabaseError.WithError(err)
		}
		return nil
	}
	if err != nil {
		return errors.ErrDatabaseError.WithError(err)
	}

	existing.Name = c.Name
	existing.Description = c.Description
	existing.Icon = c.Icon
	existing.Order = c.Order
	if err := s.categories.Update(ctx, existing); err != nil {
		return errors.ErrDatabaseError.WithError(err)
	}
	return nil
}
