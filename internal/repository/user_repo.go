package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/dumeirei/helpcenter-backend/internal/models"
)

// ErrLastUser 删除最后一个管理员
var ErrLastUser = errors.New("cannot delete the last user")

// UserRepository 管理员账号仓储
type UserRepository struct {
	db *gorm.DB
}

// NewUserRepository 创建管理员账号仓储
func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

// Create 创建账号
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	return r.db.WithContext(ctx).Create(user).Error
}

// GetByID 根据 ID 获取账号
func (r *UserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// GetByEmail 根据邮箱获取账号
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, "email = ?", email).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// EmailTaken 邮箱是否已被其他账号使用
func (r *UserRepository) EmailTaken(ctx context.Context, email, excludeID string) (bool, error) {
	var count int64
	query := r.db.WithContext(ctx).Model(&models.User{}).Where("email = ?", email)
	if excludeID != "" {
		query = query.Where("id <> ?", excludeID)
	}
	err := query.Count(&count).Error
	return count > 0, err
}

// List 获取全部账号（按创建时间）
func (r *UserRepository) List(ctx context.Context) ([]*models.User, error) {
	var users []*models.User
	err := r.db.WithContext(ctx).Order("created_at ASC").Find(&users).Error
	return users, err
}

// Count 统计账号数
func (r *UserRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.User{}).Count(&count).Error
	return count, err
}

// UpdateFields 更新指定字段
func (r *UserRepository) UpdateFields(ctx context.Context, id string, fields map[string]interface{}) error {
	return r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Updates(fields).Error
}

// UpdateLoginInfo 更新登录信息
func (r *UserRepository) UpdateLoginInfo(ctx context.Context, id, ip string) error {
	return r.UpdateFields(ctx, id, map[string]interface{}{
		"last_login_at": time.Now(),
		"last_login_ip": ip,
	})
}

// DeleteUnlessLast 删除账号，仅剩一个账号时返回 ErrLastUser 且不做任何修改
//
// 先对全部账号加行锁再计数，并发删除按顺序执行
func (r *UserRepository) DeleteUnlessLast(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var ids []string
		if err := tx.Model(&models.User{}).
			Clauses(clause.Locking{Strength: "UPDATE"}).
			Pluck("id", &ids).Error; err != nil {
			return err
		}
		if len(ids) <= 1 {
			return ErrLastUser
		}
		result := tx.Where("id = ?", id).Delete(&models.User{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}
