package repository

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/dumeirei/helpcenter-backend/internal/models"
)

// ReturnRequestRepository 退货申请仓储
type ReturnRequestRepository struct {
	db *gorm.DB
}

// NewReturnRequestRepository 创建退货申请仓储
func NewReturnRequestRepository(db *gorm.DB) *ReturnRequestRepository {
	return &ReturnRequestRepository{db: db}
}

// Create 创建退货申请
func (r *ReturnRequestRepository) Create(ctx context.Context, req *models.ReturnRequest) error {
	return r.db.WithContext(ctx).Create(req).Error
}

// GetByID 根据 ID 获取退货申请
func (r *ReturnRequestRepository) GetByID(ctx context.Context, id string) (*models.ReturnRequest, error) {
	var req models.ReturnRequest
	if err := r.db.WithContext(ctx).First(&req, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &req, nil
}

// UpdateFields 更新指定字段
func (r *ReturnRequestRepository) UpdateFields(ctx context.Context, id string, fields map[string]interface{}) error {
	return r.db.WithContext(ctx).Model(&models.ReturnRequest{}).Where("id = ?", id).Updates(fields).Error
}

// Delete 删除退货申请
func (r *ReturnRequestRepository) Delete(ctx context.Context, id string) (bool, error) {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.ReturnRequest{})
	return result.RowsAffected > 0, result.Error
}

// ReturnRequestListFilters 退货申请筛选条件
type ReturnRequestListFilters struct {
	Status       string
	ReturnReason string
	Keyword      string
}

// List 获取退货申请列表（最新优先）
func (r *ReturnRequestRepository) List(ctx context.Context, offset, limit int, filters *ReturnRequestListFilters) ([]*models.ReturnRequest, int64, error) {
	var list []*models.ReturnRequest
	var total int64

	query := r.db.WithContext(ctx).Model(&models.ReturnRequest{})

	if filters != nil {
		if filters.Status != "" {
			query = query.Where("status = ?", filters.Status)
		}
		if filters.ReturnReason != "" {
			query = query.Where("return_reason = ?", filters.ReturnReason)
		}
		if filters.Keyword != "" {
			keyword := "%" + strings.ToLower(filters.Keyword) + "%"
			query = query.Where("LOWER(full_name) LIKE ? OR LOWER(email) LIKE ? OR LOWER(order_number) LIKE ?", keyword, keyword, keyword)
		}
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := query.Order("created_at DESC").Offset(offset).Limit(limit).Find(&list).Error; err != nil {
		return nil, 0, err
	}

	return list, total, nil
}
