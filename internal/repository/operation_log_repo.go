package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/dumeirei/helpcenter-backend/internal/models"
)

// OperationLogRepository 操作日志仓储
type OperationLogRepository struct {
	db *gorm.DB
}

// NewOperationLogRepository 创建操作日志仓储
func NewOperationLogRepository(db *gorm.DB) *OperationLogRepository {
	return &OperationLogRepository{db: db}
}

// Create 创建操作日志
func (r *OperationLogRepository) Create(ctx context.Context, log *models.OperationLog) error {
	return r.db.WithContext(ctx).Create(log).Error
}

// OperationLogFilters 操作日志筛选条件
type OperationLogFilters struct {
	AdminID   string
	Module    string
	Action    string
	TargetID  string
	StartTime *time.Time
	EndTime   *time.Time
}

// List 获取操作日志列表
func (r *OperationLogRepository) List(ctx context.Context, offset, limit int, filters *OperationLogFilters) ([]*models.OperationLog, int64, error) {
	var logs []*models.OperationLog
	var total int64

	query := r.db.WithContext(ctx).Model(&models.OperationLog{})

	if filters != nil {
		if filters.AdminID != "" {
			query = query.Where("admin_id = ?", filters.AdminID)
		}
		if filters.Module != "" {
			query = query.Where("module = ?", filters.Module)
		}
		if filters.Action != "" {
			query = query.Where("action = ?", filters.Action)
		}
		if filters.TargetID != "" {
			query = query.Where("target_id = ?", filters.TargetID)
		}
		if filters.StartTime != nil {
			query = query.Where("created_at >= ?", *filters.StartTime)
		}
		if filters.EndTime != nil {
			query = query.Where("created_at <= ?", *filters.EndTime)
		}
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := query.Order("id DESC").Offset(offset).Limit(limit).Find(&logs).Error; err != nil {
		return nil, 0, err
	}

	return logs, total, nil
}

// DeleteBefore 删除早于 cutoff 的操作日志，返回删除条数
func (r *OperationLogRepository) DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	result := r.db.WithContext(ctx).Where("created_at < ?", cutoff).Delete(&models.OperationLog{})
	return result.RowsAffected, result.Error
}
