// Package repository 提供数据访问层
package repository

import (
	"context"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/dumeirei/helpcenter-backend/internal/models"
)

// TicketRepository 工单仓储
type TicketRepository struct {
	db *gorm.DB
}

// NewTicketRepository 创建工单仓储
func NewTicketRepository(db *gorm.DB) *TicketRepository {
	return &TicketRepository{db: db}
}

// NextSequence 原子递增工单号序列并返回新值
//
// 行不存在时先插入 0，再在同一事务内 value = value + 1，并发创建不会得到相同序号
func (r *TicketRepository) NextSequence(ctx context.Context, name string) (int64, error) {
	var value int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		seed := &models.TicketSequence{Name: name}
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(seed).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.TicketSequence{}).
			Where("name = ?", name).
			UpdateColumn("value", gorm.Expr("value + 1")).Error; err != nil {
			return err
		}
		return tx.Model(&models.TicketSequence{}).
			Where("name = ?", name).
			Select("value").
			Scan(&value).Error
	})
	return value, err
}

// Create 创建工单
func (r *TicketRepository) Create(ctx context.Context, ticket *models.Ticket) error {
	return r.db.WithContext(ctx).Create(ticket).Error
}

// GetByID 根据 ID 获取工单
func (r *TicketRepository) GetByID(ctx context.Context, id string) (*models.Ticket, error) {
	var ticket models.Ticket
	if err := r.db.WithContext(ctx).First(&ticket, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &ticket, nil
}

// GetByNumber 根据工单号获取工单
func (r *TicketRepository) GetByNumber(ctx context.Context, number string) (*models.Ticket, error) {
	var ticket models.Ticket
	if err := r.db.WithContext(ctx).First(&ticket, "ticket_number = ?", number).Error; err != nil {
		return nil, err
	}
	return &ticket, nil
}

// GetByRef 按 ID 或工单号获取工单
func (r *TicketRepository) GetByRef(ctx context.Context, ref string) (*models.Ticket, error) {
	var ticket models.Ticket
	err := r.db.WithContext(ctx).
		Where("id = ? OR ticket_number = ?", ref, ref).
		First(&ticket).Error
	if err != nil {
		return nil, err
	}
	return &ticket, nil
}

// GetWithReplies 获取工单及其全部回复（按时间升序）
func (r *TicketRepository) GetWithReplies(ctx context.Context, id string) (*models.Ticket, error) {
	var ticket models.Ticket
	err := r.db.WithContext(ctx).
		Preload("Replies", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC")
		}).
		First(&ticket, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &ticket, nil
}

// UpdateFields 更新指定字段
func (r *TicketRepository) UpdateFields(ctx context.Context, id string, fields map[string]interface{}) error {
	return r.db.WithContext(ctx).Model(&models.Ticket{}).Where("id = ?", id).Updates(fields).Error
}

// Delete 删除工单及其回复
func (r *TicketRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("ticket_id = ?", id).Delete(&models.TicketReply{}).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", id).Delete(&models.Ticket{}).Error
	})
}

// TicketListFilters 工单列表筛选条件
type TicketListFilters struct {
	Type    string
	Status  string
	Keyword string
}

// List 获取工单列表（最新优先）
func (r *TicketRepository) List(ctx context.Context, offset, limit int, filters *TicketListFilters) ([]*models.Ticket, int64, error) {
	var tickets []*models.Ticket
	var total int64

	query := r.db.WithContext(ctx).Model(&models.Ticket{})

	if filters != nil {
		if filters.Type != "" {
			query = query.Where("type = ?", filters.Type)
		}
		if filters.Status != "" {
			query = query.Where("status = ?", filters.Status)
		}
		if filters.Keyword != "" {
			keyword := "%" + strings.ToLower(filters.Keyword) + "%"
			query = query.Where(
				"LOWER(ticket_number) LIKE ? OR LOWER(full_name) LIKE ? OR LOWER(email) LIKE ? OR LOWER(subject) LIKE ?",
				keyword, keyword, keyword, keyword,
			)
		}
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := query.Order("created_at DESC").Offset(offset).Limit(limit).Find(&tickets).Error; err != nil {
		return nil, 0, err
	}

	return tickets, total, nil
}

// TicketCounts 工单统计
type TicketCounts struct {
	Total     int64 `json:"total"`
	Open      int64 `json:"open"`
	Returns   int64 `json:"returns"`
	Enquiries int64 `json:"enquiries"`
}

// Counts 统计工单数量
func (r *TicketRepository) Counts(ctx context.Context) (*TicketCounts, error) {
	var counts TicketCounts
	err := r.db.WithContext(ctx).Model(&models.Ticket{}).
		Select(
			"COUNT(*) AS total, "+
				"COALESCE(SUM(CASE WHEN status = ? THEN 1 ELSE 0 END), 0) AS open, "+
				"COALESCE(SUM(CASE WHEN type = ? THEN 1 ELSE 0 END), 0) AS returns, "+
				"COALESCE(SUM(CASE WHEN type = ? THEN 1 ELSE 0 END), 0) AS enquiries",
			models.TicketStatusOpen, models.TicketTypeReturn, models.TicketTypeEnquiry,
		).
		Scan(&counts).Error
	if err != nil {
		return nil, err
	}
	return &counts, nil
}

// CreateReply 创建回复
func (r *TicketRepository) CreateReply(ctx context.Context, reply *models.TicketReply) error {
	return r.db.WithContext(ctx).Create(reply).Error
}

// UpdateReplyEmailStatus 记录回复邮件发送结果
func (r *TicketRepository) UpdateReplyEmailStatus(ctx context.Context, replyID string, sent bool, emailError *string) error {
	return r.db.WithContext(ctx).Model(&models.TicketReply{}).
		Where("id = ?", replyID).
		Updates(map[string]interface{}{
			"email_sent":  sent,
			"email_error": emailError,
		}).Error
}

// ListReplies 获取工单回复（按时间升序）
func (r *TicketRepository) ListReplies(ctx context.Context, ticketID string) ([]*models.TicketReply, error) {
	var replies []*models.TicketReply
	err := r.db.WithContext(ctx).
		Where("ticket_id = ?", ticketID).
		Order("created_at ASC").
		Find(&replies).Error
	return replies, err
}

// ListUnsentReplies 获取 since 之后发送失败的客服回复（不含内部备注），按时间升序
//
// 仅返回已记录发送错误、或创建早于 settledBefore 的记录；首次发送仍在进行中的回复不会被取出
func (r *TicketRepository) ListUnsentReplies(ctx context.Context, since, settledBefore time.Time, limit int) ([]*models.TicketReply, error) {
	var replies []*models.TicketReply
	err := r.db.WithContext(ctx).
		Where("sender = ? AND type = ?", models.ReplySenderAdmin, models.ReplyTypeReply).
		Where("email_sent = ?", false).
		Where("created_at >= ?", since).
		Where("email_error IS NOT NULL OR created_at < ?", settledBefore).
		Order("created_at ASC").
		Limit(limit).
		Find(&replies).Error
	return replies, err
}
