package admin

import (
	"context"
	"time"

	"github.com/dumeirei/helpcenter-backend/internal/common/errors"
	"github.com/dumeirei/helpcenter-backend/internal/models"
	"github.com/dumeirei/helpcenter-backend/internal/repository"
	"github.com/dumeirei/helpcenter-backend/internal/service/content"
	"github.com/dumeirei/helpcenter-backend/internal/service/ticket"
)

// DashboardService 后台仪表盘
type DashboardService struct {
	catalog *content.Service
	tickets *ticket.Service
	users   *repository.UserRepository
	logs    *repository.OperationLogRepository
}

// NewDashboardService 创建仪表盘服务
func NewDashboardService(
	catalog *content.Service,
	tickets *ticket.Service,
	users *repository.UserRepository,
	logs *repository.OperationLogRepository,
) *DashboardService {
	return &DashboardService{catalog: catalog, tickets: tickets, users: users, logs: logs}
}

// Dashboard 仪表盘数据
type Dashboard struct {
	PublishedArticles int64                    `json:"publishedArticles"`
	ActiveCategories  int64                    `json:"activeCategories"`
	Users             int64                    `json:"users"`
	TotalViews        int64                    `json:"totalViews"`
	RecentArticles    []*models.Article        `json:"recentArticles"`
	PopularArticles   []*models.Article        `json:"popularArticles"`
	Tickets           *repository.TicketCounts `json:"tickets"`
}

// Get 汇总仪表盘数据
func (s *DashboardService) Get(ctx context.Context) (*Dashboard, error) {
	stats, err := s.catalog.Stats(ctx)
	if err != nil {
		return nil, err
	}
	users, err := s.users.Count(ctx)
	if err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	counts, err := s.tickets.Counts(ctx)
	if err != nil {
		return nil, err
	}
	return &Dashboard{
		PublishedArticles: stats.PublishedArticles,
		ActiveCategories:  stats.ActiveCategories,
		Users:             users,
		TotalViews:        stats.TotalViews,
		RecentArticles:    stats.RecentArticles,
		PopularArticles:   stats.PopularArticles,
		Tickets:           counts,
	}, nil
}

// OperationLogFilters 操作日志筛选
type OperationLogFilters struct {
	AdminID   string     `form:"adminId"`
	Module    string     `form:"module"`
	Action    string     `form:"action"`
	TargetID  string     `form:"targetId"`
	StartTime *time.Time `form:"start" time_format:"2006-01-02"`
	EndTime   *time.Time `form:"end" time_format:"2006-01-02"`
}

// OperationLogs 分页查询操作日志（最新在前）
func (s *DashboardService) OperationLogs(ctx context.Context, offset, limit int, filters *OperationLogFilters) ([]*models.OperationLog, int64, error) {
	var f *repository.OperationLogFilters
	if filters != nil {
		f = &repository.OperationLogFilters{
			AdminID:   filters.AdminID,
			Module:    filters.Module,
			Action:    filters.Action,
			TargetID:  filters.TargetID,
			StartTime: filters.StartTime,
		}
		if filters.EndTime != nil {
			// 结束日期包含当天
			end := filters.EndTime.Add(24*time.Hour - time.Nanosecond)
			f.EndTime = &end
		}
	}
	list, total, err := s.logs.List(ctx, offset, limit, f)
	if err != nil {
		return nil, 0, errors.ErrDatabaseError.WithError(err)
	}
	return list, total, nil
}
