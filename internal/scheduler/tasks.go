package scheduler

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/dumeirei/helpcenter-backend/internal/repository"
)

// ReplyMailer 重发失败的回复邮件
type ReplyMailer interface {
	RetryReplyEmails(ctx context.Context, since time.Time, limit int) (int, error)
}

// Config 维护任务配置
type Config struct {
	// RetryInterval 回复邮件重发间隔，0 表示不启用
	RetryInterval time.Duration
	// RetryWindow 只重发该时间窗口内创建的回复
	RetryWindow time.Duration
	// RetryBatch 单次最多重发条数
	RetryBatch int
	// LogRetention 操作日志保留时长，0 表示永久保留
	LogRetention time.Duration
}

// TaskHandler 任务处理器
type TaskHandler struct {
	replies ReplyMailer
	logs    *repository.OperationLogRepository
	cfg     Config
	logger  *zap.Logger
	now     func() time.Time
}

// NewTaskHandler 创建任务处理器
func NewTaskHandler(replies ReplyMailer, logs *repository.OperationLogRepository, cfg Config, log *zap.Logger) *TaskHandler {
	if log == nil {
		log = zap.NewNop()
	}
	if cfg.RetryBatch <= 0 {
		cfg.RetryBatch = 50
	}
	if cfg.RetryWindow <= 0 {
		cfg.RetryWindow = 24 * time.Hour
	}
	return &TaskHandler{
		replies: replies,
		logs:    logs,
		cfg:     cfg,
		logger:  log.Named("task"),
		now:     time.Now,
	}
}

// RetryReplyEmails 重发近期发送失败的客服回复
func (h *TaskHandler) RetryReplyEmails(ctx context.Context) error {
	_, err := h.replies.RetryReplyEmails(ctx, h.now().Add(-h.cfg.RetryWindow), h.cfg.RetryBatch)
	return err
}

// PruneOperationLogs 清理过期操作日志
func (h *TaskHandler) PruneOperationLogs(ctx context.Context) error {
	removed, err := h.logs.DeleteBefore(ctx, h.now().Add(-h.cfg.LogRetention))
	if err != nil {
		return err
	}
	if removed > 0 {
		h.logger.Info("operation logs pruned", zap.Int64("removed", removed))
	}
	return nil
}

// SetupTasks 按配置注册任务
func SetupTasks(s *Scheduler, h *TaskHandler) {
	if h.cfg.RetryInterval > 0 && h.replies != nil {
		s.AddTask("RetryReplyEmails", h.cfg.RetryInterval, h.RetryReplyEmails)
	}
	if h.cfg.LogRetention > 0 && h.logs != nil {
		s.AddTask("PruneOperationLogs", time.Hour, h.PruneOperationLogs)
	}
}
