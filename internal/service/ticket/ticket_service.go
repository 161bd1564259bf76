// Package ticket 工单生命周期：受理、查询、状态维护、回复与备注
package ticket

import (
	"context"
	stderrors "errors"
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/dumeirei/helpcenter-backend/internal/common/errors"
	"github.com/dumeirei/helpcenter-backend/internal/common/logger"
	"github.com/dumeirei/helpcenter-backend/internal/common/metrics"
	"github.com/dumeirei/helpcenter-backend/internal/common/qrcode"
	"github.com/dumeirei/helpcenter-backend/internal/common/tracing"
	"github.com/dumeirei/helpcenter-backend/internal/common/utils"
	"github.com/dumeirei/helpcenter-backend/internal/models"
	"github.com/dumeirei/helpcenter-backend/internal/repository"
	"github.com/dumeirei/helpcenter-backend/internal/service/notification"
	"github.com/dumeirei/helpcenter-backend/internal/service/returnform"
	"github.com/dumeirei/helpcenter-backend/internal/service/upload"
)

// DefaultSenderName 管理员未设置姓名时的回复署名
const DefaultSenderName = "Support Team"

var (
	stripPolicy = bluemonday.StrictPolicy()
	replyPolicy = bluemonday.UGCPolicy()
)

// Config 工单服务配置
type Config struct {
	SupportAddress string
	SiteURL        string
	// RetryGrace 回复创建后至少经过该时长，未记录结果的邮件才会被重发
	RetryGrace time.Duration
}

// DefaultRetryGrace 首次发送的最长等待时间
const DefaultRetryGrace = 2 * time.Minute

// Service 工单服务
type Service struct {
	repo     *repository.TicketRepository
	forms    *returnform.Service
	photos   *upload.PhotoStore
	notifier *notification.Notifier
	qr       *qrcode.Generator
	metrics  *metrics.Metrics
	cfg      Config
	logger   *zap.Logger
}

// NewService 创建工单服务
func NewService(
	repo *repository.TicketRepository,
	forms *returnform.Service,
	photos *upload.PhotoStore,
	notifier *notification.Notifier,
	m *metrics.Metrics,
	cfg Config,
	log *zap.Logger,
) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	if cfg.SupportAddress == "" {
		cfg.SupportAddress = "support@subcold.com"
	}
	if cfg.RetryGrace <= 0 {
		cfg.RetryGrace = DefaultRetryGrace
	}
	return &Service{
		repo:     repo,
		forms:    forms,
		photos:   photos,
		notifier: notifier,
		qr:       qrcode.NewGenerator(qrcode.WithSize(320), qrcode.WithRecoveryLevel(qrcode.High)),
		metrics:  m,
		cfg:      cfg,
		logger:   log.Named("ticket"),
	}
}

// CreateRequest 客户提交工单
type CreateRequest struct {
	Type     string `json:"type"`
	FullName string `json:"fullName"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Subject  string `json:"subject"`
	Message  string `json:"message"`
	Priority string `json:"priority"`

	OrderNumber      string `json:"orderNumber"`
	PurchaseChannel  string `json:"purchaseChannel"`
	ReturnReason     string `json:"returnReason"`
	UnwantedReason   string `json:"unwantedReason"`
	ProductName      string `json:"productName"`
	SerialNumber     string `json:"serialNumber"`
	Troubleshooting  string `json:"troubleshooting"`
	WantsReplacement string `json:"wantsReplacement"`

	Photos []string `json:"photos"`
}

// CreateResult 工单受理结果
type CreateResult struct {
	Success      bool   `json:"success"`
	TicketNumber string `json:"ticketNumber"`
	TicketID     string `json:"ticketId"`
	Message      string `json:"message"`
}

// FormatNumber 格式化工单号
func FormatNumber(seq int64) string {
	return fmt.Sprintf("TKT-%06d", seq)
}

func (r *CreateRequest) normalize() {
	r.Type = strings.ToLower(strings.TrimSpace(r.Type))
	r.FullName = strings.TrimSpace(r.FullName)
	r.Email = strings.TrimSpace(r.Email)
	r.Subject = strings.TrimSpace(r.Subject)
	r.Priority = strings.ToLower(strings.TrimSpace(r.Priority))
	r.ReturnReason = strings.TrimSpace(r.ReturnReason)
	r.ProductName = strings.TrimSpace(r.ProductName)
}

func (r *CreateRequest) validate() error {
	var missing []string
	for _, f := range []struct{ name, value string }{
		{"type", r.Type},
		{"fullName", r.FullName},
		{"email", r.Email},
		{"subject", r.Subject},
		{"message", strings.TrimSpace(r.Message)},
	} {
		if f.value == "" {
			missing = append(missing, f.name)
		}
	}
	if len(missing) > 0 {
		return errors.ErrMissingFields.WithMessage("Missing required fields: " + strings.Join(missing, ", "))
	}
	if !utils.ValidateEmail(r.Email) {
		return errors.ErrInvalidEmail
	}
	if !models.IsValidTicketType(r.Type) {
		return errors.ErrValidation.WithMessagef("Invalid ticket type: %s", r.Type)
	}
	if r.Priority != "" && !models.IsValidTicketPriority(r.Priority) {
		return errors.ErrValidation.WithMessagef("Invalid priority: %s", r.Priority)
	}
	return nil
}

func countPhotos(photos []string) int {
	n := 0
	for _, p := range photos {
		if strings.TrimSpace(p) != "" {
			n++
		}
	}
	return n
}

// Create 受理工单：校验、分配工单号、入库、发送通知
func (s *Service) Create(ctx context.Context, req *CreateRequest) (*CreateResult, error) {
	ctx, span := tracing.Start(ctx, "ticket.Create", tracing.WithTicketType(req.Type))
	defer span.End()

	req.normalize()
	if err := req.validate(); err != nil {
		return nil, err
	}

	if req.Type == models.TicketTypeReturn {
		snap, err := s.forms.Current(ctx)
		if err != nil {
			return nil, err
		}
		if fe := snap.Validate(returnform.Submission{
			ReturnReason:    req.ReturnReason,
			UnwantedReason:  req.UnwantedReason,
			ProductName:     req.ProductName,
			SerialNumber:    req.SerialNumber,
			Troubleshooting: req.Troubleshooting,
			PhotoCount:      countPhotos(req.Photos),
		}); fe != nil {
			return nil, errors.ErrValidation.WithMessage(fe.Message)
		}
	}

	attachments, err := s.photos.Store(ctx, req.Photos)
	if err != nil {
		return nil, err
	}

	seq, err := s.repo.NextSequence(ctx, models.TicketSequenceName)
	if err != nil {
		tracing.SetError(ctx, err)
		return nil, errors.ErrDatabaseError.WithError(err)
	}

	priority := req.Priority
	if priority == "" {
		priority = models.TicketPriorityNormal
	}
	ticket := &models.Ticket{
		TicketNumber:     FormatNumber(seq),
		Type:             req.Type,
		Status:           models.TicketStatusOpen,
		Priority:         priority,
		FullName:         req.FullName,
		Email:            req.Email,
		Phone:            utils.NilIfEmpty(req.Phone),
		Subject:          req.Subject,
		Message:          req.Message,
		OrderNumber:      utils.NilIfEmpty(req.OrderNumber),
		PurchaseChannel:  utils.NilIfEmpty(req.PurchaseChannel),
		ReturnReason:     utils.NilIfEmpty(req.ReturnReason),
		UnwantedReason:   utils.NilIfEmpty(req.UnwantedReason),
		ProductName:      utils.NilIfEmpty(req.ProductName),
		SerialNumber:     utils.NilIfEmpty(req.SerialNumber),
		Troubleshooting:  utils.NilIfEmpty(req.Troubleshooting),
		WantsReplacement: utils.NilIfEmpty(req.WantsReplacement),
		Attachments:      attachments,
	}
	if err := s.repo.Create(ctx, ticket); err != nil {
		tracing.SetError(ctx, err)
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	span.SetAttributes(tracing.WithTicketNumber(ticket.TicketNumber))
	s.metrics.RecordTicketCreated(ticket.Type)
	s.logger.Info("ticket created",
		logger.TicketNumber(ticket.TicketNumber),
		zap.String("type", ticket.Type),
		zap.String("priority", ticket.Priority),
	)

	// 通知失败已由 notifier 记录，不影响受理结果
	_ = s.notifier.NewTicketAdmin(ctx, ticket)
	_ = s.notifier.TicketConfirmation(ctx, ticket)
	if ticket.Priority == models.TicketPriorityUrgent {
		_ = s.notifier.UrgentAlert(ctx, ticket)
	}

	return &CreateResult{
		Success:      true,
		TicketNumber: ticket.TicketNumber,
		TicketID:     ticket.ID,
		Message:      "Ticket created successfully",
	}, nil
}

// resolve 按 ID 或工单号查找工单
func (s *Service) resolve(ctx context.Context, ref string) (*models.Ticket, error) {
	ticket, err := s.repo.GetByRef(ctx, strings.TrimSpace(ref))
	if err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.ErrTicketNotFound
		}
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	return ticket, nil
}

// Get 获取工单及其回复（按时间升序）
func (s *Service) Get(ctx context.Context, ref string) (*models.Ticket, error) {
	ticket, err := s.resolve(ctx, ref)
	if err != nil {
		return nil, err
	}
	full, err := s.repo.GetWithReplies(ctx, ticket.ID)
	if err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	return full, nil
}

// ListFilters 后台工单列表筛选
type ListFilters struct {
	Type    string `form:"type" binding:"omitempty,ticket_type"`
	Status  string `form:"status" binding:"omitempty,ticket_status"`
	Keyword string `form:"q"`
}

// List 分页获取工单（最新优先）
func (s *Service) List(ctx context.Context, offset, limit int, filters *ListFilters) ([]*models.Ticket, int64, error) {
	var f *repository.TicketListFilters
	if filters != nil {
		if filters.Type != "" && !models.IsValidTicketType(filters.Type) {
			return nil, 0, errors.ErrValidation.WithMessagef("Invalid ticket type: %s", filters.Type)
		}
		if filters.Status != "" && !models.IsValidTicketStatus(filters.Status) {
			return nil, 0, errors.ErrValidation.WithMessagef("Invalid status: %s", filters.Status)
		}
		f = &repository.TicketListFilters{
			Type:    filters.Type,
			Status:  filters.Status,
			Keyword: strings.TrimSpace(filters.Keyword),
		}
	}
	tickets, total, err := s.repo.List(ctx, offset, limit, f)
	if err != nil {
		return nil, 0, errors.ErrDatabaseError.WithError(err)
	}
	return tickets, total, nil
}

// Counts 工单统计
func (s *Service) Counts(ctx context.Context) (*repository.TicketCounts, error) {
	counts, err := s.repo.Counts(ctx)
	if err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	return counts, nil
}

// UpdateRequest 工单更新，仅应用非空字段
type UpdateRequest struct {
	Status     *string `json:"status" binding:"omitempty,ticket_status"`
	Priority   *string `json:"priority" binding:"omitempty,ticket_priority"`
	AdminNotes *string `json:"adminNotes"`
	AssignedTo *string `json:"assignedTo"`
}

// Update 更新工单状态、优先级、备注与指派人，任意状态之间可切换
func (s *Service) Update(ctx context.Context, ref string, req *UpdateRequest) (*models.Ticket, error) {
	ticket, err := s.resolve(ctx, ref)
	if err != nil {
		return nil, err
	}

	fields := make(map[string]interface{})
	if req.Status != nil {
		if !models.IsValidTicketStatus(*req.Status) {
			return nil, errors.ErrValidation.WithMessagef("Invalid status: %s", *req.Status)
		}
		fields["status"] = *req.Status
	}
	if req.Priority != nil {
		if !models.IsValidTicketPriority(*req.Priority) {
			return nil, errors.ErrValidation.WithMessagef("Invalid priority: %s", *req.Priority)
		}
		fields["priority"] = *req.Priority
	}
	if req.AdminNotes != nil {
		fields["admin_notes"] = utils.NilIfEmpty(*req.AdminNotes)
	}
	if req.AssignedTo != nil {
		fields["assigned_to"] = utils.NilIfEmpty(*req.AssignedTo)
	}
	if len(fields) == 0 {
		return ticket, nil
	}

	if err := s.repo.UpdateFields(ctx, ticket.ID, fields); err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	s.logger.Info("ticket updated", logger.TicketNumber(ticket.TicketNumber), zap.Any("fields", fieldNames(fields)))
	updated, err := s.repo.GetByID(ctx, ticket.ID)
	if err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	return updated, nil
}

func fieldNames(fields map[string]interface{}) []string {
	names := make([]string, 0, len(fields))
	for k := range fields {
		names = append(names, k)
	}
	return names
}

// Author 回复作者（当前管理员）
type Author struct {
	ID    string
	Name  string
	Email string
}

// ReplyRequest 管理员回复或内部备注
type ReplyRequest struct {
	Message      string   `json:"message"`
	Type         string   `json:"type"`
	UpdateStatus *string  `json:"updateStatus"`
	Attachments  []string `json:"attachments"`
}

// ReplyResult 回复结果
type ReplyResult struct {
	Reply      *models.TicketReply `json:"reply"`
	EmailSent  bool                `json:"emailSent"`
	EmailError *string             `json:"emailError"`
}

// hasText 去除标签后是否仍有文字
func hasText(message string) bool {
	return strings.TrimSpace(html.UnescapeString(stripPolicy.Sanitize(message))) != ""
}

// AppendReply 追加回复或内部备注
//
// 回复先入库，再更新工单状态，最后发送邮件并回写发送结果；后两步失败不回滚回复。
func (s *Service) AppendReply(ctx context.Context, ref string, req *ReplyRequest, author Author) (*ReplyResult, error) {
	ctx, span := tracing.Start(ctx, "ticket.AppendReply")
	defer span.End()

	ticket, err := s.resolve(ctx, ref)
	if err != nil {
		return nil, err
	}

	replyType := strings.TrimSpace(req.Type)
	if replyType == "" {
		replyType = models.ReplyTypeReply
	}
	if !models.IsValidReplyType(replyType) {
		return nil, errors.ErrValidation.WithMessagef("Invalid reply type: %s", replyType)
	}
	attachments := make([]string, 0, len(req.Attachments))
	for _, a := range req.Attachments {
		if a = strings.TrimSpace(a); a != "" {
			attachments = append(attachments, a)
		}
	}
	if !hasText(req.Message) && len(attachments) == 0 {
		return nil, errors.ErrEmptyMessage
	}
	if req.UpdateStatus != nil && !models.IsValidTicketStatus(*req.UpdateStatus) {
		return nil, errors.ErrValidation.WithMessagef("Invalid status: %s", *req.UpdateStatus)
	}

	senderName := strings.TrimSpace(author.Name)
	if senderName == "" {
		senderName = DefaultSenderName
	}
	senderEmail := strings.TrimSpace(author.Email)
	if senderEmail == "" {
		senderEmail = s.cfg.SupportAddress
	}

	reply := &models.TicketReply{
		TicketID:    ticket.ID,
		Sender:      models.ReplySenderAdmin,
		Type:        replyType,
		SenderName:  senderName,
		SenderEmail: senderEmail,
		Message:     replyPolicy.Sanitize(strings.TrimSpace(req.Message)),
		Attachments: attachments,
	}
	if err := s.repo.CreateReply(ctx, reply); err != nil {
		tracing.SetError(ctx, err)
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	s.metrics.RecordTicketReply(replyType)

	log := s.logger.With(logger.TicketNumber(ticket.TicketNumber), logger.AdminID(author.ID), zap.String("type", replyType))
	if reply.IsInternal() {
		log.Info("internal note added")
		return &ReplyResult{Reply: reply}, nil
	}

	status := models.TicketStatusAwaitingCustomer
	if req.UpdateStatus != nil {
		status = *req.UpdateStatus
	}
	if err := s.repo.UpdateFields(ctx, ticket.ID, map[string]interface{}{"status": status}); err != nil {
		log.Warn("update ticket status after reply failed", zap.Error(err))
	} else {
		ticket.Status = status
	}

	sendErr := s.notifier.TicketReply(ctx, ticket, reply)
	reply.EmailSent = sendErr == nil
	if sendErr != nil {
		reply.EmailError = utils.StringPtr(notification.Describe(sendErr))
	}
	if err := s.repo.UpdateReplyEmailStatus(ctx, reply.ID, reply.EmailSent, reply.EmailError); err != nil {
		log.Warn("record reply email status failed", zap.Error(err))
	}
	log.Info("reply added", zap.Bool("email_sent", reply.EmailSent))

	return &ReplyResult{
		Reply:      reply,
		EmailSent:  reply.EmailSent,
		EmailError: reply.EmailError,
	}, nil
}

// RetryReplyEmails 重发 since 之后发送失败的回复邮件，返回成功条数
//
// 未配置邮件时直接返回，回复记录保持原状；首次发送尚未回写结果的回复跳过
func (s *Service) RetryReplyEmails(ctx context.Context, since time.Time, limit int) (int, error) {
	if !s.notifier.MailEnabled() {
		return 0, nil
	}
	replies, err := s.repo.ListUnsentReplies(ctx, since, time.Now().Add(-s.cfg.RetryGrace), limit)
	if err != nil {
		return 0, errors.ErrDatabaseError.WithError(err)
	}

	sent := 0
	tickets := make(map[string]*models.Ticket)
	for _, reply := range replies {
		ticket, ok := tickets[reply.TicketID]
		if !ok {
			ticket, err = s.repo.GetByID(ctx, reply.TicketID)
			if err != nil {
				// 工单已删除
				continue
			}
			tickets[reply.TicketID] = ticket
		}

		sendErr := s.notifier.TicketReply(ctx, ticket, reply)
		var emailError *string
		if sendErr != nil {
			emailError = utils.StringPtr(notification.Describe(sendErr))
		}
		if err := s.repo.UpdateReplyEmailStatus(ctx, reply.ID, sendErr == nil, emailError); err != nil {
			return sent, errors.ErrDatabaseError.WithError(err)
		}
		if sendErr == nil {
			sent++
		}
	}
	if len(replies) > 0 {
		s.logger.Info("reply email retry finished", zap.Int("pending", len(replies)), zap.Int("sent", sent))
	}
	return sent, nil
}

// ListReplies 获取工单回复（按时间升序）
func (s *Service) ListReplies(ctx context.Context, ref string) ([]*models.TicketReply, error) {
	ticket, err := s.resolve(ctx, ref)
	if err != nil {
		return nil, err
	}
	replies, err := s.repo.ListReplies(ctx, ticket.ID)
	if err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	return replies, nil
}

// Delete 删除工单及其回复
func (s *Service) Delete(ctx context.Context, ref string) error {
	ticket, err := s.resolve(ctx, ref)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, ticket.ID); err != nil {
		return errors.ErrDatabaseError.WithError(err)
	}
	s.logger.Info("ticket deleted", logger.TicketNumber(ticket.TicketNumber))
	return nil
}

// Label 生成工单号二维码（PNG），用于退货包裹标签
func (s *Service) Label(ctx context.Context, ref string) ([]byte, string, error) {
	ticket, err := s.resolve(ctx, ref)
	if err != nil {
		return nil, "", err
	}
	png, err := s.qr.TicketLabel(s.cfg.SiteURL, ticket.TicketNumber)
	if err != nil {
		return nil, "", errors.ErrInternalError.WithError(err)
	}
	return png, ticket.TicketNumber, nil
}
