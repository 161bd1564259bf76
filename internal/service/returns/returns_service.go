// Package returns 独立退货申请的受理与后台处理
package returns

import (
	"context"
	stderrors "errors"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/dumeirei/helpcenter-backend/internal/common/errors"
	"github.com/dumeirei/helpcenter-backend/internal/common/metrics"
	"github.com/dumeirei/helpcenter-backend/internal/common/tracing"
	"github.com/dumeirei/helpcenter-backend/internal/common/utils"
	"github.com/dumeirei/helpcenter-backend/internal/models"
	"github.com/dumeirei/helpcenter-backend/internal/repository"
	"github.com/dumeirei/helpcenter-backend/internal/service/notification"
	"github.com/dumeirei/helpcenter-backend/internal/service/returnform"
	"github.com/dumeirei/helpcenter-backend/internal/service/upload"
)

// Service 退货申请服务
type Service struct {
	repo     *repository.ReturnRequestRepository
	forms    *returnform.Service
	photos   *upload.PhotoStore
	notifier *notification.Notifier
	metrics  *metrics.Metrics
	logger   *zap.Logger
}

// NewService 创建退货申请服务
func NewService(
	repo *repository.ReturnRequestRepository,
	forms *returnform.Service,
	photos *upload.PhotoStore,
	notifier *notification.Notifier,
	m *metrics.Metrics,
	log *zap.Logger,
) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		repo:     repo,
		forms:    forms,
		photos:   photos,
		notifier: notifier,
		metrics:  m,
		logger:   log.Named("returns"),
	}
}

// SubmitRequest 客户提交退货申请
type SubmitRequest struct {
	ReturnReason     string   `json:"returnReason"`
	FullName         string   `json:"fullName"`
	Email            string   `json:"email"`
	OrderNumber      string   `json:"orderNumber"`
	PurchaseChannel  string   `json:"purchaseChannel"`
	UnwantedReason   string   `json:"unwantedReason"`
	ProductName      string   `json:"productName"`
	SerialNumber     string   `json:"serialNumber"`
	Troubleshooting  string   `json:"troubleshooting"`
	Description      string   `json:"description"`
	WantsReplacement string   `json:"wantsReplacement"`
	Photos           []string `json:"photos"`
}

// SubmitResult 受理结果
type SubmitResult struct {
	Success   bool   `json:"success"`
	RequestID string `json:"requestId"`
	Message   string `json:"message"`
}

func (r *SubmitRequest) validate() error {
	var missing []string
	for _, f := range []struct{ name, value string }{
		{"returnReason", r.ReturnReason},
		{"fullName", r.FullName},
		{"email", r.Email},
		{"orderNumber", r.OrderNumber},
		{"purchaseChannel", r.PurchaseChannel},
	} {
		if strings.TrimSpace(f.value) == "" {
			missing = append(missing, f.name)
		}
	}
	if len(missing) > 0 {
		return errors.ErrMissingFields.WithMessage("Missing required fields: " + strings.Join(missing, ", "))
	}
	if !utils.ValidateEmail(strings.TrimSpace(r.Email)) {
		return errors.ErrInvalidEmail
	}
	return nil
}

// Submit 受理退货申请
func (s *Service) Submit(ctx context.Context, req *SubmitRequest) (*SubmitResult, error) {
	ctx, span := tracing.Start(ctx, "returns.Submit")
	defer span.End()

	if err := req.validate(); err != nil {
		return nil, err
	}

	snap, err := s.forms.Current(ctx)
	if err != nil {
		return nil, err
	}
	photoCount := 0
	for _, p := range req.Photos {
		if strings.TrimSpace(p) != "" {
			photoCount++
		}
	}
	if fe := snap.Validate(returnform.Submission{
		ReturnReason:    strings.TrimSpace(req.ReturnReason),
		UnwantedReason:  req.UnwantedReason,
		ProductName:     strings.TrimSpace(req.ProductName),
		SerialNumber:    req.SerialNumber,
		Troubleshooting: req.Troubleshooting,
		PhotoCount:      photoCount,
	}); fe != nil {
		return nil, errors.ErrValidation.WithMessage(fe.Message)
	}

	photos, err := s.photos.Store(ctx, req.Photos)
	if err != nil {
		return nil, err
	}

	record := &models.ReturnRequest{
		ReturnReason:     strings.TrimSpace(req.ReturnReason),
		FullName:         strings.TrimSpace(req.FullName),
		Email:            strings.TrimSpace(req.Email),
		OrderNumber:      strings.TrimSpace(req.OrderNumber),
		PurchaseChannel:  strings.TrimSpace(req.PurchaseChannel),
		UnwantedReason:   utils.NilIfEmpty(req.UnwantedReason),
		ProductName:      utils.NilIfEmpty(req.ProductName),
		SerialNumber:     utils.NilIfEmpty(req.SerialNumber),
		Troubleshooting:  utils.NilIfEmpty(req.Troubleshooting),
		Description:      utils.NilIfEmpty(req.Description),
		WantsReplacement: utils.NilIfEmpty(req.WantsReplacement),
		PhotoURLs:        photos,
		Status:           models.ReturnStatusPending,
	}
	if err := s.repo.Create(ctx, record); err != nil {
		tracing.SetError(ctx, err)
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	s.metrics.RecordReturnRequest(record.ReturnReason)
	s.logger.Info("return request submitted",
		zap.String("return_id", record.ID),
		zap.String("reason", record.ReturnReason),
	)

	_ = s.notifier.NewReturnAdmin(ctx, record)
	_ = s.notifier.ReturnConfirmation(ctx, record)

	return &SubmitResult{
		Success:   true,
		RequestID: record.ID,
		Message:   "Return request submitted successfully",
	}, nil
}

// ListFilters 后台筛选条件
type ListFilters struct {
	Status       string `form:"status"`
	ReturnReason string `form:"reason"`
	Keyword      string `form:"q"`
}

// List 分页获取退货申请
func (s *Service) List(ctx context.Context, offset, limit int, filters *ListFilters) ([]*models.ReturnRequest, int64, error) {
	var f *repository.ReturnRequestListFilters
	if filters != nil {
		if filters.Status != "" && !models.IsValidReturnStatus(filters.Status) {
			return nil, 0, errors.ErrValidation.WithMessagef("Invalid status: %s", filters.Status)
		}
		f = &repository.ReturnRequestListFilters{
			Status:       filters.Status,
			ReturnReason: filters.ReturnReason,
			Keyword:      strings.TrimSpace(filters.Keyword),
		}
	}
	list, total, err := s.repo.List(ctx, offset, limit, f)
	if err != nil {
		return nil, 0, errors.ErrDatabaseError.WithError(err)
	}
	return list, total, nil
}

// Get 获取退货申请
func (s *Service) Get(ctx context.Context, id string) (*models.ReturnRequest, error) {
	req, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.ErrReturnRequestNotFound
		}
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	return req, nil
}

// UpdateRequest 后台更新
type UpdateRequest struct {
	Status     *string `json:"status"`
	AdminNotes *string `json:"adminNotes"`
}

// Update 更新状态与备注
func (s *Service) Update(ctx context.Context, id string, req *UpdateRequest) (*models.ReturnRequest, error) {
	current, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	fields := make(map[string]interface{})
	if req.Status != nil {
		if !models.IsValidReturnStatus(*req.Status) {
			return nil, errors.ErrValidation.WithMessagef("Invalid status: %s", *req.Status)
		}
		fields["status"] = *req.Status
	}
	if req.AdminNotes != nil {
		fields["admin_notes"] = utils.NilIfEmpty(*req.AdminNotes)
	}
	if len(fields) == 0 {
		return current, nil
	}
	if err := s.repo.UpdateFields(ctx, id, fields); err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	return s.Get(ctx, id)
}

// Delete 删除退货申请
func (s *Service) Delete(ctx context.Context, id string) error {
	deleted, err := s.repo.Delete(ctx, id)
	if err != nil {
		return errors.ErrDatabaseError.WithError(err)
	}
	if !deleted {
		return errors.ErrReturnRequestNotFound
	}
	s.logger.Info("return request deleted", zap.String("return_id", id))
	return nil
}
