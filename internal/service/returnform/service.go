// Package returnform 管理公开退货表单的动态配置
package returnform

import (
	"context"
	_ "embed"
	stderrors "errors"
	"fmt"
	"strings"
	"sync/atomic"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
	"gorm.io/gorm"

	"github.com/dumeirei/helpcenter-backend/internal/common/errors"
	"github.com/dumeirei/helpcenter-backend/internal/models"
	"github.com/dumeirei/helpcenter-backend/internal/repository"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Default 解析内置默认配置
func Default() (*models.ReturnFormConfig, error) {
	var doc struct {
		FormTitle              string                      `yaml:"formTitle"`
		FormDescription        string                      `yaml:"formDescription"`
		SuccessTitle           string                      `yaml:"successTitle"`
		SuccessMessage         string                      `yaml:"successMessage"`
		RequirePhotoForDamage  bool                        `yaml:"requirePhotoForDamage"`
		Products               []models.ProductOption      `yaml:"products"`
		PurchaseChannels       []string                    `yaml:"purchaseChannels"`
		UnwantedReasons        []string                    `yaml:"unwantedReasons"`
		ReturnReasons          []models.ReturnReasonOption `yaml:"returnReasons"`
		ReplacementOptions     []models.LabeledOption      `yaml:"replacementOptions"`
		TroubleshootingOptions []models.LabeledOption      `yaml:"troubleshootingOptions"`
	}
	if err := yaml.Unmarshal(defaultsYAML, &doc); err != nil {
		return nil, fmt.Errorf("parse default return form: %w", err)
	}
	return &models.ReturnFormConfig{
		ID:                     models.ReturnFormConfigID,
		Products:               doc.Products,
		PurchaseChannels:       doc.PurchaseChannels,
		UnwantedReasons:        doc.UnwantedReasons,
		ReturnReasons:          doc.ReturnReasons,
		ReplacementOptions:     doc.ReplacementOptions,
		TroubleshootingOptions: doc.TroubleshootingOptions,
		FormTitle:              doc.FormTitle,
		FormDescription:        doc.FormDescription,
		SuccessTitle:           doc.SuccessTitle,
		SuccessMessage:         doc.SuccessMessage,
		RequirePhotoForDamage:  doc.RequirePhotoForDamage,
	}, nil
}

// Snapshot 不可变的配置快照
type Snapshot struct {
	config  *models.ReturnFormConfig
	reasons map[string]models.ReturnReasonOption
	serials map[string]bool
}

func newSnapshot(cfg *models.ReturnFormConfig) *Snapshot {
	s := &Snapshot{
		config:  cfg,
		reasons: make(map[string]models.ReturnReasonOption, len(cfg.ReturnReasons)),
		serials: make(map[string]bool, len(cfg.Products)),
	}
	for _, r := range cfg.ReturnReasons {
		s.reasons[r.Value] = r
	}
	for _, p := range cfg.Products {
		s.serials[p.Name] = p.RequiresSerial
	}
	return s
}

// Config 返回配置（调用方不得修改）
func (s *Snapshot) Config() *models.ReturnFormConfig {
	return s.config
}

// Reason 查找退货原因
func (s *Snapshot) Reason(value string) (models.ReturnReasonOption, bool) {
	r, ok := s.reasons[value]
	return r, ok
}

// Capabilities 原因对应的能力集合，未知原因返回 0
func (s *Snapshot) Capabilities(value string) Capability {
	r, ok := s.reasons[value]
	if !ok {
		return 0
	}
	return CapabilitiesOf(r)
}

// Requirements 原因对应的必填字段
func (s *Snapshot) Requirements(value string) Requirements {
	return RequirementsFor(s.Capabilities(value), s.config.RequirePhotoForDamage)
}

// RequiresSerial 产品是否需要序列号
func (s *Snapshot) RequiresSerial(product string) bool {
	return s.serials[product]
}

// ReasonView 公开表单中的退货原因
type ReasonView struct {
	models.ReturnReasonOption
	Capabilities []string     `json:"capabilities"`
	Requires     Requirements `json:"requires"`
}

// PublicForm 公开表单载荷
type PublicForm struct {
	*models.ReturnFormConfig
	ReturnReasons []ReasonView `json:"returnReasons"`
}

// Public 构建公开表单载荷，能力与必填字段与服务端校验同源
func (s *Snapshot) Public() *PublicForm {
	views := make([]ReasonView, 0, len(s.config.ReturnReasons))
	for _, r := range s.config.ReturnReasons {
		c := CapabilitiesOf(r)
		views = append(views, ReasonView{
			ReturnReasonOption: r,
			Capabilities:       c.Names(),
			Requires:           RequirementsFor(c, s.config.RequirePhotoForDamage),
		})
	}
	return &PublicForm{ReturnFormConfig: s.config, ReturnReasons: views}
}

// Service 退货表单配置服务
type Service struct {
	repo     *repository.SettingsRepository
	logger   *zap.Logger
	snapshot atomic.Pointer[Snapshot]
}

// NewService 创建退货表单配置服务
func NewService(repo *repository.SettingsRepository, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{repo: repo, logger: logger}
}

// Load 从数据库加载配置，不存在时写入默认配置
func (s *Service) Load(ctx context.Context) (*Snapshot, error) {
	cfg, err := s.repo.GetReturnFormConfig(ctx)
	if stderrors.Is(err, gorm.ErrRecordNotFound) {
		def, derr := Default()
		if derr != nil {
			return nil, errors.ErrInternalError.WithError(derr)
		}
		if err := s.repo.CreateReturnFormConfigIfAbsent(ctx, def); err != nil {
			return nil, errors.ErrDatabaseError.WithError(err)
		}
		s.logger.Info("return form config initialised with defaults")
		cfg, err = s.repo.GetReturnFormConfig(ctx)
	}
	if err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}

	snap := newSnapshot(cfg)
	s.snapshot.Store(snap)
	return snap, nil
}

// Current 返回当前快照，首次调用时加载
func (s *Service) Current(ctx context.Context) (*Snapshot, error) {
	if snap := s.snapshot.Load(); snap != nil {
		return snap, nil
	}
	return s.Load(ctx)
}

// Get 获取配置
func (s *Service) Get(ctx context.Context) (*models.ReturnFormConfig, error) {
	snap, err := s.Current(ctx)
	if err != nil {
		return nil, err
	}
	return snap.Config(), nil
}

// UpdateRequest 全量更新请求
type UpdateRequest struct {
	Products               []models.ProductOption      `json:"products" binding:"required"`
	PurchaseChannels       []string                    `json:"purchaseChannels" binding:"required"`
	UnwantedReasons        []string                    `json:"unwantedReasons"`
	ReturnReasons          []models.ReturnReasonOption `json:"returnReasons" binding:"required"`
	ReplacementOptions     []models.LabeledOption      `json:"replacementOptions"`
	TroubleshootingOptions []models.LabeledOption      `json:"troubleshootingOptions"`
	FormTitle              string                      `json:"formTitle" binding:"required"`
	FormDescription        string                      `json:"formDescription"`
	SuccessTitle           string                      `json:"successTitle" binding:"required"`
	SuccessMessage         string                      `json:"successMessage"`
	RequirePhotoForDamage  bool                        `json:"requirePhotoForDamage"`
}

// Validate 校验必填列表与原因值唯一
func (r *UpdateRequest) Validate() error {
	switch {
	case len(r.Products) == 0:
		return errors.ErrValidation.WithMessage("At least one product is required")
	case len(r.PurchaseChannels) == 0:
		return errors.ErrValidation.WithMessage("At least one purchase channel is required")
	case len(r.ReturnReasons) == 0:
		return errors.ErrValidation.WithMessage("At least one return reason is required")
	}

	seen := make(map[string]bool, len(r.ReturnReasons))
	for _, reason := range r.ReturnReasons {
		value := strings.TrimSpace(reason.Value)
		if value == "" {
			return errors.ErrValidation.WithMessage("Return reason value is required")
		}
		if seen[value] {
			return errors.ErrValidation.WithMessagef("Duplicate return reason: %s", value)
		}
		seen[value] = true
		if reason.ShowUnwantedReason && len(r.UnwantedReasons) == 0 {
			return errors.ErrValidation.WithMessagef("Return reason %s asks for an unwanted reason but none are configured", value)
		}
	}
	for _, p := range r.Products {
		if strings.TrimSpace(p.Name) == "" {
			return errors.ErrValidation.WithMessage("Product name is required")
		}
	}
	return nil
}

// Update 全量替换配置并刷新快照
func (s *Service) Update(ctx context.Context, req *UpdateRequest) (*models.ReturnFormConfig, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	cfg := &models.ReturnFormConfig{
		ID:                     models.ReturnFormConfigID,
		Products:               req.Products,
		PurchaseChannels:       req.PurchaseChannels,
		UnwantedReasons:        nonNil(req.UnwantedReasons),
		ReturnReasons:          req.ReturnReasons,
		ReplacementOptions:     nonNilOptions(req.ReplacementOptions),
		TroubleshootingOptions: nonNilOptions(req.TroubleshootingOptions),
		FormTitle:              req.FormTitle,
		FormDescription:        req.FormDescription,
		SuccessTitle:           req.SuccessTitle,
		SuccessMessage:         req.SuccessMessage,
		RequirePhotoForDamage:  req.RequirePhotoForDamage,
	}
	if err := s.repo.SaveReturnFormConfig(ctx, cfg); err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}

	snap, err := s.Load(ctx)
	if err != nil {
		return nil, err
	}
	s.logger.Info("return form config updated", zap.Int("reasons", len(cfg.ReturnReasons)), zap.Int("products", len(cfg.Products)))
	return snap.Config(), nil
}

func nonNil(in []string) []string {
	if in == nil {
		return []string{}
	}
	return in
}

func nonNilOptions(in []models.LabeledOption) []models.LabeledOption {
	if in == nil {
		return []models.LabeledOption{}
	}
	return in
}
