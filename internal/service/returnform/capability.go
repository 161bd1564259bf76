package returnform

import (
	"strings"

	"github.com/dumeirei/helpcenter-backend/internal/models"
)

// Capability 退货原因展示的条件字段集合
type Capability uint8

const (
	CapUnwantedReason Capability = 1 << iota
	CapProductDetails
	CapPhotoUpload
	CapTroubleshooting
)

// Has 是否包含全部指定能力
func (c Capability) Has(flag Capability) bool {
	return c&flag == flag
}

// Names 能力名称列表，供公开表单使用
func (c Capability) Names() []string {
	names := make([]string, 0, 4)
	if c.Has(CapUnwantedReason) {
		names = append(names, "unwantedReason")
	}
	if c.Has(CapProductDetails) {
		names = append(names, "productDetails")
	}
	if c.Has(CapPhotoUpload) {
		names = append(names, "photoUpload")
	}
	if c.Has(CapTroubleshooting) {
		names = append(names, "troubleshooting")
	}
	return names
}

// CapabilitiesOf 从原因配置推导能力集合
func CapabilitiesOf(reason models.ReturnReasonOption) Capability {
	var c Capability
	if reason.ShowUnwantedReason {
		c |= CapUnwantedReason
	}
	if reason.ShowProductDetails {
		c |= CapProductDetails
	}
	if reason.ShowPhotoUpload {
		c |= CapPhotoUpload
	}
	if reason.ShowTroubleshooting {
		c |= CapTroubleshooting
	}
	return c
}

// Requirements 某个退货原因下必须提交的字段
type Requirements struct {
	UnwantedReason  bool `json:"unwantedReason"`
	ProductName     bool `json:"productName"`
	Troubleshooting bool `json:"troubleshooting"`
	Photos          bool `json:"photos"`
}

// RequirementsFor 由能力集合与表单开关计算必填字段
func RequirementsFor(c Capability, requirePhotoForDamage bool) Requirements {
	return Requirements{
		UnwantedReason:  c.Has(CapUnwantedReason),
		ProductName:     c.Has(CapProductDetails),
		Troubleshooting: c.Has(CapTroubleshooting),
		Photos:          c.Has(CapPhotoUpload) && requirePhotoForDamage,
	}
}

// Submission 待校验的退货字段
type Submission struct {
	ReturnReason    string
	UnwantedReason  string
	ProductName     string
	SerialNumber    string
	Troubleshooting string
	PhotoCount      int
}

// FieldError 字段级校验失败
type FieldError struct {
	Field   string
	Message string
}

func (e *FieldError) Error() string {
	return e.Message
}

// Validate 按快照校验提交内容，返回第一个不满足的字段
func (s *Snapshot) Validate(sub Submission) *FieldError {
	reason, ok := s.Reason(sub.ReturnReason)
	if !ok {
		return &FieldError{Field: "returnReason", Message: "Unknown return reason: " + sub.ReturnReason}
	}

	req := RequirementsFor(CapabilitiesOf(reason), s.config.RequirePhotoForDamage)
	blank := func(v string) bool { return strings.TrimSpace(v) == "" }

	if req.UnwantedReason && blank(sub.UnwantedReason) {
		return &FieldError{Field: "unwantedReason", Message: "Please tell us why the product is unwanted"}
	}
	if req.ProductName {
		if blank(sub.ProductName) {
			return &FieldError{Field: "productName", Message: "Product name is required for this return reason"}
		}
		if s.RequiresSerial(sub.ProductName) && blank(sub.SerialNumber) {
			return &FieldError{Field: "serialNumber", Message: "Serial number is required for " + sub.ProductName}
		}
	}
	if req.Troubleshooting && blank(sub.Troubleshooting) {
		return &FieldError{Field: "troubleshooting", Message: "Please confirm whether you have followed the troubleshooting steps"}
	}
	if req.Photos && sub.PhotoCount == 0 {
		return &FieldError{Field: "photos", Message: "Please upload at least one photo of the damage"}
	}
	return nil
}
