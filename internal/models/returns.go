package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ReturnRequest 自助退货申请
type ReturnRequest struct {
	ID               string                      `gorm:"primaryKey;type:varchar(36)" json:"id"`
	ReturnReason     string                      `gorm:"type:varchar(100);not null;index" json:"returnReason"`
	UnwantedReason   *string                     `gorm:"type:varchar(200)" json:"unwantedReason,omitempty"`
	FullName         string                      `gorm:"type:varchar(200);not null" json:"fullName"`
	Email            string                      `gorm:"type:varchar(255);not null" json:"email"`
	OrderNumber      string                      `gorm:"type:varchar(100);not null" json:"orderNumber"`
	PurchaseChannel  string                      `gorm:"type:varchar(100);not null" json:"purchaseChannel"`
	ProductName      *string                     `gorm:"type:varchar(200)" json:"productName,omitempty"`
	SerialNumber     *string                     `gorm:"type:varchar(100)" json:"serialNumber,omitempty"`
	Troubleshooting  *string                     `gorm:"type:varchar(20)" json:"troubleshooting,omitempty"`
	Description      *string                     `gorm:"type:text" json:"description,omitempty"`
	WantsReplacement *string                     `gorm:"type:varchar(50)" json:"wantsReplacement,omitempty"`
	PhotoURLs        datatypes.JSONSlice[string] `json:"photoUrls"`
	Status           string                      `gorm:"type:varchar(20);not null;index" json:"status"`
	AdminNotes       *string                     `gorm:"type:text" json:"adminNotes,omitempty"`
	CreatedAt        time.Time                   `gorm:"autoCreateTime;index" json:"createdAt"`
	UpdatedAt        time.Time                   `gorm:"autoUpdateTime" json:"updatedAt"`
}

// TableName 表名
func (ReturnRequest) TableName() string {
	return "return_requests"
}

// BeforeCreate 生成主键
func (r *ReturnRequest) BeforeCreate(*gorm.DB) error {
	if r.ID == "" {
		r.ID = newID()
	}
	return nil
}

// ReturnStatus 退货申请状态
const (
	ReturnStatusPending   = "pending"
	ReturnStatusInReview  = "in-review"
	ReturnStatusApproved  = "approved"
	ReturnStatusRejected  = "rejected"
	ReturnStatusCompleted = "completed"
)

// IsValidReturnStatus 校验退货申请状态
func IsValidReturnStatus(s string) bool {
	return contains([]string{
		ReturnStatusPending, ReturnStatusInReview, ReturnStatusApproved,
		ReturnStatusRejected, ReturnStatusCompleted,
	}, s)
}

// ReturnFormConfigID 退货表单配置单例主键
const ReturnFormConfigID = "default"

// ReturnFormConfig 退货表单动态配置（单例）
type ReturnFormConfig struct {
	ID                     string                                  `gorm:"primaryKey;type:varchar(36)" json:"id"`
	Products               datatypes.JSONSlice[ProductOption]      `json:"products"`
	PurchaseChannels       datatypes.JSONSlice[string]             `json:"purchaseChannels"`
	UnwantedReasons        datatypes.JSONSlice[string]             `json:"unwantedReasons"`
	ReturnReasons          datatypes.JSONSlice[ReturnReasonOption] `json:"returnReasons"`
	ReplacementOptions     datatypes.JSONSlice[LabeledOption]      `json:"replacementOptions"`
	TroubleshootingOptions datatypes.JSONSlice[LabeledOption]      `json:"troubleshootingOptions"`
	FormTitle              string                                  `gorm:"type:varchar(300);not null" json:"formTitle"`
	FormDescription        string                                  `gorm:"type:text" json:"formDescription"`
	SuccessTitle           string                                  `gorm:"type:varchar(300);not null" json:"successTitle"`
	SuccessMessage         string                                  `gorm:"type:text" json:"successMessage"`
	RequirePhotoForDamage  bool                                    `gorm:"not null" json:"requirePhotoForDamage"`
	CreatedAt              time.Time                               `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt              time.Time                               `gorm:"autoUpdateTime" json:"updatedAt"`
}

// TableName 表名
func (ReturnFormConfig) TableName() string {
	return "return_form_configs"
}

// ProductOption 可退货产品
type ProductOption struct {
	Name           string `json:"name" yaml:"name"`
	RequiresSerial bool   `json:"requiresSerial" yaml:"requiresSerial"`
}

// ReturnReasonOption 退货原因及其展示的条件字段
type ReturnReasonOption struct {
	Value               string `json:"value" yaml:"value"`
	Label               string `json:"label" yaml:"label"`
	ShowUnwantedReason  bool   `json:"showUnwantedReason" yaml:"showUnwantedReason"`
	ShowProductDetails  bool   `json:"showProductDetails" yaml:"showProductDetails"`
	ShowPhotoUpload     bool   `json:"showPhotoUpload" yaml:"showPhotoUpload"`
	ShowTroubleshooting bool   `json:"showTroubleshooting" yaml:"showTroubleshooting"`
}

// LabeledOption 值与展示文本
type LabeledOption struct {
	Value string `json:"value" yaml:"value"`
	Label string `json:"label" yaml:"label"`
}
