package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Ticket 客服工单
type Ticket struct {
	ID           string `gorm:"primaryKey;type:varchar(36)" json:"id"`
	TicketNumber string `gorm:"type:varchar(20);uniqueIndex;not null" json:"ticketNumber"`
	Type         string `gorm:"type:varchar(20);not null;index" json:"type"`
	Status       string `gorm:"type:varchar(30);not null;index" json:"status"`
	Priority     string `gorm:"type:varchar(20);not null" json:"priority"`

	FullName string  `gorm:"type:varchar(200);not null" json:"fullName"`
	Email    string  `gorm:"type:varchar(255);not null;index" json:"email"`
	Phone    *string `gorm:"type:varchar(50)" json:"phone,omitempty"`
	Subject  string  `gorm:"type:varchar(500);not null" json:"subject"`
	Message  string  `gorm:"type:text;not null" json:"message"`

	// 退货相关字段
	OrderNumber      *string `gorm:"type:varchar(100)" json:"orderNumber,omitempty"`
	PurchaseChannel  *string `gorm:"type:varchar(100)" json:"purchaseChannel,omitempty"`
	ReturnReason     *string `gorm:"type:varchar(100)" json:"returnReason,omitempty"`
	UnwantedReason   *string `gorm:"type:varchar(200)" json:"unwantedReason,omitempty"`
	ProductName      *string `gorm:"type:varchar(200)" json:"productName,omitempty"`
	SerialNumber     *string `gorm:"type:varchar(100)" json:"serialNumber,omitempty"`
	Troubleshooting  *string `gorm:"type:varchar(20)" json:"troubleshooting,omitempty"`
	WantsReplacement *string `gorm:"type:varchar(50)" json:"wantsReplacement,omitempty"`

	Attachments datatypes.JSONSlice[string] `json:"attachments"`
	AdminNotes  *string                     `gorm:"type:text" json:"adminNotes,omitempty"`
	AssignedTo  *string                     `gorm:"type:varchar(200)" json:"assignedTo,omitempty"`

	CreatedAt time.Time `gorm:"autoCreateTime;index" json:"createdAt"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updatedAt"`

	// 关联
	Replies []TicketReply `gorm:"foreignKey:TicketID" json:"replies,omitempty"`
}

// TableName 表名
func (Ticket) TableName() string {
	return "tickets"
}

// BeforeCreate 生成主键
func (t *Ticket) BeforeCreate(*gorm.DB) error {
	if t.ID == "" {
		t.ID = newID()
	}
	return nil
}

// TicketType 工单类型
const (
	TicketTypeReturn    = "return"
	TicketTypeEnquiry   = "enquiry"
	TicketTypeSupport   = "support"
	TicketTypeComplaint = "complaint"
)

// TicketStatus 工单状态，任意状态之间均可由管理员切换（包括重新打开已关闭工单）
const (
	TicketStatusOpen             = "open"
	TicketStatusInProgress       = "in-progress"
	TicketStatusAwaitingCustomer = "awaiting-customer"
	TicketStatusResolved         = "resolved"
	TicketStatusClosed           = "closed"
)

// TicketPriority 工单优先级
const (
	TicketPriorityLow    = "low"
	TicketPriorityNormal = "normal"
	TicketPriorityHigh   = "high"
	TicketPriorityUrgent = "urgent"
)

var (
	ticketTypes      = []string{TicketTypeReturn, TicketTypeEnquiry, TicketTypeSupport, TicketTypeComplaint}
	ticketStatuses   = []string{TicketStatusOpen, TicketStatusInProgress, TicketStatusAwaitingCustomer, TicketStatusResolved, TicketStatusClosed}
	ticketPriorities = []string{TicketPriorityLow, TicketPriorityNormal, TicketPriorityHigh, TicketPriorityUrgent}
)

// ticketTypeLabels 工单类型展示名
var ticketTypeLabels = map[string]string{
	TicketTypeReturn:    "Return Request",
	TicketTypeEnquiry:   "General Enquiry",
	TicketTypeSupport:   "Support Request",
	TicketTypeComplaint: "Complaint",
}

// TicketTypeLabel 返回工单类型展示名，未知类型返回 "Ticket"
func TicketTypeLabel(t string) string {
	if label, ok := ticketTypeLabels[t]; ok {
		return label
	}
	return "Ticket"
}

// IsValidTicketType 校验工单类型
func IsValidTicketType(t string) bool {
	return contains(ticketTypes, t)
}

// IsValidTicketStatus 校验工单状态
func IsValidTicketStatus(s string) bool {
	return contains(ticketStatuses, s)
}

// IsValidTicketPriority 校验工单优先级
func IsValidTicketPriority(p string) bool {
	return contains(ticketPriorities, p)
}

// TicketReply 工单回复或内部备注
type TicketReply struct {
	ID          string                      `gorm:"primaryKey;type:varchar(36)" json:"id"`
	TicketID    string                      `gorm:"type:varchar(36);not null;index" json:"ticketId"`
	Sender      string                      `gorm:"type:varchar(20);not null" json:"sender"`
	Type        string                      `gorm:"type:varchar(20);not null" json:"type"`
	SenderName  string                      `gorm:"type:varchar(200);not null" json:"senderName"`
	SenderEmail string                      `gorm:"type:varchar(255);not null" json:"senderEmail"`
	Message     string                      `gorm:"type:text;not null" json:"message"`
	Attachments datatypes.JSONSlice[string] `json:"attachments"`
	EmailSent   bool                        `gorm:"not null;default:false" json:"emailSent"`
	EmailError  *string                     `gorm:"type:text" json:"emailError,omitempty"`
	CreatedAt   time.Time                   `gorm:"autoCreateTime;index" json:"createdAt"`
}

// TableName 表名
func (TicketReply) TableName() string {
	return "ticket_replies"
}

// BeforeCreate 生成主键
func (r *TicketReply) BeforeCreate(*gorm.DB) error {
	if r.ID == "" {
		r.ID = newID()
	}
	return nil
}

// IsInternal 内部备注仅后台可见
func (r *TicketReply) IsInternal() bool {
	return r.Type == ReplyTypeNote
}

// ReplySender 回复发送方
const (
	ReplySenderAdmin    = "admin"
	ReplySenderCustomer = "customer"
)

// ReplyType 回复类型
const (
	ReplyTypeReply = "reply"
	ReplyTypeNote  = "note"
)

// IsValidReplyType 校验回复类型
func IsValidReplyType(t string) bool {
	return t == ReplyTypeReply || t == ReplyTypeNote
}

// TicketSequence 工单号序列
type TicketSequence struct {
	Name  string `gorm:"primaryKey;type:varchar(50)" json:"name"`
	Value int64  `gorm:"not null;default:0" json:"value"`
}

// TableName 表名
func (TicketSequence) TableName() string {
	return "ticket_sequences"
}

// TicketSequenceName 工单号使用的序列名
const TicketSequenceName = "ticket_number"

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}
