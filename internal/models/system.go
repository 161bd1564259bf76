package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// User 后台管理员账号
type User struct {
	ID           string     `gorm:"primaryKey;type:varchar(36)" json:"id"`
	Name         string     `gorm:"type:varchar(200);not null" json:"name"`
	Email        string     `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	PasswordHash string     `gorm:"type:varchar(255);not null" json:"-"`
	LastLoginAt  *time.Time `json:"lastLoginAt,omitempty"`
	LastLoginIP  *string    `gorm:"type:varchar(45)" json:"lastLoginIp,omitempty"`
	CreatedAt    time.Time  `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt    time.Time  `gorm:"autoUpdateTime" json:"updatedAt"`
}

// TableName 表名
func (User) TableName() string {
	return "users"
}

// BeforeCreate 生成主键
func (u *User) BeforeCreate(*gorm.DB) error {
	if u.ID == "" {
		u.ID = newID()
	}
	return nil
}

// SiteSettingsID 站点设置单例主键
const SiteSettingsID = "default"

// SiteSettings 站点设置（单例）
type SiteSettings struct {
	ID               string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	SiteName         string    `gorm:"type:varchar(200);not null" json:"siteName"`
	HeroTitle        string    `gorm:"type:varchar(300);not null" json:"heroTitle"`
	HeroSubtitle     string    `gorm:"type:text" json:"heroSubtitle"`
	ContactFormEmbed *string   `gorm:"type:text" json:"contactFormEmbed,omitempty"`
	FooterText       *string   `gorm:"type:text" json:"footerText,omitempty"`
	PrimaryColor     *string   `gorm:"type:varchar(20)" json:"primaryColor,omitempty"`
	LogoURL          *string   `gorm:"type:varchar(500)" json:"logoUrl,omitempty"`
	CreatedAt        time.Time `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt        time.Time `gorm:"autoUpdateTime" json:"updatedAt"`
}

// TableName 表名
func (SiteSettings) TableName() string {
	return "site_settings"
}

// OperationLog 后台操作日志
type OperationLog struct {
	ID          int64          `gorm:"primaryKey;autoIncrement" json:"id"`
	AdminID     string         `gorm:"type:varchar(36);index;not null" json:"adminId"`
	AdminEmail  string         `gorm:"type:varchar(255)" json:"adminEmail"`
	Module      string         `gorm:"type:varchar(50);not null;index" json:"module"`
	Action      string         `gorm:"type:varchar(50);not null" json:"action"`
	TargetType  *string        `gorm:"type:varchar(50)" json:"targetType,omitempty"`
	TargetID    *string        `gorm:"type:varchar(36)" json:"targetId,omitempty"`
	StatusCode  int            `json:"statusCode"`
	RequestData datatypes.JSON `json:"requestData,omitempty"`
	IP          string         `gorm:"type:varchar(45);not null" json:"ip"`
	UserAgent   *string        `gorm:"type:varchar(255)" json:"userAgent,omitempty"`
	CreatedAt   time.Time      `gorm:"autoCreateTime;index" json:"createdAt"`
}

// TableName 表名
func (OperationLog) TableName() string {
	return "operation_logs"
}
