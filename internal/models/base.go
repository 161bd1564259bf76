// Package models 定义帮助中心的数据模型
package models

import (
	"github.com/google/uuid"
)

// newID 生成实体主键
func newID() string {
	return uuid.NewString()
}

// AllModels 返回需要自动迁移的全部模型
func AllModels() []interface{} {
	return []interface{}{
		&User{},
		&OperationLog{},
		&SiteSettings{},
		&Category{},
		&CategoryTranslation{},
		&Article{},
		&ArticleTranslation{},
		&Ticket{},
		&TicketReply{},
		&TicketSequence{},
		&ReturnRequest{},
		&ReturnFormConfig{},
	}
}
