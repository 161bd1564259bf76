// Package testutil 提供测试辅助工具
package testutil

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/dumeirei/helpcenter-backend/internal/models"
)

// NewTestDB 创建已迁移全部模型的内存 sqlite 数据库
//
// 连接数限制为 1，保证同一个 :memory: 实例在事务内外可见
func NewTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:                                   logger.Default.LogMode(logger.Silent),
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(models.AllModels()...))
	return db
}

// RandomString 生成随机小写字符串
func RandomString(n int) string {
	const letters = "abcdefghijklmnopqrstuvwxyz0123456789"
	b := make([]byte, n)
	for i := range b {
		b[i] = letters[rand.Intn(len(letters))]
	}
	return string(b)
}

// CreateCategory 创建启用状态的测试分类
func CreateCategory(t *testing.T, db *gorm.DB, slug string, order int) *models.Category {
	t.Helper()
	c := &models.Category{
		Name:     "Category " + slug,
		Slug:     slug,
		Order:    order,
		IsActive: true,
	}
	require.NoError(t, db.Create(c).Error)
	return c
}

// CreateArticle 创建测试文章
func CreateArticle(t *testing.T, db *gorm.DB, categoryID, slug string, published bool) *models.Article {
	t.Helper()
	a := &models.Article{
		CategoryID:  categoryID,
		Title:       "Article " + slug,
		Slug:        slug,
		Content:     "<p>Content for " + slug + "</p>",
		IsPublished: published,
		Locale:      "en",
	}
	require.NoError(t, db.Create(a).Error)
	return a
}

// CreateTicket 创建测试工单
func CreateTicket(t *testing.T, db *gorm.DB, number int, ticketType string) *models.Ticket {
	t.Helper()
	ticket := &models.Ticket{
		TicketNumber: fmt.Sprintf("TKT-%06d", number),
		Type:         ticketType,
		Status:       models.TicketStatusOpen,
		Priority:     models.TicketPriorityNormal,
		FullName:     "Jane Doe",
		Email:        "jane@example.com",
		Subject:      "Test subject " + RandomString(4),
		Message:      "Test message",
	}
	require.NoError(t, db.Create(ticket).Error)
	return ticket
}

// CreateUser 创建测试管理员（密码哈希为占位值）
func CreateUser(t *testing.T, db *gorm.DB, email string) *models.User {
	t.Helper()
	u := &models.User{
		Name:         "User " + RandomString(4),
		Email:        email,
		PasswordHash: "x",
	}
	require.NoError(t, db.Create(u).Error)
	return u
}
