package handler

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dumeirei/helpcenter-backend/internal/common/errors"
	"github.com/dumeirei/helpcenter-backend/internal/common/response"
	"github.com/dumeirei/helpcenter-backend/internal/middleware"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// 辅助函数：创建测试上下文
func createTestContext(target string) (*gin.Context, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, target, nil)
	return c, w
}

// 辅助函数：解析响应
func parseResponse(t *testing.T, w *httptest.ResponseRecorder) response.Response {
	var resp response.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

// ==================== HandleError 测试 ====================

func TestHandleError(t *testing.T) {
	t.Run("nil 错误", func(t *testing.T) {
		c, w := createTestContext("/")
		assert.False(t, HandleError(c, nil))
		assert.Equal(t, 0, w.Body.Len())
	})

	t.Run("AppError 映射状态码", func(t *testing.T) {
		c, w := createTestContext("/")
		assert.True(t, HandleError(c, errors.ErrTicketNotFound))
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, errors.ErrTicketNotFound.Code, parseResponse(t, w).Code)
	})

	t.Run("包装后的 AppError", func(t *testing.T) {
		c, w := createTestContext("/")
		err := fmt.Errorf("create ticket: %w", errors.ErrMissingFields.WithMessage("Missing required fields: email"))
		assert.True(t, HandleError(c, err))
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "Missing required fields: email", parseResponse(t, w).Message)
	})

	t.Run("普通错误隐藏细节", func(t *testing.T) {
		c, w := createTestContext("/")
		assert.True(t, HandleError(c, stderrors.New("pq: connection refused")))
		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.Equal(t, "internal server error", parseResponse(t, w).Message)
	})
}

func TestMustSucceed(t *testing.T) {
	c, w := createTestContext("/")
	MustSucceed(c, nil, gin.H{"ticketNumber": "TKT-000001"})
	assert.Equal(t, http.StatusOK, w.Code)

	c, w = createTestContext("/")
	MustSucceedWithMessage(c, nil, "Ticket created successfully", nil)
	assert.Equal(t, "Ticket created successfully", parseResponse(t, w).Message)

	c, w = createTestContext("/")
	MustSucceedPage(c, errors.ErrDatabaseError, nil, 0, Page{Page: 1, PageSize: 20})
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

// ==================== 认证与参数测试 ====================

func TestRequireAdminID(t *testing.T) {
	c, w := createTestContext("/")
	_, ok := RequireAdminID(c)
	assert.False(t, ok)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	c, _ = createTestContext("/")
	c.Set(middleware.ContextKeyAdminID, "admin-1")
	id, ok := RequireAdminID(c)
	assert.True(t, ok)
	assert.Equal(t, "admin-1", id)
}

func TestParseID(t *testing.T) {
	c, _ := createTestContext("/")
	c.Params = gin.Params{{Key: "id", Value: "TKT-000042"}}
	id, ok := ParseID(c, "ticket")
	assert.True(t, ok)
	assert.Equal(t, "TKT-000042", id)

	c, w := createTestContext("/")
	c.Params = gin.Params{{Key: "id", Value: "  "}}
	_, ok = ParseID(c, "ticket")
	assert.False(t, ok)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Invalid ticket id", parseResponse(t, w).Message)
}

func TestBindPagination(t *testing.T) {
	tests := []struct {
		query    string
		page     int
		pageSize int
	}{
		{"", 1, 20},
		{"page=3&page_size=50", 3, 50},
		{"page=0&page_size=1000", 1, 100},
		{"page=abc", 1, 20},
		{"page=2&pageSize=30", 2, 30},
		{"pageSize=15&page_size=40", 1, 15},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			c, _ := createTestContext("/?" + tt.query)
			p := BindPagination(c)
			assert.Equal(t, tt.page, p.Page)
			assert.Equal(t, tt.pageSize, p.PageSize)
			assert.Equal(t, (tt.page-1)*tt.pageSize, p.Offset())
		})
	}
}
