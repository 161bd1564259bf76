// Package handler HTTP 处理器共用的绑定与响应辅助函数
//
// 返回 bool 的函数在失败时已写出响应，调用方直接 return
package handler

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/dumeirei/helpcenter-backend/internal/common/errors"
	"github.com/dumeirei/helpcenter-backend/internal/common/response"
	"github.com/dumeirei/helpcenter-backend/internal/common/validate"
	"github.com/dumeirei/helpcenter-backend/internal/middleware"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// HandleError 写出错误响应并返回 true；err 为 nil 时不做任何事
//
// AppError（含被包装的）按其代码输出，其余错误统一为 500
func HandleError(c *gin.Context, err error) bool {
	if err == nil {
		return false
	}
	if errors.IsAppError(err) {
		response.Fail(c, errors.GetAppError(err))
		return true
	}
	_ = c.Error(err)
	response.InternalError(c, "")
	return true
}

// MustSucceed 出错时写错误响应，否则写 data
func MustSucceed(c *gin.Context, err error, data interface{}) {
	if !HandleError(c, err) {
		response.Success(c, data)
	}
}

// MustSucceedWithMessage 同 MustSucceed，成功时带自定义消息
func MustSucceedWithMessage(c *gin.Context, err error, message string, data interface{}) {
	if !HandleError(c, err) {
		response.SuccessWithMessage(c, message, data)
	}
}

// MustSucceedPage 同 MustSucceed，成功时输出分页结构
func MustSucceedPage(c *gin.Context, err error, list interface{}, total int64, p Page) {
	if !HandleError(c, err) {
		response.SuccessPage(c, list, total, p.Page, p.PageSize)
	}
}

// RequireAdminID 当前管理员 ID，未认证时 401
func RequireAdminID(c *gin.Context) (string, bool) {
	adminID := middleware.GetAdminID(c)
	if adminID == "" {
		response.Unauthorized(c, "Unauthorized")
		return "", false
	}
	return adminID, true
}

// ParseID 读取路径参数 id
func ParseID(c *gin.Context, resource string) (string, bool) {
	return ParseParam(c, "id", resource)
}

// ParseParam 读取路径参数并去除首尾空白，空值时 400
func ParseParam(c *gin.Context, name, resource string) (string, bool) {
	value := strings.TrimSpace(c.Param(name))
	if value == "" {
		response.BadRequest(c, "Invalid "+resource+" id")
		return "", false
	}
	return value, true
}

// Page 列表分页参数
type Page struct {
	Page     int
	PageSize int
}

// Offset 跳过的记录数
func (p Page) Offset() int { return (p.Page - 1) * p.PageSize }

// Limit 本页记录数
func (p Page) Limit() int { return p.PageSize }

// BindPagination 读取 page 与 pageSize（兼容 page_size），非法值回退为默认
func BindPagination(c *gin.Context) Page {
	p := Page{Page: queryInt(c, 1, "page"), PageSize: queryInt(c, defaultPageSize, "pageSize", "page_size")}
	if p.Page < 1 {
		p.Page = 1
	}
	if p.PageSize < 1 {
		p.PageSize = defaultPageSize
	}
	if p.PageSize > maxPageSize {
		p.PageSize = maxPageSize
	}
	return p
}

func queryInt(c *gin.Context, fallback int, keys ...string) int {
	for _, key := range keys {
		raw, ok := c.GetQuery(key)
		if !ok {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil {
			return fallback
		}
		return n
	}
	return fallback
}

// BindJSON 绑定 JSON 请求体，失败时 400 并给出字段校验消息
func BindJSON(c *gin.Context, req interface{}) bool {
	return bind(c, c.ShouldBindJSON(req))
}

// BindQuery 绑定查询参数
func BindQuery(c *gin.Context, req interface{}) bool {
	return bind(c, c.ShouldBindQuery(req))
}

func bind(c *gin.Context, err error) bool {
	if err == nil {
		return true
	}
	response.Error(c, errors.ErrValidation.Code, validate.Message(err))
	return false
}
