// Package errors 定义业务错误码和错误处理
package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

// AppError 应用错误
type AppError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

// Error 实现 error 接口
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%d] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%d] %s", e.Code, e.Message)
}

// Unwrap 实现 errors.Unwrap
func (e *AppError) Unwrap() error {
	return e.Err
}

// Is 按错误码比较，使 errors.Is(err, ErrNotFound) 对 WithMessage 派生的错误同样成立
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// New 创建新的应用错误
func New(code int, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// Wrap 包装错误
func Wrap(code int, message string, err error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// WithMessage 修改错误消息
func (e *AppError) WithMessage(message string) *AppError {
	return &AppError{
		Code:    e.Code,
		Message: message,
		Err:     e.Err,
	}
}

// WithMessagef 按格式修改错误消息
func (e *AppError) WithMessagef(format string, args ...interface{}) *AppError {
	return e.WithMessage(fmt.Sprintf(format, args...))
}

// WithError 添加原始错误
func (e *AppError) WithError(err error) *AppError {
	return &AppError{
		Code:    e.Code,
		Message: e.Message,
		Err:     err,
	}
}

// 通用错误码 (1000-1999)
var (
	ErrUnknown         = New(1000, "Unknown error")
	ErrInvalidParams   = New(1001, "Invalid parameters")
	ErrNotFound        = New(1002, "Resource not found")
	ErrAlreadyExists   = New(1003, "Resource already exists")
	ErrDatabaseError   = New(1004, "Database error")
	ErrValidation      = New(1005, "Validation failed")
	ErrInternalError   = New(1006, "Internal error")
	ErrExternalService = New(1007, "External service error")
	ErrRateLimitExceed = New(1008, "Too many requests")
	ErrOperationFailed = New(1009, "Operation failed")
)

// 认证错误码 (2000-2999)
var (
	ErrUnauthorized     = New(2000, "Unauthorized")
	ErrTokenExpired     = New(2001, "Session expired")
	ErrTokenInvalid     = New(2002, "Invalid token")
	ErrTokenRefreshFail = New(2003, "Failed to refresh token")
	ErrInvalidLogin     = New(2004, "Invalid email or password")
	ErrPasswordError    = New(2005, "Current password is incorrect")
)

// 知识库错误码 (3000-3999)
var (
	ErrCategoryNotFound    = New(3000, "Category not found")
	ErrSlugTaken           = New(3001, "Slug already exists")
	ErrArticleNotFound     = New(3002, "Article not found")
	ErrTranslationNotFound = New(3003, "Translation not found")
	ErrUnsupportedLocale   = New(3004, "Unsupported locale")
)

// 工单错误码 (4000-4999)
var (
	ErrTicketNotFound        = New(4000, "Ticket not found")
	ErrNotificationFailed    = New(4001, "Failed to send notification")
	ErrReturnRequestNotFound = New(4002, "Return request not found")
	ErrMissingFields         = New(4003, "Missing required fields")
	ErrInvalidEmail          = New(4004, "Invalid email address")
	ErrEmptyMessage          = New(4005, "Message is required")
)

// 用户错误码 (5000-5999)
var (
	ErrUserNotFound   = New(5000, "User not found")
	ErrUserExists     = New(5001, "A user with this email already exists")
	ErrLastUser       = New(5002, "Cannot delete the last admin user")
	ErrDeleteSelf     = New(5003, "You cannot delete your own account")
	ErrUploadRejected = New(5004, "Upload rejected")
)

// IsAppError 判断是否为应用错误
func IsAppError(err error) bool {
	var appErr *AppError
	return stderrors.As(err, &appErr)
}

// GetAppError 获取应用错误
func GetAppError(err error) *AppError {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr
	}
	return ErrUnknown.WithError(err)
}

// HTTPStatus 返回错误码对应的 HTTP 状态码
//
// 校验类与冲突类 -> 400，认证类 -> 401，不存在 -> 404，其余 -> 500
func HTTPStatus(code int) int {
	switch {
	case code == ErrInvalidParams.Code, code == ErrValidation.Code,
		code == ErrAlreadyExists.Code, code == ErrSlugTaken.Code,
		code == ErrUnsupportedLocale.Code, code == ErrMissingFields.Code,
		code == ErrInvalidEmail.Code, code == ErrEmptyMessage.Code,
		code == ErrUserExists.Code, code == ErrLastUser.Code,
		code == ErrDeleteSelf.Code, code == ErrUploadRejected.Code,
		code == ErrPasswordError.Code:
		return http.StatusBadRequest
	case code >= 2000 && code < 3000:
		return http.StatusUnauthorized
	case code == ErrNotFound.Code, code == ErrCategoryNotFound.Code,
		code == ErrArticleNotFound.Code, code == ErrTranslationNotFound.Code,
		code == ErrTicketNotFound.Code, code == ErrReturnRequestNotFound.Code,
		code == ErrUserNotFound.Code:
		return http.StatusNotFound
	case code == ErrRateLimitExceed.Code:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// IsNotFound 判断是否为资源不存在类错误
func IsNotFound(err error) bool {
	var appErr *AppError
	if !stderrors.As(err, &appErr) {
		return false
	}
	return HTTPStatus(appErr.Code) == http.StatusNotFound
}
