// Package response 定义接口返回的 JSON 信封 {code, message, data}
package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "github.com/dumeirei/helpcenter-backend/internal/common/errors"
)

// CodeOK 成功时的业务码
const CodeOK = 0

// Response 响应信封
type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// PageData 列表页
type PageData struct {
	List     interface{} `json:"list"`
	Total    int64       `json:"total"`
	Page     int         `json:"page"`
	PageSize int         `json:"pageSize"`
}

func write(c *gin.Context, status, code int, message string, data interface{}) {
	c.JSON(status, Response{Code: code, Message: message, Data: data})
}

func orDefault(message, fallback string) string {
	if message == "" {
		return fallback
	}
	return message
}

// Success 200，message 为 success
func Success(c *gin.Context, data interface{}) {
	write(c, http.StatusOK, CodeOK, "success", data)
}

// SuccessWithMessage 200，自定义提示语（如 "Password updated"）
func SuccessWithMessage(c *gin.Context, message string, data interface{}) {
	write(c, http.StatusOK, CodeOK, message, data)
}

// Created 201
func Created(c *gin.Context, data interface{}) {
	write(c, http.StatusCreated, CodeOK, "created", data)
}

// SuccessPage 200，data 为 PageData
func SuccessPage(c *gin.Context, list interface{}, total int64, page, pageSize int) {
	Success(c, PageData{List: list, Total: total, Page: page, PageSize: pageSize})
}

// Error 业务错误，HTTP 状态由 errors.HTTPStatus 按错误码推导
func Error(c *gin.Context, code int, message string) {
	write(c, apperrors.HTTPStatus(code), code, message, nil)
}

// Fail 直接输出 AppError
func Fail(c *gin.Context, err *apperrors.AppError) {
	Error(c, err.Code, err.Message)
}

// BadRequest 400，用于请求体无法解析等绑定阶段错误
func BadRequest(c *gin.Context, message string) {
	write(c, http.StatusBadRequest, http.StatusBadRequest, message, nil)
}

// Unauthorized 401
func Unauthorized(c *gin.Context, message string) {
	write(c, http.StatusUnauthorized, http.StatusUnauthorized, orDefault(message, "unauthorized"), nil)
}

// InternalError 500，不向客户端暴露内部错误细节
func InternalError(c *gin.Context, message string) {
	write(c, http.StatusInternalServerError, http.StatusInternalServerError, orDefault(message, "internal server error"), nil)
}

// TooManyRequests 429
func TooManyRequests(c *gin.Context, message string) {
	write(c, http.StatusTooManyRequests, http.StatusTooManyRequests, orDefault(message, "too many requests"), nil)
}
