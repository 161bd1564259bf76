// Package utils 提供通用工具函数
package utils

import (
	"regexp"
	"strings"
)

// emailPattern 与公开表单前端使用的校验规则一致
var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// slugPattern 小写字母、数字与连字符
var slugPattern = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

// ValidateEmail 验证邮箱
func ValidateEmail(email string) bool {
	return emailPattern.MatchString(email)
}

// ValidateSlug 验证 URL slug
func ValidateSlug(slug string) bool {
	return slugPattern.MatchString(slug)
}

// StringPtr 返回字符串指针
func StringPtr(s string) *string {
	return &s
}

// SafeString 安全获取字符串指针的值
func SafeString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// NilIfEmpty 空白字符串返回 nil，否则返回去除首尾空白后的指针
func NilIfEmpty(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

// FirstName 取全名的第一个词，用于邮件称呼
func FirstName(fullName string) string {
	fields := strings.Fields(fullName)
	if len(fields) == 0 {
		return fullName
	}
	return fields[0]
}
