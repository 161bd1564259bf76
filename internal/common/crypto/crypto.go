// Package crypto 管理员密码哈希与日志脱敏
package crypto

import (
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// 密码长度限制，bcrypt 只使用前 72 字节
const (
	MinPasswordLen = 6
	MaxPasswordLen = 72
)

// ErrPasswordLength 密码长度不在允许范围内
var ErrPasswordLength = fmt.Errorf("password must be %d-%d characters", MinPasswordLen, MaxPasswordLen)

// CheckPassword 校验密码长度
func CheckPassword(password string) error {
	if n := len(password); n < MinPasswordLen || n > MaxPasswordLen {
		return ErrPasswordLength
	}
	return nil
}

// HashPassword bcrypt 哈希，cost 超出范围时使用 bcrypt.DefaultCost
func HashPassword(password string, cost int) (string, error) {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// VerifyPassword 比对明文与哈希，哈希损坏时同样返回 false
func VerifyPassword(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// MaskEmail 邮箱脱敏，保留本地部分前两位
func MaskEmail(email string) string {
	local, domain, ok := strings.Cut(email, "@")
	if !ok || len(local) <= 2 {
		return email
	}
	return local[:2] + "***@" + domain
}
