// Package crypto 加密工具单元测试
package crypto

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestHashPassword_AndVerify(t *testing.T) {
	hash, err := HashPassword("admin123", bcrypt.MinCost)
	require.NoError(t, err)
	assert.NotEqual(t, "admin123", hash)

	assert.True(t, VerifyPassword("admin123", hash))
	assert.False(t, VerifyPassword("wrong", hash))
}

func TestHashPassword_InvalidCostFallsBack(t *testing.T) {
	hash, err := HashPassword("secret", 99)
	require.NoError(t, err)

	cost, err := bcrypt.Cost([]byte(hash))
	require.NoError(t, err)
	assert.Equal(t, bcrypt.DefaultCost, cost)
}

func TestVerifyPassword_MalformedHash(t *testing.T) {
	assert.False(t, VerifyPassword("admin123", "not-a-bcrypt-hash"))
}

func TestCheckPassword(t *testing.T) {
	assert.ErrorIs(t, CheckPassword("12345"), ErrPasswordLength)
	assert.NoError(t, CheckPassword("123456"))
	assert.NoError(t, CheckPassword(strings.Repeat("x", 72)))
	assert.ErrorIs(t, CheckPassword(strings.Repeat("x", 73)), ErrPasswordLength)
}

func TestMaskEmail(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"jane@example.com", "ja***@example.com"},
		{"ab@example.com", "ab@example.com"},
		{"not-an-email", "not-an-email"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, MaskEmail(tt.in))
	}
}
