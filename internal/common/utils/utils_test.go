// Package utils 工具函数单元测试
package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateEmail(t *testing.T) {
	tests := []struct {
		email string
		want  bool
	}{
		{"jane@example.com", true},
		{"jane.doe+returns@mail.example.co.uk", true},
		{"jane@example", false},
		{"jane example@example.com", false},
		{"@example.com", false},
		{"jane@@example.com", false},
		{"", false},
	}
	for _, tt := range tests {
		t.Run(tt.email, func(t *testing.T) {
			assert.Equal(t, tt.want, ValidateEmail(tt.email))
		})
	}
}

func TestValidateSlug(t *testing.T) {
	assert.True(t, ValidateSlug("orders-delivery"))
	assert.True(t, ValidateSlug("eco4"))
	assert.False(t, ValidateSlug("Orders"))
	assert.False(t, ValidateSlug("orders--delivery"))
	assert.False(t, ValidateSlug("-orders"))
	assert.False(t, ValidateSlug(""))
}

func TestNilIfEmpty(t *testing.T) {
	assert.Nil(t, NilIfEmpty("   "))
	assert.Equal(t, "ORD-1", *NilIfEmpty(" ORD-1 "))
}

func TestFirstName(t *testing.T) {
	assert.Equal(t, "Jane", FirstName("Jane Doe"))
	assert.Equal(t, "Jane", FirstName("Jane"))
	assert.Equal(t, "", FirstName(""))
}

func TestSafeString(t *testing.T) {
	assert.Equal(t, "", SafeString(nil))
	assert.Equal(t, "x", SafeString(StringPtr("x")))
}
