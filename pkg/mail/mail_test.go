// Package mail 邮件发送单元测试
package mail

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddress_String(t *testing.T) {
	assert.Equal(t, "Subcold Support <noreply@support.subcold.com>",
		Address{Name: "Subcold Support", Email: "noreply@support.subcold.com"}.String())
	assert.Equal(t, "a@b.com", Address{Email: "a@b.com"}.String())
}

func TestMessage_Validate(t *testing.T) {
	assert.Error(t, (&Message{Subject: "x"}).Validate())
	assert.Error(t, (&Message{To: []string{" "}, Subject: "x"}).Validate())
	assert.Error(t, (&Message{To: []string{"a@b.com"}}).Validate())
	assert.NoError(t, (&Message{To: []string{"a@b.com"}, Subject: "x"}).Validate())
}

func TestMemorySender(t *testing.T) {
	sender := NewMemorySender()
	sender.FailFor["bounce@example.com"] = errors.New("550 mailbox unavailable")
	ctx := context.Background()

	require.NoError(t, sender.Send(ctx, &Message{To: []string{"jane@example.com"}, Subject: "Hello"}))
	assert.Error(t, sender.Send(ctx, &Message{To: []string{"bounce@example.com"}, Subject: "Hello"}))

	assert.Len(t, sender.Sent(), 1)
	assert.Len(t, sender.SentTo("JANE@example.com"), 1)
	assert.Empty(t, sender.SentTo("bounce@example.com"))
}

func TestNoopSender(t *testing.T) {
	assert.ErrorIs(t, NoopSender{}.Send(context.Background(), &Message{}), ErrNotConfigured)
}

func TestSMTPSender_ContextCancelled(t *testing.T) {
	// 192.0.2.0/24 为文档保留地址，连接不会成功
	sender := NewSMTPSender(&SMTPConfig{Host: "192.0.2.1", Port: 25, From: Address{Email: "noreply@example.com"}})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err := sender.Send(ctx, &Message{To: []string{"jane@example.com"}, Subject: "Hello", HTML: "<p>hi</p>"})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
