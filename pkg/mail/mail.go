// Package mail 提供 SMTP 邮件发送
package mail

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
)

// ErrNotConfigured 未配置 SMTP
var ErrNotConfigured = errors.New("email not configured")

// Address 邮件地址
type Address struct {
	Name  string
	Email string
}

// String 格式化为 "Name <email>"
func (a Address) String() string {
	if a.Name == "" {
		return a.Email
	}
	return fmt.Sprintf("%s <%s>", a.Name, a.Email)
}

// Message 待发送的邮件
type Message struct {
	To      []string
	ReplyTo string
	Subject string
	HTML    string
	// Text 纯文本正文，为空时由 HTML 生成
	Text string
}

// Validate 校验收件人与主题
func (m *Message) Validate() error {
	if len(m.To) == 0 {
		return errors.New("mail: no recipients")
	}
	for _, to := range m.To {
		if strings.TrimSpace(to) == "" {
			return errors.New("mail: empty recipient")
		}
	}
	if strings.TrimSpace(m.Subject) == "" {
		return errors.New("mail: empty subject")
	}
	return nil
}

// Sender 邮件发送接口
type Sender interface {
	Send(ctx context.Context, msg *Message) error
}

// NoopSender 未配置 SMTP 时使用，每次发送都返回 ErrNotConfigured
type NoopSender struct{}

// Send 返回 ErrNotConfigured
func (NoopSender) Send(context.Context, *Message) error {
	return ErrNotConfigured
}

// MemorySender 内存发送器（用于开发/测试）
type MemorySender struct {
	mu   sync.Mutex
	sent []*Message
	// FailFor 收件人命中时返回该错误
	FailFor map[string]error
}

// NewMemorySender 创建内存发送器
func NewMemorySender() *MemorySender {
	return &MemorySender{FailFor: make(map[string]error)}
}

// Send 记录邮件
func (s *MemorySender) Send(_ context.Context, msg *Message) error {
	if err := msg.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, to := range msg.To {
		if err, ok := s.FailFor[to]; ok {
			return err
		}
	}
	s.sent = append(s.sent, msg)
	return nil
}

// Sent 返回已发送邮件的副本
func (s *MemorySender) Sent() []*Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*Message, len(s.sent))
	copy(out, s.sent)
	return out
}

// SentTo 返回发给指定地址的邮件
func (s *MemorySender) SentTo(addr string) []*Message {
	var out []*Message
	for _, m := range s.Sent() {
		for _, to := range m.To {
			if strings.EqualFold(to, addr) {
				out = append(out, m)
				break
			}
		}
	}
	return out
}
