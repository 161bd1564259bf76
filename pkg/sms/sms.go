// Package sms 提供紧急工单短信提醒
package sms

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	openapi "github.com/alibabacloud-go/darabonba-openapi/v2/client"
	dysmsapi "github.com/alibabacloud-go/dysmsapi-20170525/v3/client"
	"github.com/alibabacloud-go/tea/tea"
)

// ErrNotConfigured 未配置短信通道
var ErrNotConfigured = errors.New("sms not configured")

// Alert 紧急工单提醒内容
type Alert struct {
	TicketNumber string
	Type         string
	Subject      string
}

// params 转换为短信模板参数（模板变量长度受限，主题截断到 20 个字符）
func (a Alert) params() map[string]string {
	subject := []rune(a.Subject)
	if len(subject) > 20 {
		subject = append(subject[:19], '…')
	}
	return map[string]string{
		"ticket":  a.TicketNumber,
		"type":    a.Type,
		"subject": string(subject),
	}
}

// Sender 短信发送器接口
type Sender interface {
	SendAlert(ctx context.Context, phone string, alert Alert) error
}

// AliyunConfig 阿里云短信配置
type AliyunConfig struct {
	AccessKeyID     string
	AccessKeySecret string
	SignName        string
	TemplateCode    string
	Endpoint        string
}

// AliyunSender 阿里云短信发送器
type AliyunSender struct {
	client       *dysmsapi.Client
	signName     string
	templateCode string
}

// NewAliyunSender 创建阿里云短信发送器
func NewAliyunSender(cfg *AliyunConfig) (*AliyunSender, error) {
	if cfg.AccessKeyID == "" || cfg.TemplateCode == "" {
		return nil, ErrNotConfigured
	}

	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = "dysmsapi.aliyuncs.com"
	}

	client, err := dysmsapi.NewClient(&openapi.Config{
		AccessKeyId:     tea.String(cfg.AccessKeyID),
		AccessKeySecret: tea.String(cfg.AccessKeySecret),
		Endpoint:        tea.String(endpoint),
	})
	if err != nil {
		return nil, fmt.Errorf("create sms client: %w", err)
	}

	return &AliyunSender{
		client:       client,
		signName:     cfg.SignName,
		templateCode: cfg.TemplateCode,
	}, nil
}

// SendAlert 发送紧急工单提醒
func (s *AliyunSender) SendAlert(_ context.Context, phone string, alert Alert) error {
	paramsJSON, err := json.Marshal(alert.params())
	if err != nil {
		return fmt.Errorf("marshal sms params: %w", err)
	}

	resp, err := s.client.SendSms(&dysmsapi.SendSmsRequest{
		PhoneNumbers:  tea.String(phone),
		SignName:      tea.String(s.signName),
		TemplateCode:  tea.String(s.templateCode),
		TemplateParam: tea.String(string(paramsJSON)),
	})
	if err != nil {
		return fmt.Errorf("send sms: %w", err)
	}

	if resp.Body == nil || tea.StringValue(resp.Body.Code) != "OK" {
		msg := "unknown error"
		if resp.Body != nil && resp.Body.Message != nil {
			msg = *resp.Body.Message
		}
		return fmt.Errorf("send sms: %s", msg)
	}
	return nil
}

// NoopSender 未配置短信时使用
type NoopSender struct{}

// SendAlert 始终返回 ErrNotConfigured
func (NoopSender) SendAlert(context.Context, string, Alert) error {
	return ErrNotConfigured
}

// MockSender 模拟短信发送器（用于开发/测试）
type MockSender struct {
	mu       sync.Mutex
	Messages []MockMessage
	Err      error
}

// MockMessage 模拟消息
type MockMessage struct {
	Phone  string
	Params map[string]string
	SentAt time.Time
}

// NewMockSender 创建模拟发送器
func NewMockSender() *MockSender {
	return &MockSender{}
}

// SendAlert 记录提醒内容
func (s *MockSender) SendAlert(_ context.Context, phone string, alert Alert) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	s.Messages = append(s.Messages, MockMessage{Phone: phone, Params: alert.params(), SentAt: time.Now()})
	return nil
}

// Sent 已发送的消息数
func (s *MockSender) Sent() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.Messages)
}
