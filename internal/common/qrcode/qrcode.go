// Package qrcode 生成退货标签二维码，扫码打开后台工单详情
package qrcode

import (
	"errors"
	"net/url"
	"strings"

	goqr "github.com/skip2/go-qrcode"
)

// 纠错级别
const (
	Low     = goqr.Low
	Medium  = goqr.Medium
	High    = goqr.High
	Highest = goqr.Highest
)

// ErrEmptyContent 二维码内容为空
var ErrEmptyContent = errors.New("qrcode: empty content")

// Generator 二维码生成器
type Generator struct {
	size  int
	level goqr.RecoveryLevel
}

// Option 生成器选项
type Option func(*Generator)

// WithSize 图片边长（像素）
func WithSize(size int) Option {
	return func(g *Generator) { g.size = size }
}

// WithRecoveryLevel 纠错级别，标签可能被胶带遮挡，默认 High
func WithRecoveryLevel(level goqr.RecoveryLevel) Option {
	return func(g *Generator) { g.level = level }
}

// NewGenerator 默认 256px
func NewGenerator(opts ...Option) *Generator {
	g := &Generator{size: 256, level: High}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// PNG 编码任意文本
func (g *Generator) PNG(content string) ([]byte, error) {
	if content == "" {
		return nil, ErrEmptyContent
	}
	q, err := goqr.New(content, g.level)
	if err != nil {
		return nil, err
	}
	return q.PNG(g.size)
}

// LabelURL 标签指向的后台工单地址
func LabelURL(siteURL, ticketNumber string) string {
	return strings.TrimRight(siteURL, "/") + "/admin/tickets/" + url.PathEscape(ticketNumber)
}

// TicketLabel 生成工单退货标签 PNG
func (g *Generator) TicketLabel(siteURL, ticketNumber string) ([]byte, error) {
	if ticketNumber == "" {
		return nil, ErrEmptyContent
	}
	return g.PNG(LabelURL(siteURL, ticketNumber))
}
