package mail

import (
	"context"
	"crypto/tls"
	"fmt"
	"html"
	"net"
	"net/smtp"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"gopkg.in/gomail.v2"
)

const (
	defaultDialTimeout = 10 * time.Second
	defaultSendTimeout = 30 * time.Second
)

// SMTPConfig SMTP 配置
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     Address
	// DialTimeout 建立连接的超时
	DialTimeout time.Duration
	// SendTimeout 单封邮件从连接到 QUIT 的总时限
	SendTimeout time.Duration
}

// SMTPSender SMTP 发送器，gomail 组装 MIME 正文
type SMTPSender struct {
	host        string
	port        int
	username    string
	password    string
	from        Address
	ssl         bool
	dialTimeout time.Duration
	sendTimeout time.Duration
}

// NewSMTPSender 创建 SMTP 发送器，465 端口使用隐式 TLS
func NewSMTPSender(cfg *SMTPConfig) *SMTPSender {
	s := &SMTPSender{
		host:        cfg.Host,
		port:        cfg.Port,
		username:    cfg.Username,
		password:    cfg.Password,
		from:        cfg.From,
		ssl:         cfg.Port == 465,
		dialTimeout: cfg.DialTimeout,
		sendTimeout: cfg.SendTimeout,
	}
	if s.dialTimeout <= 0 {
		s.dialTimeout = defaultDialTimeout
	}
	if s.sendTimeout <= 0 {
		s.sendTimeout = defaultSendTimeout
	}
	return s
}

// Send 发送邮件
//
// 连接读写受 SendTimeout 与 ctx 截止时间约束，ctx 取消时关闭连接
func (s *SMTPSender) Send(ctx context.Context, msg *Message) error {
	if err := msg.Validate(); err != nil {
		return err
	}
	m := s.compose(msg)

	ctx, cancel := context.WithTimeout(ctx, s.sendTimeout)
	defer cancel()

	conn, err := s.dial(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("smtp send: %w", ctx.Err())
		}
		return fmt.Errorf("smtp dial: %w", err)
	}
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}
	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()

	if err := s.deliver(conn, m, msg.To); err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("smtp send: %w", ctx.Err())
		}
		return fmt.Errorf("smtp send: %w", err)
	}
	return nil
}

func (s *SMTPSender) compose(msg *Message) *gomail.Message {
	m := gomail.NewMessage()
	m.SetAddressHeader("From", s.from.Email, s.from.Name)
	m.SetHeader("To", msg.To...)
	if msg.ReplyTo != "" {
		m.SetHeader("Reply-To", msg.ReplyTo)
	}
	m.SetHeader("Subject", msg.Subject)

	text := msg.Text
	if text == "" {
		text = PlainText(msg.HTML)
	}
	m.SetBody("text/plain", text)
	if msg.HTML != "" {
		m.AddAlternative("text/html", msg.HTML)
	}
	return m
}

func (s *SMTPSender) dial(ctx context.Context) (net.Conn, error) {
	addr := net.JoinHostPort(s.host, strconv.Itoa(s.port))
	d := &net.Dialer{Timeout: s.dialTimeout}
	if s.ssl {
		td := &tls.Dialer{NetDialer: d, Config: &tls.Config{ServerName: s.host}}
		return td.DialContext(ctx, "tcp", addr)
	}
	return d.DialContext(ctx, "tcp", addr)
}

func (s *SMTPSender) deliver(conn net.Conn, m *gomail.Message, to []string) error {
	c, err := smtp.NewClient(conn, s.host)
	if err != nil {
		_ = conn.Close()
		return err
	}
	defer c.Close()

	if !s.ssl {
		if ok, _ := c.Extension("STARTTLS"); ok {
			if err := c.StartTLS(&tls.Config{ServerName: s.host}); err != nil {
				return err
			}
		}
	}
	if s.username != "" {
		if ok, _ := c.Extension("AUTH"); ok {
			if err := c.Auth(smtp.PlainAuth("", s.username, s.password, s.host)); err != nil {
				return err
			}
		}
	}

	if err := c.Mail(s.from.Email); err != nil {
		return err
	}
	for _, rcpt := range to {
		if err := c.Rcpt(rcpt); err != nil {
			return err
		}
	}
	w, err := c.Data()
	if err != nil {
		return err
	}
	if _, err := m.WriteTo(w); err != nil {
		_ = w.Close()
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}
	return c.Quit()
}

var (
	textPolicy  = bluemonday.StrictPolicy()
	lineEnd     = regexp.MustCompile(`(?i)<br\s*/?>|</(tr|li)>`)
	blockEnd    = regexp.MustCompile(`(?i)</(p|div|h[1-6]|table|blockquote)>`)
	blankLines  = regexp.MustCompile(`\n{3,}`)
	innerSpaces = regexp.MustCompile(`[ \t]+`)
)

// PlainText 将 HTML 正文转为纯文本，块级元素结束处换行
func PlainText(body string) string {
	text := lineEnd.ReplaceAllString(body, "$0\n")
	text = blockEnd.ReplaceAllString(text, "$0\n\n")
	text = html.UnescapeString(textPolicy.Sanitize(text))

	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(innerSpaces.ReplaceAllString(line, " "))
	}
	text = strings.Join(lines, "\n")
	return strings.TrimSpace(blankLines.ReplaceAllString(text, "\n\n"))
}
