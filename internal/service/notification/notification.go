// Package notification 渲染并投递工单、退货申请相关的邮件与短信提醒
package notification

import (
	"bytes"
	"context"
	"embed"
	stderrors "errors"
	"fmt"
	"html/template"
	"net/url"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"go.uber.org/zap"

	"github.com/dumeirei/helpcenter-backend/internal/common/errors"
	"github.com/dumeirei/helpcenter-backend/internal/common/logger"
	"github.com/dumeirei/helpcenter-backend/internal/common/metrics"
	"github.com/dumeirei/helpcenter-backend/internal/common/tracing"
	"github.com/dumeirei/helpcenter-backend/internal/common/utils"
	"github.com/dumeirei/helpcenter-backend/internal/models"
	"github.com/dumeirei/helpcenter-backend/pkg/mail"
	"github.com/dumeirei/helpcenter-backend/pkg/sms"
)

// 邮件类型，同时作为指标标签
const (
	KindTicketAdmin    = "ticket_admin"
	KindTicketCustomer = "ticket_customer"
	KindTicketReply    = "ticket_reply"
	KindReturnAdmin    = "return_admin"
	KindReturnCustomer = "return_customer"
)

//go:embed templates/*.html
var templateFS embed.FS

var (
	replyPolicy = bluemonday.UGCPolicy()
	templates   = template.Must(template.New("notification").Funcs(funcMap).ParseFS(templateFS, "templates/*.html"))
)

var funcMap = template.FuncMap{
	"nl2br":     nl2br,
	"firstName": utils.FirstName,
	"lower":     strings.ToLower,
	"datetime":  formatDateTime,
	"field":     newField,
}

// Config 通知地址配置
type Config struct {
	// AdminAddress 接收新工单提醒，同时作为客户回信地址
	AdminAddress   string
	SupportAddress string
	SiteURL        string
	LogoURL        string
	// OnCallPhone 紧急工单短信接收号码，为空时不发送
	OnCallPhone string
}

// Notifier 通知服务
type Notifier struct {
	mailer  mail.Sender
	sms     sms.Sender
	cfg     Config
	logger  *zap.Logger
	metrics *metrics.Metrics
	now     func() time.Time
}

// New 创建通知服务，mailer 为 nil 时所有邮件返回未配置错误
func New(mailer mail.Sender, smsSender sms.Sender, cfg Config, log *zap.Logger, m *metrics.Metrics) *Notifier {
	if mailer == nil {
		mailer = mail.NoopSender{}
	}
	if smsSender == nil {
		smsSender = sms.NoopSender{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	cfg.SiteURL = strings.TrimRight(cfg.SiteURL, "/")
	return &Notifier{
		mailer:  mailer,
		sms:     smsSender,
		cfg:     cfg,
		logger:  log.Named("notification"),
		metrics: m,
		now:     time.Now,
	}
}

// MailEnabled 是否配置了真实的邮件发送器
func (n *Notifier) MailEnabled() bool {
	_, noop := n.mailer.(mail.NoopSender)
	return !noop
}

type ticketView struct {
	Ticket       *models.Ticket
	TypeLabel    string
	AdminURL     string
	AdminAddress string
	LogoURL      string
	Year         int
}

func (n *Notifier) ticketView(t *models.Ticket) ticketView {
	return ticketView{
		Ticket:       t,
		TypeLabel:    models.TicketTypeLabel(t.Type),
		AdminURL:     n.cfg.SiteURL + "/admin/tickets/" + t.TicketNumber,
		AdminAddress: n.cfg.AdminAddress,
		LogoURL:      n.cfg.LogoURL,
		Year:         n.now().Year(),
	}
}

// NewTicketAdmin 通知客服有新工单
func (n *Notifier) NewTicketAdmin(ctx context.Context, t *models.Ticket) error {
	view := n.ticketView(t)
	return n.send(ctx, KindTicketAdmin, "ticket_admin.html", view, &mail.Message{
		To:      []string{n.cfg.AdminAddress},
		ReplyTo: t.Email,
		Subject: fmt.Sprintf("New %s: %s - %s", view.TypeLabel, t.TicketNumber, t.Subject),
	}, logger.TicketNumber(t.TicketNumber))
}

// TicketConfirmation 向客户确认工单已受理
func (n *Notifier) TicketConfirmation(ctx context.Context, t *models.Ticket) error {
	return n.send(ctx, KindTicketCustomer, "ticket_customer.html", n.ticketView(t), &mail.Message{
		To:      []string{t.Email},
		Subject: fmt.Sprintf("Ticket Received: %s - %s", t.TicketNumber, t.Subject),
	}, logger.TicketNumber(t.TicketNumber))
}

type replyView struct {
	Ticket      *models.Ticket
	Message     template.HTML
	Attachments []string
	SenderName  string
	SiteURL     string
	SiteHost    string
}

// TicketReply 将客服回复发送给客户，回信地址为客服邮箱
func (n *Notifier) TicketReply(ctx context.Context, t *models.Ticket, reply *models.TicketReply) error {
	view := replyView{
		Ticket:      t,
		Message:     richText(reply.Message),
		Attachments: reply.Attachments,
		SenderName:  reply.SenderName,
		SiteURL:     n.cfg.SiteURL,
		SiteHost:    siteHost(n.cfg.SiteURL),
	}
	return n.send(ctx, KindTicketReply, "ticket_reply.html", view, &mail.Message{
		To:      []string{t.Email},
		ReplyTo: n.cfg.AdminAddress,
		Subject: fmt.Sprintf("Re: %s - %s", t.TicketNumber, t.Subject),
	}, logger.TicketNumber(t.TicketNumber))
}

type returnView struct {
	Request      *models.ReturnRequest
	Reference    string
	AdminURL     string
	AdminAddress string
	LogoURL      string
	Year         int
}

func (n *Notifier) returnView(r *models.ReturnRequest) returnView {
	return returnView{
		Request:      r,
		Reference:    ShortReference(r.ID),
		AdminURL:     n.cfg.SiteURL + "/admin/returns",
		AdminAddress: n.cfg.AdminAddress,
		LogoURL:      n.cfg.LogoURL,
		Year:         n.now().Year(),
	}
}

// NewReturnAdmin 通知客服有新退货申请
func (n *Notifier) NewReturnAdmin(ctx context.Context, r *models.ReturnRequest) error {
	view := n.returnView(r)
	return n.send(ctx, KindReturnAdmin, "return_admin.html", view, &mail.Message{
		To:      []string{n.cfg.AdminAddress},
		ReplyTo: r.Email,
		Subject: fmt.Sprintf("New Return Request #%s - %s", view.Reference, r.ReturnReason),
	}, zap.String("return_id", r.ID))
}

// ReturnConfirmation 向客户确认退货申请已受理
func (n *Notifier) ReturnConfirmation(ctx context.Context, r *models.ReturnRequest) error {
	return n.send(ctx, KindReturnCustomer, "return_customer.html", n.returnView(r), &mail.Message{
		To:      []string{r.Email},
		Subject: "Return Request Received - Order " + r.OrderNumber,
	}, zap.String("return_id", r.ID))
}

// UrgentAlert 紧急工单短信提醒值班人员，未配置号码时跳过
func (n *Notifier) UrgentAlert(ctx context.Context, t *models.Ticket) error {
	if n.cfg.OnCallPhone == "" {
		return nil
	}
	err := n.sms.SendAlert(ctx, n.cfg.OnCallPhone, sms.Alert{
		TicketNumber: t.TicketNumber,
		Type:         models.TicketTypeLabel(t.Type),
		Subject:      t.Subject,
	})
	if err != nil {
		n.logger.Warn("urgent sms alert failed", logger.TicketNumber(t.TicketNumber), zap.Error(err))
		return errors.ErrNotificationFailed.WithError(err)
	}
	return nil
}

func (n *Notifier) send(ctx context.Context, kind, name string, data interface{}, msg *mail.Message, fields ...zap.Field) error {
	ctx, span := tracing.Start(ctx, "notification.send", tracing.WithMailKind(kind))
	defer span.End()

	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, data); err != nil {
		tracing.SetError(ctx, err)
		n.logger.Error("render email failed", zap.String("kind", kind), zap.Error(err))
		return errors.ErrNotificationFailed.WithError(err)
	}
	msg.HTML = buf.String()

	err := n.mailer.Send(ctx, msg)
	n.metrics.RecordEmail(kind, err)
	fields = append(fields, zap.String("kind", kind), logger.Recipient(strings.Join(msg.To, ",")))
	if err != nil {
		tracing.SetError(ctx, err)
		n.logger.Warn("send email failed", append(fields, zap.Error(err))...)
		return errors.ErrNotificationFailed.WithError(err)
	}
	n.logger.Info("email sent", fields...)
	return nil
}

// Describe 返回可存入回复记录的错误描述
func Describe(err error) string {
	if err == nil {
		return ""
	}
	if stderrors.Is(err, mail.ErrNotConfigured) {
		return "email not configured"
	}
	if appErr := errors.GetAppError(err); appErr.Err != nil {
		return appErr.Err.Error()
	}
	return err.Error()
}

// ShortReference 退货申请对外展示的短编号（ID 末 8 位大写）
func ShortReference(id string) string {
	if len(id) > 8 {
		id = id[len(id)-8:]
	}
	return strings.ToUpper(id)
}

type fieldView struct {
	Label string
	Value string
}

func newField(label string, value interface{}) fieldView {
	return fieldView{Label: label, Value: deref(value)}
}

func deref(v interface{}) string {
	switch s := v.(type) {
	case string:
		return s
	case *string:
		return utils.SafeString(s)
	case nil:
		return ""
	default:
		return fmt.Sprint(s)
	}
}

// nl2br 转义后将换行替换为 <br>
func nl2br(v interface{}) template.HTML {
	escaped := template.HTMLEscapeString(deref(v))
	escaped = strings.ReplaceAll(escaped, "\r\n", "\n")
	return template.HTML(strings.ReplaceAll(escaped, "\n", "<br>"))
}

// richText 客服回复允许基础排版标签，其余过滤
func richText(s string) template.HTML {
	s = strings.ReplaceAll(strings.TrimSpace(s), "\r\n", "\n")
	return template.HTML(replyPolicy.Sanitize(strings.ReplaceAll(s, "\n", "<br>")))
}

func formatDateTime(t time.Time) string {
	if loc, err := time.LoadLocation("Europe/London"); err == nil {
		t = t.In(loc)
	}
	return t.Format("02/01/2006, 15:04:05")
}

func siteHost(siteURL string) string {
	u, err := url.Parse(siteURL)
	if err != nil || u.Host == "" {
		return siteURL
	}
	return u.Host
}
