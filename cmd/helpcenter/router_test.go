package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"regexp"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/dumeirei/helpcenter-backend/internal/common/config"
	"github.com/dumeirei/helpcenter-backend/internal/common/metrics"
	commonMiddleware "github.com/dumeirei/helpcenter-backend/internal/common/middleware"
	"github.com/dumeirei/helpcenter-backend/internal/models"
	adminService "github.com/dumeirei/helpcenter-backend/internal/service/admin"
	"github.com/dumeirei/helpcenter-backend/internal/testutil"
	"github.com/dumeirei/helpcenter-backend/pkg/mail"
	"github.com/dumeirei/helpcenter-backend/pkg/sms"
)

type apiEnv struct {
	t      *testing.T
	engine *gin.Engine
	app    *app
	mailer *mail.MemorySender
	token  string
}

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func testConfig() *config.Config {
	cfg := *config.Default()
	cfg.Crypto.BcryptCost = bcrypt.MinCost
	cfg.JWT.Secret = "test-secret"
	cfg.Metrics.Path = "/metrics"
	cfg.Server.MaxBodySize = 1 << 20
	return &cfg
}

func newAPIEnv(t *testing.T, mutate func(*config.Config)) *apiEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := testConfig()
	if mutate != nil {
		mutate(cfg)
	}

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	db := testutil.NewTestDB(t)
	mailer := mail.NewMemorySender()
	m := metrics.New("test")

	a := newApp(cfg, zap.NewNop(), db, rdb, m, &externals{mailer: mailer, sms: sms.NewMockSender()})
	require.NoError(t, a.seeder.Seed(t.Context()))

	engine := gin.New()
	opLogger := commonMiddleware.NewOperationLogger(a.logs, zap.NewNop()).Sync()
	require.NoError(t, setupRouter(engine, a, opLogger))

	return &apiEnv{t: t, engine: engine, app: a, mailer: mailer}
}

func (e *apiEnv) do(method, path string, body interface{}) (*httptest.ResponseRecorder, envelope) {
	e.t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(e.t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if e.token != "" {
		req.Header.Set("Authorization", "Bearer "+e.token)
	}
	w := httptest.NewRecorder()
	e.engine.ServeHTTP(w, req)

	var env envelope
	if w.Header().Get("Content-Type") == "application/json; charset=utf-8" {
		require.NoError(e.t, json.Unmarshal(w.Body.Bytes(), &env))
	}
	return w, env
}

func (e *apiEnv) login() {
	e.t.Helper()
	w, env := e.do(http.MethodPost, "/api/admin/auth/login", gin.H{
		"email":    adminService.DefaultAdminEmail,
		"password": adminService.DefaultAdminPassword,
	})
	require.Equal(e.t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		Token struct {
			AccessToken string `json:"access_token"`
		} `json:"token"`
	}
	require.NoError(e.t, json.Unmarshal(env.Data, &resp))
	require.NotEmpty(e.t, resp.Token.AccessToken)
	e.token = resp.Token.AccessToken
}

func decode[T any](t *testing.T, raw json.RawMessage) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(raw, &v))
	return v
}

func TestHealthEndpoints(t *testing.T) {
	e := newAPIEnv(t, nil)

	w, _ := e.do(http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w, _ = e.do(http.MethodGet, "/ping", nil)
	assert.Equal(t, "pong", w.Body.String())

	w, _ = e.do(http.MethodGet, "/ready", nil)
	require.Equal(t, http.StatusOK, w.Code)
	ready := decode[HealthResponse](t, w.Body.Bytes())
	assert.Equal(t, "ready", ready.Status)
	assert.Equal(t, "ok", ready.Checks["redis"])

	w, _ = e.do(http.MethodGet, "/metrics", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestEnquiryEndToEnd(t *testing.T) {
	e := newAPIEnv(t, nil)

	w, env := e.do(http.MethodPost, "/api/v1/tickets", gin.H{
		"type":     "enquiry",
		"fullName": "Jane Doe",
		"email":    "jane@example.com",
		"subject":  "Product enquiry",
		"message":  "Does the Eco4 fit on a desk?",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	created := decode[struct {
		Success      bool   `json:"success"`
		TicketNumber string `json:"ticketNumber"`
	}](t, env.Data)
	assert.True(t, created.Success)
	assert.Regexp(t, regexp.MustCompile(`^TKT-\d{6}$`), created.TicketNumber)
	assert.Len(t, e.mailer.SentTo("jane@example.com"), 1)

	e.login()
	w, env = e.do(http.MethodGet, "/api/admin/tickets/"+created.TicketNumber, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	ticket := decode[models.Ticket](t, env.Data)
	assert.Equal(t, models.TicketStatusOpen, ticket.Status)
	assert.Equal(t, "normal", ticket.Priority)
	assert.Equal(t, "Jane Doe", ticket.FullName)
}

func TestReturnReplyEndToEnd(t *testing.T) {
	e := newAPIEnv(t, nil)

	w, env := e.do(http.MethodPost, "/api/v1/tickets", gin.H{
		"type":            "return",
		"fullName":        "Sam Lee",
		"email":           "sam@example.com",
		"subject":         "Fridge not cooling",
		"message":         "It stopped cooling after a week.",
		"orderNumber":     "ORD-42",
		"purchaseChannel": "Amazon",
		"returnReason":    "Faulty",
		"productName":     "Subcold Eco4 Black",
		"troubleshooting": "No",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	number := decode[struct {
		TicketNumber string `json:"ticketNumber"`
	}](t, env.Data).TicketNumber

	e.login()
	w, env = e.do(http.MethodGet, "/api/admin/tickets/"+number, nil)
	require.Equal(t, http.StatusOK, w.Code)
	stored := decode[models.Ticket](t, env.Data)
	require.NotNil(t, stored.ReturnReason)
	require.NotNil(t, stored.Troubleshooting)
	assert.Equal(t, "Faulty", *stored.ReturnReason)
	assert.Equal(t, "No", *stored.Troubleshooting)

	w, env = e.do(http.MethodPost, "/api/admin/tickets/"+number+"/replies", gin.H{
		"type":         "reply",
		"message":      "Please try resetting the thermostat",
		"updateStatus": "in-progress",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	result := decode[struct {
		Reply     models.TicketReply `json:"reply"`
		EmailSent bool               `json:"emailSent"`
	}](t, env.Data)
	assert.Equal(t, models.ReplySenderAdmin, result.Reply.Sender)
	assert.Equal(t, models.ReplyTypeReply, result.Reply.Type)
	assert.True(t, result.EmailSent)

	w, env = e.do(http.MethodGet, "/api/admin/tickets/"+number, nil)
	require.Equal(t, http.StatusOK, w.Code)
	updated := decode[models.Ticket](t, env.Data)
	assert.Equal(t, models.TicketStatusInProgress, updated.Status)
	require.Len(t, updated.Replies, 1)

	// 写操作被记录到操作日志
	w, env = e.do(http.MethodGet, "/api/admin/operation-logs?module=ticket&action=reply", nil)
	require.Equal(t, http.StatusOK, w.Code)
	page := decode[struct {
		Total int64 `json:"total"`
	}](t, env.Data)
	assert.EqualValues(t, 1, page.Total)

	// 内部备注使用 type=note，不发送邮件也不改变状态
	w, env = e.do(http.MethodPost, "/api/admin/tickets/"+number+"/replies", gin.H{
		"type":    "note",
		"message": "Customer called, thermostat reset pending",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	note := decode[struct {
		Reply     models.TicketReply `json:"reply"`
		EmailSent bool               `json:"emailSent"`
	}](t, env.Data)
	assert.Equal(t, models.ReplyTypeNote, note.Reply.Type)
	assert.False(t, note.EmailSent)

	w, _ = e.do(http.MethodPost, "/api/admin/tickets/"+number+"/replies", gin.H{
		"type":    "internal_note",
		"message": "Not a valid type",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, env = e.do(http.MethodGet, "/api/admin/tickets/"+number, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, models.TicketStatusInProgress, decode[models.Ticket](t, env.Data).Status)

	w, _ = e.do(http.MethodGet, "/api/admin/tickets/"+number+"/label", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "image/png", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), number+".png")
}

func TestTicketSubmission_Validation(t *testing.T) {
	e := newAPIEnv(t, nil)

	w, env := e.do(http.MethodPost, "/api/v1/tickets", gin.H{
		"type":     "bogus",
		"fullName": "Jane Doe",
		"email":    "jane@example.com",
		"subject":  "Hi",
		"message":  "Hello",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.NotZero(t, env.Code)

	w, _ = e.do(http.MethodPost, "/api/v1/tickets", gin.H{"type": "enquiry"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAdminRoutesRequireToken(t *testing.T) {
	e := newAPIEnv(t, nil)

	w, _ := e.do(http.MethodGet, "/api/admin/tickets", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w, _ = e.do(http.MethodPost, "/api/admin/auth/login", gin.H{"email": adminService.DefaultAdminEmail, "password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	e.login()
	w, env := e.do(http.MethodGet, "/api/admin/auth/me", nil)
	require.Equal(t, http.StatusOK, w.Code)
	me := decode[adminService.UserInfo](t, env.Data)
	assert.Equal(t, adminService.DefaultAdminEmail, me.Email)

	w, env = e.do(http.MethodGet, "/api/admin/tickets", nil)
	require.Equal(t, http.StatusOK, w.Code)
	list := decode[struct {
		Total  int64 `json:"total"`
		Counts struct {
			Total int64 `json:"total"`
		} `json:"counts"`
	}](t, env.Data)
	assert.Zero(t, list.Total)
}

func TestKnowledgeBaseEndToEnd(t *testing.T) {
	e := newAPIEnv(t, nil)
	e.login()

	var technical models.Category
	require.NoError(t, e.app.db.First(&technical, "slug = ?", "technical").Error)

	w, env := e.do(http.MethodPost, "/api/admin/articles", gin.H{
		"categoryId":  technical.ID,
		"title":       "Resetting the thermostat",
		"slug":        "reset-thermostat",
		"content":     "<p>Hold the button for five seconds.</p>",
		"isPublished": true,
		"isPopular":   true,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	article := decode[models.Article](t, env.Data)

	w, _ = e.do(http.MethodPost, "/api/admin/translations", gin.H{
		"type":    "article",
		"id":      article.ID,
		"locale":  "de",
		"title":   "Thermostat zurücksetzen",
		"content": "<p>Taste fünf Sekunden gedrückt halten.</p>",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	e.token = ""
	w, env = e.do(http.MethodGet, "/api/v1/articles/reset-thermostat?locale=de", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	page := decode[struct {
		Article struct {
			Title        string `json:"title"`
			IsTranslated bool   `json:"isTranslated"`
		} `json:"article"`
	}](t, env.Data)
	assert.Equal(t, "Thermostat zurücksetzen", page.Article.Title)
	assert.True(t, page.Article.IsTranslated)

	w, env = e.do(http.MethodGet, "/api/v1/search?q=thermostat", nil)
	require.Equal(t, http.StatusOK, w.Code)
	results := decode[[]struct {
		Slug string `json:"slug"`
	}](t, env.Data)
	require.Len(t, results, 1)
	assert.Equal(t, "reset-thermostat", results[0].Slug)

	w, env = e.do(http.MethodGet, "/api/v1/categories", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]json.RawMessage](t, env.Data), 6)

	w, _ = e.do(http.MethodGet, "/api/v1/articles/missing", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSubmissionRateLimit(t *testing.T) {
	e := newAPIEnv(t, func(cfg *config.Config) {
		cfg.RateLimit.Enabled = true
		cfg.RateLimit.SubmissionLimit = 1
	})

	body := gin.H{
		"type":     "support",
		"fullName": "Jane Doe",
		"email":    "jane@example.com",
		"subject":  "Help",
		"message":  "Please help",
	}
	w, _ := e.do(http.MethodPost, "/api/v1/tickets", body)
	require.Equal(t, http.StatusOK, w.Code)
	w, _ = e.do(http.MethodPost, "/api/v1/tickets", body)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)

	// 读接口不受提交限流影响
	w, _ = e.do(http.MethodGet, "/api/v1/settings", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}
