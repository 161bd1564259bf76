package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/datatypes"

	authmw "github.com/dumeirei/helpcenter-backend/internal/middleware"
	"github.com/dumeirei/helpcenter-backend/internal/models"
	"github.com/dumeirei/helpcenter-backend/internal/repository"
)

// maxLoggedBody 审计记录保存的请求体上限
const maxLoggedBody = 16 << 10

// OperationLogger 后台操作审计中间件
type OperationLogger struct {
	repo   *repository.OperationLogRepository
	logger *zap.Logger
	async  bool
}

// NewOperationLogger 创建操作日志中间件
func NewOperationLogger(repo *repository.OperationLogRepository, logger *zap.Logger) *OperationLogger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OperationLogger{repo: repo, logger: logger, async: true}
}

// Sync 切换为同步写入（测试与 CLI 使用）
func (l *OperationLogger) Sync() *OperationLogger {
	l.async = false
	return l
}

// OperationConfig 路由对应的审计模块与动作
type OperationConfig struct {
	Module     string
	Action     string
	TargetType string
}

// routeOperations 后台写操作映射，键为 "METHOD 路由"（不含 /api 前缀）
var routeOperations = map[string]OperationConfig{
	"POST /admin/auth/login":          {Module: "auth", Action: "login"},
	"PUT /admin/auth/password":        {Module: "auth", Action: "change_password"},
	"POST /admin/categories":          {Module: "content", Action: "create", TargetType: "category"},
	"PUT /admin/categories/:id":       {Module: "content", Action: "update", TargetType: "category"},
	"DELETE /admin/categories/:id":    {Module: "content", Action: "delete", TargetType: "category"},
	"POST /admin/articles":            {Module: "content", Action: "create", TargetType: "article"},
	"PUT /admin/articles/:id":         {Module: "content", Action: "update", TargetType: "article"},
	"DELETE /admin/articles/:id":      {Module: "content", Action: "delete", TargetType: "article"},
	"POST /admin/translations":        {Module: "content", Action: "upsert_translation", TargetType: "translation"},
	"DELETE /admin/translations":      {Module: "content", Action: "delete_translation", TargetType: "translation"},
	"PUT /admin/settings":             {Module: "settings", Action: "update", TargetType: "site_settings"},
	"PUT /admin/return-form-config":   {Module: "settings", Action: "update", TargetType: "return_form"},
	"PATCH /admin/tickets/:id":        {Module: "ticket", Action: "update", TargetType: "ticket"},
	"DELETE /admin/tickets/:id":       {Module: "ticket", Action: "delete", TargetType: "ticket"},
	"POST /admin/tickets/:id/replies": {Module: "ticket", Action: "reply", TargetType: "ticket"},
	"PATCH /admin/returns/:id":        {Module: "returns", Action: "update", TargetType: "return_request"},
	"DELETE /admin/returns/:id":       {Module: "returns", Action: "delete", TargetType: "return_request"},
	"POST /admin/users":               {Module: "user", Action: "create", TargetType: "user"},
	"PUT /admin/users/:id":            {Module: "user", Action: "update", TargetType: "user"},
	"DELETE /admin/users/:id":         {Module: "user", Action: "delete", TargetType: "user"},
}

// sensitiveFields 需要脱敏的请求字段（子串匹配，不区分大小写）
var sensitiveFields = []string{
	"password", "token", "secret", "api_key", "apikey",
}

// Log 操作日志中间件处理函数，仅记录写操作
func (l *OperationLogger) Log() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !isWriteMethod(c.Request.Method) {
			c.Next()
			return
		}

		var body []byte
		if c.Request.Body != nil {
			body, _ = io.ReadAll(c.Request.Body)
			c.Request.Body = io.NopCloser(bytes.NewBuffer(body))
		}

		c.Next()

		// gin.Context 在请求结束后会被复用，先取出需要的字段
		entry := l.buildEntry(c, body)
		if entry == nil {
			return
		}
		if l.async {
			go l.save(entry)
			return
		}
		l.save(entry)
	}
}

func (l *OperationLogger) buildEntry(c *gin.Context, body []byte) *models.OperationLog {
	if l.repo == nil {
		return nil
	}

	cfg := resolveOperation(c.Request.Method, c.FullPath())
	adminID := authmw.GetAdminID(c)
	adminEmail := authmw.GetAdminEmail(c)

	// 登录请求没有身份上下文，使用提交的邮箱
	if adminID == "" {
		if cfg.Module != "auth" {
			return nil
		}
		adminID = "anonymous"
		adminEmail = emailFromBody(body)
	}

	entry := &models.OperationLog{
		AdminID:    adminID,
		AdminEmail: adminEmail,
		Module:     cfg.Module,
		Action:     cfg.Action,
		StatusCode: c.Writer.Status(),
		IP:         c.ClientIP(),
	}
	if ua := c.Request.UserAgent(); ua != "" {
		if len(ua) > 255 {
			ua = ua[:255]
		}
		entry.UserAgent = &ua
	}
	if cfg.TargetType != "" {
		targetType := cfg.TargetType
		entry.TargetType = &targetType
		if id := c.Param("id"); id != "" {
			entry.TargetID = &id
		}
	}
	if data := maskRequestBody(body); data != nil {
		entry.RequestData = data
	}
	return entry
}

func (l *OperationLogger) save(entry *models.OperationLog) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := l.repo.Create(ctx, entry); err != nil {
		l.logger.Warn("write operation log failed",
			zap.String("module", entry.Module),
			zap.String("action", entry.Action),
			zap.Error(err),
		)
	}
}

// resolveOperation 查找路由映射，未命中时按路径与方法推断
func resolveOperation(method, fullPath string) OperationConfig {
	path := strings.TrimPrefix(fullPath, "/api")
	if cfg, ok := routeOperations[method+" "+path]; ok {
		return cfg
	}

	module := "unknown"
	for _, candidate := range []struct{ segment, module string }{
		{"/tickets", "ticket"},
		{"/returns", "returns"},
		{"/articles", "content"},
		{"/categories", "content"},
		{"/translations", "content"},
		{"/users", "user"},
		{"/settings", "settings"},
		{"/return-form-config", "settings"},
		{"/auth", "auth"},
	} {
		if strings.Contains(path, candidate.segment) {
			module = candidate.module
			break
		}
	}

	action := "unknown"
	switch method {
	case http.MethodPost:
		action = "create"
	case http.MethodPut, http.MethodPatch:
		action = "update"
	case http.MethodDelete:
		action = "delete"
	}
	return OperationConfig{Module: module, Action: action}
}

func isWriteMethod(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	}
	return false
}

// maskRequestBody 解析 JSON 请求体并脱敏，非 JSON 或超长时返回 nil
func maskRequestBody(body []byte) datatypes.JSON {
	if len(body) == 0 || len(body) > maxLoggedBody {
		return nil
	}
	var data interface{}
	if err := json.Unmarshal(body, &data); err != nil {
		return nil
	}
	masked, err := json.Marshal(filterSensitiveData(data))
	if err != nil {
		return nil
	}
	return datatypes.JSON(masked)
}

func filterSensitiveData(data interface{}) interface{} {
	switch v := data.(type) {
	case map[string]interface{}:
		result := make(map[string]interface{}, len(v))
		for key, value := range v {
			if isSensitiveKey(key) {
				result[key] = "***"
				continue
			}
			result[key] = filterSensitiveData(value)
		}
		return result
	case []interface{}:
		result := make([]interface{}, len(v))
		for i, item := range v {
			result[i] = filterSensitiveData(item)
		}
		return result
	case string:
		// 内联图片不入审计
		if strings.HasPrefix(v, "data:") {
			return "[data-url]"
		}
		return v
	default:
		return data
	}
}

func isSensitiveKey(key string) bool {
	lower := strings.ToLower(key)
	for _, field := range sensitiveFields {
		if strings.Contains(lower, field) {
			return true
		}
	}
	return false
}

func emailFromBody(body []byte) string {
	var payload struct {
		Email string `json:"email"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}
	return strings.ToLower(strings.TrimSpace(payload.Email))
}
