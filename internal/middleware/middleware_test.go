package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/dumeirei/helpcenter-backend/internal/common/config"
	"github.com/dumeirei/helpcenter-backend/internal/common/jwt"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newJWT() *jwt.Manager {
	return jwt.NewManager(&jwt.Config{
		Secret:            "middleware-test-secret",
		AccessExpireTime:  time.Hour,
		RefreshExpireTime: 24 * time.Hour,
		Issuer:            "test",
	})
}

func TestAdminAuth(t *testing.T) {
	manager := newJWT()
	pair, err := manager.GenerateTokenPair(jwt.Identity{UserID: "u-1", Name: "Alice", Email: "alice@subcold.com"})
	require.NoError(t, err)

	r := gin.New()
	r.GET("/me", AdminAuth(manager), func(c *gin.Context) {
		c.String(http.StatusOK, GetAdminID(c)+"|"+GetAdminName(c)+"|"+GetAdminEmail(c))
	})

	tests := []struct {
		name   string
		header string
		cookie string
		code   int
		body   string
	}{
		{name: "missing token", code: http.StatusUnauthorized},
		{name: "garbage token", header: "Bearer nope", code: http.StatusUnauthorized},
		{name: "refresh token rejected", header: "Bearer " + pair.RefreshToken, code: http.StatusUnauthorized},
		{name: "bearer header", header: "Bearer " + pair.AccessToken, code: http.StatusOK, body: "u-1|Alice|alice@subcold.com"},
		{name: "cookie", cookie: pair.AccessToken, code: http.StatusOK, body: "u-1|Alice|alice@subcold.com"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			if tt.cookie != "" {
				req.AddCookie(&http.Cookie{Name: "token", Value: tt.cookie})
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			assert.Equal(t, tt.code, w.Code)
			if tt.body != "" {
				assert.Equal(t, tt.body, w.Body.String())
			}
		})
	}
}

func TestSubmissionRateLimit(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	r := gin.New()
	r.POST("/tickets", SubmissionRateLimit(client, 2, time.Minute), func(c *gin.Context) {
		c.Status(http.StatusCreated)
	})

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/tickets", nil))
		codes = append(codes, w.Code)
		if i == 2 {
			assert.Equal(t, "0", w.Header().Get("X-RateLimit-Remaining"))
			assert.NotEmpty(t, w.Header().Get("Retry-After"))
		}
	}
	assert.Equal(t, []int{http.StatusCreated, http.StatusCreated, http.StatusTooManyRequests}, codes)

	// 窗口过期后恢复
	mr.FastForward(time.Minute + time.Second)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/tickets", nil))
	assert.Equal(t, http.StatusCreated, w.Code)
}

func TestLoginRateLimit_IgnoresRoute(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	r := gin.New()
	limit := LoginRateLimit(client, 1, time.Minute)
	r.POST("/login", limit, func(c *gin.Context) { c.Status(http.StatusOK) })
	r.POST("/refresh", limit, func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/login", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/refresh", nil))
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Contains(t, w.Body.String(), "Too many login attempts")
	assert.Equal(t, "60", w.Header().Get("Retry-After"))
}

func TestRetryAfter(t *testing.T) {
	assert.Equal(t, 30, retryAfter(30*time.Second, time.Minute))
	assert.Equal(t, 60, retryAfter(-1, time.Minute))
	assert.Equal(t, 1, retryAfter(200*time.Millisecond, time.Minute))
}

func TestRateLimit_NilClientPassesThrough(t *testing.T) {
	r := gin.New()
	r.POST("/login", LoginRateLimit(nil, 1, time.Minute), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/login", nil))
		assert.Equal(t, http.StatusOK, w.Code)
	}
}

func TestRequestID(t *testing.T) {
	r := gin.New()
	r.Use(RequestID())
	r.GET("/", func(c *gin.Context) { c.String(http.StatusOK, GetRequestID(c)) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	generated := w.Header().Get("X-Request-ID")
	assert.Len(t, generated, 36)
	assert.Equal(t, generated, w.Body.String())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "abc-123", w.Header().Get("X-Request-ID"))
}

func TestRequestSizeLimiter(t *testing.T) {
	r := gin.New()
	r.POST("/", RequestSizeLimiter(16), func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(strings.Repeat("x", 32))))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/", strings.NewReader("small")))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestCORS_Preflight(t *testing.T) {
	r := gin.New()
	r.Use(CORS(&config.CORSConfig{
		AllowedOrigins: []string{"https://support.subcold.com"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost},
		AllowedHeaders: []string{"Content-Type", "Authorization"},
		MaxAge:         600,
	}))
	r.POST("/api/v1/tickets", func(c *gin.Context) { c.Status(http.StatusCreated) })

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/tickets", nil)
	req.Header.Set("Origin", "https://support.subcold.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "https://support.subcold.com", w.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodOptions, "/api/v1/tickets", nil)
	req.Header.Set("Origin", "https://evil.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestCORS_WildcardWithCredentialsEchoesOrigin(t *testing.T) {
	r := gin.New()
	r.Use(CORS(&config.CORSConfig{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{http.MethodGet},
		AllowCredentials: true,
	}))
	r.GET("/api/v1/categories", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/api/v1/categories", nil)
	req.Header.Set("Origin", "https://shop.example")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "https://shop.example", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))
	assert.Contains(t, w.Header().Get("Access-Control-Expose-Headers"), HeaderRequestID)
}

func TestAccessLog(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)

	r := gin.New()
	r.Use(RequestID(), AccessLog(zap.New(core)))
	r.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/api/v1/articles/:slug", func(c *gin.Context) { c.Status(http.StatusNotFound) })

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health", nil))
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/v1/articles/missing", nil))

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, zapcore.WarnLevel, entry.Level)
	assert.Equal(t, "/api/v1/articles/:slug", entry.ContextMap()["route"])
	assert.EqualValues(t, http.StatusNotFound, entry.ContextMap()["status"])
}
