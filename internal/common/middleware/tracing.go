// Package middleware 提供跨切面的 HTTP 中间件（链路追踪、操作审计）
package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"

	authmw "github.com/dumeirei/helpcenter-backend/internal/middleware"
)

// HeaderTraceID 响应头中回传的追踪 ID，便于客服按 ID 检索链路
const HeaderTraceID = "X-Trace-ID"

// TracingConfig 追踪中间件配置
type TracingConfig struct {
	ServiceName string
	SkipPaths   []string
	// Provider 为空时使用全局 TracerProvider
	Provider trace.TracerProvider
}

// Tracing 为每个请求创建服务端 span，span 名为 "METHOD 路由模板"
func Tracing(cfg *TracingConfig) gin.HandlerFunc {
	if cfg == nil {
		cfg = &TracingConfig{}
	}
	if cfg.ServiceName == "" {
		cfg.ServiceName = "helpcenter-backend"
	}
	provider := cfg.Provider
	if provider == nil {
		provider = otel.GetTracerProvider()
	}
	tracer := provider.Tracer(cfg.ServiceName)

	skip := make(map[string]struct{}, len(cfg.SkipPaths))
	for _, p := range cfg.SkipPaths {
		skip[p] = struct{}{}
	}

	return func(c *gin.Context) {
		if _, ok := skip[c.Request.URL.Path]; ok {
			c.Next()
			return
		}

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}

		ctx := otel.GetTextMapPropagator().Extract(c.Request.Context(), propagation.HeaderCarrier(c.Request.Header))
		ctx, span := tracer.Start(ctx, c.Request.Method+" "+route,
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(
				semconv.HTTPMethod(c.Request.Method),
				semconv.HTTPRoute(route),
				attribute.String("http.client_ip", c.ClientIP()),
			),
		)
		defer span.End()

		if sc := span.SpanContext(); sc.HasTraceID() {
			c.Header(HeaderTraceID, sc.TraceID().String())
		}
		if locale := c.Query("locale"); locale != "" {
			span.SetAttributes(attribute.String("helpcenter.locale", locale))
		}

		c.Request = c.Request.WithContext(ctx)
		c.Next()

		status := c.Writer.Status()
		span.SetAttributes(semconv.HTTPStatusCode(status))
		if adminID := authmw.GetAdminID(c); adminID != "" {
			span.SetAttributes(attribute.String("helpcenter.admin_id", adminID))
		}
		for _, err := range c.Errors {
			span.RecordError(err.Err)
		}
		if status >= http.StatusInternalServerError {
			span.SetStatus(codes.Error, http.StatusText(status))
		}
	}
}
