// Package tracing 配置 OpenTelemetry 导出并提供业务 span 辅助函数
package tracing

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "github.com/dumeirei/helpcenter-backend"

// Config 追踪配置，Endpoint 为空时输出到 stdout
type Config struct {
	Enabled        bool
	ServiceName    string
	ServiceVersion string
	Environment    string
	Endpoint       string
	SampleRate     float64
}

// Provider 持有已注册为全局的 TracerProvider，未启用时为空
type Provider struct {
	sdk *sdktrace.TracerProvider
}

// Init 注册全局 TracerProvider 与 W3C 传播器
//
// 未启用时不修改全局设置，otel 默认的空实现生效
func Init(cfg *Config) (*Provider, error) {
	if cfg == nil || !cfg.Enabled {
		return &Provider{}, nil
	}

	res, err := resource.Merge(resource.Default(), resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(cfg.ServiceName),
		semconv.ServiceVersion(cfg.ServiceVersion),
		semconv.DeploymentEnvironment(cfg.Environment),
	))
	if err != nil {
		return nil, fmt.Errorf("tracing resource: %w", err)
	}

	exporter, err := newExporter(cfg.Endpoint)
	if err != nil {
		return nil, err
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.ParentBased(sampler(cfg.SampleRate))),
	)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{}, propagation.Baggage{},
	))
	return &Provider{sdk: tp}, nil
}

func newExporter(endpoint string) (sdktrace.SpanExporter, error) {
	if endpoint == "" {
		exp, err := stdouttrace.New()
		if err != nil {
			return nil, fmt.Errorf("stdout exporter: %w", err)
		}
		return exp, nil
	}
	exp, err := otlptracegrpc.New(context.Background(),
		otlptracegrpc.WithEndpoint(endpoint),
		otlptracegrpc.WithInsecure(),
	)
	if err != nil {
		return nil, fmt.Errorf("otlp exporter %s: %w", endpoint, err)
	}
	return exp, nil
}

func sampler(rate float64) sdktrace.Sampler {
	if rate >= 1 {
		return sdktrace.AlwaysSample()
	}
	if rate <= 0 {
		return sdktrace.NeverSample()
	}
	return sdktrace.TraceIDRatioBased(rate)
}

// Shutdown 刷出缓冲的 span
func (p *Provider) Shutdown(ctx context.Context) error {
	if p == nil || p.sdk == nil {
		return nil
	}
	return p.sdk.Shutdown(ctx)
}

// Start 在全局 TracerProvider 上开始 span
func Start(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return otel.Tracer(instrumentationName).Start(ctx, name, trace.WithAttributes(attrs...))
}

// SetError 记录错误并把当前 span 标记为失败
func SetError(ctx context.Context, err error) {
	if err == nil {
		return
	}
	span := trace.SpanFromContext(ctx)
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

const (
	keyTicketNumber = attribute.Key("ticket.number")
	keyTicketType   = attribute.Key("ticket.type")
	keyLocale       = attribute.Key("helpcenter.locale")
	keyMailKind     = attribute.Key("mail.kind")
)

func WithTicketNumber(num string) attribute.KeyValue { return keyTicketNumber.String(num) }
func WithTicketType(t string) attribute.KeyValue     { return keyTicketType.String(t) }
func WithLocale(locale string) attribute.KeyValue    { return keyLocale.String(locale) }
func WithMailKind(kind string) attribute.KeyValue    { return keyMailKind.String(kind) }
