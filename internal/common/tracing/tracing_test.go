package tracing

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func useRecorder(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()
	prev := otel.GetTracerProvider()
	rec := tracetest.NewSpanRecorder()
	otel.SetTracerProvider(sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec)))
	t.Cleanup(func() { otel.SetTracerProvider(prev) })
	return rec
}

func TestInit_Disabled(t *testing.T) {
	p, err := Init(&Config{Enabled: false})
	require.NoError(t, err)
	assert.NoError(t, p.Shutdown(context.Background()))

	p, err = Init(nil)
	require.NoError(t, err)
	assert.NoError(t, p.Shutdown(context.Background()))
}

func TestInit_StdoutExporter(t *testing.T) {
	prev := otel.GetTracerProvider()
	p, err := Init(&Config{Enabled: true, ServiceName: "helpcenter-test", SampleRate: 1})
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = p.Shutdown(context.Background())
		otel.SetTracerProvider(prev)
	})

	_, span := Start(context.Background(), "mail.send", WithMailKind("reply"))
	assert.True(t, span.IsRecording())
	assert.True(t, span.SpanContext().HasTraceID())
	span.End()
}

func TestStart_RecordsAttributes(t *testing.T) {
	rec := useRecorder(t)

	ctx, span := Start(context.Background(), "ticket.Create", WithTicketType("enquiry"), WithLocale("fr"))
	span.SetAttributes(WithTicketNumber("TKT-000001"))
	SetError(ctx, nil)
	span.End()

	ended := rec.Ended()
	require.Len(t, ended, 1)
	assert.Equal(t, "ticket.Create", ended[0].Name())
	assert.Equal(t, codes.Unset, ended[0].Status().Code)

	attrs := map[string]string{}
	for _, kv := range ended[0].Attributes() {
		attrs[string(kv.Key)] = kv.Value.AsString()
	}
	assert.Equal(t, "enquiry", attrs["ticket.type"])
	assert.Equal(t, "fr", attrs["helpcenter.locale"])
	assert.Equal(t, "TKT-000001", attrs["ticket.number"])
}

func TestSetError_MarksSpanFailed(t *testing.T) {
	rec := useRecorder(t)

	ctx, span := Start(context.Background(), "notification.send")
	SetError(ctx, errors.New("smtp down"))
	span.End()

	ended := rec.Ended()
	require.Len(t, ended, 1)
	assert.Equal(t, codes.Error, ended[0].Status().Code)
	assert.Equal(t, "smtp down", ended[0].Status().Description)
	require.Len(t, ended[0].Events(), 1)
}

func TestSampler(t *testing.T) {
	assert.Contains(t, sampler(1).Description(), "AlwaysOn")
	assert.Contains(t, sampler(0).Description(), "AlwaysOff")
	assert.Contains(t, sampler(0.5).Description(), "TraceIDRatioBased")
}
