package telemetry

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

func withRecorder(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()
	rec := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(provider)
	t.Cleanup(func() { otel.SetTracerProvider(prev) })
	return rec
}

func TestStartSpan(t *testing.T) {
	rec := withRecorder(t)

	ctx, span := StartSpan(context.Background(), "cart.add",
		WithAttribute(SpanAttrProductID, "p-1"),
		WithAttribute(SpanAttrQuantity, 2),
		WithSpanKind(trace.SpanKindClient),
	)
	assert.True(t, trace.SpanContextFromContext(ctx).IsValid())
	SetAttribute(span, SpanAttrTenantID, "wong")
	SetOK(span)
	span.End()

	spans := rec.Ended()
	require.Len(t, spans, 1)
	s := spans[0]
	assert.Equal(t, "cart.add", s.Name())
	assert.Equal(t, trace.SpanKindClient, s.SpanKind())
	assert.Equal(t, codes.Ok, s.Status().Code)
	assert.Contains(t, s.Attributes(), attribute.String(SpanAttrProductID, "p-1"))
	assert.Contains(t, s.Attributes(), attribute.Int(SpanAttrQuantity, 2))
	assert.Contains(t, s.Attributes(), attribute.String(SpanAttrTenantID, "wong"))
}

func TestRecordError(t *testing.T) {
	rec := withRecorder(t)

	_, span := StartSpan(context.Background(), "checkout.confirm")
	RecordError(span, errors.New("gateway timeout"))
	RecordError(span, nil)
	span.End()

	spans := rec.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, codes.Error, spans[0].Status().Code)
	assert.Equal(t, "gateway timeout", spans[0].Status().Description)
	assert.Len(t, spans[0].Events(), 1)
}

func TestNilSpanHelpers(t *testing.T) {
	assert.NotPanics(t, func() {
		SetAttribute(nil, "k", "v")
		RecordError(nil, errors.New("x"))
		SetOK(nil)
	})
}

func TestNewTracerProvider_Disabled(t *testing.T) {
	tp, err := NewTracerProvider(context.Background(), Config{Enabled: false}, zap.NewNop())
	require.NoError(t, err)
	assert.False(t, tp.IsEnabled())
	assert.NotNil(t, tp.Tracer("x"))
	assert.NoError(t, tp.Shutdown(context.Background()))
}

func TestNewTracerProvider_Stdout(t *testing.T) {
	prev := otel.GetTracerProvider()
	t.Cleanup(func() { otel.SetTracerProvider(prev) })

	var buf safeBuffer
	tp, err := NewTracerProvider(context.Background(), Config{
		Enabled:       true,
		Exporter:      "stdout",
		SamplingRatio: 1.0,
		ServiceName:   "storefront-test",
		StdoutWriter:  &buf,
	}, zap.NewNop())
	require.NoError(t, err)
	assert.True(t, tp.IsEnabled())

	_, span := StartSpan(context.Background(), "catalog.load")
	span.End()
	require.NoError(t, tp.Shutdown(context.Background()))

	assert.Contains(t, buf.String(), "catalog.load")
}
