package logger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestFromContext(t *testing.T) {
	assert.NotNil(t, FromContext(context.Background()))

	l := zap.NewExample()
	ctx := WithContext(context.Background(), l)
	assert.Same(t, l, FromContext(ctx))
}

func TestContextValues(t *testing.T) {
	ctx := WithRequestID(context.Background(), "req-1")
	ctx = WithSession(ctx, "wong", "u-7")

	assert.Equal(t, "req-1", GetRequestID(ctx))
	assert.Equal(t, "wong", GetTenantID(ctx))
	assert.Equal(t, "u-7", GetUserID(ctx))

	empty := WithSession(context.Background(), "", "")
	assert.Empty(t, GetTenantID(empty))
	assert.Empty(t, GetUserID(empty))
}

func TestL_EnrichesEntries(t *testing.T) {
	core, recorded := observer.New(zapcore.DebugLevel)
	ctx := WithContext(context.Background(), zap.New(core))
	ctx = WithRequestID(ctx, "req-9")
	ctx = WithSession(ctx, "tottus", "u-1")

	traceID, _ := trace.TraceIDFromHex("0102030405060708090a0b0c0d0e0f10")
	spanID, _ := trace.SpanIDFromHex("0102030405060708")
	ctx = trace.ContextWithSpanContext(ctx, trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    traceID,
		SpanID:     spanID,
		TraceFlags: trace.FlagsSampled,
	}))

	L(ctx).With(zap.String("op", "add")).Info("optimistic update committed")

	entries := recorded.All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "req-9", fields["request_id"])
	assert.Equal(t, "tottus", fields["tenant_id"])
	assert.Equal(t, "u-1", fields["user_id"])
	assert.Equal(t, "add", fields["op"])
	assert.Equal(t, traceID.String(), fields["trace_id"])
	assert.Equal(t, spanID.String(), fields["span_id"])
}

func TestL_WithoutLoggerDoesNotPanic(t *testing.T) {
	assert.NotPanics(t, func() {
		L(context.Background()).Warn("dropped")
		_ = L(context.Background()).Zap()
	})
}
