package telemetry

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"
)

// useSpanRecorder installs a recording tracer provider globally for the test.
func useSpanRecorder(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()

	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	previous := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() {
		otel.SetTracerProvider(previous)
		_ = tp.Shutdown(context.Background())
	})
	return recorder
}

func attrMap(attrs []attribute.KeyValue) map[string]attribute.Value {
	m := make(map[string]attribute.Value, len(attrs))
	for _, a := range attrs {
		m[string(a.Key)] = a.Value
	}
	return m
}

func TestStartSpan(t *testing.T) {
	recorder := useSpanRecorder(t)
	channelID := uuid.New()

	ctx, span := StartSpan(context.Background(), "inventory_sync.run",
		WithAttribute(SpanAttrSalesChannelID, channelID),
		WithAttribute(SpanAttrItemCount, 3),
		WithSpanKind(trace.SpanKindClient),
	)
	assert.NotEmpty(t, GetTraceID(ctx))
	assert.NotEmpty(t, GetSpanID(ctx))
	SetAttributes(span, SpanAttrSyncStatus, "SUCCESS", 42, "ignored", SpanAttrFailureCount, int64(0))
	AddEvent(span, "snapshot_saved", SpanAttrItemCount, 3)
	SetOK(span)
	span.End()

	ended := recorder.Ended()
	require.Len(t, ended, 1)
	s := ended[0]

	assert.Equal(t, "inventory_sync.run", s.Name())
	assert.Equal(t, trace.SpanKindClient, s.SpanKind())
	assert.Equal(t, codes.Ok, s.Status().Code)
	assert.Equal(t, TracerName, s.InstrumentationScope().Name)

	attrs := attrMap(s.Attributes())
	assert.Equal(t, channelID.String(), attrs[SpanAttrSalesChannelID].AsString())
	assert.Equal(t, int64(3), attrs[SpanAttrItemCount].AsInt64())
	assert.Equal(t, "SUCCESS", attrs[SpanAttrSyncStatus].AsString())
	assert.Equal(t, int64(0), attrs[SpanAttrFailureCount].AsInt64())

	require.Len(t, s.Events(), 1)
	assert.Equal(t, "snapshot_saved", s.Events()[0].Name)
}

func TestRecordError(t *testing.T) {
	recorder := useSpanRecorder(t)

	_, span := StartSpan(context.Background(), "pos.push_stock")
	RecordError(span, nil)
	RecordError(span, errors.New("bulk update rejected"))
	span.End()

	ended := recorder.Ended()
	require.Len(t, ended, 1)
	assert.Equal(t, codes.Error, ended[0].Status().Code)
	assert.Equal(t, "bulk update rejected", ended[0].Status().Description)
	require.Len(t, ended[0].Events(), 1)
	assert.Equal(t, "exception", ended[0].Events()[0].Name)
}

func TestGetTraceID_NoSpan(t *testing.T) {
	assert.Empty(t, GetTraceID(context.Background()))
	assert.Empty(t, GetSpanID(context.Background()))
}

func TestSpanHelpers_NilSpan(t *testing.T) {
	assert.NotPanics(t, func() {
		SetAttributes(nil, "k", "v")
		RecordError(nil, errors.New("x"))
		SetOK(nil)
		AddEvent(nil, "event")
	})
}

func TestToAttribute(t *testing.T) {
	tests := []struct {
		value interface{}
		want  attribute.Type
	}{
		{"s", attribute.STRING},
		{1, attribute.INT64},
		{int64(1), attribute.INT64},
		{1.5, attribute.FLOAT64},
		{true, attribute.BOOL},
		{[]string{"a"}, attribute.STRINGSLICE},
		{uuid.New(), attribute.STRING},
		{struct{}{}, attribute.STRING},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, toAttribute("k", tt.value).Value.Type())
	}
}
