package tracing

import (
	"context"
	"errors"
	"testing"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	coreconfig "github.com/m3rciful/demobot/core/config"
	"github.com/m3rciful/demobot/core/logger"
)

func TestStartPropagatesIDsToLogContext(t *testing.T) {
	rec := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() { otel.SetTracerProvider(prev) })

	ctx, span := Start(context.Background(), "handler.start")
	if logger.TraceIDFrom(ctx) != span.SpanContext().TraceID().String() {
		t.Fatal("trace id not propagated to log context")
	}
	if logger.SpanIDFrom(ctx) == "" {
		t.Fatal("span id not propagated to log context")
	}
	End(span, errors.New("boom"))

	ended := rec.Ended()
	if len(ended) != 1 {
		t.Fatalf("ended spans = %d", len(ended))
	}
	if ended[0].Name() != "handler.start" || ended[0].Status().Code != codes.Error {
		t.Fatalf("unexpected span %q status %v", ended[0].Name(), ended[0].Status())
	}
}

func TestSetupWithoutEndpoint(t *testing.T) {
	prev := otel.GetTracerProvider()
	t.Cleanup(func() { otel.SetTracerProvider(prev) })

	shutdown, err := Setup(context.Background(), coreconfig.TracingConfig{ServiceName: "demobot-test", SampleRatio: 1})
	if err != nil {
		t.Fatalf("setup: %v", err)
	}
	ctx, span := Start(context.Background(), "probe")
	if logger.TraceIDFrom(ctx) == "" {
		t.Fatal("expected sampled span with trace id")
	}
	End(span, nil)
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
}
