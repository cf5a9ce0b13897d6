package logger

import (
	"context"
	"testing"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]zapcore.Level{
		"debug":   zapcore.DebugLevel,
		"WARN":    zapcore.WarnLevel,
		"error":   zapcore.ErrorLevel,
		"info":    zapcore.InfoLevel,
		"unknown": zapcore.InfoLevel,
	}
	for in, want := range tests {
		if got := parseLevel(in); got != want {
			t.Errorf("parseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestInfoContext_AddsTraceFields(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	l := &Logger{Logger: zap.New(core)}

	sc := trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    trace.TraceID{0x01, 0x02},
		SpanID:     trace.SpanID{0x03},
		TraceFlags: trace.FlagsSampled,
	})
	ctx := trace.ContextWithSpanContext(context.Background(), sc)

	l.InfoContext(ctx, "traced", zap.String("k", "v"))
	l.InfoContext(context.Background(), "untraced")

	entries := logs.All()
	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["trace_id"] != sc.TraceID().String() {
		t.Errorf("trace_id = %v, want %s", fields["trace_id"], sc.TraceID())
	}
	if fields["k"] != "v" {
		t.Errorf("k = %v, want v", fields["k"])
	}
	if _, ok := entries[1].ContextMap()["trace_id"]; ok {
		t.Error("untraced entry carries trace_id")
	}
}

func TestGet_NopBeforeInit(t *testing.T) {
	mu.Lock()
	saved := globalLogger
	globalLogger = nil
	mu.Unlock()
	t.Cleanup(func() {
		mu.Lock()
		globalLogger = saved
		mu.Unlock()
	})

	if Get() == nil {
		t.Fatal("Get() = nil before Init")
	}
	Info("dropped")
}

func TestNew_ServiceField(t *testing.T) {
	l, err := New(&Config{Level: "debug", ServiceName: "store-auth"})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if l.Logger == nil {
		t.Fatal("New() returned empty logger")
	}
	if !l.Core().Enabled(zapcore.DebugLevel) {
		t.Error("debug level not enabled")
	}
}
