package logger

import (
	"context"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestNewLogger(t *testing.T) {
	tests := []struct {
		env     string
		level   string
		wantErr bool
	}{
		{"prod", "", false},
		{"staging", "warn", false},
		{"local", "debug", false},
		{"docker", "", false},
		{"moon", "", true},
		{"prod", "loud", true},
	}
	for _, tc := range tests {
		l, err := NewLogger(tc.env, tc.level)
		if (err != nil) != tc.wantErr {
			t.Errorf("NewLogger(%q, %q) err = %v, wantErr %v", tc.env, tc.level, err, tc.wantErr)
		}
		if err == nil && l == nil {
			t.Errorf("NewLogger(%q, %q) returned nil logger", tc.env, tc.level)
		}
	}
}

func TestNewLogger_LevelOverride(t *testing.T) {
	l, err := NewLogger("prod", "warn")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if l.Core().Enabled(zapcore.InfoLevel) {
		t.Error("info must be disabled at warn level")
	}
	if !l.Core().Enabled(zapcore.WarnLevel) {
		t.Error("warn must be enabled")
	}
}

func TestFromContext_DefaultsToNop(t *testing.T) {
	if FromContext(context.Background()) == nil {
		t.Fatal("expected a nop logger")
	}
}

func TestWith_AddsFields(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	ctx := WithContext(context.Background(), zap.New(core))

	ctx = With(ctx, Partition("market"), zap.String("request_id", "r-1"))
	FromContext(ctx).Info("searched")

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["partition"] != "market" {
		t.Errorf("partition = %v", fields["partition"])
	}
	if fields["request_id"] != "r-1" {
		t.Errorf("request_id = %v", fields["request_id"])
	}
}
