package logger

import (
	"context"
	"testing"

	"go.uber.org/zap"
)

func TestNewLogger_Environments(t *testing.T) {
	for _, env := range []string{"prod", "local", "dev", "docker"} {
		l, err := NewLogger(env)
		if err != nil {
			t.Errorf("NewLogger(%q) error: %v", env, err)
			continue
		}
		if l == nil {
			t.Errorf("NewLogger(%q) returned nil logger", env)
		}
	}
}

func TestNewLogger_UnknownEnvironment(t *testing.T) {
	_, err := NewLogger("staging-typo")
	if err == nil {
		t.Fatal("expected error for unknown environment")
	}
}

func TestNewLogger_LevelOverride(t *testing.T) {
	l, err := NewLogger("prod", "debug")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !l.Core().Enabled(zap.DebugLevel) {
		t.Error("debug level should be enabled after override")
	}
}

func TestNewLogger_InvalidLevel(t *testing.T) {
	_, err := NewLogger("prod", "loud")
	if err == nil {
		t.Fatal("expected error for invalid level")
	}
}

func TestContextRoundTrip(t *testing.T) {
	l := zap.NewNop()
	ctx := ContextWithLogger(context.Background(), l)
	if got := FromContext(ctx); got != l {
		t.Error("logger from context should be the stored instance")
	}
}

func TestFromContext_Missing(t *testing.T) {
	if got := FromContext(context.Background()); got == nil {
		t.Error("FromContext should fall back to a nop logger, not nil")
	}
}

func TestFromContextOr(t *testing.T) {
	fallback := zap.NewNop()
	if got := FromContextOr(context.Background(), fallback); got != fallback {
		t.Error("FromContextOr should return the fallback when context carries no logger")
	}

	stored := zap.NewNop()
	ctx := ContextWithLogger(context.Background(), stored)
	if got := FromContextOr(ctx, fallback); got != stored {
		t.Error("FromContextOr should prefer the stored logger")
	}
}
