package logger

import (
	"context"
	"log/slog"
	"testing"
)

func TestInitLevels(t *testing.T) {
	Init("debug", "json")
	if !L.Enabled(context.Background(), slog.LevelDebug) {
		t.Error("expected debug level to be enabled")
	}

	Init("warn", "text")
	if L.Enabled(context.Background(), slog.LevelInfo) {
		t.Error("expected info level to be disabled at warn")
	}
}

func TestParseLevelDefaultsToInfo(t *testing.T) {
	if got := parseLevel("bogus"); got != slog.LevelInfo {
		t.Errorf("parseLevel(bogus) = %v, want info", got)
	}
	if got := parseLevel("ERROR"); got != slog.LevelError {
		t.Errorf("parseLevel(ERROR) = %v, want error", got)
	}
}

func TestContextRoundTrip(t *testing.T) {
	Init("info", "text")
	custom := L.With(slog.String("request_id", "r1"))
	ctx := WithContext(context.Background(), custom)
	if got := FromContext(ctx); got != custom {
		t.Fatal("FromContext did not return the stored logger")
	}
	if got := FromContext(context.Background()); got != L {
		t.Fatal("FromContext without value should return the global logger")
	}
}
