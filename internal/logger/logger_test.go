package logger

import (
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestConfigForModes(t *testing.T) {
	tests := []struct {
		mode string
		want zapcore.Level
	}{
		{"production", zapcore.InfoLevel},
		{"prod", zapcore.InfoLevel},
		{" PRODUCTION ", zapcore.InfoLevel},
		{"development", zapcore.DebugLevel},
		{"dev", zapcore.DebugLevel},
		{"", zapcore.DebugLevel},
		{"anything-else", zapcore.DebugLevel},
	}
	for _, tt := range tests {
		if got := configFor(tt.mode).Level.Level(); got != tt.want {
			t.Errorf("configFor(%q) level = %v, want %v", tt.mode, got, tt.want)
		}
	}
}

func TestNewAndWith(t *testing.T) {
	log, err := New("dev")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	child := log.With("component", "test")
	if child == nil || child.SugaredLogger == nil {
		t.Fatal("With returned an unusable logger")
	}
	var nilLog *Logger
	nilLog.Sync() // must not panic
}
