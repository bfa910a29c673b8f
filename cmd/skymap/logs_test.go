package main

import (
	"testing"

	"github.com/go-kit/kit/log/level"
)

func TestPanelLogger(t *testing.T) {
	lm := NewLogManager(2)
	logger := lm.Logger()

	level.Warn(logger).Log("msg", "slew refused", "separation", 3.5, "component", "engine")
	logger.Log("msg", "plain")
	level.Error(logger).Log("msg", "mount offline")

	if len(lm.messages) != 2 {
		t.Fatalf("Kept %d messages, want 2", len(lm.messages))
	}

	tests := []struct {
		got   LogMessage
		level LogLevel
		text  string
	}{
		{lm.messages[0], LogLevelInfo, "plain"},
		{lm.messages[1], LogLevelError, "mount offline"},
	}
	for _, tt := range tests {
		if tt.got.Level != tt.level || tt.got.Message != tt.text {
			t.Errorf("Got %s %q, want %s %q", tt.got.Level, tt.got.Message, tt.level, tt.text)
		}
	}
}

func TestPanelLoggerFields(t *testing.T) {
	lm := NewLogManager(10)
	level.Warn(lm.Logger()).Log("msg", "slew refused", "separation", 3.5, "component", "engine")

	got := lm.messages[0]
	if got.Level != LogLevelWarn {
		t.Errorf("Level = %s, want WARN", got.Level)
	}
	if got.Message != "slew refused separation=3.5" {
		t.Errorf("Message = %q, want component dropped and fields appended", got.Message)
	}
}
