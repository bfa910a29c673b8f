package logging

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"

	"github.com/unklstewy/skyscope/pkg/config"
)

func TestNewFiltersByLevel(t *testing.T) {
	tests := []struct {
		level     string
		wantDebug bool
		wantInfo  bool
		wantWarn  bool
	}{
		{"debug", true, true, true},
		{"info", false, true, true},
		{"", false, true, true},
		{"warn", false, false, true},
		{"error", false, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			var buf bytes.Buffer
			logger, err := New(&buf, config.LoggingConfig{Level: tt.level})
			if err != nil {
				t.Fatalf("New failed: %v", err)
			}

			level.Debug(logger).Log("msg", "debug-line")
			level.Info(logger).Log("msg", "info-line")
			level.Warn(logger).Log("msg", "warn-line")

			out := buf.String()
			if got := strings.Contains(out, "debug-line"); got != tt.wantDebug {
				t.Errorf("debug logged = %v, want %v", got, tt.wantDebug)
			}
			if got := strings.Contains(out, "info-line"); got != tt.wantInfo {
				t.Errorf("info logged = %v, want %v", got, tt.wantInfo)
			}
			if got := strings.Contains(out, "warn-line"); got != tt.wantWarn {
				t.Errorf("warn logged = %v, want %v", got, tt.wantWarn)
			}
		})
	}
}

func TestNewJSONFormat(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(&buf, config.LoggingConfig{Level: "info", Format: "json"})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	level.Info(logger).Log("msg", "hello", "ra", 10.5)

	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("Output is not JSON: %v (%q)", err, buf.String())
	}
	if entry["msg"] != "hello" {
		t.Errorf("msg = %v, want hello", entry["msg"])
	}
	if entry["level"] != "info" {
		t.Errorf("level = %v, want info", entry["level"])
	}
	if _, ok := entry["ts"]; !ok {
		t.Error("Expected timestamp field")
	}
}

func TestNewRejectsUnknownSettings(t *testing.T) {
	var buf bytes.Buffer
	if _, err := New(&buf, config.LoggingConfig{Level: "loud"}); err == nil {
		t.Error("Expected error for unknown level")
	}
	if _, err := New(&buf, config.LoggingConfig{Format: "xml"}); err == nil {
		t.Error("Expected error for unknown format")
	}
}

func TestOrNop(t *testing.T) {
	if err := OrNop(nil).Log("msg", "discarded"); err != nil {
		t.Errorf("Nop logger returned error: %v", err)
	}
}

func TestFilter(t *testing.T) {
	var buf bytes.Buffer
	logger, err := Filter(log.NewLogfmtLogger(&buf), "warn")
	if err != nil {
		t.Fatalf("Filter: %v", err)
	}
	level.Info(logger).Log("msg", "hidden")
	level.Warn(logger).Log("msg", "shown")
	if strings.Contains(buf.String(), "hidden") || !strings.Contains(buf.String(), "shown") {
		t.Errorf("output = %q", buf.String())
	}

	if _, err := Filter(logger, "loud"); err == nil {
		t.Error("expected error for unknown level")
	}
}
