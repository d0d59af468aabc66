package telemetry

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	cases := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"DEBUG", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", slog.LevelInfo},
		{"verbose", slog.LevelInfo},
	}
	for _, tc := range cases {
		if got := parseLevel(tc.in); got != tc.want {
			t.Errorf("parseLevel(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestBuildHandler_JSON(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(buildHandler("json", &buf, slog.LevelInfo))
	logger.Info("user locked", "user_id", "user-42")

	line := strings.TrimSpace(buf.String())
	var obj map[string]interface{}
	if err := json.Unmarshal([]byte(line), &obj); err != nil {
		t.Fatalf("json handler output is not valid JSON: %v\noutput: %s", err, line)
	}
	if obj["msg"] != "user locked" {
		t.Errorf("msg = %v, want user locked", obj["msg"])
	}
	if obj["user_id"] != "user-42" {
		t.Errorf("user_id = %v, want user-42", obj["user_id"])
	}
}

func TestBuildHandler_TextFallback(t *testing.T) {
	for _, format := range []string{"text", "", "yaml"} {
		var buf bytes.Buffer
		logger := slog.New(buildHandler(format, &buf, slog.LevelInfo))
		logger.Info("startup", "addr", ":8080")

		out := buf.String()
		if !strings.Contains(out, "startup") || !strings.Contains(out, "addr=:8080") {
			t.Errorf("format %q: text output missing expected fields: %q", format, out)
		}
	}
}

func TestBuildHandler_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(buildHandler("json", &buf, slog.LevelWarn))
	logger.Info("suppressed record")
	logger.Warn("visible record")

	out := buf.String()
	if strings.Contains(out, "suppressed record") {
		t.Error("info record appeared despite warn-level filter")
	}
	if !strings.Contains(out, "visible record") {
		t.Error("warn record was suppressed")
	}
}

func TestBuildHandler_DebugAddsSource(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(buildHandler("json", &buf, slog.LevelDebug))
	logger.Debug("tracing")

	if !strings.Contains(buf.String(), "source") {
		t.Errorf("debug-level record lacks source attribution: %q", buf.String())
	}
}

func TestSetupLogger_DoesNotPanic(t *testing.T) {
	defer SetupLogger("text", "error", "stdout") // quiet default for the rest of the binary

	for _, format := range []string{"json", "text", ""} {
		for _, level := range []string{"debug", "info", "bogus"} {
			SetupLogger(format, level, "stderr")
		}
	}
}
