package logger

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestToZapLevel(t *testing.T) {
	cases := map[string]zapcore.Level{
		DebugLevel: zapcore.DebugLevel,
		InfoLevel:  zapcore.InfoLevel,
		WarnLevel:  zapcore.WarnLevel,
		ErrorLevel: zapcore.ErrorLevel,
		"bogus":    zapcore.InfoLevel,
	}
	for in, want := range cases {
		if got := toZapLevel(in); got != want {
			t.Errorf("toZapLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestNew_WritesStructuredJSONAndFiltersLevel(t *testing.T) {
	var buf bytes.Buffer
	log := New(WarnLevel, &buf)

	log.Infow("dropped_event", "k", "v")
	log.Warnw("user_create_failed", "username", "alice")
	_ = log.Sync()

	out := strings.TrimSpace(buf.String())
	if strings.Contains(out, "dropped_event") {
		t.Fatalf("info line should be filtered at warn level: %s", out)
	}

	var line map[string]any
	if err := json.Unmarshal([]byte(out), &line); err != nil {
		t.Fatalf("not JSON: %v (%s)", err, out)
	}
	if line["msg"] != "user_create_failed" || line["username"] != "alice" || line["level"] != "warn" {
		t.Fatalf("unexpected line: %v", line)
	}
}

func TestValidLevel(t *testing.T) {
	for _, l := range []string{DebugLevel, InfoLevel, WarnLevel, ErrorLevel} {
		if !ValidLevel(l) {
			t.Errorf("ValidLevel(%q) = false", l)
		}
	}
	if ValidLevel("trace") {
		t.Errorf("ValidLevel(trace) = true")
	}
}
