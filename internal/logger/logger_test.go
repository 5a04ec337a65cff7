package logger

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"go.uber.org/zap/zapcore"

	"github.com/samvad-hq/samvad-api-client/internal/config"
)

func TestInitWritesStructuredJSON(t *testing.T) {
	var buf bytes.Buffer
	log, err := initWithWriter(&config.Config{AppName: "billing", DeployEnv: "develop", LogLevel: "info"}, &buf)
	if err != nil {
		t.Fatalf("initWithWriter: %v", err)
	}

	log.InfoObj("request sent", "request", map[string]any{"method": "GET"})
	log.DebugObj("hidden", "k", 1)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("expected debug to be filtered, got %d lines: %s", len(lines), buf.String())
	}
	var entry map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &entry); err != nil {
		t.Fatalf("decode log line: %v", err)
	}
	if entry["msg"] != "request sent" || entry["app"] != "billing" || entry["deploy_env"] != "develop" {
		t.Fatalf("unexpected entry %v", entry)
	}
	if _, ok := entry["ts"]; !ok {
		t.Fatalf("missing ts field: %v", entry)
	}
	req, ok := entry["request"].(map[string]any)
	if !ok || req["method"] != "GET" {
		t.Fatalf("object field not logged: %v", entry["request"])
	}
}

func TestPackageHelpersUseInitializedLogger(t *testing.T) {
	var buf bytes.Buffer
	if _, err := initWithWriter(nil, &buf); err != nil {
		t.Fatalf("initWithWriter: %v", err)
	}
	t.Cleanup(func() { S = nil })

	ErrorObj("boom", "error", "bad gateway")
	if !strings.Contains(buf.String(), `"error":"bad gateway"`) {
		t.Fatalf("package helper did not log: %s", buf.String())
	}
}

func TestParseLevel(t *testing.T) {
	tests := map[string]zapcore.Level{
		"debug":   zapcore.DebugLevel,
		" WARN ":  zapcore.WarnLevel,
		"warning": zapcore.WarnLevel,
		"error":   zapcore.ErrorLevel,
		"":        zapcore.InfoLevel,
		"verbose": zapcore.InfoLevel,
	}
	for raw, want := range tests {
		if got := parseLevel(raw); got != want {
			t.Fatalf("parseLevel(%q) = %v, want %v", raw, got, want)
		}
	}
}
