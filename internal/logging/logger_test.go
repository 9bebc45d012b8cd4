package logging_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"comicflow/internal/config"
	"comicflow/internal/logging"
	"comicflow/internal/services"
)

func TestNewFromConfigWritesLogFile(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.LogDir = t.TempDir()

	logger, closer, err := logging.NewFromConfig(&cfg)
	if err != nil {
		t.Fatalf("NewFromConfig returned error: %v", err)
	}
	defer closer.Close()
	logger.Info("hello from config")

	content, err := os.ReadFile(filepath.Join(cfg.Paths.LogDir, "comicflow.log"))
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(content), "hello from config") {
		t.Fatalf("expected message in log file, got %q", content)
	}
}

func TestNewFromConfigCloserReleasesLogFile(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.LogDir = t.TempDir()

	logger, closer, err := logging.NewFromConfig(&cfg)
	if err != nil {
		t.Fatalf("NewFromConfig: %v", err)
	}
	logger.Info("before close")
	if err := closer.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := closer.Close(); err == nil {
		t.Fatal("expected second close to report the file already closed")
	}

	_, noFile, err := logging.NewFromConfig(nil)
	if err != nil {
		t.Fatalf("NewFromConfig(nil): %v", err)
	}
	if err := noFile.Close(); err != nil {
		t.Fatalf("close without log file: %v", err)
	}
}

func TestConsoleHandlerOmitsSourceForInfo(t *testing.T) {
	var buf bytes.Buffer
	handler, err := logging.NewHandler(&buf, "console", "info", false)
	if err != nil {
		t.Fatalf("NewHandler: %v", err)
	}
	logger := slog.New(handler)
	logger.Info("message without caller")

	if strings.Contains(buf.String(), ".go:") {
		t.Fatalf("expected no caller information in info logs, got %q", buf.String())
	}
}

func TestConsoleHandlerIncludesSourceForDebug(t *testing.T) {
	var buf bytes.Buffer
	handler, err := logging.NewHandler(&buf, "console", "debug", false)
	if err != nil {
		t.Fatalf("NewHandler: %v", err)
	}
	slog.New(handler).Info("message with caller")

	if !strings.Contains(buf.String(), ".go:") {
		t.Fatalf("expected caller information in debug logs, got %q", buf.String())
	}
}

func TestConsoleHandlerFormatsSubject(t *testing.T) {
	var buf bytes.Buffer
	handler, err := logging.NewHandler(&buf, "console", "info", false)
	if err != nil {
		t.Fatalf("NewHandler: %v", err)
	}
	logger := logging.NewComponentLogger(slog.New(handler), "generation")
	logger.Info("shot generated",
		logging.String(logging.FieldRunID, "run-1"),
		logging.String(logging.FieldStage, "generate"),
		logging.String(logging.FieldShotID, "S01"),
		logging.String("effective_mode", "keyframes"),
	)

	line := buf.String()
	for _, want := range []string{"INFO", "generation: ", "[run-1 · generate · shot S01]", "shot generated", "effective_mode=keyframes"} {
		if !strings.Contains(line, want) {
			t.Fatalf("expected %q in %q", want, line)
		}
	}
	if strings.Contains(line, "run_id=") {
		t.Fatalf("run_id should collapse into the subject, got %q", line)
	}
}

func TestJSONHandlerUsesLowercaseLevel(t *testing.T) {
	var buf bytes.Buffer
	handler, err := logging.NewHandler(&buf, "json", "debug", false)
	if err != nil {
		t.Fatalf("NewHandler: %v", err)
	}
	slog.New(handler).Warn("json message", logging.String("k", "v"))

	var payload map[string]any
	if err := json.Unmarshal(buf.Bytes(), &payload); err != nil {
		t.Fatalf("decode json line: %v", err)
	}
	if payload["level"] != "warn" {
		t.Fatalf("level = %v, want warn", payload["level"])
	}
	if payload["k"] != "v" {
		t.Fatalf("k = %v, want v", payload["k"])
	}
	if _, ok := payload["ts"]; !ok {
		t.Fatalf("expected ts key, got %v", payload)
	}
}

func TestNewHandlerRejectsUnknownFormat(t *testing.T) {
	if _, err := logging.NewHandler(&bytes.Buffer{}, "xml", "info", false); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestParseLevelDefaultsToInfo(t *testing.T) {
	if got := logging.ParseLevel("invalid"); got.String() != "INFO" {
		t.Fatalf("ParseLevel(invalid) = %v, want INFO", got)
	}
	if got := logging.ParseLevel(" WARNING "); got.String() != "WARN" {
		t.Fatalf("ParseLevel(WARNING) = %v, want WARN", got)
	}
}

func TestWithContextAddsFields(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithRunID(ctx, "run-42")
	ctx = services.WithStage(ctx, "generate")
	ctx = services.WithShotID(ctx, "S02")
	ctx = services.WithRequestID(ctx, "req-xyz")

	var buf bytes.Buffer
	handler, err := logging.NewHandler(&buf, "json", "info", false)
	if err != nil {
		t.Fatalf("NewHandler: %v", err)
	}
	logging.WithContext(ctx, slog.New(handler)).Info("contextual log")

	var payload map[string]any
	if err := json.Unmarshal(buf.Bytes(), &payload); err != nil {
		t.Fatalf("decode json line: %v", err)
	}
	want := map[string]string{
		logging.FieldRunID:         "run-42",
		logging.FieldStage:         "generate",
		logging.FieldShotID:        "S02",
		logging.FieldCorrelationID: "req-xyz",
	}
	for key, value := range want {
		if payload[key] != value {
			t.Fatalf("field %s = %v, want %s", key, payload[key], value)
		}
	}
}

func TestStageOverrideLowersLevelForOneStage(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.LogDir = t.TempDir()
	cfg.Logging.Level = "warn"
	cfg.Logging.StageOverrides = map[string]string{"generate": "debug"}

	logger, closer, err := logging.NewFromConfig(&cfg)
	if err != nil {
		t.Fatalf("NewFromConfig: %v", err)
	}
	defer closer.Close()
	logger.Info("global info dropped")
	logging.ForStage(logger, &cfg, "generate").Debug("stage debug kept")
	logging.ForStage(logger, &cfg, "plan").Info("plan info dropped")

	content, err := os.ReadFile(filepath.Join(cfg.Paths.LogDir, "comicflow.log"))
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	text := string(content)
	if strings.Contains(text, "global info dropped") || strings.Contains(text, "plan info dropped") {
		t.Fatalf("expected info lines to be filtered, got %q", text)
	}
	if !strings.Contains(text, "stage debug kept") {
		t.Fatalf("expected generate debug line, got %q", text)
	}
}

func TestWarnWithContextInjectsDefaults(t *testing.T) {
	var buf bytes.Buffer
	handler, err := logging.NewHandler(&buf, "json", "info", false)
	if err != nil {
		t.Fatalf("NewHandler: %v", err)
	}
	logging.WarnWithContext(slog.New(handler), "mode downgraded", "mode_downgrade",
		logging.String(logging.FieldImpact, "shot generated with i2v"))

	var payload map[string]any
	if err := json.Unmarshal(buf.Bytes(), &payload); err != nil {
		t.Fatalf("decode json line: %v", err)
	}
	if payload[logging.FieldEventType] != "mode_downgrade" {
		t.Fatalf("event_type = %v", payload[logging.FieldEventType])
	}
	if payload[logging.FieldErrorHint] == nil {
		t.Fatal("expected default error_hint")
	}
	if payload[logging.FieldImpact] != "shot generated with i2v" {
		t.Fatalf("impact overwritten: %v", payload[logging.FieldImpact])
	}
}
