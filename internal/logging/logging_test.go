package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/goliatone/go-jsonform/internal/jsonx"
)

func TestNew_WritesJSONToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "jsonform.log")
	logger := New(Config{Level: "debug", Path: path, MaxSize: 1})
	logger.Debug("form rendered", zap.String("form", "team"))
	_ = logger.Sync()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	var entry map[string]any
	if err := jsonx.Unmarshal(bytes.TrimSpace(data), &entry); err != nil {
		t.Fatalf("decode log line %q: %v", data, err)
	}
	if entry["msg"] != "form rendered" || entry["form"] != "team" || entry["level"] != "debug" {
		t.Fatalf("unexpected entry %v", entry)
	}
}

func TestNew_LevelFilterAndFallback(t *testing.T) {
	path := filepath.Join(t.TempDir(), "jsonform.log")
	logger := New(Config{Level: "not-a-level", Path: path})
	logger.Debug("hidden")
	logger.Info("shown")
	_ = logger.Sync()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if strings.Contains(string(data), "hidden") || !strings.Contains(string(data), "shown") {
		t.Fatalf("unexpected log contents %q", data)
	}
}

func TestNew_NoOutputsIsNop(t *testing.T) {
	if New(Config{}).Core().Enabled(zapcore.ErrorLevel) {
		t.Fatalf("expected a disabled logger without outputs")
	}
}

func TestNewWriter(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWriter(&buf, zapcore.WarnLevel)
	logger.Info("skip")
	logger.Warn("keep")
	if strings.Contains(buf.String(), "skip") || !strings.Contains(buf.String(), "keep") {
		t.Fatalf("unexpected output %q", buf.String())
	}
}
