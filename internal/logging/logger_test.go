package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/m-mizutani/gt"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"":      slog.LevelInfo,
		"debug": slog.LevelDebug,
		"info":  slog.LevelInfo,
		"WARN":  slog.LevelWarn,
		"error": slog.LevelError,
	}
	for in, want := range cases {
		got, err := ParseLevel(in)
		gt.NoError(t, err)
		gt.Equal(t, got, want)
	}
	_, err := ParseLevel("verbose")
	gt.Error(t, err)
}

func TestNewFiltersByLevel(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(&buf, "warn")
	gt.NoError(t, err)
	logger.Info("hidden")
	logger.Warn("shown", slog.String("task", "sternberg"))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	gt.A(t, lines).Length(1)
	var rec map[string]any
	gt.NoError(t, json.Unmarshal([]byte(lines[0]), &rec))
	gt.Equal(t, rec["msg"], any("shown"))
	gt.Equal(t, rec["task"], any("sternberg"))
}

func TestOpenAppendsToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "battery.log")
	for i := 0; i < 2; i++ {
		logger, closer, err := Open(path, "info")
		gt.NoError(t, err)
		logger.Info("session started")
		gt.NoError(t, closer.Close())
	}
	b, err := os.ReadFile(path)
	gt.NoError(t, err)
	gt.Equal(t, strings.Count(string(b), "session started"), 2)
}

func TestOpenDiscard(t *testing.T) {
	logger, closer, err := Open("-", "debug")
	gt.NoError(t, err)
	logger.Debug("nothing")
	gt.NoError(t, closer.Close())
}
