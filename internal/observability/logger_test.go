// File: internal/observability/logger_test.go
package observability

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"github.com/raylty/linkcheck-cli/internal/config"
)

// syncBuffer adapts bytes.Buffer to zapcore.WriteSyncer.
type syncBuffer struct {
	bytes.Buffer
}

func (b *syncBuffer) Sync() error { return nil }

func TestInitializeConsoleLogger(t *testing.T) {
	ResetForTest()
	t.Cleanup(ResetForTest)

	buf := &syncBuffer{}
	Initialize(config.LoggerConfig{
		Level:       "debug",
		Format:      "console",
		ServiceName: "linkcheck-test",
		Colors:      config.ColorConfig{Info: "green"},
	}, buf)

	logger := GetLogger()
	require.NotNil(t, logger)
	logger.Info("hello from the console encoder")

	out := buf.String()
	assert.Contains(t, out, "hello from the console encoder")
	assert.Contains(t, out, "linkcheck-test.")
	// Colorized level for "info" configured as green.
	assert.Contains(t, out, "\x1b[32mINFO\x1b[0m")
}

func TestInitializeJSONLogger(t *testing.T) {
	ResetForTest()
	t.Cleanup(ResetForTest)

	buf := &syncBuffer{}
	Initialize(config.LoggerConfig{
		Level:       "info",
		Format:      "json",
		ServiceName: "linkcheck-test",
	}, buf)

	GetLogger().Info("structured entry")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "INFO", entry["level"])
	assert.Equal(t, "structured entry", entry["msg"])
}

func TestLevelFiltering(t *testing.T) {
	ResetForTest()
	t.Cleanup(ResetForTest)

	buf := &syncBuffer{}
	Initialize(config.LoggerConfig{Level: "warn", Format: "json", ServiceName: "t"}, buf)

	GetLogger().Info("should be dropped")
	GetLogger().Warn("should be kept")

	out := buf.String()
	assert.NotContains(t, out, "should be dropped")
	assert.Contains(t, out, "should be kept")
}

func TestFileCoreWritesJSON(t *testing.T) {
	ResetForTest()
	t.Cleanup(ResetForTest)

	logFile := filepath.Join(t.TempDir(), "linkcheck.log")
	buf := &syncBuffer{}
	Initialize(config.LoggerConfig{
		Level:       "info",
		Format:      "console",
		ServiceName: "t",
		LogFile:     logFile,
		MaxSize:     1,
	}, buf)

	GetLogger().Info("to both cores")
	Sync()

	data, err := os.ReadFile(logFile)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"to both cores"`)
}

func TestGetLoggerFallback(t *testing.T) {
	ResetForTest()
	t.Cleanup(ResetForTest)

	// Without initialization the accessor must still hand back a usable logger.
	logger := GetLogger()
	require.NotNil(t, logger)
	assert.NotPanics(t, func() { logger.Info("fallback works") })
}

func TestInitializeIsIdempotent(t *testing.T) {
	ResetForTest()
	t.Cleanup(ResetForTest)

	first := &syncBuffer{}
	second := &syncBuffer{}
	Initialize(config.LoggerConfig{Level: "info", Format: "json", ServiceName: "a"}, first)
	Initialize(config.LoggerConfig{Level: "info", Format: "json", ServiceName: "b"}, second)

	GetLogger().Info("only the first writer sees this")
	assert.Contains(t, first.String(), "only the first writer sees this")
	assert.Empty(t, second.String())
}

var _ zapcore.WriteSyncer = (*syncBuffer)(nil)
