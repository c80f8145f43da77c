// File: internal/observability/logger_test.go
package observability

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/JustinLungu/RugBotSim-JustinDiana/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// initToBuffer resets the global logger and points its console core at a buffer.
func initToBuffer(t *testing.T, cfg config.LoggerConfig) *bytes.Buffer {
	t.Helper()
	ResetForTest()
	t.Cleanup(ResetForTest)

	var buf bytes.Buffer
	Initialize(cfg, zapcore.AddSync(&buf))
	return &buf
}

func TestInitialize(t *testing.T) {
	t.Run("console logger colorizes levels", func(t *testing.T) {
		buf := initToBuffer(t, config.LoggerConfig{
			Level:       "debug",
			Format:      "console",
			ServiceName: "rugbot",
			Colors:      config.ColorConfig{Info: "green"},
		})

		GetLogger().Named("engine").Info("sample taken", zap.Int("class", 1))
		Sync()

		output := buf.String()
		assert.Contains(t, output, ansiColors["green"]+"INFO"+colorReset)
		assert.Contains(t, output, "[rugbot.engine]")
		assert.Contains(t, output, "sample taken")
		assert.Contains(t, output, `"class": 1`)
	})

	t.Run("json logger emits structured entries", func(t *testing.T) {
		buf := initToBuffer(t, config.LoggerConfig{
			Level:       "info",
			Format:      "json",
			ServiceName: "JSONTest",
		})

		GetLogger().Warn("Unsupported file formatting in world file", zap.Int("line", 3))
		Sync()

		var entry map[string]interface{}
		require.NoError(t, json.Unmarshal(buf.Bytes(), &entry), "log output should be valid JSON")
		assert.Equal(t, "WARN", entry["level"])
		assert.Equal(t, "JSONTest", entry["logger"])
		assert.Equal(t, "Unsupported file formatting in world file", entry["msg"])
		assert.Equal(t, float64(3), entry["line"])
	})

	t.Run("level filtering drops debug entries", func(t *testing.T) {
		buf := initToBuffer(t, config.LoggerConfig{Level: "warn", Format: "json"})

		GetLogger().Debug("hidden")
		GetLogger().Info("hidden too")
		Sync()
		assert.Empty(t, buf.String())
	})

	t.Run("unknown level falls back to info", func(t *testing.T) {
		buf := initToBuffer(t, config.LoggerConfig{Level: "loud", Format: "json"})

		GetLogger().Debug("hidden")
		GetLogger().Info("visible")
		Sync()
		assert.NotContains(t, buf.String(), "hidden")
		assert.Contains(t, buf.String(), "visible")
	})

	t.Run("file core writes a JSON time series", func(t *testing.T) {
		logPath := filepath.Join(t.TempDir(), "rugbot.log")
		initToBuffer(t, config.LoggerConfig{
			Level:       "debug",
			Format:      "console",
			ServiceName: "rugbot",
			LogFile:     logPath,
			MaxSize:     1,
		})

		GetLogger().Named("classifier").Error("classifier spawn failed")
		Sync()

		content, err := os.ReadFile(logPath)
		require.NoError(t, err)
		var entry map[string]interface{}
		require.NoError(t, json.Unmarshal(content, &entry))
		assert.Equal(t, "ERROR", entry["level"])
		assert.Equal(t, "classifier spawn failed", entry["event"])
		assert.Equal(t, "rugbot.classifier", entry["component"])
		assert.IsType(t, float64(0), entry["ts"], "timestamps are epoch seconds")
	})

	t.Run("file keeps sample entries the console filters out", func(t *testing.T) {
		logPath := filepath.Join(t.TempDir(), "rugbot.log")
		buf := initToBuffer(t, config.LoggerConfig{
			Level:   "warn",
			Format:  "json",
			LogFile: logPath,
		})

		GetLogger().Info("Sample", zap.Int("class", 1), zap.Float64("raw", 1.7))
		Sync()

		assert.Empty(t, buf.String())
		content, err := os.ReadFile(logPath)
		require.NoError(t, err)
		assert.Contains(t, string(content), `"event":"Sample"`)
		assert.Contains(t, string(content), `"raw":1.7`)
	})

	t.Run("file level can be raised", func(t *testing.T) {
		logPath := filepath.Join(t.TempDir(), "rugbot.log")
		initToBuffer(t, config.LoggerConfig{Level: "debug", Format: "json", LogFile: logPath, FileLevel: "error"})

		GetLogger().Info("Sample")
		GetLogger().Error("Classifier failed.")
		Sync()

		content, err := os.ReadFile(logPath)
		require.NoError(t, err)
		assert.NotContains(t, string(content), `"event":"Sample"`)
		assert.Contains(t, string(content), "Classifier failed.")
	})

	t.Run("only the first initialization wins", func(t *testing.T) {
		buf := initToBuffer(t, config.LoggerConfig{Level: "info", Format: "json", ServiceName: "First"})
		first := GetLogger()

		Initialize(config.LoggerConfig{Level: "debug", ServiceName: "Second"}, zapcore.AddSync(os.Stderr))
		second := GetLogger()

		assert.Same(t, first, second)
		second.Info("test")
		Sync()
		assert.True(t, strings.Contains(buf.String(), "First"))
		assert.False(t, strings.Contains(buf.String(), "Second"))
	})
}

func TestGetLogger(t *testing.T) {
	t.Run("returns a fallback before initialization", func(t *testing.T) {
		ResetForTest()
		require.NotNil(t, GetLogger())
	})

	t.Run("returns the stored logger after initialization", func(t *testing.T) {
		initToBuffer(t, config.LoggerConfig{Level: "info", ServiceName: "GlobalTest"})
		assert.Same(t, globalLogger.Load(), GetLogger())
	})
}
