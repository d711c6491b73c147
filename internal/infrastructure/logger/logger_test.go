package logger

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zapcore.DebugLevel, parseLevel("DEBUG"))
	assert.Equal(t, zapcore.WarnLevel, parseLevel("warning"))
	assert.Equal(t, zapcore.ErrorLevel, parseLevel("error"))
	assert.Equal(t, zapcore.InfoLevel, parseLevel("nonsense"))
}

func TestNewWithWriter_JSON(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter(&Config{Level: "info", Format: "json"}, &buf)

	l.Debug("hidden")
	l.Info("cart updated")
	require.NoError(t, l.Sync())

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "cart updated", entry["msg"])
	assert.Equal(t, "info", entry["level"])
}

func TestNew_FileOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "storefront.log")

	l, err := New(&Config{Level: "warn", Format: "json", Output: path})
	require.NoError(t, err)
	l.Warn("written")
	require.NoError(t, l.Sync())

	assert.FileExists(t, path)
}

func TestCLIConfig(t *testing.T) {
	cfg := CLIConfig()
	assert.Equal(t, "warn", cfg.Level)
	assert.Equal(t, "stderr", cfg.Output)

	l, err := New(cfg)
	require.NoError(t, err)
	assert.NotNil(t, l)
}
