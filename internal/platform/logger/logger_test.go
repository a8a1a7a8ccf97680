package logger

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestLoggerConfig_ZapLevel(t *testing.T) {
	cases := map[string]zapcore.Level{
		"debug":   zapcore.DebugLevel,
		"info":    zapcore.InfoLevel,
		"warn":    zapcore.WarnLevel,
		"warning": zapcore.WarnLevel,
		"error":   zapcore.ErrorLevel,
		"bogus":   zapcore.InfoLevel,
	}
	for level, want := range cases {
		cfg := &LoggerConfig{Level: level}
		assert.Equal(t, want, cfg.ZapLevel(), level)
	}
}

func TestLoggerConfig_ShouldLog(t *testing.T) {
	cfg := &LoggerConfig{Level: "warn"}
	assert.False(t, cfg.ShouldLog("info"))
	assert.True(t, cfg.ShouldLog("warn"))
	assert.True(t, cfg.ShouldLog("ERROR"))
	assert.False(t, cfg.ShouldLog("nonsense"))
}

func TestNewWithConfig_WritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "app.log")
	log := NewWithConfig(&LoggerConfig{Level: "info", Format: "json", OutputFile: path})
	require.NotNil(t, log)

	log.Named("test").Info("hello", "listing_id", "abc")
	_ = log.Sync()
	assert.FileExists(t, path)
}

func TestNewNop(t *testing.T) {
	log := NewNop()
	log.Info("dropped", "k", "v")
	log.With("k", "v").Error("dropped too")
}
