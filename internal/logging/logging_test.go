// ABOUTME: Tests for logger construction and the colorized handler
// ABOUTME: Runs with colors disabled so output can be matched as plain text

package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2389/agclient/internal/config"
)

func withoutColor(t *testing.T) {
	t.Helper()
	prev := color.NoColor
	color.NoColor = true
	t.Cleanup(func() { color.NoColor = prev })
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("debug"))
	assert.Equal(t, slog.LevelInfo, ParseLevel("info"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("WARN"))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel(""))
	assert.Equal(t, slog.LevelInfo, ParseLevel("chatty"))
}

func TestNew_ColorHandlerFormatsLine(t *testing.T) {
	withoutColor(t)
	var buf bytes.Buffer
	logger := New(config.LoggingConfig{Level: "info"}, &buf)

	logger.With("component", "agclient").Info("request", "status", 200)

	line := buf.String()
	assert.Contains(t, line, "INF request component=agclient status=200")
	assert.True(t, strings.HasSuffix(line, "\n"))
}

func TestNew_ColorHandlerRespectsLevel(t *testing.T) {
	withoutColor(t)
	var buf bytes.Buffer
	logger := New(config.LoggingConfig{Level: "warn"}, &buf)

	logger.Info("hidden")
	logger.Debug("hidden too")
	logger.Warn("shown")
	logger.Error("also shown")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "WRN shown")
	assert.Contains(t, out, "ERR also shown")
}

func TestNew_ColorHandlerGroups(t *testing.T) {
	withoutColor(t)
	var buf bytes.Buffer
	logger := New(config.LoggingConfig{Level: "debug"}, &buf)

	logger.WithGroup("req").Debug("sent", "method", "GET", slog.Group("auth", "user", "test"))

	assert.Contains(t, buf.String(), "DBG sent req.method=GET req.auth.user=test")
}

func TestNew_JSONHandler(t *testing.T) {
	var buf bytes.Buffer
	logger := New(config.LoggingConfig{Level: "debug", Format: "json"}, &buf)

	logger.Debug("request", "url", "http://localhost:10035/catalogs")

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "request", rec["msg"])
	assert.Equal(t, "DEBUG", rec["level"])
	assert.Equal(t, "http://localhost:10035/catalogs", rec["url"])
}
