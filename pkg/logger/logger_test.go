package logger

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNamedLoggerWritesFields(t *testing.T) {
	SetLevel(slog.LevelInfo)

	var buf bytes.Buffer

	log := New(&buf).Named("dashboard").Named("app")
	log.Error(context.Background(), "fetch failed",
		String("endpoint", "/api/devices"), Error(errors.New("boom")))

	out := buf.String()
	assert.Contains(t, out, "logger=dashboard.app")
	assert.Contains(t, out, "endpoint=/api/devices")
	assert.Contains(t, out, "error=boom")
	assert.Contains(t, out, `msg="fetch failed"`)
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer

	log := New(&buf)

	require.NoError(t, SetLevelString("warn"))
	defer SetLevel(slog.LevelInfo)

	log.Info(context.Background(), "hidden")
	log.Warn(context.Background(), "shown")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
}

func TestSetLevelString(t *testing.T) {
	for _, lvl := range []string{"debug", "info", "", "WARNING", "error"} {
		assert.NoError(t, SetLevelString(lvl), lvl)
	}

	assert.Error(t, SetLevelString("verbose"))

	SetLevel(slog.LevelInfo)
}
