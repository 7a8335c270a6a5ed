package log

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandlerPrintsModuleAndAttrs(t *testing.T) {
	var out bytes.Buffer
	logger := slog.New(NewHandler(&out, &slog.HandlerOptions{Level: slog.LevelDebug}))

	logger.With("module", "bridge").Info("drained", "frames", 3, "pending", 0)

	line := out.String()
	assert.Contains(t, line, "[bridge] ")
	assert.Contains(t, line, "drained")
	assert.Contains(t, line, "frames=")
	assert.Contains(t, line, "3")
	assert.NotContains(t, line, "module=")
	assert.Equal(t, byte('\n'), line[len(line)-1])
}

func TestHandlerRespectsLevel(t *testing.T) {
	var out bytes.Buffer
	logger := slog.New(NewHandler(&out, &slog.HandlerOptions{Level: slog.LevelWarn}))

	logger.Info("hidden")
	assert.Empty(t, out.String())

	logger.Error("shown")
	assert.Contains(t, out.String(), "shown")
}

func TestParseLevel(t *testing.T) {
	level, err := ParseLevel("debug")
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, level)

	level, err = ParseLevel("")
	require.NoError(t, err)
	assert.Equal(t, slog.LevelInfo, level)

	_, err = ParseLevel("loud")
	assert.Error(t, err)
}
