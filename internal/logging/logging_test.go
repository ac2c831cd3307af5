package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]Level{
		"debug":   Debug,
		"DEV":     Debug,
		"warning": Warn,
		"prod":    Error,
		"":        Info,
		"bogus":   Info,
	}
	for in, want := range cases {
		assert.Equal(t, want, ParseLevel(in), in)
	}
}

func TestLogAttachesRequestID(t *testing.T) {
	var buf bytes.Buffer
	logger := newSlogLogger(&buf, Debug)

	ctx := context.WithValue(context.Background(), RequestIDKey, "req-1")
	logger.Info(ctx, "hello", "room", "alpha")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "hello", line["msg"])
	assert.Equal(t, "alpha", line["room"])
	assert.Equal(t, "req-1", line["request_id"])
}

func TestLevelFiltersDebug(t *testing.T) {
	var buf bytes.Buffer
	logger := newSlogLogger(&buf, Warn)

	logger.Debug(context.Background(), "hidden")
	logger.Info(context.Background(), "hidden too")
	assert.Empty(t, buf.String())

	logger.Warn(context.Background(), "shown")
	assert.Contains(t, buf.String(), "shown")
}

func TestNewFileLoggerCreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "server.log")

	logger, err := NewFileLogger(path, false, Info)
	require.NoError(t, err)
	logger.Info(context.Background(), "written")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "written")
}

func TestWithAddsComponent(t *testing.T) {
	var buf bytes.Buffer
	logger := newSlogLogger(&buf, Info).With("component", "signaling")

	logger.Info(context.Background(), "scoped")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "signaling", line["component"])
}
