package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amosWeiskopf/sitegraph/internal/config"
)

func TestNewWithWriterJSON(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(&buf, "json", zerolog.InfoLevel)

	logger.Debug().Msg("hidden")
	logger.Info().Str("url", "http://example.com/").Msg("enqueued")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, `"level":"info"`)
	assert.Contains(t, out, `"url":"http://example.com/"`)
	assert.Contains(t, out, `"message":"enqueued"`)
}

func TestNewWithWriterConsole(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(&buf, "console", zerolog.DebugLevel)

	logger.Debug().Int("pages", 3).Msg("crawl finished")

	out := buf.String()
	assert.Contains(t, out, "crawl finished")
	assert.Contains(t, out, "pages=3")
	assert.NotContains(t, out, "{")
}

func TestNewToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sitegraph.log")

	logger, closer, err := New(config.LoggingConfig{Level: "warn", Format: "json", OutputPath: path})
	require.NoError(t, err)

	logger.Info().Msg("skipped")
	logger.Warn().Msg("kept")
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "skipped")
	assert.Contains(t, string(data), "kept")
}

func TestNewBadLevel(t *testing.T) {
	_, _, err := New(config.LoggingConfig{Level: "chatty", Format: "json"})
	assert.Error(t, err)
}

func TestNewEmptyLevelDefaultsToInfo(t *testing.T) {
	logger, closer, err := New(config.LoggingConfig{Format: "json", OutputPath: "stderr"})
	require.NoError(t, err)
	defer closer.Close()
	assert.Equal(t, zerolog.InfoLevel, logger.GetLevel())
}
