package logging

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

func TestNewWithoutFileIsNop(t *testing.T) {
	logger, err := New(Config{Level: "debug"})
	require.NoError(t, err)
	assert.False(t, logger.Core().Enabled(-1))
}

func TestNewRejectsBadLevel(t *testing.T) {
	_, err := New(Config{Level: "loud", File: filepath.Join(t.TempDir(), "x.log")})
	require.Error(t, err)
}

func TestNewWritesJSONLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "papergen.log")
	logger, err := New(Config{Level: "info", File: path})
	require.NoError(t, err)

	logger.Debug("hidden")
	logger.Info("job started")
	require.NoError(t, logger.Sync())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := gjson.ParseBytes(data)
	assert.NotContains(t, string(data), "hidden")
	assert.True(t, lines.IsObject())
	assert.Equal(t, "job started", lines.Get("message").String())
	assert.Equal(t, "INFO", lines.Get("level").String())
}
