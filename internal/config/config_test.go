package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	s, err := Load(nil)
	require.NoError(t, err)

	assert.Equal(t, ":8080", s.Addr)
	assert.Equal(t, "world_1", s.WorldID)
	assert.Equal(t, "./data", s.DataDir)
	assert.Equal(t, "info", s.LogLevel)
	assert.Equal(t, "console", s.LogFormat)
	assert.True(t, s.LoadLatestSnapshot)
	assert.True(t, s.SeedLayout)
	assert.False(t, s.DisableDB)
}

func TestLoad_FileEnvFlagPrecedence(t *testing.T) {
	dir := t.TempDir()
	cfg := "addr: \":9000\"\nworld: from_file\nlog_level: debug\ndisable_db: true\n"
	path := filepath.Join(dir, "server.yaml")
	require.NoError(t, os.WriteFile(path, []byte(cfg), 0o644))

	t.Setenv("VF_WORLD", "from_env")
	t.Setenv("VF_LOG_LEVEL", "warn")

	s, err := Load([]string{"--config", path, "--log-level", "error"})
	require.NoError(t, err)

	assert.Equal(t, ":9000", s.Addr, "file beats default")
	assert.Equal(t, "from_env", s.WorldID, "env beats file")
	assert.Equal(t, "error", s.LogLevel, "flag beats env")
	assert.True(t, s.DisableDB)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load([]string{"--config", "/nonexistent/server.yaml"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "error reading config file")
}

func TestLoad_RejectsBadFormat(t *testing.T) {
	_, err := Load([]string{"--log-format", "xml"})
	require.Error(t, err)
}

func TestLoad_RepoServerConfig(t *testing.T) {
	s, err := Load([]string{"--config", "../../configs/server.yaml"})
	require.NoError(t, err)
	assert.Equal(t, "./configs", s.ConfigsDir)
	assert.True(t, s.LoadLatestSnapshot)
}
