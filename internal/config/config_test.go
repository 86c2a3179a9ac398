package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault_IsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 30*time.Minute, cfg.Enforcement.SessionTTL.Duration())
}

func TestValidate_BadPort(t *testing.T) {
	cfg := Default()
	cfg.Server.HTTPPort = 0
	require.Error(t, cfg.Validate())
}

func TestValidate_ZeroTTL(t *testing.T) {
	cfg := Default()
	cfg.Enforcement.SessionTTL = 0
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "session_ttl")
}

func TestLoadWithFile_YAMLOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := []byte("server:\n  http_port: 9999\nenforcement:\n  session_ttl: 5m\n")
	require.NoError(t, os.WriteFile(path, content, 0o600))

	cfg, err := LoadWithFile(path)
	require.NoError(t, err)
	assert.Equal(t, 9999, cfg.Server.HTTPPort)
	assert.Equal(t, 5*time.Minute, cfg.Enforcement.SessionTTL.Duration())
	// Untouched fields keep defaults.
	assert.Equal(t, "localhost", cfg.Server.HTTPHost)
}

func TestLoadWithFile_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadWithFile(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default().Server.HTTPPort, cfg.Server.HTTPPort)
}

func TestSecret_Redaction(t *testing.T) {
	s := Secret("sk-12345")
	assert.Equal(t, "[REDACTED]", s.String())
	assert.Equal(t, "sk-12345", s.Value())

	data, err := json.Marshal(s)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "12345")
}

func TestDuration_UnmarshalText(t *testing.T) {
	var d Duration
	require.NoError(t, d.UnmarshalText([]byte("90s")))
	assert.Equal(t, 90*time.Second, d.Duration())

	require.Error(t, d.UnmarshalText([]byte("-5s")))
	require.Error(t, d.UnmarshalText([]byte("bogus")))
}
