package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"SERVER_PORT", "GIN_MODE", "CORS_ORIGINS", "RETRORIFF_CONFIG",
		"GEMINI_API_KEY", "GOOGLE_API_KEY", "RETRORIFF_LLM_PROVIDER",
		"RETRORIFF_MODEL", "RETRORIFF_CONVERTER", "RETRORIFF_YTDLP_PATH",
		"RETRORIFF_LOG_LEVEL",
	} {
		t.Setenv(key, "")
	}
}

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "retroriff.toml")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}

func TestLoadDefaultsWithoutFile(t *testing.T) {
	clearEnv(t)

	cfg, resolved, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	require.NoError(t, err)

	assert.Empty(t, resolved)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, ProviderOffline, cfg.LLM.Provider)
	assert.Equal(t, ConverterMock, cfg.Converter.Mode)
	assert.Equal(t, int64(10*1024*1024), cfg.Harvest.ZipThresholdBytes)
	assert.Equal(t, 1500*time.Millisecond, cfg.ProgressInterval())
}

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, ProviderOffline, cfg.LLM.Provider)
}

func TestLoadFileThenEnvPrecedence(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `
[server]
port = 9000
cors_origins = [" http://a.test ", ""]

[llm]
model = "file-model"

[harvest]
concurrency = 3
`)

	t.Setenv("SERVER_PORT", "9100")
	t.Setenv("GEMINI_API_KEY", "secret")

	cfg, resolved, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, path, resolved)
	assert.Equal(t, 9100, cfg.Server.Port, "env should override the file")
	assert.Equal(t, []string{"http://a.test"}, cfg.Server.CORSOrigins)
	assert.Equal(t, "file-model", cfg.LLM.Model)
	assert.Equal(t, ProviderGemini, cfg.LLM.Provider, "api key selects gemini")
	assert.Equal(t, 3, cfg.Harvest.Concurrency)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name     string
		contents string
	}{
		{name: "unknown converter", contents: "[converter]\nmode = \"magic\"\n"},
		{name: "gemini without key", contents: "[llm]\nprovider = \"gemini\"\n"},
		{name: "zero workers", contents: "[harvest]\nworkers = 0\n"},
		{name: "bad port", contents: "[server]\nport = 70000\n"},
		{name: "unknown gin mode", contents: "[server]\ngin_mode = \"loud\"\n"},
		{name: "malformed toml", contents: "[server\nport = 1\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			_, _, err := Load(writeConfig(t, tt.contents))
			assert.Error(t, err)
		})
	}
}

func TestLoadUsesConfigEnvPath(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, "[converter]\nmode = \"stream\"\n")
	t.Setenv("RETRORIFF_CONFIG", path)

	cfg, resolved, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, path, resolved)
	assert.Equal(t, ConverterStream, cfg.Converter.Mode)
}
