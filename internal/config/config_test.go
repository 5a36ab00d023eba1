package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, ""), false)
	require.NoError(t, err)

	assert.Equal(t, 8000, cfg.Server.Port)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, 50, cfg.Session.Capacity)
	assert.Equal(t, 1800, cfg.Session.TTLSeconds)
	assert.Equal(t, 10, cfg.Session.HistoryLimit)
	assert.Equal(t, 5, cfg.Session.HistoryView)
	assert.Equal(t, 300, cfg.Session.CleanupIntervalSeconds)
	assert.Equal(t, 1536, cfg.Session.MemoryLimitMB)
	assert.Equal(t, int64(50<<20), cfg.Upload.MaxBytes)
	assert.Equal(t, []string{".pdf", ".docx", ".doc"}, cfg.Upload.AllowedExts)
	assert.Equal(t, 1000, cfg.RAG.ChunkSize)
	assert.Equal(t, 200, cfg.RAG.ChunkOverlap)
	assert.Equal(t, 6, cfg.RAG.TopK)
	assert.Equal(t, "llama-3.1-8b-instant", cfg.AI.GroqModel)
	assert.Equal(t, 1024, cfg.AI.MaxTokens)
	assert.InDelta(t, 0.2, cfg.AI.Temperature, 1e-9)
	assert.False(t, cfg.Runtime.Dev)
}

func TestLoadOverridesFromFile(t *testing.T) {
	cfg, err := Load(writeConfig(t, `
server:
  port: 9100
session:
  capacity: 5
  ttl_seconds: 60
upload:
  allowed_exts: ["PDF", " .docx "]
`), true)
	require.NoError(t, err)

	assert.Equal(t, 9100, cfg.Server.Port)
	assert.Equal(t, 5, cfg.Session.Capacity)
	assert.Equal(t, 60, cfg.Session.TTLSeconds)
	assert.Equal(t, []string{".pdf", ".docx"}, cfg.Upload.AllowedExts, "extensions normalized")
	assert.True(t, cfg.Runtime.Dev)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("GROQ_API_KEY", "gk-test")
	t.Setenv("PORT", "9999")

	cfg, err := Load(writeConfig(t, "server:\n  port: 8000\n"), false)
	require.NoError(t, err)
	assert.Equal(t, "gk-test", cfg.AI.GroqKey)
	assert.Equal(t, 9999, cfg.Server.Port)
}

func TestLoadMissingDefaultPathTolerated(t *testing.T) {
	dir := t.TempDir()
	cwd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(cwd) })

	cfg, err := Load("config.yaml", false)
	require.NoError(t, err)
	assert.Equal(t, 8000, cfg.Server.Port)
}

func TestLoadMissingExplicitPathFails(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"), false)
	assert.Error(t, err)
}

func TestLoadRejectsInvalidCombinations(t *testing.T) {
	_, err := Load(writeConfig(t, "rag:\n  chunk_size: 100\n  chunk_overlap: 100\n"), false)
	assert.ErrorContains(t, err, "chunk_overlap")

	_, err = Load(writeConfig(t, "session:\n  history_limit: 4\n  history_view: 9\n"), false)
	assert.ErrorContains(t, err, "history_view")
}

func TestLoadMalformedYAML(t *testing.T) {
	_, err := Load(writeConfig(t, "server: [broken"), false)
	assert.ErrorContains(t, err, "parse config")
}
