package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("PORT", "")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "8000", cfg.Server.Port)
	assert.Equal(t, "./data/edit_history.json", cfg.Data.HistoryFile)
	assert.Equal(t, int64(16), cfg.Diff.MaxConcurrent)
	assert.Equal(t, 0.8, cfg.FactCheck.SimilarityThreshold)
	assert.Same(t, cfg, GlobalConfig)
	assert.NoError(t, ValidateConfig(cfg))
}

func TestLoadConfig_FileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  port: "9100"
data:
  history_file: /tmp/h.json
diff:
  ignore_case: true
  max_concurrent: 4
fact_check:
  similarity_threshold: 0.9
`), 0644))

	t.Setenv("CONFIG_FILE", path)
	t.Setenv("PORT", "9200")
	t.Setenv("DIFF_IGNORE_WHITESPACE", "true")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "9200", cfg.Server.Port, "env wins over file")
	assert.Equal(t, "/tmp/h.json", cfg.Data.HistoryFile)
	assert.True(t, cfg.Diff.IgnoreCase)
	assert.True(t, cfg.Diff.IgnoreWhitespace)
	assert.Equal(t, int64(4), cfg.Diff.MaxConcurrent)
	assert.Equal(t, int64(1<<20), cfg.Diff.MaxInputBytes, "untouched defaults survive the overlay")
	assert.Equal(t, 0.9, cfg.FactCheck.SimilarityThreshold)
}

func TestLoadConfig_BadFile(t *testing.T) {
	t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "missing.yaml"))
	_, err := LoadConfig()
	assert.Error(t, err)
}

func TestLoadConfig_BadEnv(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("DIFF_MAX_CONCURRENT", "many")
	t.Setenv("DIFF_IGNORE_CASE", "perhaps")

	_, err := LoadConfig()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DIFF_MAX_CONCURRENT")
	assert.Contains(t, err.Error(), "DIFF_IGNORE_CASE")
}

func TestValidateConfig(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(*Config) {}, ""},
		{"bad port", func(c *Config) { c.Server.Port = "0" }, "invalid PORT"},
		{"bad level", func(c *Config) { c.Log.Level = "trace" }, "invalid LOG_LEVEL"},
		{"bad format", func(c *Config) { c.Log.Format = "xml" }, "invalid LOG_FORMAT"},
		{"bad env", func(c *Config) { c.Server.Env = "qa" }, "invalid ENV"},
		{"no history file", func(c *Config) { c.Data.HistoryFile = " " }, "HISTORY_FILE"},
		{"no concurrency", func(c *Config) { c.Diff.MaxConcurrent = 0 }, "DIFF_MAX_CONCURRENT"},
		{"threshold", func(c *Config) { c.FactCheck.SimilarityThreshold = 1.5 }, "FACTCHECK_SIMILARITY_THRESHOLD"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := ValidateConfig(cfg)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestConfigHelpers(t *testing.T) {
	cfg := Default()
	assert.Equal(t, ":8000", cfg.GetServerAddr())
	assert.True(t, cfg.IsDevelopment())
	assert.False(t, cfg.IsProduction())
	assert.Contains(t, cfg.PrintConfig(), "History File: ./data/edit_history.json")
}
