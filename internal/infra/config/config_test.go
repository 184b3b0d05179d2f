package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T, keys ...string) {
	t.Helper()
	for _, key := range keys {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t, "CONFIG_PATH", "HTTP_ADDRESS", "HTTP_CORS_ORIGINS", "OPENAI_MODEL", "UPLOAD_MAX_BYTES",
		"SUMMARIZER_TOKEN_THRESHOLD", "SUMMARIZER_TARGET_CHUNK_TOKENS", "SUMMARIZER_MAP_CONCURRENCY")

	cfg, err := Load()
	require.NoError(t, err)

	require.Equal(t, ":8080", cfg.HTTP.Address)
	require.Empty(t, cfg.HTTP.CorsOrigins)
	require.Equal(t, int64(100<<20), cfg.Upload.MaxBytes)
	require.Equal(t, []string{"webm", "mp3", "wav", "m4a", "ogg"}, cfg.Upload.AllowedExtensions)
	require.Equal(t, "local", cfg.Upload.Storage.Backend)
	require.Equal(t, "gpt-4o-mini", cfg.LLM.Model)
	require.Equal(t, 12000, cfg.Summarizer.TokenThreshold)
	require.Equal(t, 3000, cfg.Summarizer.TargetChunkTokens)
	require.Equal(t, 3, cfg.Summarizer.MaxAttempts)
	require.Equal(t, 4, cfg.Summarizer.MapConcurrency)
	require.NotEmpty(t, cfg.Summarizer.SystemPrompt)
	require.True(t, cfg.Summarizer.DegradedFallback)
}

func TestLoadEnvOverrides(t *testing.T) {
	clearEnv(t, "CONFIG_PATH")
	t.Setenv("HTTP_ADDRESS", ":9191")
	t.Setenv("HTTP_CORS_ORIGINS", "https://notes.example.com, https://admin.example.com")
	t.Setenv("OPENAI_MODEL", "gpt-4o")
	t.Setenv("SUMMARIZER_TOKEN_THRESHOLD", "9000")
	t.Setenv("SUMMARIZER_TARGET_CHUNK_TOKENS", "1500")
	t.Setenv("SUMMARIZER_EXACT_TOKENS", "true")
	t.Setenv("ASSEMBLYAI_POLL_INTERVAL", "250ms")

	cfg, err := Load()
	require.NoError(t, err)

	require.Equal(t, ":9191", cfg.HTTP.Address)
	require.Equal(t, []string{"https://notes.example.com", "https://admin.example.com"}, cfg.HTTP.CorsOrigins)
	require.Equal(t, "gpt-4o", cfg.LLM.Model)
	require.Equal(t, 9000, cfg.Summarizer.TokenThreshold)
	require.Equal(t, 1500, cfg.Summarizer.TargetChunkTokens)
	require.True(t, cfg.Summarizer.ExactTokenCounts)
	require.Equal(t, 250*time.Millisecond, cfg.Transcription.PollInterval)
}

func TestLoadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	raw := `
http:
  address: ":7070"
upload:
  maxBytes: 1048576
  storage:
    backend: memory
summarizer:
  tokenThreshold: 8000
  targetChunkTokens: 2000
  mapConcurrency: 2
`
	require.NoError(t, os.WriteFile(path, []byte(raw), 0o600))
	t.Setenv("CONFIG_PATH", path)
	clearEnv(t, "HTTP_ADDRESS", "UPLOAD_MAX_BYTES",
		"SUMMARIZER_TOKEN_THRESHOLD", "SUMMARIZER_TARGET_CHUNK_TOKENS", "SUMMARIZER_MAP_CONCURRENCY")

	cfg, err := Load()
	require.NoError(t, err)

	require.Equal(t, ":7070", cfg.HTTP.Address)
	require.Equal(t, int64(1048576), cfg.Upload.MaxBytes)
	require.Equal(t, "memory", cfg.Upload.Storage.Backend)
	require.Equal(t, 8000, cfg.Summarizer.TokenThreshold)
	require.Equal(t, 2000, cfg.Summarizer.TargetChunkTokens)
	require.Equal(t, 2, cfg.Summarizer.MapConcurrency)
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(cfg *Config)
	}{
		{
			name:   "empty address",
			mutate: func(cfg *Config) { cfg.HTTP.Address = "" },
		},
		{
			name:   "chunk target above threshold",
			mutate: func(cfg *Config) { cfg.Summarizer.TargetChunkTokens = cfg.Summarizer.TokenThreshold },
		},
		{
			name:   "unknown storage backend",
			mutate: func(cfg *Config) { cfg.Upload.Storage.Backend = "ftp" },
		},
		{
			name:   "zero map concurrency",
			mutate: func(cfg *Config) { cfg.Summarizer.MapConcurrency = 0 },
		},
		{
			name:   "zero attempts",
			mutate: func(cfg *Config) { cfg.Summarizer.MaxAttempts = 0 },
		},
		{
			name:   "s3 backend without credentials",
			mutate: func(cfg *Config) { cfg.Upload.Storage.Backend = "s3" },
		},
		{
			name:   "poll timeout below interval",
			mutate: func(cfg *Config) { cfg.Transcription.PollTimeout = cfg.Transcription.PollInterval },
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := defaultConfig()
			tt.mutate(cfg)
			require.Error(t, cfg.Validate())
		})
	}
}
