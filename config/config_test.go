package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	t.Run("should fail without an API key", func(t *testing.T) {
		t.Setenv("LLM_API_KEY", "")
		t.Setenv("LLM_API_KEY_FILE", "")

		cfg, err := Load()

		assert.Error(t, err)
		assert.Nil(t, cfg)
		assert.Contains(t, err.Error(), "LLM_API_KEY or LLM_API_KEY_FILE must be set")
	})

	t.Run("should apply defaults", func(t *testing.T) {
		t.Setenv("LLM_API_KEY", "test-key")
		t.Setenv("LLM_API_KEY_FILE", "")

		cfg, err := Load()

		require.NoError(t, err)
		assert.Equal(t, "8080", cfg.ServerPort)
		assert.Equal(t, "localhost", cfg.RedisHost)
		assert.Equal(t, "llama-3.3-70b-versatile", cfg.LLMModel)
		assert.Equal(t, 120*time.Second, cfg.GenerateTimeout)
		assert.Equal(t, 10, cfg.FreeDailyLimit)
		assert.Equal(t, 3, cfg.GuestDailyLimit)
	})

	t.Run("should read API key from file", func(t *testing.T) {
		keyFile := filepath.Join(t.TempDir(), "llm_api_key")
		require.NoError(t, os.WriteFile(keyFile, []byte("  file-key \n"), 0o600))

		t.Setenv("LLM_API_KEY", "")
		t.Setenv("LLM_API_KEY_FILE", keyFile)

		cfg, err := Load()

		require.NoError(t, err)
		assert.Equal(t, "file-key", cfg.LLMAPIKey)
	})

	t.Run("should honor overrides", func(t *testing.T) {
		t.Setenv("LLM_API_KEY", "test-key")
		t.Setenv("GENERATE_TIMEOUT", "30s")
		t.Setenv("FREE_DAILY_LIMIT", "5")
		t.Setenv("GUEST_DAILY_LIMIT", "1")

		cfg, err := Load()

		require.NoError(t, err)
		assert.Equal(t, 30*time.Second, cfg.GenerateTimeout)
		assert.Equal(t, 5, cfg.FreeDailyLimit)
		assert.Equal(t, 1, cfg.GuestDailyLimit)
	})
}
