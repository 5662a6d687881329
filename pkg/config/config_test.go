package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-test")

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, "sk-test", cfg.OpenAIKey)
	assert.Equal(t, "https://api.openai.com/v1", cfg.OpenAIBaseURL)
	assert.Equal(t, "whisper-1", cfg.WhisperModel)
	assert.Equal(t, "downloads", cfg.DownloadDir)
	assert.True(t, cfg.AutoClean)
	assert.Equal(t, 3, cfg.MaxAttempts)
	assert.Equal(t, 30*time.Second, cfg.HTTPTimeout)
	assert.Equal(t, 2*time.Second, cfg.BatchDelay)
	assert.NotEmpty(t, cfg.UserAgent)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("OPENAI_BASE_URL", "http://localhost:9000/v1")
	t.Setenv("WHISPER_MODEL", "whisper-large")
	t.Setenv("DOWNLOAD_DIR", "/tmp/videos")
	t.Setenv("AUTO_CLEAN", "false")
	t.Setenv("USER_AGENT", "custom-agent/1.0")
	t.Setenv("MAX_ATTEMPTS", "5")
	t.Setenv("TELEGRAM_AUTHORIZED_USER_IDS", "100 200")

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, "http://localhost:9000/v1", cfg.OpenAIBaseURL)
	assert.Equal(t, "whisper-large", cfg.WhisperModel)
	assert.Equal(t, "/tmp/videos", cfg.DownloadDir)
	assert.False(t, cfg.AutoClean)
	assert.Equal(t, "custom-agent/1.0", cfg.UserAgent)
	assert.Equal(t, 5, cfg.MaxAttempts)
	assert.Equal(t, []int64{100, 200}, cfg.TelegramAuthorizedUserIDs)
}
