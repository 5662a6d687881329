package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v9"
	"github.com/joho/godotenv"
)

const defaultUserAgent = "Mozilla/5.0 (iPhone; CPU iPhone OS 16_6 like Mac OS X) " +
	"AppleWebKit/605.1.15 (KHTML, like Gecko) Version/16.6 Mobile/15E148 Safari/604.1"

type Config struct {
	OpenAIKey     string        `env:"OPENAI_API_KEY"`
	OpenAIBaseURL string        `env:"OPENAI_BASE_URL" envDefault:"https://api.openai.com/v1"`
	WhisperModel  string        `env:"WHISPER_MODEL" envDefault:"whisper-1"`
	DownloadDir   string        `env:"DOWNLOAD_DIR" envDefault:"downloads"`
	AutoClean     bool          `env:"AUTO_CLEAN" envDefault:"true"`
	UserAgent     string        `env:"USER_AGENT"`
	MaxAttempts   int           `env:"MAX_ATTEMPTS" envDefault:"3"`
	HTTPTimeout   time.Duration `env:"HTTP_TIMEOUT" envDefault:"30s"`
	BatchDelay    time.Duration `env:"BATCH_DELAY" envDefault:"2s"`

	TelegramBotToken          string  `env:"TELEGRAM_BOT_TOKEN"`
	TelegramAuthorizedUserIDs []int64 `env:"TELEGRAM_AUTHORIZED_USER_IDS" envSeparator:" "`
}

// Load reads an optional .env file and then the process environment.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{}
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parsing env config: %w", err)
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = defaultUserAgent
	}
	return cfg, nil
}
