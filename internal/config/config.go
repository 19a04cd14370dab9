package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	HTTPAddr          string        `env:"HTTP_ADDR" env-default:":8080"`
	LogLevel          string        `env:"LOG_LEVEL" env-default:"info"`
	OpenRouterAPIKey  string        `env:"OPENROUTER_API_KEY" env-required:"true"`
	OpenRouterBaseURL string        `env:"OPENROUTER_BASE_URL" env-default:"https://openrouter.ai/api/v1"`
	LLMModel          string        `env:"LLM_MODEL" env-default:"qwen/qwen3-4b:free"`
	LLMFallbackModels []string      `env:"LLM_FALLBACK_MODELS" env-separator:","`
	LLMTimeout        time.Duration `env:"LLM_TIMEOUT" env-default:"30s"`
	GameLang          string        `env:"GAME_LANG" env-default:"zh"`
	SessionTTL        time.Duration `env:"SESSION_TTL" env-default:"30m"`
}

func Load() (Config, error) {
	var c Config
	if err := cleanenv.ReadEnv(&c); err != nil {
		return Config{}, fmt.Errorf("read environment: %w", err)
	}
	if _, err := c.SlogLevel(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// SlogLevel parses the configured log level.
func (c Config) SlogLevel() (slog.Level, error) {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("invalid LOG_LEVEL %q", c.LogLevel)
	}
}
