package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"time"

	"docbrief/internal/extractive"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	HTTPAddr        string        `env:"HTTP_ADDR"          envDefault:":8080"`
	DBPath          string        `env:"DB_PATH"            envDefault:"db.sqlite"`
	UploadDir       string        `env:"UPLOAD_DIR"         envDefault:"uploads"`
	MaxUploadBytes  int64         `env:"MAX_UPLOAD_BYTES"   envDefault:"16777216"`
	SessionTTL      time.Duration `env:"SESSION_TTL"        envDefault:"168h"`
	LogLevel        slog.Level    `env:"LOG_LEVEL"          envDefault:"INFO"`
	HTTPTimeout     time.Duration `env:"HTTP_TIMEOUT"       envDefault:"30s"`
	RateLimitRPS    float64       `env:"RATE_LIMIT_RPS"     envDefault:"5"`
	SpeechRetention time.Duration `env:"SPEECH_RETENTION"   envDefault:"24h"`

	OpenAIAPIKey     string `env:"OPENAI_API_KEY"`
	AnthropicAPIKey  string `env:"ANTHROPIC_API_KEY"`
	GeminiAPIKey     string `env:"GEMINI_API_KEY"`
	SummaryCacheSize int    `env:"SUMMARY_CACHE_SIZE" envDefault:"256"`

	SalienceMode extractive.SalienceMode `env:"SALIENCE_MODE" envDefault:"frequency"`

	TelegramToken string  `env:"TELEGRAM_TOKEN"`
	AllowedUsers  []int64 `env:"ALLOWED_USERS"`
}

// Load reads an optional .env file and then the environment.
func Load(envFiles ...string) (Config, error) {
	if err := godotenv.Load(envFiles...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load env file: %w", err)
	}

	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}

	if err = cfg.validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func (c Config) validate() error {
	var errs []error

	switch c.SalienceMode {
	case extractive.SalienceFrequency, extractive.SalienceLiteral:
	default:
		errs = append(errs, fmt.Errorf("SALIENCE_MODE must be %q or %q", extractive.SalienceFrequency, extractive.SalienceLiteral))
	}

	if c.MaxUploadBytes <= 0 {
		errs = append(errs, errors.New("MAX_UPLOAD_BYTES must be positive"))
	}

	if c.RateLimitRPS < 0 {
		errs = append(errs, errors.New("RATE_LIMIT_RPS must not be negative"))
	}

	if c.SessionTTL <= 0 {
		errs = append(errs, errors.New("SESSION_TTL must be positive"))
	}

	return errors.Join(errs...)
}
