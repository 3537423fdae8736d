package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
	DriverMemory   = "memory"

	defaultPostgresURI = "postgres://localhost:5432/?sslmode=disable"
	defaultSQLiteURI   = "./data"
)

type Config struct {
	Telegram TelegramConfig `mapstructure:"telegram"`
	OpenAI   OpenAIConfig   `mapstructure:"openai"`
	Storage  StorageConfig  `mapstructure:"storage"`
}

type TelegramConfig struct {
	Token string `mapstructure:"token"`
}

type OpenAIConfig struct {
	APIKey      string  `mapstructure:"api_key"`
	BaseURL     string  `mapstructure:"base_url"`
	Model       string  `mapstructure:"model"`
	VisionModel string  `mapstructure:"vision_model"`
	MaxTokens   int     `mapstructure:"max_tokens"`
	Temperature float64 `mapstructure:"temperature"`
}

type StorageConfig struct {
	Driver   string `mapstructure:"driver"`
	URI      string `mapstructure:"uri"`
	Database string `mapstructure:"database"`
}

// LoadConfig reads defaults, then the optional YAML file at path, then the
// environment. A .env file in the working directory is loaded into the
// environment first when present.
func LoadConfig(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	v := viper.New()

	v.SetDefault("telegram.token", "")
	v.SetDefault("openai.api_key", "")
	v.SetDefault("openai.base_url", "")
	v.SetDefault("openai.model", "gpt-4o-mini")
	v.SetDefault("openai.vision_model", "gpt-4o-mini")
	v.SetDefault("openai.max_tokens", 1024)
	v.SetDefault("openai.temperature", 0.7)
	v.SetDefault("storage.driver", DriverPostgres)
	v.SetDefault("storage.uri", "")
	v.SetDefault("storage.database", "")

	// telegram.token <- TELEGRAM_TOKEN, storage.uri <- STORAGE_URI and so on
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			v.SetConfigFile(path)
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("failed to read config %s: %w", path, err)
			}
		} else if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to stat config %s: %w", path, err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	config.Storage.Driver = strings.ToLower(strings.TrimSpace(config.Storage.Driver))
	if config.Storage.URI == "" {
		switch config.Storage.Driver {
		case DriverPostgres:
			config.Storage.URI = defaultPostgresURI
		case DriverSQLite:
			config.Storage.URI = defaultSQLiteURI
		}
	}

	return &config, nil
}

// Validate reports every missing or invalid option at once.
func (c *Config) Validate() error {
	var problems []string

	if c.Telegram.Token == "" {
		problems = append(problems, "telegram.token (TELEGRAM_TOKEN) is required")
	}
	if c.OpenAI.APIKey == "" {
		problems = append(problems, "openai.api_key (OPENAI_API_KEY) is required")
	}
	if c.OpenAI.Model == "" {
		problems = append(problems, "openai.model must not be empty")
	}
	if c.OpenAI.MaxTokens <= 0 {
		problems = append(problems, "openai.max_tokens must be positive")
	}

	switch c.Storage.Driver {
	case DriverPostgres, DriverSQLite:
		if c.Storage.Database == "" {
			problems = append(problems, "storage.database (STORAGE_DATABASE) is required for the "+c.Storage.Driver+" driver")
		}
	case DriverMemory:
	default:
		problems = append(problems, fmt.Sprintf("storage.driver %q is not one of postgres, sqlite, memory", c.Storage.Driver))
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid configuration: %s", strings.Join(problems, "; "))
	}
	return nil
}
