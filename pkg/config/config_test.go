package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolate runs the test from an empty directory so no stray .env is loaded.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	for _, key := range []string{
		"TELEGRAM_TOKEN", "OPENAI_API_KEY", "OPENAI_BASE_URL", "OPENAI_MODEL",
		"STORAGE_DRIVER", "STORAGE_URI", "STORAGE_DATABASE",
	} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
	return dir
}

func TestLoadDefaults(t *testing.T) {
	isolate(t)

	cfg, err := LoadConfig("config.yaml")
	require.NoError(t, err)

	assert.Equal(t, "gpt-4o-mini", cfg.OpenAI.Model)
	assert.Equal(t, "gpt-4o-mini", cfg.OpenAI.VisionModel)
	assert.Equal(t, 1024, cfg.OpenAI.MaxTokens)
	assert.InDelta(t, 0.7, cfg.OpenAI.Temperature, 1e-9)
	assert.Equal(t, DriverPostgres, cfg.Storage.Driver)
	assert.Equal(t, defaultPostgresURI, cfg.Storage.URI)
}

func TestLoadFromEnvironment(t *testing.T) {
	isolate(t)
	t.Setenv("TELEGRAM_TOKEN", "tg-token")
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("OPENAI_BASE_URL", "http://localhost:11434/v1")
	t.Setenv("STORAGE_DRIVER", "SQLite")
	t.Setenv("STORAGE_DATABASE", "assistant")

	cfg, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, "tg-token", cfg.Telegram.Token)
	assert.Equal(t, "sk-test", cfg.OpenAI.APIKey)
	assert.Equal(t, "http://localhost:11434/v1", cfg.OpenAI.BaseURL)
	assert.Equal(t, DriverSQLite, cfg.Storage.Driver)
	assert.Equal(t, defaultSQLiteURI, cfg.Storage.URI)
	assert.Equal(t, "assistant", cfg.Storage.Database)
	assert.NoError(t, cfg.Validate())
}

func TestLoadFileAndDotEnv(t *testing.T) {
	dir := isolate(t)

	yaml := "openai:\n  model: gpt-4o\n  vision_model: \"\"\nstorage:\n  driver: memory\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("TELEGRAM_TOKEN=from-dotenv\nOPENAI_API_KEY=sk-dotenv\n"), 0o600))
	t.Cleanup(func() {
		os.Unsetenv("TELEGRAM_TOKEN")
		os.Unsetenv("OPENAI_API_KEY")
	})

	cfg, err := LoadConfig(filepath.Join(dir, "config.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "gpt-4o", cfg.OpenAI.Model)
	assert.Empty(t, cfg.OpenAI.VisionModel)
	assert.Equal(t, DriverMemory, cfg.Storage.Driver)
	assert.Empty(t, cfg.Storage.URI)
	assert.Equal(t, "from-dotenv", cfg.Telegram.Token)
	assert.Equal(t, "sk-dotenv", cfg.OpenAI.APIKey)
	assert.NoError(t, cfg.Validate())
}

func TestLoadRejectsBrokenFile(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("openai: [unterminated"), 0o600))

	_, err := LoadConfig(path)
	assert.Error(t, err)
}

func TestValidateListsEveryProblem(t *testing.T) {
	cfg := &Config{
		OpenAI:  OpenAIConfig{Model: "gpt-4o-mini", MaxTokens: 1024},
		Storage: StorageConfig{Driver: DriverPostgres, URI: defaultPostgresURI},
	}

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "TELEGRAM_TOKEN")
	assert.Contains(t, err.Error(), "OPENAI_API_KEY")
	assert.Contains(t, err.Error(), "STORAGE_DATABASE")
}

func TestValidateDriver(t *testing.T) {
	tests := []struct {
		driver   string
		database string
		wantErr  bool
	}{
		{driver: DriverMemory},
		{driver: DriverSQLite, database: "bot"},
		{driver: DriverPostgres, database: "bot"},
		{driver: DriverSQLite, wantErr: true},
		{driver: "mongodb", database: "bot", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.driver+"/"+tt.database, func(t *testing.T) {
			cfg := &Config{
				Telegram: TelegramConfig{Token: "t"},
				OpenAI:   OpenAIConfig{APIKey: "k", Model: "m", MaxTokens: 1},
				Storage:  StorageConfig{Driver: tt.driver, Database: tt.database},
			}
			if tt.wantErr {
				assert.Error(t, cfg.Validate())
			} else {
				assert.NoError(t, cfg.Validate())
			}
		})
	}
}
