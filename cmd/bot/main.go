package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/xaenox/assistant-bot/internal/bot"
	"github.com/xaenox/assistant-bot/internal/generation"
	"github.com/xaenox/assistant-bot/internal/session"
	"github.com/xaenox/assistant-bot/internal/storage"
	"github.com/xaenox/assistant-bot/pkg/config"
	"go.uber.org/zap"
)

const startupTimeout = 30 * time.Second

func main() {
	// Initialize logger
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	configPath := "config.yaml"
	if p := os.Getenv("CONFIG_PATH"); p != "" {
		configPath = p
	}

	// Load configuration
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		logger.Fatal("Failed to load config", zap.Error(err), zap.String("path", configPath))
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatal("Invalid config", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	startCtx, cancel := context.WithTimeout(ctx, startupTimeout)
	defer cancel()

	// Initialize storage
	store, err := openStorage(startCtx, cfg.Storage, logger)
	if err != nil {
		logger.Fatal("Failed to initialize storage", zap.Error(err), zap.String("driver", cfg.Storage.Driver))
	}
	defer store.Close()

	if err := store.Ping(startCtx); err != nil {
		logger.Fatal("Storage is unreachable", zap.Error(err))
	}

	// Initialize generation backend
	gen := generation.NewOpenAIGenerator(generation.OpenAIConfig{
		APIKey:      cfg.OpenAI.APIKey,
		BaseURL:     cfg.OpenAI.BaseURL,
		Model:       cfg.OpenAI.Model,
		VisionModel: cfg.OpenAI.VisionModel,
		MaxTokens:   cfg.OpenAI.MaxTokens,
		Temperature: cfg.OpenAI.Temperature,
	}, logger)
	if err := gen.Ping(startCtx); err != nil {
		logger.Fatal("Generation backend is unreachable", zap.Error(err))
	}
	if !gen.VisionAvailable() {
		logger.Warn("No vision model configured, image analysis is disabled")
	}

	// Initialize bot
	api, err := bot.NewAPI(cfg.Telegram.Token, logger)
	if err != nil {
		logger.Fatal("Failed to create bot", zap.Error(err))
	}

	machine := session.NewMachine(session.NewTable(), store, logger)
	dispatcher := bot.NewDispatcher(machine, store, gen, bot.NewTelegramFiles(api), logger)
	b := bot.New(api, dispatcher, logger)

	// Start the bot
	logger.Info("Bot is starting", zap.String("storage", cfg.Storage.Driver), zap.String("model", cfg.OpenAI.Model))
	if err := b.Start(ctx); err != nil {
		logger.Fatal("Bot error", zap.Error(err))
	}
	logger.Info("Bot stopped")
}

func openStorage(ctx context.Context, cfg config.StorageConfig, logger *zap.Logger) (storage.Storage, error) {
	db := storage.DatabaseConfig{URI: cfg.URI, Name: cfg.Database}

	switch cfg.Driver {
	case config.DriverMemory:
		logger.Info("Using in-memory storage")
		return storage.NewMemoryStorage(), nil
	case config.DriverSQLite:
		logger.Info("Using SQLite storage", zap.String("dir", cfg.URI), zap.String("database", cfg.Database))
		return storage.NewSQLiteStorage(ctx, db, logger)
	default:
		logger.Info("Using PostgreSQL storage", zap.String("database", cfg.Database))
		return storage.NewPostgresStorage(ctx, db, logger)
	}
}
