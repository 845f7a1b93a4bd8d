package config

import (
	"fmt"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

type Config struct {
	// Storage
	MongoURI      string
	MongoDatabase string
	DataDir       string

	// Generation backend
	GenerateURL     string
	GenerateAPIKey  string
	GenerateModel   string
	GenerateTimeout time.Duration

	// Retry policy for transient backend failures
	MaxRetries        int
	BackoffBase       time.Duration
	BackoffMultiplier float64

	// Prompt truncation; zero values mean unbounded context
	MaxTurns        int
	MaxPromptTokens int

	ServerAddress string

	logger *zap.Logger
}

var (
	configInstance *Config
	once           sync.Once
)

func InitConfig() (*Config, error) {
	var initErr error

	once.Do(func() {
		config := zap.NewDevelopmentConfig()
		config.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
		logger, err := config.Build()
		if err != nil {
			logger = zap.NewNop()
			initErr = fmt.Errorf("failed to initialize logger: %w", err)
		}
		defer logger.Sync()

		// Load .env file
		if err := godotenv.Load(); err != nil {
			if os.IsNotExist(err) {
				logger.Warn("No .env file found; falling back to system environment variables")
			} else {
				initErr = fmt.Errorf("failed to load .env file: %w", err)
				logger.Error("Config file load error", zap.Error(err))
				return
			}
		} else {
			logger.Debug("Successfully loaded .env file")
		}

		mongoURI := os.Getenv("MONGO_URI")
		if mongoURI == "" {
			logger.Warn("MONGO_URI not set; conversations will be stored in a local JSON file")
		}

		apiKey := os.Getenv("OPENAI_API_KEY")
		if apiKey == "" {
			logger.Warn("OPENAI_API_KEY not set; chat requests will fail until it is provided")
		}

		homeDir, err := os.UserHomeDir()
		if err != nil {
			homeDir = "."
		}

		configInstance = &Config{
			MongoURI:          mongoURI,
			MongoDatabase:     envOrDefault("MONGO_DATABASE", "chatbot"),
			DataDir:           envOrDefault("DATA_DIR", homeDir),
			GenerateURL:       envOrDefault("OPENAI_API_URL", "https://api.openai.com/v1/chat/completions"),
			GenerateAPIKey:    apiKey,
			GenerateModel:     envOrDefault("OPENAI_MODEL", "gpt-4o-mini"),
			GenerateTimeout:   time.Duration(envOrDefaultInt("GENERATE_TIMEOUT_SECONDS", 60)) * time.Second,
			MaxRetries:        envOrDefaultInt("CHAT_MAX_RETRIES", 2),
			BackoffBase:       time.Duration(envOrDefaultInt("CHAT_BACKOFF_BASE_MS", 500)) * time.Millisecond,
			BackoffMultiplier: envOrDefaultFloat("CHAT_BACKOFF_MULTIPLIER", 2.0),
			MaxTurns:          envOrDefaultInt("PROMPT_MAX_TURNS", 0),
			MaxPromptTokens:   envOrDefaultInt("PROMPT_MAX_TOKENS", 0),
			ServerAddress:     envOrDefault("SERVER_ADDRESS", ":8080"),
			logger:            logger,
		}
	})

	if initErr != nil {
		return nil, initErr
	}
	if configInstance == nil {
		return nil, fmt.Errorf("configuration initialization failed unexpectedly")
	}

	return configInstance, nil
}

func envOrDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func envOrDefaultInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func envOrDefaultFloat(key string, fallback float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fallback
	}
	return parsed
}
