package common

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// LLM providers understood by the binaries.
const (
	ProviderAzure  = "azure"
	ProviderOpenAI = "openai"
	ProviderOllama = "ollama"

	// ProviderOpenAICompatible talks to a self-hosted server (vLLM, LM Studio)
	// through langchaingo's openai model.
	ProviderOpenAICompatible = "openai-compatible"
)

// Config holds all application configuration
type Config struct {
	Server   ServerConfig
	LLM      LLMConfig
	Chunking ChunkingConfig
	OCR      OCRConfig
	Batch    BatchConfig
	LogLevel string
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	GRPCAddr string
}

// LLMConfig holds model-related configuration
type LLMConfig struct {
	Provider        string
	Model           string // model name, or the deployment name on Azure
	APIKey          string
	BaseURL         string
	AzureEndpoint   string
	AzureAPIVersion string
	OllamaURL       string
	Temperature     float32
	MaxTokens       int
	Timeout         time.Duration
}

// ChunkingConfig holds the defaults for splitting long documents
type ChunkingConfig struct {
	MaxChars    int
	Overlap     int
	Concurrency int
}

// OCRConfig holds text-reading configuration
type OCRConfig struct {
	PDFToText string
	Normalize bool
}

// BatchConfig holds the worker queue settings used by the batch CLI
type BatchConfig struct {
	Workers        int
	QueueSize      int
	ProcessTimeout time.Duration
}

// LoadConfig loads configuration from environment variables. A .env file in
// the working directory is read first when present; real environment
// variables take precedence over it.
func LoadConfig() *Config {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		slog.Warn("config.dotenv.load_failed", "error", err)
	}

	provider := strings.ToLower(getEnv("LLM_PROVIDER", ProviderAzure))
	llmCfg := LLMConfig{
		Provider:        provider,
		AzureEndpoint:   getEnv("AZURE_OPENAI_ENDPOINT", ""),
		AzureAPIVersion: getEnv("AZURE_OPENAI_API_VERSION", "2024-02-15-preview"),
		BaseURL:         getEnv("OPENAI_BASE_URL", ""),
		OllamaURL:       getEnv("OLLAMA_URL", "http://localhost:11434"),
		Temperature:     getEnvAsFloat32("LLM_TEMPERATURE", 0.1),
		MaxTokens:       getEnvAsInt("LLM_MAX_TOKENS", 4096),
		Timeout:         getEnvAsDuration("LLM_TIMEOUT", 120*time.Second),
	}
	switch provider {
	case ProviderAzure:
		llmCfg.Model = getEnv("AZURE_OPENAI_DEPLOYMENT", "gpt-4o")
		llmCfg.APIKey = getEnv("AZURE_OPENAI_KEY", "")
	case ProviderOllama:
		llmCfg.Model = getEnv("OLLAMA_MODEL", "llama3.1")
	default:
		llmCfg.Model = getEnv("OPENAI_MODEL", "gpt-4o-mini")
		llmCfg.APIKey = getEnv("OPENAI_API_KEY", "")
	}

	return &Config{
		Server: ServerConfig{
			GRPCAddr: getEnv("GRPC_ADDR", ":8080"),
		},
		LLM: llmCfg,
		Chunking: ChunkingConfig{
			MaxChars:    getEnvAsInt("CHUNK_MAX_CHARS", 100000),
			Overlap:     getEnvAsInt("CHUNK_OVERLAP", 1000),
			Concurrency: getEnvAsInt("CHUNK_CONCURRENCY", 4),
		},
		OCR: OCRConfig{
			PDFToText: getEnv("PDFTOTEXT_BIN", "pdftotext"),
			Normalize: getEnvAsBool("OCR_NORMALIZE", true),
		},
		Batch: BatchConfig{
			Workers:        getEnvAsInt("BATCH_WORKERS", 2),
			QueueSize:      getEnvAsInt("BATCH_QUEUE_SIZE", 64),
			ProcessTimeout: getEnvAsDuration("BATCH_TIMEOUT", 10*time.Minute),
		},
		LogLevel: getEnv("LOG_LEVEL", "info"),
	}
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsFloat32(key string, defaultValue float32) float32 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 32); err == nil {
			return float32(floatVal)
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// Validate checks provider credentials and chunking bounds.
func (c *Config) Validate() error {
	v := NewValidator()
	v.Field("LLM_PROVIDER", c.LLM.Provider, OneOf(ProviderAzure, ProviderOpenAI, ProviderOllama, ProviderOpenAICompatible))
	v.Field("model", c.LLM.Model, Required)
	switch c.LLM.Provider {
	case ProviderAzure:
		v.Field("AZURE_OPENAI_ENDPOINT", c.LLM.AzureEndpoint, Required, URL)
		v.Field("AZURE_OPENAI_KEY", c.LLM.APIKey, Required)
	case ProviderOpenAI:
		v.Field("OPENAI_API_KEY", c.LLM.APIKey, Required)
		v.Field("OPENAI_BASE_URL", c.LLM.BaseURL, URL)
	case ProviderOllama:
		v.Field("OLLAMA_URL", c.LLM.OllamaURL, Required, URL)
	case ProviderOpenAICompatible:
		v.Field("OPENAI_BASE_URL", c.LLM.BaseURL, Required, URL)
		v.Field("OPENAI_API_KEY", c.LLM.APIKey, Required)
	}
	v.Field("CHUNK_MAX_CHARS", c.Chunking.MaxChars, Positive)
	v.Field("CHUNK_OVERLAP", c.Chunking.Overlap, NonNegative, LessThan(c.Chunking.MaxChars))
	v.Field("CHUNK_CONCURRENCY", c.Chunking.Concurrency, Positive)
	if v.HasErrors() {
		return NewAppError(CodeConfig, v.ErrorMessage(), ErrInvalidInput)
	}
	return nil
}

// SlogLevel maps LogLevel onto slog levels; unknown values mean info.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
