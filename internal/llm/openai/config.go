package openai

import (
	"log/slog"
	"os"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/azure"
	"github.com/openai/openai-go/option"
)

// Config for the OpenAI / Azure OpenAI completer.
type Config struct {
	APIKey        string        // if empty, falls back to env OPENAI_API_KEY (or AZURE_OPENAI_KEY on Azure)
	BaseURL       string        // OpenAI-compatible base URL; ignored on Azure
	AzureEndpoint string        // when set, requests go to this Azure OpenAI resource
	APIVersion    string        // Azure api-version, default 2024-02-15-preview
	Model         string        // model name, or deployment name on Azure
	Temperature   float64       // used when the request leaves Temperature nil
	MaxTokens     int           // used when the request leaves Temperature nil
	Timeout       time.Duration // per request
}

// Client calls chat completions through the official SDK. It holds no
// per-document state and is safe for concurrent use.
type Client struct {
	cfg    Config
	sdk    openai.Client
	logger *slog.Logger
}

func NewClient(cfg Config, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 120 * time.Second
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 4096
	}

	// Retries stay off: a failed call is reported as a failed chunk.
	opts := []option.RequestOption{
		option.WithRequestTimeout(cfg.Timeout),
		option.WithMaxRetries(0),
	}
	if cfg.AzureEndpoint != "" {
		if cfg.APIKey == "" {
			cfg.APIKey = os.Getenv("AZURE_OPENAI_KEY")
		}
		if cfg.APIVersion == "" {
			cfg.APIVersion = "2024-02-15-preview"
		}
		if cfg.Model == "" {
			cfg.Model = "gpt-4o"
		}
		opts = append(opts,
			azure.WithEndpoint(cfg.AzureEndpoint, cfg.APIVersion),
			azure.WithAPIKey(cfg.APIKey),
		)
	} else {
		if cfg.APIKey == "" {
			cfg.APIKey = os.Getenv("OPENAI_API_KEY")
		}
		if cfg.Model == "" {
			cfg.Model = "gpt-4o-mini"
		}
		opts = append(opts, option.WithAPIKey(cfg.APIKey))
		if cfg.BaseURL != "" {
			opts = append(opts, option.WithBaseURL(cfg.BaseURL))
		}
	}

	return &Client{
		cfg:    cfg,
		sdk:    openai.NewClient(opts...),
		logger: logger,
	}
}

// Model reports the model or deployment this client talks to.
func (c *Client) Model() string { return c.cfg.Model }
