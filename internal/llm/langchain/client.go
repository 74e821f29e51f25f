// Package langchain adapts langchaingo chat models (Ollama or any
// OpenAI-compatible server) to llm.Completer.
package langchain

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/ollama"
	lcopenai "github.com/tmc/langchaingo/llms/openai"

	"github.com/joseph-ayodele/legaldoc-extractor/internal/llm"
)

const (
	BackendOllama = "ollama"
	BackendOpenAI = "openai"
)

type Config struct {
	Backend     string // ollama (default) or openai
	ServerURL   string
	Model       string
	APIKey      string // openai backend only
	Temperature float64
	MaxTokens   int
}

type Client struct {
	cfg    Config
	model  llms.Model
	logger *slog.Logger
}

var _ llm.Completer = (*Client)(nil)

func NewClient(cfg Config, logger *slog.Logger) (*Client, error) {
	if cfg.Backend == "" {
		cfg.Backend = BackendOllama
	}

	var (
		model llms.Model
		err   error
	)
	switch cfg.Backend {
	case BackendOllama:
		opts := []ollama.Option{ollama.WithModel(cfg.Model), ollama.WithFormat("json")}
		if cfg.ServerURL != "" {
			opts = append(opts, ollama.WithServerURL(cfg.ServerURL))
		}
		model, err = ollama.New(opts...)
	case BackendOpenAI:
		opts := []lcopenai.Option{lcopenai.WithModel(cfg.Model), lcopenai.WithToken(strings.TrimPrefix(cfg.APIKey, "Bearer "))}
		if cfg.ServerURL != "" {
			opts = append(opts, lcopenai.WithBaseURL(cfg.ServerURL))
		}
		model, err = lcopenai.New(opts...)
	default:
		return nil, fmt.Errorf("langchain: unknown backend %q", cfg.Backend)
	}
	if err != nil {
		return nil, fmt.Errorf("langchain %s: %w", cfg.Backend, err)
	}
	return NewWithModel(model, cfg, logger), nil
}

// NewWithModel wraps an already constructed langchaingo model.
func NewWithModel(model llms.Model, cfg Config, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = llm.DefaultMaxTokens
	}
	return &Client{cfg: cfg, model: model, logger: logger}
}

// Complete implements llm.Completer.
func (c *Client) Complete(ctx context.Context, req llm.Request) (llm.Response, error) {
	rid := uuid.New().String()
	start := time.Now()

	temp := c.cfg.Temperature
	if req.Temperature != nil {
		temp = *req.Temperature
	}
	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = c.cfg.MaxTokens
	}

	msgs := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, req.System),
		llms.TextParts(llms.ChatMessageTypeHuman, req.User),
	}
	opts := []llms.CallOption{
		llms.WithTemperature(temp),
		llms.WithMaxTokens(maxTokens),
	}
	if req.JSONMode {
		opts = append(opts, llms.WithJSONMode())
	}

	c.logger.Debug("llm.langchain.request",
		"req_id", rid, "backend", c.cfg.Backend, "model", c.cfg.Model,
		"temp", temp, "max_tokens", maxTokens,
	)

	resp, err := c.model.GenerateContent(ctx, msgs, opts...)
	if err != nil {
		c.logger.Error("llm.langchain.error",
			"req_id", rid, "backend", c.cfg.Backend, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return llm.Response{}, fmt.Errorf("langchain %s: %w", c.cfg.Backend, err)
	}
	if resp == nil || len(resp.Choices) == 0 {
		return llm.Response{}, fmt.Errorf("langchain %s: no choices", c.cfg.Backend)
	}

	choice := resp.Choices[0]
	var tokens int64
	if n, ok := choice.GenerationInfo["TotalTokens"].(int); ok {
		tokens = int64(n)
	}
	c.logger.Info("llm.langchain.ok",
		"req_id", rid, "backend", c.cfg.Backend,
		"content_len", len(choice.Content),
		"total_tokens", tokens,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return llm.Response{
		Content:     strings.TrimSpace(choice.Content),
		Model:       c.cfg.Model,
		TotalTokens: tokens,
	}, nil
}
