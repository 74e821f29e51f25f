package openai

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/shared"

	"github.com/joseph-ayodele/legaldoc-extractor/internal/llm"
)

var _ llm.Completer = (*Client)(nil)

// Complete implements llm.Completer using chat/completions.
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

	c.logger.Debug("llm.openai.request",
		"req_id", rid,
		"model", c.cfg.Model,
		"azure", c.cfg.AzureEndpoint != "",
		"temp", temp,
		"max_tokens", maxTokens,
		"system_len", len(req.System),
		"user_len", len(req.User),
	)

	params := openai.ChatCompletionNewParams{
		Model: shared.ChatModel(c.cfg.Model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(req.System),
			openai.UserMessage(req.User),
		},
		Temperature: openai.Float(temp),
		MaxTokens:   openai.Int(int64(maxTokens)),
	}
	if req.JSONMode {
		params.ResponseFormat = openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &shared.ResponseFormatJSONObjectParam{},
		}
	}

	resp, err := c.sdk.Chat.Completions.New(ctx, params)
	if err != nil {
		var apiErr *openai.Error
		if errors.As(err, &apiErr) {
			c.logger.Error("llm.openai.api_error",
				"req_id", rid, "status", apiErr.StatusCode, "error", err,
				"elapsed_ms", time.Since(start).Milliseconds(),
			)
			return llm.Response{}, fmt.Errorf("openai status %d: %w", apiErr.StatusCode, err)
		}
		c.logger.Error("llm.openai.http_error",
			"req_id", rid, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return llm.Response{}, fmt.Errorf("openai request: %w", err)
	}
	if len(resp.Choices) == 0 {
		c.logger.Error("llm.openai.no_choices",
			"req_id", rid,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return llm.Response{}, fmt.Errorf("no choices in openai response")
	}

	choice := resp.Choices[0]
	if choice.FinishReason == "length" {
		c.logger.Warn("llm.openai.truncated",
			"req_id", rid, "max_tokens", maxTokens,
		)
	}

	c.logger.Info("llm.openai.ok",
		"req_id", rid,
		"model", resp.Model,
		"total_tokens", resp.Usage.TotalTokens,
		"content_len", len(choice.Message.Content),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return llm.Response{
		Content:     strings.TrimSpace(choice.Message.Content),
		Model:       resp.Model,
		TotalTokens: resp.Usage.TotalTokens,
	}, nil
}
