// Package extract turns one chunk of document text into a candidate record
// with a single model call.
package extract

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/legaldoc-extractor/constants"
	"github.com/joseph-ayodele/legaldoc-extractor/internal/common"
	"github.com/joseph-ayodele/legaldoc-extractor/internal/llm"
	"github.com/joseph-ayodele/legaldoc-extractor/internal/schema"
)

type Config struct {
	// Temperature is sent with every call; nil means llm.DefaultTemperature.
	Temperature *float64
	MaxTokens   int
	// Timeout bounds a single model call; zero leaves it to the caller's context.
	Timeout time.Duration
}

// Client is safe for concurrent use; it keeps no per-document state.
type Client struct {
	model  llm.Completer
	cfg    Config
	logger *slog.Logger
}

func NewClient(model llm.Completer, cfg Config, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Temperature == nil {
		cfg.Temperature = llm.Temperature(llm.DefaultTemperature)
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = llm.DefaultMaxTokens
	}
	return &Client{model: model, cfg: cfg, logger: logger}
}

// Task is one chunk to extract. Total is the number of chunks in the
// document and only affects the prompt wording.
type Task struct {
	Index        int
	Total        int
	Text         string
	Schema       *schema.Descriptor // required
	SchemaJSON   string // optional; generated from Schema when empty
	Instructions string
}

// ExtractChunk never returns an error: failures are recorded on the candidate.
func (c *Client) ExtractChunk(ctx context.Context, t Task) Candidate {
	reqID := uuid.New().String()
	start := time.Now()
	log := common.LoggerFromContext(ctx, c.logger).With("req_id", reqID, "chunk", t.Index)

	schemaJSON := t.SchemaJSON
	if schemaJSON == "" {
		schemaJSON = schema.PromptJSON(t.Schema)
	}
	req := llm.Request{
		System:      llm.BuildSystemPrompt(t.Instructions),
		User:        llm.BuildUserPrompt(t.Text, schemaJSON, t.Index, t.Total),
		Temperature: llm.Temperature(*c.cfg.Temperature),
		MaxTokens:   c.cfg.MaxTokens,
		JSONMode:    true,
	}
	log.Info("extract.chunk.start", "chars", len(t.Text), "total", t.Total)

	callCtx := ctx
	if c.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, c.cfg.Timeout)
		defer cancel()
	}

	resp, err := c.model.Complete(callCtx, req)
	if err != nil {
		log.Error("extract.chunk.transport_error", "error", err, "elapsed_ms", time.Since(start).Milliseconds())
		return failed(t.Index, constants.CandidateErrorTransport, common.TransportError(err))
	}

	raw, err := llm.ExtractJSON(resp.Content)
	if err != nil {
		log.Warn("extract.chunk.format_error",
			"error", err,
			"content_len", len(resp.Content),
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return failed(t.Index, constants.CandidateErrorFormat, common.FormatError(err.Error()))
	}

	data, ferrs := schema.Coerce(llm.CleanRecord(raw), t.Schema)
	typeErrs := typeErrors(ferrs)
	for _, fe := range typeErrs {
		log.Debug("extract.chunk.field_error", "path", fe.Path, "message", fe.Message)
	}

	log.Info("extract.chunk.ok",
		"fields", len(raw),
		"field_errors", len(typeErrs),
		"tokens", resp.TotalTokens,
		"model", resp.Model,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return Candidate{
		ChunkIndex:  t.Index,
		Data:        data,
		Success:     true,
		FieldErrors: typeErrs,
	}
}

// typeErrors keeps coercion failures only. Unknown fields are dropped
// silently and absent required fields are the validator's concern.
func typeErrors(errs []schema.FieldError) []schema.FieldError {
	var out []schema.FieldError
	for _, e := range errs {
		if e.Reason == schema.ReasonType {
			out = append(out, e)
		}
	}
	return out
}
