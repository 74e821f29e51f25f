// Package app wires configuration into the components the binaries share.
package app

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/joseph-ayodele/legaldoc-extractor/internal/common"
	"github.com/joseph-ayodele/legaldoc-extractor/internal/core"
	"github.com/joseph-ayodele/legaldoc-extractor/internal/doctype"
	"github.com/joseph-ayodele/legaldoc-extractor/internal/extract"
	"github.com/joseph-ayodele/legaldoc-extractor/internal/llm"
	"github.com/joseph-ayodele/legaldoc-extractor/internal/llm/langchain"
	"github.com/joseph-ayodele/legaldoc-extractor/internal/llm/openai"
	"github.com/joseph-ayodele/legaldoc-extractor/internal/ocr"
)

// NewLogger builds the text logger used by every binary. Time is dropped
// so output stays diffable between runs.
func NewLogger(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey && len(groups) == 0 {
				return slog.Attr{}
			}
			return a
		},
	}))
}

// NewCompleter returns the model client for the configured provider.
func NewCompleter(cfg common.LLMConfig, logger *slog.Logger) (llm.Completer, error) {
	switch strings.ToLower(cfg.Provider) {
	case common.ProviderAzure:
		return openai.NewClient(openai.Config{
			AzureEndpoint: cfg.AzureEndpoint,
			APIVersion:    cfg.AzureAPIVersion,
			APIKey:        cfg.APIKey,
			Model:         cfg.Model,
			Temperature:   float64(cfg.Temperature),
			MaxTokens:     cfg.MaxTokens,
			Timeout:       cfg.Timeout,
		}, logger), nil
	case common.ProviderOpenAI:
		return openai.NewClient(openai.Config{
			BaseURL:     cfg.BaseURL,
			APIKey:      cfg.APIKey,
			Model:       cfg.Model,
			Temperature: float64(cfg.Temperature),
			MaxTokens:   cfg.MaxTokens,
			Timeout:     cfg.Timeout,
		}, logger), nil
	case common.ProviderOllama:
		c, err := langchain.NewClient(langchain.Config{
			Backend:     langchain.BackendOllama,
			ServerURL:   cfg.OllamaURL,
			Model:       cfg.Model,
			Temperature: float64(cfg.Temperature),
			MaxTokens:   cfg.MaxTokens,
		}, logger)
		if err != nil {
			return nil, err
		}
		return c, nil
	case common.ProviderOpenAICompatible:
		c, err := langchain.NewClient(langchain.Config{
			Backend:     langchain.BackendOpenAI,
			ServerURL:   cfg.BaseURL,
			Model:       cfg.Model,
			APIKey:      cfg.APIKey,
			Temperature: float64(cfg.Temperature),
			MaxTokens:   cfg.MaxTokens,
		}, logger)
		if err != nil {
			return nil, err
		}
		return c, nil
	default:
		return nil, common.NewAppError(common.CodeConfig, fmt.Sprintf("unknown LLM provider %q", cfg.Provider), common.ErrInvalidInput)
	}
}

// Components is everything built from one Config.
type Components struct {
	Reader       *ocr.Reader
	Registry     *doctype.Registry
	Orchestrator *core.Orchestrator
	Processor    *core.Processor
}

// Build wires reader, registry, orchestrator and processor around model.
func Build(cfg *common.Config, model llm.Completer, logger *slog.Logger) (*Components, error) {
	reg, err := doctype.Builtin()
	if err != nil {
		return nil, fmt.Errorf("load document types: %w", err)
	}
	reader := ocr.NewReader(ocr.Config{
		Pdftotext:     cfg.OCR.PDFToText,
		SkipNormalize: !cfg.OCR.Normalize,
	}, logger)
	client := extract.NewClient(model, extract.Config{
		Temperature: llm.Temperature(float64(cfg.LLM.Temperature)),
		MaxTokens:   cfg.LLM.MaxTokens,
		Timeout:     cfg.LLM.Timeout,
	}, logger)
	orch := core.NewOrchestrator(client, core.Options{
		MaxChars:    cfg.Chunking.MaxChars,
		Overlap:     cfg.Chunking.Overlap,
		Concurrency: cfg.Chunking.Concurrency,
	}, logger)
	return &Components{
		Reader:       reader,
		Registry:     reg,
		Orchestrator: orch,
		Processor:    core.NewProcessor(reader, orch, reg, logger),
	}, nil
}
