package app

import (
	"bytes"
	"errors"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"

	"github.com/joseph-ayodele/legaldoc-extractor/internal/common"
	"github.com/joseph-ayodele/legaldoc-extractor/internal/llm/langchain"
	"github.com/joseph-ayodele/legaldoc-extractor/internal/llm/llmtest"
	"github.com/joseph-ayodele/legaldoc-extractor/internal/llm/openai"
)

func TestNewCompleter(t *testing.T) {
	cases := []struct {
		provider string
		check    func(any) bool
	}{
		{common.ProviderAzure, func(c any) bool { _, ok := c.(*openai.Client); return ok }},
		{common.ProviderOpenAI, func(c any) bool { _, ok := c.(*openai.Client); return ok }},
		{common.ProviderOllama, func(c any) bool { _, ok := c.(*langchain.Client); return ok }},
		{common.ProviderOpenAICompatible, func(c any) bool { _, ok := c.(*langchain.Client); return ok }},
	}
	for _, tc := range cases {
		t.Run(tc.provider, func(t *testing.T) {
			c, err := NewCompleter(common.LLMConfig{
				Provider:      tc.provider,
				Model:         "m",
				APIKey:        "k",
				AzureEndpoint: "https://example.openai.azure.com",
				OllamaURL:     "http://localhost:11434",
				BaseURL:       "http://localhost:8000/v1",
			}, nil)
			if err != nil {
				t.Fatalf("NewCompleter: %v", err)
			}
			if !tc.check(c) {
				t.Fatalf("unexpected completer type %T", c)
			}
		})
	}
}

func TestNewCompleter_UnknownProvider(t *testing.T) {
	_, err := NewCompleter(common.LLMConfig{Provider: "bedrock"}, nil)
	if !errors.Is(err, common.ErrInvalidInput) {
		t.Fatalf("err = %v, want ErrInvalidInput", err)
	}
}

func TestBuild(t *testing.T) {
	cfg := &common.Config{
		Chunking: common.ChunkingConfig{MaxChars: 1000, Overlap: 100, Concurrency: 2},
		OCR:      common.OCRConfig{PDFToText: "pdftotext", Normalize: true},
	}
	c, err := Build(cfg, llmtest.New(), nil)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if c.Processor == nil || c.Reader == nil || c.Orchestrator == nil {
		t.Fatal("component missing")
	}
	if len(c.Registry.Names()) != 3 {
		t.Fatalf("registry = %v", c.Registry.Names())
	}
}

func TestNewLogger_DropsTime(t *testing.T) {
	var buf bytes.Buffer
	NewLogger(&buf, slog.LevelInfo).Info("cli.start", "file", "a.pdf")
	out := buf.String()
	if strings.Contains(out, "time=") || !strings.Contains(out, "msg=cli.start") {
		t.Fatalf("unexpected log line %q", out)
	}
}

func TestOutputName_Unique(t *testing.T) {
	root := filepath.Join("datos", "minutas")
	cases := map[string]string{
		filepath.Join(root, "a", "x.pdf"): "a__x.pdf.json",
		filepath.Join(root, "b", "x.pdf"): "b__x.pdf.json",
		filepath.Join(root, "x.docx"):     "x.docx.json",
		filepath.Join(root, "x.pdf"):      "x.pdf.json",
		filepath.Join("otra", "y.txt"):    "y.txt.json",
	}
	seen := map[string]bool{}
	for path, want := range cases {
		got := OutputName(root, path)
		if got != want {
			t.Errorf("OutputName(%q) = %q, want %q", path, got, want)
		}
		if seen[got] {
			t.Errorf("duplicate output name %q", got)
		}
		seen[got] = true
	}
}
