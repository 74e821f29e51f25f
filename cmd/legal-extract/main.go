package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joseph-ayodele/legaldoc-extractor/internal/app"
	"github.com/joseph-ayodele/legaldoc-extractor/internal/common"
	"github.com/joseph-ayodele/legaldoc-extractor/internal/core"
	"github.com/joseph-ayodele/legaldoc-extractor/internal/doctype"
	"github.com/joseph-ayodele/legaldoc-extractor/internal/export"
)

func main() {
	var (
		file         = flag.String("file", "", "document to process (required)")
		docType      = flag.String("type", "", "document type, e.g. estudio_titulos (required unless -schema)")
		schemaPath   = flag.String("schema", "", "custom YAML schema descriptor")
		instructions = flag.String("instructions", "", "file with extraction instructions overriding the type's")
		out          = flag.String("out", "", "JSON output path (default stdout)")
		xlsxPath     = flag.String("xlsx", "", "optional XLSX output path")
		maxChars     = flag.Int("max-chars", 0, "chunk size in bytes (default from CHUNK_MAX_CHARS)")
		overlap      = flag.Int("overlap", 0, "chunk overlap in bytes, used with -max-chars")
		concurrency  = flag.Int("concurrency", 0, "parallel model calls (default from CHUNK_CONCURRENCY)")
		timeout      = flag.Duration("timeout", 30*time.Minute, "overall timeout")
	)
	flag.Parse()

	if *file == "" {
		fmt.Fprintln(os.Stderr, "Error: -file is required")
		os.Exit(2)
	}
	if *docType == "" && *schemaPath == "" {
		fmt.Fprintln(os.Stderr, "Error: -type or -schema is required")
		os.Exit(2)
	}

	cfg := common.LoadConfig()
	logger := app.NewLogger(os.Stderr, cfg.SlogLevel())
	slog.SetDefault(logger)
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(2)
	}

	model, err := app.NewCompleter(cfg.LLM, logger)
	if err != nil {
		logger.Error("failed to build model client", "error", err)
		os.Exit(1)
	}
	components, err := app.Build(cfg, model, logger)
	if err != nil {
		logger.Error("failed to wire extractor", "error", err)
		os.Exit(1)
	}

	typeName, err := resolveType(components.Registry, *docType, *schemaPath, *instructions)
	if err != nil {
		logger.Error("failed to resolve document type", "error", err)
		os.Exit(2)
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	doc, err := components.Processor.ProcessFile(ctx, *file, typeName, core.Options{
		MaxChars:    *maxChars,
		Overlap:     *overlap,
		Concurrency: *concurrency,
	})
	if err != nil {
		logger.Error("extraction failed", "file", *file, "type", typeName, "error", err)
		os.Exit(1)
	}

	if err := app.WriteJSONFile(*out, doc); err != nil {
		logger.Error("failed to write JSON", "error", err)
		os.Exit(1)
	}
	if *xlsxPath != "" {
		b, err := export.RecordXLSX(doc.Data, app.RecordMeta(doc, time.Now()))
		if err != nil {
			logger.Error("failed to build XLSX", "error", err)
			os.Exit(1)
		}
		if err := os.WriteFile(*xlsxPath, b, 0o644); err != nil {
			logger.Error("failed to write XLSX", "path", *xlsxPath, "error", err)
			os.Exit(1)
		}
	}

	logger.Info("extraction complete",
		"file", *file,
		"type", doc.Type,
		"status", doc.Status,
		"chunks", doc.Chunks,
		"warnings", len(doc.Warnings),
	)
}

// resolveType registers a custom type when -schema or -instructions asks
// for one and returns the name to process with.
func resolveType(reg *doctype.Registry, name, schemaPath, instructionsPath string) (string, error) {
	if schemaPath != "" {
		dt, err := doctype.LoadFile(schemaPath, instructionsPath)
		if err != nil {
			return "", err
		}
		if name != "" {
			dt.Name = name
		}
		return dt.Name, reg.Register(dt)
	}
	dt, err := reg.Get(name)
	if err != nil {
		return "", err
	}
	if instructionsPath == "" {
		return dt.Name, nil
	}
	b, err := os.ReadFile(instructionsPath)
	if err != nil {
		return "", fmt.Errorf("read instructions: %w", err)
	}
	cp := *dt
	cp.Instructions = strings.TrimSpace(string(b))
	return cp.Name, reg.Register(&cp)
}
