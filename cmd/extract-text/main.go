package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/joseph-ayodele/legaldoc-extractor/internal/app"
	"github.com/joseph-ayodele/legaldoc-extractor/internal/common"
	"github.com/joseph-ayodele/legaldoc-extractor/internal/ocr"
)

func main() {
	var (
		file    = flag.String("file", "", "document to read (.pdf, .docx, .txt, .md)")
		raw     = flag.Bool("raw", false, "skip whitespace normalization")
		timeout = flag.Duration("timeout", 2*time.Minute, "overall timeout")
	)
	flag.Parse()
	if *file == "" && flag.NArg() == 1 {
		*file = flag.Arg(0)
	}
	if *file == "" {
		fmt.Fprintln(os.Stderr, "usage: extract-text -file <path>")
		os.Exit(2)
	}

	cfg := common.LoadConfig()
	logger := app.NewLogger(os.Stderr, cfg.SlogLevel())
	slog.SetDefault(logger)

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	reader := ocr.NewReader(ocr.Config{
		Pdftotext:     cfg.OCR.PDFToText,
		SkipNormalize: *raw || !cfg.OCR.Normalize,
	}, logger)
	res, err := reader.Read(ctx, *file)
	if err != nil {
		logger.Error("text extraction failed", "file", *file, "error", err)
		os.Exit(1)
	}

	fmt.Println(res.Text)
	logger.Info("text extraction OK",
		"file", *file,
		"format", res.Format,
		"method", res.Method,
		"pages", res.Pages,
		"chars", len(res.Text),
		"duration_ms", res.Duration.Milliseconds(),
	)
	for _, w := range res.Warnings {
		logger.Warn("text extraction warning", "file", *file, "warning", w)
	}
}
