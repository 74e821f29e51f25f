// Package ocr turns input files into the plain text the extraction engine
// consumes. Scanned images are expected to be OCR'd upstream; this package
// reads text layers (PDF, DOCX) and plain text files.
package ocr

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"
	"unicode/utf8"

	"github.com/joseph-ayodele/legaldoc-extractor/constants"
)

type Config struct {
	Pdftotext string // binary name or absolute path; if empty -> "pdftotext"
	// SkipNormalize returns text exactly as read.
	SkipNormalize bool
	// MinPDFChars is the smallest text layer accepted before falling back
	// to pdftotext; default 20.
	MinPDFChars int
}

type Result struct {
	Text     string
	Pages    int
	Format   string // constants.Format*
	Method   string // "text" | "markdown" | "docx" | "pdf-text" | "pdftotext"
	Duration time.Duration
	Warnings []string
}

type Reader struct {
	cfg    Config
	runner Runner
	logger *slog.Logger
}

func NewReader(cfg Config, logger *slog.Logger) *Reader {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Pdftotext == "" {
		cfg.Pdftotext = "pdftotext"
	}
	if cfg.MinPDFChars <= 0 {
		cfg.MinPDFChars = 20
	}
	return &Reader{cfg: cfg, runner: execRunner{logger: logger}, logger: logger}
}

// WithRunner swaps the command runner used for pdftotext.
func (r *Reader) WithRunner(run Runner) *Reader {
	cp := *r
	cp.runner = run
	return &cp
}

// Read picks a strategy based on file extension.
func (r *Reader) Read(ctx context.Context, path string) (Result, error) {
	start := time.Now()
	ext := constants.NormalizeExt(filepath.Ext(path))
	format := constants.MapExtToFormat(ext)
	r.logger.Debug("ocr.read.start", "path", path, "ext", ext, "format", format)

	var (
		res Result
		err error
	)
	switch format {
	case constants.FormatText:
		res, err = r.readPlain(path)
	case constants.FormatMarkdown:
		res, err = r.readMarkdown(path)
	case constants.FormatDOCX:
		res, err = r.readDOCX(path)
	case constants.FormatPDF:
		res, err = r.readPDF(ctx, path)
	default:
		r.logger.Error("ocr.read.unsupported", "path", path, "ext", ext)
		return Result{}, fmt.Errorf("unsupported extension: %q", ext)
	}
	res.Format = format
	res.Duration = time.Since(start)
	if err != nil {
		r.logger.Error("ocr.read.failed", "path", path, "method", res.Method, "error", err)
		return res, err
	}
	if !r.cfg.SkipNormalize {
		res.Text = Normalize(res.Text)
	}
	r.logger.Info("ocr.read.ok",
		"path", path,
		"method", res.Method,
		"pages", res.Pages,
		"chars", len(res.Text),
		"warnings", len(res.Warnings),
		"elapsed_ms", res.Duration.Milliseconds(),
	)
	return res, nil
}

func (r *Reader) readPlain(path string) (Result, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Result{Method: "text"}, err
	}
	res := Result{Text: string(b), Pages: 1, Method: "text"}
	if !utf8.Valid(b) {
		res.Warnings = append(res.Warnings, "file is not valid UTF-8; invalid bytes kept as-is")
	}
	return res, nil
}
