package ocr

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
)

// readPDF prefers the embedded text layer and falls back to pdftotext when
// the layer is missing, unreadable or too short to be useful.
func (r *Reader) readPDF(ctx context.Context, path string) (Result, error) {
	text, pages, err := pdfTextLayer(path)
	if err == nil && len(strings.TrimSpace(text)) >= r.cfg.MinPDFChars {
		return Result{Text: text, Pages: pages, Method: "pdf-text"}, nil
	}

	var warns []string
	if err != nil {
		warns = append(warns, fmt.Sprintf("pdf text layer unreadable: %v", err))
	} else {
		warns = append(warns, "pdf text layer empty")
	}
	r.logger.Warn("ocr.pdf.fallback", "path", path, "reason", warns[0])

	out, err := r.runner.Run(ctx, r.cfg.Pdftotext, "-layout", "-enc", "UTF-8", "-eol", "unix", path, "-")
	if err != nil {
		var terr *ToolError
		if errors.As(err, &terr) && strings.TrimSpace(terr.Stderr) != "" {
			warns = append(warns, strings.TrimSpace(terr.Stderr))
		}
		return Result{Method: "pdftotext", Warnings: warns}, err
	}
	text = string(out)
	// pdftotext separates pages with a form feed
	pages = 1 + strings.Count(strings.TrimRight(text, "\f\n"), "\f")
	if strings.TrimSpace(text) == "" {
		warns = append(warns, "no text found; scanned PDFs need OCR before extraction")
	}
	return Result{Text: text, Pages: pages, Method: "pdftotext", Warnings: warns}, nil
}

// pdfTextLayer reads every page's plain text. The pdf package panics on
// some malformed files, so panics are turned into errors.
func pdfTextLayer(path string) (text string, pages int, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("pdf reader panic: %v", rec)
		}
	}()

	f, reader, err := pdf.Open(path)
	if err != nil {
		return "", 0, err
	}
	defer f.Close()

	pages = reader.NumPage()
	var b strings.Builder
	for i := 1; i <= pages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		pt, err := page.GetPlainText(nil)
		if err != nil {
			return "", pages, fmt.Errorf("page %d: %w", i, err)
		}
		if b.Len() > 0 {
			b.WriteString("\f")
		}
		b.WriteString(pt)
	}
	return b.String(), pages, nil
}
