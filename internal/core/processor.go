package core

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/legaldoc-extractor/internal/common"
	"github.com/joseph-ayodele/legaldoc-extractor/internal/doctype"
	"github.com/joseph-ayodele/legaldoc-extractor/internal/ocr"
)

// TextReader is the file-to-text stage; *ocr.Reader implements it.
type TextReader interface {
	Read(ctx context.Context, path string) (ocr.Result, error)
}

// Document is the outcome of processing one input file or text.
type Document struct {
	ID     string
	Path   string
	Type   string
	Source ocr.Result
	MergedRecord
}

// Processor coordinates text reading, then extraction for a document type,
// then processing metadata.
type Processor struct {
	reader   TextReader
	orch     *Orchestrator
	registry *doctype.Registry
	logger   *slog.Logger
	now      func() time.Time
}

func NewProcessor(reader TextReader, orch *Orchestrator, registry *doctype.Registry, logger *slog.Logger) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Processor{reader: reader, orch: orch, registry: registry, logger: logger, now: time.Now}
}

// Registry exposes the document types this processor can handle.
func (p *Processor) Registry() *doctype.Registry { return p.registry }

// ProcessFile reads path and extracts a record of the named document type.
// The record gets a "_procesamiento" section describing the run.
func (p *Processor) ProcessFile(ctx context.Context, path, docType string, opts Options) (Document, error) {
	dt, err := p.registry.Get(docType)
	if err != nil {
		return Document{Path: path, Type: docType}, err
	}
	doc := Document{ID: uuid.New().String(), Path: path, Type: dt.Name}
	ctx = common.WithDocumentType(common.WithDocumentID(ctx, doc.ID), dt.Name)
	log := common.LoggerFromContext(ctx, p.logger)
	start := time.Now()

	src, err := p.reader.Read(ctx, path)
	doc.Source = src
	if err != nil {
		log.Error("processor.read.failed", "path", path, "error", err)
		return doc, fmt.Errorf("read %s: %w", path, err)
	}
	log.Debug("processor.read.ok", "path", path, "method", src.Method, "pages", src.Pages, "chars", len(src.Text))

	rec, err := p.extract(ctx, src.Text, dt, opts)
	if err != nil {
		log.Error("processor.extract.failed", "path", path, "error", err)
		return doc, err
	}
	rec.Warnings = append(append([]string{}, src.Warnings...), rec.Warnings...)
	rec.Data = withProcessingInfo(rec, processingInfo{
		at:     p.now(),
		path:   path,
		system: dt.Name,
		pages:  src.Pages,
		chars:  len(src.Text),
	})
	doc.MergedRecord = rec

	log.Info("processor.file.done",
		"path", path,
		"status", rec.Status,
		"chunks", rec.Chunks,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return doc, nil
}

// ProcessText extracts a record from text already in hand. dt may be a
// registered type or one built on the fly from a caller's schema.
func (p *Processor) ProcessText(ctx context.Context, text string, dt *doctype.Type, opts Options) (Document, error) {
	doc := Document{ID: uuid.New().String(), Type: dt.Name}
	ctx = common.WithDocumentType(common.WithDocumentID(ctx, doc.ID), dt.Name)

	rec, err := p.extract(ctx, text, dt, opts)
	if err != nil {
		return doc, err
	}
	rec.Data = withProcessingInfo(rec, processingInfo{
		at:     p.now(),
		system: dt.Name,
		chars:  len(text),
	})
	doc.MergedRecord = rec
	return doc, nil
}

func (p *Processor) extract(ctx context.Context, text string, dt *doctype.Type, opts Options) (MergedRecord, error) {
	if opts.Hook == nil && dt.Hook != nil {
		opts.Hook = dt.Hook
	}
	return p.orch.Extract(ctx, text, dt.Schema, dt.Instructions, opts)
}

type processingInfo struct {
	at     time.Time
	path   string
	system string
	pages  int
	chars  int
}

func withProcessingInfo(rec MergedRecord, info processingInfo) map[string]any {
	out := make(map[string]any, len(rec.Data)+1)
	for k, v := range rec.Data {
		out[k] = v
	}
	meta := map[string]any{
		"fecha_procesamiento":  info.at.Format(time.RFC3339),
		"sistema":              info.system,
		"caracteres_extraidos": info.chars,
		"chunks":               rec.Chunks,
		"estado_validacion":    string(rec.Status),
	}
	if info.path != "" {
		meta["archivo_origen"] = filepath.Base(info.path)
		meta["ruta_origen"] = info.path
		meta["paginas_procesadas"] = info.pages
	}
	out["_procesamiento"] = meta
	return out
}
