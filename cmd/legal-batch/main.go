package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/joseph-ayodele/legaldoc-extractor/internal/app"
	"github.com/joseph-ayodele/legaldoc-extractor/internal/common"
	"github.com/joseph-ayodele/legaldoc-extractor/internal/core/async"
	"github.com/joseph-ayodele/legaldoc-extractor/internal/export"
	"github.com/joseph-ayodele/legaldoc-extractor/internal/ingest"
)

// printError prints an error message to stderr, falling back to stdout if stderr fails
func printError(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		fmt.Printf(format, args...)
	}
}

func main() {
	var (
		dir      = flag.String("dir", "", "directory to process documents from (required)")
		docType  = flag.String("type", "", "document type for every file (required)")
		out      = flag.String("out", "", "directory for per-document JSON (default <dir>/extracciones)")
		xlsxPath = flag.String("xlsx", "", "summary workbook path (default <out>/resumen.xlsx)")
		workers  = flag.Int("workers", 0, "parallel documents (default from BATCH_WORKERS)")
		watch    = flag.Bool("watch", false, "keep running and process new files as they appear")
		dedup    = flag.Bool("dedup", true, "skip files whose content was already seen in the scan")
	)
	flag.Parse()

	if *dir == "" || *docType == "" {
		printError("Error: --dir and --type are required\n")
		os.Exit(1)
	}
	if *out == "" {
		*out = filepath.Join(*dir, "extracciones")
	}
	if *xlsxPath == "" {
		*xlsxPath = filepath.Join(*out, "resumen.xlsx")
	}

	cfg := common.LoadConfig()
	logger := app.NewLogger(os.Stdout, cfg.SlogLevel())
	slog.SetDefault(logger)
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(2)
	}
	if *workers > 0 {
		cfg.Batch.Workers = *workers
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
	if _, err := components.Registry.Get(*docType); err != nil {
		logger.Error("unknown document type", "type", *docType, "known", components.Registry.Names())
		os.Exit(1)
	}
	if err := os.MkdirAll(*out, 0o755); err != nil {
		logger.Error("failed to create output directory", "dir", *out, "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	queue := async.NewProcessorQueue(components.Processor, logger,
		async.WithWorkers(cfg.Batch.Workers),
		async.WithQueueSize(cfg.Batch.QueueSize),
		async.WithProcessTimeout(cfg.Batch.ProcessTimeout),
	)

	var (
		rows      []export.BatchRow
		processed int
		failures  int
		wg        sync.WaitGroup
	)
	wg.Add(1)
	go func() {
		defer wg.Done()
		for res := range queue.Results() {
			row := export.BatchRow{
				File:         res.Job.Path,
				DocumentType: *docType,
				Status:       string(res.Status()),
				Elapsed:      res.Elapsed,
			}
			if res.Err != nil {
				failures++
				row.Error = res.Err.Error()
				rows = append(rows, row)
				continue
			}
			processed++
			row.DocumentType = res.Document.Type
			row.Status = string(res.Document.Status)
			row.Chunks = res.Document.Chunks
			row.Warnings = len(res.Document.Warnings)
			target := filepath.Join(*out, app.OutputName(*dir, res.Job.Path))
			if err := app.WriteJSONFile(target, res.Document); err != nil {
				row.Error = err.Error()
				logger.Error("failed to write JSON", "path", target, "error", err)
			}
			rows = append(rows, row)
		}
	}()

	enqueue := func(path string) {
		if err := queue.Enqueue(ctx, async.Job{Path: path, DocType: *docType}); err != nil {
			logger.Error("failed to enqueue", "path", path, "error", err)
		}
	}

	if *watch {
		paths, errs, err := ingest.Watch(ctx, ingest.WatchConfig{
			Roots:       []string{*dir},
			InitialScan: true,
			SkipHidden:  true,
			Debounce:    500 * time.Millisecond,
		}, logger)
		if err != nil {
			logger.Error("failed to watch directory", "dir", *dir, "error", err)
			os.Exit(1)
		}
		logger.Info("watching directory", "dir", *dir, "type", *docType)
		for paths != nil || errs != nil {
			select {
			case p, ok := <-paths:
				if !ok {
					paths = nil
					continue
				}
				if !strings.HasPrefix(p, *out) {
					enqueue(p)
				}
			case err, ok := <-errs:
				if !ok {
					errs = nil
					continue
				}
				logger.Warn("watch error", "error", err)
			}
		}
	} else {
		entries, stats, err := ingest.ScanDirectory(ctx, *dir, ingest.ScanOptions{SkipHidden: true, Hash: *dedup})
		if err != nil {
			logger.Error("failed to scan directory", "error", err)
			os.Exit(1)
		}
		logger.Info("scan complete",
			"scanned", stats.Scanned,
			"matched", stats.Matched,
			"duplicates", stats.Duplicates,
			"failed", stats.Failed,
		)
		for _, e := range entries {
			if e.Err != "" || (*dedup && e.Duplicate) || strings.HasPrefix(e.Path, *out) {
				continue
			}
			enqueue(e.Path)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Batch.ProcessTimeout)
	defer cancel()
	queue.Shutdown(shutdownCtx)
	wg.Wait()

	b, err := export.BatchXLSX(rows)
	if err != nil {
		logger.Error("failed to build summary workbook", "error", err)
		os.Exit(1)
	}
	if err := os.WriteFile(*xlsxPath, b, 0o644); err != nil {
		logger.Error("failed to write summary workbook", "path", *xlsxPath, "error", err)
		os.Exit(1)
	}

	logger.Info("batch processing complete",
		"files_processed", processed,
		"failures", failures,
		"output_dir", *out,
		"summary", *xlsxPath,
	)
	if failures > 0 {
		os.Exit(1)
	}
}
