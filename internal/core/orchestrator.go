package core

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/sync/errgroup"

	"github.com/joseph-ayodele/legaldoc-extractor/constants"
	"github.com/joseph-ayodele/legaldoc-extractor/internal/chunk"
	"github.com/joseph-ayodele/legaldoc-extractor/internal/common"
	"github.com/joseph-ayodele/legaldoc-extractor/internal/extract"
	"github.com/joseph-ayodele/legaldoc-extractor/internal/merge"
	"github.com/joseph-ayodele/legaldoc-extractor/internal/schema"
)

const DefaultConcurrency = 4

// Hook post-processes a validated record. It returns the record to keep and
// any warnings worth surfacing to the caller.
type Hook func(record map[string]any) (map[string]any, []string)

// Options tune one extraction. Zero values fall back to the orchestrator's
// defaults. MaxChars and Overlap travel together: when MaxChars is set,
// Overlap is used as given, so zero means no overlap.
type Options struct {
	MaxChars    int
	Overlap     int
	Concurrency int
	Hook        Hook
}

func (o Options) withDefaults(def Options) Options {
	if o.MaxChars == 0 {
		o.MaxChars = def.MaxChars
		o.Overlap = def.Overlap
	}
	if o.Concurrency <= 0 {
		o.Concurrency = def.Concurrency
	}
	if o.Hook == nil {
		o.Hook = def.Hook
	}
	return o
}

// MergedRecord is the outcome of one document extraction.
type MergedRecord struct {
	Data               map[string]any
	ContributingChunks []int
	FailedChunks       []int
	Chunks             int
	Status             constants.ValidationStatus
	ValidationError    string
	Warnings           []string
}

// ChunkExtractor is the per-chunk extraction step; *extract.Client implements it.
type ChunkExtractor interface {
	ExtractChunk(ctx context.Context, t extract.Task) extract.Candidate
}

// Orchestrator runs the chunk, extract, merge and validate pipeline for one
// document at a time. It holds no per-document state and may be shared.
type Orchestrator struct {
	client   ChunkExtractor
	defaults Options
	logger   *slog.Logger
}

func NewOrchestrator(client ChunkExtractor, defaults Options, logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	if defaults.MaxChars <= 0 {
		defaults.MaxChars = chunk.DefaultMaxChars
		defaults.Overlap = chunk.DefaultOverlap
	}
	if defaults.Concurrency <= 0 {
		defaults.Concurrency = DefaultConcurrency
	}
	return &Orchestrator{client: client, defaults: defaults, logger: logger}
}

// Extract returns EmptyInput, Chunking and TotalExtractionFailure errors;
// every other failure is absorbed into the returned record's status.
func (o *Orchestrator) Extract(ctx context.Context, text string, d *schema.Descriptor, instructions string, opts Options) (MergedRecord, error) {
	if strings.TrimSpace(text) == "" {
		return MergedRecord{}, common.EmptyInputError()
	}
	if d == nil {
		return MergedRecord{}, common.NewAppError(common.CodeInvalidInput, "schema descriptor is required", common.ErrInvalidInput)
	}
	opts = opts.withDefaults(o.defaults)
	log := common.LoggerFromContext(ctx, o.logger)
	start := time.Now()

	chunks, err := chunk.Split(text, opts.MaxChars, opts.Overlap)
	if err != nil {
		log.Error("orchestrator.chunk.failed", "error", err)
		return MergedRecord{}, err
	}
	if len(chunks) == 0 {
		return MergedRecord{}, common.ChunkingError("no chunks produced from non-empty text")
	}
	mode := "single"
	if len(chunks) > 1 {
		mode = "chunked"
	}
	log.Info("orchestrator.extract.start",
		"mode", mode,
		"chars", utf8.RuneCountInString(text),
		"chunks", len(chunks),
		"max_chars", opts.MaxChars,
		"overlap", opts.Overlap,
		"concurrency", opts.Concurrency,
	)

	candidates := o.extractAll(ctx, chunks, d, instructions, opts.Concurrency)

	contributing := merge.Contributing(candidates)
	if len(contributing) == 0 {
		err := common.TotalExtractionFailure(len(candidates))
		if cause := firstCause(candidates); cause != nil {
			err = errors.Join(err, cause)
		}
		log.Error("orchestrator.extract.total_failure",
			"chunks", len(candidates),
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return MergedRecord{}, err
	}

	data, status, verr := schema.Validate(merge.Merge(candidates), d)
	rec := MergedRecord{
		Data:               data,
		ContributingChunks: contributing,
		FailedChunks:       failedIndexes(candidates),
		Chunks:             len(candidates),
		Status:             finalStatus(status, candidates),
	}
	if verr != nil {
		rec.ValidationError = verr.Error()
		log.Warn("orchestrator.validate.invalid", "error", verr)
	}

	if opts.Hook != nil {
		rec.Data, rec.Warnings = runHook(opts.Hook, rec.Data)
		for _, w := range rec.Warnings {
			log.Warn("orchestrator.hook.warning", "warning", w)
		}
	}

	log.Info("orchestrator.extract.done",
		"status", rec.Status,
		"contributing", len(rec.ContributingChunks),
		"failed", len(rec.FailedChunks),
		"warnings", len(rec.Warnings),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return rec, nil
}

func (o *Orchestrator) extractAll(ctx context.Context, chunks []chunk.Chunk, d *schema.Descriptor, instructions string, limit int) []extract.Candidate {
	schemaJSON := schema.PromptJSON(d)
	out := make([]extract.Candidate, len(chunks))

	var g errgroup.Group
	g.SetLimit(limit)
	for i, c := range chunks {
		g.Go(func() error {
			out[i] = o.client.ExtractChunk(ctx, extract.Task{
				Index:        c.SequenceIndex,
				Total:        len(chunks),
				Text:         c.Text,
				Schema:       d,
				SchemaJSON:   schemaJSON,
				Instructions: instructions,
			})
			return nil
		})
	}
	_ = g.Wait()
	return out
}

func finalStatus(validated constants.ValidationStatus, candidates []extract.Candidate) constants.ValidationStatus {
	if validated == constants.StatusInvalid {
		return constants.StatusInvalid
	}
	for _, c := range candidates {
		if !c.Success || len(c.FieldErrors) > 0 {
			return constants.StatusPartial
		}
	}
	return constants.StatusValid
}

func failedIndexes(candidates []extract.Candidate) []int {
	var out []int
	for _, c := range candidates {
		if !c.Success {
			out = append(out, c.ChunkIndex)
		}
	}
	return out
}

func firstCause(candidates []extract.Candidate) error {
	for _, c := range candidates {
		if c.Cause != nil {
			return c.Cause
		}
	}
	return nil
}

// runHook keeps the unhooked record if the hook panics or returns nil.
func runHook(h Hook, data map[string]any) (out map[string]any, warnings []string) {
	defer func() {
		if r := recover(); r != nil {
			out = data
			warnings = append(warnings, fmt.Sprintf("post-processing failed: %v", r))
		}
	}()
	out, warnings = h(data)
	if out == nil {
		out = data
	}
	return out, warnings
}
