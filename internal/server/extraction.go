// Package server exposes the extraction engine over gRPC.
package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/joseph-ayodele/legaldoc-extractor/internal/common"
	"github.com/joseph-ayodele/legaldoc-extractor/internal/core"
	"github.com/joseph-ayodele/legaldoc-extractor/internal/doctype"
	"github.com/joseph-ayodele/legaldoc-extractor/internal/schema"
)

// DocumentProcessor is the subset of *core.Processor the service needs.
type DocumentProcessor interface {
	ProcessText(ctx context.Context, text string, dt *doctype.Type, opts core.Options) (core.Document, error)
	Registry() *doctype.Registry
}

type ExtractionService struct {
	proc   DocumentProcessor
	logger *slog.Logger
}

var _ ExtractionServer = (*ExtractionService)(nil)

func NewExtractionService(proc DocumentProcessor, logger *slog.Logger) *ExtractionService {
	if logger == nil {
		logger = slog.Default()
	}
	return &ExtractionService{proc: proc, logger: logger}
}

// Extract implements ExtractionServer.
//
// Request fields: text (required), document_type, schema_yaml, instructions,
// max_chars, overlap. Either document_type or schema_yaml must be set.
func (s *ExtractionService) Extract(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	fields := req.GetFields()
	text := fields["text"].GetStringValue()
	maxChars := int(fields["max_chars"].GetNumberValue())
	overlap := int(fields["overlap"].GetNumberValue())

	v := common.NewValidator().
		Field("text", text, common.Required).
		Field("max_chars", maxChars, common.NonNegative).
		Field("overlap", overlap, common.NonNegative)
	if err := common.ValidateAndReturnError(v); err != nil {
		s.logger.Error("extract request invalid", "error", v.ErrorMessage())
		return nil, err
	}
	ctx = common.WithRequestID(ctx, uuid.New().String())
	log := common.LoggerFromContext(ctx, s.logger)

	dt, err := s.resolveType(
		strings.TrimSpace(fields["document_type"].GetStringValue()),
		fields["schema_yaml"].GetStringValue(),
		fields["instructions"].GetStringValue(),
	)
	if err != nil {
		return nil, err
	}

	opts := core.Options{MaxChars: maxChars, Overlap: overlap}

	start := time.Now()
	log.Info("server.extract.start", "document_type", dt.Name, "chars", len(text))
	doc, err := s.proc.ProcessText(ctx, text, dt, opts)
	if err != nil {
		log.Error("server.extract.failed", "document_type", dt.Name, "error", err)
		return nil, common.ToGRPCStatus(err)
	}
	log.Info("server.extract.done",
		"document_type", dt.Name,
		"status", doc.Status,
		"chunks", doc.Chunks,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)

	record, err := toStruct(doc.Data)
	if err != nil {
		return nil, common.InternalErrorf("encode record: %v", err)
	}
	resp, err := structpb.NewStruct(map[string]any{
		"document_id":         doc.ID,
		"document_type":       doc.Type,
		"status":              string(doc.Status),
		"validation_error":    doc.ValidationError,
		"contributing_chunks": ints(doc.ContributingChunks),
		"failed_chunks":       ints(doc.FailedChunks),
		"chunks":              doc.Chunks,
		"warnings":            strs(doc.Warnings),
	})
	if err != nil {
		return nil, common.InternalErrorf("encode response: %v", err)
	}
	resp.Fields["record"] = structpb.NewStructValue(record)
	return resp, nil
}

// ListDocumentTypes implements ExtractionServer.
func (s *ExtractionService) ListDocumentTypes(_ context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	reg := s.proc.Registry()
	out := []any{}
	for _, name := range reg.Names() {
		dt, err := reg.Get(name)
		if err != nil {
			continue
		}
		names := make([]any, 0, len(dt.Schema.Fields))
		for _, f := range dt.Schema.Fields {
			names = append(names, f.Name)
		}
		out = append(out, map[string]any{
			"name":        dt.Name,
			"description": dt.Description,
			"fields":      names,
		})
	}
	resp, err := structpb.NewStruct(map[string]any{"document_types": out})
	if err != nil {
		return nil, common.InternalErrorf("encode response: %v", err)
	}
	return resp, nil
}

// resolveType picks the registered type, or builds one from a caller
// supplied schema. A custom schema inherits the registered type's
// instructions but never its hook.
func (s *ExtractionService) resolveType(name, schemaYAML, instructions string) (*doctype.Type, error) {
	reg := s.proc.Registry()
	if strings.TrimSpace(schemaYAML) != "" {
		d, err := schema.Parse([]byte(schemaYAML))
		if err != nil {
			return nil, common.InvalidArgumentErrorf("schema_yaml: %v", err)
		}
		dt := &doctype.Type{Name: name, Schema: d, Instructions: instructions}
		if registered, err := reg.Get(name); name != "" && err == nil {
			dt.Name = registered.Name
			if dt.Instructions == "" {
				dt.Instructions = registered.Instructions
			}
		}
		if dt.Name == "" {
			dt.Name = d.Name
		}
		return dt, nil
	}
	if name == "" {
		return nil, common.InvalidArgumentError("document_type or schema_yaml is required")
	}
	dt, err := reg.Get(name)
	if err != nil {
		return nil, common.ToGRPCStatus(err)
	}
	if instructions != "" {
		cp := *dt
		cp.Instructions = instructions
		dt = &cp
	}
	return dt, nil
}

// toStruct converts a record to a Struct, falling back to a JSON round trip
// for values structpb does not know (typed slices from custom hooks).
func toStruct(m map[string]any) (*structpb.Struct, error) {
	if st, err := structpb.NewStruct(m); err == nil {
		return st, nil
	}
	b, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	var generic map[string]any
	if err := json.Unmarshal(b, &generic); err != nil {
		return nil, err
	}
	return structpb.NewStruct(generic)
}

func ints(xs []int) []any {
	out := make([]any, len(xs))
	for i, x := range xs {
		out[i] = x
	}
	return out
}

func strs(xs []string) []any {
	out := make([]any, len(xs))
	for i, x := range xs {
		out[i] = x
	}
	return out
}
