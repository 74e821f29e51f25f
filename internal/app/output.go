package app

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joseph-ayodele/legaldoc-extractor/internal/core"
	"github.com/joseph-ayodele/legaldoc-extractor/internal/export"
)

// DocumentOutput is the JSON written by the CLIs for one document.
type DocumentOutput struct {
	DocumentID         string         `json:"document_id"`
	DocumentType       string         `json:"document_type"`
	File               string         `json:"file,omitempty"`
	Status             string         `json:"status"`
	ValidationError    string         `json:"validation_error,omitempty"`
	Chunks             int            `json:"chunks"`
	ContributingChunks []int          `json:"contributing_chunks"`
	FailedChunks       []int          `json:"failed_chunks,omitempty"`
	Warnings           []string       `json:"warnings,omitempty"`
	Record             map[string]any `json:"record"`
}

func NewDocumentOutput(doc core.Document) DocumentOutput {
	return DocumentOutput{
		DocumentID:         doc.ID,
		DocumentType:       doc.Type,
		File:               doc.Path,
		Status:             string(doc.Status),
		ValidationError:    doc.ValidationError,
		Chunks:             doc.Chunks,
		ContributingChunks: doc.ContributingChunks,
		FailedChunks:       doc.FailedChunks,
		Warnings:           doc.Warnings,
		Record:             doc.Data,
	}
}

// WriteJSON encodes doc indented; accented text is kept as is.
func WriteJSON(w io.Writer, doc core.Document) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(NewDocumentOutput(doc))
}

// WriteJSONFile writes doc to path, or to stdout when path is empty.
func WriteJSONFile(path string, doc core.Document) error {
	if path == "" {
		return WriteJSON(os.Stdout, doc)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := WriteJSON(f, doc); err != nil {
		_ = f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}

// RecordMeta maps a processed document onto the export summary sheet.
func RecordMeta(doc core.Document, at time.Time) export.Meta {
	return export.Meta{
		File:               doc.Path,
		DocumentType:       doc.Type,
		Status:             doc.Status,
		Chunks:             doc.Chunks,
		ContributingChunks: doc.ContributingChunks,
		FailedChunks:       doc.FailedChunks,
		ValidationError:    doc.ValidationError,
		Warnings:           doc.Warnings,
		ProcessedAt:        at,
	}
}

// OutputName derives a JSON file name for path that stays unique within
// root: the path relative to root with separators flattened and the source
// extension kept, so a/x.pdf, b/x.pdf and x.docx never collide.
func OutputName(root, path string) string {
	rel, err := filepath.Rel(root, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		rel = filepath.Base(path)
	}
	rel = filepath.ToSlash(rel)
	return strings.ReplaceAll(rel, "/", "__") + ".json"
}
