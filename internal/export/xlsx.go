// Package export renders extracted records as XLSX workbooks.
package export

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/legaldoc-extractor/constants"
)

const (
	SheetRecord  = "Registro"
	SheetSummary = "Resumen"
	SheetBatch   = "Documentos"
)

// Meta is written to the summary sheet of a single-record workbook.
type Meta struct {
	File               string
	DocumentType       string
	Status             constants.ValidationStatus
	Chunks             int
	ContributingChunks []int
	FailedChunks       []int
	ValidationError    string
	Warnings           []string
	ProcessedAt        time.Time
}

// BatchRow is one processed document in a batch summary.
type BatchRow struct {
	File         string
	DocumentType string
	Status       string
	Chunks       int
	Warnings     int
	Error        string
	Elapsed      time.Duration
}

// Field is one flattened leaf of a record.
type Field struct {
	Path  string
	Value any
}

// RecordXLSX returns a workbook (as bytes) with the flattened record on
// "Registro" and the processing metadata on "Resumen".
func RecordXLSX(record map[string]any, meta Meta) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := renameDefault(f, SheetRecord); err != nil {
		return nil, err
	}
	header(f, SheetRecord, "Campo", "Valor")
	for i, fl := range Flatten(record) {
		row := i + 2
		write(f, SheetRecord, 1, row, fl.Path)
		write(f, SheetRecord, 2, row, fl.Value)
	}
	_ = f.SetColWidth(SheetRecord, "A", "A", 48)
	_ = f.SetColWidth(SheetRecord, "B", "B", 80)

	if _, err := f.NewSheet(SheetSummary); err != nil {
		return nil, err
	}
	header(f, SheetSummary, "Campo", "Valor")
	processed := ""
	if !meta.ProcessedAt.IsZero() {
		processed = meta.ProcessedAt.Format(time.RFC3339)
	}
	rows := [][2]any{
		{"archivo", meta.File},
		{"tipo_documento", meta.DocumentType},
		{"estado_validacion", string(meta.Status)},
		{"chunks", meta.Chunks},
		{"chunks_contribuyentes", joinInts(meta.ContributingChunks)},
		{"chunks_fallidos", joinInts(meta.FailedChunks)},
		{"error_validacion", meta.ValidationError},
		{"fecha_procesamiento", processed},
	}
	for i, w := range meta.Warnings {
		rows = append(rows, [2]any{fmt.Sprintf("advertencia_%d", i+1), w})
	}
	for i, r := range rows {
		write(f, SheetSummary, 1, i+2, r[0])
		write(f, SheetSummary, 2, i+2, r[1])
	}
	_ = f.SetColWidth(SheetSummary, "A", "A", 26)
	_ = f.SetColWidth(SheetSummary, "B", "B", 80)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}
	return buf.Bytes(), nil
}

// BatchXLSX returns a workbook with one row per processed document.
func BatchXLSX(rows []BatchRow) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := renameDefault(f, SheetBatch); err != nil {
		return nil, err
	}
	header(f, SheetBatch, "Archivo", "Tipo", "Estado", "Chunks", "Advertencias", "Error", "Duracion (ms)")
	for i, r := range rows {
		row := i + 2
		write(f, SheetBatch, 1, row, r.File)
		write(f, SheetBatch, 2, row, r.DocumentType)
		write(f, SheetBatch, 3, row, r.Status)
		write(f, SheetBatch, 4, row, r.Chunks)
		write(f, SheetBatch, 5, row, r.Warnings)
		write(f, SheetBatch, 6, row, truncate(r.Error, 300))
		write(f, SheetBatch, 7, row, r.Elapsed.Milliseconds())
	}
	_ = f.SetColWidth(SheetBatch, "A", "A", 60)
	_ = f.SetColWidth(SheetBatch, "B", "C", 22)
	_ = f.SetColWidth(SheetBatch, "F", "F", 60)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}
	return buf.Bytes(), nil
}

// Flatten walks record depth-first with object keys sorted. Nested keys are
// joined with "." and list elements get an "[i]" suffix. Empty objects and
// lists produce a single row with an empty value.
func Flatten(record map[string]any) []Field {
	var out []Field
	flatten("", record, &out)
	return out
}

func flatten(path string, v any, out *[]Field) {
	switch t := v.(type) {
	case map[string]any:
		if len(t) == 0 {
			if path != "" {
				*out = append(*out, Field{Path: path, Value: ""})
			}
			return
		}
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			p := k
			if path != "" {
				p = path + "." + k
			}
			flatten(p, t[k], out)
		}
	case []any:
		if len(t) == 0 {
			*out = append(*out, Field{Path: path, Value: ""})
			return
		}
		for i, e := range t {
			flatten(path+"["+strconv.Itoa(i)+"]", e, out)
		}
	case nil:
		*out = append(*out, Field{Path: path, Value: ""})
	default:
		*out = append(*out, Field{Path: path, Value: t})
	}
}

func renameDefault(f *excelize.File, name string) error {
	if err := f.SetSheetName("Sheet1", name); err != nil {
		return err
	}
	idx, err := f.GetSheetIndex(name)
	if err != nil {
		return err
	}
	f.SetActiveSheet(idx)
	return nil
}

func header(f *excelize.File, sheet string, cols ...string) {
	for i, h := range cols {
		write(f, sheet, i+1, 1, h)
	}
	if style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}}); err == nil {
		end, _ := excelize.CoordinatesToCellName(len(cols), 1)
		_ = f.SetCellStyle(sheet, "A1", end, style)
	}
}

func write(f *excelize.File, sheet string, col, row int, v any) {
	cell, _ := excelize.CoordinatesToCellName(col, row)
	_ = f.SetCellValue(sheet, cell, v)
}

func joinInts(xs []int) string {
	parts := make([]string, len(xs))
	for i, x := range xs {
		parts[i] = strconv.Itoa(x)
	}
	return strings.Join(parts, ", ")
}

func truncate(s string, n int) string {
	if n <= 0 || len(s) <= n {
		return s
	}
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
