package export

import (
	"bytes"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/legaldoc-extractor/constants"
)

func sampleRecord() map[string]any {
	return map[string]any{
		"numero_radicado": "2024-001",
		"inmueble": map[string]any{
			"matricula_inmobiliaria": "50C-123",
			"area":                   nil,
		},
		"propietarios": []any{
			map[string]any{"nombre": "Ana", "porcentaje": "50%"},
			map[string]any{"nombre": "Luis", "porcentaje": "50%"},
		},
		"gravamenes": []any{},
	}
}

func TestFlatten(t *testing.T) {
	got := Flatten(sampleRecord())
	want := []Field{
		{Path: "gravamenes", Value: ""},
		{Path: "inmueble.area", Value: ""},
		{Path: "inmueble.matricula_inmobiliaria", Value: "50C-123"},
		{Path: "numero_radicado", Value: "2024-001"},
		{Path: "propietarios[0].nombre", Value: "Ana"},
		{Path: "propietarios[0].porcentaje", Value: "50%"},
		{Path: "propietarios[1].nombre", Value: "Luis"},
		{Path: "propietarios[1].porcentaje", Value: "50%"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("Flatten mismatch (-want +got):\n%s", diff)
	}
}

func TestFlattenEmptyRecord(t *testing.T) {
	if got := Flatten(map[string]any{}); len(got) != 0 {
		t.Fatalf("got %v, want no rows", got)
	}
}

func TestRecordXLSX(t *testing.T) {
	meta := Meta{
		File:               "minuta.pdf",
		DocumentType:       "estudio_titulos",
		Status:             constants.StatusPartial,
		Chunks:             3,
		ContributingChunks: []int{0, 2},
		FailedChunks:       []int{1},
		Warnings:           []string{"chunk 1 failed"},
		ProcessedAt:        time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC),
	}
	data, err := RecordXLSX(sampleRecord(), meta)
	if err != nil {
		t.Fatalf("RecordXLSX: %v", err)
	}

	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()

	if diff := cmp.Diff([]string{SheetRecord, SheetSummary}, f.GetSheetList()); diff != "" {
		t.Fatalf("sheets (-want +got):\n%s", diff)
	}

	rows, err := f.GetRows(SheetRecord)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 9 {
		t.Fatalf("record rows = %d, want header + 8", len(rows))
	}
	if rows[0][0] != "Campo" || rows[3][0] != "inmueble.matricula_inmobiliaria" || rows[3][1] != "50C-123" {
		t.Errorf("unexpected record rows: %v", rows)
	}

	summary, err := f.GetRows(SheetSummary)
	if err != nil {
		t.Fatal(err)
	}
	got := map[string]string{}
	for _, r := range summary[1:] {
		if len(r) == 2 {
			got[r[0]] = r[1]
		}
	}
	for k, want := range map[string]string{
		"archivo":               "minuta.pdf",
		"estado_validacion":     "partial",
		"chunks":                "3",
		"chunks_contribuyentes": "0, 2",
		"chunks_fallidos":       "1",
		"fecha_procesamiento":   "2024-05-10T12:00:00Z",
		"advertencia_1":         "chunk 1 failed",
	} {
		if got[k] != want {
			t.Errorf("summary[%s] = %q, want %q", k, got[k], want)
		}
	}
}

func TestBatchXLSX(t *testing.T) {
	data, err := BatchXLSX([]BatchRow{
		{File: "a.pdf", DocumentType: "minuta_cancelacion", Status: "valid", Chunks: 1},
		{File: "b.pdf", DocumentType: "minuta_cancelacion", Status: "FAILED", Error: "read b.pdf: boom"},
	})
	if err != nil {
		t.Fatalf("BatchXLSX: %v", err)
	}
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows(SheetBatch)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 3 {
		t.Fatalf("rows = %d, want 3", len(rows))
	}
	if rows[1][0] != "a.pdf" || rows[1][2] != "valid" || rows[1][3] != "1" {
		t.Errorf("row 1 = %v", rows[1])
	}
	if rows[2][5] != "read b.pdf: boom" {
		t.Errorf("row 2 = %v", rows[2])
	}
}
