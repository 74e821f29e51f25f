package core

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/joseph-ayodele/legaldoc-extractor/constants"
	"github.com/joseph-ayodele/legaldoc-extractor/internal/common"
	"github.com/joseph-ayodele/legaldoc-extractor/internal/doctype"
	"github.com/joseph-ayodele/legaldoc-extractor/internal/extract"
	"github.com/joseph-ayodele/legaldoc-extractor/internal/llm/llmtest"
	"github.com/joseph-ayodele/legaldoc-extractor/internal/ocr"
)

type fakeReader struct {
	res ocr.Result
	err error
}

func (f fakeReader) Read(context.Context, string) (ocr.Result, error) { return f.res, f.err }

func newProcessor(t *testing.T, reader TextReader, fake *llmtest.Scripted) *Processor {
	t.Helper()
	reg, err := doctype.Builtin()
	if err != nil {
		t.Fatal(err)
	}
	orch := NewOrchestrator(extract.NewClient(fake, extract.Config{}, nil), Options{}, nil)
	p := NewProcessor(reader, orch, reg, nil)
	p.now = func() time.Time { return time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC) }
	return p
}

const cancelacionJSON = `{
  "metadata": {"numero_escritura": "1234", "fecha": "10 de mayo de 2024"},
  "acreedor": {"nombre": "Bancolombia S.A.", "nit_cc": "890.903.938-8"},
  "obligacion": {"escritura_constitucion": "987", "monto_original": "$50.000.000"},
  "inmuebles": [{"matricula_inmobiliaria": "050C-111"}],
  "cancelacion": {"paz_y_salvo": "si"}
}`

func TestProcessFile_EnrichesRecord(t *testing.T) {
	reader := fakeReader{res: ocr.Result{Text: "ESCRITURA PUBLICA 1234 ...", Pages: 3, Method: "pdf-text", Warnings: []string{"pdf text layer empty"}}}
	fake := llmtest.New().Otherwise(cancelacionJSON)
	p := newProcessor(t, reader, fake)

	doc, err := p.ProcessFile(context.Background(), "/datos/minutas/cancelacion_1.pdf", "cancelacion", Options{})
	if err != nil {
		t.Fatalf("ProcessFile: %v", err)
	}
	if doc.Type != "minuta_cancelacion" || doc.ID == "" {
		t.Fatalf("unexpected doc header: %+v", doc)
	}
	if doc.Status != constants.StatusValid {
		t.Fatalf("expected valid, got %s (%s)", doc.Status, doc.ValidationError)
	}
	want := map[string]any{
		"fecha_procesamiento":  "2024-05-10T12:00:00Z",
		"archivo_origen":       "cancelacion_1.pdf",
		"ruta_origen":          "/datos/minutas/cancelacion_1.pdf",
		"sistema":              "minuta_cancelacion",
		"paginas_procesadas":   3,
		"caracteres_extraidos": len(reader.res.Text),
		"chunks":               1,
		"estado_validacion":    "valid",
	}
	if diff := cmp.Diff(want, doc.Data["_procesamiento"]); diff != "" {
		t.Fatalf("_procesamiento (-want +got):\n%s", diff)
	}
	if _, ok := doc.Data["_resumen_cancelacion"]; !ok {
		t.Fatal("document type hook did not run")
	}
	if doc.Data["cancelacion"].(map[string]any)["paz_y_salvo"] != true {
		t.Fatalf("boolean not coerced: %v", doc.Data["cancelacion"])
	}
	if len(doc.Warnings) == 0 || doc.Warnings[0] != "pdf text layer empty" {
		t.Fatalf("reader warnings should lead: %v", doc.Warnings)
	}
}

func TestProcessFile_UnknownType(t *testing.T) {
	fake := llmtest.New().Otherwise(`{}`)
	p := newProcessor(t, fakeReader{}, fake)
	_, err := p.ProcessFile(context.Background(), "x.txt", "contrato", Options{})
	if !errors.Is(err, common.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if fake.Calls() != 0 {
		t.Fatal("no model calls expected")
	}
}

func TestProcessFile_ReadErrorAndEmptyText(t *testing.T) {
	fake := llmtest.New().Otherwise(`{}`)

	p := newProcessor(t, fakeReader{err: errors.New("permission denied")}, fake)
	if _, err := p.ProcessFile(context.Background(), "x.pdf", "estudio_titulos", Options{}); err == nil {
		t.Fatal("expected read error")
	}

	p = newProcessor(t, fakeReader{res: ocr.Result{Text: "  "}}, fake)
	_, err := p.ProcessFile(context.Background(), "scan.pdf", "estudio_titulos", Options{})
	if !errors.Is(err, common.ErrEmptyInput) {
		t.Fatalf("expected empty input, got %v", err)
	}
}

func TestProcessText_CustomType(t *testing.T) {
	reg := doctype.NewRegistry()
	dt := &doctype.Type{Name: "poder", Schema: descriptor(), Instructions: "Extrae el poder."}
	if err := reg.Register(dt); err != nil {
		t.Fatal(err)
	}
	fake := llmtest.New().Otherwise(`{"nombre":"Ana"}`)
	orch := NewOrchestrator(extract.NewClient(fake, extract.Config{}, nil), Options{}, nil)
	p := NewProcessor(nil, orch, reg, nil)

	doc, err := p.ProcessText(context.Background(), "Yo, Ana, otorgo poder", dt, Options{})
	if err != nil {
		t.Fatal(err)
	}
	meta := doc.Data["_procesamiento"].(map[string]any)
	if meta["sistema"] != "poder" || meta["caracteres_extraidos"] != 21 {
		t.Fatalf("unexpected metadata: %v", meta)
	}
	if _, ok := meta["ruta_origen"]; ok {
		t.Fatal("text input has no source path")
	}
}
