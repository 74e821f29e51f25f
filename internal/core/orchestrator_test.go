package core

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/joseph-ayodele/legaldoc-extractor/constants"
	"github.com/joseph-ayodele/legaldoc-extractor/internal/chunk"
	"github.com/joseph-ayodele/legaldoc-extractor/internal/common"
	"github.com/joseph-ayodele/legaldoc-extractor/internal/extract"
	"github.com/joseph-ayodele/legaldoc-extractor/internal/llm/llmtest"
	"github.com/joseph-ayodele/legaldoc-extractor/internal/schema"
)

func descriptor() *schema.Descriptor {
	return schema.New("prueba",
		schema.String("nombre"),
		schema.String("numero_radicado"),
		schema.ListOf("lista", schema.String("item")),
	)
}

func newOrchestrator(fake *llmtest.Scripted) *Orchestrator {
	return NewOrchestrator(extract.NewClient(fake, extract.Config{}, nil), Options{}, nil)
}

// words builds text of about n bytes with spaces but no sentence breaks.
func words(n int) string {
	var b strings.Builder
	for b.Len() < n {
		b.WriteString("palabra ")
	}
	return b.String()[:n]
}

func fragment(i, total int) string { return fmt.Sprintf("fragmento %d de %d", i+1, total) }

func TestExtract_ScenarioA_SingleShot(t *testing.T) {
	text := "  " + words(5000) + "\n"
	fake := llmtest.New().Otherwise(`{"nombre":"Pedro"}`)
	o := newOrchestrator(fake)

	rec, err := o.Extract(context.Background(), text, descriptor(), "instr", Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fake.Calls() != 1 {
		t.Fatalf("expected one model call, got %d", fake.Calls())
	}
	user := fake.Requests()[0].User
	if !strings.Contains(user, strings.TrimSpace(text)+"\n") || strings.Contains(user, "fragmento") {
		t.Fatalf("single-shot prompt should carry the trimmed text without a fragment note")
	}
	if rec.Status != constants.StatusValid || rec.Chunks != 1 {
		t.Fatalf("unexpected record: %+v", rec)
	}
	want := map[string]any{"nombre": "Pedro", "numero_radicado": nil, "lista": []any{}}
	if diff := cmp.Diff(want, rec.Data); diff != "" {
		t.Fatalf("(-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]int{0}, rec.ContributingChunks); diff != "" {
		t.Fatalf("contributing (-want +got):\n%s", diff)
	}
}

func TestExtract_ScenarioB_NoBoundaries(t *testing.T) {
	text := strings.Repeat("x", 250000)
	fake := llmtest.New().Otherwise(`{"lista":["x"]}`)
	o := newOrchestrator(fake)

	rec, err := o.Extract(context.Background(), text, descriptor(), "", Options{MaxChars: 100000, Overlap: 1000})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Chunks != 3 || fake.Calls() != 3 {
		t.Fatalf("expected 3 chunks and calls, got %d/%d", rec.Chunks, fake.Calls())
	}
	if diff := cmp.Diff([]any{"x"}, rec.Data["lista"]); diff != "" {
		t.Fatalf("lista (-want +got):\n%s", diff)
	}
}

func TestExtract_ScenarioC_FirstWinsAcrossChunks(t *testing.T) {
	text := words(250)
	chunks, err := chunk.Split(text, 100, 10)
	if err != nil {
		t.Fatal(err)
	}
	n := len(chunks)
	if n < 2 {
		t.Fatalf("test needs multiple chunks, got %d", n)
	}
	// chunk 0 answers last; precedence must still follow chunk order
	fake := llmtest.New().
		Slow(fragment(0, n), `{"nombre":"Pedro","numero_radicado":"A","lista":["a"]}`, 50*time.Millisecond).
		On(fragment(1, n), `{"nombre":"Maria","numero_radicado":"B","lista":["a","b"]}`).
		Otherwise(`{"lista":["b"]}`)
	o := newOrchestrator(fake)

	rec, err := o.Extract(context.Background(), text, descriptor(), "", Options{MaxChars: 100, Overlap: 10, Concurrency: n})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := map[string]any{"nombre": "Pedro", "numero_radicado": "A", "lista": []any{"a", "b"}}
	if diff := cmp.Diff(want, rec.Data); diff != "" {
		t.Fatalf("(-want +got):\n%s", diff)
	}
	if rec.Status != constants.StatusValid || len(rec.ContributingChunks) != n {
		t.Fatalf("unexpected record: %+v", rec)
	}
}

func TestExtract_ScenarioD_TotalFailure(t *testing.T) {
	fake := llmtest.Down()
	o := newOrchestrator(fake)

	_, err := o.Extract(context.Background(), words(250), descriptor(), "", Options{MaxChars: 100, Overlap: 10})
	if !errors.Is(err, common.ErrTotalExtractionFailure) {
		t.Fatalf("expected total failure, got %v", err)
	}
	if !errors.Is(err, common.ErrExtractionTransport) {
		t.Errorf("total failure should carry the transport cause, got %v", err)
	}
	if fake.Calls() < 2 {
		t.Fatalf("every chunk should be attempted, got %d calls", fake.Calls())
	}
}

func TestExtract_SingleShotFailureIsTotal(t *testing.T) {
	o := newOrchestrator(llmtest.New().Otherwise("sin json"))
	_, err := o.Extract(context.Background(), "texto corto", descriptor(), "", Options{})
	if !errors.Is(err, common.ErrTotalExtractionFailure) || !errors.Is(err, common.ErrExtractionFormat) {
		t.Fatalf("expected total failure from format error, got %v", err)
	}
}

func TestExtract_PartialWhenSomeChunksFail(t *testing.T) {
	text := words(250)
	chunks, _ := chunk.Split(text, 100, 10)
	n := len(chunks)
	fake := llmtest.New().
		Fail(fragment(1, n)).
		Otherwise(`{"nombre":"Pedro"}`)
	o := newOrchestrator(fake)

	rec, err := o.Extract(context.Background(), text, descriptor(), "", Options{MaxChars: 100, Overlap: 10})
	if err != nil {
		t.Fatalf("one failed chunk must not abort the document: %v", err)
	}
	if rec.Status != constants.StatusPartial {
		t.Fatalf("expected partial, got %s", rec.Status)
	}
	if diff := cmp.Diff([]int{1}, rec.FailedChunks); diff != "" {
		t.Fatalf("failed chunks (-want +got):\n%s", diff)
	}
	if rec.Data["nombre"] != "Pedro" {
		t.Fatalf("surviving chunks should still merge, got %v", rec.Data)
	}
}

func TestExtract_PartialOnFieldErrors(t *testing.T) {
	d := schema.New("prueba", schema.String("nombre"), schema.Scalar("monto", schema.TypeNumber))
	o := newOrchestrator(llmtest.New().Otherwise(`{"nombre":"Ana","monto":"mucho"}`))
	rec, err := o.Extract(context.Background(), "texto", d, "", Options{})
	if err != nil {
		t.Fatal(err)
	}
	if rec.Status != constants.StatusPartial {
		t.Fatalf("expected partial, got %s", rec.Status)
	}
}

func TestExtract_InvalidFailsOpen(t *testing.T) {
	d := schema.New("prueba", schema.String("nombre").AsRequired(), schema.String("notaria"))
	o := newOrchestrator(llmtest.New().Otherwise(`{"notaria":"Quinta"}`))
	rec, err := o.Extract(context.Background(), "texto", d, "", Options{})
	if err != nil {
		t.Fatalf("validation failure must not be an error: %v", err)
	}
	if rec.Status != constants.StatusInvalid || rec.ValidationError == "" {
		t.Fatalf("expected invalid with detail, got %+v", rec)
	}
	if rec.Data["notaria"] != "Quinta" {
		t.Fatalf("data must survive validation failure, got %v", rec.Data)
	}
}

func TestExtract_EmptyInput(t *testing.T) {
	fake := llmtest.New().Otherwise(`{}`)
	o := newOrchestrator(fake)
	for _, text := range []string{"", "   \n\t "} {
		_, err := o.Extract(context.Background(), text, descriptor(), "", Options{})
		if !errors.Is(err, common.ErrEmptyInput) {
			t.Fatalf("%q: expected empty input, got %v", text, err)
		}
	}
	if fake.Calls() != 0 {
		t.Fatalf("no model calls expected, got %d", fake.Calls())
	}
}

func TestExtract_InvalidChunkingParams(t *testing.T) {
	o := newOrchestrator(llmtest.New().Otherwise(`{}`))
	_, err := o.Extract(context.Background(), "texto", descriptor(), "", Options{MaxChars: 10, Overlap: 10})
	if !errors.Is(err, common.ErrChunking) {
		t.Fatalf("expected chunking error, got %v", err)
	}
}

func TestExtract_NilSchema(t *testing.T) {
	o := newOrchestrator(llmtest.New().Otherwise(`{}`))
	_, err := o.Extract(context.Background(), "texto", nil, "", Options{})
	if !errors.Is(err, common.ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
}

func TestExtract_ConcurrencyLimit(t *testing.T) {
	fake := llmtest.New().Slow("fragmento", `{"nombre":"x"}`, 20*time.Millisecond)
	o := newOrchestrator(fake)

	rec, err := o.Extract(context.Background(), words(1000), descriptor(), "", Options{MaxChars: 100, Overlap: 0, Concurrency: 2})
	if err != nil {
		t.Fatal(err)
	}
	if rec.Chunks < 5 {
		t.Fatalf("expected many chunks, got %d", rec.Chunks)
	}
	if p := fake.PeakConcurrency(); p > 2 {
		t.Fatalf("concurrency limit exceeded: peak %d", p)
	}
}

func TestExtract_HookRunsOnValidatedRecord(t *testing.T) {
	var seen map[string]any
	hook := func(r map[string]any) (map[string]any, []string) {
		seen = r
		out := map[string]any{"_resumen": "ok"}
		for k, v := range r {
			out[k] = v
		}
		return out, []string{"falta numero_radicado"}
	}
	o := newOrchestrator(llmtest.New().Otherwise(`{"nombre":"Pedro"}`))
	rec, err := o.Extract(context.Background(), "texto", descriptor(), "", Options{Hook: hook})
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := seen["lista"]; !ok {
		t.Fatalf("hook should see the coerced record, got %v", seen)
	}
	if rec.Data["_resumen"] != "ok" {
		t.Fatalf("hook output dropped: %v", rec.Data)
	}
	if diff := cmp.Diff([]string{"falta numero_radicado"}, rec.Warnings); diff != "" {
		t.Fatalf("warnings (-want +got):\n%s", diff)
	}
}

func TestExtract_HookPanicKeepsRecord(t *testing.T) {
	hook := func(map[string]any) (map[string]any, []string) { panic("boom") }
	o := newOrchestrator(llmtest.New().Otherwise(`{"nombre":"Pedro"}`))
	rec, err := o.Extract(context.Background(), "texto", descriptor(), "", Options{Hook: hook})
	if err != nil {
		t.Fatal(err)
	}
	if rec.Data["nombre"] != "Pedro" || len(rec.Warnings) != 1 {
		t.Fatalf("unexpected record after hook panic: %+v", rec)
	}
}
