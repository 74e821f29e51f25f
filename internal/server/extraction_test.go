package server

import (
	"context"
	"net"
	"strings"
	"testing"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/joseph-ayodele/legaldoc-extractor/internal/core"
	"github.com/joseph-ayodele/legaldoc-extractor/internal/doctype"
	"github.com/joseph-ayodele/legaldoc-extractor/internal/extract"
	"github.com/joseph-ayodele/legaldoc-extractor/internal/llm/llmtest"
)

func startServer(t *testing.T, fake *llmtest.Scripted) *ExtractionClient {
	t.Helper()
	reg, err := doctype.Builtin()
	if err != nil {
		t.Fatal(err)
	}
	orch := core.NewOrchestrator(extract.NewClient(fake, extract.Config{}, nil), core.Options{}, nil)
	proc := core.NewProcessor(nil, orch, reg, nil)

	lis := bufconn.Listen(1 << 20)
	srv := grpc.NewServer()
	RegisterExtractionServer(srv, NewExtractionService(proc, nil))
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) { return lis.DialContext(ctx) }),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return NewExtractionClient(conn)
}

func request(t *testing.T, m map[string]any) *structpb.Struct {
	t.Helper()
	st, err := structpb.NewStruct(m)
	if err != nil {
		t.Fatal(err)
	}
	return st
}

func TestExtract_RegisteredType(t *testing.T) {
	fake := llmtest.New().Otherwise(`{"acreedor": {"nombre": "Banco de Bogota", "nit_cc": "860.002.964-4"}, "inmuebles": [{"matricula_inmobiliaria": "50N-77"}]}`)
	client := startServer(t, fake)

	resp, err := client.Extract(context.Background(), request(t, map[string]any{
		"document_type": "minuta_cancelacion",
		"text":          "Comparecio el Banco de Bogota para cancelar la hipoteca.",
	}))
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	got := resp.AsMap()
	if got["document_type"] != "minuta_cancelacion" || got["chunks"] != float64(1) {
		t.Fatalf("unexpected header: %v", got)
	}
	record := got["record"].(map[string]any)
	acreedor := record["acreedor"].(map[string]any)
	if acreedor["nombre"] != "Banco de Bogota" {
		t.Fatalf("record = %v", record)
	}
	if _, ok := record["_resumen_cancelacion"]; !ok {
		t.Fatal("hook summary missing")
	}
	if _, ok := record["_procesamiento"]; !ok {
		t.Fatal("processing info missing")
	}
}

func TestExtract_CustomSchemaAndInstructions(t *testing.T) {
	fake := llmtest.New().Otherwise(`{"nombre": "Ana", "edad": "41"}`)
	client := startServer(t, fake)

	resp, err := client.Extract(context.Background(), request(t, map[string]any{
		"schema_yaml":  "name: persona\nfields:\n  - {name: nombre, required: true}\n  - {name: edad, type: integer}\n",
		"instructions": "Extrae la persona compareciente.",
		"text":         "Yo, Ana, de 41 anos de edad.",
	}))
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	got := resp.AsMap()
	if got["status"] != "valid" || got["document_type"] != "persona" {
		t.Fatalf("unexpected response: %v", got)
	}
	record := got["record"].(map[string]any)
	if record["edad"] != float64(41) {
		t.Fatalf("edad = %v", record["edad"])
	}
	reqs := fake.Requests()
	if len(reqs) != 1 || !strings.Contains(reqs[0].System+reqs[0].User, "Extrae la persona compareciente.") {
		t.Fatal("instructions override not sent to the model")
	}
}

func TestExtract_Errors(t *testing.T) {
	client := startServer(t, llmtest.Down())
	cases := []struct {
		name string
		req  map[string]any
		code codes.Code
	}{
		{"missing text", map[string]any{"document_type": "estudio_titulos"}, codes.InvalidArgument},
		{"missing type", map[string]any{"text": "hola"}, codes.InvalidArgument},
		{"unknown type", map[string]any{"text": "hola", "document_type": "poder_general"}, codes.NotFound},
		{"bad schema", map[string]any{"text": "hola", "schema_yaml": "fields: ["}, codes.InvalidArgument},
		{"bad chunking", map[string]any{"text": "hola", "document_type": "estudio_titulos", "max_chars": 10, "overlap": 10}, codes.InvalidArgument},
		{"model down", map[string]any{"text": "hola", "document_type": "estudio_titulos"}, codes.Unavailable},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := client.Extract(context.Background(), request(t, tc.req))
			if status.Code(err) != tc.code {
				t.Fatalf("code = %v (%v), want %v", status.Code(err), err, tc.code)
			}
		})
	}
}

func TestListDocumentTypes(t *testing.T) {
	client := startServer(t, llmtest.New())
	resp, err := client.ListDocumentTypes(context.Background(), nil)
	if err != nil {
		t.Fatalf("ListDocumentTypes: %v", err)
	}
	types := resp.AsMap()["document_types"].([]any)
	if len(types) != 3 {
		t.Fatalf("got %d types, want 3", len(types))
	}
	first := types[0].(map[string]any)
	if first["name"] != "estudio_titulos" || len(first["fields"].([]any)) == 0 {
		t.Fatalf("first type = %v", first)
	}
}
