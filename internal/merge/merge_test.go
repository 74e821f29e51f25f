package merge

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/joseph-ayodele/legaldoc-extractor/internal/extract"
)

func ok(index int, data map[string]any) extract.Candidate {
	return extract.Candidate{ChunkIndex: index, Data: data, Success: true}
}

func bad(index int, kind string) extract.Candidate {
	return extract.Candidate{ChunkIndex: index, Data: map[string]any{}, Error: kind}
}

func TestMerge_ScenarioC(t *testing.T) {
	got := Merge([]extract.Candidate{
		ok(0, map[string]any{"nombre": "Pedro", "lista": []any{"a"}}),
		ok(1, map[string]any{"nombre": "Maria", "lista": []any{"a", "b"}}),
	})
	want := map[string]any{"nombre": "Pedro", "lista": []any{"a", "b"}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("(-want +got):\n%s", diff)
	}
}

func TestMerge_FirstWinsByChunkOrder(t *testing.T) {
	// Arrival order must not matter; chunk order does.
	got := Merge([]extract.Candidate{
		ok(1, map[string]any{"numero_radicado": "B"}),
		ok(0, map[string]any{"numero_radicado": "A"}),
	})
	if got["numero_radicado"] != "A" {
		t.Fatalf("expected A, got %v", got["numero_radicado"])
	}
}

func TestMerge_NilIsUnset(t *testing.T) {
	got := Merge([]extract.Candidate{
		ok(0, map[string]any{"notaria": nil, "acreedor": map[string]any{"nombre": nil, "nit": "900"}}),
		ok(1, map[string]any{"notaria": "Notaria 5", "acreedor": map[string]any{"nombre": "Banco X", "nit": "800"}}),
	})
	want := map[string]any{
		"notaria":  "Notaria 5",
		"acreedor": map[string]any{"nombre": "Banco X", "nit": "900"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("(-want +got):\n%s", diff)
	}
}

func TestMerge_ListDedupStructural(t *testing.T) {
	a := map[string]any{"nombre": "Ana", "cc": "1"}
	got := Merge([]extract.Candidate{
		ok(0, map[string]any{"deudores": []any{a}}),
		ok(1, map[string]any{"deudores": []any{map[string]any{"nombre": "Ana", "cc": "1"}, map[string]any{"nombre": "Luis", "cc": "2"}}}),
	})
	want := []any{a, map[string]any{"nombre": "Luis", "cc": "2"}}
	if diff := cmp.Diff(want, got["deudores"]); diff != "" {
		t.Fatalf("(-want +got):\n%s", diff)
	}
}

func TestMerge_TypeMismatchKeepsExisting(t *testing.T) {
	got := Merge([]extract.Candidate{
		ok(0, map[string]any{"lista": []any{"a"}, "obj": map[string]any{"x": "1"}, "s": "v"}),
		ok(1, map[string]any{"lista": "b", "obj": []any{"y"}, "s": map[string]any{"z": 1.0}}),
	})
	want := map[string]any{"lista": []any{"a"}, "obj": map[string]any{"x": "1"}, "s": "v"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("(-want +got):\n%s", diff)
	}
}

func TestMerge_FailedCandidatesSkipped(t *testing.T) {
	cs := []extract.Candidate{
		bad(0, "transport"),
		ok(1, map[string]any{"nombre": "Pedro"}),
		bad(2, "format"),
	}
	got := Merge(cs)
	if diff := cmp.Diff(map[string]any{"nombre": "Pedro"}, got); diff != "" {
		t.Fatalf("(-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]int{1}, Contributing(cs)); diff != "" {
		t.Fatalf("contributing (-want +got):\n%s", diff)
	}
}

func TestMerge_AllFailedIsEmpty(t *testing.T) {
	got := Merge([]extract.Candidate{bad(0, "transport"), bad(1, "transport")})
	if got == nil || len(got) != 0 {
		t.Fatalf("expected empty non-nil map, got %#v", got)
	}
}

func TestMerge_Idempotent(t *testing.T) {
	cs := []extract.Candidate{
		ok(0, map[string]any{"nombre": "Pedro", "lista": []any{"a", "a"}, "o": map[string]any{"k": nil}}),
		ok(1, map[string]any{"nombre": "Maria", "lista": []any{"b"}, "o": map[string]any{"k": "v"}}),
	}
	once := Merge(cs)
	twice := Merge([]extract.Candidate{ok(0, once), ok(1, once)})
	if diff := cmp.Diff(once, twice); diff != "" {
		t.Fatalf("merge not idempotent (-once +twice):\n%s", diff)
	}
	if diff := cmp.Diff(once, Merge(cs)); diff != "" {
		t.Fatalf("merge not deterministic:\n%s", diff)
	}
}

func TestMerge_NoAliasingAndInputUntouched(t *testing.T) {
	list := []any{"a"}
	inner := map[string]any{"x": "1"}
	cs := []extract.Candidate{
		ok(1, map[string]any{"lista": []any{"b"}}),
		ok(0, map[string]any{"lista": list, "obj": inner}),
	}
	got := Merge(cs)

	got["lista"] = append(got["lista"].([]any), "zzz")
	got["obj"].(map[string]any)["x"] = "changed"

	if diff := cmp.Diff([]any{"a"}, list); diff != "" {
		t.Errorf("candidate list mutated:\n%s", diff)
	}
	if inner["x"] != "1" {
		t.Errorf("candidate map mutated: %v", inner)
	}
	if cs[0].ChunkIndex != 1 {
		t.Errorf("input slice reordered")
	}
}
