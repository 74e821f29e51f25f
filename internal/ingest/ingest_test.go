package ingest

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func mkfile(t *testing.T, root, rel, content string) string {
	t.Helper()
	p := filepath.Join(root, rel)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestScanDirectory_FiltersAndSkipsHidden(t *testing.T) {
	root := t.TempDir()
	a := mkfile(t, root, "a.pdf", "uno")
	b := mkfile(t, root, "sub/b.TXT", "dos")
	mkfile(t, root, "sub/c.jpg", "img")
	mkfile(t, root, ".oculto/d.pdf", "x")
	mkfile(t, root, ".e.md", "x")

	entries, stats, err := ScanDirectory(context.Background(), root, ScanOptions{SkipHidden: true})
	if err != nil {
		t.Fatal(err)
	}
	var paths []string
	for _, e := range entries {
		paths = append(paths, e.Path)
	}
	if diff := cmp.Diff([]string{a, b}, paths); diff != "" {
		t.Fatalf("paths (-want +got):\n%s", diff)
	}
	if stats.Matched != 2 || stats.Failed != 0 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
	if entries[1].Ext != "txt" || entries[1].Size != 3 {
		t.Fatalf("unexpected entry: %+v", entries[1])
	}
}

func TestScanDirectory_CustomExtsAndHidden(t *testing.T) {
	root := t.TempDir()
	mkfile(t, root, "a.pdf", "uno")
	h := mkfile(t, root, ".oculto/d.docx", "x")

	entries, _, err := ScanDirectory(context.Background(), root, ScanOptions{Exts: []string{".DOCX"}})
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries[0].Path != h {
		t.Fatalf("expected only the hidden docx, got %+v", entries)
	}
}

func TestScanDirectory_HashMarksDuplicates(t *testing.T) {
	root := t.TempDir()
	mkfile(t, root, "a.txt", "mismo contenido")
	mkfile(t, root, "b.txt", "mismo contenido")
	mkfile(t, root, "c.txt", "otro")

	entries, stats, err := ScanDirectory(context.Background(), root, ScanOptions{Hash: true})
	if err != nil {
		t.Fatal(err)
	}
	if stats.Duplicates != 1 || !entries[1].Duplicate || entries[0].Duplicate {
		t.Fatalf("unexpected duplicate marking: %+v %+v", stats, entries)
	}
	if entries[0].HashHex != entries[1].HashHex || len(entries[0].HashHex) != 64 {
		t.Fatalf("bad hashes: %+v", entries)
	}
}

func TestScanDirectory_RequiresRoot(t *testing.T) {
	if _, _, err := ScanDirectory(context.Background(), " ", ScanOptions{}); err == nil {
		t.Fatal("expected error")
	}
}

func TestWatch_InitialScanAndNewFiles(t *testing.T) {
	root := t.TempDir()
	existing := mkfile(t, root, "ya.pdf", "x")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	events, _, err := Watch(ctx, WatchConfig{Roots: []string{root}, InitialScan: true}, nil)
	if err != nil {
		t.Fatal(err)
	}

	select {
	case p := <-events:
		if p != existing {
			t.Fatalf("expected %s, got %s", existing, p)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("initial scan did not emit")
	}

	created := mkfile(t, root, "nuevo.txt", "y")
	deadline := time.After(5 * time.Second)
	for {
		select {
		case p := <-events:
			if p == created {
				return
			}
		case <-deadline:
			t.Fatal("new file not reported")
		}
	}
}
