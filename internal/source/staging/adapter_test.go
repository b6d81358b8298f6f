package staging

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func writeManifest(t *testing.T, dir, id, body string) {
	t.Helper()
	p := filepath.Join(dir, id)
	if err := os.MkdirAll(p, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(p, ManifestFileName), []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestAdapterFetchBatch(t *testing.T) {
	dir := t.TempDir()
	writeManifest(t, dir, "owerri", `{"id":"b","city":"Owerri","category":"market","areas":["Relief Market"]}
not json

{"id":"a","city":" Owerri ","category":"street","areas":["Wetheral Road","Douglas Road"]}
{"id":"c","city":"","category":"area","areas":["x"]}
{"id":"d","city":"Owerri","category":"area","areas":["Ikenegbu"]}
`)

	a := NewAdapter(dir, "owerri")
	ctx := context.Background()

	first, next, err := a.FetchBatch(ctx, "", 2)
	if err != nil {
		t.Fatalf("FetchBatch() error = %v", err)
	}
	if len(first) != 2 || next != "2" {
		t.Fatalf("first batch = %+v next=%q", first, next)
	}
	if first[0].SourceID != "owerri_a" || first[0].City != "Owerri" || first[0].Category != "street" {
		t.Errorf("first item = %+v", first[0])
	}

	rest, next, err := a.FetchBatch(ctx, next, 2)
	if err != nil {
		t.Fatalf("FetchBatch() error = %v", err)
	}
	if len(rest) != 1 || next != "" || rest[0].SourceID != "owerri_d" {
		t.Errorf("second batch = %+v next=%q", rest, next)
	}
	if a.Skipped() != 2 {
		t.Errorf("Skipped() = %d, want 2", a.Skipped())
	}

	if _, _, err := a.FetchBatch(ctx, "x", 2); err == nil {
		t.Error("expected error for bad cursor")
	}
}

func TestAdapterMissingManifest(t *testing.T) {
	if _, _, err := NewAdapter(t.TempDir(), "none").FetchBatch(context.Background(), "", 10); err == nil {
		t.Fatal("expected error")
	}
}

func TestListStagingSources(t *testing.T) {
	dir := t.TempDir()
	writeManifest(t, dir, "lagos", "")
	if err := os.MkdirAll(filepath.Join(dir, "empty"), 0o755); err != nil {
		t.Fatal(err)
	}

	got, err := ListStagingSources(dir)
	if err != nil {
		t.Fatalf("ListStagingSources() error = %v", err)
	}
	if len(got) != 1 || got[0] != "lagos" {
		t.Errorf("got %v, want [lagos]", got)
	}

	got, err = ListStagingSources(filepath.Join(dir, "missing"))
	if err != nil || len(got) != 0 {
		t.Errorf("missing dir: %v %v", got, err)
	}
}
