package driver

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/Ranrar/Marco-sub004/internal/diag"
	"github.com/Ranrar/Marco-sub004/internal/parser"
	"github.com/Ranrar/Marco-sub004/internal/schema"
	"github.com/Ranrar/Marco-sub004/internal/source"
)

func newTestDriver(t *testing.T) *Driver {
	t.Helper()
	cache, err := OpenDiskCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	return New(schema.NewStore(""), cache)
}

func writeDoc(t *testing.T, dir, name, text string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestCheckFileCacheRoundTrip(t *testing.T) {
	d := newTestDriver(t)
	dir := t.TempDir()
	path := writeDoc(t, dir, "doc.md", "see _em_ here\n")
	opts := parser.Options{Variant: "commonmark"}

	fset := source.NewFileSet()
	id, err := fset.Load(path)
	if err != nil {
		t.Fatal(err)
	}
	first, err := d.CheckFile(fset, id, opts)
	if err != nil {
		t.Fatal(err)
	}
	if first.FromCache {
		t.Fatal("first check must miss the cache")
	}
	if first.Res == nil || len(first.Diagnostics) == 0 {
		t.Fatalf("first = %+v", first)
	}

	// A fresh process gets a fresh file set; the cached diagnostics must
	// come back rebound to the new file id.
	fset2 := source.NewFileSet()
	id2, err := fset2.Load(path)
	if err != nil {
		t.Fatal(err)
	}
	second, err := d.CheckFile(fset2, id2, opts)
	if err != nil {
		t.Fatal(err)
	}
	if !second.FromCache {
		t.Fatal("second check must hit the cache")
	}
	if second.Res != nil {
		t.Fatal("cache hit must not reparse")
	}
	if len(second.Diagnostics) != len(first.Diagnostics) {
		t.Fatalf("diagnostics = %d, want %d", len(second.Diagnostics), len(first.Diagnostics))
	}
	for i := range first.Diagnostics {
		a, b := first.Diagnostics[i], second.Diagnostics[i]
		if a.Code != b.Code || a.Message != b.Message ||
			a.Primary.Start != b.Primary.Start || a.Primary.End != b.Primary.End {
			t.Fatalf("diag %d differs: %+v vs %+v", i, a, b)
		}
		if b.Primary.File != id2 {
			t.Fatalf("diag %d not rebound: file = %d", i, b.Primary.File)
		}
		if len(a.Fixes) != len(b.Fixes) {
			t.Fatalf("diag %d fixes = %d, want %d", i, len(b.Fixes), len(a.Fixes))
		}
	}
}

func TestCheckFileCacheKeyIncludesVariant(t *testing.T) {
	d := newTestDriver(t)
	dir := t.TempDir()
	path := writeDoc(t, dir, "doc.md", "see _em_ here\n")

	fset := source.NewFileSet()
	id, err := fset.Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := d.CheckFile(fset, id, parser.Options{Variant: "commonmark"}); err != nil {
		t.Fatal(err)
	}
	res, err := d.CheckFile(fset, id, parser.Options{Variant: "gfm"})
	if err != nil {
		t.Fatal(err)
	}
	if res.FromCache {
		t.Fatal("different variant must not hit the commonmark entry")
	}
}

func TestCheckFileCacheKeyIncludesContent(t *testing.T) {
	d := newTestDriver(t)
	dir := t.TempDir()
	path := writeDoc(t, dir, "doc.md", "plain text\n")
	opts := parser.Options{Variant: "gfm"}

	fset := source.NewFileSet()
	id, err := fset.Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := d.CheckFile(fset, id, opts); err != nil {
		t.Fatal(err)
	}

	writeDoc(t, dir, "doc.md", "edited text\n")
	fset2 := source.NewFileSet()
	id2, err := fset2.Load(path)
	if err != nil {
		t.Fatal(err)
	}
	res, err := d.CheckFile(fset2, id2, opts)
	if err != nil {
		t.Fatal(err)
	}
	if res.FromCache {
		t.Fatal("changed content must miss the cache")
	}
}

func TestNilCacheDisablesCaching(t *testing.T) {
	d := New(schema.NewStore(""), nil)
	dir := t.TempDir()
	path := writeDoc(t, dir, "doc.md", "hello\n")

	for i := 0; i < 2; i++ {
		fset := source.NewFileSet()
		id, err := fset.Load(path)
		if err != nil {
			t.Fatal(err)
		}
		res, err := d.CheckFile(fset, id, parser.Options{})
		if err != nil {
			t.Fatal(err)
		}
		if res.FromCache {
			t.Fatal("nil cache must never hit")
		}
	}
}

func TestDropAll(t *testing.T) {
	d := newTestDriver(t)
	dir := t.TempDir()
	path := writeDoc(t, dir, "doc.md", "hello\n")
	opts := parser.Options{}

	fset := source.NewFileSet()
	id, err := fset.Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := d.CheckFile(fset, id, opts); err != nil {
		t.Fatal(err)
	}
	if err := d.cache.DropAll(); err != nil {
		t.Fatal(err)
	}
	res, err := d.CheckFile(fset, id, opts)
	if err != nil {
		t.Fatal(err)
	}
	if res.FromCache {
		t.Fatal("dropped cache must miss")
	}
}

func TestCheckFilesParallel(t *testing.T) {
	d := newTestDriver(t)
	dir := t.TempDir()
	paths := []string{
		writeDoc(t, dir, "a.md", "# A\n\nclean\n"),
		writeDoc(t, dir, "b.md", "see _em_ here\n"),
		writeDoc(t, dir, "c.md", "# C\n"),
		filepath.Join(dir, "missing.md"),
	}

	fset, results, err := d.CheckFiles(context.Background(), paths, parser.Options{Variant: "commonmark"}, 2)
	if err != nil {
		t.Fatal(err)
	}
	if fset == nil {
		t.Fatal("file set must be returned")
	}
	if len(results) != len(paths) {
		t.Fatalf("results = %d", len(results))
	}
	for i, r := range results {
		if r.Path != paths[i] {
			t.Fatalf("result %d path = %q, want %q", i, r.Path, paths[i])
		}
	}
	if results[0].LoadErr != nil || len(results[0].Diagnostics) != 0 {
		t.Fatalf("a.md = %+v", results[0])
	}
	if len(results[1].Diagnostics) == 0 {
		t.Fatal("b.md must produce marker diagnostics")
	}
	if got := results[1].Diagnostics[0].Primary.File; got != results[1].FileID {
		t.Fatalf("diag file = %d, want %d", got, results[1].FileID)
	}
	if results[3].LoadErr == nil {
		t.Fatal("missing.md must record a load error")
	}
}

func TestCheckFilesCanceled(t *testing.T) {
	d := newTestDriver(t)
	dir := t.TempDir()
	paths := []string{writeDoc(t, dir, "a.md", "hello\n")}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, _, err := d.CheckFiles(ctx, paths, parser.Options{}, 0); err == nil {
		t.Fatal("canceled context must fail")
	}
}

func TestErrorCount(t *testing.T) {
	r := &CheckResult{Diagnostics: []diag.Diagnostic{
		{Severity: diag.SevError},
		{Severity: diag.SevWarning},
		{Severity: diag.SevError},
	}}
	if r.ErrorCount() != 2 {
		t.Fatalf("count = %d", r.ErrorCount())
	}
}

func TestListMarkdownFiles(t *testing.T) {
	dir := t.TempDir()
	writeDoc(t, dir, "b.md", "b\n")
	writeDoc(t, dir, "notes.txt", "skip\n")
	sub := filepath.Join(dir, "sub")
	if err := os.Mkdir(sub, 0o755); err != nil {
		t.Fatal(err)
	}
	writeDoc(t, sub, "a.markdown", "a\n")

	files, err := ListMarkdownFiles(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(files) != 2 {
		t.Fatalf("files = %v", files)
	}
	if filepath.Base(files[0]) != "b.md" || filepath.Base(files[1]) != "a.markdown" {
		t.Fatalf("files = %v", files)
	}
}
