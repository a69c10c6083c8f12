package fix

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/Ranrar/Marco-sub004/internal/diag"
	"github.com/Ranrar/Marco-sub004/internal/parser"
	"github.com/Ranrar/Marco-sub004/internal/schema"
	"github.com/Ranrar/Marco-sub004/internal/source"
	"github.com/Ranrar/Marco-sub004/internal/validate"
)

// diagnose parses text from a real file and validates it against its own
// variant, returning the file set and the produced diagnostics.
func diagnose(t *testing.T, variant, text string) (*source.FileSet, source.FileID, []diag.Diagnostic) {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "doc.md")
	if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
		t.Fatal(err)
	}

	fset := source.NewFileSet()
	fset.SetBaseDir(dir)
	id, err := fset.Load(path)
	if err != nil {
		t.Fatal(err)
	}

	st := schema.NewStore("")
	res, err := parser.New(st).Parse(fset, id, parser.Options{Variant: variant})
	if err != nil {
		t.Fatal(err)
	}
	sc, err := st.Load(variant)
	if err != nil {
		t.Fatal(err)
	}
	bag := diag.NewBag(64)
	validate.New(sc).Run(res.Tree, res.File(), diag.BagReporter{Bag: bag})
	return fset, id, bag.Items()
}

func readBack(t *testing.T, fset *source.FileSet, id source.FileID) string {
	t.Helper()
	content, err := os.ReadFile(fset.Get(id).Path)
	if err != nil {
		t.Fatal(err)
	}
	return string(content)
}

func TestApplyAllRewritesMarkers(t *testing.T) {
	fset, id, diags := diagnose(t, "commonmark", "_one_ and _two_\n")
	res, err := Apply(fset, diags, ApplyOptions{Mode: ApplyModeAll})
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if len(res.Applied) != 2 {
		t.Fatalf("applied = %+v", res.Applied)
	}
	if got := readBack(t, fset, id); got != "*one* and *two*\n" {
		t.Fatalf("content = %q", got)
	}
	if len(res.FileChanges) != 1 || res.FileChanges[0].EditCount != 4 {
		t.Fatalf("changes = %+v", res.FileChanges)
	}
}

func TestApplyOnceStopsAfterFirstFix(t *testing.T) {
	fset, id, diags := diagnose(t, "commonmark", "_one_ and _two_\n")
	res, err := Apply(fset, diags, ApplyOptions{Mode: ApplyModeOnce})
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if len(res.Applied) != 1 {
		t.Fatalf("applied = %+v", res.Applied)
	}
	if got := readBack(t, fset, id); got != "*one* and _two_\n" {
		t.Fatalf("content = %q", got)
	}
}

func TestApplyByID(t *testing.T) {
	fset, id, diags := diagnose(t, "commonmark", "_one_ and _two_\n")

	// Collect the deterministic IDs the engine synthesizes.
	probe, err := Apply(fset, diags, ApplyOptions{Mode: ApplyModeAll, DryRun: true})
	if err != nil {
		t.Fatalf("probe: %v", err)
	}
	if len(probe.Applied) != 2 {
		t.Fatalf("probe applied = %+v", probe.Applied)
	}
	second := probe.Applied[1].ID

	res, err := Apply(fset, diags, ApplyOptions{Mode: ApplyModeID, TargetID: second})
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if len(res.Applied) != 1 || res.Applied[0].ID != second {
		t.Fatalf("applied = %+v", res.Applied)
	}
	if got := readBack(t, fset, id); got != "_one_ and *two*\n" {
		t.Fatalf("content = %q", got)
	}
}

func TestApplyUnknownIDSkips(t *testing.T) {
	fset, _, diags := diagnose(t, "commonmark", "_one_\n")
	res, err := Apply(fset, diags, ApplyOptions{Mode: ApplyModeID, TargetID: "nope"})
	if err != ErrNoFixes {
		t.Fatalf("err = %v", err)
	}
	if len(res.Skipped) != 1 || res.Skipped[0].Reason != "fix id not found" {
		t.Fatalf("skipped = %+v", res.Skipped)
	}
}

func TestDryRunLeavesDiskUntouched(t *testing.T) {
	fset, id, diags := diagnose(t, "commonmark", "_em_\n")
	res, err := Apply(fset, diags, ApplyOptions{Mode: ApplyModeAll, DryRun: true})
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if got := string(res.Buffers[id]); got != "*em*\n" {
		t.Fatalf("buffer = %q", got)
	}
	if got := readBack(t, fset, id); got != "_em_\n" {
		t.Fatalf("disk content changed: %q", got)
	}
}

func TestVirtualFileRequiresDryRun(t *testing.T) {
	st := schema.NewStore("")
	res, err := parser.New(st).ParseText("buf.md", []byte("_em_\n"), parser.Options{Variant: "commonmark"})
	if err != nil {
		t.Fatal(err)
	}
	sc, _ := st.Load("commonmark")
	bag := diag.NewBag(64)
	validate.New(sc).Run(res.Tree, res.File(), diag.BagReporter{Bag: bag})

	out, err := Apply(res.FileSet, bag.Items(), ApplyOptions{Mode: ApplyModeAll})
	if err != ErrNoFixes {
		t.Fatalf("err = %v", err)
	}
	if len(out.Skipped) == 0 || out.Skipped[0].Reason != "target file is virtual" {
		t.Fatalf("skipped = %+v", out.Skipped)
	}

	out, err = Apply(res.FileSet, bag.Items(), ApplyOptions{Mode: ApplyModeAll, DryRun: true})
	if err != nil {
		t.Fatalf("dry run: %v", err)
	}
	if got := string(out.Buffers[res.FileID]); got != "*em*\n" {
		t.Fatalf("buffer = %q", got)
	}
}

func TestStaleOldTextIsSkipped(t *testing.T) {
	fset, _, diags := diagnose(t, "commonmark", "_em_\n")

	// Tamper with the diagnostic so its guard no longer matches.
	diags[0].Fixes[0].Edits[0].OldText = "~"

	res, err := Apply(fset, diags, ApplyOptions{Mode: ApplyModeAll})
	if err != ErrNoFixes {
		t.Fatalf("err = %v", err)
	}
	if len(res.Skipped) != 1 || res.Skipped[0].Reason != "existing text does not match expected content" {
		t.Fatalf("skipped = %+v", res.Skipped)
	}
}

func TestConflictingFixesApplyFirstOnly(t *testing.T) {
	fset, id, diags := diagnose(t, "commonmark", "_em_\n")
	if len(diags) != 1 {
		t.Fatalf("diags = %+v", diags)
	}

	// A second fix over the same span must be rejected as a conflict.
	dup := diags[0]
	dup.Fixes = append([]diag.Fix(nil), dup.Fixes...)
	diags = append(diags, dup)

	res, err := Apply(fset, diags, ApplyOptions{Mode: ApplyModeAll})
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if len(res.Applied) != 1 {
		t.Fatalf("applied = %+v", res.Applied)
	}
	foundConflict := false
	for _, s := range res.Skipped {
		if s.Reason != "" && s.Reason != "fix has no edits" {
			foundConflict = true
		}
	}
	if !foundConflict {
		t.Fatalf("skipped = %+v", res.Skipped)
	}
	if got := readBack(t, fset, id); got != "*em*\n" {
		t.Fatalf("content = %q", got)
	}
}

func TestMultiEditFixKeepsOffsetsConsistent(t *testing.T) {
	// The list fix rewrites one byte per item; the thematic break fix
	// replaces a whole line. Both land in one pass.
	fset, id, diags := diagnose(t, "commonmark", "* a\n* b\n\n***\n")
	_, err := Apply(fset, diags, ApplyOptions{Mode: ApplyModeAll})
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if got := readBack(t, fset, id); got != "- a\n- b\n\n---\n" {
		t.Fatalf("content = %q", got)
	}
}

func TestNoDiagnosticsNoFixes(t *testing.T) {
	fset, _, diags := diagnose(t, "commonmark", "plain text\n")
	if _, err := Apply(fset, diags, ApplyOptions{Mode: ApplyModeAll}); err != ErrNoFixes {
		t.Fatalf("err = %v", err)
	}
}

func TestSpansConflict(t *testing.T) {
	sp := func(start, end uint32) diag.TextEdit {
		return diag.TextEdit{Span: source.Span{Start: start, End: end}}
	}
	cases := []struct {
		a, b diag.TextEdit
		want bool
	}{
		{sp(0, 2), sp(2, 4), false},
		{sp(0, 4), sp(2, 3), true},
		{sp(2, 2), sp(2, 2), false},
		{sp(1, 1), sp(0, 4), true},
		{sp(0, 4), sp(4, 4), false},
	}
	for i, c := range cases {
		if got := spansConflict(c.a, c.b); got != c.want {
			t.Errorf("case %d: got %v, want %v", i, got, c.want)
		}
	}
}
