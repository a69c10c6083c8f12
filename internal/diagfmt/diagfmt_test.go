package diagfmt

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/Ranrar/Marco-sub004/internal/diag"
	"github.com/Ranrar/Marco-sub004/internal/intel"
	"github.com/Ranrar/Marco-sub004/internal/parser"
	"github.com/Ranrar/Marco-sub004/internal/schema"
	"github.com/Ranrar/Marco-sub004/internal/validate"
)

func diagnosed(t *testing.T, variant, text string) (*parser.Result, *diag.Bag) {
	t.Helper()
	st := schema.NewStore("")
	res, err := parser.New(st).ParseText("doc.md", []byte(text), parser.Options{Variant: variant})
	if err != nil {
		t.Fatal(err)
	}
	sc, err := st.Load(variant)
	if err != nil {
		t.Fatal(err)
	}
	bag := diag.NewBag(64)
	validate.New(sc).Run(res.Tree, res.File(), diag.BagReporter{Bag: bag})
	bag.Sort()
	return res, bag
}

func TestPrettyHeaderAndUnderline(t *testing.T) {
	res, bag := diagnosed(t, "commonmark", "see _em_ here\n")
	var buf bytes.Buffer
	Pretty(&buf, bag, res.FileSet, PrettyOpts{ShowFixes: true})
	out := buf.String()

	if !strings.Contains(out, "doc.md:1:5: WARNING MD4001:") {
		t.Fatalf("header missing:\n%s", out)
	}
	if !strings.Contains(out, "   1 | see _em_ here") {
		t.Fatalf("source line missing:\n%s", out)
	}
	if !strings.Contains(out, "^~~~") {
		t.Fatalf("underline missing:\n%s", out)
	}
	if !strings.Contains(out, "fix: replace \"_\" with \"*\" [always-safe]") {
		t.Fatalf("fix line missing:\n%s", out)
	}
}

func TestPrettyMultilineSpanUnderlinesFirstLine(t *testing.T) {
	res, bag := diagnosed(t, "commonmark", "~~~\ncode\n~~~\n")
	var buf bytes.Buffer
	Pretty(&buf, bag, res.FileSet, PrettyOpts{})
	out := buf.String()
	if !strings.Contains(out, "   1 | ~~~") {
		t.Fatalf("first line missing:\n%s", out)
	}
	// The underline must not run past the end of the printed line.
	for _, line := range strings.Split(out, "\n") {
		if strings.Contains(line, "^") && len(strings.TrimRight(line, " ")) > len("     | ^~~") {
			t.Fatalf("underline overflows: %q", line)
		}
	}
}

func TestJSONRoundTrip(t *testing.T) {
	res, bag := diagnosed(t, "commonmark", "_em_\n")
	var buf bytes.Buffer
	err := JSON(&buf, bag, res.FileSet, JSONOpts{
		IncludePositions: true,
		IncludeFixes:     true,
		PathMode:         PathModeBasename,
	})
	if err != nil {
		t.Fatal(err)
	}

	var out DiagnosticsOutput
	if err := json.Unmarshal(buf.Bytes(), &out); err != nil {
		t.Fatal(err)
	}
	if out.Count != 1 || len(out.Diagnostics) != 1 {
		t.Fatalf("output = %+v", out)
	}
	d := out.Diagnostics[0]
	if d.Code != "MD4001" || d.Severity != "WARNING" {
		t.Fatalf("diagnostic = %+v", d)
	}
	if d.Location.File != "doc.md" || d.Location.StartLine != 1 || d.Location.StartCol != 1 {
		t.Fatalf("location = %+v", d.Location)
	}
	if len(d.Fixes) != 1 || len(d.Fixes[0].Edits) != 2 {
		t.Fatalf("fixes = %+v", d.Fixes)
	}
	if d.Fixes[0].Edits[0].NewText != "*" || d.Fixes[0].Edits[0].OldText != "_" {
		t.Fatalf("edit = %+v", d.Fixes[0].Edits[0])
	}
}

func TestJSONMaxTruncates(t *testing.T) {
	res, bag := diagnosed(t, "commonmark", "_a_ and _b_ and _c_\n")
	var buf bytes.Buffer
	if err := JSON(&buf, bag, res.FileSet, JSONOpts{Max: 2}); err != nil {
		t.Fatal(err)
	}
	var out DiagnosticsOutput
	if err := json.Unmarshal(buf.Bytes(), &out); err != nil {
		t.Fatal(err)
	}
	if out.Count != 2 {
		t.Fatalf("count = %d", out.Count)
	}
	if bag.Len() != 3 {
		t.Fatalf("bag must be untouched, len = %d", bag.Len())
	}
}

func TestTreeDump(t *testing.T) {
	res, _ := diagnosed(t, "gfm", "# title\n\npara [x](https://e.com)\n")
	var buf bytes.Buffer
	Tree(&buf, res.Tree, res.File())
	out := buf.String()

	for _, want := range []string{
		"document [0..",
		"  heading [0..7) depth=1",
		"    text [2..7) \"title\"",
		"  paragraph [9..",
		"dest=\"https://e.com\"",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q in:\n%s", want, out)
		}
	}
}

func TestHighlightsPrettyAligned(t *testing.T) {
	res, _ := diagnosed(t, "gfm", "# title\n\n*em* and `code`\n")
	hls := intel.Highlights(res)
	var buf bytes.Buffer
	HighlightsPretty(&buf, hls, res.File())
	out := buf.String()

	if !strings.Contains(out, "heading") || !strings.Contains(out, "emphasis") {
		t.Fatalf("categories missing:\n%s", out)
	}
	if !strings.Contains(out, `"# title"`) {
		t.Fatalf("excerpt missing:\n%s", out)
	}

	// Category column width follows the widest name present.
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	bracket := -1
	for i, line := range lines {
		idx := strings.IndexByte(line, '[')
		if i == 0 {
			bracket = idx
		} else if idx != bracket {
			t.Fatalf("column misaligned at line %d:\n%s", i+1, out)
		}
	}
}

func TestHighlightsJSON(t *testing.T) {
	res, _ := diagnosed(t, "gfm", "*em*\n")
	var buf bytes.Buffer
	if err := HighlightsJSON(&buf, intel.Highlights(res), res.File()); err != nil {
		t.Fatal(err)
	}
	var out []HighlightOutput
	if err := json.Unmarshal(buf.Bytes(), &out); err != nil {
		t.Fatal(err)
	}
	if len(out) == 0 || out[0].Category != "emphasis" || out[0].Text != "*em*" {
		t.Fatalf("out = %+v", out)
	}
}

func TestTreeJSON(t *testing.T) {
	res, _ := diagnosed(t, "gfm", "# title\n")
	var buf bytes.Buffer
	if err := TreeJSON(&buf, res.Tree, res.File()); err != nil {
		t.Fatal(err)
	}
	var root TreeNodeOutput
	if err := json.Unmarshal(buf.Bytes(), &root); err != nil {
		t.Fatal(err)
	}
	if root.Kind != "document" || len(root.Children) != 1 {
		t.Fatalf("root = %+v", root)
	}
	h := root.Children[0]
	if h.Kind != "heading" || h.Detail != "depth=1" {
		t.Fatalf("heading = %+v", h)
	}
}
