package blocks

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/Ranrar/Marco-sub004/internal/ast"
	"github.com/Ranrar/Marco-sub004/internal/diag"
	"github.com/Ranrar/Marco-sub004/internal/schema"
	"github.com/Ranrar/Marco-sub004/internal/source"
)

func segmentDoc(t *testing.T, variant, text string) (*ast.Tree, *source.File, []InlineTarget, *diag.Bag) {
	t.Helper()
	sc, err := schema.NewStore("").Load(variant)
	if err != nil {
		t.Fatalf("load schema: %v", err)
	}
	fset := source.NewFileSet()
	id := fset.AddVirtual("test.md", []byte(text))
	f := fset.Get(id)

	tree := ast.NewTree(16, source.Span{File: id, End: uint32(len(f.Content))})
	bag := diag.NewBag(64)
	targets := Segment(f, tree, sc, diag.BagReporter{Bag: bag})
	return tree, f, targets, bag
}

func rootKinds(tree *ast.Tree) []ast.NodeKind {
	root := tree.Get(tree.Root)
	out := make([]ast.NodeKind, len(root.Children))
	for i, id := range root.Children {
		out[i] = tree.Get(id).Kind
	}
	return out
}

func wantRoot(t *testing.T, tree *ast.Tree, want ...ast.NodeKind) {
	t.Helper()
	got := rootKinds(tree)
	if len(got) != len(want) {
		t.Fatalf("root kinds = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("root kinds = %v, want %v", got, want)
		}
	}
}

func hasCode(bag *diag.Bag, code diag.Code) bool {
	for _, d := range bag.Items() {
		if d.Code == code {
			return true
		}
	}
	return false
}

func TestHeadingsAndParagraphs(t *testing.T) {
	tree, f, targets, bag := segmentDoc(t, "commonmark",
		"# Title\n\nline one\nline two\n\n## Sub\n")
	wantRoot(t, tree, ast.NodeHeading, ast.NodeParagraph, ast.NodeHeading)
	if bag.Len() != 0 {
		t.Errorf("unexpected diagnostics: %v", bag.Items())
	}

	root := tree.Get(tree.Root)
	h1 := tree.Get(root.Children[0])
	if h1.Depth != 1 {
		t.Errorf("depth = %d", h1.Depth)
	}
	if got := tree.Get(root.Children[2]).Depth; got != 2 {
		t.Errorf("sub depth = %d", got)
	}

	if len(targets) != 3 {
		t.Fatalf("targets = %d", len(targets))
	}
	if got := string(f.Slice(targets[0].Segments[0])); got != "Title" {
		t.Errorf("heading content = %q", got)
	}
	if len(targets[1].Segments) != 2 {
		t.Errorf("paragraph segments = %d", len(targets[1].Segments))
	}
	// Interior segments keep the newline for break classification.
	if got := string(f.Slice(targets[1].Segments[0])); got != "line one\n" {
		t.Errorf("first segment = %q", got)
	}
	if got := string(f.Slice(targets[1].Segments[1])); got != "line two" {
		t.Errorf("second segment = %q", got)
	}
}

func TestATXClosingHashes(t *testing.T) {
	_, f, targets, _ := segmentDoc(t, "commonmark", "## Title ##\n")
	if got := string(f.Slice(targets[0].Segments[0])); got != "Title" {
		t.Errorf("content = %q", got)
	}
}

func TestSevenHashesIsParagraph(t *testing.T) {
	tree, _, _, _ := segmentDoc(t, "commonmark", "####### too deep\n")
	wantRoot(t, tree, ast.NodeParagraph)
}

func TestSetextHeading(t *testing.T) {
	tree, f, targets, _ := segmentDoc(t, "commonmark", "Title\n=====\n\nSecond\n---\n")
	wantRoot(t, tree, ast.NodeHeading, ast.NodeHeading)
	root := tree.Get(tree.Root)
	if tree.Get(root.Children[0]).Depth != 1 || tree.Get(root.Children[1]).Depth != 2 {
		t.Errorf("depths = %d, %d",
			tree.Get(root.Children[0]).Depth, tree.Get(root.Children[1]).Depth)
	}
	if got := string(f.Slice(targets[0].Segments[0])); got != "Title" {
		t.Errorf("content = %q", got)
	}
}

func TestDanglingSetextUnderline(t *testing.T) {
	tree, _, _, bag := segmentDoc(t, "commonmark", "=====\n")
	wantRoot(t, tree, ast.NodeParagraph)
	if !hasCode(bag, diag.BlockBadSetext) {
		t.Fatal("expected a dangling underline diagnostic")
	}
}

func TestThematicBreak(t *testing.T) {
	tree, _, _, _ := segmentDoc(t, "commonmark", "a\n\n---\n\nb\n")
	wantRoot(t, tree, ast.NodeParagraph, ast.NodeThematicBreak, ast.NodeParagraph)
}

func TestFencedCode(t *testing.T) {
	tree, _, targets, bag := segmentDoc(t, "commonmark", "```go\nx := 1\n```\n")
	wantRoot(t, tree, ast.NodeCodeBlock)
	n := tree.Get(tree.Get(tree.Root).Children[0])
	if n.Lang != "go" || n.Content != "x := 1\n" || n.Fence != ast.FenceBacktick {
		t.Errorf("lang=%q content=%q fence=%v", n.Lang, n.Content, n.Fence)
	}
	if len(targets) != 0 {
		t.Errorf("code blocks must not produce inline targets")
	}
	if bag.Len() != 0 {
		t.Errorf("unexpected diagnostics: %v", bag.Items())
	}
}

func TestUnclosedFence(t *testing.T) {
	tree, _, _, bag := segmentDoc(t, "commonmark", "```\ncode\n")
	wantRoot(t, tree, ast.NodeCodeBlock)
	if !hasCode(bag, diag.BlockUnclosedFence) {
		t.Fatal("expected an unclosed fence diagnostic")
	}
	if got := tree.Get(tree.Get(tree.Root).Children[0]).Content; got != "code\n" {
		t.Errorf("content = %q", got)
	}
}

func TestIndentedCode(t *testing.T) {
	tree, _, _, _ := segmentDoc(t, "commonmark", "    x\n    y\n")
	wantRoot(t, tree, ast.NodeCodeBlock)
	n := tree.Get(tree.Get(tree.Root).Children[0])
	if n.Fence != ast.FenceIndent || n.Content != "x\ny\n" {
		t.Errorf("fence=%v content=%q", n.Fence, n.Content)
	}
}

func TestBlockQuote(t *testing.T) {
	tree, _, _, _ := segmentDoc(t, "commonmark", "> a\n> b\n")
	wantRoot(t, tree, ast.NodeBlockQuote)
	quote := tree.Get(tree.Get(tree.Root).Children[0])
	if len(quote.Children) != 1 || tree.Get(quote.Children[0]).Kind != ast.NodeParagraph {
		t.Fatalf("quote children = %v", quote.Children)
	}
}

func TestBlockQuoteLazyContinuation(t *testing.T) {
	tree, _, targets, _ := segmentDoc(t, "commonmark", "> a\nb\n")
	wantRoot(t, tree, ast.NodeBlockQuote)
	quote := tree.Get(tree.Get(tree.Root).Children[0])
	if len(quote.Children) != 1 {
		t.Fatalf("lazy line must join the quoted paragraph")
	}
	if len(targets) != 1 || len(targets[0].Segments) != 2 {
		t.Fatalf("targets = %+v", targets)
	}
}

func TestNestedQuote(t *testing.T) {
	tree, _, _, _ := segmentDoc(t, "commonmark", "> > deep\n")
	wantRoot(t, tree, ast.NodeBlockQuote)
	outer := tree.Get(tree.Get(tree.Root).Children[0])
	inner := tree.Get(outer.Children[0])
	if inner.Kind != ast.NodeBlockQuote {
		t.Fatalf("inner kind = %v", inner.Kind)
	}
}

func TestTightList(t *testing.T) {
	tree, _, _, _ := segmentDoc(t, "commonmark", "- a\n- b\n- c\n")
	wantRoot(t, tree, ast.NodeList)
	list := tree.Get(tree.Get(tree.Root).Children[0])
	if !list.Tight || list.Ordered {
		t.Errorf("tight=%v ordered=%v", list.Tight, list.Ordered)
	}
	if len(list.Children) != 3 {
		t.Fatalf("items = %d", len(list.Children))
	}
	for _, itemID := range list.Children {
		item := tree.Get(itemID)
		if item.Kind != ast.NodeListItem || len(item.Children) != 1 {
			t.Fatalf("item %v children = %d", item.Kind, len(item.Children))
		}
	}
}

func TestLooseList(t *testing.T) {
	tree, _, _, _ := segmentDoc(t, "commonmark", "- a\n\n- b\n")
	list := tree.Get(tree.Get(tree.Root).Children[0])
	if list.Tight {
		t.Error("blank line between items must make the list loose")
	}
}

func TestOrderedListStart(t *testing.T) {
	tree, _, _, _ := segmentDoc(t, "commonmark", "3. a\n4. b\n")
	list := tree.Get(tree.Get(tree.Root).Children[0])
	if !list.Ordered || list.Start != 3 || list.Marker != '.' {
		t.Errorf("ordered=%v start=%d marker=%q", list.Ordered, list.Start, list.Marker)
	}
}

func TestNestedList(t *testing.T) {
	tree, _, _, _ := segmentDoc(t, "commonmark", "- a\n  - b\n")
	list := tree.Get(tree.Get(tree.Root).Children[0])
	if len(list.Children) != 1 {
		t.Fatalf("outer items = %d", len(list.Children))
	}
	item := tree.Get(list.Children[0])
	var kinds []ast.NodeKind
	for _, id := range item.Children {
		kinds = append(kinds, tree.Get(id).Kind)
	}
	if len(kinds) != 2 || kinds[0] != ast.NodeParagraph || kinds[1] != ast.NodeList {
		t.Fatalf("item children = %v", kinds)
	}
}

func TestMarkerChangeEndsList(t *testing.T) {
	tree, _, _, _ := segmentDoc(t, "commonmark", "- a\n* b\n")
	wantRoot(t, tree, ast.NodeList, ast.NodeList)
}

func TestLooseListIndentDiagnostic(t *testing.T) {
	_, _, _, bag := segmentDoc(t, "commonmark", "- item text\n  x\n continues\n")
	if !hasCode(bag, diag.BlockLooseListIndent) {
		t.Fatal("expected a loose indent diagnostic")
	}
}

func TestTable(t *testing.T) {
	tree, f, targets, bag := segmentDoc(t, "gfm",
		"| a | b |\n| --- | :-: |\n| c | d |\n")
	wantRoot(t, tree, ast.NodeTable)
	table := tree.Get(tree.Get(tree.Root).Children[0])
	if len(table.Aligns) != 2 || table.Aligns[0] != ast.AlignNone || table.Aligns[1] != ast.AlignCenter {
		t.Fatalf("aligns = %v", table.Aligns)
	}
	if len(table.Children) != 2 {
		t.Fatalf("rows = %d", len(table.Children))
	}
	if bag.Len() != 0 {
		t.Errorf("unexpected diagnostics: %v", bag.Items())
	}

	var cellText []string
	for _, tg := range targets {
		cellText = append(cellText, string(f.Slice(tg.Segments[0])))
	}
	want := []string{"a", "b", "c", "d"}
	if len(cellText) != len(want) {
		t.Fatalf("cells = %v", cellText)
	}
	for i := range want {
		if cellText[i] != want[i] {
			t.Fatalf("cells = %v", cellText)
		}
	}
}

func TestMalformedTableDegrades(t *testing.T) {
	tree, _, _, bag := segmentDoc(t, "gfm", "| a | b |\n| --- |\nx\n")
	wantRoot(t, tree, ast.NodeParagraph)
	if !hasCode(bag, diag.BlockMalformedTable) || !hasCode(bag, diag.BlockDegraded) {
		t.Fatalf("diagnostics = %v", bag.Items())
	}
}

func TestTablesGatedByVariant(t *testing.T) {
	tree, _, _, _ := segmentDoc(t, "commonmark", "| a |\n| --- |\n")
	for _, k := range rootKinds(tree) {
		if k == ast.NodeTable {
			t.Fatal("commonmark must not parse tables")
		}
	}
}

func TestFencedAdmonition(t *testing.T) {
	tree, _, _, bag := segmentDoc(t, "pandoc", "::: note\nbe careful\n:::\n")
	wantRoot(t, tree, ast.NodeAdmonition)
	adm := tree.Get(tree.Get(tree.Root).Children[0])
	if adm.Label != "note" {
		t.Errorf("label = %q", adm.Label)
	}
	if len(adm.Children) != 1 || tree.Get(adm.Children[0]).Kind != ast.NodeParagraph {
		t.Fatalf("admonition children wrong")
	}
	if bag.Len() != 0 {
		t.Errorf("unexpected diagnostics: %v", bag.Items())
	}
}

func TestUnclosedAdmonition(t *testing.T) {
	tree, _, _, bag := segmentDoc(t, "pandoc", "::: warning\ntext\n")
	wantRoot(t, tree, ast.NodeAdmonition)
	if !hasCode(bag, diag.BlockBadAdmonition) {
		t.Fatal("expected an unclosed admonition diagnostic")
	}
}

func TestUnknownAdmonitionKind(t *testing.T) {
	_, _, _, bag := segmentDoc(t, "pandoc", "::: zebra\ntext\n:::\n")
	if !hasCode(bag, diag.BlockBadAdmonition) {
		t.Fatal("expected an unknown kind diagnostic")
	}
}

func TestQuoteStyleAdmonition(t *testing.T) {
	tree, _, _, _ := segmentDoc(t, "gfm", "> [!NOTE]\n> useful text\n")
	wantRoot(t, tree, ast.NodeAdmonition)
	adm := tree.Get(tree.Get(tree.Root).Children[0])
	if adm.Label != "note" {
		t.Errorf("label = %q", adm.Label)
	}
	if len(adm.Children) != 1 || tree.Get(adm.Children[0]).Kind != ast.NodeParagraph {
		t.Fatalf("admonition body wrong")
	}
}

func TestQuoteAdmonitionGatedByVariant(t *testing.T) {
	tree, _, _, _ := segmentDoc(t, "commonmark", "> [!NOTE]\n> text\n")
	wantRoot(t, tree, ast.NodeBlockQuote)
}

func TestOpenerInterruptsParagraphByDefault(t *testing.T) {
	tree, _, _, _ := segmentDoc(t, "gfm", "text\n# head\n")
	wantRoot(t, tree, ast.NodeParagraph, ast.NodeHeading)
}

// A variant's policy may reorder block openers. With paragraph ranked
// first, running text absorbs lines that would otherwise open blocks.
func TestBlockPrecedencePolicyReordersOpeners(t *testing.T) {
	dir := t.TempDir()
	custom := filepath.Join(dir, "flat")
	if err := os.MkdirAll(custom, 0o755); err != nil {
		t.Fatal(err)
	}
	hier := "[variant]\nname = \"flat\"\n" +
		"[policy]\nlazy_continuation = true\n" +
		"block_precedence = [\"paragraph\", \"code_block\", \"heading\", \"thematic_break\", \"block_quote\", \"list\"]\n"
	syn := "[syntax.heading]\nmarker = \"#\"\n"
	if err := os.WriteFile(filepath.Join(custom, "hierarchy.toml"), []byte(hier), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(custom, "syntax.toml"), []byte(syn), 0o644); err != nil {
		t.Fatal(err)
	}
	sc, err := schema.NewStore(dir).Load("flat")
	if err != nil {
		t.Fatal(err)
	}

	fset := source.NewFileSet()
	id := fset.AddVirtual("test.md", []byte("text\n# head\n"))
	f := fset.Get(id)
	tree := ast.NewTree(16, source.Span{File: id, End: uint32(len(f.Content))})
	Segment(f, tree, sc, diag.NopReporter{})

	wantRoot(t, tree, ast.NodeParagraph)
	p := tree.Get(tree.Get(tree.Root).Children[0])
	if got := string(f.Slice(p.Span)); got != "text\n# head" {
		t.Fatalf("paragraph span = %q", got)
	}

	// Even at document start the first matching opener is paragraph.
	id2 := fset.AddVirtual("lead.md", []byte("# head\n"))
	f2 := fset.Get(id2)
	tree2 := ast.NewTree(16, source.Span{File: id2, End: uint32(len(f2.Content))})
	Segment(f2, tree2, sc, diag.NopReporter{})
	wantRoot(t, tree2, ast.NodeParagraph)
}

// Sibling block spans must be ordered and non-overlapping.
func TestBlockSpansOrdered(t *testing.T) {
	tree, _, _, _ := segmentDoc(t, "gfm",
		"# h\n\npara\n\n- a\n- b\n\n> q\n\n```\nc\n```\n\n| x |\n| - |\n")
	var prevEnd uint32
	for _, id := range tree.Get(tree.Root).Children {
		n := tree.Get(id)
		if n.Span.Start < prevEnd {
			t.Fatalf("%v span %v overlaps previous end %d", n.Kind, n.Span, prevEnd)
		}
		if n.Span.End < n.Span.Start {
			t.Fatalf("%v inverted span %v", n.Kind, n.Span)
		}
		prevEnd = n.Span.End
	}
}
