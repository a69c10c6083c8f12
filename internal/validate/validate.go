// Package validate checks a parsed tree against a variant schema. The
// validator never mutates the tree and never aborts: every mismatch is a
// diagnostic, most with an attached fix. It is a pure function of tree
// and schema, so running it twice reports the same issues twice over the
// same reporter and nothing new the second time around on a fresh one.
//
// A tree may be validated against a schema other than the one it was
// parsed with; that is how "does this GFM document also conform to
// CommonMark" is answered.
package validate

import (
	"fmt"
	"strings"

	"github.com/Ranrar/Marco-sub004/internal/ast"
	"github.com/Ranrar/Marco-sub004/internal/diag"
	"github.com/Ranrar/Marco-sub004/internal/schema"
	"github.com/Ranrar/Marco-sub004/internal/source"
)

// Validator checks trees against one schema.
type Validator struct {
	sc *schema.Schema
}

func New(sc *schema.Schema) *Validator {
	return &Validator{sc: sc}
}

// Run walks the tree in depth-first pre-order and reports every
// conformance issue against the file the tree was parsed from.
func (v *Validator) Run(t *ast.Tree, f *source.File, reporter diag.Reporter) {
	if reporter == nil {
		reporter = diag.NopReporter{}
	}
	w := &walker{v: v, t: t, f: f, rep: reporter}
	w.node(t.Root, ast.NodeInvalid)
}

type walker struct {
	v   *Validator
	t   *ast.Tree
	f   *source.File
	rep diag.Reporter
}

func (w *walker) node(id ast.NodeID, parentKind ast.NodeKind) {
	n := w.t.Get(id)
	if n == nil {
		return
	}
	if n.Kind != ast.NodeDocument {
		w.checkForbidden(id, n)
		w.checkNesting(id, n, parentKind)
		w.checkMarker(id, n)
	}
	for _, c := range n.Children {
		w.node(c, n.Kind)
	}
}

// checkForbidden flags node kinds whose feature the schema disables.
func (w *walker) checkForbidden(id ast.NodeID, n *ast.Node) {
	sc := w.v.sc
	var feature string
	switch n.Kind {
	case ast.NodeTable:
		if !sc.Features.Tables {
			feature = "tables"
		}
	case ast.NodeStrikethrough:
		if !sc.Features.Strikethrough {
			feature = "strikethrough"
		}
	case ast.NodeAdmonition:
		if !sc.Features.Admonitions {
			feature = "admonitions"
		}
	}
	if feature == "" {
		return
	}
	w.rep.Report(diag.NewError(diag.ValidateNodeForbidden, n.Span,
		fmt.Sprintf("%s are not part of the %s variant", feature, sc.Name)).
		ForNode(uint32(id)))
}

func (w *walker) checkNesting(id ast.NodeID, n *ast.Node, parentKind ast.NodeKind) {
	sc := w.v.sc
	if parentKind != ast.NodeInvalid && !sc.AllowsChild(parentKind, n.Kind) {
		w.rep.Report(diag.NewError(diag.ValidateNesting, n.Span,
			fmt.Sprintf("%s may not appear inside %s in the %s variant",
				n.Kind, parentKind, sc.Name)).ForNode(uint32(id)))
	}
	if rule, ok := sc.Nodes[n.Kind]; ok && rule.MaxDepth > 0 && n.Kind != ast.NodeHeading {
		if depth := w.sameKindDepth(id, n.Kind); depth > rule.MaxDepth {
			w.rep.Report(diag.NewWarning(diag.ValidateNesting, n.Span,
				fmt.Sprintf("%s nested %d deep, the %s variant allows %d",
					n.Kind, depth, sc.Name, rule.MaxDepth)).ForNode(uint32(id)))
		}
	}
}

// sameKindDepth counts how many ancestors of the same kind enclose the
// node, including the node itself.
func (w *walker) sameKindDepth(id ast.NodeID, kind ast.NodeKind) int {
	depth := 0
	for id != ast.NoNode {
		n := w.t.Get(id)
		if n == nil {
			break
		}
		if n.Kind == kind {
			depth++
		}
		id = n.Parent
	}
	return depth
}

// checkMarker dispatches per-kind literal syntax checks.
func (w *walker) checkMarker(id ast.NodeID, n *ast.Node) {
	switch n.Kind {
	case ast.NodeHeading:
		w.checkHeading(id, n)
	case ast.NodeEmphasis:
		w.checkDelimited(id, n, 1)
	case ast.NodeStrong, ast.NodeStrikethrough:
		w.checkDelimited(id, n, 2)
	case ast.NodeCodeBlock:
		w.checkFence(id, n)
	case ast.NodeList:
		w.checkList(id, n)
	case ast.NodeThematicBreak:
		w.checkThematicBreak(id, n)
	case ast.NodeTable:
		w.checkTableShape(id, n)
	}
}

// checkHeading verifies depth against the schema's limit. One diagnostic
// per offending heading, with a fix rewriting the marker run to the
// deepest allowed one.
func (w *walker) checkHeading(id ast.NodeID, n *ast.Node) {
	rule, ok := w.v.sc.Nodes[ast.NodeHeading]
	if !ok || rule.MaxDepth <= 0 || int(n.Depth) <= rule.MaxDepth {
		return
	}
	expected, _ := w.v.sc.ExpectedMarker(ast.NodeHeading, rule.MaxDepth)
	actual := strings.Repeat("#", int(n.Depth))

	d := diag.NewWarning(diag.ValidateHeadingDepth, n.Span,
		fmt.Sprintf("heading depth %d exceeds the maximum of %d: expected %q, actual %q",
			n.Depth, rule.MaxDepth, expected, actual)).ForNode(uint32(id))

	// ATX markers sit at the span start; setext headings have no run to
	// rewrite, and their depth never exceeds 2 anyway.
	src := w.f.Slice(n.Span)
	if len(src) > 0 && src[0] == '#' {
		markerSpan := source.Span{File: n.Span.File, Start: n.Span.Start,
			End: n.Span.Start + uint32(n.Depth)}
		d = d.WithFix(fmt.Sprintf("change heading to depth %d", rule.MaxDepth),
			diag.FixAlwaysSafe, diag.TextEdit{
				Span:    markerSpan,
				NewText: expected,
				OldText: actual,
			})
	}
	w.rep.Report(d)
}

// checkDelimited compares the emphasis-family delimiter against the
// canonical marker. Accepted alternatives get a safe fix; markers the
// schema does not know at all are only reported.
func (w *walker) checkDelimited(id ast.NodeID, n *ast.Node, width uint32) {
	rule, ok := w.v.sc.Syntax[n.Kind]
	if !ok {
		return
	}
	src := w.f.Slice(n.Span)
	if uint32(len(src)) < 2*width {
		return
	}
	actual := string(src[:width])
	if actual == rule.Marker {
		return
	}

	d := diag.NewWarning(diag.ValidateMarker, n.Span,
		fmt.Sprintf("%s uses %q, the %s variant prefers %q",
			n.Kind, actual, w.v.sc.Name, rule.Marker)).ForNode(uint32(id))

	if rule.Accepts(actual) && uint32(len(rule.Marker)) == width {
		opener := source.Span{File: n.Span.File, Start: n.Span.Start,
			End: n.Span.Start + width}
		closer := source.Span{File: n.Span.File, Start: n.Span.End - width,
			End: n.Span.End}
		d = d.WithFix(fmt.Sprintf("replace %q with %q", actual, rule.Marker),
			diag.FixAlwaysSafe,
			diag.TextEdit{Span: opener, NewText: rule.Marker, OldText: actual},
			diag.TextEdit{Span: closer, NewText: rule.Marker, OldText: actual},
		)
	}
	w.rep.Report(d)
}

func (w *walker) checkFence(id ast.NodeID, n *ast.Node) {
	if n.Fence == ast.FenceIndent {
		return
	}
	rule, ok := w.v.sc.Syntax[ast.NodeCodeBlock]
	if !ok {
		return
	}
	actual := strings.Repeat(string(n.Marker), 3)
	if actual == rule.Marker {
		return
	}
	w.rep.Report(diag.NewWarning(diag.ValidateFenceStyle, n.Span,
		fmt.Sprintf("code fence uses %q, the %s variant prefers %q",
			actual, w.v.sc.Name, rule.Marker)).ForNode(uint32(id)))
}

// checkList verifies bullet markers, with a fix rewriting the marker
// byte of every item.
func (w *walker) checkList(id ast.NodeID, n *ast.Node) {
	if n.Ordered {
		return
	}
	rule, ok := w.v.sc.Syntax[ast.NodeList]
	if !ok {
		return
	}
	actual := string(n.Marker)
	if actual == rule.Marker {
		return
	}

	d := diag.NewWarning(diag.ValidateListMarker, n.Span,
		fmt.Sprintf("list uses bullet %q, the %s variant prefers %q",
			actual, w.v.sc.Name, rule.Marker)).ForNode(uint32(id))

	if rule.Accepts(actual) && len(rule.Marker) == 1 {
		edits := make([]diag.TextEdit, 0, len(n.Children))
		for _, itemID := range n.Children {
			item := w.t.Get(itemID)
			if item == nil || item.Kind != ast.NodeListItem {
				continue
			}
			off := w.markerOffset(item.Span)
			edits = append(edits, diag.TextEdit{
				Span:    source.Span{File: item.Span.File, Start: off, End: off + 1},
				NewText: rule.Marker,
				OldText: actual,
			})
		}
		if len(edits) > 0 {
			d = d.WithFix(fmt.Sprintf("use %q bullets", rule.Marker),
				diag.FixAlwaysSafe, edits...)
		}
	}
	w.rep.Report(d)
}

// markerOffset skips the indentation at the start of an item span.
func (w *walker) markerOffset(sp source.Span) uint32 {
	off := sp.Start
	for off < sp.End && (w.f.Content[off] == ' ' || w.f.Content[off] == '\t') {
		off++
	}
	return off
}

func (w *walker) checkThematicBreak(id ast.NodeID, n *ast.Node) {
	rule, ok := w.v.sc.Syntax[ast.NodeThematicBreak]
	if !ok {
		return
	}
	actual := strings.TrimSpace(string(w.f.Slice(n.Span)))
	if actual == rule.Marker {
		return
	}
	d := diag.NewWarning(diag.ValidateMarker, n.Span,
		fmt.Sprintf("thematic break uses %q, the %s variant prefers %q",
			actual, w.v.sc.Name, rule.Marker)).ForNode(uint32(id))
	if rule.Accepts(actual) {
		d = d.WithFix(fmt.Sprintf("replace %q with %q", actual, rule.Marker),
			diag.FixAlwaysSafe, diag.TextEdit{
				Span:    n.Span,
				NewText: rule.Marker,
				OldText: string(w.f.Slice(n.Span)),
			})
	}
	w.rep.Report(d)
}

// checkTableShape verifies every row carries exactly one cell per
// declared column. Parsed tables always do; programmatically patched
// trees may not.
func (w *walker) checkTableShape(id ast.NodeID, n *ast.Node) {
	cols := len(n.Aligns)
	if cols == 0 {
		return
	}
	for _, rowID := range n.Children {
		row := w.t.Get(rowID)
		if row == nil || row.Kind != ast.NodeTableRow {
			continue
		}
		if len(row.Children) != cols {
			w.rep.Report(diag.NewError(diag.ValidateTableAlign, row.Span,
				fmt.Sprintf("table row has %d cells but the table declares %d columns",
					len(row.Children), cols)).ForNode(uint32(rowID)))
		}
	}
}
