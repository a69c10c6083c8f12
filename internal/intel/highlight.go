// Package intel builds editor-facing projections over parse results:
// syntax highlights, completion candidates, hover cards and aggregated
// diagnostics. Everything here is read-only over a Result; documents are
// managed by Session, which routes edits through the incremental
// reparse path.
package intel

import (
	"sort"

	"github.com/Ranrar/Marco-sub004/internal/ast"
	"github.com/Ranrar/Marco-sub004/internal/parser"
	"github.com/Ranrar/Marco-sub004/internal/source"
)

// Category classifies a highlighted span.
type Category uint8

const (
	CatNone Category = iota
	CatHeading
	CatEmphasis
	CatStrong
	CatStrikethrough
	CatCode
	CatLink
	CatImage
	CatQuote
	CatListMarker
	CatTable
	CatAdmonition
	CatThematicBreak
	CatRawHTML
)

var categoryNames = [...]string{
	CatNone:          "none",
	CatHeading:       "heading",
	CatEmphasis:      "emphasis",
	CatStrong:        "strong",
	CatStrikethrough: "strikethrough",
	CatCode:          "code",
	CatLink:          "link",
	CatImage:         "image",
	CatQuote:         "quote",
	CatListMarker:    "list-marker",
	CatTable:         "table",
	CatAdmonition:    "admonition",
	CatThematicBreak: "thematic-break",
	CatRawHTML:       "raw-html",
}

func (c Category) String() string {
	if int(c) < len(categoryNames) {
		return categoryNames[c]
	}
	return "none"
}

// Highlight is one categorized span. Spans of nested constructs overlap;
// the innermost one wins in a renderer that cannot stack styles.
type Highlight struct {
	Span     source.Span
	Category Category
}

// Highlights projects the tree onto categorized spans, ordered by start
// offset then by descending length, so enclosing spans come first.
func Highlights(res *parser.Result) []Highlight {
	out := make([]Highlight, 0, res.Tree.Len()/2)
	res.Tree.Walk(res.Tree.Root, func(_ ast.NodeID, n *ast.Node) bool {
		if cat := categorize(n.Kind); cat != CatNone {
			out = append(out, Highlight{Span: n.Span, Category: cat})
		}
		return true
	})
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Span.Start != out[j].Span.Start {
			return out[i].Span.Start < out[j].Span.Start
		}
		return out[i].Span.End > out[j].Span.End
	})
	return out
}

func categorize(k ast.NodeKind) Category {
	switch k {
	case ast.NodeHeading:
		return CatHeading
	case ast.NodeEmphasis:
		return CatEmphasis
	case ast.NodeStrong:
		return CatStrong
	case ast.NodeStrikethrough:
		return CatStrikethrough
	case ast.NodeCodeBlock, ast.NodeCodeSpan:
		return CatCode
	case ast.NodeLink, ast.NodeAutolink:
		return CatLink
	case ast.NodeImage:
		return CatImage
	case ast.NodeBlockQuote:
		return CatQuote
	case ast.NodeListItem:
		return CatListMarker
	case ast.NodeTable:
		return CatTable
	case ast.NodeAdmonition:
		return CatAdmonition
	case ast.NodeThematicBreak:
		return CatThematicBreak
	case ast.NodeRawHTML:
		return CatRawHTML
	default:
		return CatNone
	}
}
