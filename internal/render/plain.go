package render

import (
	"strings"

	"github.com/Ranrar/Marco-sub004/internal/ast"
	"github.com/Ranrar/Marco-sub004/internal/parser"
)

// renderPlain strips all markup: block contents separated by blank
// lines, inline constructs reduced to their text.
func renderPlain(res *parser.Result) string {
	r := &plainRenderer{res: res}
	r.block(res.Tree.Root)
	return strings.TrimRight(r.b.String(), "\n") + "\n"
}

type plainRenderer struct {
	res *parser.Result
	b   strings.Builder
}

func (r *plainRenderer) block(id ast.NodeID) {
	t := r.res.Tree
	n := t.Get(id)
	if n == nil {
		return
	}
	switch n.Kind {
	case ast.NodeDocument, ast.NodeBlockQuote, ast.NodeAdmonition:
		for _, c := range n.Children {
			r.block(c)
		}
	case ast.NodeHeading, ast.NodeParagraph:
		r.inlines(n.Children)
		r.b.WriteString("\n\n")
	case ast.NodeList:
		for _, c := range n.Children {
			item := t.Get(c)
			if item == nil {
				continue
			}
			for _, cc := range item.Children {
				r.block(cc)
			}
		}
	case ast.NodeCodeBlock:
		r.b.WriteString(n.Content)
		if !strings.HasSuffix(n.Content, "\n") {
			r.b.WriteString("\n")
		}
		r.b.WriteString("\n")
	case ast.NodeTable:
		for _, rowID := range n.Children {
			row := t.Get(rowID)
			if row == nil {
				continue
			}
			for j, cellID := range row.Children {
				if j > 0 {
					r.b.WriteString("\t")
				}
				cell := t.Get(cellID)
				if cell != nil {
					r.inlines(cell.Children)
				}
			}
			r.b.WriteString("\n")
		}
		r.b.WriteString("\n")
	case ast.NodeThematicBreak:
		// Nothing to say in plain text.
	default:
		r.inline(id)
	}
}

func (r *plainRenderer) inlines(ids []ast.NodeID) {
	for _, id := range ids {
		r.inline(id)
	}
}

func (r *plainRenderer) inline(id ast.NodeID) {
	n := r.res.Tree.Get(id)
	if n == nil {
		return
	}
	switch n.Kind {
	case ast.NodeText, ast.NodeCodeSpan:
		r.b.WriteString(n.Content)
	case ast.NodeEmphasis, ast.NodeStrong, ast.NodeStrikethrough, ast.NodeLink:
		r.inlines(n.Children)
	case ast.NodeImage:
		r.b.WriteString(n.Alt)
	case ast.NodeAutolink:
		r.b.WriteString(n.Dest)
	case ast.NodeLineBreak:
		r.b.WriteString("\n")
	}
}
