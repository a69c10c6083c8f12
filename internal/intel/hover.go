package intel

import (
	"strconv"
	"strings"

	"github.com/Ranrar/Marco-sub004/internal/ast"
	"github.com/Ranrar/Marco-sub004/internal/parser"
	"github.com/Ranrar/Marco-sub004/internal/source"
)

// HoverInfo describes the innermost node under a position.
type HoverInfo struct {
	Kind     ast.NodeKind
	Span     source.Span
	Expected string // canonical marker per the schema, "" when none
	Source   string // literal source of the node, truncated
	Detail   string // kind-specific extra (link dest, fence lang, depth)
}

const hoverSourceLimit = 120

// Hover resolves the innermost node at the byte offset. Returns nil over
// plain document gaps.
func Hover(res *parser.Result, offset uint32) *HoverInfo {
	id := res.Tree.InnermostAt(offset)
	if id == ast.NoNode {
		return nil
	}
	n := res.Tree.Get(id)
	if n == nil || n.Kind == ast.NodeDocument {
		return nil
	}

	expected, _ := res.Schema.ExpectedMarker(n.Kind, int(n.Depth))
	src := string(res.File().Slice(n.Span))
	if len(src) > hoverSourceLimit {
		src = src[:hoverSourceLimit] + "…"
	}

	return &HoverInfo{
		Kind:     n.Kind,
		Span:     n.Span,
		Expected: expected,
		Source:   src,
		Detail:   hoverDetail(n),
	}
}

func hoverDetail(n *ast.Node) string {
	switch n.Kind {
	case ast.NodeHeading:
		return "depth " + strconv.Itoa(int(n.Depth))
	case ast.NodeLink, ast.NodeImage, ast.NodeAutolink:
		return n.Dest
	case ast.NodeCodeBlock:
		if n.Lang != "" {
			return n.Lang
		}
	case ast.NodeAdmonition:
		return n.Label
	case ast.NodeList:
		if n.Ordered {
			return "ordered"
		}
		return "bullet " + string(n.Marker)
	case ast.NodeLineBreak:
		return n.Break.String()
	}
	return ""
}

// Markdown renders the hover card the way LSP clients expect.
func (h *HoverInfo) Markdown() string {
	var b strings.Builder
	b.WriteString("**")
	b.WriteString(h.Kind.String())
	b.WriteString("**")
	if h.Detail != "" {
		b.WriteString(" (")
		b.WriteString(h.Detail)
		b.WriteString(")")
	}
	if h.Expected != "" {
		b.WriteString("\n\nsyntax: `")
		b.WriteString(h.Expected)
		b.WriteString("`")
	}
	if h.Source != "" {
		b.WriteString("\n\n```markdown\n")
		b.WriteString(h.Source)
		b.WriteString("\n```")
	}
	return b.String()
}
