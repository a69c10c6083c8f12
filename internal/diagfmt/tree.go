package diagfmt

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/Ranrar/Marco-sub004/internal/ast"
	"github.com/Ranrar/Marco-sub004/internal/source"
)

// Tree dumps the syntax tree one node per line, indented by depth:
//
//	heading [0..8) depth=1
//	  text [2..7) "title"
//
// Spans are half-open byte offsets into the file.
func Tree(w io.Writer, t *ast.Tree, f *source.File) {
	dumpNode(w, t, f, t.Root, 0)
}

func dumpNode(w io.Writer, t *ast.Tree, f *source.File, id ast.NodeID, depth int) {
	n := t.Get(id)
	if n == nil {
		return
	}
	fmt.Fprintf(w, "%s%s [%d..%d)%s\n",
		strings.Repeat("  ", depth), n.Kind, n.Span.Start, n.Span.End,
		nodeDetail(n, f))
	for _, c := range n.Children {
		dumpNode(w, t, f, c, depth+1)
	}
}

func nodeDetail(n *ast.Node, f *source.File) string {
	switch n.Kind {
	case ast.NodeHeading:
		return fmt.Sprintf(" depth=%d", n.Depth)
	case ast.NodeList:
		detail := fmt.Sprintf(" marker=%q tight=%t", string(n.Marker), n.Tight)
		if n.Ordered {
			detail += fmt.Sprintf(" start=%d", n.Start)
		}
		return detail
	case ast.NodeCodeBlock:
		if n.Lang != "" {
			return fmt.Sprintf(" lang=%s", n.Lang)
		}
	case ast.NodeLink, ast.NodeImage:
		detail := fmt.Sprintf(" dest=%q", n.Dest)
		if n.Title != "" {
			detail += fmt.Sprintf(" title=%q", n.Title)
		}
		return detail
	case ast.NodeAutolink:
		return fmt.Sprintf(" dest=%q", n.Dest)
	case ast.NodeAdmonition:
		return fmt.Sprintf(" label=%q", n.Label)
	case ast.NodeLineBreak:
		if n.Break == ast.BreakHard {
			return " hard"
		}
		return " soft"
	case ast.NodeText, ast.NodeCodeSpan:
		return " " + excerpt(nodeText(n, f))
	}
	return ""
}

// TreeNodeOutput is the serializable form of one node.
type TreeNodeOutput struct {
	Kind     string           `json:"kind"`
	Start    uint32           `json:"start"`
	End      uint32           `json:"end"`
	Detail   string           `json:"detail,omitempty"`
	Children []TreeNodeOutput `json:"children,omitempty"`
}

// TreeJSON dumps the syntax tree as nested JSON objects.
func TreeJSON(w io.Writer, t *ast.Tree, f *source.File) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(buildTreeNode(t, f, t.Root))
}

func buildTreeNode(t *ast.Tree, f *source.File, id ast.NodeID) TreeNodeOutput {
	n := t.Get(id)
	if n == nil {
		return TreeNodeOutput{}
	}
	out := TreeNodeOutput{
		Kind:   n.Kind.String(),
		Start:  n.Span.Start,
		End:    n.Span.End,
		Detail: strings.TrimPrefix(nodeDetail(n, f), " "),
	}
	for _, c := range n.Children {
		out.Children = append(out.Children, buildTreeNode(t, f, c))
	}
	return out
}

// nodeText prefers the resolved content over the raw span, so escapes
// and code span trimming show as the reader will see them.
func nodeText(n *ast.Node, f *source.File) string {
	if n.Content != "" {
		return n.Content
	}
	return string(f.Slice(n.Span))
}

func excerpt(s string) string {
	const limit = 40
	s = strings.ReplaceAll(s, "\n", "\\n")
	if len(s) > limit {
		return fmt.Sprintf("%q…", s[:limit])
	}
	return fmt.Sprintf("%q", s)
}
