package render

import (
	"fmt"
	"html"
	"strings"
	"unicode"

	"github.com/alecthomas/chroma/v2/quick"
	"golang.org/x/text/unicode/norm"

	"github.com/Ranrar/Marco-sub004/internal/ast"
	"github.com/Ranrar/Marco-sub004/internal/parser"
)

func renderHTML(res *parser.Result, opts Options) (string, error) {
	style := opts.HighlightStyle
	if style == "" {
		style = "github"
	}
	r := &htmlRenderer{res: res, style: style, anchors: make(map[string]int)}
	r.block(res.Tree.Root, false)
	return r.b.String(), nil
}

type htmlRenderer struct {
	res     *parser.Result
	style   string
	anchors map[string]int
	b       strings.Builder
}

func (r *htmlRenderer) block(id ast.NodeID, tight bool) {
	t := r.res.Tree
	n := t.Get(id)
	if n == nil {
		return
	}
	switch n.Kind {
	case ast.NodeDocument:
		for _, c := range n.Children {
			r.block(c, false)
		}
	case ast.NodeHeading:
		if anchor := r.anchor(n); anchor != "" {
			fmt.Fprintf(&r.b, "<h%d id=\"%s\">", n.Depth, anchor)
		} else {
			fmt.Fprintf(&r.b, "<h%d>", n.Depth)
		}
		r.inlines(n.Children)
		fmt.Fprintf(&r.b, "</h%d>\n", n.Depth)
	case ast.NodeParagraph:
		if tight {
			r.inlines(n.Children)
			return
		}
		r.b.WriteString("<p>")
		r.inlines(n.Children)
		r.b.WriteString("</p>\n")
	case ast.NodeList:
		tag := "ul"
		if n.Ordered {
			tag = "ol"
		}
		if n.Ordered && n.Start != 1 {
			fmt.Fprintf(&r.b, "<%s start=\"%d\">\n", tag, n.Start)
		} else {
			fmt.Fprintf(&r.b, "<%s>\n", tag)
		}
		for _, c := range n.Children {
			r.listItem(c, n.Tight)
		}
		fmt.Fprintf(&r.b, "</%s>\n", tag)
	case ast.NodeBlockQuote:
		r.b.WriteString("<blockquote>\n")
		for _, c := range n.Children {
			r.block(c, false)
		}
		r.b.WriteString("</blockquote>\n")
	case ast.NodeCodeBlock:
		r.codeBlock(n)
	case ast.NodeTable:
		r.table(n)
	case ast.NodeThematicBreak:
		r.b.WriteString("<hr />\n")
	case ast.NodeAdmonition:
		fmt.Fprintf(&r.b, "<div class=\"admonition %s\">\n", html.EscapeString(n.Label))
		for _, c := range n.Children {
			r.block(c, false)
		}
		r.b.WriteString("</div>\n")
	default:
		// An inline at block level happens only in patched trees.
		r.inline(id)
	}
}

// anchor derives a stable id from the heading text: NFKC-normalized,
// lowercased, spaces to hyphens, everything else but letters and digits
// dropped. Duplicate slugs get a numeric suffix.
func (r *htmlRenderer) anchor(n *ast.Node) string {
	var text strings.Builder
	for _, c := range n.Children {
		collectText(r.res.Tree, c, &text)
	}

	var slug strings.Builder
	for _, ru := range norm.NFKC.String(text.String()) {
		switch {
		case unicode.IsLetter(ru) || unicode.IsDigit(ru):
			slug.WriteRune(unicode.ToLower(ru))
		case ru == ' ' || ru == '-' || ru == '_':
			slug.WriteRune('-')
		}
	}
	s := strings.Trim(slug.String(), "-")
	if s == "" {
		return ""
	}
	if seen := r.anchors[s]; seen > 0 {
		r.anchors[s] = seen + 1
		return fmt.Sprintf("%s-%d", s, seen)
	}
	r.anchors[s] = 1
	return s
}

func collectText(t *ast.Tree, id ast.NodeID, b *strings.Builder) {
	n := t.Get(id)
	if n == nil {
		return
	}
	switch n.Kind {
	case ast.NodeText, ast.NodeCodeSpan:
		b.WriteString(n.Content)
	case ast.NodeAutolink:
		b.WriteString(n.Dest)
	case ast.NodeImage:
		b.WriteString(n.Alt)
	default:
		for _, c := range n.Children {
			collectText(t, c, b)
		}
	}
}

func (r *htmlRenderer) listItem(id ast.NodeID, tight bool) {
	n := r.res.Tree.Get(id)
	if n == nil || n.Kind != ast.NodeListItem {
		return
	}
	r.b.WriteString("<li>")
	if tight {
		for _, c := range n.Children {
			r.block(c, true)
		}
	} else {
		r.b.WriteString("\n")
		for _, c := range n.Children {
			r.block(c, false)
		}
	}
	r.b.WriteString("</li>\n")
}

func (r *htmlRenderer) codeBlock(n *ast.Node) {
	code := n.Content
	if n.Lang != "" {
		var hl strings.Builder
		if err := quick.Highlight(&hl, code, n.Lang, "html", r.style); err == nil {
			r.b.WriteString(hl.String())
			r.b.WriteString("\n")
			return
		}
		// Unknown lexer: fall through to the plain form, keeping the
		// language as a class the way CommonMark output does.
		fmt.Fprintf(&r.b, "<pre><code class=\"language-%s\">%s</code></pre>\n",
			html.EscapeString(n.Lang), html.EscapeString(code))
		return
	}
	fmt.Fprintf(&r.b, "<pre><code>%s</code></pre>\n", html.EscapeString(code))
}

func (r *htmlRenderer) table(n *ast.Node) {
	t := r.res.Tree
	r.b.WriteString("<table>\n")
	for i, rowID := range n.Children {
		row := t.Get(rowID)
		if row == nil {
			continue
		}
		cellTag := "td"
		if i == 0 {
			r.b.WriteString("<thead>\n")
			cellTag = "th"
		} else if i == 1 {
			r.b.WriteString("<tbody>\n")
		}
		r.b.WriteString("<tr>")
		for j, cellID := range row.Children {
			align := ""
			if j < len(n.Aligns) && n.Aligns[j] != ast.AlignNone {
				align = fmt.Sprintf(" align=\"%s\"", n.Aligns[j])
			}
			fmt.Fprintf(&r.b, "<%s%s>", cellTag, align)
			cell := t.Get(cellID)
			if cell != nil {
				r.inlines(cell.Children)
			}
			fmt.Fprintf(&r.b, "</%s>", cellTag)
		}
		r.b.WriteString("</tr>\n")
		if i == 0 {
			r.b.WriteString("</thead>\n")
		}
	}
	if len(n.Children) > 1 {
		r.b.WriteString("</tbody>\n")
	}
	r.b.WriteString("</table>\n")
}

func (r *htmlRenderer) inlines(ids []ast.NodeID) {
	for _, id := range ids {
		r.inline(id)
	}
}

func (r *htmlRenderer) inline(id ast.NodeID) {
	n := r.res.Tree.Get(id)
	if n == nil {
		return
	}
	switch n.Kind {
	case ast.NodeText:
		r.b.WriteString(html.EscapeString(n.Content))
	case ast.NodeEmphasis:
		r.b.WriteString("<em>")
		r.inlines(n.Children)
		r.b.WriteString("</em>")
	case ast.NodeStrong:
		r.b.WriteString("<strong>")
		r.inlines(n.Children)
		r.b.WriteString("</strong>")
	case ast.NodeStrikethrough:
		r.b.WriteString("<del>")
		r.inlines(n.Children)
		r.b.WriteString("</del>")
	case ast.NodeCodeSpan:
		fmt.Fprintf(&r.b, "<code>%s</code>", html.EscapeString(n.Content))
	case ast.NodeLink:
		fmt.Fprintf(&r.b, "<a href=\"%s\"", html.EscapeString(n.Dest))
		if n.Title != "" {
			fmt.Fprintf(&r.b, " title=\"%s\"", html.EscapeString(n.Title))
		}
		r.b.WriteString(">")
		r.inlines(n.Children)
		r.b.WriteString("</a>")
	case ast.NodeImage:
		fmt.Fprintf(&r.b, "<img src=\"%s\" alt=\"%s\"",
			html.EscapeString(n.Dest), html.EscapeString(n.Alt))
		if n.Title != "" {
			fmt.Fprintf(&r.b, " title=\"%s\"", html.EscapeString(n.Title))
		}
		r.b.WriteString(" />")
	case ast.NodeAutolink:
		href := n.Dest
		if n.Autolink == ast.AutolinkEmail {
			href = "mailto:" + href
		}
		fmt.Fprintf(&r.b, "<a href=\"%s\">%s</a>",
			html.EscapeString(href), html.EscapeString(n.Dest))
	case ast.NodeRawHTML:
		r.b.WriteString(n.Content)
	case ast.NodeLineBreak:
		if n.Break == ast.BreakHard {
			r.b.WriteString("<br />\n")
		} else {
			r.b.WriteString("\n")
		}
	}
}
