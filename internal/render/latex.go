package render

import (
	"fmt"
	"strings"

	"github.com/Ranrar/Marco-sub004/internal/ast"
	"github.com/Ranrar/Marco-sub004/internal/parser"
)

var latexSections = []string{
	1: "section",
	2: "subsection",
	3: "subsubsection",
	4: "paragraph",
	5: "subparagraph",
	6: "subparagraph",
}

var latexEscaper = strings.NewReplacer(
	"\\", `\textbackslash{}`,
	"&", `\&`,
	"%", `\%`,
	"$", `\$`,
	"#", `\#`,
	"_", `\_`,
	"{", `\{`,
	"}", `\}`,
	"~", `\textasciitilde{}`,
	"^", `\textasciicircum{}`,
)

func latexEscape(s string) string {
	return latexEscaper.Replace(s)
}

func renderLaTeX(res *parser.Result) (string, error) {
	r := &latexRenderer{res: res}
	r.block(res.Tree.Root)
	return r.b.String(), nil
}

type latexRenderer struct {
	res *parser.Result
	b   strings.Builder
}

func (r *latexRenderer) block(id ast.NodeID) {
	t := r.res.Tree
	n := t.Get(id)
	if n == nil {
		return
	}
	switch n.Kind {
	case ast.NodeDocument:
		for _, c := range n.Children {
			r.block(c)
		}
	case ast.NodeHeading:
		depth := int(n.Depth)
		if depth < 1 {
			depth = 1
		}
		if depth > 6 {
			depth = 6
		}
		fmt.Fprintf(&r.b, "\\%s{", latexSections[depth])
		r.inlines(n.Children)
		r.b.WriteString("}\n\n")
	case ast.NodeParagraph:
		r.inlines(n.Children)
		r.b.WriteString("\n\n")
	case ast.NodeList:
		env := "itemize"
		if n.Ordered {
			env = "enumerate"
		}
		fmt.Fprintf(&r.b, "\\begin{%s}\n", env)
		for _, c := range n.Children {
			item := t.Get(c)
			if item == nil {
				continue
			}
			r.b.WriteString("\\item ")
			for _, cc := range item.Children {
				r.block(cc)
			}
		}
		fmt.Fprintf(&r.b, "\\end{%s}\n\n", env)
	case ast.NodeBlockQuote:
		r.b.WriteString("\\begin{quote}\n")
		for _, c := range n.Children {
			r.block(c)
		}
		r.b.WriteString("\\end{quote}\n\n")
	case ast.NodeCodeBlock:
		r.b.WriteString("\\begin{verbatim}\n")
		r.b.WriteString(n.Content)
		if !strings.HasSuffix(n.Content, "\n") {
			r.b.WriteString("\n")
		}
		r.b.WriteString("\\end{verbatim}\n\n")
	case ast.NodeTable:
		r.table(n)
	case ast.NodeThematicBreak:
		r.b.WriteString("\\noindent\\rule{\\linewidth}{0.4pt}\n\n")
	case ast.NodeAdmonition:
		fmt.Fprintf(&r.b, "\\begin{quote}\\textbf{%s}\n\n", latexEscape(n.Label))
		for _, c := range n.Children {
			r.block(c)
		}
		r.b.WriteString("\\end{quote}\n\n")
	default:
		r.inline(id)
	}
}

func (r *latexRenderer) table(n *ast.Node) {
	t := r.res.Tree
	cols := make([]byte, 0, len(n.Aligns))
	for _, a := range n.Aligns {
		switch a {
		case ast.AlignCenter:
			cols = append(cols, 'c')
		case ast.AlignRight:
			cols = append(cols, 'r')
		default:
			cols = append(cols, 'l')
		}
	}
	fmt.Fprintf(&r.b, "\\begin{tabular}{%s}\n", cols)
	for i, rowID := range n.Children {
		row := t.Get(rowID)
		if row == nil {
			continue
		}
		for j, cellID := range row.Children {
			if j > 0 {
				r.b.WriteString(" & ")
			}
			cell := t.Get(cellID)
			if cell != nil {
				r.inlines(cell.Children)
			}
		}
		r.b.WriteString(" \\\\\n")
		if i == 0 {
			r.b.WriteString("\\hline\n")
		}
	}
	r.b.WriteString("\\end{tabular}\n\n")
}

func (r *latexRenderer) inlines(ids []ast.NodeID) {
	for _, id := range ids {
		r.inline(id)
	}
}

func (r *latexRenderer) inline(id ast.NodeID) {
	n := r.res.Tree.Get(id)
	if n == nil {
		return
	}
	switch n.Kind {
	case ast.NodeText:
		r.b.WriteString(latexEscape(n.Content))
	case ast.NodeEmphasis:
		r.b.WriteString("\\emph{")
		r.inlines(n.Children)
		r.b.WriteString("}")
	case ast.NodeStrong:
		r.b.WriteString("\\textbf{")
		r.inlines(n.Children)
		r.b.WriteString("}")
	case ast.NodeStrikethrough:
		r.b.WriteString("\\sout{")
		r.inlines(n.Children)
		r.b.WriteString("}")
	case ast.NodeCodeSpan:
		fmt.Fprintf(&r.b, "\\texttt{%s}", latexEscape(n.Content))
	case ast.NodeLink:
		fmt.Fprintf(&r.b, "\\href{%s}{", n.Dest)
		r.inlines(n.Children)
		r.b.WriteString("}")
	case ast.NodeImage:
		fmt.Fprintf(&r.b, "\\includegraphics{%s}", n.Dest)
	case ast.NodeAutolink:
		fmt.Fprintf(&r.b, "\\url{%s}", n.Dest)
	case ast.NodeRawHTML:
		// Raw HTML has no LaTeX equivalent; drop it.
	case ast.NodeLineBreak:
		if n.Break == ast.BreakHard {
			r.b.WriteString("\\\\\n")
		} else {
			r.b.WriteString("\n")
		}
	}
}
