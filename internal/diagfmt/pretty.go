package diagfmt

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"

	"github.com/Ranrar/Marco-sub004/internal/diag"
	"github.com/Ranrar/Marco-sub004/internal/source"
)

// Pretty formats diagnostics for humans. It walks bag.Items() in order
// (the caller is expected to bag.Sort() first) and prints, per
// diagnostic:
//
//	<path>:<line>:<col>: <SEV> <CODE>: <message>
//
// followed by the offending source line with a ^~~~ underline covering
// the span, then notes and fix titles when enabled.
func Pretty(w io.Writer, bag *diag.Bag, fs *source.FileSet, opts PrettyOpts) {
	p := prettyPrinter{w: w, fs: fs, opts: opts}
	for _, d := range bag.Items() {
		p.diagnostic(d)
	}
}

type prettyPrinter struct {
	w    io.Writer
	fs   *source.FileSet
	opts PrettyOpts
}

func (p prettyPrinter) diagnostic(d diag.Diagnostic) {
	start, _ := p.fs.Resolve(d.Primary)
	path := formatPath(p.fs, d.Primary.File, p.opts.PathMode)

	fmt.Fprintf(p.w, "%s:%d:%d: %s %s: %s\n",
		path, start.Line, start.Col,
		p.severity(d.Severity), d.Code.ID(), d.Message)

	p.sourceLine(d.Primary, start)

	if p.opts.ShowNotes {
		for _, note := range d.Notes {
			ns, _ := p.fs.Resolve(note.Span)
			fmt.Fprintf(p.w, "  note: %s:%d:%d: %s\n",
				formatPath(p.fs, note.Span.File, p.opts.PathMode),
				ns.Line, ns.Col, note.Msg)
		}
	}
	if p.opts.ShowFixes {
		for _, fix := range d.Fixes {
			marker := ""
			if fix.IsPreferred {
				marker = " (preferred)"
			}
			fmt.Fprintf(p.w, "  fix: %s [%s]%s\n", fix.Title, fix.Applicability, marker)
		}
	}
}

// sourceLine prints the first line the span touches with a gutter and an
// underline. Display columns are rune-width aware so wide characters and
// tabs line up.
func (p prettyPrinter) sourceLine(span source.Span, start source.LineCol) {
	f := p.fs.Get(span.File)
	line := f.GetLine(start.Line)
	if line == "" && start.Col > 1 {
		return
	}

	gutter := fmt.Sprintf("%4d | ", start.Line)
	fmt.Fprintf(p.w, "%s%s\n", gutter, expandTabs(line))

	prefix := line
	if int(start.Col)-1 <= len(line) {
		prefix = line[:start.Col-1]
	}
	pad := runewidth.StringWidth(expandTabs(prefix))

	spanLen := int(span.End - span.Start)
	rest := len(line) - len(prefix)
	if spanLen > rest {
		spanLen = rest
	}
	underline := "^"
	if spanLen > 1 {
		width := runewidth.StringWidth(expandTabs(line[len(prefix) : len(prefix)+spanLen]))
		if width > 1 {
			underline += strings.Repeat("~", width-1)
		}
	}

	fmt.Fprintf(p.w, "%s | %s%s\n",
		strings.Repeat(" ", 4),
		strings.Repeat(" ", pad),
		p.underlineColor(underline))
}

func (p prettyPrinter) severity(s diag.Severity) string {
	if !p.opts.Color {
		return s.String()
	}
	switch s {
	case diag.SevError:
		return color.New(color.FgRed, color.Bold).Sprint(s.String())
	case diag.SevWarning:
		return color.New(color.FgYellow, color.Bold).Sprint(s.String())
	default:
		return color.New(color.FgCyan).Sprint(s.String())
	}
}

func (p prettyPrinter) underlineColor(s string) string {
	if !p.opts.Color {
		return s
	}
	return color.New(color.FgGreen, color.Bold).Sprint(s)
}

func expandTabs(s string) string {
	return strings.ReplaceAll(s, "\t", "    ")
}

func formatPath(fs *source.FileSet, id source.FileID, mode PathMode) string {
	f := fs.Get(id)
	switch mode {
	case PathModeAbsolute:
		return f.FormatPath("absolute", "")
	case PathModeRelative:
		return f.FormatPath("relative", fs.BaseDir())
	case PathModeBasename:
		return f.FormatPath("basename", "")
	default:
		return f.FormatPath("auto", fs.BaseDir())
	}
}
