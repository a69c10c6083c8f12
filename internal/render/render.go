// Package render turns a parse result into output text. Rendering is a
// pure AST-to-text transform: it never mutates the tree and never
// consults the source beyond node spans and recorded content.
package render

import (
	"fmt"
	"strings"

	"github.com/Ranrar/Marco-sub004/internal/parser"
)

// Format selects the output language.
type Format uint8

const (
	FormatHTML Format = iota
	FormatLaTeX
	FormatPlain
)

// ParseFormat resolves a CLI format name.
func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(name) {
	case "html", "":
		return FormatHTML, nil
	case "latex", "tex":
		return FormatLaTeX, nil
	case "plain", "text", "txt":
		return FormatPlain, nil
	default:
		return 0, fmt.Errorf("render: unknown format %q", name)
	}
}

// Options configure one render.
type Options struct {
	Format Format

	// HighlightStyle is the chroma style for fenced code in HTML
	// output; empty picks "github".
	HighlightStyle string
}

// Render produces the document in the requested format.
func Render(res *parser.Result, opts Options) (string, error) {
	switch opts.Format {
	case FormatHTML:
		return renderHTML(res, opts)
	case FormatLaTeX:
		return renderLaTeX(res)
	case FormatPlain:
		return renderPlain(res), nil
	default:
		return "", fmt.Errorf("render: unknown format %d", opts.Format)
	}
}
