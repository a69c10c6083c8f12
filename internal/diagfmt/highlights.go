package diagfmt

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/Ranrar/Marco-sub004/internal/intel"
	"github.com/Ranrar/Marco-sub004/internal/source"
)

// HighlightOutput is the serializable form of one highlight.
type HighlightOutput struct {
	Category string      `json:"category"`
	Span     source.Span `json:"span"`
	Text     string      `json:"text,omitempty"`
}

const highlightExcerptWidth = 32

// HighlightsPretty renders highlights one per line, category and
// position columns aligned by display width.
func HighlightsPretty(w io.Writer, highlights []intel.Highlight, f *source.File) {
	catWidth := 0
	for _, h := range highlights {
		if cw := runewidth.StringWidth(h.Category.String()); cw > catWidth {
			catWidth = cw
		}
	}
	for i, h := range highlights {
		excerpt := highlightExcerpt(f, h.Span)
		fmt.Fprintf(w, "%3d: %s [%d..%d)",
			i+1, runewidth.FillRight(h.Category.String(), catWidth),
			h.Span.Start, h.Span.End)
		if excerpt != "" {
			fmt.Fprintf(w, " %q", excerpt)
		}
		fmt.Fprintln(w)
	}
}

// HighlightsJSON renders highlights as an indented JSON array.
func HighlightsJSON(w io.Writer, highlights []intel.Highlight, f *source.File) error {
	output := make([]HighlightOutput, 0, len(highlights))
	for _, h := range highlights {
		output = append(output, HighlightOutput{
			Category: h.Category.String(),
			Span:     h.Span,
			Text:     highlightExcerpt(f, h.Span),
		})
	}
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(output)
}

func highlightExcerpt(f *source.File, span source.Span) string {
	if f == nil || span.Start >= uint32(len(f.Content)) {
		return ""
	}
	end := span.End
	if end > uint32(len(f.Content)) {
		end = uint32(len(f.Content))
	}
	text := strings.ReplaceAll(string(f.Content[span.Start:end]), "\n", "\\n")
	if runewidth.StringWidth(text) > highlightExcerptWidth {
		text = runewidth.Truncate(text, highlightExcerptWidth, "...")
	}
	return text
}
