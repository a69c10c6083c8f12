package intel

import (
	"strings"

	"github.com/Ranrar/Marco-sub004/internal/ast"
	"github.com/Ranrar/Marco-sub004/internal/parser"
	"github.com/Ranrar/Marco-sub004/internal/schema"
)

// Candidate is one completion suggestion.
type Candidate struct {
	Label  string
	Detail string
	Insert string
}

var fenceLanguages = []string{
	"bash", "c", "go", "html", "json", "markdown", "python", "rust", "toml", "yaml",
}

// Complete suggests insertions for the position. The context is decided
// from the bytes of the current line before the offset: an admonition
// opener offers its kinds, a fence opener offers languages, "](" offers
// destination schemes, a blank line prefix offers block openers, and
// anything else offers inline markers.
func Complete(res *parser.Result, offset uint32) []Candidate {
	content := res.File().Content
	if offset > uint32(len(content)) {
		offset = uint32(len(content))
	}
	lineStart := offset
	for lineStart > 0 && content[lineStart-1] != '\n' {
		lineStart--
	}
	line := string(content[lineStart:offset])
	sc := res.Schema

	if out, ok := admonitionKinds(line, sc); ok {
		return out
	}
	if out, ok := fenceLanguageCandidates(line, sc); ok {
		return out
	}
	if inLinkDestination(line) {
		return []Candidate{
			{Label: "https://", Detail: "web link", Insert: "https://"},
			{Label: "mailto:", Detail: "email link", Insert: "mailto:"},
			{Label: "#", Detail: "document anchor", Insert: "#"},
		}
	}
	if strings.TrimSpace(line) == "" {
		return blockOpeners(sc)
	}
	return inlineMarkers(sc)
}

// admonitionKinds fires when the line so far is exactly an admonition
// opener: ":::" for fenced admonitions, "> [!" for quote-style ones.
func admonitionKinds(line string, sc *schema.Schema) ([]Candidate, bool) {
	if !sc.Features.Admonitions {
		return nil, false
	}
	rule, ok := sc.Syntax[ast.NodeAdmonition]
	if !ok || len(rule.Kinds) == 0 {
		return nil, false
	}
	trimmed := strings.TrimLeft(line, " \t")
	var opener bool
	if rule.Marker == "[!" {
		opener = strings.HasSuffix(trimmed, "[!") && strings.HasPrefix(trimmed, ">")
	} else {
		opener = trimmed == rule.Marker
	}
	if !opener {
		return nil, false
	}
	out := make([]Candidate, 0, len(rule.Kinds))
	for _, kind := range rule.Kinds {
		insert := kind
		if rule.Marker == "[!" {
			insert = strings.ToUpper(kind) + "]"
		}
		out = append(out, Candidate{Label: kind, Detail: "admonition kind", Insert: insert})
	}
	return out, true
}

// fenceLanguageCandidates fires right after a fence opener run.
func fenceLanguageCandidates(line string, sc *schema.Schema) ([]Candidate, bool) {
	rule, ok := sc.Syntax[ast.NodeCodeBlock]
	if !ok {
		return nil, false
	}
	trimmed := strings.TrimLeft(line, " \t")
	matched := false
	for _, marker := range append([]string{rule.Marker}, rule.Alternatives...) {
		if trimmed == marker {
			matched = true
		}
	}
	if !matched {
		return nil, false
	}
	out := make([]Candidate, 0, len(fenceLanguages))
	for _, lang := range fenceLanguages {
		out = append(out, Candidate{Label: lang, Detail: "fence language", Insert: lang})
	}
	return out, true
}

// inLinkDestination reports whether the cursor sits inside "](...)" with
// the destination still open.
func inLinkDestination(line string) bool {
	open := strings.LastIndex(line, "](")
	if open < 0 {
		return false
	}
	return !strings.Contains(line[open+2:], ")")
}

func blockOpeners(sc *schema.Schema) []Candidate {
	out := make([]Candidate, 0, 8)
	add := func(kind ast.NodeKind, depth int, label, detail, suffix string) {
		marker, ok := sc.ExpectedMarker(kind, depth)
		if !ok {
			return
		}
		out = append(out, Candidate{Label: label, Detail: detail, Insert: marker + suffix})
	}
	add(ast.NodeHeading, 1, "heading", "section heading", " ")
	add(ast.NodeList, 0, "list item", "bullet list item", " ")
	add(ast.NodeCodeBlock, 0, "code block", "fenced code block", "\n")
	add(ast.NodeThematicBreak, 0, "thematic break", "horizontal rule", "\n")
	out = append(out, Candidate{Label: "block quote", Detail: "quoted block", Insert: "> "})
	if sc.Features.Admonitions {
		if rule, ok := sc.Syntax[ast.NodeAdmonition]; ok && rule.Marker != "[!" {
			out = append(out, Candidate{Label: "admonition", Detail: "callout block", Insert: rule.Marker})
		}
	}
	return out
}

func inlineMarkers(sc *schema.Schema) []Candidate {
	out := make([]Candidate, 0, 5)
	add := func(kind ast.NodeKind, label string) {
		rule, ok := sc.Syntax[kind]
		if !ok {
			return
		}
		out = append(out, Candidate{
			Label:  label,
			Detail: "inline " + label,
			Insert: rule.Marker + rule.Marker,
		})
	}
	add(ast.NodeEmphasis, "emphasis")
	add(ast.NodeStrong, "strong")
	if sc.Features.Strikethrough {
		add(ast.NodeStrikethrough, "strikethrough")
	}
	out = append(out,
		Candidate{Label: "code span", Detail: "inline code", Insert: "``"},
		Candidate{Label: "link", Detail: "inline link", Insert: "[]()"},
	)
	return out
}
