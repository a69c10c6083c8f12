package blocks

import (
	"fmt"
	"strings"

	"github.com/Ranrar/Marco-sub004/internal/ast"
	"github.com/Ranrar/Marco-sub004/internal/diag"
	"github.com/Ranrar/Marco-sub004/internal/schema"
	"github.com/Ranrar/Marco-sub004/internal/source"
)

// Admonitions come in two shapes, selected by the variant's syntax rule:
// fenced (":::" opener and closer, Pandoc-style divs) and quoted
// ("> [!NOTE]" as the first line of a block quote, GitHub alerts).

func (s *segmenter) admonitionRule() (schema.SyntaxRule, bool) {
	if s.sc == nil || !s.sc.Features.Admonitions {
		return schema.SyntaxRule{}, false
	}
	rule, ok := s.sc.Syntax[ast.NodeAdmonition]
	if !ok {
		rule = schema.SyntaxRule{Marker: ":::"}
	}
	return rule, true
}

func (s *segmenter) fencedAdmonitionOpen(c []byte, l line) bool {
	rule, ok := s.admonitionRule()
	if !ok || rule.Marker == "[!" || l.blank || l.indent > 3 {
		return false
	}
	text := string(c[l.contentStart(c):l.end])
	return strings.HasPrefix(text, rule.Marker)
}

func (s *segmenter) admonition(parent ast.NodeID, ls []line, i int) int {
	c := s.content()
	rule, _ := s.admonitionRule()
	opener := ls[i]
	rest := strings.TrimSpace(string(c[opener.contentStart(c)+uint32(len(rule.Marker)) : opener.end]))
	label := strings.ToLower(rest)
	if sp := strings.IndexAny(label, " \t"); sp >= 0 {
		label = label[:sp]
	}

	if label == "" {
		s.reporter.Report(diag.New(diag.SevInfo, diag.BlockDegraded,
			s.span(opener.start, opener.end),
			"admonition opener has no kind; parsed as paragraph text"))
		return s.paragraph(parent, ls, i)
	}

	closeIdx := -1
	for j := i + 1; j < len(ls); j++ {
		if ls[j].blank || ls[j].indent > 3 {
			continue
		}
		if string(trimSpace(ls[j].text(c))) == rule.Marker {
			closeIdx = j
			break
		}
	}

	end := i + 1
	spanEnd := opener.end
	var inner []line
	if closeIdx >= 0 {
		inner = ls[i+1 : closeIdx]
		spanEnd = ls[closeIdx].end
		end = closeIdx + 1
	} else {
		inner = ls[i+1:]
		if len(inner) > 0 {
			spanEnd = inner[len(inner)-1].end
		}
		end = len(ls)
		s.reporter.Report(diag.NewWarning(diag.BlockBadAdmonition,
			s.span(opener.start, opener.end),
			fmt.Sprintf("admonition %q is never closed", label)))
	}

	id := s.alloc(parent, ast.Node{
		Kind:  ast.NodeAdmonition,
		Span:  s.span(opener.start, spanEnd),
		Label: label,
	})
	s.checkAdmonitionKind(id, label, s.span(opener.start, opener.end))
	s.segment(id, inner)
	return end
}

// quoteAdmonition recognizes the "[!KIND]" form as the first content line
// of a block quote. The remaining lines become the admonition body.
func (s *segmenter) quoteAdmonition(inner []line) (string, []line, bool) {
	rule, ok := s.admonitionRule()
	if !ok || rule.Marker != "[!" || len(inner) == 0 {
		return "", nil, false
	}
	c := s.content()
	first := strings.TrimSpace(string(inner[0].text(c)))
	if !strings.HasPrefix(first, "[!") || !strings.HasSuffix(first, "]") {
		return "", nil, false
	}
	label := strings.ToLower(first[2 : len(first)-1])
	if label == "" || strings.ContainsAny(label, " \t[]") {
		return "", nil, false
	}
	return label, inner[1:], true
}

func (s *segmenter) checkAdmonitionKind(id ast.NodeID, label string, sp source.Span) {
	rule, ok := s.admonitionRule()
	if !ok || len(rule.Kinds) == 0 {
		return
	}
	for _, k := range rule.Kinds {
		if k == label {
			return
		}
	}
	s.reporter.Report(diag.NewWarning(diag.BlockBadAdmonition, sp,
		fmt.Sprintf("unknown admonition kind %q", label)).ForNode(uint32(id)))
}
