package blocks

import (
	"strings"

	"github.com/Ranrar/Marco-sub004/internal/ast"
	"github.com/Ranrar/Marco-sub004/internal/diag"
	"github.com/Ranrar/Marco-sub004/internal/schema"
	"github.com/Ranrar/Marco-sub004/internal/source"
)

// InlineTarget couples a text-carrying block node with the source segments
// of its content, marker prefixes excluded. Interior segments keep their
// trailing newline so the inline pass can classify line breaks.
type InlineTarget struct {
	Node     ast.NodeID
	Segments []source.Span
}

// Segment splits the file into block nodes under the tree's root and
// returns the inline targets in document order.
func Segment(f *source.File, t *ast.Tree, sc *schema.Schema, reporter diag.Reporter) []InlineTarget {
	return SegmentSpan(f, t, sc, reporter, 0, uint32(len(f.Content)))
}

// SegmentSpan segments only the byte range [from, to). The range must
// start at a line boundary. Used by the incremental reparse path to
// re-segment a single edited block in place.
func SegmentSpan(f *source.File, t *ast.Tree, sc *schema.Schema, reporter diag.Reporter, from, to uint32) []InlineTarget {
	if reporter == nil {
		reporter = diag.NopReporter{}
	}
	s := &segmenter{f: f, t: t, sc: sc, reporter: reporter}
	s.segment(t.Root, splitRange(f.Content, from, to))
	return s.targets
}

type segmenter struct {
	f        *source.File
	t        *ast.Tree
	sc       *schema.Schema
	reporter diag.Reporter
	targets  []InlineTarget
}

func (s *segmenter) content() []byte { return s.f.Content }

func (s *segmenter) span(start, end uint32) source.Span {
	return source.Span{File: s.f.ID, Start: start, End: end}
}

func (s *segmenter) alloc(parent ast.NodeID, n ast.Node) ast.NodeID {
	id := s.t.Alloc(n)
	s.t.AppendChild(parent, id)
	return id
}

func (s *segmenter) addTarget(node ast.NodeID, segs []source.Span) {
	if len(segs) > 0 {
		s.targets = append(s.targets, InlineTarget{Node: node, Segments: segs})
	}
}

// defaultBlockPrecedence is the opener order used when the variant's
// policy does not set one. It matches CommonMark practice: code blocks
// bind tightest, paragraphs catch whatever is left.
var defaultBlockPrecedence = []ast.NodeKind{
	ast.NodeCodeBlock,
	ast.NodeHeading,
	ast.NodeThematicBreak,
	ast.NodeBlockQuote,
	ast.NodeAdmonition,
	ast.NodeList,
	ast.NodeTable,
	ast.NodeParagraph,
}

func (s *segmenter) precedence() []ast.NodeKind {
	if s.sc != nil && len(s.sc.Policy.BlockPrecedence) > 0 {
		return s.sc.Policy.BlockPrecedence
	}
	return defaultBlockPrecedence
}

// segment classifies lines at one container level. Openers are tried in
// the variant's block precedence order; kinds ranked after paragraph can
// never open, since paragraph matches any non-blank line. Setext
// underlines are resolved inside paragraph accumulation.
func (s *segmenter) segment(parent ast.NodeID, ls []line) {
	order := s.precedence()
	i := 0
	for i < len(ls) {
		if ls[i].blank {
			i++
			continue
		}
		i = s.openBlock(parent, ls, i, order)
	}
}

func (s *segmenter) openBlock(parent ast.NodeID, ls []line, i int, order []ast.NodeKind) int {
	c := s.content()
	l := ls[i]
	for _, kind := range order {
		switch kind {
		case ast.NodeCodeBlock:
			if isFenceOpenLine(c, l) {
				return s.codeFence(parent, ls, i)
			}
			if l.indent >= 4 {
				return s.indentedCode(parent, ls, i)
			}
		case ast.NodeHeading:
			if isATXLine(c, l) {
				return s.atxHeading(parent, ls, i)
			}
		case ast.NodeThematicBreak:
			if thematicBreak(c, l) {
				return s.thematic(parent, ls, i)
			}
		case ast.NodeBlockQuote:
			if isQuoteLine(c, l) {
				return s.blockQuote(parent, ls, i)
			}
		case ast.NodeAdmonition:
			if s.fencedAdmonitionOpen(c, l) {
				return s.admonition(parent, ls, i)
			}
		case ast.NodeList:
			if s.isListLine(c, l) {
				return s.list(parent, ls, i)
			}
		case ast.NodeTable:
			if s.isTableStart(c, ls, i) {
				return s.table(parent, ls, i)
			}
		case ast.NodeParagraph:
			return s.paragraph(parent, ls, i)
		}
	}
	// An order without a paragraph entry still needs a sink.
	return s.paragraph(parent, ls, i)
}

func isFenceOpenLine(c []byte, l line) bool {
	_, ok := fenceOpen(c, l)
	return ok
}

func isATXLine(c []byte, l line) bool {
	_, ok := atxLevel(c, l)
	return ok
}

func isQuoteLine(c []byte, l line) bool {
	_, ok := quoteMarker(c, l)
	return ok
}

func (s *segmenter) isListLine(c []byte, l line) bool {
	_, ok := listItemOpen(c, l)
	return ok
}

func (s *segmenter) isTableStart(c []byte, ls []line, i int) bool {
	if s.sc == nil || !s.sc.Features.Tables {
		return false
	}
	if !rowHasPipe(c, ls[i]) || i+1 >= len(ls) {
		return false
	}
	_, ok := tableSeparator(c, ls[i+1])
	return ok
}

// opensBlock reports whether the line would start a block that ranks
// before paragraph in the variant's precedence order. Used to end
// paragraphs and lazy continuations. Indented code never interrupts.
func (s *segmenter) opensBlock(c []byte, l line) bool {
	if l.blank {
		return false
	}
	for _, kind := range s.precedence() {
		switch kind {
		case ast.NodeParagraph:
			return false
		case ast.NodeCodeBlock:
			if isFenceOpenLine(c, l) {
				return true
			}
		case ast.NodeHeading:
			if isATXLine(c, l) {
				return true
			}
		case ast.NodeThematicBreak:
			if thematicBreak(c, l) {
				return true
			}
		case ast.NodeBlockQuote:
			if isQuoteLine(c, l) {
				return true
			}
		case ast.NodeAdmonition:
			if s.fencedAdmonitionOpen(c, l) {
				return true
			}
		case ast.NodeList:
			if m, ok := listItemOpen(c, l); ok {
				// Only bullets and lists starting at 1 interrupt.
				return !m.ordered || m.start == 1
			}
		}
	}
	return false
}

// ranksBeforeParagraph reports whether kind precedes paragraph in the
// opener order, i.e. whether it may interrupt a running paragraph.
func (s *segmenter) ranksBeforeParagraph(kind ast.NodeKind) bool {
	for _, k := range s.precedence() {
		if k == kind {
			return true
		}
		if k == ast.NodeParagraph {
			return false
		}
	}
	return false
}

func (s *segmenter) codeFence(parent ast.NodeID, ls []line, i int) int {
	c := s.content()
	open, _ := fenceOpen(c, ls[i])

	j := i + 1
	closed := false
	for ; j < len(ls); j++ {
		if fenceClose(c, ls[j], open) {
			closed = true
			break
		}
	}

	var body strings.Builder
	for k := i + 1; k < j; k++ {
		body.Write(stripColumns(c, ls[k], ls[i].indent).text(c))
		body.WriteByte('\n')
	}

	end := ls[j-1].end
	next := j
	if closed {
		end = ls[j].end
		next = j + 1
	}
	if j == i+1 && !closed {
		end = ls[i].end
	}

	style := ast.FenceBacktick
	if open.char == '~' {
		style = ast.FenceTilde
	}
	lang := open.info
	if sp := strings.IndexAny(lang, " \t"); sp >= 0 {
		lang = lang[:sp]
	}
	id := s.alloc(parent, ast.Node{
		Kind:    ast.NodeCodeBlock,
		Span:    s.span(ls[i].start, end),
		Marker:  open.char,
		Fence:   style,
		Lang:    lang,
		Content: body.String(),
	})
	if !closed {
		s.reporter.Report(diag.NewWarning(diag.BlockUnclosedFence,
			s.span(ls[i].start, ls[i].end),
			"code fence is never closed").ForNode(uint32(id)))
	}
	return next
}

func (s *segmenter) indentedCode(parent ast.NodeID, ls []line, i int) int {
	c := s.content()
	j := i
	last := i // last non-blank line taken
	for j < len(ls) {
		switch {
		case ls[j].blank:
			j++
		case ls[j].indent >= 4:
			last = j
			j++
		default:
			j = last + 1
			goto done
		}
	}
	j = last + 1
done:
	var body strings.Builder
	for k := i; k <= last; k++ {
		body.Write(stripColumns(c, ls[k], 4).text(c))
		body.WriteByte('\n')
	}
	s.alloc(parent, ast.Node{
		Kind:    ast.NodeCodeBlock,
		Span:    s.span(ls[i].start, ls[last].end),
		Fence:   ast.FenceIndent,
		Content: body.String(),
	})
	return j
}

func (s *segmenter) atxHeading(parent ast.NodeID, ls []line, i int) int {
	c := s.content()
	l := ls[i]
	depth, _ := atxLevel(c, l)

	start := l.contentStart(c) + uint32(depth)
	for start < l.end && (c[start] == ' ' || c[start] == '\t') {
		start++
	}
	// Trim an optional closing hash run and trailing whitespace.
	end := l.end
	for end > start && (c[end-1] == ' ' || c[end-1] == '\t') {
		end--
	}
	he := end
	for he > start && c[he-1] == '#' {
		he--
	}
	if he < end && (he == start || c[he-1] == ' ' || c[he-1] == '\t') {
		end = he
		for end > start && (c[end-1] == ' ' || c[end-1] == '\t') {
			end--
		}
	}

	id := s.alloc(parent, ast.Node{
		Kind:  ast.NodeHeading,
		Span:  s.span(l.start, l.end),
		Depth: depth,
	})
	if end > start {
		s.addTarget(id, []source.Span{s.span(start, end)})
	}
	return i + 1
}

func (s *segmenter) thematic(parent ast.NodeID, ls []line, i int) int {
	s.alloc(parent, ast.Node{
		Kind: ast.NodeThematicBreak,
		Span: s.span(ls[i].start, ls[i].end),
	})
	return i + 1
}

func (s *segmenter) blockQuote(parent ast.NodeID, ls []line, i int) int {
	c := s.content()
	lazy := s.sc != nil && s.sc.Policy.LazyContinuation

	var inner []line
	j := i
	for j < len(ls) {
		if off, ok := quoteMarker(c, ls[j]); ok {
			inner = append(inner, mkLine(c, off, ls[j].end, ls[j].nl))
			j++
			continue
		}
		// Lazy continuation: a plain line extends the quote while its
		// last inner line is paragraph text.
		if lazy && !ls[j].blank && !s.opensBlock(c, ls[j]) &&
			len(inner) > 0 && !inner[len(inner)-1].blank &&
			s.looksLikeParagraph(c, inner[len(inner)-1]) {
			inner = append(inner, ls[j])
			j++
			continue
		}
		break
	}

	spanEnd := ls[j-1].end

	// GitHub-style admonitions live inside a quote: "> [!NOTE]".
	if label, rest, ok := s.quoteAdmonition(inner); ok {
		id := s.alloc(parent, ast.Node{
			Kind:  ast.NodeAdmonition,
			Span:  s.span(ls[i].start, spanEnd),
			Label: label,
		})
		s.checkAdmonitionKind(id, label, s.span(ls[i].start, ls[i].end))
		s.segment(id, rest)
		return j
	}

	id := s.alloc(parent, ast.Node{
		Kind: ast.NodeBlockQuote,
		Span: s.span(ls[i].start, spanEnd),
	})
	s.segment(id, inner)
	return j
}

// looksLikeParagraph reports whether a stripped quote line would have
// been classified as paragraph text.
func (s *segmenter) looksLikeParagraph(c []byte, l line) bool {
	if l.blank || l.indent >= 4 {
		return false
	}
	return !s.opensBlock(c, l) && !isQuoteLine(c, l)
}

func (s *segmenter) paragraph(parent ast.NodeID, ls []line, i int) int {
	c := s.content()
	if s.sc != nil && s.sc.Features.SetextHeadings {
		// An '=' underline with no paragraph above it heads nothing.
		if depth, ok := setextUnderline(c, ls[i]); ok && depth == 1 {
			s.reporter.Report(diag.NewWarning(diag.BlockBadSetext,
				s.span(ls[i].start, ls[i].end),
				"setext underline has no heading text above it"))
		}
	}
	j := i + 1
	for j < len(ls) {
		l := ls[j]
		if l.blank {
			break
		}
		if s.sc != nil && s.sc.Features.SetextHeadings {
			if depth, ok := setextUnderline(c, l); ok {
				return s.setextHeading(parent, ls, i, j, depth)
			}
		}
		if s.opensBlock(c, l) ||
			(s.ranksBeforeParagraph(ast.NodeTable) && s.isTableStart(c, ls, j)) {
			break
		}
		j++
	}

	id := s.alloc(parent, ast.Node{
		Kind: ast.NodeParagraph,
		Span: s.span(ls[i].start, ls[j-1].end),
	})
	s.addTarget(id, s.paragraphSegments(ls[i:j]))
	return j
}

// paragraphSegments builds the inline content segments of a multi-line
// text block: each line from its first non-space byte, interior lines
// keeping their newline.
func (s *segmenter) paragraphSegments(ls []line) []source.Span {
	c := s.content()
	segs := make([]source.Span, 0, len(ls))
	for k, l := range ls {
		start := l.contentStart(c)
		end := l.end
		if k < len(ls)-1 && l.nl {
			end++
		}
		if end > start {
			segs = append(segs, s.span(start, end))
		}
	}
	return segs
}

func (s *segmenter) setextHeading(parent ast.NodeID, ls []line, i, j int, depth uint8) int {
	id := s.alloc(parent, ast.Node{
		Kind:  ast.NodeHeading,
		Span:  s.span(ls[i].start, ls[j].end),
		Depth: depth,
	})
	s.addTarget(id, s.paragraphSegments(ls[i:j]))
	return j + 1
}
