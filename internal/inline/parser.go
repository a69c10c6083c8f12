// Package inline parses the text content of a single block into inline
// nodes: emphasis, strong, strikethrough, code spans, links, images,
// autolinks, raw HTML, line breaks and plain text.
//
// A block's content may be scattered across lines whose prefixes (quote
// markers, list indentation) are not part of the text. The parser works on
// a scratch buffer concatenated from the content segments and keeps a
// piecewise mapping back to source offsets, so every emitted node carries
// a real source span.
package inline

import (
	"github.com/Ranrar/Marco-sub004/internal/ast"
	"github.com/Ranrar/Marco-sub004/internal/diag"
	"github.com/Ranrar/Marco-sub004/internal/schema"
	"github.com/Ranrar/Marco-sub004/internal/source"
)

// Parser holds per-parse configuration. One Parser may be reused across
// blocks and is safe for concurrent use; all mutable state lives in the
// per-block run.
type Parser struct {
	sc       *schema.Schema
	mode     BreakMode
	reporter diag.Reporter
	strike   [256]bool
}

// New builds a parser for one variant and line-break mode. Strikethrough
// delimiter characters come from the schema's syntax table so custom
// variants can declare alternatives.
func New(sc *schema.Schema, mode BreakMode, reporter diag.Reporter) *Parser {
	if reporter == nil {
		reporter = diag.NopReporter{}
	}
	p := &Parser{sc: sc, mode: mode, reporter: reporter}
	if sc != nil && sc.Features.Strikethrough {
		rule, ok := sc.Syntax[ast.NodeStrikethrough]
		if !ok {
			rule = schema.SyntaxRule{Marker: "~~"}
		}
		for _, m := range append([]string{rule.Marker}, rule.Alternatives...) {
			if len(m) == 2 && m[0] == m[1] {
				p.strike[m[0]] = true
			}
		}
	}
	return p
}

// inl is a parser-internal inline node addressed by scratch offsets.
// It becomes an ast.Node at emit time.
type inl struct {
	kind     ast.NodeKind
	lo, hi   uint32
	content  string
	children []*inl

	dest, title, alt string
	autolink         ast.AutolinkKind
	brk              ast.BreakKind

	delim *delimRun
}

// segMap relates one scratch range to its source range.
type segMap struct {
	scratch uint32
	src     uint32
	n       uint32
}

// run is the mutable state of one block's inline parse.
type run struct {
	p      *Parser
	buf    []byte
	maps   []segMap
	file   source.FileID
	parent ast.NodeID // block node owning the content, for diagnostics

	pieces   []*inl
	delims   []*inl
	brackets []*bracket

	textStart uint32
	hasText   bool
}

// ParseInto parses the content segments of one block and attaches the
// resulting inline nodes as children of parent. Segments must be in
// document order; interior newlines must be included so break handling
// can see them.
func (p *Parser) ParseInto(t *ast.Tree, parent ast.NodeID, f *source.File, segments []source.Span) {
	r := &run{p: p, file: f.ID, parent: parent}
	for _, seg := range segments {
		b := f.Slice(seg)
		if len(b) == 0 {
			continue
		}
		r.maps = append(r.maps, segMap{
			scratch: uint32(len(r.buf)),
			src:     seg.Start,
			n:       uint32(len(b)),
		})
		r.buf = append(r.buf, b...)
	}
	r.scan()
	pieces := processEmphasis(r.pieces, r.delims)
	pieces = mergeText(pieces)
	r.emit(t, parent, pieces)
}

func (r *run) scan() {
	n := uint32(len(r.buf))
	i := uint32(0)
	for i < n {
		c := r.buf[i]
		switch {
		case c == '\\' && i+1 < n && isASCIIPunct(r.buf[i+1]):
			r.flushText(i)
			r.push(&inl{kind: ast.NodeText, lo: i, hi: i + 2, content: string(r.buf[i+1])})
			i += 2

		case c == '\n':
			bound := i
			if r.hasText {
				bound = r.textStart
			}
			dec := classifyBreak(r.buf, i, bound, r.p.mode)
			r.flushText(dec.start)
			if dec.space {
				r.push(&inl{kind: ast.NodeText, lo: dec.start, hi: i + 1, content: " "})
			} else {
				brk := ast.BreakSoft
				if dec.hard {
					brk = ast.BreakHard
				}
				r.push(&inl{kind: ast.NodeLineBreak, lo: dec.start, hi: i + 1, brk: brk})
			}
			i++

		case c == '`':
			r.flushText(i)
			l := scanBacktickRun(r.buf, i)
			if j, ok := findCodeSpanClose(r.buf, i+l, l); ok {
				r.push(&inl{
					kind:    ast.NodeCodeSpan,
					lo:      i,
					hi:      j + l,
					content: codeSpanContent(r.buf[i+l : j]),
				})
				i = j + l
			} else {
				r.p.reporter.Report(diag.NewWarning(diag.InlineUnclosedCodeSpan,
					r.srcSpan(i, i+l), "backtick run has no matching closer").
					ForNode(uint32(r.parent)))
				r.push(&inl{kind: ast.NodeText, lo: i, hi: i + l, content: string(r.buf[i : i+l])})
				i += l
			}

		case c == '<':
			r.flushText(i)
			if dest, cn, ok := scanAutolinkURI(r.buf[i:]); ok {
				r.push(&inl{kind: ast.NodeAutolink, lo: i, hi: i + uint32(cn),
					dest: dest, autolink: ast.AutolinkURI})
				i += uint32(cn)
			} else if dest, cn, ok := scanAutolinkEmail(r.buf[i:]); ok {
				r.push(&inl{kind: ast.NodeAutolink, lo: i, hi: i + uint32(cn),
					dest: dest, autolink: ast.AutolinkEmail})
				i += uint32(cn)
			} else if cn, ok := scanRawHTML(r.buf[i:]); ok {
				r.push(&inl{kind: ast.NodeRawHTML, lo: i, hi: i + uint32(cn),
					content: string(r.buf[i : i+uint32(cn)])})
				i += uint32(cn)
			} else {
				r.startText(i)
				i++
			}

		case c == '*' || c == '_':
			r.flushText(i)
			l := i + 1
			for l < n && r.buf[l] == c {
				l++
			}
			i = r.pushDelim(i, l, c, false)

		case r.p.strike[c]:
			l := i + 1
			for l < n && r.buf[l] == c {
				l++
			}
			if l-i == 2 {
				r.flushText(i)
				i = r.pushDelim(i, l, c, true)
			} else {
				r.startText(i)
				i = l
			}

		case c == '[':
			r.flushText(i)
			piece := &inl{kind: ast.NodeText, lo: i, hi: i + 1, content: "["}
			r.push(piece)
			r.brackets = append(r.brackets, &bracket{piece: piece, active: true})
			i++

		case c == '!' && i+1 < n && r.buf[i+1] == '[':
			r.flushText(i)
			piece := &inl{kind: ast.NodeText, lo: i, hi: i + 2, content: "!["}
			r.push(piece)
			r.brackets = append(r.brackets, &bracket{piece: piece, image: true, active: true})
			i += 2

		case c == ']':
			r.flushText(i)
			i = r.closeBracket(i)

		default:
			r.startText(i)
			i++
		}
	}
	r.flushText(n)
}

func (r *run) pushDelim(lo, hi uint32, char byte, strike bool) uint32 {
	canOpen, canClose := computeFlanking(r.buf, lo, hi, char)
	piece := &inl{
		kind:    ast.NodeText,
		lo:      lo,
		hi:      hi,
		content: string(r.buf[lo:hi]),
		delim: &delimRun{
			char:     char,
			length:   int(hi - lo),
			origLen:  int(hi - lo),
			strike:   strike,
			canOpen:  canOpen,
			canClose: canClose,
		},
	}
	r.push(piece)
	r.delims = append(r.delims, piece)
	return hi
}

// closeBracket resolves a ']' at offset i: if an active opener exists and
// a well-formed "(dest)" suffix follows, the label becomes a link or
// image; otherwise both brackets stay literal text.
func (r *run) closeBracket(i uint32) uint32 {
	var b *bracket
	for len(r.brackets) > 0 {
		cand := r.brackets[len(r.brackets)-1]
		if cand.active {
			b = cand
			break
		}
		r.brackets = r.brackets[:len(r.brackets)-1]
	}
	if b == nil {
		r.startText(i)
		return i + 1
	}

	if i+1 < uint32(len(r.buf)) && r.buf[i+1] == '(' {
		dest, title, cn, ok := scanLinkSuffix(r.buf[i+1:])
		if ok {
			return r.finishLink(b, i, dest, title, i+1+uint32(cn))
		}
		r.p.reporter.Report(diag.NewWarning(diag.InlineBadLinkDest,
			r.srcSpan(i, i+2), "malformed link destination").
			ForNode(uint32(r.parent)))
	}

	r.brackets = r.brackets[:len(r.brackets)-1]
	r.startText(i)
	return i + 1
}

func (r *run) finishLink(b *bracket, closePos uint32, dest, title string, end uint32) uint32 {
	pi := indexOf(r.pieces, b.piece)
	if pi < 0 {
		r.startText(closePos)
		return closePos + 1
	}
	children := append([]*inl(nil), r.pieces[pi+1:]...)
	inner, outer := splitDelims(r.delims, b.piece.hi)
	children = processEmphasis(children, inner)
	children = mergeText(children)

	kind := ast.NodeLink
	if b.image {
		kind = ast.NodeImage
	}
	node := &inl{
		kind:     kind,
		lo:       b.piece.lo,
		hi:       end,
		children: children,
		dest:     dest,
		title:    title,
	}
	if b.image {
		node.alt = plainText(children)
	}

	r.pieces = append(r.pieces[:pi], node)
	r.delims = outer

	// Drop this opener and everything nested inside the label.
	for len(r.brackets) > 0 && r.brackets[len(r.brackets)-1].piece.lo >= b.piece.lo {
		r.brackets = r.brackets[:len(r.brackets)-1]
	}
	// A link must not contain another link; images may.
	if !b.image {
		for _, rem := range r.brackets {
			if !rem.image {
				rem.active = false
			}
		}
	}
	return end
}

// splitDelims partitions the delimiter list at a scratch offset: entries
// at or past the boundary belong to a just-closed label.
func splitDelims(delims []*inl, boundary uint32) (inner, outer []*inl) {
	for _, d := range delims {
		if d.lo >= boundary {
			inner = append(inner, d)
		} else {
			outer = append(outer, d)
		}
	}
	return inner, outer
}

func (r *run) push(p *inl) {
	r.pieces = append(r.pieces, p)
}

func (r *run) startText(i uint32) {
	if !r.hasText {
		r.textStart = i
		r.hasText = true
	}
}

func (r *run) flushText(upTo uint32) {
	if r.hasText && upTo > r.textStart {
		r.push(&inl{
			kind:    ast.NodeText,
			lo:      r.textStart,
			hi:      upTo,
			content: string(r.buf[r.textStart:upTo]),
		})
	}
	r.hasText = false
}

// mergeText joins adjacent plain-text pieces whose scratch spans touch.
func mergeText(pieces []*inl) []*inl {
	out := pieces[:0]
	for _, q := range pieces {
		if len(q.children) > 0 {
			q.children = mergeText(q.children)
		}
		if len(out) > 0 {
			prev := out[len(out)-1]
			if prev.kind == ast.NodeText && q.kind == ast.NodeText &&
				len(prev.children) == 0 && len(q.children) == 0 &&
				prev.hi == q.lo {
				prev.hi = q.hi
				prev.content += q.content
				continue
			}
		}
		out = append(out, q)
	}
	return out
}

// plainText flattens a piece list to its visible text, for image alt.
func plainText(pieces []*inl) string {
	var out []byte
	for _, q := range pieces {
		switch q.kind {
		case ast.NodeText, ast.NodeCodeSpan, ast.NodeRawHTML:
			out = append(out, q.content...)
		case ast.NodeAutolink:
			out = append(out, q.dest...)
		case ast.NodeLineBreak:
			out = append(out, ' ')
		default:
			out = append(out, plainText(q.children)...)
		}
	}
	return string(out)
}

func (r *run) emit(t *ast.Tree, parent ast.NodeID, pieces []*inl) {
	for _, q := range pieces {
		id := t.Alloc(ast.Node{
			Kind:     q.kind,
			Span:     r.srcSpan(q.lo, q.hi),
			Content:  q.content,
			Dest:     q.dest,
			Title:    q.title,
			Alt:      q.alt,
			Autolink: q.autolink,
			Break:    q.brk,
		})
		t.AppendChild(parent, id)
		if len(q.children) > 0 {
			r.emit(t, id, q.children)
		}
	}
}

// srcSpan maps a scratch range back to source offsets. Start offsets map
// into the segment that contains them; end offsets map to the end of the
// segment they close so a span never swallows the gap between segments.
func (r *run) srcSpan(lo, hi uint32) source.Span {
	return source.Span{File: r.file, Start: r.toSrcStart(lo), End: r.toSrcEnd(hi)}
}

func (r *run) toSrcStart(off uint32) uint32 {
	for _, m := range r.maps {
		if off >= m.scratch && off < m.scratch+m.n {
			return m.src + (off - m.scratch)
		}
	}
	if len(r.maps) > 0 {
		last := r.maps[len(r.maps)-1]
		return last.src + last.n
	}
	return 0
}

func (r *run) toSrcEnd(off uint32) uint32 {
	for _, m := range r.maps {
		if off > m.scratch && off <= m.scratch+m.n {
			return m.src + (off - m.scratch)
		}
	}
	if len(r.maps) > 0 {
		return r.maps[0].src
	}
	return 0
}
