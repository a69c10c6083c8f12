// Package blocks segments a document into block-level nodes: headings,
// paragraphs, lists, quotes, code blocks, tables, thematic breaks and
// admonitions. It is line oriented: the classifier looks at one line at a
// time and containers re-segment their stripped content recursively.
//
// The segmenter never parses inline syntax. For every block that carries
// text it records the content segments (marker prefixes excluded) so the
// inline pass can run over them afterwards.
package blocks

import (
	"github.com/Ranrar/Marco-sub004/internal/source"
)

// line is one physical line of the document. start/end are byte offsets
// into the file; end points at the terminating '\n' or EOF. Container
// stripping produces new line values with start advanced past markers.
type line struct {
	start  uint32
	end    uint32
	nl     bool   // a '\n' terminates the line
	blank  bool   // only whitespace between start and end
	indent uint32 // leading whitespace in columns, tab = 4
}

func splitLines(content []byte) []line {
	return splitRange(content, 0, uint32(len(content)))
}

// splitRange splits [from, to) into lines. Offsets stay absolute so the
// produced lines index into the full document.
func splitRange(content []byte, from, to uint32) []line {
	var out []line
	start := from
	for start <= to {
		if start == to {
			if to == from || content[to-1] == '\n' {
				break
			}
		}
		end := start
		for end < to && content[end] != '\n' {
			end++
		}
		out = append(out, mkLine(content, start, end, end < to))
		start = end + 1
	}
	return out
}

func mkLine(content []byte, start, end uint32, nl bool) line {
	l := line{start: start, end: end, nl: nl, blank: true}
	for i := start; i < end; i++ {
		switch content[i] {
		case ' ':
			if l.blank {
				l.indent++
			}
		case '\t':
			if l.blank {
				l.indent += 4
			}
		default:
			l.blank = false
			return l
		}
	}
	return l
}

// contentStart returns the offset of the first non-whitespace byte.
func (l line) contentStart(content []byte) uint32 {
	i := l.start
	for i < l.end && (content[i] == ' ' || content[i] == '\t') {
		i++
	}
	return i
}

func (l line) text(content []byte) []byte {
	return content[l.start:l.end]
}

// stripColumns drops up to width columns of leading whitespace and
// reclassifies the remainder.
func stripColumns(content []byte, l line, width uint32) line {
	i := l.start
	cols := uint32(0)
	for i < l.end && cols < width {
		switch content[i] {
		case ' ':
			cols++
		case '\t':
			cols += 4
		default:
			return mkLine(content, i, l.end, l.nl)
		}
		i++
	}
	return mkLine(content, i, l.end, l.nl)
}

// fenceInfo describes a code fence opener.
type fenceInfo struct {
	char   byte   // '`' or '~'
	length uint32 // run length, >= 3
	info   string // trimmed info string after the run
}

// fenceOpen recognizes a fence opener: up to three columns of indent, a
// run of three or more backticks or tildes, and an info string that may
// not contain a backtick when the fence is backticks.
func fenceOpen(content []byte, l line) (fenceInfo, bool) {
	if l.blank || l.indent > 3 {
		return fenceInfo{}, false
	}
	i := l.contentStart(content)
	c := content[i]
	if c != '`' && c != '~' {
		return fenceInfo{}, false
	}
	run := i
	for run < l.end && content[run] == c {
		run++
	}
	if run-i < 3 {
		return fenceInfo{}, false
	}
	info := trimSpace(content[run:l.end])
	if c == '`' {
		for _, b := range info {
			if b == '`' {
				return fenceInfo{}, false
			}
		}
	}
	return fenceInfo{char: c, length: run - i, info: string(info)}, true
}

// fenceClose recognizes a closer for the given opener: a run of the same
// character at least as long, with nothing but whitespace after.
func fenceClose(content []byte, l line, open fenceInfo) bool {
	if l.blank || l.indent > 3 {
		return false
	}
	i := l.contentStart(content)
	run := i
	for run < l.end && content[run] == open.char {
		run++
	}
	if run-i < open.length {
		return false
	}
	for j := run; j < l.end; j++ {
		if content[j] != ' ' && content[j] != '\t' {
			return false
		}
	}
	return true
}

// atxLevel recognizes an ATX heading opener and returns its depth 1..6.
// Seven or more hashes, or a hash run not followed by whitespace, is not
// a heading.
func atxLevel(content []byte, l line) (uint8, bool) {
	if l.blank || l.indent > 3 {
		return 0, false
	}
	i := l.contentStart(content)
	depth := uint32(0)
	for i < l.end && content[i] == '#' {
		depth++
		i++
	}
	if depth == 0 || depth > 6 {
		return 0, false
	}
	if i < l.end && content[i] != ' ' && content[i] != '\t' {
		return 0, false
	}
	return uint8(depth), true
}

// thematicBreak recognizes a line of three or more identical '-', '_' or
// '*' bytes with optional internal whitespace.
func thematicBreak(content []byte, l line) bool {
	if l.blank || l.indent > 3 {
		return false
	}
	var c byte
	count := 0
	for i := l.contentStart(content); i < l.end; i++ {
		b := content[i]
		if b == ' ' || b == '\t' {
			continue
		}
		if c == 0 {
			if b != '-' && b != '_' && b != '*' {
				return false
			}
			c = b
		} else if b != c {
			return false
		}
		count++
	}
	return count >= 3
}

// setextUnderline recognizes a setext heading underline and returns the
// heading depth: 1 for '=', 2 for '-'.
func setextUnderline(content []byte, l line) (uint8, bool) {
	if l.blank || l.indent > 3 {
		return 0, false
	}
	i := l.contentStart(content)
	c := content[i]
	if c != '=' && c != '-' {
		return 0, false
	}
	for ; i < l.end; i++ {
		if content[i] == ' ' || content[i] == '\t' {
			for ; i < l.end; i++ {
				if content[i] != ' ' && content[i] != '\t' {
					return 0, false
				}
			}
			break
		}
		if content[i] != c {
			return 0, false
		}
	}
	if c == '=' {
		return 1, true
	}
	return 2, true
}

// quoteMarker recognizes a block quote prefix and returns the content
// offset past the '>' and one optional following space.
func quoteMarker(content []byte, l line) (uint32, bool) {
	if l.blank || l.indent > 3 {
		return 0, false
	}
	i := l.contentStart(content)
	if content[i] != '>' {
		return 0, false
	}
	i++
	if i < l.end && content[i] == ' ' {
		i++
	}
	return i, true
}

// listMarker describes a list item opener.
type listMarker struct {
	ordered bool
	start   int    // ordered start number
	marker  byte   // bullet byte, or '.' / ')' for ordered
	width   uint32 // content column: indent + marker + following spaces
}

// listItemOpen recognizes a bullet or ordered list marker followed by at
// least one space (or end of line for an empty item).
func listItemOpen(content []byte, l line) (listMarker, bool) {
	if l.blank || l.indent > 3 {
		return listMarker{}, false
	}
	i := l.contentStart(content)
	c := content[i]

	var m listMarker
	j := i
	switch {
	case c == '-' || c == '*' || c == '+':
		m.marker = c
		j++
	case c >= '0' && c <= '9':
		num := 0
		for j < l.end && content[j] >= '0' && content[j] <= '9' && j-i < 9 {
			num = num*10 + int(content[j]-'0')
			j++
		}
		if j >= l.end || (content[j] != '.' && content[j] != ')') {
			return listMarker{}, false
		}
		m.ordered = true
		m.start = num
		m.marker = content[j]
		j++
	default:
		return listMarker{}, false
	}

	if j >= l.end {
		// Empty item: content would start one column after the marker.
		m.width = (j - l.start) + 1
		return m, true
	}
	if content[j] != ' ' && content[j] != '\t' {
		return listMarker{}, false
	}
	spaces := uint32(0)
	for j < l.end && (content[j] == ' ' || content[j] == '\t') && spaces < 4 {
		spaces++
		j++
	}
	m.width = j - l.start
	return m, true
}

// tableSeparator recognizes a delimiter row and returns the column
// alignments. Cells consist of dashes with optional leading and trailing
// colons, separated by pipes.
func tableSeparator(content []byte, l line) ([]byte, bool) {
	if l.blank || l.indent > 3 {
		return nil, false
	}
	cells := splitPipes(content, l)
	if len(cells) == 0 {
		return nil, false
	}
	aligns := make([]byte, 0, len(cells))
	for _, cell := range cells {
		c := trimSpace(content[cell.Start:cell.End])
		if len(c) == 0 {
			return nil, false
		}
		left := c[0] == ':'
		right := c[len(c)-1] == ':'
		body := c
		if left {
			body = body[1:]
		}
		if right && len(body) > 0 {
			body = body[:len(body)-1]
		}
		if len(body) == 0 {
			return nil, false
		}
		for _, b := range body {
			if b != '-' {
				return nil, false
			}
		}
		switch {
		case left && right:
			aligns = append(aligns, 'c')
		case left:
			aligns = append(aligns, 'l')
		case right:
			aligns = append(aligns, 'r')
		default:
			aligns = append(aligns, 'n')
		}
	}
	return aligns, true
}

// splitPipes splits a table row on unescaped '|' bytes, honouring one
// optional leading and trailing pipe. Returned spans are untrimmed.
func splitPipes(content []byte, l line) []source.Span {
	i := l.contentStart(content)
	end := l.end
	if i < end && content[i] == '|' {
		i++
	}
	// trailing pipe (ignore trailing whitespace)
	j := end
	for j > i && (content[j-1] == ' ' || content[j-1] == '\t') {
		j--
	}
	if j > i && content[j-1] == '|' && (j-1 == i || content[j-2] != '\\') {
		j--
	}
	var cells []source.Span
	cellStart := i
	for k := i; k < j; k++ {
		if content[k] == '|' && (k == i || content[k-1] != '\\') {
			cells = append(cells, source.Span{Start: cellStart, End: k})
			cellStart = k + 1
		}
	}
	cells = append(cells, source.Span{Start: cellStart, End: j})
	return cells
}

// rowHasPipe reports whether the line contains an unescaped pipe.
func rowHasPipe(content []byte, l line) bool {
	for i := l.contentStart(content); i < l.end; i++ {
		if content[i] == '|' && (i == l.start || content[i-1] != '\\') {
			return true
		}
	}
	return false
}

func trimSpace(b []byte) []byte {
	for len(b) > 0 && (b[0] == ' ' || b[0] == '\t') {
		b = b[1:]
	}
	for len(b) > 0 && (b[len(b)-1] == ' ' || b[len(b)-1] == '\t') {
		b = b[:len(b)-1]
	}
	return b
}
