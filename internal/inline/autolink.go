package inline

// Autolink and raw-HTML recognition. Both start at '<' and are tried in
// that order; whichever matches consumes through the closing '>'.

// scanAutolinkURI matches <scheme:target> where scheme is 2..32 ASCII
// letters, digits, '+', '.' or '-' starting with a letter, and target has
// no whitespace, '<' or '>'. Returns the enclosed text and the total byte
// length including both angle brackets.
func scanAutolinkURI(buf []byte) (dest string, n int, ok bool) {
	if len(buf) < 2 || buf[0] != '<' {
		return "", 0, false
	}
	i := 1
	if i >= len(buf) || !isASCIILetter(buf[i]) {
		return "", 0, false
	}
	schemeLen := 0
	for i < len(buf) && isSchemeByte(buf[i]) {
		schemeLen++
		i++
	}
	if schemeLen < 2 || schemeLen > 32 || i >= len(buf) || buf[i] != ':' {
		return "", 0, false
	}
	i++
	for i < len(buf) {
		c := buf[i]
		if c == '>' {
			return string(buf[1:i]), i + 1, true
		}
		if c == '<' || isASCIIWhitespace(c) {
			return "", 0, false
		}
		i++
	}
	return "", 0, false
}

// scanAutolinkEmail matches <local@domain> with exactly one '@', non-empty
// local part and domain, and no whitespace.
func scanAutolinkEmail(buf []byte) (dest string, n int, ok bool) {
	if len(buf) < 2 || buf[0] != '<' {
		return "", 0, false
	}
	at := -1
	for i := 1; i < len(buf); i++ {
		c := buf[i]
		switch {
		case c == '>':
			if at < 0 || at == 1 || at == i-1 {
				return "", 0, false
			}
			return string(buf[1:i]), i + 1, true
		case c == '@':
			if at >= 0 {
				return "", 0, false
			}
			at = i
		case c == '<' || isASCIIWhitespace(c):
			return "", 0, false
		}
	}
	return "", 0, false
}

// scanRawHTML matches a single HTML construct: an open or close tag with
// optional attributes, a comment, a processing instruction, a declaration
// or a CDATA section. It is a recognizer only; the text is preserved
// verbatim as a raw_html node.
func scanRawHTML(buf []byte) (n int, ok bool) {
	if len(buf) < 3 || buf[0] != '<' {
		return 0, false
	}
	switch {
	case hasPrefix(buf, "<!--"):
		return scanThrough(buf, 4, "-->")
	case hasPrefix(buf, "<?"):
		return scanThrough(buf, 2, "?>")
	case hasPrefix(buf, "<![CDATA["):
		return scanThrough(buf, 9, "]]>")
	case buf[1] == '!':
		return scanThrough(buf, 2, ">")
	case buf[1] == '/':
		return scanCloseTag(buf)
	default:
		return scanOpenTag(buf)
	}
}

func scanOpenTag(buf []byte) (int, bool) {
	i := 1
	start := i
	for i < len(buf) && isTagNameByte(buf[i], i == start) {
		i++
	}
	if i == start {
		return 0, false
	}
	for {
		j := skipTagWhitespace(buf, i)
		if j >= len(buf) {
			return 0, false
		}
		if buf[j] == '>' {
			return j + 1, true
		}
		if buf[j] == '/' && j+1 < len(buf) && buf[j+1] == '>' {
			return j + 2, true
		}
		// An attribute must be separated from what precedes it.
		if j == i {
			return 0, false
		}
		j, ok := scanAttribute(buf, j)
		if !ok {
			return 0, false
		}
		i = j
	}
}

func scanCloseTag(buf []byte) (int, bool) {
	i := 2
	start := i
	for i < len(buf) && isTagNameByte(buf[i], i == start) {
		i++
	}
	if i == start {
		return 0, false
	}
	i = skipTagWhitespace(buf, i)
	if i < len(buf) && buf[i] == '>' {
		return i + 1, true
	}
	return 0, false
}

func scanAttribute(buf []byte, i int) (int, bool) {
	c := buf[i]
	if !isASCIILetter(c) && c != '_' && c != ':' {
		return 0, false
	}
	for i < len(buf) && (isASCIILetter(buf[i]) || isASCIIDigit(buf[i]) ||
		buf[i] == '_' || buf[i] == ':' || buf[i] == '.' || buf[i] == '-') {
		i++
	}
	j := skipTagWhitespace(buf, i)
	if j >= len(buf) || buf[j] != '=' {
		return i, true // bare attribute
	}
	j = skipTagWhitespace(buf, j+1)
	if j >= len(buf) {
		return 0, false
	}
	switch buf[j] {
	case '"', '\'':
		quote := buf[j]
		j++
		for j < len(buf) && buf[j] != quote {
			j++
		}
		if j >= len(buf) {
			return 0, false
		}
		return j + 1, true
	default:
		start := j
		for j < len(buf) && !isASCIIWhitespace(buf[j]) &&
			buf[j] != '"' && buf[j] != '\'' && buf[j] != '=' &&
			buf[j] != '<' && buf[j] != '>' && buf[j] != '`' {
			j++
		}
		if j == start {
			return 0, false
		}
		return j, true
	}
}

func scanThrough(buf []byte, from int, terminator string) (int, bool) {
	for i := from; i+len(terminator) <= len(buf); i++ {
		if string(buf[i:i+len(terminator)]) == terminator {
			return i + len(terminator), true
		}
	}
	return 0, false
}

func hasPrefix(buf []byte, p string) bool {
	return len(buf) >= len(p) && string(buf[:len(p)]) == p
}

func skipTagWhitespace(buf []byte, i int) int {
	for i < len(buf) && (buf[i] == ' ' || buf[i] == '\t' || buf[i] == '\n') {
		i++
	}
	return i
}

func isASCIILetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isASCIIDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func isASCIIWhitespace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}

func isSchemeByte(c byte) bool {
	return isASCIILetter(c) || isASCIIDigit(c) || c == '+' || c == '.' || c == '-'
}

func isTagNameByte(c byte, first bool) bool {
	if first {
		return isASCIILetter(c)
	}
	return isASCIILetter(c) || isASCIIDigit(c) || c == '-'
}
