package inline

// Link destination and title subgrammar. The scanners operate on scratch
// bytes and return consumed lengths; the caller owns span bookkeeping.

// bracket records a pending '[' or '![' opener on the bracket stack.
type bracket struct {
	piece  *inl
	image  bool
	active bool // openers inside a completed link are deactivated
}

// scanLinkSuffix matches the "(dest \"title\")" tail that must follow the
// closing bracket of an inline link. buf starts at the '('. Returns the
// destination, the optional title and the total consumed length.
func scanLinkSuffix(buf []byte) (dest, title string, n int, ok bool) {
	if len(buf) == 0 || buf[0] != '(' {
		return "", "", 0, false
	}
	i := skipLinkWhitespace(buf, 1)
	dest, dn, ok := scanLinkDestination(buf[i:])
	if !ok {
		return "", "", 0, false
	}
	i += dn
	j := skipLinkWhitespace(buf, i)
	if j < len(buf) && j > i {
		if t, tn, tok := scanLinkTitle(buf[j:]); tok {
			title = t
			j += tn
		}
	}
	j = skipLinkWhitespace(buf, j)
	if j < len(buf) && buf[j] == ')' {
		return dest, title, j + 1, true
	}
	return "", "", 0, false
}

// scanLinkDestination matches either <...> with no newlines or unescaped
// angle brackets, or a bare destination with balanced parentheses and no
// whitespace or control bytes. Backslash escapes are resolved in the
// returned string.
func scanLinkDestination(buf []byte) (string, int, bool) {
	if len(buf) > 0 && buf[0] == '<' {
		var out []byte
		for i := 1; i < len(buf); i++ {
			c := buf[i]
			switch {
			case c == '>':
				return string(out), i + 1, true
			case c == '\n' || c == '<':
				return "", 0, false
			case c == '\\' && i+1 < len(buf) && isASCIIPunct(buf[i+1]):
				out = append(out, buf[i+1])
				i++
			default:
				out = append(out, c)
			}
		}
		return "", 0, false
	}

	var out []byte
	depth := 0
	i := 0
	for i < len(buf) {
		c := buf[i]
		switch {
		case c == '\\' && i+1 < len(buf) && isASCIIPunct(buf[i+1]):
			out = append(out, buf[i+1])
			i += 2
			continue
		case c == '(':
			depth++
			out = append(out, c)
		case c == ')':
			if depth == 0 {
				if i == 0 {
					return "", 0, false
				}
				return string(out), i, true
			}
			depth--
			out = append(out, c)
		case isASCIIWhitespace(c) || c < 0x20:
			if i == 0 || depth > 0 {
				return "", 0, false
			}
			return string(out), i, true
		default:
			out = append(out, c)
		}
		i++
	}
	if depth > 0 || i == 0 {
		return "", 0, false
	}
	return string(out), i, true
}

// scanLinkTitle matches a title delimited by double quotes, single quotes
// or parentheses, with backslash escapes resolved.
func scanLinkTitle(buf []byte) (string, int, bool) {
	if len(buf) == 0 {
		return "", 0, false
	}
	open := buf[0]
	var close byte
	switch open {
	case '"', '\'':
		close = open
	case '(':
		close = ')'
	default:
		return "", 0, false
	}
	var out []byte
	for i := 1; i < len(buf); i++ {
		c := buf[i]
		switch {
		case c == close:
			return string(out), i + 1, true
		case open == '(' && c == '(':
			return "", 0, false
		case c == '\\' && i+1 < len(buf) && isASCIIPunct(buf[i+1]):
			out = append(out, buf[i+1])
			i++
		default:
			out = append(out, c)
		}
	}
	return "", 0, false
}

func skipLinkWhitespace(buf []byte, i int) int {
	for i < len(buf) && (buf[i] == ' ' || buf[i] == '\t' || buf[i] == '\n') {
		i++
	}
	return i
}

func isASCIIPunct(c byte) bool {
	return (c >= '!' && c <= '/') || (c >= ':' && c <= '@') ||
		(c >= '[' && c <= '`') || (c >= '{' && c <= '~')
}
