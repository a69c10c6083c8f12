package inline

// scanBacktickRun returns the length of the backtick run starting at off.
func scanBacktickRun(buf []byte, off uint32) uint32 {
	n := uint32(0)
	for off+n < uint32(len(buf)) && buf[off+n] == '`' {
		n++
	}
	return n
}

// findCodeSpanClose looks for a closing run of exactly runLen backticks
// after the opener. Runs of any other length are skipped, matching the
// usual code-span pairing rule. Returns the offset of the closing run.
func findCodeSpanClose(buf []byte, after, runLen uint32) (uint32, bool) {
	i := after
	for i < uint32(len(buf)) {
		if buf[i] != '`' {
			i++
			continue
		}
		n := scanBacktickRun(buf, i)
		if n == runLen {
			return i, true
		}
		i += n
	}
	return 0, false
}

// codeSpanContent normalizes the raw bytes between the backtick runs:
// newlines become spaces, and one leading plus one trailing space is
// stripped when both are present and the content is not all spaces.
func codeSpanContent(raw []byte) string {
	out := make([]byte, len(raw))
	allSpace := true
	for i, c := range raw {
		if c == '\n' {
			c = ' '
		}
		if c != ' ' {
			allSpace = false
		}
		out[i] = c
	}
	if !allSpace && len(out) >= 2 && out[0] == ' ' && out[len(out)-1] == ' ' {
		out = out[1 : len(out)-1]
	}
	return string(out)
}
