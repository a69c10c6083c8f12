package inline

import "fmt"

// BreakMode selects how newlines inside a block are classified.
//
// In BreakNormal a bare newline is a soft break; two trailing spaces or a
// trailing backslash before the newline force a hard break. BreakReversed
// flips the default: a bare newline is already hard, two trailing spaces
// demote it to ordinary whitespace, and a trailing backslash stays hard.
type BreakMode uint8

const (
	BreakNormal BreakMode = iota
	BreakReversed
)

func (m BreakMode) String() string {
	if m == BreakReversed {
		return "reversed"
	}
	return "normal"
}

// ParseBreakMode resolves the user-facing mode name.
func ParseBreakMode(s string) (BreakMode, error) {
	switch s {
	case "", "normal":
		return BreakNormal, nil
	case "reversed":
		return BreakReversed, nil
	default:
		return BreakNormal, fmt.Errorf("unknown line-break mode %q (want normal or reversed)", s)
	}
}

// breakDecision is the outcome of classifying one newline.
type breakDecision struct {
	start uint32 // scratch offset where the break construct begins
	hard  bool
	space bool // reversed mode: trailing-space newline renders as a plain space
}

// classifyBreak inspects the bytes before the newline at off and decides
// what the newline means under the mode. textStart bounds how far back the
// trailing-space scan may reach so that spaces belonging to an earlier
// construct are never claimed.
func classifyBreak(buf []byte, off, textStart uint32, mode BreakMode) breakDecision {
	if off > textStart && buf[off-1] == '\\' {
		return breakDecision{start: off - 1, hard: true}
	}
	spaces := uint32(0)
	for off-spaces > textStart && buf[off-spaces-1] == ' ' {
		spaces++
	}
	switch mode {
	case BreakReversed:
		if spaces >= 2 {
			return breakDecision{start: off - spaces, space: true}
		}
		return breakDecision{start: off, hard: true}
	default:
		if spaces >= 2 {
			return breakDecision{start: off - spaces, hard: true}
		}
		return breakDecision{start: off, hard: false}
	}
}
