package inline

import (
	"unicode"
	"unicode/utf8"

	"github.com/Ranrar/Marco-sub004/internal/ast"
)

// delimRun is the bookkeeping attached to a text piece holding a run of
// emphasis or strikethrough delimiter characters.
type delimRun struct {
	char     byte
	length   int // unconsumed delimiters remaining in the run
	origLen  int
	strike   bool
	canOpen  bool
	canClose bool
}

// computeFlanking applies the left/right-flanking rules to the run at
// [lo,hi). Underscore runs additionally refuse intraword emphasis.
func computeFlanking(buf []byte, lo, hi uint32, char byte) (canOpen, canClose bool) {
	prev := runeBefore(buf, lo)
	next := runeAfter(buf, hi)

	left := !isUniSpace(next) && (!isUniPunct(next) || isUniSpace(prev) || isUniPunct(prev))
	right := !isUniSpace(prev) && (!isUniPunct(prev) || isUniSpace(next) || isUniPunct(next))

	if char == '_' {
		return left && (!right || isUniPunct(prev)),
			right && (!left || isUniPunct(next))
	}
	return left, right
}

func runeBefore(buf []byte, off uint32) rune {
	if off == 0 {
		return '\n'
	}
	r, _ := utf8.DecodeLastRune(buf[:off])
	return r
}

func runeAfter(buf []byte, off uint32) rune {
	if off >= uint32(len(buf)) {
		return '\n'
	}
	r, _ := utf8.DecodeRune(buf[off:])
	return r
}

func isUniSpace(r rune) bool {
	return unicode.IsSpace(r)
}

func isUniPunct(r rune) bool {
	return unicode.IsPunct(r) || unicode.IsSymbol(r)
}

// processEmphasis pairs delimiter runs within one piece list. Closers are
// taken left to right; each walks back to the nearest compatible opener.
// Strong consumes two delimiters when both runs allow it, otherwise a
// single-delimiter emphasis is formed. Leftover runs stay literal text.
func processEmphasis(pieces []*inl, delims []*inl) []*inl {
	ci := 0
	for ci < len(delims) {
		closer := delims[ci]
		d := closer.delim
		if d == nil || d.length == 0 || !d.canClose {
			ci++
			continue
		}
		oi := findOpener(delims, ci)
		if oi < 0 {
			ci++
			continue
		}
		opener := delims[oi]
		od := opener.delim

		use := 1
		kind := ast.NodeEmphasis
		switch {
		case d.strike:
			use = 2
			kind = ast.NodeStrikethrough
		case od.length >= 2 && d.length >= 2:
			use = 2
			kind = ast.NodeStrong
		}

		poi := indexOf(pieces, opener)
		pci := indexOf(pieces, closer)
		if poi < 0 || pci < 0 || pci <= poi {
			ci++
			continue
		}

		children := append([]*inl(nil), pieces[poi+1:pci]...)
		cont := &inl{
			kind:     kind,
			lo:       opener.hi - uint32(use),
			hi:       closer.lo + uint32(use),
			children: children,
		}

		od.length -= use
		opener.hi -= uint32(use)
		opener.content = opener.content[:len(opener.content)-use]
		d.length -= use
		closer.lo += uint32(use)
		closer.content = closer.content[use:]

		rebuilt := make([]*inl, 0, len(pieces))
		rebuilt = append(rebuilt, pieces[:poi]...)
		if od.length > 0 {
			rebuilt = append(rebuilt, opener)
		}
		rebuilt = append(rebuilt, cont)
		if d.length > 0 {
			rebuilt = append(rebuilt, closer)
		}
		rebuilt = append(rebuilt, pieces[pci+1:]...)
		pieces = rebuilt

		// Delimiters between the pair can no longer match across it.
		delims = append(delims[:oi+1], delims[ci:]...)
		ci = oi + 1
		if od.length == 0 {
			delims = append(delims[:oi], delims[oi+1:]...)
			ci--
		}
		if d.length == 0 {
			delims = append(delims[:ci], delims[ci+1:]...)
		}
	}
	return pieces
}

func findOpener(delims []*inl, ci int) int {
	d := delims[ci].delim
	for k := ci - 1; k >= 0; k-- {
		od := delims[k].delim
		if od == nil || od.length == 0 || !od.canOpen || od.char != d.char {
			continue
		}
		if od.strike != d.strike {
			continue
		}
		// A run that both opens and closes cannot pair when the combined
		// length is a multiple of three, unless both runs are.
		if !d.strike && (d.canOpen || od.canClose) &&
			(od.origLen+d.origLen)%3 == 0 &&
			(od.origLen%3 != 0 || d.origLen%3 != 0) {
			continue
		}
		return k
	}
	return -1
}

func indexOf(pieces []*inl, p *inl) int {
	for i, q := range pieces {
		if q == p {
			return i
		}
	}
	return -1
}
