package blocks

import (
	"github.com/Ranrar/Marco-sub004/internal/ast"
	"github.com/Ranrar/Marco-sub004/internal/diag"
)

// list collects consecutive items sharing the first item's marker. Item
// content is every line indented to the item's content column, stripped
// and segmented recursively. A blank line between item content keeps the
// list but marks it loose.
func (s *segmenter) list(parent ast.NodeID, ls []line, i int) int {
	c := s.content()
	first, _ := listItemOpen(c, ls[i])
	lazy := s.sc != nil && s.sc.Policy.LazyContinuation

	start := 1
	if first.ordered {
		start = first.start
	}
	listID := s.alloc(parent, ast.Node{
		Kind:    ast.NodeList,
		Ordered: first.ordered,
		Tight:   true,
		Start:   start,
		Marker:  first.marker,
	})

	tight := true
	lastEnd := ls[i].end
	j := i
	for j < len(ls) {
		if thematicBreak(c, ls[j]) {
			break
		}
		m, ok := listItemOpen(c, ls[j])
		if !ok || m.ordered != first.ordered || m.marker != first.marker {
			break
		}

		itemFirst := ls[j]
		contentOff := itemFirst.start + m.width
		if contentOff > itemFirst.end {
			contentOff = itemFirst.end
		}
		inner := []line{mkLine(c, contentOff, itemFirst.end, itemFirst.nl)}
		endOff := itemFirst.end

		k := j + 1
		var pending []line
		for k < len(ls) {
			l := ls[k]
			if l.blank {
				pending = append(pending, l)
				k++
				continue
			}
			if next, isItem := listItemOpen(c, l); isItem && l.indent < m.width &&
				next.ordered == first.ordered && next.marker == first.marker {
				break
			}
			if l.indent >= m.width {
				if len(pending) > 0 {
					tight = false
					inner = append(inner, pending...)
					pending = nil
				}
				stripped := stripColumns(c, l, m.width)
				inner = append(inner, stripped)
				endOff = l.end
				k++
				continue
			}
			// Under-indented non-blank line: lazy paragraph continuation.
			if len(pending) == 0 && lazy && !s.opensBlock(c, l) &&
				!inner[len(inner)-1].blank {
				if l.indent > 0 {
					s.reporter.Report(diag.NewWarning(diag.BlockLooseListIndent,
						s.span(l.start, l.end),
						"line is indented past the margin but short of the item content column"))
				}
				inner = append(inner, mkLine(c, l.contentStart(c), l.end, l.nl))
				endOff = l.end
				k++
				continue
			}
			break
		}

		itemID := s.alloc(listID, ast.Node{
			Kind:   ast.NodeListItem,
			Span:   s.span(itemFirst.start, endOff),
			Marker: first.marker,
		})
		s.segment(itemID, inner)
		lastEnd = endOff
		j = k

		// A blank line between this item and the next makes the list loose.
		if len(pending) > 0 && j < len(ls) {
			if next, isItem := listItemOpen(c, ls[j]); isItem &&
				next.ordered == first.ordered && next.marker == first.marker {
				tight = false
			}
		}
	}

	n := s.t.Get(listID)
	n.Span = s.span(ls[i].start, lastEnd)
	n.Tight = tight
	return j
}
