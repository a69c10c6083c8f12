package blocks

import (
	"fmt"

	"github.com/Ranrar/Marco-sub004/internal/ast"
	"github.com/Ranrar/Marco-sub004/internal/diag"
	"github.com/Ranrar/Marco-sub004/internal/source"
)

// table parses a pipe table: a header row, a delimiter row fixing the
// column count and alignments, then body rows until a blank line or a
// stronger block opener. A header/delimiter column mismatch degrades the
// whole construct to a paragraph.
func (s *segmenter) table(parent ast.NodeID, ls []line, i int) int {
	c := s.content()
	rawAligns, _ := tableSeparator(c, ls[i+1])
	header := splitPipes(c, ls[i])

	if len(header) != len(rawAligns) {
		s.reporter.Report(diag.NewWarning(diag.BlockMalformedTable,
			s.span(ls[i].start, ls[i+1].end),
			fmt.Sprintf("header has %d columns but the delimiter row has %d",
				len(header), len(rawAligns))))
		s.reporter.Report(diag.New(diag.SevInfo, diag.BlockDegraded,
			s.span(ls[i].start, ls[i+1].end),
			"table parsed as paragraph text"))
		return s.paragraph(parent, ls, i)
	}

	aligns := make([]ast.Alignment, len(rawAligns))
	for k, a := range rawAligns {
		switch a {
		case 'l':
			aligns[k] = ast.AlignLeft
		case 'c':
			aligns[k] = ast.AlignCenter
		case 'r':
			aligns[k] = ast.AlignRight
		default:
			aligns[k] = ast.AlignNone
		}
	}

	tableID := s.alloc(parent, ast.Node{
		Kind:   ast.NodeTable,
		Aligns: aligns,
	})
	s.tableRow(tableID, ls[i], header, len(aligns))

	j := i + 2
	for j < len(ls) {
		l := ls[j]
		if l.blank || !rowHasPipe(c, l) || s.opensBlock(c, l) {
			break
		}
		s.tableRow(tableID, l, splitPipes(c, l), len(aligns))
		j++
	}

	end := ls[i+1].end
	if j > i+2 {
		end = ls[j-1].end
	}
	s.t.Get(tableID).Span = s.span(ls[i].start, end)
	return j
}

// tableRow emits a row with exactly cols cells: missing cells are added
// empty at the row end, surplus cells are dropped.
func (s *segmenter) tableRow(tableID ast.NodeID, l line, cells []source.Span, cols int) {
	rowID := s.alloc(tableID, ast.Node{
		Kind: ast.NodeTableRow,
		Span: s.span(l.start, l.end),
	})
	for col := 0; col < cols; col++ {
		var cell source.Span
		if col < len(cells) {
			cell = s.trimSpan(cells[col])
		} else {
			cell = s.span(l.end, l.end)
		}
		cellID := s.alloc(rowID, ast.Node{
			Kind: ast.NodeTableCell,
			Span: cell,
		})
		if !cell.Empty() {
			s.addTarget(cellID, []source.Span{cell})
		}
	}
}

func (s *segmenter) trimSpan(sp source.Span) source.Span {
	c := s.content()
	start, end := sp.Start, sp.End
	for start < end && (c[start] == ' ' || c[start] == '\t') {
		start++
	}
	for end > start && (c[end-1] == ' ' || c[end-1] == '\t') {
		end--
	}
	return s.span(start, end)
}
