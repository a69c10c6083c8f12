package ast

import (
	"testing"

	"github.com/Ranrar/Marco-sub004/internal/source"
)

func span(start, end uint32) source.Span {
	return source.Span{File: 0, Start: start, End: end}
}

func buildSample(t *testing.T) (*Tree, NodeID, NodeID) {
	t.Helper()
	tr := NewTree(8, span(0, 30))

	para := tr.Alloc(Node{Kind: NodeParagraph, Span: span(0, 12)})
	tr.AppendChild(tr.Root, para)
	text := tr.Alloc(Node{Kind: NodeText, Span: span(0, 12), Content: "hello world"})
	tr.AppendChild(para, text)

	head := tr.Alloc(Node{Kind: NodeHeading, Span: span(14, 30), Depth: 2})
	tr.AppendChild(tr.Root, head)

	return tr, para, head
}

func TestAppendChildLinks(t *testing.T) {
	tr, para, _ := buildSample(t)
	p := tr.Get(para)
	if p.Parent != tr.Root {
		t.Fatalf("parent = %d, want root %d", p.Parent, tr.Root)
	}
	root := tr.Get(tr.Root)
	if len(root.Children) != 2 {
		t.Fatalf("root children = %d", len(root.Children))
	}
}

func TestInnermostAt(t *testing.T) {
	tr, para, head := buildSample(t)

	got := tr.InnermostAt(5)
	if tr.Get(got).Kind != NodeText {
		t.Fatalf("offset 5: got %s", tr.Get(got).Kind)
	}
	if tr.Get(got).Parent != para {
		t.Fatalf("text parent mismatch")
	}

	if got := tr.InnermostAt(20); got != head {
		t.Fatalf("offset 20: got %d, want heading %d", got, head)
	}

	// Between blocks: innermost is the document itself.
	if got := tr.InnermostAt(13); got != tr.Root {
		t.Fatalf("offset 13: got %d, want root", got)
	}
}

func TestBlockAt(t *testing.T) {
	tr, para, _ := buildSample(t)
	id, idx := tr.BlockAt(3)
	if id != para || idx != 0 {
		t.Fatalf("BlockAt(3) = %d,%d", id, idx)
	}
	if id, idx := tr.BlockAt(13); id != NoNode || idx != -1 {
		t.Fatalf("BlockAt(13) = %d,%d, want none", id, idx)
	}
}

func TestCloneIsIsolated(t *testing.T) {
	tr, para, _ := buildSample(t)
	clone := tr.Clone()

	extra := clone.Alloc(Node{Kind: NodeText, Span: span(10, 12)})
	clone.AppendChild(para, extra)
	clone.Get(para).Span = span(0, 13)

	if len(tr.Get(para).Children) != 1 {
		t.Fatal("append on clone leaked into original")
	}
	if tr.Get(para).Span.End != 12 {
		t.Fatal("span write on clone leaked into original")
	}
	// ids still valid in the clone
	if clone.Get(para).Kind != NodeParagraph {
		t.Fatal("clone lost node identity")
	}
}

func TestShiftSubtree(t *testing.T) {
	tr, _, head := buildSample(t)
	tr.ShiftSubtree(head, 4)
	if got := tr.Get(head).Span; got.Start != 18 || got.End != 34 {
		t.Fatalf("shift: %v", got)
	}
	tr.ShiftSubtree(head, -4)
	if got := tr.Get(head).Span; got.Start != 14 || got.End != 30 {
		t.Fatalf("shift back: %v", got)
	}
}

func TestWalkPreOrder(t *testing.T) {
	tr, _, _ := buildSample(t)
	var kinds []NodeKind
	tr.Walk(tr.Root, func(_ NodeID, n *Node) bool {
		kinds = append(kinds, n.Kind)
		return true
	})
	want := []NodeKind{NodeDocument, NodeParagraph, NodeText, NodeHeading}
	if len(kinds) != len(want) {
		t.Fatalf("visited %d nodes", len(kinds))
	}
	for i := range want {
		if kinds[i] != want[i] {
			t.Fatalf("order[%d] = %s, want %s", i, kinds[i], want[i])
		}
	}
}
