package collab

import (
	"context"
	"testing"

	"github.com/Ranrar/Marco-sub004/internal/ast"
	"github.com/Ranrar/Marco-sub004/internal/parser"
	"github.com/Ranrar/Marco-sub004/internal/schema"
)

func replica(t *testing.T, text string) (*parser.Parser, *Memory) {
	t.Helper()
	p := parser.New(schema.NewStore(""))
	res, err := p.ParseText("shared.md", []byte(text), parser.Options{Variant: "gfm"})
	if err != nil {
		t.Fatal(err)
	}
	m := NewMemory(p, res)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	if err := m.Connect(ctx); err != nil {
		t.Fatal(err)
	}
	return p, m
}

func TestLocalEditAccumulatesPatch(t *testing.T) {
	_, m := replica(t, "# doc\n\nhello\n")
	if _, err := m.Edit(parser.Edit{Start: 7, End: 12, NewText: []byte("howdy")}); err != nil {
		t.Fatal(err)
	}
	patch := m.LocalPatch()
	if len(patch.Ops) != 1 || patch.Ops[0].Text != "howdy" {
		t.Fatalf("patch = %+v", patch)
	}
	// Draining is destructive.
	if got := m.LocalPatch(); len(got.Ops) != 0 {
		t.Fatalf("second drain = %+v", got)
	}
}

func TestRemoteOpsConverge(t *testing.T) {
	_, a := replica(t, "# doc\n\nhello\n")
	_, b := replica(t, "# doc\n\nhello\n")

	if _, err := a.Edit(parser.Edit{Start: 7, End: 12, NewText: []byte("howdy")}); err != nil {
		t.Fatal(err)
	}
	if _, err := a.Edit(parser.Edit{Start: 2, End: 5, NewText: []byte("readme")}); err != nil {
		t.Fatal(err)
	}

	wire, err := a.LocalPatch().Encode()
	if err != nil {
		t.Fatal(err)
	}
	patch, err := DecodePatch(wire)
	if err != nil {
		t.Fatal(err)
	}
	res, err := b.ApplyRemoteOps(patch)
	if err != nil {
		t.Fatal(err)
	}

	want := string(a.Result().File().Content)
	if got := string(res.File().Content); got != want {
		t.Fatalf("replicas diverged: %q vs %q", got, want)
	}
}

// Remote edits must be indistinguishable downstream: the reparsed tree
// carries the same structure a local edit would produce.
func TestRemoteOpsGoThroughReparse(t *testing.T) {
	_, b := replica(t, "# title\n\nfirst\n\nsecond\n")
	before := b.Result()
	secondID := before.Tree.Get(before.Tree.Root).Children[2]

	res, err := b.ApplyRemoteOps(Patch{Ops: []Op{{Start: 9, End: 14, Text: "1st"}}})
	if err != nil {
		t.Fatal(err)
	}
	root := res.Tree.Get(res.Tree.Root)
	if len(root.Children) != 3 {
		t.Fatalf("blocks = %d", len(root.Children))
	}
	// Single-block fast path: the untouched sibling keeps its node id.
	if root.Children[2] != secondID {
		t.Fatal("downstream node id changed for an isolated remote edit")
	}
	if res.Tree.Get(root.Children[0]).Kind != ast.NodeHeading {
		t.Fatal("heading lost")
	}
}

func TestDisconnectedTransportRefusesOps(t *testing.T) {
	_, m := replica(t, "x\n")
	if err := m.Disconnect(); err != nil {
		t.Fatal(err)
	}
	if _, err := m.Edit(parser.Edit{}); err != ErrNotConnected {
		t.Fatalf("err = %v", err)
	}
	if _, err := m.ApplyRemoteOps(Patch{Ops: []Op{{}}}); err != ErrNotConnected {
		t.Fatalf("err = %v", err)
	}
}

func TestDoubleConnectFails(t *testing.T) {
	_, m := replica(t, "x\n")
	if err := m.Connect(context.Background()); err == nil {
		t.Fatal("second connect must fail")
	}
}
