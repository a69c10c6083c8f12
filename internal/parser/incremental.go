package parser

import (
	"fmt"

	"github.com/Ranrar/Marco-sub004/internal/ast"
	"github.com/Ranrar/Marco-sub004/internal/blocks"
	"github.com/Ranrar/Marco-sub004/internal/diag"
	"github.com/Ranrar/Marco-sub004/internal/inline"
	"github.com/Ranrar/Marco-sub004/internal/source"
)

// Edit is one contiguous text replacement against a Result's document
// version: the bytes in [Start, End) are replaced by NewText.
type Edit struct {
	Start   uint32
	End     uint32
	NewText []byte
}

// Reparse applies the edit and produces a new Result. When the edit is
// confined to a single top-level block and cannot change the block
// structure around it, only that block is reparsed: downstream siblings
// keep their node ids and have their spans shifted by the edit's exact
// byte delta. Anything more invasive falls back to a full parse.
//
// The previous Result stays valid either way; its spans keep pointing at
// the old document version, which remains in the FileSet.
func (p *Parser) Reparse(prev *Result, e Edit) (*Result, error) {
	old := prev.File()
	if e.Start > e.End || e.End > uint32(len(old.Content)) {
		return nil, fmt.Errorf("reparse %s: edit %d..%d outside document of %d bytes",
			old.Path, e.Start, e.End, len(old.Content))
	}

	buf := make([]byte, 0, len(old.Content)-int(e.End-e.Start)+len(e.NewText))
	buf = append(buf, old.Content[:e.Start]...)
	buf = append(buf, e.NewText...)
	buf = append(buf, old.Content[e.End:]...)
	newID := prev.FileSet.AddVirtual(old.Path, buf)

	if res, ok := p.tryBlockReparse(prev, e, newID); ok {
		return res, nil
	}
	return p.Parse(prev.FileSet, newID, prev.Opts)
}

// tryBlockReparse attempts the single-block fast path. It refuses
// whenever the edit could interact with neighbouring blocks: the edited
// region must be isolated by blank lines or document edges, re-segment
// to exactly one block, and contain no unclosed construct that a full
// parse would extend past the region.
func (p *Parser) tryBlockReparse(prev *Result, e Edit, newID source.FileID) (*Result, bool) {
	oldBlockID, idx := prev.Tree.BlockAt(e.Start)
	if oldBlockID == ast.NoNode || idx < 0 {
		return nil, false
	}
	oldBlock := prev.Tree.Get(oldBlockID)
	if e.End > oldBlock.Span.End {
		return nil, false
	}

	f2 := prev.FileSet.Get(newID)
	delta := int64(len(f2.Content)) - int64(len(prev.File().Content))
	regionStart := oldBlock.Span.Start
	regionEnd64 := int64(oldBlock.Span.End) + delta
	if regionEnd64 < int64(regionStart) || regionEnd64 > int64(len(f2.Content)) {
		return nil, false
	}
	regionEnd := uint32(regionEnd64)

	if !isolatedRegion(f2.Content, regionStart, regionEnd) {
		return nil, false
	}

	bag2 := diag.NewBag(prev.Opts.MaxDiagnostics)
	rep := diag.BagReporter{Bag: bag2}
	scratch := ast.NewTree(8, source.Span{File: newID, Start: regionStart, End: regionEnd})
	targets := blocks.SegmentSpan(f2, scratch, prev.Schema, rep, regionStart, regionEnd)

	kids := scratch.Get(scratch.Root).Children
	if len(kids) != 1 {
		return nil, false
	}
	for _, d := range bag2.Items() {
		if d.Code == diag.BlockUnclosedFence || d.Code == diag.BlockBadAdmonition {
			// An unclosed construct would swallow following blocks in a
			// full parse; the fast path must not mask that.
			return nil, false
		}
	}

	ip := inline.New(prev.Schema, prev.Opts.Breaks, rep)
	for _, tg := range targets {
		ip.ParseInto(scratch, tg.Node, f2, tg.Segments)
	}

	tree := prev.Tree.Clone()
	remap := make(map[ast.NodeID]ast.NodeID)
	newBlockID := graft(tree, scratch, kids[0], remap)
	root := tree.Get(tree.Root)
	root.Children[idx] = newBlockID
	tree.Get(newBlockID).Parent = tree.Root
	for k := idx + 1; k < len(root.Children); k++ {
		tree.ShiftSubtree(root.Children[k], delta)
	}
	root.Span = source.Span{File: newID, End: uint32(len(f2.Content))}
	retarget(tree, newID)

	// Node ids reported against the scratch arena follow their nodes into
	// the grafted tree. Ids with no grafted counterpart are dropped.
	items := bag2.Items()
	for i := range items {
		if grafted, ok := remap[ast.NodeID(items[i].Node)]; ok {
			items[i].Node = uint32(grafted)
		} else {
			items[i].Node = 0
		}
	}
	bag := rebaseBag(prev.Bag, oldBlock.Span, delta, newID)
	bag.Merge(bag2)
	bag.Sort()

	return &Result{
		FileSet: prev.FileSet,
		FileID:  newID,
		Tree:    tree,
		Bag:     bag,
		Schema:  prev.Schema,
		Opts:    prev.Opts,
	}, true
}

// isolatedRegion reports whether the lines directly before and after the
// region are blank or document edges, so the region cannot merge with a
// neighbour (setext underlines, lazy continuation, paragraph joining).
func isolatedRegion(content []byte, start, end uint32) bool {
	if start > 0 {
		if content[start-1] != '\n' {
			return false
		}
		i := start - 1
		for i > 0 && content[i-1] != '\n' {
			i--
			if content[i] != ' ' && content[i] != '\t' {
				return false
			}
		}
	}
	if end < uint32(len(content)) {
		if content[end] != '\n' {
			return false
		}
		for i := end + 1; i < uint32(len(content)) && content[i] != '\n'; i++ {
			if content[i] != ' ' && content[i] != '\t' {
				return false
			}
		}
	}
	return true
}

// graft deep-copies a subtree from one arena into another, recording
// every source id's destination id in remap.
func graft(dst, src *ast.Tree, id ast.NodeID, remap map[ast.NodeID]ast.NodeID) ast.NodeID {
	n := *src.Get(id)
	children := n.Children
	n.Children = nil
	newID := dst.Alloc(n)
	remap[id] = newID
	for _, c := range children {
		dst.AppendChild(newID, graft(dst, src, c, remap))
	}
	return newID
}

// retarget points every reachable span at the new document version.
func retarget(t *ast.Tree, file source.FileID) {
	t.Walk(t.Root, func(_ ast.NodeID, n *ast.Node) bool {
		n.Span.File = file
		return true
	})
}

// rebaseBag carries diagnostics outside the edited block over to the new
// document version: upstream ones as-is, downstream ones shifted by the
// delta. Diagnostics inside the edited block are superseded by the fresh
// parse of that block.
func rebaseBag(old *diag.Bag, edited source.Span, delta int64, file source.FileID) *diag.Bag {
	out := diag.NewBag(int(old.Cap()))
	for _, d := range old.Items() {
		primary, ok := rebaseSpan(d.Primary, edited, delta, file)
		if !ok {
			continue
		}
		d.Primary = primary

		var notes []diag.Note
		for _, note := range d.Notes {
			if sp, ok := rebaseSpan(note.Span, edited, delta, file); ok {
				notes = append(notes, diag.Note{Span: sp, Msg: note.Msg})
			}
		}
		d.Notes = notes

		var fixes []diag.Fix
		for _, fix := range d.Fixes {
			edits := make([]diag.TextEdit, 0, len(fix.Edits))
			valid := true
			for _, te := range fix.Edits {
				sp, ok := rebaseSpan(te.Span, edited, delta, file)
				if !ok {
					valid = false
					break
				}
				te.Span = sp
				edits = append(edits, te)
			}
			if valid {
				fix.Edits = edits
				fixes = append(fixes, fix)
			}
		}
		d.Fixes = fixes

		out.Add(d)
	}
	return out
}

func rebaseSpan(sp, edited source.Span, delta int64, file source.FileID) (source.Span, bool) {
	switch {
	case sp.End < edited.Start:
		sp.File = file
		return sp, true
	case sp.Start > edited.End:
		sp = sp.Shift(delta)
		sp.File = file
		return sp, true
	default:
		return source.Span{}, false
	}
}
