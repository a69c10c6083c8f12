package diag

import (
	"testing"

	"github.com/Ranrar/Marco-sub004/internal/source"
)

func sp(start, end uint32) source.Span {
	return source.Span{File: 0, Start: start, End: end}
}

func TestBagCap(t *testing.T) {
	b := NewBag(2)
	if !b.Add(NewError(ValidateMarker, sp(0, 1), "one")) {
		t.Fatal("first add rejected")
	}
	if !b.Add(NewError(ValidateMarker, sp(1, 2), "two")) {
		t.Fatal("second add rejected")
	}
	if b.Add(NewError(ValidateMarker, sp(2, 3), "three")) {
		t.Fatal("add beyond cap accepted")
	}
	if b.Len() != 2 {
		t.Fatalf("len = %d", b.Len())
	}
}

func TestBagSortOrder(t *testing.T) {
	b := NewBag(10)
	b.Add(NewWarning(BlockDegraded, sp(10, 12), "later"))
	b.Add(NewError(ValidateMarker, sp(0, 3), "earlier"))
	b.Add(NewWarning(InlineUnmatchedDelimiter, sp(0, 3), "same span, lower severity"))
	b.Sort()

	items := b.Items()
	if items[0].Message != "earlier" {
		t.Errorf("expected error at same span first, got %q", items[0].Message)
	}
	if items[1].Message != "same span, lower severity" {
		t.Errorf("severity tie-break wrong: %q", items[1].Message)
	}
	if items[2].Message != "later" {
		t.Errorf("position order wrong: %q", items[2].Message)
	}
}

func TestBagDedup(t *testing.T) {
	b := NewBag(10)
	b.Add(NewError(ValidateMarker, sp(4, 6), "dup"))
	b.Add(NewError(ValidateMarker, sp(4, 6), "dup"))
	b.Add(NewError(ValidateMarker, sp(7, 9), "other"))
	b.Dedup()
	if b.Len() != 2 {
		t.Fatalf("dedup left %d items", b.Len())
	}
}

func TestHasErrorsWarnings(t *testing.T) {
	b := NewBag(4)
	if b.HasErrors() || b.HasWarnings() {
		t.Fatal("empty bag reports issues")
	}
	b.Add(NewWarning(BlockDegraded, sp(0, 1), "w"))
	if b.HasErrors() {
		t.Fatal("warning counted as error")
	}
	if !b.HasWarnings() {
		t.Fatal("warning not seen")
	}
	b.Add(NewError(SchemaNotFound, sp(0, 1), "e"))
	if !b.HasErrors() {
		t.Fatal("error not seen")
	}
}
