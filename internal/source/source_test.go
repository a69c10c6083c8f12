package source

import (
	"testing"
)

func TestToLineCol(t *testing.T) {
	content := []byte("alpha\nbeta\n\ngamma")
	idx := buildLineIndex(content)

	cases := []struct {
		off  uint32
		line uint32
		col  uint32
	}{
		{0, 1, 1},   // 'a' of alpha
		{4, 1, 5},   // 'a' at end of alpha
		{5, 1, 6},   // the newline terminating line 1
		{6, 2, 1},   // 'b' of beta
		{10, 2, 5},  // newline after beta
		{11, 3, 1},  // blank line
		{12, 4, 1},  // 'g' of gamma
		{16, 4, 5},  // last byte
	}
	for _, tc := range cases {
		got := toLineCol(idx, tc.off)
		if got.Line != tc.line || got.Col != tc.col {
			t.Errorf("toLineCol(%d) = %d:%d, want %d:%d", tc.off, got.Line, got.Col, tc.line, tc.col)
		}
	}
}

func TestNormalizeCRLF(t *testing.T) {
	out, changed := normalizeCRLF([]byte("a\r\nb\rc\r\n"))
	if !changed {
		t.Fatal("expected change")
	}
	if string(out) != "a\nb\rc\n" {
		t.Fatalf("got %q", out)
	}

	out, changed = normalizeCRLF([]byte("plain"))
	if changed || string(out) != "plain" {
		t.Fatalf("no-op input modified: %q", out)
	}
}

func TestSpanShift(t *testing.T) {
	s := Span{File: 1, Start: 10, End: 20}
	if got := s.Shift(5); got.Start != 15 || got.End != 25 {
		t.Fatalf("shift +5: %v", got)
	}
	if got := s.Shift(-3); got.Start != 7 || got.End != 17 {
		t.Fatalf("shift -3: %v", got)
	}
}

func TestSpanContains(t *testing.T) {
	s := Span{Start: 3, End: 7}
	for _, off := range []uint32{3, 5, 7} {
		if !s.Contains(off) {
			t.Errorf("expected %d inside %v", off, s)
		}
	}
	for _, off := range []uint32{2, 8} {
		if s.Contains(off) {
			t.Errorf("expected %d outside %v", off, s)
		}
	}
}

func TestFileSetAddVirtualNormalizes(t *testing.T) {
	fs := NewFileSet()
	id := fs.AddVirtual("buffer.md", []byte("a\r\nb"))
	f := fs.Get(id)
	if string(f.Content) != "a\nb" {
		t.Fatalf("CRLF not normalized: %q", f.Content)
	}
	start, end := fs.Resolve(Span{File: id, Start: 2, End: 3})
	if start.Line != 2 || start.Col != 1 || end.Line != 2 || end.Col != 2 {
		t.Fatalf("resolve: %v %v", start, end)
	}
}

func TestGetLine(t *testing.T) {
	fs := NewFileSet()
	id := fs.AddVirtual("x.md", []byte("one\ntwo\nthree"))
	f := fs.Get(id)
	for i, want := range []string{"one", "two", "three"} {
		if got := f.GetLine(uint32(i + 1)); got != want {
			t.Errorf("line %d: got %q want %q", i+1, got, want)
		}
	}
	if got := f.GetLine(4); got != "" {
		t.Errorf("line 4: got %q want empty", got)
	}
}
