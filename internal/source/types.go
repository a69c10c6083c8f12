package source

type (
	// FileID uniquely identifies a document within a FileSet.
	FileID uint32
	// FileFlags encodes metadata about a document.
	FileFlags uint8
)

const (
	// FileVirtual indicates the document was added from memory (editor buffer, test, stdin).
	FileVirtual FileFlags = 1 << iota
	FileHadBOM
	FileNormalizedCRLF
)

// File captures content and position metadata for a single document.
// LineIdx holds the byte offset of every '\n' and is built once per file;
// all line:column conversions reuse it.
type File struct {
	ID      FileID
	Path    string
	Content []byte
	LineIdx []uint32
	Hash    [32]byte
	Flags   FileFlags
}

// LineCol is a human-readable position, both components 1-based.
type LineCol struct {
	Line uint32
	Col  uint32
}

// Slice returns the content covered by span, clamped to the file bounds.
func (f *File) Slice(span Span) []byte {
	start, end := span.Start, span.End
	n := uint32(len(f.Content))
	if start > n {
		start = n
	}
	if end > n {
		end = n
	}
	if start >= end {
		return nil
	}
	return f.Content[start:end]
}
