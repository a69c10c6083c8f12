package diag

import (
	"github.com/Ranrar/Marco-sub004/internal/source"
)

// Note attaches secondary context to a diagnostic.
type Note struct {
	Span source.Span
	Msg  string
}

// TextEdit is a single replacement in source coordinates. OldText, when
// non-empty, acts as a guard: the fix engine refuses the edit if the file
// no longer contains it at Span.
type TextEdit struct {
	Span    source.Span
	NewText string
	OldText string
}

// FixApplicability tells the fix engine how safe an automatic apply is.
type FixApplicability uint8

const (
	// FixAlwaysSafe edits are deterministic rewrites with no semantic choice.
	FixAlwaysSafe FixApplicability = iota
	// FixMaybeIncorrect edits are plausible but need human review.
	FixMaybeIncorrect
)

func (a FixApplicability) String() string {
	switch a {
	case FixAlwaysSafe:
		return "always-safe"
	case FixMaybeIncorrect:
		return "maybe-incorrect"
	}
	return "unknown"
}

// Fix is a suggested rewrite attached to a diagnostic.
type Fix struct {
	ID            string
	Title         string
	Applicability FixApplicability
	IsPreferred   bool
	Edits         []TextEdit
}

// Diagnostic is a positioned report of a parse or validation issue.
// Node is the ast.NodeID of the offending node (0 when none); it always
// references a node present in the accompanying tree.
type Diagnostic struct {
	Severity Severity
	Code     Code
	Message  string
	Primary  source.Span
	Node     uint32
	Notes    []Note
	Fixes    []Fix
}
