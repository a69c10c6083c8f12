package diag

import (
	"fmt"
)

type Code uint16

const (
	UnknownCode Code = 0

	// Block segmentation (recoverable; malformed blocks degrade to paragraphs)
	BlockInfo            Code = 1000
	BlockUnclosedFence   Code = 1001
	BlockMalformedTable  Code = 1002
	BlockBadAdmonition   Code = 1003
	BlockLooseListIndent Code = 1004
	BlockBadSetext       Code = 1005
	BlockDegraded        Code = 1006

	// Inline parsing (recoverable; constructs degrade to literal text)
	InlineInfo               Code = 2000
	InlineUnmatchedDelimiter Code = 2001
	InlineUnclosedCodeSpan   Code = 2002
	InlineUnresolvedBracket  Code = 2003
	InlineBadLinkDest        Code = 2004
	InlineBadHTML            Code = 2005

	// Schema loading (fatal for the variant in question)
	SchemaInfo      Code = 3000
	SchemaNotFound  Code = 3001
	SchemaMalformed Code = 3002

	// Validation mismatches (never abort the pipeline)
	ValidateInfo          Code = 4000
	ValidateMarker        Code = 4001
	ValidateHeadingDepth  Code = 4002
	ValidateNesting       Code = 4003
	ValidateFenceStyle    Code = 4004
	ValidateListMarker    Code = 4005
	ValidateTableAlign    Code = 4006
	ValidateNodeForbidden Code = 4007
)

// ID returns the stable identifier used in JSON output and fix IDs.
func (c Code) ID() string {
	return fmt.Sprintf("MD%04d", uint16(c))
}

func (c Code) String() string {
	switch c {
	case BlockUnclosedFence:
		return "unclosed code fence"
	case BlockMalformedTable:
		return "malformed table"
	case BlockBadAdmonition:
		return "malformed admonition"
	case BlockLooseListIndent:
		return "irregular list indentation"
	case BlockBadSetext:
		return "invalid setext underline"
	case BlockDegraded:
		return "block degraded to paragraph"
	case InlineUnmatchedDelimiter:
		return "unmatched emphasis delimiter"
	case InlineUnclosedCodeSpan:
		return "unclosed code span"
	case InlineUnresolvedBracket:
		return "unresolved bracket"
	case InlineBadLinkDest:
		return "invalid link destination"
	case InlineBadHTML:
		return "invalid inline HTML"
	case SchemaNotFound:
		return "unknown variant"
	case SchemaMalformed:
		return "malformed schema"
	case ValidateMarker:
		return "marker mismatch"
	case ValidateHeadingDepth:
		return "heading depth mismatch"
	case ValidateNesting:
		return "disallowed nesting"
	case ValidateFenceStyle:
		return "fence style mismatch"
	case ValidateListMarker:
		return "list marker mismatch"
	case ValidateTableAlign:
		return "table alignment mismatch"
	case ValidateNodeForbidden:
		return "node type not allowed by variant"
	default:
		return c.ID()
	}
}
