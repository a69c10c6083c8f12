package inline

import (
	"fmt"
	"sort"
)

// RuleResult reports one isolated grammar-rule probe.
type RuleResult struct {
	Matched bool
	Length  int // bytes consumed from the start of the input
	Detail  string
}

// Rule is a named inline grammar rule runnable in isolation, used by the
// rule harness to probe a snippet without a full document parse.
type Rule struct {
	Name string
	Doc  string
	Fn   func(input []byte) RuleResult
}

var rules = []Rule{
	{
		Name: "autolink-uri",
		Doc:  "angle-bracketed URI autolink: <scheme:target>",
		Fn: func(in []byte) RuleResult {
			dest, n, ok := scanAutolinkURI(in)
			return RuleResult{Matched: ok, Length: n, Detail: dest}
		},
	},
	{
		Name: "autolink-email",
		Doc:  "angle-bracketed email autolink: <local@domain>",
		Fn: func(in []byte) RuleResult {
			dest, n, ok := scanAutolinkEmail(in)
			return RuleResult{Matched: ok, Length: n, Detail: dest}
		},
	},
	{
		Name: "raw-html",
		Doc:  "single raw HTML construct: tag, comment, PI, declaration, CDATA",
		Fn: func(in []byte) RuleResult {
			n, ok := scanRawHTML(in)
			return RuleResult{Matched: ok, Length: n}
		},
	},
	{
		Name: "code-span",
		Doc:  "backtick code span with matching-length closer",
		Fn: func(in []byte) RuleResult {
			if len(in) == 0 || in[0] != '`' {
				return RuleResult{}
			}
			l := scanBacktickRun(in, 0)
			j, ok := findCodeSpanClose(in, l, l)
			if !ok {
				return RuleResult{Detail: "unclosed"}
			}
			return RuleResult{Matched: true, Length: int(j + l), Detail: codeSpanContent(in[l:j])}
		},
	},
	{
		Name: "link-destination",
		Doc:  "link destination: <...> or bare with balanced parens",
		Fn: func(in []byte) RuleResult {
			dest, n, ok := scanLinkDestination(in)
			return RuleResult{Matched: ok, Length: n, Detail: dest}
		},
	},
	{
		Name: "link-title",
		Doc:  "link title in double quotes, single quotes or parens",
		Fn: func(in []byte) RuleResult {
			title, n, ok := scanLinkTitle(in)
			return RuleResult{Matched: ok, Length: n, Detail: title}
		},
	},
	{
		Name: "link-suffix",
		Doc:  "inline link tail: (destination \"title\")",
		Fn: func(in []byte) RuleResult {
			dest, title, n, ok := scanLinkSuffix(in)
			detail := dest
			if title != "" {
				detail = fmt.Sprintf("%s title=%q", dest, title)
			}
			return RuleResult{Matched: ok, Length: n, Detail: detail}
		},
	},
	{
		Name: "delimiter-run",
		Doc:  "emphasis delimiter run flanking classification",
		Fn: func(in []byte) RuleResult {
			if len(in) == 0 || (in[0] != '*' && in[0] != '_') {
				return RuleResult{}
			}
			c := in[0]
			l := uint32(1)
			for l < uint32(len(in)) && in[l] == c {
				l++
			}
			canOpen, canClose := computeFlanking(in, 0, l, c)
			return RuleResult{
				Matched: canOpen || canClose,
				Length:  int(l),
				Detail:  fmt.Sprintf("open=%v close=%v", canOpen, canClose),
			}
		},
	},
	{
		Name: "hard-break-normal",
		Doc:  "newline classification under normal mode",
		Fn:   breakRule(BreakNormal),
	},
	{
		Name: "hard-break-reversed",
		Doc:  "newline classification under reversed mode",
		Fn:   breakRule(BreakReversed),
	},
	{
		Name: "escape",
		Doc:  "backslash escape of an ASCII punctuation byte",
		Fn: func(in []byte) RuleResult {
			if len(in) >= 2 && in[0] == '\\' && isASCIIPunct(in[1]) {
				return RuleResult{Matched: true, Length: 2, Detail: string(in[1])}
			}
			return RuleResult{}
		},
	},
}

func breakRule(mode BreakMode) func([]byte) RuleResult {
	return func(in []byte) RuleResult {
		for i := range in {
			if in[i] != '\n' {
				continue
			}
			dec := classifyBreak(in, uint32(i), 0, mode)
			detail := "soft"
			if dec.space {
				detail = "space"
			} else if dec.hard {
				detail = "hard"
			}
			return RuleResult{Matched: true, Length: i + 1, Detail: detail}
		}
		return RuleResult{Detail: "no newline"}
	}
}

// Rules lists every probe rule sorted by name.
func Rules() []Rule {
	out := append([]Rule(nil), rules...)
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// LookupRule finds a rule by name.
func LookupRule(name string) (Rule, bool) {
	for _, r := range rules {
		if r.Name == name {
			return r, true
		}
	}
	return Rule{}, false
}
