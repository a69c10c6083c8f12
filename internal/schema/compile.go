package schema

import (
	"fmt"
	"io/fs"

	"github.com/BurntSushi/toml"

	"github.com/Ranrar/Marco-sub004/internal/ast"
)

// Raw TOML shapes. Kept separate from the compiled Schema so a half-decoded
// file can never leak out of the loader.

type rawHierarchy struct {
	Variant struct {
		Name    string `toml:"name"`
		Display string `toml:"display"`
	} `toml:"variant"`
	Features struct {
		Tables         bool `toml:"tables"`
		Strikethrough  bool `toml:"strikethrough"`
		Admonitions    bool `toml:"admonitions"`
		SetextHeadings bool `toml:"setext_headings"`
	} `toml:"features"`
	Policy struct {
		LazyContinuation bool     `toml:"lazy_continuation"`
		BlockPrecedence  []string `toml:"block_precedence"`
	} `toml:"policy"`
	Nodes map[string]rawNodeRule `toml:"nodes"`
}

type rawNodeRule struct {
	Parents  []string `toml:"parents"`
	MaxDepth int      `toml:"max_depth"`
}

type rawSyntax struct {
	Syntax map[string]rawSyntaxRule `toml:"syntax"`
}

type rawSyntaxRule struct {
	Marker       string   `toml:"marker"`
	Alternatives []string `toml:"alternatives"`
	Kinds        []string `toml:"kinds"`
}

func compileDir(dir fs.FS, variant, origin string) (*Schema, error) {
	var hier rawHierarchy
	if err := decodeTOML(dir, "hierarchy.toml", &hier); err != nil {
		return nil, fmt.Errorf("schema %s (%s): %w", variant, origin, err)
	}
	var syn rawSyntax
	if err := decodeTOML(dir, "syntax.toml", &syn); err != nil {
		return nil, fmt.Errorf("schema %s (%s): %w", variant, origin, err)
	}
	s, err := compile(hier, syn)
	if err != nil {
		return nil, fmt.Errorf("schema %s (%s): %w", variant, origin, err)
	}
	if s.Name != variant {
		return nil, fmt.Errorf("schema %s (%s): variant.name is %q", variant, origin, s.Name)
	}
	return s, nil
}

func decodeTOML(dir fs.FS, name string, dst any) error {
	data, err := fs.ReadFile(dir, name)
	if err != nil {
		return fmt.Errorf("read %s: %w", name, err)
	}
	meta, err := toml.Decode(string(data), dst)
	if err != nil {
		return fmt.Errorf("parse %s: %w", name, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return fmt.Errorf("parse %s: unknown key %q", name, undecoded[0].String())
	}
	return nil
}

func compile(hier rawHierarchy, syn rawSyntax) (*Schema, error) {
	s := &Schema{
		Name:    hier.Variant.Name,
		Display: hier.Variant.Display,
		Features: Features{
			Tables:         hier.Features.Tables,
			Strikethrough:  hier.Features.Strikethrough,
			Admonitions:    hier.Features.Admonitions,
			SetextHeadings: hier.Features.SetextHeadings,
		},
		Policy: Policy{
			LazyContinuation: hier.Policy.LazyContinuation,
		},
		Nodes:  make(map[ast.NodeKind]NodeRule, len(hier.Nodes)),
		Syntax: make(map[ast.NodeKind]SyntaxRule, len(syn.Syntax)),
	}
	if s.Name == "" {
		return nil, fmt.Errorf("hierarchy.toml: missing variant.name")
	}

	for _, name := range hier.Policy.BlockPrecedence {
		kind := ast.KindByName(name)
		if kind == ast.NodeInvalid {
			return nil, fmt.Errorf("hierarchy.toml: unknown node %q in block_precedence", name)
		}
		s.Policy.BlockPrecedence = append(s.Policy.BlockPrecedence, kind)
	}

	for name, raw := range hier.Nodes {
		kind := ast.KindByName(name)
		if kind == ast.NodeInvalid {
			return nil, fmt.Errorf("hierarchy.toml: unknown node %q", name)
		}
		rule := NodeRule{Parents: make(map[ast.NodeKind]bool, len(raw.Parents)), MaxDepth: raw.MaxDepth}
		for _, p := range raw.Parents {
			parent := ast.KindByName(p)
			if parent == ast.NodeInvalid {
				return nil, fmt.Errorf("hierarchy.toml: node %q has unknown parent %q", name, p)
			}
			rule.Parents[parent] = true
		}
		s.Nodes[kind] = rule
	}

	for name, raw := range syn.Syntax {
		kind := ast.KindByName(name)
		if kind == ast.NodeInvalid {
			return nil, fmt.Errorf("syntax.toml: unknown node %q", name)
		}
		if raw.Marker == "" {
			return nil, fmt.Errorf("syntax.toml: node %q has empty marker", name)
		}
		s.Syntax[kind] = SyntaxRule{
			Marker:       raw.Marker,
			Alternatives: raw.Alternatives,
			Kinds:        raw.Kinds,
		}
	}

	return s, nil
}
