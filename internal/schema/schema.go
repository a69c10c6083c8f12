// Package schema loads per-variant syntax definitions: a node hierarchy
// (hierarchy.toml) and a node-to-literal-syntax mapping (syntax.toml) per
// dialect directory. Compiled schemas are immutable; a Store loads each
// variant once and shares it by reference across all parses.
package schema

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/Ranrar/Marco-sub004/internal/ast"
)

//go:embed schemas
var embedded embed.FS

// ErrSchemaNotFound is returned by Load for an unknown variant name.
var ErrSchemaNotFound = errors.New("schema: variant not found")

// Features switches dialect-specific constructs on or off.
type Features struct {
	Tables         bool
	Strikethrough  bool
	Admonitions    bool
	SetextHeadings bool
}

// Policy carries the segmentation knobs that differ per variant:
// lazy continuation and the block-opener precedence order.
type Policy struct {
	LazyContinuation bool
	BlockPrecedence  []ast.NodeKind
}

// NodeRule constrains where a node kind may appear.
type NodeRule struct {
	Parents  map[ast.NodeKind]bool
	MaxDepth int
}

// SyntaxRule maps a node kind to its canonical literal marker.
// Alternatives parse but are flagged by the validator.
type SyntaxRule struct {
	Marker       string
	Alternatives []string
	Kinds        []string // admonition kinds
}

// Accepts reports whether the literal marker is the canonical one or a
// recognized alternative.
func (r SyntaxRule) Accepts(marker string) bool {
	if marker == r.Marker {
		return true
	}
	for _, alt := range r.Alternatives {
		if marker == alt {
			return true
		}
	}
	return false
}

// Schema is one compiled, immutable dialect definition.
type Schema struct {
	Name     string
	Display  string
	Features Features
	Policy   Policy
	Nodes    map[ast.NodeKind]NodeRule
	Syntax   map[ast.NodeKind]SyntaxRule
}

// ExpectedMarker returns the literal syntax the validator expects for a
// node, expanding depth-dependent markers (heading: "#" x depth).
func (s *Schema) ExpectedMarker(kind ast.NodeKind, depth int) (string, bool) {
	rule, ok := s.Syntax[kind]
	if !ok {
		return "", false
	}
	if kind == ast.NodeHeading && depth > 0 {
		return strings.Repeat(rule.Marker, depth), true
	}
	return rule.Marker, true
}

// AllowsChild reports whether the hierarchy permits child under parent.
// Kinds absent from the hierarchy table are unconstrained.
func (s *Schema) AllowsChild(parent, child ast.NodeKind) bool {
	rule, ok := s.Nodes[child]
	if !ok || len(rule.Parents) == 0 {
		return true
	}
	return rule.Parents[parent]
}

// Store loads and caches compiled schemas. A nil or empty override
// directory means the embedded defaults only; files under dir take
// precedence per variant.
type Store struct {
	dir   string
	mu    sync.RWMutex
	cache map[string]*Schema
}

func NewStore(overrideDir string) *Store {
	return &Store{
		dir:   overrideDir,
		cache: make(map[string]*Schema),
	}
}

// Load returns the compiled schema for the variant, reading it at most
// once. Malformed files fail the load with a descriptive error and are
// never partially applied; unknown variants fail with ErrSchemaNotFound.
func (st *Store) Load(variant string) (*Schema, error) {
	st.mu.RLock()
	s, ok := st.cache[variant]
	st.mu.RUnlock()
	if ok {
		return s, nil
	}

	s, err := st.read(variant)
	if err != nil {
		return nil, err
	}

	st.mu.Lock()
	defer st.mu.Unlock()
	// Another goroutine may have won the race; keep the first copy so all
	// parses of a variant share one schema by reference.
	if prev, ok := st.cache[variant]; ok {
		return prev, nil
	}
	st.cache[variant] = s
	return s, nil
}

func (st *Store) read(variant string) (*Schema, error) {
	if st.dir != "" {
		dir := filepath.Join(st.dir, variant)
		if info, err := os.Stat(dir); err == nil && info.IsDir() {
			return compileDir(os.DirFS(dir), variant, dir)
		}
	}

	sub, err := fs.Sub(embedded, "schemas/"+variant)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrSchemaNotFound, variant)
	}
	if _, err := fs.Stat(sub, "hierarchy.toml"); err != nil {
		return nil, fmt.Errorf("%w: %q", ErrSchemaNotFound, variant)
	}
	return compileDir(sub, variant, "embedded:"+variant)
}

// Variants lists every loadable variant name, embedded and override.
func (st *Store) Variants() []string {
	seen := make(map[string]bool)
	var out []string

	entries, _ := fs.ReadDir(embedded, "schemas")
	for _, e := range entries {
		if e.IsDir() && !seen[e.Name()] {
			seen[e.Name()] = true
			out = append(out, e.Name())
		}
	}
	if st.dir != "" {
		if entries, err := os.ReadDir(st.dir); err == nil {
			for _, e := range entries {
				if e.IsDir() && !seen[e.Name()] {
					seen[e.Name()] = true
					out = append(out, e.Name())
				}
			}
		}
	}
	return out
}
