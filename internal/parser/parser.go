// Package parser runs the two parse stages over a document: block
// segmentation first, then inline parsing of every text-carrying block.
// It also owns the incremental reparse path for single-block edits.
package parser

import (
	"fmt"

	"github.com/Ranrar/Marco-sub004/internal/ast"
	"github.com/Ranrar/Marco-sub004/internal/blocks"
	"github.com/Ranrar/Marco-sub004/internal/diag"
	"github.com/Ranrar/Marco-sub004/internal/inline"
	"github.com/Ranrar/Marco-sub004/internal/schema"
	"github.com/Ranrar/Marco-sub004/internal/source"
)

// DefaultVariant is used when the caller leaves Options.Variant empty.
const DefaultVariant = "gfm"

// DefaultMaxDiagnostics caps the bag when the caller does not.
const DefaultMaxDiagnostics = 128

// Options configure one parse.
type Options struct {
	Variant        string
	Breaks         inline.BreakMode
	MaxDiagnostics int
}

func (o Options) normalized() Options {
	if o.Variant == "" {
		o.Variant = DefaultVariant
	}
	if o.MaxDiagnostics <= 0 {
		o.MaxDiagnostics = DefaultMaxDiagnostics
	}
	return o
}

// Result is one complete parse of one document version. Results are
// immutable once returned; Reparse produces a new Result and leaves the
// previous one valid, including every span it hands out.
type Result struct {
	FileSet *source.FileSet
	FileID  source.FileID
	Tree    *ast.Tree
	Bag     *diag.Bag
	Schema  *schema.Schema
	Opts    Options
}

// File returns the document version this result was parsed from.
func (r *Result) File() *source.File {
	return r.FileSet.Get(r.FileID)
}

// Parser parses documents against schemas from one store.
type Parser struct {
	store *schema.Store
}

func New(store *schema.Store) *Parser {
	if store == nil {
		store = schema.NewStore("")
	}
	return &Parser{store: store}
}

// Store exposes the schema store, for variant listing.
func (p *Parser) Store() *schema.Store {
	return p.store
}

// Parse runs both stages over the document already registered in fset.
func (p *Parser) Parse(fset *source.FileSet, id source.FileID, opts Options) (*Result, error) {
	opts = opts.normalized()
	sc, err := p.store.Load(opts.Variant)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", fset.Get(id).Path, err)
	}

	f := fset.Get(id)
	bag := diag.NewBag(opts.MaxDiagnostics)
	rep := diag.BagReporter{Bag: bag}

	tree := ast.NewTree(uint(len(f.Content)/32+8),
		source.Span{File: id, End: uint32(len(f.Content))})
	targets := blocks.Segment(f, tree, sc, rep)

	ip := inline.New(sc, opts.Breaks, rep)
	for _, tg := range targets {
		ip.ParseInto(tree, tg.Node, f, tg.Segments)
	}

	bag.Sort()
	return &Result{
		FileSet: fset,
		FileID:  id,
		Tree:    tree,
		Bag:     bag,
		Schema:  sc,
		Opts:    opts,
	}, nil
}

// ParseText parses in-memory content under the given name.
func (p *Parser) ParseText(name string, text []byte, opts Options) (*Result, error) {
	fset := source.NewFileSet()
	id := fset.AddVirtual(name, text)
	return p.Parse(fset, id, opts)
}
