// Package driver orchestrates parse and validate runs for the CLI and
// the language server: single documents, whole directories in parallel,
// and a disk cache of validated results.
package driver

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strconv"

	"golang.org/x/sync/errgroup"

	"github.com/Ranrar/Marco-sub004/internal/diag"
	"github.com/Ranrar/Marco-sub004/internal/observ"
	"github.com/Ranrar/Marco-sub004/internal/parser"
	"github.com/Ranrar/Marco-sub004/internal/schema"
	"github.com/Ranrar/Marco-sub004/internal/source"
	"github.com/Ranrar/Marco-sub004/internal/validate"
)

// Driver wires the parser, the validator and the disk cache together.
// A nil cache disables caching without changing any other behavior.
type Driver struct {
	parser *parser.Parser
	cache  *DiskCache
}

func New(store *schema.Store, cache *DiskCache) *Driver {
	return &Driver{parser: parser.New(store), cache: cache}
}

// Parser exposes the underlying parser, for callers that need the raw
// parse path (the language server keeps its own session on top of it).
func (d *Driver) Parser() *parser.Parser {
	return d.parser
}

// CheckResult is the outcome of checking one document.
type CheckResult struct {
	Path        string
	FileID      source.FileID
	Res         *parser.Result
	Diagnostics []diag.Diagnostic
	FromCache   bool
	Timings     observ.Report
	LoadErr     error
}

// ErrorCount returns how many diagnostics are errors.
func (r *CheckResult) ErrorCount() int {
	n := 0
	for _, dg := range r.Diagnostics {
		if dg.Severity == diag.SevError {
			n++
		}
	}
	return n
}

// ParseFile loads a document from disk into fset and parses it.
func (d *Driver) ParseFile(fset *source.FileSet, path string, opts parser.Options) (*parser.Result, error) {
	id, err := fset.Load(path)
	if err != nil {
		return nil, err
	}
	return d.parser.Parse(fset, id, opts)
}

// ParseText parses in-memory content under the given name.
func (d *Driver) ParseText(name string, text []byte, opts parser.Options) (*parser.Result, error) {
	return d.parser.ParseText(name, text, opts)
}

// Check runs the validator over an existing parse result and returns
// parse and validation diagnostics combined, sorted and deduplicated.
// The result's own bag is left untouched.
func (d *Driver) Check(res *parser.Result) []diag.Diagnostic {
	bag := diag.NewBag(res.Opts.MaxDiagnostics)
	bag.Merge(res.Bag)
	validate.New(res.Schema).Run(res.Tree, res.File(), diag.BagReporter{Bag: bag})
	bag.Sort()
	bag.Dedup()
	return bag.Items()
}

// CheckFile checks one document already registered in fset, consulting
// the cache first. On a hit the document is not reparsed and Res stays
// nil; cached diagnostics are rebound to the live file id.
func (d *Driver) CheckFile(fset *source.FileSet, id source.FileID, opts parser.Options) (*CheckResult, error) {
	f := fset.Get(id)
	if opts.Variant == "" {
		opts.Variant = parser.DefaultVariant
	}
	out := &CheckResult{Path: f.Path, FileID: id}

	timer := observ.NewTimer()
	key := cacheKey(f.Content, opts.Variant, opts.Breaks.String())

	ph := timer.Begin("cache-lookup")
	var payload cachePayload
	hit, err := d.cache.get(key, &payload)
	timer.End(ph, "")
	if err == nil && hit && payload.Variant == opts.Variant {
		out.Diagnostics = decodeDiags(payload.Diagnostics, id)
		out.FromCache = true
		out.Timings = timer.Report()
		return out, nil
	}

	ph = timer.Begin("parse")
	res, err := d.parser.Parse(fset, id, opts)
	timer.End(ph, strconv.Itoa(len(f.Content))+" bytes")
	if err != nil {
		return nil, err
	}

	ph = timer.Begin("validate")
	diags := d.Check(res)
	timer.End(ph, strconv.Itoa(len(diags))+" diagnostics")

	out.Res = res
	out.Diagnostics = diags
	out.Timings = timer.Report()

	// Cache failures must not fail the check.
	_ = d.cache.put(key, &cachePayload{
		Schema:      diskCacheSchemaVersion,
		Variant:     opts.Variant,
		Diagnostics: encodeDiags(diags),
	})
	return out, nil
}

// CheckFiles loads and checks many documents concurrently. Results come
// back in input order, together with the file set their spans resolve
// against. A document that fails to load still produces a CheckResult,
// with LoadErr set and FileID left zero.
func (d *Driver) CheckFiles(ctx context.Context, paths []string, opts parser.Options, jobs int) (*source.FileSet, []*CheckResult, error) {
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}

	// The file set is not safe for concurrent Add, so every document is
	// loaded up front; workers only read from it.
	fset := source.NewFileSet()
	results := make([]*CheckResult, len(paths))
	ids := make([]source.FileID, len(paths))
	for i, p := range paths {
		id, err := fset.Load(p)
		if err != nil {
			results[i] = &CheckResult{Path: p, LoadErr: err}
			continue
		}
		ids[i] = id
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(min(jobs, len(paths)))
	for i := range paths {
		i := i
		if results[i] != nil {
			continue // load failed
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			cr, err := d.CheckFile(fset, ids[i], opts)
			if err != nil {
				return err
			}
			results[i] = cr
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return fset, results, nil
}

// ListMarkdownFiles walks dir and returns every markdown document under
// it, sorted for stable output.
func ListMarkdownFiles(dir string) ([]string, error) {
	var out []string
	err := filepath.WalkDir(dir, func(path string, entry os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if entry.IsDir() {
			return nil
		}
		switch filepath.Ext(path) {
		case ".md", ".markdown":
			out = append(out, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(out)
	return out, nil
}

// Variants lists the schema names the driver can parse against.
func (d *Driver) Variants() []string {
	return d.parser.Store().Variants()
}
