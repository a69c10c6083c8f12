package intel

import (
	"github.com/Ranrar/Marco-sub004/internal/diag"
	"github.com/Ranrar/Marco-sub004/internal/parser"
	"github.com/Ranrar/Marco-sub004/internal/validate"
)

// Diagnostics aggregates parse-time diagnostics with a fresh validation
// pass into one position-ordered, deduplicated list. The Result's own
// bag is left untouched.
func Diagnostics(res *parser.Result) []diag.Diagnostic {
	bag := diag.NewBag(res.Opts.MaxDiagnostics)
	bag.Merge(res.Bag)
	validate.New(res.Schema).Run(res.Tree, res.File(), diag.BagReporter{Bag: bag})
	bag.Sort()
	bag.Dedup()
	return bag.Items()
}
