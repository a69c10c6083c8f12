package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Ranrar/Marco-sub004/internal/diagfmt"
	"github.com/Ranrar/Marco-sub004/internal/driver"
	"github.com/Ranrar/Marco-sub004/internal/intel"
	"github.com/Ranrar/Marco-sub004/internal/schema"
	"github.com/Ranrar/Marco-sub004/internal/source"
)

var parseCmd = &cobra.Command{
	Use:   "parse [flags] <file.md>",
	Short: "Parse a markdown document and dump its syntax tree",
	Args:  cobra.ExactArgs(1),
	RunE:  runParse,
}

func init() {
	parseCmd.Flags().String("format", "tree", "output format (tree|json|highlights)")
	parseCmd.Flags().Bool("timing", false, "show phase timings")
}

func runParse(cmd *cobra.Command, args []string) error {
	opts, err := parseOptionsFromFlags(cmd)
	if err != nil {
		return err
	}
	format, err := cmd.Flags().GetString("format")
	if err != nil {
		return fmt.Errorf("failed to get format flag: %w", err)
	}
	timing, err := cmd.Flags().GetBool("timing")
	if err != nil {
		return fmt.Errorf("failed to get timing flag: %w", err)
	}

	d := driver.New(schema.NewStore(""), nil)
	fset := source.NewFileSet()
	id, err := fset.Load(args[0])
	if err != nil {
		return err
	}
	cr, err := d.CheckFile(fset, id, opts)
	if err != nil {
		return err
	}

	switch format {
	case "tree":
		diagfmt.Tree(os.Stdout, cr.Res.Tree, cr.Res.File())
	case "json":
		if err := diagfmt.TreeJSON(os.Stdout, cr.Res.Tree, cr.Res.File()); err != nil {
			return err
		}
	case "highlights":
		diagfmt.HighlightsPretty(os.Stdout, intel.Highlights(cr.Res), cr.Res.File())
	default:
		return fmt.Errorf("unknown format: %s", format)
	}

	if timing {
		fmt.Fprintf(os.Stderr, "total %.2f ms\n", cr.Timings.TotalMS)
		for _, p := range cr.Timings.Phases {
			fmt.Fprintf(os.Stderr, "  %-12s %7.2f ms\n", p.Name, p.DurationMS)
		}
	}
	return nil
}
