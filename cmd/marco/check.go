package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Ranrar/Marco-sub004/internal/diag"
	"github.com/Ranrar/Marco-sub004/internal/diagfmt"
	"github.com/Ranrar/Marco-sub004/internal/driver"
	"github.com/Ranrar/Marco-sub004/internal/schema"
)

var checkCmd = &cobra.Command{
	Use:   "check [flags] <file.md|directory>",
	Short: "Validate markdown documents against their grammar variant",
	Long:  `Validate one document or every markdown document under a directory, reporting structural diagnostics with suggested fixes`,
	Args:  cobra.ExactArgs(1),
	RunE:  runCheck,
}

func init() {
	checkCmd.Flags().String("format", "pretty", "output format (pretty|json)")
	checkCmd.Flags().Bool("notes", false, "include diagnostic notes in output")
	checkCmd.Flags().Bool("suggest", false, "include fix suggestions in output")
	checkCmd.Flags().Bool("fullpath", false, "emit absolute file paths in output")
	checkCmd.Flags().Int("jobs", 0, "max parallel workers for directory processing (0=auto)")
	checkCmd.Flags().Bool("disk-cache", false, "reuse cached results for unchanged documents")
	checkCmd.Flags().Bool("timing", false, "show phase timings")
}

func runCheck(cmd *cobra.Command, args []string) error {
	opts, err := parseOptionsFromFlags(cmd)
	if err != nil {
		return err
	}
	format, err := cmd.Flags().GetString("format")
	if err != nil {
		return fmt.Errorf("failed to get format flag: %w", err)
	}
	showNotes, err := cmd.Flags().GetBool("notes")
	if err != nil {
		return fmt.Errorf("failed to get notes flag: %w", err)
	}
	suggest, err := cmd.Flags().GetBool("suggest")
	if err != nil {
		return fmt.Errorf("failed to get suggest flag: %w", err)
	}
	fullPath, err := cmd.Flags().GetBool("fullpath")
	if err != nil {
		return fmt.Errorf("failed to get fullpath flag: %w", err)
	}
	jobs, err := cmd.Flags().GetInt("jobs")
	if err != nil {
		return fmt.Errorf("failed to get jobs flag: %w", err)
	}
	useCache, err := cmd.Flags().GetBool("disk-cache")
	if err != nil {
		return fmt.Errorf("failed to get disk-cache flag: %w", err)
	}
	timing, err := cmd.Flags().GetBool("timing")
	if err != nil {
		return fmt.Errorf("failed to get timing flag: %w", err)
	}
	color, err := useColor(cmd)
	if err != nil {
		return err
	}

	var cache *driver.DiskCache
	if useCache {
		cache, err = driver.OpenDiskCache("")
		if err != nil {
			return fmt.Errorf("failed to open disk cache: %w", err)
		}
	}
	d := driver.New(schema.NewStore(""), cache)

	st, err := os.Stat(args[0])
	if err != nil {
		return fmt.Errorf("failed to stat path: %w", err)
	}
	paths := []string{args[0]}
	if st.IsDir() {
		paths, err = driver.ListMarkdownFiles(args[0])
		if err != nil {
			return err
		}
		if len(paths) == 0 {
			return fmt.Errorf("no markdown documents under %s", args[0])
		}
	}

	fset, results, err := d.CheckFiles(cmd.Context(), paths, opts, jobs)
	if err != nil {
		return fmt.Errorf("check failed: %w", err)
	}

	pathMode := diagfmt.PathModeAuto
	if fullPath {
		pathMode = diagfmt.PathModeAbsolute
	}

	hasErrors := false
	for _, r := range results {
		if r.LoadErr != nil {
			fmt.Fprintf(os.Stderr, "%s: %v\n", r.Path, r.LoadErr)
			hasErrors = true
			continue
		}
		if r.ErrorCount() > 0 {
			hasErrors = true
		}
	}

	switch format {
	case "pretty":
		prettyOpts := diagfmt.PrettyOpts{
			Color:     color,
			PathMode:  pathMode,
			ShowNotes: showNotes,
			ShowFixes: suggest,
		}
		for _, r := range results {
			if r.LoadErr != nil || len(r.Diagnostics) == 0 {
				continue
			}
			bag := diag.NewBag(opts.MaxDiagnostics)
			for _, dg := range r.Diagnostics {
				bag.Add(dg)
			}
			diagfmt.Pretty(os.Stdout, bag, fset, prettyOpts)
		}
	case "json":
		jsonOpts := diagfmt.JSONOpts{
			IncludePositions: true,
			PathMode:         pathMode,
			IncludeNotes:     showNotes,
			IncludeFixes:     suggest,
			Max:              opts.MaxDiagnostics,
		}
		output := make(map[string]diagfmt.DiagnosticsOutput, len(results))
		for _, r := range results {
			if r.LoadErr != nil {
				continue
			}
			bag := diag.NewBag(opts.MaxDiagnostics)
			for _, dg := range r.Diagnostics {
				bag.Add(dg)
			}
			output[r.Path] = diagfmt.BuildDiagnosticsOutput(bag, fset, jsonOpts)
		}
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(output); err != nil {
			return fmt.Errorf("failed to encode diagnostics: %w", err)
		}
	default:
		return fmt.Errorf("unknown format: %s", format)
	}

	if timing {
		for _, r := range results {
			if r.LoadErr != nil {
				continue
			}
			note := ""
			if r.FromCache {
				note = " (cached)"
			}
			fmt.Fprintf(os.Stderr, "%s: %.2f ms%s\n", r.Path, r.Timings.TotalMS, note)
		}
	}

	if hasErrors {
		return silentExit(cmd)
	}
	return nil
}
