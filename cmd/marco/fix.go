package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Ranrar/Marco-sub004/internal/driver"
	"github.com/Ranrar/Marco-sub004/internal/fix"
	"github.com/Ranrar/Marco-sub004/internal/schema"
	"github.com/Ranrar/Marco-sub004/internal/source"
)

var fixCmd = &cobra.Command{
	Use:   "fix [flags] <file.md>",
	Short: "Apply suggested fixes to a markdown document",
	Long:  `Apply the text edits attached to validation diagnostics. By default only the first safe fix is applied; use --all for every safe fix or --id for one specific fix`,
	Args:  cobra.ExactArgs(1),
	RunE:  runFix,
}

func init() {
	fixCmd.Flags().Bool("all", false, "apply every always-safe fix")
	fixCmd.Flags().String("id", "", "apply exactly the fix with this id")
	fixCmd.Flags().Bool("dry-run", false, "stage fixes in memory and print the result without writing")
}

func runFix(cmd *cobra.Command, args []string) error {
	opts, err := parseOptionsFromFlags(cmd)
	if err != nil {
		return err
	}
	all, err := cmd.Flags().GetBool("all")
	if err != nil {
		return fmt.Errorf("failed to get all flag: %w", err)
	}
	targetID, err := cmd.Flags().GetString("id")
	if err != nil {
		return fmt.Errorf("failed to get id flag: %w", err)
	}
	dryRun, err := cmd.Flags().GetBool("dry-run")
	if err != nil {
		return fmt.Errorf("failed to get dry-run flag: %w", err)
	}
	if all && targetID != "" {
		return fmt.Errorf("--all and --id cannot be used together")
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

	applyOpts := fix.ApplyOptions{Mode: fix.ApplyModeOnce, DryRun: dryRun}
	if all {
		applyOpts.Mode = fix.ApplyModeAll
	}
	if targetID != "" {
		applyOpts.Mode = fix.ApplyModeID
		applyOpts.TargetID = targetID
	}

	result, err := fix.Apply(fset, cr.Diagnostics, applyOpts)
	if err != nil {
		if errors.Is(err, fix.ErrNoFixes) {
			fmt.Fprintln(os.Stdout, "nothing to fix")
			return nil
		}
		return err
	}

	for _, a := range result.Applied {
		fmt.Fprintf(os.Stdout, "applied %s: %s (%d edits)\n", a.ID, a.Title, a.EditCount)
	}
	for _, s := range result.Skipped {
		fmt.Fprintf(os.Stdout, "skipped %s: %s\n", s.ID, s.Reason)
	}
	for _, c := range result.FileChanges {
		fmt.Fprintf(os.Stdout, "%s: %d edits\n", c.Path, c.EditCount)
	}
	if dryRun {
		if buf, ok := result.Buffers[id]; ok {
			os.Stdout.Write(buf)
		}
	}
	return nil
}
