package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Ranrar/Marco-sub004/internal/driver"
	"github.com/Ranrar/Marco-sub004/internal/render"
	"github.com/Ranrar/Marco-sub004/internal/schema"
	"github.com/Ranrar/Marco-sub004/internal/source"
)

var renderCmd = &cobra.Command{
	Use:   "render [flags] <file.md>",
	Short: "Render a markdown document to another format",
	Args:  cobra.ExactArgs(1),
	RunE:  runRender,
}

func init() {
	renderCmd.Flags().String("format", "html", "output format (html|latex|plain)")
	renderCmd.Flags().String("highlight-style", "github", "chroma style for fenced code blocks")
	renderCmd.Flags().String("output", "", "write to file instead of stdout")
}

func runRender(cmd *cobra.Command, args []string) error {
	opts, err := parseOptionsFromFlags(cmd)
	if err != nil {
		return err
	}
	formatStr, err := cmd.Flags().GetString("format")
	if err != nil {
		return fmt.Errorf("failed to get format flag: %w", err)
	}
	format, err := render.ParseFormat(formatStr)
	if err != nil {
		return err
	}
	style, err := cmd.Flags().GetString("highlight-style")
	if err != nil {
		return fmt.Errorf("failed to get highlight-style flag: %w", err)
	}
	outPath, err := cmd.Flags().GetString("output")
	if err != nil {
		return fmt.Errorf("failed to get output flag: %w", err)
	}

	d := driver.New(schema.NewStore(""), nil)
	fset := source.NewFileSet()
	res, err := d.ParseFile(fset, args[0], opts)
	if err != nil {
		return err
	}

	out, err := render.Render(res, render.Options{Format: format, HighlightStyle: style})
	if err != nil {
		return err
	}

	if outPath != "" {
		return os.WriteFile(outPath, []byte(out), 0o644)
	}
	_, err = os.Stdout.WriteString(out)
	return err
}
