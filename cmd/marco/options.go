package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Ranrar/Marco-sub004/internal/inline"
	"github.com/Ranrar/Marco-sub004/internal/parser"
)

// parseOptionsFromFlags resolves the persistent flags shared by every
// subcommand into parser options.
func parseOptionsFromFlags(cmd *cobra.Command) (parser.Options, error) {
	pf := cmd.Root().PersistentFlags()

	variant, err := pf.GetString("variant")
	if err != nil {
		return parser.Options{}, fmt.Errorf("failed to get variant flag: %w", err)
	}
	breaksStr, err := pf.GetString("line-breaks")
	if err != nil {
		return parser.Options{}, fmt.Errorf("failed to get line-breaks flag: %w", err)
	}
	breaks, err := inline.ParseBreakMode(breaksStr)
	if err != nil {
		return parser.Options{}, err
	}
	maxDiags, err := pf.GetInt("max-diagnostics")
	if err != nil {
		return parser.Options{}, fmt.Errorf("failed to get max-diagnostics flag: %w", err)
	}

	return parser.Options{
		Variant:        variant,
		Breaks:         breaks,
		MaxDiagnostics: maxDiags,
	}, nil
}

func useColor(cmd *cobra.Command) (bool, error) {
	colorFlag, err := cmd.Root().PersistentFlags().GetString("color")
	if err != nil {
		return false, fmt.Errorf("failed to get color flag: %w", err)
	}
	switch colorFlag {
	case "on":
		return true, nil
	case "off":
		return false, nil
	case "auto":
		return isTerminal(os.Stdout), nil
	}
	return false, fmt.Errorf("unknown color value: %s", colorFlag)
}

// silentExit makes the command fail without usage noise; the output the
// user needs has already been printed.
func silentExit(cmd *cobra.Command) error {
	cmd.SilenceUsage = true
	cmd.SilenceErrors = true
	return fmt.Errorf("")
}
