package main

import (
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/Ranrar/Marco-sub004/internal/version"
)

var rootCmd = &cobra.Command{
	Use:   "marco",
	Short: "Markdown grammar engine and toolchain",
	Long:  `Marco parses, validates, fixes and renders Markdown against pluggable grammar variants`,
}

func main() {
	rootCmd.Version = version.Version

	rootCmd.AddCommand(parseCmd)
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(fixCmd)
	rootCmd.AddCommand(renderCmd)
	rootCmd.AddCommand(ruleCmd)
	rootCmd.AddCommand(workbenchCmd)
	rootCmd.AddCommand(lspCmd)
	rootCmd.AddCommand(versionCmd)

	rootCmd.PersistentFlags().String("variant", "gfm", "grammar variant (commonmark|gfm|marco)")
	rootCmd.PersistentFlags().String("line-breaks", "normal", "newline handling (normal|reversed)")
	rootCmd.PersistentFlags().String("color", "auto", "colorize output (auto|on|off)")
	rootCmd.PersistentFlags().Int("max-diagnostics", 128, "maximum number of diagnostics to report")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}
