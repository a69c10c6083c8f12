package main

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/Ranrar/Marco-sub004/internal/parser"
	"github.com/Ranrar/Marco-sub004/internal/schema"
	"github.com/Ranrar/Marco-sub004/internal/ui"
)

var workbenchCmd = &cobra.Command{
	Use:   "workbench [file.md]",
	Short: "Interactive grammar workbench with live tree preview",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runWorkbench,
}

func runWorkbench(cmd *cobra.Command, args []string) error {
	opts, err := parseOptionsFromFlags(cmd)
	if err != nil {
		return err
	}

	seed := "# hello\n\ntry *markdown* here\n"
	if len(args) == 1 {
		content, err := os.ReadFile(args[0])
		if err != nil {
			return err
		}
		seed = string(content)
	}

	if !isTerminal(os.Stdout) {
		return fmt.Errorf("workbench needs an interactive terminal")
	}

	model := ui.NewModel(parser.New(schema.NewStore("")), opts.Variant, opts.Breaks, seed)
	program := tea.NewProgram(model, tea.WithOutput(os.Stdout), tea.WithAltScreen())
	_, err = program.Run()
	return err
}
