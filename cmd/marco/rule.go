package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Ranrar/Marco-sub004/internal/diagfmt"
	"github.com/Ranrar/Marco-sub004/internal/inline"
	"github.com/Ranrar/Marco-sub004/internal/observ"
	"github.com/Ranrar/Marco-sub004/internal/parser"
	"github.com/Ranrar/Marco-sub004/internal/schema"
)

var ruleCmd = &cobra.Command{
	Use:   "rule [flags] <name> <input>",
	Short: "Run one grammar rule against literal input",
	Long: `Probe a single inline grammar rule in isolation, without a full
document parse. Run "marco rule list" to see every rule`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runRule,
}

func init() {
	ruleCmd.Flags().Bool("tree", false, "also parse the input as a document and dump its tree")
	ruleCmd.Flags().Bool("timing", false, "show probe timing")
}

func runRule(cmd *cobra.Command, args []string) error {
	if args[0] == "list" {
		for _, r := range inline.Rules() {
			fmt.Fprintf(os.Stdout, "%-20s %s\n", r.Name, r.Doc)
		}
		return nil
	}
	if len(args) != 2 {
		return fmt.Errorf("usage: marco rule <name> <input>")
	}

	rule, ok := inline.LookupRule(args[0])
	if !ok {
		return fmt.Errorf("unknown rule: %s", args[0])
	}
	showTree, err := cmd.Flags().GetBool("tree")
	if err != nil {
		return fmt.Errorf("failed to get tree flag: %w", err)
	}
	showTiming, err := cmd.Flags().GetBool("timing")
	if err != nil {
		return fmt.Errorf("failed to get timing flag: %w", err)
	}

	input := []byte(args[1])
	timer := observ.NewTimer()
	ph := timer.Begin(rule.Name)
	result := rule.Fn(input)
	timer.End(ph, "")

	if result.Matched {
		fmt.Fprintf(os.Stdout, "matched %d bytes", result.Length)
		if result.Detail != "" {
			fmt.Fprintf(os.Stdout, ": %s", result.Detail)
		}
		fmt.Fprintln(os.Stdout)
	} else {
		msg := "no match"
		if result.Detail != "" {
			msg += ": " + result.Detail
		}
		fmt.Fprintln(os.Stdout, msg)
	}

	if showTree {
		opts, err := parseOptionsFromFlags(cmd)
		if err != nil {
			return err
		}
		res, err := parser.New(schema.NewStore("")).ParseText("rule-input.md", input, opts)
		if err != nil {
			return err
		}
		diagfmt.Tree(os.Stdout, res.Tree, res.File())
	}
	if showTiming {
		fmt.Fprint(os.Stderr, timer.Summary())
	}

	if !result.Matched {
		return silentExit(cmd)
	}
	return nil
}
