package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Ranrar/Marco-sub004/internal/lsp"
	"github.com/Ranrar/Marco-sub004/internal/parser"
	"github.com/Ranrar/Marco-sub004/internal/schema"
)

var lspCmd = &cobra.Command{
	Use:          "lsp",
	Short:        "Run the markdown language server over stdio",
	SilenceUsage: true,
	RunE:         runLSP,
}

func init() {
	lspCmd.Flags().String("log", "", "write server logs to this file")
}

func runLSP(cmd *cobra.Command, _ []string) error {
	opts, err := parseOptionsFromFlags(cmd)
	if err != nil {
		return err
	}
	logPath, err := cmd.Flags().GetString("log")
	if err != nil {
		return fmt.Errorf("failed to get log flag: %w", err)
	}

	logger := zap.NewNop()
	if logPath != "" {
		cfg := zap.NewProductionConfig()
		cfg.OutputPaths = []string{logPath}
		logger, err = cfg.Build()
		if err != nil {
			return fmt.Errorf("failed to open log file: %w", err)
		}
		defer logger.Sync() //nolint:errcheck
	}

	server := lsp.NewServer(os.Stdin, os.Stdout, parser.New(schema.NewStore("")), lsp.ServerOptions{
		ParseOpts: opts,
		Logger:    logger,
	})
	if err := server.Run(cmd.Context()); err != nil {
		if errors.Is(err, lsp.ErrExit) {
			return nil
		}
		if errors.Is(err, lsp.ErrExitWithoutShutdown) {
			return fmt.Errorf("lsp exit without shutdown")
		}
		return err
	}
	return nil
}
