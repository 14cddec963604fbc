package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"jaivals/internal/lsp"
	"jaivals/internal/version"
	"jaivals/internal/workspace"
)

var lspIndexOnStart bool

func init() {
	lspCmd.Flags().BoolVar(&lspIndexOnStart, "index-on-start", true, "index the whole workspace after initialization")
}

var lspCmd = &cobra.Command{
	Use:          "lsp",
	Short:        "Run the Jaiva language server over stdio",
	SilenceUsage: true,
	RunE:         runLSP,
}

func runLSP(cmd *cobra.Command, _ []string) error {
	var debounce time.Duration
	setup := func(ctx context.Context, root string) (*workspace.Indexer, error) {
		cfg, err := loadConfig(cmd, root)
		if err != nil {
			return nil, err
		}
		return newIndexer(ctx, cfg, nil)
	}
	if cfg, err := loadConfig(cmd, "."); err == nil {
		debounce = cfg.Watch.Debounce.Duration
	}

	server := lsp.NewServer(os.Stdin, os.Stdout, lsp.ServerOptions{
		Debounce:     debounce,
		Setup:        setup,
		IndexOnStart: lspIndexOnStart,
		Version:      version.Current().Version,
		Logger:       &current.log,
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
