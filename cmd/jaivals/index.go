package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"jaivals/internal/config"
	"jaivals/internal/ui"
	"jaivals/internal/workspace"
)

var (
	indexUI    string
	indexWatch bool
)

func init() {
	indexCmd.Flags().StringVar(&indexUI, "ui", "off", "show a progress view (auto|on|off)")
	indexCmd.Flags().BoolVar(&indexWatch, "watch", false, "keep running and re-index changed files")
}

var indexCmd = &cobra.Command{
	Use:   "index [dir]",
	Short: "Index a Jaiva project and print a per-file summary",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runIndex,
}

func runIndex(cmd *cobra.Command, args []string) error {
	dir := "."
	if len(args) == 1 {
		dir = args[0]
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return err
	}
	cfg, err := loadConfig(cmd, abs)
	if err != nil {
		return err
	}
	root := cfg.Root
	if len(args) == 1 {
		root = abs
	}
	mode, err := readUIMode(indexUI)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	var summary *workspace.Summary
	var ix *workspace.Indexer
	err = track("index", func() error {
		if useColor(mode, os.Stdout) {
			ix, summary, err = indexWithUI(ctx, cfg, root)
			return err
		}
		ix, err = newIndexer(ctx, cfg, nil)
		if err != nil {
			return err
		}
		summary, err = ix.IndexProject(ctx, root)
		return err
	})
	if err != nil {
		return err
	}
	printSummary(cmd.OutOrStdout(), summary)

	if !indexWatch && !cfg.Watch.Enabled {
		if len(summary.Failed()) > 0 {
			return fmt.Errorf("%d file(s) failed to index", len(summary.Failed()))
		}
		return nil
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "watching %s\n", root)
	err = ix.Watch(ctx, root, cfg.Watch.Debounce.Duration, func(results []workspace.Result) {
		for _, r := range results {
			printResult(cmd.OutOrStdout(), root, r)
		}
	})
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

type indexOutcome struct {
	ix      *workspace.Indexer
	summary *workspace.Summary
	err     error
}

// indexWithUI runs IndexProject while a progress view consumes its events.
func indexWithUI(ctx context.Context, cfg config.Config, root string) (*workspace.Indexer, *workspace.Summary, error) {
	events := make(chan workspace.Event, 256)
	outcomeCh := make(chan indexOutcome, 1)

	go func() {
		defer close(events)
		ix, err := newIndexer(ctx, cfg, workspace.ChannelSink{Ch: events})
		if err != nil {
			outcomeCh <- indexOutcome{err: err}
			return
		}
		summary, err := ix.IndexProject(ctx, root)
		outcomeCh <- indexOutcome{ix: ix, summary: summary, err: err}
	}()

	model := ui.NewProgressModel("indexing "+root, events)
	program := tea.NewProgram(model, tea.WithOutput(os.Stdout), tea.WithContext(ctx))
	_, uiErr := program.Run()
	// The view may quit early; keep the indexer from blocking on a full channel.
	go func() {
		for range events {
		}
	}()
	outcome := <-outcomeCh
	if uiErr != nil && outcome.err == nil {
		return outcome.ix, outcome.summary, uiErr
	}
	return outcome.ix, outcome.summary, outcome.err
}

func printSummary(out io.Writer, summary *workspace.Summary) {
	for _, r := range summary.Files {
		printResult(out, summary.Root, r)
	}
	for _, c := range summary.Cycles {
		fmt.Fprintf(out, "%s %s\n", color.YellowString("cycle"), relPath(summary.Root, c))
	}
	failed := len(summary.Failed())
	fmt.Fprintf(out, "indexed %d file(s), %d failed, %d on import cycles in %s\n",
		len(summary.Files), failed, len(summary.Cycles), summary.Elapsed.Round(time.Millisecond))
}

func printResult(out io.Writer, root string, r workspace.Result) {
	path := relPath(root, r.Path)
	switch {
	case r.Err != nil:
		fmt.Fprintf(out, "%s %s: %v\n", color.RedString("error"), path, r.Err)
	case r.Unchanged:
		fmt.Fprintf(out, "%s %s\n", color.New(color.Faint).Sprint("same "), path)
	default:
		fmt.Fprintf(out, "%s %s (%d symbols, %.1f ms)\n", color.GreenString("ok   "), path, r.Records, toMillis(r.Elapsed))
	}
}

func relPath(root, path string) string {
	if rel, err := filepath.Rel(root, path); err == nil && filepath.IsLocal(rel) {
		return filepath.ToSlash(rel)
	}
	return path
}

func toMillis(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
