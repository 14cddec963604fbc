package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"jaivals/internal/version"
)

var rootCmd = &cobra.Command{
	Use:               "jaivals",
	Short:             "Jaiva symbol index and language server",
	Long:              `jaivals indexes Jaiva sources and serves hover and completion over LSP`,
	SilenceUsage:      true,
	PersistentPreRunE: setupSession,
}

// main registers subcommands and global flags, runs the root command and
// exits with status 1 on error.
func main() {
	rootCmd.Version = version.Version

	rootCmd.AddCommand(lspCmd)
	rootCmd.AddCommand(indexCmd)
	rootCmd.AddCommand(symbolsCmd)
	rootCmd.AddCommand(hoverCmd)
	rootCmd.AddCommand(completeCmd)
	rootCmd.AddCommand(libCmd)
	rootCmd.AddCommand(versionCmd)

	pf := rootCmd.PersistentFlags()
	pf.String("config", "", "path to jaivals.toml (default: discovered upwards from the working directory)")
	pf.String("color", "auto", "colorize output (auto|on|off)")
	pf.String("log-level", "warn", "log level (trace|debug|info|warn|error|disabled)")
	pf.String("log-format", "console", "log format (console|json)")
	pf.Bool("timings", false, "show timing information")
	pf.String("trace", "", "comma-separated trace outputs (- for stderr, .ndjson for JSON lines)")
	pf.String("trace-level", "off", "trace level (off|error|phase|detail|debug)")
	pf.String("parser", "", "override the parser command")
	pf.Int("jobs", 0, "override parallel parser invocations (0 = config or GOMAXPROCS)")
	pf.String("cpu-profile", "", "write a CPU profile to file")
	pf.String("mem-profile", "", "write a heap profile to file on exit")
	pf.String("runtime-trace", "", "write a Go runtime trace to file")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	closeSession(rootCmd.ErrOrStderr())
	stop()
	if err != nil {
		os.Exit(1)
	}
}

func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}
