package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"jaivals/internal/observ"
	"jaivals/internal/prof"
)

// session holds what every subcommand shares between setup and exit.
type session struct {
	log          zerolog.Logger
	timer        *observ.Timer
	cleanupTrace func()
	profiles     *prof.Session
}

var current = &session{log: zerolog.Nop()}

func setupSession(cmd *cobra.Command, _ []string) error {
	pf := cmd.Root().PersistentFlags()

	colorFlag, err := pf.GetString("color")
	if err != nil {
		return fmt.Errorf("failed to get color flag: %w", err)
	}
	mode, err := readColorMode(colorFlag)
	if err != nil {
		return err
	}
	color.NoColor = !useColor(mode, os.Stdout)

	levelFlag, err := pf.GetString("log-level")
	if err != nil {
		return fmt.Errorf("failed to get log-level flag: %w", err)
	}
	formatFlag, err := pf.GetString("log-format")
	if err != nil {
		return fmt.Errorf("failed to get log-format flag: %w", err)
	}
	log, err := newLogger(cmd.ErrOrStderr(), levelFlag, formatFlag, !color.NoColor)
	if err != nil {
		return err
	}
	current.log = log

	timings, err := pf.GetBool("timings")
	if err != nil {
		return fmt.Errorf("failed to get timings flag: %w", err)
	}
	if timings {
		current.timer = observ.NewTimer()
	}

	cleanup, err := setupTracing(cmd)
	if err != nil {
		return err
	}
	current.cleanupTrace = cleanup

	var popts prof.Options
	for flag, dst := range map[string]*string{
		"cpu-profile":   &popts.CPU,
		"mem-profile":   &popts.Mem,
		"runtime-trace": &popts.RuntimeTrace,
	} {
		if *dst, err = pf.GetString(flag); err != nil {
			return fmt.Errorf("failed to get %s flag: %w", flag, err)
		}
	}
	current.profiles, err = prof.Start(popts)
	return err
}

// closeSession prints timings and flushes the tracer. It runs even when the
// command failed.
func closeSession(errOut io.Writer) {
	if current.timer != nil {
		if summary := current.timer.Summary(); summary != "" {
			fmt.Fprint(errOut, summary)
		}
	}
	if current.cleanupTrace != nil {
		current.cleanupTrace()
	}
	if err := current.profiles.Stop(); err != nil {
		fmt.Fprintf(errOut, "profile: %v\n", err)
	}
}

// newLogger builds a stderr logger. The level is set on the logger, not globally.
func newLogger(w io.Writer, level, format string, colored bool) (zerolog.Logger, error) {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil {
		return zerolog.Nop(), fmt.Errorf("invalid --log-level %q: %w", level, err)
	}
	if lvl == zerolog.NoLevel {
		lvl = zerolog.WarnLevel
	}
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", "console":
		w = zerolog.ConsoleWriter{Out: w, NoColor: !colored, TimeFormat: "15:04:05"}
	case "json":
	default:
		return zerolog.Nop(), fmt.Errorf("invalid --log-format %q (expected console|json)", format)
	}
	return zerolog.New(w).Level(lvl).With().Timestamp().Logger(), nil
}

// track times fn as a named phase when --timings is set.
func track(name string, fn func() error) error {
	if current.timer == nil {
		return fn()
	}
	return current.timer.Track(name, fn)
}
