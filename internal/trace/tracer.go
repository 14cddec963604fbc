package trace

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync/atomic"
)

// Tracer receives trace events. Implementations must be safe for concurrent use.
type Tracer interface {
	Emit(ev *Event)
	Flush() error
	Close() error
	Level() Level
	Enabled() bool
}

// Format selects the stream encoding.
type Format uint8

const (
	FormatText   Format = iota // zerolog console writer
	FormatNDJSON               // one JSON object per line
)

// ParseFormat converts a string to a Format.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "text", "console":
		return FormatText, nil
	case "ndjson", "json":
		return FormatNDJSON, nil
	default:
		return FormatText, fmt.Errorf("invalid trace format: %q (expected: text|ndjson)", s)
	}
}

// Config holds tracer configuration.
type Config struct {
	Level      Level
	Format     Format
	Output     io.Writer // takes precedence over OutputPath
	OutputPath string    // "-" or empty means stderr; a .ndjson suffix selects FormatNDJSON
}

// New creates a Tracer from cfg. LevelOff yields Nop.
func New(cfg Config) (Tracer, error) {
	if cfg.Level == LevelOff {
		return Nop, nil
	}
	format := cfg.Format
	if strings.HasSuffix(cfg.OutputPath, ".ndjson") {
		format = FormatNDJSON
	}
	w, err := openOutput(cfg)
	if err != nil {
		return nil, err
	}
	return NewStreamTracer(w, cfg.Level, format), nil
}

// Open creates one tracer per output path and fans out to all of them.
// No paths means stderr.
func Open(level Level, format Format, paths ...string) (Tracer, error) {
	if level == LevelOff {
		return Nop, nil
	}
	if len(paths) <= 1 {
		path := ""
		if len(paths) == 1 {
			path = paths[0]
		}
		return New(Config{Level: level, Format: format, OutputPath: path})
	}
	tracers := make([]Tracer, 0, len(paths))
	for _, p := range paths {
		tr, err := New(Config{Level: level, Format: format, OutputPath: p})
		if err != nil {
			for _, opened := range tracers {
				_ = opened.Close()
			}
			return nil, err
		}
		tracers = append(tracers, tr)
	}
	return NewMultiTracer(tracers...), nil
}

func openOutput(cfg Config) (io.Writer, error) {
	if cfg.Output != nil {
		return cfg.Output, nil
	}
	if cfg.OutputPath == "" || cfg.OutputPath == "-" {
		return os.Stderr, nil
	}
	f, err := os.Create(cfg.OutputPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open trace output: %w", err)
	}
	return f, nil
}

var (
	globalSeq   atomic.Uint64
	globalSpans atomic.Uint64
)

// NextSeq returns a monotonically increasing sequence number.
func NextSeq() uint64 { return globalSeq.Add(1) }

// NextSpanID returns a unique span ID.
func NextSpanID() uint64 { return globalSpans.Add(1) }
