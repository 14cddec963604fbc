// Package parser obtains the token tree of a Jaiva file from the external `jaiva` CLI.
package parser

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"jaivals/internal/token"
)

var (
	// ErrParserNotFound means the configured parser command is not on PATH.
	ErrParserNotFound = errors.New("jaiva parser not found")
	// ErrNotTokenTree means the parser printed something other than a JSON array.
	ErrNotTokenTree = errors.New("parser output is not a token tree")
)

const (
	DefaultCommand = "jaiva"
	DefaultTimeout = 10 * time.Second
)

// DefaultArgs asks the parser for JSON output.
var DefaultArgs = []string{"-j"}

// Parser produces the raw JSON token tree of one file.
type Parser interface {
	Parse(ctx context.Context, path string) ([]byte, error)
}

// Func adapts a function to Parser.
type Func func(ctx context.Context, path string) ([]byte, error)

// Parse implements Parser.
func (f Func) Parse(ctx context.Context, path string) ([]byte, error) {
	return f(ctx, path)
}

// Exec runs `<Command> <path> <Args...>` and returns its standard output.
type Exec struct {
	Command string
	Args    []string
	Timeout time.Duration
}

// NewExec returns an Exec with defaults for empty fields.
func NewExec(command string, args []string, timeout time.Duration) *Exec {
	if command == "" {
		command = DefaultCommand
	}
	if args == nil {
		args = DefaultArgs
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Exec{Command: command, Args: args, Timeout: timeout}
}

// Parse implements Parser.
func (e *Exec) Parse(ctx context.Context, path string) ([]byte, error) {
	if e.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.Timeout)
		defer cancel()
	}
	args := append([]string{path}, e.Args...)
	cmd := exec.CommandContext(ctx, e.Command, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		if errors.Is(err, exec.ErrNotFound) {
			return nil, fmt.Errorf("%w: %q", ErrParserNotFound, e.Command)
		}
		if ctx.Err() != nil {
			return nil, fmt.Errorf("parse %s: %w", path, ctx.Err())
		}
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
		return nil, fmt.Errorf("parse %s: %w: %s", path, err, msg)
	}
	return Validate(out)
}

// Validate trims out and checks that it looks like a JSON array.
func Validate(out []byte) ([]byte, error) {
	trimmed := bytes.TrimSpace(out)
	if len(trimmed) == 0 || trimmed[0] != '[' || trimmed[len(trimmed)-1] != ']' {
		return nil, ErrNotTokenTree
	}
	return trimmed, nil
}

// Tree parses path and decodes the result. Raw is returned alongside for change detection.
func Tree(ctx context.Context, p Parser, path string) (nodes []token.Node, raw []byte, err error) {
	raw, err = p.Parse(ctx, path)
	if err != nil {
		return nil, nil, err
	}
	nodes, err = token.Decode(raw)
	if err != nil {
		return nil, raw, fmt.Errorf("decode %s: %w", path, err)
	}
	return nodes, raw, nil
}

// Static serves fixed parser output per path. Unknown paths yield an empty tree.
type Static map[string]string

// Parse implements Parser.
func (s Static) Parse(_ context.Context, path string) ([]byte, error) {
	out, ok := s[path]
	if !ok {
		return []byte("[]"), nil
	}
	return Validate([]byte(out))
}
