package parser

import (
	"context"
	"errors"
	"os/exec"
	"testing"
	"time"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"[]", "[]", true},
		{"  [1]\n", "[1]", true},
		{"", "", false},
		{"jaiva: file not found", "", false},
		{"[unterminated", "", false},
	}
	for _, tt := range tests {
		got, err := Validate([]byte(tt.in))
		if tt.ok {
			if err != nil || string(got) != tt.want {
				t.Fatalf("Validate(%q) = %q, %v", tt.in, got, err)
			}
			continue
		}
		if !errors.Is(err, ErrNotTokenTree) {
			t.Fatalf("Validate(%q) expected ErrNotTokenTree, got %v", tt.in, err)
		}
	}
}

func TestTreeWithFunc(t *testing.T) {
	p := Func(func(_ context.Context, path string) ([]byte, error) {
		if path != "/a.jiv" {
			t.Fatalf("unexpected path %q", path)
		}
		return []byte(`[{"type":"TNumberVar","name":"x","lineNumber":1,"value":1}]`), nil
	})
	nodes, raw, err := Tree(context.Background(), p, "/a.jiv")
	if err != nil {
		t.Fatalf("tree: %v", err)
	}
	if len(nodes) != 1 || len(raw) == 0 {
		t.Fatalf("unexpected result %d nodes, %d bytes", len(nodes), len(raw))
	}
}

func TestTreeDecodeError(t *testing.T) {
	p := Static{"/bad.jiv": `[{"type":"TStringVar","exportSymbol":"perhaps"}]`}
	_, raw, err := Tree(context.Background(), p, "/bad.jiv")
	if err == nil {
		t.Fatalf("expected decode error")
	}
	if len(raw) == 0 {
		t.Fatalf("raw output should be returned with decode errors")
	}
}

func TestStaticUnknownPathIsEmpty(t *testing.T) {
	out, err := Static{}.Parse(context.Background(), "/nope.jiv")
	if err != nil || string(out) != "[]" {
		t.Fatalf("got %q, %v", out, err)
	}
}

func TestExecNotFound(t *testing.T) {
	e := NewExec("jaiva-definitely-not-installed", nil, time.Second)
	_, err := e.Parse(context.Background(), "/a.jiv")
	if !errors.Is(err, ErrParserNotFound) {
		t.Fatalf("expected ErrParserNotFound, got %v", err)
	}
}

func TestExecRunsCommand(t *testing.T) {
	if _, err := exec.LookPath("echo"); err != nil {
		t.Skip("echo not available")
	}
	e := &Exec{Command: "echo", Timeout: 5 * time.Second}
	out, err := e.Parse(context.Background(), "[]")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if string(out) != "[]" {
		t.Fatalf("unexpected output %q", out)
	}
}

func TestNewExecDefaults(t *testing.T) {
	e := NewExec("", nil, 0)
	if e.Command != DefaultCommand || e.Timeout != DefaultTimeout || len(e.Args) != 1 || e.Args[0] != "-j" {
		t.Fatalf("unexpected defaults %+v", e)
	}
}
