package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/rs/zerolog"
)

func TestReadColorMode(t *testing.T) {
	tests := []struct {
		in   string
		want colorMode
		err  bool
	}{
		{"", colorAuto, false},
		{" ON ", colorOn, false},
		{"off", colorOff, false},
		{"sometimes", "", true},
	}
	for _, tt := range tests {
		got, err := readColorMode(tt.in)
		if (err != nil) != tt.err || got != tt.want {
			t.Fatalf("readColorMode(%q) = %q, %v", tt.in, got, err)
		}
	}
}

func TestNewLoggerLevelIsLocal(t *testing.T) {
	var buf bytes.Buffer
	log, err := newLogger(&buf, "error", "json", false)
	if err != nil {
		t.Fatalf("newLogger: %v", err)
	}
	log.Warn().Msg("hidden")
	log.Error().Msg("shown")
	if strings.Contains(buf.String(), "hidden") || !strings.Contains(buf.String(), "shown") {
		t.Fatalf("unexpected output %q", buf.String())
	}
	if log.GetLevel() != zerolog.ErrorLevel {
		t.Fatalf("logger level = %v", log.GetLevel())
	}
	if _, err := newLogger(&buf, "loud", "json", false); err == nil {
		t.Fatalf("expected invalid level error")
	}
	if _, err := newLogger(&buf, "info", "xml", false); err == nil {
		t.Fatalf("expected invalid format error")
	}
}

func TestParseLine(t *testing.T) {
	if n, err := parseLine("12"); err != nil || n != 12 {
		t.Fatalf("parseLine = %d, %v", n, err)
	}
	for _, bad := range []string{"0", "-3", "x"} {
		if _, err := parseLine(bad); err == nil {
			t.Fatalf("parseLine(%q) should fail", bad)
		}
	}
}

func TestPrintTableAlignsWideRunes(t *testing.T) {
	color.NoColor = true
	var buf bytes.Buffer
	printTable(&buf, []string{"NAME", "KIND"}, [][]string{{"日本", "var"}, {"x", "function"}})
	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	want := []string{"NAME  KIND", "日本  var", "x     function"}
	if len(lines) != len(want) {
		t.Fatalf("got %q", lines)
	}
	for i := range want {
		if lines[i] != want[i] {
			t.Fatalf("line %d = %q, want %q", i, lines[i], want[i])
		}
	}
}

func TestRelPath(t *testing.T) {
	if got := relPath("/p", "/p/a/b.jiv"); got != "a/b.jiv" {
		t.Fatalf("relPath = %q", got)
	}
	if got := relPath("/p", "/q/c.jiv"); got != "/q/c.jiv" {
		t.Fatalf("relPath outside root = %q", got)
	}
}
