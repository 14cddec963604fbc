package trace

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	sc := bufio.NewScanner(buf)
	for sc.Scan() {
		var m map[string]any
		if err := json.Unmarshal(sc.Bytes(), &m); err != nil {
			t.Fatalf("decode %q: %v", sc.Text(), err)
		}
		out = append(out, m)
	}
	return out
}

func TestParseLevel(t *testing.T) {
	for in, want := range map[string]Level{"off": LevelOff, "PHASE": LevelPhase, "detail": LevelDetail, "debug": LevelDebug} {
		got, err := ParseLevel(in)
		if err != nil || got != want {
			t.Fatalf("ParseLevel(%q) = %v, %v", in, got, err)
		}
	}
	if _, err := ParseLevel("loud"); err == nil {
		t.Fatalf("expected error for unknown level")
	}
}

func TestStreamTracerFiltersByScope(t *testing.T) {
	var buf bytes.Buffer
	tr := NewStreamTracer(&buf, LevelPhase, FormatNDJSON)

	root := Begin(tr, ScopeDriver, "index", 0)
	file := Begin(tr, ScopeFile, "index:/p/a.jiv", root.ID())
	if file.ID() != 0 {
		t.Fatalf("file scope should be filtered at phase level")
	}
	file.End("")
	root.WithExtra("files", "1").End("ok")

	lines := decodeLines(t, &buf)
	if len(lines) != 2 {
		t.Fatalf("expected begin and end of the root span, got %d lines", len(lines))
	}
	if lines[0]["kind"] != "begin" || lines[1]["kind"] != "end" {
		t.Fatalf("unexpected kinds: %v", lines)
	}
	if lines[1]["message"] != "index" || lines[1]["files"] != "1" || lines[1]["detail"] != "ok" {
		t.Fatalf("unexpected end event: %v", lines[1])
	}
}

func TestErrorsPassInertSpans(t *testing.T) {
	var buf bytes.Buffer
	tr := NewStreamTracer(&buf, LevelError, FormatNDJSON)
	span := Begin(tr, ScopeFile, "parse", 0)
	span.Error("parse", errors.New("boom"))
	span.End("")

	lines := decodeLines(t, &buf)
	if len(lines) != 1 || lines[0]["kind"] != "error" || lines[0]["detail"] != "boom" {
		t.Fatalf("expected a single error event, got %v", lines)
	}
}

func TestStartNestsSpans(t *testing.T) {
	var buf bytes.Buffer
	tr := NewStreamTracer(&buf, LevelDebug, FormatNDJSON)
	ctx := WithTracer(context.Background(), tr)

	ctx, outer := Start(ctx, ScopeDriver, "outer")
	_, inner := Start(ctx, ScopePass, "inner")
	inner.End("")
	outer.End("")

	lines := decodeLines(t, &buf)
	if len(lines) != 4 {
		t.Fatalf("expected 4 events, got %d", len(lines))
	}
	if got := uint64(lines[1]["parent"].(float64)); got != outer.ID() {
		t.Fatalf("inner parent = %d, want %d", got, outer.ID())
	}
}

func TestNewOffIsNop(t *testing.T) {
	tr, err := New(Config{Level: LevelOff})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if tr.Enabled() {
		t.Fatalf("LevelOff must disable tracing")
	}
	if FromContext(context.Background()) != Nop {
		t.Fatalf("empty context should yield Nop")
	}
}

func TestMultiTracerUsesHighestLevel(t *testing.T) {
	var a, b bytes.Buffer
	m := NewMultiTracer(NewStreamTracer(&a, LevelPhase, FormatNDJSON), NewStreamTracer(&b, LevelDebug, FormatNDJSON), nil)
	if m.Level() != LevelDebug {
		t.Fatalf("level = %v", m.Level())
	}
	Begin(m, ScopeFile, "f", 0).End("")
	if a.Len() != 0 || b.Len() == 0 {
		t.Fatalf("each tracer applies its own level: a=%q b=%q", a.String(), b.String())
	}
}

func TestOpenFansOutToEveryPath(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.ndjson")
	b := filepath.Join(dir, "b.log")
	tr, err := Open(LevelPhase, FormatText, a, b)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if _, ok := tr.(*MultiTracer); !ok {
		t.Fatalf("two outputs should yield a MultiTracer, got %T", tr)
	}
	Begin(tr, ScopeDriver, "index", 0).End("")
	if err := tr.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	for _, p := range []string{a, b} {
		data, err := os.ReadFile(p)
		if err != nil || !strings.Contains(string(data), "index") {
			t.Fatalf("%s: %q, %v", p, data, err)
		}
	}

	if _, err := Open(LevelPhase, FormatText, a, filepath.Join(dir, "missing", "c.log")); err == nil {
		t.Fatalf("expected error for unwritable output")
	}
}
