package prof

import (
	"os"
	"path/filepath"
	"testing"
)

func TestStartDisabledIsNil(t *testing.T) {
	s, err := Start(Options{})
	if err != nil || s != nil {
		t.Fatalf("Start() = %v, %v", s, err)
	}
	if err := s.Stop(); err != nil {
		t.Fatalf("nil Stop: %v", err)
	}
}

func TestSessionWritesProfiles(t *testing.T) {
	dir := t.TempDir()
	opts := Options{
		CPU:          filepath.Join(dir, "cpu.pprof"),
		Mem:          filepath.Join(dir, "mem.pprof"),
		RuntimeTrace: filepath.Join(dir, "run.trace"),
	}
	s, err := Start(opts)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := s.Stop(); err != nil {
		t.Fatalf("stop: %v", err)
	}
	if err := s.Stop(); err != nil {
		t.Fatalf("second stop: %v", err)
	}
	for _, p := range []string{opts.CPU, opts.Mem, opts.RuntimeTrace} {
		if info, err := os.Stat(p); err != nil || info.Size() == 0 {
			t.Fatalf("%s not written: %v", p, err)
		}
	}
}

func TestStartBadPath(t *testing.T) {
	if _, err := Start(Options{CPU: filepath.Join(t.TempDir(), "missing", "cpu.pprof")}); err == nil {
		t.Fatalf("expected error for unwritable path")
	}
}
