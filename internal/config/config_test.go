package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func writeConfig(t *testing.T, dir, body string) string {
	t.Helper()
	path := filepath.Join(dir, "jaivals.toml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, `
[parser]
command = "/opt/jaiva/bin/jaiva"
timeout = "2s"

[index]
exclude = ["vendor/**"]
jobs = 3

[library]
dir = "lib"
format = "msgpack"
cache = "cache/lib.mp"

[imports]
reserved = ["jaiva", "std"]

[hover]
max_string_length = 32

[watch]
enabled = true
debounce = "150ms"
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Parser.Command != "/opt/jaiva/bin/jaiva" || cfg.Parser.Timeout.Duration != 2*time.Second {
		t.Fatalf("parser section not applied: %+v", cfg.Parser)
	}
	if diff := cmp.Diff([]string{"-j"}, cfg.Parser.Args); diff != "" {
		t.Fatalf("unset keys keep defaults (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{DefaultInclude}, cfg.Index.Include); diff != "" {
		t.Fatalf("(-want +got):\n%s", diff)
	}
	if cfg.Index.Jobs != 3 || cfg.Hover.MaxStringLength != 32 || !cfg.Watch.Enabled {
		t.Fatalf("unexpected values %+v", cfg)
	}
	if cfg.Watch.Debounce.Duration != 150*time.Millisecond {
		t.Fatalf("unexpected debounce %v", cfg.Watch.Debounce)
	}
	if cfg.Library.Dir != filepath.Join(cfg.Root, "lib") || cfg.Library.Cache != filepath.Join(cfg.Root, "cache", "lib.mp") {
		t.Fatalf("library paths not resolved against the root: %+v", cfg.Library)
	}
	if !cfg.ImportPolicy().Reserved("std/io.jiv") {
		t.Fatalf("configured namespaces should be reserved")
	}
	if cfg.HoverRenderer().MaxStringLength != 32 {
		t.Fatalf("renderer ignores [hover]")
	}
	if p := cfg.NewParser(); p.Timeout != 2*time.Second {
		t.Fatalf("parser ignores [parser].timeout")
	}
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	path := writeConfig(t, t.TempDir(), `
[parser]
command = "jaiva"
colour = "blue"

[extra]
x = 1
`)
	_, err := Load(path)
	if err == nil {
		t.Fatalf("expected unknown key error")
	}
	if !strings.Contains(err.Error(), "parser.colour") || !strings.Contains(err.Error(), "extra") {
		t.Fatalf("error should name the keys, got %v", err)
	}
}

func TestLoadValidates(t *testing.T) {
	cases := []string{
		"[hover]\nmax_string_length = 0\n",
		"[index]\njobs = -1\n",
		"[parser]\ncommand = \"  \"\n",
		"[library]\nformat = \"yaml\"\n",
		"[parser]\ntimeout = \"soon\"\n",
	}
	for _, body := range cases {
		if _, err := Load(writeConfig(t, t.TempDir(), body)); err == nil {
			t.Fatalf("expected error for %q", body)
		}
	}
}

func TestDiscover(t *testing.T) {
	root := t.TempDir()
	nested := filepath.Join(root, "src", "deep")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	cfg, err := Discover(nested)
	if err != nil {
		t.Fatalf("discover defaults: %v", err)
	}
	if cfg.Path != "" || cfg.Root != nested {
		t.Fatalf("without a config the start dir is the root, got %+v", cfg)
	}
	if cfg.Library.Cache != filepath.Join(nested, "lib.json") {
		t.Fatalf("default cache should live in the root, got %q", cfg.Library.Cache)
	}

	writeConfig(t, root, "[hover]\nmax_string_length = 8\n")
	cfg, err = Discover(nested)
	if err != nil {
		t.Fatalf("discover: %v", err)
	}
	if cfg.Root != root || cfg.Hover.MaxStringLength != 8 {
		t.Fatalf("expected config from %s, got %+v", root, cfg)
	}
}
