// Package config loads jaivals.toml.
package config

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"jaivals/internal/hover"
	"jaivals/internal/libcache"
	"jaivals/internal/parser"
	"jaivals/internal/project"
	"jaivals/internal/symbols"
)

// Duration decodes TOML strings such as "300ms".
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(strings.TrimSpace(string(text)))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

type Parser struct {
	Command string   `toml:"command"`
	Args    []string `toml:"args"`
	Timeout Duration `toml:"timeout"`
}

type Index struct {
	Include []string `toml:"include"`
	Exclude []string `toml:"exclude"`
	Jobs    int      `toml:"jobs"`
}

type Library struct {
	Dir    string   `toml:"dir"`
	Files  []string `toml:"files"`
	Cache  string   `toml:"cache"`
	Format string   `toml:"format"`
}

type Imports struct {
	Reserved []string `toml:"reserved"`
}

type Hover struct {
	MaxStringLength int `toml:"max_string_length"`
}

type Watch struct {
	Enabled  bool     `toml:"enabled"`
	Debounce Duration `toml:"debounce"`
}

// Config is the decoded jaivals.toml.
type Config struct {
	Parser  Parser  `toml:"parser"`
	Index   Index   `toml:"index"`
	Library Library `toml:"library"`
	Imports Imports `toml:"imports"`
	Hover   Hover   `toml:"hover"`
	Watch   Watch   `toml:"watch"`

	// Path is the file the config was read from; empty for defaults.
	Path string `toml:"-"`
	// Root is the project root: the config directory, or the start directory without one.
	Root string `toml:"-"`
}

// DefaultInclude matches Jaiva sources.
const DefaultInclude = "**/*.{jiv,jaiva,jva}"

// Default returns the configuration used without a jaivals.toml.
func Default() Config {
	return Config{
		Parser: Parser{
			Command: parser.DefaultCommand,
			Args:    append([]string(nil), parser.DefaultArgs...),
			Timeout: Duration{parser.DefaultTimeout},
		},
		Index: Index{Include: []string{DefaultInclude}},
		Library: Library{
			Files: append([]string(nil), libcache.DefaultFiles...),
			Cache: libcache.DefaultCacheFile,
		},
		Imports: Imports{Reserved: append([]string(nil), symbols.DefaultReservedNamespaces...)},
		Hover:   Hover{MaxStringLength: hover.DefaultMaxStringLength},
		Watch:   Watch{Debounce: Duration{300 * time.Millisecond}},
	}
}

// Load decodes path on top of the defaults. Unknown keys are an error.
func Load(path string) (Config, error) {
	cfg := Default()
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		sort.Strings(keys)
		return Config{}, fmt.Errorf("%s: unknown keys: %s", path, strings.Join(keys, ", "))
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to resolve %s: %w", path, err)
	}
	cfg.Path = abs
	cfg.Root = filepath.Dir(abs)
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	cfg.resolvePaths()
	return cfg, nil
}

// Discover loads the nearest jaivals.toml above startDir, or the defaults rooted at startDir.
func Discover(startDir string) (Config, error) {
	path, ok, err := project.FindConfig(startDir)
	if err != nil {
		return Config{}, err
	}
	if ok {
		return Load(path)
	}
	root, _, err := project.FindProjectRoot(startDir)
	if err != nil {
		return Config{}, err
	}
	cfg := Default()
	cfg.Root = root
	cfg.resolvePaths()
	return cfg, nil
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Parser.Command) == "" {
		return fmt.Errorf("[parser].command must not be empty")
	}
	if c.Parser.Timeout.Duration < 0 {
		return fmt.Errorf("[parser].timeout must not be negative")
	}
	if c.Index.Jobs < 0 {
		return fmt.Errorf("[index].jobs must not be negative")
	}
	if c.Hover.MaxStringLength <= 0 {
		return fmt.Errorf("[hover].max_string_length must be positive")
	}
	if _, err := libcache.FormatFor(c.Library.Cache, c.Library.Format); err != nil {
		return fmt.Errorf("[library].format: %w", err)
	}
	return nil
}

// resolvePaths makes library paths absolute relative to Root.
func (c *Config) resolvePaths() {
	if c.Root == "" {
		return
	}
	if c.Library.Dir != "" && !filepath.IsAbs(c.Library.Dir) {
		c.Library.Dir = filepath.Join(c.Root, c.Library.Dir)
	}
	if c.Library.Cache != "" && !filepath.IsAbs(c.Library.Cache) {
		c.Library.Cache = filepath.Join(c.Root, c.Library.Cache)
	}
}

// HoverRenderer returns the renderer configured by [hover].
func (c *Config) HoverRenderer() hover.Renderer {
	return hover.Renderer{MaxStringLength: c.Hover.MaxStringLength}
}

// ImportPolicy returns the policy configured by [imports].
func (c *Config) ImportPolicy() *symbols.ImportPolicy {
	return symbols.NewImportPolicy(c.Imports.Reserved...)
}

// NewParser returns the parser configured by [parser].
func (c *Config) NewParser() *parser.Exec {
	return parser.NewExec(c.Parser.Command, c.Parser.Args, c.Parser.Timeout.Duration)
}
