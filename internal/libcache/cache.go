package libcache

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"jaivals/internal/hover"
	"jaivals/internal/parser"
	"jaivals/internal/symbols"
	"jaivals/internal/token"
)

// DefaultCacheFile is the cache file name used when none is configured.
const DefaultCacheFile = "lib.json"

// Options configures a Cache.
type Options struct {
	// Path of the cache file.
	Path string
	// Format of the cache file; empty infers it from Path.
	Format Format
	// Dir holds the library sources.
	Dir string
	// Files are the library file names under Dir.
	Files []string
	// Parser produces token trees for library files other than convert.jiv.
	Parser parser.Parser
	Hover  hover.Renderer
	Logger *zerolog.Logger
	// Jobs bounds parallel parser invocations; zero means GOMAXPROCS.
	Jobs int
}

// Cache owns the on-disk library cache. Safe for concurrent use.
type Cache struct {
	mu   sync.RWMutex
	opts Options
	log  zerolog.Logger
}

// New returns a Cache. The format is resolved from the path when not set.
func New(opts Options) (*Cache, error) {
	if opts.Path == "" {
		opts.Path = DefaultCacheFile
	}
	f, err := FormatFor(opts.Path, string(opts.Format))
	if err != nil {
		return nil, err
	}
	opts.Format = f
	if opts.Files == nil {
		opts.Files = DefaultFiles
	}
	c := &Cache{opts: opts, log: zerolog.Nop()}
	if opts.Logger != nil {
		c.log = opts.Logger.With().Str("component", "libcache").Logger()
	}
	return c, nil
}

// Path returns the cache file path.
func (c *Cache) Path() string { return c.opts.Path }

// LibraryPath returns the absolute path a library file is published under.
func (c *Cache) LibraryPath(file string) string {
	p := filepath.Join(c.opts.Dir, file)
	if abs, err := filepath.Abs(p); err == nil {
		return abs
	}
	return p
}

// Load reads the cache file. A missing file reports (nil, false, nil).
func (c *Cache) Load() (*Set, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	f, err := os.Open(c.opts.Path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, false, nil
		}
		return nil, false, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, false, err
	}
	if info.Size() == 0 {
		return nil, false, nil
	}
	set, err := Decode(f, c.opts.Format)
	if err != nil {
		return nil, false, fmt.Errorf("load %s: %w", c.opts.Path, err)
	}
	return set, true, nil
}

// Save writes set atomically: it is encoded to a temp file that replaces the cache.
func (c *Cache) Save(set *Set) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	dir := filepath.Dir(c.opts.Path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	f, err := os.CreateTemp(dir, "tmp-lib-*")
	if err != nil {
		return err
	}
	tmp := f.Name()
	defer func() {
		if rmErr := os.Remove(tmp); rmErr != nil && !errors.Is(rmErr, os.ErrNotExist) {
			c.log.Warn().Err(rmErr).Str("tmp", tmp).Msg("failed to remove temp file")
		}
	}()

	if err := Encode(f, set, c.opts.Format); err != nil {
		_ = f.Close()
		return fmt.Errorf("encode %s: %w", c.opts.Path, err)
	}
	if err := f.Close(); err != nil {
		return err
	}
	return os.Rename(tmp, c.opts.Path)
}

// Build parses every library file and returns the normalized set.
// Files that fail to parse are logged and left out.
func (c *Cache) Build(ctx context.Context) (*Set, error) {
	type result struct {
		path string
		idx  *symbols.Index
	}
	results := make([]result, len(c.opts.Files))

	g, gctx := errgroup.WithContext(ctx)
	jobs := c.opts.Jobs
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}
	g.SetLimit(jobs)

	for i, file := range c.opts.Files {
		g.Go(func() error {
			path := c.LibraryPath(file)
			nodes, err := c.tree(gctx, file, path)
			if err != nil {
				if ctxErr := gctx.Err(); ctxErr != nil {
					return ctxErr
				}
				c.log.Warn().Err(err).Str("file", path).Msg("skipping library file")
				return nil
			}
			results[i] = result{path: path, idx: BuildIndex(nodes, path, c.opts.Hover)}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	set := NewSet()
	for _, r := range results {
		if r.idx != nil {
			set.Put(r.path, r.idx)
		}
	}
	return set, nil
}

func (c *Cache) tree(ctx context.Context, file, path string) ([]token.Node, error) {
	if file == ConvertFile {
		return convertTree(), nil
	}
	if c.opts.Parser == nil {
		return nil, errors.New("no parser configured")
	}
	nodes, _, err := parser.Tree(ctx, c.opts.Parser, path)
	return nodes, err
}

// BuildIndex indexes a library tree as globals and normalizes it.
// Top-level declarations are moved to the global line so hovers read "(global)".
func BuildIndex(nodes []token.Node, path string, render hover.Renderer) *symbols.Index {
	for _, n := range nodes {
		if n != nil {
			n.Head().Line = token.GlobalLine
		}
	}
	idx := symbols.Build(nodes, symbols.BuilderOptions{File: path, Hover: render})
	return Normalize(idx)
}

// GetOrCreate loads the cache unless force is set or the cache is missing, empty or stale,
// in which case the libraries are rebuilt and the cache rewritten.
func (c *Cache) GetOrCreate(ctx context.Context, force bool) (*Set, error) {
	if !force {
		set, ok, err := c.Load()
		switch {
		case err != nil:
			c.log.Warn().Err(err).Str("cache", c.opts.Path).Msg("library cache unreadable, rebuilding")
		case ok:
			return set, nil
		}
	}
	set, err := c.Build(ctx)
	if err != nil {
		return nil, err
	}
	if err := c.Save(set); err != nil {
		return nil, fmt.Errorf("save %s: %w", c.opts.Path, err)
	}
	c.log.Info().Str("cache", c.opts.Path).Int("libraries", set.Len()).Msg("library cache updated")
	return set, nil
}
