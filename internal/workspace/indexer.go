package workspace

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"sync"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"jaivals/internal/hover"
	"jaivals/internal/libcache"
	"jaivals/internal/parser"
	projectpkg "jaivals/internal/project"
	"jaivals/internal/project/dag"
	"jaivals/internal/symbols"
	"jaivals/internal/token"
	"jaivals/internal/trace"
)

// DefaultInclude matches Jaiva sources.
const DefaultInclude = "**/*.{jiv,jaiva,jva}"

// Options configures an Indexer.
type Options struct {
	// Include and Exclude are doublestar patterns relative to the project root.
	Include []string
	Exclude []string
	// Jobs bounds parallel parser invocations; zero means GOMAXPROCS.
	Jobs int
	// Parser produces token trees. Nil runs the default external parser.
	Parser parser.Parser
	// Policy decides which imports are skipped. Nil means symbols.DefaultImportPolicy.
	Policy *symbols.ImportPolicy
	Hover  hover.Renderer
	Logger *zerolog.Logger
	// Sink receives progress events of IndexProject. Nil discards them.
	Sink ProgressSink
}

// Result describes the indexing of one file.
type Result struct {
	Path      string
	Records   int
	Unchanged bool // the token tree matched the published one and nothing was rebuilt
	Err       error
	Elapsed   time.Duration
}

// Summary describes an IndexProject run.
type Summary struct {
	Root    string
	Files   []Result // in build order
	Cycles  []string // files on import cycles, built last
	Elapsed time.Duration
}

// Failed returns the results that carry an error.
func (s *Summary) Failed() []Result {
	var out []Result
	for _, r := range s.Files {
		if r.Err != nil {
			out = append(out, r)
		}
	}
	return out
}

// Indexer parses files, builds their indexes against the registry and publishes them.
// Safe for concurrent use; builds that depend on each other should go through
// IndexProject or Reindex so imports are published first.
type Indexer struct {
	opts Options
	log  zerolog.Logger
	reg  *Registry

	mu      sync.RWMutex
	prelude *symbols.Index
	render  hover.Renderer
}

// New returns an Indexer publishing into a fresh Registry.
func New(opts Options) *Indexer {
	if len(opts.Include) == 0 {
		opts.Include = []string{DefaultInclude}
	}
	if opts.Policy == nil {
		opts.Policy = symbols.DefaultImportPolicy()
	}
	if opts.Parser == nil {
		opts.Parser = parser.NewExec("", nil, 0)
	}
	ix := &Indexer{
		opts:    opts,
		log:     zerolog.Nop(),
		reg:     NewRegistry(),
		prelude: symbols.NewIndex(),
		render:  opts.Hover,
	}
	if opts.Logger != nil {
		ix.log = opts.Logger.With().Str("component", "workspace").Logger()
	}
	return ix
}

// Registry returns the registry the indexer publishes into.
func (ix *Indexer) Registry() *Registry { return ix.reg }

// SetLibrary publishes the library indexes and makes their union the prelude
// merged into every file built afterwards.
func (ix *Indexer) SetLibrary(set *libcache.Set) {
	ix.reg.PublishLibraries(set)
	prelude := set.Prelude()
	ix.mu.Lock()
	ix.prelude = prelude
	ix.mu.Unlock()
}

// SetHover changes the renderer used by later builds. Published indexes keep
// their text until RebuildAll.
func (ix *Indexer) SetHover(r hover.Renderer) {
	ix.mu.Lock()
	ix.render = r
	ix.mu.Unlock()
}

// RebuildAll re-parses and rebuilds every published source file.
func (ix *Indexer) RebuildAll(ctx context.Context) ([]Result, error) {
	return ix.rebuild(ctx, ix.reg.Paths(), nil)
}

// Lookup returns the published index of path.
func (ix *Indexer) Lookup(path string) (*symbols.Index, bool) {
	return ix.reg.Lookup(path)
}

// IndexFile parses path and publishes its index. An unchanged token tree keeps the
// published index. Parser failures publish an empty index and are reported in Result.Err;
// only context errors are returned.
func (ix *Indexer) IndexFile(ctx context.Context, path string) (Result, error) {
	return ix.indexFile(ctx, path, false)
}

// IndexWithImports indexes path after every unpublished file it transitively
// imports, so a single-file query sees imported symbols. Results are in build order.
func (ix *Indexer) IndexWithImports(ctx context.Context, path string) ([]Result, error) {
	var (
		paths []string
		raws  [][]byte
		errs  []error
	)
	seen := map[string]bool{path: true}
	queue := []string{path}
	for len(queue) > 0 {
		p := queue[0]
		queue = queue[1:]
		raw, perr := ix.parse(ctx, p)
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		paths = append(paths, p)
		raws = append(raws, raw)
		errs = append(errs, perr)
		for _, dep := range ix.imports(p, token.DecodeLenient(raw)) {
			if seen[dep] {
				continue
			}
			seen[dep] = true
			if _, ok := ix.reg.Lookup(dep); ok {
				continue
			}
			if info, err := os.Stat(dep); err != nil || info.IsDir() {
				continue
			}
			queue = append(queue, dep)
		}
	}

	order, _ := ix.order(paths, raws)
	results := make([]Result, 0, len(order))
	for _, i := range order {
		res := ix.Publish(paths[i], raws[i], false)
		if errs[i] != nil {
			res.Err = errs[i]
		}
		results = append(results, res)
	}
	return results, nil
}

func (ix *Indexer) indexFile(ctx context.Context, path string, force bool) (Result, error) {
	raw, perr := ix.parse(ctx, path)
	if err := ctx.Err(); err != nil {
		return Result{Path: path}, err
	}
	res := ix.Publish(path, raw, force)
	if perr != nil {
		res.Err = perr
	}
	return res, nil
}

func (ix *Indexer) parse(ctx context.Context, path string) ([]byte, error) {
	if ix.opts.Parser == nil {
		return nil, errors.New("no parser configured")
	}
	_, span := trace.Start(ctx, trace.ScopeFile, "parse:"+path)
	raw, err := ix.opts.Parser.Parse(ctx, path)
	if err == nil {
		raw, err = parser.Validate(raw)
	}
	if err != nil {
		span.Error("parse", err)
		span.End("failed")
		ix.log.Warn().Err(err).Str("file", path).Msg("parser failed, indexing as empty")
		return nil, err
	}
	span.End("")
	return raw, nil
}

// Publish builds the index of path from a raw token tree and publishes it.
// Unless force is set, a tree identical to the published one is not rebuilt.
// Malformed trees degrade to an empty index.
func (ix *Indexer) Publish(path string, raw []byte, force bool) Result {
	start := time.Now()
	digest := projectpkg.Sum(raw)
	if prev, ok := ix.reg.Entry(path); ok && !force && !prev.Digest.IsZero() && prev.Digest == digest {
		return Result{Path: path, Records: symbols.Count(prev.Index), Unchanged: true, Elapsed: time.Since(start)}
	}

	nodes, err := token.Decode(raw)
	if err != nil {
		ix.log.Warn().Err(err).Str("file", path).Msg("malformed token tree, indexing as empty")
		nodes = nil
	}
	ix.mu.RLock()
	prelude, render := ix.prelude, ix.render
	ix.mu.RUnlock()
	idx := symbols.Build(nodes, symbols.BuilderOptions{
		File:   path,
		Table:  ix.reg,
		Policy: ix.opts.Policy,
		Hover:  render,
		Logger: &ix.log,
	})
	idx.AddAll(prelude)

	ix.reg.Publish(Entry{
		Path:    path,
		Index:   idx,
		Digest:  digest,
		Imports: ix.imports(path, nodes),
	})
	res := Result{Path: path, Records: symbols.Count(idx), Err: err, Elapsed: time.Since(start)}
	ix.log.Debug().Str("file", path).Int("records", res.Records).Dur("elapsed", res.Elapsed).Msg("indexed")
	return res
}

// imports returns the resolved non-reserved import targets of nodes, deduplicated.
func (ix *Indexer) imports(path string, nodes []token.Node) []string {
	var out []string
	for _, imp := range token.Imports(nodes) {
		if ix.opts.Policy.Reserved(imp.FilePath) {
			continue
		}
		target := symbols.ResolveImportPath(path, imp.FilePath)
		if target != "" && !slices.Contains(out, target) {
			out = append(out, target)
		}
	}
	return out
}

// Forget removes path and rebuilds the files that imported it.
func (ix *Indexer) Forget(ctx context.Context, path string) ([]Result, error) {
	dependents := ix.reg.Importers(path)
	if !ix.reg.Remove(path) {
		return nil, nil
	}
	return ix.rebuild(ctx, dependents, nil)
}

// Reindex re-parses paths and rebuilds them together with every file importing
// them, dependencies first. Files in paths are rebuilt only when their tree changed;
// importers are always rebuilt.
func (ix *Indexer) Reindex(ctx context.Context, paths ...string) ([]Result, error) {
	changed := make(map[string]bool, len(paths))
	for _, p := range paths {
		changed[p] = true
	}
	all := append(slices.Clone(paths), ix.reg.Importers(paths...)...)
	return ix.rebuild(ctx, all, changed)
}

func (ix *Indexer) rebuild(ctx context.Context, paths []string, changed map[string]bool) ([]Result, error) {
	if len(paths) == 0 {
		return nil, nil
	}
	raws, parseErrs, err := ix.parseAll(ctx, paths)
	if err != nil {
		return nil, err
	}
	order, _ := ix.order(paths, raws)
	results := make([]Result, 0, len(order))
	for _, i := range order {
		res := ix.Publish(paths[i], raws[i], !changed[paths[i]])
		if parseErrs[i] != nil {
			res.Err = parseErrs[i]
		}
		results = append(results, res)
	}
	return results, nil
}

// Discover returns the absolute paths under root matching Include and not Exclude, sorted.
func (ix *Indexer) Discover(root string) ([]string, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", root, err)
	}
	fsys := os.DirFS(abs)
	var out []string
	for _, pattern := range ix.opts.Include {
		matches, err := doublestar.Glob(fsys, pattern)
		if err != nil {
			return nil, fmt.Errorf("include pattern %q: %w", pattern, err)
		}
		for _, rel := range matches {
			excluded, err := ix.excluded(rel)
			if err != nil {
				return nil, err
			}
			if excluded {
				continue
			}
			if info, err := os.Stat(filepath.Join(abs, filepath.FromSlash(rel))); err != nil || info.IsDir() {
				continue
			}
			out = append(out, filepath.Join(abs, filepath.FromSlash(rel)))
		}
	}
	slices.Sort(out)
	return slices.Compact(out), nil
}

func (ix *Indexer) excluded(rel string) (bool, error) {
	for _, pattern := range ix.opts.Exclude {
		ok, err := doublestar.Match(pattern, rel)
		if err != nil {
			return false, fmt.Errorf("exclude pattern %q: %w", pattern, err)
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}

// Accepts reports whether path is a source file of the project rooted at root.
func (ix *Indexer) Accepts(root, path string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil || !filepath.IsLocal(rel) {
		return false
	}
	rel = filepath.ToSlash(rel)
	if excluded, err := ix.excluded(rel); err != nil || excluded {
		return false
	}
	for _, pattern := range ix.opts.Include {
		if ok, _ := doublestar.Match(pattern, rel); ok {
			return true
		}
	}
	return false
}

// IndexProject discovers, parses and indexes every source file under root.
// Files are built after the files they import; import cycles are built last in path order.
// Per-file failures are reported in the summary; only discovery and context errors are returned.
func (ix *Indexer) IndexProject(ctx context.Context, root string) (*Summary, error) {
	start := time.Now()
	ctx, span := trace.Start(ctx, trace.ScopeDriver, "index-project")
	defer span.End("")

	emit(ix.opts.Sink, Event{Stage: StageDiscover, Status: StatusWorking})
	paths, err := ix.Discover(root)
	if err != nil {
		emit(ix.opts.Sink, Event{Stage: StageDiscover, Status: StatusError, Err: err})
		return nil, err
	}
	for _, p := range paths {
		emit(ix.opts.Sink, Event{File: p, Stage: StageDiscover, Status: StatusQueued})
	}
	emit(ix.opts.Sink, Event{Stage: StageDiscover, Status: StatusDone, Elapsed: time.Since(start)})
	span.WithExtra("files", fmt.Sprint(len(paths)))

	raws, parseErrs, err := ix.parseAll(ctx, paths)
	if err != nil {
		return nil, err
	}

	_, buildSpan := trace.Start(ctx, trace.ScopePass, "build")
	order, cycles := ix.order(paths, raws)
	summary := &Summary{Root: root, Files: make([]Result, 0, len(order))}
	for _, i := range cycles {
		summary.Cycles = append(summary.Cycles, paths[i])
	}
	if len(summary.Cycles) > 0 {
		ix.log.Warn().Strs("files", summary.Cycles).Msg("import cycle, building in path order")
	}

	emit(ix.opts.Sink, Event{Stage: StageIndex, Status: StatusWorking})
	for _, i := range order {
		if err := ctx.Err(); err != nil {
			buildSpan.End("canceled")
			return nil, err
		}
		p := paths[i]
		emit(ix.opts.Sink, Event{File: p, Stage: StageIndex, Status: StatusWorking})
		res := ix.Publish(p, raws[i], true)
		if parseErrs[i] != nil {
			res.Err = parseErrs[i]
		}
		status := StatusDone
		if res.Err != nil {
			status = StatusError
		}
		emit(ix.opts.Sink, Event{File: p, Stage: StageIndex, Status: status, Err: res.Err, Records: res.Records, Elapsed: res.Elapsed})
		summary.Files = append(summary.Files, res)
	}
	buildSpan.End("")
	summary.Elapsed = time.Since(start)
	emit(ix.opts.Sink, Event{Stage: StageIndex, Status: StatusDone, Elapsed: summary.Elapsed})
	ix.log.Info().Str("root", root).Int("files", len(paths)).Dur("elapsed", summary.Elapsed).Msg("project indexed")
	return summary, nil
}

// parseAll runs the parser over paths in parallel. Per-file failures are returned
// positionally and leave an empty tree; the error is only set on cancellation.
func (ix *Indexer) parseAll(ctx context.Context, paths []string) ([][]byte, []error, error) {
	ctx, span := trace.Start(ctx, trace.ScopePass, "parse")
	defer span.End("")

	raws := make([][]byte, len(paths))
	errs := make([]error, len(paths))
	g, gctx := errgroup.WithContext(ctx)
	jobs := ix.opts.Jobs
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}
	g.SetLimit(jobs)
	for i, p := range paths {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			emit(ix.opts.Sink, Event{File: p, Stage: StageParse, Status: StatusWorking})
			started := time.Now()
			raw, err := ix.parse(gctx, p)
			if ctxErr := gctx.Err(); ctxErr != nil {
				return ctxErr
			}
			raws[i], errs[i] = raw, err
			if err != nil {
				emit(ix.opts.Sink, Event{File: p, Stage: StageParse, Status: StatusError, Err: err, Elapsed: time.Since(started)})
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return raws, errs, nil
}

// order returns the build order of paths, and the files on import cycles, as
// positions into paths.
func (ix *Indexer) order(paths []string, raws [][]byte) (order, cycles []int) {
	nodes := make([]dag.FileNode, len(paths))
	for i, p := range paths {
		tree := token.DecodeLenient(raws[i])
		nodes[i] = dag.FileNode{Path: p, Imports: ix.imports(p, tree)}
	}
	idx := dag.BuildIndex(nodes)
	topo := dag.ToposortKahn(dag.BuildGraph(idx, nodes))

	pos := make(map[string]int, len(paths))
	for i, p := range paths {
		pos[p] = i
	}
	order = make([]int, 0, len(paths))
	for _, id := range topo.BuildOrder() {
		if i, ok := pos[idx.IDToPath[id]]; ok {
			order = append(order, i)
		}
	}
	for _, id := range topo.Cycles {
		if i, ok := pos[idx.IDToPath[id]]; ok {
			cycles = append(cycles, i)
		}
	}
	return order, cycles
}
