package main

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"jaivals/internal/config"
	"jaivals/internal/libcache"
	"jaivals/internal/parser"
	"jaivals/internal/workspace"
)

// loadConfig reads --config, or discovers jaivals.toml upwards from startDir,
// and applies the --parser and --jobs overrides.
func loadConfig(cmd *cobra.Command, startDir string) (config.Config, error) {
	pf := cmd.Root().PersistentFlags()
	path, err := pf.GetString("config")
	if err != nil {
		return config.Config{}, fmt.Errorf("failed to get config flag: %w", err)
	}

	var cfg config.Config
	if path != "" {
		cfg, err = config.Load(path)
	} else {
		cfg, err = config.Discover(startDir)
	}
	if err != nil {
		return config.Config{}, err
	}

	if pf.Changed("parser") {
		command, err := pf.GetString("parser")
		if err != nil {
			return config.Config{}, fmt.Errorf("failed to get parser flag: %w", err)
		}
		cfg.Parser.Command = command
	}
	if pf.Changed("jobs") {
		jobs, err := pf.GetInt("jobs")
		if err != nil {
			return config.Config{}, fmt.Errorf("failed to get jobs flag: %w", err)
		}
		cfg.Index.Jobs = jobs
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	current.log.Debug().Str("config", cfg.Path).Str("root", cfg.Root).Msg("configuration loaded")
	return cfg, nil
}

func newLibraryCache(cfg config.Config, p parser.Parser) (*libcache.Cache, error) {
	return libcache.New(libcache.Options{
		Path:   cfg.Library.Cache,
		Format: libcache.Format(cfg.Library.Format),
		Dir:    cfg.Library.Dir,
		Files:  cfg.Library.Files,
		Parser: p,
		Hover:  cfg.HoverRenderer(),
		Logger: &current.log,
		Jobs:   cfg.Index.Jobs,
	})
}

// newIndexer builds the workspace indexer for cfg and loads the library
// prelude. A library failure is logged; files are still indexed without it.
func newIndexer(ctx context.Context, cfg config.Config, sink workspace.ProgressSink) (*workspace.Indexer, error) {
	p := cfg.NewParser()
	ix := workspace.New(workspace.Options{
		Include: cfg.Index.Include,
		Exclude: cfg.Index.Exclude,
		Jobs:    cfg.Index.Jobs,
		Parser:  p,
		Policy:  cfg.ImportPolicy(),
		Hover:   cfg.HoverRenderer(),
		Logger:  &current.log,
		Sink:    sink,
	})

	cache, err := newLibraryCache(cfg, p)
	if err != nil {
		return nil, err
	}
	var set *libcache.Set
	err = track("library", func() error {
		var buildErr error
		set, buildErr = cache.GetOrCreate(ctx, false)
		return buildErr
	})
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		current.log.Warn().Err(err).Str("cache", cache.Path()).Msg("library symbols unavailable")
		return ix, nil
	}
	ix.SetLibrary(set)
	return ix, nil
}

// fileArg resolves a file argument and loads the configuration around it.
func fileArg(cmd *cobra.Command, arg string) (string, config.Config, error) {
	path, err := filepath.Abs(arg)
	if err != nil {
		return "", config.Config{}, err
	}
	cfg, err := loadConfig(cmd, filepath.Dir(path))
	if err != nil {
		return "", config.Config{}, err
	}
	return path, cfg, nil
}
