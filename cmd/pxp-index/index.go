package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	pxp "github.com/pxp-lang/pxp-sub001"
	"github.com/pxp-lang/pxp-sub001/internal/config"
	"github.com/pxp-lang/pxp-sub001/internal/parsecache"
	"github.com/pxp-lang/pxp-sub001/internal/syntax"
)

const configFileName = config.FileName

type indexOptions struct {
	stubsRoot  string
	phpVersion string
	function   string
	list       bool
	workers    int
	noStubs    bool
}

func newIndexCmd(g *globalOptions) *cobra.Command {
	opts := &indexOptions{}
	cmd := &cobra.Command{
		Use:   "index [paths...]",
		Short: "Index function declarations",
		Long:  "Parses every .php and .pxp file under the given paths, plus the stub corpus of the active release, and reports the indexed functions.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return g.writeMetrics(runIndex(cmd, g, opts, args))
		},
	}
	cmd.Flags().StringVar(&opts.stubsRoot, "stubs", "", "stub root holding one directory per release (overrides config)")
	cmd.Flags().StringVar(&opts.phpVersion, "php-version", "", "active release, e.g. 8.3 (overrides config)")
	cmd.Flags().StringVar(&opts.function, "function", "", "print the entity for one fully qualified function name")
	cmd.Flags().BoolVar(&opts.list, "list", false, "print every indexed function")
	cmd.Flags().IntVar(&opts.workers, "workers", 0, "parallel workers (overrides config)")
	cmd.Flags().BoolVar(&opts.noStubs, "no-stubs", false, "do not index the stub corpus")
	return cmd
}

// loadConfig reads --config, or ./pxp-index.toml when it exists.
func loadConfig(g *globalOptions) (*config.Config, error) {
	path := g.configPath
	if path == "" {
		if _, err := os.Stat(configFileName); err == nil {
			path = configFileName
		}
	}
	return config.Load(path)
}

func runIndex(cmd *cobra.Command, g *globalOptions, opts *indexOptions, args []string) error {
	start := time.Now()
	cfg, err := loadConfig(g)
	if err != nil {
		return err
	}
	if opts.stubsRoot != "" {
		cfg.StubsRoot = opts.stubsRoot
	}
	if opts.phpVersion != "" {
		cfg.PHPVersion = opts.phpVersion
	}
	if opts.workers > 0 {
		cfg.Workers = opts.workers
	}

	stubsDir := ""
	if !opts.noStubs {
		stubsDir, err = cfg.StubsDir()
		if err != nil {
			return fmt.Errorf("php version: %w", err)
		}
	}

	parser, err := syntax.NewParser("php")
	if err != nil {
		return err
	}
	cache, err := parsecache.New(parser, cfg.Cache.MaxEntries)
	if err != nil {
		return err
	}
	indexer, err := pxp.New(stubsDir, cache,
		pxp.WithLogger(g.logger),
		pxp.WithWorkers(cfg.Workers),
		pxp.WithExclude(cfg.Exclude...),
	)
	if err != nil {
		return err
	}

	paths := args
	if len(paths) == 0 {
		paths = []string{"."}
	}
	idx, indexErr := indexer.Index(cmd.Context(), paths)

	out := cmd.OutOrStdout()
	switch {
	case opts.function != "":
		fn, ok := idx.Function(opts.function)
		if !ok {
			return errors.Join(indexErr, fmt.Errorf("function %q is not indexed", opts.function))
		}
		if err := outputResult(out, g.format, CLIResult{Command: "function", Results: toCLIFunction(fn)}); err != nil {
			return err
		}
	case opts.list:
		fns := make([]CLIFunction, 0, idx.Len())
		for _, fn := range idx.Functions() {
			fns = append(fns, toCLIFunction(fn))
		}
		if err := outputResult(out, g.format, CLIResult{Command: "list", Results: fns}); err != nil {
			return err
		}
	default:
		stats := indexer.CacheStats()
		summary := CLIIndexSummary{
			Paths:       paths,
			StubsDir:    stubsDir,
			PHPVersion:  cfg.PHPVersion,
			Functions:   idx.Len(),
			CacheHits:   stats.Hits,
			CacheMisses: stats.Misses,
			Elapsed:     time.Since(start).Round(time.Millisecond).String(),
		}
		if indexErr != nil {
			summary.Error = indexErr.Error()
		}
		if err := outputResult(out, g.format, CLIResult{Command: "index", Results: summary}); err != nil {
			return err
		}
	}
	return indexErr
}
