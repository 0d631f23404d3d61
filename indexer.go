package pxp

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/gobwas/glob"

	"github.com/pxp-lang/pxp-sub001/internal/entity"
	"github.com/pxp-lang/pxp-sub001/internal/index"
	"github.com/pxp-lang/pxp-sub001/internal/metrics"
	"github.com/pxp-lang/pxp-sub001/internal/parsecache"
	"github.com/pxp-lang/pxp-sub001/internal/syntax"
	"github.com/pxp-lang/pxp-sub001/internal/visitor"
)

// Indexer walks source roots and builds an Index of every function
// declaration it finds. The stub corpus for the active release is always
// indexed after the caller's roots.
type Indexer struct {
	stubsDir string
	cache    *parsecache.Cache
	logger   *slog.Logger
	workers  int
	exclude  []glob.Glob

	excludePatterns []string
}

// Option configures an Indexer.
type Option func(*Indexer)

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(ix *Indexer) { ix.logger = l }
}

// WithWorkers sets how many files are parsed and visited concurrently.
// One or less selects the serial path. The default is runtime.NumCPU().
func WithWorkers(n int) Option {
	return func(ix *Indexer) { ix.workers = n }
}

// WithExclude skips files and directories matching any of the glob
// patterns. Patterns are matched against the slash-separated path relative
// to its root and against the base name.
func WithExclude(patterns ...string) Option {
	return func(ix *Indexer) { ix.excludePatterns = append(ix.excludePatterns, patterns...) }
}

// New creates an Indexer that always includes stubsDir and parses through
// cache. An empty stubsDir disables the implicit stub root.
func New(stubsDir string, cache *parsecache.Cache, opts ...Option) (*Indexer, error) {
	if cache == nil {
		return nil, errors.New("pxp: parse cache is required")
	}
	ix := &Indexer{
		stubsDir: stubsDir,
		cache:    cache,
		logger:   slog.Default(),
		workers:  runtime.NumCPU(),
	}
	for _, opt := range opts {
		opt(ix)
	}
	for _, p := range ix.excludePatterns {
		g, err := glob.Compile(p, '/')
		if err != nil {
			return nil, fmt.Errorf("pxp: invalid exclude pattern %q: %w", p, err)
		}
		ix.exclude = append(ix.exclude, g)
	}
	return ix, nil
}

// StubsDir returns the implicit stub root.
func (ix *Indexer) StubsDir() string { return ix.stubsDir }

// CacheStats reports parse cache activity across every run so far.
func (ix *Indexer) CacheStats() parsecache.Stats { return ix.cache.Stats() }

// Index indexes paths followed by the stub root and returns the populated
// Index.
//
// Roots are processed in the order given and files within a directory in
// lexical order; when a name is declared twice the later declaration wins.
// Files whose extension is not recognized are skipped. A file that fails to
// parse cleanly is still visited on the parser's best-effort tree.
//
// I/O failures do not stop the run: the Index is always returned, along
// with the joined errors of every path that could not be read.
func (ix *Indexer) Index(ctx context.Context, paths []string) (*Index, error) {
	start := time.Now()
	roots := ix.roots(paths)

	var errs []error
	var files []string
	for _, root := range roots {
		found, err := ix.discover(root)
		if err != nil {
			errs = append(errs, err)
		}
		ix.logger.Debug("discovered sources", "root", root, "files", len(found))
		files = append(files, found...)
	}

	result := index.New()
	var err error
	if ix.workers > 1 && len(files) > 1 {
		err = ix.indexParallel(ctx, files, result)
	} else {
		err = ix.indexSerial(ctx, files, result)
	}
	if err != nil {
		errs = append(errs, err)
	}

	ix.logger.Info("indexed",
		"roots", len(roots),
		"files", len(files),
		"functions", result.Len(),
		"errors", len(errs),
		"elapsed", time.Since(start))
	return result, errors.Join(errs...)
}

// IndexFile indexes a single file into a fresh Index, without the stub root.
func (ix *Indexer) IndexFile(ctx context.Context, path string) (*Index, error) {
	result := index.New()
	if err := ix.indexFile(ctx, path, result); err != nil {
		return result, err
	}
	return result, nil
}

// roots cleans paths and appends the stub root unless it is already listed.
func (ix *Indexer) roots(paths []string) []string {
	roots := make([]string, 0, len(paths)+1)
	seen := make(map[string]bool, len(paths)+1)
	for _, p := range paths {
		p = filepath.Clean(p)
		if seen[p] {
			continue
		}
		seen[p] = true
		roots = append(roots, p)
	}
	if ix.stubsDir != "" {
		if stubs := filepath.Clean(ix.stubsDir); !seen[stubs] {
			roots = append(roots, stubs)
		}
	}
	return roots
}

// discover lists the files to index under root. A root naming a single file
// is returned as is. A root that is a symlink is walked through its target;
// reported paths keep the root as written. Unreadable directories are
// reported and skipped.
func (ix *Indexer) discover(root string) ([]string, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("pxp: %w", err)
	}
	if !info.IsDir() {
		return []string{root}, nil
	}
	walkRoot, err := filepath.EvalSymlinks(root)
	if err != nil {
		return nil, fmt.Errorf("pxp: resolve %s: %w", root, err)
	}

	var files []string
	var errs []error
	err = filepath.WalkDir(walkRoot, func(path string, d fs.DirEntry, err error) error {
		path = underRoot(root, walkRoot, path)
		if err != nil {
			errs = append(errs, fmt.Errorf("pxp: walk %s: %w", path, err))
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if path != root && ix.excluded(root, path) {
			ix.logger.Debug("excluded", "path", path)
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() || !syntax.IsSource(path) {
			return nil
		}
		files = append(files, path)
		return nil
	})
	if err != nil {
		errs = append(errs, fmt.Errorf("pxp: walk %s: %w", root, err))
	}
	return files, errors.Join(errs...)
}

// underRoot rewrites a path found under walkRoot to the same path under root.
func underRoot(root, walkRoot, path string) string {
	if root == walkRoot {
		return path
	}
	rel, err := filepath.Rel(walkRoot, path)
	if err != nil {
		return path
	}
	return filepath.Join(root, rel)
}

func (ix *Indexer) excluded(root, path string) bool {
	if len(ix.exclude) == 0 {
		return false
	}
	rel, err := filepath.Rel(root, path)
	if err != nil {
		rel = path
	}
	rel = filepath.ToSlash(rel)
	base := filepath.Base(path)
	for _, g := range ix.exclude {
		if g.Match(rel) || g.Match(base) {
			return true
		}
	}
	return false
}

func (ix *Indexer) indexSerial(ctx context.Context, files []string, sink *index.Index) error {
	var errs []error
	for _, path := range files {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		if err := ix.indexFile(ctx, path, sink); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (ix *Indexer) indexFile(ctx context.Context, path string, sink visitor.Sink) error {
	entities, err := ix.extract(ctx, path, sink)
	if err != nil {
		return err
	}
	metrics.FunctionsIndexed.Add(float64(len(entities)))
	return nil
}

// extract reads, parses and visits one file. A nil sink only collects.
func (ix *Indexer) extract(ctx context.Context, path string, sink visitor.Sink) ([]*entity.FunctionEntity, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("pxp: read %s: %w", path, err)
	}

	dialect, ok := syntax.DialectForFile(path)
	if !ok {
		dialect = "php"
	}
	start := time.Now()
	tree, err := ix.cache.Parse(ctx, src)
	if err != nil {
		return nil, fmt.Errorf("pxp: parse %s: %w", path, err)
	}
	metrics.ParseDuration.WithLabelValues(dialect).Observe(time.Since(start).Seconds())
	metrics.FilesIndexed.Inc()

	if tree.HasErrors() {
		metrics.ParseDefects.Add(float64(len(tree.Errors())))
		ix.logger.Debug("syntax errors", "path", path, "errors", len(tree.Errors()), "first", tree.Errors()[0].Error())
	}

	return visitor.Visit(tree, entity.File{Path: path}, sink), nil
}
