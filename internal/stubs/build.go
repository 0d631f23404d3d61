package stubs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/pxp-lang/pxp-sub001/internal/metrics"
	"github.com/pxp-lang/pxp-sub001/internal/syntax"
	"github.com/pxp-lang/pxp-sub001/internal/version"
)

// ErrOverlap reports a Build whose output would read or replace its own
// source.
var ErrOverlap = errors.New("stubs: output overlaps source")

// VersionDir is the directory holding the corpus for v under root.
func VersionDir(root string, v version.Version) string {
	return filepath.Join(root, v.String())
}

// Report summarizes a Build.
type Report struct {
	Files    int
	Versions []VersionReport
}

// VersionReport summarizes the corpus written for one version.
type VersionReport struct {
	Version  version.Version
	Dir      string
	Changed  int
	Removed  int
	Stripped int
}

type builder struct {
	markers Markers
	logger  *slog.Logger
	diff    io.Writer
	workers int
}

// BuildOption configures Build.
type BuildOption func(*builder)

// WithMarkers sets the attribute names treated as version markers.
func WithMarkers(m Markers) BuildOption {
	return func(b *builder) { b.markers = m }
}

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(l *slog.Logger) BuildOption {
	return func(b *builder) { b.logger = l }
}

// WithDiff writes a unified diff of every changed file to w.
func WithDiff(w io.Writer) BuildOption {
	return func(b *builder) { b.diff = w }
}

// WithWorkers bounds how many files are parsed and filtered at once.
func WithWorkers(n int) BuildOption {
	return func(b *builder) { b.workers = n }
}

type filtered struct {
	rel     string
	source  []byte
	results []Result // one per version
}

// Build filters every source file under srcDir for each version and writes
// the results to outDir/<version>/, mirroring the layout of srcDir. Each
// version directory is replaced wholesale.
//
// Files are parsed and filtered in parallel; output is written serially in
// lexical path order.
func Build(ctx context.Context, parser syntax.Parser, srcDir, outDir string, versions []version.Version, opts ...BuildOption) (*Report, error) {
	b := &builder{
		markers: DefaultMarkers,
		logger:  slog.Default(),
		workers: runtime.NumCPU(),
	}
	for _, opt := range opts {
		opt(b)
	}
	if len(versions) == 0 {
		return nil, fmt.Errorf("stubs: build: no versions given")
	}
	if err := checkLayout(srcDir, outDir, versions); err != nil {
		return nil, err
	}

	paths, err := listSources(srcDir)
	if err != nil {
		return nil, err
	}
	b.logger.Info("filtering stub corpus", "src", srcDir, "files", len(paths), "versions", len(versions))

	// ---- Parse and filter (parallel) ----
	files := make([]filtered, len(paths))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(b.workers, 1))
	for i, path := range paths {
		g.Go(func() error {
			f, err := b.filterFile(gctx, parser, srcDir, path, versions)
			if err != nil {
				return err
			}
			files[i] = f
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	// ---- Write (serial) ----
	report := &Report{Files: len(files)}
	for j, v := range versions {
		vr, err := b.writeVersion(outDir, v, files, j)
		if err != nil {
			return nil, err
		}
		report.Versions = append(report.Versions, vr)
		b.logger.Info("wrote stub corpus", "version", v.String(), "dir", vr.Dir,
			"changed", vr.Changed, "removed", vr.Removed, "stripped", vr.Stripped)
	}
	return report, nil
}

func (b *builder) filterFile(ctx context.Context, parser syntax.Parser, srcDir, path string, versions []version.Version) (filtered, error) {
	rel, err := filepath.Rel(srcDir, path)
	if err != nil {
		return filtered{}, fmt.Errorf("stubs: relative path %s: %w", path, err)
	}
	src, err := os.ReadFile(path)
	if err != nil {
		return filtered{}, fmt.Errorf("stubs: read %s: %w", rel, err)
	}
	tree, err := parser.Parse(ctx, src)
	if err != nil {
		return filtered{}, fmt.Errorf("stubs: parse %s: %w", rel, err)
	}
	if tree.HasErrors() {
		b.logger.Warn("stub file has syntax errors", "file", rel, "errors", len(tree.Errors()))
	}

	f := filtered{rel: rel, source: src, results: make([]Result, len(versions))}
	for j, v := range versions {
		res, err := Filter(tree, v, b.markers)
		if err != nil {
			return filtered{}, fmt.Errorf("stubs: %s: %w", rel, err)
		}
		for _, name := range res.Removed {
			b.logger.Debug("removed declaration", "file", rel, "version", v.String(), "decl", name)
		}
		f.results[j] = res
	}
	return f, nil
}

func (b *builder) writeVersion(outDir string, v version.Version, files []filtered, j int) (VersionReport, error) {
	dir := VersionDir(outDir, v)
	vr := VersionReport{Version: v, Dir: dir}

	if err := os.RemoveAll(dir); err != nil {
		return vr, fmt.Errorf("stubs: clear %s: %w", dir, err)
	}
	for _, f := range files {
		res := f.results[j]
		dst := filepath.Join(dir, f.rel)
		if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
			return vr, fmt.Errorf("stubs: create %s: %w", filepath.Dir(dst), err)
		}
		if err := os.WriteFile(dst, res.Source, 0o644); err != nil {
			return vr, fmt.Errorf("stubs: write %s: %w", dst, err)
		}

		vr.Removed += len(res.Removed)
		vr.Stripped += res.Stripped
		if !res.Changed() {
			continue
		}
		vr.Changed++
		if b.diff != nil {
			name := filepath.ToSlash(filepath.Join(v.String(), f.rel))
			if _, err := io.WriteString(b.diff, Diff(name, f.source, res.Source)); err != nil {
				return vr, fmt.Errorf("stubs: write diff: %w", err)
			}
		}
	}
	metrics.StubDeclarationsRemoved.WithLabelValues(v.String()).Add(float64(vr.Removed))
	metrics.StubMarkersStripped.WithLabelValues(v.String()).Add(float64(vr.Stripped))
	return vr, nil
}

// listSources returns the source files under root in lexical order, skipping
// hidden directories.
func listSources(root string) ([]string, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("stubs: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("stubs: %s is not a directory", root)
	}

	var paths []string
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != root && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if syntax.IsSource(path) {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("stubs: walk %s: %w", root, err)
	}
	return paths, nil
}

// checkLayout rejects an outDir at or under srcDir, and a srcDir inside one
// of the version directories Build replaces.
func checkLayout(srcDir, outDir string, versions []version.Version) error {
	src, err := canonical(srcDir)
	if err != nil {
		return err
	}
	out, err := canonical(outDir)
	if err != nil {
		return err
	}
	if within(src, out) {
		return fmt.Errorf("%w: %s is inside %s", ErrOverlap, outDir, srcDir)
	}
	for _, v := range versions {
		if within(VersionDir(out, v), src) {
			return fmt.Errorf("%w: %s is inside %s", ErrOverlap, srcDir, VersionDir(outDir, v))
		}
	}
	return nil
}

// canonical returns the absolute path with symlinks resolved as far as the
// path exists.
func canonical(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("stubs: %w", err)
	}
	rest := ""
	for dir := abs; ; dir = filepath.Dir(dir) {
		if resolved, err := filepath.EvalSymlinks(dir); err == nil {
			return filepath.Join(resolved, rest), nil
		}
		if parent := filepath.Dir(dir); parent == dir {
			return abs, nil
		}
		rest = filepath.Join(filepath.Base(dir), rest)
	}
}

// within reports whether path is parent or below it.
func within(parent, path string) bool {
	rel, err := filepath.Rel(parent, path)
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}
