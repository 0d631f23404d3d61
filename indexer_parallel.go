package pxp

import (
	"context"
	"errors"

	"golang.org/x/sync/errgroup"

	"github.com/pxp-lang/pxp-sub001/internal/entity"
	"github.com/pxp-lang/pxp-sub001/internal/index"
	"github.com/pxp-lang/pxp-sub001/internal/metrics"
)

// fileResult holds what one worker extracted from one file.
type fileResult struct {
	entities []*entity.FunctionEntity
	err      error
}

// indexParallel runs a two-phase pipeline:
//
//	Phase A (parallel): read, parse and visit files on a bounded worker pool.
//	Phase B (serial):   add entities to the Index in file order.
//
// Committing in file order keeps last-write-wins identical to the serial
// path regardless of which worker finishes first.
func (ix *Indexer) indexParallel(ctx context.Context, files []string, sink *index.Index) error {
	// ---- Phase A: Parallel extraction ----
	results := make([]fileResult, len(files))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(min(ix.workers, len(files)))
	for i, path := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			entities, err := ix.extract(gctx, path, nil)
			// Per-file failures are reported, not fatal to the run.
			results[i] = fileResult{entities: entities, err: err}
			return nil
		})
	}
	waitErr := g.Wait()

	// ---- Phase B: Serial commit ----
	var errs []error
	for _, res := range results {
		if res.err != nil {
			errs = append(errs, res.err)
			continue
		}
		for _, e := range res.entities {
			sink.AddFunction(e.QualifiedName, e)
		}
		metrics.FunctionsIndexed.Add(float64(len(res.entities)))
	}
	if waitErr != nil {
		errs = append(errs, waitErr)
	}
	return errors.Join(errs...)
}
