package engine

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// BatchItem is the outcome of one source in a batch.
type BatchItem struct {
	Source Source
	Result *Result
	Err    error
}

// AnalyzeAll analyses sources concurrently, at most Concurrency at a time.
// A failing source does not stop the others; its error is reported in its
// item. Items keep the order of sources. The returned error is only set when
// ctx is cancelled.
func (e *Engine) AnalyzeAll(ctx context.Context, sources []Source) ([]BatchItem, error) {
	items := make([]BatchItem, len(sources))

	eg, egctx := errgroup.WithContext(ctx)
	eg.SetLimit(e.cfg.Concurrency)

	for i, src := range sources {
		items[i].Source = src
		eg.Go(func() error {
			if err := egctx.Err(); err != nil {
				items[i].Err = err
				return err
			}
			items[i].Result, items[i].Err = e.Analyze(egctx, src)
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return items, err
	}
	return items, nil
}
