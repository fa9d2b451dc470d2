package converter

import (
	"context"

	"github.com/ginjaninja78/hoshuko-library-tools/internal/types"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// RunBatch runs every path through the pipeline with at most limit runs in
// flight. Runs are independent: a failed file does not stop the others.
// Results are returned in the order of paths. Files not yet started when ctx
// is cancelled report ctx.Err().
func (c *Converter) RunBatch(ctx context.Context, paths []string, mode types.Mode, limit int) []Result {
	results := make([]Result, len(paths))
	if limit < 1 {
		limit = 1
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	for i, path := range paths {
		i, path := i, path
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				results[i] = Result{FilePath: path, Mode: mode, Error: err}
				return nil
			}
			results[i] = c.Run(path, mode)
			return nil
		})
	}

	// Workers never return an error; failures live in each Result.
	_ = g.Wait()

	failed := 0
	for _, r := range results {
		if !r.Success {
			failed++
		}
	}
	c.logger.Info("batch complete",
		zap.Stringer("mode", mode),
		zap.Int("files", len(paths)),
		zap.Int("failed", failed),
	)

	return results
}
