package convert

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// ForEachRow calls fn for every row in [0, rows), splitting the rows into
// contiguous bands, one per worker. fn must only write to its own row.
func ForEachRow(ctx context.Context, rows, workers int, fn func(y int) error) error {
	workers = max(1, min(workers, rows))
	band := (rows + workers - 1) / workers

	g, ctx := errgroup.WithContext(ctx)
	for start := 0; start < rows; start += band {
		end := min(start+band, rows)
		g.Go(func() error {
			for y := start; y < end; y++ {
				if err := ctx.Err(); err != nil {
					return err
				}
				if err := fn(y); err != nil {
					return err
				}
			}
			return nil
		})
	}
	return g.Wait()
}
