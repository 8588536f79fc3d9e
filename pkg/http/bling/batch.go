package bling

import (
	"context"
	"fmt"

	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"
)

// MapInBatches applies fn to every item, running up to size calls at once.
// Chunks run one after another; the next chunk starts only when the whole
// previous chunk has finished. Results keep the order of items. The first
// error cancels the running chunk and is returned.
func MapInBatches[T, R any](ctx context.Context, items []T, size int, fn func(ctx context.Context, item T) (R, error)) ([]R, error) {
	if size < 1 {
		return nil, fmt.Errorf("invalid batch size %d", size)
	}

	results := make([]R, 0, len(items))
	for _, chunk := range lo.Chunk(items, size) {
		out := make([]R, len(chunk))
		g, gctx := errgroup.WithContext(ctx)
		for i, item := range chunk {
			g.Go(func() error {
				r, err := fn(gctx, item)
				if err != nil {
					return err
				}
				out[i] = r
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
		results = append(results, out...)
	}
	return results, nil
}
