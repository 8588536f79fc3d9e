package bling

import (
	"context"
	"fmt"
)

const DefaultPageSize = 100

// CollectPages requests pages 1, 2, ... one after another and concatenates
// them. It stops at the first page holding fewer than pageSize items, so a
// full last page costs one extra, empty request.
func CollectPages[T any](ctx context.Context, pageSize int, fetchPage func(ctx context.Context, page int) ([]T, error)) ([]T, error) {
	if pageSize < 1 {
		return nil, fmt.Errorf("invalid page size %d", pageSize)
	}

	var all []T
	for page := 1; ; page++ {
		items, err := fetchPage(ctx, page)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch page %d: %w", page, err)
		}
		all = append(all, items...)
		if len(items) < pageSize {
			return all, nil
		}
	}
}

// pageParams copies base and adds the upstream pagination parameters.
func pageParams(base Params, page, pageSize int) Params {
	p := make(Params, len(base)+2)
	for k, v := range base {
		p[k] = v
	}
	p["pagina"] = page
	p["limite"] = pageSize
	return p
}

// listResponse is the envelope of every Bling list endpoint.
type listResponse[T any] struct {
	Data []T `json:"data"`
}

// collectList pages through a list endpoint with the given filters.
func collectList[T any](ctx context.Context, getter Getter, endpoint string, filters Params, pageSize int) ([]T, error) {
	return CollectPages(ctx, pageSize, func(ctx context.Context, page int) ([]T, error) {
		var resp listResponse[T]
		if err := getter.Get(ctx, endpoint, pageParams(filters, page, pageSize), &resp); err != nil {
			return nil, err
		}
		return resp.Data, nil
	})
}
