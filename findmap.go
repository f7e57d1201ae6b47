package docstore

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// MapFunc transforms a matched model into a result. Returning keep=false
// drops the model from the output.
type MapFunc[M, R any] func(ctx context.Context, m M) (R, bool, error)

// FindAndMap composes Find with a caller-supplied transform applied to each
// resulting model, collecting the kept results in candidate order. The map
// phase runs with bounded fan-out (capped by the shared in-flight limit);
// matching and concurrency semantics are exactly those of Find.
func FindAndMap[M, R any](ctx context.Context, c *Collection[M], q Lookup, opts *FindOptions, fn MapFunc[M, R]) ([]R, error) {
	models, err := c.Find(ctx, q, opts)
	if err != nil {
		return nil, err
	}

	results := make([]R, len(models))
	keep := make([]bool, len(models))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(int(c.res.InflightLimit()))

	for i, m := range models {
		g.Go(func() error {
			r, ok, err := fn(gctx, m)
			if err != nil {
				return err
			}
			results[i] = r
			keep[i] = ok
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make([]R, 0, len(models))
	for i := range models {
		if keep[i] {
			out = append(out, results[i])
		}
	}
	return out, nil
}
