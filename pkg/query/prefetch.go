package query

import (
	"golang.org/x/sync/errgroup"
)

// prefetch materializes the right operand of every cartesian product
// concurrently, at most limit at a time. The product then replays those
// records for each left record instead of rescanning. The first failure
// cancels the remaining scans and is returned.
func (ex *execution) prefetch(limit int) error {
	var operands []*PlanNode
	ex.plan.Walk(func(n *PlanNode, _ int) {
		if n.Kind == OpCartesianProduct {
			operands = append(operands, n.Children[1])
		}
	})
	if len(operands) == 0 {
		return nil
	}

	g, ctx := errgroup.WithContext(ex.ctx)
	if limit > 0 {
		g.SetLimit(limit)
	}

	results := make([][]Record, len(operands))
	forks := make([]*execution, len(operands))
	for i, op := range operands {
		i, op := i, op
		forks[i] = ex.fork(ctx)
		g.Go(func() error {
			recs, err := forks[i].materialize(op)
			if err != nil {
				return err
			}
			results[i] = recs
			return nil
		})
	}

	err := g.Wait()
	for i, op := range operands {
		ex.absorb(forks[i])
		if err == nil {
			ex.prefetched[op] = results[i]
		}
	}
	return err
}
