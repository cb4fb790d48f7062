// Package ops implements the partition-pruning spatial filter, join,
// k-NN, and skyline operators of §4.5-§4.8: pure compositions over the
// rtree, spatial, and stobject primitives, dispatched against the
// stobject.Predicate tagged variant per §9's design note. No operator
// here owns shared mutable state across goroutines beyond what bulk's
// TaskContext and the per-call accumulators already isolate.
package ops

import (
	"github.com/starkdb/stark/bulk"
	"github.com/starkdb/stark/errs"
	"github.com/starkdb/stark/rtree"
	"github.com/starkdb/stark/spatial"
	"github.com/starkdb/stark/stobject"
)

// errInterrupted builds the InterruptedError an operator returns when
// it observes cancellation at an element-emission boundary, per §5.
func errInterrupted() error {
	return errs.NewInterruptedError("operator cancelled", nil)
}

// defaultOrder mirrors rtree.DefaultOrder for callers that pass order<=0.
const defaultOrder = rtree.DefaultOrder

// buildLiveIndex assembles a live (task-scoped) R-tree over elems, the
// kind §9's glossary describes as "built on demand inside an operator
// task; discarded when the task ends."
func buildLiveIndex(elems []stobject.STObject, order int) (*rtree.Index, error) {
	idx := rtree.NewLiveIndex(order)
	for _, e := range elems {
		if err := idx.Insert(spatial.RangeOf(e.Geom.Envelope()), e); err != nil {
			return nil, err
		}
	}
	if err := idx.Build(); err != nil {
		return nil, err
	}
	return idx, nil
}

// inflate grows a range by d on every side, used by WITHIN_DISTANCE
// pruning and probing per §4.5/§4.6.
func inflate(r spatial.NRectRange, d float64) spatial.NRectRange {
	ll := make(spatial.NPoint, r.Dim())
	ur := make(spatial.NPoint, r.Dim())
	for i := 0; i < r.Dim(); i++ {
		ll[i] = r.LL[i] - d
		ur[i] = r.UR[i] + d
	}
	out, err := spatial.NewNRectRange(ll, ur)
	if err != nil {
		// d is always >= 0 and r is already a valid range, so ll<=ur
		// cannot fail; a panic here would indicate a caller bug passing
		// a negative maxDist, not a data error.
		panic(err)
	}
	return out
}

// collectPartition drains partition id of coll into a slice, via the
// cancellable per-partition Iterator §6 requires every operator use
// rather than a direct slice accessor.
func collectPartition[T any](coll bulk.Collection[T], id int) ([]T, error) {
	it, err := coll.Iterator(id, nil)
	if err != nil {
		return nil, err
	}
	var out []T
	for {
		item, ok, err := it.Next()
		if err != nil {
			return nil, err
		}
		if !ok {
			return out, nil
		}
		out = append(out, item)
	}
}
