package ops

import (
	"github.com/starkdb/stark/bulk"
	"github.com/starkdb/stark/spatial"
	"github.com/starkdb/stark/stobject"
)

// FilterConfig parametrizes Filter per §4.5.
type FilterConfig struct {
	Predicate stobject.Predicate
	MaxDist   float64 // only consulted for stobject.WithinDistance
	UseIndex  bool    // build a live per-partition R-tree before scanning
	Order     int     // R-tree fanout when UseIndex is set
}

// Filter implements §4.5: partitions whose extent is incompatible with
// q's envelope under the predicate are skipped entirely; surviving
// partitions are probed (if UseIndex) or scanned in full, then the
// exact composed predicate from stobject is applied to every candidate.
func Filter(coll bulk.Collection[stobject.STObject], q stobject.STObject, cfg FilterConfig) (bulk.Collection[stobject.STObject], error) {
	qEnv := spatial.RangeOf(q.Geom.Envelope())
	part := coll.Partitioner()
	return coll.MapPartitionsWithIndex(func(ctx *bulk.TaskContext, id int, elems []stobject.STObject) ([]stobject.STObject, error) {
		if part != nil {
			if part.IsEmpty(uint32(id)) {
				return nil, nil
			}
			if !partitionSurvivesFilter(part.PartitionExtent(uint32(id)), qEnv, cfg.Predicate, cfg.MaxDist) {
				return nil, nil
			}
		}
		candidates := elems
		if cfg.UseIndex {
			idx, err := buildLiveIndex(elems, cfg.Order)
			if err != nil {
				return nil, err
			}
			queryEnv := qEnv
			if cfg.Predicate == stobject.WithinDistance {
				queryEnv = inflate(qEnv, cfg.MaxDist)
			}
			payloads, err := idx.Query(queryEnv)
			if err != nil {
				return nil, err
			}
			candidates = make([]stobject.STObject, len(payloads))
			for i, p := range payloads {
				candidates[i] = p.(stobject.STObject)
			}
		}
		var out []stobject.STObject
		for _, e := range candidates {
			if ctx.Interrupted() {
				return nil, errInterrupted()
			}
			if e.Holds(cfg.Predicate, q, cfg.MaxDist) {
				out = append(out, e)
			}
		}
		return out, nil
	})
}

// partitionSurvivesFilter implements §4.5's partition pruning rules.
func partitionSurvivesFilter(extent, qEnv spatial.NRectRange, pred stobject.Predicate, maxDist float64) bool {
	switch pred {
	case stobject.Intersects, stobject.Covers, stobject.Contains:
		return extent.Intersects(qEnv)
	case stobject.WithinDistance:
		return extent.Intersects(inflate(qEnv, maxDist))
	case stobject.ContainedBy, stobject.CoveredBy:
		return qEnv.ContainsRange(extent) || extent.Intersects(qEnv)
	default:
		return true
	}
}
