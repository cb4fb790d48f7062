package ops

import (
	"sync"

	"github.com/starkdb/stark/bulk"
	"github.com/starkdb/stark/spatial"
	"github.com/starkdb/stark/stobject"
	"golang.org/x/sync/errgroup"
)

// JoinPair is one matched (left, right) pair emitted by Join.
type JoinPair struct {
	Left  stobject.STObject
	Right stobject.STObject
}

// JoinConfig parametrizes Join per §4.6.
type JoinConfig struct {
	Predicate   stobject.Predicate
	MaxDist     float64
	Custom      func(a, b stobject.STObject) bool // overrides Predicate when set
	Partitioner spatial.Partitioner                // normalizes both sides when non-nil
	OneToMany   bool
	UseIndex    bool
	Order       int
}

func (cfg JoinConfig) holds(a, b stobject.STObject) bool {
	if cfg.Custom != nil {
		return cfg.Custom(a, b)
	}
	return a.Holds(cfg.Predicate, b, cfg.MaxDist)
}

// Join implements §4.6: partition-pair enumeration pruned by extent
// intersection, per-pair R-tree probing when UseIndex is set, and the
// exact predicate applied to survivors. The oneToMany flag is a
// scheduling hint the spec uses to avoid redundant right-side reads
// when the two sides share a partitioner; this implementation already
// groups results by left partition id regardless of the flag (see
// DESIGN.md), so OneToMany only documents intent here rather than
// changing the enumeration.
func Join(left, right bulk.Collection[stobject.STObject], cfg JoinConfig) (bulk.Collection[JoinPair], error) {
	l, err := normalize(left, cfg.Partitioner)
	if err != nil {
		return nil, err
	}
	r, err := normalize(right, cfg.Partitioner)
	if err != nil {
		return nil, err
	}

	tasks := enumeratePairs(l, r)

	resultsByLeft := make([][]JoinPair, l.NumPartitions())
	var mu sync.Mutex
	var g errgroup.Group
	for _, t := range tasks {
		t := t
		g.Go(func() error {
			lElems, err := collectPartition(l, t.lp)
			if err != nil {
				return err
			}
			rElems, err := collectPartition(r, t.rp)
			if err != nil {
				return err
			}
			pairs, err := computePair(lElems, rElems, cfg)
			if err != nil {
				return err
			}
			if len(pairs) == 0 {
				return nil
			}
			mu.Lock()
			resultsByLeft[t.lp] = append(resultsByLeft[t.lp], pairs...)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return bulk.FromPartitions(resultsByLeft, nil), nil
}

func normalize(coll bulk.Collection[stobject.STObject], p spatial.Partitioner) (bulk.Collection[stobject.STObject], error) {
	if p == nil || coll.Partitioner() == p {
		return coll, nil
	}
	return coll.PartitionBy(p, func(o stobject.STObject) spatial.Keyed { return o })
}

type pairTask struct{ lp, rp int }

// enumeratePairs keeps pair (lp, rp) iff either side lacks a spatial
// partitioner or their extents intersect, per §4.6's default pairing
// rule.
func enumeratePairs(l, r bulk.Collection[stobject.STObject]) []pairTask {
	lp, rp := l.Partitioner(), r.Partitioner()
	var tasks []pairTask
	for i := 0; i < l.NumPartitions(); i++ {
		for j := 0; j < r.NumPartitions(); j++ {
			if lp != nil && rp != nil {
				if lp.IsEmpty(uint32(i)) || rp.IsEmpty(uint32(j)) {
					continue
				}
				if !lp.PartitionExtent(uint32(i)).Intersects(rp.PartitionExtent(uint32(j))) {
					continue
				}
			}
			tasks = append(tasks, pairTask{lp: i, rp: j})
		}
	}
	return tasks
}

func computePair(lElems, rElems []stobject.STObject, cfg JoinConfig) ([]JoinPair, error) {
	if len(lElems) == 0 || len(rElems) == 0 {
		return nil, nil
	}
	if !cfg.UseIndex {
		return bruteForcePairs(lElems, rElems, cfg), nil
	}
	if len(lElems) <= len(rElems) {
		idx, err := buildLiveIndex(lElems, cfg.Order)
		if err != nil {
			return nil, err
		}
		return probeIndex(idx, rElems, cfg, true)
	}
	idx, err := buildLiveIndex(rElems, cfg.Order)
	if err != nil {
		return nil, err
	}
	return probeIndex(idx, lElems, cfg, false)
}

func bruteForcePairs(lElems, rElems []stobject.STObject, cfg JoinConfig) []JoinPair {
	var out []JoinPair
	for _, l := range lElems {
		for _, r := range rElems {
			if cfg.holds(l, r) {
				out = append(out, JoinPair{Left: l, Right: r})
			}
		}
	}
	return out
}

// probeIndex probes an index built over one side with every element of
// the other side. indexIsLeft reports whether the indexed side is the
// join's left side, so JoinPair's Left/Right fields come out the right
// way around regardless of which side was smaller.
func probeIndex(idx interface {
	Query(spatial.NRectRange) ([]interface{}, error)
}, otherElems []stobject.STObject, cfg JoinConfig, indexIsLeft bool) ([]JoinPair, error) {
	var out []JoinPair
	for _, other := range otherElems {
		env := spatial.RangeOf(other.Geom.Envelope())
		if cfg.Custom == nil && cfg.Predicate == stobject.WithinDistance {
			env = inflate(env, cfg.MaxDist)
		}
		candidates, err := idx.Query(env)
		if err != nil {
			return nil, err
		}
		for _, c := range candidates {
			cand := c.(stobject.STObject)
			var l, r stobject.STObject
			if indexIsLeft {
				l, r = cand, other
			} else {
				l, r = other, cand
			}
			if cfg.holds(l, r) {
				out = append(out, JoinPair{Left: l, Right: r})
			}
		}
	}
	return out, nil
}
