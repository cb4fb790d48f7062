package ops

import (
	"math"
	"sort"

	"github.com/starkdb/stark/bulk"
	"github.com/starkdb/stark/errs"
	"github.com/starkdb/stark/spatial"
	"github.com/starkdb/stark/stobject"
	"golang.org/x/sync/errgroup"
)

// KNNCandidate pairs an object with its distance to the query point.
type KNNCandidate struct {
	Object stobject.STObject
	Dist   float64
}

// BoundedTopK is the bounded top-k container of §4.7's KNN<k>: Insert
// appends while not full, otherwise replaces the current maximum iff
// the new distance is smaller; min/max indices are tracked and
// recomputed by linear scan whenever a replacement happens. Merge
// combines two accumulators and short-circuits when the receiver is
// already full and the other's minimum distance already exceeds the
// receiver's maximum.
type BoundedTopK struct {
	k              int
	dist           []float64
	vals           []stobject.STObject
	seq            []int
	nextSeq        int
	minIdx, maxIdx int
}

// NewBoundedTopK builds an empty bounded accumulator capped at k.
func NewBoundedTopK(k int) *BoundedTopK {
	return &BoundedTopK{k: k, minIdx: -1, maxIdx: -1}
}

// Full reports whether the accumulator holds k candidates already.
func (b *BoundedTopK) Full() bool { return len(b.dist) >= b.k }

// Max returns the current worst (largest) distance held, if any.
func (b *BoundedTopK) Max() (float64, bool) {
	if b.maxIdx < 0 {
		return 0, false
	}
	return b.dist[b.maxIdx], true
}

// Min returns the current best (smallest) distance held, if any.
func (b *BoundedTopK) Min() (float64, bool) {
	if b.minIdx < 0 {
		return 0, false
	}
	return b.dist[b.minIdx], true
}

// Insert folds one (distance, value) candidate into the accumulator.
func (b *BoundedTopK) Insert(d float64, v stobject.STObject) {
	if b.k <= 0 {
		return
	}
	if !b.Full() {
		b.dist = append(b.dist, d)
		b.vals = append(b.vals, v)
		b.seq = append(b.seq, b.nextSeq)
		b.nextSeq++
		b.recompute()
		return
	}
	maxD, _ := b.Max()
	if d < maxD {
		b.dist[b.maxIdx] = d
		b.vals[b.maxIdx] = v
		b.seq[b.maxIdx] = b.nextSeq
		b.nextSeq++
		b.recompute()
	}
}

func (b *BoundedTopK) recompute() {
	b.minIdx, b.maxIdx = 0, 0
	for i := 1; i < len(b.dist); i++ {
		if b.dist[i] < b.dist[b.minIdx] {
			b.minIdx = i
		}
		if b.dist[i] > b.dist[b.maxIdx] {
			b.maxIdx = i
		}
	}
}

// Merge folds other's candidates into b and returns b, per §9's "merge
// consumes one and returns the merged accumulator, avoiding aliasing."
func (b *BoundedTopK) Merge(other *BoundedTopK) *BoundedTopK {
	if b.Full() {
		bMax, _ := b.Max()
		if oMin, ok := other.Min(); ok && oMin > bMax {
			return b
		}
	}
	for i := range other.dist {
		b.Insert(other.dist[i], other.vals[i])
	}
	return b
}

// Sorted returns the held candidates ascending by distance, ties broken
// by insertion order.
func (b *BoundedTopK) Sorted() []KNNCandidate {
	idxs := make([]int, len(b.dist))
	for i := range idxs {
		idxs[i] = i
	}
	sort.SliceStable(idxs, func(i, j int) bool {
		if b.dist[idxs[i]] != b.dist[idxs[j]] {
			return b.dist[idxs[i]] < b.dist[idxs[j]]
		}
		return b.seq[idxs[i]] < b.seq[idxs[j]]
	})
	out := make([]KNNCandidate, len(idxs))
	for i, idx := range idxs {
		out[i] = KNNCandidate{Object: b.vals[idx], Dist: b.dist[idx]}
	}
	return out
}

// KNNConfig parametrizes the KNN operator.
type KNNConfig struct {
	K        int
	UseIndex bool
	Order    int
}

// KNN implements §4.7's two-pass design: a local top-k per partition
// (via a live R-tree's best-first search or a linear scan maintaining a
// BoundedTopK), then a global merge of every local list down to the k
// globally nearest.
func KNN(coll bulk.Collection[stobject.STObject], q stobject.STObject, cfg KNNConfig) ([]KNNCandidate, error) {
	if cfg.K <= 0 {
		return nil, errs.NewConfigError("k must be positive", map[string]any{"k": cfg.K})
	}
	qp := spatial.PointOf(q.Geom.Centroid())
	lists, err := localTopK(coll, qp, cfg)
	if err != nil {
		return nil, err
	}
	acc := NewBoundedTopK(cfg.K)
	for _, list := range lists {
		for _, c := range list {
			acc.Insert(c.Dist, c.Object)
		}
	}
	return acc.Sorted(), nil
}

func localTopK(coll bulk.Collection[stobject.STObject], qp spatial.NPoint, cfg KNNConfig) ([][]KNNCandidate, error) {
	n := coll.NumPartitions()
	out := make([][]KNNCandidate, n)
	var g errgroup.Group
	for i := 0; i < n; i++ {
		i := i
		g.Go(func() error {
			elems, err := collectPartition(coll, i)
			if err != nil {
				return err
			}
			if len(elems) == 0 {
				return nil
			}
			local := NewBoundedTopK(cfg.K)
			if cfg.UseIndex {
				idx, err := buildLiveIndex(elems, cfg.Order)
				if err != nil {
					return err
				}
				neighbors, err := idx.KNN(qp, cfg.K)
				if err != nil {
					return err
				}
				for _, nb := range neighbors {
					local.Insert(nb.Dist, nb.Payload.(stobject.STObject))
				}
			} else {
				for _, e := range elems {
					d := euclid(spatial.PointOf(e.Geom.Centroid()), qp)
					local.Insert(d, e)
				}
			}
			out[i] = local.Sorted()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func euclid(a, b spatial.NPoint) float64 {
	var sum float64
	for i := 0; i < a.Dim(); i++ {
		d := a[i] - b[i]
		sum += d * d
	}
	return math.Sqrt(sum)
}
