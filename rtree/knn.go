package rtree

import (
	"math"

	"github.com/starkdb/stark/errs"
	"github.com/starkdb/stark/spatial"
	"github.com/tidwall/tinyqueue"
)

// Neighbor pairs a payload with its MINDIST to the query point. KNN
// returns neighbors in non-decreasing Dist order.
type Neighbor struct {
	Payload interface{}
	Dist    float64
}

// qItem is the tinyqueue element: either an unexpanded node or a leaf
// entry already resolved to its final distance, the same dual-purpose
// queue item the teacher's knn.go pushes (node vs. isItem).
type qItem struct {
	n    *node
	e    *entry
	dist float64
}

func (q *qItem) Less(other tinyqueue.Item) bool {
	return q.dist < other.(*qItem).dist
}

// minDist is the MINDIST of a point to a rectangle, per §4.4's
// best-first kNN search.
func minDist(p spatial.NPoint, r spatial.NRectRange) float64 {
	var sum float64
	for i := 0; i < r.Dim(); i++ {
		var d float64
		if p[i] < r.LL[i] {
			d = r.LL[i] - p[i]
		} else if p[i] > r.UR[i] {
			d = p[i] - r.UR[i]
		}
		sum += d * d
	}
	return math.Sqrt(sum)
}

// KNN runs a best-first search ordered by node/entry MINDIST to p,
// yielding up to k payloads in non-decreasing distance per §4.4.
func (idx *Index) KNN(p spatial.NPoint, k int) ([]Neighbor, error) {
	if err := idx.requireBuilt(); err != nil {
		return nil, err
	}
	if k <= 0 {
		return nil, errs.NewConfigError("k must be positive", map[string]any{"k": k})
	}
	var out []Neighbor
	if idx.root == nil {
		return out, nil
	}
	pq := tinyqueue.New(nil)
	pq.Push(&qItem{n: idx.root, dist: minDist(p, idx.root.mbr)})
	for pq.Len() > 0 && len(out) < k {
		top := pq.Pop().(*qItem)
		if top.e != nil {
			out = append(out, Neighbor{Payload: top.e.payload, Dist: top.dist})
			continue
		}
		n := top.n
		if n.leaf {
			for i := range n.entries {
				e := n.entries[i]
				pq.Push(&qItem{e: &e, dist: minDist(p, e.mbr)})
			}
		} else {
			for _, c := range n.children {
				pq.Push(&qItem{n: c, dist: minDist(p, c.mbr)})
			}
		}
	}
	return out, nil
}

// WithinDistance prunes subtrees whose MINDIST to p exceeds maxDist,
// then applies distFn to surviving leaf payloads and keeps those at or
// under maxDist, per §4.4.
func (idx *Index) WithinDistance(p spatial.NPoint, maxDist float64, distFn func(payload interface{}) float64) ([]interface{}, error) {
	if err := idx.requireBuilt(); err != nil {
		return nil, err
	}
	var out []interface{}
	withinDistanceRec(idx.root, p, maxDist, distFn, &out)
	return out, nil
}

func withinDistanceRec(n *node, p spatial.NPoint, maxDist float64, distFn func(interface{}) float64, out *[]interface{}) {
	if n == nil || minDist(p, n.mbr) > maxDist {
		return
	}
	if n.leaf {
		for _, e := range n.entries {
			if distFn(e.payload) <= maxDist {
				*out = append(*out, e.payload)
			}
		}
		return
	}
	for _, c := range n.children {
		withinDistanceRec(c, p, maxDist, distFn, out)
	}
}
