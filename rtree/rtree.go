// Package rtree implements the R-tree index of §4.4: a Mutable->Built
// state machine over (mbr, payload) entries. Build follows one of two
// paths behind the same Index type per §9's "Live vs. materialized"
// design note — an STR-style bulk load used for a per-partition index
// that is materialized once and probed many times, and a Guttman-style
// incremental insert used for a live index an operator task builds on
// demand and discards when the task ends.
package rtree

import (
	"math"
	"sort"

	"github.com/starkdb/stark/errs"
	"github.com/starkdb/stark/spatial"
)

// Mode selects the construction path Build follows.
type Mode int

const (
	// ModeBulk defers all work to Build, which STR-packs every entry
	// Insert accumulated. Used for a materialized index.
	ModeBulk Mode = iota
	// ModeIncremental maintains the tree via Guttman-style insertion as
	// each Insert is called; Build only flips the state machine. Used
	// for a live index.
	ModeIncremental
)

type state int

const (
	stateMutable state = iota
	stateBuilt
)

// DefaultOrder is the fanout used when an index is built with order<=0,
// matching the teacher's d2maxNodes=8-style fixed fanout generalized
// into a parameter per §4.4 ("fanout (order; parameterized; default
// 10)").
const DefaultOrder = 10

type entry struct {
	mbr     spatial.NRectRange
	payload interface{}
}

type node struct {
	mbr      spatial.NRectRange
	leaf     bool
	entries  []entry
	children []*node
}

func (n *node) computeMBR() spatial.NRectRange {
	if n.leaf {
		mbr := n.entries[0].mbr
		for _, e := range n.entries[1:] {
			mbr = mbr.Extend(e.mbr)
		}
		return mbr
	}
	mbr := n.children[0].mbr
	for _, c := range n.children[1:] {
		mbr = mbr.Extend(c.mbr)
	}
	return mbr
}

// Index is the R-tree described by §4.4.
type Index struct {
	order   int
	mode    Mode
	state   state
	pending []entry
	root    *node
	count   int
}

// NewIndex builds an unbuilt, mutable materialized index with the given
// fanout.
func NewIndex(order int) *Index {
	if order <= 0 {
		order = DefaultOrder
	}
	return &Index{order: order, mode: ModeBulk}
}

// NewLiveIndex builds an unbuilt, mutable incremental index — the kind
// an operator task builds on demand inside one partition scan and
// discards at the end of the task (§9's "Live index" glossary entry).
func NewLiveIndex(order int) *Index {
	if order <= 0 {
		order = DefaultOrder
	}
	return &Index{order: order, mode: ModeIncremental}
}

// Insert adds an (mbr, payload) pair. Only valid before Build; calling
// it on a built index fails with UsageError per §4.4's state machine.
func (idx *Index) Insert(mbr spatial.NRectRange, payload interface{}) error {
	if idx.state == stateBuilt {
		return errs.NewUsageError("insert on a built index", nil)
	}
	e := entry{mbr: mbr, payload: payload}
	if idx.mode == ModeIncremental {
		idx.insertIncremental(e)
	} else {
		idx.pending = append(idx.pending, e)
	}
	idx.count++
	return nil
}

// Len returns the number of entries inserted so far.
func (idx *Index) Len() int { return idx.count }

// Built reports whether Build has been called.
func (idx *Index) Built() bool { return idx.state == stateBuilt }

// Build finalizes the tree. In ModeBulk this STR-packs every pending
// entry; in ModeIncremental the tree was already assembled by Insert,
// so Build only flips the state machine. After Build, Insert fails and
// Query/KNN/WithinDistance become valid.
func (idx *Index) Build() error {
	if idx.state == stateBuilt {
		return errs.NewUsageError("index already built", nil)
	}
	if idx.mode == ModeBulk {
		idx.root = strBuild(idx.pending, idx.order)
		idx.pending = nil
	}
	idx.state = stateBuilt
	return nil
}

func (idx *Index) requireBuilt() error {
	if idx.state != stateBuilt {
		return errs.NewUsageError("operation requires a built index", nil)
	}
	return nil
}

// Query returns the candidate set of §4.4: every entry whose MBR
// intersects envelope. The caller must apply the exact predicate to the
// returned payloads.
func (idx *Index) Query(envelope spatial.NRectRange) ([]interface{}, error) {
	if err := idx.requireBuilt(); err != nil {
		return nil, err
	}
	var out []interface{}
	visit(idx.root, envelope, &out)
	return out, nil
}

func visit(n *node, envelope spatial.NRectRange, out *[]interface{}) {
	if n == nil || !n.mbr.Intersects(envelope) {
		return
	}
	if n.leaf {
		for _, e := range n.entries {
			if e.mbr.Intersects(envelope) {
				*out = append(*out, e.payload)
			}
		}
		return
	}
	for _, c := range n.children {
		visit(c, envelope, out)
	}
}

// strBuild bulk-loads entries into a balanced tree of the given fanout
// via Sort-Tile-Recursive packing (sort by x-centroid into
// sqrt(leafCount) vertical slabs, sort each slab by y-centroid and
// chunk into leaves of size order), then packs leaves into parent
// levels bottom-up — the level-packing scheme
// gogama-flatgeobuf__packedrtree.go's levelify uses, combined with the
// STR slab split peterstace-rtree__bulk.go's recursive median split
// approximates for the 2-D case this core targets.
func strBuild(entries []entry, order int) *node {
	if len(entries) == 0 {
		return nil
	}
	sorted := append([]entry{}, entries...)
	sort.Slice(sorted, func(i, j int) bool {
		return centroid(sorted[i].mbr, 0) < centroid(sorted[j].mbr, 0)
	})
	leafCount := (len(sorted) + order - 1) / order
	slabCount := int(math.Ceil(math.Sqrt(float64(leafCount))))
	if slabCount < 1 {
		slabCount = 1
	}
	slabSize := (len(sorted) + slabCount - 1) / slabCount
	if slabSize < 1 {
		slabSize = 1
	}
	var leaves []*node
	for i := 0; i < len(sorted); i += slabSize {
		end := i + slabSize
		if end > len(sorted) {
			end = len(sorted)
		}
		slab := sorted[i:end]
		sort.Slice(slab, func(a, b int) bool {
			return centroid(slab[a].mbr, 1) < centroid(slab[b].mbr, 1)
		})
		for j := 0; j < len(slab); j += order {
			jend := j + order
			if jend > len(slab) {
				jend = len(slab)
			}
			leafEntries := append([]entry{}, slab[j:jend]...)
			ln := &node{leaf: true, entries: leafEntries}
			ln.mbr = ln.computeMBR()
			leaves = append(leaves, ln)
		}
	}
	return levelify(leaves, order)
}

// levelify packs a level of nodes into parents of size order, repeating
// until a single root remains.
func levelify(level []*node, order int) *node {
	for len(level) > 1 {
		var next []*node
		for i := 0; i < len(level); i += order {
			end := i + order
			if end > len(level) {
				end = len(level)
			}
			children := append([]*node{}, level[i:end]...)
			n := &node{leaf: false, children: children}
			n.mbr = n.computeMBR()
			next = append(next, n)
		}
		level = next
	}
	if len(level) == 0 {
		return nil
	}
	return level[0]
}

func centroid(r spatial.NRectRange, dim int) float64 {
	return (r.LL[dim] + r.UR[dim]) / 2
}
