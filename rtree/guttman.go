package rtree

import (
	"math"

	"github.com/starkdb/stark/spatial"
)

// insertIncremental performs a Guttman-style incremental insert: the
// child minimizing MBR area enlargement is chosen at each level
// (pickBranch), the entry lands in a leaf, and any node that overflows
// order splits via the classic quadratic-split heuristic (pick the pair
// of entries/children with maximum combined-MBR waste as seeds, then
// assign the rest to whichever seed's MBR enlarges least) — the same
// shape as the teacher's d2insertRect/d2splitNode, generalized from the
// teacher's fixed d2maxNodes array to slice-backed nodes so fanout is a
// runtime parameter instead of a compile-time constant.
func (idx *Index) insertIncremental(e entry) {
	if idx.root == nil {
		idx.root = &node{leaf: true, entries: []entry{e}, mbr: e.mbr}
		return
	}
	grown, split := insertRec(idx.root, e, idx.order)
	idx.root = grown
	if split != nil {
		newRoot := &node{leaf: false, children: []*node{idx.root, split}}
		newRoot.mbr = newRoot.computeMBR()
		idx.root = newRoot
	}
}

// insertRec inserts e into the subtree rooted at n, splitting n (and
// returning the split sibling) if it overflows order after insertion.
func insertRec(n *node, e entry, order int) (*node, *node) {
	if n.leaf {
		n.entries = append(n.entries, e)
		n.mbr = n.computeMBR()
		if len(n.entries) <= order {
			return n, nil
		}
		return splitLeaf(n, order)
	}

	best := pickBranch(n, e.mbr)
	grown, split := insertRec(n.children[best], e, order)
	n.children[best] = grown
	if split != nil {
		n.children = append(n.children, split)
	}
	n.mbr = n.computeMBR()
	if len(n.children) <= order {
		return n, nil
	}
	return splitInternal(n, order)
}

// pickBranch chooses the child whose MBR needs the least area
// enlargement to cover mbr, ties broken by the smaller resulting area —
// the teacher's d2pickBranch heuristic.
func pickBranch(n *node, mbr spatial.NRectRange) int {
	best := 0
	bestEnlargement := math.Inf(1)
	bestArea := math.Inf(1)
	for i, c := range n.children {
		enlarged := c.mbr.Extend(mbr)
		enlargement := enlarged.Volume() - c.mbr.Volume()
		if enlargement < bestEnlargement || (enlargement == bestEnlargement && enlarged.Volume() < bestArea) {
			best = i
			bestEnlargement = enlargement
			bestArea = enlarged.Volume()
		}
	}
	return best
}

func splitLeaf(n *node, order int) (*node, *node) {
	i, j := pickSeedsEntries(n.entries)
	groupA := []entry{n.entries[i]}
	groupB := []entry{n.entries[j]}
	remaining := make([]entry, 0, len(n.entries)-2)
	for k, e := range n.entries {
		if k != i && k != j {
			remaining = append(remaining, e)
		}
	}
	minFill := (order + 1) / 2
	for len(remaining) > 0 {
		if len(groupA)+len(remaining) <= minFill {
			groupA = append(groupA, remaining...)
			break
		}
		if len(groupB)+len(remaining) <= minFill {
			groupB = append(groupB, remaining...)
			break
		}
		pick, toA := pickNextEntry(groupA, groupB, remaining)
		if toA {
			groupA = append(groupA, remaining[pick])
		} else {
			groupB = append(groupB, remaining[pick])
		}
		remaining = append(remaining[:pick], remaining[pick+1:]...)
	}
	a := &node{leaf: true, entries: groupA}
	a.mbr = a.computeMBR()
	b := &node{leaf: true, entries: groupB}
	b.mbr = b.computeMBR()
	return a, b
}

func pickSeedsEntries(entries []entry) (int, int) {
	bestI, bestJ := 0, 1
	bestWaste := math.Inf(-1)
	for i := 0; i < len(entries); i++ {
		for j := i + 1; j < len(entries); j++ {
			combined := entries[i].mbr.Extend(entries[j].mbr)
			waste := combined.Volume() - entries[i].mbr.Volume() - entries[j].mbr.Volume()
			if waste > bestWaste {
				bestWaste = waste
				bestI, bestJ = i, j
			}
		}
	}
	return bestI, bestJ
}

func pickNextEntry(groupA, groupB []entry, remaining []entry) (int, bool) {
	mbrA := groupMBREntries(groupA)
	mbrB := groupMBREntries(groupB)
	bestIdx := 0
	bestDiff := math.Inf(-1)
	toA := true
	for i, e := range remaining {
		dA := mbrA.Extend(e.mbr).Volume() - mbrA.Volume()
		dB := mbrB.Extend(e.mbr).Volume() - mbrB.Volume()
		diff := math.Abs(dA - dB)
		if diff > bestDiff {
			bestDiff = diff
			bestIdx = i
			toA = dA < dB
		}
	}
	return bestIdx, toA
}

func groupMBREntries(entries []entry) spatial.NRectRange {
	mbr := entries[0].mbr
	for _, e := range entries[1:] {
		mbr = mbr.Extend(e.mbr)
	}
	return mbr
}

func splitInternal(n *node, order int) (*node, *node) {
	i, j := pickSeedsChildren(n.children)
	groupA := []*node{n.children[i]}
	groupB := []*node{n.children[j]}
	remaining := make([]*node, 0, len(n.children)-2)
	for k, c := range n.children {
		if k != i && k != j {
			remaining = append(remaining, c)
		}
	}
	minFill := (order + 1) / 2
	for len(remaining) > 0 {
		if len(groupA)+len(remaining) <= minFill {
			groupA = append(groupA, remaining...)
			break
		}
		if len(groupB)+len(remaining) <= minFill {
			groupB = append(groupB, remaining...)
			break
		}
		pick, toA := pickNextChild(groupA, groupB, remaining)
		if toA {
			groupA = append(groupA, remaining[pick])
		} else {
			groupB = append(groupB, remaining[pick])
		}
		remaining = append(remaining[:pick], remaining[pick+1:]...)
	}
	a := &node{leaf: false, children: groupA}
	a.mbr = a.computeMBR()
	b := &node{leaf: false, children: groupB}
	b.mbr = b.computeMBR()
	return a, b
}

func pickSeedsChildren(children []*node) (int, int) {
	bestI, bestJ := 0, 1
	bestWaste := math.Inf(-1)
	for i := 0; i < len(children); i++ {
		for j := i + 1; j < len(children); j++ {
			combined := children[i].mbr.Extend(children[j].mbr)
			waste := combined.Volume() - children[i].mbr.Volume() - children[j].mbr.Volume()
			if waste > bestWaste {
				bestWaste = waste
				bestI, bestJ = i, j
			}
		}
	}
	return bestI, bestJ
}

func pickNextChild(groupA, groupB []*node, remaining []*node) (int, bool) {
	mbrA := groupMBRChildren(groupA)
	mbrB := groupMBRChildren(groupB)
	bestIdx := 0
	bestDiff := math.Inf(-1)
	toA := true
	for i, c := range remaining {
		dA := mbrA.Extend(c.mbr).Volume() - mbrA.Volume()
		dB := mbrB.Extend(c.mbr).Volume() - mbrB.Volume()
		diff := math.Abs(dA - dB)
		if diff > bestDiff {
			bestDiff = diff
			bestIdx = i
			toA = dA < dB
		}
	}
	return bestIdx, toA
}

func groupMBRChildren(children []*node) spatial.NRectRange {
	mbr := children[0].mbr
	for _, c := range children[1:] {
		mbr = mbr.Extend(c.mbr)
	}
	return mbr
}
