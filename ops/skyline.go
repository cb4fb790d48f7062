package ops

import (
	"math"
	"sort"
	"sync"

	"github.com/starkdb/stark/bulk"
	"github.com/starkdb/stark/stobject"
	"golang.org/x/sync/errgroup"
)

// Dominates is the caller-supplied strict dominance predicate every
// skyline flavor in §4.8 relies on.
type Dominates func(a, b stobject.STObject) bool

// Skyline stores non-dominated points: inserting a new point removes
// every stored point it dominates, and is itself skipped if any stored
// point dominates it, per §4.8's Skyline data structure.
type Skyline struct {
	points    []stobject.STObject
	dominates Dominates
}

// NewSkyline builds an empty accumulator for the given dominance rule.
func NewSkyline(dominates Dominates) *Skyline {
	return &Skyline{dominates: dominates}
}

// Insert folds p into the accumulator.
func (s *Skyline) Insert(p stobject.STObject) {
	for _, q := range s.points {
		if s.dominates(q, p) {
			return
		}
	}
	kept := s.points[:0:0]
	for _, q := range s.points {
		if !s.dominates(p, q) {
			kept = append(kept, q)
		}
	}
	s.points = append(kept, p)
}

// Points returns the accumulated skyline.
func (s *Skyline) Points() []stobject.STObject { return s.points }

// Merge folds other's points into s and returns s. Associative and
// commutative up to dominance equivalence, per §4.8/§8.
func (s *Skyline) Merge(other *Skyline) *Skyline {
	for _, p := range other.points {
		s.Insert(p)
	}
	return s
}

// SkylineAgg implements §4.8's aggregate flavor: fold the whole dataset
// into one accumulator per partition, then merge the partials.
func SkylineAgg(coll bulk.Collection[stobject.STObject], dominates Dominates) ([]stobject.STObject, error) {
	n := coll.NumPartitions()
	partials := make([]*Skyline, n)
	var g errgroup.Group
	for i := 0; i < n; i++ {
		i := i
		g.Go(func() error {
			elems, err := collectPartition(coll, i)
			if err != nil {
				return err
			}
			sk := NewSkyline(dominates)
			for _, e := range elems {
				sk.Insert(e)
			}
			partials[i] = sk
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	acc := NewSkyline(dominates)
	for _, p := range partials {
		if p != nil {
			acc.Merge(p)
		}
	}
	return acc.Points(), nil
}

// distancePoint is an object's projection into the 2-D (spatial,
// temporal) distance space the BBS flavor grid-partitions, per §4.8.
type distancePoint struct {
	sDist, tDist float64
}

func distanceTo(ref, p stobject.STObject) distancePoint {
	d := distancePoint{sDist: ref.Geom.Distance(p.Geom)}
	if ref.HasTime() && p.HasTime() {
		rs, _, _ := ref.Time.Bounds()
		ps, _, _ := p.Time.Bounds()
		d.tDist = math.Abs(float64(ps - rs))
	}
	return d
}

// SkylineConfig parametrizes the BBS-style skyline.
type SkylineConfig struct {
	Dominates Dominates
	GridPPD   int // grid side length in distance-space partitions
}

// skylineItem pairs an object with its precomputed distance-space
// projection, shared between SkylineBBS's bucketing and the
// allDominated pruning check.
type skylineItem struct {
	obj stobject.STObject
	d   distancePoint
}

// SkylineBBS implements §4.8's BBS-style flavor: project every object to
// its (spatial, temporal) distance from ref, grid-partition that 2-D
// distance space, process partitions nearest-first, skip a partition
// once every one of its points is already dominated by the current
// global skyline (the generic-dominates substitute for the spec's
// cheap centroidDominates max-corner check — see DESIGN.md), compute
// each surviving partition's local skyline, and merge into the global
// result.
func SkylineBBS(coll bulk.Collection[stobject.STObject], ref stobject.STObject, cfg SkylineConfig) ([]stobject.STObject, error) {
	elems, err := coll.Collect()
	if err != nil {
		return nil, err
	}
	if len(elems) == 0 {
		return nil, nil
	}
	ppd := cfg.GridPPD
	if ppd < 1 {
		ppd = 1
	}

	items := make([]skylineItem, len(elems))
	maxS, maxT := 0.0, 0.0
	for i, e := range elems {
		d := distanceTo(ref, e)
		items[i] = skylineItem{obj: e, d: d}
		if d.sDist > maxS {
			maxS = d.sDist
		}
		if d.tDist > maxT {
			maxT = d.tDist
		}
	}
	if maxS == 0 {
		maxS = 1
	}
	if maxT == 0 {
		maxT = 1
	}
	xLen := maxS/float64(ppd) + 1e-9
	yLen := maxT/float64(ppd) + 1e-9

	type bucket struct {
		items      []skylineItem
		maxS, maxT float64
	}
	buckets := map[[2]int]*bucket{}
	for _, it := range items {
		cx := int(it.d.sDist / xLen)
		cy := int(it.d.tDist / yLen)
		key := [2]int{cx, cy}
		b := buckets[key]
		if b == nil {
			b = &bucket{}
			buckets[key] = b
		}
		b.items = append(b.items, it)
		if it.d.sDist > b.maxS {
			b.maxS = it.d.sDist
		}
		if it.d.tDist > b.maxT {
			b.maxT = it.d.tDist
		}
	}

	keys := make([][2]int, 0, len(buckets))
	for k := range buckets {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		bi, bj := buckets[keys[i]], buckets[keys[j]]
		return bi.maxS*bi.maxS+bi.maxT*bi.maxT < bj.maxS*bj.maxS+bj.maxT*bj.maxT
	})

	global := NewSkyline(cfg.Dominates)
	for _, k := range keys {
		b := buckets[k]
		if allDominated(global, b.items, cfg.Dominates) {
			continue
		}
		local := NewSkyline(cfg.Dominates)
		for _, it := range b.items {
			local.Insert(it.obj)
		}
		global.Merge(local)
	}
	return global.Points(), nil
}

func allDominated(global *Skyline, items []skylineItem, dominates Dominates) bool {
	if len(global.points) == 0 {
		return false
	}
	for _, it := range items {
		dominated := false
		for _, g := range global.points {
			if dominates(g, it.obj) {
				dominated = true
				break
			}
		}
		if !dominated {
			return false
		}
	}
	return true
}

// SkylineAngularConfig parametrizes the angular skyline flavor.
type SkylineAngularConfig struct {
	Dominates         Dominates
	PPD               int // number of angular sectors
	FirstQuadrantOnly bool
}

// SkylineAngular implements §4.8's angular flavor: partition points by
// angle around ref into ppd sectors (optionally restricted to the first
// quadrant), compute a per-sector skyline within each physical
// partition, reduce those by sector id across partitions, then merge
// every sector's skyline into the global result.
func SkylineAngular(coll bulk.Collection[stobject.STObject], ref stobject.STObject, cfg SkylineAngularConfig) ([]stobject.STObject, error) {
	ppd := cfg.PPD
	if ppd < 1 {
		ppd = 1
	}
	n := coll.NumPartitions()
	sectors := make([]*Skyline, ppd)
	for i := range sectors {
		sectors[i] = NewSkyline(cfg.Dominates)
	}
	muxes := make([]sync.Mutex, ppd)

	var g errgroup.Group
	for i := 0; i < n; i++ {
		i := i
		g.Go(func() error {
			elems, err := collectPartition(coll, i)
			if err != nil {
				return err
			}
			local := make([]*Skyline, ppd)
			for s := range local {
				local[s] = NewSkyline(cfg.Dominates)
			}
			for _, e := range elems {
				angle := angleOf(ref, e)
				if cfg.FirstQuadrantOnly && (angle < 0 || angle > math.Pi/2) {
					continue
				}
				sector := sectorIndex(angle, ppd, cfg.FirstQuadrantOnly)
				local[sector].Insert(e)
			}
			for s, sk := range local {
				if len(sk.Points()) == 0 {
					continue
				}
				muxes[s].Lock()
				sectors[s].Merge(sk)
				muxes[s].Unlock()
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	global := NewSkyline(cfg.Dominates)
	for _, sk := range sectors {
		global.Merge(sk)
	}
	return global.Points(), nil
}

func angleOf(ref, p stobject.STObject) float64 {
	rc := ref.Geom.Centroid()
	pc := p.Geom.Centroid()
	a := math.Atan2(pc[1]-rc[1], pc[0]-rc[0])
	if a < 0 {
		a += 2 * math.Pi
	}
	return a
}

func sectorIndex(angle float64, ppd int, firstQuadrantOnly bool) int {
	span := 2 * math.Pi
	if firstQuadrantOnly {
		span = math.Pi / 2
	}
	idx := int(angle / (span / float64(ppd)))
	if idx >= ppd {
		idx = ppd - 1
	}
	if idx < 0 {
		idx = 0
	}
	return idx
}
