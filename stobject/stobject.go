// Package stobject implements the spatio-temporal value STObject, and
// the composed spatial+temporal predicate algebra that operators in
// ops dispatch against.
package stobject

import (
	"github.com/starkdb/stark/geom"
	"github.com/starkdb/stark/spatial"
	"github.com/starkdb/stark/temporal"
)

// STObject pairs a geometry with an optional temporal expression.
type STObject struct {
	Geom geom.Geometry
	Time *temporal.Expr
}

// Centroid implements spatial.Keyed so an STObject can be fed directly
// to a Partitioner's GetPartitionID.
func (o STObject) Centroid() spatial.NPoint { return spatial.PointOf(o.Geom.Centroid()) }

// Envelope implements spatial.HistogramItem so an STObject can be
// folded directly into a CellHistogram.
func (o STObject) Envelope() spatial.NRectRange { return spatial.RangeOf(o.Geom.Envelope()) }

// New builds a purely spatial object (no temporal component).
func New(g geom.Geometry) STObject {
	return STObject{Geom: g}
}

// NewWithTime builds a spatio-temporal object.
func NewWithTime(g geom.Geometry, t temporal.Expr) STObject {
	return STObject{Geom: g, Time: &t}
}

// HasTime reports whether a temporal component is present.
func (o STObject) HasTime() bool { return o.Time != nil }

// Predicate names a spatio-temporal predicate kind, per §3/§4.5.
type Predicate int

const (
	Intersects Predicate = iota
	Contains
	Covers
	CoveredBy
	ContainedBy
	WithinDistance
)

// compose implements §3's compositional rule: P holds between a and b
// iff P_spatial(a.geom, b.geom) AND (both times absent OR both present
// and P_temporal(a.time, b.time)). If exactly one side has time, the
// temporal predicate yields false.
func compose(spatialHolds bool, a, b STObject, temporalHolds func(a, b temporal.Expr) bool) bool {
	if !spatialHolds {
		return false
	}
	if a.Time == nil && b.Time == nil {
		return true
	}
	if a.Time == nil || b.Time == nil {
		return false
	}
	return temporalHolds(*a.Time, *b.Time)
}

// Intersects implements the composed intersects predicate.
func (a STObject) Intersects(b STObject) bool {
	return compose(a.Geom.Intersects(b.Geom), a, b, temporal.Expr.Intersects)
}

// Contains implements the composed contains predicate.
func (a STObject) Contains(b STObject) bool {
	return compose(a.Geom.Contains(b.Geom), a, b, temporal.Expr.Contains)
}

// CoveredBy implements the composed coveredBy predicate. Per the
// invariant a.Contains(b) => b.CoveredBy(a), CoveredBy's temporal side
// mirrors Contains with operands swapped.
func (a STObject) CoveredBy(b STObject) bool {
	return compose(a.Geom.CoveredBy(b.Geom), a, b, func(x, y temporal.Expr) bool {
		return y.Contains(x)
	})
}

// Covers implements the composed covers predicate, the inverse of
// CoveredBy.
func (a STObject) Covers(b STObject) bool {
	return compose(a.Geom.Covers(b.Geom), a, b, func(x, y temporal.Expr) bool {
		return x.Contains(y)
	})
}

// ContainedBy is the inverse of Contains.
func (a STObject) ContainedBy(b STObject) bool { return b.Contains(a) }

// WithinDistance implements the composed distance predicate: spatial
// distance under maxDist, with the standard time/time or untimed/untimed
// composition rule (time is never involved in the distance computation
// itself, only in whether the predicate is allowed to hold at all).
// Exact when both a and b are points; Geom.Distance falls back to a
// centroid-distance approximation when either side is a polygon (see
// geom.Geometry.Distance), so WithinDistance inherits that same
// approximation for non-point geometries.
func (a STObject) WithinDistance(b STObject, maxDist float64) bool {
	return compose(a.Geom.Distance(b.Geom) <= maxDist, a, b, temporal.Expr.Intersects)
}

// Holds dispatches to the named predicate, matching §9's tagged-variant
// dispatch design note. maxDist is only consulted for WithinDistance.
func (a STObject) Holds(p Predicate, b STObject, maxDist float64) bool {
	switch p {
	case Intersects:
		return a.Intersects(b)
	case Contains:
		return a.Contains(b)
	case Covers:
		return a.Covers(b)
	case CoveredBy:
		return a.CoveredBy(b)
	case ContainedBy:
		return a.ContainedBy(b)
	case WithinDistance:
		return a.WithinDistance(b, maxDist)
	default:
		return false
	}
}
