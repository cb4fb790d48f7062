package spatial

import "github.com/paulmach/orb"

// PointOf converts an orb.Point into the 2D NPoint representation the
// grid/histogram machinery works with.
func PointOf(p orb.Point) NPoint { return NPoint{p[0], p[1]} }

// RangeOf converts an orb.Bound into a plain NRectRange with no EPS
// adjustment; used for object envelopes feeding extent accumulation.
func RangeOf(b orb.Bound) NRectRange {
	return NRectRange{
		LL: NPoint{b.Min[0], b.Min[1]},
		UR: NPoint{b.Max[0], b.Max[1]},
	}
}

// UniverseOf converts an orb.Bound into the universe's right-open
// NRectRange per §6: the stored max bounds are max+EPS so that a point
// exactly on the original max boundary belongs to the cell on the lower
// side rather than falling outside the universe entirely.
func UniverseOf(b orb.Bound) NRectRange {
	return NRectRange{
		LL: NPoint{b.Min[0], b.Min[1]},
		UR: NPoint{b.Max[0] + EPS, b.Max[1] + EPS},
	}
}
