// Package spatial implements the uniform grid / cost-based binary space
// partitioner machinery: n-dimensional points and ranges, cells, the
// cell histogram, and the Grid/BSP partitioners built on top of it.
package spatial

import (
	"fmt"
	"math"

	"github.com/starkdb/stark/errs"
)

// EPS is the right-open adjustment applied to a universe's stored max
// bound, per spec §6: the universe's max bounds are stored as max+EPS
// so that cell/partition intervals are [ll, ur) per dimension.
const EPS = 1e-6

// NPoint is a point in n-dimensional space. In practice n is 2, but the
// type itself is dimension-agnostic, grounded on
// daniar-achakeev-paloo_db/spatial's DoublePoint.
type NPoint []float64

// Dim returns the point's dimensionality.
func (p NPoint) Dim() int { return len(p) }

// Clone returns a deep copy.
func (p NPoint) Clone() NPoint {
	c := make(NPoint, len(p))
	copy(c, p)
	return c
}

// NRectRange is an n-dimensional axis-aligned range, right-open on the
// max side per dimension: [LL[i], UR[i]) for every i. Invariant:
// LL[i] <= UR[i] for all i.
type NRectRange struct {
	LL NPoint
	UR NPoint
}

// NewNRectRange builds a range, validating the LL<=UR invariant.
func NewNRectRange(ll, ur NPoint) (NRectRange, error) {
	if len(ll) != len(ur) {
		return NRectRange{}, errs.NewDomainError("ll and ur dimension mismatch", nil)
	}
	for i := range ll {
		if ll[i] > ur[i] {
			return NRectRange{}, errs.NewDomainError(fmt.Sprintf("ll[%d]=%v > ur[%d]=%v", i, ll[i], i, ur[i]), nil)
		}
	}
	return NRectRange{LL: ll.Clone(), UR: ur.Clone()}, nil
}

// Dim returns the range's dimensionality.
func (r NRectRange) Dim() int { return len(r.LL) }

// Lengths returns the per-dimension side lengths.
func (r NRectRange) Lengths() []float64 {
	out := make([]float64, r.Dim())
	for i := range out {
		out[i] = r.UR[i] - r.LL[i]
	}
	return out
}

// Volume returns the product of side lengths (area in 2D).
func (r NRectRange) Volume() float64 {
	v := 1.0
	for _, l := range r.Lengths() {
		v *= l
	}
	return v
}

// Contains reports whether point p falls within the right-open range.
func (r NRectRange) Contains(p NPoint) bool {
	if len(p) != r.Dim() {
		return false
	}
	for i := range p {
		if p[i] < r.LL[i] || p[i] >= r.UR[i] {
			return false
		}
	}
	return true
}

// ContainsRange reports whether other is fully inside r, right-open
// aware (an other.UR[i] == r.UR[i] is still "contained" since both
// ranges share the same open boundary).
func (r NRectRange) ContainsRange(other NRectRange) bool {
	if other.Dim() != r.Dim() {
		return false
	}
	for i := 0; i < r.Dim(); i++ {
		if other.LL[i] < r.LL[i] || other.UR[i] > r.UR[i] {
			return false
		}
	}
	return true
}

// Intersects reports whether the two right-open ranges overlap.
func (r NRectRange) Intersects(other NRectRange) bool {
	if other.Dim() != r.Dim() {
		return false
	}
	for i := 0; i < r.Dim(); i++ {
		if other.LL[i] >= r.UR[i] || other.UR[i] <= r.LL[i] {
			return false
		}
	}
	return true
}

// Extend returns the smallest range containing both r and other.
func (r NRectRange) Extend(other NRectRange) NRectRange {
	if r.Dim() == 0 {
		return other
	}
	if other.Dim() == 0 {
		return r
	}
	ll := make(NPoint, r.Dim())
	ur := make(NPoint, r.Dim())
	for i := 0; i < r.Dim(); i++ {
		ll[i] = math.Min(r.LL[i], other.LL[i])
		ur[i] = math.Max(r.UR[i], other.UR[i])
	}
	return NRectRange{LL: ll, UR: ur}
}

// Diff subtracts other from r along a single dimension, assuming other
// is a "slab" sharing every dimension with r except dim. Used by the
// BSP split to produce the complementary half of a cost-based split.
// The alignment of other with r outside of dim is not checked; only
// dim's bounds are read from other.
func (r NRectRange) Diff(other NRectRange, dim int) NRectRange {
	ll := r.LL.Clone()
	ur := r.UR.Clone()
	if other.LL[dim] <= r.LL[dim] {
		ll[dim] = other.UR[dim]
	} else {
		ur[dim] = other.LL[dim]
	}
	return NRectRange{LL: ll, UR: ur}
}

// Equal reports structural equality.
func (r NRectRange) Equal(other NRectRange) bool {
	if r.Dim() != other.Dim() {
		return false
	}
	for i := 0; i < r.Dim(); i++ {
		if r.LL[i] != other.LL[i] || r.UR[i] != other.UR[i] {
			return false
		}
	}
	return true
}

func (r NRectRange) String() string {
	return fmt.Sprintf("[%v, %v)", r.LL, r.UR)
}
