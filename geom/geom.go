// Package geom is a thin façade over the geometry primitive library
// (github.com/paulmach/orb). It exposes the black-box predicate surface
// the spatial core calls into: envelope, intersects/contains/covers/
// coveredBy, distance, and centroid. Geometry construction and the
// predicate implementations live here so the rest of the module never
// imports orb directly.
package geom

import (
	"fmt"
	"math"

	"github.com/paulmach/orb"
)

// Geometry is the value type the spatial core operates on. It wraps an
// orb.Geometry, restricted to the points and polygons this core needs.
type Geometry struct {
	g orb.Geometry
}

// NewPoint builds a point geometry.
func NewPoint(x, y float64) Geometry {
	return Geometry{g: orb.Point{x, y}}
}

// NewPolygon builds a polygon geometry from a single outer ring given as
// (x,y) coordinate pairs. The ring is not required to be closed; a
// closing point is appended if missing.
func NewPolygon(coords [][2]float64) Geometry {
	ring := make(orb.Ring, 0, len(coords)+1)
	for _, c := range coords {
		ring = append(ring, orb.Point{c[0], c[1]})
	}
	if len(ring) > 0 && ring[0] != ring[len(ring)-1] {
		ring = append(ring, ring[0])
	}
	return Geometry{g: orb.Polygon{ring}}
}

// FromOrb wraps an already-constructed orb.Geometry.
func FromOrb(g orb.Geometry) Geometry { return Geometry{g: g} }

// Orb returns the underlying orb.Geometry.
func (p Geometry) Orb() orb.Geometry { return p.g }

// IsZero reports whether the geometry was never assigned a value.
func (p Geometry) IsZero() bool { return p.g == nil }

// Envelope returns the geometry's minimum bounding rectangle.
func (p Geometry) Envelope() orb.Bound {
	if p.g == nil {
		return orb.Bound{}
	}
	return p.g.Bound()
}

// Coordinates returns the flattened list of vertices making up the
// geometry (a single point for Point geometries, the outer ring's
// vertices for polygons).
func (p Geometry) Coordinates() []orb.Point {
	switch t := p.g.(type) {
	case orb.Point:
		return []orb.Point{t}
	case orb.Polygon:
		if len(t) == 0 {
			return nil
		}
		return append([]orb.Point{}, t[0]...)
	case orb.MultiPoint:
		return append([]orb.Point{}, t...)
	case orb.LineString:
		return append([]orb.Point{}, t...)
	default:
		return nil
	}
}

// Centroid returns the arithmetic mean of the geometry's vertices. For
// points it is the point itself.
func (p Geometry) Centroid() orb.Point {
	coords := p.Coordinates()
	if len(coords) == 0 {
		return orb.Point{}
	}
	if _, ok := p.g.(orb.Polygon); ok && len(coords) > 1 && coords[0] == coords[len(coords)-1] {
		// The closing point repeats the first vertex; count it once.
		coords = coords[:len(coords)-1]
	}
	var sx, sy float64
	for _, c := range coords {
		sx += c[0]
		sy += c[1]
	}
	n := float64(len(coords))
	return orb.Point{sx / n, sy / n}
}

// Intersects reports whether the two geometries' regions overlap. The
// bounding boxes are checked first as a cheap reject; polygon-polygon
// and polygon-point cases fall back to ring containment / segment tests.
func (p Geometry) Intersects(other Geometry) bool {
	if p.g == nil || other.g == nil {
		return false
	}
	if !boundsOverlap(p.Envelope(), other.Envelope()) {
		return false
	}
	switch a := p.g.(type) {
	case orb.Point:
		switch b := other.g.(type) {
		case orb.Point:
			return a == b
		case orb.Polygon:
			return ringContains(b[0], a) || pointOnRing(b[0], a)
		}
	case orb.Polygon:
		switch b := other.g.(type) {
		case orb.Point:
			return ringContains(a[0], b) || pointOnRing(a[0], b)
		case orb.Polygon:
			return polygonsIntersect(a[0], b[0])
		}
	}
	return boundsOverlap(p.Envelope(), other.Envelope())
}

// Contains reports whether the receiver's region fully contains other's.
func (p Geometry) Contains(other Geometry) bool {
	if p.g == nil || other.g == nil {
		return false
	}
	switch a := p.g.(type) {
	case orb.Polygon:
		switch b := other.g.(type) {
		case orb.Point:
			return ringContains(a[0], b)
		case orb.Polygon:
			for _, v := range b[0] {
				if !ringContains(a[0], v) {
					return false
				}
			}
			return true
		}
	case orb.Point:
		if b, ok := other.g.(orb.Point); ok {
			return a == b
		}
	}
	return false
}

// Covers behaves like Contains but admits boundary touches (the same
// distinction Contains/Covers makes in standard OGC predicate sets: a
// polygon covers a point on its own boundary, but does not "contain" it).
func (p Geometry) Covers(other Geometry) bool {
	if p.Contains(other) {
		return true
	}
	poly, ok := p.g.(orb.Polygon)
	if !ok {
		return false
	}
	pt, ok := other.g.(orb.Point)
	if !ok {
		return false
	}
	return pointOnRing(poly[0], pt)
}

// CoveredBy is the inverse of Covers.
func (p Geometry) CoveredBy(other Geometry) bool { return other.Covers(p) }

// Distance returns the euclidean distance between the geometries'
// centroids: exact when both operands are points, an approximation of
// true nearest-edge distance whenever either operand is a polygon. No
// predicate-capable polygon library is grounded in the retrieval pack
// (see DESIGN.md's geom entry), so this centroid approximation is the
// stdlib-only distance this façade can offer; callers comparing
// polygons under WithinDistance get a ranking-quality approximation,
// not exact nearest-point distance.
func (p Geometry) Distance(other Geometry) float64 {
	a, b := p.Centroid(), other.Centroid()
	if pa, ok := p.g.(orb.Point); ok {
		a = pa
	}
	if pb, ok := other.g.(orb.Point); ok {
		b = pb
	}
	dx := a[0] - b[0]
	dy := a[1] - b[1]
	return math.Sqrt(dx*dx + dy*dy)
}

// String renders a WKT-ish representation, sufficient for the partition
// manifest's envelope field.
func (p Geometry) String() string {
	if p.g == nil {
		return "GEOMETRYCOLLECTION EMPTY"
	}
	switch t := p.g.(type) {
	case orb.Point:
		return fmt.Sprintf("POINT(%g %g)", t[0], t[1])
	case orb.Polygon:
		return fmt.Sprintf("POLYGON(%s)", ringWKT(t[0]))
	default:
		b := p.Envelope()
		return fmt.Sprintf("POLYGON((%g %g, %g %g, %g %g, %g %g, %g %g))",
			b.Min[0], b.Min[1], b.Max[0], b.Min[1], b.Max[0], b.Max[1], b.Min[0], b.Max[1], b.Min[0], b.Min[1])
	}
}

func ringWKT(r orb.Ring) string {
	s := "("
	for i, v := range r {
		if i > 0 {
			s += ", "
		}
		s += fmt.Sprintf("%g %g", v[0], v[1])
	}
	return s + ")"
}

func boundsOverlap(a, b orb.Bound) bool {
	return a.Min[0] <= b.Max[0] && a.Max[0] >= b.Min[0] &&
		a.Min[1] <= b.Max[1] && a.Max[1] >= b.Min[1]
}

// ringContains is a standard ray-casting point-in-polygon test over a
// single (possibly unclosed) ring.
func ringContains(ring orb.Ring, pt orb.Point) bool {
	n := len(ring)
	if n < 3 {
		return false
	}
	inside := false
	j := n - 1
	for i := 0; i < n; i++ {
		xi, yi := ring[i][0], ring[i][1]
		xj, yj := ring[j][0], ring[j][1]
		if (yi > pt[1]) != (yj > pt[1]) {
			xint := xi + (pt[1]-yi)/(yj-yi)*(xj-xi)
			if pt[0] < xint {
				inside = !inside
			}
		}
		j = i
	}
	return inside
}

func pointOnRing(ring orb.Ring, pt orb.Point) bool {
	n := len(ring)
	for i := 0; i < n-1; i++ {
		if onSegment(ring[i], ring[i+1], pt) {
			return true
		}
	}
	return false
}

func onSegment(a, b, pt orb.Point) bool {
	cross := (b[0]-a[0])*(pt[1]-a[1]) - (b[1]-a[1])*(pt[0]-a[0])
	if math.Abs(cross) > 1e-9 {
		return false
	}
	return pt[0] >= math.Min(a[0], b[0]) && pt[0] <= math.Max(a[0], b[0]) &&
		pt[1] >= math.Min(a[1], b[1]) && pt[1] <= math.Max(a[1], b[1])
}

// polygonsIntersect checks ring-ring intersection via a combination of
// vertex containment and edge crossing, sufficient for the simple
// (non-self-intersecting) rings this core deals with.
func polygonsIntersect(a, b orb.Ring) bool {
	for _, v := range a {
		if ringContains(b, v) || pointOnRing(b, v) {
			return true
		}
	}
	for _, v := range b {
		if ringContains(a, v) || pointOnRing(a, v) {
			return true
		}
	}
	for i := 0; i < len(a)-1; i++ {
		for j := 0; j < len(b)-1; j++ {
			if segmentsIntersect(a[i], a[i+1], b[j], b[j+1]) {
				return true
			}
		}
	}
	return false
}

func segmentsIntersect(p1, p2, p3, p4 orb.Point) bool {
	d1 := direction(p3, p4, p1)
	d2 := direction(p3, p4, p2)
	d3 := direction(p1, p2, p3)
	d4 := direction(p1, p2, p4)
	if ((d1 > 0 && d2 < 0) || (d1 < 0 && d2 > 0)) &&
		((d3 > 0 && d4 < 0) || (d3 < 0 && d4 > 0)) {
		return true
	}
	return false
}

func direction(a, b, c orb.Point) float64 {
	return (b[0]-a[0])*(c[1]-a[1]) - (b[1]-a[1])*(c[0]-a[0])
}
