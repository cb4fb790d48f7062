package geom

import "testing"

func TestIntersectsSymmetric(t *testing.T) {
	a := NewPolygon([][2]float64{{-73, 40.5}, {-70, 40.5}, {-72, 41}})
	b := NewPolygon([][2]float64{{-73, 40.5}, {-70, 40.5}, {-72, 41}})
	if !a.Intersects(b) || !b.Intersects(a) {
		t.Fatalf("expected symmetric intersection between identical polygons")
	}
}

func TestIntersectsNoCrossMatch(t *testing.T) {
	poly := NewPolygon([][2]float64{{-73, 40.5}, {-70, 40.5}, {-72, 41}})
	point := NewPoint(25, 20)
	if poly.Intersects(point) {
		t.Fatalf("unrelated point should not intersect the polygon")
	}
}

func TestContainsImpliesCoveredBy(t *testing.T) {
	outer := NewPolygon([][2]float64{{0, 0}, {10, 0}, {10, 10}, {0, 10}})
	inner := NewPoint(5, 5)
	if !outer.Contains(inner) {
		t.Fatalf("expected outer to contain inner")
	}
	if !inner.CoveredBy(outer) {
		t.Fatalf("contains must imply coveredBy on the other side")
	}
}

func TestContainsImpliesIntersectsForNonEmpty(t *testing.T) {
	outer := NewPolygon([][2]float64{{0, 0}, {10, 0}, {10, 10}, {0, 10}})
	inner := NewPoint(5, 5)
	if outer.Contains(inner) && !outer.Intersects(inner) {
		t.Fatalf("contains must imply intersects for a non-empty geometry")
	}
}

func TestDistancePoints(t *testing.T) {
	a := NewPoint(0, 0)
	b := NewPoint(3, 4)
	if d := a.Distance(b); d != 5 {
		t.Fatalf("expected distance 5, got %v", d)
	}
}
