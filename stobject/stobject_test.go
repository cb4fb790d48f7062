package stobject

import (
	"testing"

	"github.com/starkdb/stark/geom"
	"github.com/starkdb/stark/temporal"
)

func TestTemporalComposition(t *testing.T) {
	a := NewWithTime(geom.NewPoint(0, 0), temporal.Interval(10, ptr(20)))
	b := NewWithTime(geom.NewPoint(0, 0), temporal.Interval(15, ptr(25)))
	c := New(geom.NewPoint(0, 0))

	if !a.Intersects(b) {
		t.Fatalf("a and b overlap spatially and temporally, expected intersects")
	}
	if a.Intersects(c) {
		t.Fatalf("one-sided time must yield false, not true")
	}
	c2 := New(geom.NewPoint(0, 0))
	if !c.Intersects(c2) {
		t.Fatalf("two untimed objects at the same point must intersect")
	}
}

func TestContainsImpliesCoveredBy(t *testing.T) {
	outer := New(geom.NewPolygon([][2]float64{{0, 0}, {10, 0}, {10, 10}, {0, 10}}))
	inner := New(geom.NewPoint(5, 5))
	if !outer.Contains(inner) {
		t.Fatalf("expected containment")
	}
	if !inner.CoveredBy(outer) {
		t.Fatalf("contains must imply coveredBy")
	}
}

func ptr(v int64) *int64 { return &v }
