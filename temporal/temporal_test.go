package temporal

import "testing"

func TestIntersectsOverlappingIntervals(t *testing.T) {
	a := Interval(10, ptr(20))
	b := Interval(15, ptr(25))
	if !a.Intersects(b) {
		t.Fatalf("overlapping intervals must intersect")
	}
}

func TestIntersectsDisjointIntervals(t *testing.T) {
	a := Interval(10, ptr(20))
	b := Interval(30, ptr(40))
	if a.Intersects(b) {
		t.Fatalf("disjoint intervals must not intersect")
	}
}

func TestUnboundedEndIntersectsEverythingAfterStart(t *testing.T) {
	a := Interval(10, nil)
	b := Interval(1000, ptr(2000))
	if !a.Intersects(b) {
		t.Fatalf("unbounded interval should intersect any later span")
	}
}

func TestUnboundedEndDoesNotIntersectDisjointNegativeStartSpan(t *testing.T) {
	a := Interval(10, nil)
	b := Interval(-5, ptr(-2))
	if a.Intersects(b) {
		t.Fatalf("unbounded interval starting at 10 must not intersect a span ending at -2")
	}
	if b.Intersects(a) {
		t.Fatalf("intersects must be symmetric")
	}
}

func TestInstantContains(t *testing.T) {
	a := Interval(0, ptr(100))
	b := Instant(50)
	if !a.Contains(b) {
		t.Fatalf("interval should contain an instant within its span")
	}
	if a.Contains(Instant(200)) {
		t.Fatalf("interval should not contain an instant outside its span")
	}
}

func ptr(v int64) *int64 { return &v }
