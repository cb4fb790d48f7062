// Package temporal implements the temporal expression algebra: an
// Instant or an Interval with an optionally open end, and the
// intersects/contains/less predicates standard interval algebra
// defines over them. An open interval end denotes +∞.
package temporal

import (
	"fmt"
	"math"
)

// Kind distinguishes an Instant from an Interval.
type Kind int

const (
	// KindInstant marks a single point in time.
	KindInstant Kind = iota
	// KindInterval marks a (possibly half-open) span of time.
	KindInterval
)

// Expr is a temporal expression: either Instant(t) or Interval(start,
// end), with end == nil meaning unbounded (+∞).
type Expr struct {
	kind  Kind
	t     int64
	start int64
	end   *int64
}

// Instant builds a point-in-time expression.
func Instant(t int64) Expr {
	return Expr{kind: KindInstant, t: t}
}

// Interval builds a span expression. end == nil means unbounded above.
func Interval(start int64, end *int64) Expr {
	return Expr{kind: KindInterval, start: start, end: end}
}

// IsInstant reports whether the expression is an Instant.
func (e Expr) IsInstant() bool { return e.kind == KindInstant }

// Bounds returns the closed [start, end] span the expression
// occupies; for an Instant, start == end == t. An unbounded end is
// reported via end == math.MaxInt64 (a real, comparable sentinel, not a
// placeholder that must be ignored by callers) in addition to the
// unbounded flag.
func (e Expr) Bounds() (start int64, end int64, unbounded bool) {
	if e.kind == KindInstant {
		return e.t, e.t, false
	}
	if e.end == nil {
		return e.start, math.MaxInt64, true
	}
	return e.start, *e.end, false
}

// Intersects implements the compositional rule over time: true iff the
// two expressions' closed spans overlap (spans that only touch at an
// endpoint do intersect). Bounds' math.MaxInt64 sentinel makes the
// ordinary overlap test correct even when one or both sides are
// unbounded.
func (e Expr) Intersects(other Expr) bool {
	as, ae, _ := e.Bounds()
	bs, be, _ := other.Bounds()
	return as <= be && bs <= ae
}

// Contains reports whether other's span is fully inside e's span.
func (e Expr) Contains(other Expr) bool {
	as, ae, _ := e.Bounds()
	bs, be, _ := other.Bounds()
	return bs >= as && be <= ae
}

// Less orders by start time, then by end time (unbounded end sorts
// last), matching the standard interval-algebra total preorder used for
// sortByKey-style consumers.
func (e Expr) Less(other Expr) bool {
	as, ae, aInf := e.Bounds()
	bs, be, bInf := other.Bounds()
	if as != bs {
		return as < bs
	}
	if aInf != bInf {
		return bInf
	}
	return ae < be
}

func (e Expr) String() string {
	if e.kind == KindInstant {
		return fmt.Sprintf("Instant(%d)", e.t)
	}
	if e.end == nil {
		return fmt.Sprintf("Interval(%d, +inf)", e.start)
	}
	return fmt.Sprintf("Interval(%d, %d)", e.start, *e.end)
}
