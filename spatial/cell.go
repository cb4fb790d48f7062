package spatial

// Cell is a unit of the uniform grid over the universe: a range plus
// the accumulated extent of the objects that fall inside it. extent is
// always a superset of range. For point-only datasets extent == range
// is maintained, to save the extend-on-every-insert cost §4.1 allows
// skipping.
type Cell struct {
	ID     int
	Range  NRectRange
	Extent NRectRange
}

// CellBuilder accumulates an extent across repeated Extend calls and
// emits an immutable Cell on Build. This replaces the source's pattern
// of mutating Cell.extent in place during histogram construction (see
// §9's "Global mutable extent in Cell" design note) with a builder that
// owns the only mutable state.
type CellBuilder struct {
	id         int
	rng        NRectRange
	extent     NRectRange
	hasExtent  bool
	pointsOnly bool
}

// NewCellBuilder seeds a builder for the given cell id/range.
func NewCellBuilder(id int, rng NRectRange, pointsOnly bool) *CellBuilder {
	return &CellBuilder{id: id, rng: rng, pointsOnly: pointsOnly}
}

// Extend folds an object's envelope into the accumulated extent. No-op
// when pointsOnly is set, since point-only cells keep extent == range.
func (b *CellBuilder) Extend(envelope NRectRange) {
	if b.pointsOnly {
		return
	}
	if !b.hasExtent {
		b.extent = envelope
		b.hasExtent = true
		return
	}
	b.extent = b.extent.Extend(envelope)
}

// Build emits the immutable Cell. When pointsOnly or nothing was ever
// extended into the builder, extent falls back to range.
func (b *CellBuilder) Build() Cell {
	extent := b.rng
	if !b.pointsOnly && b.hasExtent {
		extent = b.rng.Extend(b.extent)
	}
	return Cell{ID: b.id, Range: b.rng, Extent: extent}
}
