package spatial

import (
	"math"

	"github.com/starkdb/stark/errs"
)

// BSPConfig parametrizes a cost-balanced binary space partitioner build,
// per §4.3.
type BSPConfig struct {
	Universe         NRectRange
	Side             float64 // s: the histogram's (square) cell side length
	MaxCost          uint64
	PointsOnly       bool
	NumCellThreshold int
}

// Validate checks the config invariants, failing with ConfigError.
func (c BSPConfig) Validate() error {
	if c.Side <= 0 {
		return errs.NewConfigError("side must be positive", map[string]any{"side": c.Side})
	}
	if c.MaxCost == 0 {
		return errs.NewConfigError("maxCost must be positive", map[string]any{"maxCost": c.MaxCost})
	}
	if c.Universe.Dim() != 2 {
		return errs.NewConfigError("BSP universe must be 2-dimensional", map[string]any{"dim": c.Universe.Dim()})
	}
	if c.Universe.UR[0] <= c.Universe.LL[0] || c.Universe.UR[1] <= c.Universe.LL[1] {
		return errs.NewConfigError("inconsistent universe bounds", nil)
	}
	return nil
}

// BSPPartitioner is the recursive cost-balanced binary space
// partitioner described in §4.3. Partitions are assigned ids in the
// deterministic order they are finalized.
type BSPPartitioner struct {
	cfg      BSPConfig
	cells    []Cell // one entry per emitted partition, id == index
	nonEmpty []bool
}

// BuildBSPPartitioner builds a BSPPartitioner from a histogram, per
// §4.3's algorithm: below numCellThreshold non-empty cells, emit one
// partition per non-empty cell; otherwise recursively bisect the
// universe by the cost-minimizing boundary until every leaf partition's
// cost is within maxCost or it spans a single cell. A range whose
// cost-minimizing boundary leaves one side with zero cost is not split:
// it is emitted whole, so such a partition can exceed maxCost while
// spanning more than one cell.
func BuildBSPPartitioner(cfg BSPConfig, hist *CellHistogram) (*BSPPartitioner, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	numNonEmpty := 0
	for i := 0; i < hist.NumCells(); i++ {
		if hist.NonEmpty(i) {
			numNonEmpty++
		}
	}

	p := &BSPPartitioner{cfg: cfg}

	if numNonEmpty <= cfg.NumCellThreshold {
		for i := 0; i < hist.NumCells(); i++ {
			if hist.NonEmpty(i) {
				p.emit(hist.Cell(i).Range, hist)
			}
		}
		return p, nil
	}

	queue := []NRectRange{cfg.Universe}
	for len(queue) > 0 {
		rng := queue[0]
		queue = queue[1:]

		cost := costOfRange(hist, rng, cfg.Side)
		if cost <= cfg.MaxCost || isUnsplittable(rng, cfg.Side) {
			p.emit(rng, hist)
			continue
		}
		r1, r2, ok := costBasedSplit(rng, hist, cfg.Side)
		if !ok {
			// No usable split: either the best boundary leaves one side
			// with zero cost, or no interior boundary exists at all.
			// Emit rng whole rather than looping forever.
			p.emit(rng, hist)
			continue
		}
		queue = append(queue, r1)
		if r2 != nil {
			queue = append(queue, *r2)
		}
	}
	return p, nil
}

func (p *BSPPartitioner) emit(rng NRectRange, hist *CellHistogram) {
	id := len(p.cells)
	extent := rng
	if !p.cfg.PointsOnly {
		extent = extentOfRange(hist, rng, p.cfg.Side)
	}
	p.cells = append(p.cells, Cell{ID: id, Range: rng, Extent: extent})
	p.nonEmpty = append(p.nonEmpty, true)
}

// isUnsplittable reports whether rng has side <= s in every dimension,
// i.e. no interior cell boundary exists to split on.
func isUnsplittable(rng NRectRange, s float64) bool {
	for _, l := range rng.Lengths() {
		if l > s+1e-9 {
			return false
		}
	}
	return true
}

func cellsInDim(rng NRectRange, dim int, s float64) int {
	return int(math.Round(rng.Lengths()[dim] / s))
}

// costOfRange sums histogram counts over cells fully contained in rng.
// Because every split boundary this partitioner ever introduces is an
// exact multiple of s from the universe origin, a histogram cell is
// always either fully inside or fully outside rng, never partially
// overlapping.
func costOfRange(hist *CellHistogram, rng NRectRange, s float64) uint64 {
	var total uint64
	for i := 0; i < hist.NumCells(); i++ {
		c := hist.Cell(i)
		if rng.ContainsRange(c.Range) {
			total += hist.Count(i)
		}
	}
	return total
}

// extentOfRange accumulates the extents of every histogram cell fully
// contained in rng, per §4.3's "each emitted cell carries an extent
// computed by extending the cell's range with the extents of all
// histogram cells it covers."
func extentOfRange(hist *CellHistogram, rng NRectRange, s float64) NRectRange {
	b := NewCellBuilder(-1, rng, false)
	for i := 0; i < hist.NumCells(); i++ {
		c := hist.Cell(i)
		if rng.ContainsRange(c.Range) && hist.NonEmpty(i) {
			b.Extend(c.Extent)
		}
	}
	return b.Build().Extent
}

// costBasedSplit implements §4.3's cost-based split: over every
// dimension with more than one cell and every interior boundary, score
// candidates by |cost(P1)-cost(P2)| and pick the minimizing one, ties
// broken lexicographically by (dim, boundary).
func costBasedSplit(rng NRectRange, hist *CellHistogram, s float64) (NRectRange, *NRectRange, bool) {
	type candidate struct {
		dim, boundary int
		p1, p2        NRectRange
		score         uint64
	}
	var best *candidate
	for dim := 0; dim < rng.Dim(); dim++ {
		n := cellsInDim(rng, dim, s)
		if n <= 1 {
			continue
		}
		for i := 1; i < n; i++ {
			p1 := rng
			ur := rng.UR.Clone()
			ur[dim] = rng.LL[dim] + float64(i)*s
			p1.UR = ur
			p2 := rng.Diff(p1, dim)

			c1 := costOfRange(hist, p1, s)
			c2 := costOfRange(hist, p2, s)
			score := absDiff(c1, c2)
			cand := candidate{dim: dim, boundary: i, p1: p1, p2: p2, score: score}
			if best == nil || cand.score < best.score ||
				(cand.score == best.score && lexLess(cand.dim, cand.boundary, best.dim, best.boundary)) {
				best = &cand
			}
		}
	}
	if best == nil {
		return NRectRange{}, nil, false
	}
	c1 := costOfRange(hist, best.p1, s)
	c2 := costOfRange(hist, best.p2, s)
	if c1 == 0 || c2 == 0 {
		// Every candidate boundary leaves one side empty: splitting
		// would drop that side's region from the partitioning (or
		// require re-queuing rng unchanged, looping forever). Report
		// no usable split; the caller emits rng whole, so the empty
		// side is absorbed into the one partition rather than lost
		// (§4.3: "the non-empty side absorbs the empty range so the
		// union still equals P").
		return NRectRange{}, nil, false
	}
	return best.p1, &best.p2, true
}

func absDiff(a, b uint64) uint64 {
	if a > b {
		return a - b
	}
	return b - a
}

func lexLess(dim1, b1, dim2, b2 int) bool {
	if dim1 != dim2 {
		return dim1 < dim2
	}
	return b1 < b2
}

// NumPartitions implements Partitioner.
func (p *BSPPartitioner) NumPartitions() uint32 { return uint32(len(p.cells)) }

// GetPartitionID implements Partitioner by linear scan over the
// partition ranges (the partition count is small relative to the
// dataset; see §9's open question about a future interval-tree).
func (p *BSPPartitioner) GetPartitionID(key Keyed) (uint32, error) {
	pt := key.Centroid()
	for i, c := range p.cells {
		if c.Range.Contains(pt) {
			return uint32(i), nil
		}
	}
	return 0, errs.NewDomainError("coordinate out of universe", map[string]any{"point": pt})
}

// PartitionBounds implements Partitioner.
func (p *BSPPartitioner) PartitionBounds(id uint32) Cell { return p.cells[id] }

// PartitionExtent implements Partitioner.
func (p *BSPPartitioner) PartitionExtent(id uint32) NRectRange { return p.cells[id].Extent }

// IsEmpty implements Partitioner. BSP partitions are only ever emitted
// non-empty along the recursion (a cost-0 leaf still holds a valid
// region of the universe, but "non-empty" here means ever-assigned, and
// every emitted BSP partition occupies universe space so it is
// considered non-empty by construction).
func (p *BSPPartitioner) IsEmpty(id uint32) bool { return !p.nonEmpty[id] }

// WritePartitionManifest implements Partitioner.
func (p *BSPPartitioner) WritePartitionManifest(path string, fileNames []string) error {
	entries := make([]ManifestEntry, 0, len(p.cells))
	for i, c := range p.cells {
		file := ""
		if i < len(fileNames) {
			file = fileNames[i]
		}
		if file == "" {
			file = newPartFileName()
		}
		entries = append(entries, ManifestEntry{Envelope: c.Extent, File: file})
	}
	return WriteManifest(path, orderByFile(entries))
}
