package spatial

import (
	"fmt"
	"math"

	"github.com/starkdb/stark/errs"
)

// HistogramItem is the minimal contract the histogram builder needs
// from a dataset element: a centroid to bucket it, and an envelope to
// accumulate into its cell's extent.
type HistogramItem interface {
	Centroid() NPoint
	Envelope() NRectRange
}

// HistogramConfig parametrizes a CellHistogram build, per §4.1.
type HistogramConfig struct {
	Universe   NRectRange
	XLen, YLen float64
	PointsOnly bool
}

// Validate checks the config invariants, failing with ConfigError.
func (c HistogramConfig) Validate() error {
	if c.XLen <= 0 || c.YLen <= 0 {
		return errs.NewConfigError("cell side lengths must be positive", map[string]any{"xLen": c.XLen, "yLen": c.YLen})
	}
	if c.Universe.Dim() != 2 {
		return errs.NewConfigError("histogram universe must be 2-dimensional", map[string]any{"dim": c.Universe.Dim()})
	}
	if c.Universe.UR[0] <= c.Universe.LL[0] || c.Universe.UR[1] <= c.Universe.LL[1] {
		return errs.NewConfigError("inconsistent universe bounds", nil)
	}
	return nil
}

// NumCells returns (numXCells, numYCells) for the config.
func (c HistogramConfig) NumCells() (int, int) {
	lengths := c.Universe.Lengths()
	numX := int(math.Ceil(lengths[0] / c.XLen))
	numY := int(math.Ceil(lengths[1] / c.YLen))
	if numX < 1 {
		numX = 1
	}
	if numY < 1 {
		numY = 1
	}
	return numX, numY
}

// CellHistogram is a fixed-size array of (Cell, count), built once per
// partitioner build and never mutated afterwards. Indexed by
// cellId = cy*numXCells + cx.
type CellHistogram struct {
	cfg      HistogramConfig
	numX     int
	numY     int
	cells    []Cell
	counts   []uint64
	nonEmpty []bool
}

// CellID computes the row-major cell index for a point, failing with
// DomainError when the point falls outside the universe.
func (c HistogramConfig) CellID(p NPoint) (int, error) {
	numX, numY := c.NumCells()
	if !c.Universe.Contains(p) {
		return 0, errs.NewDomainError("coordinate out of universe", map[string]any{"point": p, "universe": c.Universe})
	}
	cx := int((p[0] - c.Universe.LL[0]) / c.XLen)
	cy := int((p[1] - c.Universe.LL[1]) / c.YLen)
	if cx >= numX {
		cx = numX - 1
	}
	if cy >= numY {
		cy = numY - 1
	}
	return cy*numX + cx, nil
}

// cellRange returns the range covered by cell (cx, cy).
func (c HistogramConfig) cellRange(cx, cy int) NRectRange {
	ll := NPoint{c.Universe.LL[0] + float64(cx)*c.XLen, c.Universe.LL[1] + float64(cy)*c.YLen}
	ur := NPoint{ll[0] + c.XLen, ll[1] + c.YLen}
	numX, numY := c.NumCells()
	if cx == numX-1 {
		ur[0] = c.Universe.UR[0]
	}
	if cy == numY-1 {
		ur[1] = c.Universe.UR[1]
	}
	return NRectRange{LL: ll, UR: ur}
}

// NewCellHistogram seeds an empty histogram: one zero-count Cell per
// grid cell in row-major order, per §4.1's "Seed" step.
func NewCellHistogram(cfg HistogramConfig) (*CellHistogram, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	numX, numY := cfg.NumCells()
	h := &CellHistogram{
		cfg:      cfg,
		numX:     numX,
		numY:     numY,
		cells:    make([]Cell, numX*numY),
		counts:   make([]uint64, numX*numY),
		nonEmpty: make([]bool, numX*numY),
	}
	for cy := 0; cy < numY; cy++ {
		for cx := 0; cx < numX; cx++ {
			id := cy*numX + cx
			h.cells[id] = Cell{ID: id, Range: cfg.cellRange(cx, cy), Extent: cfg.cellRange(cx, cy)}
		}
	}
	return h, nil
}

// NumXCells / NumYCells expose the grid shape.
func (h *CellHistogram) NumXCells() int { return h.numX }
func (h *CellHistogram) NumYCells() int { return h.numY }

// Cell returns the cell at id.
func (h *CellHistogram) Cell(id int) Cell { return h.cells[id] }

// Count returns the element count for cell id.
func (h *CellHistogram) Count(id int) uint64 { return h.counts[id] }

// NonEmpty reports whether any element has ever landed in cell id.
func (h *CellHistogram) NonEmpty(id int) bool { return h.nonEmpty[id] }

// NumCells returns the total number of cells in the grid.
func (h *CellHistogram) NumCells() int { return len(h.cells) }

// Config returns the histogram's build configuration.
func (h *CellHistogram) Config() HistogramConfig { return h.cfg }

// Add folds a single element into the histogram in place. Building a
// histogram this way (rather than through Build) is what lets a
// bulk-parallel collaborator fold per-partition and then Merge partial
// histograms together (§4.1, §5).
func (h *CellHistogram) Add(item HistogramItem) error {
	id, err := h.cfg.CellID(item.Centroid())
	if err != nil {
		return err
	}
	h.counts[id]++
	h.nonEmpty[id] = true
	if !h.cfg.PointsOnly {
		b := NewCellBuilder(id, h.cells[id].Range, false)
		b.Extend(h.cells[id].Extent)
		b.Extend(item.Envelope())
		h.cells[id] = b.Build()
	}
	return nil
}

// BuildCellHistogram folds over a dataset to produce a histogram, per
// §4.1's Build operation.
func BuildCellHistogram(cfg HistogramConfig, items []HistogramItem) (*CellHistogram, error) {
	h, err := NewCellHistogram(cfg)
	if err != nil {
		return nil, err
	}
	for _, it := range items {
		if err := h.Add(it); err != nil {
			return nil, err
		}
	}
	return h, nil
}

// TotalCount returns the sum of all cell counts; must equal len(dataset)
// after a Build, per §8's invariant.
func (h *CellHistogram) TotalCount() uint64 {
	var total uint64
	for _, c := range h.counts {
		total += c
	}
	return total
}

// Merge combines two histograms elementwise: counts add, and for
// non-point histograms extents extend. Associative and commutative, so
// safe for tree reductions (§5, §8).
func (h *CellHistogram) Merge(other *CellHistogram) (*CellHistogram, error) {
	if h.numX != other.numX || h.numY != other.numY {
		return nil, errs.NewConfigError(fmt.Sprintf("cannot merge histograms of differing shape %dx%d vs %dx%d", h.numX, h.numY, other.numX, other.numY), nil)
	}
	out := &CellHistogram{
		cfg:      h.cfg,
		numX:     h.numX,
		numY:     h.numY,
		cells:    make([]Cell, len(h.cells)),
		counts:   make([]uint64, len(h.counts)),
		nonEmpty: make([]bool, len(h.nonEmpty)),
	}
	for i := range h.cells {
		out.counts[i] = h.counts[i] + other.counts[i]
		out.nonEmpty[i] = h.nonEmpty[i] || other.nonEmpty[i]
		rng := h.cells[i].Range
		if h.cfg.PointsOnly {
			out.cells[i] = Cell{ID: i, Range: rng, Extent: rng}
		} else {
			extent := h.cells[i].Extent.Extend(other.cells[i].Extent)
			out.cells[i] = Cell{ID: i, Range: rng, Extent: extent}
		}
	}
	return out, nil
}
