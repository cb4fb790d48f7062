package spatial

import (
	"math"

	"github.com/starkdb/stark/errs"
)

// GridPartitioner maps a key to one of numXCells*numYCells buckets over
// a bounded universe, per §4.2.
type GridPartitioner struct {
	cfg      HistogramConfig
	numX     int
	numY     int
	cells    []Cell
	nonEmpty []bool
}

// GridFromSideLength builds a grid partitioner with a fixed cell side
// length in each dimension.
func GridFromSideLength(universe NRectRange, xLen, yLen float64, pointsOnly bool) (*GridPartitioner, error) {
	cfg := HistogramConfig{Universe: universe, XLen: xLen, YLen: yLen, PointsOnly: pointsOnly}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return newGridPartitioner(cfg)
}

// GridFromPointsPerDim builds a grid partitioner by dividing the
// universe so that each cell targets approximately pointsPerDim
// elements along each axis, given an estimated total element count.
func GridFromPointsPerDim(universe NRectRange, pointsPerDim int, estimatedCount int, pointsOnly bool) (*GridPartitioner, error) {
	if pointsPerDim <= 0 {
		return nil, errs.NewConfigError("pointsPerDim must be positive", map[string]any{"pointsPerDim": pointsPerDim})
	}
	lengths := universe.Lengths()
	numPerAxis := math.Max(1, math.Sqrt(float64(estimatedCount)/float64(pointsPerDim)))
	xLen := lengths[0] / numPerAxis
	yLen := lengths[1] / numPerAxis
	return GridFromSideLength(universe, xLen, yLen, pointsOnly)
}

func newGridPartitioner(cfg HistogramConfig) (*GridPartitioner, error) {
	numX, numY := cfg.NumCells()
	g := &GridPartitioner{cfg: cfg, numX: numX, numY: numY, cells: make([]Cell, numX*numY), nonEmpty: make([]bool, numX*numY)}
	for cy := 0; cy < numY; cy++ {
		for cx := 0; cx < numX; cx++ {
			id := cy*numX + cx
			rng := cfg.cellRange(cx, cy)
			g.cells[id] = Cell{ID: id, Range: rng, Extent: rng}
		}
	}
	return g, nil
}

// NumPartitions implements Partitioner.
func (g *GridPartitioner) NumPartitions() uint32 { return uint32(len(g.cells)) }

// GetPartitionID implements Partitioner, marking the target bucket as
// non-empty as a side effect (matching §4.2's "tracks which partition
// ids have ever been assigned" ever-assigned flag).
func (g *GridPartitioner) GetPartitionID(key Keyed) (uint32, error) {
	id, err := g.cfg.CellID(key.Centroid())
	if err != nil {
		return 0, err
	}
	g.nonEmpty[id] = true
	return uint32(id), nil
}

// PartitionBounds implements Partitioner.
func (g *GridPartitioner) PartitionBounds(id uint32) Cell { return g.cells[id] }

// PartitionExtent implements Partitioner.
func (g *GridPartitioner) PartitionExtent(id uint32) NRectRange { return g.cells[id].Extent }

// IsEmpty implements Partitioner.
func (g *GridPartitioner) IsEmpty(id uint32) bool { return !g.nonEmpty[id] }

// ExtendExtent folds an element's envelope into partition id's extent,
// mirroring how the histogram accumulates extents. Assigning elements
// through GetPartitionID (as bulk's PartitionBy does) does not call it,
// so a partition's extent stays equal to its range unless a caller
// extends it explicitly.
func (g *GridPartitioner) ExtendExtent(id uint32, envelope NRectRange) {
	b := NewCellBuilder(int(id), g.cells[id].Range, g.cfg.PointsOnly)
	b.Extend(g.cells[id].Extent)
	b.Extend(envelope)
	g.cells[id] = b.Build()
}

// WritePartitionManifest implements Partitioner.
func (g *GridPartitioner) WritePartitionManifest(path string, fileNames []string) error {
	entries := make([]ManifestEntry, 0, len(g.cells))
	for i, c := range g.cells {
		if g.nonEmpty[i] {
			file := ""
			if i < len(fileNames) {
				file = fileNames[i]
			}
			if file == "" {
				file = newPartFileName()
			}
			entries = append(entries, ManifestEntry{Envelope: c.Extent, File: file})
		}
	}
	return WriteManifest(path, orderByFile(entries))
}
