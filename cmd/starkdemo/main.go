// Command starkdemo loads a point sample, builds a histogram-backed
// partitioner, and runs the filter/join/k-NN/skyline operators against
// it through the in-memory bulk-parallel collaborator, reporting timing
// and partition statistics. It is demonstration glue exercising the
// core, not part of the module's public API.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/starkdb/stark/bulk"
	"github.com/starkdb/stark/geom"
	"github.com/starkdb/stark/ops"
	"github.com/starkdb/stark/spatial"
	"github.com/starkdb/stark/stobject"
	"github.com/starkdb/stark/temporal"
	"github.com/tidwall/cast"
	"github.com/tidwall/gjson"
	"github.com/tidwall/log"
)

var (
	samplePath   string
	manifestPath string
	partitioning string
	cellSide     float64
	maxCost      uint64
	k            int
	maxDist      float64
	verbose      bool
)

func init() {
	flag.StringVar(&samplePath, "sample", "", "path to an NDJSON point sample, one {\"x\":..,\"y\":..,\"t\":..} object per line")
	flag.StringVar(&manifestPath, "manifest", "", "path to write the partition manifest to (optional)")
	flag.StringVar(&partitioning, "partitioner", "grid", "partitioner kind: grid or bsp")
	flag.Float64Var(&cellSide, "cell-side", 1.0, "histogram cell side length in each dimension")
	flag.Uint64Var(&maxCost, "max-cost", 1000, "BSP leaf cost threshold (ignored for -partitioner=grid)")
	flag.IntVar(&k, "k", 5, "k for the k-NN query")
	flag.Float64Var(&maxDist, "max-dist", 5.0, "maxDist for the WITHIN_DISTANCE filter/join")
	flag.BoolVar(&verbose, "verbose", false, "enable debug-level logging")
}

func main() {
	flag.Parse()
	log.Default = log.New(os.Stderr, nil)
	if verbose {
		log.Debug("verbose logging enabled")
	}
	if samplePath == "" {
		fmt.Fprintln(os.Stderr, "Usage: starkdemo -sample <ndjson-file> [options]")
		flag.PrintDefaults()
		os.Exit(1)
	}

	points, err := loadSample(samplePath)
	if err != nil {
		log.Fatalf("loading sample: %v", err)
	}
	log.Infof("loaded %d points from %s", len(points), samplePath)

	universe := boundingUniverse(points)
	hcfg := spatial.HistogramConfig{Universe: universe, XLen: cellSide, YLen: cellSide, PointsOnly: true}

	hist, err := buildHistogram(hcfg, points)
	if err != nil {
		log.Fatalf("building histogram: %v", err)
	}
	log.Infof("histogram: %dx%d cells, %d total points", hist.NumXCells(), hist.NumYCells(), hist.TotalCount())

	partitioner, err := buildPartitioner(universe, hcfg, hist)
	if err != nil {
		log.Fatalf("building partitioner: %v", err)
	}
	log.Infof("partitioner %q: %d partitions", partitioning, partitioner.NumPartitions())

	coll := bulk.Parallelize(points, int(partitioner.NumPartitions()))
	partitioned, err := coll.PartitionBy(partitioner, func(o stobject.STObject) spatial.Keyed { return o })
	if err != nil {
		log.Fatalf("partitioning: %v", err)
	}

	if manifestPath != "" {
		if err := partitioner.WritePartitionManifest(manifestPath, nil); err != nil {
			log.Fatalf("writing manifest: %v", err)
		}
		log.Infof("wrote partition manifest to %s", manifestPath)
	}

	query := stobject.New(geom.NewPoint(universe.LL[0], universe.LL[1]))

	runFilter(partitioned, query)
	runKNN(partitioned, query)
	runJoin(partitioned, query)
	runSkyline(partitioned, query)
}

func loadSample(path string) ([]stobject.STObject, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var out []stobject.STObject
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := sc.Text()
		if line == "" {
			continue
		}
		res := gjson.Parse(line)
		x := cast.ToFloat64(res.Get("x").Value())
		y := cast.ToFloat64(res.Get("y").Value())
		pt := geom.NewPoint(x, y)
		if tv := res.Get("t"); tv.Exists() {
			t := cast.ToInt64(tv.Value())
			out = append(out, stobject.NewWithTime(pt, temporal.Instant(t)))
			continue
		}
		out = append(out, stobject.New(pt))
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func boundingUniverse(points []stobject.STObject) spatial.NRectRange {
	if len(points) == 0 {
		ll, _ := spatial.NewNRectRange(spatial.NPoint{0, 0}, spatial.NPoint{1, 1})
		return ll
	}
	b := points[0].Geom.Envelope()
	for _, p := range points[1:] {
		b = b.Union(p.Geom.Envelope())
	}
	return spatial.UniverseOf(b)
}

func buildHistogram(cfg spatial.HistogramConfig, points []stobject.STObject) (*spatial.CellHistogram, error) {
	items := make([]spatial.HistogramItem, len(points))
	for i, p := range points {
		items[i] = p
	}
	return spatial.BuildCellHistogram(cfg, items)
}

func buildPartitioner(universe spatial.NRectRange, hcfg spatial.HistogramConfig, hist *spatial.CellHistogram) (spatial.Partitioner, error) {
	switch partitioning {
	case "bsp":
		cfg := spatial.BSPConfig{Universe: universe, Side: cellSide, MaxCost: maxCost, PointsOnly: true, NumCellThreshold: 8}
		return spatial.BuildBSPPartitioner(cfg, hist)
	default:
		return spatial.GridFromSideLength(universe, cellSide, cellSide, true)
	}
}

func runFilter(coll bulk.Collection[stobject.STObject], q stobject.STObject) {
	start := time.Now()
	out, err := ops.Filter(coll, q, ops.FilterConfig{Predicate: stobject.WithinDistance, MaxDist: maxDist, UseIndex: true})
	if err != nil {
		log.Errorf("filter: %v", err)
		return
	}
	matches, err := out.Collect()
	if err != nil {
		log.Errorf("filter collect: %v", err)
		return
	}
	log.Infof("filter withinDistance(%.2f): %d matches in %s", maxDist, len(matches), time.Since(start))
}

func runKNN(coll bulk.Collection[stobject.STObject], q stobject.STObject) {
	start := time.Now()
	neighbors, err := ops.KNN(coll, q, ops.KNNConfig{K: k, UseIndex: true})
	if err != nil {
		log.Errorf("knn: %v", err)
		return
	}
	log.Infof("knn k=%d: %d neighbors in %s", k, len(neighbors), time.Since(start))
}

func runJoin(coll bulk.Collection[stobject.STObject], q stobject.STObject) {
	start := time.Now()
	self := bulk.Parallelize([]stobject.STObject{q}, 1)
	out, err := ops.Join(coll, self, ops.JoinConfig{Predicate: stobject.WithinDistance, MaxDist: maxDist, UseIndex: true})
	if err != nil {
		log.Errorf("join: %v", err)
		return
	}
	pairs, err := out.Collect()
	if err != nil {
		log.Errorf("join collect: %v", err)
		return
	}
	log.Infof("join withinDistance(%.2f) against query point: %d pairs in %s", maxDist, len(pairs), time.Since(start))
}

func runSkyline(coll bulk.Collection[stobject.STObject], q stobject.STObject) {
	start := time.Now()
	points, err := ops.SkylineAgg(coll, closerTo(q))
	if err != nil {
		log.Errorf("skyline: %v", err)
		return
	}
	log.Infof("skyline (closer-to-query dominance): %d points in %s", len(points), time.Since(start))
}

func closerTo(ref stobject.STObject) ops.Dominates {
	return func(a, b stobject.STObject) bool {
		return a.Geom.Distance(ref.Geom) < b.Geom.Distance(ref.Geom)
	}
}
