package spatial

import (
	"os"
	"testing"
)

func mustRange(t *testing.T, ll, ur NPoint) NRectRange {
	r, err := NewNRectRange(ll, ur)
	if err != nil {
		t.Fatalf("NewNRectRange: %v", err)
	}
	return r
}

func TestNRectRangeRightOpenContains(t *testing.T) {
	r := mustRange(t, NPoint{0, 0}, NPoint{10, 10})
	if !r.Contains(NPoint{0, 0}) {
		t.Fatalf("expected LL to be contained (right-open on UR side only)")
	}
	if r.Contains(NPoint{10, 5}) {
		t.Fatalf("expected UR[0] to be excluded by right-open semantics")
	}
}

func TestNRectRangeIntersectsAndExtend(t *testing.T) {
	a := mustRange(t, NPoint{0, 0}, NPoint{5, 5})
	b := mustRange(t, NPoint{4, 4}, NPoint{10, 10})
	c := mustRange(t, NPoint{100, 100}, NPoint{200, 200})
	if !a.Intersects(b) {
		t.Fatalf("expected a and b to intersect")
	}
	if a.Intersects(c) {
		t.Fatalf("expected a and c to be disjoint")
	}
	ext := a.Extend(c)
	if ext.LL[0] != 0 || ext.UR[0] != 200 {
		t.Fatalf("unexpected extend result: %v", ext)
	}
}

func TestNRectRangeContainsRangeRightOpenBoundary(t *testing.T) {
	outer := mustRange(t, NPoint{0, 0}, NPoint{10, 10})
	inner := mustRange(t, NPoint{0, 0}, NPoint{10, 10})
	if !outer.ContainsRange(inner) {
		t.Fatalf("expected a range to contain an identical range")
	}
	tooWide := mustRange(t, NPoint{-1, 0}, NPoint{10, 10})
	if outer.ContainsRange(tooWide) {
		t.Fatalf("expected outer to reject a range extending below its LL")
	}
}

type fakeHistItem struct {
	c NPoint
	e NRectRange
}

func (f fakeHistItem) Centroid() NPoint    { return f.c }
func (f fakeHistItem) Envelope() NRectRange { return f.e }

func TestCellHistogramBuildAndMerge(t *testing.T) {
	universe := mustRange(t, NPoint{0, 0}, NPoint{10, 10})
	cfg := HistogramConfig{Universe: universe, XLen: 5, YLen: 5}

	items1 := []HistogramItem{
		fakeHistItem{c: NPoint{1, 1}, e: mustRange(t, NPoint{1, 1}, NPoint{1, 1})},
		fakeHistItem{c: NPoint{2, 2}, e: mustRange(t, NPoint{2, 2}, NPoint{2, 2})},
	}
	h1, err := BuildCellHistogram(cfg, items1)
	if err != nil {
		t.Fatalf("build h1: %v", err)
	}
	if h1.TotalCount() != 2 {
		t.Fatalf("expected total count 2, got %d", h1.TotalCount())
	}

	items2 := []HistogramItem{
		fakeHistItem{c: NPoint{8, 8}, e: mustRange(t, NPoint{8, 8}, NPoint{8, 8})},
	}
	h2, err := BuildCellHistogram(cfg, items2)
	if err != nil {
		t.Fatalf("build h2: %v", err)
	}

	merged, err := h1.Merge(h2)
	if err != nil {
		t.Fatalf("merge: %v", err)
	}
	if merged.TotalCount() != 3 {
		t.Fatalf("expected merged total count 3, got %d", merged.TotalCount())
	}
}

func TestCellHistogramOutOfUniverseFails(t *testing.T) {
	universe := mustRange(t, NPoint{0, 0}, NPoint{10, 10})
	cfg := HistogramConfig{Universe: universe, XLen: 5, YLen: 5}
	h, err := NewCellHistogram(cfg)
	if err != nil {
		t.Fatalf("new histogram: %v", err)
	}
	if err := h.Add(fakeHistItem{c: NPoint{100, 100}}); err == nil {
		t.Fatalf("expected DomainError for out-of-universe point")
	}
}

func TestGridPartitionerAssignsAndTracksEmptiness(t *testing.T) {
	universe := mustRange(t, NPoint{0, 0}, NPoint{10, 10})
	g, err := GridFromSideLength(universe, 5, 5, true)
	if err != nil {
		t.Fatalf("gridFromSideLength: %v", err)
	}
	id, err := g.GetPartitionID(fakeHistItem{c: NPoint{1, 1}})
	if err != nil {
		t.Fatalf("getPartitionID: %v", err)
	}
	if g.IsEmpty(id) {
		t.Fatalf("expected partition %d to be marked non-empty after assignment", id)
	}
	otherID, err := g.GetPartitionID(fakeHistItem{c: NPoint{8, 8}})
	if err != nil {
		t.Fatalf("getPartitionID: %v", err)
	}
	if id == otherID {
		t.Fatalf("expected distant points to land in different partitions")
	}
}

func TestBSPPartitionerBelowThresholdEmitsOnePerNonEmptyCell(t *testing.T) {
	universe := mustRange(t, NPoint{0, 0}, NPoint{10, 10})
	hcfg := HistogramConfig{Universe: universe, XLen: 5, YLen: 5}
	items := []HistogramItem{
		fakeHistItem{c: NPoint{1, 1}, e: mustRange(t, NPoint{1, 1}, NPoint{1, 1})},
		fakeHistItem{c: NPoint{8, 8}, e: mustRange(t, NPoint{8, 8}, NPoint{8, 8})},
	}
	hist, err := BuildCellHistogram(hcfg, items)
	if err != nil {
		t.Fatalf("build histogram: %v", err)
	}
	cfg := BSPConfig{Universe: universe, Side: 5, MaxCost: 100, NumCellThreshold: 10}
	p, err := BuildBSPPartitioner(cfg, hist)
	if err != nil {
		t.Fatalf("buildBSPPartitioner: %v", err)
	}
	if p.NumPartitions() != 2 {
		t.Fatalf("expected 2 partitions (one per non-empty cell), got %d", p.NumPartitions())
	}
}

func TestBSPPartitionerRecursivelySplitsOverMaxCost(t *testing.T) {
	universe := mustRange(t, NPoint{0, 0}, NPoint{20, 5})
	hcfg := HistogramConfig{Universe: universe, XLen: 1, YLen: 5}
	var items []HistogramItem
	for x := 0; x < 20; x++ {
		items = append(items, fakeHistItem{c: NPoint{float64(x) + 0.5, 2.5}, e: mustRange(t, NPoint{float64(x) + 0.5, 2.5}, NPoint{float64(x) + 0.5, 2.5})})
	}
	hist, err := BuildCellHistogram(hcfg, items)
	if err != nil {
		t.Fatalf("build histogram: %v", err)
	}
	cfg := BSPConfig{Universe: universe, Side: 1, MaxCost: 5, NumCellThreshold: 1}
	p, err := BuildBSPPartitioner(cfg, hist)
	if err != nil {
		t.Fatalf("buildBSPPartitioner: %v", err)
	}
	if p.NumPartitions() < 2 {
		t.Fatalf("expected the BSP to split a 20-point single-row universe under maxCost=5, got %d partition(s)", p.NumPartitions())
	}
}

func TestBSPPartitionerAbsorbsEmptySideOfZeroCostSplit(t *testing.T) {
	universe := mustRange(t, NPoint{0, 0}, NPoint{10, 10})
	hcfg := HistogramConfig{Universe: universe, XLen: 5, YLen: 5}
	var items []HistogramItem
	for i := 0; i < 1000; i++ {
		items = append(items, fakeHistItem{c: NPoint{1, 1}, e: mustRange(t, NPoint{1, 1}, NPoint{1, 1})})
	}
	hist, err := BuildCellHistogram(hcfg, items)
	if err != nil {
		t.Fatalf("build histogram: %v", err)
	}
	// Every cost-based split candidate isolates the single hot cell from
	// an entirely empty remainder, so the first split's "best" boundary
	// always has one zero-cost side.
	cfg := BSPConfig{Universe: universe, Side: 5, MaxCost: 100, NumCellThreshold: 0}
	p, err := BuildBSPPartitioner(cfg, hist)
	if err != nil {
		t.Fatalf("buildBSPPartitioner: %v", err)
	}
	// The cold 90% of the universe must still belong to some partition;
	// it must never be silently dropped by the absorbed split.
	coldPoint := fakeHistItem{c: NPoint{8, 8}}
	if _, err := p.GetPartitionID(coldPoint); err != nil {
		t.Fatalf("expected the empty region to be covered by a partition, got error: %v", err)
	}
	hotPoint := fakeHistItem{c: NPoint{1, 1}}
	if _, err := p.GetPartitionID(hotPoint); err != nil {
		t.Fatalf("expected the hot cell to be covered by a partition, got error: %v", err)
	}
}

func TestManifestWriteAndReadRoundTrips(t *testing.T) {
	f, err := os.CreateTemp("", "manifest-*.txt")
	if err != nil {
		t.Fatalf("tempfile: %v", err)
	}
	path := f.Name()
	f.Close()
	defer os.Remove(path)

	start, end := int64(100), int64(200)
	entries := []ManifestEntry{
		{Envelope: mustRange(t, NPoint{0, 0}, NPoint{1, 1}), Start: &start, End: &end, File: "part-0.dat"},
		{Envelope: mustRange(t, NPoint{1, 1}, NPoint{2, 2}), File: "part-1.dat"},
	}
	if err := WriteManifest(path, entries); err != nil {
		t.Fatalf("writeManifest: %v", err)
	}
	got, err := ReadManifest(path)
	if err != nil {
		t.Fatalf("readManifest: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(got))
	}
	if got[0].File != "part-0.dat" || got[0].Start == nil || *got[0].Start != 100 {
		t.Fatalf("unexpected first entry: %+v", got[0])
	}
	if got[1].Start != nil {
		t.Fatalf("expected second entry to have no temporal bound, got %v", *got[1].Start)
	}
	if !got[0].Envelope.Equal(entries[0].Envelope) {
		t.Fatalf("envelope did not round-trip: got %v want %v", got[0].Envelope, entries[0].Envelope)
	}
}

func TestGridWritePartitionManifestGeneratesFileNamesWhenMissing(t *testing.T) {
	f, err := os.CreateTemp("", "manifest-*.txt")
	if err != nil {
		t.Fatalf("tempfile: %v", err)
	}
	path := f.Name()
	f.Close()
	defer os.Remove(path)

	universe := mustRange(t, NPoint{0, 0}, NPoint{10, 10})
	g, err := GridFromSideLength(universe, 5, 5, true)
	if err != nil {
		t.Fatalf("gridFromSideLength: %v", err)
	}
	if _, err := g.GetPartitionID(fakeHistItem{c: NPoint{1, 1}}); err != nil {
		t.Fatalf("getPartitionID: %v", err)
	}
	if err := g.WritePartitionManifest(path, nil); err != nil {
		t.Fatalf("writePartitionManifest: %v", err)
	}
	got, err := ReadManifest(path)
	if err != nil {
		t.Fatalf("readManifest: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 manifest entry for the one non-empty partition, got %d", len(got))
	}
	if got[0].File == "" {
		t.Fatalf("expected a generated file name, got empty string")
	}
}
