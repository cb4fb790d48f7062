package ops

import (
	"testing"

	"github.com/starkdb/stark/bulk"
	"github.com/starkdb/stark/stobject"
)

func TestBoundedTopKKeepsClosestK(t *testing.T) {
	b := NewBoundedTopK(2)
	b.Insert(5, pointObj(5, 0))
	b.Insert(1, pointObj(1, 0))
	b.Insert(3, pointObj(3, 0))
	got := b.Sorted()
	if len(got) != 2 {
		t.Fatalf("expected 2 candidates, got %d", len(got))
	}
	if got[0].Dist != 1 || got[1].Dist != 3 {
		t.Fatalf("expected [1,3], got [%v,%v]", got[0].Dist, got[1].Dist)
	}
}

func TestBoundedTopKMergeShortCircuits(t *testing.T) {
	a := NewBoundedTopK(1)
	a.Insert(1, pointObj(1, 0))
	b := NewBoundedTopK(1)
	b.Insert(100, pointObj(100, 0))
	merged := a.Merge(b)
	got := merged.Sorted()
	if len(got) != 1 || got[0].Dist != 1 {
		t.Fatalf("expected merge to keep the closer candidate, got %v", got)
	}
}

func TestKNNReturnsKNearestAcrossPartitions(t *testing.T) {
	pts := []stobject.STObject{
		pointObj(0, 0), pointObj(1, 0), pointObj(2, 0),
		pointObj(10, 0), pointObj(20, 0),
	}
	coll := bulk.Parallelize(pts, 3)
	q := pointObj(0, 0)
	got, err := KNN(coll, q, KNNConfig{K: 3})
	if err != nil {
		t.Fatalf("knn: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 neighbors, got %d", len(got))
	}
	for i := 1; i < len(got); i++ {
		if got[i].Dist < got[i-1].Dist {
			t.Fatalf("neighbors not ordered by distance: %v", got)
		}
	}
}

func TestKNNUseIndexAgreesWithScan(t *testing.T) {
	pts := []stobject.STObject{
		pointObj(0, 0), pointObj(1, 0), pointObj(2, 0),
		pointObj(10, 0), pointObj(20, 0),
	}
	q := pointObj(0, 0)

	scanColl := bulk.Parallelize(pts, 2)
	scanGot, err := KNN(scanColl, q, KNNConfig{K: 3})
	if err != nil {
		t.Fatalf("scan knn: %v", err)
	}

	idxColl := bulk.Parallelize(pts, 2)
	idxGot, err := KNN(idxColl, q, KNNConfig{K: 3, UseIndex: true, Order: 4})
	if err != nil {
		t.Fatalf("index knn: %v", err)
	}

	if len(scanGot) != len(idxGot) {
		t.Fatalf("scan and indexed knn disagree on count: %d vs %d", len(scanGot), len(idxGot))
	}
	for i := range scanGot {
		if scanGot[i].Dist != idxGot[i].Dist {
			t.Fatalf("neighbor %d distance mismatch: %v vs %v", i, scanGot[i].Dist, idxGot[i].Dist)
		}
	}
}

func TestKNNRejectsNonPositiveK(t *testing.T) {
	coll := bulk.Parallelize([]stobject.STObject{pointObj(0, 0)}, 1)
	if _, err := KNN(coll, pointObj(0, 0), KNNConfig{K: 0}); err == nil {
		t.Fatalf("expected ConfigError for k=0")
	}
}
