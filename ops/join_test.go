package ops

import (
	"testing"

	"github.com/starkdb/stark/bulk"
	"github.com/starkdb/stark/stobject"
)

func TestJoinIntersectsMatchesCoincidentPoints(t *testing.T) {
	left := bulk.Parallelize([]stobject.STObject{pointObj(0, 0), pointObj(5, 5)}, 1)
	right := bulk.Parallelize([]stobject.STObject{pointObj(0, 0), pointObj(9, 9)}, 1)

	out, err := Join(left, right, JoinConfig{Predicate: stobject.Intersects})
	if err != nil {
		t.Fatalf("join: %v", err)
	}
	pairs, err := out.Collect()
	if err != nil {
		t.Fatalf("collect: %v", err)
	}
	if len(pairs) != 1 {
		t.Fatalf("expected 1 matching pair, got %d", len(pairs))
	}
}

func TestJoinWithinDistanceUsingIndexAgreesWithBruteForce(t *testing.T) {
	left := bulk.Parallelize([]stobject.STObject{pointObj(0, 0), pointObj(10, 10), pointObj(20, 20)}, 1)
	right := bulk.Parallelize([]stobject.STObject{pointObj(1, 0), pointObj(11, 11), pointObj(50, 50)}, 1)

	cfgBrute := JoinConfig{Predicate: stobject.WithinDistance, MaxDist: 2}
	bruteOut, err := Join(left, right, cfgBrute)
	if err != nil {
		t.Fatalf("brute join: %v", err)
	}
	brutePairs, _ := bruteOut.Collect()

	cfgIndex := JoinConfig{Predicate: stobject.WithinDistance, MaxDist: 2, UseIndex: true, Order: 4}
	idxOut, err := Join(left, right, cfgIndex)
	if err != nil {
		t.Fatalf("index join: %v", err)
	}
	idxPairs, _ := idxOut.Collect()

	if len(brutePairs) != len(idxPairs) {
		t.Fatalf("brute force and indexed join disagree: %d vs %d", len(brutePairs), len(idxPairs))
	}
}

func TestJoinCustomPredicateOverridesDefault(t *testing.T) {
	left := bulk.Parallelize([]stobject.STObject{pointObj(0, 0)}, 1)
	right := bulk.Parallelize([]stobject.STObject{pointObj(1000, 1000)}, 1)

	out, err := Join(left, right, JoinConfig{Custom: func(a, b stobject.STObject) bool { return true }})
	if err != nil {
		t.Fatalf("join: %v", err)
	}
	pairs, err := out.Collect()
	if err != nil {
		t.Fatalf("collect: %v", err)
	}
	if len(pairs) != 1 {
		t.Fatalf("expected custom predicate to force a match, got %d pairs", len(pairs))
	}
}
