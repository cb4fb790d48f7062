package ops

import (
	"testing"

	"github.com/starkdb/stark/bulk"
	"github.com/starkdb/stark/spatial"
	"github.com/starkdb/stark/stobject"
)

// closerToOrigin dominates on euclidean distance to the origin: a
// dominates b iff a is strictly closer.
func closerToOrigin(a, b stobject.STObject) bool {
	origin := pointObj(0, 0)
	da := euclid(spatial.PointOf(a.Geom.Centroid()), spatial.PointOf(origin.Geom.Centroid()))
	db := euclid(spatial.PointOf(b.Geom.Centroid()), spatial.PointOf(origin.Geom.Centroid()))
	return da < db
}

func TestSkylineAccumulatorKeepsOnlyNonDominated(t *testing.T) {
	sk := NewSkyline(closerToOrigin)
	sk.Insert(pointObj(5, 5))
	sk.Insert(pointObj(1, 1))
	sk.Insert(pointObj(10, 10))
	pts := sk.Points()
	if len(pts) != 1 {
		t.Fatalf("expected exactly the closest point to survive, got %d points", len(pts))
	}
}

func TestSkylineAggMergesPartialsCorrectly(t *testing.T) {
	pts := []stobject.STObject{pointObj(5, 5), pointObj(1, 1), pointObj(10, 10), pointObj(2, 2)}
	coll := bulk.Parallelize(pts, 2)
	got, err := SkylineAgg(coll, closerToOrigin)
	if err != nil {
		t.Fatalf("skylineAgg: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 skyline point, got %d", len(got))
	}
	if got[0].Geom.Centroid()[0] != 1 {
		t.Fatalf("expected the closest point (1,1) to win, got %v", got[0])
	}
}

func TestSkylineBBSFindsGlobalMinimum(t *testing.T) {
	pts := []stobject.STObject{pointObj(5, 5), pointObj(1, 1), pointObj(10, 10), pointObj(2, 2), pointObj(0.5, 0.5)}
	coll := bulk.Parallelize(pts, 3)
	ref := pointObj(0, 0)
	got, err := SkylineBBS(coll, ref, SkylineConfig{Dominates: closerToOrigin, GridPPD: 2})
	if err != nil {
		t.Fatalf("skylineBBS: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 skyline point, got %d", len(got))
	}
	if got[0].Geom.Centroid()[0] != 0.5 {
		t.Fatalf("expected the closest point (0.5,0.5) to win, got %v", got[0])
	}
}

func TestSkylineAngularPartitionsBySector(t *testing.T) {
	pts := []stobject.STObject{
		pointObj(1, 0),  // sector 0
		pointObj(0, 1),  // sector further around
		pointObj(-1, 0),
		pointObj(0, -1),
	}
	coll := bulk.Parallelize(pts, 2)
	ref := pointObj(0, 0)
	got, err := SkylineAngular(coll, ref, SkylineAngularConfig{Dominates: closerToOrigin, PPD: 4})
	if err != nil {
		t.Fatalf("skylineAngular: %v", err)
	}
	if len(got) == 0 {
		t.Fatalf("expected at least one skyline point across sectors")
	}
}

func TestSkylineAngularFirstQuadrantOnlyExcludesOtherPoints(t *testing.T) {
	pts := []stobject.STObject{pointObj(1, 1), pointObj(-1, -1), pointObj(-1, 1), pointObj(1, -1)}
	coll := bulk.Parallelize(pts, 1)
	ref := pointObj(0, 0)
	got, err := SkylineAngular(coll, ref, SkylineAngularConfig{Dominates: closerToOrigin, PPD: 2, FirstQuadrantOnly: true})
	if err != nil {
		t.Fatalf("skylineAngular: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected only the first-quadrant point to survive, got %d", len(got))
	}
}
