package bulk

import (
	"testing"

	"github.com/starkdb/stark/errs"
)

func TestCollectRoundTrips(t *testing.T) {
	c := Parallelize([]int{1, 2, 3, 4, 5}, 3)
	got, err := c.Collect()
	if err != nil {
		t.Fatalf("collect: %v", err)
	}
	if len(got) != 5 {
		t.Fatalf("expected 5 elements, got %d", len(got))
	}
}

func TestMapPartitionsDoublesEveryElement(t *testing.T) {
	c := Parallelize([]int{1, 2, 3, 4}, 2)
	doubled, err := c.MapPartitions(func(ctx *TaskContext, part []int) ([]int, error) {
		out := make([]int, len(part))
		for i, v := range part {
			out[i] = v * 2
		}
		return out, nil
	})
	if err != nil {
		t.Fatalf("mapPartitions: %v", err)
	}
	got, err := doubled.Collect()
	if err != nil {
		t.Fatalf("collect: %v", err)
	}
	sum := 0
	for _, v := range got {
		sum += v
	}
	if sum != 20 {
		t.Fatalf("expected sum 20, got %d", sum)
	}
}

func TestAggregateSumsAcrossPartitions(t *testing.T) {
	c := Parallelize([]int{1, 2, 3, 4, 5, 6}, 3)
	total, err := c.Aggregate(0,
		func(acc, elem int) int { return acc + elem },
		func(a, b int) int { return a + b })
	if err != nil {
		t.Fatalf("aggregate: %v", err)
	}
	if total != 21 {
		t.Fatalf("expected 21, got %d", total)
	}
}

func TestTakeBoundsToAvailableElements(t *testing.T) {
	c := Parallelize([]int{1, 2, 3}, 2)
	got, err := c.Take(10)
	if err != nil {
		t.Fatalf("take: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected take to cap at 3, got %d", len(got))
	}
}

func TestSortByKeyOrdersAscending(t *testing.T) {
	c := Parallelize([]int{3, 1, 2}, 2)
	sorted, err := c.SortByKey(func(a, b int) bool { return a < b })
	if err != nil {
		t.Fatalf("sortByKey: %v", err)
	}
	got, err := sorted.Collect()
	if err != nil {
		t.Fatalf("collect: %v", err)
	}
	for i := 1; i < len(got); i++ {
		if got[i-1] > got[i] {
			t.Fatalf("result not sorted: %v", got)
		}
	}
}

func TestIteratorHonorsInterrupt(t *testing.T) {
	c := Parallelize([]int{1, 2, 3}, 1)
	ctx := newTaskContext()
	it, err := c.Iterator(0, ctx)
	if err != nil {
		t.Fatalf("iterator: %v", err)
	}
	_, ok, err := it.Next()
	if err != nil || !ok {
		t.Fatalf("expected a first element, got ok=%v err=%v", ok, err)
	}
	ctx.Interrupt()
	_, ok, err = it.Next()
	if ok {
		t.Fatalf("expected interruption to stop iteration")
	}
	if !errs.Is(err, errs.Interrupted) {
		t.Fatalf("expected InterruptedError, got %v", err)
	}
}
