// Package bulk implements the minimal bulk-parallel collaborator
// contract §6 requires of the external collection runtime —
// mapPartitions, mapPartitionsWithIndex, aggregate, partitionBy,
// collect, take, sortByKey, broadcast, parallelize, and a cancellable
// per-partition iterator — plus one concrete in-memory implementation
// that fans work out across goroutines. The ops package is written
// purely against the Collection interface here; it never depends on
// memCollection directly.
package bulk

import (
	"sync/atomic"

	"github.com/starkdb/stark/errs"
	"github.com/starkdb/stark/spatial"
)

// TaskContext is the per-task handle passed to mapPartitions callbacks
// and Iterator: it carries the interruption flag §5 requires every
// per-partition iterator to honor between element emissions.
type TaskContext struct {
	interrupted *atomic.Bool
}

func newTaskContext() *TaskContext {
	return &TaskContext{interrupted: new(atomic.Bool)}
}

// Interrupted reports whether cancellation has been observed.
func (c *TaskContext) Interrupted() bool { return c.interrupted.Load() }

// Interrupt marks the task context as cancelled; subsequent Iterator
// reads fail with InterruptedError.
func (c *TaskContext) Interrupt() { c.interrupted.Store(true) }

// Iterator is the cancellable, per-partition element stream of §6: the
// caller pulls with Next until it returns ok=false or an error.
type Iterator[T any] struct {
	ctx   *TaskContext
	items []T
	pos   int
}

// Next returns the next element, or ok=false at end of partition. It
// fails with InterruptedError if the owning TaskContext was cancelled,
// checked at the boundary of every element emission per §5.
func (it *Iterator[T]) Next() (item T, ok bool, err error) {
	if it.ctx.Interrupted() {
		return item, false, errs.NewInterruptedError("partition iterator cancelled", nil)
	}
	if it.pos >= len(it.items) {
		return item, false, nil
	}
	item = it.items[it.pos]
	it.pos++
	return item, true, nil
}

// Collection is the bulk-parallel partitioned collection contract of
// §6: mapPartitions/mapPartitionsWithIndex (index = stable partition
// id), aggregate with an associative/commutative combiner, partitionBy
// a spatial.Partitioner, collect/take/sortByKey, and a per-partition
// iterator. Broadcast and Parallelize are free functions rather than
// methods, since they don't operate on an existing Collection.
type Collection[T any] interface {
	// NumPartitions returns the number of partitions this collection is
	// split into.
	NumPartitions() int
	// Partitioner returns the spatial partitioner this collection
	// carries, or nil if it has none (e.g. freshly parallelized input).
	Partitioner() spatial.Partitioner
	// Iterator returns a cancellable stream over one partition's
	// elements.
	Iterator(partition int, ctx *TaskContext) (*Iterator[T], error)
	// MapPartitions applies f to every partition independently and
	// returns a new collection of the results, preserving partition
	// count and any carried partitioner.
	MapPartitions(f func(ctx *TaskContext, partition []T) ([]T, error)) (Collection[T], error)
	// MapPartitionsWithIndex is MapPartitions with the stable partition
	// id passed to f.
	MapPartitionsWithIndex(f func(ctx *TaskContext, id int, partition []T) ([]T, error)) (Collection[T], error)
	// Aggregate folds every partition with seq starting from zero, then
	// reduces the per-partition partials with comb. comb must be
	// associative and commutative so partition order never affects the
	// result, per §5's CellHistogram.Merge requirement.
	Aggregate(zero T, seq func(acc T, elem T) T, comb func(a, b T) T) (T, error)
	// PartitionBy rehashes every element via p.GetPartitionID(keyOf(e))
	// into p's buckets.
	PartitionBy(p spatial.Partitioner, keyOf func(T) spatial.Keyed) (Collection[T], error)
	// Collect gathers every partition's elements into one slice.
	Collect() ([]T, error)
	// Take returns the first k elements across partitions in partition
	// order.
	Take(k int) ([]T, error)
	// SortByKey returns a new single-partition collection sorted by
	// less.
	SortByKey(less func(a, b T) bool) (Collection[T], error)
}
