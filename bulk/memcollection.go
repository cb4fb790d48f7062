package bulk

import (
	"sort"

	"github.com/starkdb/stark/errs"
	"github.com/starkdb/stark/spatial"
	"golang.org/x/sync/errgroup"
)

// memCollection is the one concrete bulk-parallel collaborator this
// module ships: an in-memory, one-goroutine-per-partition
// implementation of Collection, generalized from the teacher's
// goroutine-per-connection fan-out in controller/controller.go
// (ListenAndServe's `go c.processLives()`/`go c.watchMemory()`) to "one
// goroutine per partition," joined with the first error via errgroup
// rather than a hand-rolled sync.WaitGroup plus error channel. This is
// scaffolding exercising ops end to end, not a competing query engine:
// no shuffle optimization, no spilling, no scheduling policy beyond a
// bounded fan-out per call.
type memCollection[T any] struct {
	partitions  [][]T
	partitioner spatial.Partitioner
}

// Parallelize builds a Collection from a plain slice, splitting it into
// numPartitions round-robin chunks, per §6's parallelize(vec).
func Parallelize[T any](items []T, numPartitions int) Collection[T] {
	if numPartitions <= 0 {
		numPartitions = 1
	}
	parts := make([][]T, numPartitions)
	for i, item := range items {
		parts[i%numPartitions] = append(parts[i%numPartitions], item)
	}
	return &memCollection[T]{partitions: parts}
}

func fromPartitions[T any](parts [][]T, partitioner spatial.Partitioner) Collection[T] {
	return &memCollection[T]{partitions: parts, partitioner: partitioner}
}

// FromPartitions builds a Collection from pre-computed per-partition
// slices — the construction path operators use to re-assemble results
// into a new partitioned collection, per §4.6/§4.7's "results are
// re-assembled into a new partitioned collection."
func FromPartitions[T any](parts [][]T, partitioner spatial.Partitioner) Collection[T] {
	return fromPartitions(parts, partitioner)
}

func (m *memCollection[T]) NumPartitions() int { return len(m.partitions) }

func (m *memCollection[T]) Partitioner() spatial.Partitioner { return m.partitioner }

func (m *memCollection[T]) Iterator(partition int, ctx *TaskContext) (*Iterator[T], error) {
	if partition < 0 || partition >= len(m.partitions) {
		return nil, errs.NewDomainError("partition id out of range", map[string]any{"partition": partition})
	}
	if ctx == nil {
		ctx = newTaskContext()
	}
	return &Iterator[T]{ctx: ctx, items: m.partitions[partition]}, nil
}

func (m *memCollection[T]) MapPartitionsWithIndex(f func(ctx *TaskContext, id int, partition []T) ([]T, error)) (Collection[T], error) {
	out := make([][]T, len(m.partitions))
	var g errgroup.Group
	for i := range m.partitions {
		i := i
		g.Go(func() error {
			res, err := f(newTaskContext(), i, m.partitions[i])
			if err != nil {
				return err
			}
			out[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return fromPartitions(out, m.partitioner), nil
}

func (m *memCollection[T]) MapPartitions(f func(ctx *TaskContext, partition []T) ([]T, error)) (Collection[T], error) {
	return m.MapPartitionsWithIndex(func(ctx *TaskContext, _ int, partition []T) ([]T, error) {
		return f(ctx, partition)
	})
}

func (m *memCollection[T]) Aggregate(zero T, seq func(acc T, elem T) T, comb func(a, b T) T) (T, error) {
	partials := make([]T, len(m.partitions))
	var g errgroup.Group
	for i := range m.partitions {
		i := i
		g.Go(func() error {
			acc := zero
			for _, elem := range m.partitions[i] {
				acc = seq(acc, elem)
			}
			partials[i] = acc
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		var zeroT T
		return zeroT, err
	}
	acc := zero
	for _, p := range partials {
		acc = comb(acc, p)
	}
	return acc, nil
}

func (m *memCollection[T]) PartitionBy(p spatial.Partitioner, keyOf func(T) spatial.Keyed) (Collection[T], error) {
	out := make([][]T, p.NumPartitions())
	for _, part := range m.partitions {
		for _, elem := range part {
			id, err := p.GetPartitionID(keyOf(elem))
			if err != nil {
				return nil, err
			}
			out[id] = append(out[id], elem)
		}
	}
	return fromPartitions(out, p), nil
}

func (m *memCollection[T]) Collect() ([]T, error) {
	var out []T
	for _, part := range m.partitions {
		out = append(out, part...)
	}
	return out, nil
}

func (m *memCollection[T]) Take(k int) ([]T, error) {
	all, err := m.Collect()
	if err != nil {
		return nil, err
	}
	if k > len(all) {
		k = len(all)
	}
	if k < 0 {
		k = 0
	}
	return all[:k], nil
}

func (m *memCollection[T]) SortByKey(less func(a, b T) bool) (Collection[T], error) {
	all, err := m.Collect()
	if err != nil {
		return nil, err
	}
	sort.SliceStable(all, func(i, j int) bool { return less(all[i], all[j]) })
	return fromPartitions([][]T{all}, nil), nil
}
