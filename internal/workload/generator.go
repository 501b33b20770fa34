// Package workload produces the allocation patterns that fragment a heap.
package workload

import (
	"iter"

	"github.com/genc-murat/fragbench/internal/core/ports"
)

type Generator struct {
	Shapes []Shape
}

func NewGenerator(shapes []Shape) Generator {
	if len(shapes) == 0 {
		shapes = DefaultShapes
	}
	return Generator{Shapes: shapes}
}

// Object builds the i-th object. Equal indexes give equal objects.
func (g Generator) Object(i int) any {
	return builders[g.Shapes[i%len(g.Shapes)]](i)
}

// Objects lazily yields count objects with their index.
func (g Generator) Objects(count int) iter.Seq2[int, any] {
	return func(yield func(int, any) bool) {
		for i := 0; i < count; i++ {
			if !yield(i, g.Object(i)) {
				return
			}
		}
	}
}

// BuildFragmented hands count objects to alloc and retains every keepEvery-th
// handle, starting with the first. It returns ceil(count/keepEvery) handles in
// generation order.
func (g Generator) BuildFragmented(alloc ports.Allocator, count, keepEvery int) []any {
	if keepEvery < 1 {
		keepEvery = 1
	}
	keep := make([]any, 0, RetainedCount(count, keepEvery))
	for i, obj := range g.Objects(count) {
		h := alloc.Allocate(obj, Footprint(obj))
		if i%keepEvery == 0 {
			alloc.Retain(h)
			keep = append(keep, h)
		}
	}
	return keep
}

// RetainedCount is the number of handles BuildFragmented keeps.
func RetainedCount(count, keepEvery int) int {
	if count <= 0 {
		return 0
	}
	return (count + keepEvery - 1) / keepEvery
}
