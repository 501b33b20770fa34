package ports

import "github.com/genc-murat/fragbench/internal/core/models"

// Allocator receives every object a workload produces. Allocate returns the
// handle the workload holds on to; Retain adds a handle to the root set and
// Release drops the whole root set.
type Allocator interface {
	Allocate(obj any, size int) any
	Retain(handle any)
	Release()
}

// Collector forces a full collection and blocks until it completes.
type Collector interface {
	Collect()
}

// Compactor forces a compaction pass and blocks until it completes.
type Compactor interface {
	Compact()
}

// AutoCompactor toggles collector-driven compaction.
type AutoCompactor interface {
	SetAutoCompact(enabled bool)
}

type Sampler interface {
	Sample(label string) models.Snapshot
}

// Heap is the minimum a backend must provide. Collector, Compactor and
// AutoCompactor are optional and discovered with a type assertion.
type Heap interface {
	Allocator
	Sampler
	Name() string
}
