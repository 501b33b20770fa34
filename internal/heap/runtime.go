package heap

import (
	"runtime"

	"github.com/genc-murat/fragbench/internal/core/models"
)

// runtimePageSize is the Go allocator's page size.
const runtimePageSize = 8192

// Runtime measures the Go runtime heap. The Go collector is non-moving and
// not generational, so there is no compaction and no minor collection count.
type Runtime struct {
	readMemStats func(*runtime.MemStats)
	gc           func()
}

func NewRuntime() *Runtime {
	return &Runtime{
		readMemStats: runtime.ReadMemStats,
		gc:           runtime.GC,
	}
}

func (r *Runtime) Name() string { return "runtime" }

// Allocate returns obj itself: the Go heap already holds it.
func (r *Runtime) Allocate(obj any, _ int) any { return obj }

// Retain is a no-op; the caller's slice of handles is the root set.
func (r *Runtime) Retain(any) {}

func (r *Runtime) Release() {}

// Collect runs a blocking full collection.
func (r *Runtime) Collect() { r.gc() }

func (r *Runtime) Sample(label string) models.Snapshot {
	var m runtime.MemStats
	r.readMemStats(&m)

	s := models.EmptySnapshot(label)
	s.HeapPages = int64(m.HeapInuse / runtimePageSize)
	s.LiveSlots = int64(m.HeapObjects)
	s.MajorGCCount = int64(m.NumGC)
	return s
}
