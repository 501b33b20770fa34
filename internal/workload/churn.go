package workload

import (
	"strings"

	"github.com/genc-murat/fragbench/internal/core/ports"
)

type Churn struct {
	Passes  int
	Batches int
	Big     int
	Small   int
}

// ChurnWave allocates and drops one big and one small batch of strings per
// batch. Nothing is retained past its batch. It returns the batch count.
func ChurnWave(alloc ports.Allocator, batches, big, small int) int {
	done := 0
	for b := 0; b < batches; b++ {
		bigArr := make([]any, big)
		for j := range bigArr {
			s := strings.Repeat("X", 48+b%128)
			bigArr[j] = alloc.Allocate(s, len(s))
		}
		smallArr := make([]any, small)
		for j := range smallArr {
			s := strings.Repeat("y", 8+b%32)
			smallArr[j] = alloc.Allocate(s, len(s))
		}
		done++
	}
	return done
}

// Induce builds the fragmented heap in c.Passes slices, churning and running a
// full collection after each one. It returns the retained handles of every
// pass and the total number of churn batches, c.Passes*c.Batches.
func (g Generator) Induce(alloc ports.Allocator, collector ports.Collector, count, keepEvery int, c Churn) ([]any, int) {
	passes := max(c.Passes, 1)
	var keep []any
	batches := 0
	for p := 0; p < passes; p++ {
		keep = append(keep, g.BuildFragmented(alloc, count/passes, keepEvery)...)
		batches += ChurnWave(alloc, c.Batches, c.Big, c.Small)
		collector.Collect()
	}
	return keep, batches
}
