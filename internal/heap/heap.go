// Package heap provides the heap backends the benchmark runs against and the
// capability probe that hides which optional facilities each one has.
package heap

import (
	"fmt"

	"github.com/genc-murat/fragbench/config"
	"github.com/genc-murat/fragbench/internal/core/ports"
	"github.com/genc-murat/fragbench/internal/memory"
)

// New builds the backend named in cfg.
func New(cfg config.HeapConfig) (ports.Heap, error) {
	switch cfg.Backend {
	case config.HeapRuntime, "":
		return NewRuntime(), nil
	case config.HeapSlab:
		return NewSlab(memory.ArenaConfig{
			PageSize:         cfg.Slab.PageSize,
			GCThresholdPages: cfg.Slab.GCThresholdPages,
			CompactThreshold: cfg.Slab.CompactThreshold,
		}), nil
	default:
		return nil, fmt.Errorf("unknown heap backend %q", cfg.Backend)
	}
}
