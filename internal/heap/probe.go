package heap

import "github.com/genc-murat/fragbench/internal/core/ports"

// Capabilities is the result of probing a heap once at startup. Absent
// facilities are replaced with no-ops so callers never branch on them again.
type Capabilities struct {
	Collector     ports.Collector
	Compactor     ports.Compactor
	AutoCompactor ports.AutoCompactor

	CanCollect     bool
	CanCompact     bool
	CanAutoCompact bool
}

type noopCollector struct{}

func (noopCollector) Collect() {}

type noopCompactor struct{}

func (noopCompactor) Compact() {}

type noopAutoCompactor struct{}

func (noopAutoCompactor) SetAutoCompact(bool) {}

func Probe(h ports.Heap) Capabilities {
	caps := Capabilities{
		Collector:     noopCollector{},
		Compactor:     noopCompactor{},
		AutoCompactor: noopAutoCompactor{},
	}

	if c, ok := h.(ports.Collector); ok {
		caps.Collector, caps.CanCollect = c, true
	}
	if c, ok := h.(ports.Compactor); ok {
		caps.Compactor, caps.CanCompact = c, true
	}
	if c, ok := h.(ports.AutoCompactor); ok {
		caps.AutoCompactor, caps.CanAutoCompact = c, true
	}
	return caps
}
