package heap

import (
	"github.com/genc-murat/fragbench/internal/core/models"
	"github.com/genc-murat/fragbench/internal/memory"
)

// Slab mirrors every workload object into a slab arena, which provides real
// collection, compaction and slot statistics.
type Slab struct {
	arena *memory.Arena
}

func NewSlab(cfg memory.ArenaConfig) *Slab {
	return &Slab{arena: memory.NewArena(cfg)}
}

func (s *Slab) Name() string { return "slab" }

func (s *Slab) Arena() *memory.Arena { return s.arena }

// Allocate copies string and byte payloads into a fresh slot. Objects larger
// than the biggest slot class are truncated to it.
func (s *Slab) Allocate(obj any, size int) any {
	size = min(max(size, 1), memory.MaxSlotSize)
	ref, err := s.arena.Alloc(size)
	if err != nil {
		// Unreachable with the clamped size.
		panic(err)
	}

	switch v := obj.(type) {
	case string:
		copy(s.arena.Bytes(ref), v)
	case []byte:
		copy(s.arena.Bytes(ref), v)
	}
	return ref
}

func (s *Slab) Retain(handle any) {
	if ref, ok := handle.(*memory.Ref); ok {
		s.arena.Pin(ref)
	}
}

func (s *Slab) Release() { s.arena.UnpinAll() }

func (s *Slab) Collect() { s.arena.Collect() }

func (s *Slab) Compact() { s.arena.Compact() }

func (s *Slab) SetAutoCompact(enabled bool) { s.arena.SetAutoCompact(enabled) }

func (s *Slab) Sample(label string) models.Snapshot {
	st := s.arena.Stats()
	return models.Snapshot{
		Label:          label,
		HeapPages:      st.Pages,
		AvailableSlots: st.AvailableSlots,
		LiveSlots:      st.LiveSlots,
		FreeSlots:      st.FreeSlots,
		MinorGCCount:   st.MinorCollections,
		MajorGCCount:   st.MajorCollections,
	}
}
