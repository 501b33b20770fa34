package models

// Unavailable marks a statistic the heap backend cannot report.
const Unavailable int64 = -1

type Snapshot struct {
	Label          string
	HeapPages      int64
	AvailableSlots int64
	LiveSlots      int64
	FreeSlots      int64
	MinorGCCount   int64
	MajorGCCount   int64
}

// EmptySnapshot returns a snapshot with every counter marked unavailable.
func EmptySnapshot(label string) Snapshot {
	return Snapshot{
		Label:          label,
		HeapPages:      Unavailable,
		AvailableSlots: Unavailable,
		LiveSlots:      Unavailable,
		FreeSlots:      Unavailable,
		MinorGCCount:   Unavailable,
		MajorGCCount:   Unavailable,
	}
}

// Fields returns the counters keyed by their report names.
func (s Snapshot) Fields() map[string]int64 {
	return map[string]int64{
		"heap_pages":      s.HeapPages,
		"available_slots": s.AvailableSlots,
		"live_slots":      s.LiveSlots,
		"free_slots":      s.FreeSlots,
		"minor_gc_count":  s.MinorGCCount,
		"major_gc_count":  s.MajorGCCount,
	}
}
