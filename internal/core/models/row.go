package models

import "time"

type Row struct {
	Run       int
	DoCompact bool
	Objects   int
	KeepEvery int

	AllocTime   time.Duration
	MajorBefore time.Duration
	CompactTime time.Duration
	MajorAfter  time.Duration

	Before Snapshot
	After  Snapshot

	Profile string
	Heap    string
}

// Phase names used for timing and logging.
const (
	PhaseAlloc       = "alloc"
	PhaseMajorBefore = "major_before"
	PhaseCompact     = "compact"
	PhaseMajorAfter  = "major_after"
)
