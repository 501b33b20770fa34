// Package bench drives the fragmentation benchmark: it builds the fragmented
// heap, times collection and compaction, and turns every repetition into a
// result row.
package bench

import (
	"fmt"
	"log/slog"
	"runtime"
	"time"

	"github.com/genc-murat/fragbench/config"
	"github.com/genc-murat/fragbench/internal/core/models"
	"github.com/genc-murat/fragbench/internal/core/ports"
	"github.com/genc-murat/fragbench/internal/heap"
	"github.com/genc-murat/fragbench/internal/metrics"
	"github.com/genc-murat/fragbench/internal/workload"
)

const (
	labelBefore = "before_compact"
	labelAfter  = "after_compact"
)

type Runner struct {
	cfg     config.Config
	heap    ports.Heap
	caps    heap.Capabilities
	gen     workload.Generator
	now     func() time.Time
	logger  *slog.Logger
	metrics *metrics.Metrics
}

type Option func(*Runner)

// WithClock replaces time.Now for phase timing.
func WithClock(now func() time.Time) Option {
	return func(r *Runner) { r.now = now }
}

func WithLogger(l *slog.Logger) Option {
	return func(r *Runner) { r.logger = l }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(r *Runner) { r.metrics = m }
}

// NewRunner probes the heap once and applies the auto-compaction mode.
func NewRunner(cfg config.Config, h ports.Heap, opts ...Option) (*Runner, error) {
	shapes, err := workload.ParseShapes(cfg.Shapes)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", config.ErrInvalid, err)
	}

	r := &Runner{
		cfg:     cfg,
		heap:    h,
		caps:    heap.Probe(h),
		gen:     workload.NewGenerator(shapes),
		now:     time.Now,
		logger:  slog.Default(),
		metrics: metrics.NewMetrics(),
	}
	for _, opt := range opts {
		opt(r)
	}

	r.caps.AutoCompactor.SetAutoCompact(cfg.AutoCompact)
	if cfg.AutoCompact && !r.caps.CanAutoCompact {
		r.logger.Warn("heap has no auto-compaction, auto mode only changes sampling order", "heap", h.Name())
	}
	if cfg.Compact && !r.caps.CanCompact {
		r.logger.Warn("heap cannot compact, compaction will be timed at zero", "heap", h.Name())
	}
	if !r.caps.CanCollect {
		r.logger.Warn("heap cannot force a collection, collections will be timed at zero", "heap", h.Name())
	}
	return r, nil
}

func (r *Runner) Metrics() *metrics.Metrics { return r.metrics }

// Run executes every configured repetition and returns one row per run.
func (r *Runner) Run() []models.Row {
	rows := make([]models.Row, 0, r.cfg.Runs)
	for i := 1; i <= r.cfg.Runs; i++ {
		rows = append(rows, r.RunOnce(i))
	}
	return rows
}

// RunOnce executes a single repetition.
func (r *Runner) RunOnce(run int) models.Row {
	row := models.Row{
		Run:       run,
		DoCompact: r.cfg.Compact,
		Objects:   r.cfg.Objects,
		KeepEvery: r.cfg.KeepEvery,
		Profile:   r.cfg.Profile,
		Heap:      r.heap.Name(),
	}

	var keep []any
	row.AllocTime = r.timed(models.PhaseAlloc, true, func() {
		keep = r.allocate()
	})

	var before models.Snapshot
	if r.cfg.AutoCompact {
		before = r.heap.Sample(labelBefore)
	}

	row.MajorBefore = r.timed(models.PhaseMajorBefore, r.caps.CanCollect, r.caps.Collector.Collect)

	if !r.cfg.AutoCompact {
		before = r.heap.Sample(labelBefore)
	}

	if r.cfg.Compact {
		row.CompactTime = r.timed(models.PhaseCompact, r.caps.CanCompact, r.caps.Compactor.Compact)
		if r.cfg.DoubleCompact && r.caps.CanCompact {
			r.caps.Collector.Collect()
			row.CompactTime += r.timed(models.PhaseCompact, true, r.caps.Compactor.Compact)
		}
	}

	row.MajorAfter = r.timed(models.PhaseMajorAfter, r.caps.CanCollect, r.caps.Collector.Collect)
	after := r.heap.Sample(labelAfter)

	// The retained set must survive every measurement above.
	runtime.KeepAlive(keep)
	r.heap.Release()

	row.Before, row.After = before, after

	r.logger.Info("run complete",
		"run", run,
		"profile", r.cfg.Profile,
		"heap", r.heap.Name(),
		"retained", len(keep),
		"alloc", row.AllocTime,
		"major_before", row.MajorBefore,
		"compact", row.CompactTime,
		"major_after", row.MajorAfter,
		"pages_before", before.HeapPages,
		"pages_after", after.HeapPages,
	)
	return row
}

func (r *Runner) allocate() []any {
	if !r.cfg.Churn.Enabled {
		return r.gen.BuildFragmented(r.heap, r.cfg.Objects, r.cfg.KeepEvery)
	}

	keep, batches := r.gen.Induce(r.heap, r.caps.Collector, r.cfg.Objects, r.cfg.KeepEvery, workload.Churn{
		Passes:  r.cfg.Churn.Passes,
		Batches: r.cfg.Churn.Batches,
		Big:     r.cfg.Churn.Big,
		Small:   r.cfg.Churn.Small,
	})
	r.logger.Debug("fragmentation induced", "passes", r.cfg.Churn.Passes, "batches", batches, "retained", len(keep))
	return keep
}

// timed runs fn and returns its wall-clock duration. An unavailable facility
// is not called and counts as zero.
func (r *Runner) timed(phase string, available bool, fn func()) time.Duration {
	if !available {
		r.metrics.SkipPhase(phase)
		return 0
	}
	start := r.now()
	fn()
	d := max(r.now().Sub(start), 0)
	r.metrics.AddPhase(phase, d)
	return d
}

// LogSummary writes one log line per phase with its accumulated timings.
func (r *Runner) LogSummary() {
	stats := r.metrics.GetStats()
	phases, _ := stats["phasestats"].(map[string]map[string]interface{})
	for _, phase := range r.metrics.Phases() {
		s := phases[phase]
		r.logger.Info("phase summary",
			"phase", phase,
			"calls", s["calls"],
			"skipped", s["skipped"],
			"total_us", s["total_us"],
			"avg_us", s["avg_us"],
			"max_us", s["max_us"],
		)
	}
	r.logger.Info("benchmark finished", "uptime_in_seconds", stats["uptime_in_seconds"])
}
