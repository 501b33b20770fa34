package report

import (
	"math"
	"time"

	"github.com/genc-murat/fragbench/internal/core/models"
	"github.com/genc-murat/fragbench/internal/util"
)

// Field is one named cell of a result row.
type Field struct {
	Name  string
	Value string
}

// Fields flattens a row into the CSV column set, in column order.
func Fields(row models.Row) []Field {
	return []Field{
		{"run", util.FormatStat(int64(row.Run))},
		{"do_compact", util.FormatFlag(row.DoCompact)},
		{"n_objects", util.FormatStat(int64(row.Objects))},
		{"keep_every", util.FormatStat(int64(row.KeepEvery))},
		{"alloc_time_s", util.FormatSeconds(row.AllocTime)},
		{"major_before_s", util.FormatSeconds(row.MajorBefore)},
		{"compact_time_s", util.FormatSeconds(row.CompactTime)},
		{"major_after_s", util.FormatSeconds(row.MajorAfter)},
		{"before_heap_pages", util.FormatStat(row.Before.HeapPages)},
		{"before_free_slots", util.FormatStat(row.Before.FreeSlots)},
		{"before_live_slots", util.FormatStat(row.Before.LiveSlots)},
		{"after_heap_pages", util.FormatStat(row.After.HeapPages)},
		{"after_free_slots", util.FormatStat(row.After.FreeSlots)},
		{"after_live_slots", util.FormatStat(row.After.LiveSlots)},
	}
}

func Columns(row models.Row) []string {
	fields := Fields(row)
	cols := make([]string, len(fields))
	for i, f := range fields {
		cols[i] = f.Name
	}
	return cols
}

// Values returns the row's cells in the given column order.
func Values(row models.Row, columns []string) []string {
	byName := make(map[string]string)
	for _, f := range Fields(row) {
		byName[f.Name] = f.Value
	}
	values := make([]string, len(columns))
	for i, c := range columns {
		values[i] = byName[c]
	}
	return values
}

func stat(v int64) *int64 {
	if v < 0 {
		return nil
	}
	return &v
}

func roundSeconds(d time.Duration) float64 {
	return math.Round(d.Seconds()*1e6) / 1e6
}

// toJSONRow is the JSON-lines form of a row. It carries every snapshot
// counter, prefixed with before_ or after_; unavailable counters are null.
func toJSONRow(row models.Row) map[string]any {
	j := map[string]any{
		"run":            row.Run,
		"profile":        row.Profile,
		"heap":           row.Heap,
		"do_compact":     0,
		"n_objects":      row.Objects,
		"keep_every":     row.KeepEvery,
		"alloc_time_s":   roundSeconds(row.AllocTime),
		"major_before_s": roundSeconds(row.MajorBefore),
		"compact_time_s": roundSeconds(row.CompactTime),
		"major_after_s":  roundSeconds(row.MajorAfter),
	}
	if row.DoCompact {
		j["do_compact"] = 1
	}
	for name, v := range row.Before.Fields() {
		j["before_"+name] = stat(v)
	}
	for name, v := range row.After.Fields() {
		j["after_"+name] = stat(v)
	}
	return j
}
