package report

import (
	"bytes"
	"encoding/csv"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/genc-murat/fragbench/config"
	"github.com/genc-murat/fragbench/internal/core/models"
)

func sampleRows(n int) []models.Row {
	rows := make([]models.Row, n)
	for i := range rows {
		rows[i] = models.Row{
			Run:         i + 1,
			DoCompact:   true,
			Objects:     1000,
			KeepEvery:   5,
			AllocTime:   1500 * time.Microsecond,
			MajorBefore: time.Millisecond,
			CompactTime: 2 * time.Millisecond,
			MajorAfter:  500 * time.Microsecond,
			Before: models.Snapshot{
				HeapPages: 40, AvailableSlots: 400, LiveSlots: 100, FreeSlots: 300,
				MinorGCCount: 1, MajorGCCount: 2,
			},
			After: models.Snapshot{
				HeapPages: 10, AvailableSlots: models.Unavailable, LiveSlots: 100, FreeSlots: models.Unavailable,
				MinorGCCount: models.Unavailable, MajorGCCount: 3,
			},
			Profile: "manual_compact",
			Heap:    "slab",
		}
	}
	return rows
}

func readCSVFile(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	records, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	return records
}

func writeRows(t *testing.T, path, format string, rows []models.Row) {
	t.Helper()
	w, err := Open(path, format)
	require.NoError(t, err)
	require.NoError(t, w.Write(rows))
	require.NoError(t, w.Close())
}

func TestFields(t *testing.T) {
	row := sampleRows(1)[0]

	assert.Equal(t, []string{
		"run", "do_compact", "n_objects", "keep_every",
		"alloc_time_s", "major_before_s", "compact_time_s", "major_after_s",
		"before_heap_pages", "before_free_slots", "before_live_slots",
		"after_heap_pages", "after_free_slots", "after_live_slots",
	}, Columns(row))

	assert.Equal(t, []string{
		"1", "1", "1000", "5",
		"0.001500", "0.001000", "0.002000", "0.000500",
		"40", "300", "100",
		"10", "", "100",
	}, Values(row, Columns(row)))

	assert.Equal(t, []string{"100", "1"}, Values(row, []string{"after_live_slots", "run"}))
}

func TestCSVHeaderOnce(t *testing.T) {
	const runs = 3
	path := filepath.Join(t.TempDir(), "data", "results_manual_compact.csv")

	writeRows(t, path, config.FormatCSV, sampleRows(runs))
	records := readCSVFile(t, path)
	require.Len(t, records, 1+runs)
	assert.Equal(t, "run", records[0][0])

	writeRows(t, path, config.FormatCSV, sampleRows(runs))
	records = readCSVFile(t, path)
	require.Len(t, records, 1+2*runs)

	headers := 0
	for _, r := range records {
		if r[0] == "run" {
			headers++
		}
	}
	assert.Equal(t, 1, headers)
	assert.Equal(t, []string{"1", "2", "3", "1", "2", "3"}, []string{
		records[1][0], records[2][0], records[3][0], records[4][0], records[5][0], records[6][0],
	})
}

func TestCSVMultipleWritesOneProcess(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results.csv")
	w, err := Open(path, config.FormatCSV)
	require.NoError(t, err)
	require.NoError(t, w.Write(nil))
	require.NoError(t, w.Write(sampleRows(1)))
	require.NoError(t, w.Write(sampleRows(2)))
	require.NoError(t, w.Close())

	assert.Len(t, readCSVFile(t, path), 1+3)
}

func TestJSONL(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results.jsonl")
	writeRows(t, path, config.FormatJSONL, sampleRows(2))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 2)

	first := lines[0]
	assert.Equal(t, int64(1), gjson.Get(first, "run").Int())
	assert.Equal(t, "manual_compact", gjson.Get(first, "profile").String())
	assert.Equal(t, "slab", gjson.Get(first, "heap").String())
	assert.Equal(t, 0.0015, gjson.Get(first, "alloc_time_s").Float())
	assert.Equal(t, int64(400), gjson.Get(first, "before_available_slots").Int())
	assert.Equal(t, gjson.Null, gjson.Get(first, "after_free_slots").Type)
	assert.Equal(t, int64(3), gjson.Get(first, "after_major_gc_count").Int())
	assert.Equal(t, int64(1), gjson.Get(first, "do_compact").Int())

	for _, prefix := range []string{"before_", "after_"} {
		for name := range models.EmptySnapshot("").Fields() {
			assert.True(t, gjson.Get(first, prefix+name).Exists(), prefix+name)
		}
	}
}

func TestOpenUnknownFormat(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "results.xml"), "xml")
	assert.Error(t, err)
}

func TestTag(t *testing.T) {
	assert.Equal(t, "no_compact", Tag("data/results_no_compact.csv"))
	assert.Equal(t, "slab_auto_compact", Tag("results_slab_auto_compact.jsonl"))
	assert.Equal(t, "custom", Tag("/tmp/custom.csv"))
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestSummarize(t *testing.T) {
	dir := t.TempDir()

	noCompact := filepath.Join(dir, "results_no_compact.csv")
	require.NoError(t, os.WriteFile(noCompact, []byte(
		"run,before_heap_pages,after_heap_pages,major_before_s,major_after_s\n"+
			"1,100,98,0.5,0.25\n"+
			"2,110,106,0.7,0.35\n"), 0o644))

	manual := filepath.Join(dir, "results_manual_compact.csv")
	writeRows(t, manual, config.FormatCSV, sampleRows(2))

	auto := filepath.Join(dir, "results_auto_compact.jsonl")
	require.NoError(t, os.WriteFile(auto, []byte(
		`{"before_heap_pages":50,"after_heap_pages":45,"compact_time_s":0,"major_before_s":0.1,"major_after_s":0.2}`+"\n\n"+
			`{"before_heap_pages":70,"after_heap_pages":55,"major_before_s":0.3,"major_after_s":null}`+"\n"), 0o644))

	missing := filepath.Join(dir, "results_missing.csv")

	summaries, err := Summarize([]string{noCompact, manual, auto, missing}, quietLogger())
	require.NoError(t, err)
	require.Len(t, summaries, 3)

	assert.Equal(t, "manual_compact", summaries[0].Config)
	assert.InDelta(t, 30.0, summaries[0].DeltaPagesAvg, 1e-9)
	assert.InDelta(t, 0.002, summaries[0].CompactTimeAvg, 1e-9)
	assert.Equal(t, 2, summaries[0].Runs)

	assert.Equal(t, "auto_compact", summaries[1].Config)
	assert.InDelta(t, 60.0, summaries[1].BeforePagesAvg, 1e-9)
	assert.InDelta(t, 50.0, summaries[1].AfterPagesAvg, 1e-9)
	assert.InDelta(t, 10.0, summaries[1].DeltaPagesAvg, 1e-9)
	assert.InDelta(t, 0.2, summaries[1].MajorBeforeAvg, 1e-9)
	assert.InDelta(t, 0.1, summaries[1].MajorAfterAvg, 1e-9, "null counts as zero")

	assert.Equal(t, "no_compact", summaries[2].Config)
	assert.InDelta(t, 3.0, summaries[2].DeltaPagesAvg, 1e-9)
	assert.InDelta(t, 0.0, summaries[2].CompactTimeAvg, 1e-9, "missing column counts as zero")
	assert.InDelta(t, 0.6, summaries[2].MajorBeforeAvg, 1e-9)
}

func TestSummarizeErrors(t *testing.T) {
	dir := t.TempDir()

	_, err := Summarize([]string{filepath.Join(dir, "results_none.csv")}, quietLogger())
	assert.ErrorIs(t, err, ErrNoData)

	bad := filepath.Join(dir, "results_bad.jsonl")
	require.NoError(t, os.WriteFile(bad, []byte("{not json\n"), 0o644))
	_, err = Summarize([]string{bad}, quietLogger())
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrNoData)
}

func TestSummaryOutput(t *testing.T) {
	summaries := []Summary{{
		Config: "manual_compact", BeforePagesAvg: 40, AfterPagesAvg: 10.5, DeltaPagesAvg: 29.5,
		CompactTimeAvg: 0.002, MajorBeforeAvg: 0.001, MajorAfterAvg: 0.0005, Runs: 2,
	}}

	var buf bytes.Buffer
	require.NoError(t, WriteSummaryCSV(&buf, summaries))
	assert.Equal(t,
		"config,before_pages_avg,after_pages_avg,delta_pages_avg,compact_time_s_avg,major_gc_before_s_avg,major_gc_after_s_avg,runs\n"+
			"manual_compact,40,10.5,29.5,0.002,0.001,0.0005,2\n",
		buf.String())

	buf.Reset()
	require.NoError(t, PrintSummary(&buf, summaries))
	assert.Contains(t, buf.String(), "manual_compact")
	assert.Contains(t, buf.String(), "29.50")
}

func TestPlotSummary(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "analysis")
	summaries := []Summary{
		{Config: "manual_compact", BeforePagesAvg: 120, AfterPagesAvg: 60, DeltaPagesAvg: 60, CompactTimeAvg: 0.02, MajorBeforeAvg: 0.1, MajorAfterAvg: 0.05, Runs: 5},
		{Config: "no_compact", BeforePagesAvg: 120, AfterPagesAvg: 118, DeltaPagesAvg: 2, MajorBeforeAvg: 0.1, MajorAfterAvg: 0.09, Runs: 5},
	}

	paths, err := PlotSummary(dir, summaries)
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, PagesChart), filepath.Join(dir, TimingChart)}, paths)

	for _, path := range paths {
		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Contains(t, string(data), "<svg")
		assert.Contains(t, string(data), "manual_compact")
	}

	_, err = PlotSummary(dir, nil)
	assert.ErrorIs(t, err, ErrNoData)
}
