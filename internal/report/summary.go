package report

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/tidwall/gjson"

	"github.com/genc-murat/fragbench/internal/util"
)

var ErrNoData = errors.New("no data found in any results file")

// Result holds the columns of one result row the summary needs. Missing or
// malformed cells are zero.
type Result struct {
	BeforePages float64
	AfterPages  float64
	CompactTime float64
	MajorBefore float64
	MajorAfter  float64
}

var summaryColumns = []string{
	"before_heap_pages", "after_heap_pages",
	"compact_time_s", "major_before_s", "major_after_s",
}

func resultFrom(get func(col string) float64) Result {
	return Result{
		BeforePages: get("before_heap_pages"),
		AfterPages:  get("after_heap_pages"),
		CompactTime: get("compact_time_s"),
		MajorBefore: get("major_before_s"),
		MajorAfter:  get("major_after_s"),
	}
}

type Summary struct {
	Config         string
	BeforePagesAvg float64
	AfterPagesAvg  float64
	DeltaPagesAvg  float64
	CompactTimeAvg float64
	MajorBeforeAvg float64
	MajorAfterAvg  float64
	Runs           int
}

// Tag names a results file after its stem, without the "results_" prefix.
func Tag(path string) string {
	base := filepath.Base(path)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	return strings.TrimPrefix(stem, "results_")
}

// LoadResults reads a CSV or, for .jsonl/.json files, a JSON-lines results
// file.
func LoadResults(path string) ([]Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".jsonl", ".json":
		return readJSONL(f, path)
	default:
		return readCSV(f, path)
	}
}

func readCSV(r io.Reader, path string) ([]Result, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading header of %s: %w", path, err)
	}
	index := make(map[string]int, len(header))
	for i, name := range header {
		index[strings.TrimSpace(name)] = i
	}

	var results []Result
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", path, err)
		}
		results = append(results, resultFrom(func(col string) float64 {
			i, ok := index[col]
			if !ok || i >= len(record) {
				return 0
			}
			v, err := util.ParseFloat(record[i])
			if err != nil {
				return 0
			}
			return v
		}))
	}
	return results, nil
}

func readJSONL(r io.Reader, path string) ([]Result, error) {
	var results []Result
	scanner := bufio.NewScanner(r)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		if !gjson.Valid(text) {
			return nil, fmt.Errorf("%s:%d: invalid JSON", path, line)
		}
		values := gjson.GetMany(text, summaryColumns...)
		byName := make(map[string]float64, len(values))
		for i, v := range values {
			byName[summaryColumns[i]] = v.Float()
		}
		results = append(results, resultFrom(func(col string) float64 {
			return byName[col]
		}))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return results, nil
}

// Summarize averages every file's results under its tag. Missing files are
// logged and skipped. Results are ordered by page reduction, largest first.
func Summarize(paths []string, logger *slog.Logger) ([]Summary, error) {
	if logger == nil {
		logger = slog.Default()
	}

	byTag := make(map[string][]Result)
	var order []string
	for _, path := range paths {
		results, err := LoadResults(path)
		if errors.Is(err, os.ErrNotExist) {
			logger.Warn("missing results file", "path", path)
			continue
		}
		if err != nil {
			return nil, err
		}
		if len(results) == 0 {
			continue
		}
		tag := Tag(path)
		if _, seen := byTag[tag]; !seen {
			order = append(order, tag)
		}
		byTag[tag] = append(byTag[tag], results...)
	}
	if len(order) == 0 {
		return nil, ErrNoData
	}

	summaries := make([]Summary, 0, len(order))
	for _, tag := range order {
		results := byTag[tag]
		s := Summary{Config: tag, Runs: len(results)}
		for _, r := range results {
			s.BeforePagesAvg += r.BeforePages
			s.AfterPagesAvg += r.AfterPages
			s.DeltaPagesAvg += r.BeforePages - r.AfterPages
			s.CompactTimeAvg += r.CompactTime
			s.MajorBeforeAvg += r.MajorBefore
			s.MajorAfterAvg += r.MajorAfter
		}
		n := float64(len(results))
		s.BeforePagesAvg /= n
		s.AfterPagesAvg /= n
		s.DeltaPagesAvg /= n
		s.CompactTimeAvg /= n
		s.MajorBeforeAvg /= n
		s.MajorAfterAvg /= n
		summaries = append(summaries, s)
	}

	sort.SliceStable(summaries, func(i, j int) bool {
		return summaries[i].DeltaPagesAvg > summaries[j].DeltaPagesAvg
	})
	return summaries, nil
}

var summaryHeader = []string{
	"config", "before_pages_avg", "after_pages_avg", "delta_pages_avg",
	"compact_time_s_avg", "major_gc_before_s_avg", "major_gc_after_s_avg", "runs",
}

func (s Summary) values(format func(float64) string) []string {
	return []string{
		s.Config,
		format(s.BeforePagesAvg),
		format(s.AfterPagesAvg),
		format(s.DeltaPagesAvg),
		format(s.CompactTimeAvg),
		format(s.MajorBeforeAvg),
		format(s.MajorAfterAvg),
		fmt.Sprintf("%d", s.Runs),
	}
}

// WriteSummaryCSV writes the full-precision summary.
func WriteSummaryCSV(w io.Writer, summaries []Summary) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(summaryHeader); err != nil {
		return err
	}
	for _, s := range summaries {
		if err := cw.Write(s.values(util.FormatFloat)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// PrintSummary writes an aligned table rounded to two decimals.
func PrintSummary(w io.Writer, summaries []Summary) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, strings.Join(summaryHeader, "\t")+"\t")
	for _, s := range summaries {
		cells := s.values(func(f float64) string { return fmt.Sprintf("%.2f", f) })
		fmt.Fprintln(tw, strings.Join(cells, "\t")+"\t")
	}
	return tw.Flush()
}
