package report

import (
	"fmt"
	"os"
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
)

const (
	PagesChart  = "heap_pages_before_after.svg"
	TimingChart = "timing_by_config.svg"
)

const barWidth = vg.Length(18)

type series struct {
	label string
	value func(Summary) float64
}

// PlotSummary draws the averaged page counts and phase timings per
// configuration as grouped bar charts and returns the written paths.
func PlotSummary(dir string, summaries []Summary) ([]string, error) {
	if len(summaries) == 0 {
		return nil, ErrNoData
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating %s: %w", dir, err)
	}

	charts := []struct {
		file, title, ylabel string
		series              []series
	}{
		{
			file:   PagesChart,
			title:  "Heap pages: before vs after (avg)",
			ylabel: "Pages",
			series: []series{
				{"Before (pages)", func(s Summary) float64 { return s.BeforePagesAvg }},
				{"After (pages)", func(s Summary) float64 { return s.AfterPagesAvg }},
			},
		},
		{
			file:   TimingChart,
			title:  "Timing (avg) by configuration",
			ylabel: "Seconds",
			series: []series{
				{"Major GC (before)", func(s Summary) float64 { return s.MajorBeforeAvg }},
				{"Compaction time", func(s Summary) float64 { return s.CompactTimeAvg }},
				{"Major GC (after)", func(s Summary) float64 { return s.MajorAfterAvg }},
			},
		},
	}

	paths := make([]string, 0, len(charts))
	for _, c := range charts {
		p, err := barChart(c.title, c.ylabel, summaries, c.series)
		if err != nil {
			return paths, fmt.Errorf("plotting %s: %w", c.file, err)
		}
		path := filepath.Join(dir, c.file)
		if err := p.Save(8*vg.Inch, 5*vg.Inch, path); err != nil {
			return paths, fmt.Errorf("saving %s: %w", path, err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}

func barChart(title, ylabel string, summaries []Summary, series []series) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = title
	p.Y.Label.Text = ylabel
	p.Legend.Top = true

	names := make([]string, len(summaries))
	for i, s := range summaries {
		names[i] = s.Config
	}

	mid := float64(len(series)-1) / 2
	for i, ser := range series {
		values := make(plotter.Values, len(summaries))
		for j, s := range summaries {
			values[j] = ser.value(s)
		}

		bars, err := plotter.NewBarChart(values, barWidth)
		if err != nil {
			return nil, err
		}
		bars.LineStyle.Width = 0
		bars.Color = plotutil.Color(i)
		bars.Offset = barWidth * vg.Length(float64(i)-mid)

		p.Add(bars)
		p.Legend.Add(ser.label, bars)
	}
	p.NominalX(names...)
	return p, nil
}
