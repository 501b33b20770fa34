package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/genc-murat/fragbench/config"
	"github.com/genc-murat/fragbench/internal/bench"
	"github.com/genc-murat/fragbench/internal/heap"
	"github.com/genc-murat/fragbench/internal/logging"
	"github.com/genc-murat/fragbench/internal/report"
	util "github.com/genc-murat/fragbench/pkg/utils"
	"github.com/genc-murat/fragbench/pkg/utils/pattern"
)

// loadProfiles reads the profiles file if one is given or found, and falls
// back to the built-in profiles otherwise.
func loadProfiles(path string) (map[string]config.Config, error) {
	if path == "" {
		found, err := config.FindProfilesFile()
		if err != nil {
			return nil, err
		}
		path = found
	}
	if path == "" {
		return config.Builtin(), nil
	}
	return config.LoadProfiles(path)
}

func runBench(args []string, stdout, stderr io.Writer, lookup config.LookupFunc) error {
	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	fs.SetOutput(stderr)
	profileFlag := fs.String("profile", "", "profile name or glob (default $PROFILE or "+config.DefaultProfile+")")
	profilesFlag := fs.String("profiles", "", "YAML profiles file (default config/"+config.ProfilesFile+" if found)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() > 0 {
		return fmt.Errorf("unexpected arguments: %s", strings.Join(fs.Args(), " "))
	}

	profiles, err := loadProfiles(*profilesFlag)
	if err != nil {
		return err
	}

	names := []string{*profileFlag}
	if pattern.IsPattern(*profileFlag) {
		names = pattern.Filter(config.Names(profiles), *profileFlag)
		if len(names) == 0 {
			return fmt.Errorf("%w: no profile matches %q", config.ErrInvalid, *profileFlag)
		}
	}

	for _, name := range names {
		if err := runProfile(profiles, name, stdout, stderr, lookup); err != nil {
			return err
		}
	}
	return nil
}

func runProfile(profiles map[string]config.Config, name string, stdout, stderr io.Writer, lookup config.LookupFunc) (err error) {
	cfg, err := config.Load(profiles, name, lookup)
	if err != nil {
		return err
	}

	logger, err := logging.New(cfg.Logging, stderr)
	if err != nil {
		return err
	}

	h, err := heap.New(cfg.Heap)
	if err != nil {
		return err
	}

	runner, err := bench.NewRunner(cfg, h, bench.WithLogger(logger))
	if err != nil {
		return err
	}

	logger.Info("starting benchmark",
		"profile", cfg.Profile,
		"heap", h.Name(),
		"runs", cfg.Runs,
		"objects", cfg.Objects,
		"keep_every", cfg.KeepEvery,
		"compact", cfg.Compact,
		"auto_compact", cfg.AutoCompact,
		"churn", cfg.Churn.Enabled,
	)
	rows := runner.Run()
	runner.LogSummary()

	path := cfg.OutputPath()
	w, err := report.Open(path, cfg.Output.Format)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := w.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	if err := w.Write(rows); err != nil {
		return err
	}

	fmt.Fprintf(stdout, "Saved: %s\n", path)
	return nil
}

// resultPaths returns the given files, or every results file under data/.
func resultPaths(args []string) ([]string, error) {
	if len(args) > 0 {
		return args, nil
	}
	var paths []string
	for _, glob := range []string{"results_*.csv", "results_*.jsonl"} {
		found, err := filepath.Glob(filepath.Join("data", glob))
		if err != nil {
			return nil, err
		}
		paths = append(paths, found...)
	}
	sort.Strings(paths)
	return paths, nil
}

func summarize(args []string, stderr io.Writer, lookup config.LookupFunc) ([]report.Summary, error) {
	paths, err := resultPaths(args)
	if err != nil {
		return nil, err
	}
	logger, err := logging.New(config.LoggingFromEnv(lookup), stderr)
	if err != nil {
		return nil, err
	}
	return report.Summarize(paths, logger)
}

func runSummary(args []string, stdout, stderr io.Writer, lookup config.LookupFunc) error {
	fs := flag.NewFlagSet("summary", flag.ContinueOnError)
	fs.SetOutput(stderr)
	outFlag := fs.String("o", filepath.Join("data", "summary.csv"), "where to write the summary CSV")
	if err := fs.Parse(args); err != nil {
		return err
	}

	summaries, err := summarize(fs.Args(), stderr, lookup)
	if err != nil {
		return err
	}

	fmt.Fprintln(stdout, "=== Compaction summary (averages) ===")
	if err := report.PrintSummary(stdout, summaries); err != nil {
		return err
	}

	if dir := filepath.Dir(*outFlag); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	f, err := os.Create(*outFlag)
	if err != nil {
		return err
	}
	if err := report.WriteSummaryCSV(f, summaries); err != nil {
		f.Close()
		return fmt.Errorf("writing %s: %w", *outFlag, err)
	}
	if err := f.Close(); err != nil {
		return err
	}

	fmt.Fprintf(stdout, "Saved: %s\n", *outFlag)
	return nil
}

func runPlot(args []string, stdout, stderr io.Writer, lookup config.LookupFunc) error {
	fs := flag.NewFlagSet("plot", flag.ContinueOnError)
	fs.SetOutput(stderr)
	dirFlag := fs.String("o", "analysis", "directory for the SVG charts")
	if err := fs.Parse(args); err != nil {
		return err
	}

	summaries, err := summarize(fs.Args(), stderr, lookup)
	if err != nil {
		return err
	}

	paths, err := report.PlotSummary(*dirFlag, summaries)
	if err != nil {
		return err
	}
	for _, path := range paths {
		fmt.Fprintf(stdout, "Saved: %s\n", path)
	}
	return nil
}

func runProfiles(args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("profiles", flag.ContinueOnError)
	fs.SetOutput(stderr)
	verbose := fs.Bool("v", false, "print each profile's settings")
	profilesFlag := fs.String("profiles", "", "YAML profiles file")
	if err := fs.Parse(args); err != nil {
		return err
	}

	profiles, err := loadProfiles(*profilesFlag)
	if err != nil {
		return err
	}

	names := pattern.Filter(config.Names(profiles), fs.Args()...)
	if len(names) == 0 {
		return errors.New("no matching profiles")
	}
	for _, name := range names {
		fmt.Fprintln(stdout, name)
		if *verbose {
			fmt.Fprint(stdout, util.Indent(util.FormatInfo(profileInfo(profiles[name])), "  "))
		}
	}
	return nil
}

func profileInfo(cfg config.Config) map[string]string {
	info := map[string]string{
		"runs":           strconv.Itoa(cfg.Runs),
		"objects":        strconv.Itoa(cfg.Objects),
		"keep_every":     strconv.Itoa(cfg.KeepEvery),
		"compact":        strconv.FormatBool(cfg.Compact),
		"double_compact": strconv.FormatBool(cfg.DoubleCompact),
		"auto_compact":   strconv.FormatBool(cfg.AutoCompact),
		"churn":          strconv.FormatBool(cfg.Churn.Enabled),
		"shapes":         strings.Join(cfg.Shapes, ","),
		"heap":           cfg.Heap.Backend,
		"output":         cfg.OutputPath(),
	}
	if cfg.Churn.Enabled {
		info["churn"] = fmt.Sprintf("passes=%d batches=%d big=%d small=%d",
			cfg.Churn.Passes, cfg.Churn.Batches, cfg.Churn.Big, cfg.Churn.Small)
	}
	return info
}
