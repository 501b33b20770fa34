// Command fragbench measures heap collection and compaction under induced
// fragmentation and appends the results to a CSV file.
//
// Usage:
//
//	fragbench [run] [-profile name|glob] [-profiles file]
//	fragbench summary [-o data/summary.csv] [results files...]
//	fragbench plot [-o analysis] [results files...]
//	fragbench profiles [-v] [glob...]
//
// Run parameters come from the selected profile and are overridden by the
// environment (RUNS, N_OBJECTS, KEEP_EVERY, DO_COMPACT, AUTO_MODE, ...).
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/genc-murat/fragbench/config"
)

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr, os.LookupEnv); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, stdout, stderr io.Writer, lookup config.LookupFunc) error {
	cmd := "run"
	if len(args) > 0 && args[0] != "" && args[0][0] != '-' {
		cmd, args = args[0], args[1:]
	}

	switch cmd {
	case "run":
		return runBench(args, stdout, stderr, lookup)
	case "summary":
		return runSummary(args, stdout, stderr, lookup)
	case "plot":
		return runPlot(args, stdout, stderr, lookup)
	case "profiles":
		return runProfiles(args, stdout, stderr)
	default:
		return fmt.Errorf("unknown command %q (want run, summary, plot or profiles)", cmd)
	}
}
