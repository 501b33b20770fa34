package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/genc-murat/fragbench/config"
	"github.com/genc-murat/fragbench/internal/report"
)

func envLookup(env map[string]string) config.LookupFunc {
	return func(key string) (string, bool) {
		v, ok := env[key]
		return v, ok
	}
}

// inTempDir runs the test from an empty directory so no profiles file is
// picked up and derived output paths stay inside the test.
func inTempDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
	return dir
}

func smallEnv(out string) map[string]string {
	return map[string]string{
		config.EnvRuns:      "2",
		config.EnvObjects:   "500",
		config.EnvKeepEvery: "5",
		config.EnvChurn:     "0",
		config.EnvHeap:      config.HeapSlab,
		config.EnvOutput:    out,
		config.EnvLogLevel:  "error",
	}
}

func readLines(t *testing.T, path string) []string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return strings.Split(strings.TrimRight(string(data), "\n"), "\n")
}

func TestRunAppendsRows(t *testing.T) {
	dir := inTempDir(t)
	out := filepath.Join(dir, "results", "bench.csv")
	lookup := envLookup(smallEnv(out))

	var stdout, stderr bytes.Buffer
	require.NoError(t, run(nil, &stdout, &stderr, lookup))
	assert.Equal(t, "Saved: "+out+"\n", stdout.String())

	lines := readLines(t, out)
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "run,do_compact,n_objects,keep_every,"))

	stdout.Reset()
	require.NoError(t, run([]string{"run", "-profile", "manual_compact"}, &stdout, &stderr, lookup))
	lines = readLines(t, out)
	assert.Len(t, lines, 5)
	assert.Equal(t, 1, strings.Count(strings.Join(lines, "\n"), "run,do_compact"))
}

func TestRunGlobProfiles(t *testing.T) {
	inTempDir(t)
	env := smallEnv("")
	delete(env, config.EnvOutput)

	var stdout, stderr bytes.Buffer
	err := run([]string{"-profile", "*_compact"}, &stdout, &stderr, envLookup(env))
	require.NoError(t, err)

	assert.Equal(t, []string{
		"Saved: " + filepath.Join("data", "results_auto_compact.csv"),
		"Saved: " + filepath.Join("data", "results_manual_compact.csv"),
		"Saved: " + filepath.Join("data", "results_manual_compact.csv"),
		"Saved: " + filepath.Join("data", "results_no_compact.csv"),
	}, strings.Split(strings.TrimSpace(stdout.String()), "\n"))

	assert.Len(t, readLines(t, filepath.Join("data", "results_manual_compact.csv")), 5)
}

func TestRunErrors(t *testing.T) {
	inTempDir(t)
	var stdout, stderr bytes.Buffer

	tests := []struct {
		name string
		args []string
		env  map[string]string
	}{
		{name: "unknown command", args: []string{"bogus"}},
		{name: "unknown profile", args: []string{"-profile", "missing"}},
		{name: "no glob match", args: []string{"-profile", "zzz*"}},
		{name: "stray argument", args: []string{"run", "extra"}},
		{name: "bad env", env: map[string]string{config.EnvRuns: "many"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := run(tt.args, &stdout, &stderr, envLookup(tt.env))
			assert.Error(t, err)
		})
	}
}

func TestSummary(t *testing.T) {
	dir := inTempDir(t)
	out := filepath.Join(dir, "data", "results_slab.csv")

	var stdout, stderr bytes.Buffer
	require.NoError(t, run(nil, &stdout, &stderr, envLookup(smallEnv(out))))

	stdout.Reset()
	summaryOut := filepath.Join(dir, "summary.csv")
	require.NoError(t, run([]string{"summary", "-o", summaryOut}, &stdout, &stderr, envLookup(nil)))
	assert.Contains(t, stdout.String(), "slab")
	assert.Contains(t, stdout.String(), "Saved: "+summaryOut)

	lines := readLines(t, summaryOut)
	assert.Len(t, lines, 2)
}

func TestSummaryLogLevel(t *testing.T) {
	dir := inTempDir(t)
	out := filepath.Join(dir, "data", "results_slab.csv")

	var stdout, stderr bytes.Buffer
	require.NoError(t, run(nil, &stdout, &stderr, envLookup(smallEnv(out))))

	args := []string{"summary", "-o", filepath.Join(dir, "summary.csv"), out, filepath.Join(dir, "missing.csv")}

	stderr.Reset()
	require.NoError(t, run(args, &stdout, &stderr, envLookup(nil)))
	assert.Contains(t, stderr.String(), "missing results file")

	stderr.Reset()
	require.NoError(t, run(args, &stdout, &stderr, envLookup(map[string]string{config.EnvLogLevel: "error"})))
	assert.Empty(t, stderr.String())
}

func TestPlot(t *testing.T) {
	dir := inTempDir(t)
	out := filepath.Join(dir, "data", "results_slab.csv")

	var stdout, stderr bytes.Buffer
	require.NoError(t, run(nil, &stdout, &stderr, envLookup(smallEnv(out))))

	stdout.Reset()
	require.NoError(t, run([]string{"plot"}, &stdout, &stderr, envLookup(nil)))
	assert.Equal(t,
		"Saved: "+filepath.Join("analysis", report.PagesChart)+"\n"+
			"Saved: "+filepath.Join("analysis", report.TimingChart)+"\n",
		stdout.String())
	assert.FileExists(t, filepath.Join(dir, "analysis", report.PagesChart))

	assert.Error(t, run([]string{"plot", filepath.Join(dir, "missing.csv")}, &stdout, &stderr, envLookup(nil)))
}

func TestSummaryWithoutData(t *testing.T) {
	inTempDir(t)
	var stdout, stderr bytes.Buffer
	assert.Error(t, run([]string{"summary"}, &stdout, &stderr, envLookup(nil)))
}

func TestProfiles(t *testing.T) {
	inTempDir(t)
	var stdout, stderr bytes.Buffer

	require.NoError(t, run([]string{"profiles"}, &stdout, &stderr, envLookup(nil)))
	assert.Equal(t, config.Names(config.Builtin()), strings.Fields(stdout.String()))

	stdout.Reset()
	require.NoError(t, run([]string{"profiles", "-v", "packed"}, &stdout, &stderr, envLookup(nil)))
	assert.Contains(t, stdout.String(), "packed\n")
	assert.Contains(t, stdout.String(), "  shapes: string,packed,map,packed\n")
	assert.Contains(t, stdout.String(), "  objects: 400000\n")

	assert.Error(t, run([]string{"profiles", "nothing*"}, &stdout, &stderr, envLookup(nil)))

	stdout.Reset()
	stderr.Reset()
	assert.Error(t, run([]string{"profiles", "-bogus"}, &stdout, &stderr, envLookup(nil)))
	assert.Empty(t, stdout.String())
	assert.Contains(t, stderr.String(), "flag provided but not defined")
}
