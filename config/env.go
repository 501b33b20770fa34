package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/genc-murat/fragbench/internal/util"
)

// Environment keys understood by ApplyEnv.
const (
	EnvProfile       = "PROFILE"
	EnvRuns          = "RUNS"
	EnvObjects       = "N_OBJECTS"
	EnvKeepEvery     = "KEEP_EVERY"
	EnvCompact       = "DO_COMPACT"
	EnvAutoMode      = "AUTO_MODE"
	EnvDoubleCompact = "DOUBLE_COMPACT"
	EnvOutput        = "CSV_OUT"
	EnvChurn         = "CHURN"
	EnvChurnPasses   = "CHURN_PASSES"
	EnvChurnBatches  = "CHURN_BATCHES"
	EnvChurnBig      = "CHURN_ARR_SIZE_BIG"
	EnvChurnSmall    = "CHURN_ARR_SIZE_SML"
	EnvShapes        = "SHAPES"
	EnvHeap          = "HEAP"
	EnvFormat        = "FORMAT"
	EnvLogLevel      = "LOG_LEVEL"
)

// LookupFunc has the signature of os.LookupEnv.
type LookupFunc func(key string) (string, bool)

// Load resolves the profile named by PROFILE (or name, when PROFILE is unset),
// applies environment overrides and validates the result.
func Load(profiles map[string]Config, name string, lookup LookupFunc) (Config, error) {
	if lookup == nil {
		lookup = os.LookupEnv
	}
	if v, ok := lookup(EnvProfile); ok && v != "" && name == "" {
		name = v
	}

	cfg, err := Select(profiles, name)
	if err != nil {
		return Config{}, err
	}
	if cfg, err = ApplyEnv(cfg, lookup); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoggingFromEnv returns the default logging settings with LOG_LEVEL applied.
// Commands that do not run a profile use it.
func LoggingFromEnv(lookup LookupFunc) LoggingConfig {
	cfg := Defaults().Logging
	if lookup == nil {
		lookup = os.LookupEnv
	}
	if v, ok := lookup(EnvLogLevel); ok && v != "" {
		cfg.Level = strings.TrimSpace(v)
	}
	return cfg
}

// ApplyEnv overrides cfg with every recognised key present in the environment.
func ApplyEnv(cfg Config, lookup LookupFunc) (Config, error) {
	var errs []error

	setInt := func(key string, dst *int) {
		if v, ok := lookup(key); ok && v != "" {
			n, err := util.ParseInt(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = n
		}
	}
	setBool := func(key string, dst *bool) {
		if v, ok := lookup(key); ok && v != "" {
			b, err := util.ParseBool(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = b
		}
	}
	setString := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = strings.TrimSpace(v)
		}
	}

	setInt(EnvRuns, &cfg.Runs)
	setInt(EnvObjects, &cfg.Objects)
	setInt(EnvKeepEvery, &cfg.KeepEvery)
	setBool(EnvCompact, &cfg.Compact)
	setBool(EnvAutoMode, &cfg.AutoCompact)
	setBool(EnvDoubleCompact, &cfg.DoubleCompact)
	setString(EnvOutput, &cfg.Output.Path)
	setBool(EnvChurn, &cfg.Churn.Enabled)
	setInt(EnvChurnPasses, &cfg.Churn.Passes)
	setInt(EnvChurnBatches, &cfg.Churn.Batches)
	setInt(EnvChurnBig, &cfg.Churn.Big)
	setInt(EnvChurnSmall, &cfg.Churn.Small)
	setString(EnvHeap, &cfg.Heap.Backend)
	setString(EnvFormat, &cfg.Output.Format)
	setString(EnvLogLevel, &cfg.Logging.Level)

	if v, ok := lookup(EnvShapes); ok && v != "" {
		var shapes []string
		for _, s := range strings.Split(v, ",") {
			if s = strings.TrimSpace(s); s != "" {
				shapes = append(shapes, s)
			}
		}
		cfg.Shapes = shapes
	}

	if len(errs) > 0 {
		return Config{}, fmt.Errorf("%w: %w", ErrInvalid, errors.Join(errs...))
	}
	return cfg, nil
}

// Validate checks the ranges the benchmark relies on.
func (c Config) Validate() error {
	checks := []error{
		util.ValidateMin("runs", c.Runs, 1),
		util.ValidateMin("objects", c.Objects, 0),
		util.ValidateMin("keep_every", c.KeepEvery, 1),
		util.ValidateOneOf("heap.backend", c.Heap.Backend, HeapRuntime, HeapSlab),
		util.ValidateOneOf("output.format", c.Output.Format, FormatCSV, FormatJSONL),
		c.validateOutputExt(),
	}
	if len(c.Shapes) == 0 {
		checks = append(checks, errors.New("shapes must not be empty"))
	}
	if c.Churn.Enabled {
		checks = append(checks,
			util.ValidateMin("churn.passes", c.Churn.Passes, 1),
			util.ValidateMin("churn.batches", c.Churn.Batches, 0),
			util.ValidateMin("churn.big", c.Churn.Big, 0),
			util.ValidateMin("churn.small", c.Churn.Small, 0),
		)
	}
	if c.Heap.Backend == HeapSlab {
		checks = append(checks,
			util.ValidateMin("heap.slab.page_size", c.Heap.Slab.PageSize, 4096),
			util.ValidateMin("heap.slab.gc_threshold_pages", c.Heap.Slab.GCThresholdPages, 0),
			util.ValidateRatio("heap.slab.compact_threshold", c.Heap.Slab.CompactThreshold),
		)
	}

	if err := errors.Join(checks...); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	return nil
}
