package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

var ErrInvalid = errors.New("invalid configuration")

const (
	HeapRuntime = "runtime"
	HeapSlab    = "slab"

	FormatCSV   = "csv"
	FormatJSONL = "jsonl"

	DefaultProfile = "no_compact"
	ProfilesFile   = "profiles.yaml"
)

type Config struct {
	Profile       string        `yaml:"-"`
	Runs          int           `yaml:"runs"`
	Objects       int           `yaml:"objects"`
	KeepEvery     int           `yaml:"keep_every"`
	Compact       bool          `yaml:"compact"`
	DoubleCompact bool          `yaml:"double_compact"`
	AutoCompact   bool          `yaml:"auto_compact"`
	Churn         ChurnConfig   `yaml:"churn"`
	Shapes        []string      `yaml:"shapes"`
	Heap          HeapConfig    `yaml:"heap"`
	Output        OutputConfig  `yaml:"output"`
	Logging       LoggingConfig `yaml:"logging"`
}

type ChurnConfig struct {
	Enabled bool `yaml:"enabled"`
	Passes  int  `yaml:"passes"`
	Batches int  `yaml:"batches"`
	Big     int  `yaml:"big"`
	Small   int  `yaml:"small"`
}

type HeapConfig struct {
	Backend string     `yaml:"backend"`
	Slab    SlabConfig `yaml:"slab"`
}

type SlabConfig struct {
	PageSize         int     `yaml:"page_size"`
	GCThresholdPages int     `yaml:"gc_threshold_pages"`
	CompactThreshold float64 `yaml:"compact_threshold"`
}

type OutputConfig struct {
	Path   string `yaml:"path"`
	Format string `yaml:"format"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Defaults mirrors the parameters of the plain compaction experiment.
func Defaults() Config {
	return Config{
		Profile:   DefaultProfile,
		Runs:      5,
		Objects:   1_200_000,
		KeepEvery: 5,
		Churn: ChurnConfig{
			Enabled: true,
			Passes:  4,
			Batches: 12,
			Big:     120_000,
			Small:   8_000,
		},
		Shapes: []string{"string", "array", "map", "record"},
		Heap: HeapConfig{
			Backend: HeapRuntime,
			Slab: SlabConfig{
				PageSize:         64 << 10,
				GCThresholdPages: 256,
				CompactThreshold: 0.3,
			},
		},
		Output: OutputConfig{
			Format: FormatCSV,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Builtin returns the named experiment profiles that ship with the binary.
// Each profile is a separate experiment; they are not meant to agree on
// parameters.
func Builtin() map[string]Config {
	profiles := map[string]func(*Config){
		"no_compact": func(c *Config) {},
		"manual_compact": func(c *Config) {
			c.Compact = true
		},
		"double_compact": func(c *Config) {
			c.Compact = true
			c.DoubleCompact = true
		},
		"auto_compact": func(c *Config) {
			c.AutoCompact = true
		},
		"no_churn": func(c *Config) {
			c.Churn.Enabled = false
		},
		"packed": func(c *Config) {
			c.Objects = 400_000
			c.Shapes = []string{"string", "packed", "map", "packed"}
		},
	}

	out := make(map[string]Config, len(profiles))
	for name, apply := range profiles {
		cfg := Defaults()
		cfg.Profile = name
		apply(&cfg)
		out[name] = cfg
	}
	return out
}

type profilesFile struct {
	Profiles map[string]yaml.Node `yaml:"profiles"`
}

// LoadProfiles reads a YAML profiles file. Every profile is decoded on top of
// the built-in profile of the same name, or on top of Defaults when the name
// is new. Built-in profiles not mentioned in the file are kept.
func LoadProfiles(path string) (map[string]Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading profiles file: %w", err)
	}

	var file profilesFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("error parsing profiles file: %w", err)
	}

	profiles := Builtin()
	for name, node := range file.Profiles {
		cfg, ok := profiles[name]
		if !ok {
			cfg = Defaults()
		}
		if err := node.Decode(&cfg); err != nil {
			return nil, fmt.Errorf("error parsing profile %q: %w", name, err)
		}
		cfg.Profile = name
		profiles[name] = cfg
	}
	return profiles, nil
}

// FindProfilesFile walks up from the working directory looking for
// config/profiles.yaml. It returns an empty path when there is none.
func FindProfilesFile() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}

	for {
		candidate := filepath.Join(dir, "config", ProfilesFile)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", nil
		}
		dir = parent
	}
}

// Select picks a profile by name.
func Select(profiles map[string]Config, name string) (Config, error) {
	if name == "" {
		name = DefaultProfile
	}
	cfg, ok := profiles[name]
	if !ok {
		return Config{}, fmt.Errorf("%w: unknown profile %q (have %s)", ErrInvalid, name, strings.Join(Names(profiles), ", "))
	}
	return cfg, nil
}

func Names(profiles map[string]Config) []string {
	names := make([]string, 0, len(profiles))
	for name := range profiles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// OutputPath returns the configured output path or the one derived from the
// compaction mode. A configured path without an extension gets the one
// matching the output format.
func (c Config) OutputPath() string {
	ext := ".csv"
	if c.Output.Format == FormatJSONL {
		ext = ".jsonl"
	}

	if c.Output.Path != "" {
		if filepath.Ext(c.Output.Path) == "" {
			return c.Output.Path + ext
		}
		return c.Output.Path
	}

	switch {
	case c.Compact:
		return filepath.Join("data", "results_manual_compact"+ext)
	case c.AutoCompact:
		return filepath.Join("data", "results_auto_compact"+ext)
	default:
		return filepath.Join("data", "results_no_compact"+ext)
	}
}

// validateOutputExt rejects an explicit path whose extension names the other
// format, since the summary picks its reader by extension.
func (c Config) validateOutputExt() error {
	ext := strings.ToLower(filepath.Ext(c.Output.Path))
	switch {
	case ext == ".csv" && c.Output.Format == FormatJSONL,
		(ext == ".jsonl" || ext == ".json") && c.Output.Format == FormatCSV:
		return fmt.Errorf("output.path %q does not match output.format %q", c.Output.Path, c.Output.Format)
	}
	return nil
}
