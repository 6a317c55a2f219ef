// Package config builds the run options from flags, config files and the
// environment. Precedence, highest first: CLI > local file > global file >
// LINTDIFF_* environment > defaults.
package config

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Defaults.
const (
	DefaultBase     = "main"
	DefaultTip      = "HEAD"
	DefaultRepo     = "."
	DefaultFormat   = "progress"
	DefaultLogLevel = "warn"
	DefaultTimeout  = 2 * time.Minute
	DefaultTracer   = "none"
)

// FileConfig is one layer of settings. Nil fields are unset and fall through
// to the next layer.
type FileConfig struct {
	Base            *string `yaml:"base"`
	MergeBase       *string `yaml:"merge_base"`
	Tip             *string `yaml:"tip"`
	Format          *string `yaml:"format"`
	LintConfig      *string `yaml:"config"`
	RuboCop         *string `yaml:"rubocop"`
	NoColor         *bool   `yaml:"no_color"`
	LogLevel        *string `yaml:"log_level"`
	Record          *string `yaml:"record"`
	Timeout         *string `yaml:"timeout"`
	TraceExporter   *string `yaml:"trace_exporter"`
	MetricsTextfile *string `yaml:"metrics_textfile"`

	// DiffFile only comes from the command line.
	DiffFile *string `yaml:"-"`
}

// Options is the resolved, read-only configuration for one run.
type Options struct {
	Base         string
	BaseExplicit bool
	MergeBase    string
	Repo         string
	Tip          string

	Format          string
	LintConfig      string
	RuboCop         string
	DiffFile        string
	NoColor         bool
	LogLevel        string
	Record          string
	Timeout         time.Duration
	TraceExporter   string
	MetricsTextfile string
}

// LocalFileNames are searched in the repository path, in order.
var LocalFileNames = []string{".lintdiff.yaml", ".lintdiff.yml", "lintdiff.yaml", "lintdiff.yml"}

// LoadFile parses a yaml config file.
func LoadFile(path string) (FileConfig, error) {
	var c FileConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return c, err
	}
	if err := yaml.Unmarshal(b, &c); err != nil {
		return c, fmt.Errorf("parsing %s: %w", path, err)
	}
	return c, nil
}

// LoadLocal loads the first local config file found in dir.
func LoadLocal(dir string) (FileConfig, error) {
	for _, name := range LocalFileNames {
		p := filepath.Join(dir, name)
		if _, err := os.Stat(p); err == nil {
			return LoadFile(p)
		}
	}
	return FileConfig{}, fs.ErrNotExist
}

// LoadGlobal loads $XDG_CONFIG_HOME/lintdiff/config.yml, falling back to
// ~/.config/lintdiff/config.yml.
func LoadGlobal() (FileConfig, error) {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		home := os.Getenv("HOME")
		if home == "" {
			return FileConfig{}, fmt.Errorf("no config dir, neither XDG_CONFIG_HOME nor HOME is set: %w", fs.ErrNotExist)
		}
		dir = filepath.Join(home, ".config")
	}
	return LoadFile(filepath.Join(dir, "lintdiff", "config.yml"))
}

// LoadEnv loads dir/.env into the process environment when present, without
// overriding variables already set, then reads the LINTDIFF_* variables.
func LoadEnv(dir string) (FileConfig, error) {
	envFile := filepath.Join(dir, ".env")
	if _, err := os.Stat(envFile); err == nil {
		if err := godotenv.Load(envFile); err != nil {
			return FileConfig{}, fmt.Errorf("loading %s: %w", envFile, err)
		}
	}

	var c FileConfig
	c.Base = env("LINTDIFF_BASE")
	c.MergeBase = env("LINTDIFF_MERGE_BASE")
	c.Tip = env("LINTDIFF_TIP")
	c.Format = env("LINTDIFF_FORMAT")
	c.LintConfig = env("LINTDIFF_CONFIG")
	c.RuboCop = env("LINTDIFF_RUBOCOP")
	c.LogLevel = env("LINTDIFF_LOG_LEVEL")
	c.Record = env("LINTDIFF_RECORD")
	c.Timeout = env("LINTDIFF_TIMEOUT")
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		t := true
		c.NoColor = &t
	}
	return c, nil
}

func env(key string) *string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return &v
	}
	return nil
}

// Resolve merges layers, highest precedence first, over the defaults.
func Resolve(repo string, layers ...FileConfig) (Options, error) {
	if repo == "" {
		repo = DefaultRepo
	}
	o := Options{
		Repo:            repo,
		Base:            pick(DefaultBase, layers, func(c FileConfig) *string { return c.Base }),
		MergeBase:       pick("", layers, func(c FileConfig) *string { return c.MergeBase }),
		Tip:             pick(DefaultTip, layers, func(c FileConfig) *string { return c.Tip }),
		Format:          pick(DefaultFormat, layers, func(c FileConfig) *string { return c.Format }),
		LintConfig:      pick("", layers, func(c FileConfig) *string { return c.LintConfig }),
		RuboCop:         pick("", layers, func(c FileConfig) *string { return c.RuboCop }),
		DiffFile:        pick("", layers, func(c FileConfig) *string { return c.DiffFile }),
		LogLevel:        pick(DefaultLogLevel, layers, func(c FileConfig) *string { return c.LogLevel }),
		Record:          pick("", layers, func(c FileConfig) *string { return c.Record }),
		TraceExporter:   pick(DefaultTracer, layers, func(c FileConfig) *string { return c.TraceExporter }),
		MetricsTextfile: pick("", layers, func(c FileConfig) *string { return c.MetricsTextfile }),
		NoColor:         pick(false, layers, func(c FileConfig) *bool { return c.NoColor }),
	}
	for _, l := range layers {
		if l.Base != nil {
			o.BaseExplicit = true
			break
		}
	}

	o.Timeout = DefaultTimeout
	if s := pick("", layers, func(c FileConfig) *string { return c.Timeout }); s != "" {
		d, err := time.ParseDuration(s)
		if err != nil || d <= 0 {
			return o, fmt.Errorf("invalid timeout %q", s)
		}
		o.Timeout = d
	}
	return o, nil
}

func pick[T any](def T, layers []FileConfig, get func(FileConfig) *T) T {
	for _, l := range layers {
		if v := get(l); v != nil {
			return *v
		}
	}
	return def
}
