package lint

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// DefaultTimeout bounds a single rubocop invocation.
const DefaultTimeout = 2 * time.Minute

// ConfigFileName is the project lint configuration RuboCop reads.
const ConfigFileName = ".rubocop.yml"

// RuboCop runs the rubocop executable.
type RuboCop struct {
	cmd        Command
	workdir    string
	configFile string
	timeout    time.Duration
	log        zerolog.Logger
}

// Option configures a RuboCop adapter.
type Option func(*RuboCop)

// WithWorkdir sets the directory rubocop runs in and relative paths resolve against.
func WithWorkdir(dir string) Option {
	return func(r *RuboCop) { r.workdir = dir }
}

// WithConfigFile points rubocop at a configuration file. It is only passed
// on when the file exists, so a project without one gets RuboCop's defaults.
func WithConfigFile(path string) Option {
	return func(r *RuboCop) { r.configFile = path }
}

// WithTimeout bounds each invocation.
func WithTimeout(d time.Duration) Option {
	return func(r *RuboCop) {
		if d > 0 {
			r.timeout = d
		}
	}
}

// WithLogger attaches a logger for debug output.
func WithLogger(l zerolog.Logger) Option {
	return func(r *RuboCop) { r.log = l }
}

// NewRuboCop returns an adapter running cmd.
func NewRuboCop(cmd Command, opts ...Option) *RuboCop {
	r := &RuboCop{cmd: cmd, timeout: DefaultTimeout, log: zerolog.Nop()}
	for _, opt := range opts {
		opt(r)
	}
	if r.workdir == "" {
		r.workdir, _ = os.Getwd()
	}
	if r.configFile == "" {
		r.configFile = filepath.Join(r.workdir, ConfigFileName)
	}
	return r
}

func (r *RuboCop) configArgs() []string {
	if st, err := os.Stat(r.configFile); err == nil && !st.IsDir() {
		return []string{"--config", r.configFile}
	}
	return nil
}

// TargetFiles asks `rubocop --list-target-files --force-exclusion` which of
// paths it would inspect.
func (r *RuboCop) TargetFiles(ctx context.Context, paths []string) ([]string, error) {
	if len(paths) == 0 {
		return nil, nil
	}
	ctx, span := startSpan(ctx, "target_files", r.workdir)
	start := time.Now()

	args := []string{"--list-target-files", "--force-exclusion"}
	args = append(args, r.configArgs()...)
	args = append(args, "--")
	args = append(args, paths...)

	res, err := r.run(ctx, "", args)
	if err != nil {
		recordLint(ctx, "target_files", time.Since(start), 0, false)
		endSpan(span, 0, err)
		return nil, err
	}
	if res.ExitCode != 0 {
		err := &LinterError{Linter: r.cmd.String(), Err: ErrLinterFailed, Output: strings.TrimSpace(string(res.Stderr))}
		recordLint(ctx, "target_files", time.Since(start), 0, false)
		endSpan(span, 0, err)
		return nil, err
	}

	listed := map[string]bool{}
	sc := bufio.NewScanner(bytes.NewReader(res.Stdout))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		listed[r.canonical(line)] = true
	}

	out := make([]string, 0, len(paths))
	for _, p := range paths {
		if listed[r.canonical(p)] {
			out = append(out, p)
		}
	}
	r.log.Debug().Int("requested", len(paths)).Int("targets", len(out)).Msg("rubocop target files")
	recordLint(ctx, "target_files", time.Since(start), 0, true)
	endSpan(span, 0, nil)
	return out, nil
}

// FileOffenses runs `rubocop --format json` on one file.
func (r *RuboCop) FileOffenses(ctx context.Context, path string) ([]Offense, error) {
	ctx, span := startSpan(ctx, "file_offenses", path)
	start := time.Now()

	args := []string{"--format", "json", "--force-exclusion", "--cache", "false"}
	args = append(args, r.configArgs()...)
	args = append(args, "--", path)

	offenses, err := r.fileOffenses(ctx, path, args)
	recordLint(ctx, "file_offenses", time.Since(start), len(offenses), err == nil)
	endSpan(span, len(offenses), err)
	if err != nil {
		return nil, err
	}
	r.log.Debug().Str("path", path).Int("offenses", len(offenses)).Dur("took", time.Since(start)).Msg("rubocop file")
	return offenses, nil
}

func (r *RuboCop) fileOffenses(ctx context.Context, path string, args []string) ([]Offense, error) {
	res, err := r.run(ctx, path, args)
	if err != nil {
		return nil, err
	}
	// 0: clean, 1: offenses found, anything else is rubocop failing.
	if (res.ExitCode != 0 && res.ExitCode != 1) || len(bytes.TrimSpace(res.Stdout)) == 0 {
		return nil, &LinterError{Linter: r.cmd.String(), Path: path, Err: ErrLinterFailed, Output: strings.TrimSpace(string(res.Stderr))}
	}
	offenses, err := parseRuboCopJSON(res.Stdout, path)
	if err != nil {
		return nil, &LinterError{Linter: r.cmd.String(), Path: path, Err: fmt.Errorf("%w: %v", ErrParseOutput, err)}
	}
	return offenses, nil
}

func (r *RuboCop) run(ctx context.Context, path string, args []string) (execResult, error) {
	cctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	res, err := runCommand(cctx, r.workdir, r.cmd.Path, r.cmd.with(args...)...)
	if errors.Is(cctx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
		return res, &LinterError{Linter: r.cmd.String(), Path: path, Err: ErrLinterTimeout}
	}
	if ctx.Err() != nil {
		return res, ctx.Err()
	}
	if err != nil {
		return res, &LinterError{Linter: r.cmd.String(), Path: path, Err: fmt.Errorf("%w: %v", ErrLinterFailed, err)}
	}
	return res, nil
}

func (r *RuboCop) canonical(p string) string {
	if !filepath.IsAbs(p) {
		p = filepath.Join(r.workdir, p)
	}
	if resolved, err := filepath.EvalSymlinks(p); err == nil {
		return resolved
	}
	return filepath.Clean(p)
}

// rubocopReport is the document written by `rubocop --format json`.
type rubocopReport struct {
	Metadata struct {
		RuboCopVersion string `json:"rubocop_version"`
	} `json:"metadata"`
	Files []struct {
		Path     string           `json:"path"`
		Offenses []rubocopOffense `json:"offenses"`
	} `json:"files"`
}

type rubocopOffense struct {
	Severity    string `json:"severity"`
	Message     string `json:"message"`
	CopName     string `json:"cop_name"`
	Corrected   bool   `json:"corrected"`
	Correctable bool   `json:"correctable"`
	Location    struct {
		StartLine   int `json:"start_line"`
		StartColumn int `json:"start_column"`
		LastLine    int `json:"last_line"`
		LastColumn  int `json:"last_column"`
		Length      int `json:"length"`
		Line        int `json:"line"`
		Column      int `json:"column"`
	} `json:"location"`
}

// parseRuboCopJSON converts a JSON report into offenses attributed to path.
// rubocop prints paths relative to its working directory, so the caller's
// path is used instead.
func parseRuboCopJSON(data []byte, path string) ([]Offense, error) {
	var rep rubocopReport
	if err := json.Unmarshal(data, &rep); err != nil {
		return nil, err
	}
	var out []Offense
	for _, f := range rep.Files {
		for _, ro := range f.Offenses {
			line := ro.Location.StartLine
			if line == 0 {
				line = ro.Location.Line
			}
			col := ro.Location.StartColumn
			if col == 0 {
				col = ro.Location.Column
			}
			out = append(out, Offense{
				Path:        path,
				Line:        line,
				Column:      col,
				LastLine:    ro.Location.LastLine,
				LastColumn:  ro.Location.LastColumn,
				Length:      ro.Location.Length,
				Cop:         ro.CopName,
				Severity:    ParseSeverity(ro.Severity),
				Message:     ro.Message,
				Correctable: ro.Correctable,
				Corrected:   ro.Corrected,
			})
		}
	}
	return out, nil
}
