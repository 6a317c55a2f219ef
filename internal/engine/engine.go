// Package engine runs the linter over changed files and keeps only the
// offenses that land on added lines.
package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/accrava/lintdiff/internal/changes"
	"github.com/accrava/lintdiff/internal/ignore"
	"github.com/accrava/lintdiff/internal/lint"
	"github.com/accrava/lintdiff/internal/report"
)

// Input is everything one run needs.
type Input struct {
	Changes   *changes.Set
	Ignore    *ignore.Matcher
	Linter    lint.Linter
	Formatter report.Formatter
	Log       zerolog.Logger
}

// FileResult is the outcome for one inspected file.
type FileResult struct {
	Path string `json:"path"`
	// Offenses on added lines only.
	Offenses []lint.Offense `json:"offenses"`
	// Reported is how many offenses the linter found before line filtering.
	Reported int `json:"reported"`
	// Err is set when the linter failed on this file.
	Err error `json:"-"`
}

// Result summarises a run.
type Result struct {
	// Success is false once any file has an offense on an added line.
	Success bool
	Files   []FileResult
	// Changed is the number of files with added lines before any filtering.
	Changed int
	// Offenses counts offenses on added lines; Failed counts files the
	// linter could not inspect.
	Offenses int
	Failed   int
	Duration time.Duration
}

// Run filters the change set down to lintable files and inspects each one
// in order. A failure on one file is reported and the run continues; only
// target-file selection errors and context cancellation abort it.
func Run(ctx context.Context, in Input) (Result, error) {
	start := time.Now()
	res := Result{Success: true}
	if in.Changes == nil {
		in.Changes = changes.New()
	}
	if in.Formatter == nil {
		in.Formatter = nopFormatter{}
	}
	res.Changed = in.Changes.Len()

	paths := in.Ignore.Filter(in.Changes.Paths())
	if len(paths) < res.Changed {
		in.Log.Debug().Int("ignored", res.Changed-len(paths)).Msg("dropped ignored paths")
	}

	targets, err := in.Linter.TargetFiles(ctx, paths)
	if err != nil {
		return res, fmt.Errorf("selecting files to lint: %w", err)
	}
	in.Changes.Retain(targets)
	paths = in.Changes.Paths()
	in.Log.Debug().Int("changed", res.Changed).Int("targets", len(paths)).Msg("lint targets")

	in.Formatter.Started(paths)
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			res.Duration = time.Since(start)
			return res, err
		}

		offenses, err := in.Linter.FileOffenses(ctx, path)
		if err != nil {
			if ctx.Err() != nil {
				res.Duration = time.Since(start)
				return res, ctx.Err()
			}
			in.Log.Debug().Err(err).Str("path", path).Msg("lint failed")
			res.Failed++
			res.Files = append(res.Files, FileResult{Path: path, Err: err})
			in.Formatter.FileFailed(path, err)
			continue
		}

		kept := onChangedLines(in.Changes, path, offenses)
		if len(kept) > 0 {
			res.Success = false
		}
		res.Offenses += len(kept)
		res.Files = append(res.Files, FileResult{Path: path, Offenses: kept, Reported: len(offenses)})
		in.Formatter.FileFinished(path, kept)
	}
	if err := in.Formatter.Finished(paths); err != nil {
		return res, fmt.Errorf("writing report: %w", err)
	}

	res.Duration = time.Since(start)
	return res, nil
}

func onChangedLines(set *changes.Set, path string, offenses []lint.Offense) []lint.Offense {
	kept := make([]lint.Offense, 0, len(offenses))
	for _, o := range offenses {
		if set.Contains(path, o.Line) {
			kept = append(kept, o)
		}
	}
	return kept
}

type nopFormatter struct{}

func (nopFormatter) Started([]string)                    {}
func (nopFormatter) FileFinished(string, []lint.Offense) {}
func (nopFormatter) FileFailed(string, error)            {}
func (nopFormatter) Finished([]string) error             { return nil }
