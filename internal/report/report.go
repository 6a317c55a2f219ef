// Package report renders lint results for humans and for CI.
package report

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/mattn/go-isatty"

	"github.com/accrava/lintdiff/internal/lint"
)

// Formatter receives events while the engine walks the changed files.
// Calls arrive in this order: Started once, then FileFinished or FileFailed
// per file in inspection order, then Finished once.
type Formatter interface {
	Started(paths []string)
	FileFinished(path string, offenses []lint.Offense)
	FileFailed(path string, err error)
	// Finished writes any buffered output and reports the first write error.
	Finished(paths []string) error
}

// Formats accepted by New.
const (
	FormatProgress = "progress"
	FormatJSON     = "json"
	FormatGitHub   = "github"
)

// Options shared by all formatters.
type Options struct {
	// Color enables ANSI styling in the progress formatter.
	Color bool
	// Dir is the directory printed paths are made relative to. Empty means
	// the process working directory.
	Dir string
}

// New returns the formatter registered under name.
func New(name string, w io.Writer, opts Options) (Formatter, error) {
	if opts.Dir == "" {
		opts.Dir, _ = os.Getwd()
	}
	switch strings.ToLower(name) {
	case "", FormatProgress:
		return NewProgress(w, opts), nil
	case FormatJSON:
		return NewJSON(w, opts), nil
	case FormatGitHub:
		return NewGitHub(w, opts), nil
	}
	return nil, fmt.Errorf("unknown format %q (want %s, %s or %s)", name, FormatProgress, FormatJSON, FormatGitHub)
}

// ColorEnabled reports whether w is a terminal that should get colour.
// NO_COLOR and noColor both turn it off.
func ColorEnabled(w io.Writer, noColor bool) bool {
	if noColor || os.Getenv("NO_COLOR") != "" {
		return false
	}
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// stickyWriter remembers the first write error so Finished can return it.
type stickyWriter struct {
	w   io.Writer
	err error
}

func (s *stickyWriter) Write(p []byte) (int, error) {
	if s.err != nil {
		return 0, s.err
	}
	n, err := s.w.Write(p)
	if err != nil {
		s.err = err
	}
	return n, err
}

// relPath shortens p to a path relative to dir when p lives under it.
func relPath(dir, p string) string {
	if dir == "" || !filepath.IsAbs(p) {
		return p
	}
	rel, err := filepath.Rel(dir, p)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return p
	}
	return rel
}

func plural(n int, one, many string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, one)
	}
	return fmt.Sprintf("%d %s", n, many)
}
