package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/accrava/lintdiff/internal/lint"
)

// GitHub writes workflow commands that GitHub Actions turns into inline
// annotations on the pull request diff.
type GitHub struct {
	w        *stickyWriter
	opts     Options
	offenses int
	failed   int
}

// NewGitHub returns a GitHub Actions formatter writing to w.
func NewGitHub(w io.Writer, opts Options) *GitHub {
	return &GitHub{w: &stickyWriter{w: w}, opts: opts}
}

func (g *GitHub) Started([]string) {}

func (g *GitHub) FileFinished(path string, offenses []lint.Offense) {
	file := relPath(g.opts.Dir, path)
	for _, o := range offenses {
		level := "warning"
		if o.Severity >= lint.SeverityError {
			level = "error"
		}
		props := fmt.Sprintf("file=%s,line=%d,col=%d", escapeProperty(file), o.Line, o.Column)
		if o.LastLine >= o.Line && o.LastColumn > 0 {
			props += fmt.Sprintf(",endLine=%d,endColumn=%d", o.LastLine, o.LastColumn)
		}
		if o.Cop != "" {
			props += ",title=" + escapeProperty(o.Cop)
		}
		fmt.Fprintf(g.w, "::%s %s::%s\n", level, props, escapeData(message(o)))
	}
	g.offenses += len(offenses)
}

func (g *GitHub) FileFailed(path string, err error) {
	g.failed++
	fmt.Fprintf(g.w, "::error file=%s,title=lintdiff::%s\n",
		escapeProperty(relPath(g.opts.Dir, path)), escapeData(err.Error()))
}

func (g *GitHub) Finished(paths []string) error {
	summary := fmt.Sprintf("%s inspected, %s detected",
		plural(len(paths), "file", "files"), plural(g.offenses, "offense", "offenses"))
	if g.failed > 0 {
		summary += ", " + plural(g.failed, "file", "files") + " failed"
	}
	fmt.Fprintln(g.w, summary)
	return g.w.err
}

var (
	dataEscaper     = strings.NewReplacer("%", "%25", "\r", "%0D", "\n", "%0A")
	propertyEscaper = strings.NewReplacer("%", "%25", "\r", "%0D", "\n", "%0A", ":", "%3A", ",", "%2C")
)

func escapeData(s string) string     { return dataEscaper.Replace(s) }
func escapeProperty(s string) string { return propertyEscaper.Replace(s) }
