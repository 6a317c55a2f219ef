package report

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"

	"github.com/accrava/lintdiff/internal/lint"
)

var (
	styleClean   = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	styleWarn    = lipgloss.NewStyle().Foreground(lipgloss.Color("5"))
	styleError   = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	styleConv    = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	stylePath    = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
	styleCaret   = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	styleCorrect = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
)

type fileReport struct {
	path     string
	offenses []lint.Offense
	err      error
}

// Progress mimics RuboCop's default progress formatter: one character per
// file while running, then the offense list and a summary line.
type Progress struct {
	w     *stickyWriter
	opts  Options
	files []fileReport
}

// NewProgress returns a progress formatter writing to w.
func NewProgress(w io.Writer, opts Options) *Progress {
	return &Progress{w: &stickyWriter{w: w}, opts: opts}
}

func (p *Progress) paint(s lipgloss.Style, text string) string {
	if !p.opts.Color {
		return text
	}
	return s.Render(text)
}

func (p *Progress) severityStyle(sev lint.Severity) lipgloss.Style {
	switch {
	case sev >= lint.SeverityError:
		return styleError
	case sev == lint.SeverityWarning:
		return styleWarn
	default:
		return styleConv
	}
}

func (p *Progress) Started(paths []string) {
	fmt.Fprintf(p.w, "Inspecting %s\n", plural(len(paths), "file", "files"))
}

func (p *Progress) FileFinished(path string, offenses []lint.Offense) {
	p.files = append(p.files, fileReport{path: path, offenses: offenses})
	top, ok := lint.MaxSeverity(offenses)
	if !ok {
		fmt.Fprint(p.w, p.paint(styleClean, "."))
		return
	}
	fmt.Fprint(p.w, p.paint(p.severityStyle(top), top.Code()))
}

func (p *Progress) FileFailed(path string, err error) {
	p.files = append(p.files, fileReport{path: path, err: err})
	fmt.Fprint(p.w, p.paint(styleError, "E"))
}

func (p *Progress) Finished(paths []string) error {
	fmt.Fprintln(p.w)

	total, correctable, failed := 0, 0, 0
	for _, f := range p.files {
		total += len(f.offenses)
		if f.err != nil {
			failed++
		}
		for _, o := range f.offenses {
			if o.Correctable {
				correctable++
			}
		}
	}

	if total > 0 {
		fmt.Fprintf(p.w, "\nOffenses:\n\n")
		for _, f := range p.files {
			if len(f.offenses) == 0 {
				continue
			}
			src := readLines(f.path)
			for _, o := range f.offenses {
				p.writeOffense(o, src)
			}
		}
	}

	if failed > 0 {
		fmt.Fprintf(p.w, "\nFailures:\n\n")
		for _, f := range p.files {
			if f.err != nil {
				fmt.Fprintf(p.w, "%s: %v\n", p.paint(stylePath, relPath(p.opts.Dir, f.path)), f.err)
			}
		}
	}

	summary := plural(len(paths), "file", "files") + " inspected, "
	if total == 0 {
		summary += p.paint(styleClean, "no offenses") + " detected"
	} else {
		summary += p.paint(styleError, plural(total, "offense", "offenses")) + " detected"
	}
	if correctable > 0 {
		summary += ", " + p.paint(styleCorrect, plural(correctable, "offense", "offenses")) + " autocorrectable"
	}
	if failed > 0 {
		summary += ", " + p.paint(styleError, plural(failed, "file", "files")) + " failed"
	}
	fmt.Fprintf(p.w, "\n%s\n", summary)
	return p.w.err
}

func (p *Progress) writeOffense(o lint.Offense, src []string) {
	shown := o
	shown.Path = relPath(p.opts.Dir, o.Path)
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %s: ",
		p.paint(stylePath, shown.Location()),
		p.paint(p.severityStyle(o.Severity), o.Severity.Code()))
	if o.Corrected {
		b.WriteString(p.paint(styleCorrect, "[Corrected] "))
	} else if o.Correctable {
		b.WriteString(p.paint(styleCorrect, "[Correctable] "))
	}
	b.WriteString(message(o))
	fmt.Fprintln(p.w, b.String())

	if o.Line < 1 || o.Line > len(src) {
		return
	}
	line := src[o.Line-1]
	fmt.Fprintln(p.w, line)
	fmt.Fprintln(p.w, caret(line, o))
}

// message prefixes the cop name unless RuboCop already did.
func message(o lint.Offense) string {
	if o.Cop == "" || strings.HasPrefix(o.Message, o.Cop+":") {
		return o.Message
	}
	return o.Cop + ": " + o.Message
}

// caret underlines the offending columns of the first line of o. Columns
// count characters, not bytes.
func caret(line string, o lint.Offense) string {
	col := o.Column
	if col < 1 {
		col = 1
	}
	width := o.Length
	if o.LastLine > o.Line || width < 1 {
		width = utf8.RuneCountInString(line) - (col - 1)
	}
	if width < 1 {
		width = 1
	}
	return strings.Repeat(" ", col-1) + strings.Repeat("^", width)
}

func readLines(path string) []string {
	f, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer f.Close()
	var out []string
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		out = append(out, sc.Text())
	}
	return out
}
