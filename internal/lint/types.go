package lint

import (
	"context"
	"strconv"
	"strings"
)

// Linter is the adapter lintdiff drives.
type Linter interface {
	// TargetFiles returns the subset of paths the linter would inspect,
	// honouring its include/exclude configuration even for paths named
	// explicitly. Input order is preserved.
	TargetFiles(ctx context.Context, paths []string) ([]string, error)

	// FileOffenses returns every offense the linter reports for path.
	FileOffenses(ctx context.Context, path string) ([]Offense, error)
}

// Severity of an offense, ordered from least to most severe.
type Severity int

const (
	SeverityInfo Severity = iota
	SeverityRefactor
	SeverityConvention
	SeverityWarning
	SeverityError
	SeverityFatal
)

var severityNames = [...]string{"info", "refactor", "convention", "warning", "error", "fatal"}

// String returns the RuboCop name of the severity.
func (s Severity) String() string {
	if s < 0 || int(s) >= len(severityNames) {
		return "unknown"
	}
	return severityNames[s]
}

// Code is the single upper-case letter used in progress output.
func (s Severity) Code() string {
	return strings.ToUpper(s.String()[:1])
}

// MarshalText encodes the severity by name.
func (s Severity) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText decodes a severity name; unknown names become warnings.
func (s *Severity) UnmarshalText(b []byte) error {
	*s = ParseSeverity(string(b))
	return nil
}

// ParseSeverity maps a RuboCop severity name to a Severity.
// Unknown values default to SeverityWarning.
func ParseSeverity(name string) Severity {
	for i, n := range severityNames {
		if strings.EqualFold(n, name) {
			return Severity(i)
		}
	}
	return SeverityWarning
}

// Offense is one finding reported by the linter.
type Offense struct {
	Path        string   `json:"path"`
	Line        int      `json:"line"`
	Column      int      `json:"column"`
	LastLine    int      `json:"last_line,omitempty"`
	LastColumn  int      `json:"last_column,omitempty"`
	Length      int      `json:"length,omitempty"`
	Cop         string   `json:"cop_name"`
	Severity    Severity `json:"severity"`
	Message     string   `json:"message"`
	Correctable bool     `json:"correctable"`
	Corrected   bool     `json:"corrected"`
}

// Location formats path:line:column.
func (o Offense) Location() string {
	return o.Path + ":" + strconv.Itoa(o.Line) + ":" + strconv.Itoa(o.Column)
}

// MaxSeverity returns the highest severity among offenses and whether there
// were any.
func MaxSeverity(offenses []Offense) (Severity, bool) {
	if len(offenses) == 0 {
		return SeverityInfo, false
	}
	top := offenses[0].Severity
	for _, o := range offenses[1:] {
		if o.Severity > top {
			top = o.Severity
		}
	}
	return top, true
}
