package lint

import (
	"errors"
	"fmt"
)

var (
	// ErrLinterNotInstalled means no usable linter executable was found.
	ErrLinterNotInstalled = errors.New("linter not installed")
	// ErrLinterTimeout means the linter exceeded its per-file timeout.
	ErrLinterTimeout = errors.New("linter timeout")
	// ErrLinterFailed means the linter exited with an error status.
	ErrLinterFailed = errors.New("linter execution failed")
	// ErrParseOutput means the linter's output was not the expected JSON.
	ErrParseOutput = errors.New("failed to parse linter output")
	// ErrVersionTooOld means the linter is older than the minimum supported release.
	ErrVersionTooOld = errors.New("linter version too old")
)

// LinterError wraps a failure of one linter invocation.
type LinterError struct {
	// Linter is the executable that failed.
	Linter string
	// Path is the file being linted, empty for multi-file calls.
	Path string
	// Err is one of the sentinel errors above.
	Err error
	// Output holds the linter's stderr.
	Output string
}

func (e *LinterError) Error() string {
	msg := e.Linter
	if e.Path != "" {
		msg += " " + e.Path
	}
	msg = fmt.Sprintf("%s: %v", msg, e.Err)
	if e.Output != "" {
		msg += ": " + e.Output
	}
	return msg
}

func (e *LinterError) Unwrap() error {
	return e.Err
}
