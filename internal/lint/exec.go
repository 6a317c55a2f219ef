package lint

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
)

// execResult is what one subprocess run produced.
type execResult struct {
	Stdout   []byte
	Stderr   []byte
	ExitCode int
}

// runCommand runs name with args in dir. A non-zero exit is reported through
// ExitCode, not err; err is reserved for failing to start or being killed.
// Tests replace it.
var runCommand = func(ctx context.Context, dir, name string, args ...string) (execResult, error) {
	cmd := exec.CommandContext(ctx, name, args...) // #nosec G204
	cmd.Dir = dir
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	res := execResult{Stdout: stdout.Bytes(), Stderr: stderr.Bytes()}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) && ctx.Err() == nil {
		res.ExitCode = exitErr.ExitCode()
		return res, nil
	}
	return res, err
}

// lookPath is exec.LookPath, replaceable in tests.
var lookPath = exec.LookPath
