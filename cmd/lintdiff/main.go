package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var version = "dev"

// Exit statuses.
const (
	exitOK       = 0
	exitOffenses = 1
	exitError    = 2
)

// exitCodeError carries a non-zero exit status out of a RunE.
type exitCodeError struct {
	code int
}

func (e exitCodeError) Error() string { return fmt.Sprintf("exit status %d", e.code) }

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := execute(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// execute runs the CLI and maps the outcome to an exit status:
// 0 clean, 1 offenses on changed lines, 2 anything that went wrong.
func execute(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	root := newRootCmd()
	root.SetArgs(args)
	root.SetIn(stdin)
	root.SetOut(stdout)
	root.SetErr(stderr)

	err := root.ExecuteContext(ctx)
	if err == nil {
		return exitOK
	}
	var ec exitCodeError
	if errors.As(err, &ec) {
		return ec.code
	}
	fmt.Fprintln(stderr, "lintdiff:", err)
	return exitError
}

func newRootCmd() *cobra.Command {
	f := &runFlags{}
	cmd := &cobra.Command{
		Use:   "lintdiff",
		Short: "Run RuboCop on the lines changed between two revisions",
		Long: `lintdiff diffs a base and a tip revision, runs RuboCop on the changed files
and reports only the offenses on added lines.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runLint(cmd, f)
		},
	}
	f.register(cmd)

	cmd.AddCommand(newVersionCmd(), newHookCmd(), newActionCmd(), newHistoryCmd())
	return cmd
}
