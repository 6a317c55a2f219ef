package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

const workflow = `name: lintdiff
on: [pull_request]
jobs:
  rubocop:
    runs-on: ubuntu-latest
    steps:
      - uses: actions/checkout@v4
        with:
          fetch-depth: 0
      - uses: ruby/setup-ruby@v1
        with:
          bundler-cache: true
      - uses: actions/setup-go@v5
        with:
          go-version: 'stable'
      - run: go install github.com/accrava/lintdiff/cmd/lintdiff@latest
      - run: lintdiff --merge-base origin/${{ github.base_ref }} --format github
`

func newActionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "action",
		Short: "GitHub Action helpers",
	}

	var force bool
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write a GitHub Actions workflow that runs lintdiff on pull requests",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			dir := filepath.Join(".github", "workflows")
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return err
			}
			path := filepath.Join(dir, "lintdiff.yml")
			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", path)
			}
			if err := os.WriteFile(path, []byte(workflow), 0o644); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Wrote", path)
			return nil
		},
	}
	initCmd.Flags().BoolVar(&force, "force", false, "overwrite an existing workflow")
	cmd.AddCommand(initCmd)
	return cmd
}
