package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/accrava/lintdiff/internal/config"
	"github.com/accrava/lintdiff/internal/git"
)

const prePushHook = `#!/bin/sh
# installed by lintdiff: lint the lines this push changes
exec lintdiff --merge-base %s
`

func newHookCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "hook",
		Short: "Manage git hooks",
	}

	var (
		prePush, force bool
		remote         string
	)
	install := &cobra.Command{
		Use:   "install",
		Short: "Install git hooks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !prePush {
				return fmt.Errorf("specify --pre-push")
			}
			return installPrePush(cmd, remote, force)
		},
	}
	install.Flags().BoolVar(&prePush, "pre-push", false, "install a pre-push hook")
	install.PersistentFlags().BoolVar(&force, "force", false, "overwrite an existing hook")
	install.PersistentFlags().StringVar(&remote, "remote", "origin", "remote whose copy of the base branch the hook diffs against")
	cmd.AddCommand(install)

	// alias: lintdiff hook install pre-push
	install.AddCommand(&cobra.Command{
		Use:   "pre-push",
		Short: "Install a pre-push hook",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return installPrePush(cmd, remote, force)
		},
	})
	return cmd
}

// installPrePush writes a hook that diffs against the configured base
// branch on remote.
func installPrePush(cmd *cobra.Command, remote string, force bool) error {
	repo, err := git.Open(config.DefaultRepo)
	if err != nil {
		return err
	}
	layers, err := fileLayers(config.DefaultRepo)
	if err != nil {
		return err
	}
	opts, err := config.Resolve(config.DefaultRepo, layers...)
	if err != nil {
		return err
	}
	hookDir, err := repo.HooksDir()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(hookDir, 0o755); err != nil {
		return err
	}
	hookPath := filepath.Join(hookDir, "pre-push")
	if _, err := os.Stat(hookPath); err == nil && !force {
		return fmt.Errorf("%s already exists (use --force to overwrite)", hookPath)
	} else if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	script := fmt.Sprintf(prePushHook, remote+"/"+opts.Base)
	if err := os.WriteFile(hookPath, []byte(script), 0o755); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Installed pre-push hook -> %s\n", hookPath)
	return nil
}
