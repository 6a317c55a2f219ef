package main

import (
	"fmt"
	"runtime/debug"

	"github.com/spf13/cobra"
	"github.com/tcnksm/go-latest"
)

// latestSource is where `version --check` looks for releases.
var latestSource latest.Source = &latest.GithubTag{
	Owner:      "accrava",
	Repository: "lintdiff",
}

func newVersionCmd() *cobra.Command {
	var check bool
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, versionString())
			if !check {
				return nil
			}
			res, err := latest.Check(latestSource, version)
			if err != nil {
				return fmt.Errorf("checking for updates: %w", err)
			}
			if res.Outdated {
				fmt.Fprintf(out, "A new version is available: %s (you have %s)\n", res.Current, version)
				fmt.Fprintln(out, "Download it from https://github.com/accrava/lintdiff/releases")
				return nil
			}
			fmt.Fprintf(out, "You are using the latest version: %s\n", version)
			return nil
		},
	}
	cmd.Flags().BoolVar(&check, "check", false, "check GitHub for a newer release")
	return cmd
}

func versionString() string {
	rev := ""
	ts := ""
	if info, ok := debug.ReadBuildInfo(); ok {
		for _, s := range info.Settings {
			if s.Key == "vcs.revision" {
				rev = s.Value
			}
			if s.Key == "vcs.time" {
				ts = s.Value
			}
		}
	}
	if rev != "" || ts != "" {
		return fmt.Sprintf("%s (commit %s, built %s)", version, short(rev), ts)
	}
	return version
}

func short(s string) string {
	if len(s) > 7 {
		return s[:7]
	}
	return s
}
