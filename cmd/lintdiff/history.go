package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/accrava/lintdiff/internal/audit"
	"github.com/accrava/lintdiff/internal/config"
)

func newHistoryCmd() *cobra.Command {
	var (
		limit  int
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "history [FILE]",
		Short: "List runs recorded with --record, newest first",
		Long: `history prints the runs appended to a run log by --record. Without FILE
the record path from the configuration files or LINTDIFF_RECORD is used.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := historyPath(args)
			if err != nil {
				return err
			}
			records, err := audit.NewRunLog(path).LoadHistory()
			if err != nil {
				return err
			}
			if limit > 0 && len(records) > limit {
				records = records[:limit]
			}
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				if records == nil {
					records = []audit.RunRecord{}
				}
				return enc.Encode(records)
			}
			return writeHistory(cmd.OutOrStdout(), records)
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "show at most N runs (0 shows all)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the records as a JSON array")
	return cmd
}

func historyPath(args []string) (string, error) {
	if len(args) == 1 {
		return args[0], nil
	}
	layers, err := fileLayers(config.DefaultRepo)
	if err != nil {
		return "", err
	}
	opts, err := config.Resolve(config.DefaultRepo, layers...)
	if err != nil {
		return "", err
	}
	if opts.Record == "" {
		return "", errors.New("no run log given and no record path configured")
	}
	return opts.Record, nil
}

func writeHistory(w io.Writer, records []audit.RunRecord) error {
	if len(records) == 0 {
		_, err := fmt.Fprintln(w, "No runs recorded.")
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "WHEN\tRANGE\tFILES\tOFFENSES\tFAILED\tRESULT")
	for _, r := range records {
		result := "pass"
		if !r.Success {
			result = "fail"
		}
		fmt.Fprintf(tw, "%s\t%s..%s\t%d\t%d\t%d\t%s\n",
			r.Timestamp.Local().Format(time.DateTime),
			revName(r.Base, r.BaseCommit), revName(r.Tip, r.TipCommit),
			r.FilesLinted, r.Offenses, r.Failed, result)
	}
	return tw.Flush()
}

// revName prefers the abbreviated commit over the name the user typed.
func revName(name, commit string) string {
	if len(commit) >= 7 {
		return commit[:7]
	}
	return name
}
