package cmd

import (
	"fmt"
	"time"

	"github.com/KaramelBytes/aqireport/internal/runlog"
	"github.com/spf13/cobra"
)

var (
	runsLimit int
	runsDir   string
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List recorded report runs, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		dir := firstNonEmpty(runsDir, effectiveConfig().RunsDir)
		if dir == "" {
			return fmt.Errorf("runs_dir is not configured")
		}
		runs, err := runlog.List(dir)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if len(runs) == 0 {
			fmt.Fprintln(out, "(no runs)")
			return nil
		}
		if runsLimit > 0 && len(runs) > runsLimit {
			runs = runs[:runsLimit]
		}
		for _, r := range runs {
			status := "ok"
			if !r.Succeeded() {
				status = "failed: " + r.Error
			}
			fmt.Fprintf(out, "- %s  %s  %s -> %s  rows=%d dropped=%d pages=%d  %s  [%s]\n",
				r.ID, r.StartedAt.Format(time.RFC3339), r.Input, r.Output,
				r.Retained, r.Dropped, r.Pages, r.Duration().Round(time.Millisecond), status)
		}
		return nil
	},
}

var runsShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Print the manifest of one run",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dir := firstNonEmpty(runsDir, effectiveConfig().RunsDir)
		r, err := runlog.Load(dir, args[0])
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "id: %s\ninput: %s\noutput: %s\n", r.ID, r.Input, r.Output)
		fmt.Fprintf(out, "started: %s\nfinished: %s\n", r.StartedAt.Format(time.RFC3339), r.FinishedAt.Format(time.RFC3339))
		fmt.Fprintf(out, "rows: %d read, %d dropped, %d retained\n", r.RawRows, r.Dropped, r.Retained)
		fmt.Fprintf(out, "charts: %v\npages: %d\n", r.Charts, r.Pages)
		if r.Error != "" {
			fmt.Fprintf(out, "error: %s\n", r.Error)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(runsCmd)
	runsCmd.AddCommand(runsShowCmd)
	runsCmd.PersistentFlags().IntVarP(&runsLimit, "limit", "n", 0, "show at most n runs")
	runsCmd.PersistentFlags().StringVar(&runsDir, "dir", "", "runs directory (overrides runs_dir)")
}
