package main

import (
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"payloadseed/internal/logs"
)

func newLogsCommand(ctx *commandContext) *cobra.Command {
	var (
		runID  string
		lines  int
		follow bool
		raw    bool
		filter logs.Filter
	)

	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Show a seeding run's JSON log",
		Long: `Show the per-run JSON log written under log_dir/runs. Without --run the
newest run is shown. Lines are rendered for the console unless --raw is set.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			path, err := logs.Resolve(cfg.Paths.LogDir, runID)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			emit := func(line string) {
				if raw {
					fmt.Fprintln(out, line)
					return
				}
				rec, err := logs.ParseRecord(line)
				if err != nil {
					fmt.Fprintln(out, line)
					return
				}
				if filter.Match(rec) {
					fmt.Fprintln(out, rec.Format())
				}
			}

			tail, offset, err := logs.Last(path, lines)
			if err != nil {
				return err
			}
			for _, line := range tail {
				emit(line)
			}
			if !follow {
				return nil
			}

			followCtx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return logs.Follow(followCtx, path, offset, 250*time.Millisecond, emit)
		},
	}

	cmd.Flags().StringVar(&runID, "run", "", "Run ID to show (default newest)")
	cmd.Flags().IntVarP(&lines, "lines", "n", 50, "Number of trailing lines (0 for all)")
	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "Keep printing new lines")
	cmd.Flags().BoolVar(&raw, "raw", false, "Print JSON lines unchanged")
	cmd.Flags().StringVar(&filter.MinLevel, "level", "", "Minimum level (debug, info, warn, error)")
	cmd.Flags().StringVar(&filter.Stage, "stage", "", "Only lines for this stage (media, entities)")
	cmd.Flags().StringVar(&filter.EventType, "event", "", "Only lines with this event_type")

	cmd.AddCommand(newLogsListCommand(ctx))
	return cmd
}

func newLogsListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List run logs, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			runs, err := logs.ListRuns(cfg.Paths.LogDir)
			if err != nil {
				return err
			}
			if ctx.JSONMode() {
				if runs == nil {
					runs = []logs.RunLog{}
				}
				return writeJSON(cmd, runs)
			}
			out := cmd.OutOrStdout()
			if len(runs) == 0 {
				fmt.Fprintln(out, "No run logs found")
				return nil
			}
			rows := make([][]string, 0, len(runs))
			for _, run := range runs {
				rows = append(rows, []string{
					run.RunID,
					run.ModTime.Local().Format("2006-01-02 15:04"),
					humanize.IBytes(uint64(run.Size)),
				})
			}
			fmt.Fprint(out, renderTable(
				[]string{"Run", "Last write", "Size"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignRight},
			))
			fmt.Fprintf(out, "\n%d run logs\n", len(runs))
			return nil
		},
	}
}
