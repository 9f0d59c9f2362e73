package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/iptvscan/iptvscan/internal/history"
)

func newHistoryCommand(c *commandContext) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history [url]",
		Short: "Show recorded validation runs, or one URL's attempt history",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signalContext()
			defer cancel()

			store, err := history.Open(c.cfg.HistoryDBPath())
			if err != nil {
				return err
			}
			defer store.Close()

			out := cmd.OutOrStdout()
			if len(args) == 1 {
				records, err := store.HistoryForURL(ctx, args[0])
				if err != nil {
					return err
				}
				if len(records) == 0 {
					fmt.Fprintf(out, "No history for %s\n", args[0])
					return nil
				}
				rows := make([][]string, 0, len(records))
				for _, rec := range records {
					result := "ok"
					if !rec.OK {
						result = rec.ErrorKind
					}
					rows = append(rows, []string{
						rec.Timestamp.Local().Format(time.RFC3339),
						result,
						strconv.FormatInt(rec.ResponseTimeMs, 10),
						rec.ErrorMessage,
					})
				}
				fmt.Fprintln(out, renderTable([]string{"Checked", "Result", "Ms", "Detail"}, rows))
				return nil
			}

			runs, err := store.Runs(ctx, limit)
			if err != nil {
				return err
			}
			rows := make([][]string, 0, len(runs))
			for _, run := range runs {
				finished := "running"
				if run.FinishedAt != nil {
					finished = run.FinishedAt.Local().Format(time.RFC3339)
				}
				rows = append(rows, []string{
					run.ID,
					run.StartedAt.Local().Format(time.RFC3339),
					finished,
					strconv.Itoa(run.Total),
					strconv.Itoa(run.Alive),
					strconv.Itoa(run.Dead),
				})
			}
			fmt.Fprintln(out, renderTable([]string{"Run", "Started", "Finished", "Total", "Alive", "Dead"}, rows))
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum runs to list")
	return cmd
}
