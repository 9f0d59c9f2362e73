package main

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/iptvscan/iptvscan/internal/netclass"
)

func newValidateCommand(c *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Check every configured URL and record liveness",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signalContext()
			defer cancel()
			if err := c.pipe.Lock(); err != nil {
				return err
			}
			defer c.pipe.Unlock()

			summary, err := c.pipe.Validate(ctx)
			if err != nil {
				return err
			}

			rows := [][]string{
				{"total", strconv.Itoa(summary.Total)},
				{"alive", strconv.Itoa(summary.Alive)},
				{"dead", strconv.Itoa(summary.Dead)},
			}
			kinds := make([]string, 0, len(summary.ErrorKinds))
			for k := range summary.ErrorKinds {
				kinds = append(kinds, string(k))
			}
			sort.Strings(kinds)
			for _, k := range kinds {
				rows = append(rows, []string{"  " + k, strconv.Itoa(summary.ErrorKinds[netclass.Kind(k)])})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"Metric", "Count"}, rows))
			return nil
		},
	}
}

func newChannelsCommand(c *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "channels",
		Short: "Extract channel metadata from the configured playlists",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signalContext()
			defer cancel()
			if err := c.pipe.Lock(); err != nil {
				return err
			}
			defer c.pipe.Unlock()

			count, err := c.pipe.ExtractChannels(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Extracted %d channels to %s\n", count, c.cfg.ChannelsPath())
			return nil
		},
	}
}

func newGuideCommand(c *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "guide",
		Short: "Extract guide entries from the configured EPG sources",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signalContext()
			defer cancel()
			if err := c.pipe.Lock(); err != nil {
				return err
			}
			defer c.pipe.Unlock()

			snap, err := c.pipe.ExtractGuide(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Extracted %d guide entries from %d sources to %s\n",
				snap.EntryCount(), snap.SourceCount(), c.cfg.GuidePath())
			return nil
		},
	}
}

func newMatchCommand(c *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "match",
		Short: "Annotate channels with fuzzy-matched guide entries",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signalContext()
			defer cancel()
			if err := c.pipe.Lock(); err != nil {
				return err
			}
			defer c.pipe.Unlock()

			matched, err := c.pipe.Match(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Matched %d channels (threshold %.2f)\n", matched, c.cfg.Match.Threshold)
			return nil
		},
	}
}

func newAuditCommand(c *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "audit",
		Short: "Run integrity diagnostics over the stored guide data",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signalContext()
			defer cancel()

			report, err := c.pipe.Audit(ctx)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, renderTable([]string{"Check", "Count"}, [][]string{
				{"sources", strconv.Itoa(report.TotalSources)},
				{"empty sources", strconv.Itoa(len(report.EmptySources))},
				{"null entries", strconv.Itoa(len(report.NullEntries))},
				{"duplicate ids", strconv.Itoa(len(report.DuplicateIDs))},
			}))
			for _, src := range report.EmptySources {
				fmt.Fprintf(out, "empty source: %s\n", src)
			}
			for _, n := range report.NullEntries {
				fmt.Fprintf(out, "null entry: %s #%d\n", n.SourceURL, n.Index)
			}
			for _, d := range report.DuplicateIDs {
				fmt.Fprintf(out, "duplicate id %q in %s\n", d.ID, d.SourceURL)
			}
			if report.Clean() {
				fmt.Fprintln(out, "Guide data is clean.")
			}
			return nil
		},
	}
}

func newDedupeCommand(c *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "dedupe",
		Short: "Collapse channels sharing an identifier",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signalContext()
			defer cancel()
			if err := c.pipe.Lock(); err != nil {
				return err
			}
			defer c.pipe.Unlock()

			before, after, err := c.pipe.Dedupe(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %d duplicates, %d channels remain\n", before-after, after)
			return nil
		},
	}
}

func newRunCommand(c *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run the full pipeline: validate, extract, match",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signalContext()
			defer cancel()
			if err := c.pipe.Lock(); err != nil {
				return err
			}
			defer c.pipe.Unlock()

			res, err := c.pipe.Run(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"Stage", "Result"}, [][]string{
				{"urls alive", strconv.Itoa(res.Validation.Alive)},
				{"urls dead", strconv.Itoa(res.Validation.Dead)},
				{"channels", strconv.Itoa(res.Channels)},
				{"guide entries", strconv.Itoa(res.Guide)},
				{"matched", strconv.Itoa(res.Matched)},
			}))
			return nil
		},
	}
}
