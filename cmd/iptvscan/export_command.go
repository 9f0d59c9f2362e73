package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/iptvscan/iptvscan/internal/catalog"
	"github.com/iptvscan/iptvscan/internal/export"
)

func newExportCommand(c *commandContext) *cobra.Command {
	var (
		output   string
		group    string
		language string
		query    string
	)

	cmd := &cobra.Command{
		Use:       "export {channels|guide}",
		Short:     "Write a store as CSV",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"channels", "guide"},
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if output != "" {
				f, err := os.Create(output)
				if err != nil {
					return fmt.Errorf("create %s: %w", output, err)
				}
				defer f.Close()
				out = f
			}

			switch args[0] {
			case "channels":
				store := catalog.NewChannelStore()
				if err := store.Load(c.cfg.ChannelsPath()); err != nil {
					return fmt.Errorf("load channel store: %w", err)
				}
				channels := store.Snapshot()
				if group != "" || language != "" {
					channels = catalog.FilterChannels(channels, group, language)
				}
				if query != "" {
					channels = catalog.SearchChannels(channels, query)
				}
				return export.Channels(out, channels)
			case "guide":
				snap := catalog.NewGuideSnapshot()
				if err := snap.Load(c.cfg.GuidePath()); err != nil {
					return fmt.Errorf("load guide store: %w", err)
				}
				return export.Guide(out, snap)
			default:
				return fmt.Errorf("unknown store %q", args[0])
			}
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Write CSV to a file instead of stdout")
	cmd.Flags().StringVar(&group, "group", "", "Only channels whose group contains this text")
	cmd.Flags().StringVar(&language, "language", "", "Only channels whose language contains this text")
	cmd.Flags().StringVarP(&query, "query", "q", "", "Only channels whose name or id contains this text")
	return cmd
}
