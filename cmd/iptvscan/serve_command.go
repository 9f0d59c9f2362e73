package main

import (
	"github.com/spf13/cobra"

	"github.com/iptvscan/iptvscan/internal/dashboard"
	"github.com/iptvscan/iptvscan/internal/metrics"
)

func newServeCommand(c *commandContext) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the local dashboard over the stored artifacts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signalContext()
			defer cancel()

			if addr != "" {
				c.cfg.Dashboard.Addr = addr
			}
			srv := dashboard.NewServer(c.cfg, c.log, metrics.NewProvider())
			return srv.Run(ctx)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (overrides config)")
	return cmd
}
