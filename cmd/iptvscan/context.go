package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"

	"github.com/iptvscan/iptvscan/internal/config"
	"github.com/iptvscan/iptvscan/internal/logging"
	"github.com/iptvscan/iptvscan/internal/metrics"
	"github.com/iptvscan/iptvscan/internal/pipeline"
)

// commandContext lazily loads config and wires the pipeline once, shared by
// every subcommand.
type commandContext struct {
	configFlag *string

	cfg  *config.Config
	log  zerolog.Logger
	pipe *pipeline.Pipeline
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) ensure() error {
	if c.cfg != nil {
		return nil
	}
	cfg, err := config.Load(*c.configFlag)
	if err != nil {
		return err
	}
	c.cfg = cfg
	c.log = logging.New(cfg.Log.Level, cfg.Log.JSON)
	c.pipe = pipeline.New(cfg, c.log, metrics.NewProvider())
	return nil
}

// signalContext returns a context cancelled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}
