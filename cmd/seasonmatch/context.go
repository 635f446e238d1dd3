package main

import (
	"context"
	"strings"

	"github.com/spf13/cobra"

	service "github.com/okian/seasonmatch/internal/app"
	"github.com/okian/seasonmatch/internal/config"
	"github.com/okian/seasonmatch/pkg/logger"
)

type commandContext struct {
	configFlag   *string
	snapshotFlag *string
	jsonFlag     *bool

	svc *service.Service
}

func newCommandContext(configFlag, snapshotFlag *string, jsonFlag *bool) *commandContext {
	return &commandContext{
		configFlag:   configFlag,
		snapshotFlag: snapshotFlag,
		jsonFlag:     jsonFlag,
	}
}

func (c *commandContext) json() bool {
	return c.jsonFlag != nil && *c.jsonFlag
}

func (c *commandContext) loadConfig(ctx context.Context) (*config.Config, error) {
	var path string
	if c.configFlag != nil {
		path = strings.TrimSpace(*c.configFlag)
	}
	if path == "" {
		return config.Load(ctx)
	}
	return config.LoadWithFile(ctx, path)
}

// service loads the configuration, sets up logging on stderr and starts
// the similarity service. It is started once per invocation.
func (c *commandContext) service(cmd *cobra.Command) (*service.Service, error) {
	if c.svc != nil {
		return c.svc, nil
	}
	ctx := cmd.Context()
	cfg, err := c.loadConfig(ctx)
	if err != nil {
		return nil, err
	}
	if c.snapshotFlag != nil && strings.TrimSpace(*c.snapshotFlag) != "" {
		cfg.SnapshotPath = strings.TrimSpace(*c.snapshotFlag)
	}

	if err := logger.Init(logger.WithOutput(cmd.ErrOrStderr()), logger.WithFormat(cfg.LogFormat)); err != nil {
		return nil, err
	}
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		_ = logger.SetLevelString("info")
	}

	svc := service.New(service.WithConfig(cfg), service.WithLogger(logger.Named("cli")))
	if err := svc.Start(ctx); err != nil {
		return nil, err
	}
	c.svc = svc
	return svc, nil
}

func (c *commandContext) close() {
	if c.svc != nil {
		c.svc.Stop()
		c.svc = nil
	}
}
