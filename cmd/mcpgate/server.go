package main

import (
	"context"
	"log/slog"

	"github.com/atlanticdynamic/mcpgate/cmd/mcpgate/server"
	"github.com/urfave/cli/v3"
)

var serverCmd = &cli.Command{
	Name:  "server",
	Usage: "Start the MCP backend HTTP service",
	Action: func(ctx context.Context, cmd *cli.Command) error {
		s, err := loadedSettings(ctx)
		if err != nil {
			return cli.Exit(err, 1)
		}
		if err := server.Run(ctx, slog.Default(), s); err != nil {
			return cli.Exit(err, 1)
		}
		return nil
	},
}
