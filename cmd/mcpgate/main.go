package main

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"
)

func newApp() *cli.Command {
	return &cli.Command{
		Name:    "mcpgate",
		Version: Version,
		Usage:   "HTTP backend that runs MCP tool-using agent sessions",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "env-file",
				Usage: "Dotenv file read before the environment (missing file is ignored)",
				Value: ".env",
			},
			&cli.StringFlag{
				Name:    "settings",
				Aliases: []string{"s"},
				Usage:   "Optional TOML settings file",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "Override the log level (trace, debug, info, warn, error)",
			},
			&cli.StringFlag{
				Name:  "log-format",
				Usage: "Override the log format (text, json)",
			},
			&cli.StringFlag{
				Name:  "log-output",
				Usage: "Log destination: stderr, stdout, or a file path",
				Value: "stderr",
			},
		},
		Before: setup,
		After:  teardown,
		Commands: []*cli.Command{
			serverCmd,
			runCmd,
			validateCmd,
			versionCmd,
		},
	}
}

func main() {
	if err := newApp().Run(context.Background(), os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
