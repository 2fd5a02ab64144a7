package main

import (
	"context"
	"fmt"
	"runtime"

	"github.com/urfave/cli/v3"
)

// Version is set at build time with -ldflags "-X main.Version=...".
var Version = "dev"

var versionCmd = &cli.Command{
	Name:  "version",
	Usage: "Print the version information",
	Flags: []cli.Flag{
		&cli.BoolFlag{Name: "short", Usage: "Print only the version number"},
	},
	Action: func(ctx context.Context, cmd *cli.Command) error {
		w := stdout(cmd)
		if cmd.Bool("short") {
			_, err := fmt.Fprintln(w, cmd.Root().Version)
			return err
		}
		_, err := fmt.Fprintf(w, "mcpgate version %s (%s %s/%s)\n",
			cmd.Root().Version, runtime.Version(), runtime.GOOS, runtime.GOARCH)
		return err
	},
}
