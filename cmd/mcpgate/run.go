package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/atlanticdynamic/mcpgate/cmd/mcpgate/server"
	"github.com/atlanticdynamic/mcpgate/internal/lifecycle"
	"github.com/atlanticdynamic/mcpgate/internal/mcpconfig"
	"github.com/atlanticdynamic/mcpgate/internal/settings"
	"github.com/urfave/cli/v3"
)

// DefaultPrompt is asked when run gets no --prompt.
const DefaultPrompt = "What tools do you have from MCP?"

var runCmd = &cli.Command{
	Name:  "run",
	Usage: "Activate a session from a config file, ask one question and print the answer",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:     "config",
			Aliases:  []string{"c"},
			Usage:    "MCP configuration file (.json, .jsonc, .toml, .yaml)",
			Required: true,
		},
		&cli.StringFlag{
			Name:    "prompt",
			Aliases: []string{"p"},
			Usage:   "Question for the agent",
			Value:   DefaultPrompt,
		},
	},
	Action: func(ctx context.Context, cmd *cli.Command) error {
		s, err := loadedSettings(ctx)
		if err != nil {
			return cli.Exit(err, 1)
		}
		answer, err := runOnce(ctx, s, cmd.String("config"), cmd.String("prompt"))
		if err != nil {
			return cli.Exit(err, 1)
		}
		_, err = fmt.Fprintln(stdout(cmd), answer)
		return err
	},
}

// runOnce activates a throwaway session, queries it and closes it again.
func runOnce(
	ctx context.Context,
	s *settings.Settings,
	configPath, prompt string,
	opts ...lifecycle.Option,
) (answer string, err error) {
	cfg, err := mcpconfig.Load(configPath)
	if err != nil {
		return "", err
	}

	manager := server.NewManager(s, slog.Default().Handler(), opts...)
	defer func() {
		err = errors.Join(err, manager.Shutdown(context.WithoutCancel(ctx)))
	}()

	result, err := manager.Activate(ctx, cfg, "")
	if err != nil {
		return "", fmt.Errorf("activation failed: %w", err)
	}
	slog.Info(result.Message, "session", result.SessionID, "servers", result.Servers)

	answer, err = manager.Query(ctx, result.SessionID, prompt)
	if err != nil {
		return "", fmt.Errorf("query failed: %w", err)
	}
	return answer, nil
}
