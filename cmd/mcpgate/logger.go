package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/atlanticdynamic/mcpgate/internal/logging"
	"github.com/atlanticdynamic/mcpgate/internal/settings"
	"github.com/urfave/cli/v3"
)

type stateKey struct{}

// state is what the root Before hook hands to subcommands.
type state struct {
	settings    *settings.Settings
	settingsErr error
	output      io.Closer
}

// setup loads settings and installs the default logger. A settings error is
// kept for the commands that need settings rather than failing every
// command, so "version" keeps working with a broken environment.
func setup(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	st := &state{}
	st.settings, st.settingsErr = settings.Load(
		settings.WithEnvFile(cmd.String("env-file")),
		settings.WithSettingsFile(cmd.String("settings")),
		settings.WithServerOptional(),
	)

	level, format := string(settings.LogLevelInfo), string(settings.LogFormatText)
	if st.settings != nil {
		level, format = st.settings.LogLevel.String(), st.settings.LogFormat.String()
	}
	if v := cmd.String("log-level"); v != "" {
		level = v
	}
	if v := cmd.String("log-format"); v != "" {
		format = v
	}

	output, err := logging.OpenOutput(cmd.String("log-output"))
	if err != nil {
		return ctx, cli.Exit(err, 1)
	}
	handler, err := logging.NewHandler(format, level, output)
	if err != nil {
		return ctx, cli.Exit(errors.Join(err, output.Close()), 1)
	}
	slog.SetDefault(slog.New(handler))
	st.output = output

	return context.WithValue(ctx, stateKey{}, st), nil
}

func teardown(ctx context.Context, _ *cli.Command) error {
	st, ok := ctx.Value(stateKey{}).(*state)
	if !ok || st.output == nil {
		return nil
	}
	return st.output.Close()
}

// loadedSettings returns the settings resolved by setup.
func loadedSettings(ctx context.Context) (*settings.Settings, error) {
	st, ok := ctx.Value(stateKey{}).(*state)
	if !ok {
		return nil, errors.New("settings were not loaded")
	}
	if st.settingsErr != nil {
		return nil, fmt.Errorf("failed to load settings: %w", st.settingsErr)
	}
	return st.settings, nil
}

// stdout is the command's output writer.
func stdout(cmd *cli.Command) io.Writer {
	if w := cmd.Root().Writer; w != nil {
		return w
	}
	return os.Stdout
}
