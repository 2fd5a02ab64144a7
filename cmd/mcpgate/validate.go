package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/atlanticdynamic/mcpgate/internal/fancy"
	"github.com/atlanticdynamic/mcpgate/internal/interpolation"
	"github.com/atlanticdynamic/mcpgate/internal/mcpconfig"
	"github.com/urfave/cli/v3"
)

var validateCmd = &cli.Command{
	Name:      "validate",
	Aliases:   []string{"lint"},
	Usage:     "Validate MCP configuration files",
	ArgsUsage: "FILE [FILE...]",
	Flags: []cli.Flag{
		&cli.BoolFlag{
			Name:    "tree",
			Aliases: []string{"t"},
			Usage:   "Show a tree of the configured servers",
		},
		&cli.BoolFlag{
			Name:  "skip-env",
			Usage: "Do not check that ${NAME} placeholders resolve",
		},
	},
	Action: validateAction,
}

// validationResult is the outcome for one file.
type validationResult struct {
	Path    string
	Valid   bool
	Error   error
	Servers []mcpconfig.Server
	// Placeholder is the path of the first unresolved ${NAME} when the
	// environment check was skipped.
	Placeholder string
}

func validateAction(ctx context.Context, cmd *cli.Command) error {
	if cmd.Args().Len() < 1 {
		return cli.Exit("config file path required", 1)
	}

	lookup := interpolation.OSLookup
	if s, err := loadedSettings(ctx); err == nil {
		lookup = s.Lookup
	}
	if cmd.Bool("skip-env") {
		lookup = nil
	}

	results := validateFiles(cmd.Args().Slice(), lookup)
	w := stdout(cmd)
	if err := printResults(w, results, cmd.Bool("tree")); err != nil {
		return err
	}

	var failed []string
	for _, r := range results {
		if !r.Valid {
			failed = append(failed, r.Path)
		}
	}
	if len(failed) > 0 {
		return cli.Exit(fmt.Sprintf("validation failed: %s", strings.Join(failed, ", ")), 1)
	}
	return nil
}

// validateFiles loads each file and checks it. A nil lookup skips the
// placeholder check.
func validateFiles(paths []string, lookup interpolation.Lookup) []validationResult {
	results := make([]validationResult, 0, len(paths))
	for _, path := range paths {
		servers, placeholder, err := validateFile(path, lookup)
		results = append(results, validationResult{
			Path:        path,
			Valid:       err == nil,
			Error:       err,
			Servers:     servers,
			Placeholder: placeholder,
		})
	}
	return results
}

func validateFile(path string, lookup interpolation.Lookup) ([]mcpconfig.Server, string, error) {
	cfg, err := mcpconfig.Load(path)
	if err != nil {
		return nil, "", err
	}
	if err := cfg.Validate(); err != nil {
		return nil, "", err
	}

	var placeholder string
	if lookup != nil {
		if _, err := cfg.Materialize(lookup); err != nil {
			return nil, "", err
		}
	} else {
		placeholder = interpolation.Residual(map[string]any(cfg))
	}

	// servers are decoded from the raw document so the tree shows
	// placeholders instead of resolved secrets
	servers, err := cfg.Servers()
	return servers, placeholder, err
}

func printResults(w io.Writer, results []validationResult, tree bool) error {
	var errs []error
	write := func(format string, args ...any) {
		_, err := fmt.Fprintf(w, format, args...)
		errs = append(errs, err)
	}

	for _, r := range results {
		if !r.Valid {
			write("%s %s: %v\n", fancy.ErrorText("✗"), fancy.PathText(r.Path), r.Error)
			continue
		}
		write("%s Configuration file %s is valid\n", fancy.ValidText("✓"), fancy.PathText(r.Path))
		if r.Placeholder != "" {
			write("  Unchecked placeholder at %s\n", r.Placeholder)
		}
		if tree {
			write("%s\n", fancy.ServersTree(r.Path, r.Servers))
			continue
		}
		names := make([]string, len(r.Servers))
		for i, srv := range r.Servers {
			names[i] = srv.Name
		}
		write("  Servers (%d): %s\n", len(names), strings.Join(names, ", "))
	}
	return errors.Join(errs...)
}
