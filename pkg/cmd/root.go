package cmd

import (
	"context"

	"github.com/caretaker-tools/caretaker/pkg/config"
	"github.com/urfave/cli/v3"
)

var currentConfig *config.Config

// Run creates and executes the main caretaker CLI application with the
// given version and command-line arguments.
//
// Global Flags:
//   - --config, -c: the caretaker config file (env: CARETAKER_CONFIG)
//
// The config file is loaded lazily by the commands that need it, so
// `caretaker --help` works without one.
func Run(ctx context.Context, version string, args []string) error {
	app := &cli.Command{
		Name:  "caretaker",
		Usage: "Administers the application's PostgreSQL database and search index",
		Description: `caretaker is the administrative companion to the application server. It
bundles the destructive and semi-destructive database operations (full
wipe, ad-hoc scripts, migrations, dump/restore, an SQL console) behind
one command surface with interactive safety checks.`,
		Version: version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "the caretaker config file",
				Sources: cli.EnvVars("CARETAKER_CONFIG"),
				Value:   "caretaker.yaml",
			},
		},
		Commands: []*cli.Command{
			db(isRelease(version)),
		},
	}

	return app.Run(ctx, args)
}

// isRelease reports whether this binary is a release build. Release
// builds get their version set by GoReleaser; dev builds carry an empty
// or "dev" version and skip the production warning on destructive paths.
func isRelease(version string) bool {
	return version != "" && version != "dev"
}
