package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/caretaker-tools/caretaker/pkg/config"
	"github.com/caretaker-tools/caretaker/pkg/migrator"
	"github.com/caretaker-tools/caretaker/pkg/postgres"
	"github.com/caretaker-tools/caretaker/pkg/prompt"
	"github.com/caretaker-tools/caretaker/pkg/search"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v3"
)

// db returns the `db` command tree. Console, dump and restore delegate to
// external PostgreSQL tools and therefore never create a connection pool;
// every other subcommand connects one pool and works through it.
func db(release bool) *cli.Command {
	return &cli.Command{
		Name:  "db",
		Usage: "Database administration commands",
		Before: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			cfg, err := config.LoadFile(cmd.String("config"))
			if err != nil {
				return ctx, err
			}

			currentConfig = cfg
			return ctx, nil
		},
		Commands: []*cli.Command{
			dbClear(release),
			dbScript(),
			dbMigrate(),
			dbConsole(),
			dbDump(),
			dbRestore(),
			dbReset(release),
			dbUnsafeOverwriteMigrations(),
		},
	}
}

// yesFlag opts out of the interactive confirmation on destructive paths.
func yesFlag() cli.Flag {
	return &cli.BoolFlag{
		Name:  "yes",
		Usage: `skip the "Are you sure?" question`,
	}
}

// dbClear returns the command that removes all data, tables and types
// from the database and clears the search index.
func dbClear(release bool) *cli.Command {
	return &cli.Command{
		Name:  "clear",
		Usage: "Remove all data and tables from the database and clear the search index",
		Description: `Drops the entire 'public' schema (cascading), recreates it empty, and
clears the application's search indexes. Without --yes this shows the
current table inventory and asks for confirmation first.`,
		Flags: []cli.Flag{yesFlag()},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			client, err := postgres.Connect(ctx, &currentConfig.Database)
			if err != nil {
				return err
			}
			defer client.Close()

			cleared, err := runClear(ctx, client, cmd.Bool("yes"), release)
			if err != nil {
				return err
			}
			if !cleared {
				fmt.Println("Aborted, nothing was changed.")
			}

			return nil
		},
	}
}

// dbScript returns the command that runs an .sql script file with the
// configured database connection.
func dbScript() *cli.Command {
	return &cli.Command{
		Name:      "script",
		Usage:     "Run an .sql script with the configured database connection",
		ArgsUsage: "<path>",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			path := cmd.Args().First()
			if path == "" {
				return errors.New("missing required argument: <path>")
			}

			client, err := postgres.Connect(ctx, &currentConfig.Database)
			if err != nil {
				return err
			}
			defer client.Close()

			return client.RunScript(ctx, path)
		},
	}
}

// dbMigrate returns the command that applies pending migrations. These
// are the same migrations the application server applies on startup.
func dbMigrate() *cli.Command {
	return &cli.Command{
		Name:  "migrate",
		Usage: "Apply pending database migrations",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			client, err := postgres.Connect(ctx, &currentConfig.Database)
			if err != nil {
				return err
			}
			defer client.Close()

			return runMigrate(ctx, client)
		},
	}
}

// dbConsole returns the command that starts an interactive psql session.
func dbConsole() *cli.Command {
	return &cli.Command{
		Name:  "console",
		Usage: "Connect to the database and get an SQL prompt (requires psql in your PATH)",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return delegate(postgres.Console(&currentConfig.Database))
		},
	}
}

// dbDump returns the command that writes a pg_dump of the database.
func dbDump() *cli.Command {
	return &cli.Command{
		Name:      "dump",
		Usage:     "Dump the current state of the database for later `db restore`",
		ArgsUsage: "<path>",
		Description: `Uses your local copy of pg_dump, which must be compatible with the
database server. Dumping is safe while the application is running and
still yields a consistent snapshot.`,
		Action: func(ctx context.Context, cmd *cli.Command) error {
			path := cmd.Args().First()
			if path == "" {
				return errors.New("missing required argument: <path>")
			}

			return delegate(postgres.Dump(&currentConfig.Database, path))
		},
	}
}

// dbRestore returns the command that restores the database from a dump.
func dbRestore() *cli.Command {
	return &cli.Command{
		Name:      "restore",
		Usage:     "Restore the database from a dump created by `db dump`",
		ArgsUsage: "<path>",
		Description: `Uses your local copy of pg_restore, which must be compatible with the
database server and with the pg_dump that created the dump.

This drops the entire database before restoring, so a failed restoration
loses data. It also cannot run while any connections to the database
exist, e.g. while the application is running.`,
		Action: func(ctx context.Context, cmd *cli.Command) error {
			path := cmd.Args().First()
			if path == "" {
				return errors.New("missing required argument: <path>")
			}

			return delegate(postgres.Restore(&currentConfig.Database, path))
		},
	}
}

// dbReset returns the command equivalent to `db clear` followed by
// `db migrate`. A declined confirmation aborts the whole reset; migrate
// does not run against a database the operator chose not to clear.
func dbReset(release bool) *cli.Command {
	return &cli.Command{
		Name:  "reset",
		Usage: "Clear the database, then apply all migrations",
		Flags: []cli.Flag{yesFlag()},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			client, err := postgres.Connect(ctx, &currentConfig.Database)
			if err != nil {
				return err
			}
			defer client.Close()

			cleared, err := runClear(ctx, client, cmd.Bool("yes"), release)
			if err != nil {
				return err
			}
			if !cleared {
				fmt.Println("Aborted, nothing was changed.")
				return nil
			}

			return runMigrate(ctx, client)
		},
	}
}

// dbUnsafeOverwriteMigrations returns the developer-only escape hatch
// that forces the __migrations table to match this binary's migration
// set.
func dbUnsafeOverwriteMigrations() *cli.Command {
	return &cli.Command{
		Name:  "unsafe-overwrite-migrations",
		Usage: "Force the __migrations table to match this binary's migration scripts",
		Description: `Updates recorded migration scripts to the ones embedded in this binary
and deletes recorded migrations unknown to it. Never adds new entries.
This is intended for developers only; do not use it if you don't know
what you're doing.`,
		Action: func(ctx context.Context, cmd *cli.Command) error {
			client, err := postgres.Connect(ctx, &currentConfig.Database)
			if err != nil {
				return err
			}
			defer client.Close()

			return migrator.Overwrite(ctx, client.Pool())
		},
	}
}

// runClear performs the schema wipe and, once it committed, the search
// index clear. Returns whether the database was actually cleared.
func runClear(ctx context.Context, client *postgres.Client, skipConfirmation, release bool) (bool, error) {
	cleared, err := client.Clear(ctx, postgres.ClearConfig{
		Database: &currentConfig.Database,
		Confirm:  prompt.New(os.Stdin),
		Out:      os.Stdout,
		Release:  release,
	}, skipConfirmation)
	if err != nil || !cleared {
		return cleared, err
	}

	// The schema wipe is committed at this point. The index lives in a
	// different system and cannot share the transaction; a failure here
	// is a partial-success state that can only be reported.
	sc, err := search.Connect(&currentConfig.Search)
	if err != nil {
		return true, errors.Wrap(err, "the database was cleared, but connecting to "+
			"Meilisearch failed (search index state unknown)")
	}

	n, err := sc.Clear(ctx)
	if err != nil {
		return true, errors.Wrap(err, "the database was cleared, but clearing the "+
			"search index failed (search index state unknown)")
	}

	slog.Info("Cleared search index", "indexes", n)
	return true, nil
}

// runMigrate applies pending migrations over the client's pool.
func runMigrate(ctx context.Context, client *postgres.Client) error {
	applied, err := migrator.Migrate(ctx, client.Pool())
	if err != nil {
		return err
	}

	if applied == 0 {
		fmt.Println("All migrations are up to date.")
	} else {
		fmt.Printf("Applied %d migration(s).\n", applied)
	}

	return nil
}

// delegate translates an external tool's exit code into our own process
// exit code, preserving the "control transfers fully" contract.
func delegate(code int, err error) error {
	if err != nil {
		return err
	}
	if code != 0 {
		return cli.Exit("", code)
	}

	return nil
}
