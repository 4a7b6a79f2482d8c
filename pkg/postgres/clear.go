package postgres

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/caretaker-tools/caretaker/pkg/config"
	"github.com/caretaker-tools/caretaker/pkg/prompt"
	"github.com/jackc/pgx/v5"
	"github.com/pkg/errors"
)

// ClearConfig contains the collaborators and settings for Clear.
type ClearConfig struct {
	// Database settings, used for the banner and the grant statement
	Database *config.Database

	// Confirm is the interactive gate. Ignored when confirmation is skipped.
	Confirm prompt.Confirmer

	// Out receives the operator-facing banner and prompt text
	Out io.Writer

	// Release enables the stronger production warning before the prompt
	Release bool
}

// Clear irreversibly removes all data, tables and types from the database
// by dropping and recreating the public schema.
//
// The whole operation runs in one serializable transaction: the table
// inventory shown to the operator and the destructive statements observe a
// single consistent view, and any failure before commit leaves the
// database unchanged. The returned bool reports whether the clear actually
// happened; a declined confirmation returns (false, nil) with zero side
// effects.
//
// Clearing the search index is NOT part of this method. It lives in a
// different system and cannot share the transaction; callers run it after
// a successful Clear and report its failure as a partial-success state.
func (c *Client) Clear(ctx context.Context, cc ClearConfig, skipConfirmation bool) (bool, error) {
	tx, err := c.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.Serializable})
	if err != nil {
		return false, errors.Wrap(err, "failed to begin clear transaction")
	}
	// No-op once the transaction is committed.
	defer func() { _ = tx.Rollback(ctx) }()

	slog.Warn("You are about to delete all existing data, tables and types " +
		"in the 'public' schema of the database!")

	tables, err := TableInventory(ctx, tx)
	if err != nil {
		return false, errors.Wrap(err, "failed to read table inventory")
	}

	hostname, _ := os.Hostname()
	RenderInventory(cc.Out, hostname, cc.Database.Host, cc.Database.Database, tables)

	if !skipConfirmation {
		if cc.Release {
			fmt.Fprintln(cc.Out)
			fmt.Fprintln(cc.Out, "⚠️ ⚠️ ⚠️")
			fmt.Fprintln(cc.Out, "This is a release build, indicating that you are likely "+
				"executing this on a production system.")
			fmt.Fprintln(cc.Out, "⚠️ ⚠️ ⚠️")
		}
		fmt.Fprintln(cc.Out)
		fmt.Fprintln(cc.Out, "Are you sure you want to completely remove everything in this "+
			"database and clear the search index? This completely drops the 'public' schema. "+
			"Please double-check the server you are running this on!")
		fmt.Fprintf(cc.Out, "Type '%s' to proceed to delete the data.\n", prompt.ConfirmToken)

		ok, err := cc.Confirm.ConfirmYes()
		if err != nil {
			return false, err
		}
		if !ok {
			return false, nil
		}
	}

	// Dropping the whole schema is the simplest way to remove every
	// contained object, including types and extensions' leftovers.
	statements := []string{
		"drop schema public cascade",
		"create schema public",
		fmt.Sprintf("grant all on schema public to %s", cc.Database.User),
		"grant all on schema public to public",
		"comment on schema public is 'standard public schema'",
	}
	for _, stmt := range statements {
		if _, err := tx.Exec(ctx, stmt); err != nil {
			return false, errors.Wrapf(err, "failed to execute %q", stmt)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return false, errors.Wrap(err, "failed to commit clear transaction "+
			"(the database state is ambiguous and must be verified manually)")
	}

	slog.Info("Dropped and recreated schema 'public'")
	return true, nil
}
