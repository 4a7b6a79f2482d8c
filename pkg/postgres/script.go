package postgres

import (
	"context"
	"log/slog"
	"os"

	"github.com/pkg/errors"
)

// RunScript executes an operator-supplied SQL script file as a single
// batch. The whole file is read into memory first; read failures and
// execution failures are reported as distinct errors, both carrying the
// file path or batch context.
//
// The script is trusted input. It runs with whatever transactional
// semantics the batch itself sets up (a bare script runs in autocommit
// mode, statement by statement).
func (c *Client) RunScript(ctx context.Context, path string) error {
	script, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrapf(err, "failed to read script file '%s'", path)
	}

	// With no arguments pgx sends the SQL via the simple query protocol,
	// which permits multiple statements in one batch.
	if _, err := c.pool.Exec(ctx, string(script)); err != nil {
		return errors.Wrap(err, "failed to execute script")
	}

	slog.Info("Successfully ran SQL script", "path", path)
	return nil
}
