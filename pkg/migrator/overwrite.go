package migrator

import (
	"context"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"
)

// Overwrite forces the __migrations table to match the embedded migration
// set: rows whose ID is known to this binary get their name and script
// updated, rows unknown to this binary are deleted. It never inserts new
// rows, so migrations the database has not seen stay pending.
//
// This is a developer-only escape hatch for when migration scripts were
// edited after being applied (e.g. during development of a migration). It
// does not touch the schema itself; do not use it unless you know exactly
// why the recorded scripts differ.
func Overwrite(ctx context.Context, pool *pgxpool.Pool) error {
	migrations, err := All()
	if err != nil {
		return err
	}

	byID := make(map[int64]Migration, len(migrations))
	for _, m := range migrations {
		byID[m.ID] = m
	}

	tx, err := pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.Serializable})
	if err != nil {
		return errors.Wrap(err, "failed to begin overwrite transaction")
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, createMetaTable); err != nil {
		return errors.Wrapf(err, "failed to create %s table", metaTable)
	}
	if _, err := tx.Exec(ctx, "lock table "+metaTable+" in exclusive mode"); err != nil {
		return errors.Wrapf(err, "failed to lock %s table", metaTable)
	}

	recorded, err := recordedScripts(ctx, tx)
	if err != nil {
		return err
	}

	var updated, deleted int
	for id := range recorded {
		m, ok := byID[id]
		if !ok {
			if _, err := tx.Exec(ctx, "delete from __migrations where id = $1", id); err != nil {
				return errors.Wrapf(err, "failed to delete unknown migration %d", id)
			}
			deleted++
			continue
		}

		if recorded[id] == m.Script {
			continue
		}

		const update = "update __migrations set name = $2, script = $3 where id = $1"
		if _, err := tx.Exec(ctx, update, m.ID, m.Name, m.Script); err != nil {
			return errors.Wrapf(err, "failed to overwrite migration %d (%s)", m.ID, m.Name)
		}
		updated++
	}

	if err := tx.Commit(ctx); err != nil {
		return errors.Wrap(err, "failed to commit overwrite transaction")
	}

	slog.Info("Overwrote migrations table", "updated", updated, "deleted", deleted)
	return nil
}
