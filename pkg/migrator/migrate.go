package migrator

import (
	"context"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"
)

// metaTable records which migrations have been applied, including the full
// script text so drift between code and database can be detected.
const metaTable = "__migrations"

const createMetaTable = `
	create table if not exists __migrations (
		id bigint primary key,
		name text not null,
		applied_at timestamptz not null default now(),
		script text not null
	)`

// Migrate applies all pending embedded migrations in ID order and returns
// how many were applied.
//
// Everything runs in one serializable transaction holding an exclusive
// lock on the meta table, so concurrent server starts cannot interleave
// their migration runs. A migration recorded in the database whose script
// differs from the code's script aborts the run: the database was
// migrated by a different build, and reconciling that is a deliberate
// developer action (see Overwrite).
func Migrate(ctx context.Context, pool *pgxpool.Pool) (int, error) {
	migrations, err := All()
	if err != nil {
		return 0, err
	}

	tx, err := pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.Serializable})
	if err != nil {
		return 0, errors.Wrap(err, "failed to begin migration transaction")
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, createMetaTable); err != nil {
		return 0, errors.Wrapf(err, "failed to create %s table", metaTable)
	}
	if _, err := tx.Exec(ctx, "lock table "+metaTable+" in exclusive mode"); err != nil {
		return 0, errors.Wrapf(err, "failed to lock %s table", metaTable)
	}

	recorded, err := recordedScripts(ctx, tx)
	if err != nil {
		return 0, err
	}

	known := make(map[int64]bool, len(migrations))
	for _, m := range migrations {
		known[m.ID] = true
	}
	for id := range recorded {
		if !known[id] {
			return 0, errors.Errorf(
				"the database contains migration %d, which is unknown to this binary; "+
					"this usually means the database was migrated by a newer build",
				id,
			)
		}
	}

	applied := 0
	for _, m := range migrations {
		if script, ok := recorded[m.ID]; ok {
			if script != m.Script {
				return applied, errors.Errorf(
					"script of applied migration %d (%s) differs from the one in this binary; "+
						"if you know what you are doing, `db unsafe-overwrite-migrations` "+
						"can force the recorded scripts to match",
					m.ID, m.Name,
				)
			}
			continue
		}

		if _, err := tx.Exec(ctx, m.Script); err != nil {
			return applied, errors.Wrapf(err, "failed to apply migration %d (%s)", m.ID, m.Name)
		}

		const insert = "insert into __migrations (id, name, script) values ($1, $2, $3)"
		if _, err := tx.Exec(ctx, insert, m.ID, m.Name, m.Script); err != nil {
			return applied, errors.Wrapf(err, "failed to record migration %d (%s)", m.ID, m.Name)
		}

		slog.Info("Applied migration", "id", m.ID, "name", m.Name)
		applied++
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, errors.Wrap(err, "failed to commit migration transaction")
	}

	return applied, nil
}

// recordedScripts loads the applied migrations as an id -> script map.
func recordedScripts(ctx context.Context, tx pgx.Tx) (map[int64]string, error) {
	rows, err := tx.Query(ctx, "select id, script from "+metaTable)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read %s table", metaTable)
	}
	defer rows.Close()

	recorded := make(map[int64]string)
	for rows.Next() {
		var (
			id     int64
			script string
		)
		if err := rows.Scan(&id, &script); err != nil {
			return nil, errors.Wrapf(err, "failed to scan %s row", metaTable)
		}
		recorded[id] = script
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrapf(err, "failed to read %s table", metaTable)
	}

	return recorded, nil
}
