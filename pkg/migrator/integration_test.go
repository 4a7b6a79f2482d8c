package migrator_test

import (
	"context"
	"os/exec"
	"testing"
	"time"

	"github.com/caretaker-tools/caretaker/pkg/migrator"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

func startPool(t *testing.T) *pgxpool.Pool {
	t.Helper()

	if _, err := exec.LookPath("docker"); err != nil {
		t.Skip("Docker not found in PATH, skipping integration test")
	}

	ctx := context.Background()
	ctr, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("caretaker"),
		tcpostgres.WithUsername("caretaker"),
		tcpostgres.WithPassword("caretaker"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = testcontainers.TerminateContainer(ctr) })

	uri, err := ctr.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	pool, err := pgxpool.New(ctx, uri)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	return pool
}

func TestMigrateIntegration(t *testing.T) {
	pool := startPool(t)
	ctx := context.Background()

	migrations, err := migrator.All()
	require.NoError(t, err)

	t.Run("applies all pending migrations", func(t *testing.T) {
		applied, err := migrator.Migrate(ctx, pool)
		require.NoError(t, err)
		require.Equal(t, len(migrations), applied)

		// The migrated schema is in place.
		var count int64
		require.NoError(t, pool.QueryRow(ctx, "select count(*) from users").Scan(&count))
		require.Zero(t, count)

		// And every migration is recorded with its script.
		require.NoError(t, pool.QueryRow(ctx, "select count(*) from __migrations").Scan(&count))
		require.EqualValues(t, len(migrations), count)
	})

	t.Run("second run applies nothing", func(t *testing.T) {
		applied, err := migrator.Migrate(ctx, pool)
		require.NoError(t, err)
		require.Zero(t, applied)
	})

	t.Run("recorded script drift aborts", func(t *testing.T) {
		_, err := pool.Exec(ctx, "update __migrations set script = 'tampered' where id = 2")
		require.NoError(t, err)

		_, err = migrator.Migrate(ctx, pool)
		require.Error(t, err)
		require.Contains(t, err.Error(), "differs from the one in this binary")
		require.Contains(t, err.Error(), "unsafe-overwrite-migrations")
	})

	t.Run("unknown recorded migration aborts", func(t *testing.T) {
		_, err := pool.Exec(ctx,
			"insert into __migrations (id, name, script) values (99, 'future', 'select 99')")
		require.NoError(t, err)

		_, err = migrator.Migrate(ctx, pool)
		require.Error(t, err)
		require.Contains(t, err.Error(), "unknown to this binary")
	})

	t.Run("overwrite reconciles the table", func(t *testing.T) {
		require.NoError(t, migrator.Overwrite(ctx, pool))

		// The tampered script is restored to the embedded one.
		var script string
		require.NoError(t, pool.QueryRow(ctx,
			"select script from __migrations where id = 2").Scan(&script))
		require.Equal(t, migrations[1].Script, script)

		// The unknown row is gone.
		var count int64
		require.NoError(t, pool.QueryRow(ctx,
			"select count(*) from __migrations where id = 99").Scan(&count))
		require.Zero(t, count)

		// And a clean migrate runs again.
		applied, err := migrator.Migrate(ctx, pool)
		require.NoError(t, err)
		require.Zero(t, applied)
	})

	t.Run("overwrite never inserts", func(t *testing.T) {
		_, err := pool.Exec(ctx, "delete from __migrations where id = $1", len(migrations))
		require.NoError(t, err)

		require.NoError(t, migrator.Overwrite(ctx, pool))

		var count int64
		require.NoError(t, pool.QueryRow(ctx,
			"select count(*) from __migrations where id = $1", len(migrations)).Scan(&count))
		require.Zero(t, count)
	})
}
