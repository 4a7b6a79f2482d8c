package postgres

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/pkg/errors"
)

// Querier is the subset of pgx operations needed for read-only catalog
// queries. It is satisfied by *pgxpool.Pool, *pgxpool.Conn and pgx.Tx.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// TableInfo is one entry of the pre-clear inventory: a table in the public
// schema and its current row count. The inventory is informational only;
// it is shown to the operator before the confirmation prompt.
type TableInfo struct {
	Name string
	Rows int64
}

const allTablesQuery = `
	select table_name
	from information_schema.tables
	where table_schema = 'public' and table_type = 'BASE TABLE'
	order by table_name`

// TableInventory lists all user tables in the public schema with their row
// counts. When q is a serializable transaction, the result is a consistent
// snapshot even under concurrent writers.
func TableInventory(ctx context.Context, q Querier) ([]TableInfo, error) {
	rows, err := q.Query(ctx, allTablesQuery)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list tables")
	}

	// Collect names before issuing the count queries: pgx allows only one
	// open result set per connection.
	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			rows.Close()
			return nil, errors.Wrap(err, "failed to scan table name")
		}
		names = append(names, name)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to list tables")
	}

	inventory := make([]TableInfo, 0, len(names))
	for _, name := range names {
		var count int64
		query := fmt.Sprintf("select count(*) from %s", QuoteIdentifier(name))
		if err := q.QueryRow(ctx, query).Scan(&count); err != nil {
			return nil, errors.Wrapf(err, "failed to count rows of table %s", name)
		}
		inventory = append(inventory, TableInfo{Name: name, Rows: count})
	}

	return inventory, nil
}

// QuoteIdentifier double-quotes a PostgreSQL identifier, escaping embedded
// quotes, so that catalog-derived names can be safely interpolated.
func QuoteIdentifier(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// RenderInventory writes the operator-facing banner shown before the
// confirmation prompt: machine hostname, database host and name, and the
// current table inventory.
func RenderInventory(w io.Writer, hostname, dbHost, dbName string, tables []TableInfo) {
	fmt.Fprintln(w)
	if hostname != "" {
		fmt.Fprintf(w, "Hostname: %s\n", hostname)
	}
	fmt.Fprintf(w, "Database host: %s\n", dbHost)
	fmt.Fprintf(w, "Database name: %s\n", dbName)

	fmt.Fprintln(w)
	fmt.Fprintln(w, "The database currently holds these tables:")
	for _, t := range tables {
		fmt.Fprintf(w, " - %s (%d rows)\n", t.Name, t.Rows)
	}
}
