package consts

const (
	// AdminDatabase is the maintenance database assumed to always exist on
	// a PostgreSQL server. Restore connects here because pg_restore drops
	// and recreates the target database itself.
	AdminDatabase = "postgres"

	// DefaultDatabaseHost is used when the config omits a database host.
	DefaultDatabaseHost = "localhost"

	// DefaultDatabasePort is the standard PostgreSQL port.
	DefaultDatabasePort = 5432

	// DefaultSearchHost is used when the config omits a Meilisearch host.
	DefaultSearchHost = "http://localhost:7700"
)
