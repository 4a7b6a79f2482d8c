// Package postgres contains the PostgreSQL side of caretaker: pool
// creation, connection URI building, the transactional full-schema clear,
// ad-hoc script execution, and delegation to the psql/pg_dump/pg_restore
// client tools.
//
// All destructive work goes through a single serializable transaction per
// operation; nothing in this package retries on conflict. The operator is
// expected to ensure no conflicting traffic runs during a clear, and zero
// connections exist to the target database during a restore.
package postgres
